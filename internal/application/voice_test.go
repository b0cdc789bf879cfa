package application_test

import (
	"context"
	"errors"
	"testing"

	"voxsearch/internal/application"
	"voxsearch/internal/domain"
)

type voiceFixture struct {
	capability *mockCapability
	sink       *mockSink
	observer   *mockObserver
	notifier   *mockNotifier
	controller *application.VoiceController
}

func newVoiceFixture(t *testing.T, capability *mockCapability) *voiceFixture {
	t.Helper()
	f := &voiceFixture{
		capability: capability,
		sink:       &mockSink{},
		observer:   &mockObserver{},
		notifier:   &mockNotifier{},
	}
	f.controller = application.NewVoiceController(
		capability,
		domain.DefaultLocaleSet(),
		f.sink,
		f.observer,
		f.notifier,
		discardLogger(),
	)
	t.Cleanup(func() { _ = f.controller.Close() })
	return f
}

func TestVoiceController_TranscriptPerLocale(t *testing.T) {
	for _, locale := range domain.DefaultLocaleSet().All() {
		t.Run(locale.String(), func(t *testing.T) {
			f := newVoiceFixture(t, &mockCapability{})
			ctx := context.Background()

			if err := f.controller.Configure(ctx, locale); err != nil {
				t.Fatalf("configure: %v", err)
			}
			if err := f.controller.Start(ctx); err != nil {
				t.Fatalf("start: %v", err)
			}

			recognizer := f.capability.current()
			if recognizer.locale != locale {
				t.Errorf("recognizer locale = %s, want %s", recognizer.locale, locale)
			}

			session := recognizer.last()
			session.emit(domain.TranscriptEvent("  what is the weather  "))
			session.emit(domain.EndEvent())
			session.end()

			waitFor(t, "idle", func() bool {
				return f.controller.State() == domain.ListeningIdle
			})
			got := f.sink.snapshot()
			if len(got) != 1 || got[0] != "what is the weather" {
				t.Errorf("queries = %q, want [what is the weather]", got)
			}
		})
	}
}

func TestVoiceController_StartWhileCapturingIsIgnored(t *testing.T) {
	f := newVoiceFixture(t, &mockCapability{})
	ctx := context.Background()

	if err := f.controller.Configure(ctx, domain.LocaleEnglishUS); err != nil {
		t.Fatalf("configure: %v", err)
	}
	if err := f.controller.Start(ctx); err != nil {
		t.Fatalf("first start: %v", err)
	}
	if err := f.controller.Start(ctx); err != nil {
		t.Fatalf("second start: %v", err)
	}

	if n := len(f.capability.current().started()); n != 1 {
		t.Errorf("sessions started = %d, want 1", n)
	}
	states := f.observer.snapshot()
	if len(states) != 1 || states[0] != domain.ListeningCapturing {
		t.Errorf("transitions = %v, want [capturing]", states)
	}
}

func TestVoiceController_TranscriptAppliedOnce(t *testing.T) {
	f := newVoiceFixture(t, &mockCapability{})
	ctx := context.Background()

	_ = f.controller.Configure(ctx, domain.LocaleEnglishUS)
	_ = f.controller.Start(ctx)

	session := f.capability.current().last()
	session.emit(domain.TranscriptEvent("first"))
	session.emit(domain.TranscriptEvent("second"))
	session.end()

	waitFor(t, "idle", func() bool {
		return f.controller.State() == domain.ListeningIdle
	})
	got := f.sink.snapshot()
	if len(got) != 1 || got[0] != "first" {
		t.Errorf("queries = %q, want [first]", got)
	}
}

func TestVoiceController_ErrorEvent(t *testing.T) {
	f := newVoiceFixture(t, &mockCapability{})
	ctx := context.Background()

	_ = f.controller.Configure(ctx, domain.LocaleEnglishUS)
	_ = f.controller.Start(ctx)

	session := f.capability.current().last()
	session.emit(domain.ErrorEvent(errBoom))

	waitFor(t, "idle after error", func() bool {
		return f.controller.State() == domain.ListeningIdle
	})
	messages := f.notifier.snapshot()
	if len(messages) != 1 || messages[0] != application.NoticeSpeechError {
		t.Errorf("notices = %q", messages)
	}

	session.emit(domain.EndEvent())
	session.end()

	waitFor(t, "session drained", func() bool {
		states := f.observer.snapshot()
		return len(states) == 2
	})
	if states := f.observer.snapshot(); states[1] != domain.ListeningIdle {
		t.Errorf("transitions = %v, want [capturing idle]", states)
	}
	if len(f.sink.snapshot()) != 0 {
		t.Error("no transcript expected after error")
	}
}

func TestVoiceController_StopStillAppliesLateTranscript(t *testing.T) {
	f := newVoiceFixture(t, &mockCapability{})
	ctx := context.Background()

	_ = f.controller.Configure(ctx, domain.LocaleEnglishUS)
	_ = f.controller.Start(ctx)

	if err := f.controller.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if f.controller.State() != domain.ListeningIdle {
		t.Fatalf("state after stop = %s, want idle", f.controller.State())
	}

	session := f.capability.current().last()
	if stopped, _ := session.counts(); stopped != 1 {
		t.Errorf("session stop calls = %d, want 1", stopped)
	}

	session.emit(domain.TranscriptEvent("heard so far"))
	session.emit(domain.EndEvent())
	session.end()

	waitFor(t, "late transcript", func() bool {
		return len(f.sink.snapshot()) == 1
	})
	states := f.observer.snapshot()
	if len(states) != 2 {
		t.Errorf("transitions = %v, want exactly one idle after capturing", states)
	}
}

func TestVoiceController_RestartAbortsDrainingSession(t *testing.T) {
	f := newVoiceFixture(t, &mockCapability{})
	ctx := context.Background()

	_ = f.controller.Configure(ctx, domain.LocaleEnglishUS)
	_ = f.controller.Start(ctx)
	_ = f.controller.Stop()
	first := f.capability.current().last()

	if err := f.controller.Start(ctx); err != nil {
		t.Fatalf("restart: %v", err)
	}

	if _, aborted := first.counts(); aborted != 1 {
		t.Errorf("previous session aborted %d times, want 1", aborted)
	}
	if n := len(f.capability.current().started()); n != 2 {
		t.Errorf("sessions started = %d, want 2", n)
	}
	if f.controller.State() != domain.ListeningCapturing {
		t.Errorf("state = %s, want capturing", f.controller.State())
	}
}

func TestVoiceController_Unavailable(t *testing.T) {
	f := newVoiceFixture(t, &mockCapability{unavailable: true})
	ctx := context.Background()

	err := f.controller.Configure(ctx, domain.LocaleEnglishUS)
	if !errors.Is(err, domain.ErrCapabilityUnavailable) {
		t.Fatalf("configure error = %v, want ErrCapabilityUnavailable", err)
	}
	if err := f.controller.Start(ctx); !errors.Is(err, domain.ErrCapabilityUnavailable) {
		t.Fatalf("start error = %v, want ErrCapabilityUnavailable", err)
	}

	if f.controller.State() != domain.ListeningIdle {
		t.Error("state must stay idle without a capability")
	}
	if n := len(f.notifier.snapshot()); n != 2 {
		t.Errorf("notices = %d, want 2", n)
	}
}

func TestVoiceController_StartFailure(t *testing.T) {
	f := newVoiceFixture(t, &mockCapability{})
	ctx := context.Background()

	_ = f.controller.Configure(ctx, domain.LocaleEnglishUS)
	f.capability.current().startErr = errBoom

	err := f.controller.Start(ctx)
	if !errors.Is(err, domain.ErrRecognitionFailed) {
		t.Fatalf("start error = %v, want ErrRecognitionFailed", err)
	}
	if f.controller.State() != domain.ListeningIdle {
		t.Error("state must stay idle after a failed start")
	}
}

func TestVoiceController_UnsupportedLocale(t *testing.T) {
	f := newVoiceFixture(t, &mockCapability{})

	err := f.controller.Configure(context.Background(), domain.Locale("fr-FR"))
	if !errors.Is(err, domain.ErrUnsupportedLocale) {
		t.Fatalf("error = %v, want ErrUnsupportedLocale", err)
	}
}

func TestVoiceController_ReconfigureDropsEvents(t *testing.T) {
	f := newVoiceFixture(t, &mockCapability{})
	ctx := context.Background()

	_ = f.controller.Configure(ctx, domain.LocaleEnglishUS)
	_ = f.controller.Start(ctx)
	oldRecognizer := f.capability.current()
	oldSession := oldRecognizer.last()

	if err := f.controller.Configure(ctx, domain.LocaleKannadaIN); err != nil {
		t.Fatalf("reconfigure: %v", err)
	}

	oldSession.emit(domain.TranscriptEvent("stale"))

	if _, aborted := oldSession.counts(); aborted != 1 {
		t.Errorf("old session aborted %d times, want 1", aborted)
	}
	if !oldRecognizer.closed {
		t.Error("old recognizer should be closed")
	}
	if len(f.sink.snapshot()) != 0 {
		t.Error("stale transcript must be dropped")
	}
	if f.controller.State() != domain.ListeningIdle {
		t.Errorf("state = %s, want idle", f.controller.State())
	}
	if f.controller.Locale() != domain.LocaleKannadaIN {
		t.Errorf("locale = %s, want kn-IN", f.controller.Locale())
	}
}
