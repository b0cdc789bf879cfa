package speech_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxsearch/internal/domain"
	"voxsearch/internal/infra/speech"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeSource returns audio immediately, or blocks until stop or ctx when
// block is set.
type fakeSource struct {
	audio    []byte
	err      error
	probeErr error
	block    bool
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Probe() error { return f.probeErr }

func (f *fakeSource) Capture(ctx context.Context, stop <-chan struct{}) ([]byte, error) {
	if f.block {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-stop:
			return f.audio, nil
		}
	}
	return f.audio, f.err
}

type fakeSTT struct {
	mu        sync.Mutex
	languages []string
	text      string
	err       error
}

func (f *fakeSTT) Transcribe(_ context.Context, _ []byte, language string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.languages = append(f.languages, language)
	return f.text, f.err
}

func collect(t *testing.T, events <-chan domain.RecognitionEvent) []domain.RecognitionEvent {
	t.Helper()
	var out []domain.RecognitionEvent
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatal("timeout waiting for session to close")
		}
	}
}

func TestCapability_Probe(t *testing.T) {
	assert.False(t, speech.NewCapability(nil, &fakeSTT{}, discardLogger()).Available())
	assert.False(t, speech.NewCapability(&fakeSource{}, nil, discardLogger()).Available())

	broken := speech.NewCapability(&fakeSource{probeErr: errors.New("no input device")}, &fakeSTT{}, discardLogger())
	assert.False(t, broken.Available())
	assert.Equal(t, "no input device", broken.Reason())
	_, err := broken.NewRecognizer(domain.LocaleEnglishUS)
	assert.ErrorIs(t, err, domain.ErrCapabilityUnavailable)

	assert.True(t, speech.NewCapability(&fakeSource{}, &fakeSTT{}, discardLogger()).Available())
}

func TestRecognizer_Transcript(t *testing.T) {
	stt := &fakeSTT{text: "ಹವಾಮಾನ"}
	capability := speech.NewCapability(&fakeSource{audio: []byte("wav")}, stt, discardLogger())

	recognizer, err := capability.NewRecognizer(domain.LocaleKannadaIN)
	require.NoError(t, err)
	session, err := recognizer.Start(context.Background())
	require.NoError(t, err)

	events := collect(t, session.Events())
	require.Len(t, events, 2)
	assert.Equal(t, domain.TranscriptEvent("ಹವಾಮಾನ"), events[0])
	assert.Equal(t, domain.RecognitionEnd, events[1].Kind)
	assert.Equal(t, []string{"kn"}, stt.languages)
}

func TestRecognizer_TranscriptionError(t *testing.T) {
	capability := speech.NewCapability(&fakeSource{audio: []byte("wav")}, &fakeSTT{err: errors.New("quota")}, discardLogger())
	recognizer, _ := capability.NewRecognizer(domain.LocaleEnglishUS)
	session, err := recognizer.Start(context.Background())
	require.NoError(t, err)

	events := collect(t, session.Events())
	require.Len(t, events, 2)
	assert.Equal(t, domain.RecognitionError, events[0].Kind)
	assert.ErrorContains(t, events[0].Err, "quota")
	assert.Equal(t, domain.RecognitionEnd, events[1].Kind)
}

func TestRecognizer_NoSpeech(t *testing.T) {
	stt := &fakeSTT{text: "unused"}
	capability := speech.NewCapability(&fakeSource{}, stt, discardLogger())
	recognizer, _ := capability.NewRecognizer(domain.LocaleEnglishUS)
	session, _ := recognizer.Start(context.Background())

	events := collect(t, session.Events())
	assert.Equal(t, []domain.RecognitionEvent{domain.EndEvent()}, events)
	assert.Empty(t, stt.languages)
}

func TestSession_StopDeliversWhatWasHeard(t *testing.T) {
	capability := speech.NewCapability(&fakeSource{audio: []byte("partial"), block: true}, &fakeSTT{text: "partial query"}, discardLogger())
	recognizer, _ := capability.NewRecognizer(domain.LocaleEnglishUS)
	session, _ := recognizer.Start(context.Background())

	require.NoError(t, session.Stop())
	require.NoError(t, session.Stop())

	events := collect(t, session.Events())
	require.Len(t, events, 2)
	assert.Equal(t, "partial query", events[0].Text)
}

func TestSession_AbortClosesWithoutEvents(t *testing.T) {
	capability := speech.NewCapability(&fakeSource{audio: []byte("x"), block: true}, &fakeSTT{text: "dropped"}, discardLogger())
	recognizer, _ := capability.NewRecognizer(domain.LocaleEnglishUS)
	session, _ := recognizer.Start(context.Background())

	require.NoError(t, session.Abort())

	assert.Empty(t, collect(t, session.Events()))
}

func TestRecognizer_StartAfterClose(t *testing.T) {
	capability := speech.NewCapability(&fakeSource{}, &fakeSTT{}, discardLogger())
	recognizer, _ := capability.NewRecognizer(domain.LocaleEnglishUS)
	require.NoError(t, recognizer.Close())

	_, err := recognizer.Start(context.Background())
	assert.Error(t, err)
}
