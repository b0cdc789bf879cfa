package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"voxsearch/internal/domain"
)

const (
	NoticeSpeechUnavailable = "Speech Recognition not supported on this host"
	NoticeSpeechError       = "Error with speech recognition. Please try again."
)

// VoiceController drives one speech capability and keeps the listening
// state. At most one capture session is live at a time.
type VoiceController struct {
	capability SpeechCapability
	locales    domain.LocaleSet
	sink       QuerySink
	observer   ListeningObserver
	notifier   Notifier
	logger     *slog.Logger

	// ops serialises Configure, Start and Stop. mu guards the fields below
	// and is never held while calling out.
	ops sync.Mutex
	mu  sync.Mutex

	locale     domain.Locale
	recognizer Recognizer
	state      domain.ListeningState
	current    *captureRun
}

type captureRun struct {
	ctx       context.Context
	session   CaptureSession
	delivered bool
	idled     bool
	aborted   bool
	done      chan struct{}
}

func NewVoiceController(
	capability SpeechCapability,
	locales domain.LocaleSet,
	sink QuerySink,
	observer ListeningObserver,
	notifier Notifier,
	logger *slog.Logger,
) *VoiceController {
	return &VoiceController{
		capability: capability,
		locales:    locales,
		sink:       sink,
		observer:   observer,
		notifier:   notifier,
		logger:     logger,
		locale:     locales.Default(),
		state:      domain.ListeningIdle,
	}
}

// Configure binds a fresh recognizer to locale. Any running session is
// aborted and its events are dropped.
func (c *VoiceController) Configure(ctx context.Context, locale domain.Locale) error {
	c.ops.Lock()
	defer c.ops.Unlock()

	if !c.locales.Contains(locale) {
		return fmt.Errorf("%w: %s", domain.ErrUnsupportedLocale, locale)
	}

	c.teardown()

	c.mu.Lock()
	c.locale = locale
	c.mu.Unlock()

	if !c.capability.Available() {
		c.logger.Warn("speech capability unavailable", "reason", c.capability.Reason())
		c.notify(ctx, NoticeSpeechUnavailable)
		return fmt.Errorf("%w: %s", domain.ErrCapabilityUnavailable, c.capability.Reason())
	}

	recognizer, err := c.capability.NewRecognizer(locale)
	if err != nil {
		c.notify(ctx, NoticeSpeechUnavailable)
		return fmt.Errorf("creating recognizer for %s: %w", locale, err)
	}

	c.mu.Lock()
	c.recognizer = recognizer
	c.mu.Unlock()

	c.logger.Info("speech recognizer configured", "locale", locale)
	return nil
}

// Start opens a capture session. It is a no-op while already capturing.
func (c *VoiceController) Start(ctx context.Context) error {
	c.ops.Lock()
	defer c.ops.Unlock()

	c.mu.Lock()
	if c.state == domain.ListeningCapturing {
		c.mu.Unlock()
		c.logger.Debug("start ignored, already capturing")
		return nil
	}
	recognizer := c.recognizer
	previous := c.current
	c.current = nil
	if previous != nil {
		previous.aborted = true
		previous.idled = true
	}
	c.mu.Unlock()

	if previous != nil {
		c.abort(previous)
	}

	if recognizer == nil {
		c.notify(ctx, NoticeSpeechUnavailable)
		return domain.ErrCapabilityUnavailable
	}

	session, err := recognizer.Start(ctx)
	if err != nil {
		c.logger.Warn("starting capture session", "error", err)
		c.notify(ctx, NoticeSpeechError)
		return fmt.Errorf("%w: %v", domain.ErrRecognitionFailed, err)
	}

	run := &captureRun{ctx: ctx, session: session, done: make(chan struct{})}

	c.mu.Lock()
	c.current = run
	c.state = domain.ListeningCapturing
	locale := c.locale
	c.mu.Unlock()

	c.logger.Info("listening", "locale", locale)
	c.observer.ListeningChanged(domain.ListeningCapturing)

	go c.consume(run)
	return nil
}

// Stop leaves the capturing state at once. The recognizer finishes
// gracefully, so a transcript of what was already heard may still arrive.
func (c *VoiceController) Stop() error {
	c.ops.Lock()
	defer c.ops.Unlock()

	c.mu.Lock()
	run := c.current
	if c.state != domain.ListeningCapturing || run == nil {
		c.mu.Unlock()
		return nil
	}
	run.idled = true
	c.state = domain.ListeningIdle
	c.mu.Unlock()

	if err := run.session.Stop(); err != nil {
		c.logger.Warn("stopping capture session", "error", err)
	}
	c.observer.ListeningChanged(domain.ListeningIdle)
	return nil
}

// Toggle mirrors the microphone button.
func (c *VoiceController) Toggle(ctx context.Context) error {
	if c.State() == domain.ListeningCapturing {
		return c.Stop()
	}
	return c.Start(ctx)
}

// Close aborts any session and releases the recognizer.
func (c *VoiceController) Close() error {
	c.ops.Lock()
	defer c.ops.Unlock()
	c.teardown()
	return nil
}

func (c *VoiceController) State() domain.ListeningState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *VoiceController) Locale() domain.Locale {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.locale
}

func (c *VoiceController) teardown() {
	c.mu.Lock()
	run := c.current
	c.current = nil
	recognizer := c.recognizer
	c.recognizer = nil
	wasCapturing := c.state == domain.ListeningCapturing
	c.state = domain.ListeningIdle
	if run != nil {
		run.aborted = true
		run.idled = true
	}
	c.mu.Unlock()

	if run != nil {
		c.abort(run)
	}
	if recognizer != nil {
		if err := recognizer.Close(); err != nil {
			c.logger.Warn("closing recognizer", "error", err)
		}
	}
	if wasCapturing {
		c.observer.ListeningChanged(domain.ListeningIdle)
	}
}

func (c *VoiceController) abort(run *captureRun) {
	if err := run.session.Abort(); err != nil {
		c.logger.Warn("aborting capture session", "error", err)
	}
	<-run.done
}

func (c *VoiceController) consume(run *captureRun) {
	defer close(run.done)

	for event := range run.session.Events() {
		switch event.Kind {
		case domain.RecognitionTranscript:
			c.applyTranscript(run, event.Text)
		case domain.RecognitionError:
			c.fail(run, event.Err)
		case domain.RecognitionEnd:
			c.finish(run)
		}
	}
	c.finish(run)

	c.mu.Lock()
	if c.current == run {
		c.current = nil
	}
	c.mu.Unlock()
}

func (c *VoiceController) applyTranscript(run *captureRun, text string) {
	text = strings.TrimSpace(text)

	c.mu.Lock()
	if run.aborted || run.delivered || text == "" {
		c.mu.Unlock()
		return
	}
	run.delivered = true
	c.mu.Unlock()

	c.logger.Info("transcript received", "chars", len(text))
	c.sink.SetQuery(text)
}

func (c *VoiceController) fail(run *captureRun, cause error) {
	c.mu.Lock()
	aborted := run.aborted
	c.mu.Unlock()
	if aborted {
		return
	}

	err := fmt.Errorf("%w: %v", domain.ErrRecognitionFailed, cause)
	c.logger.Warn("speech recognition error", "error", err)
	c.notify(run.ctx, NoticeSpeechError)
	c.finish(run)
}

func (c *VoiceController) finish(run *captureRun) {
	c.mu.Lock()
	if run.idled {
		c.mu.Unlock()
		return
	}
	run.idled = true
	changed := c.current == run && c.state == domain.ListeningCapturing
	if changed {
		c.state = domain.ListeningIdle
	}
	c.mu.Unlock()

	if changed {
		c.observer.ListeningChanged(domain.ListeningIdle)
	}
}

func (c *VoiceController) notify(ctx context.Context, message string) {
	if err := c.notifier.Notify(ctx, message); err != nil {
		c.logger.Error("notifying", "error", err)
	}
}
