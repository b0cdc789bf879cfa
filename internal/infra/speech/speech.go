package speech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"voxsearch/internal/application"
	"voxsearch/internal/domain"
)

// Source is an audio source that can be checked before first use.
type Source interface {
	application.AudioSource
	Probe() error
}

// Capability pairs an audio source with a speech-to-text backend. It is
// probed once, at construction.
type Capability struct {
	source Source
	stt    application.SpeechToText
	logger *slog.Logger

	available bool
	reason    string
}

func NewCapability(source Source, stt application.SpeechToText, logger *slog.Logger) *Capability {
	c := &Capability{source: source, stt: stt, logger: logger}
	c.probe()
	return c
}

func (c *Capability) probe() {
	switch {
	case c.source == nil:
		c.reason = "no audio source configured"
	case c.stt == nil:
		c.reason = "no speech-to-text backend configured"
	default:
		if err := c.source.Probe(); err != nil {
			c.reason = err.Error()
			break
		}
		c.available = true
	}

	if c.available {
		c.logger.Info("speech capability available", "source", c.source.Name())
	} else {
		c.logger.Warn("speech capability unavailable", "reason", c.reason)
	}
}

func (c *Capability) Available() bool { return c.available }

func (c *Capability) Reason() string { return c.reason }

func (c *Capability) NewRecognizer(locale domain.Locale) (application.Recognizer, error) {
	if !c.available {
		return nil, fmt.Errorf("%w: %s", domain.ErrCapabilityUnavailable, c.reason)
	}
	return &Recognizer{
		locale: locale,
		source: c.source,
		stt:    c.stt,
		logger: c.logger.With("locale", locale.String()),
	}, nil
}

var errRecognizerClosed = errors.New("recognizer closed")

// Recognizer captures one utterance per session and transcribes it in its
// locale's language.
type Recognizer struct {
	locale domain.Locale
	source application.AudioSource
	stt    application.SpeechToText
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

func (r *Recognizer) Start(ctx context.Context) (application.CaptureSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, errRecognizerClosed
	}

	sessionCtx, cancel := context.WithCancel(ctx)
	s := &Session{
		events: make(chan domain.RecognitionEvent, 3),
		stop:   make(chan struct{}),
		cancel: cancel,
	}
	go r.run(sessionCtx, s)
	return s, nil
}

func (r *Recognizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *Recognizer) run(ctx context.Context, s *Session) {
	defer close(s.events)
	defer s.cancel()

	audio, err := r.source.Capture(ctx, s.stop)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		s.send(ctx, domain.ErrorEvent(fmt.Errorf("capturing audio: %w", err)))
		s.send(ctx, domain.EndEvent())
		return
	}
	if len(audio) == 0 {
		r.logger.Debug("no speech captured")
		s.send(ctx, domain.EndEvent())
		return
	}

	r.logger.Debug("transcribing", "bytes", len(audio))
	text, err := r.stt.Transcribe(ctx, audio, r.locale.Language())
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		s.send(ctx, domain.ErrorEvent(fmt.Errorf("transcribing: %w", err)))
		s.send(ctx, domain.EndEvent())
		return
	}

	if text != "" {
		s.send(ctx, domain.TranscriptEvent(text))
	}
	s.send(ctx, domain.EndEvent())
}

// Session is one capture started by a Recognizer.
type Session struct {
	events   chan domain.RecognitionEvent
	stop     chan struct{}
	stopOnce sync.Once
	cancel   context.CancelFunc
}

func (s *Session) Events() <-chan domain.RecognitionEvent { return s.events }

func (s *Session) Stop() error {
	s.stopOnce.Do(func() { close(s.stop) })
	return nil
}

func (s *Session) Abort() error {
	s.cancel()
	return nil
}

func (s *Session) send(ctx context.Context, event domain.RecognitionEvent) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}
