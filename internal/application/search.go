package application

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"voxsearch/internal/domain"
)

// SearchSession is the search form: query text, locale toggle, microphone
// toggle and the displayed submission result.
type SearchSession struct {
	voice     *VoiceController
	gateway   Submitter
	notifier  Notifier
	presenter Presenter
	locales   domain.LocaleSet
	logger    *slog.Logger
	now       func() time.Time

	mu        sync.Mutex
	query     string
	displayed domain.SubmissionResult

	// publishMu orders displayed updates with their rendering.
	publishMu sync.Mutex
}

func NewSearchSession(
	capability SpeechCapability,
	gateway Submitter,
	notifier Notifier,
	presenter Presenter,
	locales domain.LocaleSet,
	logger *slog.Logger,
) *SearchSession {
	s := &SearchSession{
		gateway:   gateway,
		notifier:  notifier,
		presenter: presenter,
		locales:   locales,
		logger:    logger,
		now:       time.Now,
	}
	s.voice = NewVoiceController(capability, locales, s, s, notifier, logger.With("component", "voice"))
	return s
}

// Init binds the recognizer to the default locale. A missing speech
// capability is not fatal: typed input keeps working.
func (s *SearchSession) Init(ctx context.Context) error {
	err := s.voice.Configure(ctx, s.locales.Default())
	if errors.Is(err, domain.ErrCapabilityUnavailable) {
		s.logger.Info("voice input disabled, typed input only")
		return nil
	}
	return err
}

func (s *SearchSession) SetQuery(text string) {
	s.mu.Lock()
	s.query = text
	s.mu.Unlock()
	s.presenter.QueryChanged(text)
}

func (s *SearchSession) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

func (s *SearchSession) Locale() domain.Locale {
	return s.voice.Locale()
}

func (s *SearchSession) Listening() domain.ListeningState {
	return s.voice.State()
}

func (s *SearchSession) Displayed() domain.SubmissionResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.displayed
}

// ListeningChanged forwards controller state to the presenter.
func (s *SearchSession) ListeningChanged(state domain.ListeningState) {
	s.presenter.ListeningChanged(state, s.voice.Locale())
}

func (s *SearchSession) ToggleMic(ctx context.Context) error {
	return s.voice.Toggle(ctx)
}

// ToggleLocale switches to the next supported locale and rebinds the
// recognizer. Listening always ends up idle.
func (s *SearchSession) ToggleLocale(ctx context.Context) (domain.Locale, error) {
	next := s.locales.Next(s.voice.Locale())
	err := s.voice.Configure(ctx, next)
	s.presenter.ListeningChanged(s.voice.State(), next)
	if errors.Is(err, domain.ErrCapabilityUnavailable) {
		return next, nil
	}
	return next, err
}

// Submit sends the current query text. Concurrent submissions are not
// cancelled; whichever resolves last is displayed.
func (s *SearchSession) Submit(ctx context.Context) domain.SubmissionResult {
	text := s.Query()
	sub := domain.NewSubmission(uuid.NewString(), text, s.now())
	s.publish(sub.Result())

	started := time.Now()
	result, err := s.gateway.Submit(ctx, text)
	if err != nil {
		reason := domain.ReasonOf(err)
		_ = sub.Fail(reason, err.Error())
		s.logger.Warn("submission failed", "id", sub.Result().ID, "reason", reason, "error", err)
		if notifyErr := s.notifier.Notify(ctx, failureNotice(reason)); notifyErr != nil {
			s.logger.Error("notifying failure", "error", notifyErr)
		}
	} else {
		_ = sub.Succeed(result)
		s.logger.Info("submission succeeded", "id", sub.Result().ID, "duration", time.Since(started))
	}

	final := sub.Result()
	s.publish(final)
	return final
}

func (s *SearchSession) Close() error {
	return s.voice.Close()
}

func (s *SearchSession) publish(result domain.SubmissionResult) {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	s.mu.Lock()
	s.displayed = result
	s.mu.Unlock()
	s.presenter.SubmissionChanged(result)
}

func failureNotice(reason domain.FailureReason) string {
	switch reason {
	case domain.FailureEmpty:
		return "Type or speak a query first."
	case domain.FailureServer:
		return "The search service returned an error. Please try again."
	case domain.FailureBadResponse:
		return "The search service sent an unexpected response."
	default:
		return "Could not reach the search service. Check your connection and try again."
	}
}
