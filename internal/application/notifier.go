package application

import (
	"context"

	"voxsearch/internal/domain"
)

// Notifier surfaces non-blocking notices to the user.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

type NoopNotifier struct{}

func (n *NoopNotifier) Notify(_ context.Context, _ string) error {
	return nil
}

// QuerySink receives recognized text.
type QuerySink interface {
	SetQuery(text string)
}

type ListeningObserver interface {
	ListeningChanged(state domain.ListeningState)
}

// Presenter renders session state.
type Presenter interface {
	QueryChanged(text string)
	ListeningChanged(state domain.ListeningState, locale domain.Locale)
	SubmissionChanged(result domain.SubmissionResult)
}
