package notify

import (
	"context"
	"errors"

	"voxsearch/internal/application"
)

// Fanout delivers each notice to every channel, collecting failures.
type Fanout []application.Notifier

func (f Fanout) Notify(ctx context.Context, message string) error {
	var errs []error
	for _, n := range f {
		if err := n.Notify(ctx, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
