package notify

import (
	"context"
	"fmt"

	"github.com/gen2brain/beeep"
)

// Desktop shows notices as native desktop notifications.
type Desktop struct {
	title string
	send  func(title, message, icon string) error
}

func NewDesktop(title string) *Desktop {
	return &Desktop{title: title, send: beeep.Notify}
}

func (d *Desktop) Notify(_ context.Context, message string) error {
	if err := d.send(d.title, message, ""); err != nil {
		return fmt.Errorf("desktop notification: %w", err)
	}
	return nil
}
