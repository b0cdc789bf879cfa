package application

import (
	"context"
	"fmt"

	"voxsearch/internal/domain"
)

type SpeechToText interface {
	Transcribe(ctx context.Context, audio []byte, language string) (string, error)
}

// SpeechCapability is probed once at startup. Callers must check Available
// before asking for a recognizer.
type SpeechCapability interface {
	Available() bool
	// Reason explains why the capability is unavailable.
	Reason() string
	NewRecognizer(locale domain.Locale) (Recognizer, error)
}

// Recognizer is bound to a single locale.
type Recognizer interface {
	Start(ctx context.Context) (CaptureSession, error)
	Close() error
}

// CaptureSession is one start-to-end recognition lifecycle. The events
// channel is closed once the session is over, including after Abort.
type CaptureSession interface {
	Events() <-chan domain.RecognitionEvent
	// Stop finishes listening; a transcript of what was heard may follow.
	Stop() error
	// Abort discards the session without delivering a transcript.
	Abort() error
}

// UnavailableCapability reports a missing speech capability.
type UnavailableCapability struct {
	Why string
}

func (u UnavailableCapability) Available() bool { return false }

func (u UnavailableCapability) Reason() string { return u.Why }

func (u UnavailableCapability) NewRecognizer(_ domain.Locale) (Recognizer, error) {
	return nil, fmt.Errorf("%w: %s", domain.ErrCapabilityUnavailable, u.Why)
}
