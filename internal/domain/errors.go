package domain

import (
	"errors"
	"fmt"
)

var (
	ErrCapabilityUnavailable = errors.New("speech recognition not supported")
	ErrRecognitionFailed     = errors.New("speech recognition failed")
	ErrEmptySubmission       = errors.New("empty submission")
	ErrNetworkFailure        = errors.New("network failure")
	ErrRemoteFailure         = errors.New("remote failure")
	ErrSubmissionResolved    = errors.New("submission already resolved")
	ErrUnsupportedLocale     = errors.New("unsupported locale")
)

// SubmissionError carries the failure category of a gateway round trip.
type SubmissionError struct {
	Reason     FailureReason
	StatusCode int
	Err        error
}

func (e *SubmissionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("submission failed (%s, status %d): %v", e.Reason, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("submission failed (%s): %v", e.Reason, e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

func (e *SubmissionError) Is(target error) bool {
	switch target {
	case ErrNetworkFailure:
		return e.Reason == FailureNetwork
	case ErrRemoteFailure:
		return e.Reason == FailureServer || e.Reason == FailureBadResponse
	case ErrEmptySubmission:
		return e.Reason == FailureEmpty
	}
	return false
}

// ReasonOf maps any submit error onto a failure category.
func ReasonOf(err error) FailureReason {
	var subErr *SubmissionError
	if errors.As(err, &subErr) {
		return subErr.Reason
	}
	if errors.Is(err, ErrEmptySubmission) {
		return FailureEmpty
	}
	return FailureNetwork
}
