package domain

import "time"

type SubmissionStatus string

const (
	SubmissionPending SubmissionStatus = "pending"
	SubmissionSuccess SubmissionStatus = "success"
	SubmissionFailure SubmissionStatus = "failure"
)

// FailureReason is the coarse category shown to the user.
type FailureReason string

const (
	FailureEmpty       FailureReason = "empty"
	FailureNetwork     FailureReason = "network"
	FailureServer      FailureReason = "server"
	FailureBadResponse FailureReason = "badResponse"
)

type SubmissionResult struct {
	ID          string
	Query       string
	Status      SubmissionStatus
	Text        string
	Reason      FailureReason
	Detail      string
	SubmittedAt time.Time
}

// Submission tracks one request/response round trip. It moves from pending
// to success or failure once and never back.
type Submission struct {
	result SubmissionResult
}

func NewSubmission(id, query string, at time.Time) *Submission {
	return &Submission{result: SubmissionResult{
		ID:          id,
		Query:       query,
		Status:      SubmissionPending,
		SubmittedAt: at,
	}}
}

func (s *Submission) Succeed(text string) error {
	if s.result.Status != SubmissionPending {
		return ErrSubmissionResolved
	}
	s.result.Status = SubmissionSuccess
	s.result.Text = text
	return nil
}

func (s *Submission) Fail(reason FailureReason, detail string) error {
	if s.result.Status != SubmissionPending {
		return ErrSubmissionResolved
	}
	s.result.Status = SubmissionFailure
	s.result.Reason = reason
	s.result.Detail = detail
	return nil
}

func (s *Submission) Result() SubmissionResult {
	return s.result
}
