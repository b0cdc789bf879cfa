package domain

// ListeningState is the two-value capture flag.
type ListeningState string

const (
	ListeningIdle      ListeningState = "idle"
	ListeningCapturing ListeningState = "capturing"
)

type RecognitionEventKind string

const (
	RecognitionTranscript RecognitionEventKind = "transcript"
	RecognitionError      RecognitionEventKind = "error"
	RecognitionEnd        RecognitionEventKind = "end"
)

// RecognitionEvent is one outcome reported by a capture session.
type RecognitionEvent struct {
	Kind RecognitionEventKind
	Text string
	Err  error
}

func TranscriptEvent(text string) RecognitionEvent {
	return RecognitionEvent{Kind: RecognitionTranscript, Text: text}
}

func ErrorEvent(err error) RecognitionEvent {
	return RecognitionEvent{Kind: RecognitionError, Err: err}
}

func EndEvent() RecognitionEvent {
	return RecognitionEvent{Kind: RecognitionEnd}
}
