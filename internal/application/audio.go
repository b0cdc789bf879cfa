package application

import "context"

// AudioSource records one utterance per call.
type AudioSource interface {
	// Capture blocks until the utterance ends, stop is closed or ctx is
	// cancelled. Closing stop returns whatever was recorded so far.
	Capture(ctx context.Context, stop <-chan struct{}) ([]byte, error)
	Name() string
}

type AudioFormat struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

func DefaultAudioFormat() AudioFormat {
	return AudioFormat{
		SampleRate: 16000,
		Channels:   1,
		BitDepth:   16,
	}
}
