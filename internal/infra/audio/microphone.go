//go:build portaudio
// +build portaudio

package audio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// MicrophoneSupported reports whether this build can open a microphone.
const MicrophoneSupported = true

type MicrophoneSource struct {
	cfg    MicrophoneConfig
	logger *slog.Logger

	// one capture at a time per device
	mu sync.Mutex
}

func NewMicrophoneSource(cfg MicrophoneConfig, logger *slog.Logger) *MicrophoneSource {
	return &MicrophoneSource{
		cfg:    cfg.withDefaults(),
		logger: logger,
	}
}

func (m *MicrophoneSource) Name() string {
	return "microphone"
}

// Probe opens and closes the default input device.
func (m *MicrophoneSource) Probe() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initializing portaudio: %w", err)
	}
	defer portaudio.Terminate()

	if _, err := portaudio.DefaultInputDevice(); err != nil {
		return fmt.Errorf("no default input device: %w", err)
	}
	return nil
}

func (m *MicrophoneSource) Capture(ctx context.Context, stop <-chan struct{}) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initializing portaudio: %w", err)
	}
	defer portaudio.Terminate()

	frame := make([]int16, m.cfg.FramesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(m.cfg.SampleRate), len(frame), frame)
	if err != nil {
		return nil, fmt.Errorf("opening stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, fmt.Errorf("starting stream: %w", err)
	}
	defer stream.Stop()

	m.logger.Debug("microphone capturing", "sampleRate", m.cfg.SampleRate)

	u := newUtterance(m.cfg.SampleRate, m.cfg.SilenceThreshold, m.cfg.TrailingSilence.Seconds(), m.cfg.MaxDuration.Seconds())
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-stop:
			return u.wav(), nil
		default:
		}

		if err := stream.Read(); err != nil {
			return nil, fmt.Errorf("reading from stream: %w", err)
		}

		if u.add(frame) {
			break
		}
	}

	return u.wav(), nil
}
