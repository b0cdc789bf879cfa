package audio

import "time"

type MicrophoneConfig struct {
	SampleRate       int
	FramesPerBuffer  int
	SilenceThreshold int16
	TrailingSilence  time.Duration
	MaxDuration      time.Duration
}

func (c MicrophoneConfig) withDefaults() MicrophoneConfig {
	if c.SampleRate == 0 {
		c.SampleRate = 16000
	}
	if c.FramesPerBuffer == 0 {
		c.FramesPerBuffer = 1024
	}
	if c.SilenceThreshold == 0 {
		c.SilenceThreshold = 500
	}
	if c.TrailingSilence == 0 {
		c.TrailingSilence = time.Second
	}
	if c.MaxDuration == 0 {
		c.MaxDuration = 10 * time.Second
	}
	return c
}
