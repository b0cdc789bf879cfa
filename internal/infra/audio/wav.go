package audio

import (
	"bytes"
	"encoding/binary"
)

// EncodeWAV wraps mono 16-bit PCM samples in a RIFF/WAVE container.
func EncodeWAV(samples []int16, sampleRate int) []byte {
	var buf bytes.Buffer

	dataSize := len(samples) * 2
	fileSize := 36 + dataSize

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, int32(fileSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, int32(16))
	binary.Write(&buf, binary.LittleEndian, int16(1))
	binary.Write(&buf, binary.LittleEndian, int16(1))
	binary.Write(&buf, binary.LittleEndian, int32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, int32(sampleRate*2))
	binary.Write(&buf, binary.LittleEndian, int16(2))
	binary.Write(&buf, binary.LittleEndian, int16(16))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, int32(dataSize))
	binary.Write(&buf, binary.LittleEndian, samples)

	return buf.Bytes()
}

// utterance accumulates frames and decides when a spoken phrase is over:
// after speech, a run of silence longer than trailing ends it; a hard cap
// of maxSamples ends it regardless.
type utterance struct {
	sampleRate int
	samples    []int16
	threshold  int16
	trailing   int
	maxSamples int
	heard      bool
	silent     int
}

func newUtterance(sampleRate int, threshold int16, trailingSilence, maxDuration float64) *utterance {
	return &utterance{
		sampleRate: sampleRate,
		samples:    make([]int16, 0, sampleRate*5),
		threshold:  threshold,
		trailing:   int(float64(sampleRate) * trailingSilence),
		maxSamples: int(float64(sampleRate) * maxDuration),
	}
}

// add appends frame and reports whether the utterance is complete.
func (u *utterance) add(frame []int16) bool {
	u.samples = append(u.samples, frame...)

	loud := false
	for _, sample := range frame {
		if sample > u.threshold || sample < -u.threshold {
			loud = true
			break
		}
	}

	if loud {
		u.heard = true
		u.silent = 0
	} else {
		u.silent += len(frame)
	}

	if u.heard && u.silent > u.trailing {
		return true
	}
	return len(u.samples) >= u.maxSamples
}

// wav encodes what was recorded, or returns nil when no speech was heard.
func (u *utterance) wav() []byte {
	if !u.heard {
		return nil
	}
	return EncodeWAV(u.samples, u.sampleRate)
}
