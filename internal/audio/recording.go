package audio

import (
	"errors"
	"fmt"
)

// ErrEncoding indicates that malformed sample data prevented WAV encoding.
var ErrEncoding = errors.New("audio encoding failed")

// Recording represents one captured voice recording. Sample values are
// 32-bit floats in [-1, 1], one slice per channel, all channels the same
// length. A Recording is immutable once captured; processing functions
// never write into its channel data.
type Recording struct {
	Channels   int         `json:"channels"`
	SampleRate int         `json:"sample_rate"`
	Samples    [][]float32 `json:"-"`
}

// NewRecording creates a recording from per-channel sample data.
func NewRecording(sampleRate int, samples [][]float32) (*Recording, error) {
	rec := &Recording{
		Channels:   len(samples),
		SampleRate: sampleRate,
		Samples:    samples,
	}

	if err := rec.Validate(); err != nil {
		return nil, err
	}

	return rec, nil
}

// Validate checks structural consistency of the recording.
func (r *Recording) Validate() error {
	if r.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", r.SampleRate)
	}

	if r.Channels < 1 {
		return fmt.Errorf("recording must have at least one channel, got %d", r.Channels)
	}

	if len(r.Samples) != r.Channels {
		return fmt.Errorf("channel count %d does not match sample data (%d channels)",
			r.Channels, len(r.Samples))
	}

	frames := len(r.Samples[0])
	for i, ch := range r.Samples {
		if len(ch) != frames {
			return fmt.Errorf("channel %d has %d frames, expected %d", i, len(ch), frames)
		}
	}

	return nil
}

// RecordingFromWAV decodes a mono 16-bit PCM WAV byte stream into a
// recording with samples scaled to [-1, 1].
func RecordingFromWAV(data []byte) (*Recording, error) {
	pcm, sampleRate, err := DecodeWAV(data)
	if err != nil {
		return nil, err
	}

	samples := make([]float32, len(pcm))
	for i, s := range pcm {
		samples[i] = float32(s) / 32767.0
	}

	return NewRecording(sampleRate, [][]float32{samples})
}

// FrameCount returns the number of frames per channel.
func (r *Recording) FrameCount() int {
	if len(r.Samples) == 0 {
		return 0
	}
	return len(r.Samples[0])
}

// Duration returns the recording length in seconds.
func (r *Recording) Duration() float64 {
	if r.SampleRate <= 0 {
		return 0
	}
	return float64(r.FrameCount()) / float64(r.SampleRate)
}
