package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"os"
	"testing"
	"time"

	"github.com/GodingWal/voiceclone-service/internal/audio"
)

func newTestExecutor(t *testing.T) *Executor {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	e := NewExecutor(Config{TargetSampleRate: 44100, HighPassCutoffHz: 80}, logger, nil)
	t.Cleanup(e.Stop)

	return e
}

// makeToneRecording builds a mono sine recording at the given rate/duration
func makeToneRecording(t *testing.T, sampleRate int, seconds float64) *audio.Recording {
	t.Helper()

	frames := int(float64(sampleRate) * seconds)
	samples := make([]float32, frames)
	for i := range samples {
		ts := float64(i) / float64(sampleRate)
		samples[i] = float32(0.4 * math.Sin(2*math.Pi*220*ts))
	}

	rec, err := audio.NewRecording(sampleRate, [][]float32{samples})
	if err != nil {
		t.Fatalf("NewRecording failed: %v", err)
	}

	return rec
}

func TestCombineEmptyInput(t *testing.T) {
	e := newTestExecutor(t)

	_, err := e.Combine(context.Background(), nil)
	if !errors.Is(err, ErrEmptyInput) {
		t.Errorf("Expected ErrEmptyInput, got %v", err)
	}
}

func TestCombineSingleRecordingPreservesFrameCount(t *testing.T) {
	e := newTestExecutor(t)

	rec := makeToneRecording(t, 44100, 1.0)

	asset, err := e.Combine(context.Background(), []*audio.Recording{rec})
	if err != nil {
		t.Fatalf("Combine failed: %v", err)
	}

	// For a 44.1kHz mono input, output frames equal input frames
	expectedBytes := 44 + rec.FrameCount()*2
	if len(asset) != expectedBytes {
		t.Errorf("Expected asset size %d, got %d", expectedBytes, len(asset))
	}

	info, err := audio.GetWAVInfo(asset)
	if err != nil {
		t.Fatalf("GetWAVInfo failed: %v", err)
	}

	if info.SampleRate != 44100 {
		t.Errorf("Expected sample rate 44100, got %d", info.SampleRate)
	}

	if info.Channels != 1 {
		t.Errorf("Expected 1 channel, got %d", info.Channels)
	}

	if int(info.NumSamples) != rec.FrameCount() {
		t.Errorf("Expected %d frames, got %d", rec.FrameCount(), info.NumSamples)
	}
}

func TestCombineMultipleRecordingsDuration(t *testing.T) {
	e := newTestExecutor(t)

	recs := []*audio.Recording{
		makeToneRecording(t, 16000, 2.0),
		makeToneRecording(t, 44100, 3.0),
		makeToneRecording(t, 8000, 1.0),
	}

	asset, err := e.Combine(context.Background(), recs)
	if err != nil {
		t.Fatalf("Combine failed: %v", err)
	}

	info, err := audio.GetWAVInfo(asset)
	if err != nil {
		t.Fatalf("GetWAVInfo failed: %v", err)
	}

	if info.SampleRate != 44100 {
		t.Errorf("Expected sample rate 44100, got %d", info.SampleRate)
	}

	if info.Channels != 1 {
		t.Errorf("Expected 1 channel, got %d", info.Channels)
	}

	// Total duration is the sum of segment durations, within one resampled
	// sample of rounding per segment
	expected := 6.0
	tolerance := 3.0 / 44100
	if math.Abs(info.Duration-expected) > tolerance+1e-9 {
		t.Errorf("Expected duration %.4f±%.6f, got %.6f", expected, tolerance, info.Duration)
	}
}

func TestCombineNormalizesPeak(t *testing.T) {
	e := newTestExecutor(t)

	rec := makeToneRecording(t, 44100, 0.5)

	asset, err := e.Combine(context.Background(), []*audio.Recording{rec})
	if err != nil {
		t.Fatalf("Combine failed: %v", err)
	}

	pcm, _, err := audio.DecodeWAV(asset)
	if err != nil {
		t.Fatalf("DecodeWAV failed: %v", err)
	}

	var peak float64
	for _, s := range pcm {
		v := math.Abs(float64(s)) / 32767
		if v > peak {
			peak = v
		}
	}

	// Normalization runs before the high-pass filter, so the encoded peak
	// can only sit at or below the normalization ceiling
	if peak > audio.NormalizationPeak+0.01 {
		t.Errorf("Encoded peak %f exceeds normalization ceiling", peak)
	}
}

func TestCombinePreservesInputOrder(t *testing.T) {
	e := newTestExecutor(t)

	// First segment positive, second negative, both at target rate so no
	// resampling disturbs the boundary
	a := make([]float32, 4410)
	b := make([]float32, 4410)
	for i := range a {
		a[i] = 0.5
		b[i] = -0.5
	}

	recA, _ := audio.NewRecording(44100, [][]float32{a})
	recB, _ := audio.NewRecording(44100, [][]float32{b})

	asset, err := e.Combine(context.Background(), []*audio.Recording{recA, recB})
	if err != nil {
		t.Fatalf("Combine failed: %v", err)
	}

	pcm, _, err := audio.DecodeWAV(asset)
	if err != nil {
		t.Fatalf("DecodeWAV failed: %v", err)
	}

	if len(pcm) != 8820 {
		t.Fatalf("Expected 8820 samples, got %d", len(pcm))
	}

	// The high-pass step keeps transitions but the first sample of the
	// signal is positive and the segment boundary swings negative
	if pcm[0] <= 0 {
		t.Errorf("Expected positive leading sample, got %d", pcm[0])
	}

	if pcm[4410] >= 0 {
		t.Errorf("Expected negative sample after segment boundary, got %d", pcm[4410])
	}
}

func TestSubmitCorrelatesRequestID(t *testing.T) {
	e := newTestExecutor(t)

	rec := makeToneRecording(t, 44100, 0.1)

	resp, err := e.Submit(context.Background(), "req-42", []*audio.Recording{rec})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	select {
	case result := <-resp:
		if result.RequestID != "req-42" {
			t.Errorf("Expected request id req-42, got %s", result.RequestID)
		}
		if result.Err != nil {
			t.Errorf("Unexpected error: %v", result.Err)
		}
		if result.Frames != rec.FrameCount() {
			t.Errorf("Expected %d frames, got %d", rec.FrameCount(), result.Frames)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for combine result")
	}
}

func TestSubmitAfterStop(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	e := NewExecutor(Config{}, logger, nil)
	e.Stop()

	rec := makeToneRecording(t, 44100, 0.1)

	_, err := e.Submit(context.Background(), "req-1", []*audio.Recording{rec})
	if !errors.Is(err, ErrStopped) {
		t.Errorf("Expected ErrStopped, got %v", err)
	}
}

func TestCombineInvalidRecording(t *testing.T) {
	e := newTestExecutor(t)

	bad := &audio.Recording{Channels: 2, SampleRate: 44100, Samples: [][]float32{{0.1}}}

	_, err := e.Combine(context.Background(), []*audio.Recording{bad})
	if err == nil {
		t.Error("Expected error for invalid recording")
	}
}
