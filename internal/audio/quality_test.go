package audio

import (
	"math"
	"testing"
)

// makeConstantRecording builds a mono recording of the given duration filled
// with a constant amplitude, so RMS and peak both equal the amplitude.
func makeConstantRecording(sampleRate int, seconds float64, amplitude float32) *Recording {
	frames := int(float64(sampleRate) * seconds)
	samples := make([]float32, frames)
	for i := range samples {
		samples[i] = amplitude
	}
	return &Recording{Channels: 1, SampleRate: sampleRate, Samples: [][]float32{samples}}
}

func TestAnalyzeQualityReferenceCase(t *testing.T) {
	// 3 seconds, RMS 0.005, 16 kHz: 100 - 30 (duration) - 40 (rms) - 25 (rate)
	rec := makeConstantRecording(16000, 3, 0.005)

	report, err := AnalyzeQuality(rec)
	if err != nil {
		t.Fatalf("AnalyzeQuality failed: %v", err)
	}

	if report.Score != 5 {
		t.Errorf("Expected score 5, got %d", report.Score)
	}

	if !report.IsSilent {
		t.Error("Expected silence flag for RMS below 0.01")
	}

	if report.IsClipping {
		t.Error("Did not expect clipping flag")
	}
}

func TestAnalyzeQualityScoreBoundaries(t *testing.T) {
	tests := []struct {
		name      string
		rate      int
		seconds   float64
		amplitude float32
		score     int
	}{
		{"clean reference", 44100, 12, 0.2, 100},
		{"just under five seconds", 44100, 4.99, 0.2, 70},
		{"exactly five seconds", 44100, 5, 0.2, 85},
		{"just under ten seconds", 44100, 9.99, 0.2, 85},
		{"exactly ten seconds", 44100, 10, 0.2, 100},
		{"overlong recording", 1000, 1801, 0.2, 55}, // -20 length, -25 rate
		{"silent level", 44100, 12, 0.009, 60},
		{"low level", 44100, 12, 0.04, 80},
		{"upper low-level bound", 44100, 12, 0.05, 100},
		{"hot level", 44100, 12, 0.6, 90},
		{"clipping level", 44100, 12, 0.96, 60}, // -30 clipping, -10 hot rms
		{"low sample rate", 22049, 12, 0.2, 75},
		{"cd-adjacent sample rate", 22050, 12, 0.2, 90},
		{"just below target rate", 44099, 12, 0.2, 90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := makeConstantRecording(tt.rate, tt.seconds, tt.amplitude)

			report, err := AnalyzeQuality(rec)
			if err != nil {
				t.Fatalf("AnalyzeQuality failed: %v", err)
			}

			if report.Score != tt.score {
				t.Errorf("Expected score %d, got %d (rms=%f peak=%f dur=%f rate=%d)",
					tt.score, report.Score, report.RMS, report.Peak, report.Duration, report.SampleRate)
			}
		})
	}
}

func TestAnalyzeQualityMeasurements(t *testing.T) {
	rec := makeConstantRecording(44100, 2, 0.25)

	report, err := AnalyzeQuality(rec)
	if err != nil {
		t.Fatalf("AnalyzeQuality failed: %v", err)
	}

	if math.Abs(report.RMS-0.25) > 1e-4 {
		t.Errorf("Expected RMS 0.25, got %f", report.RMS)
	}

	if math.Abs(report.Peak-0.25) > 1e-6 {
		t.Errorf("Expected peak 0.25, got %f", report.Peak)
	}

	if math.Abs(report.Duration-2.0) > 1e-6 {
		t.Errorf("Expected duration 2.0, got %f", report.Duration)
	}

	if report.Channels != 1 {
		t.Errorf("Expected 1 channel, got %d", report.Channels)
	}
}

func TestAnalyzeQualityClippingFlag(t *testing.T) {
	rec := makeConstantRecording(44100, 12, 0.96)

	report, err := AnalyzeQuality(rec)
	if err != nil {
		t.Fatalf("AnalyzeQuality failed: %v", err)
	}

	if !report.IsClipping {
		t.Error("Expected clipping flag for peak above 0.95")
	}
}

func TestAnalyzeQualityInvalidRecording(t *testing.T) {
	rec := &Recording{Channels: 2, SampleRate: 44100, Samples: [][]float32{{0.1}}}

	if _, err := AnalyzeQuality(rec); err == nil {
		t.Error("Expected error for inconsistent channel data")
	}
}

func TestAnalyzeQualityStackedPenalties(t *testing.T) {
	// A short, silent, low-rate recording stacks -30 -40 -25
	rec := makeConstantRecording(8000, 1, 0.0)

	report, err := AnalyzeQuality(rec)
	if err != nil {
		t.Fatalf("AnalyzeQuality failed: %v", err)
	}

	if report.Score != 5 {
		t.Errorf("Expected score 5, got %d", report.Score)
	}

	if report.Score < 0 || report.Score > 100 {
		t.Errorf("Score %d outside [0, 100]", report.Score)
	}
}
