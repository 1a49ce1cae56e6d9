package audio

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

func TestEncodeWAV(t *testing.T) {
	// Generate test audio samples (440Hz sine wave for 0.1 seconds at 44.1kHz)
	sampleRate := 44100
	duration := 0.1
	frequency := 440.0

	numSamples := int(float64(sampleRate) * duration)
	samples := make([]float32, numSamples)

	for i := 0; i < numSamples; i++ {
		ts := float64(i) / float64(sampleRate)
		samples[i] = float32(0.5 * math.Sin(2*math.Pi*frequency*ts))
	}

	wavData, err := EncodeWAV(samples, sampleRate)
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}

	// WAV header should be 44 bytes followed by 2 bytes per sample
	expectedSize := 44 + len(samples)*2
	if len(wavData) != expectedSize {
		t.Errorf("Expected WAV size %d, got %d", expectedSize, len(wavData))
	}

	if err := ValidateWAV(wavData); err != nil {
		t.Errorf("Generated WAV is invalid: %v", err)
	}

	// ChunkSize field at byte 4 is 36 + frameCount*2
	chunkSize := binary.LittleEndian.Uint32(wavData[4:8])
	if chunkSize != uint32(36+numSamples*2) {
		t.Errorf("Expected chunk size %d, got %d", 36+numSamples*2, chunkSize)
	}

	info, err := GetWAVInfo(wavData)
	if err != nil {
		t.Fatalf("Failed to get WAV info: %v", err)
	}

	if info.SampleRate != uint32(sampleRate) {
		t.Errorf("Expected sample rate %d, got %d", sampleRate, info.SampleRate)
	}

	if info.Channels != 1 {
		t.Errorf("Expected 1 channel, got %d", info.Channels)
	}

	if info.BitsPerSample != 16 {
		t.Errorf("Expected 16 bits per sample, got %d", info.BitsPerSample)
	}

	expectedDuration := float64(numSamples) / float64(sampleRate)
	if math.Abs(info.Duration-expectedDuration) > 0.001 {
		t.Errorf("Expected duration %.3f, got %.3f", expectedDuration, info.Duration)
	}
}

func TestEncodeWAVScalingAndClamping(t *testing.T) {
	samples := []float32{0, 0.5, -0.5, 1.5, -1.5}
	expected := []int16{0, 16383, -16383, 32767, -32767}

	wavData, err := EncodeWAV(samples, 44100)
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}

	decoded, rate, err := DecodeWAV(wavData)
	if err != nil {
		t.Fatalf("DecodeWAV failed: %v", err)
	}

	if rate != 44100 {
		t.Errorf("Expected sample rate 44100, got %d", rate)
	}

	if len(decoded) != len(expected) {
		t.Fatalf("Expected %d samples, got %d", len(expected), len(decoded))
	}

	for i, want := range expected {
		if decoded[i] != want {
			t.Errorf("Sample %d: expected %d, got %d", i, want, decoded[i])
		}
	}
}

func TestEncodeWAVEmpty(t *testing.T) {
	_, err := EncodeWAV([]float32{}, 44100)
	if err == nil {
		t.Error("Expected error for empty samples")
	}

	if !errors.Is(err, ErrEncoding) {
		t.Errorf("Expected ErrEncoding, got %v", err)
	}
}

func TestEncodeWAVInvalidSampleRate(t *testing.T) {
	samples := []float32{0.1, 0.2, 0.3}

	_, err := EncodeWAV(samples, 0)
	if err == nil {
		t.Error("Expected error for zero sample rate")
	}

	if !errors.Is(err, ErrEncoding) {
		t.Errorf("Expected ErrEncoding, got %v", err)
	}
}

func TestValidateWAVRejectsGarbage(t *testing.T) {
	if err := ValidateWAV([]byte("not a wav file")); err == nil {
		t.Error("Expected error for short data")
	}

	junk := make([]byte, 64)
	if err := ValidateWAV(junk); err == nil {
		t.Error("Expected error for data without RIFF header")
	}
}

func TestGetWAVDuration(t *testing.T) {
	samples := make([]float32, 44100) // exactly one second
	for i := range samples {
		samples[i] = 0.1
	}

	wavData, err := EncodeWAV(samples, 44100)
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}

	duration, err := GetWAVDuration(wavData)
	if err != nil {
		t.Fatalf("GetWAVDuration failed: %v", err)
	}

	if math.Abs(duration-1.0) > 0.001 {
		t.Errorf("Expected duration 1.0, got %.3f", duration)
	}
}
