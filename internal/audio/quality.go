package audio

import "math"

// Quality heuristic thresholds. These values are a contract with stored
// quality reports; changing them would reclassify existing recordings.
const (
	SilenceRMSThreshold  = 0.01
	ClippingPeakLevel    = 0.95
	minGoodDuration      = 5.0    // seconds
	shortDuration        = 10.0   // seconds
	maxReasonableLength  = 1800.0 // seconds
	lowRMSCeiling        = 0.05
	hotRMSFloor          = 0.5
	minGoodSampleRate    = 22050
)

// QualityReport describes the measured quality of a single recording.
// It is derived per analysis call and never mutated in place.
type QualityReport struct {
	Duration   float64 `json:"duration_seconds"`
	SampleRate int     `json:"sample_rate"`
	Channels   int     `json:"channels"`
	RMS        float64 `json:"rms"`
	Peak       float64 `json:"peak"`
	IsSilent   bool    `json:"is_silent"`
	IsClipping bool    `json:"is_clipping"`
	Score      int     `json:"score"`
}

// AnalyzeQuality computes RMS level, peak amplitude, and the 0-100 quality
// score for a recording. Measurements are taken over channel 0.
func AnalyzeQuality(rec *Recording) (*QualityReport, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	samples := rec.Samples[0]

	var sumSquares, peak float64
	for _, s := range samples {
		v := float64(s)
		sumSquares += v * v
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}

	rms := 0.0
	if len(samples) > 0 {
		rms = math.Sqrt(sumSquares / float64(len(samples)))
	}

	report := &QualityReport{
		Duration:   rec.Duration(),
		SampleRate: rec.SampleRate,
		Channels:   rec.Channels,
		RMS:        rms,
		Peak:       peak,
		IsSilent:   rms < SilenceRMSThreshold,
		IsClipping: peak > ClippingPeakLevel,
	}
	report.Score = scoreRecording(report)

	return report, nil
}

// scoreRecording applies the additive penalty table to a report.
func scoreRecording(r *QualityReport) int {
	score := 100

	switch {
	case r.Duration < minGoodDuration:
		score -= 30
	case r.Duration < shortDuration:
		score -= 15
	}
	if r.Duration > maxReasonableLength {
		score -= 20
	}

	switch {
	case r.RMS < SilenceRMSThreshold:
		score -= 40
	case r.RMS < lowRMSCeiling:
		score -= 20
	case r.RMS > hotRMSFloor:
		score -= 10
	}

	if r.Peak > ClippingPeakLevel {
		score -= 30
	}

	switch {
	case r.SampleRate < minGoodSampleRate:
		score -= 25
	case r.SampleRate < TargetSampleRate:
		score -= 10
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return score
}
