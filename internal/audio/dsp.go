package audio

import "math"

// TargetSampleRate is the sample rate of every combined training asset.
const TargetSampleRate = 44100

// NormalizationPeak is the post-normalization peak amplitude (≈ -3 dB),
// chosen to leave headroom against clipping in downstream training.
const NormalizationPeak = 0.707

// DownmixToMono reduces a recording to a single channel by averaging the
// sample values of all channels per frame. Single-channel input is returned
// as-is without copying.
func DownmixToMono(rec *Recording) []float32 {
	if rec.Channels == 1 {
		return rec.Samples[0]
	}

	frames := rec.FrameCount()
	mono := make([]float32, frames)

	for i := 0; i < frames; i++ {
		var sum float32
		for ch := 0; ch < rec.Channels; ch++ {
			sum += rec.Samples[ch][i]
		}
		mono[i] = sum / float32(rec.Channels)
	}

	return mono
}

// Resample converts samples from sourceRate to targetRate using linear
// interpolation between the two nearest input samples. Equal rates return
// the input unchanged. This resampler is deterministic and intentionally
// not band-limited; existing trained profiles depend on its exact output,
// so the interpolation scheme must not be changed.
func Resample(samples []float32, sourceRate, targetRate int) []float32 {
	if sourceRate == targetRate {
		return samples
	}

	ratio := float64(sourceRate) / float64(targetRate)
	outLen := int(float64(len(samples)) / ratio)
	out := make([]float32, outLen)

	for i := 0; i < outLen; i++ {
		pos := float64(i) * ratio
		index := int(math.Floor(pos))
		frac := float32(pos - float64(index))

		if index+1 < len(samples) {
			out[i] = samples[index]*(1-frac) + samples[index+1]*frac
		} else {
			out[i] = samples[len(samples)-1]
		}
	}

	return out
}

// Normalize scales samples in place so that the peak absolute amplitude is
// exactly NormalizationPeak. An all-zero signal is left untouched.
func Normalize(samples []float32) {
	var peak float32
	for _, s := range samples {
		if a := float32(math.Abs(float64(s))); a > peak {
			peak = a
		}
	}

	if peak == 0 {
		return
	}

	scale := float32(NormalizationPeak) / peak
	for i := range samples {
		samples[i] *= scale
	}
}

// HighPassFilter applies a causal single-pole IIR high-pass filter in place.
// Filter state starts at zero on every call; it is never carried across
// buffers.
func HighPassFilter(samples []float32, sampleRate int, cutoffHz float64) {
	if len(samples) == 0 || sampleRate <= 0 || cutoffHz <= 0 {
		return
	}

	rc := 1.0 / (cutoffHz * 2 * math.Pi)
	dt := 1.0 / float64(sampleRate)
	alpha := float32(rc / (rc + dt))

	var prevInput, prevOutput float32
	for i, s := range samples {
		out := alpha * (prevOutput + s - prevInput)
		prevInput = s
		prevOutput = out
		samples[i] = out
	}
}
