// Package audio implements the signal-processing core of the voice clone
// service: mono down-mix, linear resampling, peak normalization, single-pole
// high-pass filtering, WAV encoding, and the recording quality heuristic.
// All transforms are pure and deterministic so that combined training assets
// are reproducible bit for bit across runs.
package audio
