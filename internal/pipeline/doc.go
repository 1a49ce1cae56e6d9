// Package pipeline orchestrates the audio package transforms to turn a set
// of captured recordings into one combined mono 44.1kHz training asset.
// Combination runs on a dedicated worker goroutine; callers submit requests
// with a correlation id over a channel and receive exactly one result per
// request, so interactive callers are never blocked on CPU-bound work.
package pipeline
