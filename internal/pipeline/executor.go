package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/GodingWal/voiceclone-service/internal/audio"
	"github.com/GodingWal/voiceclone-service/internal/metrics"
)

var (
	// ErrEmptyInput is returned when a combine request carries no recordings.
	ErrEmptyInput = errors.New("no recordings supplied")

	// ErrStopped is returned when submitting to a stopped executor.
	ErrStopped = errors.New("pipeline executor stopped")
)

// Config contains audio pipeline configuration
type Config struct {
	TargetSampleRate int     // Output sample rate (44100)
	HighPassCutoffHz float64 // High-pass filter cutoff frequency
	QueueSize        int     // Pending request queue capacity
}

// Result is the single response delivered for one combine request
type Result struct {
	RequestID string
	Asset     []byte // Mono 16-bit PCM WAV byte stream
	Frames    int    // Frame count of the combined signal
	Err       error
}

// request pairs a correlation id with its input and response channel. The
// response channel is buffered so the worker never blocks on delivery.
type request struct {
	id         string
	recordings []*audio.Recording
	resp       chan Result
}

// Executor runs audio combination on a dedicated worker goroutine
type Executor struct {
	config  Config
	logger  *slog.Logger
	metrics *metrics.Metrics

	requests chan *request
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewExecutor creates an executor and starts its worker goroutine. The
// metrics argument may be nil in tests.
func NewExecutor(cfg Config, logger *slog.Logger, m *metrics.Metrics) *Executor {
	if cfg.TargetSampleRate <= 0 {
		cfg.TargetSampleRate = audio.TargetSampleRate
	}
	if cfg.HighPassCutoffHz <= 0 {
		cfg.HighPassCutoffHz = 80
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}

	ctx, cancel := context.WithCancel(context.Background())

	e := &Executor{
		config:   cfg,
		logger:   logger,
		metrics:  m,
		requests: make(chan *request, cfg.QueueSize),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	go e.run()

	return e
}

// Submit enqueues a combine request and returns the channel on which its
// single result will be delivered. The request id correlates the response
// with the caller's invocation.
func (e *Executor) Submit(ctx context.Context, requestID string, recordings []*audio.Recording) (<-chan Result, error) {
	req := &request{
		id:         requestID,
		recordings: recordings,
		resp:       make(chan Result, 1),
	}

	select {
	case e.requests <- req:
		return req.resp, nil
	case <-e.ctx.Done():
		return nil, ErrStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Combine submits the recordings under a generated request id and waits for
// the result.
func (e *Executor) Combine(ctx context.Context, recordings []*audio.Recording) ([]byte, error) {
	resp, err := e.Submit(ctx, uuid.NewString(), recordings)
	if err != nil {
		return nil, err
	}

	select {
	case result := <-resp:
		return result.Asset, result.Err
	case <-e.ctx.Done():
		return nil, ErrStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Stop shuts the worker down. Pending requests receive ErrStopped.
func (e *Executor) Stop() {
	e.cancel()
	<-e.done
}

// run is the worker loop. Each request produces exactly one result.
func (e *Executor) run() {
	defer close(e.done)

	for {
		select {
		case <-e.ctx.Done():
			// Fail any requests still queued
			for {
				select {
				case req := <-e.requests:
					req.resp <- Result{RequestID: req.id, Err: ErrStopped}
				default:
					return
				}
			}

		case req := <-e.requests:
			req.resp <- e.process(req)
		}
	}
}

// process combines one request's recordings and records outcome metrics
func (e *Executor) process(req *request) Result {
	startTime := time.Now()

	asset, frames, err := e.combine(req.recordings)

	duration := time.Since(startTime)
	if e.metrics != nil {
		e.metrics.RecordCombine(len(req.recordings), len(asset), duration.Seconds(), err)
	}

	if err != nil {
		e.logger.Error("Audio combination failed",
			slog.String("request_id", req.id),
			slog.Int("recordings", len(req.recordings)),
			slog.String("error", err.Error()),
		)
		return Result{RequestID: req.id, Err: err}
	}

	e.logger.Info("Audio combination completed",
		slog.String("request_id", req.id),
		slog.Int("recordings", len(req.recordings)),
		slog.Int("frames", frames),
		slog.Int("asset_bytes", len(asset)),
		slog.Duration("duration", duration),
	)

	return Result{RequestID: req.id, Asset: asset, Frames: frames}
}

// combine turns the input recordings into one encoded training asset.
//
// Each recording is independently mono-mixed and resampled to the target
// rate, then all segments are concatenated in input order. Normalization
// and high-pass filtering apply to the whole concatenated signal, not per
// segment. This ordering is a compatibility contract: changing it would
// alter the training assets of existing profiles.
func (e *Executor) combine(recordings []*audio.Recording) ([]byte, int, error) {
	if len(recordings) == 0 {
		return nil, 0, ErrEmptyInput
	}

	for i, rec := range recordings {
		if err := rec.Validate(); err != nil {
			return nil, 0, fmt.Errorf("recording %d: %w", i, err)
		}
	}

	if len(recordings) == 1 {
		// Single recording: no concatenation step needed
		mono := audio.DownmixToMono(recordings[0])
		resampled := audio.Resample(mono, recordings[0].SampleRate, e.config.TargetSampleRate)

		combined := make([]float32, len(resampled))
		copy(combined, resampled)

		return e.finish(combined)
	}

	segments := make([][]float32, len(recordings))
	total := 0
	for i, rec := range recordings {
		mono := audio.DownmixToMono(rec)
		segments[i] = audio.Resample(mono, rec.SampleRate, e.config.TargetSampleRate)
		total += len(segments[i])
	}

	combined := make([]float32, total)
	offset := 0
	for _, seg := range segments {
		copy(combined[offset:], seg)
		offset += len(seg)
	}

	return e.finish(combined)
}

// finish applies the global normalize + filter pass and encodes the asset
func (e *Executor) finish(combined []float32) ([]byte, int, error) {
	audio.Normalize(combined)
	audio.HighPassFilter(combined, e.config.TargetSampleRate, e.config.HighPassCutoffHz)

	data, err := audio.EncodeWAV(combined, e.config.TargetSampleRate)
	if err != nil {
		return nil, 0, err
	}

	return data, len(combined), nil
}
