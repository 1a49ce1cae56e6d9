package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/GodingWal/voiceclone-service/internal/audio"
	"github.com/GodingWal/voiceclone-service/internal/metrics"
)

// Trainer is the remote training service boundary: it receives the
// combined asset with its display name and owner and returns an opaque
// trained-profile id.
type Trainer interface {
	Train(ctx context.Context, asset []byte, name, userID string) (string, error)
}

// Runner drives a created job through the server-side stages. Any error
// from the remote training call is recorded on the job and surfaces via
// GetStatus; a concurrent cancellation stops the run at the next stage
// boundary without touching the in-flight remote call.
type Runner struct {
	service *Service
	trainer Trainer
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewRunner creates a runner. The metrics argument may be nil in tests.
func NewRunner(service *Service, trainer Trainer, logger *slog.Logger, m *metrics.Metrics) *Runner {
	return &Runner{
		service: service,
		trainer: trainer,
		logger:  logger,
		metrics: m,
	}
}

// Run advances the job from pending to completion using the given
// combined asset. It returns nil when the job reaches completed or was
// cancelled, and the terminal error otherwise.
func (r *Runner) Run(ctx context.Context, jobID string, asset []byte) error {
	if err := r.advance(ctx, jobID, StateUploading); err != nil {
		return r.settle(ctx, jobID, err)
	}

	if err := r.advance(ctx, jobID, StatePreprocessing); err != nil {
		return r.settle(ctx, jobID, err)
	}

	duration, err := audio.GetWAVDuration(asset)
	if err != nil {
		return r.settle(ctx, jobID, fmt.Errorf("asset rejected during preprocessing: %w", err))
	}

	r.logger.Info("Combined asset accepted",
		slog.String("job_id", jobID),
		slog.Float64("duration_seconds", duration),
	)

	if err := r.advance(ctx, jobID, StateTraining); err != nil {
		return r.settle(ctx, jobID, err)
	}

	job, err := r.service.GetStatus(ctx, jobID)
	if err != nil {
		return err
	}

	trainStart := time.Now()
	profileID, err := r.trainer.Train(ctx, asset, job.Name, job.UserID)
	if r.metrics != nil {
		r.metrics.RecordStageDuration(string(StateTraining), time.Since(trainStart).Seconds())
	}
	if err != nil {
		return r.settle(ctx, jobID, fmt.Errorf("training failed: %w", err))
	}

	if err := r.advance(ctx, jobID, StateValidating); err != nil {
		return r.settle(ctx, jobID, err)
	}

	if profileID == "" {
		return r.settle(ctx, jobID, errors.New("training returned an empty profile id"))
	}

	if err := r.advance(ctx, jobID, StateFinalizing); err != nil {
		return r.settle(ctx, jobID, err)
	}

	if _, err := r.service.Complete(ctx, jobID, profileID); err != nil {
		return r.settle(ctx, jobID, err)
	}

	return nil
}

// advance moves the job to the next stage at its starting progress
func (r *Runner) advance(ctx context.Context, jobID string, next State) error {
	_, err := r.service.Advance(ctx, jobID, next, StartingProgress(next))
	return err
}

// settle records a stage error on the job. When the transition to failed
// is itself rejected, the job already reached a terminal state through a
// concurrent cancel, which the runner treats as a clean stop.
func (r *Runner) settle(ctx context.Context, jobID string, cause error) error {
	if errors.Is(cause, ErrInvalidTransition) {
		job, statusErr := r.service.GetStatus(ctx, jobID)
		if statusErr == nil && job.State == StateFailed {
			r.logger.Info("Job run stopped by cancellation",
				slog.String("job_id", jobID),
			)
			return nil
		}
	}

	if _, failErr := r.service.Fail(ctx, jobID, cause.Error()); failErr != nil {
		if errors.Is(failErr, ErrInvalidTransition) {
			// Already terminal; keep the original cause observable
			r.logger.Info("Job already terminal while recording failure",
				slog.String("job_id", jobID),
				slog.String("cause", cause.Error()),
			)
			return nil
		}
		return fmt.Errorf("failed to record job failure: %w (original: %v)", failErr, cause)
	}

	return cause
}
