package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/GodingWal/voiceclone-service/internal/metrics"
)

// defaultCancelReason is recorded when a cancellation carries no reason.
const defaultCancelReason = "cancelled by user"

// Service implements the job state machine operations over a Store. It is
// the sole writer of job state, progress, and error fields.
type Service struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewService creates a job service. The metrics argument may be nil in
// tests.
func NewService(store Store, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		store:   store,
		logger:  logger,
		metrics: m,
	}
}

// Create validates the request and stores a new job in pending state.
func (s *Service) Create(ctx context.Context, name string, recordingIDs []string, userID string) (*VoiceJob, error) {
	if len(recordingIDs) == 0 {
		return nil, ErrNoRecordings
	}

	if name == "" {
		return nil, fmt.Errorf("job name cannot be empty")
	}

	job := &VoiceJob{
		ID:           uuid.NewString(),
		UserID:       userID,
		Name:         name,
		RecordingIDs: append([]string(nil), recordingIDs...),
		State:        StatePending,
		Progress:     StartingProgress(StatePending),
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.store.Put(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to store job: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordJobCreated()
	}

	s.logger.Info("Voice training job created",
		slog.String("job_id", job.ID),
		slog.String("user_id", userID),
		slog.String("name", name),
		slog.Int("recordings", len(recordingIDs)),
	)

	return job.Clone(), nil
}

// Advance moves a job to nextState. The transition must follow the state
// graph; within a state, progress may only grow. On entering a new state
// the progress is reset to that stage's starting value. Failed is not a
// valid target here: use Fail or Cancel, which record the reason.
func (s *Service) Advance(ctx context.Context, jobID string, nextState State, progress int) (*VoiceJob, error) {
	var from State

	job, err := s.store.Update(ctx, jobID, func(j *VoiceJob) error {
		from = j.State

		if nextState == StateFailed {
			return fmt.Errorf("%w: failed is only reachable through Fail or Cancel", ErrInvalidTransition)
		}

		if nextState == j.State {
			if progress < j.Progress {
				return fmt.Errorf("%w: progress cannot decrease from %d to %d in state %s",
					ErrInvalidTransition, j.Progress, progress, j.State)
			}
			j.Progress = progress
			return nil
		}

		if !validTransition(j.State, nextState) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.State, nextState)
		}

		j.State = nextState
		j.Progress = StartingProgress(nextState)
		if progress > j.Progress {
			j.Progress = progress
		}

		if nextState == StateCompleted {
			now := time.Now().UTC()
			j.CompletedAt = &now
			j.Progress = 100
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if from != job.State {
		if s.metrics != nil {
			s.metrics.RecordJobTransition(string(from), string(job.State))
			if job.State == StateCompleted {
				s.metrics.RecordJobCompleted()
			}
		}

		s.logger.Info("Job state advanced",
			slog.String("job_id", jobID),
			slog.String("from", string(from)),
			slog.String("to", string(job.State)),
			slog.Int("progress", job.Progress),
		)
	}

	return job, nil
}

// Fail moves a job to failed and records the reason. Every failed job
// carries a non-empty error message.
func (s *Service) Fail(ctx context.Context, jobID string, reason string) (*VoiceJob, error) {
	if reason == "" {
		reason = "unknown error"
	}

	var from State

	job, err := s.store.Update(ctx, jobID, func(j *VoiceJob) error {
		from = j.State

		if !validTransition(j.State, StateFailed) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.State, StateFailed)
		}

		j.State = StateFailed
		j.Error = reason
		now := time.Now().UTC()
		j.CompletedAt = &now

		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordJobTransition(string(from), string(StateFailed))
		s.metrics.RecordJobFailed()
	}

	s.logger.Warn("Job failed",
		slog.String("job_id", jobID),
		slog.String("from", string(from)),
		slog.String("error", reason),
	)

	return job, nil
}

// Cancel marks a job as failed with the user's cancellation reason.
// Cancellation is modeled as a failure cause rather than a distinct
// terminal state, and is honored only before finalizing begins. It is
// cooperative: an in-flight remote training call is not interrupted.
func (s *Service) Cancel(ctx context.Context, jobID string, reason string) (*VoiceJob, error) {
	if reason == "" {
		reason = defaultCancelReason
	}

	var from State

	job, err := s.store.Update(ctx, jobID, func(j *VoiceJob) error {
		from = j.State

		if !j.State.Cancellable() {
			return fmt.Errorf("%w: cannot cancel job in state %s", ErrInvalidTransition, j.State)
		}

		j.State = StateFailed
		j.Error = reason
		now := time.Now().UTC()
		j.CompletedAt = &now

		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordJobTransition(string(from), string(StateFailed))
		s.metrics.RecordJobCancelled()
	}

	s.logger.Info("Job cancelled",
		slog.String("job_id", jobID),
		slog.String("from", string(from)),
		slog.String("reason", reason),
	)

	return job, nil
}

// Retry returns a failed job to pending, clearing its error and progress
// while keeping its identity and original recordings. It is the only path
// by which a job regresses to an earlier state.
func (s *Service) Retry(ctx context.Context, jobID string) (*VoiceJob, error) {
	job, err := s.store.Update(ctx, jobID, func(j *VoiceJob) error {
		if j.State != StateFailed {
			return fmt.Errorf("%w: can only retry failed jobs, job is %s", ErrInvalidTransition, j.State)
		}

		j.State = StatePending
		j.Progress = StartingProgress(StatePending)
		j.Error = ""
		j.ProfileID = ""
		j.CompletedAt = nil

		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordJobTransition(string(StateFailed), string(StatePending))
		s.metrics.RecordJobRetried()
	}

	s.logger.Info("Job retried",
		slog.String("job_id", jobID),
		slog.Int("recordings", len(job.RecordingIDs)),
	)

	return job, nil
}

// Complete finishes a finalizing job, recording the trained profile id.
func (s *Service) Complete(ctx context.Context, jobID string, profileID string) (*VoiceJob, error) {
	if profileID == "" {
		return nil, fmt.Errorf("profile id cannot be empty")
	}

	var from State

	job, err := s.store.Update(ctx, jobID, func(j *VoiceJob) error {
		from = j.State

		if !validTransition(j.State, StateCompleted) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.State, StateCompleted)
		}

		j.State = StateCompleted
		j.Progress = StartingProgress(StateCompleted)
		j.ProfileID = profileID
		now := time.Now().UTC()
		j.CompletedAt = &now

		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordJobTransition(string(from), string(StateCompleted))
		s.metrics.RecordJobCompleted()
	}

	s.logger.Info("Job completed",
		slog.String("job_id", jobID),
		slog.String("profile_id", profileID),
	)

	return job, nil
}

// GetStatus returns a read-only snapshot of the job.
func (s *Service) GetStatus(ctx context.Context, jobID string) (*VoiceJob, error) {
	return s.store.Get(ctx, jobID)
}

// List returns snapshots of all jobs for a user, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]*VoiceJob, error) {
	return s.store.List(ctx, userID)
}

// ActiveCount returns the number of jobs in a non-terminal state.
func (s *Service) ActiveCount(ctx context.Context) (int, error) {
	all, err := s.store.List(ctx, "")
	if err != nil {
		return 0, err
	}

	count := 0
	for _, job := range all {
		if !job.State.Terminal() {
			count++
		}
	}

	return count, nil
}
