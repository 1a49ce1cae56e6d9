package jobs

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GodingWal/voiceclone-service/internal/audio"
)

// fakeTrainer implements Trainer with canned responses.
type fakeTrainer struct {
	profileID string
	err       error
	calls     int
	gotName   string
	gotUser   string
}

func (f *fakeTrainer) Train(ctx context.Context, asset []byte, name, userID string) (string, error) {
	f.calls++
	f.gotName = name
	f.gotUser = userID

	if f.err != nil {
		return "", f.err
	}
	return f.profileID, nil
}

func testAsset(t *testing.T) []byte {
	t.Helper()

	samples := make([]float32, 44100)
	for i := range samples {
		samples[i] = float32(0.3 * math.Sin(float64(i)/50))
	}

	asset, err := audio.EncodeWAV(samples, 44100)
	require.NoError(t, err)

	return asset
}

func newTestRunner(t *testing.T, trainer Trainer) (*Runner, *Service) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	svc := NewService(NewMemoryStore(), logger, nil)

	return NewRunner(svc, trainer, logger, nil), svc
}

func TestRunnerHappyPath(t *testing.T) {
	trainer := &fakeTrainer{profileID: "profile-7"}
	runner, svc := newTestRunner(t, trainer)
	ctx := context.Background()

	job, err := svc.Create(ctx, "grandma", []string{"rec-1"}, "user-9")
	require.NoError(t, err)

	err = runner.Run(ctx, job.ID, testAsset(t))
	require.NoError(t, err)

	final, err := svc.GetStatus(ctx, job.ID)
	require.NoError(t, err)

	assert.Equal(t, StateCompleted, final.State)
	assert.Equal(t, 100, final.Progress)
	assert.Equal(t, "profile-7", final.ProfileID)
	assert.NotNil(t, final.CompletedAt)
	assert.Equal(t, 1, trainer.calls)
	assert.Equal(t, "grandma", trainer.gotName)
	assert.Equal(t, "user-9", trainer.gotUser)
}

func TestRunnerTrainingErrorRecordedOnJob(t *testing.T) {
	trainer := &fakeTrainer{err: errors.New("gpu quota exceeded")}
	runner, svc := newTestRunner(t, trainer)
	ctx := context.Background()

	job, err := svc.Create(ctx, "grandpa", []string{"rec-1"}, "user-9")
	require.NoError(t, err)

	err = runner.Run(ctx, job.ID, testAsset(t))
	require.Error(t, err)

	final, statusErr := svc.GetStatus(ctx, job.ID)
	require.NoError(t, statusErr)

	assert.Equal(t, StateFailed, final.State)
	assert.Contains(t, final.Error, "gpu quota exceeded", "original message is preserved")
}

func TestRunnerRejectsMalformedAsset(t *testing.T) {
	trainer := &fakeTrainer{profileID: "profile-7"}
	runner, svc := newTestRunner(t, trainer)
	ctx := context.Background()

	job, err := svc.Create(ctx, "broken", []string{"rec-1"}, "user-9")
	require.NoError(t, err)

	err = runner.Run(ctx, job.ID, []byte("definitely not wav"))
	require.Error(t, err)

	final, statusErr := svc.GetStatus(ctx, job.ID)
	require.NoError(t, statusErr)

	assert.Equal(t, StateFailed, final.State)
	assert.NotEmpty(t, final.Error)
	assert.Equal(t, 0, trainer.calls, "training must not run on a rejected asset")
}

func TestRunnerStopsAfterCancellation(t *testing.T) {
	trainer := &fakeTrainer{profileID: "profile-7"}
	runner, svc := newTestRunner(t, trainer)
	ctx := context.Background()

	job, err := svc.Create(ctx, "cancelled", []string{"rec-1"}, "user-9")
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, job.ID, "user bailed")
	require.NoError(t, err)

	// The run finds the job already terminal and stops cleanly
	err = runner.Run(ctx, job.ID, testAsset(t))
	require.NoError(t, err)

	final, statusErr := svc.GetStatus(ctx, job.ID)
	require.NoError(t, statusErr)
	assert.Equal(t, StateFailed, final.State)
	assert.Equal(t, "user bailed", final.Error)
	assert.Equal(t, 0, trainer.calls)
}

func TestRunnerEmptyProfileID(t *testing.T) {
	trainer := &fakeTrainer{profileID: ""}
	runner, svc := newTestRunner(t, trainer)
	ctx := context.Background()

	job, err := svc.Create(ctx, "empty-profile", []string{"rec-1"}, "user-9")
	require.NoError(t, err)

	err = runner.Run(ctx, job.ID, testAsset(t))
	require.Error(t, err)

	final, statusErr := svc.GetStatus(ctx, job.ID)
	require.NoError(t, statusErr)
	assert.Equal(t, StateFailed, final.State)
	assert.Contains(t, final.Error, "empty profile id")
}
