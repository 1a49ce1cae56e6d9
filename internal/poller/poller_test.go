package poller

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GodingWal/voiceclone-service/internal/jobs"
)

type fakeSource struct {
	mu   sync.Mutex
	jobs []*jobs.VoiceJob
	err  error

	calls int
}

func (f *fakeSource) FetchJobs(ctx context.Context) ([]*jobs.VoiceJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.err != nil {
		return nil, f.err
	}

	out := make([]*jobs.VoiceJob, len(f.jobs))
	for i, job := range f.jobs {
		out[i] = job.Clone()
	}
	return out, nil
}

func (f *fakeSource) set(list []*jobs.VoiceJob) {
	f.mu.Lock()
	f.jobs = list
	f.mu.Unlock()
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testJob(id string, state jobs.State) *jobs.VoiceJob {
	return &jobs.VoiceJob{
		ID:       id,
		UserID:   "user-1",
		Name:     "voice",
		State:    state,
		Progress: jobs.StartingProgress(state),
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(testWriter{}, &slog.HandlerOptions{Level: slog.LevelError}))
}

type testWriter struct{}

func (testWriter) Write(p []byte) (int, error) { return len(p), nil }

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached within deadline")
}

func TestPollingStartsForActiveJob(t *testing.T) {
	source := &fakeSource{}
	p := New(source, 10*time.Millisecond, testLogger(), nil)
	defer p.Stop()

	assert.False(t, p.Polling())

	source.set([]*jobs.VoiceJob{testJob("job-1", jobs.StateTraining)})
	p.Track(testJob("job-1", jobs.StateTraining))

	require.True(t, p.Polling())
	waitFor(t, func() bool { return source.callCount() >= 2 })
}

func TestPollingStopsWhenAllJobsTerminal(t *testing.T) {
	source := &fakeSource{}
	source.set([]*jobs.VoiceJob{testJob("job-1", jobs.StateTraining)})

	p := New(source, 10*time.Millisecond, testLogger(), nil)
	defer p.Stop()

	p.Track(testJob("job-1", jobs.StateTraining))
	require.True(t, p.Polling())

	source.set([]*jobs.VoiceJob{testJob("job-1", jobs.StateCompleted)})
	waitFor(t, func() bool { return !p.Polling() })

	snapshot := p.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, jobs.StateCompleted, snapshot[0].State)
}

func TestBackgroundSuspendsPolling(t *testing.T) {
	source := &fakeSource{}
	source.set([]*jobs.VoiceJob{testJob("job-1", jobs.StateUploading)})

	p := New(source, 10*time.Millisecond, testLogger(), nil)
	defer p.Stop()

	p.Track(testJob("job-1", jobs.StateUploading))
	require.True(t, p.Polling())

	p.SetForeground(false)
	assert.False(t, p.Polling())

	p.SetForeground(true)
	assert.True(t, p.Polling())
}

func TestRefreshReplacesSnapshot(t *testing.T) {
	source := &fakeSource{}
	p := New(source, time.Minute, testLogger(), nil)
	defer p.Stop()

	p.Track(testJob("stale", jobs.StateFailed))

	source.set([]*jobs.VoiceJob{
		testJob("job-1", jobs.StatePending),
		testJob("job-2", jobs.StateCompleted),
	})
	require.NoError(t, p.Refresh(context.Background()))

	snapshot := p.Snapshot()
	require.Len(t, snapshot, 2)
	for _, job := range snapshot {
		assert.NotEqual(t, "stale", job.ID)
	}
}

func TestTerminalCallbackFiresOnce(t *testing.T) {
	source := &fakeSource{}

	var mu sync.Mutex
	var seen []string
	p := New(source, time.Minute, testLogger(), func(job *jobs.VoiceJob) {
		mu.Lock()
		seen = append(seen, job.ID)
		mu.Unlock()
	})
	defer p.Stop()

	p.Track(testJob("job-1", jobs.StateTraining))

	source.set([]*jobs.VoiceJob{testJob("job-1", jobs.StateCompleted)})
	require.NoError(t, p.Refresh(context.Background()))

	// Second refresh sees the job already terminal and must not fire again.
	require.NoError(t, p.Refresh(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"job-1"}, seen)
}

func TestRefreshErrorKeepsLocalView(t *testing.T) {
	source := &fakeSource{}
	p := New(source, time.Minute, testLogger(), nil)
	defer p.Stop()

	p.Track(testJob("job-1", jobs.StateTraining))

	source.mu.Lock()
	source.err = context.DeadlineExceeded
	source.mu.Unlock()

	require.Error(t, p.Refresh(context.Background()))

	snapshot := p.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, "job-1", snapshot[0].ID)
}
