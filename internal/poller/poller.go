package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/GodingWal/voiceclone-service/internal/jobs"
)

// DefaultInterval is the refresh period used when none is configured.
const DefaultInterval = 3 * time.Second

// Source is the transport boundary the poller refreshes from.
type Source interface {
	FetchJobs(ctx context.Context) ([]*jobs.VoiceJob, error)
}

// Poller tracks known jobs locally and keeps them fresh while any of them
// is still pending, uploading, preprocessing, training, or validating.
// Each refresh replaces the whole local snapshot; the server copy wins per
// job id, with no client-side merging of partial fields.
type Poller struct {
	source     Source
	logger     *slog.Logger
	interval   time.Duration
	onTerminal func(*jobs.VoiceJob)

	mu         sync.Mutex
	jobs       map[string]*jobs.VoiceJob
	foreground bool
	loopCancel context.CancelFunc
	loopDone   chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a poller. The onTerminal callback, if non-nil, fires once
// for each job observed entering a terminal state.
func New(source Source, interval time.Duration, logger *slog.Logger, onTerminal func(*jobs.VoiceJob)) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Poller{
		source:     source,
		logger:     logger,
		interval:   interval,
		onTerminal: onTerminal,
		jobs:       make(map[string]*jobs.VoiceJob),
		foreground: true,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Track registers a job in the local view and starts polling if the job
// still has remote work outstanding.
func (p *Poller) Track(job *jobs.VoiceJob) {
	p.mu.Lock()
	p.jobs[job.ID] = job.Clone()
	p.evaluateLocked()
	p.mu.Unlock()
}

// SetForeground reports whether the caller's window is visible. Polling
// pauses while backgrounded and resumes on foreground.
func (p *Poller) SetForeground(foreground bool) {
	p.mu.Lock()
	p.foreground = foreground
	p.evaluateLocked()
	p.mu.Unlock()
}

// Snapshot returns copies of all locally known jobs.
func (p *Poller) Snapshot() []*jobs.VoiceJob {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]*jobs.VoiceJob, 0, len(p.jobs))
	for _, job := range p.jobs {
		out = append(out, job.Clone())
	}
	return out
}

// Polling reports whether the periodic refresh loop is currently running.
func (p *Poller) Polling() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loopCancel != nil
}

// Refresh fetches the authoritative job list and replaces the local view.
func (p *Poller) Refresh(ctx context.Context) error {
	fetched, err := p.source.FetchJobs(ctx)
	if err != nil {
		p.logger.Warn("Job refresh failed", slog.String("error", err.Error()))
		return err
	}

	var newlyTerminal []*jobs.VoiceJob

	p.mu.Lock()
	next := make(map[string]*jobs.VoiceJob, len(fetched))
	for _, job := range fetched {
		next[job.ID] = job.Clone()

		previous, known := p.jobs[job.ID]
		if known && !previous.State.Terminal() && job.State.Terminal() {
			newlyTerminal = append(newlyTerminal, job.Clone())
		}
	}
	p.jobs = next
	p.evaluateLocked()
	p.mu.Unlock()

	for _, job := range newlyTerminal {
		p.logger.Info("Job reached terminal state",
			slog.String("job_id", job.ID),
			slog.String("state", string(job.State)),
		)
		if p.onTerminal != nil {
			p.onTerminal(job)
		}
	}

	return nil
}

// Stop shuts the poller down and waits for the refresh loop to exit.
func (p *Poller) Stop() {
	p.cancel()

	p.mu.Lock()
	done := p.loopDone
	p.stopLoopLocked()
	p.mu.Unlock()

	if done != nil {
		<-done
	}
}

// evaluateLocked starts or stops the refresh loop to match the current
// state: polling runs if and only if the caller is foregrounded and at
// least one known job is still active.
func (p *Poller) evaluateLocked() {
	shouldPoll := false
	if p.foreground && p.ctx.Err() == nil {
		for _, job := range p.jobs {
			if job.State.Active() {
				shouldPoll = true
				break
			}
		}
	}

	switch {
	case shouldPoll && p.loopCancel == nil:
		loopCtx, loopCancel := context.WithCancel(p.ctx)
		done := make(chan struct{})
		p.loopCancel = loopCancel
		p.loopDone = done

		p.logger.Debug("Job polling started", slog.Duration("interval", p.interval))
		go p.loop(loopCtx, done)

	case !shouldPoll && p.loopCancel != nil:
		p.logger.Debug("Job polling stopped")
		p.stopLoopLocked()
	}
}

// stopLoopLocked cancels the refresh loop if one is running
func (p *Poller) stopLoopLocked() {
	if p.loopCancel != nil {
		p.loopCancel()
		p.loopCancel = nil
		p.loopDone = nil
	}
}

// loop drives periodic refreshes until cancelled
func (p *Poller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Refresh re-evaluates and cancels this loop once no
			// active jobs remain
			_ = p.Refresh(ctx)
		}
	}
}
