package jobs

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Store is the durable persistence boundary for jobs. Update must apply
// the mutation atomically per job id so that two concurrent transitions on
// the same job are serialized rather than interleaved.
type Store interface {
	Put(ctx context.Context, job *VoiceJob) error
	Get(ctx context.Context, id string) (*VoiceJob, error)
	Update(ctx context.Context, id string, mutate func(*VoiceJob) error) (*VoiceJob, error)
	List(ctx context.Context, userID string) ([]*VoiceJob, error)
}

// MemoryStore is the in-process Store implementation. A single lock covers
// the map and every read-modify-write, which satisfies the per-id
// atomicity contract for single-process deployments.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*VoiceJob
}

// NewMemoryStore creates an empty in-memory job store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs: make(map[string]*VoiceJob),
	}
}

// Put stores a new job or replaces an existing one.
func (s *MemoryStore) Put(ctx context.Context, job *VoiceJob) error {
	if job.ID == "" {
		return fmt.Errorf("job id cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs[job.ID] = job.Clone()
	return nil
}

// Get returns a snapshot of the job with the given id.
func (s *MemoryStore) Get(ctx context.Context, id string) (*VoiceJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, exists := s.jobs[id]
	if !exists {
		return nil, fmt.Errorf("job %s: %w", id, ErrNotFound)
	}

	return job.Clone(), nil
}

// Update applies mutate to the stored job under the store lock and returns
// the resulting snapshot. If mutate returns an error the job is unchanged.
func (s *MemoryStore) Update(ctx context.Context, id string, mutate func(*VoiceJob) error) (*VoiceJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, exists := s.jobs[id]
	if !exists {
		return nil, fmt.Errorf("job %s: %w", id, ErrNotFound)
	}

	working := job.Clone()
	if err := mutate(working); err != nil {
		return nil, err
	}

	s.jobs[id] = working
	return working.Clone(), nil
}

// List returns snapshots of all jobs for a user, newest first. An empty
// userID lists every job.
func (s *MemoryStore) List(ctx context.Context, userID string) ([]*VoiceJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*VoiceJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		if userID != "" && job.UserID != userID {
			continue
		}
		out = append(out, job.Clone())
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return out, nil
}
