package server

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/GodingWal/voiceclone-service/internal/audio"
)

// StoredRecording pairs an uploaded recording with its id and metadata.
type StoredRecording struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Duration   float64   `json:"duration"`
	SampleRate int       `json:"sample_rate"`
	UploadedAt time.Time `json:"uploaded_at"`

	recording *audio.Recording
}

// RecordingStore holds uploaded recordings in memory, keyed by id.
type RecordingStore struct {
	mu         sync.RWMutex
	recordings map[string]*StoredRecording
	maxPerUser int
}

// NewRecordingStore creates a store. maxPerUser bounds how many
// recordings a single user may hold at once.
func NewRecordingStore(maxPerUser int) *RecordingStore {
	if maxPerUser <= 0 {
		maxPerUser = 25
	}

	return &RecordingStore{
		recordings: make(map[string]*StoredRecording),
		maxPerUser: maxPerUser,
	}
}

// Add stores a recording and returns its generated id.
func (s *RecordingStore) Add(userID string, rec *audio.Recording) (*StoredRecording, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, stored := range s.recordings {
		if stored.UserID == userID {
			count++
		}
	}
	if count >= s.maxPerUser {
		return nil, fmt.Errorf("recording limit reached (%d per user)", s.maxPerUser)
	}

	stored := &StoredRecording{
		ID:         uuid.NewString(),
		UserID:     userID,
		Duration:   rec.Duration(),
		SampleRate: rec.SampleRate,
		UploadedAt: time.Now().UTC(),
		recording:  rec,
	}
	s.recordings[stored.ID] = stored

	return stored, nil
}

// Get returns the recording for an id.
func (s *RecordingStore) Get(id string) (*audio.Recording, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.recordings[id]
	if !ok {
		return nil, false
	}
	return stored.recording, true
}

// Resolve maps recording ids to their recordings, failing on the first
// unknown id.
func (s *RecordingStore) Resolve(ids []string) ([]*audio.Recording, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*audio.Recording, 0, len(ids))
	for _, id := range ids {
		stored, ok := s.recordings[id]
		if !ok {
			return nil, fmt.Errorf("unknown recording id %s", id)
		}
		out = append(out, stored.recording)
	}
	return out, nil
}

// Count returns the number of stored recordings.
func (s *RecordingStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.recordings)
}
