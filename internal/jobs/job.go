package jobs

import (
	"errors"
	"time"
)

var (
	// ErrInvalidTransition is returned for illegal state changes.
	ErrInvalidTransition = errors.New("invalid job state transition")

	// ErrNotFound is returned when a job id does not exist.
	ErrNotFound = errors.New("job not found")

	// ErrNoRecordings is returned when a job is created without recordings.
	ErrNoRecordings = errors.New("at least one recording is required")
)

// State identifies a stage in the training job life cycle
type State string

const (
	StatePending       State = "pending"
	StateUploading     State = "uploading"
	StatePreprocessing State = "preprocessing"
	StateTraining      State = "training"
	StateValidating    State = "validating"
	StateFinalizing    State = "finalizing"
	StateCompleted     State = "completed"
	StateFailed        State = "failed"
)

// stageOrder gives each pipeline stage its position in the linear chain.
// failed sits outside the chain and is reachable from any non-terminal
// state.
var stageOrder = map[State]int{
	StatePending:       0,
	StateUploading:     1,
	StatePreprocessing: 2,
	StateTraining:      3,
	StateValidating:    4,
	StateFinalizing:    5,
	StateCompleted:     6,
}

// stageProgress is the starting progress value for each stage
var stageProgress = map[State]int{
	StatePending:       0,
	StateUploading:     10,
	StatePreprocessing: 25,
	StateTraining:      50,
	StateValidating:    80,
	StateFinalizing:    95,
	StateCompleted:     100,
}

// Terminal reports whether the state admits no further transitions.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Active reports whether a job in this state still has remote work
// outstanding, i.e. whether a poller should keep refreshing it.
func (s State) Active() bool {
	switch s {
	case StatePending, StateUploading, StatePreprocessing, StateTraining, StateValidating:
		return true
	default:
		return false
	}
}

// Cancellable reports whether a user may still cancel a job in this state.
// Once finalizing begins the remote side is committing the profile, so
// cancellation is no longer honored.
func (s State) Cancellable() bool {
	return s.Active()
}

// StartingProgress returns the progress value a job takes on entering the
// given stage.
func StartingProgress(s State) int {
	return stageProgress[s]
}

// validTransition enforces the allowed state machine edges. Stages may be
// skipped forward (a fast server can pass through intermediate stages
// between observations), but completed is reachable only from finalizing,
// and terminal states admit nothing.
func validTransition(from, to State) bool {
	if from.Terminal() {
		return false
	}

	if to == StateFailed {
		return true
	}

	if to == StateCompleted {
		return from == StateFinalizing
	}

	fromIdx, ok := stageOrder[from]
	if !ok {
		return false
	}
	toIdx, ok := stageOrder[to]
	if !ok {
		return false
	}

	return toIdx > fromIdx
}

// VoiceJob is one tracked voice-profile training request. A job is created
// once, passes through each stage at most once, and never regresses except
// through an explicit retry, which resets it to pending while preserving
// its identity and original recordings.
type VoiceJob struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	Name         string     `json:"name"`
	RecordingIDs []string   `json:"recording_ids"`
	State        State      `json:"state"`
	Progress     int        `json:"progress"`
	Error        string     `json:"error,omitempty"`
	ProfileID    string     `json:"profile_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// Clone returns a deep copy so callers can never mutate stored state.
func (j *VoiceJob) Clone() *VoiceJob {
	out := *j
	out.RecordingIDs = append([]string(nil), j.RecordingIDs...)
	if j.CompletedAt != nil {
		at := *j.CompletedAt
		out.CompletedAt = &at
	}
	return &out
}
