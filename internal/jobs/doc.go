// Package jobs models the life cycle of a voice-clone training request as
// an explicit state machine. The service is the sole writer of job state,
// progress, and error fields; mutations are serialized per job id through
// the store's atomic read-modify-write, and every terminal failure carries
// a non-empty error message.
package jobs
