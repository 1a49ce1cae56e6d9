// Package training implements the HTTP client for the remote voice
// training API. It uploads combined audio assets as multipart form data,
// implements retry logic with exponential backoff, and manages rate
// limiting via a concurrency semaphore.
package training
