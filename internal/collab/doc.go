// Package collab implements the WebSocket client for the collaboration
// status feed. It streams job status events to subscribers and reconnects
// with capped exponential backoff when the feed drops.
package collab
