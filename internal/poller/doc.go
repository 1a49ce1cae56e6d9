// Package poller maintains a client-side view of training jobs by
// periodically refreshing it from the authoritative server list. Polling
// runs only while at least one known job still has remote work
// outstanding, and is suspended entirely while the caller reports being
// backgrounded.
package poller
