// Package server provides the HTTP API for the voice clone training
// service: recording upload and analysis, job lifecycle endpoints, and
// the monitoring surface (health, stats, config, Prometheus metrics).
package server
