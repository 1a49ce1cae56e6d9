package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/GodingWal/voiceclone-service/internal/config"
	"github.com/GodingWal/voiceclone-service/internal/jobs"
	"github.com/GodingWal/voiceclone-service/internal/metrics"
	"github.com/GodingWal/voiceclone-service/internal/pipeline"
	"github.com/GodingWal/voiceclone-service/internal/training"
)

// HTTPServer provides the HTTP API for recordings, jobs, and monitoring
type HTTPServer struct {
	server     *http.Server
	logger     *slog.Logger
	config     *config.Config
	jobs       *jobs.Service
	runner     *jobs.Runner
	executor   *pipeline.Executor
	recordings *RecordingStore
	trainer    *training.Client
	metrics    *metrics.Metrics

	startTime time.Time
}

// NewHTTPServer creates the HTTP API server. The trainer is used only for
// its stats surface and may be nil.
func NewHTTPServer(cfg *config.Config, logger *slog.Logger, jobService *jobs.Service,
	runner *jobs.Runner, executor *pipeline.Executor, recordings *RecordingStore,
	trainer *training.Client, m *metrics.Metrics) *HTTPServer {

	h := &HTTPServer{
		logger:     logger,
		config:     cfg,
		jobs:       jobService,
		runner:     runner,
		executor:   executor,
		recordings: recordings,
		trainer:    trainer,
		metrics:    m,
		startTime:  time.Now(),
	}

	router := chi.NewRouter()
	router.Use(h.withMetrics)
	h.Attach(router)

	h.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Address, cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return h
}

// Handler returns the fully routed handler, for tests and embedding.
func (h *HTTPServer) Handler() http.Handler {
	return h.server.Handler
}

// Attach registers all API routes on the router.
func (h *HTTPServer) Attach(r chi.Router) {
	r.Post("/recordings", h.handleUploadRecording)
	r.Post("/audio/analyze", h.handleAnalyze)

	r.Post("/jobs", h.handleCreateJob)
	r.Get("/jobs", h.handleListJobs)
	r.Get("/jobs/{id}", h.handleGetJob)
	r.Post("/jobs/{id}/cancel", h.handleCancelJob)
	r.Post("/jobs/{id}/retry", h.handleRetryJob)

	r.Get("/health", h.handleHealth)
	r.Get("/stats", h.handleStats)
	r.Get("/config", h.handleConfig)
	r.Get("/", h.handleRoot)

	r.Handle("/metrics", promhttp.Handler())
}

// withMetrics records request counts, durations, and errors per route
func (h *HTTPServer) withMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		ww := &responseWriter{ResponseWriter: w, statusCode: 200}
		next.ServeHTTP(ww, r)

		if h.metrics == nil {
			return
		}

		endpoint := chi.RouteContext(r.Context()).RoutePattern()
		if endpoint == "" {
			endpoint = r.URL.Path
		}

		duration := time.Since(startTime).Seconds()
		statusCode := fmt.Sprintf("%d", ww.statusCode)

		h.metrics.RecordHTTPRequest(r.Method, endpoint, statusCode, duration)

		if ww.statusCode >= 400 {
			errorType := "client_error"
			if ww.statusCode >= 500 {
				errorType = "server_error"
			}
			h.metrics.RecordHTTPError(r.Method, endpoint, errorType)
		}
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Start starts the HTTP server
func (h *HTTPServer) Start() error {
	h.logger.Info("Starting HTTP API server",
		slog.String("address", h.server.Addr),
	)

	go func() {
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			h.logger.Error("HTTP server error", slog.String("error", err.Error()))
		}
	}()

	return nil
}

// Stop gracefully stops the HTTP server
func (h *HTTPServer) Stop(ctx context.Context) error {
	h.logger.Info("Stopping HTTP API server...")

	return h.server.Shutdown(ctx)
}

// handleHealth implements the /health endpoint
func (h *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(h.startTime)

	activeJobs, err := h.jobs.ActiveCount(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"uptime":    uptime.String(),
		"service": map[string]interface{}{
			"name":    "voiceclone-service",
			"version": "1.0.0",
		},
		"components": map[string]interface{}{
			"jobs": map[string]interface{}{
				"status":       "running",
				"active_count": activeJobs,
			},
			"recordings": map[string]interface{}{
				"status": "running",
				"stored": h.recordings.Count(),
			},
		},
	}

	if h.trainer != nil {
		stats := h.trainer.GetStats()
		health["components"].(map[string]interface{})["training"] = map[string]interface{}{
			"status":          "running",
			"total_requests":  stats.TotalRequests,
			"success_rate":    stats.SuccessRate,
			"active_requests": stats.ActiveRequests,
		}
	}

	writeJSON(w, health)
}

// handleStats implements the /stats endpoint
func (h *HTTPServer) handleStats(w http.ResponseWriter, r *http.Request) {
	activeJobs, err := h.jobs.ActiveCount(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	stats := map[string]interface{}{
		"uptime":    time.Since(h.startTime).String(),
		"timestamp": time.Now().UTC(),
		"jobs": map[string]interface{}{
			"active_count": activeJobs,
		},
		"recordings": map[string]interface{}{
			"stored": h.recordings.Count(),
		},
	}

	if h.trainer != nil {
		stats["training"] = h.trainer.GetStats()
	}

	writeJSON(w, stats)
}

// handleConfig implements the /config endpoint. Secrets are omitted.
func (h *HTTPServer) handleConfig(w http.ResponseWriter, r *http.Request) {
	sanitized := map[string]interface{}{
		"http": map[string]interface{}{
			"port":    h.config.HTTP.Port,
			"address": h.config.HTTP.Address,
		},
		"audio": map[string]interface{}{
			"target_sample_rate":  h.config.Audio.TargetSampleRate,
			"high_pass_cutoff_hz": h.config.Audio.HighPassCutoffHz,
		},
		"training": map[string]interface{}{
			"endpoint":       h.config.Training.Endpoint,
			"model":          h.config.Training.Model,
			"timeout":        h.config.Training.Timeout,
			"max_retries":    h.config.Training.MaxRetries,
			"max_concurrent": h.config.Training.MaxConcurrent,
		},
		"jobs": map[string]interface{}{
			"max_recordings": h.config.Jobs.MaxRecordings,
		},
		"polling": map[string]interface{}{
			"interval": h.config.Polling.Interval,
		},
		"logging": map[string]interface{}{
			"level":  h.config.Logging.Level,
			"format": h.config.Logging.Format,
			"output": h.config.Logging.Output,
		},
	}

	writeJSON(w, sanitized)
}

// handleRoot implements the / endpoint with API documentation
func (h *HTTPServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	apiDoc := map[string]interface{}{
		"service": "Voice Clone Training Service",
		"version": "1.0.0",
		"endpoints": map[string]interface{}{
			"GET /":                     "API documentation",
			"POST /recordings":          "Upload a WAV recording",
			"POST /audio/analyze":       "Quality-analyze a WAV recording",
			"POST /jobs":                "Create a voice training job",
			"GET /jobs?user={id}":       "List jobs for a user",
			"GET /jobs/{id}":            "Get job status",
			"POST /jobs/{id}/cancel":    "Cancel a job",
			"POST /jobs/{id}/retry":     "Retry a failed job",
			"GET /health":               "Service health check",
			"GET /stats":                "Service statistics",
			"GET /config":               "Service configuration",
			"GET /metrics":              "Prometheus metrics",
		},
		"timestamp": time.Now().UTC(),
	}

	writeJSON(w, apiDoc)
}
