package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GodingWal/voiceclone-service/internal/collab"
	"github.com/GodingWal/voiceclone-service/internal/config"
	"github.com/GodingWal/voiceclone-service/internal/jobs"
	"github.com/GodingWal/voiceclone-service/internal/metrics"
	"github.com/GodingWal/voiceclone-service/internal/pipeline"
	"github.com/GodingWal/voiceclone-service/internal/server"
	"github.com/GodingWal/voiceclone-service/internal/training"
)

const (
	defaultConfigPath = "configs/config.yaml"
	serviceName       = "voiceclone-service"
	serviceVersion    = "1.0.0"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger based on configuration
	logger := initLogger(cfg.Logging)

	// Log service startup
	logger.Info("Service starting",
		slog.String("service", serviceName),
		slog.String("version", serviceVersion),
		slog.String("config_path", *configPath),
	)

	// Log configuration summary (without sensitive data)
	logger.Info("Configuration loaded",
		slog.Int("http_port", cfg.HTTP.Port),
		slog.String("http_address", cfg.HTTP.Address),
		slog.Int("target_sample_rate", cfg.Audio.TargetSampleRate),
		slog.Float64("high_pass_cutoff_hz", cfg.Audio.HighPassCutoffHz),
		slog.String("training_endpoint", cfg.Training.Endpoint),
		slog.Int("max_recordings", cfg.Jobs.MaxRecordings),
		slog.String("log_level", cfg.Logging.Level),
	)

	// Initialize Prometheus metrics
	appMetrics := metrics.NewMetrics()
	logger.Info("Prometheus metrics initialized")

	// Initialize training API client
	trainer, err := training.NewClient(training.Config{
		Endpoint:      cfg.Training.Endpoint,
		APIKey:        cfg.Training.APIKey,
		Model:         cfg.Training.Model,
		Timeout:       cfg.Training.GetTimeoutDuration(),
		MaxRetries:    cfg.Training.MaxRetries,
		MaxConcurrent: cfg.Training.MaxConcurrent,
	}, appMetrics)
	if err != nil {
		logger.Error("Failed to create training client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Training client initialized",
		slog.String("endpoint", cfg.Training.Endpoint),
		slog.Int("max_concurrent", cfg.Training.MaxConcurrent),
	)

	// Initialize job service and runner over the in-memory store
	store := jobs.NewMemoryStore()
	jobService := jobs.NewService(store, logger, appMetrics)
	runner := jobs.NewRunner(jobService, trainer, logger, appMetrics)
	logger.Info("Job service initialized")

	// Initialize the audio combine executor
	executor := pipeline.NewExecutor(pipeline.Config{
		TargetSampleRate: cfg.Audio.TargetSampleRate,
		HighPassCutoffHz: cfg.Audio.HighPassCutoffHz,
		QueueSize:        cfg.Pipeline.QueueSize,
	}, logger, appMetrics)
	logger.Info("Audio pipeline executor initialized",
		slog.Int("queue_size", cfg.Pipeline.QueueSize),
	)

	// Initialize recording store and HTTP API server
	recordings := server.NewRecordingStore(cfg.Jobs.MaxRecordings)
	httpServer := server.NewHTTPServer(cfg, logger, jobService, runner, executor,
		recordings, trainer, appMetrics)
	logger.Info("HTTP API server initialized",
		slog.String("address", fmt.Sprintf("%s:%d", cfg.HTTP.Address, cfg.HTTP.Port)),
	)

	// Connect the collaboration status feed (if enabled)
	var feed *collab.Feed
	if cfg.Collab.Enabled {
		feed, err = collab.NewFeed(collab.Config{
			URL:          cfg.Collab.URL,
			APIKey:       cfg.Collab.APIKey,
			DialTimeout:  cfg.Collab.GetDialTimeoutDuration(),
			MaxReconnect: cfg.Collab.MaxReconnect,
		}, func(event collab.StatusEvent) {
			logger.Debug("Collaboration event",
				slog.String("type", event.Type),
				slog.String("job_id", event.JobID),
				slog.String("state", event.State),
			)
		}, logger)
		if err != nil {
			logger.Error("Failed to create collaboration feed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		feed.Start()
		logger.Info("Collaboration feed started", slog.String("url", cfg.Collab.URL))
	}

	// Start HTTP server
	if err := httpServer.Start(); err != nil {
		logger.Error("Failed to start HTTP server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Keep the active-jobs gauge fresh
	gaugeCtx, gaugeCancel := context.WithCancel(context.Background())
	defer gaugeCancel()
	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-gaugeCtx.Done():
				return
			case <-ticker.C:
				if count, err := jobService.ActiveCount(gaugeCtx); err == nil {
					appMetrics.SetActiveJobs(count)
				}
			}
		}
	}()

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("Service started successfully, waiting for signals...",
		slog.String("http_address", fmt.Sprintf("%s:%d", cfg.HTTP.Address, cfg.HTTP.Port)),
	)

	sig := <-sigChan
	logger.Info("Received shutdown signal", slog.String("signal", sig.String()))

	logger.Info("Starting graceful shutdown...")

	// Stop HTTP server first (stop accepting new requests)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Error("Error stopping HTTP server", slog.String("error", err.Error()))
	}

	// Stop the collaboration feed
	if feed != nil {
		feed.Stop()
	}

	// Stop the combine executor (drains queued requests)
	executor.Stop()

	// Drain in-flight training requests
	if err := trainer.Close(); err != nil {
		logger.Error("Error closing training client", slog.String("error", err.Error()))
	}

	// Final statistics
	stats := trainer.GetStats()
	logger.Info("Final training client statistics",
		slog.Uint64("total_requests", stats.TotalRequests),
		slog.Uint64("success_requests", stats.SuccessRequests),
		slog.Uint64("failed_requests", stats.FailedRequests),
		slog.Uint64("total_retries", stats.TotalRetries),
	)

	logger.Info("Service stopped")
}

// initLogger creates and configures the structured logger based on configuration
func initLogger(cfg config.LoggingConfig) *slog.Logger {
	// Parse log level
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo // default fallback
	}

	// Configure handler options
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug, // Add source info for debug level
	}

	// Determine output destination
	var output *os.File
	switch cfg.Output {
	case "stderr":
		output = os.Stderr
	case "stdout", "":
		output = os.Stdout
	default:
		// Assume it's a file path
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v, falling back to stdout\n", cfg.Output, err)
			output = os.Stdout
		} else {
			output = file
		}
	}

	// Create handler based on format
	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	case "text", "":
		handler = slog.NewTextHandler(output, opts)
	default:
		// Default to text format
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}
