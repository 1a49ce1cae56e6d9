package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the voice clone service
type Metrics struct {
	// Audio pipeline metrics
	CombineRequests  prometheus.Counter
	CombineFailures  prometheus.Counter
	CombineDuration  prometheus.Histogram
	AssetBytes       prometheus.Histogram
	RecordingsPerJob prometheus.Histogram

	// Quality analysis metrics
	QualityAnalyses prometheus.Counter
	QualityScore    prometheus.Histogram

	// Job metrics
	JobsCreated    prometheus.Counter
	JobsCompleted  prometheus.Counter
	JobsFailed     prometheus.Counter
	JobsCancelled  prometheus.Counter
	JobsRetried    prometheus.Counter
	ActiveJobs     prometheus.Gauge
	StageDuration  *prometheus.HistogramVec
	JobTransitions *prometheus.CounterVec

	// Training client metrics
	TrainingRequests  prometheus.Counter
	TrainingSuccesses prometheus.Counter
	TrainingFailures  prometheus.Counter
	TrainingRetries   prometheus.Counter
	TrainingDuration  prometheus.Histogram

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrors          *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics() *Metrics {
	return &Metrics{
		// Audio pipeline metrics
		CombineRequests: promauto.NewCounter(prometheus.CounterOpts{
			Name: "voiceclone_combine_requests_total",
			Help: "Total number of audio combine requests",
		}),
		CombineFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "voiceclone_combine_failures_total",
			Help: "Total number of failed audio combine requests",
		}),
		CombineDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "voiceclone_combine_duration_seconds",
			Help:    "Time spent combining recordings into a training asset",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		}),
		AssetBytes: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "voiceclone_asset_size_bytes",
			Help:    "Size of combined training assets in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 10), // 1KB to ~256MB
		}),
		RecordingsPerJob: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "voiceclone_recordings_per_combine",
			Help:    "Number of input recordings per combine request",
			Buckets: prometheus.LinearBuckets(1, 1, 10),
		}),

		// Quality analysis metrics
		QualityAnalyses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "voiceclone_quality_analyses_total",
			Help: "Total number of recording quality analyses",
		}),
		QualityScore: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "voiceclone_quality_score",
			Help:    "Quality score distribution of analyzed recordings",
			Buckets: prometheus.LinearBuckets(0, 10, 11), // 0 to 100
		}),

		// Job metrics
		JobsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "voiceclone_jobs_created_total",
			Help: "Total number of voice training jobs created",
		}),
		JobsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "voiceclone_jobs_completed_total",
			Help: "Total number of jobs that reached completed state",
		}),
		JobsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "voiceclone_jobs_failed_total",
			Help: "Total number of jobs that reached failed state",
		}),
		JobsCancelled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "voiceclone_jobs_cancelled_total",
			Help: "Total number of jobs cancelled by users",
		}),
		JobsRetried: promauto.NewCounter(prometheus.CounterOpts{
			Name: "voiceclone_jobs_retried_total",
			Help: "Total number of job retries from failed state",
		}),
		ActiveJobs: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "voiceclone_active_jobs",
			Help: "Current number of jobs in a non-terminal state",
		}),
		StageDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "voiceclone_job_stage_duration_seconds",
			Help:    "Time spent in each job stage",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12), // 100ms to ~7 minutes
		}, []string{"stage"}),
		JobTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "voiceclone_job_transitions_total",
			Help: "Total number of job state transitions",
		}, []string{"from", "to"}),

		// Training client metrics
		TrainingRequests: promauto.NewCounter(prometheus.CounterOpts{
			Name: "voiceclone_training_requests_total",
			Help: "Total number of remote training requests sent",
		}),
		TrainingSuccesses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "voiceclone_training_successes_total",
			Help: "Total number of successful remote training requests",
		}),
		TrainingFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "voiceclone_training_failures_total",
			Help: "Total number of failed remote training requests",
		}),
		TrainingRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "voiceclone_training_retries_total",
			Help: "Total number of remote training request retries",
		}),
		TrainingDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "voiceclone_training_duration_seconds",
			Help:    "Duration of remote training requests",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12), // 100ms to ~7 minutes
		}),

		// HTTP API metrics
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "voiceclone_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "voiceclone_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		HTTPErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "voiceclone_http_errors_total",
			Help: "Total number of HTTP errors",
		}, []string{"method", "endpoint", "error_type"}),
	}
}

// RecordCombine records one combine request with its outcome
func (m *Metrics) RecordCombine(recordings int, assetBytes int, durationSeconds float64, err error) {
	m.CombineRequests.Inc()
	m.RecordingsPerJob.Observe(float64(recordings))
	m.CombineDuration.Observe(durationSeconds)

	if err != nil {
		m.CombineFailures.Inc()
		return
	}

	m.AssetBytes.Observe(float64(assetBytes))
}

// RecordQualityAnalysis records one quality analysis result
func (m *Metrics) RecordQualityAnalysis(score int) {
	m.QualityAnalyses.Inc()
	m.QualityScore.Observe(float64(score))
}

// RecordJobCreated increments the jobs created counter
func (m *Metrics) RecordJobCreated() {
	m.JobsCreated.Inc()
}

// RecordJobCompleted increments the jobs completed counter
func (m *Metrics) RecordJobCompleted() {
	m.JobsCompleted.Inc()
}

// RecordJobFailed increments the jobs failed counter
func (m *Metrics) RecordJobFailed() {
	m.JobsFailed.Inc()
}

// RecordJobCancelled increments the jobs cancelled counter
func (m *Metrics) RecordJobCancelled() {
	m.JobsCancelled.Inc()
}

// RecordJobRetried increments the jobs retried counter
func (m *Metrics) RecordJobRetried() {
	m.JobsRetried.Inc()
}

// RecordJobTransition records a state transition between two stages
func (m *Metrics) RecordJobTransition(from, to string) {
	m.JobTransitions.WithLabelValues(from, to).Inc()
}

// RecordStageDuration records time spent in a job stage
func (m *Metrics) RecordStageDuration(stage string, durationSeconds float64) {
	m.StageDuration.WithLabelValues(stage).Observe(durationSeconds)
}

// SetActiveJobs sets the current number of non-terminal jobs
func (m *Metrics) SetActiveJobs(count int) {
	m.ActiveJobs.Set(float64(count))
}

// RecordTrainingRequest increments the training requests counter
func (m *Metrics) RecordTrainingRequest() {
	m.TrainingRequests.Inc()
}

// RecordTrainingSuccess records a successful training request
func (m *Metrics) RecordTrainingSuccess(durationSeconds float64) {
	m.TrainingSuccesses.Inc()
	m.TrainingDuration.Observe(durationSeconds)
}

// RecordTrainingFailure records a failed training request
func (m *Metrics) RecordTrainingFailure(durationSeconds float64) {
	m.TrainingFailures.Inc()
	m.TrainingDuration.Observe(durationSeconds)
}

// RecordTrainingRetry increments the training retry counter
func (m *Metrics) RecordTrainingRetry() {
	m.TrainingRetries.Inc()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

// RecordHTTPError records an HTTP error
func (m *Metrics) RecordHTTPError(method, endpoint, errorType string) {
	m.HTTPErrors.WithLabelValues(method, endpoint, errorType).Inc()
}
