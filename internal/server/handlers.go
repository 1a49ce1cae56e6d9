package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GodingWal/voiceclone-service/internal/audio"
	"github.com/GodingWal/voiceclone-service/internal/jobs"
)

// maxUploadBytes bounds a single WAV upload (10 minutes of 44.1kHz mono
// 16-bit PCM is ~53MB).
const maxUploadBytes = 64 << 20

type createJobRequest struct {
	Name         string   `json:"name"`
	UserID       string   `json:"user_id"`
	RecordingIDs []string `json:"recording_ids"`
}

type cancelJobRequest struct {
	Reason string `json:"reason"`
}

type uploadResponse struct {
	Recording *StoredRecording     `json:"recording"`
	Quality   *audio.QualityReport `json:"quality"`
}

// handleUploadRecording accepts a multipart WAV upload and stores the
// decoded recording for later job creation.
func (h *HTTPServer) handleUploadRecording(w http.ResponseWriter, r *http.Request) {
	rec, err := readWAVUpload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	userID := r.FormValue("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, errors.New("user_id is required"))
		return
	}

	report, err := audio.AnalyzeQuality(rec)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	stored, err := h.recordings.Add(userID, rec)
	if err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordQualityAnalysis(report.Score)
	}

	h.logger.Info("Recording uploaded",
		slog.String("recording_id", stored.ID),
		slog.String("user_id", userID),
		slog.Int("quality_score", report.Score),
	)

	writeJSONStatus(w, http.StatusCreated, uploadResponse{Recording: stored, Quality: report})
}

// handleAnalyze returns a quality report for an uploaded WAV without
// storing it.
func (h *HTTPServer) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	rec, err := readWAVUpload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	report, err := audio.AnalyzeQuality(rec)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordQualityAnalysis(report.Score)
	}

	writeJSON(w, report)
}

// handleCreateJob creates a job and starts its pipeline run.
func (h *HTTPServer) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid JSON body"))
		return
	}

	if len(req.RecordingIDs) > h.config.Jobs.MaxRecordings {
		writeError(w, http.StatusBadRequest,
			errors.New("too many recordings for one job"))
		return
	}

	recordings, err := h.recordings.Resolve(req.RecordingIDs)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	job, err := h.jobs.Create(r.Context(), req.Name, req.RecordingIDs, req.UserID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	go h.launch(job.ID, recordings)

	writeJSONStatus(w, http.StatusAccepted, job)
}

// launch combines the job's recordings and drives it through the stages.
// It runs detached from the originating request.
func (h *HTTPServer) launch(jobID string, recordings []*audio.Recording) {
	ctx := context.Background()

	asset, err := h.executor.Combine(ctx, recordings)
	if err != nil {
		h.logger.Error("Combine failed",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		if _, failErr := h.jobs.Fail(ctx, jobID, err.Error()); failErr != nil {
			h.logger.Error("Failed to record combine error",
				slog.String("job_id", jobID),
				slog.String("error", failErr.Error()),
			)
		}
		return
	}

	if err := h.runner.Run(ctx, jobID, asset); err != nil {
		h.logger.Warn("Job run ended with error",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
	}
}

// handleListJobs implements GET /jobs?user={id}
func (h *HTTPServer) handleListJobs(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user")

	list, err := h.jobs.List(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, map[string]interface{}{
		"total": len(list),
		"jobs":  list,
	})
}

// handleGetJob implements GET /jobs/{id}
func (h *HTTPServer) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobs.GetStatus(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeJobError(w, err)
		return
	}

	writeJSON(w, job)
}

// handleCancelJob implements POST /jobs/{id}/cancel
func (h *HTTPServer) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	var req cancelJobRequest
	if r.Body != nil {
		// Body is optional; a missing reason gets the default.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	job, err := h.jobs.Cancel(r.Context(), chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		writeJobError(w, err)
		return
	}

	writeJSON(w, job)
}

// handleRetryJob implements POST /jobs/{id}/retry. A successful retry
// resets the job to pending and relaunches its pipeline run.
func (h *HTTPServer) handleRetryJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobs.Retry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeJobError(w, err)
		return
	}

	recordings, err := h.recordings.Resolve(job.RecordingIDs)
	if err != nil {
		// Recordings evicted since the original run; the retry cannot
		// proceed.
		if _, failErr := h.jobs.Fail(r.Context(), job.ID, err.Error()); failErr == nil {
			job, _ = h.jobs.GetStatus(r.Context(), job.ID)
		}
		writeJSON(w, job)
		return
	}

	go h.launch(job.ID, recordings)

	writeJSON(w, job)
}

// readWAVUpload extracts and decodes the "file" part of a multipart WAV
// upload.
func readWAVUpload(r *http.Request) (*audio.Recording, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, errors.New("expected multipart form with a file part")
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, errors.New("file part is required")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		return nil, errors.New("failed to read upload")
	}

	return audio.RecordingFromWAV(data)
}

// writeJobError maps job service errors to HTTP status codes.
func writeJobError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, jobs.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, jobs.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeJSONStatus(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
