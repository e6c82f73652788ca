package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/recitalvideo/recital-api/internal/job"
	"github.com/recitalvideo/recital-api/internal/storage"
)

// defaultMaxUploadBytes bounds the multipart form held in memory before
// spilling to disk.
const defaultMaxUploadBytes = 64 << 20

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	service            *job.SynthesisService
	store              storage.Storage
	validator          *validator.Validate
	logger             *slog.Logger
	enableAsyncProcess bool
}

// HandlerOption is a function that configures a Handlers instance.
type HandlerOption func(*Handlers)

// WithAsyncProcessing enables or disables background processing.
// When disabled, CreateVideo only creates the job and returns immediately
// without starting background processing.
func WithAsyncProcessing(enabled bool) HandlerOption {
	return func(h *Handlers) {
		h.enableAsyncProcess = enabled
	}
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *job.SynthesisService, store storage.Storage, logger *slog.Logger, opts ...HandlerOption) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handlers{
		service:            service,
		store:              store,
		validator:          validator.New(),
		logger:             logger,
		enableAsyncProcess: true, // Default to enabled
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// CreateVideo handles POST /videos requests. It expects a multipart form with
// an "audio" part and an "image" part, validates the declared extensions,
// persists both streams to the temp directory, and starts synthesis in the
// background with a detached context.
func (h *Handlers) CreateVideo(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(defaultMaxUploadBytes); err != nil {
		h.logger.Warn("failed to parse multipart form",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid multipart form", "INVALID_FORM")
		return
	}

	audioFile, audioHeader, err := r.FormFile("audio")
	if err != nil {
		writeError(w, http.StatusBadRequest, "audio file is required", "MISSING_AUDIO")
		return
	}
	defer func() { _ = audioFile.Close() }()

	imageFile, imageHeader, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "image file is required", "MISSING_IMAGE")
		return
	}
	defer func() { _ = imageFile.Close() }()

	meta := uploadMeta{
		AudioExt: normalizeExt(audioHeader.Filename),
		ImageExt: normalizeExt(imageHeader.Filename),
	}
	if err := h.validator.Struct(meta); err != nil {
		h.logger.Warn("upload validation failed",
			slog.String("audio", audioHeader.Filename),
			slog.String("image", imageHeader.Filename),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "unsupported file type", "UNSUPPORTED_TYPE")
		return
	}

	audioPath, err := h.store.SaveUpload(r.Context(), "audio", audioHeader.Filename, audioFile)
	if err != nil {
		h.logger.Error("failed to persist audio upload",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to store upload", "UPLOAD_FAILED")
		return
	}

	imagePath, err := h.store.SaveUpload(r.Context(), "image", imageHeader.Filename, imageFile)
	if err != nil {
		h.logger.Error("failed to persist image upload",
			slog.String("error", err.Error()),
		)
		if cleanupErr := h.store.CleanupTemp(r.Context(), []string{audioPath}); cleanupErr != nil {
			h.logger.Warn("failed to clean up audio upload",
				slog.String("error", cleanupErr.Error()),
			)
		}
		writeError(w, http.StatusInternalServerError, "failed to store upload", "UPLOAD_FAILED")
		return
	}

	input := job.SynthesisInput{
		AudioPath: audioPath,
		ImagePath: imagePath,
		PushToS3:  r.FormValue("push_to_s3") == "true",
	}

	createdJob, err := h.service.CreateJob(r.Context(), input)
	if err != nil {
		h.logger.Error("failed to create job",
			slog.String("error", err.Error()),
		)
		if cleanupErr := h.store.CleanupTemp(r.Context(), []string{audioPath, imagePath}); cleanupErr != nil {
			h.logger.Warn("failed to clean up uploads",
				slog.String("error", cleanupErr.Error()),
			)
		}
		writeError(w, http.StatusInternalServerError, "failed to create job", "JOB_CREATION_FAILED")
		return
	}

	// Process in the background with a detached context so the encode is not
	// cancelled when the request ends. Mid-encode cancellation is not
	// supported; the client simply polls until a terminal state.
	if h.enableAsyncProcess {
		go func(ctx context.Context, jobID string) {
			if processErr := h.service.Process(ctx, jobID); processErr != nil {
				h.logger.Error("background synthesis failed",
					slog.String("job_id", jobID),
					slog.String("error", processErr.Error()),
				)
			}
		}(context.WithoutCancel(r.Context()), createdJob.ID)
	}

	h.logger.Info("synthesis request accepted",
		slog.String("job_id", createdJob.ID),
		slog.String("audio", audioHeader.Filename),
		slog.String("image", imageHeader.Filename),
	)

	writeJSON(w, http.StatusAccepted, CreateVideoResponse{
		ID:     createdJob.ID,
		Status: string(createdJob.Status),
	})
}

// GetVideo handles GET /videos/{id} requests.
func (h *Handlers) GetVideo(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "job ID is required", "MISSING_JOB_ID")
		return
	}

	foundJob, err := h.service.GetJob(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, "job not found", "JOB_NOT_FOUND")
			return
		}
		h.logger.Error("failed to get job",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get job", "JOB_FETCH_FAILED")
		return
	}

	resp := VideoResponse{
		ID:     foundJob.ID,
		Status: string(foundJob.Status),
		Error:  foundJob.Error,
	}
	if foundJob.Status == job.StatusCompleted {
		resp.Width = foundJob.Width
		resp.Height = foundJob.Height
		resp.Duration = foundJob.Duration
		resp.VideoURL = foundJob.VideoURL
	}

	writeJSON(w, http.StatusOK, resp)
}

// DownloadVideo handles GET /videos/{id}/download requests. It streams the
// finished MP4; ownership of the artifact stays with the service, so the
// file is served in place rather than moved.
func (h *Handlers) DownloadVideo(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "job ID is required", "MISSING_JOB_ID")
		return
	}

	foundJob, err := h.service.GetJob(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, "job not found", "JOB_NOT_FOUND")
			return
		}
		h.logger.Error("failed to get job",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get job", "JOB_FETCH_FAILED")
		return
	}

	if foundJob.Status != job.StatusCompleted || foundJob.OutputVideoPath == "" {
		writeError(w, http.StatusConflict, "video is not ready", "VIDEO_NOT_READY")
		return
	}

	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="recital_video_%s.mp4"`, foundJob.ID))
	http.ServeFile(w, r, foundJob.OutputVideoPath)
}

// normalizeExt returns the lowercased file extension without the leading dot.
func normalizeExt(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
