// Package job provides the Job aggregate for tracking video synthesis
// requests. It includes the per-invocation state machine, repository
// interfaces for persistence, and the SynthesisService use case.
package job

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status represents the current state of a synthesis Job.
type Status string

const (
	// StatusPending indicates the job has been accepted but not started.
	StatusPending Status = "PENDING"
	// StatusLoading indicates the inputs are being probed and prepared.
	StatusLoading Status = "LOADING"
	// StatusComposing indicates the timeline is being composed.
	StatusComposing Status = "COMPOSING"
	// StatusEncoding indicates the encoder is producing the output file.
	StatusEncoding Status = "ENCODING"
	// StatusCompleted indicates the job finished successfully.
	StatusCompleted Status = "COMPLETED"
	// StatusFailed indicates the job encountered an error.
	StatusFailed Status = "FAILED"
)

// ErrInvalidTransition is returned when an invalid state transition is attempted.
var ErrInvalidTransition = errors.New("invalid state transition")

// validTransitions defines which state transitions are allowed.
// FAILED is reachable from every non-terminal working state; terminal
// states allow no further transitions.
var validTransitions = map[Status][]Status{
	StatusPending:   {StatusLoading, StatusFailed},
	StatusLoading:   {StatusComposing, StatusFailed},
	StatusComposing: {StatusEncoding, StatusFailed},
	StatusEncoding:  {StatusCompleted, StatusFailed},
	StatusCompleted: {},
	StatusFailed:    {},
}

// canTransition checks if a transition from one status to another is valid.
func canTransition(from, to Status) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// Job represents a single video synthesis request. Each request is
// independent; no state is shared between jobs beyond the temp directory.
type Job struct {
	mu sync.RWMutex

	// ID is the unique identifier for this job.
	ID string
	// Status is the current job state.
	Status Status
	// Error contains any error message if the job failed.
	Error string
	// InputAudioPath is the path to the persisted audio upload.
	InputAudioPath string
	// InputImagePath is the path to the persisted image upload.
	InputImagePath string
	// OutputVideoPath is the path to the finished MP4.
	OutputVideoPath string
	// Width is the encoded frame width in pixels.
	Width int
	// Height is the encoded frame height in pixels.
	Height int
	// Duration is the output timeline length in seconds.
	Duration float64
	// PushToS3 indicates whether to upload the result to S3.
	PushToS3 bool
	// VideoURL is the S3 URL if PushToS3 was true.
	VideoURL string
	// CreatedAt is when the job was created.
	CreatedAt time.Time
	// UpdatedAt is when the job was last updated.
	UpdatedAt time.Time
	// StartedAt is when processing started.
	StartedAt time.Time
	// CompletedAt is when processing finished.
	CompletedAt time.Time
}

// New creates a new Job with a generated UUID and initial PENDING status.
func New() *Job {
	now := time.Now()
	return &Job{
		ID:        uuid.NewString(),
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewWithID creates a new Job with the specified ID and initial PENDING status.
// Useful for testing or when the ID needs to be externally generated.
func NewWithID(jobID string) *Job {
	now := time.Now()
	return &Job{
		ID:        jobID,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TransitionTo attempts to change the job status to the specified state.
// Returns ErrInvalidTransition if the transition is not allowed.
func (j *Job) TransitionTo(status Status) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !canTransition(j.Status, status) {
		return ErrInvalidTransition
	}

	j.Status = status
	j.UpdatedAt = time.Now()

	switch status {
	case StatusLoading:
		j.StartedAt = j.UpdatedAt
	case StatusCompleted, StatusFailed:
		j.CompletedAt = j.UpdatedAt
	}

	return nil
}

// StartLoading transitions the job from PENDING to LOADING.
func (j *Job) StartLoading() error {
	return j.TransitionTo(StatusLoading)
}

// StartComposing transitions the job from LOADING to COMPOSING.
func (j *Job) StartComposing() error {
	return j.TransitionTo(StatusComposing)
}

// StartEncoding transitions the job from COMPOSING to ENCODING.
func (j *Job) StartEncoding() error {
	return j.TransitionTo(StatusEncoding)
}

// Complete transitions the job to COMPLETED state.
func (j *Job) Complete() error {
	return j.TransitionTo(StatusCompleted)
}

// Fail transitions the job to FAILED state with an error message.
func (j *Job) Fail(errMsg string) error {
	j.mu.Lock()
	j.Error = errMsg
	j.mu.Unlock()
	return j.TransitionTo(StatusFailed)
}

// GetStatus returns the current job status (thread-safe).
func (j *Job) GetStatus() Status {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status
}

// SetInputs records the persisted upload paths.
func (j *Job) SetInputs(audioPath, imagePath string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.InputAudioPath = audioPath
	j.InputImagePath = imagePath
	j.UpdatedAt = time.Now()
}

// SetOutput records the finished artifact: its path, geometry, timeline
// duration, and optional S3 URL.
func (j *Job) SetOutput(videoPath, videoURL string, width, height int, duration float64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.OutputVideoPath = videoPath
	j.VideoURL = videoURL
	j.Width = width
	j.Height = height
	j.Duration = duration
	j.UpdatedAt = time.Now()
}

// IsTerminal returns true if the job is in a terminal state.
func (j *Job) IsTerminal() bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status == StatusCompleted || j.Status == StatusFailed
}

// Clone creates a deep copy of the job for safe reads.
func (j *Job) Clone() *Job {
	j.mu.RLock()
	defer j.mu.RUnlock()

	return &Job{
		ID:              j.ID,
		Status:          j.Status,
		Error:           j.Error,
		InputAudioPath:  j.InputAudioPath,
		InputImagePath:  j.InputImagePath,
		OutputVideoPath: j.OutputVideoPath,
		Width:           j.Width,
		Height:          j.Height,
		Duration:        j.Duration,
		PushToS3:        j.PushToS3,
		VideoURL:        j.VideoURL,
		CreatedAt:       j.CreatedAt,
		UpdatedAt:       j.UpdatedAt,
		StartedAt:       j.StartedAt,
		CompletedAt:     j.CompletedAt,
	}
}
