// Package server provides the HTTP boundary for the Recital Video API.
// It accepts the two uploads, persists them to readable paths, validates the
// declared extensions, and hands the job to the synthesis service; the core
// pipeline never sees HTTP.
package server

// uploadMeta carries the declared filenames of the two uploads for
// validation. The core does not re-validate beyond attempting decode.
type uploadMeta struct {
	// AudioExt is the lowercased extension of the audio upload, without dot.
	AudioExt string `validate:"required,oneof=mp3 wav ogg m4a aac opus"`
	// ImageExt is the lowercased extension of the image upload, without dot.
	ImageExt string `validate:"required,oneof=png jpg jpeg gif bmp webp"`
}

// CreateVideoResponse is the HTTP response after accepting a synthesis request.
type CreateVideoResponse struct {
	// ID is the unique identifier for the created job.
	ID string `json:"id"`
	// Status is the initial job status.
	Status string `json:"status"`
}

// VideoResponse is the HTTP response for getting job details.
type VideoResponse struct {
	// ID is the unique identifier for the job.
	ID string `json:"id"`
	// Status is the current job status.
	Status string `json:"status"`
	// Error contains any error message if the job failed.
	Error string `json:"error,omitempty"`
	// Width is the encoded frame width in pixels (set when completed).
	Width int `json:"width,omitempty"`
	// Height is the encoded frame height in pixels (set when completed).
	Height int `json:"height,omitempty"`
	// Duration is the output length in seconds (set when completed).
	Duration float64 `json:"duration,omitempty"`
	// VideoURL is the S3 URL of the output video (if pushed to S3).
	VideoURL string `json:"video_url,omitempty"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
}
