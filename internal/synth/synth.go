// Package synth composes a scaled still image with an audio track and encodes
// the pair into a single H.264/AAC MP4. One call in, one result out: the
// caller receives exactly one artifact or exactly one error, and no partial
// file is ever left behind.
package synth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/recitalvideo/recital-api/internal/audio"
	"github.com/recitalvideo/recital-api/internal/media"
)

// Static errors for synthesis operations.
var (
	// ErrInvalidDuration is returned when the audio duration is not positive.
	ErrInvalidDuration = errors.New("invalid duration: must be positive")
	// ErrInvalidFrame is returned when the scaled frame geometry is unusable.
	ErrInvalidFrame = errors.New("invalid frame: width and height must be positive")
)

// DefaultFrameRate is the fixed output frame rate in frames per second.
const DefaultFrameRate = 24

// Artifact is the encoded output file. Ownership transfers to the caller on
// success; the synthesizer never re-reads it.
type Artifact struct {
	// Path is the unique location of the MP4 on disk.
	Path string
	// Width is the encoded frame width in pixels.
	Width int
	// Height is the encoded frame height in pixels.
	Height int
	// Duration is the timeline length in seconds, equal to the audio duration.
	Duration float64
}

// EncodeError indicates a failure during composition or encoding. Any
// partially written output has been deleted before this error propagates.
type EncodeError struct {
	Err error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode: %v", e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// FFmpegError represents an error from running ffmpeg, including the stderr output.
type FFmpegError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *FFmpegError) Error() string {
	return fmt.Sprintf("ffmpeg error: %v\nargs: %v\nstderr: %s", e.Err, e.Args, e.Stderr)
}

func (e *FFmpegError) Unwrap() error {
	return e.Err
}

// Synthesizer encodes (audio, scaled frame) pairs into MP4 artifacts using
// the ffmpeg CLI. It holds no per-request state; concurrent calls are safe
// and never collide because every temporary name carries a fresh UUID.
type Synthesizer struct {
	ffmpegPath string
	tempDir    string
	frameRate  int
	transcoder audio.Transcoder
	logger     *slog.Logger
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithFFmpegPath sets the ffmpeg binary path. Defaults to "ffmpeg".
func WithFFmpegPath(path string) Option {
	return func(s *Synthesizer) {
		if path != "" {
			s.ffmpegPath = path
		}
	}
}

// WithTempDir sets the directory for output and transient mux files.
// Defaults to os.TempDir().
func WithTempDir(dir string) Option {
	return func(s *Synthesizer) {
		if dir != "" {
			s.tempDir = dir
		}
	}
}

// WithFrameRate sets the output frame rate. Defaults to 24 fps.
func WithFrameRate(fps int) Option {
	return func(s *Synthesizer) {
		if fps > 0 {
			s.frameRate = fps
		}
	}
}

// WithLogger sets the logger used for non-fatal cleanup warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Synthesizer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSynthesizer creates a Synthesizer. The transcoder produces the AAC mux
// buffer consumed by the encode stage; pass audio.NewFFmpegTranscoder("")
// for the standard setup.
func NewSynthesizer(transcoder audio.Transcoder, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		ffmpegPath: "ffmpeg",
		tempDir:    os.TempDir(),
		frameRate:  DefaultFrameRate,
		transcoder: transcoder,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize builds a timeline in which frame is held constant for the full
// audio duration, encodes it at the fixed frame rate with libx264 video and
// AAC audio, and writes a uniquely named MP4 under the temp directory.
//
// The AAC mux buffer (temp-audio-<uuid>.m4a) is removed on every exit path.
// On failure any partially written output is deleted and an *EncodeError
// carrying the cause is returned. A single attempt is made; retries and
// timeouts belong to the caller.
func (s *Synthesizer) Synthesize(ctx context.Context, src media.AudioSource, frame media.ScaledFrame) (*Artifact, error) {
	if src.Duration <= 0 {
		return nil, &EncodeError{Err: fmt.Errorf("%w: got %f", ErrInvalidDuration, src.Duration)}
	}
	if frame.Width <= 0 || frame.Height <= 0 {
		return nil, &EncodeError{Err: fmt.Errorf("%w: %dx%d", ErrInvalidFrame, frame.Width, frame.Height)}
	}

	audioBuf := filepath.Join(s.tempDir, fmt.Sprintf("temp-audio-%s.m4a", uuid.NewString()))
	defer s.removeQuiet(audioBuf)

	if err := s.transcoder.TranscodeToAAC(ctx, src.Path, audioBuf); err != nil {
		return nil, &EncodeError{Err: fmt.Errorf("prepare audio buffer: %w", err)}
	}

	outPath := filepath.Join(s.tempDir, fmt.Sprintf("video_%s.mp4", uuid.NewString()))

	if err := s.mux(ctx, frame, audioBuf, src.Duration, outPath); err != nil {
		// Never leave a partial file for the caller to discover.
		if rmErr := os.Remove(outPath); rmErr != nil && !os.IsNotExist(rmErr) {
			s.logger.Warn("failed to remove partial output",
				slog.String("path", outPath),
				slog.String("error", rmErr.Error()),
			)
		}
		return nil, &EncodeError{Err: err}
	}

	return &Artifact{
		Path:     outPath,
		Width:    frame.Width,
		Height:   frame.Height,
		Duration: src.Duration,
	}, nil
}

// mux runs the single encode pass: the looped image as the video track, the
// AAC buffer as the audio track, bounded by the audio duration.
func (s *Synthesizer) mux(ctx context.Context, frame media.ScaledFrame, audioBuf string, duration float64, outPath string) error {
	args := []string{
		"-y",
		"-loop", "1",
		"-framerate", fmt.Sprintf("%d", s.frameRate),
		"-i", frame.Path,
		"-i", audioBuf,
		"-vf", fmt.Sprintf("scale=%d:%d", frame.Width, frame.Height),
		"-c:v", "libx264",
		"-tune", "stillimage",
		"-pix_fmt", "yuv420p",
		"-c:a", "copy",
		"-t", fmt.Sprintf("%.3f", duration),
		"-movflags", "+faststart",
		outPath,
	}

	// #nosec G204 - ffmpegPath is set by the application, not user input
	cmd := exec.CommandContext(ctx, s.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("ffmpeg cancelled: %w", ctx.Err())
		}
		return &FFmpegError{
			Args:   args,
			Stderr: stderr.String(),
			Err:    err,
		}
	}

	return nil
}

// removeQuiet deletes a temporary file, logging a warning on failure.
// Cleanup failures never block returning the primary result or error.
func (s *Synthesizer) removeQuiet(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("failed to remove temp file",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
	}
}
