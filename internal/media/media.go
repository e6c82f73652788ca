// Package media provides the loader side of the synthesis pipeline: probing
// audio duration, probing image geometry, and computing the scaled frame size
// used for video output.
package media

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// Static errors for media operations.
var (
	// ErrInvalidDimensions is returned when image dimensions are not positive.
	ErrInvalidDimensions = errors.New("invalid dimensions: width and height must be positive")
	// ErrZeroDuration is returned when the probed audio duration is not positive.
	ErrZeroDuration = errors.New("audio duration must be positive")
	// ErrFFprobeExecution is returned when the ffprobe command fails.
	ErrFFprobeExecution = errors.New("ffprobe execution failed")
)

// DefaultTargetHeight is the fixed output frame height in pixels.
const DefaultTargetHeight = 1080

// AudioSource is a decodable audio input with a known total duration.
// It is read-only and owned by a single synthesis request.
type AudioSource struct {
	// Path is the location of the audio file on disk.
	Path string
	// Duration is the total audio duration in seconds. Always > 0.
	Duration float64
}

// ImageInfo describes a raster image input before scaling.
type ImageInfo struct {
	// Path is the location of the image file on disk.
	Path string
	// Width is the source width in pixels.
	Width int
	// Height is the source height in pixels.
	Height int
}

// ScaledFrame is an image sized for video output: height equals the target
// height and width is derived from the source aspect ratio, rounded to the
// nearest even integer for encoder compatibility.
type ScaledFrame struct {
	// Path is the location of the source image; scaling is applied at encode time.
	Path string
	// Width is the derived output width in pixels. Always even.
	Width int
	// Height is the output height in pixels.
	Height int
}

// Prober defines the interface for decoding enough of the input files to
// expose duration and geometry. Implementations should use ffprobe or a
// similar tool.
type Prober interface {
	// ProbeAudio opens an audio file and returns its source description.
	// Returns a *DecodeError if the file is unreadable, unrecognized, or
	// has a non-positive duration.
	ProbeAudio(ctx context.Context, path string) (AudioSource, error)

	// ProbeImage opens an image file and returns its pixel dimensions.
	// Returns a *DecodeError if the file is unreadable or corrupt.
	ProbeImage(ctx context.Context, path string) (ImageInfo, error)
}

// DecodeError indicates an input audio or image file could not be opened or
// parsed. It is never retried; the caller decides how to surface it.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ScaleToHeight computes the output frame geometry for an image: the height is
// set to targetHeight and the width preserves the source aspect ratio, rounded
// to the nearest even integer. No cropping and no letterboxing, so the result
// may be wider or narrower than 1920 px.
func ScaleToHeight(img ImageInfo, targetHeight int) (ScaledFrame, error) {
	if img.Width <= 0 || img.Height <= 0 {
		return ScaledFrame{}, fmt.Errorf("%w: width=%d, height=%d", ErrInvalidDimensions, img.Width, img.Height)
	}
	if targetHeight <= 0 {
		return ScaledFrame{}, fmt.Errorf("%w: target height=%d", ErrInvalidDimensions, targetHeight)
	}

	w := float64(img.Width) * float64(targetHeight) / float64(img.Height)
	width := int(math.Round(w/2)) * 2
	if width < 2 {
		width = 2
	}

	return ScaledFrame{
		Path:   img.Path,
		Width:  width,
		Height: targetHeight,
	}, nil
}
