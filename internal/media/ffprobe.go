package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// FFprobeProber implements Prober using the ffprobe CLI.
type FFprobeProber struct {
	// ffprobePath is the path to the ffprobe binary. Defaults to "ffprobe".
	ffprobePath string
}

// NewFFprobeProber creates a new FFprobeProber.
// If ffprobePath is empty, it defaults to "ffprobe" (found via PATH).
func NewFFprobeProber(ffprobePath string) *FFprobeProber {
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &FFprobeProber{ffprobePath: ffprobePath}
}

// Verify interface implementation at compile time.
var _ Prober = (*FFprobeProber)(nil)

// ProbeAudio returns the audio file's source description including its total
// duration in seconds. A file that ffprobe cannot parse, or whose duration is
// not positive, yields a *DecodeError.
func (p *FFprobeProber) ProbeAudio(ctx context.Context, path string) (AudioSource, error) {
	out, err := p.run(ctx,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		return AudioSource{}, &DecodeError{Path: path, Err: err}
	}

	var duration float64
	if _, err := fmt.Sscanf(strings.TrimSpace(out), "%f", &duration); err != nil {
		return AudioSource{}, &DecodeError{Path: path, Err: fmt.Errorf("parse duration: %w", err)}
	}
	if duration <= 0 {
		return AudioSource{}, &DecodeError{Path: path, Err: fmt.Errorf("%w: got %f", ErrZeroDuration, duration)}
	}

	return AudioSource{Path: path, Duration: duration}, nil
}

// ProbeImage returns the pixel dimensions of the first video stream of the
// image file. Unreadable or corrupt files yield a *DecodeError.
func (p *FFprobeProber) ProbeImage(ctx context.Context, path string) (ImageInfo, error) {
	out, err := p.run(ctx,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-of", "csv=s=x:p=0",
		path,
	)
	if err != nil {
		return ImageInfo{}, &DecodeError{Path: path, Err: err}
	}

	var w, h int
	n, err := fmt.Sscanf(strings.TrimSpace(out), "%dx%d", &w, &h)
	if err != nil || n != 2 {
		return ImageInfo{}, &DecodeError{Path: path, Err: fmt.Errorf("parse dimensions from %q", out)}
	}
	if w <= 0 || h <= 0 {
		return ImageInfo{}, &DecodeError{Path: path, Err: fmt.Errorf("%w: width=%d, height=%d", ErrInvalidDimensions, w, h)}
	}

	return ImageInfo{Path: path, Width: w, Height: h}, nil
}

// run executes ffprobe with the given arguments and returns stdout.
func (p *FFprobeProber) run(ctx context.Context, args ...string) (string, error) {
	// #nosec G204 - ffprobePath is set by the application, not user input
	cmd := exec.CommandContext(ctx, p.ffprobePath, args...)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("ffprobe cancelled: %w", ctx.Err())
		}
		return "", fmt.Errorf("%w: %w, stderr: %s", ErrFFprobeExecution, err, stderr.String())
	}

	return stdout.String(), nil
}
