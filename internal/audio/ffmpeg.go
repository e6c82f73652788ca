package audio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// FFmpegTranscoder implements Transcoder using the ffmpeg CLI.
type FFmpegTranscoder struct {
	ffmpegPath string
}

// NewFFmpegTranscoder creates a new FFmpegTranscoder.
// If ffmpegPath is empty, it defaults to "ffmpeg" (found in PATH).
func NewFFmpegTranscoder(ffmpegPath string) *FFmpegTranscoder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &FFmpegTranscoder{ffmpegPath: ffmpegPath}
}

// Verify interface implementation at compile time.
var _ Transcoder = (*FFmpegTranscoder)(nil)

// TranscodeToAAC converts the audio stream at src into an AAC-encoded M4A
// file at dst. Any video or cover-art stream in the input is dropped.
func (t *FFmpegTranscoder) TranscodeToAAC(ctx context.Context, src, dst string) error {
	args := []string{
		"-y",
		"-i", src,
		"-vn", // Drop embedded cover art
		"-c:a", "aac",
		"-b:a", "192k",
		dst,
	}

	// #nosec G204 - ffmpegPath is set by the application, not user input
	cmd := exec.CommandContext(ctx, t.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("ffmpeg cancelled: %w", ctx.Err())
		}
		return fmt.Errorf("ffmpeg error: %w, stderr: %s", err, stderr.String())
	}

	return nil
}
