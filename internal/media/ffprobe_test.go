package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// skipIfNoFFmpeg skips the test if ffmpeg or ffprobe is not available.
func skipIfNoFFmpeg(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not found in PATH, skipping test")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not found in PATH, skipping test")
	}
}

// createTestAudio creates a WAV file of the given duration using ffmpeg.
func createTestAudio(t *testing.T, path string, duration float64) {
	t.Helper()

	cmd := exec.Command("ffmpeg",
		"-y",
		"-f", "lavfi",
		"-i", fmt.Sprintf("sine=frequency=440:duration=%.2f", duration),
		path,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("failed to create test audio: %v\noutput: %s", err, output)
	}
}

// createTestImage creates a solid color image of the given size using ffmpeg.
func createTestImage(t *testing.T, path string, width, height int) {
	t.Helper()

	cmd := exec.Command("ffmpeg",
		"-y",
		"-f", "lavfi",
		"-i", fmt.Sprintf("color=c=red:s=%dx%d:d=1", width, height),
		"-frames:v", "1",
		path,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("failed to create test image: %v\noutput: %s", err, output)
	}
}

func TestNewFFprobeProber(t *testing.T) {
	t.Run("default path", func(t *testing.T) {
		p := NewFFprobeProber("")
		if p.ffprobePath != "ffprobe" {
			t.Errorf("expected default path 'ffprobe', got %q", p.ffprobePath)
		}
	})

	t.Run("custom path", func(t *testing.T) {
		p := NewFFprobeProber("/usr/local/bin/ffprobe")
		if p.ffprobePath != "/usr/local/bin/ffprobe" {
			t.Errorf("expected custom path, got %q", p.ffprobePath)
		}
	})
}

func TestProbeAudio(t *testing.T) {
	skipIfNoFFmpeg(t)

	tmpDir := t.TempDir()
	p := NewFFprobeProber("")
	ctx := context.Background()

	t.Run("wav duration", func(t *testing.T) {
		path := filepath.Join(tmpDir, "tone.wav")
		createTestAudio(t, path, 2.0)

		src, err := p.ProbeAudio(ctx, path)
		if err != nil {
			t.Fatalf("ProbeAudio failed: %v", err)
		}
		if src.Duration < 1.9 || src.Duration > 2.1 {
			t.Errorf("expected duration ~2.0s, got %.3f", src.Duration)
		}
		if src.Path != path {
			t.Errorf("expected path %q, got %q", path, src.Path)
		}
	})

	t.Run("non-existent file", func(t *testing.T) {
		_, err := p.ProbeAudio(ctx, filepath.Join(tmpDir, "missing.mp3"))
		if err == nil {
			t.Fatal("expected error for non-existent file, got nil")
		}
		var decodeErr *DecodeError
		if !errors.As(err, &decodeErr) {
			t.Errorf("expected *DecodeError, got %T", err)
		}
	})

	t.Run("zero-byte file", func(t *testing.T) {
		path := filepath.Join(tmpDir, "empty.wav")
		if err := os.WriteFile(path, nil, 0600); err != nil {
			t.Fatal(err)
		}

		_, err := p.ProbeAudio(ctx, path)
		if err == nil {
			t.Fatal("expected error for zero-byte file, got nil")
		}
		var decodeErr *DecodeError
		if !errors.As(err, &decodeErr) {
			t.Errorf("expected *DecodeError, got %T", err)
		}
	})

	t.Run("garbage content", func(t *testing.T) {
		path := filepath.Join(tmpDir, "noise.mp3")
		if err := os.WriteFile(path, []byte("this is not audio"), 0600); err != nil {
			t.Fatal(err)
		}

		_, err := p.ProbeAudio(ctx, path)
		if err == nil {
			t.Fatal("expected error for corrupt file, got nil")
		}
	})

	t.Run("context cancellation", func(t *testing.T) {
		path := filepath.Join(tmpDir, "cancel.wav")
		createTestAudio(t, path, 1.0)

		ctx, cancel := context.WithCancel(context.Background())
		cancel() // Cancel immediately

		_, err := p.ProbeAudio(ctx, path)
		if err == nil {
			t.Error("expected error for cancelled context, got nil")
		}
	})
}

func TestProbeImage(t *testing.T) {
	skipIfNoFFmpeg(t)

	tmpDir := t.TempDir()
	p := NewFFprobeProber("")
	ctx := context.Background()

	t.Run("png dimensions", func(t *testing.T) {
		path := filepath.Join(tmpDir, "photo.png")
		createTestImage(t, path, 800, 600)

		info, err := p.ProbeImage(ctx, path)
		if err != nil {
			t.Fatalf("ProbeImage failed: %v", err)
		}
		if info.Width != 800 || info.Height != 600 {
			t.Errorf("expected 800x600, got %dx%d", info.Width, info.Height)
		}
	})

	t.Run("unsupported content", func(t *testing.T) {
		path := filepath.Join(tmpDir, "fake.png")
		if err := os.WriteFile(path, []byte("not an image at all"), 0600); err != nil {
			t.Fatal(err)
		}

		_, err := p.ProbeImage(ctx, path)
		if err == nil {
			t.Fatal("expected error for corrupt image, got nil")
		}
		var decodeErr *DecodeError
		if !errors.As(err, &decodeErr) {
			t.Errorf("expected *DecodeError, got %T", err)
		}
	})

	t.Run("non-existent file", func(t *testing.T) {
		_, err := p.ProbeImage(ctx, "/nonexistent/image.png")
		if err == nil {
			t.Error("expected error for non-existent image, got nil")
		}
	})
}
