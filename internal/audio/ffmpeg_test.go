package audio

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// skipIfNoFFmpeg skips the test if ffmpeg is not available.
func skipIfNoFFmpeg(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not found in PATH, skipping test")
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

func TestNewFFmpegTranscoder(t *testing.T) {
	t.Run("default path", func(t *testing.T) {
		tr := NewFFmpegTranscoder("")
		if tr.ffmpegPath != "ffmpeg" {
			t.Errorf("expected default path 'ffmpeg', got %q", tr.ffmpegPath)
		}
	})

	t.Run("custom path", func(t *testing.T) {
		tr := NewFFmpegTranscoder("/opt/ffmpeg/bin/ffmpeg")
		if tr.ffmpegPath != "/opt/ffmpeg/bin/ffmpeg" {
			t.Errorf("expected custom path, got %q", tr.ffmpegPath)
		}
	})
}

func TestTranscodeToAAC(t *testing.T) {
	skipIfNoFFmpeg(t)

	tmpDir := t.TempDir()
	tr := NewFFmpegTranscoder("")
	ctx := context.Background()

	t.Run("wav to m4a", func(t *testing.T) {
		src := filepath.Join(tmpDir, "tone.wav")
		dst := filepath.Join(tmpDir, "tone.m4a")
		createTestAudio(t, src, 1.0)

		if err := tr.TranscodeToAAC(ctx, src, dst); err != nil {
			t.Fatalf("TranscodeToAAC failed: %v", err)
		}

		info, err := os.Stat(dst)
		if err != nil {
			t.Fatalf("output file missing: %v", err)
		}
		if info.Size() == 0 {
			t.Error("output file is empty")
		}
	})

	t.Run("corrupt input", func(t *testing.T) {
		src := filepath.Join(tmpDir, "noise.mp3")
		dst := filepath.Join(tmpDir, "noise.m4a")
		if err := os.WriteFile(src, []byte("definitely not audio"), 0600); err != nil {
			t.Fatal(err)
		}

		if err := tr.TranscodeToAAC(ctx, src, dst); err == nil {
			t.Error("expected error for corrupt input, got nil")
		}
	})

	t.Run("non-existent input", func(t *testing.T) {
		err := tr.TranscodeToAAC(ctx, "/nonexistent/audio.wav", filepath.Join(tmpDir, "out.m4a"))
		if err == nil {
			t.Error("expected error for non-existent input, got nil")
		}
	})

	t.Run("context cancellation", func(t *testing.T) {
		src := filepath.Join(tmpDir, "cancel.wav")
		createTestAudio(t, src, 1.0)

		ctx, cancel := context.WithCancel(context.Background())
		cancel() // Cancel immediately

		err := tr.TranscodeToAAC(ctx, src, filepath.Join(tmpDir, "cancel.m4a"))
		if err == nil {
			t.Error("expected error for cancelled context, got nil")
		}
	})
}
