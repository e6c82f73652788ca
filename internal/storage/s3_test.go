package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newS3TestConfig(endpoint string) S3Config {
	return S3Config{
		Bucket:          "recital-videos",
		Region:          "eu-west-1",
		Endpoint:        endpoint,
		AccessKeyID:     "test-access-key",
		SecretAccessKey: "test-secret-key",
	}
}

func TestNewS3Storage(t *testing.T) {
	tempDir := filepath.Join(os.TempDir(), "recitalvideo_s3_test_"+randomSuffix())
	defer os.RemoveAll(tempDir)

	cfg := newS3TestConfig("http://localhost:4566") // LocalStack-like endpoint

	storage, err := NewS3Storage(tempDir, cfg)
	if err != nil {
		t.Fatalf("NewS3Storage() error = %v", err)
	}

	if storage.bucket != cfg.Bucket {
		t.Errorf("bucket = %v, want %v", storage.bucket, cfg.Bucket)
	}
	if storage.region != cfg.Region {
		t.Errorf("region = %v, want %v", storage.region, cfg.Region)
	}
}

// The local pipeline stages (uploads, mux buffers, encoder output) must keep
// working unchanged when delivery goes through S3.
func TestS3Storage_InheritsLocalStorage(t *testing.T) {
	tempDir := filepath.Join(os.TempDir(), "recitalvideo_s3_test_"+randomSuffix())
	defer os.RemoveAll(tempDir)

	storage, err := NewS3Storage(tempDir, newS3TestConfig("http://localhost:4566"))
	if err != nil {
		t.Fatalf("NewS3Storage() error = %v", err)
	}

	ctx := context.Background()

	path, err := storage.SaveUpload(ctx, "audio", "recital.wav", bytes.NewReader([]byte("wav bytes")))
	if err != nil {
		t.Fatalf("SaveUpload() error = %v", err)
	}
	defer os.Remove(path)

	reader, err := storage.LoadTemp(ctx, path)
	if err != nil {
		t.Fatalf("LoadTemp() error = %v", err)
	}
	defer reader.Close()

	content, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("failed to read: %v", err)
	}
	if string(content) != "wav bytes" {
		t.Errorf("got %q, want %q", string(content), "wav bytes")
	}

	if err := storage.CleanupTemp(ctx, []string{path}); err != nil {
		t.Fatalf("CleanupTemp() error = %v", err)
	}
}

func TestS3Storage_UploadToS3_MockServer(t *testing.T) {
	// Mock S3 endpoint asserting the PutObject the delivery step issues.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("expected PUT method, got %s", r.Method)
		}

		if !strings.Contains(r.URL.Path, "/videos/job-123.mp4") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		// Delivered objects must be typed so browsers stream them directly.
		if ct := r.Header.Get("Content-Type"); ct != "video/mp4" {
			t.Errorf("Content-Type = %q, want %q", ct, "video/mp4")
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("failed to read body: %v", err)
		}
		if string(body) != "mp4 payload" {
			t.Errorf("unexpected body: %s", string(body))
		}

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	tempDir := filepath.Join(os.TempDir(), "recitalvideo_s3_mock_test_"+randomSuffix())
	defer os.RemoveAll(tempDir)

	storage, err := NewS3Storage(tempDir, newS3TestConfig(server.URL))
	if err != nil {
		t.Fatalf("NewS3Storage() error = %v", err)
	}

	ctx := context.Background()
	url, err := storage.UploadToS3(ctx, "videos/job-123.mp4", bytes.NewReader([]byte("mp4 payload")))
	if err != nil {
		t.Fatalf("UploadToS3() error = %v", err)
	}

	expectedURL := "https://recital-videos.s3.eu-west-1.amazonaws.com/videos/job-123.mp4"
	if url != expectedURL {
		t.Errorf("url = %v, want %v", url, expectedURL)
	}
}
