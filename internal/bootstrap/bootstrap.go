// Package bootstrap provides dependency initialization for the Recital Video API.
package bootstrap

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/recitalvideo/recital-api/internal/audio"
	"github.com/recitalvideo/recital-api/internal/config"
	"github.com/recitalvideo/recital-api/internal/job"
	"github.com/recitalvideo/recital-api/internal/media"
	"github.com/recitalvideo/recital-api/internal/storage"
	"github.com/recitalvideo/recital-api/internal/synth"
)

// Dependencies holds all initialized dependencies for the HTTP server.
type Dependencies struct {
	SynthesisService *job.SynthesisService
	Store            storage.Storage
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	store, err := initStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	prober := media.NewFFprobeProber(cfg.FFprobePath)
	transcoder := audio.NewFFmpegTranscoder(cfg.FFmpegPath)

	synthesizer := synth.NewSynthesizer(transcoder,
		synth.WithFFmpegPath(cfg.FFmpegPath),
		synth.WithTempDir(cfg.TempDir),
		synth.WithFrameRate(cfg.FrameRate),
		synth.WithLogger(logger),
	)

	repo := job.NewMemoryRepository()

	svc := job.NewSynthesisService(
		repo,
		prober,
		synthesizer,
		store,
		logger,
		job.WithTargetHeight(cfg.TargetHeight),
		job.WithSynthTimeout(time.Duration(cfg.SynthTimeoutSec)*time.Second),
	)

	return &Dependencies{
		SynthesisService: svc,
		Store:            store,
	}, nil
}

// initStorage creates the appropriate storage backend based on configuration.
func initStorage(cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	if cfg.S3Enabled() {
		s3Cfg := storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		}
		s3Store, err := storage.NewS3Storage(cfg.TempDir, s3Cfg)
		if err != nil {
			return nil, fmt.Errorf("create S3 storage: %w", err)
		}
		logger.Info("S3 storage configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
		)
		return s3Store, nil
	}

	localStore, err := storage.NewLocalStorage(cfg.TempDir)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}
	logger.Info("local storage configured",
		slog.String("temp_dir", cfg.TempDir),
	)
	return localStore, nil
}
