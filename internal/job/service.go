package job

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/recitalvideo/recital-api/internal/media"
	"github.com/recitalvideo/recital-api/internal/storage"
	"github.com/recitalvideo/recital-api/internal/synth"
)

// Synthesizer is the port for the encode stage. It is satisfied by
// *synth.Synthesizer.
type Synthesizer interface {
	Synthesize(ctx context.Context, src media.AudioSource, frame media.ScaledFrame) (*synth.Artifact, error)
}

// SynthesisInput contains the input parameters for a synthesis job.
// Both paths must already be persisted, readable files; the HTTP boundary
// is responsible for writing uploads to disk before calling the service.
type SynthesisInput struct {
	// AudioPath is the path to the persisted audio upload.
	AudioPath string
	// ImagePath is the path to the persisted image upload.
	ImagePath string
	// PushToS3 indicates whether to upload the final video to S3.
	PushToS3 bool
}

// SynthesisService orchestrates the synthesis workflow: probe the inputs,
// derive the frame geometry, run the encoder, and record the outcome on the
// job aggregate. Exactly one of {output, error} is recorded per job.
type SynthesisService struct {
	repo        Repository
	prober      media.Prober
	synthesizer Synthesizer
	store       storage.Storage
	logger      *slog.Logger

	targetHeight int
	synthTimeout time.Duration
}

// ServiceOption configures a SynthesisService.
type ServiceOption func(*SynthesisService)

// WithTargetHeight sets the output frame height. Defaults to 1080.
func WithTargetHeight(h int) ServiceOption {
	return func(s *SynthesisService) {
		if h > 0 {
			s.targetHeight = h
		}
	}
}

// WithSynthTimeout bounds the wall-clock time of a single encode attempt.
// Zero disables the bound. Expiry surfaces as an encode failure; the encode
// itself is never interrupted by the caller going away.
func WithSynthTimeout(d time.Duration) ServiceOption {
	return func(s *SynthesisService) {
		if d >= 0 {
			s.synthTimeout = d
		}
	}
}

// NewSynthesisService creates a new SynthesisService.
func NewSynthesisService(
	repo Repository,
	prober media.Prober,
	synthesizer Synthesizer,
	store storage.Storage,
	logger *slog.Logger,
	opts ...ServiceOption,
) *SynthesisService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &SynthesisService{
		repo:         repo,
		prober:       prober,
		synthesizer:  synthesizer,
		store:        store,
		logger:       logger,
		targetHeight: media.DefaultTargetHeight,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateJob creates a new job and persists it in PENDING status.
func (s *SynthesisService) CreateJob(ctx context.Context, input SynthesisInput) (*Job, error) {
	j := New()
	j.PushToS3 = input.PushToS3
	j.SetInputs(input.AudioPath, input.ImagePath)

	s.logger.Info("creating synthesis job",
		slog.String("job_id", j.ID),
		slog.String("audio", input.AudioPath),
		slog.String("image", input.ImagePath),
		slog.Bool("push_to_s3", input.PushToS3),
	)

	if err := s.repo.Save(ctx, j); err != nil {
		s.logger.Error("failed to save job",
			slog.String("job_id", j.ID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	return j, nil
}

// GetJob retrieves a job by ID.
func (s *SynthesisService) GetJob(ctx context.Context, id string) (*Job, error) {
	return s.repo.FindByID(ctx, id)
}

// Process runs the complete workflow for an already-created job:
//
//  1. LOADING: probe audio duration and image geometry, derive the scaled frame.
//  2. COMPOSING: bind frame and audio into a single timeline description.
//  3. ENCODING: run the encoder, producing a uniquely named MP4.
//  4. COMPLETED or FAILED; input temp files are removed either way.
//
// No retries: a single attempt per job. The caller decides how to surface
// failures and whether to let the user try again.
func (s *SynthesisService) Process(ctx context.Context, jobID string) error {
	j, err := s.repo.FindByID(ctx, jobID)
	if err != nil {
		return err
	}

	// Input files are owned by this job; release them whatever the outcome.
	defer func() {
		paths := []string{j.InputAudioPath, j.InputImagePath}
		if err := s.store.CleanupTemp(ctx, paths); err != nil {
			s.logger.Warn("failed to clean up input files",
				slog.String("job_id", j.ID),
				slog.String("error", err.Error()),
			)
		}
	}()

	if err := j.StartLoading(); err != nil {
		return err
	}
	if err := s.repo.Save(ctx, j); err != nil {
		return err
	}

	src, err := s.prober.ProbeAudio(ctx, j.InputAudioPath)
	if err != nil {
		return s.fail(ctx, j, fmt.Errorf("load audio: %w", err))
	}

	img, err := s.prober.ProbeImage(ctx, j.InputImagePath)
	if err != nil {
		return s.fail(ctx, j, fmt.Errorf("load image: %w", err))
	}

	frame, err := media.ScaleToHeight(img, s.targetHeight)
	if err != nil {
		return s.fail(ctx, j, fmt.Errorf("scale image: %w", err))
	}

	if err := j.StartComposing(); err != nil {
		return err
	}
	if err := s.repo.Save(ctx, j); err != nil {
		return err
	}

	s.logger.Info("timeline composed",
		slog.String("job_id", j.ID),
		slog.Float64("duration", src.Duration),
		slog.Int("width", frame.Width),
		slog.Int("height", frame.Height),
	)

	if err := j.StartEncoding(); err != nil {
		return err
	}
	if err := s.repo.Save(ctx, j); err != nil {
		return err
	}

	encodeCtx := ctx
	if s.synthTimeout > 0 {
		var cancel context.CancelFunc
		encodeCtx, cancel = context.WithTimeout(ctx, s.synthTimeout)
		defer cancel()
	}

	artifact, err := s.synthesizer.Synthesize(encodeCtx, src, frame)
	if err != nil {
		return s.fail(ctx, j, err)
	}

	videoURL := ""
	if j.PushToS3 {
		videoURL, err = s.uploadArtifact(ctx, j.ID, artifact.Path)
		if err != nil {
			// The failed job never exposes the artifact path, so the file
			// would be orphaned on disk if left behind.
			if cleanupErr := s.store.CleanupTemp(ctx, []string{artifact.Path}); cleanupErr != nil {
				s.logger.Warn("failed to clean up artifact",
					slog.String("job_id", j.ID),
					slog.String("path", artifact.Path),
					slog.String("error", cleanupErr.Error()),
				)
			}
			return s.fail(ctx, j, fmt.Errorf("upload artifact: %w", err))
		}
	}

	j.SetOutput(artifact.Path, videoURL, artifact.Width, artifact.Height, artifact.Duration)
	if err := j.Complete(); err != nil {
		return err
	}
	if err := s.repo.Save(ctx, j); err != nil {
		return err
	}

	s.logger.Info("synthesis completed",
		slog.String("job_id", j.ID),
		slog.String("output", artifact.Path),
		slog.Float64("duration", artifact.Duration),
	)

	return nil
}

// fail records the error on the job and persists the FAILED state. The
// original error is returned so callers can log it.
func (s *SynthesisService) fail(ctx context.Context, j *Job, cause error) error {
	s.logger.Error("synthesis failed",
		slog.String("job_id", j.ID),
		slog.String("status", string(j.GetStatus())),
		slog.String("error", cause.Error()),
	)

	if err := j.Fail(cause.Error()); err != nil {
		return fmt.Errorf("transition to failed: %w (original: %w)", err, cause)
	}
	if err := s.repo.Save(ctx, j); err != nil {
		return fmt.Errorf("save failed job: %w (original: %w)", err, cause)
	}
	return cause
}

// uploadArtifact pushes the finished MP4 to S3 and returns its URL.
func (s *SynthesisService) uploadArtifact(ctx context.Context, jobID, path string) (string, error) {
	f, err := os.Open(path) // #nosec G304 - path is produced by the synthesizer
	if err != nil {
		return "", fmt.Errorf("open artifact: %w", err)
	}
	defer func() { _ = f.Close() }()

	key := fmt.Sprintf("videos/%s.mp4", jobID)
	return s.store.UploadToS3(ctx, key, f)
}
