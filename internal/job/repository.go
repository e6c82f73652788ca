package job

import (
	"context"
	"errors"
)

// ErrJobNotFound is returned when a synthesis job cannot be found by ID.
var ErrJobNotFound = errors.New("job not found")

// Repository persists synthesis jobs so the HTTP boundary can poll their
// state while the encode runs in the background. It is a port; the only
// current adapter is MemoryRepository.
type Repository interface {
	// Save persists a job, overwriting any existing record with the same
	// ID. Called after every state transition so polls observe progress.
	Save(ctx context.Context, job *Job) error

	// FindByID retrieves a job by its unique identifier.
	// Returns ErrJobNotFound if the job does not exist.
	FindByID(ctx context.Context, id string) (*Job, error)

	// List returns all known synthesis jobs.
	List(ctx context.Context) ([]*Job, error)

	// Delete removes a job record. The job's files on disk are untouched.
	// Returns ErrJobNotFound if the job does not exist.
	Delete(ctx context.Context, id string) error
}
