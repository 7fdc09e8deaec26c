package engine

import (
	"errors"

	"github.com/celerix-dev/celerix-extract/pkg/schema"
)

var (
	// ErrJobNotFound is returned when a requested job does not exist.
	ErrJobNotFound = errors.New("job not found")
	// ErrInvalidJob is returned when a job cannot be stored.
	ErrInvalidJob = errors.New("invalid job")
)

// JobStore is the run history consulted by the HTTP API.
type JobStore interface {
	// Put records or replaces a job.
	Put(job schema.Job) error
	// Get returns the job with the given ID.
	Get(id string) (schema.Job, error)
	// List returns every job, newest first.
	List() []schema.Job
}
