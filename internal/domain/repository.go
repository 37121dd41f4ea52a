package domain

import (
	"context"
)

// JobStore persists image jobs.
// Update must refuse to modify a job that is already terminal.
type JobStore interface {
	// Create stores a new job
	Create(ctx context.Context, job ImageJob) error

	// Get returns a job or ErrJobNotFound
	Get(ctx context.Context, id string) (ImageJob, error)

	// Update replaces a non-terminal job, returning ErrJobTerminal once it has finished
	Update(ctx context.Context, job ImageJob) error

	// Health checks store connectivity
	Health(ctx context.Context) error
}

// PredictionLogRepository records served location predictions
type PredictionLogRepository interface {
	// SavePredictionLog persists one location prediction
	SavePredictionLog(ctx context.Context, p LocationPrediction) error
}
