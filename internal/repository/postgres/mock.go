package postgres

import (
	"context"
	"sync"

	"github.com/Aadya-Jha/AgriCare-sub001/internal/domain"
)

// MockRepository implements domain.JobStore in memory and discards
// prediction logs. It is used when no database is reachable.
type MockRepository struct {
	mu   sync.RWMutex
	jobs map[string]domain.ImageJob
}

// NewMockRepository creates a new in-memory repository
func NewMockRepository() *MockRepository {
	return &MockRepository{jobs: make(map[string]domain.ImageJob)}
}

// Create stores a new job
func (r *MockRepository) Create(ctx context.Context, job domain.ImageJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = copyJob(job)
	return nil
}

// Get returns a copy of a stored job
func (r *MockRepository) Get(ctx context.Context, id string) (domain.ImageJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return domain.ImageJob{}, domain.ErrJobNotFound
	}
	return copyJob(job), nil
}

// Update replaces a job unless it has already finished
func (r *MockRepository) Update(ctx context.Context, job domain.ImageJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.jobs[job.ID]
	if !ok {
		return domain.ErrJobNotFound
	}
	if cur.Status.Terminal() {
		return domain.ErrJobTerminal
	}
	r.jobs[job.ID] = copyJob(job)
	return nil
}

// Health always returns nil in mock mode
func (r *MockRepository) Health(ctx context.Context) error {
	return nil
}

// SavePredictionLog is a no-op in mock mode
func (r *MockRepository) SavePredictionLog(ctx context.Context, p domain.LocationPrediction) error {
	return nil
}

// copyJob detaches the result so callers cannot mutate stored state
func copyJob(job domain.ImageJob) domain.ImageJob {
	if job.Result != nil {
		a := *job.Result
		job.Result = &a
	}
	return job
}
