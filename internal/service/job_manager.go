package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Aadya-Jha/AgriCare-sub001/internal/domain"
)

const (
	DefaultJobWorkers     = 2
	DefaultJobQueueSize   = 32
	DefaultJobFirstDelay  = 2 * time.Second
	DefaultJobSecondDelay = 3 * time.Second
	DefaultJobRetryDelay  = 100 * time.Millisecond

	progressConverted = 25
	progressAnalyzing = 75
	progressDone      = 100

	storeTimeout = 5 * time.Second

	// terminalAttempts bounds the writes of a completed or failed job
	terminalAttempts = 4
)

// ErrJobManagerClosed is returned by Submit after Close
var ErrJobManagerClosed = errors.New("job manager is closed")

// ImageAnalyzer analyzes an uploaded image
type ImageAnalyzer interface {
	AnalyzeImage(ctx context.Context, req ImageRequest) (domain.ImageAnalysis, error)
}

// JobConfig configures the worker pool
type JobConfig struct {
	Workers     int
	QueueSize   int
	FirstDelay  time.Duration
	SecondDelay time.Duration
	// RetryDelay is the first backoff between terminal writes, doubled per attempt
	RetryDelay time.Duration
}

type jobTask struct {
	job    domain.ImageJob
	upload domain.ImageUpload
}

// JobManager runs image analysis jobs on a bounded worker pool
type JobManager struct {
	store    JobStore
	analyzer ImageAnalyzer
	cfg      JobConfig

	queue chan jobTask
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewJobManager creates a job manager and starts its workers
func NewJobManager(store JobStore, analyzer ImageAnalyzer, cfg JobConfig) *JobManager {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultJobWorkers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultJobQueueSize
	}
	if cfg.FirstDelay < 0 {
		cfg.FirstDelay = 0
	}
	if cfg.SecondDelay < 0 {
		cfg.SecondDelay = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultJobRetryDelay
	}

	m := &JobManager{
		store:    store,
		analyzer: analyzer,
		cfg:      cfg,
		queue:    make(chan jobTask, cfg.QueueSize),
	}
	for i := 0; i < cfg.Workers; i++ {
		m.wg.Add(1)
		go m.worker()
	}
	return m
}

// EstimatedProcessingTime is the expected duration of one job in whole seconds
func (m *JobManager) EstimatedProcessingTime() int {
	d := m.cfg.FirstDelay + m.cfg.SecondDelay
	return int(math.Ceil(d.Seconds())) + 1
}

// Submit registers a new job and queues it for processing. A full queue
// leaves the job in the error state rather than rejecting the upload.
func (m *JobManager) Submit(ctx context.Context, upload domain.ImageUpload) (domain.ImageJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return domain.ImageJob{}, ErrJobManagerClosed
	}

	now := time.Now()
	job := domain.ImageJob{
		ID:        uuid.NewString(),
		Status:    domain.JobProcessing,
		Progress:  0,
		Filename:  upload.Filename,
		FieldID:   upload.FieldID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.store.Create(ctx, job); err != nil {
		return domain.ImageJob{}, fmt.Errorf("job_manager: failed to create job: %w", err)
	}

	select {
	case m.queue <- jobTask{job: job, upload: upload}:
	default:
		log.Printf("Job %s rejected: %v", job.ID, domain.ErrQueueFull)
		job = m.fail(job, domain.ErrQueueFull)
	}
	return job, nil
}

// Status returns the current state of a job
func (m *JobManager) Status(ctx context.Context, id string) (domain.ImageJob, error) {
	return m.store.Get(ctx, id)
}

// Indices returns the analysis of a completed job. Jobs that are unknown or
// not completed report ErrJobNotFound.
func (m *JobManager) Indices(ctx context.Context, id string) (domain.ImageAnalysis, error) {
	job, err := m.store.Get(ctx, id)
	if err != nil {
		return domain.ImageAnalysis{}, err
	}
	if job.Status != domain.JobCompleted || job.Result == nil {
		return domain.ImageAnalysis{}, domain.ErrJobNotFound
	}
	return *job.Result, nil
}

// Close stops accepting jobs and waits for queued jobs to finish
func (m *JobManager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	close(m.queue)
	m.mu.Unlock()

	m.wg.Wait()
}

func (m *JobManager) worker() {
	defer m.wg.Done()
	for t := range m.queue {
		m.process(t)
	}
}

func (m *JobManager) process(t jobTask) {
	job := t.job
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Job %s panicked: %v", job.ID, r)
			m.fail(job, fmt.Errorf("internal error: %v", r))
		}
	}()

	time.Sleep(m.cfg.FirstDelay)
	job = m.advance(job, progressConverted)

	time.Sleep(m.cfg.SecondDelay)
	job = m.advance(job, progressAnalyzing)

	result, err := m.analyzer.AnalyzeImage(context.Background(), ImageRequest{
		Filename: t.upload.Filename,
		Data:     t.upload.Data,
	})
	if err != nil {
		log.Printf("Job %s failed: %v", job.ID, err)
		m.fail(job, err)
		return
	}

	job.Status = domain.JobCompleted
	job.Progress = progressDone
	job.Result = &result
	job.Error = ""
	if err := m.saveTerminal(job); err != nil {
		log.Printf("Failed to record result of job %s: %v", job.ID, err)
		m.fail(job, fmt.Errorf("failed to record result: %w", err))
	}
}

func (m *JobManager) advance(job domain.ImageJob, progress int) domain.ImageJob {
	job.Progress = progress
	m.save(job)
	return job
}

func (m *JobManager) fail(job domain.ImageJob, cause error) domain.ImageJob {
	job.Status = domain.JobError
	job.Progress = 0
	job.Result = nil
	job.Error = cause.Error()
	if err := m.saveTerminal(job); err != nil {
		log.Printf("Failed to record error state of job %s: %v", job.ID, err)
	}
	return job
}

// save records a progress update; a lost update is superseded by the next one
func (m *JobManager) save(job domain.ImageJob) {
	if err := m.update(job); err != nil {
		log.Printf("Failed to update job %s: %v", job.ID, err)
	}
}

// saveTerminal records a completed or failed job, retrying with exponential
// backoff. A job that is already terminal is left alone.
func (m *JobManager) saveTerminal(job domain.ImageJob) error {
	delay := m.cfg.RetryDelay
	var err error
	for attempt := 1; attempt <= terminalAttempts; attempt++ {
		err = m.update(job)
		if err == nil || errors.Is(err, domain.ErrJobTerminal) {
			return nil
		}
		if attempt == terminalAttempts {
			break
		}
		log.Printf("Failed to update job %s (attempt %d/%d): %v", job.ID, attempt, terminalAttempts, err)
		time.Sleep(delay)
		delay *= 2
	}
	return err
}

func (m *JobManager) update(job domain.ImageJob) error {
	job.UpdatedAt = time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	return m.store.Update(ctx, job)
}
