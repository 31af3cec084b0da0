package api

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gilchrisn/sat-graph-features/pkg/cnf"
	"github.com/gilchrisn/sat-graph-features/pkg/features"
)

// ErrJobNotFound is returned for unknown or expired job ids
var ErrJobNotFound = errors.New("job not found")

// JobStatus is the lifecycle state of a feature job
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Job is a snapshot of one asynchronous ComputeAll run
type Job struct {
	ID          string            `json:"id"`
	Instance    string            `json:"instance"`
	Status      JobStatus         `json:"status"`
	Summary     *features.Summary `json:"summary,omitempty"`
	Error       string            `json:"error,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
	StartedAt   *time.Time        `json:"startedAt,omitempty"`
	CompletedAt *time.Time        `json:"completedAt,omitempty"`
}

func (j *Job) done() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed || j.Status == JobStatusCancelled
}

// JobService runs feature computations in the background
type JobService struct {
	service         *features.Service
	logger          zerolog.Logger
	jobs            map[string]*Job
	cancels         map[string]context.CancelFunc
	workers         chan struct{}
	mutex           sync.RWMutex
	jobTTL          time.Duration
	cleanupInterval time.Duration
	stop            chan struct{}
	wg              sync.WaitGroup
}

// NewJobService creates a job service running at most maxJobs computations
// at a time and forgetting finished jobs after jobTTL
func NewJobService(service *features.Service, logger zerolog.Logger, maxJobs int, jobTTL time.Duration) *JobService {
	if maxJobs < 1 {
		maxJobs = 1
	}

	s := &JobService{
		service:         service,
		logger:          logger.With().Str("component", "jobs").Logger(),
		jobs:            make(map[string]*Job),
		cancels:         make(map[string]context.CancelFunc),
		workers:         make(chan struct{}, maxJobs),
		jobTTL:          jobTTL,
		cleanupInterval: max(jobTTL/12, time.Second),
		stop:            make(chan struct{}),
	}

	go s.cleanupLoop()

	return s
}

// Submit queues a computation of every feature of f
func (s *JobService) Submit(instance string, f *cnf.Formula) Job {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := time.Now()
	job := &Job{
		ID:        uuid.New().String(),
		Instance:  instance,
		Status:    JobStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.jobs[job.ID] = job
	s.cancels[job.ID] = cancel

	s.logger.Info().
		Str("job_id", job.ID).
		Str("instance", instance).
		Msg("Job submitted")

	s.wg.Add(1)
	go s.processJob(ctx, job.ID, f)

	return *job
}

// Get returns a snapshot of a job
func (s *JobService) Get(jobID string) (Job, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return Job{}, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	return *job, nil
}

// Cancel stops a queued or running job. Finished jobs are left as they are.
func (s *JobService) Cancel(jobID string) (Job, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return Job{}, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}

	if !job.done() {
		s.cancels[jobID]()
		s.finish(job, JobStatusCancelled)

		s.logger.Info().
			Str("job_id", jobID).
			Msg("Job cancelled")
	}

	return *job, nil
}

// Close cancels outstanding jobs and waits for their goroutines
func (s *JobService) Close() {
	close(s.stop)

	s.mutex.Lock()
	for _, cancel := range s.cancels {
		cancel()
	}
	s.mutex.Unlock()

	s.wg.Wait()
}

func (s *JobService) processJob(ctx context.Context, jobID string, f *cnf.Formula) {
	defer s.wg.Done()

	select {
	case s.workers <- struct{}{}:
	case <-ctx.Done():
		return
	}
	defer func() { <-s.workers }()

	s.mutex.Lock()
	job, exists := s.jobs[jobID]
	if !exists || job.done() {
		s.mutex.Unlock()
		return
	}
	startTime := time.Now()
	job.Status = JobStatusRunning
	job.StartedAt = &startTime
	job.UpdatedAt = startTime
	instance := job.Instance
	s.mutex.Unlock()

	s.logger.Info().
		Str("job_id", jobID).
		Str("instance", instance).
		Msg("Job processing started")

	summary, err := s.service.ComputeAll(ctx, instance, f)

	s.mutex.Lock()
	defer s.mutex.Unlock()

	// cancelled while running, or expired
	if job.done() || s.jobs[jobID] == nil {
		return
	}

	if err != nil {
		job.Error = err.Error()
		s.finish(job, JobStatusFailed)
		s.logger.Error().
			Str("job_id", jobID).
			Err(err).
			Msg("Job failed")
		return
	}

	job.Summary = summary
	s.finish(job, JobStatusCompleted)
	s.logger.Info().
		Str("job_id", jobID).
		Float64("total_time", summary.TotalTime).
		Msg("Job completed successfully")
}

// finish moves job to a final status. The caller holds the lock.
func (s *JobService) finish(job *Job, status JobStatus) {
	now := time.Now()
	job.Status = status
	job.CompletedAt = &now
	job.UpdatedAt = now
}

func (s *JobService) cleanupLoop() {
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup(time.Now())
		case <-s.stop:
			return
		}
	}
}

// cleanup forgets finished jobs last updated before now minus the TTL
func (s *JobService) cleanup(now time.Time) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	cutoff := now.Add(-s.jobTTL)
	cleaned := 0

	for jobID, job := range s.jobs {
		if job.done() && job.UpdatedAt.Before(cutoff) {
			s.cancels[jobID]()
			delete(s.jobs, jobID)
			delete(s.cancels, jobID)
			cleaned++
		}
	}

	if cleaned > 0 {
		s.logger.Info().
			Int("cleaned_jobs", cleaned).
			Msg("Job cleanup completed")
	}
	return cleaned
}
