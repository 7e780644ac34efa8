package jobs

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gcbaptista/candidate-search/internal/errors"
	"github.com/gcbaptista/candidate-search/model"
)

// JobFunc is the body of a background job. It receives a copy of the job as
// it was when work started; progress goes through Manager.UpdateJobProgress.
type JobFunc func(ctx context.Context, job model.Job) error

// Manager handles background job execution and tracking
type Manager struct {
	mu       sync.RWMutex
	jobs     map[string]*model.Job
	workers  chan struct{} // Limits concurrent jobs
	stopChan chan struct{}
	stopped  bool // guarded by mu; set before stopChan is closed
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	metrics  *JobMetrics
	logger   *zap.Logger
}

// NewManager creates a new job manager with specified worker count
func NewManager(maxWorkers int, logger *zap.Logger) *Manager {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		jobs:     make(map[string]*model.Job),
		workers:  make(chan struct{}, maxWorkers),
		stopChan: make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
		metrics:  NewJobMetrics(),
		logger:   logger.Named("jobs"),
	}
}

// Start begins the job manager and starts background cleanup
func (m *Manager) Start() {
	m.logger.Info("job manager started", zap.Int("max_workers", cap(m.workers)))

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}
	m.wg.Add(1)
	go m.cleanupRoutine()
}

// Stop cancels running jobs and waits for them to return. Safe to call more than once.
func (m *Manager) Stop() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	close(m.stopChan)
	m.mu.Unlock()

	m.cancel()
	m.wg.Wait()
	m.logger.Info("job manager stopped")
}

// CreateJob creates a new job and returns its ID
func (m *Manager) CreateJob(jobType model.JobType, source string, metadata map[string]string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.insertJobLocked(jobType, source, metadata)
}

func (m *Manager) insertJobLocked(jobType model.JobType, source string, metadata map[string]string) string {
	job := &model.Job{
		ID:        uuid.New().String(),
		Type:      jobType,
		Status:    model.JobStatusPending,
		Source:    source,
		CreatedAt: time.Now(),
		Metadata:  metadata,
	}

	m.jobs[job.ID] = job
	m.metrics.RecordJobCreated(jobType)
	m.logger.Debug("created job",
		zap.String("job_id", job.ID),
		zap.String("type", string(job.Type)),
		zap.String("source", job.Source))
	return job.ID
}

// CreateJobIfIdle creates a job of jobType unless one is already pending or
// running. It returns the ID of the new job, or of the active one with
// created set to false. The check and the insert happen under one lock.
func (m *Manager) CreateJobIfIdle(jobType model.JobType, source string, metadata map[string]string) (jobID string, created bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, job := range m.jobs {
		if job.Type == jobType && !job.Status.IsTerminal() {
			return job.ID, false
		}
	}
	return m.insertJobLocked(jobType, source, metadata), true
}

// GetJob retrieves a job by ID
func (m *Manager) GetJob(jobID string) (*model.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, exists := m.jobs[jobID]
	if !exists {
		return nil, errors.NewJobNotFoundError(jobID)
	}
	return copyJob(job), nil
}

// ListJobs returns all jobs, newest first, optionally filtered by status
func (m *Manager) ListJobs(status *model.JobStatus) []*model.Job {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*model.Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		if status == nil || job.Status == *status {
			result = append(result, copyJob(job))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

// ActiveJob returns the first pending or running job of the given type, if any.
func (m *Manager) ActiveJob(jobType model.JobType) (*model.Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, job := range m.jobs {
		if job.Type == jobType && !job.Status.IsTerminal() {
			return copyJob(job), true
		}
	}
	return nil, false
}

// ExecuteJob runs a job function in a goroutine with proper tracking
func (m *Manager) ExecuteJob(jobID string, jobFunc JobFunc) error {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		m.updateJobStatus(jobID, model.JobStatusCancelled, "job manager shutting down")
		return fmt.Errorf("job manager is shutting down")
	}

	job, exists := m.jobs[jobID]
	if !exists {
		m.mu.Unlock()
		return errors.NewJobNotFoundError(jobID)
	}

	if job.Status != model.JobStatusPending {
		m.mu.Unlock()
		return fmt.Errorf("job with ID '%s' is not in pending status (current: %s)", jobID, job.Status)
	}

	oldStatus := job.Status
	job.Status = model.JobStatusRunning
	now := time.Now()
	job.StartedAt = &now
	m.metrics.RecordJobStatusChange(oldStatus, job.Status)
	snapshot := *copyJob(job)
	// Added under mu so Stop cannot be waiting on wg already.
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()

		// Acquire worker slot
		select {
		case m.workers <- struct{}{}:
		case <-m.stopChan:
			m.updateJobStatus(jobID, model.JobStatusCancelled, "job manager shutting down")
			return
		}
		defer func() { <-m.workers }()

		startTime := time.Now()
		err := jobFunc(m.ctx, snapshot)
		executionTime := time.Since(startTime)

		fields := []zap.Field{
			zap.String("job_id", jobID),
			zap.String("type", string(snapshot.Type)),
			zap.Duration("took", executionTime),
		}
		switch {
		case err != nil && m.ctx.Err() != nil:
			m.updateJobStatus(jobID, model.JobStatusCancelled, err.Error())
			m.logger.Warn("job cancelled", append(fields, zap.Error(err))...)
		case err != nil:
			m.updateJobStatus(jobID, model.JobStatusFailed, err.Error())
			m.metrics.RecordJobFailed(snapshot.Type)
			m.logger.Error("job failed", append(fields, zap.Error(err))...)
		default:
			m.updateJobStatus(jobID, model.JobStatusCompleted, "")
			m.metrics.RecordJobCompleted(snapshot.Type, executionTime)
			m.logger.Info("job completed", fields...)
		}
	}()

	return nil
}

// UpdateJobProgress updates the progress of a running job
func (m *Manager) UpdateJobProgress(jobID string, current, total int, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, exists := m.jobs[jobID]
	if !exists {
		return
	}

	if job.Progress == nil {
		job.Progress = &model.JobProgress{}
	}

	job.Progress.Current = current
	job.Progress.Total = total
	job.Progress.Message = message
}

// SetJobMetadata records a key/value on the job, e.g. the number of candidates loaded.
func (m *Manager) SetJobMetadata(jobID, key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, exists := m.jobs[jobID]
	if !exists {
		return
	}
	if job.Metadata == nil {
		job.Metadata = make(map[string]string)
	}
	job.Metadata[key] = value
}

// updateJobStatus updates the status of a job (internal method)
func (m *Manager) updateJobStatus(jobID string, status model.JobStatus, errorMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, exists := m.jobs[jobID]
	if !exists {
		return
	}

	oldStatus := job.Status
	job.Status = status
	if errorMsg != "" {
		job.Error = errorMsg
	}

	if status.IsTerminal() {
		now := time.Now()
		job.CompletedAt = &now
	}

	m.metrics.RecordJobStatusChange(oldStatus, status)
}

// cleanupRoutine runs periodic job cleanup
func (m *Manager) cleanupRoutine() {
	defer m.wg.Done()

	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.CleanupOldJobs(24 * time.Hour)
		case <-m.stopChan:
			return
		}
	}
}

// CleanupOldJobs removes finished jobs older than the specified duration
func (m *Manager) CleanupOldJobs(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	cleaned := 0

	for jobID, job := range m.jobs {
		if job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
			delete(m.jobs, jobID)
			cleaned++
		}
	}

	if cleaned > 0 {
		m.logger.Info("cleaned up old jobs", zap.Int("count", cleaned))
	}
	return cleaned
}

// GetMetrics returns current job performance metrics
func (m *Manager) GetMetrics() JobMetricsData {
	return m.metrics.GetMetrics()
}

// GetJobSuccessRate returns the overall job success rate
func (m *Manager) GetJobSuccessRate() float64 {
	return m.metrics.GetSuccessRate()
}

// GetCurrentWorkload returns the number of currently active jobs
func (m *Manager) GetCurrentWorkload() int64 {
	return m.metrics.GetCurrentWorkload()
}

func copyJob(job *model.Job) *model.Job {
	jobCopy := *job
	if job.Progress != nil {
		progressCopy := *job.Progress
		jobCopy.Progress = &progressCopy
	}
	if job.Metadata != nil {
		jobCopy.Metadata = make(map[string]string, len(job.Metadata))
		for k, v := range job.Metadata {
			jobCopy.Metadata[k] = v
		}
	}
	return &jobCopy
}
