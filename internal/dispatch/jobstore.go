package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mysticBliss/doc-intelligence/internal/payload"
	"github.com/mysticBliss/doc-intelligence/internal/service"
)

// JobStatus is the lifecycle state of a submitted job.
type JobStatus string

const (
	// JobCreated means the job is accepted but not yet running.
	JobCreated JobStatus = "created"
	// JobInProgress means the pipeline is executing.
	JobInProgress JobStatus = "in_progress"
	// JobSucceeded is terminal: the run finished with success status.
	JobSucceeded JobStatus = "success"
	// JobFailed is terminal: the run finished with failures or was cancelled.
	JobFailed JobStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobSucceeded || s == JobFailed
}

// Job tracks one submitted document run. LastStep and LastStepStatus expose
// run progress while the job is in flight.
type Job struct {
	ID             string          `json:"job_id"`
	Pipeline       string          `json:"pipeline"`
	FileName       string          `json:"file_name"`
	Status         JobStatus       `json:"status"`
	ErrorMessage   string          `json:"error_message,omitempty"`
	LastStep       string          `json:"last_step,omitempty"`
	LastStepStatus payload.Status  `json:"last_step_status,omitempty"`
	Result         *service.Result `json:"result,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// JobStore tracks jobs in memory. Transitions out of a terminal status are
// ignored, so late writers cannot resurrect a finished job.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewJobStore creates an empty job store.
func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]*Job)}
}

// Create registers a new job in created state and returns its snapshot. A
// non-empty id becomes the job id; ids must not collide with a tracked job.
func (s *JobStore) Create(id, pipeline, fileName string) (Job, error) {
	if id == "" {
		id = uuid.NewString()
	}

	now := time.Now()
	job := &Job{
		ID:        id,
		Pipeline:  pipeline,
		FileName:  fileName,
		Status:    JobCreated,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[id]; exists {
		return Job{}, fmt.Errorf("job id %q is already tracked", id)
	}
	s.jobs[id] = job
	return *job, nil
}

// Get returns a snapshot of the job.
func (s *JobStore) Get(id string) (Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// Transition moves the job to status, recording the error message and final
// result when given. It reports whether the job actually changed state;
// transitions from a terminal status never apply.
func (s *JobStore) Transition(id string, status JobStatus, errorMessage string, result *service.Result) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok || job.Status.Terminal() || job.Status == status {
		return false
	}

	job.Status = status
	job.ErrorMessage = errorMessage
	job.Result = result
	job.UpdatedAt = time.Now()
	return true
}

// NotifyStep records the most recent processor invocation on the job, so a
// status query exposes how far the run has progressed. It implements
// processor.StatusNotifier.
func (s *JobStore) NotifyStep(_ context.Context, jobID string, res payload.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok || job.Status.Terminal() {
		return
	}
	job.LastStep = res.ProcessorName
	job.LastStepStatus = res.Status
	job.UpdatedAt = time.Now()
}
