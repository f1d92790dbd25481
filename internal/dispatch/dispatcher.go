// Package dispatch accepts document submissions, tracks job lifecycles and
// publishes every status transition. Linear pipelines run synchronously in
// the caller's context; DAG pipelines are deferred to a broker and polled
// or subscribed to by job id.
package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mysticBliss/doc-intelligence/internal/bus"
	"github.com/mysticBliss/doc-intelligence/internal/config"
	"github.com/mysticBliss/doc-intelligence/internal/logger"
	"github.com/mysticBliss/doc-intelligence/internal/payload"
	"github.com/mysticBliss/doc-intelligence/internal/service"
	docerrors "github.com/mysticBliss/doc-intelligence/pkg/errors"
)

// PipelineSource resolves pipeline descriptors by name.
type PipelineSource interface {
	Get(name string) *config.Pipeline
}

// Request is one document submission. CorrelationID, when set, doubles as
// the job id so callers can tie the run to their own tracking; a fresh id is
// minted otherwise.
type Request struct {
	Pipeline      string
	FileName      string
	Content       []byte
	CorrelationID string
}

// Submission is the outcome of accepting a document.
type Submission struct {
	JobID string
	// Async is true when the run was deferred; Result is nil in that case
	// and the job must be followed via Status or the bus.
	Async  bool
	Result *service.Result
}

// Dispatcher routes submissions to synchronous or deferred execution.
type Dispatcher struct {
	pipelines PipelineSource
	orch      *service.Orchestrator
	jobs      *JobStore
	bus       bus.Bus
	broker    Broker
	log       *logger.Logger

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

// New creates a dispatcher. statusBus may be nil when nothing subscribes.
func New(pipelines PipelineSource, orch *service.Orchestrator, jobs *JobStore, statusBus bus.Bus, broker Broker, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		pipelines: pipelines,
		orch:      orch,
		jobs:      jobs,
		bus:       statusBus,
		broker:    broker,
		log:       log,
		cancels:   make(map[string]context.CancelFunc),
	}
}

// Submit accepts a document for the named pipeline. Linear pipelines run
// before Submit returns; DAG pipelines return immediately with the job id.
func (d *Dispatcher) Submit(ctx context.Context, req Request) (Submission, error) {
	pipe := d.pipelines.Get(req.Pipeline)
	if pipe == nil {
		return Submission{}, docerrors.NewValidationError("pipeline", fmt.Sprintf("unknown pipeline %q", req.Pipeline), nil)
	}

	job, err := d.jobs.Create(req.CorrelationID, req.Pipeline, req.FileName)
	if err != nil {
		return Submission{}, docerrors.NewValidationError("correlation_id", err.Error(), nil)
	}
	d.publish(ctx, job.ID, JobCreated, "")

	if pipe.ExecutionMode == config.ModeDAG {
		d.deferRun(job.ID, pipe, req.FileName, req.Content)
		return Submission{JobID: job.ID, Async: true}, nil
	}

	res, err := d.run(ctx, job.ID, pipe, req.FileName, req.Content)
	if err != nil {
		return Submission{}, err
	}
	return Submission{JobID: job.ID, Result: res}, nil
}

// Status returns the job snapshot.
func (d *Dispatcher) Status(jobID string) (Job, bool) {
	return d.jobs.Get(jobID)
}

// Cancel stops a deferred run that has not finished. It reports whether a
// running job was actually cancelled.
func (d *Dispatcher) Cancel(jobID string) bool {
	d.mu.Lock()
	cancel, ok := d.cancels[jobID]
	d.mu.Unlock()

	if !ok {
		return false
	}
	cancel()
	return true
}

// run executes the pipeline inline and settles the job.
func (d *Dispatcher) run(ctx context.Context, jobID string, pipe *config.Pipeline, fileName string, content []byte) (*service.Result, error) {
	d.transition(ctx, jobID, JobInProgress, "", nil)

	res, err := d.orch.Process(ctx, pipe, jobID, fileName, content)
	if err != nil {
		d.transition(ctx, jobID, JobFailed, err.Error(), nil)
		return nil, err
	}

	d.settle(ctx, jobID, res)
	return &res, nil
}

// deferRun hands the run to the broker under a cancellable detached context.
// The job outlives the submission request, so the run context must not
// inherit the request's cancellation.
func (d *Dispatcher) deferRun(jobID string, pipe *config.Pipeline, fileName string, content []byte) {
	runCtx, cancel := context.WithCancel(context.Background())

	d.mu.Lock()
	d.cancels[jobID] = cancel
	d.mu.Unlock()

	d.broker.Enqueue(func() {
		defer func() {
			cancel()
			d.mu.Lock()
			delete(d.cancels, jobID)
			d.mu.Unlock()
		}()

		d.transition(runCtx, jobID, JobInProgress, "", nil)

		res, err := d.orch.Process(runCtx, pipe, jobID, fileName, content)
		switch {
		case runCtx.Err() != nil:
			d.transition(context.Background(), jobID, JobFailed, "cancelled", nil)
		case err != nil:
			d.transition(context.Background(), jobID, JobFailed, err.Error(), nil)
		default:
			d.settle(context.Background(), jobID, res)
		}
	})
}

// settle records the run outcome on the job.
func (d *Dispatcher) settle(ctx context.Context, jobID string, res service.Result) {
	if res.Status == payload.StatusFailure {
		d.transition(ctx, jobID, JobFailed, res.ErrorMessage, &res)
		return
	}
	d.transition(ctx, jobID, JobSucceeded, "", &res)
}

// transition applies a store transition and, when it took effect, publishes
// exactly one bus message for it.
func (d *Dispatcher) transition(ctx context.Context, jobID string, status JobStatus, errorMessage string, res *service.Result) {
	if !d.jobs.Transition(jobID, status, errorMessage, res) {
		return
	}
	d.publish(ctx, jobID, status, errorMessage)
}

func (d *Dispatcher) publish(ctx context.Context, jobID string, status JobStatus, errorMessage string) {
	if d.bus == nil {
		return
	}
	err := d.bus.Publish(ctx, bus.Message{
		JobID:        jobID,
		Status:       string(status),
		ErrorMessage: errorMessage,
		Timestamp:    time.Now(),
	})
	if err != nil {
		d.log.Error(err, "failed to publish job status")
	}
}
