package processor

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/mysticBliss/doc-intelligence/internal/logger"
	"github.com/mysticBliss/doc-intelligence/internal/payload"
)

// StatusNotifier receives the final status of every instrumented invocation,
// keyed by job id. Wiring one is optional.
type StatusNotifier interface {
	NotifyStep(ctx context.Context, jobID string, res payload.Result)
}

// Instrumented wraps a processor invocation with timing, context binding,
// panic capture, timeout enforcement and status publication. It is the only
// place that converts processor errors and panics into failure results;
// nothing escapes past it.
type Instrumented struct {
	proc     Processor
	log      *logger.Logger
	notifier StatusNotifier
}

// Instrument wraps the processor for execution.
func Instrument(proc Processor, log *logger.Logger) *Instrumented {
	return &Instrumented{proc: proc, log: log}
}

// WithNotifier attaches a status notifier and returns the wrapper.
func (i *Instrumented) WithNotifier(n StatusNotifier) *Instrumented {
	i.notifier = n
	return i
}

// Name exposes the wrapped processor's name.
func (i *Instrumented) Name() string {
	return i.proc.Name()
}

// Run executes the wrapped processor on one payload and always returns a
// result; failures and panics become failure results carrying the invocation
// context in their metadata.
func (i *Instrumented) Run(ctx context.Context, pl payload.Payload) payload.Result {
	log := i.log.WithFields(map[string]any{
		"processor_name":     i.proc.Name(),
		"job_id":             pl.JobID,
		"page_number":        pl.PageNumber,
		"parent_document_id": pl.ParentDocumentID,
	})

	runCtx := ctx
	if hinter, ok := i.proc.(TimeoutHinter); ok {
		if budget := hinter.ExecutionTimeout(); budget > 0 {
			var cancel context.CancelFunc
			runCtx, cancel = context.WithTimeout(ctx, budget)
			defer cancel()
		}
	}

	start := time.Now()
	res, err := i.execute(runCtx, pl)
	elapsed := time.Since(start)

	if err == nil && runCtx.Err() != nil {
		err = runCtx.Err()
	}

	if err != nil {
		res = payload.Failure(i.proc.Name(), failureMessage(i.proc.Name(), err))
		i.stamp(&res, pl, elapsed)
		log.Error(err, "step.failed")
		i.notify(ctx, pl.JobID, res)
		return res
	}

	if res.ProcessorName == "" {
		res.ProcessorName = i.proc.Name()
	}
	if res.Status == "" {
		res.Status = payload.StatusSuccess
	}
	i.stamp(&res, pl, elapsed)

	if res.Status == payload.StatusFailure {
		log.Timed("step.failed", elapsed)
	} else {
		log.Timed("step.finished", elapsed)
	}

	i.notify(ctx, pl.JobID, res)
	return res
}

// execute isolates the recover so a panicking processor cannot take the
// worker goroutine down with it.
func (i *Instrumented) execute(ctx context.Context, pl payload.Payload) (res payload.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v\n%s", i.proc.Name(), r, debug.Stack())
		}
	}()

	return i.proc.Execute(ctx, pl)
}

func (i *Instrumented) stamp(res *payload.Result, pl payload.Payload, elapsed time.Duration) {
	res.Metadata.PageNumber = pl.PageNumber
	res.Metadata.ParentDocumentID = pl.ParentDocumentID
	res.Metadata.ExecutionTimeMS = elapsed.Milliseconds()
}

func (i *Instrumented) notify(ctx context.Context, jobID string, res payload.Result) {
	if i.notifier == nil {
		return
	}
	i.notifier.NotifyStep(ctx, jobID, res)
}

func failureMessage(name string, err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Sprintf("%s exceeded its execution budget", name)
	default:
		return err.Error()
	}
}
