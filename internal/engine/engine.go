// Package engine executes validated pipeline descriptors over document
// payloads. Linear pipelines run step by step with fan-out semantics; DAG
// pipelines run level by level with bounded parallelism. The engine never
// aborts a run on a step failure: failures become failure results and the
// surviving branches keep going.
package engine

import (
	"context"

	"github.com/mysticBliss/doc-intelligence/internal/config"
	"github.com/mysticBliss/doc-intelligence/internal/logger"
	"github.com/mysticBliss/doc-intelligence/internal/payload"
	"github.com/mysticBliss/doc-intelligence/internal/processor"
)

// OrchestratorName tags synthetic results the engine emits about the run
// itself rather than any configured step.
const OrchestratorName = payload.OrchestratorName

// Engine runs pipelines against a processor catalog.
type Engine struct {
	builder  processor.Builder
	log      *logger.Logger
	notifier processor.StatusNotifier
}

// New creates an engine over the given processor catalog.
func New(builder processor.Builder, log *logger.Logger) *Engine {
	return &Engine{builder: builder, log: log}
}

// WithNotifier attaches a per-step status notifier and returns the engine.
func (e *Engine) WithNotifier(n processor.StatusNotifier) *Engine {
	e.notifier = n
	return e
}

// Run executes the pipeline on the root payload and returns every step
// result in deterministic order. An error is returned only for descriptor
// problems (unknown processors, invalid params, broken graphs); runtime
// failures are embedded in the results.
func (e *Engine) Run(ctx context.Context, pipe *config.Pipeline, root payload.Payload) ([]payload.Result, error) {
	log := e.log.WithFields(map[string]any{
		"pipeline": pipe.Name,
		"job_id":   root.JobID,
	})

	if pipe.ExecutionMode == config.ModeDAG {
		return e.runDAG(ctx, pipe, root, log)
	}
	return e.runLinear(ctx, pipe, root, log)
}

// instrument wraps a freshly built processor for execution.
func (e *Engine) instrument(proc processor.Processor, log *logger.Logger) *processor.Instrumented {
	inst := processor.Instrument(proc, log)
	if e.notifier != nil {
		inst = inst.WithNotifier(e.notifier)
	}
	return inst
}
