package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/mysticBliss/doc-intelligence/internal/config"
	"github.com/mysticBliss/doc-intelligence/internal/logger"
	"github.com/mysticBliss/doc-intelligence/internal/payload"
	"github.com/mysticBliss/doc-intelligence/internal/processor"
)

// nodeRun is what one executed node leaves behind: one result per input
// payload it ran on, and the payloads its dependents start from.
type nodeRun struct {
	results []payload.Result
	outputs []payload.Payload
}

// runDAG executes the node graph level by level. A node runs once per input
// payload gathered from its dependencies, so a fan-out upstream multiplies
// the executions downstream. Executions across a level share one semaphore
// scoped to the whole run. A node whose dependency did not fully succeed is
// recorded as skipped without executing, and the skip cascades. If the run
// ends with configured nodes unexecuted, a synthetic orchestrator failure is
// appended.
func (e *Engine) runDAG(ctx context.Context, pipe *config.Pipeline, root payload.Payload, log *logger.Logger) ([]payload.Result, error) {
	graph, err := BuildGraph(pipe.Nodes)
	if err != nil {
		return nil, err
	}

	procs := make(map[string]*processor.Instrumented, len(pipe.Nodes))
	for _, node := range pipe.Nodes {
		proc, err := e.builder.Create(node.Processor, node.Params)
		if err != nil {
			return nil, err
		}
		procs[node.ID] = e.instrument(proc, log.WithFields(map[string]any{"node_id": node.ID}))
	}

	concurrency := pipe.MaxConcurrency
	if concurrency <= 0 {
		concurrency = config.DefaultConcurrency
	}
	sem := semaphore.NewWeighted(int64(concurrency))

	runs := make(map[string]*nodeRun, len(pipe.Nodes))

	for _, level := range graph.Levels() {
		if ctx.Err() != nil {
			break
		}

		// Resolve skips and inputs for the whole level before launching
		// anything, so map reads never race the writers below.
		type scheduled struct {
			id     string
			inputs []payload.Payload
			run    *nodeRun
		}
		var toRun []scheduled
		for _, id := range level {
			node := graph.Node(id)
			inputs, blocked := dagInputs(root, node, runs)
			if blocked != "" {
				runs[id] = &nodeRun{results: []payload.Result{skippedForDependency(node, blocked)}}
				continue
			}
			run := &nodeRun{results: make([]payload.Result, len(inputs))}
			runs[id] = run
			toRun = append(toRun, scheduled{id: id, inputs: inputs, run: run})
		}

		var wg sync.WaitGroup
		for _, s := range toRun {
			for idx, in := range s.inputs {
				wg.Add(1)
				go func(run *nodeRun, inst *processor.Instrumented, idx int, in payload.Payload) {
					defer wg.Done()

					if err := sem.Acquire(ctx, 1); err != nil {
						// Left unexecuted; the orchestrator check below reports it.
						return
					}
					defer sem.Release(1)

					run.results[idx] = inst.Run(ctx, in)
				}(s.run, procs[s.id], idx, in)
			}
		}
		wg.Wait()

		// Settle each node: drop slots that never executed and derive the
		// downstream payloads in input order.
		for _, s := range toRun {
			executed := make([]payload.Result, 0, len(s.inputs))
			var outputs []payload.Payload
			for idx, res := range s.run.results {
				if res.Status == "" {
					continue
				}
				executed = append(executed, res)
				outputs = append(outputs, downstreamPayloads(s.inputs[idx], res)...)
			}
			s.run.results = executed
			s.run.outputs = outputs
		}
	}

	results := make([]payload.Result, 0, len(pipe.Nodes)+1)
	var missing []string
	for _, node := range pipe.Nodes {
		run, ok := runs[node.ID]
		if !ok || len(run.results) == 0 {
			missing = append(missing, node.ID)
			continue
		}
		results = append(results, run.results...)
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		message := fmt.Sprintf("run ended before nodes executed: %s", strings.Join(missing, ", "))
		if ctx.Err() != nil {
			message = "cancelled"
		}
		log.Warn("dag run incomplete: " + message)
		results = append(results, payload.Failure(OrchestratorName, message))
	}

	return results, nil
}

// dagInputs gathers the payloads a node runs on: the root payload for a node
// without dependencies, otherwise the concatenated outputs of every
// dependency in declaration order. It reports the first dependency that did
// not fully succeed; the node is skipped in that case.
func dagInputs(root payload.Payload, node config.Node, runs map[string]*nodeRun) ([]payload.Payload, string) {
	if len(node.Dependencies) == 0 {
		return []payload.Payload{root}, ""
	}

	var inputs []payload.Payload
	for _, dep := range node.Dependencies {
		run, ok := runs[dep]
		if !ok || len(run.results) == 0 {
			return nil, dep
		}
		for _, res := range run.results {
			if res.Status != payload.StatusSuccess {
				return nil, dep
			}
		}
		inputs = append(inputs, run.outputs...)
	}
	return inputs, ""
}

// downstreamPayloads derives what one execution hands to dependents: the
// emitted children on fan-out, a successor carrying the replacement bytes on
// image data, otherwise a successor with the same content and the result
// appended to its history. Failures contribute nothing.
func downstreamPayloads(in payload.Payload, res payload.Result) []payload.Payload {
	if res.Status != payload.StatusSuccess {
		return nil
	}
	if children, ok := res.FanOut(); ok {
		return children
	}
	if data, ok := res.ImageData(); ok {
		return []payload.Payload{in.Successor(data, res)}
	}
	return []payload.Payload{in.Successor(in.FileContent, res)}
}

// skippedForDependency builds the result recorded for a node whose
// dependency did not succeed.
func skippedForDependency(node config.Node, dep string) payload.Result {
	return payload.Skipped(node.Processor, fmt.Sprintf("skipped because dependency %q did not succeed", dep))
}
