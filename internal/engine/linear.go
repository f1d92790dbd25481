package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/mysticBliss/doc-intelligence/internal/config"
	"github.com/mysticBliss/doc-intelligence/internal/logger"
	"github.com/mysticBliss/doc-intelligence/internal/payload"
)

// rootBranch keys the trunk payload before any fan-out happens.
const rootBranch = "document"

// runLinear executes the steps in order over a set of active branches. The
// branches of one step run concurrently under a semaphore scoped to the run.
// A fan-out result replaces the branch set with one branch per child payload;
// only the first fan-out at a given step wins, decided in branch key order.
// A failed branch stops receiving steps while the others continue. When no
// branches remain, the remaining steps are recorded as skipped.
func (e *Engine) runLinear(ctx context.Context, pipe *config.Pipeline, root payload.Payload, log *logger.Logger) ([]payload.Result, error) {
	concurrency := pipe.MaxConcurrency
	if concurrency <= 0 {
		concurrency = config.DefaultConcurrency
	}
	sem := semaphore.NewWeighted(int64(concurrency))

	active := map[string]payload.Payload{rootBranch: root}
	var results []payload.Result

	for i, step := range pipe.Steps {
		if len(active) == 0 {
			for _, remaining := range pipe.Steps[i:] {
				results = append(results, payload.Skipped(remaining.Name, "no active payloads remain"))
			}
			break
		}

		proc, err := e.builder.Create(step.Name, step.Params)
		if err != nil {
			return nil, err
		}
		inst := e.instrument(proc, log)

		keys := sortedKeys(active)
		outcomes := make(map[string]payload.Result, len(keys))
		var (
			wg sync.WaitGroup
			mu sync.Mutex
		)
		for _, key := range keys {
			wg.Add(1)
			go func(key string, pl payload.Payload) {
				defer wg.Done()

				var res payload.Result
				if err := sem.Acquire(ctx, 1); err != nil {
					res = payload.Failure(step.Name, "cancelled")
				} else {
					res = inst.Run(ctx, pl)
					sem.Release(1)
				}

				mu.Lock()
				outcomes[key] = res
				mu.Unlock()
			}(key, active[key])
		}
		wg.Wait()

		next := make(map[string]payload.Payload, len(keys))
		fannedOut := false

		for _, key := range keys {
			pl := active[key]
			res := outcomes[key]
			results = append(results, res)

			if res.Status == payload.StatusFailure {
				continue
			}

			if children, ok := res.FanOut(); ok {
				if fannedOut {
					log.WithFields(map[string]any{"step": step.Name, "branch": key}).
						Warn("ignoring additional fan-out; an earlier branch already fanned out at this step")
					next[key] = pl.Successor(pl.FileContent, res)
					continue
				}
				fannedOut = true
				for idx, child := range children {
					next[branchKey(child, idx)] = child
				}
				continue
			}

			if data, ok := res.ImageData(); ok {
				next[key] = pl.Successor(data, res)
				continue
			}

			next[key] = pl.Successor(pl.FileContent, res)
		}

		active = next
	}

	return results, nil
}

// branchKey names the branch a fan-out child continues on. Children without
// a page number fall back to their position so siblings stay distinct.
func branchKey(pl payload.Payload, idx int) string {
	if pl.HasPage() {
		return fmt.Sprintf("page_%d", pl.PageNumber)
	}
	return fmt.Sprintf("%s_%d", pl.DocumentID, idx)
}

func sortedKeys(m map[string]payload.Payload) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
