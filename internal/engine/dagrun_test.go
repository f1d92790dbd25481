package engine

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mysticBliss/doc-intelligence/internal/config"
	"github.com/mysticBliss/doc-intelligence/internal/logger"
	"github.com/mysticBliss/doc-intelligence/internal/payload"
)

func dagPipeline(concurrency int, nodes ...config.Node) *config.Pipeline {
	return &config.Pipeline{
		Name:           "test",
		ExecutionMode:  config.ModeDAG,
		MaxConcurrency: concurrency,
		Nodes:          nodes,
	}
}

func TestDAGRunsDiamondInOrder(t *testing.T) {
	builder := fakeBuilder{}
	builder.succeeding("extract")
	builder.succeeding("ocr")
	builder.succeeding("vlm")

	var merge recorder
	builder.static("merge", func(ctx context.Context, pl payload.Payload) (payload.Result, error) {
		merge.record(pl)
		return payload.Success("merge", "ok", nil), nil
	})

	pipe := dagPipeline(4,
		config.Node{ID: "a_extract", Processor: "extract"},
		config.Node{ID: "b_ocr", Processor: "ocr", Dependencies: []string{"a_extract"}},
		config.Node{ID: "c_vlm", Processor: "vlm", Dependencies: []string{"a_extract"}},
		config.Node{ID: "d_merge", Processor: "merge", Dependencies: []string{"b_ocr", "c_vlm"}},
	)

	eng := New(builder, logger.Discard())
	results, err := eng.Run(context.Background(), pipe, rootPayload())
	require.NoError(t, err)

	// Results follow the configured node order regardless of scheduling.
	// The join node runs once per dependency payload.
	require.Len(t, results, 5)
	require.Equal(t, "extract", results[0].ProcessorName)
	require.Equal(t, "ocr", results[1].ProcessorName)
	require.Equal(t, "vlm", results[2].ProcessorName)
	require.Equal(t, "merge", results[3].ProcessorName)
	require.Equal(t, "merge", results[4].ProcessorName)
	for _, res := range results {
		require.Equal(t, payload.StatusSuccess, res.Status)
	}

	// The join node sees each dependency branch as its own payload, carrying
	// that branch's result history.
	seen := merge.payloads()
	require.Len(t, seen, 2)
	sort.Slice(seen, func(i, j int) bool {
		return seen[i].Results[0].ProcessorName < seen[j].Results[0].ProcessorName
	})
	require.Len(t, seen[0].Results, 1)
	require.Equal(t, "ocr", seen[0].Results[0].ProcessorName)
	require.Len(t, seen[1].Results, 1)
	require.Equal(t, "vlm", seen[1].Results[0].ProcessorName)
}

func TestDAGFanOutRunsDependentsPerPage(t *testing.T) {
	builder := fakeBuilder{}
	builder.static("extract", func(ctx context.Context, pl payload.Payload) (payload.Result, error) {
		return fanOutResult("extract", pl, 1, 2), nil
	})

	var ocr recorder
	builder.static("ocr", func(ctx context.Context, pl payload.Payload) (payload.Result, error) {
		ocr.record(pl)
		return payload.Success("ocr", "ok", nil), nil
	})

	pipe := dagPipeline(4,
		config.Node{ID: "extract", Processor: "extract"},
		config.Node{ID: "read", Processor: "ocr", Dependencies: []string{"extract"}},
	)

	eng := New(builder, logger.Discard())
	results, err := eng.Run(context.Background(), pipe, rootPayload())
	require.NoError(t, err)

	// One extract result plus one ocr result per emitted page.
	require.Len(t, results, 3)

	seen := ocr.payloads()
	require.Len(t, seen, 2)
	sort.Slice(seen, func(i, j int) bool { return seen[i].PageNumber < seen[j].PageNumber })
	for i, pl := range seen {
		require.Equal(t, i+1, pl.PageNumber)
		require.Equal(t, "d41d8cd9", pl.ParentDocumentID)
		require.Equal(t, []byte(fmt.Sprintf("img-%d", i+1)), pl.FileContent)
	}
}

func TestDAGFailureCascadesAsSkips(t *testing.T) {
	builder := fakeBuilder{}
	builder.static("boom", func(ctx context.Context, pl payload.Payload) (payload.Result, error) {
		return payload.Result{}, fmt.Errorf("cannot preprocess")
	})
	builder.succeeding("ocr")
	builder.succeeding("classify")
	builder.succeeding("sentiment")

	pipe := dagPipeline(4,
		config.Node{ID: "preprocess", Processor: "boom"},
		config.Node{ID: "recognize", Processor: "ocr", Dependencies: []string{"preprocess"}},
		config.Node{ID: "classify", Processor: "classify", Dependencies: []string{"recognize"}},
		config.Node{ID: "independent", Processor: "sentiment"},
	)

	eng := New(builder, logger.Discard())
	results, err := eng.Run(context.Background(), pipe, rootPayload())
	require.NoError(t, err)
	require.Len(t, results, 4)

	require.Equal(t, payload.StatusFailure, results[0].Status)
	require.Equal(t, payload.StatusSkipped, results[1].Status)
	require.Contains(t, results[1].ErrorMessage, `dependency "preprocess"`)
	require.Equal(t, payload.StatusSkipped, results[2].Status)
	// Unrelated branches are not affected.
	require.Equal(t, payload.StatusSuccess, results[3].Status)
}

func TestDAGImageDataPropagatesToDependents(t *testing.T) {
	builder := fakeBuilder{}
	builder.static("preprocess", func(ctx context.Context, pl payload.Payload) (payload.Result, error) {
		return payload.Success("preprocess", "ok", map[string]any{
			payload.KeyImageData: []byte("cleaned"),
		}), nil
	})

	var ocr recorder
	builder.static("ocr", func(ctx context.Context, pl payload.Payload) (payload.Result, error) {
		ocr.record(pl)
		return payload.Success("ocr", "ok", nil), nil
	})

	pipe := dagPipeline(2,
		config.Node{ID: "clean", Processor: "preprocess"},
		config.Node{ID: "read", Processor: "ocr", Dependencies: []string{"clean"}},
	)

	eng := New(builder, logger.Discard())
	_, err := eng.Run(context.Background(), pipe, rootPayload())
	require.NoError(t, err)

	seen := ocr.payloads()
	require.Len(t, seen, 1)
	require.Equal(t, []byte("cleaned"), seen[0].FileContent)
}

func TestDAGBoundsConcurrencyAcrossLevel(t *testing.T) {
	const limit = 2

	var running, peak int64
	builder := fakeBuilder{}
	builder.static("slow", func(ctx context.Context, pl payload.Payload) (payload.Result, error) {
		now := atomic.AddInt64(&running, 1)
		for {
			old := atomic.LoadInt64(&peak)
			if now <= old || atomic.CompareAndSwapInt64(&peak, old, now) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt64(&running, -1)
		return payload.Success("slow", "ok", nil), nil
	})

	nodes := make([]config.Node, 0, 6)
	for i := 0; i < 6; i++ {
		nodes = append(nodes, config.Node{ID: fmt.Sprintf("n%d", i), Processor: "slow"})
	}

	eng := New(builder, logger.Discard())
	results, err := eng.Run(context.Background(), dagPipeline(limit, nodes...), rootPayload())
	require.NoError(t, err)
	require.Len(t, results, 6)
	require.LessOrEqual(t, atomic.LoadInt64(&peak), int64(limit))
}

func TestDAGCancelledRunReportsOrchestratorFailure(t *testing.T) {
	builder := fakeBuilder{}
	builder.succeeding("anything")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pipe := dagPipeline(2, config.Node{ID: "only", Processor: "anything"})

	eng := New(builder, logger.Discard())
	results, err := eng.Run(ctx, pipe, rootPayload())
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, OrchestratorName, results[0].ProcessorName)
	require.Equal(t, payload.StatusFailure, results[0].Status)
	require.Equal(t, "cancelled", results[0].ErrorMessage)
}

func TestDAGUnknownProcessorFailsFast(t *testing.T) {
	pipe := dagPipeline(2, config.Node{ID: "only", Processor: "ghost"})

	eng := New(fakeBuilder{}, logger.Discard())
	_, err := eng.Run(context.Background(), pipe, rootPayload())
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown processor")
}

func TestDAGDefaultsConcurrency(t *testing.T) {
	builder := fakeBuilder{}
	builder.succeeding("anything")

	pipe := dagPipeline(0, config.Node{ID: "only", Processor: "anything"})

	eng := New(builder, logger.Discard())
	results, err := eng.Run(context.Background(), pipe, rootPayload())
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, payload.StatusSuccess, results[0].Status)
}
