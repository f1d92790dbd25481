// Package composite implements the enhanced_pdf_processor: a self-contained
// extract/preprocess/analyze chain over a whole PDF. It builds its inner
// steps through the registry and runs the per-page analysis concurrently,
// which makes it usable as a single node in otherwise simple pipelines.
package composite

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/mysticBliss/doc-intelligence/internal/logger"
	"github.com/mysticBliss/doc-intelligence/internal/payload"
	"github.com/mysticBliss/doc-intelligence/internal/processor"
	"github.com/mysticBliss/doc-intelligence/internal/processor/imagep"
	"github.com/mysticBliss/doc-intelligence/internal/processor/ocr"
	"github.com/mysticBliss/doc-intelligence/internal/processor/pdfx"
	"github.com/mysticBliss/doc-intelligence/internal/processor/vlm"
)

// Name is the registry name of this processor.
const Name = "enhanced_pdf_processor"

// KeyPages is the structured-output key carrying the per-page analyses.
const KeyPages = "pages"

const defaultPageConcurrency = 4

// PageAnalysis is the outcome of analysing a single page.
type PageAnalysis struct {
	PageNumber int              `json:"page_number"`
	Results    []payload.Result `json:"results"`
}

// EnhancedPDF extracts pages from a PDF and runs the configured analysis
// steps on each page.
type EnhancedPDF struct {
	log         *logger.Logger
	extract     *processor.Instrumented
	preprocess  *processor.Instrumented
	analyzers   []*processor.Instrumented
	concurrency int64
}

// New builds the inner steps from the nested param blocks. extraction,
// preprocessing, ocr and vlm each take the same params their standalone
// processors take; preprocessing is optional and at least one of ocr or vlm
// must be configured.
func New(params processor.Params, log *logger.Logger, builder processor.Builder) (*EnhancedPDF, error) {
	if builder == nil {
		return nil, fmt.Errorf("processor builder is required")
	}

	concurrency := params.Int("max_concurrency", defaultPageConcurrency)
	if concurrency < 1 || concurrency > 64 {
		return nil, fmt.Errorf("max_concurrency must be in [1, 64], got %d", concurrency)
	}

	extract, err := builder.Create(pdfx.Name, params.Map("extraction"))
	if err != nil {
		return nil, err
	}

	e := &EnhancedPDF{
		log:         log,
		extract:     processor.Instrument(extract, log),
		concurrency: int64(concurrency),
	}

	if params.Has("preprocessing") {
		preprocess, err := builder.Create(imagep.Name, params.Map("preprocessing"))
		if err != nil {
			return nil, err
		}
		e.preprocess = processor.Instrument(preprocess, log)
	}

	analysisSteps := []struct {
		name string
		key  string
	}{
		{ocr.Name, "ocr"},
		{vlm.Name, "vlm"},
	}
	for _, step := range analysisSteps {
		if !params.Has(step.key) {
			continue
		}
		analyzer, err := builder.Create(step.name, params.Map(step.key))
		if err != nil {
			return nil, err
		}
		e.analyzers = append(e.analyzers, processor.Instrument(analyzer, log))
	}
	if len(e.analyzers) == 0 {
		return nil, fmt.Errorf("enhanced PDF needs at least one analysis step; configure ocr or vlm")
	}

	return e, nil
}

// Name implements processor.Processor.
func (e *EnhancedPDF) Name() string { return Name }

// Execute extracts the pages and analyses them concurrently. Page-level
// failures are embedded in that page's results rather than failing the
// whole document.
func (e *EnhancedPDF) Execute(ctx context.Context, pl payload.Payload) (payload.Result, error) {
	extracted := e.extract.Run(ctx, pl)
	if extracted.Status == payload.StatusFailure {
		return payload.Result{}, errors.New(extracted.ErrorMessage)
	}

	children, ok := extracted.FanOut()
	if !ok {
		return payload.Success(Name, "no pages to analyze", map[string]any{
			KeyPages: []PageAnalysis{},
		}), nil
	}

	sem := semaphore.NewWeighted(e.concurrency)
	pages := make([]PageAnalysis, len(children))
	var wg sync.WaitGroup
	for idx, child := range children {
		wg.Add(1)
		go func(idx int, child payload.Payload) {
			defer wg.Done()

			if err := sem.Acquire(ctx, 1); err != nil {
				pages[idx] = PageAnalysis{
					PageNumber: child.PageNumber,
					Results:    []payload.Result{payload.Failure(Name, "cancelled")},
				}
				return
			}
			defer sem.Release(1)

			pages[idx] = e.analyzePage(ctx, child)
		}(idx, child)
	}
	wg.Wait()

	sort.Slice(pages, func(i, j int) bool { return pages[i].PageNumber < pages[j].PageNumber })

	e.log.WithFields(map[string]any{"pages": len(pages)}).Info("enhanced_pdf.analyzed")

	return payload.Success(Name, fmt.Sprintf("analyzed %d pages", len(pages)), map[string]any{
		KeyPages: pages,
	}), nil
}

func (e *EnhancedPDF) analyzePage(ctx context.Context, child payload.Payload) PageAnalysis {
	results := make([]payload.Result, 0, len(e.analyzers)+1)
	current := child

	if e.preprocess != nil {
		res := e.preprocess.Run(ctx, current)
		if data, ok := res.ImageData(); ok {
			current = current.Successor(data, res)
		}
		results = append(results, dropImageData(res))
	}

	for _, analyzer := range e.analyzers {
		results = append(results, analyzer.Run(ctx, current))
	}

	return PageAnalysis{PageNumber: child.PageNumber, Results: results}
}

// dropImageData strips the raw image bytes from an embedded result so the
// aggregate does not carry every intermediate render.
func dropImageData(res payload.Result) payload.Result {
	if _, ok := res.Structured[payload.KeyImageData]; !ok {
		return res
	}
	structured := make(map[string]any, len(res.Structured)-1)
	for k, v := range res.Structured {
		if k != payload.KeyImageData {
			structured[k] = v
		}
	}
	res.Structured = structured
	return res
}
