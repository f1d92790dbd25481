// Package aggregate folds the flat result list of a pipeline run into a
// page-centric document view. The fold is pure: the same results always
// produce the same document.
package aggregate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mysticBliss/doc-intelligence/internal/payload"
)

// Page groups the results recorded against one page of the document.
type Page struct {
	PageNumber int            `json:"page_number"`
	Results    map[string]any `json:"results"`
}

// Document is the aggregated outcome of one pipeline run. Results carries
// the document-level outputs; page-scoped outputs land on Pages, sorted by
// page number. Errors collects the reasons of failed branches for run-level
// reporting without affecting the fold.
type Document struct {
	Status  payload.Status `json:"status"`
	Results map[string]any `json:"results"`
	Pages   []Page         `json:"pages,omitempty"`
	Errors  []string       `json:"errors,omitempty"`
}

// Fold aggregates the run results. Each successful result is keyed by its
// processor name with a trailing "_processor" stripped and "_result"
// appended, so ocr_processor lands under ocr_result. Failed and skipped
// results stay out of the fold: a failed branch only contributes its reason
// to Errors. Only an orchestrator failure marks the document itself failed.
// When a processor ran more than once against the same page the later
// result wins.
func Fold(results []payload.Result) Document {
	doc := Document{
		Status:  payload.StatusSuccess,
		Results: make(map[string]any),
	}
	pages := make(map[int]*Page)

	for _, res := range results {
		if res.ProcessorName == payload.OrchestratorName && res.Status == payload.StatusFailure {
			doc.Status = payload.StatusFailure
			doc.Errors = append(doc.Errors, res.ErrorMessage)
			continue
		}
		if res.Status == payload.StatusFailure {
			doc.Errors = append(doc.Errors, fmt.Sprintf("%s: %s", res.ProcessorName, res.ErrorMessage))
			continue
		}
		if res.Status != payload.StatusSuccess {
			continue
		}

		key := resultKey(res.ProcessorName)
		if page := res.Metadata.PageNumber; page > 0 {
			entry, ok := pages[page]
			if !ok {
				entry = &Page{PageNumber: page, Results: make(map[string]any)}
				pages[page] = entry
			}
			entry.Results[key] = resultValue(res)
			continue
		}
		doc.Results[key] = resultValue(res)
	}

	doc.Pages = make([]Page, 0, len(pages))
	for _, page := range pages {
		doc.Pages = append(doc.Pages, *page)
	}
	sort.Slice(doc.Pages, func(i, j int) bool { return doc.Pages[i].PageNumber < doc.Pages[j].PageNumber })

	return doc
}

func resultKey(processor string) string {
	name := strings.TrimSuffix(processor, "_processor")
	if name == "" {
		name = processor
	}
	return name + "_result"
}

// resultValue picks what a successful result contributes to the aggregate:
// its machine payload when it has one, otherwise its summary.
func resultValue(res payload.Result) any {
	if len(res.Structured) > 0 {
		return res.Structured
	}
	return res.Output
}
