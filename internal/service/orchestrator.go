// Package service coordinates a full document processing run: archive the
// original, execute the pipeline, aggregate the outcome.
package service

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/mysticBliss/doc-intelligence/internal/aggregate"
	"github.com/mysticBliss/doc-intelligence/internal/config"
	"github.com/mysticBliss/doc-intelligence/internal/engine"
	"github.com/mysticBliss/doc-intelligence/internal/logger"
	"github.com/mysticBliss/doc-intelligence/internal/payload"
	"github.com/mysticBliss/doc-intelligence/internal/storage"
	docerrors "github.com/mysticBliss/doc-intelligence/pkg/errors"
)

// Result is the complete outcome of one processing run.
type Result struct {
	JobID        string             `json:"job_id"`
	Status       payload.Status     `json:"status"`
	ErrorMessage string             `json:"error_message,omitempty"`
	Results      []payload.Result   `json:"results"`
	FinalOutput  aggregate.Document `json:"final_output"`
}

// Orchestrator runs pipelines over submitted documents.
type Orchestrator struct {
	engine *engine.Engine
	store  storage.Store
	log    *logger.Logger
}

// New creates an orchestrator. store may be nil when archival is disabled.
func New(eng *engine.Engine, store storage.Store, log *logger.Logger) *Orchestrator {
	return &Orchestrator{engine: eng, store: store, log: log}
}

// Process runs the pipeline over one document. The document id is the md5
// of the content, so resubmitting the same bytes yields the same id. An
// error is returned only for invalid input or descriptor problems; step
// failures are reported through the result status.
func (o *Orchestrator) Process(ctx context.Context, pipe *config.Pipeline, jobID, fileName string, content []byte) (Result, error) {
	if fileName == "" {
		return Result{}, docerrors.NewValidationError("file_name", "file_name must not be empty", nil)
	}
	if len(content) == 0 {
		return Result{}, docerrors.NewValidationError("file_content", "file_content must not be empty", nil)
	}

	sum := md5.Sum(content)
	documentID := hex.EncodeToString(sum[:])

	log := o.log.WithFields(map[string]any{
		"job_id":      jobID,
		"document_id": documentID,
		"pipeline":    pipe.Name,
	})

	o.archive(ctx, documentID, fileName, content, log)

	root := payload.Payload{
		JobID:       jobID,
		FileName:    fileName,
		FileContent: content,
		DocumentID:  documentID,
	}

	results, err := o.engine.Run(ctx, pipe, root)
	if err != nil {
		return Result{}, err
	}

	doc := aggregate.Fold(results)

	res := Result{
		JobID:       jobID,
		Status:      runStatus(results),
		Results:     results,
		FinalOutput: doc,
	}
	if res.Status == payload.StatusFailure {
		res.ErrorMessage = strings.Join(doc.Errors, "; ")
	}

	log.WithFields(map[string]any{"status": string(res.Status)}).Info("job.finished")
	return res, nil
}

// runStatus derives the run-level status: any failed step fails the run,
// even though the aggregated document only turns failed on an orchestrator
// failure.
func runStatus(results []payload.Result) payload.Status {
	for _, res := range results {
		if res.Status == payload.StatusFailure {
			return payload.StatusFailure
		}
	}
	return payload.StatusSuccess
}

// archive stores the original document. Failures are logged and the run
// proceeds on the in-memory bytes.
func (o *Orchestrator) archive(ctx context.Context, documentID, fileName string, content []byte, log *logger.Logger) {
	if o.store == nil {
		return
	}

	name := fmt.Sprintf("documents/%s_%s", documentID, fileName)
	contentType := mimetype.Detect(content).String()

	url, err := o.store.Save(ctx, name, content, contentType)
	if err != nil {
		log.Error(err, "document archival failed; proceeding without it")
		return
	}
	log.WithFields(map[string]any{"url": url}).Debug("document archived")
}
