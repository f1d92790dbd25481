// Package classify implements the classifier_processor: it asks a language
// model to place a document's text into one of a closed set of types.
package classify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/mysticBliss/doc-intelligence/internal/logger"
	"github.com/mysticBliss/doc-intelligence/internal/payload"
	"github.com/mysticBliss/doc-intelligence/internal/processor"
	"github.com/mysticBliss/doc-intelligence/internal/processor/ocr"
	"github.com/mysticBliss/doc-intelligence/internal/processor/vlm"
)

// Name is the registry name of this processor.
const Name = "classifier_processor"

// KeyDocumentType is the structured-output key carrying the chosen type.
const KeyDocumentType = "document_type"

// DefaultTimeout bounds a single classification call.
const DefaultTimeout = 60 * time.Second

var defaultDocumentTypes = []string{"invoice", "receipt", "letter", "report", "form", "other"}

// Classifier assigns one of a closed set of document types.
type Classifier struct {
	log         *logger.Logger
	client      vlm.Client
	model       string
	types       []string
	temperature float64
	maxTokens   int
	timeout     time.Duration
}

// New validates the step params and constructs the classifier. The answer
// space is closed: the model must pick one of the configured document_types.
func New(params processor.Params, log *logger.Logger, client vlm.Client) (*Classifier, error) {
	if client == nil {
		return nil, fmt.Errorf("vlm client is required")
	}

	model := strings.TrimSpace(params.String("model", ""))
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}

	types := params.StringSlice("document_types")
	if len(types) == 0 {
		if params.Has("document_types") {
			return nil, fmt.Errorf("document_types must be a non-empty list of strings")
		}
		types = defaultDocumentTypes
	}
	normalized := make([]string, 0, len(types))
	for _, typ := range types {
		typ = strings.ToLower(strings.TrimSpace(typ))
		if typ == "" {
			return nil, fmt.Errorf("document_types entries must not be blank")
		}
		normalized = append(normalized, typ)
	}

	temperature := params.Float("temperature", 0)
	if temperature < 0 || temperature > 2 {
		return nil, fmt.Errorf("temperature must be in [0, 2], got %v", temperature)
	}
	maxTokens := params.Int("max_tokens", 32)
	if maxTokens <= 0 {
		return nil, fmt.Errorf("max_tokens must be a positive integer")
	}
	timeout := params.Duration("timeout", DefaultTimeout)
	if timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive")
	}

	return &Classifier{
		log:         log,
		client:      client,
		model:       model,
		types:       normalized,
		temperature: temperature,
		maxTokens:   maxTokens,
		timeout:     timeout,
	}, nil
}

// Name implements processor.Processor.
func (c *Classifier) Name() string { return Name }

// ExecutionTimeout reports the per-call budget applied by instrumentation.
func (c *Classifier) ExecutionTimeout() time.Duration { return c.timeout }

// Execute classifies the document text accumulated on the payload.
func (c *Classifier) Execute(ctx context.Context, pl payload.Payload) (payload.Result, error) {
	text := textFrom(pl)
	if text == "" {
		return payload.Result{}, fmt.Errorf("no text available for classification; run OCR first or supply text content")
	}

	answer, err := c.client.Generate(ctx, vlm.GenerateRequest{
		Model:       c.model,
		Prompt:      c.prompt(text),
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return payload.Result{}, err
	}

	docType, ok := c.match(answer)
	if !ok {
		return payload.Result{}, fmt.Errorf("model answered %q, which is not one of the configured document types", strings.TrimSpace(answer))
	}

	c.log.WithFields(map[string]any{"document_type": docType}).Info("classifier.classified")

	return payload.Success(Name, fmt.Sprintf("classified document as %s", docType), map[string]any{
		KeyDocumentType: docType,
	}), nil
}

func (c *Classifier) prompt(text string) string {
	return fmt.Sprintf(
		"Classify the following document into exactly one of these types: %s.\n"+
			"Respond with the type only, no explanation.\n\nDocument text:\n%s",
		strings.Join(c.types, ", "), text)
}

func (c *Classifier) match(answer string) (string, bool) {
	answer = strings.ToLower(strings.TrimSpace(answer))
	answer = strings.Trim(answer, "\"'.` ")
	for _, typ := range c.types {
		if answer == typ {
			return typ, true
		}
	}
	return "", false
}

// textFrom prefers recognised text from an earlier OCR step and falls back
// to the payload content when it is plain text already.
func textFrom(pl payload.Payload) string {
	for i := len(pl.Results) - 1; i >= 0; i-- {
		res := pl.Results[i]
		if res.Status != payload.StatusSuccess {
			continue
		}
		if text, ok := res.Structured[ocr.KeyText].(string); ok && strings.TrimSpace(text) != "" {
			return text
		}
	}
	if len(pl.FileContent) > 0 && strings.HasPrefix(mimetype.Detect(pl.FileContent).String(), "text/") {
		return strings.TrimSpace(string(pl.FileContent))
	}
	return ""
}
