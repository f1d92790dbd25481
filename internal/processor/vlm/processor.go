package vlm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/mysticBliss/doc-intelligence/internal/logger"
	"github.com/mysticBliss/doc-intelligence/internal/payload"
	"github.com/mysticBliss/doc-intelligence/internal/processor"
)

// Name is the registry name of this processor.
const Name = "vlm_processor"

// KeyAnalysis is the structured-output key carrying the model's answer.
const KeyAnalysis = "analysis"

// DefaultTimeout bounds a single model call. Vision models on commodity
// hardware can take many minutes per page.
const DefaultTimeout = 30 * time.Minute

// Processor analyses a page image with a vision-language model.
type Processor struct {
	log         *logger.Logger
	client      Client
	model       string
	prompt      string
	temperature float64
	maxTokens   int
	timeout     time.Duration
}

// New validates the step params and constructs the processor. model and
// prompt are required; sampling settings have conservative defaults.
func New(params processor.Params, log *logger.Logger, client Client) (*Processor, error) {
	if client == nil {
		return nil, fmt.Errorf("vlm client is required")
	}

	model := strings.TrimSpace(params.String("model", ""))
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}
	prompt := strings.TrimSpace(params.String("prompt", ""))
	if prompt == "" {
		return nil, fmt.Errorf("prompt is required")
	}

	temperature := params.Float("temperature", 0.1)
	if temperature < 0 || temperature > 2 {
		return nil, fmt.Errorf("temperature must be in [0, 2], got %v", temperature)
	}
	maxTokens := params.Int("max_tokens", 2048)
	if maxTokens <= 0 {
		return nil, fmt.Errorf("max_tokens must be a positive integer")
	}
	timeout := params.Duration("timeout", DefaultTimeout)
	if timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive")
	}

	return &Processor{
		log:         log,
		client:      client,
		model:       model,
		prompt:      prompt,
		temperature: temperature,
		maxTokens:   maxTokens,
		timeout:     timeout,
	}, nil
}

// Name implements processor.Processor.
func (p *Processor) Name() string { return Name }

// ExecutionTimeout reports the per-call budget applied by instrumentation.
func (p *Processor) ExecutionTimeout() time.Duration { return p.timeout }

// Execute sends the payload image and the configured prompt to the model.
func (p *Processor) Execute(ctx context.Context, pl payload.Payload) (payload.Result, error) {
	if len(pl.FileContent) == 0 {
		return payload.Result{}, fmt.Errorf("input payload must carry image content for VLM analysis")
	}
	if kind := mimetype.Detect(pl.FileContent); !strings.HasPrefix(kind.String(), "image/") {
		return payload.Result{}, fmt.Errorf("VLM analysis expects an image, got %s", kind.String())
	}

	answer, err := p.client.Analyze(ctx, AnalyzeRequest{
		Model:       p.model,
		Prompt:      p.prompt,
		Images:      [][]byte{pl.FileContent},
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
	})
	if err != nil {
		return payload.Result{}, err
	}

	answer = strings.TrimSpace(answer)
	p.log.WithFields(map[string]any{"model": p.model, "characters": len(answer)}).Info("vlm.analyzed")

	return payload.Success(Name, fmt.Sprintf("analyzed page with %s", p.model), map[string]any{
		KeyAnalysis: answer,
	}), nil
}
