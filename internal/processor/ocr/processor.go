package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/mysticBliss/doc-intelligence/internal/logger"
	"github.com/mysticBliss/doc-intelligence/internal/payload"
	"github.com/mysticBliss/doc-intelligence/internal/processor"
)

// Name is the registry name of this processor.
const Name = "ocr_processor"

// KeyText is the structured-output key carrying the recognised text.
const KeyText = "text"

// Processor recognises text on a page image through an Engine.
type Processor struct {
	log      *logger.Logger
	engine   Engine
	language string
	dpi      int
	psm      int
	oem      int
}

// New validates the step params and constructs the processor. psm follows
// tesseract's page segmentation modes (0-13) and oem its engine modes (0-3).
func New(params processor.Params, log *logger.Logger, engine Engine) (*Processor, error) {
	if engine == nil {
		return nil, fmt.Errorf("ocr engine is required")
	}

	dpi := params.Int("dpi", 300)
	if dpi <= 0 {
		return nil, fmt.Errorf("dpi must be a positive integer")
	}
	psm := params.Int("psm", 3)
	if psm < 0 || psm > 13 {
		return nil, fmt.Errorf("psm must be in [0, 13], got %d", psm)
	}
	oem := params.Int("oem", 3)
	if oem < 0 || oem > 3 {
		return nil, fmt.Errorf("oem must be in [0, 3], got %d", oem)
	}

	return &Processor{
		log:      log,
		engine:   engine,
		language: params.String("language", "eng"),
		dpi:      dpi,
		psm:      psm,
		oem:      oem,
	}, nil
}

// Name implements processor.Processor.
func (p *Processor) Name() string { return Name }

// Execute sends the payload image to the OCR engine and emits the text.
func (p *Processor) Execute(ctx context.Context, pl payload.Payload) (payload.Result, error) {
	if len(pl.FileContent) == 0 {
		return payload.Result{}, fmt.Errorf("input payload must carry image content for OCR")
	}
	if kind := mimetype.Detect(pl.FileContent); !strings.HasPrefix(kind.String(), "image/") {
		return payload.Result{}, fmt.Errorf("OCR expects an image, got %s", kind.String())
	}

	text, err := p.engine.Recognize(ctx, Request{
		Image:    pl.FileContent,
		Language: p.language,
		DPI:      p.dpi,
		PSM:      p.psm,
		OEM:      p.oem,
	})
	if err != nil {
		return payload.Result{}, err
	}

	text = strings.TrimSpace(text)
	p.log.WithFields(map[string]any{"characters": len(text)}).Info("ocr.recognized")

	return payload.Success(Name, fmt.Sprintf("recognized %d characters", len(text)), map[string]any{
		KeyText: text,
	}), nil
}
