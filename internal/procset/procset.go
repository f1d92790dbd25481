// Package procset binds the processor catalog to its concrete backends and
// registers every processor under its pipeline name.
package procset

import (
	"github.com/mysticBliss/doc-intelligence/internal/logger"
	"github.com/mysticBliss/doc-intelligence/internal/processor"
	"github.com/mysticBliss/doc-intelligence/internal/processor/classify"
	"github.com/mysticBliss/doc-intelligence/internal/processor/composite"
	"github.com/mysticBliss/doc-intelligence/internal/processor/imagep"
	"github.com/mysticBliss/doc-intelligence/internal/processor/ocr"
	"github.com/mysticBliss/doc-intelligence/internal/processor/pdfx"
	"github.com/mysticBliss/doc-intelligence/internal/processor/sentiment"
	"github.com/mysticBliss/doc-intelligence/internal/processor/vlm"
)

// Backends carries the external capabilities processors depend on. A nil
// backend leaves its processors registered but failing at construction time
// with a clear error, so pipelines that avoid them still work.
type Backends struct {
	Renderer pdfx.Renderer
	OCR      ocr.Engine
	VLM      vlm.Client
}

// Register populates the registry with the full processor catalog.
func Register(reg *processor.Registry, b Backends) error {
	constructors := map[string]processor.Constructor{
		pdfx.Name: func(params processor.Params, log *logger.Logger) (processor.Processor, error) {
			return pdfx.New(params, log, b.Renderer)
		},
		imagep.Name: func(params processor.Params, log *logger.Logger) (processor.Processor, error) {
			return imagep.New(params, log)
		},
		ocr.Name: func(params processor.Params, log *logger.Logger) (processor.Processor, error) {
			return ocr.New(params, log, b.OCR)
		},
		vlm.Name: func(params processor.Params, log *logger.Logger) (processor.Processor, error) {
			return vlm.New(params, log, b.VLM)
		},
		classify.Name: func(params processor.Params, log *logger.Logger) (processor.Processor, error) {
			return classify.New(params, log, b.VLM)
		},
		sentiment.Name: func(params processor.Params, log *logger.Logger) (processor.Processor, error) {
			return sentiment.New(params, log)
		},
		// The composite gets the registry back as a builder so it can
		// assemble its inner steps by name.
		composite.Name: func(params processor.Params, log *logger.Logger) (processor.Processor, error) {
			return composite.New(params, log, reg)
		},
	}

	for name, ctor := range constructors {
		if err := reg.Register(name, ctor); err != nil {
			return err
		}
	}
	return nil
}
