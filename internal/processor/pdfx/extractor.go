// Package pdfx implements the pdf_extractor processor: it renders selected
// PDF pages into images and fans the input payload out into one child
// payload per page.
package pdfx

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"strings"

	"golang.org/x/image/tiff"

	"github.com/mysticBliss/doc-intelligence/internal/logger"
	"github.com/mysticBliss/doc-intelligence/internal/payload"
	"github.com/mysticBliss/doc-intelligence/internal/processor"
)

// Name is the registry name of this processor.
const Name = "pdf_extractor"

var supportedFormats = map[string]string{
	"PNG":  "png",
	"JPEG": "jpeg",
	"TIFF": "tiff",
}

// Extractor renders PDF pages to images via a Renderer.
type Extractor struct {
	log        *logger.Logger
	renderer   Renderer
	resolution int
	format     string
	pageRange  string
}

// New validates the step params and constructs the extractor.
func New(params processor.Params, log *logger.Logger, renderer Renderer) (*Extractor, error) {
	if renderer == nil {
		return nil, fmt.Errorf("pdf renderer is required")
	}

	resolution := params.Int("resolution", 300)
	if resolution <= 0 {
		return nil, fmt.Errorf("resolution must be a positive integer")
	}

	format := strings.ToUpper(params.String("image_format", "PNG"))
	if _, ok := supportedFormats[format]; !ok {
		return nil, fmt.Errorf("image_format must be one of PNG, JPEG, TIFF")
	}

	pageRange := params.String("page_range", "")
	// Bounds are checked at execution time once the page count is known;
	// the syntax is rejected up front.
	if _, err := ParsePageRange(pageRange, 0); err != nil {
		return nil, err
	}

	return &Extractor{
		log:        log,
		renderer:   renderer,
		resolution: resolution,
		format:     format,
		pageRange:  pageRange,
	}, nil
}

// Name implements processor.Processor.
func (e *Extractor) Name() string { return Name }

// Execute renders the selected pages and emits one child payload per page.
// An empty page selection succeeds with zero children.
func (e *Extractor) Execute(ctx context.Context, pl payload.Payload) (payload.Result, error) {
	if len(pl.FileContent) == 0 {
		return payload.Result{}, fmt.Errorf("input payload must carry file content for PDF extraction")
	}

	doc, err := e.renderer.Open(pl.FileContent)
	if err != nil {
		return payload.Result{}, fmt.Errorf("invalid PDF: %w", err)
	}
	defer doc.Close()

	pages, err := ParsePageRange(e.pageRange, doc.PageCount())
	if err != nil {
		return payload.Result{}, err
	}

	if len(pages) == 0 {
		e.log.Info("pdf_extractor.empty_page_range")
		return payload.Success(Name, "no pages selected for extraction", map[string]any{
			payload.KeyDocumentPayloads: []payload.Payload{},
		}), nil
	}

	ext := supportedFormats[e.format]
	children := make([]payload.Payload, 0, len(pages))
	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return payload.Result{}, err
		}

		img, err := doc.Render(page, e.resolution)
		if err != nil {
			return payload.Result{}, err
		}

		encoded, err := e.encode(img)
		if err != nil {
			return payload.Result{}, err
		}

		name := fmt.Sprintf("%s_page_%d.%s", pl.FileName, page, ext)
		children = append(children, pl.Child(page, name, encoded))
	}

	e.log.WithFields(map[string]any{"pages": len(children)}).Info("pdf_extractor.extracted")

	return payload.Success(Name, fmt.Sprintf("extracted %d pages from PDF", len(children)), map[string]any{
		payload.KeyDocumentPayloads: children,
	}), nil
}

func (e *Extractor) encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	var err error

	switch e.format {
	case "JPEG":
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 92})
	case "TIFF":
		err = tiff.Encode(&buf, img, nil)
	default:
		err = png.Encode(&buf, img)
	}

	if err != nil {
		return nil, fmt.Errorf("encode page as %s: %w", e.format, err)
	}
	return buf.Bytes(), nil
}
