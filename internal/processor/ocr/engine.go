// Package ocr implements the ocr_processor: it sends a page image to an OCR
// backend and emits the recognised text.
package ocr

import "context"

// Request carries one image and the recognition settings for it.
type Request struct {
	Image    []byte
	Language string
	DPI      int
	PSM      int
	OEM      int
}

// Engine is the OCR backend. Implementations recognise the text on a single
// page image.
type Engine interface {
	Recognize(ctx context.Context, req Request) (string, error)
}
