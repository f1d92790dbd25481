package pdfx

import "image"

// Renderer opens a PDF from memory for page rendering. The production
// implementation wraps MuPDF; tests substitute a stub.
type Renderer interface {
	Open(pdf []byte) (Document, error)
}

// Document is an open PDF. Pages are 1-based.
type Document interface {
	PageCount() int
	Render(page int, dpi int) (image.Image, error)
	Close() error
}
