package pdfx

import (
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
)

// FitzRenderer renders PDF pages through MuPDF.
type FitzRenderer struct{}

// NewFitzRenderer returns the MuPDF-backed renderer.
func NewFitzRenderer() FitzRenderer {
	return FitzRenderer{}
}

// Open parses the PDF bytes.
func (FitzRenderer) Open(pdf []byte) (Document, error) {
	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	return &fitzDocument{doc: doc}, nil
}

type fitzDocument struct {
	doc *fitz.Document
}

func (d *fitzDocument) PageCount() int {
	return d.doc.NumPage()
}

func (d *fitzDocument) Render(page int, dpi int) (image.Image, error) {
	// go-fitz pages are 0-based.
	img, err := d.doc.ImageDPI(page-1, float64(dpi))
	if err != nil {
		return nil, fmt.Errorf("render page %d: %w", page, err)
	}
	return img, nil
}

func (d *fitzDocument) Close() error {
	return d.doc.Close()
}
