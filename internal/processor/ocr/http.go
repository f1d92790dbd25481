package ocr

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/go-resty/resty/v2"
)

type recognizeRequest struct {
	Image    string `json:"image"`
	Language string `json:"language"`
	DPI      int    `json:"dpi"`
	PSM      int    `json:"psm"`
	OEM      int    `json:"oem"`
}

type recognizeResponse struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

// HTTPEngine talks to a tesseract-backed OCR service over HTTP.
type HTTPEngine struct {
	client *resty.Client
}

// NewHTTPEngine creates an engine for the OCR service at baseURL.
func NewHTTPEngine(baseURL string) *HTTPEngine {
	return &HTTPEngine{client: resty.New().SetBaseURL(baseURL)}
}

// Recognize implements Engine.
func (e *HTTPEngine) Recognize(ctx context.Context, req Request) (string, error) {
	var out recognizeResponse
	resp, err := e.client.R().
		SetContext(ctx).
		SetBody(recognizeRequest{
			Image:    base64.StdEncoding.EncodeToString(req.Image),
			Language: req.Language,
			DPI:      req.DPI,
			PSM:      req.PSM,
			OEM:      req.OEM,
		}).
		SetResult(&out).
		Post("/ocr")
	if err != nil {
		return "", fmt.Errorf("ocr backend: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("ocr backend: %s: %s", resp.Status(), resp.String())
	}
	if out.Error != "" {
		return "", fmt.Errorf("ocr backend: %s", out.Error)
	}
	return out.Text, nil
}
