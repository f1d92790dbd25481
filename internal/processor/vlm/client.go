// Package vlm implements the vlm_processor: it asks a vision-language model
// to analyse a page image with a configured prompt. The client speaks the
// Ollama HTTP API and is shared with the classifier, which uses its
// text-only generate endpoint.
package vlm

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/go-resty/resty/v2"
)

// AnalyzeRequest asks the model to look at images and answer a prompt.
type AnalyzeRequest struct {
	Model       string
	Prompt      string
	Images      [][]byte
	Temperature float64
	MaxTokens   int
}

// GenerateRequest asks the model for a text-only completion.
type GenerateRequest struct {
	Model       string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// Client is the model backend used by the VLM and classifier processors.
type Client interface {
	Analyze(ctx context.Context, req AnalyzeRequest) (string, error)
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

type chatMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type modelOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  modelOptions  `json:"options"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Error   string      `json:"error,omitempty"`
}

type generateRequest struct {
	Model   string       `json:"model"`
	Prompt  string       `json:"prompt"`
	Stream  bool         `json:"stream"`
	Options modelOptions `json:"options"`
}

type generateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

// HTTPClient talks to an Ollama server.
type HTTPClient struct {
	client *resty.Client
}

// NewHTTPClient creates a client for the Ollama server at baseURL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{client: resty.New().SetBaseURL(baseURL)}
}

// Analyze implements Client using the chat endpoint with image attachments.
func (c *HTTPClient) Analyze(ctx context.Context, req AnalyzeRequest) (string, error) {
	images := make([]string, 0, len(req.Images))
	for _, img := range req.Images {
		images = append(images, base64.StdEncoding.EncodeToString(img))
	}

	var out chatResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(chatRequest{
			Model: req.Model,
			Messages: []chatMessage{
				{Role: "user", Content: req.Prompt, Images: images},
			},
			Stream: false,
			Options: modelOptions{
				Temperature: req.Temperature,
				NumPredict:  req.MaxTokens,
			},
		}).
		SetResult(&out).
		Post("/api/chat")
	if err != nil {
		return "", fmt.Errorf("vlm backend: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("vlm backend: %s: %s", resp.Status(), resp.String())
	}
	if out.Error != "" {
		return "", fmt.Errorf("vlm backend: %s", out.Error)
	}
	return out.Message.Content, nil
}

// Generate implements Client using the text completion endpoint.
func (c *HTTPClient) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	var out generateResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(generateRequest{
			Model:  req.Model,
			Prompt: req.Prompt,
			Stream: false,
			Options: modelOptions{
				Temperature: req.Temperature,
				NumPredict:  req.MaxTokens,
			},
		}).
		SetResult(&out).
		Post("/api/generate")
	if err != nil {
		return "", fmt.Errorf("vlm backend: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("vlm backend: %s: %s", resp.Status(), resp.String())
	}
	if out.Error != "" {
		return "", fmt.Errorf("vlm backend: %s", out.Error)
	}
	return out.Response, nil
}
