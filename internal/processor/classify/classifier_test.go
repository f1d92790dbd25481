package classify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mysticBliss/doc-intelligence/internal/logger"
	"github.com/mysticBliss/doc-intelligence/internal/payload"
	"github.com/mysticBliss/doc-intelligence/internal/processor"
	"github.com/mysticBliss/doc-intelligence/internal/processor/ocr"
	"github.com/mysticBliss/doc-intelligence/internal/processor/vlm"
)

type stubClient struct {
	answer    string
	err       error
	generated vlm.GenerateRequest
}

func (s *stubClient) Analyze(ctx context.Context, req vlm.AnalyzeRequest) (string, error) {
	return "", nil
}

func (s *stubClient) Generate(ctx context.Context, req vlm.GenerateRequest) (string, error) {
	s.generated = req
	return s.answer, s.err
}

func payloadWithText(text string) payload.Payload {
	return payload.Payload{
		Results: []payload.Result{
			payload.Success(ocr.Name, "recognized", map[string]any{ocr.KeyText: text}),
		},
	}
}

func TestNewValidatesParams(t *testing.T) {
	_, err := New(processor.Params{"model": "llama3"}, logger.Discard(), nil)
	require.Error(t, err)

	_, err = New(processor.Params{}, logger.Discard(), &stubClient{})
	require.Error(t, err, "model is required")

	_, err = New(processor.Params{"model": "llama3", "document_types": []any{}}, logger.Discard(), &stubClient{})
	require.Error(t, err)

	_, err = New(processor.Params{"model": "llama3", "temperature": float64(5)}, logger.Discard(), &stubClient{})
	require.Error(t, err)
}

func TestExecutionTimeoutDefaultsAndOverrides(t *testing.T) {
	c, err := New(processor.Params{"model": "llama3"}, logger.Discard(), &stubClient{})
	require.NoError(t, err)
	require.Equal(t, DefaultTimeout, c.ExecutionTimeout())

	c, err = New(processor.Params{"model": "llama3", "timeout": float64(5)}, logger.Discard(), &stubClient{})
	require.NoError(t, err)
	require.Equal(t, 5*time.Second, c.ExecutionTimeout())
}

func TestExecuteClassifiesFromOCRText(t *testing.T) {
	client := &stubClient{answer: " Invoice.\n"}
	c, err := New(processor.Params{"model": "llama3"}, logger.Discard(), client)
	require.NoError(t, err)

	res, err := c.Execute(context.Background(), payloadWithText("Total due: 42 EUR"))
	require.NoError(t, err)
	require.Equal(t, payload.StatusSuccess, res.Status)
	require.Equal(t, "invoice", res.Structured[KeyDocumentType])

	require.Contains(t, client.generated.Prompt, "Total due: 42 EUR")
	require.Contains(t, client.generated.Prompt, "invoice, receipt")
}

func TestExecuteHonorsConfiguredTypes(t *testing.T) {
	client := &stubClient{answer: "contract"}
	c, err := New(processor.Params{
		"model":          "llama3",
		"document_types": []any{"Contract", "NDA"},
	}, logger.Discard(), client)
	require.NoError(t, err)

	res, err := c.Execute(context.Background(), payloadWithText("This agreement is made between"))
	require.NoError(t, err)
	require.Equal(t, "contract", res.Structured[KeyDocumentType])
}

func TestExecuteRejectsAnswerOutsideTypeSet(t *testing.T) {
	client := &stubClient{answer: "probably some kind of invoice"}
	c, err := New(processor.Params{"model": "llama3"}, logger.Discard(), client)
	require.NoError(t, err)

	_, err = c.Execute(context.Background(), payloadWithText("Total due: 42 EUR"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "not one of the configured document types")
}

func TestExecuteFallsBackToPlainTextContent(t *testing.T) {
	client := &stubClient{answer: "letter"}
	c, err := New(processor.Params{"model": "llama3"}, logger.Discard(), client)
	require.NoError(t, err)

	res, err := c.Execute(context.Background(), payload.Payload{
		FileContent: []byte("Dear Sir or Madam, I am writing to you"),
	})
	require.NoError(t, err)
	require.Equal(t, "letter", res.Structured[KeyDocumentType])
}

func TestExecuteRequiresText(t *testing.T) {
	c, err := New(processor.Params{"model": "llama3"}, logger.Discard(), &stubClient{})
	require.NoError(t, err)

	_, err = c.Execute(context.Background(), payload.Payload{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "no text available")

	// Binary content is not usable as classification input.
	_, err = c.Execute(context.Background(), payload.Payload{FileContent: []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}})
	require.Error(t, err)
}

func TestExecuteIgnoresFailedOCRResults(t *testing.T) {
	c, err := New(processor.Params{"model": "llama3"}, logger.Discard(), &stubClient{answer: "other"})
	require.NoError(t, err)

	pl := payload.Payload{
		Results: []payload.Result{
			payload.Failure(ocr.Name, "backend down"),
		},
	}
	_, err = c.Execute(context.Background(), pl)
	require.Error(t, err)
	require.Contains(t, err.Error(), "no text available")
}
