package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mysticBliss/doc-intelligence/internal/logger"
	"github.com/mysticBliss/doc-intelligence/internal/payload"
	"github.com/mysticBliss/doc-intelligence/internal/processor"
)

type stubEngine struct {
	text string
	err  error
	got  Request
}

func (s *stubEngine) Recognize(ctx context.Context, req Request) (string, error) {
	s.got = req
	return s.text, s.err
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

func TestNewValidatesParams(t *testing.T) {
	_, err := New(nil, logger.Discard(), nil)
	require.Error(t, err)

	_, err = New(processor.Params{"dpi": float64(-1)}, logger.Discard(), &stubEngine{})
	require.Error(t, err)

	_, err = New(processor.Params{"psm": float64(14)}, logger.Discard(), &stubEngine{})
	require.Error(t, err)

	_, err = New(processor.Params{"oem": float64(4)}, logger.Discard(), &stubEngine{})
	require.Error(t, err)
}

func TestExecuteRecognizesText(t *testing.T) {
	engine := &stubEngine{text: "  hello world \n"}
	p, err := New(processor.Params{
		"language": "deu",
		"dpi":      float64(150),
		"psm":      float64(6),
		"oem":      float64(1),
	}, logger.Discard(), engine)
	require.NoError(t, err)

	res, err := p.Execute(context.Background(), payload.Payload{FileContent: pngBytes(t)})
	require.NoError(t, err)
	require.Equal(t, payload.StatusSuccess, res.Status)
	require.Equal(t, "hello world", res.Structured[KeyText])

	require.Equal(t, "deu", engine.got.Language)
	require.Equal(t, 150, engine.got.DPI)
	require.Equal(t, 6, engine.got.PSM)
	require.Equal(t, 1, engine.got.OEM)
}

func TestExecuteRejectsNonImageContent(t *testing.T) {
	p, err := New(nil, logger.Discard(), &stubEngine{})
	require.NoError(t, err)

	_, err = p.Execute(context.Background(), payload.Payload{FileContent: []byte("plain text")})
	require.Error(t, err)

	_, err = p.Execute(context.Background(), payload.Payload{})
	require.Error(t, err)
}

func TestExecutePropagatesEngineError(t *testing.T) {
	p, err := New(nil, logger.Discard(), &stubEngine{err: fmt.Errorf("tesseract crashed")})
	require.NoError(t, err)

	_, err = p.Execute(context.Background(), payload.Payload{FileContent: pngBytes(t)})
	require.Error(t, err)
	require.Contains(t, err.Error(), "tesseract crashed")
}

func TestHTTPEngineRecognize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/ocr", r.URL.Path)

		var req recognizeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotEmpty(t, req.Image)
		require.Equal(t, "eng", req.Language)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(recognizeResponse{Text: "invoice total 42"})
	}))
	defer srv.Close()

	engine := NewHTTPEngine(srv.URL)
	text, err := engine.Recognize(context.Background(), Request{Image: pngBytes(t), Language: "eng", DPI: 300, PSM: 3, OEM: 3})
	require.NoError(t, err)
	require.Equal(t, "invoice total 42", text)
}

func TestHTTPEngineBackendFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	engine := NewHTTPEngine(srv.URL)
	_, err := engine.Recognize(context.Background(), Request{Image: pngBytes(t)})
	require.Error(t, err)
	require.Contains(t, err.Error(), "ocr backend")
}

func TestHTTPEngineApplicationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(recognizeResponse{Error: "unsupported language"})
	}))
	defer srv.Close()

	engine := NewHTTPEngine(srv.URL)
	_, err := engine.Recognize(context.Background(), Request{Image: pngBytes(t)})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported language")
}
