package processor

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func decodedParams(t *testing.T, raw string) Params {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &m))
	return Params(m)
}

func TestParamsNumericWidening(t *testing.T) {
	p := decodedParams(t, `{"resolution": 150, "temperature": 0.2}`)

	require.Equal(t, 150, p.Int("resolution", 300))
	require.Equal(t, 300, p.Int("missing", 300))
	require.InDelta(t, 0.2, p.Float("temperature", 0.7), 1e-9)
}

func TestParamsStringSlice(t *testing.T) {
	p := decodedParams(t, `{"document_types": ["invoice", "receipt"]}`)
	require.Equal(t, []string{"invoice", "receipt"}, p.StringSlice("document_types"))
	require.Nil(t, p.StringSlice("missing"))

	mixed := decodedParams(t, `{"document_types": ["invoice", 7]}`)
	require.Nil(t, mixed.StringSlice("document_types"))
}

func TestParamsMapSlice(t *testing.T) {
	p := decodedParams(t, `{"steps": [{"name": "to_grayscale"}, {"name": "binarize", "params": {"threshold": 100}}]}`)

	steps, err := p.MapSlice("steps")
	require.NoError(t, err)
	require.Len(t, steps, 2)
	require.Equal(t, "binarize", steps[1].String("name", ""))
	require.Equal(t, 100, steps[1].Map("params").Int("threshold", 127))

	_, err = decodedParams(t, `{"steps": "to_grayscale"}`).MapSlice("steps")
	require.Error(t, err)

	_, err = decodedParams(t, `{"steps": ["to_grayscale"]}`).MapSlice("steps")
	require.Error(t, err)
}

func TestParamsDurationInSeconds(t *testing.T) {
	p := decodedParams(t, `{"timeout": 90}`)
	require.Equal(t, 90*time.Second, p.Duration("timeout", time.Minute))
	require.Equal(t, time.Minute, p.Duration("missing", time.Minute))
}
