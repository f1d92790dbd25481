package processor

import (
	"fmt"
	"time"
)

// Params is the raw configuration block of one pipeline step. The typed
// accessors tolerate the numeric widening JSON decoding introduces
// (float64 for every number).
type Params map[string]any

// String returns the string value for key, or fallback when absent.
func (p Params) String(key, fallback string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return fallback
}

// Int returns the integer value for key, or fallback when absent or not a
// number.
func (p Params) Int(key string, fallback int) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return fallback
	}
}

// Float returns the float value for key, or fallback.
func (p Params) Float(key string, fallback float64) float64 {
	switch v := p[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return fallback
	}
}

// Bool returns the boolean value for key, or fallback.
func (p Params) Bool(key string, fallback bool) bool {
	if v, ok := p[key].(bool); ok {
		return v
	}
	return fallback
}

// Has reports whether key is present.
func (p Params) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// StringSlice returns the list of strings for key. JSON decoding yields
// []any, so both representations are accepted.
func (p Params) StringSlice(key string) []string {
	switch v := p[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil
			}
			out = append(out, s)
		}
		return out
	default:
		return nil
	}
}

// MapSlice returns the list of nested param blocks for key.
func (p Params) MapSlice(key string) ([]Params, error) {
	raw, ok := p[key]
	if !ok {
		return nil, nil
	}

	switch v := raw.(type) {
	case []Params:
		return v, nil
	case []map[string]any:
		out := make([]Params, 0, len(v))
		for _, m := range v {
			out = append(out, Params(m))
		}
		return out, nil
	case []any:
		out := make([]Params, 0, len(v))
		for _, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%s entries must be objects", key)
			}
			out = append(out, Params(m))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s must be a list", key)
	}
}

// Map returns the nested param block for key.
func (p Params) Map(key string) Params {
	switch v := p[key].(type) {
	case Params:
		return v
	case map[string]any:
		return Params(v)
	default:
		return nil
	}
}

// Duration returns the duration for key expressed in seconds, or fallback.
func (p Params) Duration(key string, fallback time.Duration) time.Duration {
	if !p.Has(key) {
		return fallback
	}
	return time.Duration(p.Float(key, fallback.Seconds()) * float64(time.Second))
}
