package imagep

// SubStep records the execution of one preprocessing operation: its
// configuration and the content hashes of the image before and after the
// operation ran. The trail of sub-steps is attached to the processor result
// so downstream consumers can audit exactly what was applied.
type SubStep struct {
	Name       string         `json:"name"`
	Params     map[string]any `json:"params,omitempty"`
	InputHash  string         `json:"input_hash"`
	OutputHash string         `json:"output_hash"`
	DurationMS int64          `json:"duration_ms"`
}
