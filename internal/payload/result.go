package payload

// OrchestratorName tags synthetic results emitted about the run itself
// rather than any configured step.
const OrchestratorName = "pipeline_orchestrator"

// Reserved keys in Result.Structured carrying flow control between steps.
const (
	// KeyImageData marks a 1:1 propagation: the step replaced the current
	// payload's bytes.
	KeyImageData = "image_data"
	// KeyDocumentPayloads marks a fan-out: subsequent steps run once per
	// child payload.
	KeyDocumentPayloads = "document_payloads"
)

// Metadata carries the execution context stamped onto every result by the
// instrumentation wrapper.
type Metadata struct {
	PageNumber       int    `json:"page_number,omitempty"`
	ParentDocumentID string `json:"parent_document_id,omitempty"`
	ExecutionTimeMS  int64  `json:"execution_time_ms"`
}

// Result is emitted by every processor invocation.
type Result struct {
	ProcessorName string         `json:"processor_name"`
	Status        Status         `json:"status"`
	Output        string         `json:"output,omitempty"`
	Structured    map[string]any `json:"structured_results,omitempty"`
	ErrorMessage  string         `json:"error_message,omitempty"`
	Metadata      Metadata       `json:"metadata"`
}

// Success builds a success result with the given summary and machine payload.
func Success(processor, output string, structured map[string]any) Result {
	return Result{
		ProcessorName: processor,
		Status:        StatusSuccess,
		Output:        output,
		Structured:    structured,
	}
}

// Failure builds a failure result carrying the error message.
func Failure(processor, message string) Result {
	return Result{
		ProcessorName: processor,
		Status:        StatusFailure,
		ErrorMessage:  message,
	}
}

// Skipped builds a skipped result. The message explains why the step never ran.
func Skipped(processor, message string) Result {
	return Result{
		ProcessorName: processor,
		Status:        StatusSkipped,
		ErrorMessage:  message,
	}
}

// ImageData returns the replacement bytes when the result requests 1:1
// propagation.
func (r Result) ImageData() ([]byte, bool) {
	if r.Structured == nil {
		return nil, false
	}
	data, ok := r.Structured[KeyImageData].([]byte)
	if !ok || len(data) == 0 {
		return nil, false
	}
	return data, true
}

// FanOut returns the child payloads when the result requests fan-out. An
// empty child list is not a fan-out; it terminates the branch.
func (r Result) FanOut() ([]Payload, bool) {
	if r.Structured == nil {
		return nil, false
	}
	children, ok := r.Structured[KeyDocumentPayloads].([]Payload)
	if !ok || len(children) == 0 {
		return nil, false
	}
	return children, true
}
