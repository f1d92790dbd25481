package errors

import (
	"fmt"
	"strings"
)

// ParseError represents a pipeline descriptor file that could not be decoded.
type ParseError struct {
	Path    string
	Message string
	Err     error
}

// NewParseError constructs a ParseError.
func NewParseError(path string, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ParseError{Path: path, Message: message, Err: err}
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("parse error: %s: %s", e.Path, e.Message)
}

// Unwrap exposes the underlying error.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ValidationError captures configuration validation issues. These are the
// 4xx-class domain errors surfaced by the dispatcher before a run starts.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError constructs a ValidationError.
func NewValidationError(field, message string, err error) error {
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ExecutionError represents a runtime failure while executing a pipeline step.
type ExecutionError struct {
	Step string
	Err  error
}

// NewExecutionError constructs an ExecutionError.
func NewExecutionError(step string, err error) error {
	return &ExecutionError{Step: step, Err: err}
}

func (e *ExecutionError) Error() string {
	if e == nil {
		return ""
	}
	if e.Step != "" {
		return fmt.Sprintf("execution error on step %s: %v", e.Step, e.Err)
	}
	return fmt.Sprintf("execution error: %v", e.Err)
}

// Unwrap exposes the root error.
func (e *ExecutionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ProcessorError indicates issues within processor registration or construction.
type ProcessorError struct {
	Processor string
	Message   string
	Err       error
}

// NewProcessorError constructs a ProcessorError for the given processor name.
func NewProcessorError(processor string, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ProcessorError{Processor: processor, Message: message, Err: err}
}

// NewUnknownProcessorError reports a lookup miss along with the known names.
func NewUnknownProcessorError(processor string, known []string) error {
	return &ProcessorError{
		Processor: processor,
		Message:   fmt.Sprintf("unknown processor, available: %s", strings.Join(known, ", ")),
	}
}

func (e *ProcessorError) Error() string {
	if e == nil {
		return ""
	}
	if e.Processor != "" {
		return fmt.Sprintf("processor error [%s]: %s", e.Processor, e.Message)
	}
	return fmt.Sprintf("processor error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ProcessorError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
