// Package processor defines the uniform contract every pipeline step
// implements, the registry that instantiates steps by name, and the
// instrumentation wrapper interposed on every invocation.
package processor

import (
	"context"
	"time"

	"github.com/mysticBliss/doc-intelligence/internal/payload"
)

// Processor is a named, configurable pipeline step. Implementations validate
// their configuration at construction time and fail fast on invalid params.
//
// Execute must not mutate its input payload and may be called concurrently
// on distinct payloads. The engine never calls Execute directly; every
// invocation goes through Instrumented.Run, which converts errors and panics
// into failure results.
type Processor interface {
	Name() string
	Execute(ctx context.Context, p payload.Payload) (payload.Result, error)
}

// TimeoutHinter is implemented by processors that declare a wall-clock budget
// for a single execution. A zero duration means no timeout.
type TimeoutHinter interface {
	ExecutionTimeout() time.Duration
}

// Builder creates inner processors for composite steps. It exposes only
// creation by name, not the full registry, so composites cannot reach
// registration or enumeration.
type Builder interface {
	Create(name string, params Params) (Processor, error)
}
