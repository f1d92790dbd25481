package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/mysticBliss/doc-intelligence/internal/payload"
	"github.com/mysticBliss/doc-intelligence/internal/processor"
)

// fakeProc runs a canned function under a fixed name.
type fakeProc struct {
	name string
	fn   func(ctx context.Context, pl payload.Payload) (payload.Result, error)
}

func (f fakeProc) Name() string { return f.name }

func (f fakeProc) Execute(ctx context.Context, pl payload.Payload) (payload.Result, error) {
	return f.fn(ctx, pl)
}

// fakeBuilder maps processor names to constructors, like the registry.
type fakeBuilder map[string]func(params processor.Params) (processor.Processor, error)

func (b fakeBuilder) Create(name string, params processor.Params) (processor.Processor, error) {
	ctor, ok := b[name]
	if !ok {
		return nil, fmt.Errorf("unknown processor %q", name)
	}
	return ctor(params)
}

// static registers a processor that always behaves the same way.
func (b fakeBuilder) static(name string, fn func(ctx context.Context, pl payload.Payload) (payload.Result, error)) {
	b[name] = func(processor.Params) (processor.Processor, error) {
		return fakeProc{name: name, fn: fn}, nil
	}
}

// succeeding registers a processor that succeeds with a fixed output.
func (b fakeBuilder) succeeding(name string) {
	b.static(name, func(ctx context.Context, pl payload.Payload) (payload.Result, error) {
		return payload.Success(name, "ok", nil), nil
	})
}

// recorder collects the payloads a processor was invoked with.
type recorder struct {
	mu   sync.Mutex
	seen []payload.Payload
}

func (r *recorder) record(pl payload.Payload) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, pl)
}

func (r *recorder) payloads() []payload.Payload {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]payload.Payload(nil), r.seen...)
}

// fanOutResult builds a fan-out success with one child per page number.
func fanOutResult(name string, parent payload.Payload, pages ...int) payload.Result {
	children := make([]payload.Payload, 0, len(pages))
	for _, page := range pages {
		children = append(children, parent.Child(page, fmt.Sprintf("page_%d.png", page), []byte(fmt.Sprintf("img-%d", page))))
	}
	return payload.Success(name, "extracted", map[string]any{
		payload.KeyDocumentPayloads: children,
	})
}

func rootPayload() payload.Payload {
	return payload.Payload{
		JobID:       "job-1",
		FileName:    "doc.pdf",
		FileContent: []byte("%PDF"),
		DocumentID:  "d41d8cd9",
	}
}
