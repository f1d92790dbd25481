package processor

import (
	"fmt"
	"sort"
	"sync"

	"github.com/mysticBliss/doc-intelligence/internal/logger"
	docerrors "github.com/mysticBliss/doc-intelligence/pkg/errors"
)

// Constructor builds a processor from its step params and a bound logger.
// Name-specific dependencies (backend clients, renderers, the builder handle
// of composite processors) are closed over at registration time.
type Constructor func(params Params, log *logger.Logger) (Processor, error)

// Registry maps processor names to constructors. It is populated during
// startup and read-only afterwards.
type Registry struct {
	mu           sync.RWMutex
	log          *logger.Logger
	constructors map[string]Constructor
}

// NewRegistry creates an empty registry.
func NewRegistry(log *logger.Logger) *Registry {
	return &Registry{
		log:          log,
		constructors: make(map[string]Constructor),
	}
}

// Register adds a constructor for the given processor name.
func (r *Registry) Register(name string, c Constructor) error {
	if c == nil {
		return docerrors.NewProcessorError(name, fmt.Errorf("constructor is nil"))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.constructors[name]; exists {
		return docerrors.NewProcessorError(name, fmt.Errorf("processor already registered"))
	}

	r.constructors[name] = c
	return nil
}

// Create instantiates the named processor with the given params. Unknown
// names fail fast with a domain error listing the known names. The processor
// receives a logger bound with its own name.
func (r *Registry) Create(name string, params Params) (Processor, error) {
	r.mu.RLock()
	c, ok := r.constructors[name]
	r.mu.RUnlock()

	if !ok {
		return nil, docerrors.NewUnknownProcessorError(name, r.Names())
	}

	log := r.log.WithFields(map[string]any{"processor_name": name})
	proc, err := c(params, log)
	if err != nil {
		return nil, docerrors.NewProcessorError(name, err)
	}
	return proc, nil
}

// Names returns the registered processor names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.constructors))
	for name := range r.constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var _ Builder = (*Registry)(nil)
