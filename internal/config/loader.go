package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/mysticBliss/doc-intelligence/internal/logger"
	docerrors "github.com/mysticBliss/doc-intelligence/pkg/errors"
)

// ParseFile loads a single pipeline descriptor from disk and validates it.
func ParseFile(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, docerrors.NewParseError(path, err)
	}

	var p Pipeline
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, docerrors.NewParseError(path, err)
	}

	if err := Validate(&p); err != nil {
		return nil, err
	}

	return &p, nil
}

// Store holds the loaded pipeline descriptors. It is constructed once at
// startup and injected wherever pipelines are resolved; Reload rescans the
// source directory in place.
type Store struct {
	mu        sync.RWMutex
	dir       string
	pipelines map[string]*Pipeline
	log       *logger.Logger
}

// LoadDir scans dir for *.json descriptors and returns a Store with every
// valid pipeline. Invalid files are rejected with a log entry; the remaining
// files continue to load. A missing directory is an error.
func LoadDir(dir string, log *logger.Logger) (*Store, error) {
	s := &Store{dir: dir, log: log}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload rescans the descriptor directory, replacing the loaded set.
func (s *Store) Reload() error {
	info, err := os.Stat(s.dir)
	if err != nil || !info.IsDir() {
		return docerrors.NewValidationError("pipeline_dir", fmt.Sprintf("pipeline directory not found: %s", s.dir), err)
	}

	paths, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return err
	}
	sort.Strings(paths)

	loaded := make(map[string]*Pipeline, len(paths))
	for _, path := range paths {
		p, err := ParseFile(path)
		if err != nil {
			s.log.WithFields(map[string]any{"path": path}).Error(err, "pipeline.config.rejected")
			continue
		}
		if _, exists := loaded[p.Name]; exists {
			s.log.WithFields(map[string]any{"path": path, "pipeline": p.Name}).Warn("pipeline.config.duplicate_name")
			continue
		}
		loaded[p.Name] = p
		s.log.WithFields(map[string]any{"pipeline": p.Name, "mode": string(p.ExecutionMode)}).Info("pipeline.config.loaded")
	}

	if len(loaded) == 0 {
		s.log.Warn("pipeline.config.none_loaded")
	}

	s.mu.Lock()
	s.pipelines = loaded
	s.mu.Unlock()
	return nil
}

// Get returns the named pipeline, or nil when unknown.
func (s *Store) Get(name string) *Pipeline {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pipelines[name]
}

// Names returns the loaded pipeline names in sorted order.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.pipelines))
	for name := range s.pipelines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns every loaded pipeline, sorted by name.
func (s *Store) All() []*Pipeline {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Pipeline, 0, len(s.pipelines))
	for _, p := range s.pipelines {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
