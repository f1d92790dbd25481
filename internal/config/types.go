// Package config loads and validates pipeline descriptors and engine settings.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Mode selects the execution model of a pipeline.
type Mode string

const (
	// ModeLinear runs steps in order with fan-out semantics.
	ModeLinear Mode = "linear"
	// ModeDAG runs nodes level by level with topological parallelism.
	ModeDAG Mode = "dag"
)

// DefaultConcurrency bounds simultaneously-running processor executions when
// a descriptor does not set max_concurrency.
const DefaultConcurrency = 5

// Pipeline is a validated pipeline descriptor, either a linear sequence of
// steps or a directed acyclic graph of nodes.
type Pipeline struct {
	Name           string `json:"name" validate:"required,min=1,max=100"`
	Description    string `json:"description"`
	ExecutionMode  Mode   `json:"execution_mode" validate:"required,oneof=linear dag"`
	MaxConcurrency int    `json:"max_concurrency" validate:"min=1,max=64"`

	// Steps is populated for linear pipelines, Nodes for DAG pipelines.
	Steps []Step `json:"-" validate:"omitempty,dive"`
	Nodes []Node `json:"-" validate:"omitempty,dive"`
}

// Step describes one stage of a linear pipeline.
type Step struct {
	Name   string         `json:"name" validate:"required,processor_name"`
	Params map[string]any `json:"params"`
}

// Node describes one vertex of a DAG pipeline.
type Node struct {
	ID           string         `json:"id" validate:"required,node_id"`
	Processor    string         `json:"processor" validate:"required,processor_name"`
	Params       map[string]any `json:"params"`
	Dependencies []string       `json:"dependencies"`
}

type dagBody struct {
	Nodes []Node `json:"nodes"`
}

// UnmarshalJSON decodes the shared descriptor fields and then dispatches the
// "pipeline" key on its JSON shape: an array for linear pipelines, an object
// with a "nodes" list for DAG pipelines.
func (p *Pipeline) UnmarshalJSON(data []byte) error {
	type header struct {
		Name           string          `json:"name"`
		Description    string          `json:"description"`
		ExecutionMode  Mode            `json:"execution_mode"`
		MaxConcurrency int             `json:"max_concurrency"`
		Pipeline       json.RawMessage `json:"pipeline"`
	}

	var h header
	if err := json.Unmarshal(data, &h); err != nil {
		return err
	}

	p.Name = h.Name
	p.Description = h.Description
	p.ExecutionMode = h.ExecutionMode
	p.MaxConcurrency = h.MaxConcurrency
	if p.MaxConcurrency == 0 {
		p.MaxConcurrency = DefaultConcurrency
	}
	p.Steps = nil
	p.Nodes = nil

	body := bytes.TrimSpace(h.Pipeline)
	if len(body) == 0 {
		return fmt.Errorf("missing pipeline body")
	}

	switch body[0] {
	case '[':
		return json.Unmarshal(body, &p.Steps)
	case '{':
		var dag dagBody
		if err := json.Unmarshal(body, &dag); err != nil {
			return err
		}
		p.Nodes = dag.Nodes
		return nil
	default:
		return fmt.Errorf("pipeline body must be a step list or a node graph")
	}
}

// NodeMap builds a lookup table for DAG nodes by id.
func (p *Pipeline) NodeMap() map[string]Node {
	out := make(map[string]Node, len(p.Nodes))
	for _, node := range p.Nodes {
		out[node.ID] = node
	}
	return out
}
