package engine

import (
	"fmt"
	"sort"

	"github.com/mysticBliss/doc-intelligence/internal/config"
	docerrors "github.com/mysticBliss/doc-intelligence/pkg/errors"
)

// vertex is one node of the execution DAG with resolved edges.
type vertex struct {
	node       config.Node
	dependsOn  []*vertex
	dependents []*vertex
}

// Graph is the execution DAG of a pipeline together with its topological
// levels. Nodes within a level have no edges between them and may run
// concurrently.
type Graph struct {
	vertices map[string]*vertex
	levels   [][]string
}

// BuildGraph resolves node dependencies into a DAG and computes its levels.
// The descriptor validator already rejects duplicate ids, unknown
// dependencies and cycles; the checks here guard direct callers.
func BuildGraph(nodes []config.Node) (*Graph, error) {
	g := &Graph{vertices: make(map[string]*vertex, len(nodes))}

	for _, node := range nodes {
		if _, exists := g.vertices[node.ID]; exists {
			return nil, docerrors.NewValidationError("nodes", fmt.Sprintf("duplicate node id %q", node.ID), nil)
		}
		g.vertices[node.ID] = &vertex{node: node}
	}

	for _, node := range nodes {
		target := g.vertices[node.ID]
		for _, dep := range node.Dependencies {
			source, ok := g.vertices[dep]
			if !ok {
				return nil, docerrors.NewValidationError("nodes", fmt.Sprintf("node %q depends on unknown node %q", node.ID, dep), nil)
			}
			source.dependents = append(source.dependents, target)
			target.dependsOn = append(target.dependsOn, source)
		}
	}

	if err := g.topologicalSort(); err != nil {
		return nil, err
	}
	return g, nil
}

// Levels returns the topological levels in execution order. Node ids within
// a level are sorted so execution order is deterministic.
func (g *Graph) Levels() [][]string {
	return g.levels
}

// Node returns the descriptor node for id.
func (g *Graph) Node(id string) config.Node {
	return g.vertices[id].node
}

// topologicalSort computes the DAG levels using Kahn's algorithm.
func (g *Graph) topologicalSort() error {
	indegree := make(map[string]int, len(g.vertices))
	for id, v := range g.vertices {
		indegree[id] = len(v.dependsOn)
	}

	var queue []string
	for id, degree := range indegree {
		if degree == 0 {
			queue = append(queue, id)
		}
	}
	sort.Strings(queue)

	processed := 0
	var levels [][]string

	for len(queue) > 0 {
		level := append([]string(nil), queue...)
		levels = append(levels, level)

		var next []string
		for _, id := range level {
			processed++
			for _, dependent := range g.vertices[id].dependents {
				indegree[dependent.node.ID]--
				if indegree[dependent.node.ID] == 0 {
					next = append(next, dependent.node.ID)
				}
			}
		}

		sort.Strings(next)
		queue = next
	}

	if processed != len(g.vertices) {
		return docerrors.NewValidationError("nodes", "cycle detected while sorting graph", nil)
	}

	g.levels = levels
	return nil
}
