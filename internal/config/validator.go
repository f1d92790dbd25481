package config

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	docerrors "github.com/mysticBliss/doc-intelligence/pkg/errors"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	namePattern = regexp.MustCompile(`^[a-z0-9_]+$`)
)

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		_ = v.RegisterValidation("processor_name", func(fl validator.FieldLevel) bool {
			return namePattern.MatchString(fl.Field().String())
		})

		_ = v.RegisterValidation("node_id", func(fl validator.FieldLevel) bool {
			return namePattern.MatchString(fl.Field().String())
		})

		validateInst = v
	})

	return validateInst
}

// Validate performs schema and cross-field validation on a pipeline
// descriptor: struct tags, mode/body agreement, unique node ids, resolvable
// dependencies, and acyclicity.
func Validate(p *Pipeline) error {
	if p == nil {
		return docerrors.NewValidationError("pipeline", "pipeline is nil", nil)
	}

	v := validatorInstance()
	if err := v.Struct(p); err != nil {
		return convertValidationError(err)
	}

	switch p.ExecutionMode {
	case ModeLinear:
		if len(p.Steps) == 0 {
			return docerrors.NewValidationError("pipeline", "linear pipeline requires at least one step", nil)
		}
		if len(p.Nodes) > 0 {
			return docerrors.NewValidationError("pipeline", "linear pipeline must not declare nodes", nil)
		}
	case ModeDAG:
		if len(p.Nodes) == 0 {
			return docerrors.NewValidationError("pipeline", "dag pipeline requires at least one node", nil)
		}
		if len(p.Steps) > 0 {
			return docerrors.NewValidationError("pipeline", "dag pipeline must not declare a step list", nil)
		}
		if err := validateGraph(p.Nodes); err != nil {
			return err
		}
	}

	return nil
}

func validateGraph(nodes []Node) error {
	index := make(map[string]int, len(nodes))
	for i, node := range nodes {
		if _, exists := index[node.ID]; exists {
			return docerrors.NewValidationError(fieldForNode(i, "id"), fmt.Sprintf("duplicate node id %q", node.ID), nil)
		}
		index[node.ID] = i
	}

	for i, node := range nodes {
		for _, dep := range node.Dependencies {
			if dep == node.ID {
				return docerrors.NewValidationError(fieldForNode(i, "dependencies"), fmt.Sprintf("node %q depends on itself", node.ID), nil)
			}
			if _, ok := index[dep]; !ok {
				return docerrors.NewValidationError(fieldForNode(i, "dependencies"), fmt.Sprintf("references unknown node %q", dep), nil)
			}
		}
	}

	if cycle := detectCycle(nodes); len(cycle) > 0 {
		return docerrors.NewValidationError("nodes", fmt.Sprintf("dependency cycle detected: %s", strings.Join(cycle, " -> ")), nil)
	}

	return nil
}

func convertValidationError(err error) error {
	if err == nil {
		return nil
	}

	if ves, ok := err.(validator.ValidationErrors); ok {
		ve := ves[0]
		field := jsonishFieldName(ve)
		msg := fmt.Sprintf("%s failed validation for tag '%s'", field, ve.Tag())
		return docerrors.NewValidationError(field, msg, err)
	}

	return docerrors.NewValidationError("pipeline", err.Error(), err)
}

func jsonishFieldName(fe validator.FieldError) string {
	ns := fe.StructNamespace()
	parts := strings.Split(ns, ".")
	var lowered []string
	for _, part := range parts {
		lowered = append(lowered, strings.ToLower(part))
	}
	return strings.Join(lowered, ".")
}

func fieldForNode(index int, field string) string {
	return fmt.Sprintf("nodes[%d].%s", index, field)
}

// detectCycle walks the dependency graph depth-first and returns the first
// cycle found, or nil when the graph is acyclic. Traversal order is sorted by
// node id so the reported cycle is deterministic.
func detectCycle(nodes []Node) []string {
	graph := make(map[string][]string, len(nodes))
	for _, node := range nodes {
		graph[node.ID] = append([]string(nil), node.Dependencies...)
	}

	visiting := make(map[string]bool, len(nodes))
	visited := make(map[string]bool, len(nodes))
	var stack []string

	var cycle []string
	var dfs func(string) bool
	dfs = func(id string) bool {
		visiting[id] = true
		stack = append(stack, id)

		for _, dep := range graph[id] {
			if visited[dep] {
				continue
			}
			if visiting[dep] {
				idx := indexOf(stack, dep)
				if idx >= 0 {
					cycle = append([]string{}, stack[idx:]...)
					cycle = append(cycle, dep)
				}
				return true
			}
			if dfs(dep) {
				return true
			}
		}

		visiting[id] = false
		visited[id] = true
		stack = stack[:len(stack)-1]
		return false
	}

	ids := make([]string, 0, len(graph))
	for id := range graph {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if visited[id] {
			continue
		}
		if dfs(id) {
			break
		}
	}

	return cycle
}

func indexOf(slice []string, target string) int {
	for i, v := range slice {
		if v == target {
			return i
		}
	}
	return -1
}
