// Package core provides the built-in node library: events, literals, control
// flow, arrays, variables, properties, function calls and sub-graphs.
package core

import (
	"fmt"

	"github.com/specialistvlad/ceresflow/internal/registry"
)

// Lifecycle event names fired by hosts.
const (
	EventAwake   = "Awake"
	EventStart   = "Start"
	EventDestroy = "OnDestroy"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers every core node type and the basic variable types.
func (m *Module) Register(r *registry.Registry) {
	registerEvents(r)
	registerLiterals(r)
	registerControl(r)
	registerArrays(r)
	registerVariables(r)
	registerMembers(r)
	registerSubGraphs(r)

	registry.VariableOf[int](r, "int")
	registry.VariableOf[float64](r, "float")
	registry.VariableOf[string](r, "string")
	registry.VariableOf[bool](r, "bool")
	registry.VariableOf[any](r, "any")
}

// portArrays allocates the named variable-length ports of a node.
type portArrays map[string]func(length int)

func (p portArrays) allocate(name string, length int) error {
	alloc, ok := p[name]
	if !ok {
		return fmt.Errorf("unknown port array %q", name)
	}
	alloc(length)
	return nil
}
