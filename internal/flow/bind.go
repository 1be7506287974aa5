package flow

import (
	"context"
	"fmt"
	"reflect"

	"github.com/specialistvlad/ceresflow/internal/graphdata"
	"github.com/specialistvlad/ceresflow/internal/variable"
	"github.com/zclconf/go-cty/cty"
)

// SubGraphProperty is the node property naming the sub-graph a node calls.
// The compiler reads it to order sub-graphs and reject call cycles.
const SubGraphProperty = "subgraph"

// Invoker calls a registered function with already evaluated arguments.
type Invoker func(ctx context.Context, args []any) (any, error)

// Accessor reads and writes a registered property of a host object.
type Accessor struct {
	Type reflect.Type
	Get  func(object any) (any, error)
	Set  func(object any, value any) error
}

// MemberResolver finds the functions and properties nodes bind to.
type MemberResolver interface {
	ResolveFunction(owner, name string, arity int) (Invoker, error)
	ResolveProperty(owner, name string) (Accessor, error)
}

// BindContext is handed to Binder nodes while their graph is compiled. The
// graph's blackboard and sub-graphs are already in place; events are not.
type BindContext struct {
	Node    Node
	Record  *graphdata.NodeRecord
	Graph   *Graph
	Members MemberResolver
}

// Property returns the raw value of a node property, or cty.NilVal.
func (bc *BindContext) Property(name string) cty.Value {
	if bc.Record == nil {
		return cty.NilVal
	}
	return bc.Record.Property(name)
}

// HasProperty reports whether the property is set to a non-null value.
func (bc *BindContext) HasProperty(name string) bool {
	v := bc.Property(name)
	return v != cty.NilVal && !v.IsNull()
}

// String returns a required, non-empty string property.
func (bc *BindContext) String(name string) (string, error) {
	if !bc.HasProperty(name) {
		return "", fmt.Errorf("property %q is required", name)
	}
	s, err := PropertyAs[string](bc, name)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", fmt.Errorf("property %q must not be empty", name)
	}
	return s, nil
}

// Blackboard is the scope of the graph being compiled.
func (bc *BindContext) Blackboard() *variable.Scope {
	return bc.Graph.Blackboard()
}

// Variable looks up a variable visible from the graph being compiled.
func (bc *BindContext) Variable(name string) (variable.Variable, error) {
	v, ok := bc.Blackboard().Lookup(name)
	if !ok {
		return nil, fmt.Errorf("variable %q is not declared in graph %q", name, bc.Graph.Name())
	}
	return v, nil
}

// SubGraph returns a compiled sub-graph of the graph being compiled.
func (bc *BindContext) SubGraph(name string) (*Graph, error) {
	sub, ok := bc.Graph.SubGraph(name)
	if !ok {
		return nil, fmt.Errorf("sub-graph %q not found in graph %q", name, bc.Graph.Name())
	}
	return sub, nil
}

// PropertyAs decodes a required property into T.
func PropertyAs[T any](bc *BindContext, name string) (T, error) {
	var zero T
	if !bc.HasProperty(name) {
		return zero, fmt.Errorf("property %q is required", name)
	}
	v, err := graphdata.DecodeAs[T](bc.Property(name))
	if err != nil {
		return zero, fmt.Errorf("property %q: %w", name, err)
	}
	return v, nil
}

// PropertyOr decodes an optional property into T, returning def when it is
// not set.
func PropertyOr[T any](bc *BindContext, name string, def T) (T, error) {
	if !bc.HasProperty(name) {
		return def, nil
	}
	return PropertyAs[T](bc, name)
}
