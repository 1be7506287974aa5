package registry

import (
	"fmt"
	"log/slog"
	"reflect"

	"github.com/specialistvlad/ceresflow/internal/flow"
	"github.com/specialistvlad/ceresflow/internal/graphdata"
	"github.com/specialistvlad/ceresflow/internal/variable"
	"github.com/zclconf/go-cty/cty"
)

// FunctionKey identifies a registered function. Overloads differ by arity.
type FunctionKey struct {
	Owner string
	Name  string
	Arity int
}

func (k FunctionKey) String() string {
	return fmt.Sprintf("%s.%s/%d", k.Owner, k.Name, k.Arity)
}

// Function is a registered callable.
type Function struct {
	Owner  string
	Name   string
	Params []reflect.Type
	Result reflect.Type
	Invoke flow.Invoker
}

func (f *Function) Key() FunctionKey {
	return FunctionKey{Owner: f.Owner, Name: f.Name, Arity: len(f.Params)}
}

// PropertyKey identifies a registered property.
type PropertyKey struct {
	Owner string
	Name  string
}

func (k PropertyKey) String() string {
	return k.Owner + "." + k.Name
}

// Property is a registered accessor on a host object type.
type Property struct {
	Owner    string
	Name     string
	Accessor flow.Accessor
}

// VariableFactory creates a blackboard variable from its declaration.
type VariableFactory func(name string, def cty.Value, flags variable.Flags) (variable.Variable, error)

// RegisterNode registers a node type.
func (r *Registry) RegisterNode(d *flow.Descriptor) {
	if d == nil || d.TypeName == "" || d.New == nil {
		panic("node descriptor must have a type name and a constructor")
	}
	if _, exists := r.nodes[d.TypeName]; exists {
		panic(fmt.Sprintf("node type '%s' already registered", d.TypeName))
	}
	slog.Debug("Registering node type.", "type", d.TypeName)
	r.nodes[d.TypeName] = d
}

// RegisterAlias makes a retired type name resolve to its replacement.
func (r *Registry) RegisterAlias(oldName, newName string) {
	if _, exists := r.nodes[oldName]; exists {
		panic(fmt.Sprintf("cannot alias '%s': it is a registered node type", oldName))
	}
	if _, exists := r.aliases[oldName]; exists {
		panic(fmt.Sprintf("alias '%s' already registered", oldName))
	}
	slog.Debug("Registering node type alias.", "alias", oldName, "type", newName)
	r.aliases[oldName] = newName
}

// RegisterFunction registers a callable under its owner, name and arity.
func (r *Registry) RegisterFunction(f *Function) {
	key := f.Key()
	if _, exists := r.functions[key]; exists {
		panic(fmt.Sprintf("function '%s' already registered", key))
	}
	slog.Debug("Registering function.", "function", key.String())
	r.functions[key] = f
}

// RegisterProperty registers an accessor under its owner and name.
func (r *Registry) RegisterProperty(p *Property) {
	key := PropertyKey{Owner: p.Owner, Name: p.Name}
	if _, exists := r.properties[key]; exists {
		panic(fmt.Sprintf("property '%s' already registered", key))
	}
	slog.Debug("Registering property.", "property", key.String())
	r.properties[key] = p
}

// RegisterVariableType registers a factory for a variable type name.
func (r *Registry) RegisterVariableType(name string, factory VariableFactory) {
	if _, exists := r.variableTypes[name]; exists {
		panic(fmt.Sprintf("variable type '%s' already registered", name))
	}
	slog.Debug("Registering variable type.", "type", name)
	r.variableTypes[name] = factory
}

// VariableOf registers a variable type backed by variable.Var[T]. Defaults
// are decoded from their serialized form.
func VariableOf[T any](r *Registry, name string) {
	r.RegisterVariableType(name, func(varName string, def cty.Value, flags variable.Flags) (variable.Variable, error) {
		value, err := graphdata.DecodeAs[T](def)
		if err != nil {
			return nil, fmt.Errorf("default of variable %q: %w", varName, err)
		}
		return variable.New(varName, value, flags), nil
	})
}
