package registry

import (
	"sort"

	"github.com/specialistvlad/ceresflow/internal/flow"
)

// Module is the interface that all node and function libraries implement to
// be registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds all the registered node types, functions, properties and
// variable types for a single application instance.
type Registry struct {
	nodes         map[string]*flow.Descriptor
	aliases       map[string]string
	functions     map[FunctionKey]*Function
	properties    map[PropertyKey]*Property
	variableTypes map[string]VariableFactory
}

var _ flow.MemberResolver = (*Registry)(nil)

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		nodes:         make(map[string]*flow.Descriptor),
		aliases:       make(map[string]string),
		functions:     make(map[FunctionKey]*Function),
		properties:    make(map[PropertyKey]*Property),
		variableTypes: make(map[string]VariableFactory),
	}
}

// Load registers every module.
func (r *Registry) Load(modules ...Module) *Registry {
	for _, m := range modules {
		m.Register(r)
	}
	return r
}

// maxAliasHops bounds alias resolution so a misconfigured alias loop cannot
// hang the compiler.
const maxAliasHops = 8

// Node resolves a node type name, following aliases.
func (r *Registry) Node(typeName string) (*flow.Descriptor, bool) {
	name := typeName
	for i := 0; i <= maxAliasHops; i++ {
		if d, ok := r.nodes[name]; ok {
			return d, true
		}
		next, ok := r.aliases[name]
		if !ok {
			return nil, false
		}
		name = next
	}
	return nil, false
}

// NodeTypes returns the registered node type names, sorted.
func (r *Registry) NodeTypes() []string {
	names := make([]string, 0, len(r.nodes))
	for name := range r.nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// VariableType returns the factory for a variable type name.
func (r *Registry) VariableType(name string) (VariableFactory, bool) {
	f, ok := r.variableTypes[name]
	return f, ok
}

// VariableTypes returns the registered variable type names, sorted.
func (r *Registry) VariableTypes() []string {
	names := make([]string, 0, len(r.variableTypes))
	for name := range r.variableTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
