// Package compiler turns serialized graph data into a live flow.Graph.
//
// Compilation is all-or-nothing: the first failure aborts it and no graph is
// returned. Node types, functions and properties come from a registry.
package compiler

import (
	"context"
	"fmt"

	"github.com/specialistvlad/ceresflow/internal/ctxlog"
	"github.com/specialistvlad/ceresflow/internal/dag"
	"github.com/specialistvlad/ceresflow/internal/flow"
	"github.com/specialistvlad/ceresflow/internal/graphdata"
	"github.com/specialistvlad/ceresflow/internal/registry"
	"github.com/specialistvlad/ceresflow/internal/variable"
)

// Compiler compiles graphs against a registry.
type Compiler struct {
	registry *registry.Registry
}

var _ flow.Compiler = (*Compiler)(nil)

// New creates a compiler backed by reg.
func New(reg *registry.Registry) *Compiler {
	return &Compiler{registry: reg}
}

// Compile validates data and builds its graph, including every nested
// sub-graph.
func (c *Compiler) Compile(ctx context.Context, data *graphdata.FlowGraphData) (*flow.Graph, error) {
	if err := graphdata.Validate(data); err != nil {
		return nil, err
	}
	ctx, logger := ctxlog.With(ctx, "graph", data.Name)
	logger.Debug("Compiling graph.", "nodes", len(data.Nodes), "connections", len(data.Connections), "sub_graphs", len(data.SubGraphs))

	g, err := c.compile(ctx, data.Name, data, nil)
	if err != nil {
		return nil, err
	}
	logger.Debug("Finished compiling graph.", "events", g.Events())
	return g, nil
}

// compile builds one graph. inherited holds the sub-graphs declared by
// enclosing graphs, which stay callable from nested ones.
func (c *Compiler) compile(ctx context.Context, name string, data *graphdata.FlowGraphData, inherited map[string]*flow.Graph) (*flow.Graph, error) {
	blackboard, err := c.buildBlackboard(name, data.Variables)
	if err != nil {
		return nil, fmt.Errorf("graph %q: %w", name, err)
	}
	g := flow.NewGraph(name, blackboard)

	if err := c.compileSubGraphs(ctx, g, data, inherited); err != nil {
		return nil, fmt.Errorf("graph %q: %w", name, err)
	}

	nodes, err := c.instantiate(g, data.Nodes)
	if err != nil {
		return nil, fmt.Errorf("graph %q: %w", name, err)
	}
	for _, cn := range nodes {
		if err := allocateArrays(cn); err != nil {
			return nil, fmt.Errorf("graph %q: %w", name, err)
		}
	}
	for _, cn := range nodes {
		if err := bindLiterals(cn); err != nil {
			return nil, fmt.Errorf("graph %q: %w", name, err)
		}
	}

	byGUID := make(map[string]*compiledNode, len(nodes))
	pure := dag.New()
	for _, cn := range nodes {
		byGUID[cn.node.GUID().String()] = cn
		if !cn.desc.Executable {
			pure.AddNode(cn.node.GUID().String())
		}
	}
	for _, conn := range data.Connections {
		if err := connect(ctx, g, byGUID, pure, conn); err != nil {
			return nil, fmt.Errorf("graph %q: %w", name, err)
		}
	}
	if err := pure.DetectCycles(); err != nil {
		return nil, fmt.Errorf("graph %q: data cycle between pure nodes: %w", name, err)
	}

	for _, cn := range nodes {
		binder, ok := cn.node.(flow.Binder)
		if !ok {
			continue
		}
		bc := &flow.BindContext{Node: cn.node, Record: cn.record, Graph: g, Members: c.registry}
		if err := binder.Bind(bc); err != nil {
			return nil, fmt.Errorf("graph %q: %w", name, &BindingError{GUID: cn.node.GUID(), TypeName: cn.node.TypeName(), Err: err})
		}
	}

	if err := registerEntryPoints(g, nodes); err != nil {
		return nil, fmt.Errorf("graph %q: %w", name, err)
	}
	return g, nil
}

func (c *Compiler) buildBlackboard(name string, decls []graphdata.VariableData) (*variable.Scope, error) {
	scope := variable.NewScope(name, nil)
	for _, decl := range decls {
		factory, ok := c.registry.VariableType(decl.Type)
		if !ok {
			return nil, &VariableTypeError{Variable: decl.Name, Type: decl.Type}
		}
		v, err := factory(decl.Name, decl.Default, decl.Flags())
		if err != nil {
			return nil, &VariableTypeError{Variable: decl.Name, Type: decl.Type, Err: err}
		}
		if err := scope.Add(v); err != nil {
			return nil, &VariableTypeError{Variable: decl.Name, Type: decl.Type, Err: err}
		}
	}
	return scope, nil
}

// compileSubGraphs compiles the sub-graphs declared by data in call order,
// so a sub-graph can call any sibling it does not depend on indirectly.
func (c *Compiler) compileSubGraphs(ctx context.Context, g *flow.Graph, data *graphdata.FlowGraphData, inherited map[string]*flow.Graph) error {
	visible := make(map[string]*flow.Graph, len(inherited)+len(data.SubGraphs))
	for name, sub := range inherited {
		visible[name] = sub
	}

	calls := dag.New()
	own := make(map[string]*graphdata.FlowGraphData, len(data.SubGraphs))
	for _, sg := range data.SubGraphs {
		own[sg.Name] = sg.Graph
		calls.AddNode(sg.Name)
	}
	for _, sg := range data.SubGraphs {
		for _, callee := range calledSubGraphs(sg.Graph) {
			if _, ok := own[callee]; !ok {
				continue
			}
			if err := calls.AddEdge(callee, sg.Name); err != nil {
				return err
			}
		}
	}
	order, err := calls.TopologicalSort()
	if err != nil {
		return fmt.Errorf("sub-graph calls: %w", err)
	}

	for _, name := range order {
		sub, err := c.compile(ctx, name, own[name], visible)
		if err != nil {
			return fmt.Errorf("sub-graph %q: %w", name, err)
		}
		visible[name] = sub
	}
	for name, sub := range visible {
		if err := g.AddSubGraph(name, sub); err != nil {
			return err
		}
	}
	return nil
}

func calledSubGraphs(data *graphdata.FlowGraphData) []string {
	var names []string
	for i := range data.Nodes {
		v := data.Nodes[i].Property(flow.SubGraphProperty)
		if s, ok := graphdata.Native(v).(string); ok && s != "" {
			names = append(names, s)
		}
	}
	return names
}

func registerEntryPoints(g *flow.Graph, nodes []*compiledNode) error {
	var entry, ret flow.Node
	for _, cn := range nodes {
		switch cn.desc.Role {
		case flow.RoleEvent:
			ev, ok := cn.node.(flow.EventNode)
			if !ok {
				return &BindingError{GUID: cn.node.GUID(), TypeName: cn.node.TypeName(), Err: fmt.Errorf("event node has no event name")}
			}
			if err := g.RegisterEvent(ev.EventName(), cn.node); err != nil {
				return &BindingError{GUID: cn.node.GUID(), TypeName: cn.node.TypeName(), Err: err}
			}
		case flow.RoleFunctionEntry:
			if entry != nil {
				return &BindingError{GUID: cn.node.GUID(), TypeName: cn.node.TypeName(), Err: fmt.Errorf("graph already has function entry %s", entry.GUID())}
			}
			entry = cn.node
		case flow.RoleFunctionReturn:
			if ret != nil {
				return &BindingError{GUID: cn.node.GUID(), TypeName: cn.node.TypeName(), Err: fmt.Errorf("graph already has function return %s", ret.GUID())}
			}
			ret = cn.node
		}
	}
	if entry != nil {
		g.SetFunction(entry, ret)
	}
	return nil
}
