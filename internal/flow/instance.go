package flow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/specialistvlad/ceresflow/internal/ctxlog"
	"github.com/specialistvlad/ceresflow/internal/graphdata"
	"github.com/specialistvlad/ceresflow/internal/variable"
)

// Compiler turns serialized graph data into a live graph.
type Compiler interface {
	Compile(ctx context.Context, data *graphdata.FlowGraphData) (*Graph, error)
}

// Container owns a graph on behalf of a host object.
type Container interface {
	FlowGraph() *Graph
	SetGraphData(data *graphdata.FlowGraphData)
	Object() any
}

// Instance is the standard Container. The current graph can be replaced at
// any time; traversals already running keep using the graph they started on.
type Instance struct {
	object any
	scope  *variable.Scope

	mu    sync.Mutex
	data  *graphdata.FlowGraphData
	graph atomic.Pointer[Graph]
}

var _ Container = (*Instance)(nil)

// NewInstance returns an instance with no compiled graph. When scope is not
// nil, each compiled blackboard is bound under it.
func NewInstance(object any, data *graphdata.FlowGraphData, scope *variable.Scope) *Instance {
	return &Instance{object: object, data: data, scope: scope}
}

func (i *Instance) Object() any { return i.object }

// FlowGraph returns the current graph, or nil before the first compile.
func (i *Instance) FlowGraph() *Graph { return i.graph.Load() }

func (i *Instance) GraphData() *graphdata.FlowGraphData {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.data
}

// SetGraphData replaces the data used by the next Compile.
func (i *Instance) SetGraphData(data *graphdata.FlowGraphData) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.data = data
}

// Compile builds a graph from the current data and swaps it in. On failure
// the previous graph stays in place.
func (i *Instance) Compile(ctx context.Context, c Compiler) error {
	data := i.GraphData()
	if data == nil {
		return errors.New("instance has no graph data")
	}
	g, err := c.Compile(ctx, data)
	if err != nil {
		return fmt.Errorf("compile graph %q: %w", data.Name, err)
	}
	if i.scope != nil {
		if err := g.Blackboard().BindParent(i.scope); err != nil {
			return fmt.Errorf("bind blackboard of graph %q: %w", data.Name, err)
		}
	}
	i.ReplaceGraph(g)
	ctxlog.FromContext(ctx).Debug("Graph compiled.", "graph", data.Name, "nodes", len(g.nodes), "events", g.Events())
	return nil
}

// ReplaceGraph atomically installs g and returns the graph it replaced.
func (i *Instance) ReplaceGraph(g *Graph) *Graph {
	return i.graph.Swap(g)
}

// TryExecuteEvent runs the named event on the current graph. An instance
// with no graph handles no events.
func (i *Instance) TryExecuteEvent(ctx context.Context, event string, args ...any) (bool, error) {
	g := i.FlowGraph()
	if g == nil {
		return false, nil
	}
	return g.TryExecuteEvent(ctx, i.object, event, args...)
}

// GetExecutionContext returns a traversal running on the current graph, or
// nil.
func (i *Instance) GetExecutionContext() *ExecutionContext {
	g := i.FlowGraph()
	if g == nil {
		return nil
	}
	return g.ExecutionContext()
}

// Dispose drops the current graph and unbinds its blackboard.
func (i *Instance) Dispose() {
	if g := i.graph.Swap(nil); g != nil {
		g.Blackboard().Dispose()
	}
}
