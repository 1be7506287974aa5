package flow

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/specialistvlad/ceresflow/internal/ctxlog"
	"github.com/specialistvlad/ceresflow/internal/portaddr"
	"github.com/specialistvlad/ceresflow/internal/variable"
)

// Edge is a resolved connection between two node ports.
type Edge struct {
	From portaddr.Address
	To   portaddr.Address
}

// Graph is a compiled flow graph. Its structure is fixed once the compiler
// returns it; only the set of in-flight execution contexts changes.
type Graph struct {
	name       string
	nodes      []Node
	index      map[uuid.UUID]int
	events     map[string]Node
	blackboard *variable.Scope
	subGraphs  map[string]*Graph
	entry      Node
	ret        Node
	edges      []Edge
	// deps lists, per consumer, the arena slots of the pure nodes it reads.
	deps map[uuid.UUID][]int

	mu       sync.Mutex
	inFlight map[*ExecutionContext]struct{}
}

// NewGraph returns an empty graph. A nil blackboard is replaced by an empty
// scope named after the graph.
func NewGraph(name string, blackboard *variable.Scope) *Graph {
	if blackboard == nil {
		blackboard = variable.NewScope(name, nil)
	}
	return &Graph{
		name:       name,
		index:      make(map[uuid.UUID]int),
		events:     make(map[string]Node),
		blackboard: blackboard,
		subGraphs:  make(map[string]*Graph),
		deps:       make(map[uuid.UUID][]int),
		inFlight:   make(map[*ExecutionContext]struct{}),
	}
}

func (g *Graph) Name() string { return g.name }

// AddNode appends n to the arena and returns its slot.
func (g *Graph) AddNode(n Node) (int, error) {
	if _, exists := g.index[n.GUID()]; exists {
		return -1, fmt.Errorf("node %s already exists in graph %q", n.GUID(), g.name)
	}
	g.nodes = append(g.nodes, n)
	slot := len(g.nodes) - 1
	g.index[n.GUID()] = slot
	return slot, nil
}

// Node returns the node with the given GUID, or nil.
func (g *Graph) Node(guid uuid.UUID) Node {
	slot, ok := g.index[guid]
	if !ok {
		return nil
	}
	return g.nodes[slot]
}

// Slot returns the arena slot of a node.
func (g *Graph) Slot(guid uuid.UUID) (int, bool) {
	slot, ok := g.index[guid]
	return slot, ok
}

// Nodes returns the nodes in arena order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

func (g *Graph) AddEdge(e Edge) {
	g.edges = append(g.edges, e)
}

// Topology returns the edges sorted by source then target address. Two
// compilations of the same data have equal topologies.
func (g *Graph) Topology() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].From.Equal(out[j].From) {
			return out[i].From.Less(out[j].From)
		}
		return out[i].To.Less(out[j].To)
	})
	return out
}

// AddDependency records that consumer reads an output of the pure node
// source. Pure nodes are executed on demand right before their consumers.
func (g *Graph) AddDependency(consumer, source uuid.UUID) error {
	slot, ok := g.index[source]
	if !ok {
		return fmt.Errorf("dependency source %s is not part of graph %q", source, g.name)
	}
	for _, existing := range g.deps[consumer] {
		if existing == slot {
			return nil
		}
	}
	g.deps[consumer] = append(g.deps[consumer], slot)
	return nil
}

// Dependencies returns the pure nodes read by consumer, in the order they
// were added.
func (g *Graph) Dependencies(consumer uuid.UUID) []Node {
	slots := g.deps[consumer]
	out := make([]Node, len(slots))
	for i, slot := range slots {
		out[i] = g.nodes[slot]
	}
	return out
}

// RegisterEvent makes n the entry node of the named event.
func (g *Graph) RegisterEvent(name string, n Node) error {
	if name == "" {
		return fmt.Errorf("node %s declares an empty event name", n.GUID())
	}
	if existing, ok := g.events[name]; ok {
		return fmt.Errorf("event %q is already handled by node %s", name, existing.GUID())
	}
	g.events[name] = n
	return nil
}

// Event returns the entry node of the named event.
func (g *Graph) Event(name string) (Node, bool) {
	n, ok := g.events[name]
	return n, ok
}

// Events returns the registered event names, sorted.
func (g *Graph) Events() []string {
	names := make([]string, 0, len(g.events))
	for name := range g.events {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Blackboard is the graph's own variable scope.
func (g *Graph) Blackboard() *variable.Scope { return g.blackboard }

func (g *Graph) AddSubGraph(name string, sub *Graph) error {
	if _, exists := g.subGraphs[name]; exists {
		return fmt.Errorf("sub-graph %q already exists in graph %q", name, g.name)
	}
	g.subGraphs[name] = sub
	return nil
}

func (g *Graph) SubGraph(name string) (*Graph, bool) {
	sub, ok := g.subGraphs[name]
	return sub, ok
}

// SubGraphSlots returns the named sub-graphs callable from g.
func (g *Graph) SubGraphSlots() map[string]*Graph {
	out := make(map[string]*Graph, len(g.subGraphs))
	for name, sub := range g.subGraphs {
		out[name] = sub
	}
	return out
}

// SetFunction records the entry and return nodes of a graph used as a
// sub-graph. ret may be nil for functions that return nothing.
func (g *Graph) SetFunction(entry, ret Node) {
	g.entry = entry
	g.ret = ret
}

func (g *Graph) FunctionEntry() Node  { return g.entry }
func (g *Graph) FunctionReturn() Node { return g.ret }

// TryExecuteEvent runs the chain of the named event. It reports false, and
// runs nothing, when the graph has no entry node for the event. Execution
// happens on the calling goroutine and ends with the first node error.
func (g *Graph) TryExecuteEvent(ctx context.Context, object any, event string, args ...any) (bool, error) {
	entry, ok := g.events[event]
	if !ok {
		ctxlog.FromContext(ctx).Debug("No entry node for event.", "graph", g.name, "event", event)
		return false, nil
	}

	ec := newExecutionContext(ctx, g, object, event, args, nil)
	g.track(ec)
	defer g.untrack(ec)

	if acceptor, ok := entry.(ArgsAcceptor); ok {
		if err := acceptor.AcceptArgs(args); err != nil {
			return true, &NodeError{GUID: entry.GUID(), TypeName: entry.TypeName(), Err: err}
		}
	}
	return true, ec.run(ctx, entry)
}

// ExecutionContext returns one of the traversals currently running on g,
// or nil when g is idle.
func (g *Graph) ExecutionContext() *ExecutionContext {
	g.mu.Lock()
	defer g.mu.Unlock()
	for ec := range g.inFlight {
		return ec
	}
	return nil
}

// InFlight returns the number of traversals currently running on g.
func (g *Graph) InFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.inFlight)
}

func (g *Graph) track(ec *ExecutionContext) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.inFlight[ec] = struct{}{}
}

func (g *Graph) untrack(ec *ExecutionContext) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inFlight, ec)
}
