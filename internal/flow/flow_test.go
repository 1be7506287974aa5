package flow

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/specialistvlad/ceresflow/internal/graphdata"
	"github.com/specialistvlad/ceresflow/internal/port"
	"github.com/specialistvlad/ceresflow/internal/variable"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordNode struct {
	Base
	name string
	log  *[]string
	err  error
	seen *ExecutionContext
	Then NodePort
}

func (n *recordNode) Execute(_ context.Context, ec *ExecutionContext) error {
	*n.log = append(*n.log, n.name)
	n.seen = ec.Graph().ExecutionContext()
	if n.err != nil {
		return n.err
	}
	ec.Next(&n.Then)
	return nil
}

type argsNode struct {
	recordNode
	args []any
}

func (n *argsNode) AcceptArgs(args []any) error {
	if len(args) > 0 && args[0] == "reject" {
		return errors.New("rejected")
	}
	n.args = args
	return nil
}

type repeatNode struct {
	Base
	times int
	Body  NodePort
	Done  NodePort
}

func (n *repeatNode) Execute(ctx context.Context, ec *ExecutionContext) error {
	for i := 0; i < n.times; i++ {
		if err := ec.ForwardPort(ctx, &n.Body); err != nil {
			return err
		}
	}
	ec.Next(&n.Done)
	return nil
}

func add(t *testing.T, g *Graph, n Node) int {
	t.Helper()
	Init(n, uuid.New(), "test.node", graphdata.Position{})
	slot, err := g.AddNode(n)
	require.NoError(t, err)
	return slot
}

func connect(g *Graph, from *NodePort, to Node) {
	slot, _ := g.Slot(to.GUID())
	from.Connect(to.GUID(), slot)
}

func TestGraph_TryExecuteEvent_MissingEvent(t *testing.T) {
	var log []string
	g := NewGraph("main", nil)
	n := &recordNode{name: "a", log: &log}
	add(t, g, n)
	require.NoError(t, g.RegisterEvent("Start", n))

	handled, err := g.TryExecuteEvent(context.Background(), nil, "Update")
	require.NoError(t, err)
	assert.False(t, handled)
	assert.Empty(t, log)
}

func TestGraph_TryExecuteEvent_RunsChain(t *testing.T) {
	var log []string
	g := NewGraph("main", nil)
	entry := &argsNode{recordNode: recordNode{name: "entry", log: &log}}
	b := &recordNode{name: "b", log: &log}
	c := &recordNode{name: "c", log: &log}
	add(t, g, entry)
	add(t, g, b)
	add(t, g, c)
	connect(g, &entry.Then, b)
	connect(g, &b.Then, c)
	require.NoError(t, g.RegisterEvent("Start", entry))

	owner := struct{ name string }{"player"}
	handled, err := g.TryExecuteEvent(context.Background(), owner, "Start", 1, "two")
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, []string{"entry", "b", "c"}, log)
	assert.Equal(t, []any{1, "two"}, entry.args)

	require.NotNil(t, c.seen, "in-flight context is visible while running")
	assert.Equal(t, owner, c.seen.Object())
	assert.Equal(t, "Start", c.seen.Event())
	assert.Nil(t, g.ExecutionContext())
	assert.Equal(t, 0, g.InFlight())
}

func TestGraph_TryExecuteEvent_Errors(t *testing.T) {
	t.Run("node error stops the chain", func(t *testing.T) {
		var log []string
		g := NewGraph("main", nil)
		a := &recordNode{name: "a", log: &log}
		b := &recordNode{name: "b", log: &log, err: errors.New("boom")}
		c := &recordNode{name: "c", log: &log}
		add(t, g, a)
		add(t, g, b)
		add(t, g, c)
		connect(g, &a.Then, b)
		connect(g, &b.Then, c)
		require.NoError(t, g.RegisterEvent("Start", a))

		handled, err := g.TryExecuteEvent(context.Background(), nil, "Start")
		assert.True(t, handled)
		var nodeErr *NodeError
		require.ErrorAs(t, err, &nodeErr)
		assert.Equal(t, b.GUID(), nodeErr.GUID)
		assert.EqualError(t, nodeErr.Err, "boom")
		assert.Equal(t, []string{"a", "b"}, log)
	})

	t.Run("rejected arguments", func(t *testing.T) {
		var log []string
		g := NewGraph("main", nil)
		entry := &argsNode{recordNode: recordNode{name: "entry", log: &log}}
		add(t, g, entry)
		require.NoError(t, g.RegisterEvent("Start", entry))

		handled, err := g.TryExecuteEvent(context.Background(), nil, "Start", "reject")
		assert.True(t, handled)
		var nodeErr *NodeError
		assert.ErrorAs(t, err, &nodeErr)
		assert.Empty(t, log)
	})

	t.Run("cancelled context", func(t *testing.T) {
		var log []string
		g := NewGraph("main", nil)
		a := &recordNode{name: "a", log: &log}
		add(t, g, a)
		require.NoError(t, g.RegisterEvent("Start", a))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := g.TryExecuteEvent(ctx, nil, "Start")
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, log)
	})
}

func TestExecutionContext_ForwardRestoresCursor(t *testing.T) {
	var log []string
	g := NewGraph("main", nil)
	loop := &repeatNode{times: 3}
	body1 := &recordNode{name: "body1", log: &log}
	body2 := &recordNode{name: "body2", log: &log}
	done := &recordNode{name: "done", log: &log}
	add(t, g, loop)
	add(t, g, body1)
	add(t, g, body2)
	add(t, g, done)
	connect(g, &loop.Body, body1)
	connect(g, &body1.Then, body2)
	connect(g, &loop.Done, done)
	require.NoError(t, g.RegisterEvent("Start", loop))

	_, err := g.TryExecuteEvent(context.Background(), nil, "Start")
	require.NoError(t, err)
	assert.Equal(t, []string{"body1", "body2", "body1", "body2", "body1", "body2", "done"}, log)
}

type returnNode struct {
	Base
	entry *argsNode
}

func (n *returnNode) Execute(_ context.Context, ec *ExecutionContext) error {
	ec.SetResult(n.entry.args[0].(int) * 2)
	return nil
}

type callNode struct {
	Base
	sub  *Graph
	arg  any
	got  any
	Then NodePort
}

func (n *callNode) Execute(ctx context.Context, ec *ExecutionContext) error {
	v, err := ec.Call(ctx, n.sub, n.arg)
	if err != nil {
		return err
	}
	n.got = v
	ec.Next(&n.Then)
	return nil
}

func TestExecutionContext_Call(t *testing.T) {
	var log []string
	sub := NewGraph("double", nil)
	entry := &argsNode{recordNode: recordNode{name: "sub-entry", log: &log}}
	ret := &returnNode{entry: entry}
	add(t, sub, entry)
	add(t, sub, ret)
	connect(sub, &entry.Then, ret)
	sub.SetFunction(entry, ret)

	g := NewGraph("main", nil)
	call := &callNode{sub: sub, arg: 21}
	after := &recordNode{name: "after", log: &log}
	add(t, g, call)
	add(t, g, after)
	connect(g, &call.Then, after)
	require.NoError(t, g.AddSubGraph("double", sub))
	require.NoError(t, g.RegisterEvent("Start", call))

	_, err := g.TryExecuteEvent(context.Background(), "owner", "Start")
	require.NoError(t, err)
	assert.Equal(t, 42, call.got)
	assert.Equal(t, []string{"sub-entry", "after"}, log)
	assert.Equal(t, "owner", entry.seen.Object())
	assert.Equal(t, 1, entry.seen.Depth())
	assert.Equal(t, "Start", entry.seen.Parent().Event())
	assert.Equal(t, 0, sub.InFlight())

	slots := g.SubGraphSlots()
	assert.Same(t, sub, slots["double"])
}

func TestExecutionContext_CallErrors(t *testing.T) {
	t.Run("depth limit", func(t *testing.T) {
		g := NewGraph("recursive", nil)
		var log []string
		entry := &argsNode{recordNode: recordNode{name: "entry", log: &log}}
		call := &callNode{sub: g, arg: 1}
		add(t, g, entry)
		add(t, g, call)
		connect(g, &entry.Then, call)
		g.SetFunction(entry, nil)
		require.NoError(t, g.RegisterEvent("Start", entry))

		_, err := g.TryExecuteEvent(context.Background(), nil, "Start", 1)
		assert.ErrorIs(t, err, ErrCallDepth)
		assert.Len(t, log, MaxCallDepth+1)
	})

	t.Run("no entry", func(t *testing.T) {
		g := NewGraph("main", nil)
		call := &callNode{sub: NewGraph("empty", nil)}
		add(t, g, call)
		require.NoError(t, g.RegisterEvent("Start", call))

		_, err := g.TryExecuteEvent(context.Background(), nil, "Start")
		assert.ErrorContains(t, err, "has no function entry")
	})
}

func TestGraph_Structure(t *testing.T) {
	var log []string
	g := NewGraph("main", nil)
	a := &recordNode{name: "a", log: &log}
	add(t, g, a)

	_, err := g.AddNode(a)
	assert.Error(t, err, "duplicate GUID")

	require.NoError(t, g.RegisterEvent("Start", a))
	assert.Error(t, g.RegisterEvent("Start", a))
	assert.Error(t, g.RegisterEvent("", a))
	assert.Equal(t, []string{"Start"}, g.Events())

	require.NoError(t, g.AddSubGraph("s", NewGraph("s", nil)))
	assert.Error(t, g.AddSubGraph("s", NewGraph("s", nil)))
}

func TestNodePort_Get(t *testing.T) {
	var log []string
	g := NewGraph("main", nil)
	a := &recordNode{name: "a", log: &log}
	add(t, g, a)

	var p NodePort
	assert.Nil(t, p.Get(g))
	assert.False(t, p.Connected())

	slot, _ := g.Slot(a.GUID())
	p.Connect(a.GUID(), slot)
	assert.Same(t, a, p.Get(g))

	other := NewGraph("other", nil)
	assert.Nil(t, p.Get(other), "stale port resolves to nil")

	p.Connect(uuid.New(), slot)
	assert.Nil(t, p.Get(g))

	p.Disconnect()
	assert.False(t, p.Connected())
}

type sumNode struct {
	Base
	Items []*port.Port[int]
	Out   port.Port[int]
}

func TestPortSpec(t *testing.T) {
	n := &sumNode{Items: port.MakeArray[int](2)}
	items := InputArray("items", func(n *sumNode) []*port.Port[int] { return n.Items })
	out := Output("out", func(n *sumNode) *port.Port[int] { return &n.Out })

	assert.True(t, items.Array)
	assert.Equal(t, 2, items.Len(n))
	assert.Equal(t, -1, out.Len(n))

	h, err := items.Handle(n, 1)
	require.NoError(t, err)
	require.NoError(t, h.Set(5))
	assert.Equal(t, 5, n.Items[1].Value())

	_, err = items.Handle(n, 2)
	assert.Error(t, err)
	_, err = out.Handle(n, 0)
	assert.Error(t, err)
	_, err = out.NodePort(n, -1)
	assert.Error(t, err)

	desc := &Descriptor{TypeName: "test.sum", Ports: []PortSpec{items, out}}
	spec, ok := desc.Port("out")
	require.True(t, ok)
	assert.Equal(t, DirOutput, spec.Direction)
	_, ok = desc.Port("missing")
	assert.False(t, ok)
}

type fakeCompiler struct {
	graph *Graph
	err   error
	calls int
}

func (c *fakeCompiler) Compile(context.Context, *graphdata.FlowGraphData) (*Graph, error) {
	c.calls++
	return c.graph, c.err
}

func TestInstance(t *testing.T) {
	ctx := context.Background()
	game := variable.NewScope("game", nil)
	gold := variable.New("gold", 10, 0)
	require.NoError(t, game.Add(gold))

	inst := NewInstance("player", nil, game)
	assert.Nil(t, inst.FlowGraph())
	assert.Error(t, inst.Compile(ctx, &fakeCompiler{}))

	handled, err := inst.TryExecuteEvent(ctx, "Start")
	require.NoError(t, err)
	assert.False(t, handled)
	assert.Nil(t, inst.GetExecutionContext())

	inst.SetGraphData(&graphdata.FlowGraphData{Name: "main"})

	bb := variable.NewScope("main", nil)
	shared := variable.New("gold", 0, variable.Shared)
	require.NoError(t, bb.Add(shared))
	first := NewGraph("main", bb)
	require.NoError(t, inst.Compile(ctx, &fakeCompiler{graph: first}))
	assert.Same(t, first, inst.FlowGraph())
	assert.Equal(t, 10, shared.Value())

	failing := &fakeCompiler{err: errors.New("bad data")}
	err = inst.Compile(ctx, failing)
	assert.ErrorContains(t, err, "bad data")
	assert.Same(t, first, inst.FlowGraph(), "failed compile keeps the old graph")

	second := NewGraph("main", nil)
	assert.Same(t, first, inst.ReplaceGraph(second))
	assert.Same(t, second, inst.FlowGraph())

	inst.Dispose()
	assert.Nil(t, inst.FlowGraph())
	assert.Equal(t, "player", inst.Object())
}

type doubleNode struct {
	Base
	In    port.Port[int]
	Out   port.Port[int]
	calls int
}

func (n *doubleNode) Execute(context.Context, *ExecutionContext) error {
	n.calls++
	n.Out.SetValue(n.In.Value() * 2)
	return nil
}

type readNode struct {
	Base
	In  port.Port[int]
	got []int
}

func (n *readNode) Execute(context.Context, *ExecutionContext) error {
	n.got = append(n.got, n.In.Value())
	return nil
}

func TestExecutionContext_EvaluatesPureDependencies(t *testing.T) {
	g := NewGraph("main", nil)
	first := &doubleNode{}
	second := &doubleNode{}
	reader := &readNode{}
	add(t, g, first)
	add(t, g, second)
	add(t, g, reader)

	first.In.SetValue(3)
	require.NoError(t, first.Out.Link(&second.In))
	require.NoError(t, second.Out.Link(&reader.In))
	require.NoError(t, g.AddDependency(second.GUID(), first.GUID()))
	require.NoError(t, g.AddDependency(reader.GUID(), second.GUID()))
	require.NoError(t, g.AddDependency(reader.GUID(), second.GUID()))
	assert.Error(t, g.AddDependency(reader.GUID(), uuid.New()))
	require.NoError(t, g.RegisterEvent("Start", reader))

	_, err := g.TryExecuteEvent(context.Background(), nil, "Start")
	require.NoError(t, err)
	assert.Equal(t, []int{12}, reader.got)

	first.In.SetValue(1)
	_, err = g.TryExecuteEvent(context.Background(), nil, "Start")
	require.NoError(t, err)
	assert.Equal(t, []int{12, 4}, reader.got)
	assert.Equal(t, 2, first.calls)
	assert.Len(t, g.Dependencies(reader.GUID()), 1)
}

func TestExecutionContext_EvaluatesSharedDependencyOnce(t *testing.T) {
	g := NewGraph("main", nil)
	top := &doubleNode{}
	add(t, g, top)
	nodes := []*doubleNode{top}

	// Twelve chained diamonds: join reads left and right, both read top.
	for i := 0; i < 12; i++ {
		left, right, join := &doubleNode{}, &doubleNode{}, &doubleNode{}
		add(t, g, left)
		add(t, g, right)
		add(t, g, join)
		require.NoError(t, g.AddDependency(left.GUID(), top.GUID()))
		require.NoError(t, g.AddDependency(right.GUID(), top.GUID()))
		require.NoError(t, g.AddDependency(join.GUID(), left.GUID()))
		require.NoError(t, g.AddDependency(join.GUID(), right.GUID()))
		require.NoError(t, top.Out.Link(&left.In))
		require.NoError(t, left.Out.Link(&join.In))
		nodes = append(nodes, left, right, join)
		top = join
	}
	nodes[0].In.SetValue(1)

	reader := &readNode{}
	add(t, g, reader)
	require.NoError(t, top.Out.Link(&reader.In))
	require.NoError(t, g.AddDependency(reader.GUID(), top.GUID()))
	require.NoError(t, g.RegisterEvent("Start", reader))

	_, err := g.TryExecuteEvent(context.Background(), nil, "Start")
	require.NoError(t, err)
	assert.Equal(t, []int{1 << 25}, reader.got)
	for i, n := range nodes {
		assert.Equal(t, 1, n.calls, "node %d", i)
	}

	_, err = g.TryExecuteEvent(context.Background(), nil, "Start")
	require.NoError(t, err)
	for i, n := range nodes {
		assert.Equal(t, 2, n.calls, "node %d runs once per step", i)
	}
}
