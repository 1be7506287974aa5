package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/specialistvlad/ceresflow/internal/ctxlog"
)

// MaxCallDepth bounds nested sub-graph calls.
const MaxCallDepth = 64

// ErrCallDepth is returned when a sub-graph call would exceed MaxCallDepth.
var ErrCallDepth = errors.New("sub-graph call depth exceeded")

// NodeError wraps a failure raised by a node's Execute.
type NodeError struct {
	GUID     uuid.UUID
	TypeName string
	Err      error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %s (%s): %v", e.GUID, e.TypeName, e.Err)
}

func (e *NodeError) Unwrap() error { return e.Err }

// ExecutionContext is the cursor of one traversal.
type ExecutionContext struct {
	graph   *Graph
	object  any
	event   string
	args    []any
	parent  *ExecutionContext
	depth   int
	current Node
	next    Node
	result  any
	logger  *slog.Logger
}

func newExecutionContext(ctx context.Context, g *Graph, object any, event string, args []any, parent *ExecutionContext) *ExecutionContext {
	ec := &ExecutionContext{
		graph:  g,
		object: object,
		event:  event,
		args:   args,
		parent: parent,
	}
	if parent != nil {
		ec.depth = parent.depth + 1
	}
	ec.logger = ctxlog.FromContext(ctx).With("graph", g.Name(), "event", event, "depth", ec.depth)
	return ec
}

// Object returns the object the traversal runs on behalf of.
func (ec *ExecutionContext) Object() any { return ec.object }

func (ec *ExecutionContext) Graph() *Graph { return ec.graph }

func (ec *ExecutionContext) Event() string { return ec.event }

func (ec *ExecutionContext) Args() []any { return ec.args }

// Parent is the calling context of a sub-graph call, nil otherwise.
func (ec *ExecutionContext) Parent() *ExecutionContext { return ec.parent }

func (ec *ExecutionContext) Depth() int { return ec.depth }

// Current is the node being executed.
func (ec *ExecutionContext) Current() Node { return ec.current }

// Logger returns a logger scoped to the current node.
func (ec *ExecutionContext) Logger() *slog.Logger {
	if ec.current == nil {
		return ec.logger
	}
	return ec.logger.With("node", ec.current.GUID().String(), "type", ec.current.TypeName())
}

// SetNext selects the node that runs after the current one. nil ends the
// chain.
func (ec *ExecutionContext) SetNext(n Node) {
	ec.next = n
}

// Next selects the target of a control port. An unconnected port ends the
// chain.
func (ec *ExecutionContext) Next(p *NodePort) {
	ec.next = p.Get(ec.graph)
}

// SetResult records the value a sub-graph call returns.
func (ec *ExecutionContext) SetResult(v any) {
	ec.result = v
}

func (ec *ExecutionContext) Result() any { return ec.result }

// Forward runs the chain starting at n to completion and then resumes the
// caller where it was. Loops use it to run their body once per iteration.
func (ec *ExecutionContext) Forward(ctx context.Context, n Node) error {
	if n == nil {
		return nil
	}
	current, next := ec.current, ec.next
	defer func() {
		ec.current, ec.next = current, next
	}()
	return ec.run(ctx, n)
}

// ForwardPort is Forward for the target of a control port.
func (ec *ExecutionContext) ForwardPort(ctx context.Context, p *NodePort) error {
	return ec.Forward(ctx, p.Get(ec.graph))
}

// Call runs sub from its function entry node in a child context and returns
// the value recorded by its return node. The child shares only the object
// with its caller.
func (ec *ExecutionContext) Call(ctx context.Context, sub *Graph, args ...any) (any, error) {
	if sub == nil {
		return nil, errors.New("call of a nil sub-graph")
	}
	if ec.depth+1 > MaxCallDepth {
		return nil, fmt.Errorf("call %q: %w", sub.Name(), ErrCallDepth)
	}
	entry := sub.FunctionEntry()
	if entry == nil {
		return nil, fmt.Errorf("sub-graph %q has no function entry", sub.Name())
	}

	child := newExecutionContext(ctx, sub, ec.object, sub.Name(), args, ec)
	sub.track(child)
	defer sub.untrack(child)

	if acceptor, ok := entry.(ArgsAcceptor); ok {
		if err := acceptor.AcceptArgs(args); err != nil {
			return nil, &NodeError{GUID: entry.GUID(), TypeName: entry.TypeName(), Err: err}
		}
	}
	if err := child.run(ctx, entry); err != nil {
		return nil, err
	}
	return child.result, nil
}

func (ec *ExecutionContext) run(ctx context.Context, start Node) error {
	for n := start; n != nil; n = ec.next {
		if err := ctx.Err(); err != nil {
			return err
		}
		ec.current = n
		ec.next = nil
		if err := ec.evaluate(ctx, n); err != nil {
			return err
		}
		ec.logger.Debug("Executing node.", "node", n.GUID().String(), "type", n.TypeName())
		if err := n.Execute(ctx, ec); err != nil {
			return wrapNodeError(n, err)
		}
	}
	return nil
}

// evaluate executes the pure nodes n reads from, directly or through other
// pure nodes, so that their outputs are current when n runs. Each of them
// runs once per step, after the pure nodes it reads from.
func (ec *ExecutionContext) evaluate(ctx context.Context, n Node) error {
	if len(ec.graph.Dependencies(n.GUID())) == 0 {
		return nil
	}
	current, next := ec.current, ec.next
	defer func() {
		ec.current, ec.next = current, next
	}()
	return ec.evaluateOnce(ctx, n, make(map[uuid.UUID]struct{}))
}

func (ec *ExecutionContext) evaluateOnce(ctx context.Context, n Node, done map[uuid.UUID]struct{}) error {
	for _, dep := range ec.graph.Dependencies(n.GUID()) {
		if _, ok := done[dep.GUID()]; ok {
			continue
		}
		done[dep.GUID()] = struct{}{}
		if err := ec.evaluateOnce(ctx, dep, done); err != nil {
			return err
		}
		ec.current = dep
		if err := dep.Execute(ctx, ec); err != nil {
			return wrapNodeError(dep, err)
		}
	}
	return nil
}

func wrapNodeError(n Node, err error) error {
	var nodeErr *NodeError
	if errors.As(err, &nodeErr) {
		return err
	}
	return &NodeError{GUID: n.GUID(), TypeName: n.TypeName(), Err: err}
}
