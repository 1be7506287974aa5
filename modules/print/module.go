// Package print provides the debug log node and function.
package print

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/specialistvlad/ceresflow/internal/ctxlog"
	"github.com/specialistvlad/ceresflow/internal/flow"
	"github.com/specialistvlad/ceresflow/internal/port"
	"github.com/specialistvlad/ceresflow/internal/registry"
)

// Module implements the registry.Module interface for this package. Output
// goes to Out, or to stdout when Out is nil.
type Module struct {
	Out io.Writer
	mu  sync.Mutex
}

func (m *Module) print(ctx context.Context, message any) {
	ctxlog.FromContext(ctx).Info("🖨️ Debug log", "message", message)

	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.Out
	if out == nil {
		out = os.Stdout
	}
	if message == nil {
		fmt.Fprintln(out, "      (null)")
		return
	}
	fmt.Fprintf(out, "      %v\n", message)
}

// LogNode prints its "message" input.
type LogNode struct {
	flow.Base
	m       *Module
	Message port.Port[any]
	Then    flow.NodePort
}

func (n *LogNode) Execute(ctx context.Context, ec *flow.ExecutionContext) error {
	n.m.print(ctxlog.WithLogger(ctx, ec.Logger()), n.Message.Value())
	ec.Next(&n.Then)
	return nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterNode(&flow.Descriptor{
		TypeName:    "debug.log",
		Category:    "debug",
		Executable:  true,
		Description: "Prints a value.",
		New:         func() flow.Node { return &LogNode{m: m} },
		Ports: []flow.PortSpec{
			flow.Input("message", func(n *LogNode) *port.Port[any] { return &n.Message }),
			flow.Exec("then", func(n *LogNode) *flow.NodePort { return &n.Then }),
		},
	})
	r.RegisterAlias("print", "debug.log")
	registry.Func1(r, "Debug", "Log", func(ctx context.Context, message any) (any, error) {
		m.print(ctx, message)
		return nil, nil
	})
}
