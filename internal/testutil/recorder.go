package testutil

import (
	"context"
	"sync"

	"github.com/specialistvlad/ceresflow/internal/flow"
	"github.com/specialistvlad/ceresflow/internal/port"
	"github.com/specialistvlad/ceresflow/internal/registry"
)

// RecordType is the node type registered by Recorder.
const RecordType = "test.record"

// Recorder is a module providing a "test.record" node that appends the value
// of its "value" input to Values each time it runs.
type Recorder struct {
	mu     sync.Mutex
	values []any
}

type recordNode struct {
	flow.Base
	rec   *Recorder
	Value port.Port[any]
	Then  flow.NodePort
}

func (n *recordNode) Execute(_ context.Context, ec *flow.ExecutionContext) error {
	n.rec.mu.Lock()
	n.rec.values = append(n.rec.values, n.Value.Value())
	n.rec.mu.Unlock()
	ec.Next(&n.Then)
	return nil
}

// Register implements registry.Module.
func (r *Recorder) Register(reg *registry.Registry) {
	reg.RegisterNode(&flow.Descriptor{
		TypeName:   RecordType,
		Category:   "test",
		Executable: true,
		New:        func() flow.Node { return &recordNode{rec: r} },
		Ports: []flow.PortSpec{
			flow.Input("value", func(n *recordNode) *port.Port[any] { return &n.Value }),
			flow.Exec("then", func(n *recordNode) *flow.NodePort { return &n.Then }),
		},
	})
}

// Values returns a copy of everything recorded so far.
func (r *Recorder) Values() []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]any(nil), r.values...)
}

// Reset forgets recorded values.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = nil
}
