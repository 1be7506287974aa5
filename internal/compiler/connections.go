package compiler

import (
	"context"

	"github.com/specialistvlad/ceresflow/internal/ctxlog"
	"github.com/specialistvlad/ceresflow/internal/dag"
	"github.com/specialistvlad/ceresflow/internal/flow"
	"github.com/specialistvlad/ceresflow/internal/graphdata"
)

// connect resolves one connection. Control edges point a NodePort at the
// target node; data edges make the output the source of the input.
// Data edges read from pure nodes also become dependencies, recorded in
// pure when both ends are pure so data cycles can be rejected.
func connect(ctx context.Context, g *flow.Graph, nodes map[string]*compiledNode, pure *dag.Graph, conn graphdata.ConnectionRecord) error {
	logger := ctxlog.FromContext(ctx)

	src, ok := nodes[conn.From.Node.String()]
	if !ok {
		return &ConnectionError{Connection: conn, Reason: "source node not found"}
	}
	dst, ok := nodes[conn.To.Node.String()]
	if !ok {
		return &ConnectionError{Connection: conn, Reason: "target node not found"}
	}
	srcSpec, ok := src.desc.Port(conn.From.Port)
	if !ok {
		return &ConnectionError{Connection: conn, Reason: "source port not found on " + src.desc.TypeName}
	}

	switch srcSpec.Direction {
	case flow.ExecOut:
		if conn.To.Port != flow.ExecIn {
			return &ConnectionError{Connection: conn, Reason: "control output must target '" + flow.ExecIn + "'"}
		}
		if !dst.desc.Executable {
			return &ConnectionError{Connection: conn, Reason: dst.desc.TypeName + " is not executable"}
		}
		np, err := srcSpec.NodePort(src.node, conn.From.Index)
		if err != nil {
			return &ConnectionError{Connection: conn, Reason: "invalid source port", Err: err}
		}
		slot, _ := g.Slot(dst.node.GUID())
		if np.Connected() {
			logger.Warn("Control port connected more than once, last connection wins.", "port", conn.From.String(), "previous", np.Target().String())
		}
		np.Connect(dst.node.GUID(), slot)

	case flow.DirOutput:
		dstSpec, ok := dst.desc.Port(conn.To.Port)
		if !ok {
			return &ConnectionError{Connection: conn, Reason: "target port not found on " + dst.desc.TypeName}
		}
		if dstSpec.Direction != flow.DirInput {
			return &ConnectionError{Connection: conn, Reason: "data output must target an input"}
		}
		from, err := srcSpec.Handle(src.node, conn.From.Index)
		if err != nil {
			return &ConnectionError{Connection: conn, Reason: "invalid source port", Err: err}
		}
		to, err := dstSpec.Handle(dst.node, conn.To.Index)
		if err != nil {
			return &ConnectionError{Connection: conn, Reason: "invalid target port", Err: err}
		}
		if to.Linked() {
			logger.Warn("Input connected more than once, last connection wins.", "port", conn.To.String())
		}
		if err := from.Link(to); err != nil {
			return &ConnectionError{Connection: conn, Reason: "incompatible port types", Err: err}
		}
		if !src.desc.Executable {
			if err := g.AddDependency(dst.node.GUID(), src.node.GUID()); err != nil {
				return &ConnectionError{Connection: conn, Reason: "invalid dependency", Err: err}
			}
			if !dst.desc.Executable {
				if err := pure.AddEdge(src.node.GUID().String(), dst.node.GUID().String()); err != nil {
					return &ConnectionError{Connection: conn, Reason: "invalid dependency", Err: err}
				}
			}
		}

	default:
		return &ConnectionError{Connection: conn, Reason: "source port is an input"}
	}

	g.AddEdge(flow.Edge{From: conn.From, To: conn.To})
	return nil
}
