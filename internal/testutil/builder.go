package testutil

import (
	"github.com/google/uuid"
	"github.com/specialistvlad/ceresflow/internal/graphdata"
	"github.com/specialistvlad/ceresflow/internal/portaddr"
	"github.com/zclconf/go-cty/cty"
)

// GraphBuilder assembles serialized graphs for tests.
type GraphBuilder struct {
	data *graphdata.FlowGraphData
}

// NewGraph starts a graph with the given name.
func NewGraph(name string) *GraphBuilder {
	return &GraphBuilder{data: &graphdata.FlowGraphData{Name: name}}
}

// Node adds a node and returns its GUID. props alternates property names and
// values: "event", cty.StringVal("Start").
func (b *GraphBuilder) Node(typeName string, props ...any) uuid.UUID {
	rec := graphdata.NodeRecord{TypeName: typeName, GUID: uuid.New()}
	if len(props) > 0 {
		rec.Properties = make(map[string]cty.Value, len(props)/2)
		for i := 0; i+1 < len(props); i += 2 {
			rec.Properties[props[i].(string)] = props[i+1].(cty.Value)
		}
	}
	b.data.Nodes = append(b.data.Nodes, rec)
	return rec.GUID
}

func (b *GraphBuilder) record(id uuid.UUID) *graphdata.NodeRecord {
	rec, ok := b.data.Node(id)
	if !ok {
		panic("testutil: unknown node " + id.String())
	}
	return rec
}

// Array sets the length of a port array.
func (b *GraphBuilder) Array(id uuid.UUID, port string, length int) *GraphBuilder {
	rec := b.record(id)
	rec.PortArrays = append(rec.PortArrays, graphdata.PortArray{Port: port, Length: length})
	return b
}

// Bind sets a literal value on an input port.
func (b *GraphBuilder) Bind(id uuid.UUID, port string, v cty.Value) *GraphBuilder {
	return b.BindIndex(id, port, portaddr.NoIndex, v)
}

// BindIndex sets a literal value on one element of a port array.
func (b *GraphBuilder) BindIndex(id uuid.UUID, port string, index int, v cty.Value) *GraphBuilder {
	rec := b.record(id)
	rec.Bindings = append(rec.Bindings, graphdata.Binding{Port: port, Index: index, Value: v})
	return b
}

// Connect links two ports.
func (b *GraphBuilder) Connect(from uuid.UUID, fromPort string, to uuid.UUID, toPort string) *GraphBuilder {
	return b.ConnectAddr(portaddr.New(from, fromPort), portaddr.New(to, toPort))
}

// ConnectAddr links two port addresses.
func (b *GraphBuilder) ConnectAddr(from, to portaddr.Address) *GraphBuilder {
	b.data.Connections = append(b.data.Connections, graphdata.ConnectionRecord{From: from, To: to})
	return b
}

// Variable declares a blackboard variable.
func (b *GraphBuilder) Variable(v graphdata.VariableData) *GraphBuilder {
	b.data.Variables = append(b.data.Variables, v)
	return b
}

// SubGraph nests another graph.
func (b *GraphBuilder) SubGraph(name string, sub *GraphBuilder) *GraphBuilder {
	b.data.SubGraphs = append(b.data.SubGraphs, graphdata.SubGraphData{Name: name, Graph: sub.Build()})
	return b
}

// Build returns the assembled graph.
func (b *GraphBuilder) Build() *graphdata.FlowGraphData {
	return b.data
}
