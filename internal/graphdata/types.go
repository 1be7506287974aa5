// Package graphdata defines the serialized shape of a flow graph: node
// records, connections, variable declarations and nested sub-graphs. The
// compiler turns a FlowGraphData into a live graph; the hclgraph and codec
// packages read and write it.
package graphdata

import (
	"github.com/google/uuid"
	"github.com/specialistvlad/ceresflow/internal/portaddr"
	"github.com/specialistvlad/ceresflow/internal/variable"
	"github.com/zclconf/go-cty/cty"
)

// FlowGraphData is a complete serialized graph.
type FlowGraphData struct {
	Name          string
	Nodes         []NodeRecord       `validate:"dive"`
	Connections   []ConnectionRecord `validate:"dive"`
	Variables     []VariableData     `validate:"dive"`
	SubGraphs     []SubGraphData     `validate:"dive"`
	SaveTimestamp int64
}

// Position is the editor layout position of a node. The runtime ignores it.
type Position struct {
	X float64
	Y float64
}

// NodeRecord describes one node instance.
type NodeRecord struct {
	TypeName   string    `validate:"required"`
	GUID       uuid.UUID `validate:"required"`
	Position   Position
	PortArrays []PortArray `validate:"dive"`
	Bindings   []Binding   `validate:"dive"`
	// Properties carry node-specific settings such as a bound function or
	// variable name.
	Properties map[string]cty.Value `validate:"-"`
}

// PortArray sets the length of a variable-length port on a node.
type PortArray struct {
	Port   string `validate:"required"`
	Length int    `validate:"gte=0"`
}

// Binding is a literal value for an input port. Index addresses one element
// of a port array; portaddr.NoIndex targets a plain port, or every element
// of an array port when Value is a list.
type Binding struct {
	Port  string    `validate:"required"`
	Index int       `validate:"gte=-1"`
	Value cty.Value `validate:"-"`
}

// ConnectionRecord links an output port (data or control) to an input port.
type ConnectionRecord struct {
	From portaddr.Address
	To   portaddr.Address
}

// VariableData declares a blackboard variable.
type VariableData struct {
	Name    string    `validate:"required"`
	Type    string    `validate:"required"`
	Default cty.Value `validate:"-"`
	Shared  bool
	Global  bool
	Exposed bool
}

// Flags maps the declaration booleans onto variable flags.
func (v VariableData) Flags() variable.Flags {
	var f variable.Flags
	if v.Shared {
		f |= variable.Shared
	}
	if v.Global {
		f |= variable.Global
	}
	if v.Exposed {
		f |= variable.Exposed
	}
	return f
}

// SubGraphData is a named nested graph callable as a function.
type SubGraphData struct {
	Name  string         `validate:"required"`
	Graph *FlowGraphData `validate:"required"`
}

// Node returns the record with the given GUID.
func (d *FlowGraphData) Node(guid uuid.UUID) (*NodeRecord, bool) {
	for i := range d.Nodes {
		if d.Nodes[i].GUID == guid {
			return &d.Nodes[i], true
		}
	}
	return nil, false
}

// SubGraph returns the sub-graph with the given name.
func (d *FlowGraphData) SubGraph(name string) (*FlowGraphData, bool) {
	for _, sg := range d.SubGraphs {
		if sg.Name == name {
			return sg.Graph, true
		}
	}
	return nil, false
}

// Property returns a node property, or cty.NilVal when it is not set.
func (n *NodeRecord) Property(name string) cty.Value {
	if n.Properties == nil {
		return cty.NilVal
	}
	v, ok := n.Properties[name]
	if !ok {
		return cty.NilVal
	}
	return v
}
