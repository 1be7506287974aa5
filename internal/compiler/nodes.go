package compiler

import (
	"fmt"

	"github.com/specialistvlad/ceresflow/internal/flow"
	"github.com/specialistvlad/ceresflow/internal/graphdata"
	"github.com/specialistvlad/ceresflow/internal/portaddr"
	"github.com/zclconf/go-cty/cty"
)

type compiledNode struct {
	record *graphdata.NodeRecord
	desc   *flow.Descriptor
	node   flow.Node
}

func (c *Compiler) instantiate(g *flow.Graph, records []graphdata.NodeRecord) ([]*compiledNode, error) {
	nodes := make([]*compiledNode, 0, len(records))
	for i := range records {
		rec := &records[i]
		desc, ok := c.registry.Node(rec.TypeName)
		if !ok {
			return nil, &NodeTypeResolutionError{GUID: rec.GUID, TypeName: rec.TypeName}
		}
		n := desc.New()
		flow.Init(n, rec.GUID, desc.TypeName, rec.Position)
		if _, err := g.AddNode(n); err != nil {
			return nil, err
		}
		nodes = append(nodes, &compiledNode{record: rec, desc: desc, node: n})
	}
	return nodes, nil
}

func allocateArrays(cn *compiledNode) error {
	for _, pa := range cn.record.PortArrays {
		spec, ok := cn.desc.Port(pa.Port)
		if !ok {
			return &PortArrayError{GUID: cn.record.GUID, Port: pa.Port, Reason: fmt.Sprintf("node type '%s' has no such port", cn.desc.TypeName)}
		}
		if !spec.Array {
			return &PortArrayError{GUID: cn.record.GUID, Port: pa.Port, Reason: "port is not an array"}
		}
		allocator, ok := cn.node.(flow.PortArrayNode)
		if !ok {
			return &PortArrayError{GUID: cn.record.GUID, Port: pa.Port, Reason: fmt.Sprintf("node type '%s' does not allocate port arrays", cn.desc.TypeName)}
		}
		if err := allocator.AllocatePortArray(pa.Port, pa.Length); err != nil {
			return &PortArrayError{GUID: cn.record.GUID, Port: pa.Port, Reason: err.Error()}
		}
		if got := spec.Len(cn.node); got != pa.Length {
			return &PortArrayError{GUID: cn.record.GUID, Port: pa.Port, Reason: fmt.Sprintf("allocated %d element(s), want %d", got, pa.Length)}
		}
	}
	return nil
}

func bindLiterals(cn *compiledNode) error {
	for _, b := range cn.record.Bindings {
		spec, ok := cn.desc.Port(b.Port)
		if !ok {
			return &BindingError{GUID: cn.record.GUID, TypeName: cn.desc.TypeName, Port: b.Port, Err: fmt.Errorf("node type has no such port")}
		}
		if spec.Direction != flow.DirInput {
			return &BindingError{GUID: cn.record.GUID, TypeName: cn.desc.TypeName, Port: b.Port, Err: fmt.Errorf("literal values bind to inputs, port is an %s", spec.Direction)}
		}

		if spec.Array && b.Index == portaddr.NoIndex {
			if err := bindArrayLiteral(cn, spec, b.Value); err != nil {
				return err
			}
			continue
		}
		if spec.Array && b.Index >= spec.Len(cn.node) {
			return &PortArrayError{GUID: cn.record.GUID, Port: b.Port, Reason: fmt.Sprintf("index %d out of range for length %d", b.Index, spec.Len(cn.node))}
		}

		h, err := spec.Handle(cn.node, b.Index)
		if err != nil {
			return &BindingError{GUID: cn.record.GUID, TypeName: cn.desc.TypeName, Port: b.Port, Err: err}
		}
		if err := setLiteral(h.Set, spec, b.Value); err != nil {
			return &BindingError{GUID: cn.record.GUID, TypeName: cn.desc.TypeName, Port: b.Port, Err: err}
		}
	}
	return nil
}

// bindArrayLiteral spreads a list value over the elements of a port array.
func bindArrayLiteral(cn *compiledNode, spec flow.PortSpec, val cty.Value) error {
	if val == cty.NilVal || val.IsNull() {
		return nil
	}
	ty := val.Type()
	if !ty.IsListType() && !ty.IsTupleType() && !ty.IsSetType() {
		return &BindingError{GUID: cn.record.GUID, TypeName: cn.desc.TypeName, Port: spec.Name, Err: fmt.Errorf("array port needs a list value, got %s", ty.FriendlyName())}
	}
	handles := spec.Handles(cn.node)
	if n := val.LengthInt(); n > len(handles) {
		return &PortArrayError{GUID: cn.record.GUID, Port: spec.Name, Reason: fmt.Sprintf("%d value(s) for length %d", n, len(handles))}
	}
	i := 0
	for it := val.ElementIterator(); it.Next(); i++ {
		_, ev := it.Element()
		if err := setLiteral(handles[i].Set, spec, ev); err != nil {
			return &BindingError{GUID: cn.record.GUID, TypeName: cn.desc.TypeName, Port: fmt.Sprintf("%s[%d]", spec.Name, i), Err: err}
		}
	}
	return nil
}

func setLiteral(set func(any) error, spec flow.PortSpec, val cty.Value) error {
	v, err := graphdata.Decode(val, spec.Type)
	if err != nil {
		return err
	}
	return set(v)
}
