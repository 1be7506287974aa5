package hclgraph

import (
	"fmt"
	"io"

	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/specialistvlad/ceresflow/internal/graphdata"
	"github.com/zclconf/go-cty/cty"
)

// Format renders a graph as HCL source.
func Format(data *graphdata.FlowGraphData) []byte {
	f := hclwrite.NewEmptyFile()
	writeBody(f.Body(), data)
	return hclwrite.Format(f.Bytes())
}

// Write renders a graph as HCL into w.
func Write(w io.Writer, data *graphdata.FlowGraphData) error {
	if data == nil {
		return fmt.Errorf("cannot write a nil graph")
	}
	_, err := w.Write(Format(data))
	return err
}

func writeBody(body *hclwrite.Body, data *graphdata.FlowGraphData) {
	if data.Name != "" {
		body.SetAttributeValue("name", cty.StringVal(data.Name))
	}
	if data.SaveTimestamp != 0 {
		body.SetAttributeValue("saved_at", cty.NumberIntVal(data.SaveTimestamp))
	}

	for _, v := range data.Variables {
		body.AppendNewline()
		vb := body.AppendNewBlock("variable", []string{v.Name}).Body()
		vb.SetAttributeValue("type", cty.StringVal(v.Type))
		if v.Default != cty.NilVal {
			vb.SetAttributeValue("default", v.Default)
		}
		setFlag(vb, "shared", v.Shared)
		setFlag(vb, "global", v.Global)
		setFlag(vb, "exposed", v.Exposed)
	}

	for i := range data.Nodes {
		body.AppendNewline()
		writeNode(body, &data.Nodes[i])
	}

	for _, c := range data.Connections {
		body.AppendNewline()
		cb := body.AppendNewBlock("connection", nil).Body()
		cb.SetAttributeValue("from", cty.StringVal(c.From.String()))
		cb.SetAttributeValue("to", cty.StringVal(c.To.String()))
	}

	for _, sg := range data.SubGraphs {
		body.AppendNewline()
		fb := body.AppendNewBlock("function", []string{sg.Name}).Body()
		if sg.Graph != nil {
			writeBody(fb, sg.Graph)
		}
	}
}

func writeNode(body *hclwrite.Body, rec *graphdata.NodeRecord) {
	nb := body.AppendNewBlock("node", []string{rec.GUID.String()}).Body()
	nb.SetAttributeValue("type", cty.StringVal(rec.TypeName))
	if rec.Position != (graphdata.Position{}) {
		nb.SetAttributeValue("position", cty.TupleVal([]cty.Value{
			cty.NumberFloatVal(rec.Position.X), cty.NumberFloatVal(rec.Position.Y),
		}))
	}
	if len(rec.PortArrays) > 0 {
		arrays := make(map[string]cty.Value, len(rec.PortArrays))
		for _, pa := range rec.PortArrays {
			arrays[pa.Port] = cty.NumberIntVal(int64(pa.Length))
		}
		nb.SetAttributeValue("arrays", cty.ObjectVal(arrays))
	}
	if len(rec.Properties) > 0 {
		nb.SetAttributeValue("properties", cty.ObjectVal(rec.Properties))
	}

	for _, b := range rec.Bindings {
		ib := nb.AppendNewBlock("input", []string{b.Port}).Body()
		if b.Index >= 0 {
			ib.SetAttributeValue("index", cty.NumberIntVal(int64(b.Index)))
		}
		value := b.Value
		if value == cty.NilVal {
			value = cty.NullVal(cty.DynamicPseudoType)
		}
		ib.SetAttributeValue("value", value)
	}
}

func setFlag(body *hclwrite.Body, name string, set bool) {
	if set {
		body.SetAttributeValue(name, cty.True)
	}
}
