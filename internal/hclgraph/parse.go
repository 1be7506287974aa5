package hclgraph

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/ceresflow/internal/ctxlog"
	"github.com/specialistvlad/ceresflow/internal/graphdata"
	"github.com/specialistvlad/ceresflow/internal/portaddr"
	"github.com/zclconf/go-cty/cty"
)

// Parse decodes a graph from HCL source. filename is used in diagnostics.
func Parse(src []byte, filename string) (*graphdata.FlowGraphData, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}
	data, err := decodeBody(file.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, err)
	}
	return data, nil
}

// LoadFile reads and decodes a graph file. A graph without a name is named
// after the file.
func LoadFile(ctx context.Context, path string) (*graphdata.FlowGraphData, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading graph file.", "path", path)

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading graph file %s: %w", path, err)
	}
	data, err := Parse(src, path)
	if err != nil {
		return nil, err
	}
	if data.Name == "" {
		data.Name = path
	}
	logger.Debug("Graph file loaded.", "path", path, "graph", data.Name, "nodes", len(data.Nodes), "connections", len(data.Connections))
	return data, nil
}

// FileSource is a graph file whose modification time serves as its save
// timestamp.
type FileSource struct {
	Path string
}

func (s FileSource) String() string { return s.Path }

// Timestamp returns the file's modification time.
func (s FileSource) Timestamp() (time.Time, error) {
	info, err := os.Stat(s.Path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// Load reads the file.
func (s FileSource) Load(ctx context.Context) (*graphdata.FlowGraphData, error) {
	return LoadFile(ctx, s.Path)
}

func decodeBody(body hcl.Body) (*graphdata.FlowGraphData, error) {
	var root fileRoot
	if diags := gohcl.DecodeBody(body, nil, &root); diags.HasErrors() {
		return nil, diags
	}

	data := &graphdata.FlowGraphData{Name: root.Name, SaveTimestamp: root.SavedAt}
	for _, vb := range root.Variables {
		def, err := literal(vb.Default)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", vb.Name, err)
		}
		data.Variables = append(data.Variables, graphdata.VariableData{
			Name: vb.Name, Type: vb.Type, Default: def,
			Shared: vb.Shared, Global: vb.Global, Exposed: vb.Exposed,
		})
	}
	for _, nb := range root.Nodes {
		rec, err := translateNode(nb)
		if err != nil {
			return nil, err
		}
		data.Nodes = append(data.Nodes, rec)
	}
	for _, cb := range root.Connections {
		from, err := portaddr.Parse(cb.From)
		if err != nil {
			return nil, fmt.Errorf("connection from: %w", err)
		}
		to, err := portaddr.Parse(cb.To)
		if err != nil {
			return nil, fmt.Errorf("connection to: %w", err)
		}
		data.Connections = append(data.Connections, graphdata.ConnectionRecord{From: from, To: to})
	}
	for _, fb := range root.Functions {
		sub, err := decodeBody(fb.Body)
		if err != nil {
			return nil, fmt.Errorf("function %q: %w", fb.Name, err)
		}
		if sub.Name == "" {
			sub.Name = fb.Name
		}
		data.SubGraphs = append(data.SubGraphs, graphdata.SubGraphData{Name: fb.Name, Graph: sub})
	}
	return data, nil
}

func translateNode(nb *nodeBlock) (graphdata.NodeRecord, error) {
	guid, err := uuid.Parse(nb.GUID)
	if err != nil {
		return graphdata.NodeRecord{}, fmt.Errorf("node %q: invalid guid: %w", nb.GUID, err)
	}
	rec := graphdata.NodeRecord{TypeName: nb.Type, GUID: guid}
	switch len(nb.Position) {
	case 0:
	case 2:
		rec.Position = graphdata.Position{X: nb.Position[0], Y: nb.Position[1]}
	default:
		return rec, fmt.Errorf("node %q: position needs 2 coordinates, got %d", nb.GUID, len(nb.Position))
	}

	names := make([]string, 0, len(nb.Arrays))
	for name := range nb.Arrays {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		rec.PortArrays = append(rec.PortArrays, graphdata.PortArray{Port: name, Length: nb.Arrays[name]})
	}

	props, err := literal(nb.Properties)
	if err != nil {
		return rec, fmt.Errorf("node %q properties: %w", nb.GUID, err)
	}
	if props != cty.NilVal {
		if !props.Type().IsObjectType() && !props.Type().IsMapType() {
			return rec, fmt.Errorf("node %q: properties must be an object, got %s", nb.GUID, props.Type().FriendlyName())
		}
		rec.Properties = props.AsValueMap()
	}

	for _, in := range nb.Inputs {
		v, err := literal(in.Value)
		if err != nil {
			return rec, fmt.Errorf("node %q input %q: %w", nb.GUID, in.Port, err)
		}
		index := portaddr.NoIndex
		if in.Index != nil {
			index = *in.Index
		}
		rec.Bindings = append(rec.Bindings, graphdata.Binding{Port: in.Port, Index: index, Value: v})
	}
	return rec, nil
}

// literal evaluates an expression without variables or functions. An absent
// or null expression yields cty.NilVal.
func literal(expr hcl.Expression) (cty.Value, error) {
	if expr == nil {
		return cty.NilVal, nil
	}
	v, diags := expr.Value(nil)
	if diags.HasErrors() {
		return cty.NilVal, diags
	}
	if v.IsNull() {
		return cty.NilVal, nil
	}
	return v, nil
}
