package graphdata

import (
	"reflect"
	"testing"

	"github.com/google/uuid"
	"github.com/specialistvlad/ceresflow/internal/portaddr"
	"github.com/specialistvlad/ceresflow/internal/variable"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func validGraph() *FlowGraphData {
	a, b := uuid.New(), uuid.New()
	return &FlowGraphData{
		Name: "main",
		Nodes: []NodeRecord{
			{TypeName: "event.custom", GUID: a, Properties: map[string]cty.Value{"event": cty.StringVal("Start")}},
			{TypeName: "debug.log", GUID: b, Bindings: []Binding{{Port: "message", Index: portaddr.NoIndex, Value: cty.StringVal("hi")}}},
		},
		Connections: []ConnectionRecord{
			{From: portaddr.New(a, "then"), To: portaddr.New(b, "exec")},
		},
		Variables: []VariableData{{Name: "score", Type: "int", Default: cty.NumberIntVal(1), Shared: true}},
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(validGraph()))

	tests := []struct {
		name   string
		mutate func(d *FlowGraphData)
		field  string
	}{
		{"missing type", func(d *FlowGraphData) { d.Nodes[0].TypeName = "" }, "Nodes[0].TypeName"},
		{"zero guid", func(d *FlowGraphData) { d.Nodes[1].GUID = uuid.Nil }, "Nodes[1].GUID"},
		{"duplicate guid", func(d *FlowGraphData) { d.Nodes[1].GUID = d.Nodes[0].GUID }, "Nodes[1].GUID"},
		{"bad binding index", func(d *FlowGraphData) { d.Nodes[1].Bindings[0].Index = -2 }, "Nodes[1].Bindings[0].Index"},
		{"connection without port", func(d *FlowGraphData) { d.Connections[0].To.Port = "" }, "Connections[0].To.Port"},
		{"duplicate variable", func(d *FlowGraphData) {
			d.Variables = append(d.Variables, VariableData{Name: "score", Type: "float"})
		}, "Variables[1].Name"},
		{"negative array length", func(d *FlowGraphData) {
			d.Nodes[0].PortArrays = []PortArray{{Port: "items", Length: -1}}
		}, "Nodes[0].PortArrays[0].Length"},
		{"duplicate sub-graph", func(d *FlowGraphData) {
			d.SubGraphs = []SubGraphData{{Name: "f", Graph: &FlowGraphData{}}, {Name: "f", Graph: &FlowGraphData{}}}
		}, "SubGraphs[1].Name"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := validGraph()
			tc.mutate(d)

			err := Validate(d)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, "main", verr.Graph)

			var fields []string
			for _, p := range verr.Problems {
				fields = append(fields, p.Field)
			}
			assert.Contains(t, fields, tc.field)
		})
	}

	assert.Error(t, Validate(nil))
}

func TestFlowGraphData_Lookups(t *testing.T) {
	d := validGraph()
	d.SubGraphs = []SubGraphData{{Name: "helper", Graph: &FlowGraphData{Name: "helper"}}}

	n, ok := d.Node(d.Nodes[1].GUID)
	require.True(t, ok)
	assert.Equal(t, "debug.log", n.TypeName)
	_, ok = d.Node(uuid.New())
	assert.False(t, ok)

	sg, ok := d.SubGraph("helper")
	require.True(t, ok)
	assert.Equal(t, "helper", sg.Name)

	assert.Equal(t, "Start", d.Nodes[0].Property("event").AsString())
	assert.Equal(t, cty.NilVal, d.Nodes[1].Property("event"))
}

func TestVariableData_Flags(t *testing.T) {
	v := VariableData{Shared: true, Exposed: true}
	assert.Equal(t, variable.Shared|variable.Exposed, v.Flags())
	assert.Equal(t, variable.Flags(0), VariableData{}.Flags())
}

type vec struct {
	X float64 `cty:"x"`
	Y float64 `cty:"y"`
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		val  cty.Value
		typ  reflect.Type
		want any
	}{
		{"int", cty.NumberIntVal(12), reflect.TypeFor[int](), 12},
		{"string to int", cty.StringVal("7"), reflect.TypeFor[int](), 7},
		{"number to string", cty.NumberFloatVal(1.5), reflect.TypeFor[string](), "1.5"},
		{"null", cty.NullVal(cty.Number), reflect.TypeFor[float64](), 0.0},
		{"tuple to slice", cty.TupleVal([]cty.Value{cty.NumberIntVal(1), cty.NumberIntVal(2)}), reflect.TypeFor[[]int](), []int{1, 2}},
		{"object to struct", cty.ObjectVal(map[string]cty.Value{"x": cty.NumberIntVal(1), "y": cty.NumberFloatVal(2.5)}), reflect.TypeFor[vec](), vec{X: 1, Y: 2.5}},
		{"any integral", cty.NumberIntVal(3), reflect.TypeFor[any](), 3},
		{"any fractional", cty.NumberFloatVal(0.25), reflect.TypeFor[any](), 0.25},
		{"any list", cty.ListVal([]cty.Value{cty.StringVal("a")}), reflect.TypeFor[any](), []any{"a"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Decode(tc.val, tc.typ)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := Decode(cty.StringVal("abc"), reflect.TypeFor[int]())
	assert.Error(t, err)
	_, err = Decode(cty.UnknownVal(cty.Number), reflect.TypeFor[int]())
	assert.Error(t, err)

	v, err := DecodeAs[bool](cty.StringVal("true"))
	require.NoError(t, err)
	assert.True(t, v)
}

func TestEncodeNativeRoundTrip(t *testing.T) {
	values := []any{
		nil,
		"text",
		true,
		42,
		2.5,
		[]any{1, "two", false},
		map[string]any{"a": 1, "b": []any{2.5}},
	}
	for _, v := range values {
		encoded, err := Encode(v)
		require.NoError(t, err)
		assert.Equal(t, v, Native(encoded))
	}

	encoded, err := Encode(vec{X: 1, Y: 2})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"x": 1, "y": 2}, Native(encoded))
}
