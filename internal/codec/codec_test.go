package codec

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/specialistvlad/ceresflow/internal/graphdata"
	"github.com/specialistvlad/ceresflow/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

var ctyEqual = cmp.Comparer(func(a, b cty.Value) bool {
	if a == cty.NilVal || b == cty.NilVal {
		return a == b
	}
	return a.Type().Equals(b.Type()) && a.Equals(b).True()
})

func sampleGraph() *graphdata.FlowGraphData {
	inner := testutil.NewGraph("inner")
	in := inner.Node("subgraph.input")
	inner.Array(in, "args", 1)

	b := testutil.NewGraph("packed")
	ev := b.Node("event.custom", "event", cty.StringVal("Hit"), "weights", cty.ListVal([]cty.Value{cty.NumberFloatVal(0.5), cty.NumberIntVal(2)}))
	set := b.Node("variable.set", "variable", cty.StringVal("hp"))
	b.Bind(set, "value", cty.MapVal(map[string]cty.Value{"a": cty.True})).
		BindIndex(set, "extra", 3, cty.NullVal(cty.String))
	b.Connect(ev, "then", set, "exec")
	b.Variable(graphdata.VariableData{Name: "hp", Type: "int", Default: cty.NumberIntVal(100), Shared: true, Exposed: true})
	b.Variable(graphdata.VariableData{Name: "none", Type: "any"})
	b.SubGraph("inner", inner)

	data := b.Build()
	data.SaveTimestamp = 1760000000
	data.Nodes[0].Position = graphdata.Position{X: -1.5, Y: 8}
	return data
}

func TestRoundTrip(t *testing.T) {
	data := sampleGraph()
	packed, err := Encode(data)
	require.NoError(t, err)

	got, err := Decode(packed)
	require.NoError(t, err)
	if diff := cmp.Diff(data, got, ctyEqual, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeErrors(t *testing.T) {
	packed, err := Encode(sampleGraph())
	require.NoError(t, err)

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"no magic", []byte("hello world")},
		{"truncated", packed[:len(packed)/2]},
		{"garbage frame", append([]byte("CFLW"), 0x01, 0x02, 0x03)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.data)
			assert.Error(t, err)
		})
	}

	_, err = Decode([]byte("nope"))
	assert.ErrorIs(t, err, ErrNotSnapshot)
	_, err = Encode(nil)
	assert.Error(t, err)
}

func TestFiles(t *testing.T) {
	ctx, _ := testutil.Context(t)
	path := filepath.Join(t.TempDir(), "graph"+Extension)
	require.NoError(t, WriteFile(path, sampleGraph()))

	src := FileSource{Path: path}
	got, err := src.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "packed", got.Name)
	_, err = src.Timestamp()
	assert.NoError(t, err)
}
