package hclgraph

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/specialistvlad/ceresflow/internal/graphdata"
	"github.com/specialistvlad/ceresflow/internal/portaddr"
	"github.com/specialistvlad/ceresflow/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

const (
	startGUID = "0b9f3a52-7d7e-4bb8-9d0e-6f3c2f1a00e1"
	addGUID   = "5c1a8e0f-1111-4a4a-8b8b-000000000042"
)

var ctyEqual = cmp.Comparer(func(a, b cty.Value) bool {
	if a == cty.NilVal || b == cty.NilVal {
		return a == b
	}
	return a.Type().Equals(b.Type()) && a.Equals(b).True()
})

const sample = `
name     = "player"
saved_at = 1760000000

variable "score" {
  type    = "int"
  default = 3
  shared  = true
}

node "` + startGUID + `" {
  type       = "event.custom"
  position   = [10, -4.5]
  arrays     = { args = 1 }
  properties = { event = "Hit" }
}

node "` + addGUID + `" {
  type = "math.add_int"
  input "a" {
    value = 5
  }
  input "items" {
    index = 2
    value = "x"
  }
}

connection {
  from = "` + startGUID + `.then"
  to   = "` + addGUID + `.exec"
}

connection {
  from = "` + startGUID + `.args[0]"
  to   = "` + addGUID + `.b"
}

function "double" {
  variable "n" {
    type = "float"
  }
}
`

func TestParse(t *testing.T) {
	data, err := Parse([]byte(sample), "player.hcl")
	require.NoError(t, err)

	start, add := uuid.MustParse(startGUID), uuid.MustParse(addGUID)
	want := &graphdata.FlowGraphData{
		Name:          "player",
		SaveTimestamp: 1760000000,
		Variables: []graphdata.VariableData{
			{Name: "score", Type: "int", Default: cty.NumberIntVal(3), Shared: true},
		},
		Nodes: []graphdata.NodeRecord{
			{
				TypeName:   "event.custom",
				GUID:       start,
				Position:   graphdata.Position{X: 10, Y: -4.5},
				PortArrays: []graphdata.PortArray{{Port: "args", Length: 1}},
				Properties: map[string]cty.Value{"event": cty.StringVal("Hit")},
			},
			{
				TypeName: "math.add_int",
				GUID:     add,
				Bindings: []graphdata.Binding{
					{Port: "a", Index: portaddr.NoIndex, Value: cty.NumberIntVal(5)},
					{Port: "items", Index: 2, Value: cty.StringVal("x")},
				},
			},
		},
		Connections: []graphdata.ConnectionRecord{
			{From: portaddr.New(start, "then"), To: portaddr.New(add, "exec")},
			{From: portaddr.NewWithIndex(start, "args", 0), To: portaddr.New(add, "b")},
		},
		SubGraphs: []graphdata.SubGraphData{
			{Name: "double", Graph: &graphdata.FlowGraphData{
				Name:      "double",
				Variables: []graphdata.VariableData{{Name: "n", Type: "float"}},
			}},
		},
	}
	if diff := cmp.Diff(want, data, ctyEqual, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTrip(t *testing.T) {
	b := testutil.NewGraph("round")
	ev := b.Node("event.custom", "event", cty.StringVal("Go"), "payload", cty.ObjectVal(map[string]cty.Value{
		"tags": cty.TupleVal([]cty.Value{cty.StringVal("a"), cty.True}),
	}))
	sum := b.Node("array.make_float")
	b.Array(sum, "items", 2).
		BindIndex(sum, "items", 0, cty.NumberFloatVal(1.25)).
		BindIndex(sum, "items", 1, cty.NumberIntVal(-3))
	b.Connect(ev, "then", sum, "exec")
	b.Variable(graphdata.VariableData{Name: "hp", Type: "float", Default: cty.NumberFloatVal(0.5), Global: true, Exposed: true})
	b.SubGraph("inner", testutil.NewGraph("inner"))
	data := b.Build()
	data.SaveTimestamp = 42
	data.Nodes[0].Position = graphdata.Position{X: 1, Y: 2}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, data))
	got, err := Parse(buf.Bytes(), "round.hcl")
	require.NoError(t, err, buf.String())

	if diff := cmp.Diff(data, got, ctyEqual, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s\nsource:\n%s", diff, buf.String())
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"syntax", `node "x" {`},
		{"bad guid", `node "nope" { type = "a" }`},
		{"missing type", `node "` + startGUID + `" {}`},
		{"bad position", `node "` + startGUID + `" {
  type     = "a"
  position = [1]
}`},
		{"properties not an object", `node "` + startGUID + `" {
  type       = "a"
  properties = "event"
}`},
		{"bad connection", `connection {
  from = "nowhere"
  to   = "` + startGUID + `.exec"
}`},
		{"broken function", `function "f" {
  node "bad" { type = "a" }
}`},
		{"expression with variables", `variable "v" {
  type    = "int"
  default = var.other
}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.src), "broken.hcl")
			assert.Error(t, err)
		})
	}
}

func TestFileSource(t *testing.T) {
	ctx, _ := testutil.Context(t)
	dir := testutil.WriteFiles(t, map[string]string{
		"unnamed.hcl": `node "` + startGUID + `" { type = "event.start" }`,
	})
	path := filepath.Join(dir, "unnamed.hcl")

	src := FileSource{Path: path}
	data, err := src.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, path, data.Name)
	require.Len(t, data.Nodes, 1)

	stamp := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, os.Chtimes(path, stamp, stamp))
	got, err := src.Timestamp()
	require.NoError(t, err)
	assert.True(t, stamp.Equal(got))

	_, err = FileSource{Path: filepath.Join(dir, "missing.hcl")}.Load(ctx)
	assert.Error(t, err)
}
