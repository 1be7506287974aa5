// Package codec packs flow graphs into compact binary snapshots: msgpack
// records compressed with zstd. Literal values keep their exact cty type.
package codec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/specialistvlad/ceresflow/internal/ctxlog"
	"github.com/specialistvlad/ceresflow/internal/graphdata"
	"github.com/specialistvlad/ceresflow/internal/portaddr"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
	ctymsgpack "github.com/zclconf/go-cty/cty/msgpack"
)

// Extension is the file extension of packed graphs.
const Extension = ".cfpack"

const version = 1

var magic = []byte("CFLW")

// ErrNotSnapshot is returned when decoding data that is not a snapshot.
var ErrNotSnapshot = errors.New("not a graph snapshot")

type snapshot struct {
	Version int    `msgpack:"v"`
	Graph   *graph `msgpack:"g"`
}

type graph struct {
	Name        string      `msgpack:"name"`
	SavedAt     int64       `msgpack:"saved_at"`
	Nodes       []node      `msgpack:"nodes"`
	Connections [][2]string `msgpack:"connections"`
	Variables   []variable  `msgpack:"variables"`
	SubGraphs   []subGraph  `msgpack:"subgraphs"`
}

type node struct {
	Type       string           `msgpack:"type"`
	GUID       []byte           `msgpack:"guid"`
	X          float64          `msgpack:"x"`
	Y          float64          `msgpack:"y"`
	Arrays     []portArray      `msgpack:"arrays"`
	Bindings   []binding        `msgpack:"bindings"`
	Properties map[string]value `msgpack:"props"`
}

type portArray struct {
	Port   string `msgpack:"p"`
	Length int    `msgpack:"n"`
}

type binding struct {
	Port  string `msgpack:"p"`
	Index int    `msgpack:"i"`
	Value value  `msgpack:"v"`
}

type variable struct {
	Name    string `msgpack:"name"`
	Type    string `msgpack:"type"`
	Default value  `msgpack:"default"`
	Flags   uint8  `msgpack:"flags"`
}

type subGraph struct {
	Name  string `msgpack:"name"`
	Graph *graph `msgpack:"graph"`
}

// value is a cty value with its type. An empty Type stands for cty.NilVal.
type value struct {
	Type []byte `msgpack:"t"`
	Data []byte `msgpack:"d"`
}

const (
	flagShared uint8 = 1 << iota
	flagGlobal
	flagExposed
)

// Encode packs a graph.
func Encode(data *graphdata.FlowGraphData) ([]byte, error) {
	if data == nil {
		return nil, fmt.Errorf("cannot encode a nil graph")
	}
	g, err := fromGraph(data)
	if err != nil {
		return nil, err
	}
	raw, err := msgpack.Marshal(&snapshot{Version: version, Graph: g})
	if err != nil {
		return nil, fmt.Errorf("msgpack encoding failed: %w", err)
	}

	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer encoder.Close()
	return encoder.EncodeAll(raw, append([]byte(nil), magic...)), nil
}

// Decode unpacks a graph produced by Encode.
func Decode(packed []byte) (*graphdata.FlowGraphData, error) {
	if !bytes.HasPrefix(packed, magic) {
		return nil, ErrNotSnapshot
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer decoder.Close()
	raw, err := decoder.DecodeAll(packed[len(magic):], nil)
	if err != nil {
		return nil, fmt.Errorf("decompression failed: %w", err)
	}

	var s snapshot
	if err := msgpack.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("msgpack decoding failed: %w", err)
	}
	if s.Version != version {
		return nil, fmt.Errorf("unsupported snapshot version %d", s.Version)
	}
	if s.Graph == nil {
		return nil, fmt.Errorf("snapshot holds no graph")
	}
	return toGraph(s.Graph)
}

// WriteFile packs a graph into path.
func WriteFile(path string, data *graphdata.FlowGraphData) error {
	packed, err := Encode(data)
	if err != nil {
		return err
	}
	return os.WriteFile(path, packed, 0644)
}

// LoadFile reads a packed graph.
func LoadFile(ctx context.Context, path string) (*graphdata.FlowGraphData, error) {
	ctxlog.FromContext(ctx).Debug("Loading packed graph.", "path", path)
	packed, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading packed graph %s: %w", path, err)
	}
	data, err := Decode(packed)
	if err != nil {
		return nil, fmt.Errorf("packed graph %s: %w", path, err)
	}
	return data, nil
}

// FileSource is a packed graph file. Its timestamp is the file's
// modification time.
type FileSource struct {
	Path string
}

func (s FileSource) String() string { return s.Path }

func (s FileSource) Timestamp() (time.Time, error) {
	info, err := os.Stat(s.Path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

func (s FileSource) Load(ctx context.Context) (*graphdata.FlowGraphData, error) {
	return LoadFile(ctx, s.Path)
}

func fromGraph(d *graphdata.FlowGraphData) (*graph, error) {
	g := &graph{Name: d.Name, SavedAt: d.SaveTimestamp}
	for i := range d.Nodes {
		rec := &d.Nodes[i]
		guid, _ := rec.GUID.MarshalBinary()
		n := node{Type: rec.TypeName, GUID: guid, X: rec.Position.X, Y: rec.Position.Y}
		for _, pa := range rec.PortArrays {
			n.Arrays = append(n.Arrays, portArray{Port: pa.Port, Length: pa.Length})
		}
		for _, b := range rec.Bindings {
			v, err := fromValue(b.Value)
			if err != nil {
				return nil, fmt.Errorf("node %s input %q: %w", rec.GUID, b.Port, err)
			}
			n.Bindings = append(n.Bindings, binding{Port: b.Port, Index: b.Index, Value: v})
		}
		if len(rec.Properties) > 0 {
			n.Properties = make(map[string]value, len(rec.Properties))
			for name, p := range rec.Properties {
				v, err := fromValue(p)
				if err != nil {
					return nil, fmt.Errorf("node %s property %q: %w", rec.GUID, name, err)
				}
				n.Properties[name] = v
			}
		}
		g.Nodes = append(g.Nodes, n)
	}
	for _, c := range d.Connections {
		g.Connections = append(g.Connections, [2]string{c.From.String(), c.To.String()})
	}
	for _, vd := range d.Variables {
		def, err := fromValue(vd.Default)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", vd.Name, err)
		}
		var flags uint8
		if vd.Shared {
			flags |= flagShared
		}
		if vd.Global {
			flags |= flagGlobal
		}
		if vd.Exposed {
			flags |= flagExposed
		}
		g.Variables = append(g.Variables, variable{Name: vd.Name, Type: vd.Type, Default: def, Flags: flags})
	}
	for _, sg := range d.SubGraphs {
		if sg.Graph == nil {
			return nil, fmt.Errorf("sub-graph %q is nil", sg.Name)
		}
		sub, err := fromGraph(sg.Graph)
		if err != nil {
			return nil, fmt.Errorf("sub-graph %q: %w", sg.Name, err)
		}
		g.SubGraphs = append(g.SubGraphs, subGraph{Name: sg.Name, Graph: sub})
	}
	return g, nil
}

func toGraph(g *graph) (*graphdata.FlowGraphData, error) {
	d := &graphdata.FlowGraphData{Name: g.Name, SaveTimestamp: g.SavedAt}
	for _, n := range g.Nodes {
		guid, err := uuid.FromBytes(n.GUID)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", n.Type, err)
		}
		rec := graphdata.NodeRecord{TypeName: n.Type, GUID: guid, Position: graphdata.Position{X: n.X, Y: n.Y}}
		for _, pa := range n.Arrays {
			rec.PortArrays = append(rec.PortArrays, graphdata.PortArray{Port: pa.Port, Length: pa.Length})
		}
		for _, b := range n.Bindings {
			v, err := toValue(b.Value)
			if err != nil {
				return nil, fmt.Errorf("node %s input %q: %w", guid, b.Port, err)
			}
			rec.Bindings = append(rec.Bindings, graphdata.Binding{Port: b.Port, Index: b.Index, Value: v})
		}
		if len(n.Properties) > 0 {
			rec.Properties = make(map[string]cty.Value, len(n.Properties))
			for name, p := range n.Properties {
				v, err := toValue(p)
				if err != nil {
					return nil, fmt.Errorf("node %s property %q: %w", guid, name, err)
				}
				rec.Properties[name] = v
			}
		}
		d.Nodes = append(d.Nodes, rec)
	}
	for _, c := range g.Connections {
		from, err := portaddr.Parse(c[0])
		if err != nil {
			return nil, err
		}
		to, err := portaddr.Parse(c[1])
		if err != nil {
			return nil, err
		}
		d.Connections = append(d.Connections, graphdata.ConnectionRecord{From: from, To: to})
	}
	for _, v := range g.Variables {
		def, err := toValue(v.Default)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", v.Name, err)
		}
		d.Variables = append(d.Variables, graphdata.VariableData{
			Name: v.Name, Type: v.Type, Default: def,
			Shared:  v.Flags&flagShared != 0,
			Global:  v.Flags&flagGlobal != 0,
			Exposed: v.Flags&flagExposed != 0,
		})
	}
	for _, sg := range g.SubGraphs {
		if sg.Graph == nil {
			return nil, fmt.Errorf("sub-graph %q is empty", sg.Name)
		}
		sub, err := toGraph(sg.Graph)
		if err != nil {
			return nil, fmt.Errorf("sub-graph %q: %w", sg.Name, err)
		}
		d.SubGraphs = append(d.SubGraphs, graphdata.SubGraphData{Name: sg.Name, Graph: sub})
	}
	return d, nil
}

func fromValue(v cty.Value) (value, error) {
	if v == cty.NilVal {
		return value{}, nil
	}
	ty, err := ctyjson.MarshalType(v.Type())
	if err != nil {
		return value{}, err
	}
	data, err := ctymsgpack.Marshal(v, v.Type())
	if err != nil {
		return value{}, err
	}
	return value{Type: ty, Data: data}, nil
}

func toValue(v value) (cty.Value, error) {
	if len(v.Type) == 0 {
		return cty.NilVal, nil
	}
	ty, err := ctyjson.UnmarshalType(v.Type)
	if err != nil {
		return cty.NilVal, err
	}
	return ctymsgpack.Unmarshal(v.Data, ty)
}
