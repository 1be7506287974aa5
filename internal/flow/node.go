package flow

import (
	"context"
	"fmt"
	"reflect"

	"github.com/google/uuid"
	"github.com/specialistvlad/ceresflow/internal/graphdata"
	"github.com/specialistvlad/ceresflow/internal/port"
)

// ExecIn is the name of the control input every executable node accepts.
const ExecIn = "exec"

// Node is a unit of a flow graph. Implementations embed Base.
type Node interface {
	GUID() uuid.UUID
	TypeName() string
	Position() graphdata.Position
	// Execute runs the node. It selects the following node with
	// ExecutionContext.SetNext or Next; selecting none ends the chain.
	Execute(ctx context.Context, ec *ExecutionContext) error

	base() *Base
}

// Base carries node identity. Its Execute does nothing, which is what pure
// data nodes need.
type Base struct {
	guid     uuid.UUID
	typeName string
	position graphdata.Position
}

func (b *Base) GUID() uuid.UUID                                  { return b.guid }
func (b *Base) TypeName() string                                 { return b.typeName }
func (b *Base) Position() graphdata.Position                     { return b.position }
func (b *Base) Execute(context.Context, *ExecutionContext) error { return nil }
func (b *Base) base() *Base                                      { return b }

// Init assigns identity to a freshly constructed node.
func Init(n Node, guid uuid.UUID, typeName string, pos graphdata.Position) {
	b := n.base()
	b.guid = guid
	b.typeName = typeName
	b.position = pos
}

// PortArrayNode is implemented by nodes with variable-length ports.
// AllocatePortArray runs before any literal or connection touches the array.
type PortArrayNode interface {
	AllocatePortArray(name string, length int) error
}

// Binder is implemented by nodes that resolve members or read their own
// settings at compile time.
type Binder interface {
	Bind(bc *BindContext) error
}

// ArgsAcceptor receives the arguments an event or call was started with.
type ArgsAcceptor interface {
	AcceptArgs(args []any) error
}

// EventNode is an entry point reached by name through TryExecuteEvent.
type EventNode interface {
	Node
	EventName() string
}

// Role marks nodes that the graph registers as entry or exit points.
type Role int

const (
	RoleNone Role = iota
	RoleEvent
	RoleFunctionEntry
	RoleFunctionReturn
)

// Direction is the kind of a node port.
type Direction int

const (
	DirInput Direction = iota
	DirOutput
	ExecOut
)

func (d Direction) String() string {
	switch d {
	case DirInput:
		return "input"
	case DirOutput:
		return "output"
	case ExecOut:
		return "exec"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// PortSpec describes one port of a node type along with how to reach it on
// an instance.
type PortSpec struct {
	Name      string
	Direction Direction
	Type      reflect.Type
	Array     bool

	data      func(Node) port.Handle
	dataArray func(Node) []port.Handle
	exec      func(Node) *NodePort
	execArray func(Node) []*NodePort
}

// Handle returns the data port of n addressed by index. Plain ports accept
// only portaddr.NoIndex.
func (s PortSpec) Handle(n Node, index int) (port.Handle, error) {
	switch {
	case s.data != nil:
		if index >= 0 {
			return nil, fmt.Errorf("port %q is not an array", s.Name)
		}
		return s.data(n), nil
	case s.dataArray != nil:
		handles := s.dataArray(n)
		if index < 0 || index >= len(handles) {
			return nil, fmt.Errorf("index %d out of range for port array %q of length %d", index, s.Name, len(handles))
		}
		return handles[index], nil
	default:
		return nil, fmt.Errorf("port %q is not a data port", s.Name)
	}
}

// Handles returns every element of a data port array.
func (s PortSpec) Handles(n Node) []port.Handle {
	if s.dataArray == nil {
		return nil
	}
	return s.dataArray(n)
}

// NodePort returns the control port of n addressed by index.
func (s PortSpec) NodePort(n Node, index int) (*NodePort, error) {
	switch {
	case s.exec != nil:
		if index >= 0 {
			return nil, fmt.Errorf("port %q is not an array", s.Name)
		}
		return s.exec(n), nil
	case s.execArray != nil:
		ports := s.execArray(n)
		if index < 0 || index >= len(ports) {
			return nil, fmt.Errorf("index %d out of range for port array %q of length %d", index, s.Name, len(ports))
		}
		return ports[index], nil
	default:
		return nil, fmt.Errorf("port %q is not a control port", s.Name)
	}
}

// Len returns the current length of an array port, or -1 for plain ports.
func (s PortSpec) Len(n Node) int {
	switch {
	case s.dataArray != nil:
		return len(s.dataArray(n))
	case s.execArray != nil:
		return len(s.execArray(n))
	default:
		return -1
	}
}

// Input declares a typed input port.
func Input[N Node, T any](name string, get func(N) *port.Port[T]) PortSpec {
	return PortSpec{
		Name: name, Direction: DirInput, Type: reflect.TypeFor[T](),
		data: func(n Node) port.Handle { return get(n.(N)) },
	}
}

// Output declares a typed output port.
func Output[N Node, T any](name string, get func(N) *port.Port[T]) PortSpec {
	return PortSpec{
		Name: name, Direction: DirOutput, Type: reflect.TypeFor[T](),
		data: func(n Node) port.Handle { return get(n.(N)) },
	}
}

// InputArray declares a variable-length typed input port.
func InputArray[N Node, T any](name string, get func(N) []*port.Port[T]) PortSpec {
	return PortSpec{
		Name: name, Direction: DirInput, Type: reflect.TypeFor[T](), Array: true,
		dataArray: func(n Node) []port.Handle { return port.Handles(get(n.(N))) },
	}
}

// OutputArray declares a variable-length typed output port.
func OutputArray[N Node, T any](name string, get func(N) []*port.Port[T]) PortSpec {
	return PortSpec{
		Name: name, Direction: DirOutput, Type: reflect.TypeFor[T](), Array: true,
		dataArray: func(n Node) []port.Handle { return port.Handles(get(n.(N))) },
	}
}

// Exec declares a control output.
func Exec[N Node](name string, get func(N) *NodePort) PortSpec {
	return PortSpec{
		Name: name, Direction: ExecOut,
		exec: func(n Node) *NodePort { return get(n.(N)) },
	}
}

// ExecArray declares a variable-length control output.
func ExecArray[N Node](name string, get func(N) []*NodePort) PortSpec {
	return PortSpec{
		Name: name, Direction: ExecOut, Array: true,
		execArray: func(n Node) []*NodePort { return get(n.(N)) },
	}
}

// Descriptor is the static description of a node type.
type Descriptor struct {
	TypeName    string
	Category    string
	Description string
	// Executable nodes accept control connections on ExecIn.
	Executable bool
	Role       Role
	New        func() Node
	Ports      []PortSpec
}

// Port looks up a port by name.
func (d *Descriptor) Port(name string) (PortSpec, bool) {
	for _, p := range d.Ports {
		if p.Name == name {
			return p, true
		}
	}
	return PortSpec{}, false
}

// NodePort is a control output: a reference to the node that runs next.
// It stores the target's GUID and its slot in the graph's node arena.
type NodePort struct {
	target    uuid.UUID
	index     int
	connected bool
}

// Connect points p at the node stored at index in the arena.
func (p *NodePort) Connect(target uuid.UUID, index int) {
	p.target = target
	p.index = index
	p.connected = true
}

func (p *NodePort) Disconnect() {
	*p = NodePort{}
}

func (p *NodePort) Connected() bool {
	return p != nil && p.connected
}

func (p *NodePort) Target() uuid.UUID {
	return p.target
}

// Get resolves the target in g. It returns nil when p is not connected or
// the target is not part of g.
func (p *NodePort) Get(g *Graph) Node {
	if !p.Connected() || g == nil {
		return nil
	}
	if p.index >= 0 && p.index < len(g.nodes) && g.nodes[p.index].GUID() == p.target {
		return g.nodes[p.index]
	}
	return g.Node(p.target)
}

// MakeNodePorts allocates a control port array.
func MakeNodePorts(length int) []*NodePort {
	ports := make([]*NodePort, length)
	for i := range ports {
		ports[i] = &NodePort{}
	}
	return ports
}
