// internal/portaddr/address.go
package portaddr

import (
	"strconv"
	"strings"
)

// String serializes the Address into its canonical string representation.
func (a Address) String() string {
	var sb strings.Builder
	sb.WriteString(a.Node.String())
	sb.WriteRune('.')
	sb.WriteString(a.Port)
	if a.HasIndex() {
		sb.WriteRune('[')
		sb.WriteString(strconv.Itoa(a.Index))
		sb.WriteRune(']')
	}
	return sb.String()
}

// Equal reports whether both addresses name the same port element.
func (a Address) Equal(other Address) bool {
	return a.Node == other.Node && a.Port == other.Port && a.Index == other.Index
}

// Less orders addresses by node, port and index. It is used to produce
// deterministic listings of graph topology.
func (a Address) Less(other Address) bool {
	if a.Node != other.Node {
		return a.Node.String() < other.Node.String()
	}
	if a.Port != other.Port {
		return a.Port < other.Port
	}
	return a.Index < other.Index
}
