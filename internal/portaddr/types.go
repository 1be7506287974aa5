// internal/portaddr/types.go
package portaddr

import "github.com/google/uuid"

// NoIndex marks an address that does not point into a port array.
const NoIndex = -1

// Address is the structured representation of one end of a connection.
type Address struct {
	Node  uuid.UUID `validate:"required"`
	Port  string    `validate:"required"`
	Index int       `validate:"gte=-1"` // -1 indicates no index is present.
}

// New creates an address of a scalar port.
func New(node uuid.UUID, port string) Address {
	return Address{Node: node, Port: port, Index: NoIndex}
}

// NewWithIndex creates an address of a single element of a port array.
func NewWithIndex(node uuid.UUID, port string, index int) Address {
	return Address{Node: node, Port: port, Index: index}
}

// HasIndex returns true if the address points into a port array.
func (a Address) HasIndex() bool {
	return a.Index != NoIndex
}
