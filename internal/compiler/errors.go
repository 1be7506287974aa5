package compiler

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/specialistvlad/ceresflow/internal/graphdata"
)

// NodeTypeResolutionError is returned when a node record names a type that
// is neither registered nor aliased.
type NodeTypeResolutionError struct {
	GUID     uuid.UUID
	TypeName string
}

func (e *NodeTypeResolutionError) Error() string {
	return fmt.Sprintf("node %s: unknown node type '%s'", e.GUID, e.TypeName)
}

// ConnectionError is returned when a connection cannot be resolved.
type ConnectionError struct {
	Connection graphdata.ConnectionRecord
	Reason     string
	Err        error
}

func (e *ConnectionError) Error() string {
	msg := fmt.Sprintf("connection %s -> %s: %s", e.Connection.From, e.Connection.To, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// PortArrayError is returned for invalid port array sizes or indices.
type PortArrayError struct {
	GUID   uuid.UUID
	Port   string
	Reason string
}

func (e *PortArrayError) Error() string {
	return fmt.Sprintf("node %s, port array '%s': %s", e.GUID, e.Port, e.Reason)
}

// BindingError is returned when a literal port value or a node's own binding
// step fails.
type BindingError struct {
	GUID     uuid.UUID
	TypeName string
	Port     string
	Err      error
}

func (e *BindingError) Error() string {
	if e.Port != "" {
		return fmt.Sprintf("node %s (%s), port '%s': %v", e.GUID, e.TypeName, e.Port, e.Err)
	}
	return fmt.Sprintf("node %s (%s): %v", e.GUID, e.TypeName, e.Err)
}

func (e *BindingError) Unwrap() error { return e.Err }

// VariableTypeError is returned when a variable declaration cannot be turned
// into a blackboard variable.
type VariableTypeError struct {
	Variable string
	Type     string
	Err      error
}

func (e *VariableTypeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("variable '%s': unknown type '%s'", e.Variable, e.Type)
	}
	return fmt.Sprintf("variable '%s' of type '%s': %v", e.Variable, e.Type, e.Err)
}

func (e *VariableTypeError) Unwrap() error { return e.Err }
