// internal/portaddr/doc.go

/*
Package portaddr provides a structured, type-safe representation for the
endpoints of a connection between two node ports, based on the canonical
format `<node-guid>.<port>` with an optional `[index]` suffix for ports that
belong to a port array, e.g.

	0b6f3f5e-4c1d-4f0e-9b7a-4e8f2d7c9a10.inputs[2]

This package enforces the address schema and centralizes all formatting and
parsing logic used by the graph file readers and the compiler.
*/
package portaddr
