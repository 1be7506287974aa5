// Package registry provides the central "glue" for the module system.
//
// The Registry maps the names used in serialized graphs to compiled Go code:
// node type names to node descriptors, owner/name/arity triples to callable
// functions, owner/name pairs to property accessors, and variable type names
// to variable factories. Modules populate it at start-up through the Module
// interface; the compiler only ever reads it.
//
// After registration the registry can be validated to make sure every
// descriptor matches the node it constructs, which catches a wide class of
// wiring mistakes before any graph is compiled.
package registry
