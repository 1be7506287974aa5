// Package port implements the typed value cells that sit on graph nodes.
//
// A Port holds a default value and, optionally, one upstream source. Links
// are pull-based: reading a port resolves through its source every time it
// is read, so consumers always observe the latest upstream value rather than
// a snapshot taken at link time. Writing a port always writes its own default
// value, whether or not it is linked.
//
// Ports of different value types can be linked when the conversion table
// knows how to turn the source type into the target type. Conversions are
// looked up when the link is created; a link without a known conversion is
// rejected with a *ConversionError.
package port
