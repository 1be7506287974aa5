// Package dag provides a small directed graph of string IDs with cycle
// detection and topological ordering. The compiler uses it to order nested
// sub-graphs and to reject sub-graphs that call each other in a loop.
package dag
