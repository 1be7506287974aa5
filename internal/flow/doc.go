// Package flow is the runtime of a compiled flow graph.
//
// A Graph owns node instances. Nodes expose typed data ports (see package
// port) and control ports (NodePort) through a static Descriptor. Data flows
// by pulling: an input port linked to an output reads the output when it is
// read. Control flows by pushing: an event entry node starts an
// ExecutionContext, and each node picks the node that runs after it with
// SetNext or Next.
//
// Execute is always called on the goroutine that started the traversal.
// A node that blocks inside Execute suspends the traversal until it returns.
package flow
