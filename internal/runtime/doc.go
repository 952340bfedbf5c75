/*
Package runtime implements the graph execution engine: a fixed directed graph
of named nodes executed over a domain.State, with conditional branches,
concurrent start-layer execution, deterministic per-field merging of node
outputs, and an incremental event stream.

Topology errors (duplicate node names, unresolvable edges) surface at build
time via Builder.Compile; a router producing an undeclared label fails the
invocation fast with domain.ErrUnknownRoute.
*/
package runtime
