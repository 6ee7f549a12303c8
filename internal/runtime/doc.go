// Package runtime ticks a compiled graph.
//
// An Execution holds the per-run state: the tick counter, the stack of
// nodes being evaluated and the last recorded state of every node. The
// Engine walks the graph once per tick, reading and writing that state
// according to the semantics of each node kind.
package runtime
