/*
Package domain contains the runtime model of the Arbor behavior-tree engine.

It defines the entities produced by the compiler and consumed by the tick
engine. The package is kept pure and free of I/O, following the same
hexagonal layout as the rest of the module.

# Key Entities

  - Node: a compiled tree node (Root, Flow, Decorator or Action) addressed by a NodeID.
  - Graph: the flat id-addressed node table with a single root.
  - Args: ordered runtime arguments bound to a node or carried in its state.
  - NodeState: the per-node status (Ready, Running, Success, Failure) with carried args.
  - Outcome: the result of one tick of a node.
  - Event: a trace record emitted by the execution context.
*/
package domain
