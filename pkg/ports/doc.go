/*
Package ports defines the driven ports (interfaces) for the Arbor engine.

These interfaces decouple the compiler and the tick engine from external
implementations, allowing the engine to read sources from any backend, keep
its blackboard in memory or in Redis and report progress to any trace sink.

# Key Interfaces

  - SourceLoader: Reads raw source files (e.g., from the file system or memory).
  - DefinitionResolver: Resolves a tree name as seen from a given file.
  - Blackboard: The shared key-value store actions read and write.
  - Action: A user supplied leaf behavior, ticked with a TickContext.
  - Tracer: Receives execution events.
  - DistributedLocker: Provides distributed locking to serialize runs across replicas.
*/
package ports
