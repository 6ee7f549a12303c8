/*
Package arbor is a behavior-tree runtime driven by a small declarative language.

Trees are written as YAML documents describing definitions (root, flow,
decorator and action declarations) spread across files that import each
other. Arbor parses them, resolves names across files, compiles the
result into a flat graph of nodes addressed by integer ids and ticks that
graph against a shared key-value store, the blackboard, until the root
succeeds or fails.

# Concept

A tree is evaluated once per tick. Flow nodes (sequence, fallback,
parallel and their reactive and memory variants) decide which children
to tick, decorators (inverter, retry, repeat, timeout, ...) reshape the
result of their single child and actions are leaves implemented by the
host in Go. A node that needs more time returns Running and is ticked
again on the next tick.

# Usage

	engine, err := arbor.New("./trees",
		arbor.WithAction("say", ports.ActionFunc(func(args domain.Args, tc ports.TickContext) (domain.Outcome, error) {
			fmt.Println(args.Map()["text"])
			return domain.Success(), nil
		})),
		arbor.WithTickLimit(100),
	)
	if err != nil {
		log.Fatal(err)
	}
	res, err := engine.Run(ctx, ports.RunRequest{})

# Key Components

  - pkg/ast: the parsed definitions.
  - pkg/project: files, imports and name resolution.
  - pkg/domain: the compiled graph, node states and trace events.
  - pkg/ports: the interfaces hosts implement (actions, blackboards, loaders).
  - pkg/adapters: memory, file and redis implementations, plus the HTTP driver.
*/
package arbor
