package ports

import (
	"context"
	"log/slog"

	"github.com/aretw0/arbor/pkg/domain"
)

// TickContext is what an action sees while it is being ticked.
type TickContext interface {
	Context() context.Context
	Blackboard() Blackboard
	CurrentTick() int64
	// Current is the id of the action node being ticked.
	Current() domain.NodeID
	Logger() *slog.Logger
}

// Action is a leaf behavior supplied by the host.
//
// args holds the bound arguments with blackboard pointers already
// dereferenced, merged over the arguments the node carried from its
// previous tick. Returning an error fails the node with the error text as
// the reason.
type Action interface {
	Tick(args domain.Args, tc TickContext) (domain.Outcome, error)
}

// ActionFunc adapts a function to the Action interface.
type ActionFunc func(args domain.Args, tc TickContext) (domain.Outcome, error)

func (f ActionFunc) Tick(args domain.Args, tc TickContext) (domain.Outcome, error) {
	return f(args, tc)
}

// ActionLookup resolves action names to implementations.
type ActionLookup interface {
	Lookup(name string) (Action, bool)
}
