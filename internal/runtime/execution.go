package runtime

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
)

// Execution is the mutable state of a single run.
// It is not safe for concurrent use.
type Execution struct {
	ctx    context.Context
	bb     ports.Blackboard
	tracer ports.Tracer
	logger *slog.Logger

	tick  int64
	limit int64
	stack []domain.NodeID

	states map[domain.NodeID]domain.NodeState
	stamps map[domain.NodeID]int64
}

// NewExecution starts a run at tick 1. A tickLimit of zero disables the budget.
func NewExecution(ctx context.Context, bb ports.Blackboard, tracer ports.Tracer, tickLimit int64, logger *slog.Logger) *Execution {
	if ctx == nil {
		ctx = context.Background()
	}
	if tracer == nil {
		tracer = ports.NopTracer
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Execution{
		ctx:    ctx,
		bb:     bb,
		tracer: tracer,
		logger: logger,
		tick:   1,
		limit:  tickLimit,
		states: make(map[domain.NodeID]domain.NodeState),
		stamps: make(map[domain.NodeID]int64),
	}
}

// AdvanceTick moves to the next tick. Once the counter reaches a non-zero
// budget it returns a Stopped error wrapping domain.ErrTickLimit.
func (x *Execution) AdvanceTick() error {
	x.tick++
	x.tracer.Trace(domain.Event{Tick: x.tick, Kind: domain.EventNextTick, Depth: len(x.stack)})
	if x.limit != 0 && x.tick >= x.limit {
		return &domain.RuntimeError{
			Kind:    domain.RuntimeStopped,
			Message: fmt.Sprintf("tick limit of %d reached", x.limit),
			Err:     domain.ErrTickLimit,
		}
	}
	return nil
}

// Push enters a node.
func (x *Execution) Push(id domain.NodeID) {
	x.stack = append(x.stack, id)
	x.tracer.Trace(domain.Event{Tick: x.tick, Kind: domain.EventPushFrame, Depth: len(x.stack), NodeID: id})
}

// Pop leaves the node on top of the stack.
func (x *Execution) Pop() (domain.NodeID, bool) {
	if len(x.stack) == 0 {
		return 0, false
	}
	depth := len(x.stack)
	id := x.stack[depth-1]
	x.stack = x.stack[:depth-1]
	x.tracer.Trace(domain.Event{Tick: x.tick, Kind: domain.EventPopFrame, Depth: depth, NodeID: id})
	return id, true
}

// Peek returns the node on top of the stack.
func (x *Execution) Peek() (domain.NodeID, bool) {
	if len(x.stack) == 0 {
		return 0, false
	}
	return x.stack[len(x.stack)-1], true
}

// Depth is the current stack size.
func (x *Execution) Depth() int { return len(x.stack) }

// RecordState stores the state of a node for the current tick and returns
// the previous one, if any.
func (x *Execution) RecordState(id domain.NodeID, s domain.NodeState) (domain.NodeState, bool) {
	prev, ok := x.states[id]
	x.states[id] = s
	x.stamps[id] = x.tick
	x.tracer.Trace(domain.Event{Tick: x.tick, Kind: domain.EventNewState, Depth: len(x.stack), NodeID: id, State: s})
	return prev, ok
}

// StateFor returns the state of a node as seen in the current tick.
// A state recorded in an earlier tick comes back as Ready, keeping its args.
func (x *Execution) StateFor(id domain.NodeID) domain.NodeState {
	s, ok := x.states[id]
	if !ok {
		return domain.Ready(nil)
	}
	if x.stamps[id] != x.tick {
		return domain.Ready(s.Args)
	}
	return s
}

// State returns the raw recorded state of a node, without the staleness reset.
func (x *Execution) State(id domain.NodeID) (domain.NodeState, bool) {
	s, ok := x.states[id]
	return s, ok
}

// RootResult reports the outcome of the root. A missing or Ready root is
// an UnexpectedState error.
func (x *Execution) RootResult(root domain.NodeID) (domain.Outcome, error) {
	s, ok := x.states[root]
	if !ok {
		return domain.Outcome{}, &domain.RuntimeError{
			Kind:    domain.RuntimeUnexpectedState,
			Message: fmt.Sprintf("root %s has no state", root),
		}
	}
	return s.Outcome()
}

// Context implements ports.TickContext.
func (x *Execution) Context() context.Context { return x.ctx }

// Blackboard implements ports.TickContext.
func (x *Execution) Blackboard() ports.Blackboard { return x.bb }

// CurrentTick implements ports.TickContext.
func (x *Execution) CurrentTick() int64 { return x.tick }

// Current implements ports.TickContext.
func (x *Execution) Current() domain.NodeID {
	id, _ := x.Peek()
	return id
}

// Logger implements ports.TickContext.
func (x *Execution) Logger() *slog.Logger { return x.logger }

var _ ports.TickContext = (*Execution)(nil)
