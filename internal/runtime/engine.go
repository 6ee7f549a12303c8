package runtime

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
)

// Engine evaluates a compiled graph against an Execution.
// It holds no per-run state and can drive many executions.
type Engine struct {
	graph   *domain.Graph
	actions ports.ActionLookup
	std     ports.ActionLookup
	policy  domain.ParallelPolicy
	logger  *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithParallelPolicy sets the default thresholds of Parallel nodes.
func WithParallelPolicy(p domain.ParallelPolicy) EngineOption {
	return func(e *Engine) {
		e.policy = p
	}
}

// WithStdActions resolves the std::actions nodes of the graph through l,
// apart from the host actions. Without it they share the host lookup.
func WithStdActions(l ports.ActionLookup) EngineOption {
	return func(e *Engine) {
		e.std = l
	}
}

// NewEngine creates an engine for graph, resolving actions through actions.
func NewEngine(graph *domain.Graph, actions ports.ActionLookup, opts ...EngineOption) *Engine {
	e := &Engine{
		graph:   graph,
		actions: actions,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Graph returns the graph the engine evaluates.
func (e *Engine) Graph() *domain.Graph { return e.graph }

// Check verifies that every action called by the graph has an implementation.
func (e *Engine) Check() error {
	var errs []error
	seen := make(map[string]struct{})
	for _, id := range e.graph.IDs() {
		node := e.graph.Nodes[id]
		if node.Kind != domain.KindAction {
			continue
		}
		label := actionLabel(node)
		if _, done := seen[label]; done {
			continue
		}
		seen[label] = struct{}{}
		if _, ok := e.lookup(node); !ok {
			errs = append(errs, &domain.RuntimeError{
				Kind:    domain.RuntimeActionNotRegistered,
				Message: fmt.Sprintf("action %q", label),
			})
		}
	}
	return errors.Join(errs...)
}

// lookup finds the implementation of an action node.
func (e *Engine) lookup(node domain.Node) (ports.Action, bool) {
	if node.Std && e.std != nil {
		return e.std.Lookup(node.Name)
	}
	return e.actions.Lookup(node.Name)
}

func actionLabel(node domain.Node) string {
	if node.Std {
		return "std::" + node.Name
	}
	return node.Name
}

// Tick evaluates the graph once in the current tick of x.
func (e *Engine) Tick(x *Execution) (domain.Outcome, error) {
	if _, err := e.eval(x, e.graph.Root); err != nil {
		return domain.Outcome{}, err
	}
	return x.RootResult(e.graph.Root)
}

// Run ticks the graph until the root is terminal, the tick budget of x is
// exhausted or its context is done.
func (e *Engine) Run(x *Execution) (domain.Outcome, error) {
	if err := e.Check(); err != nil {
		return domain.Outcome{}, err
	}
	for {
		if err := x.Context().Err(); err != nil {
			return domain.Outcome{}, &domain.RuntimeError{Kind: domain.RuntimeStopped, Err: err}
		}
		out, err := e.Tick(x)
		if err != nil {
			return domain.Outcome{}, err
		}
		if out.Status != domain.StatusRunning {
			e.logger.Debug("run finished", "tick", x.CurrentTick(), "outcome", out.String())
			return out, nil
		}
		if err := x.AdvanceTick(); err != nil {
			e.logger.Warn("run stopped", "tick", x.CurrentTick(), "err", err)
			return domain.Outcome{}, err
		}
	}
}
