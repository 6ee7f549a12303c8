package runtime

import (
	"fmt"

	"github.com/aretw0/arbor/pkg/domain"
)

// Bookkeeping arguments carried in node states between ticks.
const (
	cursorArg   = "cursor"
	attemptArg  = "attempt"
	elapsedArg  = "elapsed"
	childrenArg = "children"
)

// eval ticks a node and records its new state.
func (e *Engine) eval(x *Execution, id domain.NodeID) (domain.Outcome, error) {
	node, err := e.graph.Node(id)
	if err != nil {
		return domain.Outcome{}, err
	}

	x.Push(id)
	defer x.Pop()

	st := x.StateFor(id)
	if st.Status.IsTerminal() {
		return st.Outcome()
	}

	var (
		out  domain.Outcome
		args domain.Args
	)
	switch node.Kind {
	case domain.KindRoot:
		out, args, err = e.sequence(x, node, st, false, false)
	case domain.KindFlow:
		out, args, err = e.flow(x, node, st)
	case domain.KindDecorator:
		out, args, err = e.decorator(x, node, st)
	case domain.KindAction:
		out, args, err = e.action(x, node, st)
	default:
		err = &domain.RuntimeError{
			Kind:    domain.RuntimeUnexpectedState,
			Message: fmt.Sprintf("node %s has kind %s", id, node.Kind),
		}
	}
	if err != nil {
		return domain.Outcome{}, err
	}
	x.RecordState(id, domain.StateFrom(args, out))
	return out, nil
}

func (e *Engine) flow(x *Execution, node domain.Node, st domain.NodeState) (domain.Outcome, domain.Args, error) {
	switch node.Flow {
	case domain.FlowSequence:
		return e.sequence(x, node, st, false, false)
	case domain.FlowMSequence:
		return e.sequence(x, node, st, false, true)
	case domain.FlowRSequence:
		return e.sequence(x, node, st, true, false)
	case domain.FlowFallback:
		return e.fallback(x, node, st, false)
	case domain.FlowRFallback:
		return e.fallback(x, node, st, true)
	case domain.FlowParallel:
		return e.parallel(x, node, st)
	}
	return domain.Outcome{}, nil, &domain.RuntimeError{
		Kind:    domain.RuntimeUnexpectedState,
		Message: fmt.Sprintf("node %s has unknown flow %q", node.ID, node.Flow),
	}
}

// cursor is the child index a non-reactive flow resumes from.
func cursor(st domain.NodeState, n int) int {
	c, ok := st.Args.Int(cursorArg)
	if !ok || c < 0 || int(c) >= n {
		return 0
	}
	return int(c)
}

// sequence ticks children in order until one does not succeed.
// A reactive sequence restarts at the first child every tick; a memory
// sequence also resumes at a child that failed.
func (e *Engine) sequence(x *Execution, node domain.Node, st domain.NodeState, reactive, memory bool) (domain.Outcome, domain.Args, error) {
	start := 0
	if !reactive {
		start = cursor(st, len(node.Children))
	}
	args := st.Args.Without(cursorArg)
	for i := start; i < len(node.Children); i++ {
		out, err := e.eval(x, node.Children[i])
		if err != nil {
			return domain.Outcome{}, nil, err
		}
		switch out.Status {
		case domain.StatusRunning:
			if !reactive {
				args = args.With(cursorArg, int64(i))
			}
			return out, args, nil
		case domain.StatusFailure:
			if memory {
				args = args.With(cursorArg, int64(i))
			}
			return out, args, nil
		}
	}
	return domain.Success(), args, nil
}

// fallback ticks children in order until one does not fail.
func (e *Engine) fallback(x *Execution, node domain.Node, st domain.NodeState, reactive bool) (domain.Outcome, domain.Args, error) {
	start := 0
	if !reactive {
		start = cursor(st, len(node.Children))
	}
	args := st.Args.Without(cursorArg)
	last := domain.Failure("")
	for i := start; i < len(node.Children); i++ {
		out, err := e.eval(x, node.Children[i])
		if err != nil {
			return domain.Outcome{}, nil, err
		}
		switch out.Status {
		case domain.StatusRunning:
			if !reactive {
				args = args.With(cursorArg, int64(i))
			}
			return out, args, nil
		case domain.StatusSuccess:
			return out, args, nil
		}
		last = out
	}
	return last, args, nil
}

// parallel ticks every unfinished child once per tick and settles when the
// success or failure threshold is reached. Results of children that finished
// in earlier ticks are carried in the node state.
func (e *Engine) parallel(x *Execution, node domain.Node, st domain.NodeState) (domain.Outcome, domain.Args, error) {
	n := len(node.Children)
	done := make([]any, n)
	if prev, ok := st.Args.Find(childrenArg); ok {
		if list, ok := prev.([]any); ok && len(list) == n {
			copy(done, list)
		}
	}

	var succeeded, failed, running int
	reason := ""
	for i, child := range node.Children {
		status, _ := done[i].(int64)
		if domain.Status(status).IsTerminal() {
			if domain.Status(status) == domain.StatusSuccess {
				succeeded++
			} else {
				failed++
			}
			continue
		}
		out, err := e.eval(x, child)
		if err != nil {
			return domain.Outcome{}, nil, err
		}
		done[i] = int64(out.Status)
		switch out.Status {
		case domain.StatusSuccess:
			succeeded++
		case domain.StatusFailure:
			failed++
			if reason == "" {
				reason = out.Reason
			}
		default:
			running++
		}
	}

	success, failure := e.policy.Override(node.Args).Thresholds(n)
	args := st.Args.Without(childrenArg)
	switch {
	case succeeded >= success:
		return domain.Success(), args, nil
	case failed >= failure:
		return domain.Failure(reason), args, nil
	case succeeded+running < success && failed+running < failure:
		return domain.Failure("parallel thresholds unreachable"), args, nil
	}
	return domain.Running(), args.With(childrenArg, done), nil
}

func (e *Engine) decorator(x *Execution, node domain.Node, st domain.NodeState) (domain.Outcome, domain.Args, error) {
	out, err := e.eval(x, node.Children[0])
	if err != nil {
		return domain.Outcome{}, nil, err
	}
	args := st.Args
	limit := decoratorLimit(node)

	switch node.Decorator {
	case domain.DecoratorInverter:
		switch out.Status {
		case domain.StatusSuccess:
			return domain.Failure("inverted"), args, nil
		case domain.StatusFailure:
			return domain.Success(), args, nil
		}
		return out, args, nil

	case domain.DecoratorForceSuccess:
		if out.Status.IsTerminal() {
			return domain.Success(), args, nil
		}
		return out, args, nil

	case domain.DecoratorForceFail:
		if out.Status == domain.StatusSuccess {
			return domain.Failure("forced"), args, nil
		}
		return out, args, nil

	case domain.DecoratorRepeat:
		switch out.Status {
		case domain.StatusFailure:
			return out, args.Without(attemptArg), nil
		case domain.StatusSuccess:
			attempt, _ := args.Int(attemptArg)
			attempt++
			if limit > 0 && attempt >= limit {
				return domain.Success(), args.Without(attemptArg), nil
			}
			return domain.Running(), args.With(attemptArg, attempt), nil
		}
		return out, args, nil

	case domain.DecoratorRetry:
		switch out.Status {
		case domain.StatusSuccess:
			return out, args.Without(attemptArg), nil
		case domain.StatusFailure:
			attempt, _ := args.Int(attemptArg)
			attempt++
			if limit > 0 && attempt >= limit {
				return out, args.Without(attemptArg), nil
			}
			x.Logger().Debug("retrying", "node", node.ID, "attempt", attempt, "reason", out.Reason)
			return domain.Running(), args.With(attemptArg, attempt), nil
		}
		return out, args, nil

	case domain.DecoratorTimeout:
		if out.Status.IsTerminal() {
			return out, args.Without(elapsedArg), nil
		}
		elapsed, _ := args.Int(elapsedArg)
		elapsed++
		if elapsed > limit {
			return domain.Failure("timeout"), args.Without(elapsedArg), nil
		}
		return out, args.With(elapsedArg, elapsed), nil
	}

	return domain.Outcome{}, nil, &domain.RuntimeError{
		Kind:    domain.RuntimeUnexpectedState,
		Message: fmt.Sprintf("node %s has unknown decorator %q", node.ID, node.Decorator),
	}
}

// decoratorLimit is the count or duration argument of a decorator.
// Zero means no limit.
func decoratorLimit(node domain.Node) int64 {
	if len(node.Args) == 0 {
		return 0
	}
	v, _ := node.Args[0].Value.(int64)
	return v
}

func (e *Engine) action(x *Execution, node domain.Node, st domain.NodeState) (domain.Outcome, domain.Args, error) {
	impl, ok := e.lookup(node)
	if !ok {
		return domain.Outcome{}, nil, &domain.RuntimeError{
			Kind:    domain.RuntimeActionNotRegistered,
			Message: fmt.Sprintf("action %q", actionLabel(node)),
		}
	}

	bound, failure := e.resolve(x, node.Args)
	args := st.Args.Without(domain.ReasonKey).Merge(bound)
	if failure != "" {
		return domain.Failure(failure), args, nil
	}

	out, err := impl.Tick(args, x)
	if err != nil {
		x.Logger().Warn("action failed", "node", node.ID, "action", node.Label(), "err", err)
		return domain.Failure(err.Error()), args, nil
	}
	if out.Status == domain.StatusReady {
		return domain.Outcome{}, nil, &domain.RuntimeError{
			Kind:    domain.RuntimeUnexpectedState,
			Message: fmt.Sprintf("action %q returned ready", node.Name),
		}
	}
	return out, args, nil
}

// resolve dereferences blackboard pointers in args. A non-empty failure
// reports a key that could not be read.
func (e *Engine) resolve(x *Execution, args domain.Args) (domain.Args, string) {
	out := make(domain.Args, 0, len(args))
	for _, arg := range args {
		p, ok := arg.Value.(domain.Pointer)
		if !ok {
			out = append(out, arg)
			continue
		}
		if x.Blackboard() == nil {
			return out, fmt.Sprintf("no blackboard for %s", p)
		}
		v, found, err := x.Blackboard().Get(x.Context(), string(p))
		if err != nil {
			x.Logger().Warn("blackboard read failed", "key", string(p), "err", err)
			return out, err.Error()
		}
		if !found {
			return out, fmt.Sprintf("%s: %s", domain.ErrKeyNotFound, p)
		}
		out = append(out, domain.Arg{Name: arg.Name, Value: v})
	}
	return out, ""
}
