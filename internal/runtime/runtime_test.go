package runtime

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type actions map[string]ports.Action

func (a actions) Lookup(name string) (ports.Action, bool) {
	impl, ok := a[name]
	return impl, ok
}

func testActions() actions {
	return actions{
		"success": ports.ActionFunc(func(domain.Args, ports.TickContext) (domain.Outcome, error) {
			return domain.Success(), nil
		}),
		"running": ports.ActionFunc(func(domain.Args, ports.TickContext) (domain.Outcome, error) {
			return domain.Running(), nil
		}),
		"fail": ports.ActionFunc(func(args domain.Args, _ ports.TickContext) (domain.Outcome, error) {
			reason, _ := args.Find("reason")
			s, _ := reason.(string)
			return domain.Failure(s), nil
		}),
		"inc": ports.ActionFunc(func(args domain.Args, tc ports.TickContext) (domain.Outcome, error) {
			key, _ := args.Find("key")
			v, _, err := tc.Blackboard().Get(tc.Context(), key.(string))
			if err != nil {
				return domain.Outcome{}, err
			}
			n, _ := v.(int64)
			return domain.Success(), tc.Blackboard().Put(tc.Context(), key.(string), n+1)
		}),
		"store_tick": ports.ActionFunc(func(_ domain.Args, tc ports.TickContext) (domain.Outcome, error) {
			return domain.Success(), tc.Blackboard().Put(tc.Context(), "tick", tc.CurrentTick())
		}),
		"slow": ports.ActionFunc(func(_ domain.Args, tc ports.TickContext) (domain.Outcome, error) {
			if tc.CurrentTick() >= 3 {
				return domain.Success(), nil
			}
			return domain.Running(), nil
		}),
		"echo": ports.ActionFunc(func(args domain.Args, tc ports.TickContext) (domain.Outcome, error) {
			v, _ := args.Find("value")
			return domain.Success(), tc.Blackboard().Put(tc.Context(), "echo", v)
		}),
		"broken": ports.ActionFunc(func(domain.Args, ports.TickContext) (domain.Outcome, error) {
			return domain.Outcome{}, errors.New("disk on fire")
		}),
	}
}

func graph(nodes ...domain.Node) *domain.Graph {
	g := domain.NewGraph()
	g.Root = 1
	for _, n := range nodes {
		g.Nodes[n.ID] = n
	}
	return g
}

func ids(v ...domain.NodeID) []domain.NodeID { return v }

func key(k string) domain.Args { return domain.Args{{Name: "key", Value: k}} }

func count(n int64) domain.Args { return domain.Args{{Name: "count", Value: n}} }

type run struct {
	out  domain.Outcome
	err  error
	tick int64
	bb   *memory.Blackboard
}

func (r run) int(t *testing.T, k string) int64 {
	t.Helper()
	v, ok, err := r.bb.Get(context.Background(), k)
	require.NoError(t, err)
	if !ok {
		return 0
	}
	return v.(int64)
}

func execute(g *domain.Graph, limit int64, opts ...EngineOption) run {
	bb := memory.NewBlackboard()
	x := NewExecution(context.Background(), bb, nil, limit, nil)
	out, err := NewEngine(g, testActions(), opts...).Run(x)
	return run{out: out, err: err, tick: x.CurrentTick(), bb: bb}
}

func TestExecution_StateFor(t *testing.T) {
	x := NewExecution(context.Background(), nil, nil, 0, nil)
	assert.Equal(t, domain.Ready(nil), x.StateFor(7))

	carried := domain.Args{{Name: "cursor", Value: int64(2)}}
	_, ok := x.RecordState(7, domain.NodeState{Status: domain.StatusRunning, Args: carried})
	assert.False(t, ok)
	assert.Equal(t, domain.StatusRunning, x.StateFor(7).Status)

	require.NoError(t, x.AdvanceTick())
	assert.Equal(t, domain.Ready(carried), x.StateFor(7))

	raw, ok := x.State(7)
	require.True(t, ok)
	assert.Equal(t, domain.StatusRunning, raw.Status)

	prev, ok := x.RecordState(7, domain.NodeState{Status: domain.StatusSuccess})
	assert.True(t, ok)
	assert.Equal(t, domain.StatusRunning, prev.Status)
}

func TestExecution_AdvanceTick(t *testing.T) {
	x := NewExecution(context.Background(), nil, nil, 3, nil)
	assert.Equal(t, int64(1), x.CurrentTick())
	require.NoError(t, x.AdvanceTick())

	err := x.AdvanceTick()
	require.Error(t, err, "the counter reached the budget")
	assert.ErrorIs(t, err, domain.ErrTickLimit)
	assert.ErrorIs(t, err, domain.RuntimeStopped)
	assert.Equal(t, int64(3), x.CurrentTick())

	unlimited := NewExecution(context.Background(), nil, nil, 0, nil)
	for i := 0; i < 1000; i++ {
		require.NoError(t, unlimited.AdvanceTick())
	}
}

func TestExecution_RootResult(t *testing.T) {
	x := NewExecution(context.Background(), nil, nil, 0, nil)

	_, err := x.RootResult(1)
	assert.ErrorIs(t, err, domain.ErrUnexpectedState)

	x.RecordState(1, domain.Ready(nil))
	_, err = x.RootResult(1)
	assert.ErrorIs(t, err, domain.RuntimeUnexpectedState)

	x.RecordState(1, domain.StateFrom(nil, domain.Failure("boom")))
	out, err := x.RootResult(1)
	require.NoError(t, err)
	assert.Equal(t, domain.Failure("boom"), out)
}

func TestExecution_Stack(t *testing.T) {
	x := NewExecution(context.Background(), nil, nil, 0, nil)
	_, ok := x.Peek()
	assert.False(t, ok)
	_, ok = x.Pop()
	assert.False(t, ok)

	x.Push(1)
	x.Push(4)
	assert.Equal(t, 2, x.Depth())
	assert.Equal(t, domain.NodeID(4), x.Current())

	id, ok := x.Pop()
	require.True(t, ok)
	assert.Equal(t, domain.NodeID(4), id)
	assert.Equal(t, domain.NodeID(1), x.Current())
}

func TestEngine_Events(t *testing.T) {
	g := graph(
		domain.RootNode(1, "main", ids(2)),
		domain.ActionNode(2, "success", nil),
	)
	var events []domain.Event
	tracer := ports.TracerFunc(func(e domain.Event) { events = append(events, e) })

	x := NewExecution(context.Background(), memory.NewBlackboard(), tracer, 0, nil)
	out, err := NewEngine(g, testActions()).Run(x)
	require.NoError(t, err)
	assert.Equal(t, domain.Success(), out)

	type step struct {
		kind  domain.EventKind
		id    domain.NodeID
		depth int
	}
	var got []step
	for _, e := range events {
		assert.Equal(t, int64(1), e.Tick)
		got = append(got, step{e.Kind, e.NodeID, e.Depth})
	}
	assert.Equal(t, []step{
		{domain.EventPushFrame, 1, 1},
		{domain.EventPushFrame, 2, 2},
		{domain.EventNewState, 2, 2},
		{domain.EventPopFrame, 2, 2},
		{domain.EventNewState, 1, 1},
		{domain.EventPopFrame, 1, 1},
	}, got)
}

func TestEngine_SequenceShortCircuit(t *testing.T) {
	g := graph(
		domain.RootNode(1, "main", ids(2)),
		domain.FlowNode(2, domain.FlowSequence, "seq", nil, ids(3, 4, 5)),
		domain.ActionNode(3, "inc", key("a")),
		domain.ActionNode(4, "fail", domain.Args{{Name: "reason", Value: "boom"}}),
		domain.ActionNode(5, "inc", key("b")),
	)
	r := execute(g, 0)
	require.NoError(t, r.err)
	assert.Equal(t, domain.Failure("boom"), r.out)
	assert.Equal(t, int64(1), r.int(t, "a"))
	assert.Equal(t, int64(0), r.int(t, "b"))
	assert.Equal(t, int64(1), r.tick)
}

func TestEngine_SequenceResumesRunningChild(t *testing.T) {
	g := graph(
		domain.RootNode(1, "main", ids(2)),
		domain.FlowNode(2, domain.FlowSequence, "seq", nil, ids(3, 4)),
		domain.ActionNode(3, "inc", key("a")),
		domain.ActionNode(4, "slow", nil),
	)
	r := execute(g, 0)
	require.NoError(t, r.err)
	assert.Equal(t, domain.Success(), r.out)
	assert.Equal(t, int64(3), r.tick)
	assert.Equal(t, int64(1), r.int(t, "a"))
}

func counterGraph(flow domain.FlowKind) *domain.Graph {
	return graph(
		domain.RootNode(1, "main", ids(2)),
		domain.DecoratorNode(2, domain.DecoratorRetry, count(5), 3),
		domain.LambdaNode(3, flow, ids(4, 5, 6, 7)),
		domain.ActionNode(4, "inc", key("k1")),
		domain.ActionNode(5, "inc", key("k2")),
		domain.ActionNode(6, "store_tick", nil),
		domain.ActionNode(7, "fail", domain.Args{{Name: "reason", Value: "fail"}}),
	)
}

func TestEngine_SequenceRestartsAfterFailure(t *testing.T) {
	r := execute(counterGraph(domain.FlowSequence), 0)
	require.NoError(t, r.err)
	assert.Equal(t, domain.Failure("fail"), r.out)
	assert.Equal(t, int64(5), r.tick)
	assert.Equal(t, int64(5), r.int(t, "k1"))
	assert.Equal(t, int64(5), r.int(t, "k2"))
	assert.Equal(t, int64(5), r.int(t, "tick"))
}

func TestEngine_MSequenceKeepsProgress(t *testing.T) {
	r := execute(counterGraph(domain.FlowMSequence), 0)
	require.NoError(t, r.err)
	assert.Equal(t, domain.Failure("fail"), r.out)
	assert.Equal(t, int64(5), r.tick)
	assert.Equal(t, int64(1), r.int(t, "k1"))
	assert.Equal(t, int64(1), r.int(t, "k2"))
	assert.Equal(t, int64(1), r.int(t, "tick"))
}

func TestEngine_ReactiveRestart(t *testing.T) {
	build := func(flow domain.FlowKind) *domain.Graph {
		return graph(
			domain.RootNode(1, "main", ids(2)),
			domain.LambdaNode(2, flow, ids(3, 4)),
			domain.ActionNode(3, "inc", key("a")),
			domain.ActionNode(4, "running", nil),
		)
	}

	r := execute(build(domain.FlowRSequence), 4)
	assert.ErrorIs(t, r.err, domain.ErrTickLimit)
	assert.Equal(t, int64(3), r.int(t, "a"), "ticks 1 to 3 run under a budget of 4")

	r = execute(build(domain.FlowSequence), 4)
	assert.ErrorIs(t, r.err, domain.ErrTickLimit)
	assert.Equal(t, int64(1), r.int(t, "a"))
}

func TestEngine_Fallback(t *testing.T) {
	fail := func(id domain.NodeID, reason string) domain.Node {
		return domain.ActionNode(id, "fail", domain.Args{{Name: "reason", Value: reason}})
	}

	t.Run("first success wins", func(t *testing.T) {
		g := graph(
			domain.RootNode(1, "main", ids(2)),
			domain.LambdaNode(2, domain.FlowFallback, ids(3, 4, 5)),
			fail(3, "one"),
			domain.ActionNode(4, "inc", key("a")),
			domain.ActionNode(5, "inc", key("b")),
		)
		r := execute(g, 0)
		require.NoError(t, r.err)
		assert.Equal(t, domain.Success(), r.out)
		assert.Equal(t, int64(1), r.int(t, "a"))
		assert.Equal(t, int64(0), r.int(t, "b"))
	})

	t.Run("all fail reports last reason", func(t *testing.T) {
		g := graph(
			domain.RootNode(1, "main", ids(2)),
			domain.LambdaNode(2, domain.FlowFallback, ids(3, 4)),
			fail(3, "one"),
			fail(4, "two"),
		)
		r := execute(g, 0)
		require.NoError(t, r.err)
		assert.Equal(t, domain.Failure("two"), r.out)
	})

	t.Run("reactive fallback retries earlier children", func(t *testing.T) {
		build := func(flow domain.FlowKind) *domain.Graph {
			return graph(
				domain.RootNode(1, "main", ids(2)),
				domain.LambdaNode(2, flow, ids(3, 4)),
				domain.DecoratorNode(3, domain.DecoratorInverter, nil, 5),
				domain.ActionNode(4, "running", nil),
				domain.ActionNode(5, "inc", key("a")),
			)
		}
		r := execute(build(domain.FlowRFallback), 4)
		assert.ErrorIs(t, r.err, domain.ErrTickLimit)
		assert.Equal(t, int64(3), r.int(t, "a"))

		r = execute(build(domain.FlowFallback), 4)
		assert.ErrorIs(t, r.err, domain.ErrTickLimit)
		assert.Equal(t, int64(1), r.int(t, "a"))
	})
}

func TestEngine_Parallel(t *testing.T) {
	t.Run("finished children are not ticked again", func(t *testing.T) {
		g := graph(
			domain.RootNode(1, "main", ids(2)),
			domain.LambdaNode(2, domain.FlowParallel, ids(3, 4)),
			domain.ActionNode(3, "inc", key("a")),
			domain.ActionNode(4, "slow", nil),
		)
		r := execute(g, 0)
		require.NoError(t, r.err)
		assert.Equal(t, domain.Success(), r.out)
		assert.Equal(t, int64(3), r.tick)
		assert.Equal(t, int64(1), r.int(t, "a"))
	})

	t.Run("one failure fails by default", func(t *testing.T) {
		g := graph(
			domain.RootNode(1, "main", ids(2)),
			domain.LambdaNode(2, domain.FlowParallel, ids(3, 4)),
			domain.ActionNode(3, "running", nil),
			domain.ActionNode(4, "fail", domain.Args{{Name: "reason", Value: "boom"}}),
		)
		r := execute(g, 0)
		require.NoError(t, r.err)
		assert.Equal(t, domain.Failure("boom"), r.out)
		assert.Equal(t, int64(1), r.tick)
	})

	t.Run("node arguments override the policy", func(t *testing.T) {
		g := graph(
			domain.RootNode(1, "main", ids(2)),
			domain.FlowNode(2, domain.FlowParallel, "any",
				domain.Args{{Name: domain.SuccessThresholdArg, Value: int64(1)}}, ids(3, 4)),
			domain.ActionNode(3, "running", nil),
			domain.ActionNode(4, "success", nil),
		)
		r := execute(g, 0)
		require.NoError(t, r.err)
		assert.Equal(t, domain.Success(), r.out)
	})

	t.Run("unreachable thresholds fail", func(t *testing.T) {
		g := graph(
			domain.RootNode(1, "main", ids(2)),
			domain.LambdaNode(2, domain.FlowParallel, ids(3, 4)),
			domain.ActionNode(3, "success", nil),
			domain.ActionNode(4, "fail", domain.Args{{Name: "reason", Value: "boom"}}),
		)
		r := execute(g, 0, WithParallelPolicy(domain.ParallelPolicy{Success: 2, Failure: 2}))
		require.NoError(t, r.err)
		assert.Equal(t, domain.StatusFailure, r.out.Status)
		assert.Contains(t, r.out.Reason, "unreachable")
	})
}

func TestEngine_Decorators(t *testing.T) {
	t.Run("retry ticks the child exactly count times", func(t *testing.T) {
		g := graph(
			domain.RootNode(1, "main", ids(2)),
			domain.DecoratorNode(2, domain.DecoratorRetry, count(3), 3),
			domain.LambdaNode(3, domain.FlowSequence, ids(4, 5)),
			domain.ActionNode(4, "inc", key("n")),
			domain.ActionNode(5, "fail", domain.Args{{Name: "reason", Value: "nope"}}),
		)
		r := execute(g, 0)
		require.NoError(t, r.err)
		assert.Equal(t, domain.Failure("nope"), r.out)
		assert.Equal(t, int64(3), r.int(t, "n"))
		assert.Equal(t, int64(3), r.tick)
	})

	t.Run("repeat counts successes", func(t *testing.T) {
		g := graph(
			domain.RootNode(1, "main", ids(2)),
			domain.DecoratorNode(2, domain.DecoratorRepeat, count(3), 3),
			domain.ActionNode(3, "inc", key("n")),
		)
		r := execute(g, 0)
		require.NoError(t, r.err)
		assert.Equal(t, domain.Success(), r.out)
		assert.Equal(t, int64(3), r.int(t, "n"))
		assert.Equal(t, int64(3), r.tick)
	})

	t.Run("timeout fails a child running too long", func(t *testing.T) {
		g := graph(
			domain.RootNode(1, "main", ids(2)),
			domain.DecoratorNode(2, domain.DecoratorTimeout, domain.Args{{Name: "duration", Value: int64(2)}}, 3),
			domain.ActionNode(3, "running", nil),
		)
		r := execute(g, 0)
		require.NoError(t, r.err)
		assert.Equal(t, domain.Failure("timeout"), r.out)
		assert.Equal(t, int64(3), r.tick)
	})

	t.Run("timeout passes a quick child", func(t *testing.T) {
		g := graph(
			domain.RootNode(1, "main", ids(2)),
			domain.DecoratorNode(2, domain.DecoratorTimeout, domain.Args{{Name: "duration", Value: int64(5)}}, 3),
			domain.ActionNode(3, "slow", nil),
		)
		r := execute(g, 0)
		require.NoError(t, r.err)
		assert.Equal(t, domain.Success(), r.out)
	})

	cases := []struct {
		dec   domain.DecoratorKind
		child string
		want  domain.Status
	}{
		{domain.DecoratorInverter, "success", domain.StatusFailure},
		{domain.DecoratorInverter, "fail", domain.StatusSuccess},
		{domain.DecoratorForceSuccess, "fail", domain.StatusSuccess},
		{domain.DecoratorForceFail, "success", domain.StatusFailure},
	}
	for _, tc := range cases {
		t.Run(string(tc.dec)+"/"+tc.child, func(t *testing.T) {
			g := graph(
				domain.RootNode(1, "main", ids(2)),
				domain.DecoratorNode(2, tc.dec, nil, 3),
				domain.ActionNode(3, tc.child, nil),
			)
			r := execute(g, 0)
			require.NoError(t, r.err)
			assert.Equal(t, tc.want, r.out.Status)
		})
	}
}

func TestEngine_TickBudget(t *testing.T) {
	g := graph(
		domain.RootNode(1, "main", ids(2)),
		domain.DecoratorNode(2, domain.DecoratorRepeat, nil, 3),
		domain.ActionNode(3, "inc", key("n")),
	)
	r := execute(g, 10)
	require.Error(t, r.err)
	assert.ErrorIs(t, r.err, domain.ErrTickLimit)
	assert.Equal(t, int64(9), r.int(t, "n"))
	assert.Equal(t, int64(10), r.tick)

	bounded := graph(
		domain.RootNode(1, "main", ids(2)),
		domain.DecoratorNode(2, domain.DecoratorRepeat, count(50), 3),
		domain.ActionNode(3, "inc", key("n")),
	)
	r = execute(bounded, 0)
	require.NoError(t, r.err)
	assert.Equal(t, int64(50), r.tick)
}

func TestEngine_Actions(t *testing.T) {
	t.Run("pointer arguments read the blackboard", func(t *testing.T) {
		g := graph(
			domain.RootNode(1, "main", ids(2)),
			domain.ActionNode(2, "echo", domain.Args{{Name: "value", Value: domain.Pointer("src")}}),
		)
		bb := memory.NewBlackboardFrom(map[string]any{"src": "hello"})
		x := NewExecution(context.Background(), bb, nil, 0, nil)
		out, err := NewEngine(g, testActions()).Run(x)
		require.NoError(t, err)
		assert.Equal(t, domain.Success(), out)

		v, ok, err := bb.Get(context.Background(), "echo")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "hello", v)
	})

	t.Run("missing pointer key fails the action", func(t *testing.T) {
		g := graph(
			domain.RootNode(1, "main", ids(2)),
			domain.ActionNode(2, "echo", domain.Args{{Name: "value", Value: domain.Pointer("src")}}),
		)
		r := execute(g, 0)
		require.NoError(t, r.err)
		assert.Equal(t, domain.StatusFailure, r.out.Status)
		assert.Contains(t, r.out.Reason, "src")
	})

	t.Run("action errors become failures", func(t *testing.T) {
		g := graph(
			domain.RootNode(1, "main", ids(2)),
			domain.ActionNode(2, "broken", nil),
		)
		r := execute(g, 0)
		require.NoError(t, r.err)
		assert.Equal(t, domain.Failure("disk on fire"), r.out)
	})

	t.Run("unregistered actions stop the run before ticking", func(t *testing.T) {
		g := graph(
			domain.RootNode(1, "main", ids(2, 3)),
			domain.ActionNode(2, "inc", key("a")),
			domain.ActionNode(3, "nobody", nil),
		)
		r := execute(g, 0)
		require.Error(t, r.err)
		assert.ErrorIs(t, r.err, domain.ErrActionNotRegistered)
		assert.Contains(t, r.err.Error(), "nobody")
		assert.Equal(t, int64(0), r.int(t, "a"))
	})
}

func TestEngine_StdActions(t *testing.T) {
	std := actions{
		"echo": ports.ActionFunc(func(args domain.Args, tc ports.TickContext) (domain.Outcome, error) {
			return domain.Success(), tc.Blackboard().Put(tc.Context(), "std", "called")
		}),
	}

	t.Run("std and host actions of the same name stay apart", func(t *testing.T) {
		g := graph(
			domain.RootNode(1, "main", ids(2, 3)),
			domain.StdActionNode(2, "echo", nil),
			domain.ActionNode(3, "echo", domain.Args{{Name: "value", Value: "host"}}),
		)
		r := execute(g, 0, WithStdActions(std))
		require.NoError(t, r.err)
		assert.Equal(t, domain.Success(), r.out)

		v, _, err := r.bb.Get(context.Background(), "std")
		require.NoError(t, err)
		assert.Equal(t, "called", v)
		v, _, err = r.bb.Get(context.Background(), "echo")
		require.NoError(t, err)
		assert.Equal(t, "host", v)
	})

	t.Run("a std action missing from the std lookup is reported", func(t *testing.T) {
		g := graph(
			domain.RootNode(1, "main", ids(2, 3)),
			domain.ActionNode(2, "success", nil),
			domain.StdActionNode(3, "success", nil),
		)
		r := execute(g, 0, WithStdActions(std))
		assert.ErrorIs(t, r.err, domain.ErrActionNotRegistered)
		assert.Contains(t, r.err.Error(), `"std::success"`)
		assert.NotContains(t, r.err.Error(), `"success"`)
	})

	t.Run("without a std lookup std nodes use the host actions", func(t *testing.T) {
		g := graph(
			domain.RootNode(1, "main", ids(2)),
			domain.StdActionNode(2, "inc", key("a")),
		)
		r := execute(g, 0)
		require.NoError(t, r.err)
		assert.Equal(t, int64(1), r.int(t, "a"))
	})
}

func TestEngine_ContextCancelled(t *testing.T) {
	g := graph(
		domain.RootNode(1, "main", ids(2)),
		domain.ActionNode(2, "running", nil),
	)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	x := NewExecution(ctx, memory.NewBlackboard(), nil, 0, nil)
	_, err := NewEngine(g, testActions()).Run(x)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, domain.RuntimeStopped)
}
