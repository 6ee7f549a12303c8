package compiler

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/ast"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/project"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testStd = []*ast.Tree{
	{Type: ast.Impl, Name: "success"},
	{Type: ast.Impl, Name: "fail", Params: []ast.Param{{Name: "reason", Type: ast.MesString}}},
}

func compile(t *testing.T, files map[string]string) (*domain.Graph, error) {
	t.Helper()
	p, err := project.Load(context.Background(), memory.NewLoader(files), NewParser(), "main.yaml", project.WithStd(testStd))
	if err != nil {
		return nil, err
	}
	return Build(p, nil)
}

func mustCompile(t *testing.T, files map[string]string) *domain.Graph {
	t.Helper()
	g, err := compile(t, files)
	require.NoError(t, err)
	return g
}

const hoProject = `
trees:
  - type: root
    name: main
    calls:
      - invoke: id
        args: [{name: op, call: {invoke: say_hi}}]
  - type: sequence
    name: id
    params: [{name: op, type: tree}]
    calls:
      - invoke: wrapper
        args: [{name: operation, call: {ho: op}}]
  - type: sequence
    name: wrapper
    params: [{name: operation, type: tree}]
    calls:
      - ho: operation
  - type: impl
    name: say_hi
`

func TestBuild_HigherOrder(t *testing.T) {
	g := mustCompile(t, map[string]string{"main.yaml": hoProject})

	want := &domain.Graph{
		Root: 1,
		Nodes: map[domain.NodeID]domain.Node{
			1: domain.RootNode(1, "main", []domain.NodeID{2}),
			2: domain.FlowNode(2, domain.FlowSequence, "id",
				domain.Args{{Name: "op", Value: ast.Invocation{Name: "say_hi"}}}, []domain.NodeID{3}),
			3: domain.FlowNode(3, domain.FlowSequence, "wrapper",
				domain.Args{{Name: "operation", Value: ast.HoInvocation{Name: "op"}}}, []domain.NodeID{4}),
			4: domain.ActionNode(4, "say_hi", nil),
		},
		StdActions: map[string]struct{}{},
	}
	assert.Equal(t, want, g)
}

func TestBuild_IdentifierPassThrough(t *testing.T) {
	src := `
trees:
  - type: root
    name: main
    calls:
      - invoke: outer
        args: [{call: {invoke: say, args: [{value: hi}]}}]
  - type: sequence
    name: outer
    params: [{name: op, type: tree}]
    calls:
      - lambda: fallback
        calls:
          - invoke: inner
            args: [{name: operation, id: op}]
  - type: sequence
    name: inner
    params: [{name: operation, type: tree}]
    calls:
      - decorator: inverter
        call: {ho: operation}
  - type: impl
    name: say
    params: [{name: text, type: string}]
`
	g := mustCompile(t, map[string]string{"main.yaml": src})

	// 1 root, 2 outer, 3 fallback, 4 inner, 5 inverter, 6 say
	inner := g.Nodes[4]
	assert.Equal(t, domain.Args{{Name: "operation", Value: ast.HoInvocation{Name: "op"}}}, inner.Args)
	assert.Equal(t, domain.DecoratorNode(5, domain.DecoratorInverter, nil, 6), g.Nodes[5])
	assert.Equal(t, domain.ActionNode(6, "say", domain.Args{{Name: "text", Value: "hi"}}), g.Nodes[6])
}

func TestBuild_HigherOrderResolvesWhereWritten(t *testing.T) {
	lib := `
trees:
  - type: sequence
    name: wrapper
    params: [{name: op, type: tree}]
    calls:
      - ho: op
`
	main := `
imports:
  - file: lib.yaml
trees:
  - type: root
    name: main
    calls:
      - invoke: wrapper
        args: [{call: {invoke: local_action}}]
  - type: impl
    name: local_action
`
	g := mustCompile(t, map[string]string{"main.yaml": main, "lib.yaml": lib})
	assert.Equal(t, domain.ActionNode(3, "local_action", nil), g.Nodes[3])
}

func TestBuild_LambdaDecoratorComposition(t *testing.T) {
	src := `
trees:
  - type: root
    name: main
    calls:
      - invoke: seq
        args: [{value: a}, {value: b}]
  - type: sequence
    name: seq
    params:
      - {name: first, type: string}
      - {name: second, type: string}
    calls:
      - lambda: fallback
        calls:
          - invoke: action1
          - decorator: repeat
            args: [{name: x, value: 1}]
            call: {invoke: action2}
      - invoke: action3
  - {type: impl, name: action1}
  - {type: impl, name: action2}
  - {type: impl, name: action3}
`
	g := mustCompile(t, map[string]string{"main.yaml": src})

	want := map[domain.NodeID]domain.Node{
		1: domain.RootNode(1, "main", []domain.NodeID{2}),
		2: domain.FlowNode(2, domain.FlowSequence, "seq",
			domain.Args{{Name: "first", Value: "a"}, {Name: "second", Value: "b"}}, []domain.NodeID{3, 4}),
		3: domain.LambdaNode(3, domain.FlowFallback, []domain.NodeID{5, 6}),
		4: domain.ActionNode(4, "action3", nil),
		5: domain.ActionNode(5, "action1", nil),
		6: domain.DecoratorNode(6, domain.DecoratorRepeat, domain.Args{{Name: "x", Value: int64(1)}}, 7),
		7: domain.ActionNode(7, "action2", nil),
	}
	assert.Equal(t, want, g.Nodes)
	assert.Equal(t, domain.NodeID(1), g.Root)
}

func TestBuild_AliasAndStd(t *testing.T) {
	src := `
imports:
  - file: std::actions
    names: [success, {name: fail, as: boom}]
  - file: other.yaml
    names: [{name: hello, as: hi}]
trees:
  - type: root
    name: main
    calls:
      - invoke: success
      - invoke: boom
        args: [{value: bad}]
      - invoke: hi
`
	other := `
trees:
  - type: sequence
    name: hello
    calls: [{invoke: helper}]
  - {type: impl, name: helper}
`
	g := mustCompile(t, map[string]string{"main.yaml": src, "other.yaml": other})

	assert.Equal(t, domain.StdActionNode(2, "success", nil), g.Nodes[2])
	assert.Equal(t, domain.StdActionNode(3, "fail", domain.Args{{Name: "reason", Value: "bad"}}).WithAlias("boom"), g.Nodes[3])
	assert.Equal(t, domain.FlowNode(4, domain.FlowSequence, "hello", nil, []domain.NodeID{5}).WithAlias("hi"), g.Nodes[4])
	assert.Equal(t, domain.ActionNode(5, "helper", nil), g.Nodes[5], "the body resolves in the file of the definition")
	assert.True(t, g.IsStd("success"))
	assert.True(t, g.IsStd("fail"))
	assert.False(t, g.IsStd("helper"))
	assert.Equal(t, []string{"fail", "helper", "success"}, g.ActionNames())
	assert.Equal(t, []string{"fail", "success"}, g.StdActionNames())
}

func TestBuild_StdAndLocalActionShareName(t *testing.T) {
	src := `
imports:
  - file: std::actions
    names: [{name: fail, as: std_fail}]
trees:
  - type: root
    name: main
    calls:
      - invoke: std_fail
        args: [{value: from std}]
      - invoke: fail
        args: [{value: from host}]
  - type: impl
    name: fail
    params: [{name: line, type: string}]
`
	g := mustCompile(t, map[string]string{"main.yaml": src})

	assert.Equal(t, domain.StdActionNode(2, "fail", domain.Args{{Name: "reason", Value: "from std"}}).WithAlias("std_fail"), g.Nodes[2])
	assert.Equal(t, domain.ActionNode(3, "fail", domain.Args{{Name: "line", Value: "from host"}}), g.Nodes[3])
	assert.Equal(t, []string{"fail"}, g.StdActionNames())
	assert.Equal(t, []string{"fail"}, g.ActionNames())
}

func TestBuild_PointerArguments(t *testing.T) {
	src := `
trees:
  - type: root
    name: main
    calls:
      - invoke: store
        args: [{name: key, value: k}, {name: value, id: source}]
  - type: impl
    name: store
    params: [{name: key, type: string}, {name: value, type: string}]
`
	g := mustCompile(t, map[string]string{"main.yaml": src})
	assert.Equal(t, domain.Args{
		{Name: "key", Value: "k"},
		{Name: "value", Value: domain.Pointer("source")},
	}, g.Nodes[2].Args)
}

func TestBuild_NamedArgsFollowParamOrder(t *testing.T) {
	src := `
trees:
  - type: root
    name: main
    calls:
      - invoke: act
        args: [{name: b, value: 2}, {name: a, value: 1}]
  - type: impl
    name: act
    params: [{name: a, type: num}, {name: b, type: num}]
`
	g := mustCompile(t, map[string]string{"main.yaml": src})
	assert.Equal(t, "a=1,b=2", g.Nodes[2].Args.String())
}

func TestBuild_Deterministic(t *testing.T) {
	files := map[string]string{"main.yaml": hoProject}
	first := mustCompile(t, files)
	second := mustCompile(t, files)
	assert.Equal(t, first, second)
}

func TestBuild_Errors(t *testing.T) {
	header := `
trees:
  - {type: impl, name: act, params: [{name: n, type: num}]}
  - {type: sequence, name: wrap, params: [{name: op, type: tree}], calls: [{ho: op}]}
  - {type: sequence, name: loop, calls: [{invoke: loop}]}
  - {type: inverter, name: deco}
  - type: root
    name: main
    calls:
`
	tests := []struct {
		name string
		call string
		want error
	}{
		{"unresolved name", "{invoke: nope}", domain.CompileUnresolvedName},
		{"missing argument", "{invoke: act}", domain.CompileArgumentMismatch},
		{"too many arguments", "{invoke: act, args: [{value: 1}, {value: 2}]}", domain.CompileArgumentMismatch},
		{"unknown name", "{invoke: act, args: [{name: m, value: 1}]}", domain.CompileArgumentMismatch},
		{"type mismatch", "{invoke: act, args: [{value: one}]}", domain.CompileArgumentMismatch},
		{"call to non tree param", "{invoke: act, args: [{call: {invoke: act}}]}", domain.CompileArgumentMismatch},
		{"literal to tree param", "{invoke: wrap, args: [{value: 1}]}", domain.CompileArgumentMismatch},
		{"mixed arguments", "{invoke: wrap, args: [{name: op, id: x}, {id: y}]}", domain.CompileArgumentMismatch},
		{"unbound higher order", "{ho: op}", domain.CompileUnresolvedHigherOrder},
		{"higher order through unbound ident", "{invoke: wrap, args: [{id: missing}]}", domain.CompileUnresolvedHigherOrder},
		{"recursion", "{invoke: loop}", domain.CompileInvalidDefinition},
		{"root invoked", "{invoke: main}", domain.CompileInvalidDefinition},
		{"decorator definition", "{invoke: deco}", domain.CompileInvalidDefinition},
		{"repeat with string", "{decorator: repeat, args: [{value: x}], call: {invoke: act, args: [{value: 1}]}}", domain.CompileArgumentMismatch},
		{"retry negative", "{decorator: retry, args: [{value: -1}], call: {invoke: act, args: [{value: 1}]}}", domain.CompileArgumentMismatch},
		{"timeout zero", "{decorator: timeout, args: [{value: 0}], call: {invoke: act, args: [{value: 1}]}}", domain.CompileArgumentMismatch},
		{"timeout without duration", "{decorator: timeout, call: {invoke: act, args: [{value: 1}]}}", domain.CompileArgumentMismatch},
		{"inverter with argument", "{decorator: inverter, args: [{value: 1}], call: {invoke: act, args: [{value: 1}]}}", domain.CompileArgumentMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := compile(t, map[string]string{"main.yaml": header + "      - " + tt.call + "\n"})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, g, "no partial graph")
		})
	}
}

func TestBuild_BadValue(t *testing.T) {
	files := []*ast.File{{
		Name: "main.yaml",
		Trees: []*ast.Tree{
			{Type: ast.Root, Name: "main", Calls: []ast.Call{
				ast.Invocation{Name: "act", Args: ast.Arguments{ast.Positional(ast.BadValue{Err: errors.New("no literal form")})}},
			}},
			{Type: ast.Impl, Name: "act", Params: []ast.Param{{Name: "x", Type: ast.MesNum}}},
		},
	}}
	p, err := project.New("main.yaml", files)
	require.NoError(t, err)

	g, err := Build(p, nil)
	assert.ErrorIs(t, err, domain.CompileArgumentMismatch)
	assert.ErrorContains(t, err, "no literal form")
	assert.Nil(t, g)
}

func TestBuild_MaxNodes(t *testing.T) {
	p, err := project.Load(context.Background(), memory.NewLoader(map[string]string{"main.yaml": hoProject}), NewParser(), "main.yaml")
	require.NoError(t, err)

	_, err = NewBuilder(p, WithMaxNodes(2)).Build()
	assert.ErrorIs(t, err, domain.CompileInvalidDefinition)
}

func TestDecoratorArgs(t *testing.T) {
	args, err := decoratorArgs(ast.Retry, ast.Arguments{ast.Positional(ast.Int(3))})
	require.NoError(t, err)
	assert.Equal(t, domain.Args{{Name: CountArg, Value: int64(3)}}, args)

	args, err = decoratorArgs(ast.Timeout, ast.Arguments{ast.Positional(ast.Int(5))})
	require.NoError(t, err)
	assert.Equal(t, domain.Args{{Name: DurationArg, Value: int64(5)}}, args)

	args, err = decoratorArgs(ast.Repeat, nil)
	require.NoError(t, err)
	assert.Nil(t, args)
}
