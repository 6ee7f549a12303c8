package dsl

import (
	"fmt"

	"github.com/aretw0/arbor/pkg/ast"
)

// Param declares a parameter of a definition.
func Param(name string, tpe ast.MesType) ast.Param {
	return ast.Param{Name: name, Type: tpe}
}

// Call invokes a named definition.
func Call(name string, args ...ast.Argument) ast.Invocation {
	return ast.Invocation{Name: name, Args: args}
}

// Invoke calls a tree parameter received from the caller, as in `name(..)`.
func Invoke(name string) ast.HoInvocation {
	return ast.HoInvocation{Name: name}
}

// Block is an anonymous flow of the given type.
func Block(tpe ast.TreeType, calls ...ast.Call) ast.Lambda {
	return ast.Lambda{Type: tpe, Calls: calls}
}

func Sequence(calls ...ast.Call) ast.Lambda  { return Block(ast.Sequence, calls...) }
func MSequence(calls ...ast.Call) ast.Lambda { return Block(ast.MSequence, calls...) }
func RSequence(calls ...ast.Call) ast.Lambda { return Block(ast.RSequence, calls...) }
func Fallback(calls ...ast.Call) ast.Lambda  { return Block(ast.Fallback, calls...) }
func RFallback(calls ...ast.Call) ast.Lambda { return Block(ast.RFallback, calls...) }
func Parallel(calls ...ast.Call) ast.Lambda  { return Block(ast.Parallel, calls...) }

// Decorate wraps child in a decorator of the given type.
func Decorate(tpe ast.TreeType, child ast.Call, args ...ast.Argument) ast.Decorator {
	return ast.Decorator{Type: tpe, Args: args, Child: child}
}

func Inverter(child ast.Call) ast.Decorator     { return Decorate(ast.Inverter, child) }
func ForceSuccess(child ast.Call) ast.Decorator { return Decorate(ast.ForceSuccess, child) }
func ForceFail(child ast.Call) ast.Decorator    { return Decorate(ast.ForceFail, child) }

// Repeat runs child n times. Zero repeats forever.
func Repeat(n int64, child ast.Call) ast.Decorator {
	return Decorate(ast.Repeat, child, Arg(n))
}

// Retry runs child until it succeeds, at most n times. Zero retries forever.
func Retry(n int64, child ast.Call) ast.Decorator {
	return Decorate(ast.Retry, child, Arg(n))
}

// Timeout fails child once it has been running for more than ticks ticks.
func Timeout(ticks int64, child ast.Call) ast.Decorator {
	return Decorate(ast.Timeout, child, Arg(ticks))
}

// Arg is a positional argument.
func Arg(v any) ast.Argument {
	return ast.Positional(Value(v))
}

// Set is a named argument, written `name = v` in source files.
func Set(name string, v any) ast.Argument {
	return ast.Named(name, Value(v))
}

// Key refers to a parameter of the enclosing definition or a blackboard key.
func Key(name string) ast.Ident {
	return ast.Ident(name)
}

// Value converts a Go value into the right-hand side of an argument.
// Calls are passed as tree arguments; plain strings are literals, use Key
// for identifiers. A value with no literal form yields an ast.BadValue that
// makes Builder.Build fail.
func Value(v any) ast.Rhs {
	switch x := v.(type) {
	case ast.Rhs:
		return x
	case ast.Invocation:
		return ast.CallArg{Call: x}
	case ast.HoInvocation:
		return ast.CallArg{Call: x}
	case ast.Lambda:
		return ast.CallArg{Call: x}
	case ast.Decorator:
		return ast.CallArg{Call: x}
	}
	m, err := literal(v)
	if err != nil {
		return ast.BadValue{Err: err}
	}
	return m.(ast.Rhs)
}

func literal(v any) (ast.Message, error) {
	switch x := v.(type) {
	case ast.Message:
		return x, nil
	case int:
		return ast.Int(x), nil
	case int32:
		return ast.Int(x), nil
	case int64:
		return ast.Int(x), nil
	case float32:
		return ast.Float(x), nil
	case float64:
		return ast.Float(x), nil
	case string:
		return ast.String(x), nil
	case bool:
		return ast.Bool(x), nil
	case []any:
		out := make(ast.Array, len(x))
		for i, e := range x {
			m, err := literal(e)
			if err != nil {
				return nil, err
			}
			out[i] = m
		}
		return out, nil
	case map[string]any:
		out := make(ast.Object, len(x))
		for k, e := range x {
			m, err := literal(e)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out[k] = m
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported value of type %T", v)
}
