package compiler

import (
	"fmt"

	"github.com/aretw0/arbor/pkg/ast"
	"github.com/aretw0/arbor/pkg/domain"
)

// Keys given to positional decorator arguments.
const (
	CountArg    = "count"
	DurationArg = "duration"
)

func mismatch(format string, args ...any) *domain.CompileError {
	return domain.NewCompileError(domain.CompileArgumentMismatch, format, args...)
}

// bindArgs matches the arguments of a call against the declared params of
// the definition it resolves to. The result follows the param order.
func bindArgs(name string, args ast.Arguments, params []ast.Param) (domain.Args, error) {
	bound, err := pairArgs(name, args, params)
	if err != nil {
		return nil, err
	}
	if len(params) == 0 {
		return nil, nil
	}
	out := make(domain.Args, 0, len(params))
	for i, p := range params {
		v, err := bindValue(name, p, bound[i].Value)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.Arg{Name: p.Name, Value: v})
	}
	return out, nil
}

// pairArgs returns the argument bound to each param, indexed like params.
func pairArgs(name string, args ast.Arguments, params []ast.Param) ([]ast.Argument, error) {
	named := 0
	for _, a := range args {
		if a.Assigned() {
			named++
		}
	}
	if named != 0 && named != len(args) {
		return nil, mismatch("the call %s mixes named and positional arguments", name)
	}

	if named == 0 {
		if len(args) != len(params) {
			return nil, mismatch("the call %s has %d arguments, the definition declares %d params", name, len(args), len(params))
		}
		return args, nil
	}

	out := make([]ast.Argument, len(params))
	set := make([]bool, len(params))
	for _, a := range args {
		_, idx, ok := findParam(params, a.Name)
		if !ok {
			return nil, mismatch("the call %s has no param %s", name, a.Name)
		}
		if set[idx] {
			return nil, mismatch("the call %s binds %s twice", name, a.Name)
		}
		out[idx] = a
		set[idx] = true
	}
	for i, p := range params {
		if !set[i] {
			return nil, mismatch("the call %s misses the param %s", name, p.Name)
		}
	}
	return out, nil
}

func findParam(params []ast.Param, name string) (ast.Param, int, bool) {
	for i, p := range params {
		if p.Name == name {
			return p, i, true
		}
	}
	return ast.Param{}, -1, false
}

func bindValue(name string, p ast.Param, rhs ast.Rhs) (any, error) {
	switch v := rhs.(type) {
	case ast.Ident:
		if p.Type == ast.MesTree {
			return ast.HoInvocation{Name: string(v)}, nil
		}
		return domain.Pointer(v), nil
	case ast.CallArg:
		if p.Type != ast.MesTree {
			return nil, mismatch("the call %s passes a call to %s which is %s", name, p.Name, p.Type)
		}
		return v.Call, nil
	case ast.BadValue:
		return nil, mismatch("the call %s passes an invalid value to %s: %v", name, p.Name, v.Err)
	case ast.Message:
		if p.Type == ast.MesTree || !ast.Matches(v, p.Type) {
			return nil, mismatch("the call %s passes %s of type %s to %s which is %s", name, v, v.Type(), p.Name, p.Type)
		}
		return domain.FromMessage(v), nil
	}
	return nil, mismatch("the call %s has an unsupported argument for %s", name, p.Name)
}

// decoratorArgs validates the arguments of a decorator.
// Repeat and retry take at most one non-negative count; timeout takes
// exactly one positive duration in ticks; the others take none.
func decoratorArgs(tpe ast.TreeType, args ast.Arguments) (domain.Args, error) {
	switch tpe {
	case ast.Inverter, ast.ForceSuccess, ast.ForceFail:
		if len(args) > 0 {
			return nil, mismatch("the decorator %s takes no arguments", tpe)
		}
		return nil, nil
	case ast.Repeat, ast.Retry:
		if len(args) == 0 {
			return nil, nil
		}
		return intArg(tpe, args, CountArg, 0)
	case ast.Timeout:
		if len(args) == 0 {
			return nil, mismatch("the decorator %s needs a duration", tpe)
		}
		return intArg(tpe, args, DurationArg, 1)
	}
	return nil, domain.NewCompileError(domain.CompileInvalidDefinition, "%s is not a decorator", tpe)
}

func intArg(tpe ast.TreeType, args ast.Arguments, key string, min int64) (domain.Args, error) {
	if len(args) != 1 {
		return nil, mismatch("the decorator %s takes one argument, got %d", tpe, len(args))
	}
	a := args[0]
	i, ok := a.Value.(ast.Int)
	if !ok || int64(i) < min {
		return nil, mismatch("the decorator %s needs an integer >= %d, got %s", tpe, min, a.Value)
	}
	if a.Assigned() {
		key = a.Name
	}
	return domain.Args{{Name: key, Value: int64(i)}}, nil
}

func flowKind(tpe ast.TreeType) (domain.FlowKind, error) {
	switch tpe {
	case ast.Sequence:
		return domain.FlowSequence, nil
	case ast.MSequence:
		return domain.FlowMSequence, nil
	case ast.RSequence:
		return domain.FlowRSequence, nil
	case ast.Fallback:
		return domain.FlowFallback, nil
	case ast.RFallback:
		return domain.FlowRFallback, nil
	case ast.Parallel:
		return domain.FlowParallel, nil
	}
	return "", fmt.Errorf("%s is not a flow", tpe)
}

func decoratorKind(tpe ast.TreeType) (domain.DecoratorKind, error) {
	switch tpe {
	case ast.Inverter:
		return domain.DecoratorInverter, nil
	case ast.ForceSuccess:
		return domain.DecoratorForceSuccess, nil
	case ast.ForceFail:
		return domain.DecoratorForceFail, nil
	case ast.Repeat:
		return domain.DecoratorRepeat, nil
	case ast.Retry:
		return domain.DecoratorRetry, nil
	case ast.Timeout:
		return domain.DecoratorTimeout, nil
	}
	return "", fmt.Errorf("%s is not a decorator", tpe)
}
