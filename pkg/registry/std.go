package registry

import (
	"fmt"

	"github.com/aretw0/arbor/pkg/ast"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/mitchellh/mapstructure"
)

// StdDeclarations returns the definitions served under std::actions.
func StdDeclarations() []*ast.Tree {
	str := func(name string) ast.Param { return ast.Param{Name: name, Type: ast.MesString} }
	return []*ast.Tree{
		{Type: ast.Impl, Name: "success"},
		{Type: ast.Impl, Name: "running"},
		{Type: ast.Impl, Name: "fail_empty"},
		{Type: ast.Impl, Name: "fail", Params: []ast.Param{str("reason")}},
		{Type: ast.Impl, Name: "store", Params: []ast.Param{str("key"), str("value")}},
		{Type: ast.Impl, Name: "equal", Params: []ast.Param{str("key"), str("expected")}},
		{Type: ast.Impl, Name: "inc", Params: []ast.Param{str("key")}},
		{Type: ast.Impl, Name: "log", Params: []ast.Param{str("message")}},
	}
}

// RegisterStd adds the std::actions implementations to r.
func RegisterStd(r *Registry) {
	r.RegisterFunc("success", func(domain.Args, ports.TickContext) (domain.Outcome, error) {
		return domain.Success(), nil
	})
	r.RegisterFunc("running", func(domain.Args, ports.TickContext) (domain.Outcome, error) {
		return domain.Running(), nil
	})
	r.RegisterFunc("fail_empty", func(domain.Args, ports.TickContext) (domain.Outcome, error) {
		return domain.Failure(""), nil
	})
	r.RegisterFunc("fail", fail)
	r.RegisterFunc("store", store)
	r.RegisterFunc("equal", equal)
	r.RegisterFunc("inc", inc)
	r.RegisterFunc("log", logMessage)
}

// NewStd creates a registry holding all the std::actions.
func NewStd() *Registry {
	r := NewRegistry()
	RegisterStd(r)
	return r
}

// SelectStd creates a registry holding only the std::actions listed in
// names. Unknown names are skipped.
func SelectStd(names []string) *Registry {
	all := NewStd()
	r := NewRegistry()
	for _, name := range names {
		if impl, ok := all.Lookup(name); ok {
			r.Register(name, impl)
		}
	}
	return r
}

type stdArgs struct {
	Reason   string `mapstructure:"reason"`
	Key      string `mapstructure:"key"`
	Value    any    `mapstructure:"value"`
	Expected string `mapstructure:"expected"`
	Message  string `mapstructure:"message"`
}

func decode(args domain.Args) (stdArgs, error) {
	var in stdArgs
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &in,
	})
	if err != nil {
		return in, err
	}
	if err := dec.Decode(args.Map()); err != nil {
		return in, fmt.Errorf("invalid arguments: %w", err)
	}
	return in, nil
}

func fail(args domain.Args, _ ports.TickContext) (domain.Outcome, error) {
	in, err := decode(args)
	if err != nil {
		return domain.Outcome{}, err
	}
	return domain.Failure(in.Reason), nil
}

func store(args domain.Args, tc ports.TickContext) (domain.Outcome, error) {
	in, err := decode(args)
	if err != nil {
		return domain.Outcome{}, err
	}
	if in.Key == "" {
		return domain.Failure("store: empty key"), nil
	}
	if err := tc.Blackboard().Put(tc.Context(), in.Key, in.Value); err != nil {
		return domain.Outcome{}, err
	}
	return domain.Success(), nil
}

func equal(args domain.Args, tc ports.TickContext) (domain.Outcome, error) {
	in, err := decode(args)
	if err != nil {
		return domain.Outcome{}, err
	}
	v, ok, err := tc.Blackboard().Get(tc.Context(), in.Key)
	if err != nil {
		return domain.Outcome{}, err
	}
	if !ok {
		return domain.Failure(fmt.Sprintf("%s: %s", domain.ErrKeyNotFound, in.Key)), nil
	}
	if got := domain.FormatValue(v); got != in.Expected {
		return domain.Failure(fmt.Sprintf("%s is %s, expected %s", in.Key, got, in.Expected)), nil
	}
	return domain.Success(), nil
}

func inc(args domain.Args, tc ports.TickContext) (domain.Outcome, error) {
	in, err := decode(args)
	if err != nil {
		return domain.Outcome{}, err
	}
	v, ok, err := tc.Blackboard().Get(tc.Context(), in.Key)
	if err != nil {
		return domain.Outcome{}, err
	}
	var n int64
	if ok {
		switch x := v.(type) {
		case int64:
			n = x
		case int:
			n = int64(x)
		case float64:
			n = int64(x)
		default:
			return domain.Failure(fmt.Sprintf("%s holds %s, not a number", in.Key, domain.FormatValue(v))), nil
		}
	}
	if err := tc.Blackboard().Put(tc.Context(), in.Key, n+1); err != nil {
		return domain.Outcome{}, err
	}
	return domain.Success(), nil
}

func logMessage(args domain.Args, tc ports.TickContext) (domain.Outcome, error) {
	in, err := decode(args)
	if err != nil {
		return domain.Outcome{}, err
	}
	tc.Logger().Info(in.Message, "node", tc.Current(), "tick", tc.CurrentTick())
	return domain.Success(), nil
}
