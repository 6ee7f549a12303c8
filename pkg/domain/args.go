package domain

import (
	"sort"
	"strconv"
	"strings"

	"github.com/aretw0/arbor/pkg/ast"
)

// Pointer is a reference to a blackboard key. Identifier arguments bound to
// non-tree parameters compile to pointers and are dereferenced when the
// action is ticked.
type Pointer string

func (p Pointer) String() string {
	return "&" + string(p)
}

// Arg is one named runtime argument.
//
// Value is one of int64, float64, string, bool, []any, map[string]any,
// Pointer or ast.Call.
type Arg struct {
	Name  string `json:"name" yaml:"name"`
	Value any    `json:"value" yaml:"value"`
}

func (a Arg) String() string {
	return a.Name + "=" + FormatValue(a.Value)
}

// Args is an ordered list of runtime arguments. Names are unique.
type Args []Arg

// Find returns the value bound to name.
func (a Args) Find(name string) (any, bool) {
	for _, arg := range a {
		if arg.Name == name {
			return arg.Value, true
		}
	}
	return nil, false
}

// Has reports whether name is bound.
func (a Args) Has(name string) bool {
	_, ok := a.Find(name)
	return ok
}

// Int returns the integer bound to name.
func (a Args) Int(name string) (int64, bool) {
	v, ok := a.Find(name)
	if !ok {
		return 0, false
	}
	i, ok := v.(int64)
	return i, ok
}

// With returns a copy of a where name is bound to v. An existing binding is
// replaced in place, a new one is appended.
func (a Args) With(name string, v any) Args {
	out := make(Args, 0, len(a)+1)
	replaced := false
	for _, arg := range a {
		if arg.Name == name {
			out = append(out, Arg{Name: name, Value: v})
			replaced = true
			continue
		}
		out = append(out, arg)
	}
	if !replaced {
		out = append(out, Arg{Name: name, Value: v})
	}
	return out
}

// Without returns a copy of a with the given names removed, or nil when
// nothing is left.
func (a Args) Without(names ...string) Args {
	out := make(Args, 0, len(a))
	for _, arg := range a {
		drop := false
		for _, n := range names {
			if arg.Name == n {
				drop = true
				break
			}
		}
		if !drop {
			out = append(out, arg)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Merge returns a copy of a overlaid with other. Bindings in other win.
func (a Args) Merge(other Args) Args {
	out := append(Args(nil), a...)
	for _, arg := range other {
		out = out.With(arg.Name, arg.Value)
	}
	return out
}

// Map returns the args as a plain map.
func (a Args) Map() map[string]any {
	m := make(map[string]any, len(a))
	for _, arg := range a {
		m[arg.Name] = arg.Value
	}
	return m
}

func (a Args) String() string {
	parts := make([]string, len(a))
	for i, arg := range a {
		parts[i] = arg.String()
	}
	return strings.Join(parts, ",")
}

// FormatValue renders a runtime value in the compact form used by traces.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "nil"
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case Pointer:
		return x.String()
	case ast.Call:
		return x.String()
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = FormatValue(e)
		}
		return "[" + strings.Join(parts, ",") + "]"
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ":" + FormatValue(x[k])
		}
		return "{" + strings.Join(parts, ",") + "}"
	}
	return "?"
}

// FromMessage converts a literal into its runtime value.
func FromMessage(m ast.Message) any {
	switch x := m.(type) {
	case ast.Int:
		return int64(x)
	case ast.Float:
		return float64(x)
	case ast.String:
		return string(x)
	case ast.Bool:
		return bool(x)
	case ast.Array:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = FromMessage(e)
		}
		return out
	case ast.Object:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = FromMessage(e)
		}
		return out
	}
	return nil
}
