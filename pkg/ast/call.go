package ast

import (
	"fmt"
	"strings"
)

// Call is one element of a definition body.
// The concrete types are Invocation, HoInvocation, Lambda and Decorator.
type Call interface {
	isCall()
	fmt.Stringer
}

// Invocation calls a named definition with arguments.
type Invocation struct {
	Name string
	Args Arguments
}

// HoInvocation calls an invocation that was passed in as an argument
// by an enclosing invocation. Its arguments are captured at the call site.
type HoInvocation struct {
	Name string
}

// Lambda is an anonymous flow block. It never carries arguments.
type Lambda struct {
	Type  TreeType
	Calls []Call
}

// Decorator wraps a single child call.
type Decorator struct {
	Type  TreeType
	Args  Arguments
	Child Call
}

func (Invocation) isCall()   {}
func (HoInvocation) isCall() {}
func (Lambda) isCall()       {}
func (Decorator) isCall()    {}

func (c Invocation) String() string   { return fmt.Sprintf("%s(%s)", c.Name, c.Args) }
func (c HoInvocation) String() string { return fmt.Sprintf("%s(..)", c.Name) }
func (c Lambda) String() string       { return fmt.Sprintf("%s {...}", c.Type) }
func (c Decorator) String() string    { return fmt.Sprintf("%s(%s) ...", c.Type, c.Args) }

// CallName returns the referenced name of an invocation-like call.
func CallName(c Call) (string, bool) {
	switch v := c.(type) {
	case Invocation:
		return v.Name, true
	case HoInvocation:
		return v.Name, true
	}
	return "", false
}

// CallArguments returns the arguments written at the call site, if any.
func CallArguments(c Call) Arguments {
	switch v := c.(type) {
	case Invocation:
		return v.Args
	case Decorator:
		return v.Args
	}
	return nil
}

// Rhs is the right-hand side of an argument: an Ident, a Message or a CallArg.
// The dsl package may also produce a BadValue.
type Rhs interface {
	isRhs()
	fmt.Stringer
}

// Ident refers to a name in scope: a parameter of the enclosing definition
// or a blackboard key.
type Ident string

// CallArg passes a call as a value, to be invoked by the receiver.
type CallArg struct {
	Call Call
}

func (Ident) isRhs()    {}
func (CallArg) isRhs()  {}
func (Int) isRhs()      {}
func (Float) isRhs()    {}
func (String) isRhs()   {}
func (Bool) isRhs()     {}
func (Array) isRhs()    {}
func (Object) isRhs()   {}
func (BadValue) isRhs() {}

func (i Ident) String() string   { return string(i) }
func (c CallArg) String() string { return c.Call.String() }

// BadValue stands in for a host value with no literal form. It is never
// parsed from source and every builder rejects it.
type BadValue struct {
	Err error
}

func (b BadValue) String() string { return "<invalid: " + b.Err.Error() + ">" }

// Argument is a single call-site argument. Name is empty for positional arguments.
type Argument struct {
	Name  string
	Value Rhs
}

// Assigned reports whether the argument was written as `name = value`.
func (a Argument) Assigned() bool { return a.Name != "" }

func (a Argument) String() string {
	if a.Assigned() {
		return fmt.Sprintf("%s=%s", a.Name, a.Value)
	}
	return a.Value.String()
}

// Arguments is the ordered argument list of a call.
type Arguments []Argument

func (as Arguments) String() string {
	parts := make([]string, len(as))
	for i, a := range as {
		parts[i] = a.String()
	}
	return strings.Join(parts, ",")
}

// Positional builds an unassigned argument.
func Positional(v Rhs) Argument { return Argument{Value: v} }

// Named builds an assigned argument.
func Named(name string, v Rhs) Argument { return Argument{Name: name, Value: v} }
