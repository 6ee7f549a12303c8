package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNodeNotFound is returned when a node id is not part of the graph.
	ErrNodeNotFound = errors.New("node not found")
	// ErrTickLimit is returned when a run exceeds its tick budget.
	ErrTickLimit = errors.New("tick limit exceeded")
	// ErrUnexpectedState is returned when a state has no meaningful outcome.
	ErrUnexpectedState = errors.New("unexpected state")
	// ErrActionNotRegistered is returned when the graph calls an action with no implementation.
	ErrActionNotRegistered = errors.New("action not registered")
	// ErrKeyNotFound is returned by blackboards for absent keys.
	ErrKeyNotFound = errors.New("key not found")
)

// CompileErrorKind classifies failures of the compiler pass.
type CompileErrorKind string

const (
	CompileUnresolvedName        CompileErrorKind = "unresolved name"
	CompileUnresolvedHigherOrder CompileErrorKind = "unresolved higher-order call"
	CompileArgumentMismatch      CompileErrorKind = "argument mismatch"
	CompileDecoratorArity        CompileErrorKind = "decorator arity"
	CompileInvalidLambda         CompileErrorKind = "invalid lambda"
	CompileMissingRoot           CompileErrorKind = "missing root"
	CompileInvalidDefinition     CompileErrorKind = "invalid definition"
)

// Error lets a kind be used as an errors.Is target.
func (k CompileErrorKind) Error() string { return string(k) }

// CompileError is returned by the parser, the project resolver and the builder.
type CompileError struct {
	Kind    CompileErrorKind
	Message string
	File    string
	Err     error
}

// NewCompileError creates a compile error of the given kind.
func NewCompileError(kind CompileErrorKind, format string, args ...any) *CompileError {
	return &CompileError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// InFile returns a copy of e annotated with the source file.
func (e *CompileError) InFile(file string) *CompileError {
	c := *e
	c.File = file
	return &c
}

func (e *CompileError) Error() string {
	msg := string(e.Kind)
	if e.File != "" {
		msg = fmt.Sprintf("%s in %s", msg, e.File)
	}
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *CompileError) Unwrap() error { return e.Err }

// Is matches against a CompileErrorKind.
func (e *CompileError) Is(target error) bool {
	k, ok := target.(CompileErrorKind)
	return ok && k == e.Kind
}

// RuntimeErrorKind classifies failures of a run.
type RuntimeErrorKind string

const (
	RuntimeNodeNotFound        RuntimeErrorKind = "node not found"
	RuntimeUnexpectedState     RuntimeErrorKind = "unexpected state"
	RuntimeStopped             RuntimeErrorKind = "stopped"
	RuntimeActionNotRegistered RuntimeErrorKind = "action not registered"
)

func (k RuntimeErrorKind) Error() string { return string(k) }

// RuntimeError is returned by the execution context and the engine.
type RuntimeError struct {
	Kind    RuntimeErrorKind
	Message string
	Err     error
}

func (e *RuntimeError) Error() string {
	msg := string(e.Kind)
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Err != nil && e.Err.Error() != string(e.Kind) {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *RuntimeError) Unwrap() error { return e.Err }

// Is matches against a RuntimeErrorKind and the sentinel of that kind.
func (e *RuntimeError) Is(target error) bool {
	if k, ok := target.(RuntimeErrorKind); ok {
		return k == e.Kind
	}
	switch e.Kind {
	case RuntimeNodeNotFound:
		return target == ErrNodeNotFound
	case RuntimeUnexpectedState:
		return target == ErrUnexpectedState
	case RuntimeActionNotRegistered:
		return target == ErrActionNotRegistered
	}
	return false
}
