package ast

import (
	"errors"
	"fmt"
)

// Param is a declared parameter of a definition.
type Param struct {
	Name string
	Type MesType
}

// Tree is a named definition: a flow with a body or a declaration-only action.
type Tree struct {
	Type   TreeType
	Name   string
	Params []Param
	Calls  []Call
}

// IsRoot reports whether the definition is an entry point.
func (t *Tree) IsRoot() bool { return t.Type == Root }

// Param looks up a declared parameter by name and returns its position.
func (t *Tree) Param(name string) (Param, int, bool) {
	for i, p := range t.Params {
		if p.Name == name {
			return p, i, true
		}
	}
	return Param{}, -1, false
}

// ImportKind distinguishes the forms of an import entry.
type ImportKind int

const (
	ImportWholeFile ImportKind = iota
	ImportID
	ImportAlias
)

// ImportName is one entry of an import list.
type ImportName struct {
	Kind  ImportKind
	Name  string
	Alias string
}

// Import brings definitions of another file into scope.
type Import struct {
	File  string
	Names []ImportName
}

// WholeFile imports every definition of a file under its own name.
func WholeFile(file string) Import {
	return Import{File: file, Names: []ImportName{{Kind: ImportWholeFile}}}
}

// Names imports the given definitions of a file under their own names.
func Names(file string, names ...string) Import {
	imp := Import{File: file}
	for _, n := range names {
		imp.Names = append(imp.Names, ImportName{Kind: ImportID, Name: n})
	}
	return imp
}

// Alias imports a single definition under a different name.
func Alias(name, alias string) ImportName {
	return ImportName{Kind: ImportAlias, Name: name, Alias: alias}
}

// File is the parsed content of one source file.
type File struct {
	Name    string
	Trees   []*Tree
	Imports []Import
}

var (
	// ErrActionLambda is returned when an impl or cond is written as an inline block.
	ErrActionLambda = errors.New("the types impl or cond should have declaration and get called by name")
	// ErrDecoratorArity is returned when a decorator does not have exactly one child.
	ErrDecoratorArity = errors.New("any decorator should have only one child")
)

// ValidateLambda checks an inline block of type tpe with the given children.
func ValidateLambda(tpe TreeType, children int) error {
	switch {
	case tpe.IsAction():
		return ErrActionLambda
	case tpe.IsDecorator():
		if children != 1 {
			return fmt.Errorf("%w: %s has %d", ErrDecoratorArity, tpe, children)
		}
	}
	return nil
}
