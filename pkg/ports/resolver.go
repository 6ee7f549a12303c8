package ports

import "github.com/aretw0/arbor/pkg/ast"

// Resolution is the result of looking a name up from a file.
type Resolution struct {
	// Tree is the definition that was found.
	Tree *ast.Tree
	// File is the file that owns the definition. Calls written inside the
	// definition resolve against this file.
	File string
	// Std is true when the definition is a built-in action.
	Std bool
}

// DefinitionResolver answers name lookups for the graph builder.
type DefinitionResolver interface {
	// FindDefinition resolves name as seen from file: the file's own
	// definitions first, then its imports.
	FindDefinition(name, file string) (Resolution, error)

	// FindRoot returns the root definition the graph is built from.
	FindRoot() (Resolution, error)
}
