package project

import (
	"github.com/aretw0/arbor/pkg/ast"
	"github.com/aretw0/arbor/pkg/domain"
)

// File holds the definitions and imports of one source file.
type File struct {
	Name        string
	Definitions map[string]*ast.Tree
	// Order keeps the definitions in source order.
	Order   []string
	Imports []ast.Import
}

func newFile(f *ast.File) (*File, error) {
	out := &File{
		Name:        f.Name,
		Definitions: make(map[string]*ast.Tree, len(f.Trees)),
		Imports:     f.Imports,
	}
	for _, t := range f.Trees {
		if _, dup := out.Definitions[t.Name]; dup {
			return nil, domain.NewCompileError(domain.CompileInvalidDefinition,
				"the definition %s is declared twice", t.Name).InFile(f.Name)
		}
		out.Definitions[t.Name] = t
		out.Order = append(out.Order, t.Name)
	}

	aliases := make(map[string]string)
	for _, imp := range f.Imports {
		for _, n := range imp.Names {
			if n.Kind != ast.ImportAlias {
				continue
			}
			if prev, dup := aliases[n.Alias]; dup {
				return nil, domain.NewCompileError(domain.CompileInvalidDefinition,
					"the alias %s is used for %s and %s", n.Alias, prev, n.Name).InFile(f.Name)
			}
			if _, clash := out.Definitions[n.Alias]; clash {
				return nil, domain.NewCompileError(domain.CompileInvalidDefinition,
					"the alias %s shadows a definition of the file", n.Alias).InFile(f.Name)
			}
			aliases[n.Alias] = n.Name
		}
	}
	return out, nil
}

// Definition returns a definition declared in the file itself.
func (f *File) Definition(name string) (*ast.Tree, bool) {
	t, ok := f.Definitions[name]
	return t, ok
}

// Trees returns the definitions in source order.
func (f *File) Trees() []*ast.Tree {
	out := make([]*ast.Tree, 0, len(f.Order))
	for _, n := range f.Order {
		out = append(out, f.Definitions[n])
	}
	return out
}
