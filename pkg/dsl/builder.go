package dsl

import (
	"fmt"

	"github.com/aretw0/arbor/pkg/ast"
)

// Builder manages the construction of a project.
type Builder struct {
	files []*FileBuilder
	index map[string]*FileBuilder
}

// New creates a new project builder.
func New() *Builder {
	return &Builder{
		index: make(map[string]*FileBuilder),
	}
}

// File returns the builder of the named file.
// If the file already exists, it returns the existing builder.
func (b *Builder) File(name string) *FileBuilder {
	if fb, ok := b.index[name]; ok {
		return fb
	}
	fb := &FileBuilder{file: &ast.File{Name: name}}
	b.index[name] = fb
	b.files = append(b.files, fb)
	return fb
}

// Build checks the inline blocks of every definition and returns the
// files in the order they were first added.
func (b *Builder) Build() ([]*ast.File, error) {
	out := make([]*ast.File, 0, len(b.files))
	for _, fb := range b.files {
		for _, t := range fb.file.Trees {
			if err := checkCalls(t.Calls); err != nil {
				return nil, fmt.Errorf("%s: %s: %w", fb.file.Name, t.Name, err)
			}
		}
		out = append(out, fb.file)
	}
	return out, nil
}

func checkCalls(calls []ast.Call) error {
	for _, c := range calls {
		switch v := c.(type) {
		case ast.Lambda:
			if !v.Type.IsFlow() && !v.Type.IsAction() {
				return fmt.Errorf("%s is not a flow", v.Type)
			}
			if err := ast.ValidateLambda(v.Type, len(v.Calls)); err != nil {
				return err
			}
			if err := checkCalls(v.Calls); err != nil {
				return err
			}
		case ast.Decorator:
			if !v.Type.IsDecorator() {
				return fmt.Errorf("%s is not a decorator", v.Type)
			}
			if v.Child == nil {
				return fmt.Errorf("%w: %s has 0", ast.ErrDecoratorArity, v.Type)
			}
			if err := checkArgs(v.Type.String(), v.Args); err != nil {
				return err
			}
			if err := checkCalls([]ast.Call{v.Child}); err != nil {
				return err
			}
		case ast.Invocation:
			if err := checkArgs(v.Name, v.Args); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkArgs(call string, args ast.Arguments) error {
	for i, a := range args {
		switch v := a.Value.(type) {
		case ast.BadValue:
			name := a.Name
			if name == "" {
				name = fmt.Sprintf("#%d", i+1)
			}
			return fmt.Errorf("%s: argument %s: %w", call, name, v.Err)
		case ast.CallArg:
			if err := checkCalls([]ast.Call{v.Call}); err != nil {
				return err
			}
		}
	}
	return nil
}

// FileBuilder provides a fluent API for the content of one file.
type FileBuilder struct {
	file *ast.File
}

// Import brings definitions of another file into scope.
// Without names every definition of the file is imported.
func (f *FileBuilder) Import(file string, names ...string) *FileBuilder {
	if len(names) == 0 {
		f.file.Imports = append(f.file.Imports, ast.WholeFile(file))
	} else {
		f.file.Imports = append(f.file.Imports, ast.Names(file, names...))
	}
	return f
}

// ImportAs imports a single definition under a different name.
func (f *FileBuilder) ImportAs(file, name, alias string) *FileBuilder {
	f.file.Imports = append(f.file.Imports, ast.Import{
		File:  file,
		Names: []ast.ImportName{ast.Alias(name, alias)},
	})
	return f
}

// Root adds an entry point whose body runs as a sequence.
func (f *FileBuilder) Root(name string, calls ...ast.Call) *FileBuilder {
	return f.Define(ast.Root, name).Do(calls...)
}

// Action declares an impl to be provided by the host.
func (f *FileBuilder) Action(name string, params ...ast.Param) *FileBuilder {
	f.Define(ast.Impl, name, params...)
	return f
}

// Cond declares a condition to be provided by the host.
func (f *FileBuilder) Cond(name string, params ...ast.Param) *FileBuilder {
	f.Define(ast.Cond, name, params...)
	return f
}

// Define adds a named definition. Its body is set with Do.
func (f *FileBuilder) Define(tpe ast.TreeType, name string, params ...ast.Param) *TreeBuilder {
	t := &ast.Tree{Type: tpe, Name: name, Params: params}
	f.file.Trees = append(f.file.Trees, t)
	return &TreeBuilder{tree: t, file: f}
}

// Build returns the underlying ast.File.
// This is primarily used by the Builder, but exposed for advanced usage.
func (f *FileBuilder) Build() *ast.File {
	return f.file
}

// TreeBuilder sets the body of a definition.
type TreeBuilder struct {
	tree *ast.Tree
	file *FileBuilder
}

// Do appends calls to the body and returns to the file.
func (t *TreeBuilder) Do(calls ...ast.Call) *FileBuilder {
	t.tree.Calls = append(t.tree.Calls, calls...)
	return t.file
}
