package project

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aretw0/arbor/pkg/ast"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
)

// StdFile is the import path of the built-in actions.
const StdFile = "std::actions"

// Parser turns the raw content of a source file into its AST.
type Parser interface {
	Parse(name string, data []byte) (*ast.File, error)
}

// Main points at the definition a graph is built from.
type Main struct {
	File string
	Tree string
}

// Project is a set of parsed files reachable from a main file.
type Project struct {
	Main  Main
	Files map[string]*File
}

type options struct {
	root string
	std  []*ast.Tree
}

// Option configures project assembly.
type Option func(*options)

// WithRoot selects the root definition of the main file by name.
// Without it the first root definition of the main file is used.
func WithRoot(name string) Option {
	return func(o *options) {
		o.root = name
	}
}

// WithStd provides the declarations served under StdFile.
func WithStd(decls []*ast.Tree) Option {
	return func(o *options) {
		o.std = decls
	}
}

// Load parses mainFile and, recursively, every file it imports. Each file
// is read and parsed once.
func Load(ctx context.Context, loader ports.SourceLoader, parser Parser, mainFile string, opts ...Option) (*Project, error) {
	cfg := options{}
	for _, opt := range opts {
		opt(&cfg)
	}

	parsed := make(map[string]*ast.File)
	queue := []string{mainFile}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := queue[0]
		queue = queue[1:]
		if _, done := parsed[name]; done {
			continue
		}

		var f *ast.File
		if name == StdFile {
			f = StdAST(cfg.std)
		} else {
			data, err := loader.Read(name)
			if err != nil {
				if errors.Is(err, ports.ErrSourceNotFound) {
					return nil, &domain.CompileError{Kind: domain.CompileUnresolvedName, Message: "the file " + name + " is not found", Err: err}
				}
				return nil, fmt.Errorf("failed to read %s: %w", name, err)
			}
			f, err = parser.Parse(name, data)
			if err != nil {
				return nil, err
			}
			f.Name = name
		}
		parsed[name] = f
		for _, imp := range f.Imports {
			queue = append(queue, imp.File)
		}
	}

	files := make([]*ast.File, 0, len(parsed))
	for _, f := range parsed {
		files = append(files, f)
	}
	return New(mainFile, files, opts...)
}

// New assembles a project from already parsed files. The std file is added
// when it is imported but not among files.
func New(mainFile string, files []*ast.File, opts ...Option) (*Project, error) {
	cfg := options{}
	for _, opt := range opts {
		opt(&cfg)
	}

	p := &Project{Files: make(map[string]*File, len(files))}
	for _, f := range files {
		pf, err := newFile(f)
		if err != nil {
			return nil, err
		}
		p.Files[f.Name] = pf
	}
	if _, ok := p.Files[StdFile]; !ok && p.importsStd() {
		pf, err := newFile(StdAST(cfg.std))
		if err != nil {
			return nil, err
		}
		p.Files[StdFile] = pf
	}

	if err := p.checkImports(); err != nil {
		return nil, err
	}

	main, ok := p.Files[mainFile]
	if !ok {
		return nil, domain.NewCompileError(domain.CompileMissingRoot, "the main file %s is not part of the project", mainFile)
	}
	root, err := pickRoot(main, cfg.root)
	if err != nil {
		return nil, err
	}
	p.Main = Main{File: mainFile, Tree: root}
	return p, nil
}

// StdAST materialises the built-in declarations as a file.
func StdAST(decls []*ast.Tree) *ast.File {
	return &ast.File{Name: StdFile, Trees: decls}
}

func (p *Project) importsStd() bool {
	for _, f := range p.Files {
		for _, imp := range f.Imports {
			if imp.File == StdFile {
				return true
			}
		}
	}
	return false
}

func (p *Project) checkImports() error {
	for _, name := range p.FileNames() {
		f := p.Files[name]
		for _, imp := range f.Imports {
			target, ok := p.Files[imp.File]
			if !ok {
				return domain.NewCompileError(domain.CompileUnresolvedName, "the imported file %s is not loaded", imp.File).InFile(name)
			}
			for _, n := range imp.Names {
				if n.Kind == ast.ImportWholeFile {
					continue
				}
				if _, ok := target.Definition(n.Name); !ok {
					return domain.NewCompileError(domain.CompileUnresolvedName, "the file %s has no definition %s", imp.File, n.Name).InFile(name)
				}
			}
		}
	}
	return nil
}

func pickRoot(main *File, name string) (string, error) {
	if name != "" {
		t, ok := main.Definition(name)
		if !ok || !t.IsRoot() {
			return "", domain.NewCompileError(domain.CompileMissingRoot, "no root %s in %s", name, main.Name)
		}
		return name, nil
	}
	for _, t := range main.Trees() {
		if t.IsRoot() {
			return t.Name, nil
		}
	}
	return "", domain.NewCompileError(domain.CompileMissingRoot, "no root operation in the file %s", main.Name)
}

// FileNames returns the project files in sorted order.
func (p *Project) FileNames() []string {
	names := make([]string, 0, len(p.Files))
	for n := range p.Files {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// FindRoot returns the main definition.
func (p *Project) FindRoot() (ports.Resolution, error) {
	f, ok := p.Files[p.Main.File]
	if !ok {
		return ports.Resolution{}, domain.NewCompileError(domain.CompileMissingRoot, "the main file %s is not loaded", p.Main.File)
	}
	t, ok := f.Definition(p.Main.Tree)
	if !ok {
		return ports.Resolution{}, domain.NewCompileError(domain.CompileMissingRoot, "no root %s in %s", p.Main.Tree, p.Main.File)
	}
	return ports.Resolution{Tree: t, File: p.Main.File}, nil
}

// FindDefinition resolves name as seen from file. Definitions of the file
// itself win; otherwise aliases and by-name imports are consulted before
// whole-file imports. More than one match at the same level is ambiguous.
func (p *Project) FindDefinition(name, file string) (ports.Resolution, error) {
	f, ok := p.Files[file]
	if !ok {
		return ports.Resolution{}, domain.NewCompileError(domain.CompileUnresolvedName, "the file %s is not loaded", file)
	}
	if t, ok := f.Definition(name); ok {
		return p.resolution(t, file), nil
	}

	var explicit, whole []ports.Resolution
	for _, imp := range f.Imports {
		target := p.Files[imp.File]
		if target == nil {
			continue
		}
		for _, n := range imp.Names {
			switch n.Kind {
			case ast.ImportAlias:
				if n.Alias == name {
					if t, ok := target.Definition(n.Name); ok {
						explicit = append(explicit, p.resolution(t, imp.File))
					}
				}
			case ast.ImportID:
				if n.Name == name {
					if t, ok := target.Definition(n.Name); ok {
						explicit = append(explicit, p.resolution(t, imp.File))
					}
				}
			case ast.ImportWholeFile:
				if t, ok := target.Definition(name); ok {
					whole = append(whole, p.resolution(t, imp.File))
				}
			}
		}
	}

	for _, found := range [][]ports.Resolution{explicit, whole} {
		found = dedup(found)
		switch len(found) {
		case 0:
			continue
		case 1:
			return found[0], nil
		default:
			files := make([]string, len(found))
			for i, r := range found {
				files[i] = r.File
			}
			return ports.Resolution{}, domain.NewCompileError(domain.CompileUnresolvedName,
				"the name %s is ambiguous, it is imported from %v", name, files).InFile(file)
		}
	}

	return ports.Resolution{}, domain.NewCompileError(domain.CompileUnresolvedName,
		"the definition %s is not found", name).InFile(file)
}

func (p *Project) resolution(t *ast.Tree, file string) ports.Resolution {
	return ports.Resolution{Tree: t, File: file, Std: file == StdFile}
}

func dedup(rs []ports.Resolution) []ports.Resolution {
	var out []ports.Resolution
	for _, r := range rs {
		seen := false
		for _, o := range out {
			if o.File == r.File && o.Tree == r.Tree {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, r)
		}
	}
	return out
}
