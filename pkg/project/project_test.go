package project_test

import (
	"context"
	"testing"

	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/ast"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/project"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubParser serves prebuilt ASTs and counts how often each file is parsed.
type stubParser struct {
	files  map[string]*ast.File
	parsed map[string]int
}

func (p *stubParser) Parse(name string, _ []byte) (*ast.File, error) {
	p.parsed[name]++
	return p.files[name], nil
}

func impl(name string, params ...ast.Param) *ast.Tree {
	return &ast.Tree{Type: ast.Impl, Name: name, Params: params}
}

func root(name string, calls ...ast.Call) *ast.Tree {
	return &ast.Tree{Type: ast.Root, Name: name, Calls: calls}
}

func fixture() map[string]*ast.File {
	return map[string]*ast.File{
		"main.yaml": {
			Name: "main.yaml",
			Imports: []ast.Import{
				ast.WholeFile("lib.yaml"),
				{File: "other.yaml", Names: []ast.ImportName{ast.Alias("hello", "hi")}},
				ast.Names("std::actions", "success"),
			},
			Trees: []*ast.Tree{
				impl("local"),
				root("main", ast.Invocation{Name: "hi"}),
				root("second"),
			},
		},
		"lib.yaml": {
			Name:    "lib.yaml",
			Imports: []ast.Import{ast.WholeFile("other.yaml")},
			Trees:   []*ast.Tree{impl("from_lib"), impl("local")},
		},
		"other.yaml": {
			Name:  "other.yaml",
			Trees: []*ast.Tree{impl("hello"), impl("from_other")},
		},
	}
}

func load(t *testing.T, files map[string]*ast.File, opts ...project.Option) (*project.Project, *stubParser) {
	t.Helper()
	raw := make(map[string]string)
	for name := range files {
		raw[name] = "# " + name
	}
	parser := &stubParser{files: files, parsed: make(map[string]int)}
	opts = append(opts, project.WithStd([]*ast.Tree{impl("success"), impl("fail")}))
	p, err := project.Load(context.Background(), memory.NewLoader(raw), parser, "main.yaml", opts...)
	require.NoError(t, err)
	return p, parser
}

func TestLoad(t *testing.T) {
	p, parser := load(t, fixture())

	assert.Equal(t, project.Main{File: "main.yaml", Tree: "main"}, p.Main)
	assert.Equal(t, []string{"lib.yaml", "main.yaml", "other.yaml", "std::actions"}, p.FileNames())
	for name, n := range parser.parsed {
		assert.Equal(t, 1, n, "file %s should be parsed once", name)
	}
	assert.NotContains(t, parser.parsed, project.StdFile, "std file is never read from the loader")
}

func TestLoad_WithRoot(t *testing.T) {
	p, _ := load(t, fixture(), project.WithRoot("second"))
	res, err := p.FindRoot()
	require.NoError(t, err)
	assert.Equal(t, "second", res.Tree.Name)
	assert.Equal(t, "main.yaml", res.File)
}

func TestFindDefinition(t *testing.T) {
	p, _ := load(t, fixture())

	tests := []struct {
		name, from  string
		wantTree    string
		wantFile    string
		wantStd     bool
		wantErrorIs error
	}{
		{name: "local", from: "main.yaml", wantTree: "local", wantFile: "main.yaml"},
		{name: "from_lib", from: "main.yaml", wantTree: "from_lib", wantFile: "lib.yaml"},
		{name: "hi", from: "main.yaml", wantTree: "hello", wantFile: "other.yaml"},
		{name: "success", from: "main.yaml", wantTree: "success", wantFile: "std::actions", wantStd: true},
		{name: "fail", from: "main.yaml", wantErrorIs: domain.CompileUnresolvedName},
		{name: "hello", from: "main.yaml", wantErrorIs: domain.CompileUnresolvedName},
		{name: "from_other", from: "main.yaml", wantErrorIs: domain.CompileUnresolvedName},
		{name: "from_other", from: "lib.yaml", wantTree: "from_other", wantFile: "other.yaml"},
		{name: "local", from: "lib.yaml", wantTree: "local", wantFile: "lib.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.from+"/"+tt.name, func(t *testing.T) {
			res, err := p.FindDefinition(tt.name, tt.from)
			if tt.wantErrorIs != nil {
				assert.ErrorIs(t, err, tt.wantErrorIs)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTree, res.Tree.Name)
			assert.Equal(t, tt.wantFile, res.File)
			assert.Equal(t, tt.wantStd, res.Std)
		})
	}
}

func TestFindDefinition_Ambiguous(t *testing.T) {
	files := map[string]*ast.File{
		"main.yaml": {
			Name:    "main.yaml",
			Imports: []ast.Import{ast.WholeFile("a.yaml"), ast.WholeFile("b.yaml")},
			Trees:   []*ast.Tree{root("main")},
		},
		"a.yaml": {Name: "a.yaml", Trees: []*ast.Tree{impl("x")}},
		"b.yaml": {Name: "b.yaml", Trees: []*ast.Tree{impl("x")}},
	}
	p, _ := load(t, files)

	_, err := p.FindDefinition("x", "main.yaml")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.CompileUnresolvedName)
	assert.Contains(t, err.Error(), "ambiguous")
}

func TestNew_Errors(t *testing.T) {
	std := project.WithStd(nil)
	tests := []struct {
		name  string
		files []*ast.File
		opts  []project.Option
		want  error
	}{
		{
			name:  "no root",
			files: []*ast.File{{Name: "main.yaml", Trees: []*ast.Tree{impl("a")}}},
			want:  domain.CompileMissingRoot,
		},
		{
			name:  "named root is not a root",
			files: []*ast.File{{Name: "main.yaml", Trees: []*ast.Tree{impl("a"), root("main")}}},
			opts:  []project.Option{project.WithRoot("a")},
			want:  domain.CompileMissingRoot,
		},
		{
			name:  "duplicate definition",
			files: []*ast.File{{Name: "main.yaml", Trees: []*ast.Tree{root("main"), impl("main")}}},
			want:  domain.CompileInvalidDefinition,
		},
		{
			name: "duplicate alias",
			files: []*ast.File{
				{Name: "main.yaml", Trees: []*ast.Tree{root("main")}, Imports: []ast.Import{
					{File: "a.yaml", Names: []ast.ImportName{ast.Alias("x", "y"), ast.Alias("z", "y")}},
				}},
				{Name: "a.yaml", Trees: []*ast.Tree{impl("x"), impl("z")}},
			},
			want: domain.CompileInvalidDefinition,
		},
		{
			name: "import of a missing name",
			files: []*ast.File{
				{Name: "main.yaml", Trees: []*ast.Tree{root("main")}, Imports: []ast.Import{ast.Names("a.yaml", "nope")}},
				{Name: "a.yaml", Trees: []*ast.Tree{impl("x")}},
			},
			want: domain.CompileUnresolvedName,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := project.New("main.yaml", tt.files, append(tt.opts, std)...)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoad_MissingImport(t *testing.T) {
	files := map[string]*ast.File{
		"main.yaml": {Name: "main.yaml", Imports: []ast.Import{ast.WholeFile("gone.yaml")}, Trees: []*ast.Tree{root("main")}},
	}
	parser := &stubParser{files: files, parsed: make(map[string]int)}
	_, err := project.Load(context.Background(), memory.NewLoader(map[string]string{"main.yaml": ""}), parser, "main.yaml")
	assert.ErrorIs(t, err, domain.CompileUnresolvedName)
}
