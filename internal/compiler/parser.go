package compiler

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/aretw0/arbor/pkg/ast"
	"github.com/aretw0/arbor/pkg/domain"
	"gopkg.in/yaml.v3"
)

// ErrSyntax is wrapped by every structural error of the source format.
var ErrSyntax = errors.New("syntax error")

// Parser is responsible for converting raw YAML sources into an ast.File.
//
// A source file is a mapping with two optional keys:
//
//	imports:
//	  - file: lib.yaml                # every definition of lib.yaml
//	  - file: std::actions
//	    names: [success, {name: fail, as: boom}]
//	trees:
//	  - type: root
//	    name: main
//	    calls:
//	      - invoke: greet
//	        args: [{name: who, value: world}]
//
// Calls are one of invoke (with args), ho (a call received as argument),
// lambda (with calls) or decorator (with args and exactly one call).
// Arguments hold a literal under value, a name under id or a call under call.
type Parser struct{}

// NewParser creates a new parser instance.
func NewParser() *Parser {
	return &Parser{}
}

// Parse decodes one source file.
func (p *Parser) Parse(name string, data []byte) (*ast.File, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", name, ErrSyntax, err)
	}
	f := &ast.File{Name: name}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return f, nil
	}

	r := reader{file: name}
	root := doc.Content[0]
	if root.Kind == yaml.ScalarNode && root.ShortTag() == "!!null" {
		return f, nil
	}
	if err := r.expect(root, yaml.MappingNode, "file"); err != nil {
		return nil, err
	}

	for i := 0; i < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		switch key.Value {
		case "imports":
			imports, err := r.imports(val)
			if err != nil {
				return nil, err
			}
			f.Imports = imports
		case "trees":
			trees, err := r.trees(val)
			if err != nil {
				return nil, err
			}
			f.Trees = trees
		default:
			return nil, r.errorf(key, "unknown key %q", key.Value)
		}
	}
	return f, nil
}

// reader walks yaml nodes and reports positions against a file.
type reader struct {
	file string
}

func (r reader) errorf(n *yaml.Node, format string, args ...any) error {
	return fmt.Errorf("%s:%d:%d: %w: %s", r.file, n.Line, n.Column, ErrSyntax, fmt.Sprintf(format, args...))
}

func (r reader) compileError(n *yaml.Node, kind domain.CompileErrorKind, err error) error {
	return &domain.CompileError{
		Kind:    kind,
		File:    r.file,
		Message: fmt.Sprintf("line %d", n.Line),
		Err:     err,
	}
}

func (r reader) expect(n *yaml.Node, kind yaml.Kind, what string) error {
	if n.Kind != kind {
		return r.errorf(n, "%s must be a %s", what, kindName(kind))
	}
	return nil
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "list"
	case yaml.ScalarNode:
		return "scalar"
	}
	return "node"
}

// fields indexes a mapping node by key, rejecting keys outside allowed.
func (r reader) fields(n *yaml.Node, what string, allowed ...string) (map[string]*yaml.Node, error) {
	if err := r.expect(n, yaml.MappingNode, what); err != nil {
		return nil, err
	}
	out := make(map[string]*yaml.Node, len(n.Content)/2)
	for i := 0; i < len(n.Content); i += 2 {
		key := n.Content[i]
		ok := false
		for _, a := range allowed {
			if a == key.Value {
				ok = true
				break
			}
		}
		if !ok {
			return nil, r.errorf(key, "unknown key %q in %s", key.Value, what)
		}
		if _, dup := out[key.Value]; dup {
			return nil, r.errorf(key, "duplicate key %q in %s", key.Value, what)
		}
		out[key.Value] = n.Content[i+1]
	}
	return out, nil
}

func (r reader) str(n *yaml.Node, what string) (string, error) {
	if n.Kind != yaml.ScalarNode || n.ShortTag() != "!!str" || n.Value == "" {
		return "", r.errorf(n, "%s must be a non-empty string", what)
	}
	return n.Value, nil
}

func (r reader) imports(n *yaml.Node) ([]ast.Import, error) {
	if err := r.expect(n, yaml.SequenceNode, "imports"); err != nil {
		return nil, err
	}
	var out []ast.Import
	for _, item := range n.Content {
		fs, err := r.fields(item, "import", "file", "names")
		if err != nil {
			return nil, err
		}
		fileNode, ok := fs["file"]
		if !ok {
			return nil, r.errorf(item, "import needs a file")
		}
		file, err := r.str(fileNode, "import file")
		if err != nil {
			return nil, err
		}
		namesNode, ok := fs["names"]
		if !ok {
			out = append(out, ast.WholeFile(file))
			continue
		}
		if err := r.expect(namesNode, yaml.SequenceNode, "import names"); err != nil {
			return nil, err
		}
		imp := ast.Import{File: file}
		for _, nn := range namesNode.Content {
			if nn.Kind == yaml.ScalarNode {
				name, err := r.str(nn, "import name")
				if err != nil {
					return nil, err
				}
				imp.Names = append(imp.Names, ast.ImportName{Kind: ast.ImportID, Name: name})
				continue
			}
			af, err := r.fields(nn, "import alias", "name", "as")
			if err != nil {
				return nil, err
			}
			if af["name"] == nil || af["as"] == nil {
				return nil, r.errorf(nn, "import alias needs name and as")
			}
			name, err := r.str(af["name"], "import name")
			if err != nil {
				return nil, err
			}
			alias, err := r.str(af["as"], "import alias")
			if err != nil {
				return nil, err
			}
			imp.Names = append(imp.Names, ast.Alias(name, alias))
		}
		if len(imp.Names) == 0 {
			return nil, r.errorf(namesNode, "import names must not be empty, omit names to import the whole file")
		}
		out = append(out, imp)
	}
	return out, nil
}

func (r reader) trees(n *yaml.Node) ([]*ast.Tree, error) {
	if err := r.expect(n, yaml.SequenceNode, "trees"); err != nil {
		return nil, err
	}
	out := make([]*ast.Tree, 0, len(n.Content))
	for _, item := range n.Content {
		t, err := r.tree(item)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (r reader) tree(n *yaml.Node) (*ast.Tree, error) {
	fs, err := r.fields(n, "tree", "type", "name", "params", "calls")
	if err != nil {
		return nil, err
	}
	if fs["type"] == nil || fs["name"] == nil {
		return nil, r.errorf(n, "tree needs a type and a name")
	}
	tpeName, err := r.str(fs["type"], "tree type")
	if err != nil {
		return nil, err
	}
	tpe, err := ast.ParseTreeType(tpeName)
	if err != nil {
		return nil, r.errorf(fs["type"], "%v", err)
	}
	name, err := r.str(fs["name"], "tree name")
	if err != nil {
		return nil, err
	}
	t := &ast.Tree{Type: tpe, Name: name}

	if pn, ok := fs["params"]; ok {
		params, err := r.params(pn)
		if err != nil {
			return nil, err
		}
		t.Params = params
	}
	if cn, ok := fs["calls"]; ok {
		calls, err := r.calls(cn)
		if err != nil {
			return nil, err
		}
		t.Calls = calls
	}

	if tpe.IsAction() && len(t.Calls) > 0 {
		return nil, r.compileError(n, domain.CompileInvalidDefinition,
			fmt.Errorf("the %s %s is a declaration and can not have calls", tpe, name))
	}
	if tpe == ast.Root && len(t.Params) > 0 {
		return nil, r.compileError(n, domain.CompileInvalidDefinition,
			fmt.Errorf("the root %s can not have params", name))
	}
	return t, nil
}

func (r reader) params(n *yaml.Node) ([]ast.Param, error) {
	if err := r.expect(n, yaml.SequenceNode, "params"); err != nil {
		return nil, err
	}
	out := make([]ast.Param, 0, len(n.Content))
	seen := make(map[string]bool)
	for _, item := range n.Content {
		fs, err := r.fields(item, "param", "name", "type")
		if err != nil {
			return nil, err
		}
		if fs["name"] == nil || fs["type"] == nil {
			return nil, r.errorf(item, "param needs a name and a type")
		}
		name, err := r.str(fs["name"], "param name")
		if err != nil {
			return nil, err
		}
		if seen[name] {
			return nil, r.errorf(item, "duplicate param %s", name)
		}
		seen[name] = true
		tn, err := r.str(fs["type"], "param type")
		if err != nil {
			return nil, err
		}
		mt, err := ast.ParseMesType(tn)
		if err != nil {
			return nil, r.errorf(fs["type"], "%v", err)
		}
		out = append(out, ast.Param{Name: name, Type: mt})
	}
	return out, nil
}

func (r reader) calls(n *yaml.Node) ([]ast.Call, error) {
	if err := r.expect(n, yaml.SequenceNode, "calls"); err != nil {
		return nil, err
	}
	out := make([]ast.Call, 0, len(n.Content))
	for _, item := range n.Content {
		c, err := r.call(item)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (r reader) call(n *yaml.Node) (ast.Call, error) {
	fs, err := r.fields(n, "call", "invoke", "ho", "lambda", "decorator", "args", "call", "calls")
	if err != nil {
		return nil, err
	}

	switch {
	case fs["invoke"] != nil:
		if fs["calls"] != nil || fs["call"] != nil {
			return nil, r.errorf(n, "invoke takes args, not calls")
		}
		name, err := r.str(fs["invoke"], "invoke")
		if err != nil {
			return nil, err
		}
		args, err := r.args(fs["args"])
		if err != nil {
			return nil, err
		}
		return ast.Invocation{Name: name, Args: args}, nil

	case fs["ho"] != nil:
		if fs["args"] != nil || fs["calls"] != nil || fs["call"] != nil {
			return nil, r.errorf(n, "ho takes no args, they are captured where the call is passed in")
		}
		name, err := r.str(fs["ho"], "ho")
		if err != nil {
			return nil, err
		}
		return ast.HoInvocation{Name: name}, nil

	case fs["lambda"] != nil:
		if fs["args"] != nil || fs["call"] != nil {
			return nil, r.errorf(n, "lambda takes calls only")
		}
		tpe, err := r.treeType(fs["lambda"])
		if err != nil {
			return nil, err
		}
		children, err := r.children(fs)
		if err != nil {
			return nil, err
		}
		if tpe == ast.Root {
			return nil, r.compileError(n, domain.CompileInvalidLambda, errors.New("root can not be inlined"))
		}
		if err := ast.ValidateLambda(tpe, len(children)); err != nil {
			return nil, r.lambdaError(n, err)
		}
		if tpe.IsDecorator() {
			return ast.Decorator{Type: tpe, Child: children[0]}, nil
		}
		return ast.Lambda{Type: tpe, Calls: children}, nil

	case fs["decorator"] != nil:
		tpe, err := r.treeType(fs["decorator"])
		if err != nil {
			return nil, err
		}
		if !tpe.IsDecorator() {
			return nil, r.errorf(fs["decorator"], "%s is not a decorator", tpe)
		}
		args, err := r.args(fs["args"])
		if err != nil {
			return nil, err
		}
		children, err := r.children(fs)
		if err != nil {
			return nil, err
		}
		if err := ast.ValidateLambda(tpe, len(children)); err != nil {
			return nil, r.lambdaError(n, err)
		}
		return ast.Decorator{Type: tpe, Args: args, Child: children[0]}, nil
	}
	return nil, r.errorf(n, "call needs one of invoke, ho, lambda or decorator")
}

func (r reader) lambdaError(n *yaml.Node, err error) error {
	if errors.Is(err, ast.ErrDecoratorArity) {
		return r.compileError(n, domain.CompileDecoratorArity, err)
	}
	return r.compileError(n, domain.CompileInvalidLambda, err)
}

func (r reader) treeType(n *yaml.Node) (ast.TreeType, error) {
	s, err := r.str(n, "type")
	if err != nil {
		return 0, err
	}
	tpe, err := ast.ParseTreeType(s)
	if err != nil {
		return 0, r.errorf(n, "%v", err)
	}
	return tpe, nil
}

// children collects the single call or the call list of a block.
func (r reader) children(fs map[string]*yaml.Node) ([]ast.Call, error) {
	if fs["call"] != nil && fs["calls"] != nil {
		return nil, r.errorf(fs["call"], "use either call or calls")
	}
	if cn := fs["call"]; cn != nil {
		c, err := r.call(cn)
		if err != nil {
			return nil, err
		}
		return []ast.Call{c}, nil
	}
	if cn := fs["calls"]; cn != nil {
		return r.calls(cn)
	}
	return nil, nil
}

func (r reader) args(n *yaml.Node) (ast.Arguments, error) {
	if n == nil {
		return nil, nil
	}
	if err := r.expect(n, yaml.SequenceNode, "args"); err != nil {
		return nil, err
	}
	out := make(ast.Arguments, 0, len(n.Content))
	for _, item := range n.Content {
		fs, err := r.fields(item, "argument", "name", "value", "id", "call")
		if err != nil {
			return nil, err
		}
		var arg ast.Argument
		if nn := fs["name"]; nn != nil {
			name, err := r.str(nn, "argument name")
			if err != nil {
				return nil, err
			}
			arg.Name = name
		}

		set := 0
		if vn := fs["value"]; vn != nil {
			set++
			m, err := r.message(vn)
			if err != nil {
				return nil, err
			}
			arg.Value = m.(ast.Rhs)
		}
		if in := fs["id"]; in != nil {
			set++
			id, err := r.str(in, "argument id")
			if err != nil {
				return nil, err
			}
			arg.Value = ast.Ident(id)
		}
		if cn := fs["call"]; cn != nil {
			set++
			c, err := r.call(cn)
			if err != nil {
				return nil, err
			}
			arg.Value = ast.CallArg{Call: c}
		}
		if set != 1 {
			return nil, r.errorf(item, "argument needs exactly one of value, id or call")
		}
		out = append(out, arg)
	}
	return out, nil
}

// message converts a yaml value into a literal, keeping ints, floats,
// strings and bools apart by their resolved tag.
func (r reader) message(n *yaml.Node) (ast.Message, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!int":
			i, err := strconv.ParseInt(n.Value, 0, 64)
			if err != nil {
				return nil, r.errorf(n, "invalid integer %q", n.Value)
			}
			return ast.Int(i), nil
		case "!!float":
			var f float64
			if err := n.Decode(&f); err != nil {
				return nil, r.errorf(n, "invalid number %q", n.Value)
			}
			return ast.Float(f), nil
		case "!!bool":
			var b bool
			if err := n.Decode(&b); err != nil {
				return nil, r.errorf(n, "invalid bool %q", n.Value)
			}
			return ast.Bool(b), nil
		case "!!str":
			return ast.String(n.Value), nil
		}
		return nil, r.errorf(n, "unsupported literal %q", n.Value)
	case yaml.SequenceNode:
		out := make(ast.Array, 0, len(n.Content))
		for _, e := range n.Content {
			m, err := r.message(e)
			if err != nil {
				return nil, err
			}
			out = append(out, m)
		}
		return out, nil
	case yaml.MappingNode:
		out := make(ast.Object, len(n.Content)/2)
		for i := 0; i < len(n.Content); i += 2 {
			m, err := r.message(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			out[n.Content[i].Value] = m
		}
		return out, nil
	case yaml.AliasNode:
		return r.message(n.Alias)
	}
	return nil, r.errorf(n, "unsupported value")
}
