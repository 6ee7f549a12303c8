package compiler

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/ast"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
)

// DefaultMaxNodes bounds the size of a compiled graph.
const DefaultMaxNodes = 100_000

// item is a pending call expansion.
// parent is the ancestry frame the call is resolved in and file is the
// file the call is written in.
type item struct {
	id     domain.NodeID
	call   ast.Call
	parent domain.NodeID
	file   string
}

type frameKind int

const (
	frameRoot frameKind = iota
	frameInvocation
	frameLambda
	frameDecorator
)

// frame is one entry of the ancestry table.
// Only invocation frames bind names; lambda and decorator frames are
// skipped by lookups.
type frame struct {
	kind   frameKind
	parent domain.NodeID
	name   string
	args   ast.Arguments
	params []ast.Param
	file   string
	def    *ast.Tree
}

// Builder compiles a resolved project into a node graph.
type Builder struct {
	resolver ports.DefinitionResolver
	logger   *slog.Logger
	maxNodes int

	queue []item
	chain map[domain.NodeID]frame
	graph *domain.Graph
	next  domain.NodeID
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithLogger sets the logger used for debug output of the expansion.
func WithLogger(l *slog.Logger) BuilderOption {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithMaxNodes overrides DefaultMaxNodes.
func WithMaxNodes(n int) BuilderOption {
	return func(b *Builder) {
		b.maxNodes = n
	}
}

// NewBuilder creates a builder over resolver.
func NewBuilder(resolver ports.DefinitionResolver, opts ...BuilderOption) *Builder {
	b := &Builder{
		resolver: resolver,
		logger:   logging.NewNop(),
		maxNodes: DefaultMaxNodes,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build compiles the graph reachable from the resolver's root.
func Build(resolver ports.DefinitionResolver, logger *slog.Logger) (*domain.Graph, error) {
	return NewBuilder(resolver, WithLogger(logger)).Build()
}

// Build expands the root definition breadth first. Ids are assigned when a
// call is queued, so the root is 1 and its calls follow in order. The
// first error aborts the build and no graph is returned.
func (b *Builder) Build() (*domain.Graph, error) {
	b.queue = nil
	b.chain = make(map[domain.NodeID]frame)
	b.graph = domain.NewGraph()
	b.next = 0

	root, err := b.resolver.FindRoot()
	if err != nil {
		return nil, err
	}
	if !root.Tree.IsRoot() {
		return nil, domain.NewCompileError(domain.CompileMissingRoot, "%s is a %s, not a root", root.Tree.Name, root.Tree.Type).InFile(root.File)
	}

	rootID := b.nextID()
	b.chain[rootID] = frame{kind: frameRoot, file: root.File, name: root.Tree.Name, def: root.Tree}
	children := b.pushAll(root.Tree.Calls, rootID, root.File)
	b.graph.Root = rootID
	b.graph.Nodes[rootID] = domain.RootNode(rootID, root.Tree.Name, children)

	for len(b.queue) > 0 {
		it := b.queue[0]
		b.queue = b.queue[1:]
		if err := b.expand(it); err != nil {
			return nil, err
		}
		if len(b.graph.Nodes) > b.maxNodes {
			return nil, domain.NewCompileError(domain.CompileInvalidDefinition, "the graph exceeds %d nodes", b.maxNodes)
		}
	}

	if err := b.graph.Validate(); err != nil {
		return nil, fmt.Errorf("compiled graph is inconsistent: %w", err)
	}
	return b.graph, nil
}

func (b *Builder) nextID() domain.NodeID {
	b.next++
	return b.next
}

func (b *Builder) push(call ast.Call, parent domain.NodeID, file string) domain.NodeID {
	id := b.nextID()
	b.queue = append(b.queue, item{id: id, call: call, parent: parent, file: file})
	return id
}

func (b *Builder) pushAll(calls []ast.Call, parent domain.NodeID, file string) []domain.NodeID {
	ids := make([]domain.NodeID, 0, len(calls))
	for _, c := range calls {
		ids = append(ids, b.push(c, parent, file))
	}
	return ids
}

func (b *Builder) pushFront(it item) {
	b.queue = append([]item{it}, b.queue...)
}

func (b *Builder) expand(it item) error {
	b.logger.Debug("expanding call", "id", int(it.id), "call", it.call.String(), "file", it.file)

	switch c := it.call.(type) {
	case ast.Lambda:
		return b.lambda(it, c)
	case ast.Decorator:
		return b.decorator(it, c)
	case ast.HoInvocation:
		return b.higherOrder(it, c)
	case ast.Invocation:
		return b.invocation(it, c)
	case nil:
		return domain.NewCompileError(domain.CompileInvalidLambda, "empty call").InFile(it.file)
	}
	return fmt.Errorf("unsupported call %T", it.call)
}

func (b *Builder) lambda(it item, c ast.Lambda) error {
	if err := ast.ValidateLambda(c.Type, len(c.Calls)); err != nil {
		if errors.Is(err, ast.ErrDecoratorArity) {
			return &domain.CompileError{Kind: domain.CompileDecoratorArity, File: it.file, Err: err}
		}
		return &domain.CompileError{Kind: domain.CompileInvalidLambda, File: it.file, Err: err}
	}
	if c.Type.IsDecorator() {
		return b.decorator(it, ast.Decorator{Type: c.Type, Child: c.Calls[0]})
	}
	kind, err := flowKind(c.Type)
	if err != nil {
		return &domain.CompileError{Kind: domain.CompileInvalidLambda, File: it.file, Err: err}
	}

	b.chain[it.id] = frame{kind: frameLambda, parent: it.parent, file: it.file}
	children := b.pushAll(c.Calls, it.id, it.file)
	b.graph.Nodes[it.id] = domain.LambdaNode(it.id, kind, children)
	return nil
}

func (b *Builder) decorator(it item, c ast.Decorator) error {
	if c.Child == nil {
		return domain.NewCompileError(domain.CompileDecoratorArity, "the decorator %s has no child", c.Type).InFile(it.file)
	}
	kind, err := decoratorKind(c.Type)
	if err != nil {
		return &domain.CompileError{Kind: domain.CompileInvalidDefinition, File: it.file, Err: err}
	}
	args, err := decoratorArgs(c.Type, c.Args)
	if err != nil {
		return withFile(err, it.file)
	}

	b.chain[it.id] = frame{kind: frameDecorator, parent: it.parent, file: it.file}
	child := b.push(c.Child, it.id, it.file)
	b.graph.Nodes[it.id] = domain.DecoratorNode(it.id, kind, args, child)
	return nil
}

// higherOrder replaces a call received as an argument with the call that
// was passed in. The found call keeps the scope and file it was written in.
func (b *Builder) higherOrder(it item, c ast.HoInvocation) error {
	found, scope, file, err := b.findHigherOrder(it.parent, c.Name)
	if err != nil {
		return withFile(err, it.file)
	}
	b.pushFront(item{id: it.id, call: found, parent: scope, file: file})
	return nil
}

// findHigherOrder walks the ancestry from parent to the nearest invocation
// frame and returns the call bound to key there. Identifiers and
// higher-order calls passed through an argument continue the search from
// the frame the invocation was written in.
func (b *Builder) findHigherOrder(parent domain.NodeID, key string) (ast.Call, domain.NodeID, string, error) {
	cur := parent
	for steps := 0; steps <= len(b.chain); steps++ {
		fr, ok := b.chain[cur]
		if !ok {
			return nil, 0, "", domain.NewCompileError(domain.CompileUnresolvedHigherOrder, "no frame %d for %s", cur, key)
		}
		switch fr.kind {
		case frameLambda, frameDecorator:
			cur = fr.parent
			continue
		case frameRoot:
			return nil, 0, "", domain.NewCompileError(domain.CompileUnresolvedHigherOrder, "the call %s is not passed in by any invocation", key)
		}

		arg, ok, err := b.argumentFor(fr, key)
		if err != nil {
			return nil, 0, "", err
		}
		if !ok {
			return nil, 0, "", domain.NewCompileError(domain.CompileUnresolvedHigherOrder, "the definition %s has no tree param %s", fr.name, key)
		}

		switch v := arg.(type) {
		case ast.Ident:
			key, cur = string(v), fr.parent
		case ast.CallArg:
			if ho, ok := v.Call.(ast.HoInvocation); ok {
				key, cur = ho.Name, fr.parent
				continue
			}
			return v.Call, fr.parent, fr.file, nil
		default:
			return nil, 0, "", domain.NewCompileError(domain.CompileUnresolvedHigherOrder, "the argument %s of %s is not a call", key, fr.name)
		}
	}
	return nil, 0, "", domain.NewCompileError(domain.CompileUnresolvedHigherOrder, "the call %s can not be resolved", key)
}

// argumentFor returns the raw argument an invocation frame binds to the
// param key.
func (b *Builder) argumentFor(fr frame, key string) (ast.Rhs, bool, error) {
	p, idx, ok := findParam(fr.params, key)
	if !ok || p.Type != ast.MesTree {
		return nil, false, nil
	}
	paired, err := pairArgs(fr.name, fr.args, fr.params)
	if err != nil {
		return nil, false, err
	}
	return paired[idx].Value, true, nil
}

func (b *Builder) invocation(it item, c ast.Invocation) error {
	res, err := b.resolver.FindDefinition(c.Name, it.file)
	if err != nil {
		return err
	}
	tree := res.Tree

	switch {
	case tree.IsRoot():
		return domain.NewCompileError(domain.CompileInvalidDefinition, "the root %s can not be invoked", tree.Name).InFile(it.file)
	case tree.Type.IsDecorator():
		return domain.NewCompileError(domain.CompileInvalidDefinition, "the definition %s can not be a decorator", tree.Name).InFile(res.File)
	}
	if b.recursive(it.parent, tree) {
		return domain.NewCompileError(domain.CompileInvalidDefinition, "the definition %s invokes itself", tree.Name).InFile(res.File)
	}

	args, err := bindArgs(c.Name, c.Args, tree.Params)
	if err != nil {
		return withFile(err, it.file)
	}
	b.chain[it.id] = frame{
		kind:   frameInvocation,
		parent: it.parent,
		name:   c.Name,
		args:   c.Args,
		params: tree.Params,
		file:   it.file,
		def:    tree,
	}

	var node domain.Node
	if tree.Type.IsAction() {
		if res.Std {
			b.graph.StdActions[tree.Name] = struct{}{}
			node = domain.StdActionNode(it.id, tree.Name, args)
		} else {
			node = domain.ActionNode(it.id, tree.Name, args)
		}
	} else {
		kind, err := flowKind(tree.Type)
		if err != nil {
			return &domain.CompileError{Kind: domain.CompileInvalidDefinition, File: res.File, Err: err}
		}
		children := b.pushAll(tree.Calls, it.id, res.File)
		node = domain.FlowNode(it.id, kind, tree.Name, args, children)
	}
	if c.Name != tree.Name {
		node = node.WithAlias(c.Name)
	}
	b.graph.Nodes[it.id] = node
	return nil
}

// recursive reports whether def is already being expanded above parent.
func (b *Builder) recursive(parent domain.NodeID, def *ast.Tree) bool {
	for cur, steps := parent, 0; steps <= len(b.chain); steps++ {
		fr, ok := b.chain[cur]
		if !ok {
			return false
		}
		if fr.def == def {
			return true
		}
		if fr.kind == frameRoot {
			return false
		}
		cur = fr.parent
	}
	return false
}

func withFile(err error, file string) error {
	var ce *domain.CompileError
	if errors.As(err, &ce) && ce.File == "" {
		return ce.InFile(file)
	}
	return err
}
