package arbor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/aretw0/arbor/internal/compiler"
	"github.com/aretw0/arbor/internal/runtime"
	"github.com/aretw0/arbor/pkg/adapters/file"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/ast"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/observability"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/project"
	"github.com/aretw0/arbor/pkg/registry"
	"github.com/google/uuid"
)

// DefaultMainFile is the entry file of a project when none is configured.
const DefaultMainFile = "main.yaml"

// Engine is the high-level entry point for the Arbor library.
// It compiles a project once and runs the resulting graph on demand.
type Engine struct {
	runtime    *runtime.Engine
	graph      *domain.Graph
	project    *project.Project
	loader     ports.SourceLoader
	files      []*ast.File
	registry   *registry.Registry
	blackboard ports.Blackboard
	tracers    []ports.Tracer
	metrics    *observability.Metrics
	locker     ports.DistributedLocker
	lockTTL    time.Duration
	policy     domain.ParallelPolicy
	tickLimit  int64
	mainFile   string
	root       string
	maxNodes   int
	logger     *slog.Logger
	mu         sync.Mutex
	Name       string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithSourceLoader injects a custom SourceLoader, bypassing the file system.
func WithSourceLoader(l ports.SourceLoader) Option {
	return func(e *Engine) {
		e.loader = l
	}
}

// WithFiles compiles already built files, such as the output of the dsl
// package, instead of reading sources.
func WithFiles(files ...*ast.File) Option {
	return func(e *Engine) {
		e.files = files
	}
}

// WithMain sets the entry file of the project (default: main.yaml).
func WithMain(file string) Option {
	return func(e *Engine) {
		e.mainFile = file
	}
}

// WithRoot selects the root definition to run. By default the first root
// of the main file is used.
func WithRoot(name string) Option {
	return func(e *Engine) {
		e.root = name
	}
}

// WithTickLimit stops a run when its tick counter reaches n. Zero means no limit.
func WithTickLimit(n int64) Option {
	return func(e *Engine) {
		e.tickLimit = n
	}
}

// WithBlackboard sets the store shared by the actions (default: in memory).
func WithBlackboard(bb ports.Blackboard) Option {
	return func(e *Engine) {
		e.blackboard = bb
	}
}

// WithTracer receives the events of every run. It can be given several
// times.
func WithTracer(t ports.Tracer) Option {
	return func(e *Engine) {
		e.tracers = append(e.tracers, t)
	}
}

// WithMetrics exports run metrics to Prometheus.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithRegistry sets the registry of host actions. The std::actions imported by
// the project are served apart and never replace a host action.
func WithRegistry(r *registry.Registry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithAction registers a single action implementation.
func WithAction(name string, a ports.Action) Option {
	return func(e *Engine) {
		if e.registry == nil {
			e.registry = registry.NewRegistry()
		}
		e.registry.Register(name, a)
	}
}

// WithParallelPolicy sets the default thresholds of parallel nodes.
func WithParallelPolicy(p domain.ParallelPolicy) Option {
	return func(e *Engine) {
		e.policy = p
	}
}

// WithMaxNodes caps the size of the compiled graph.
func WithMaxNodes(n int) Option {
	return func(e *Engine) {
		e.maxNodes = n
	}
}

// WithLocker serializes runs across engines sharing a blackboard.
// The lock expires after ttl if the holder dies.
func WithLocker(l ports.DistributedLocker, ttl time.Duration) Option {
	return func(e *Engine) {
		e.locker = l
		e.lockTTL = ttl
	}
}

// New compiles the project found in dir.
// If WithSourceLoader or WithFiles is provided, dir is only used as the
// engine name.
func New(dir string, opts ...Option) (*Engine, error) {
	eng := &Engine{mainFile: DefaultMainFile}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.loader == nil && eng.files == nil {
		if dir == "" {
			return nil, fmt.Errorf("dir is required when no custom loader is provided")
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("invalid path: %w", err)
		}
		eng.Name = filepath.Base(abs)
		eng.loader = file.NewLoader(abs)
	} else if dir != "" {
		eng.Name = filepath.Base(dir)
	}

	if eng.logger == nil {
		eng.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if eng.Name != "" {
		eng.logger = eng.logger.With("graph", eng.Name)
	}
	if eng.registry == nil {
		eng.registry = registry.NewRegistry()
	}
	if eng.blackboard == nil {
		eng.blackboard = memory.NewBlackboard()
	}

	projectOpts := []project.Option{
		project.WithStd(registry.StdDeclarations()),
		project.WithRoot(eng.root),
	}
	var p *project.Project
	var err error
	if eng.files != nil {
		p, err = project.New(eng.mainFile, eng.files, projectOpts...)
	} else {
		p, err = project.Load(context.Background(), eng.loader, compiler.NewParser(), eng.mainFile, projectOpts...)
	}
	if err != nil {
		return nil, err
	}
	builderOpts := []compiler.BuilderOption{compiler.WithLogger(eng.logger)}
	if eng.maxNodes > 0 {
		builderOpts = append(builderOpts, compiler.WithMaxNodes(eng.maxNodes))
	}
	g, err := compiler.NewBuilder(p, builderOpts...).Build()
	if err != nil {
		return nil, err
	}
	eng.project = p
	eng.graph = g
	eng.logger.Debug("graph compiled", "nodes", len(g.Nodes), "files", len(p.Files))

	eng.runtime = runtime.NewEngine(g, eng.registry,
		runtime.WithStdActions(registry.SelectStd(g.StdActionNames())),
		runtime.WithLogger(eng.logger),
		runtime.WithParallelPolicy(eng.policy),
	)
	return eng, nil
}

// Graph returns the compiled graph.
func (e *Engine) Graph() *domain.Graph { return e.graph }

// Project returns the resolved project the graph was compiled from.
func (e *Engine) Project() *project.Project { return e.project }

// Blackboard returns the store shared by the runs.
func (e *Engine) Blackboard() ports.Blackboard { return e.blackboard }

// Registry returns the action registry.
func (e *Engine) Registry() *registry.Registry { return e.registry }

// Logger returns the engine logger.
func (e *Engine) Logger() *slog.Logger { return e.logger }

// Validate reports actions called by the graph that have no implementation.
func (e *Engine) Validate() error { return e.runtime.Check() }

// Run ticks the graph from a fresh execution until the root is terminal.
// Runs on the same engine are serialized. When the run stops early the
// partial result is returned along with the error.
func (e *Engine) Run(ctx context.Context, req ports.RunRequest) (*ports.RunResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.locker != nil {
		unlock, err := e.locker.Lock(ctx, "run:"+e.Name, e.lockTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire run lock: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				e.logger.Warn("failed to release run lock", "err", err)
			}
		}()
	}

	id := uuid.NewString()
	logger := e.logger.With("run", id)

	limit := e.tickLimit
	if req.TickLimit != 0 {
		limit = req.TickLimit
	}

	var rec *observability.Recorder
	if req.Trace {
		rec = observability.NewRecorder()
	}
	tracers := append([]ports.Tracer(nil), e.tracers...)
	if rec != nil {
		tracers = append(tracers, rec)
	}
	if e.metrics != nil {
		tracers = append(tracers, e.metrics.Tracer(e.graph))
	}

	x := runtime.NewExecution(ctx, e.blackboard, observability.Multi(tracers...), limit, logger)
	logger.Info("run started", "tick_limit", limit)
	out, runErr := e.runtime.Run(x)

	res := &ports.RunResult{ID: id, Outcome: out, Ticks: x.CurrentTick()}
	if rec != nil {
		res.Events = rec.Events()
	}
	if e.metrics != nil {
		e.metrics.ObserveRun(out, res.Ticks, runErr)
	}
	if runErr != nil {
		logger.Warn("run stopped", "ticks", res.Ticks, "err", runErr)
		return res, runErr
	}

	snapshot, err := e.blackboard.Snapshot(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to read blackboard: %w", err)
	}
	res.Blackboard = snapshot
	logger.Info("run finished", "outcome", out.String(), "ticks", res.Ticks)
	return res, nil
}

var _ ports.Runner = (*Engine)(nil)
