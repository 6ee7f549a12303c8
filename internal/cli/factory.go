package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/config"
	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/adapters/file"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/adapters/redis"
	"github.com/aretw0/arbor/pkg/observability"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// LockTTL bounds how long a crashed process can hold the run lock.
const LockTTL = time.Minute

// Setup is an engine built with the CLI conventions, plus what it owns.
type Setup struct {
	Config  config.Config
	Logger  *slog.Logger
	Engine  *arbor.Engine
	Metrics *prometheus.Registry

	closers []func() error
}

// NewSetup reads arbor.yaml from opts.Dir, applies the flags and compiles
// the project. Logs go to logOut.
func NewSetup(opts Options, logOut io.Writer, extra ...arbor.Option) (*Setup, error) {
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}
	opts.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level, _ := logging.ParseLevel(cfg.Log.Level)
	s := &Setup{
		Config:  cfg,
		Logger:  logging.New(level, cfg.Log.Format, logOut),
		Metrics: prometheus.NewRegistry(),
	}
	s.Metrics.MustRegister(collectors.NewGoCollector())
	metrics, err := observability.NewMetrics(s.Metrics)
	if err != nil {
		return nil, err
	}

	bb, locker, err := s.blackboard(dir)
	if err != nil {
		return nil, err
	}

	engineOpts := []arbor.Option{
		arbor.WithLogger(s.Logger),
		arbor.WithMain(cfg.Main),
		arbor.WithRoot(cfg.Root),
		arbor.WithTickLimit(cfg.TickLimit),
		arbor.WithParallelPolicy(cfg.Parallel),
		arbor.WithBlackboard(bb),
		arbor.WithMetrics(metrics),
	}
	if locker != nil {
		engineOpts = append(engineOpts, arbor.WithLocker(locker, LockTTL))
	}
	if level <= slog.LevelDebug {
		engineOpts = append(engineOpts, arbor.WithTracer(observability.LogTracer(s.Logger, slog.LevelDebug)))
	}
	engineOpts = append(engineOpts, extra...)

	engine, err := arbor.New(dir, engineOpts...)
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	s.Engine = engine
	return s, nil
}

func (s *Setup) blackboard(dir string) (ports.Blackboard, ports.DistributedLocker, error) {
	c := s.Config.Blackboard
	switch c.Driver {
	case config.DriverRedis:
		opts := []redis.Option{redis.WithPrefix(c.Prefix)}
		if c.TTL > 0 {
			opts = append(opts, redis.WithTTL(c.TTL))
		}
		bb := redis.New(c.Addr, c.Password, c.DB, opts...)
		s.closers = append(s.closers, bb.Close)
		s.Logger.Debug("using redis blackboard", "addr", c.Addr, "prefix", c.Prefix)
		return bb, redis.NewLocker(bb.Client(), "arbor:"), nil
	case config.DriverFile:
		path := c.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		s.Logger.Debug("using file blackboard", "path", path)
		return file.NewBlackboard(path), nil, nil
	}
	return memory.NewBlackboard(), nil, nil
}

// Close releases the resources held by the setup.
func (s *Setup) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	s.closers = nil
	return errors.Join(errs...)
}
