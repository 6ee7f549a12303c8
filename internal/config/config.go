// Package config reads the project configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/domain"
	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up at the project root.
const FileName = "arbor.yaml"

// Blackboard drivers.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverFile   = "file"
)

// Config is the content of arbor.yaml.
type Config struct {
	Main       string                `yaml:"main"`
	Root       string                `yaml:"root"`
	TickLimit  int64                 `yaml:"tick_limit"`
	Parallel   domain.ParallelPolicy `yaml:"parallel"`
	Log        Log                   `yaml:"log"`
	Blackboard Blackboard            `yaml:"blackboard"`
	HTTP       HTTP                  `yaml:"http"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Blackboard struct {
	Driver   string        `yaml:"driver"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
	Path     string        `yaml:"path"`
}

type HTTP struct {
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Main: "main.yaml",
		Log: Log{
			Level:  "info",
			Format: logging.FormatText,
		},
		Blackboard: Blackboard{
			Driver: DriverMemory,
			Addr:   "localhost:6379",
			Prefix: "arbor:bb:",
			Path:   ".arbor/blackboard.json",
		},
		HTTP: HTTP{Addr: ":8080"},
	}
}

// Load reads FileName from dir over the defaults. A missing file is not an error.
func Load(dir string) (Config, error) {
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("failed to read %s: %w", FileName, err)
	}
	return Parse(data)
}

// Parse decodes a configuration document over the defaults and validates it.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("invalid %s: %w", FileName, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	if c.Main == "" {
		errs = append(errs, errors.New("main: must not be empty"))
	}
	if c.TickLimit < 0 {
		errs = append(errs, fmt.Errorf("tick_limit: must not be negative, got %d", c.TickLimit))
	}
	if c.Parallel.Success < 0 || c.Parallel.Failure < 0 {
		errs = append(errs, errors.New("parallel: thresholds must not be negative"))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if c.Log.Format != logging.FormatText && c.Log.Format != logging.FormatJSON {
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}
	switch c.Blackboard.Driver {
	case DriverMemory:
	case DriverRedis:
		if c.Blackboard.Addr == "" {
			errs = append(errs, errors.New("blackboard.addr: required by the redis driver"))
		}
	case DriverFile:
		if c.Blackboard.Path == "" {
			errs = append(errs, errors.New("blackboard.path: required by the file driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("blackboard.driver: unknown driver %q", c.Blackboard.Driver))
	}
	if c.Blackboard.TTL < 0 {
		errs = append(errs, errors.New("blackboard.ttl: must not be negative"))
	}
	return errors.Join(errs...)
}
