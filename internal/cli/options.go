package cli

import (
	"github.com/aretw0/arbor/internal/config"
)

// Options holds the command-line settings shared by every command.
// Zero values leave the arbor.yaml setting untouched.
type Options struct {
	Dir       string
	Main      string
	Root      string
	LogLevel  string
	LogFormat string
	TickLimit *int64
	Redis     string
}

// apply overlays the flags on the file configuration.
func (o Options) apply(cfg *config.Config) {
	if o.Main != "" {
		cfg.Main = o.Main
	}
	if o.Root != "" {
		cfg.Root = o.Root
	}
	if o.LogLevel != "" {
		cfg.Log.Level = o.LogLevel
	}
	if o.LogFormat != "" {
		cfg.Log.Format = o.LogFormat
	}
	if o.TickLimit != nil {
		cfg.TickLimit = *o.TickLimit
	}
	if o.Redis != "" {
		cfg.Blackboard.Driver = config.DriverRedis
		cfg.Blackboard.Addr = o.Redis
	}
}
