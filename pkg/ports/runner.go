package ports

import (
	"context"

	"github.com/aretw0/arbor/pkg/domain"
)

// RunRequest carries per-run overrides.
type RunRequest struct {
	// TickLimit overrides the engine budget when non-zero.
	TickLimit int64 `json:"tick_limit" mapstructure:"tick_limit"`
	// Trace keeps the events of the run in the result.
	Trace bool `json:"trace" mapstructure:"trace"`
}

// RunResult is the report of a finished run.
type RunResult struct {
	ID         string         `json:"id"`
	Outcome    domain.Outcome `json:"outcome"`
	Ticks      int64          `json:"ticks"`
	Events     []domain.Event `json:"events,omitempty"`
	Blackboard map[string]any `json:"blackboard,omitempty"`
}

// Runner is the engine surface used by driving adapters (HTTP, CLI).
type Runner interface {
	// Graph returns the compiled graph.
	Graph() *domain.Graph

	// Run ticks the graph from a fresh execution until the root is terminal.
	Run(ctx context.Context, req RunRequest) (*RunResult, error)
}
