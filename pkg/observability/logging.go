package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
)

// LogTracer writes events to a structured logger. Tick and state events are
// logged at level; frame events one step lower.
func LogTracer(logger *slog.Logger, level slog.Level) ports.Tracer {
	return ports.TracerFunc(func(e domain.Event) {
		lvl := level
		if e.Kind == domain.EventPushFrame || e.Kind == domain.EventPopFrame {
			lvl = level - 4
		}
		if !logger.Enabled(context.Background(), lvl) {
			return
		}
		attrs := []slog.Attr{
			slog.Int64("tick", e.Tick),
			slog.Int("depth", e.Depth),
		}
		if e.Kind != domain.EventNextTick {
			attrs = append(attrs, slog.Int("node", int(e.NodeID)))
		}
		if e.Kind == domain.EventNewState {
			attrs = append(attrs, slog.String("state", e.State.String()))
		}
		logger.LogAttrs(context.Background(), lvl, string(e.Kind), attrs...)
	})
}
