package ports

import "github.com/aretw0/arbor/pkg/domain"

// Tracer receives the events emitted while a graph is ticked.
// Implementations must not block; they are called on the tick path.
type Tracer interface {
	Trace(e domain.Event)
}

// TracerFunc adapts a function to the Tracer interface.
type TracerFunc func(e domain.Event)

func (f TracerFunc) Trace(e domain.Event) { f(e) }

// NopTracer discards every event.
var NopTracer Tracer = TracerFunc(func(domain.Event) {})
