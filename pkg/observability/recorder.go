package observability

import (
	"sync"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
)

// Recorder keeps the events it receives in memory.
type Recorder struct {
	mu     sync.Mutex
	events []domain.Event
	kinds  map[domain.EventKind]bool
}

// NewRecorder creates a recorder. With no kinds given it keeps every event.
func NewRecorder(kinds ...domain.EventKind) *Recorder {
	r := &Recorder{}
	if len(kinds) > 0 {
		r.kinds = make(map[domain.EventKind]bool, len(kinds))
		for _, k := range kinds {
			r.kinds[k] = true
		}
	}
	return r
}

// Trace implements ports.Tracer.
func (r *Recorder) Trace(e domain.Event) {
	if r.kinds != nil && !r.kinds[e.Kind] {
		return
	}
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Event(nil), r.events...)
}

// Reset drops the recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

// Multi fans an event out to several tracers. Nil tracers are skipped.
func Multi(tracers ...ports.Tracer) ports.Tracer {
	var ts []ports.Tracer
	for _, t := range tracers {
		if t != nil {
			ts = append(ts, t)
		}
	}
	switch len(ts) {
	case 0:
		return ports.NopTracer
	case 1:
		return ts[0]
	}
	return ports.TracerFunc(func(e domain.Event) {
		for _, t := range ts {
			t.Trace(e)
		}
	})
}
