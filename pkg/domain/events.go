package domain

import "fmt"

// EventKind identifies a trace record.
type EventKind string

const (
	EventNextTick  EventKind = "next_tick"
	EventPushFrame EventKind = "push_frame"
	EventPopFrame  EventKind = "pop_frame"
	EventNewState  EventKind = "new_state"
)

// Event is emitted by the execution context as the tree is ticked.
// NodeID and State are set only for the frame and state events.
type Event struct {
	Tick   int64     `json:"tick"`
	Kind   EventKind `json:"kind"`
	Depth  int       `json:"depth"`
	NodeID NodeID    `json:"node_id,omitempty"`
	State  NodeState `json:"state"`
}

func (e Event) String() string {
	switch e.Kind {
	case EventNextTick:
		return fmt.Sprintf("tick %d", e.Tick)
	case EventNewState:
		return fmt.Sprintf("tick %d: %d -> %s", e.Tick, e.NodeID, e.State)
	}
	return fmt.Sprintf("tick %d: %s %d (depth %d)", e.Tick, e.Kind, e.NodeID, e.Depth)
}
