package domain

import "fmt"

// ReasonKey is the reserved argument under which a failure reason is stored
// in a node state.
const ReasonKey = "reason"

// Status is the lifecycle position of a node within a run.
type Status int

const (
	StatusReady Status = iota
	StatusRunning
	StatusSuccess
	StatusFailure
)

func (s Status) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusRunning:
		return "running"
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name.
func (s *Status) UnmarshalText(b []byte) error {
	for _, c := range []Status{StatusReady, StatusRunning, StatusSuccess, StatusFailure} {
		if c.String() == string(b) {
			*s = c
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", b)
}

// IsTerminal reports whether s is Success or Failure.
func (s Status) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFailure
}

// Outcome is the result of ticking a node once.
type Outcome struct {
	Status Status `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// Success is the successful outcome.
func Success() Outcome { return Outcome{Status: StatusSuccess} }

// Running is the outcome of a node that needs more ticks.
func Running() Outcome { return Outcome{Status: StatusRunning} }

// Failure is the failed outcome with an optional reason.
func Failure(reason string) Outcome { return Outcome{Status: StatusFailure, Reason: reason} }

func (o Outcome) String() string {
	if o.Status == StatusFailure && o.Reason != "" {
		return fmt.Sprintf("failure(%s)", o.Reason)
	}
	return o.Status.String()
}

// NodeState is what the execution context records for a node.
// Args carries per-node bookkeeping (cursors, counters) and, on failure,
// the reason under ReasonKey.
type NodeState struct {
	Status Status `json:"status"`
	Args   Args   `json:"args,omitempty"`
}

// Ready creates a Ready state carrying args.
func Ready(args Args) NodeState {
	return NodeState{Status: StatusReady, Args: args}
}

// StateFrom converts an outcome into a state carrying args.
func StateFrom(args Args, o Outcome) NodeState {
	args = args.Without(ReasonKey)
	if o.Status == StatusFailure && o.Reason != "" {
		args = args.With(ReasonKey, o.Reason)
	}
	return NodeState{Status: o.Status, Args: args}
}

// Outcome maps the state back to a tick outcome. Ready has no outcome.
func (s NodeState) Outcome() (Outcome, error) {
	switch s.Status {
	case StatusRunning:
		return Running(), nil
	case StatusSuccess:
		return Success(), nil
	case StatusFailure:
		reason := ""
		if v, ok := s.Args.Find(ReasonKey); ok {
			reason = FormatValue(v)
		}
		return Failure(reason), nil
	}
	return Outcome{}, &RuntimeError{Kind: RuntimeUnexpectedState, Message: "ready state has no outcome"}
}

func (s NodeState) String() string {
	if len(s.Args) == 0 {
		return s.Status.String()
	}
	return fmt.Sprintf("%s(%s)", s.Status, s.Args)
}
