package domain

import (
	"fmt"
	"strconv"
)

// NodeID addresses a node in a compiled Graph. Ids start at 1.
type NodeID int

func (id NodeID) String() string {
	return strconv.Itoa(int(id))
}

// NodeKind is the structural category of a node.
type NodeKind int

const (
	KindRoot NodeKind = iota
	KindFlow
	KindDecorator
	KindAction
)

// MarshalText encodes the kind by name.
func (k NodeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *NodeKind) UnmarshalText(b []byte) error {
	for _, c := range []NodeKind{KindRoot, KindFlow, KindDecorator, KindAction} {
		if c.String() == string(b) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("unknown node kind %q", b)
}

func (k NodeKind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindFlow:
		return "flow"
	case KindDecorator:
		return "decorator"
	case KindAction:
		return "action"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// FlowKind selects the control flow semantics of a Flow node.
type FlowKind string

const (
	FlowSequence  FlowKind = "sequence"
	FlowMSequence FlowKind = "m_sequence"
	FlowRSequence FlowKind = "r_sequence"
	FlowFallback  FlowKind = "fallback"
	FlowRFallback FlowKind = "r_fallback"
	FlowParallel  FlowKind = "parallel"
)

// DecoratorKind selects the behavior of a Decorator node.
type DecoratorKind string

const (
	DecoratorInverter     DecoratorKind = "inverter"
	DecoratorForceSuccess DecoratorKind = "force_success"
	DecoratorForceFail    DecoratorKind = "force_fail"
	DecoratorRepeat       DecoratorKind = "repeat"
	DecoratorRetry        DecoratorKind = "retry"
	DecoratorTimeout      DecoratorKind = "timeout"
)

// Node is one compiled tree node.
//
// Name is the definition name for Root, Flow and Action nodes; Lambda flows
// carry no name. Alias is set when the node was reached through an import
// alias, in which case Name is the original definition name. Std marks an
// action served by std::actions rather than by a host implementation.
type Node struct {
	ID        NodeID        `json:"id" yaml:"id"`
	Kind      NodeKind      `json:"kind" yaml:"kind"`
	Name      string        `json:"name,omitempty" yaml:"name,omitempty"`
	Alias     string        `json:"alias,omitempty" yaml:"alias,omitempty"`
	Flow      FlowKind      `json:"flow,omitempty" yaml:"flow,omitempty"`
	Decorator DecoratorKind `json:"decorator,omitempty" yaml:"decorator,omitempty"`
	Args      Args          `json:"args,omitempty" yaml:"args,omitempty"`
	Children  []NodeID      `json:"children,omitempty" yaml:"children,omitempty"`
	Std       bool          `json:"std,omitempty" yaml:"std,omitempty"`
}

// RootNode creates the entry node of a graph.
func RootNode(id NodeID, name string, children []NodeID) Node {
	return Node{ID: id, Kind: KindRoot, Name: name, Children: children}
}

// FlowNode creates a named flow node.
func FlowNode(id NodeID, flow FlowKind, name string, args Args, children []NodeID) Node {
	return Node{ID: id, Kind: KindFlow, Flow: flow, Name: name, Args: args, Children: children}
}

// LambdaNode creates an anonymous inline flow node.
func LambdaNode(id NodeID, flow FlowKind, children []NodeID) Node {
	return Node{ID: id, Kind: KindFlow, Flow: flow, Children: children}
}

// DecoratorNode creates a decorator wrapping exactly one child.
func DecoratorNode(id NodeID, dec DecoratorKind, args Args, child NodeID) Node {
	return Node{ID: id, Kind: KindDecorator, Decorator: dec, Args: args, Children: []NodeID{child}}
}

// ActionNode creates a leaf node calling a registered action.
func ActionNode(id NodeID, name string, args Args) Node {
	return Node{ID: id, Kind: KindAction, Name: name, Args: args}
}

// StdActionNode creates a leaf node calling a std::actions implementation.
func StdActionNode(id NodeID, name string, args Args) Node {
	return Node{ID: id, Kind: KindAction, Name: name, Args: args, Std: true}
}

// WithAlias returns a copy of n recording the alias it was invoked by.
func (n Node) WithAlias(alias string) Node {
	n.Alias = alias
	return n
}

// IsLambda reports whether n is an anonymous inline flow.
func (n Node) IsLambda() bool {
	return n.Kind == KindFlow && n.Name == ""
}

// Label is a short human readable description used in traces and diagrams.
func (n Node) Label() string {
	switch n.Kind {
	case KindRoot:
		return "root " + n.Name
	case KindFlow:
		if n.Name == "" {
			return string(n.Flow)
		}
		return string(n.Flow) + " " + n.Name
	case KindDecorator:
		if len(n.Args) == 0 {
			return string(n.Decorator)
		}
		return string(n.Decorator) + "(" + n.Args.String() + ")"
	case KindAction:
		name := n.Name
		if n.Alias != "" {
			name = n.Alias
		}
		return name + "(" + n.Args.String() + ")"
	}
	return n.ID.String()
}
