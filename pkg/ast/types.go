package ast

import "fmt"

// TreeType is the kind of a definition or an inline block.
type TreeType int

const (
	Root TreeType = iota
	Parallel
	Sequence
	MSequence
	RSequence
	Fallback
	RFallback
	// decorators
	Inverter
	ForceSuccess
	ForceFail
	Repeat
	Retry
	Timeout
	// actions
	Impl
	Cond
)

var treeTypeNames = [...]string{
	Root:         "root",
	Parallel:     "parallel",
	Sequence:     "sequence",
	MSequence:    "m_sequence",
	RSequence:    "r_sequence",
	Fallback:     "fallback",
	RFallback:    "r_fallback",
	Inverter:     "inverter",
	ForceSuccess: "force_success",
	ForceFail:    "force_fail",
	Repeat:       "repeat",
	Retry:        "retry",
	Timeout:      "timeout",
	Impl:         "impl",
	Cond:         "cond",
}

func (t TreeType) String() string {
	if t < 0 || int(t) >= len(treeTypeNames) {
		return fmt.Sprintf("TreeType(%d)", int(t))
	}
	return treeTypeNames[t]
}

// ParseTreeType maps a snake_case keyword to its TreeType.
func ParseTreeType(s string) (TreeType, error) {
	for i, name := range treeTypeNames {
		if name == s {
			return TreeType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown tree type %q", s)
}

// IsDecorator reports whether the type wraps exactly one child.
func (t TreeType) IsDecorator() bool {
	switch t {
	case Inverter, ForceSuccess, ForceFail, Repeat, Retry, Timeout:
		return true
	}
	return false
}

// IsAction reports whether the type is a declaration-only leaf.
func (t TreeType) IsAction() bool {
	return t == Impl || t == Cond
}

// IsFlow reports whether the type is a control-flow composite other than root.
func (t TreeType) IsFlow() bool {
	switch t {
	case Parallel, Sequence, MSequence, RSequence, Fallback, RFallback:
		return true
	}
	return false
}

// MesType is the declared type of a parameter.
type MesType int

const (
	MesNum MesType = iota
	MesArray
	MesObject
	MesString
	MesBool
	MesTree
)

var mesTypeNames = [...]string{
	MesNum:    "num",
	MesArray:  "array",
	MesObject: "object",
	MesString: "string",
	MesBool:   "bool",
	MesTree:   "tree",
}

func (m MesType) String() string {
	if m < 0 || int(m) >= len(mesTypeNames) {
		return fmt.Sprintf("MesType(%d)", int(m))
	}
	return mesTypeNames[m]
}

// ParseMesType maps a type keyword to its MesType.
func ParseMesType(s string) (MesType, error) {
	for i, name := range mesTypeNames {
		if name == s {
			return MesType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown message type %q", s)
}
