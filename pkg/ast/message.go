package ast

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Message is a literal value written in a source file.
type Message interface {
	Type() MesType
	String() string
}

type (
	Int    int64
	Float  float64
	String string
	Bool   bool
	Array  []Message
	Object map[string]Message
)

func (Int) Type() MesType    { return MesNum }
func (Float) Type() MesType  { return MesNum }
func (String) Type() MesType { return MesString }
func (Bool) Type() MesType   { return MesBool }
func (Array) Type() MesType  { return MesArray }
func (Object) Type() MesType { return MesObject }

func (m Int) String() string    { return strconv.FormatInt(int64(m), 10) }
func (m Float) String() string  { return strconv.FormatFloat(float64(m), 'g', -1, 64) }
func (m String) String() string { return string(m) }
func (m Bool) String() string   { return strconv.FormatBool(bool(m)) }

func (m Array) String() string {
	parts := make([]string, len(m))
	for i, e := range m {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func (m Object) String() string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s:%s", k, m[k])
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// Matches reports whether the literal can be bound to a parameter of type mt.
func Matches(m Message, mt MesType) bool {
	return m != nil && m.Type() == mt
}
