// Package checker implements the stub type checker documented in §9:
// literals, variable lookup, and the triple-type-equality rule for
// Bet. Anything else is a CompileError::TypeMismatch rather than a
// silent pass, so the gap between "checked" and "unchecked" stays
// visible instead of letting ill-typed programs look approved.
package checker

import (
	"fmt"
	"strings"
)

// Kind enumerates the small set of types the stub contract can name.
type Kind int

const (
	KUnit Kind = iota
	KBool
	KTernary
	KInt
	KFloat
	KString
	KList
	KTuple
	KFunc
	KUnknown
)

// Type is a tree shape so List/Tuple/Func can carry element types,
// even though the stub checker only ever compares whole types for
// equality (no structural unification beyond that).
type Type struct {
	Kind  Kind
	Elems []Type // List: single element type; Tuple: one per component
	Name  string // surfaced in error messages for Unknown/opaque types
}

var (
	Unit    = Type{Kind: KUnit}
	Bool    = Type{Kind: KBool}
	Ternary = Type{Kind: KTernary}
	Int     = Type{Kind: KInt}
	Float   = Type{Kind: KFloat}
	String  = Type{Kind: KString}
)

func List(elem Type) Type  { return Type{Kind: KList, Elems: []Type{elem}} }
func Tuple(elems ...Type) Type { return Type{Kind: KTuple, Elems: elems} }
func Unknown(name string) Type { return Type{Kind: KUnknown, Name: name} }

// Equal is whole-type equality, the only comparison the triple-type
// rule for Bet needs.
func Equal(a, b Type) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KList:
		return Equal(a.Elems[0], b.Elems[0])
	case KTuple:
		if len(a.Elems) != len(b.Elems) {
			return false
		}
		for i := range a.Elems {
			if !Equal(a.Elems[i], b.Elems[i]) {
				return false
			}
		}
		return true
	case KUnknown:
		return a.Name == b.Name
	default:
		return true
	}
}

// String formats a Type the way error messages quote it, e.g.
// "int", "list[float]", "(bool, string)".
func (t Type) String() string {
	switch t.Kind {
	case KUnit:
		return "unit"
	case KBool:
		return "bool"
	case KTernary:
		return "ternary"
	case KInt:
		return "int"
	case KFloat:
		return "float"
	case KString:
		return "string"
	case KList:
		return fmt.Sprintf("list[%s]", t.Elems[0])
	case KTuple:
		parts := make([]string, len(t.Elems))
		for i, e := range t.Elems {
			parts[i] = e.String()
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case KFunc:
		return "function"
	default:
		if t.Name != "" {
			return t.Name
		}
		return "unknown"
	}
}
