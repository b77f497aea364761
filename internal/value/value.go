// Package value defines the evaluator's runtime universe: the Value
// sum type and the Environment that maps names to values. Grounded in
// the teacher's approach to its own runtime value model (a closed
// Go interface per node kind) applied here to §3's Value union.
package value

import (
	"fmt"
	"strings"

	"github.com/hyperpolymath/betlang/internal/ast"
)

// Value is the evaluator's universe: Unit | Bool | Ternary | Int |
// Float | String | List | Tuple | Closure | Bytes | Map | Set |
// Distribution | NativeFn | FileHandle | Error.
type Value interface {
	valueNode()
	String() string
}

type Unit struct{}

func (Unit) valueNode()     {}
func (Unit) String() string { return "()" }

type Bool bool

func (Bool) valueNode()      {}
func (b Bool) String() string { return fmt.Sprintf("%t", bool(b)) }

type Ternary ast.Ternary

func (Ternary) valueNode()      {}
func (t Ternary) String() string { return ast.Ternary(t).String() }

type Int int64

func (Int) valueNode()      {}
func (i Int) String() string { return fmt.Sprintf("%d", int64(i)) }

type Float float64

func (Float) valueNode()      {}
func (f Float) String() string { return fmt.Sprintf("%g", float64(f)) }

type String string

func (String) valueNode()      {}
func (s String) String() string { return string(s) }

type List struct{ Elems []Value }

func (*List) valueNode() {}
func (l *List) String() string {
	parts := make([]string, len(l.Elems))
	for i, e := range l.Elems {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

type Tuple struct{ Elems []Value }

func (*Tuple) valueNode() {}
func (t *Tuple) String() string {
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Closure captures an immutable snapshot of its defining environment
// (§3's invariant: "applying the closure does not mutate it").
type Closure struct {
	Params       []ast.Pattern
	Body         ast.Expr
	CapturedEnv  *Env
	Name         string // shown by String() when non-empty; the evaluator leaves it empty
}

func (*Closure) valueNode()      {}
func (c *Closure) String() string {
	if c.Name != "" {
		return fmt.Sprintf("<closure %s/%d>", c.Name, len(c.Params))
	}
	return fmt.Sprintf("<closure/%d>", len(c.Params))
}

type Bytes []byte

func (Bytes) valueNode()      {}
func (b Bytes) String() string { return fmt.Sprintf("<bytes:%d>", len(b)) }

// Map is an unordered name->value mapping (the runtime counterpart to
// ast.RecordExpr once evaluated, also used for plain maps).
type Map struct{ Entries map[string]Value }

func (*Map) valueNode() {}
func (m *Map) String() string {
	parts := make([]string, 0, len(m.Entries))
	for k, v := range m.Entries {
		parts = append(parts, fmt.Sprintf("%s: %s", k, v.String()))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

type Set struct{ Entries map[string]Value }

func (*Set) valueNode() {}
func (s *Set) String() string {
	parts := make([]string, 0, len(s.Entries))
	for _, v := range s.Entries {
		parts = append(parts, v.String())
	}
	return "#{" + strings.Join(parts, ", ") + "}"
}

// Distribution is a runtime value with a sampler. The evaluator only
// needs Sample (§4.3: Observe/Infer erase to their argument in the
// tree-walker); LogPDF is carried for completeness and for native
// functions that construct distributions.
type Distribution struct {
	Name    string
	Params  []Value
	Sampler func() Value
	LogPDF  func(x Value) (float64, bool)
}

func (*Distribution) valueNode() {}
func (d *Distribution) String() string {
	parts := make([]string, len(d.Params))
	for i, p := range d.Params {
		parts[i] = p.String()
	}
	return fmt.Sprintf("%s(%s)", d.Name, strings.Join(parts, ", "))
}

// NativeFn is a Go-implemented builtin callable from betlang source,
// e.g. the distribution constructors (`normal`, `uniform`, ...) and
// Monte Carlo helpers exposed to the evaluator.
type NativeFn struct {
	Name  string
	Arity int
	Fn    func(args []Value) (Value, error)
}

func (*NativeFn) valueNode()      {}
func (n *NativeFn) String() string { return fmt.Sprintf("<native %s/%d>", n.Name, n.Arity) }

// FileHandle is an opaque handle to an external collaborator resource
// (out of this spec's scope; carried only as a Value variant so the
// sum type is complete).
type FileHandle struct {
	Name string
}

func (*FileHandle) valueNode()      {}
func (f *FileHandle) String() string { return fmt.Sprintf("<file %s>", f.Name) }

// Error is a first-class runtime error value (distinct from the Go
// `error` a failed evaluation returns at the API boundary).
type Error struct {
	Message string
}

func (*Error) valueNode()      {}
func (e *Error) String() string { return fmt.Sprintf("<error: %s>", e.Message) }

// Truthy implements §4.3's truthiness table.
func Truthy(v Value) bool {
	switch x := v.(type) {
	case Unit:
		return false
	case Bool:
		return bool(x)
	case Ternary:
		return ast.Ternary(x) == ast.TTrue
	case Int:
		return x != 0
	case Float:
		return x != 0.0
	case String:
		return len(x) != 0
	case *List:
		return len(x.Elems) != 0
	case *Tuple:
		return len(x.Elems) != 0
	case *Error:
		return false
	default:
		return true
	}
}
