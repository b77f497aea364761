// Package cerr defines CompileError, the semantic/runtime error family
// shared by the checker, evaluator, and code generator (§6/§7):
// UndefinedVariable | InvalidBet | TypeMismatch | Runtime.
package cerr

import (
	"fmt"

	"github.com/hyperpolymath/betlang/internal/ast"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

type Kind int

const (
	UndefinedVariable Kind = iota
	InvalidBet
	TypeMismatch
	Runtime
)

type CompileError struct {
	Kind     Kind
	Name     string // UndefinedVariable
	Expected string // TypeMismatch
	Found    string // TypeMismatch
	Message  string // Runtime / generic
	Span     *ast.Span
	Suggestion string // UndefinedVariable, fuzzy-ranked nearest bound name
}

func (e *CompileError) Error() string {
	switch e.Kind {
	case UndefinedVariable:
		if e.Suggestion != "" {
			return fmt.Sprintf("undefined variable %q (did you mean %q?)", e.Name, e.Suggestion)
		}
		return fmt.Sprintf("undefined variable %q", e.Name)
	case InvalidBet:
		return "invalid bet: must have exactly three alternatives"
	case TypeMismatch:
		return fmt.Sprintf("type mismatch: expected %s, found %s", e.Expected, e.Found)
	default:
		return fmt.Sprintf("runtime error: %s", e.Message)
	}
}

func NewUndefinedVariable(name string, inScope []string, span *ast.Span) *CompileError {
	return &CompileError{
		Kind: UndefinedVariable, Name: name, Span: span,
		Suggestion: nearestName(name, inScope),
	}
}

func NewInvalidBet(span *ast.Span) *CompileError {
	return &CompileError{Kind: InvalidBet, Span: span}
}

func NewTypeMismatch(expected, found string, span *ast.Span) *CompileError {
	return &CompileError{Kind: TypeMismatch, Expected: expected, Found: found, Span: span}
}

func NewRuntime(message string, span *ast.Span) *CompileError {
	return &CompileError{Kind: Runtime, Message: message, Span: span}
}

// nearestName ranks candidates by fuzzy.RankFindNormalizedFold and
// returns the closest match, or "" if nothing is close enough to be a
// useful suggestion. Grounded in the teacher's runtime/planner use of
// lithammer/fuzzysearch for "did you mean" decorator-name suggestions.
func nearestName(name string, candidates []string) string {
	ranks := fuzzy.RankFindNormalizedFold(name, candidates)
	if len(ranks) == 0 {
		return ""
	}
	best := ranks[0]
	for _, r := range ranks[1:] {
		if r.Distance < best.Distance {
			best = r
		}
	}
	// A distance close to the length of the name means "barely
	// related"; don't suggest wildly different identifiers.
	if best.Distance > len(name) {
		return ""
	}
	return best.Target
}
