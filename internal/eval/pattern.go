package eval

import (
	"github.com/hyperpolymath/betlang/internal/ast"
	"github.com/hyperpolymath/betlang/internal/cerr"
	"github.com/hyperpolymath/betlang/internal/value"
)

// bindPattern binds pat against v in env unconditionally (used by
// Let/Lambda/Do, where a pattern mismatch is a runtime error rather
// than a failed match to try the next arm). Per §9, only Wildcard,
// Var, and Tuple patterns currently bind; anything else is the
// documented incompleteness made observable.
func bindPattern(env *value.Env, pat ast.Pattern, v value.Value) (*value.Env, error) {
	switch p := pat.(type) {
	case *ast.WildcardPattern:
		return env, nil
	case *ast.VarPattern:
		return env.Bind(string(p.Name), v), nil
	case *ast.TuplePattern:
		tup, ok := v.(*value.Tuple)
		if !ok || len(tup.Elems) != len(p.Elems) {
			return nil, cerr.NewRuntime("tuple pattern arity mismatch", spanPtr(p.Span))
		}
		cur := env
		for i, sub := range p.Elems {
			var err error
			cur, err = bindPattern(cur, sub, tup.Elems[i])
			if err != nil {
				return nil, err
			}
		}
		return cur, nil
	case *ast.LiteralPattern:
		return nil, cerr.NewRuntime("pattern not supported: literal pattern outside match", spanPtr(p.Span))
	default:
		return nil, cerr.NewRuntime("pattern not supported: "+patternKindName(pat), spanPtr(pat.PatSpan()))
	}
}

func patternKindName(pat ast.Pattern) string {
	switch pat.(type) {
	case *ast.ListPattern:
		return "list pattern"
	case *ast.RecordPattern:
		return "record pattern"
	default:
		return "unknown pattern"
	}
}

// matchPattern attempts to match pat against v, returning (extendedEnv,
// true) on success or (nil, false) on a clean mismatch (used by Match,
// which tries arms in order rather than failing outright).
func matchPattern(env *value.Env, pat ast.Pattern, v value.Value) (*value.Env, bool, error) {
	switch p := pat.(type) {
	case *ast.WildcardPattern:
		return env, true, nil
	case *ast.VarPattern:
		return env.Bind(string(p.Name), v), true, nil
	case *ast.LiteralPattern:
		return env, literalEquals(p.Lit, v), nil
	case *ast.TuplePattern:
		tup, ok := v.(*value.Tuple)
		if !ok || len(tup.Elems) != len(p.Elems) {
			return nil, false, nil
		}
		cur := env
		for i, sub := range p.Elems {
			next, ok, err := matchPattern(cur, sub, tup.Elems[i])
			if err != nil {
				return nil, false, err
			}
			if !ok {
				return nil, false, nil
			}
			cur = next
		}
		return cur, true, nil
	default:
		return nil, false, cerr.NewRuntime("pattern not supported: "+patternKindName(pat), spanPtr(pat.PatSpan()))
	}
}

func literalEquals(lit ast.Literal, v value.Value) bool {
	switch lit.Kind {
	case ast.LitUnit:
		_, ok := v.(value.Unit)
		return ok
	case ast.LitBool:
		b, ok := v.(value.Bool)
		return ok && bool(b) == lit.Bool
	case ast.LitTernary:
		t, ok := v.(value.Ternary)
		return ok && ast.Ternary(t) == lit.Ternary
	case ast.LitInt:
		i, ok := v.(value.Int)
		return ok && int64(i) == lit.Int
	case ast.LitFloat:
		f, ok := v.(value.Float)
		return ok && float64(f) == lit.Float
	case ast.LitString:
		s, ok := v.(value.String)
		return ok && string(s) == lit.Str
	default:
		return false
	}
}
