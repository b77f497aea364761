package checker

import (
	"github.com/hyperpolymath/betlang/internal/ast"
	"github.com/hyperpolymath/betlang/internal/cerr"
)

func spanPtr(s ast.Span) *ast.Span { return &s }

// Check implements §9's documented stub contract. It is not a full
// checker: only LiteralExpr, VarExpr, and BetExpr (via the
// triple-type-equality rule) are handled. Every other node returns
// CompileError::TypeMismatch naming the node kind, so a caller can
// tell "checked and passed" from "not actually checked" rather than
// having the stub rubber-stamp programs it has no opinion about.
func Check(expr ast.Expr, env *TypeEnv) (Type, error) {
	switch e := expr.(type) {
	case *ast.LiteralExpr:
		return literalType(e.Lit), nil

	case *ast.VarExpr:
		if t, ok := env.Lookup(string(e.Name)); ok {
			return t, nil
		}
		return Type{}, cerr.NewUndefinedVariable(string(e.Name), env.Names(), spanPtr(e.Span))

	case *ast.BetExpr:
		t0, err := Check(e.A0, env)
		if err != nil {
			return Type{}, err
		}
		t1, err := Check(e.A1, env)
		if err != nil {
			return Type{}, err
		}
		t2, err := Check(e.A2, env)
		if err != nil {
			return Type{}, err
		}
		if !Equal(t0, t1) {
			return Type{}, cerr.NewTypeMismatch(t0.String(), t1.String(), spanPtr(e.Span))
		}
		if !Equal(t0, t2) {
			return Type{}, cerr.NewTypeMismatch(t0.String(), t2.String(), spanPtr(e.Span))
		}
		return t0, nil

	default:
		return Type{}, cerr.NewTypeMismatch("a checkable expression", nodeKind(expr), spanPtr(expr.ExprSpan()))
	}
}

func literalType(lit ast.Literal) Type {
	switch lit.Kind {
	case ast.LitUnit:
		return Unit
	case ast.LitBool:
		return Bool
	case ast.LitTernary:
		return Ternary
	case ast.LitInt:
		return Int
	case ast.LitFloat:
		return Float
	case ast.LitString:
		return String
	default:
		return Unknown("literal")
	}
}

// nodeKind names an expression kind for the TypeMismatch "found" slot
// when Check has no rule for it, so the error is legible rather than a
// bare Go type name.
func nodeKind(expr ast.Expr) string {
	switch expr.(type) {
	case *ast.WeightedBetExpr:
		return "weighted-bet"
	case *ast.ConditionalBetExpr:
		return "conditional-bet"
	case *ast.IfExpr:
		return "if"
	case *ast.MatchExpr:
		return "match"
	case *ast.LetExpr:
		return "let"
	case *ast.LambdaExpr:
		return "lambda"
	case *ast.AppExpr:
		return "application"
	case *ast.TupleExpr:
		return "tuple"
	case *ast.ListExpr:
		return "list"
	case *ast.RecordExpr:
		return "record"
	case *ast.FieldExpr:
		return "field access"
	case *ast.IndexExpr:
		return "index"
	case *ast.BinOpExpr:
		return "binary operator"
	case *ast.UnOpExpr:
		return "unary operator"
	case *ast.SampleExpr:
		return "sample"
	case *ast.ObserveExpr:
		return "observe"
	case *ast.InferExpr:
		return "infer"
	case *ast.ParallelExpr:
		return "parallel"
	case *ast.DoExpr:
		return "do"
	case *ast.AnnotateExpr:
		return "type annotation"
	case *ast.HoleExpr:
		return "hole"
	case *ast.ErrorExpr:
		return "error sentinel"
	default:
		return "unknown expression"
	}
}
