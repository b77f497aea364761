package checker_test

import (
	"testing"

	"github.com/hyperpolymath/betlang/internal/ast"
	"github.com/hyperpolymath/betlang/internal/cerr"
	"github.com/hyperpolymath/betlang/internal/checker"
	"github.com/stretchr/testify/require"
)

func TestCheckLiteralTypes(t *testing.T) {
	env := checker.NewTypeEnv()
	ty, err := checker.Check(&ast.LiteralExpr{Lit: ast.Literal{Kind: ast.LitInt, Int: 1}}, env)
	require.NoError(t, err)
	require.True(t, checker.Equal(checker.Int, ty))
}

func TestCheckVarLookupSucceedsAndFails(t *testing.T) {
	env := checker.NewTypeEnv().Bind("x", checker.Bool)
	ty, err := checker.Check(&ast.VarExpr{Name: "x"}, env)
	require.NoError(t, err)
	require.True(t, checker.Equal(checker.Bool, ty))

	_, err2 := checker.Check(&ast.VarExpr{Name: "y"}, env)
	require.Error(t, err2)
	ce, ok := err2.(*cerr.CompileError)
	require.True(t, ok)
	require.Equal(t, cerr.UndefinedVariable, ce.Kind)
}

func TestCheckBetRequiresMatchingAlternativeTypes(t *testing.T) {
	env := checker.NewTypeEnv()
	bet := &ast.BetExpr{
		A0: &ast.LiteralExpr{Lit: ast.Literal{Kind: ast.LitInt, Int: 1}},
		A1: &ast.LiteralExpr{Lit: ast.Literal{Kind: ast.LitInt, Int: 2}},
		A2: &ast.LiteralExpr{Lit: ast.Literal{Kind: ast.LitInt, Int: 3}},
	}
	ty, err := checker.Check(bet, env)
	require.NoError(t, err)
	require.True(t, checker.Equal(checker.Int, ty))
}

func TestCheckBetRejectsMismatchedAlternativeTypes(t *testing.T) {
	env := checker.NewTypeEnv()
	bet := &ast.BetExpr{
		A0: &ast.LiteralExpr{Lit: ast.Literal{Kind: ast.LitInt, Int: 1}},
		A1: &ast.LiteralExpr{Lit: ast.Literal{Kind: ast.LitString, Str: "two"}},
		A2: &ast.LiteralExpr{Lit: ast.Literal{Kind: ast.LitInt, Int: 3}},
	}
	_, err := checker.Check(bet, env)
	require.Error(t, err)
	ce, ok := err.(*cerr.CompileError)
	require.True(t, ok)
	require.Equal(t, cerr.TypeMismatch, ce.Kind)
}

func TestCheckUnhandledNodeIsTypeMismatchNotSilentPass(t *testing.T) {
	env := checker.NewTypeEnv()
	lambda := &ast.LambdaExpr{
		Params: []ast.Pattern{&ast.VarPattern{Name: "x"}},
		Body:   &ast.VarExpr{Name: "x"},
	}
	_, err := checker.Check(lambda, env)
	require.Error(t, err)
	ce, ok := err.(*cerr.CompileError)
	require.True(t, ok)
	require.Equal(t, cerr.TypeMismatch, ce.Kind)
	require.Contains(t, ce.Error(), "lambda")
}

func TestTypeEnvIsPersistentAcrossBinds(t *testing.T) {
	base := checker.NewTypeEnv().Bind("x", checker.Int)
	child := base.Bind("y", checker.Bool)

	_, ok := base.Lookup("y")
	require.False(t, ok, "binding in child must not leak back into parent")

	ty, ok := child.Lookup("x")
	require.True(t, ok)
	require.True(t, checker.Equal(checker.Int, ty))
}
