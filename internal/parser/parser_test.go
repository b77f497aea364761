package parser_test

import (
	"testing"

	"github.com/hyperpolymath/betlang/internal/ast"
	"github.com/hyperpolymath/betlang/internal/parser"
	"github.com/stretchr/testify/require"
)

func TestParseExprLiterals(t *testing.T) {
	expr, err := parser.ParseExpr("42")
	require.Nil(t, err)
	lit, ok := expr.(*ast.LiteralExpr)
	require.True(t, ok)
	require.Equal(t, ast.LitInt, lit.Lit.Kind)
	require.Equal(t, int64(42), lit.Lit.Int)
}

func TestParseExprBetRequiresThreeAlternatives(t *testing.T) {
	expr, err := parser.ParseExpr("bet { 1, 2, 3 }")
	require.Nil(t, err)
	bet, ok := expr.(*ast.BetExpr)
	require.True(t, ok)
	require.IsType(t, &ast.LiteralExpr{}, bet.A0)
	require.IsType(t, &ast.LiteralExpr{}, bet.A1)
	require.IsType(t, &ast.LiteralExpr{}, bet.A2)

	_, err2 := parser.ParseExpr("bet { 1, 2, 3, 4 }")
	require.NotNil(t, err2)
}

func TestParseExprWeightedBet(t *testing.T) {
	expr, err := parser.ParseExpr("bet { 1 @ 0.2, 2 @ 0.3, 3 @ 0.5 }")
	require.Nil(t, err)
	wb, ok := expr.(*ast.WeightedBetExpr)
	require.True(t, ok)
	require.Len(t, wb.Alts, 3)
}

func TestParseExprIfThenElse(t *testing.T) {
	expr, err := parser.ParseExpr("if true then 1 else 2")
	require.Nil(t, err)
	ife, ok := expr.(*ast.IfExpr)
	require.True(t, ok)
	require.IsType(t, &ast.LiteralExpr{}, ife.Cond)
}

func TestParseExprLambdaAndApp(t *testing.T) {
	expr, err := parser.ParseExpr("(\\x -> x + 1) 5")
	require.Nil(t, err)
	app, ok := expr.(*ast.AppExpr)
	require.True(t, ok)
	require.Len(t, app.Args, 1)
	_, ok = app.Fn.(*ast.LambdaExpr)
	require.True(t, ok)
}

func TestParseExprLetIn(t *testing.T) {
	expr, err := parser.ParseExpr("let x = 1 in x + 1")
	require.Nil(t, err)
	let, ok := expr.(*ast.LetExpr)
	require.True(t, ok)
	require.NotNil(t, let.Body)
}

func TestParseModuleWithLetItems(t *testing.T) {
	mod, err := parser.Parse("let x = 1\nlet y = x + 1\ny")
	require.Nil(t, err)
	require.Len(t, mod.Items, 3)
}

func TestParseBinOpPrecedence(t *testing.T) {
	expr, err := parser.ParseExpr("1 + 2 * 3")
	require.Nil(t, err)
	bin, ok := expr.(*ast.BinOpExpr)
	require.True(t, ok)
	require.Equal(t, ast.OpAdd, bin.Op)
	rhs, ok := bin.R.(*ast.BinOpExpr)
	require.True(t, ok)
	require.Equal(t, ast.OpMul, rhs.Op)
}

func TestParseMatchExpr(t *testing.T) {
	expr, err := parser.ParseExpr(`match x { 1 -> "one"; _ -> "other" }`)
	require.Nil(t, err)
	m, ok := expr.(*ast.MatchExpr)
	require.True(t, ok)
	require.Len(t, m.Arms, 2)
}

func TestParseUnexpectedTokenError(t *testing.T) {
	_, err := parser.ParseExpr("let x =")
	require.NotNil(t, err)
}
