package cache_test

import (
	"testing"

	"github.com/hyperpolymath/betlang/internal/ast"
	"github.com/hyperpolymath/betlang/internal/cache"
	"github.com/stretchr/testify/require"
)

func sym(s string) ast.Symbol { return ast.Symbol(s) }

func span(start, end int) ast.Span { return ast.Span{Start: start, End: end} }

func TestEmitDecodeRoundTripsLiterals(t *testing.T) {
	mod := &ast.Module{
		Items: []ast.Spanned[ast.Item]{
			{Node: ast.ExprItem{Expr: &ast.LiteralExpr{
				Lit:  ast.Literal{Kind: ast.LitInt, Int: 42},
				Span: span(0, 2),
			}}, Span: span(0, 2)},
		},
	}

	data, err := cache.EmitAST(mod)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	got, err := cache.DecodeAST(data)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)

	item, ok := got.Items[0].Node.(ast.ExprItem)
	require.True(t, ok)
	lit, ok := item.Expr.(*ast.LiteralExpr)
	require.True(t, ok)
	require.Equal(t, ast.LitInt, lit.Lit.Kind)
	require.Equal(t, int64(42), lit.Lit.Int)
}

func TestEmitDecodeRoundTripsBetAndBinOp(t *testing.T) {
	bet := &ast.BetExpr{
		A0: &ast.LiteralExpr{Lit: ast.Literal{Kind: ast.LitInt, Int: 1}},
		A1: &ast.LiteralExpr{Lit: ast.Literal{Kind: ast.LitInt, Int: 2}},
		A2: &ast.LiteralExpr{Lit: ast.Literal{Kind: ast.LitInt, Int: 3}},
		Span: span(0, 10),
	}
	bin := &ast.BinOpExpr{
		Op:   ast.OpAdd,
		L:    bet,
		R:    &ast.LiteralExpr{Lit: ast.Literal{Kind: ast.LitFloat, Float: 1.5}},
		Span: span(0, 20),
	}
	mod := &ast.Module{
		Items: []ast.Spanned[ast.Item]{
			{Node: ast.ExprItem{Expr: bin}},
		},
	}

	data, err := cache.EmitAST(mod)
	require.NoError(t, err)

	got, err := cache.DecodeAST(data)
	require.NoError(t, err)

	item := got.Items[0].Node.(ast.ExprItem)
	roundBin, ok := item.Expr.(*ast.BinOpExpr)
	require.True(t, ok)
	require.Equal(t, ast.OpAdd, roundBin.Op)

	roundBet, ok := roundBin.L.(*ast.BetExpr)
	require.True(t, ok)
	a0 := roundBet.A0.(*ast.LiteralExpr)
	require.Equal(t, int64(1), a0.Lit.Int)

	rf := roundBin.R.(*ast.LiteralExpr)
	require.Equal(t, ast.LitFloat, rf.Lit.Kind)
	require.InDelta(t, 1.5, rf.Lit.Float, 1e-9)
}

func TestEmitDecodeRoundTripsLetAndLambda(t *testing.T) {
	lambda := &ast.LambdaExpr{
		Params: []ast.Pattern{&ast.VarPattern{Name: sym("x")}},
		Body: &ast.BinOpExpr{
			Op: ast.OpMul,
			L:  &ast.VarExpr{Name: sym("x")},
			R:  &ast.VarExpr{Name: sym("x")},
		},
	}
	let := &ast.LetExpr{
		Pattern: &ast.VarPattern{Name: sym("square")},
		Value:   lambda,
		Body:    &ast.AppExpr{Fn: &ast.VarExpr{Name: sym("square")}, Args: []ast.Expr{&ast.LiteralExpr{Lit: ast.Literal{Kind: ast.LitInt, Int: 5}}}},
	}
	mod := &ast.Module{Items: []ast.Spanned[ast.Item]{{Node: ast.ExprItem{Expr: let}}}}

	data, err := cache.EmitAST(mod)
	require.NoError(t, err)
	got, err := cache.DecodeAST(data)
	require.NoError(t, err)

	item := got.Items[0].Node.(ast.ExprItem)
	roundLet, ok := item.Expr.(*ast.LetExpr)
	require.True(t, ok)
	pat := roundLet.Pattern.(*ast.VarPattern)
	require.Equal(t, sym("square"), pat.Name)

	roundLambda, ok := roundLet.Value.(*ast.LambdaExpr)
	require.True(t, ok)
	require.Len(t, roundLambda.Params, 1)

	app := roundLet.Body.(*ast.AppExpr)
	require.Len(t, app.Args, 1)
}

func TestEmitRejectsNilModule(t *testing.T) {
	_, err := cache.EmitAST(nil)
	require.Error(t, err)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := cache.DecodeAST([]byte{0xff, 0x00, 0x01})
	require.Error(t, err)
}
