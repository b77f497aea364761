package eval_test

import (
	"testing"

	"github.com/hyperpolymath/betlang/internal/eval"
	"github.com/hyperpolymath/betlang/internal/parser"
	"github.com/hyperpolymath/betlang/internal/value"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, src string) value.Value {
	t.Helper()
	expr, perr := parser.ParseExpr(src)
	require.Nil(t, perr)
	ev := eval.New(eval.NewSeededSource("test-seed"))
	v, err := ev.Eval(expr, ev.GlobalEnv())
	require.NoError(t, err)
	return v
}

func TestEvalArithmetic(t *testing.T) {
	v := run(t, "1 + 2 * 3")
	require.Equal(t, value.Int(7), v)
}

func TestEvalFloatPromotion(t *testing.T) {
	v := run(t, "1 + 2.5")
	require.Equal(t, value.Float(3.5), v)
}

func TestEvalDivisionByZeroErrors(t *testing.T) {
	expr, perr := parser.ParseExpr("1 / 0")
	require.Nil(t, perr)
	ev := eval.New(eval.NewSeededSource("s"))
	_, err := ev.Eval(expr, ev.GlobalEnv())
	require.Error(t, err)
}

func TestEvalLetAndLambdaApplication(t *testing.T) {
	v := run(t, "let sq = \\x -> x * x in sq 5")
	require.Equal(t, value.Int(25), v)
}

func TestEvalIfBranches(t *testing.T) {
	require.Equal(t, value.Int(1), run(t, "if true then 1 else 2"))
	require.Equal(t, value.Int(2), run(t, "if false then 1 else 2"))
}

func TestEvalBetDrawsOneOfThreeAlternatives(t *testing.T) {
	v := run(t, "bet { 1, 2, 3 }")
	i, ok := v.(value.Int)
	require.True(t, ok)
	require.Contains(t, []int64{1, 2, 3}, int64(i))
}

func TestEvalBetIsDeterministicForSameSeed(t *testing.T) {
	expr, perr := parser.ParseExpr("bet { 1, 2, 3 }")
	require.Nil(t, perr)

	ev1 := eval.New(eval.NewSeededSource("fixed"))
	v1, err := ev1.Eval(expr, ev1.GlobalEnv())
	require.NoError(t, err)

	ev2 := eval.New(eval.NewSeededSource("fixed"))
	v2, err := ev2.Eval(expr, ev2.GlobalEnv())
	require.NoError(t, err)

	require.Equal(t, v1, v2)
}

func TestEvalUnOpNegAndNot(t *testing.T) {
	require.Equal(t, value.Int(-5), run(t, "-5"))
	require.Equal(t, value.Bool(false), run(t, "not true"))
}

func TestEvalListConcatAndCons(t *testing.T) {
	v := run(t, "1 :: [2, 3]")
	lst, ok := v.(*value.List)
	require.True(t, ok)
	require.Len(t, lst.Elems, 3)

	v2 := run(t, "[1, 2] ++ [3, 4]")
	lst2, ok := v2.(*value.List)
	require.True(t, ok)
	require.Len(t, lst2.Elems, 4)
}

func TestEvalTuplePatternBinding(t *testing.T) {
	v := run(t, "let (a, b) = (1, 2) in a + b")
	require.Equal(t, value.Int(3), v)
}

func TestEvalMatchLiteralArms(t *testing.T) {
	v := run(t, `match 2 { 1 -> "one"; 2 -> "two"; _ -> "other" }`)
	require.Equal(t, value.String("two"), v)
}

func TestEvalInferErasesToModelWithValidParams(t *testing.T) {
	v := run(t, "infer MCMC { samples = 1000 } in 1 + 1")
	require.Equal(t, value.Int(2), v)
}

func TestEvalInferRejectsMissingSampleCount(t *testing.T) {
	expr, perr := parser.ParseExpr("infer MCMC { burnIn = 10 } in 1")
	require.Nil(t, perr)
	ev := eval.New(eval.NewSeededSource("s"))
	_, err := ev.Eval(expr, ev.GlobalEnv())
	require.Error(t, err)
}

func TestEvalUndefinedVariableErrors(t *testing.T) {
	expr, perr := parser.ParseExpr("nonexistent_name")
	require.Nil(t, perr)
	ev := eval.New(eval.NewSeededSource("s"))
	_, err := ev.Eval(expr, ev.GlobalEnv())
	require.Error(t, err)
}
