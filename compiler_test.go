package betlang_test

import (
	"testing"

	betlang "github.com/hyperpolymath/betlang"
	"github.com/hyperpolymath/betlang/internal/config"
	"github.com/hyperpolymath/betlang/internal/value"
	"github.com/stretchr/testify/require"
)

func TestCompilerEvalModuleThreadsLetBindings(t *testing.T) {
	mod, err := betlang.Parse("let x = 10\nlet y = x + 5\ny * 2")
	require.NoError(t, err)

	comp := betlang.NewCompiler(config.Default())
	v, err := comp.EvalModule(mod)
	require.NoError(t, err)
	require.Equal(t, value.Int(30), v)
}

func TestCompilerEvalModuleWithNoExprItemYieldsUnit(t *testing.T) {
	mod, err := betlang.Parse("let x = 1")
	require.NoError(t, err)

	comp := betlang.NewCompiler(config.Default())
	v, err := comp.EvalModule(mod)
	require.NoError(t, err)
	require.Equal(t, value.Unit{}, v)
}

func TestCompilerIsDeterministicUnderSameSeed(t *testing.T) {
	expr, err := betlang.ParseExpr("bet { 1, 2, 3 }")
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Seed = "reproducible"

	c1 := betlang.NewCompiler(cfg)
	v1, err := c1.Eval(expr)
	require.NoError(t, err)

	c2 := betlang.NewCompiler(cfg)
	v2, err := c2.Eval(expr)
	require.NoError(t, err)

	require.Equal(t, v1, v2)
}

func TestCompileToTargetGeneratesJavaScript(t *testing.T) {
	out, err := betlang.CompileToTarget("1 + 2", betlang.TargetJavaScript, false)
	require.NoError(t, err)
	require.Contains(t, out.Code, "__bet_uniform")
}

func TestCompileToTargetAcceptsSpecSamplesExample(t *testing.T) {
	out, err := betlang.CompileToTarget("infer MCMC { samples = 1000 } in 1", betlang.TargetJavaScript, false)
	require.NoError(t, err)
	require.Contains(t, out.Code, "samples: 1000")
}

func TestCompileToTargetRejectsMalformedInferParams(t *testing.T) {
	_, err := betlang.CompileToTarget("infer MCMC { burnIn = 10 } in 1", betlang.TargetJavaScript, false)
	require.Error(t, err)
}

func TestEmitDecodeASTRoundTripsThroughCompilerAPI(t *testing.T) {
	mod, err := betlang.Parse("let x = 1\nx + 1")
	require.NoError(t, err)

	data, err := betlang.EmitAST(mod)
	require.NoError(t, err)

	decoded, err := betlang.DecodeAST(data)
	require.NoError(t, err)
	require.Len(t, decoded.Items, 2)
}
