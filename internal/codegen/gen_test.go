package codegen_test

import (
	"strings"
	"testing"

	"github.com/hyperpolymath/betlang/internal/codegen"
	"github.com/hyperpolymath/betlang/internal/parser"
	"github.com/stretchr/testify/require"
)

func generate(t *testing.T, src string) string {
	t.Helper()
	expr, perr := parser.ParseExpr(src)
	require.Nil(t, perr)
	out, err := codegen.Codegen(expr, codegen.JavaScript, false)
	require.NoError(t, err)
	return out.Code
}

func TestCodegenLiteralAndBinOp(t *testing.T) {
	code := generate(t, "1 + 2")
	require.Contains(t, code, "1 + 2")
}

func TestCodegenBetTranslatesToRuntimeCall(t *testing.T) {
	code := generate(t, "bet { 1, 2, 3 }")
	require.Contains(t, code, "__bet_uniform(1, 2, 3)")
}

func TestCodegenUnOpNotPreservesDocumentedQuirk(t *testing.T) {
	negCode := generate(t, "-5")
	require.Contains(t, negCode, "(-5)")
	notCode := generate(t, "not true")
	require.Contains(t, notCode, "(-true)")
}

func TestCodegenKnownRuntimeCallDispatch(t *testing.T) {
	code := generate(t, "normal 0 1")
	require.Contains(t, code, "__bet_dist_normal(0, 1)")
}

func TestCodegenIdentifierSanitization(t *testing.T) {
	code := generate(t, "let class = 1 in class")
	require.Contains(t, code, "_class")
}

func TestCodegenModuleWritesPreambleOnce(t *testing.T) {
	mod, perr := parser.Parse("let x = 1\nx + 1")
	require.Nil(t, perr)
	out, err := codegen.CodegenModule(mod, codegen.JavaScript, false)
	require.NoError(t, err)
	require.Contains(t, out.Code, "const x = 1;")
	require.Contains(t, out.Code, "__bet_monte_carlo")
	require.Equal(t, 1, strings.Count(out.Code, "function __bet_monte_carlo("))
}

func TestCodegenPlaceholderTargetsDoNotPanic(t *testing.T) {
	expr, perr := parser.ParseExpr("1")
	require.Nil(t, perr)
	out, err := codegen.Codegen(expr, codegen.Llvm, false)
	require.NoError(t, err)
	require.Contains(t, out.Code, "placeholder")
}

func TestCodegenInferTranslatesSamplesParam(t *testing.T) {
	code := generate(t, "infer MCMC { samples = 1000 } in 1")
	require.Contains(t, code, `__bet_infer("mcmc", {samples: 1000}, function() { return 1; })`)
}

func TestCodegenSourceMapProducesEntries(t *testing.T) {
	expr, perr := parser.ParseExpr("1 + 2")
	require.Nil(t, perr)
	out, err := codegen.Codegen(expr, codegen.JavaScript, true)
	require.NoError(t, err)
	require.NotEmpty(t, out.SourceMap)
}
