package schema_test

import (
	"testing"

	"github.com/hyperpolymath/betlang/internal/ast"
	"github.com/hyperpolymath/betlang/internal/schema"
	"github.com/stretchr/testify/require"
)

func TestValidateInferParamsAcceptsValidMCMC(t *testing.T) {
	err := schema.ValidateInferParams("mcmc", map[string]any{"n": 1000})
	require.NoError(t, err)
}

func TestValidateInferParamsAcceptsCanonicalSamplesKey(t *testing.T) {
	// spec.md S5's own worked example: `infer MCMC { samples = 1000 } in ...`.
	err := schema.ValidateInferParams("mcmc", map[string]any{"samples": 1000})
	require.NoError(t, err)
}

func TestValidateInferParamsRejectsMissingRequired(t *testing.T) {
	err := schema.ValidateInferParams("mcmc", map[string]any{})
	require.Error(t, err)
}

func TestValidateInferParamsRejectsWrongType(t *testing.T) {
	err := schema.ValidateInferParams("rejection", map[string]any{"n": "a lot"})
	require.Error(t, err)
}

func TestValidateInferParamsUnknownMethodFallsBackToRejectionShape(t *testing.T) {
	err := schema.ValidateInferParams("not-a-real-method", map[string]any{"n": 10})
	require.NoError(t, err)
}

func TestValidateInferParamsHMCAcceptsOptionalStepSize(t *testing.T) {
	err := schema.ValidateInferParams("hmc", map[string]any{"n": 100, "stepSize": 0.1})
	require.NoError(t, err)
}

func TestParamsFromLiteralsExtractsGoValues(t *testing.T) {
	params := []ast.InferParam{
		{Name: "n", Value: &ast.LiteralExpr{Lit: ast.Literal{Kind: ast.LitInt, Int: 500}}},
		{Name: "label", Value: &ast.LiteralExpr{Lit: ast.Literal{Kind: ast.LitString, Str: "x"}}},
	}
	out := schema.ParamsFromLiterals(params)
	require.Equal(t, int64(500), out["n"])
	require.Equal(t, "x", out["label"])
}

func TestValidateTargetVersionAcceptsBothSpellings(t *testing.T) {
	require.NoError(t, schema.ValidateTargetVersion(""))
	require.NoError(t, schema.ValidateTargetVersion("1.2.3"))
	require.NoError(t, schema.ValidateTargetVersion("v1.2.3"))
	require.Error(t, schema.ValidateTargetVersion("not-a-version"))
}

func TestCompareTargetVersions(t *testing.T) {
	require.Equal(t, -1, schema.CompareTargetVersions("1.0.0", "1.1.0"))
	require.Equal(t, 0, schema.CompareTargetVersions("v2.0.0", "2.0.0"))
	require.Equal(t, 1, schema.CompareTargetVersions("3.0.0", "2.9.9"))
}
