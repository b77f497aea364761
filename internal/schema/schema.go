// Package schema validates `infer METHOD { k = v, ... }` parameter
// objects against a per-method JSON Schema before codegen/eval, the
// same validate-before-use pattern as the teacher's
// core/types.Validator, scaled down to betlang's small, fixed set of
// inference methods.
package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hyperpolymath/betlang/internal/ast"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/mod/semver"
)

// methodSchemas gives each inference method its own required-parameter
// shape: MCMC/rejection/importance all need an integer sample count.
// `samples` is the canonical key (spec.md S5: `infer MCMC { samples =
// 1000 } in ...`); `n` is accepted as a secondary alias, matching the
// preamble's __bet_infer(method, params, ...) fallback chain (§4.5).
// Either key alone satisfies the requirement.
var methodSchemas = map[string]string{
	"mcmc": `{
		"type": "object",
		"properties": {
			"samples": { "type": "integer", "minimum": 1 },
			"n": { "type": "integer", "minimum": 1 }
		},
		"anyOf": [ { "required": ["samples"] }, { "required": ["n"] } ]
	}`,
	"rejection": `{
		"type": "object",
		"properties": {
			"samples": { "type": "integer", "minimum": 1 },
			"n": { "type": "integer", "minimum": 1 }
		},
		"anyOf": [ { "required": ["samples"] }, { "required": ["n"] } ]
	}`,
	"importance": `{
		"type": "object",
		"properties": {
			"samples": { "type": "integer", "minimum": 1 },
			"n": { "type": "integer", "minimum": 1 }
		},
		"anyOf": [ { "required": ["samples"] }, { "required": ["n"] } ]
	}`,
	"hmc": `{
		"type": "object",
		"properties": {
			"samples": { "type": "integer", "minimum": 1 },
			"n": { "type": "integer", "minimum": 1 },
			"stepSize": { "type": "number", "exclusiveMinimum": 0 }
		},
		"anyOf": [ { "required": ["samples"] }, { "required": ["n"] } ]
	}`,
	"smc": `{
		"type": "object",
		"properties": {
			"samples": { "type": "integer", "minimum": 1 },
			"n": { "type": "integer", "minimum": 1 },
			"particles": { "type": "integer", "minimum": 1 }
		},
		"anyOf": [ { "required": ["samples"] }, { "required": ["n"] } ]
	}`,
	"vi": `{
		"type": "object",
		"properties": {
			"samples": { "type": "integer", "minimum": 1 },
			"n": { "type": "integer", "minimum": 1 },
			"iterations": { "type": "integer", "minimum": 1 }
		},
		"anyOf": [ { "required": ["samples"] }, { "required": ["n"] } ]
	}`,
}

// ValidateInferParams implements the SPEC_FULL.md Compiler API
// addition: it evaluates nothing (params are already Go values by the
// time a caller has them, typically from literal expressions), and
// instead checks their shape against the method's schema before the
// evaluator or code generator ever sees them.
func ValidateInferParams(method string, params map[string]any) error {
	schemaSrc, ok := methodSchemas[strings.ToLower(method)]
	if !ok {
		// §4.5: unknown methods fall back to rejection at codegen time;
		// validation mirrors that by accepting the rejection shape.
		schemaSrc = methodSchemas["rejection"]
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	const url = "schema://infer-params.json"
	if err := compiler.AddResource(url, strings.NewReader(schemaSrc)); err != nil {
		return fmt.Errorf("infer schema resource: %w", err)
	}
	validator, err := compiler.Compile(url)
	if err != nil {
		return fmt.Errorf("infer schema compile: %w", err)
	}

	raw, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("infer params marshal: %w", err)
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("infer params decode: %w", err)
	}
	if err := validator.Validate(decoded); err != nil {
		return fmt.Errorf("infer params for method %q: %w", method, err)
	}
	return nil
}

// ParamsFromLiterals extracts a plain Go map from an InferExpr's
// parsed parameter list, for callers (the CLI, tests) that have an
// ast.InferExpr and want to validate before eval/codegen. Only
// LiteralExpr values are supported — anything else is a value the
// schema can't see before evaluation, so it is passed through as a
// string placeholder rather than rejected outright.
func ParamsFromLiterals(params []ast.InferParam) map[string]any {
	out := make(map[string]any, len(params))
	for _, p := range params {
		lit, ok := p.Value.(*ast.LiteralExpr)
		if !ok {
			out[string(p.Name)] = fmt.Sprintf("<%T>", p.Value)
			continue
		}
		switch lit.Lit.Kind {
		case ast.LitInt:
			out[string(p.Name)] = lit.Lit.Int
		case ast.LitFloat:
			out[string(p.Name)] = lit.Lit.Float
		case ast.LitString:
			out[string(p.Name)] = lit.Lit.Str
		case ast.LitBool:
			out[string(p.Name)] = lit.Lit.Bool
		default:
			out[string(p.Name)] = nil
		}
	}
	return out
}

// ValidateTargetVersion checks an optional `--target-version` CLI flag
// (an ECMAScript baseline hint embedded as a comment in generated JS)
// against semver syntax, accepting both "1.2.3" and "v1.2.3" spellings.
func ValidateTargetVersion(v string) error {
	if v == "" {
		return nil
	}
	candidate := v
	if !strings.HasPrefix(candidate, "v") {
		candidate = "v" + candidate
	}
	if !semver.IsValid(candidate) {
		return fmt.Errorf("invalid target version %q: must be semver (e.g. 1.2.3)", v)
	}
	return nil
}

// CompareTargetVersions reports -1/0/1 per semver.Compare, accepting
// either spelling convention as ValidateTargetVersion does.
func CompareTargetVersions(a, b string) int {
	na, nb := a, b
	if !strings.HasPrefix(na, "v") {
		na = "v" + na
	}
	if !strings.HasPrefix(nb, "v") {
		nb = "v" + nb
	}
	return semver.Compare(na, nb)
}
