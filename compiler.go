// Package betlang is the root of the betlang compiler: a probabilistic
// scripting language whose `bet` expression is Go's `switch` reimagined
// as a weighted dice roll. This file assembles the pipeline stages
// (lexer, parser, checker, evaluator, codegen) into the single surface
// a CLI or embedding host needs, the same way a teacher repo's root
// package re-exports its core/ subpackages behind one entry point.
package betlang

import (
	"fmt"

	"github.com/hyperpolymath/betlang/internal/ast"
	"github.com/hyperpolymath/betlang/internal/cache"
	"github.com/hyperpolymath/betlang/internal/checker"
	"github.com/hyperpolymath/betlang/internal/codegen"
	"github.com/hyperpolymath/betlang/internal/config"
	"github.com/hyperpolymath/betlang/internal/eval"
	"github.com/hyperpolymath/betlang/internal/parser"
	"github.com/hyperpolymath/betlang/internal/schema"
	"github.com/hyperpolymath/betlang/internal/value"
)

// Re-export the pieces of the pipeline a caller assembles programs
// out of, so `import "github.com/hyperpolymath/betlang"` is enough for
// the common cases; anything more specialized still reaches into the
// internal/ subpackages directly.
type (
	Module = ast.Module
	Expr   = ast.Expr
	Value  = value.Value
	Target = codegen.Target
)

const (
	TargetJavaScript = codegen.JavaScript
	TargetLLVM       = codegen.Llvm
	TargetBEAM       = codegen.Beam
)

// Parse lexes and parses a full module (zero or more top-level items).
func Parse(src string) (*ast.Module, error) {
	mod, err := parser.Parse(src)
	if err != nil {
		return nil, err
	}
	return mod, nil
}

// ParseExpr parses a single standalone expression (REPL-style input).
// The CLI subcommands read whole modules through Parse instead.
func ParseExpr(src string) (ast.Expr, error) {
	expr, err := parser.ParseExpr(src)
	if err != nil {
		return nil, err
	}
	return expr, nil
}

// Check runs the stub type checker against expr in env. Per the
// checker's own documented scope, this only fully verifies literals,
// variable lookups, and bet's triple-type-equality rule — everything
// else returns a TypeMismatch rather than silently passing.
func Check(expr ast.Expr, env *checker.TypeEnv) (checker.Type, error) {
	return checker.Check(expr, env)
}

// Compiler bundles a randomness Source and a global environment so a
// host can run several expressions against the same prelude and PRNG
// state (e.g. the `betlang eval` REPL-lite stdin mode).
type Compiler struct {
	Evaluator *eval.Evaluator
	Config    *config.Config
}

// NewCompiler builds a Compiler whose Source is deterministic when cfg
// carries a non-empty Seed, and nondeterministic otherwise.
func NewCompiler(cfg *config.Config) *Compiler {
	if cfg == nil {
		cfg = config.Default()
	}
	var src *eval.Source
	if cfg.Seed != "" {
		src = eval.NewSeededSource(cfg.Seed)
	} else {
		src = eval.NewSource()
	}
	return &Compiler{Evaluator: eval.New(src), Config: cfg}
}

// Eval evaluates expr against the compiler's global prelude environment.
func (c *Compiler) Eval(expr ast.Expr) (value.Value, error) {
	return c.Evaluator.Eval(expr, c.Evaluator.GlobalEnv())
}

// EvalIn evaluates expr in a caller-supplied environment (typically a
// child of GlobalEnv with extra bindings), letting a host thread
// top-level let-bindings from a Module into subsequent expressions.
func (c *Compiler) EvalIn(expr ast.Expr, env *value.Env) (value.Value, error) {
	return c.Evaluator.Eval(expr, env)
}

// GlobalEnv exposes the compiler's prelude-bound environment so a host
// can bind a module's top-level lets into a child before evaluating
// its trailing expression items.
func (c *Compiler) GlobalEnv() *value.Env {
	return c.Evaluator.GlobalEnv()
}

// EvalModule threads a module's Let items into successive child
// environments (so later items see earlier bindings) and evaluates
// every ExprItem in turn, returning the last expression item's value.
// A module with no ExprItem evaluates to value.Unit{}.
func (c *Compiler) EvalModule(mod *ast.Module) (value.Value, error) {
	env := c.GlobalEnv()
	var last value.Value = value.Unit{}
	for _, spanned := range mod.Items {
		switch it := spanned.Node.(type) {
		case ast.LetItem:
			def := it.Def
			body := def.Body
			if def.IsFunction() {
				body = wrapParams(def.Params, body)
			}
			if def.IsRec {
				child, resolve := env.BindRec(string(def.Name))
				v, err := c.Evaluator.Eval(body, child)
				if err != nil {
					return nil, err
				}
				resolve(v)
				env = child
			} else {
				v, err := c.Evaluator.Eval(body, env)
				if err != nil {
					return nil, err
				}
				env = env.Bind(string(def.Name), v)
			}
		case ast.ExprItem:
			v, err := c.Evaluator.Eval(it.Expr, env)
			if err != nil {
				return nil, err
			}
			last = v
		case ast.TypeDefItem, ast.ImportItem:
			// Type definitions are uninterpreted by the stub checker;
			// imports are not resolved by this compiler (no module
			// loader is in scope). Both are no-ops at eval time.
		}
	}
	return last, nil
}

// wrapParams desugars `let f x y = body` into nested single-parameter
// lambdas. The parser keeps a LetItem's Params separate from its Body,
// so EvalModule wraps every function-style LetItem here.
func wrapParams(params []ast.Pattern, body ast.Expr) ast.Expr {
	for i := len(params) - 1; i >= 0; i-- {
		body = &ast.LambdaExpr{Params: []ast.Pattern{params[i]}, Body: body}
	}
	return body
}

// Codegen translates a single expression to target's source text.
func Codegen(expr ast.Expr, target Target, wantSourceMap bool) (*codegen.CodeOutput, error) {
	return codegen.Codegen(expr, target, wantSourceMap)
}

// CodegenModule translates a full module to target's source text.
func CodegenModule(mod *ast.Module, target Target, wantSourceMap bool) (*codegen.CodeOutput, error) {
	return codegen.CodegenModule(mod, target, wantSourceMap)
}

// LoadConfig loads betlang.yaml from path, or Default() if absent.
func LoadConfig(path string) (*config.Config, error) {
	return config.LoadConfig(path)
}

// NewSeededSource derives a reproducible randomness Source from seed,
// re-exported so a host doesn't need its own import of internal/eval
// just to pre-seed a Compiler.
func NewSeededSource(seed string) *eval.Source {
	return eval.NewSeededSource(seed)
}

// ValidateInferParams checks an `infer METHOD { ... }` parameter set
// against its method's JSON Schema before Eval or Codegen sees it.
func ValidateInferParams(method string, params map[string]any) error {
	return schema.ValidateInferParams(method, params)
}

// EmitAST serializes a parsed Module to the canonical-CBOR `.betc`
// debugging artifact.
func EmitAST(mod *ast.Module) ([]byte, error) {
	return cache.EmitAST(mod)
}

// DecodeAST reconstitutes a Module from a `.betc` artifact.
func DecodeAST(data []byte) (*ast.Module, error) {
	return cache.DecodeAST(data)
}

// CompileToTarget is a convenience wrapper for the common CLI path:
// parse, (stub-)check every top-level expression item, then generate
// code for target. Check failures are ignored and do not stop codegen
// — the stub checker's documented incompleteness (§9) means a
// TypeMismatch here is not fatal — unless strict is set.
func CompileToTarget(src string, target Target, strict bool) (*codegen.CodeOutput, error) {
	mod, err := Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	env := checker.NewTypeEnv()
	for _, spanned := range mod.Items {
		exprItem, ok := spanned.Node.(ast.ExprItem)
		if !ok {
			continue
		}
		if _, cerr := Check(exprItem.Expr, env); cerr != nil && strict {
			return nil, fmt.Errorf("check: %w", cerr)
		}
		if err := validateInferExprs(exprItem.Expr); err != nil {
			return nil, fmt.Errorf("infer params: %w", err)
		}
	}
	return CodegenModule(mod, target, false)
}

// validateInferExprs walks expr for every nested InferExpr and checks
// its parameters against the method's schema before codegen runs, so
// an `infer METHOD { ... }` with a malformed parameter set is rejected
// up front rather than producing JS that fails at runtime. Mirrors the
// shape of the type switches in internal/eval and internal/codegen,
// scaled down to recursion rather than translation.
func validateInferExprs(expr ast.Expr) error {
	if expr == nil {
		return nil
	}
	switch e := expr.(type) {
	case *ast.InferExpr:
		params := schema.ParamsFromLiterals(e.Params)
		if err := schema.ValidateInferParams(e.Method.String(), params); err != nil {
			return err
		}
		return validateInferExprs(e.Model)
	case *ast.BetExpr:
		return firstErr(validateInferExprs(e.A0), validateInferExprs(e.A1), validateInferExprs(e.A2))
	case *ast.WeightedBetExpr:
		for _, alt := range e.Alts {
			if err := firstErr(validateInferExprs(alt.Value), validateInferExprs(alt.Weight)); err != nil {
				return err
			}
		}
		return nil
	case *ast.ConditionalBetExpr:
		return firstErr(validateInferExprs(e.Cond), validateInferExprs(e.IfTrue),
			validateInferExprs(e.IfFalse0), validateInferExprs(e.IfFalse1), validateInferExprs(e.IfFalse2))
	case *ast.IfExpr:
		return firstErr(validateInferExprs(e.Cond), validateInferExprs(e.Then), validateInferExprs(e.Else))
	case *ast.MatchExpr:
		if err := validateInferExprs(e.Scrutinee); err != nil {
			return err
		}
		for _, arm := range e.Arms {
			if err := firstErr(validateInferExprs(arm.Guard), validateInferExprs(arm.Body)); err != nil {
				return err
			}
		}
		return nil
	case *ast.LetExpr:
		return firstErr(validateInferExprs(e.Value), validateInferExprs(e.Body))
	case *ast.LambdaExpr:
		return validateInferExprs(e.Body)
	case *ast.AppExpr:
		if err := validateInferExprs(e.Fn); err != nil {
			return err
		}
		for _, a := range e.Args {
			if err := validateInferExprs(a); err != nil {
				return err
			}
		}
		return nil
	case *ast.TupleExpr:
		for _, el := range e.Elems {
			if err := validateInferExprs(el); err != nil {
				return err
			}
		}
		return nil
	case *ast.ListExpr:
		for _, el := range e.Elems {
			if err := validateInferExprs(el); err != nil {
				return err
			}
		}
		return nil
	case *ast.RecordExpr:
		for _, f := range e.Fields {
			if err := validateInferExprs(f.Value); err != nil {
				return err
			}
		}
		return nil
	case *ast.FieldExpr:
		return validateInferExprs(e.Obj)
	case *ast.IndexExpr:
		return firstErr(validateInferExprs(e.Obj), validateInferExprs(e.Index))
	case *ast.BinOpExpr:
		return firstErr(validateInferExprs(e.L), validateInferExprs(e.R))
	case *ast.UnOpExpr:
		return validateInferExprs(e.X)
	case *ast.SampleExpr:
		return validateInferExprs(e.Dist)
	case *ast.ObserveExpr:
		return firstErr(validateInferExprs(e.Dist), validateInferExprs(e.Value))
	case *ast.ParallelExpr:
		return firstErr(validateInferExprs(e.N), validateInferExprs(e.Body))
	case *ast.DoExpr:
		for _, stmt := range e.Stmts {
			if err := validateInferExprs(stmt.Value); err != nil {
				return err
			}
		}
		return nil
	case *ast.AnnotateExpr:
		return validateInferExprs(e.X)
	default:
		// LiteralExpr, VarExpr, HoleExpr, ErrorExpr carry no sub-expressions.
		return nil
	}
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
