// Package codegen translates betlang's AST into target source code.
// The JavaScript target (§4.5) is fully implemented: a fixed runtime
// preamble plus a recursive AST-to-JS translation. LLVM and
// virtual-machine targets are declared placeholders sharing the same
// CodeOutput surface, ready for a future implementation to fill in.
package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hyperpolymath/betlang/internal/ast"
	"github.com/hyperpolymath/betlang/internal/cerr"
)

// Target enumerates §6's CodeOutput.target alphabet.
type Target int

const (
	JavaScript Target = iota
	Llvm
	Beam
)

func (t Target) String() string {
	switch t {
	case JavaScript:
		return "javascript"
	case Llvm:
		return "llvm"
	case Beam:
		return "beam"
	default:
		return "unknown"
	}
}

// CodeOutput is §6's Result payload for codegen/codegenModule.
type CodeOutput struct {
	Target    Target
	Code      string
	SourceMap string // JSON array of (generatedLine, generatedColumn) -> Span; "" if not requested
}

// knownRuntimeCalls maps an applied function name (surface syntax) to
// the preamble symbol §4.5's App translation rule special-cases, so
// `normal(0, 1)` becomes `__bet_dist_normal(0, 1)` rather than a
// generic call to an undefined `normal`.
var knownRuntimeCalls = map[string]string{
	"normal": "__bet_dist_normal", "Normal": "__bet_dist_normal",
	"uniform": "__bet_dist_uniform", "Uniform": "__bet_dist_uniform",
	"bernoulli":   "__bet_dist_bernoulli",
	"beta":        "__bet_dist_beta",
	"exponential": "__bet_dist_exponential",
	"poisson":     "__bet_dist_poisson",
	"monte_carlo": "__bet_monte_carlo",
	"markov_chain": "__bet_markov_chain",
	"markov_step":  "__bet_markov_step",
	"uncertain":    "__BetUncertain",
	"mc_mean":      "__bet_mc_mean",
	"mc_variance":  "__bet_mc_variance",
}

// Codegen implements §6's `codegen(expr, target) -> CodeOutput`.
func Codegen(expr ast.Expr, target Target, wantSourceMap bool) (*CodeOutput, error) {
	if target != JavaScript {
		return placeholderOutput(target), nil
	}
	g := newGenerator(wantSourceMap)
	g.writeHeader()
	out := g.translate(expr)
	g.buf.WriteString(out)
	g.buf.WriteString(";\n")
	return g.output(target), nil
}

// CodegenModule implements §6's `codegenModule(module, target) ->
// CodeOutput`, translating every top-level Item per §4.5's module
// translation rules.
func CodegenModule(mod *ast.Module, target Target, wantSourceMap bool) (*CodeOutput, error) {
	if target != JavaScript {
		return placeholderOutput(target), nil
	}
	g := newGenerator(wantSourceMap)
	g.writeHeader()
	for _, item := range mod.Items {
		g.translateItem(item.Node)
	}
	return g.output(target), nil
}

func placeholderOutput(target Target) *CodeOutput {
	return &CodeOutput{
		Target: target,
		Code:   fmt.Sprintf("// %s backend: placeholder target, not yet implemented\n", target),
	}
}

type generator struct {
	buf       strings.Builder
	sm        *sourceMapBuilder
	wantSM    bool
	tempCount int
}

func newGenerator(wantSourceMap bool) *generator {
	g := &generator{wantSM: wantSourceMap}
	if wantSourceMap {
		g.sm = &sourceMapBuilder{}
	}
	return g
}

func (g *generator) writeHeader() {
	g.buf.WriteString("// Generated by betlang\n'use strict';\n\n")
	g.buf.WriteString(jsPreamble)
	g.buf.WriteString("\n")
}

func (g *generator) output(target Target) *CodeOutput {
	out := &CodeOutput{Target: target, Code: g.buf.String()}
	if g.wantSM {
		j, err := g.sm.json()
		if err == nil {
			out.SourceMap = j
		}
	}
	return out
}

func (g *generator) mark(span ast.Span) {
	if g.wantSM {
		g.sm.mark(&g.buf, span)
	}
}

func (g *generator) temp() string {
	g.tempCount++
	return fmt.Sprintf("__bet_tmp%d", g.tempCount)
}

func (g *generator) translateItem(item ast.Item) {
	switch it := item.(type) {
	case ast.LetItem:
		g.mark(ast.Span{})
		if !it.Def.IsFunction() {
			fmt.Fprintf(&g.buf, "const %s = %s;\n", sanitizeIdent(string(it.Def.Name)), g.translate(it.Def.Body))
			return
		}
		params := make([]string, len(it.Def.Params))
		for i, p := range it.Def.Params {
			params[i] = g.patternName(p)
		}
		fmt.Fprintf(&g.buf, "function %s(%s) { return %s; }\n",
			sanitizeIdent(string(it.Def.Name)), strings.Join(params, ", "), g.translate(it.Def.Body))
	case ast.TypeDefItem:
		fmt.Fprintf(&g.buf, "// type %s = %s\n", it.Def.Name, it.Def.Definition)
	case ast.ImportItem:
		parts := make([]string, len(it.Import.Path))
		for i, s := range it.Import.Path {
			parts[i] = string(s)
		}
		fmt.Fprintf(&g.buf, "// import %s\n", strings.Join(parts, "."))
	case ast.ExprItem:
		fmt.Fprintf(&g.buf, "%s;\n", g.translate(it.Expr))
	}
}

// translate implements §4.5's expression-to-JS translation table.
func (g *generator) translate(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.LiteralExpr:
		g.mark(e.Span)
		return translateLiteral(e.Lit)

	case *ast.VarExpr:
		g.mark(e.Span)
		return sanitizeIdent(string(e.Name))

	case *ast.BetExpr:
		g.mark(e.Span)
		return fmt.Sprintf("__bet_uniform(%s, %s, %s)", g.translate(e.A0), g.translate(e.A1), g.translate(e.A2))

	case *ast.WeightedBetExpr:
		g.mark(e.Span)
		vals := make([]string, 3)
		weights := make([]string, 3)
		for i, alt := range e.Alts {
			vals[i] = g.translate(alt.Value)
			weights[i] = g.translate(alt.Weight)
		}
		return fmt.Sprintf("__bet_weighted([%s], [%s])", strings.Join(vals, ", "), strings.Join(weights, ", "))

	case *ast.ConditionalBetExpr:
		g.mark(e.Span)
		return fmt.Sprintf("(%s ? %s : __bet_uniform(%s, %s, %s))",
			g.translate(e.Cond), g.translate(e.IfTrue),
			g.translate(e.IfFalse0), g.translate(e.IfFalse1), g.translate(e.IfFalse2))

	case *ast.IfExpr:
		g.mark(e.Span)
		return fmt.Sprintf("(%s ? %s : %s)", g.translate(e.Cond), g.translate(e.Then), g.translate(e.Else))

	case *ast.MatchExpr:
		return g.translateMatch(e)

	case *ast.LetExpr:
		return g.translateLet(e)

	case *ast.LambdaExpr:
		g.mark(e.Span)
		params := make([]string, len(e.Params))
		for i, p := range e.Params {
			params[i] = g.patternName(p)
		}
		return fmt.Sprintf("(function(%s) { return %s; })", strings.Join(params, ", "), g.translate(e.Body))

	case *ast.AppExpr:
		return g.translateApp(e)

	case *ast.TupleExpr:
		return g.translateArray(e.Elems, e.Span)

	case *ast.ListExpr:
		return g.translateArray(e.Elems, e.Span)

	case *ast.RecordExpr:
		g.mark(e.Span)
		parts := make([]string, len(e.Fields))
		for i, f := range e.Fields {
			parts[i] = fmt.Sprintf("%s: %s", sanitizeIdent(string(f.Name)), g.translate(f.Value))
		}
		return "{" + strings.Join(parts, ", ") + "}"

	case *ast.FieldExpr:
		g.mark(e.Span)
		return fmt.Sprintf("%s.%s", g.translate(e.Obj), sanitizeIdent(string(e.Name)))

	case *ast.IndexExpr:
		g.mark(e.Span)
		return fmt.Sprintf("%s[%s]", g.translate(e.Obj), g.translate(e.Index))

	case *ast.BinOpExpr:
		return g.translateBinOp(e)

	case *ast.UnOpExpr:
		return g.translateUnOp(e)

	case *ast.SampleExpr:
		g.mark(e.Span)
		return fmt.Sprintf("__bet_sample(%s)", g.translate(e.Dist))

	case *ast.ObserveExpr:
		g.mark(e.Span)
		return fmt.Sprintf("__bet_observe(%s, %s)", g.translate(e.Dist), g.translate(e.Value))

	case *ast.InferExpr:
		return g.translateInfer(e)

	case *ast.ParallelExpr:
		return g.translateParallel(e)

	case *ast.DoExpr:
		return g.translateDo(e)

	case *ast.AnnotateExpr:
		return g.translate(e.X)

	case *ast.HoleExpr:
		g.mark(e.Span)
		name := "?"
		if e.Name != nil {
			name = string(*e.Name)
		}
		return fmt.Sprintf("(function() { throw new Error(%s); })()", jsString("Unimplemented hole: "+name))

	case *ast.ErrorExpr:
		return fmt.Sprintf("(function() { throw new Error(%s); })()", jsString("compilation error: "+e.Message))

	default:
		return fmt.Sprintf("(function() { throw new Error(%s); })()", jsString("unhandled expression node"))
	}
}

func translateLiteral(lit ast.Literal) string {
	switch lit.Kind {
	case ast.LitUnit:
		return "null"
	case ast.LitBool:
		return strconv.FormatBool(lit.Bool)
	case ast.LitTernary:
		switch lit.Ternary {
		case ast.TTrue:
			return "1"
		case ast.TFalse:
			return "-1"
		default:
			return "0"
		}
	case ast.LitInt:
		return strconv.FormatInt(lit.Int, 10)
	case ast.LitFloat:
		s := strconv.FormatFloat(lit.Float, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return s
	case ast.LitString:
		return jsString(lit.Str)
	default:
		return "null"
	}
}

func jsString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func (g *generator) translateArray(elems []ast.Expr, span ast.Span) string {
	g.mark(span)
	parts := make([]string, len(elems))
	for i, e := range elems {
		parts[i] = g.translate(e)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (g *generator) translateApp(e *ast.AppExpr) string {
	g.mark(e.Span)
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = g.translate(a)
	}
	if name, ok := e.Fn.(*ast.VarExpr); ok {
		if runtimeName, known := knownRuntimeCalls[string(name.Name)]; known {
			if runtimeName == "__BetUncertain" {
				return fmt.Sprintf("new %s(%s)", runtimeName, strings.Join(args, ", "))
			}
			return fmt.Sprintf("%s(%s)", runtimeName, strings.Join(args, ", "))
		}
	}
	return fmt.Sprintf("%s(%s)", g.translate(e.Fn), strings.Join(args, ", "))
}

// translateBinOp implements §4.5's BinOp row, including the special
// cases for `^`, ternary `xor`, `::`, `++`, and `>>`.
func (g *generator) translateBinOp(e *ast.BinOpExpr) string {
	g.mark(e.Span)
	l := g.translate(e.L)
	r := g.translate(e.R)
	switch e.Op {
	case ast.OpPow:
		return fmt.Sprintf("Math.pow(%s, %s)", l, r)
	case ast.OpXor:
		return fmt.Sprintf("((%s) === 0 || (%s) === 0 ? 0 : (%s) !== (%s))", l, r, l, r)
	case ast.OpCons:
		return fmt.Sprintf("[%s, ...%s]", l, r)
	case ast.OpConcat, ast.OpAppend:
		return fmt.Sprintf("[...%s, ...%s]", l, r)
	case ast.OpCompose:
		arg := g.temp()
		return fmt.Sprintf("(function(%s) { return (%s)((%s)(%s)); })", arg, r, l, arg)
	case ast.OpEq:
		return fmt.Sprintf("(%s === %s)", l, r)
	case ast.OpNeq:
		return fmt.Sprintf("(%s !== %s)", l, r)
	case ast.OpAnd:
		return fmt.Sprintf("(%s && %s)", l, r)
	case ast.OpOr:
		return fmt.Sprintf("(%s || %s)", l, r)
	default:
		return fmt.Sprintf("(%s %s %s)", l, e.Op.String(), r)
	}
}

// translateUnOp preserves §4.5's documented `UnOp::Not` quirk: it
// always emits `(-x)`, correct under the ternary {1, 0, -1} encoding,
// and left as-is for real booleans because the generator has no static
// type information to distinguish the two cases at this point.
func (g *generator) translateUnOp(e *ast.UnOpExpr) string {
	g.mark(e.Span)
	x := g.translate(e.X)
	switch e.Op {
	case ast.OpNeg, ast.OpNot:
		return fmt.Sprintf("(-%s)", x)
	case ast.OpSample:
		return fmt.Sprintf("__bet_sample(%s)", x)
	default:
		return x
	}
}

func (g *generator) translateLet(e *ast.LetExpr) string {
	g.mark(e.Span)
	name := g.patternName(e.Pattern)
	body := name
	if e.Body != nil {
		body = g.translate(e.Body)
	}
	return fmt.Sprintf("(function() { const %s = %s; return %s; })()", name, g.translate(e.Value), body)
}

func (g *generator) translateDo(e *ast.DoExpr) string {
	g.mark(e.Span)
	var body strings.Builder
	for i, stmt := range e.Stmts {
		isLast := i == len(e.Stmts)-1
		switch stmt.Kind {
		case ast.DoBind, ast.DoLet:
			fmt.Fprintf(&body, "const %s = %s; ", g.patternName(stmt.Pattern), g.translate(stmt.Value))
		case ast.DoExprStmt:
			if isLast {
				fmt.Fprintf(&body, "return %s;", g.translate(stmt.Value))
			} else {
				fmt.Fprintf(&body, "%s; ", g.translate(stmt.Value))
			}
		}
	}
	return fmt.Sprintf("(function() { %s })()", body.String())
}

func (g *generator) translateMatch(e *ast.MatchExpr) string {
	g.mark(e.Span)
	scrutinee := g.temp()
	var body strings.Builder
	fmt.Fprintf(&body, "const %s = %s; ", scrutinee, g.translate(e.Scrutinee))
	for _, arm := range e.Arms {
		cond, bindings := g.translatePatternTest(arm.Pattern, scrutinee)
		fullCond := cond
		if arm.Guard != nil {
			fullCond = fmt.Sprintf("(%s) && (%s)", cond, g.translate(arm.Guard))
		}
		fmt.Fprintf(&body, "if (%s) { %sreturn %s; } ", fullCond, bindings, g.translate(arm.Body))
	}
	body.WriteString("throw new Error('Non-exhaustive match');")
	return fmt.Sprintf("(function() { %s })()", body.String())
}

// translatePatternTest returns a boolean JS condition plus a bindings
// prelude string for the given pattern tested against a named temp.
func (g *generator) translatePatternTest(pat ast.Pattern, scrutinee string) (cond string, bindings string) {
	switch p := pat.(type) {
	case *ast.WildcardPattern:
		return "true", ""
	case *ast.VarPattern:
		return "true", fmt.Sprintf("const %s = %s; ", sanitizeIdent(string(p.Name)), scrutinee)
	case *ast.LiteralPattern:
		return fmt.Sprintf("%s === %s", scrutinee, translateLiteral(p.Lit)), ""
	case *ast.TuplePattern:
		var conds []string
		var binds strings.Builder
		for i, sub := range p.Elems {
			elem := fmt.Sprintf("%s[%d]", scrutinee, i)
			c, b := g.translatePatternTest(sub, elem)
			if c != "true" {
				conds = append(conds, c)
			}
			binds.WriteString(b)
		}
		conds = append([]string{fmt.Sprintf("%s.length === %d", scrutinee, len(p.Elems))}, conds...)
		return strings.Join(conds, " && "), binds.String()
	default:
		return "false", ""
	}
}

func (g *generator) translateInfer(e *ast.InferExpr) string {
	g.mark(e.Span)
	parts := make([]string, len(e.Params))
	for i, p := range e.Params {
		parts[i] = fmt.Sprintf("%s: %s", sanitizeIdent(string(p.Name)), g.translate(p.Value))
	}
	paramsObj := "{" + strings.Join(parts, ", ") + "}"
	return fmt.Sprintf("__bet_infer(%s, %s, function() { return %s; })",
		jsString(e.Method.String()), paramsObj, g.translate(e.Model))
}

func (g *generator) translateParallel(e *ast.ParallelExpr) string {
	g.mark(e.Span)
	n := g.temp()
	i := g.temp()
	results := g.temp()
	body := fmt.Sprintf(
		"(function() { const %s = %s; const %s = []; for (let %s = 0; %s < %s; %s++) { %s.push(%s); } return %s; })()",
		n, g.translate(e.N), results, i, i, n, i, results, g.translate(e.Body), results)
	return body
}

func (g *generator) patternName(p ast.Pattern) string {
	switch pat := p.(type) {
	case *ast.VarPattern:
		return sanitizeIdent(string(pat.Name))
	case *ast.WildcardPattern:
		return "_"
	default:
		return "_"
	}
}

// NodeKindError is a convenience for callers that want to surface an
// unsupported-target request as a CompileError rather than silently
// returning a placeholder.
func NodeKindError(target Target, span ast.Span) error {
	return cerr.NewRuntime(fmt.Sprintf("codegen target %s not implemented", target), &span)
}
