// Package eval is betlang's tree-walking evaluator: AST + environment
// -> runtime Value, with the probabilistic semantics from §4.3 (bets,
// weighted bets, conditional bets) threaded through an ambient random
// source. Sample/Observe/Infer are accepted but erased per §4.3 — the
// full probabilistic runtime (three inference engines, Monte Carlo,
// uncertainty propagation) lives in the JS code generator (§4.5); this
// package carries only enough of it (prelude.go, dist.go) to make
// Sample meaningful against the distribution constructors a program
// can call, keeping the evaluator and the JS backend observably
// consistent for simple deterministic-shaped programs.
package eval

import (
	"log/slog"
	"os"

	"github.com/hyperpolymath/betlang/internal/ast"
	"github.com/hyperpolymath/betlang/internal/cerr"
	"github.com/hyperpolymath/betlang/internal/schema"
	"github.com/hyperpolymath/betlang/internal/value"
)

type Evaluator struct {
	Source *Source
	Logger *slog.Logger
}

func New(src *Source) *Evaluator {
	if src == nil {
		src = NewSource()
	}
	level := slog.LevelInfo
	if os.Getenv("BETLANG_DEBUG") != "" {
		level = slog.LevelDebug
	}
	return &Evaluator{
		Source: src,
		Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})),
	}
}

// GlobalEnv returns a fresh prelude environment (distribution
// constructors and Monte Carlo helpers; see prelude.go).
func (ev *Evaluator) GlobalEnv() *value.Env {
	return buildPrelude(ev)
}

func spanPtr(s ast.Span) *ast.Span { return &s }

// Eval evaluates expr in env, per §4.3's contracts.
func (ev *Evaluator) Eval(expr ast.Expr, env *value.Env) (value.Value, error) {
	switch e := expr.(type) {
	case *ast.LiteralExpr:
		return ev.evalLiteral(e.Lit), nil

	case *ast.VarExpr:
		if v, ok := env.Lookup(string(e.Name)); ok {
			return v, nil
		}
		return nil, cerr.NewUndefinedVariable(string(e.Name), env.Names(), spanPtr(e.Span))

	case *ast.BetExpr:
		return ev.evalBet(e, env)

	case *ast.WeightedBetExpr:
		return ev.evalWeightedBet(e, env)

	case *ast.ConditionalBetExpr:
		return ev.evalConditionalBet(e, env)

	case *ast.IfExpr:
		cond, err := ev.Eval(e.Cond, env)
		if err != nil {
			return nil, err
		}
		if value.Truthy(cond) {
			return ev.Eval(e.Then, env)
		}
		return ev.Eval(e.Else, env)

	case *ast.MatchExpr:
		return ev.evalMatch(e, env)

	case *ast.LetExpr:
		return ev.evalLet(e, env)

	case *ast.LambdaExpr:
		return &value.Closure{Params: e.Params, Body: e.Body, CapturedEnv: env}, nil

	case *ast.AppExpr:
		return ev.evalApp(e, env)

	case *ast.TupleExpr:
		elems, err := ev.evalAll(e.Elems, env)
		if err != nil {
			return nil, err
		}
		return &value.Tuple{Elems: elems}, nil

	case *ast.ListExpr:
		elems, err := ev.evalAll(e.Elems, env)
		if err != nil {
			return nil, err
		}
		return &value.List{Elems: elems}, nil

	case *ast.RecordExpr:
		entries := map[string]value.Value{}
		for _, f := range e.Fields {
			v, err := ev.Eval(f.Value, env)
			if err != nil {
				return nil, err
			}
			entries[string(f.Name)] = v
		}
		return &value.Map{Entries: entries}, nil

	case *ast.FieldExpr:
		obj, err := ev.Eval(e.Obj, env)
		if err != nil {
			return nil, err
		}
		m, ok := obj.(*value.Map)
		if !ok {
			return nil, cerr.NewRuntime("field access on non-record value", spanPtr(e.Span))
		}
		v, ok := m.Entries[string(e.Name)]
		if !ok {
			return nil, cerr.NewRuntime("no such field: "+string(e.Name), spanPtr(e.Span))
		}
		return v, nil

	case *ast.IndexExpr:
		return ev.evalIndex(e, env)

	case *ast.BinOpExpr:
		return ev.evalBinOp(e, env)

	case *ast.UnOpExpr:
		return ev.evalUnOp(e, env)

	case *ast.SampleExpr:
		return ev.evalSample(e, env)

	case *ast.ObserveExpr:
		// §4.3: not executed by the tree-walker; erased to its argument.
		if _, err := ev.Eval(e.Dist, env); err != nil {
			return nil, err
		}
		return ev.Eval(e.Value, env)

	case *ast.InferExpr:
		params := schema.ParamsFromLiterals(e.Params)
		if err := schema.ValidateInferParams(e.Method.String(), params); err != nil {
			return nil, cerr.NewRuntime("infer params: "+err.Error(), spanPtr(e.Span))
		}
		for _, p := range e.Params {
			if _, err := ev.Eval(p.Value, env); err != nil {
				return nil, err
			}
		}
		return ev.Eval(e.Model, env)

	case *ast.ParallelExpr:
		return ev.evalParallel(e, env)

	case *ast.DoExpr:
		return ev.evalDo(e, env)

	case *ast.AnnotateExpr:
		return ev.Eval(e.X, env)

	case *ast.HoleExpr:
		name := "?"
		if e.Name != nil {
			name = string(*e.Name)
		}
		return nil, cerr.NewRuntime("evaluated hole: "+name, spanPtr(e.Span))

	case *ast.ErrorExpr:
		return nil, cerr.NewRuntime("compilation-failure sentinel evaluated: "+e.Message, spanPtr(e.Span))

	default:
		return nil, cerr.NewRuntime("unhandled expression node", nil)
	}
}

func (ev *Evaluator) evalLiteral(lit ast.Literal) value.Value {
	switch lit.Kind {
	case ast.LitUnit:
		return value.Unit{}
	case ast.LitBool:
		return value.Bool(lit.Bool)
	case ast.LitTernary:
		return value.Ternary(lit.Ternary)
	case ast.LitInt:
		return value.Int(lit.Int)
	case ast.LitFloat:
		return value.Float(lit.Float)
	case ast.LitString:
		return value.String(lit.Str)
	default:
		return value.Unit{}
	}
}

func (ev *Evaluator) evalAll(exprs []ast.Expr, env *value.Env) ([]value.Value, error) {
	out := make([]value.Value, 0, len(exprs))
	for _, x := range exprs {
		v, err := ev.Eval(x, env)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// evalBet implements §4.3: evaluate all three alternatives eagerly,
// left to right, then uniformly pick one.
func (ev *Evaluator) evalBet(e *ast.BetExpr, env *value.Env) (value.Value, error) {
	results, err := ev.evalAll([]ast.Expr{e.A0, e.A1, e.A2}, env)
	if err != nil {
		return nil, err
	}
	i := ev.Source.Index3()
	ev.Logger.Debug("bet draw", "index", i, "span", e.Span.String())
	return results[i], nil
}

func (ev *Evaluator) evalWeightedBet(e *ast.WeightedBetExpr, env *value.Env) (value.Value, error) {
	var results [3]value.Value
	var weights [3]float64
	for i, alt := range e.Alts {
		v, err := ev.Eval(alt.Value, env)
		if err != nil {
			return nil, err
		}
		results[i] = v
		w, err := ev.Eval(alt.Weight, env)
		if err != nil {
			return nil, err
		}
		f, werr := asFloat(w)
		if werr != nil {
			return nil, cerr.NewRuntime("bet weight must be numeric: "+werr.Error(), spanPtr(e.Span))
		}
		weights[i] = f
	}
	i := ev.Source.WeightedIndex3(weights[0], weights[1], weights[2])
	ev.Logger.Debug("weighted bet draw", "index", i, "span", e.Span.String())
	return results[i], nil
}

func (ev *Evaluator) evalConditionalBet(e *ast.ConditionalBetExpr, env *value.Env) (value.Value, error) {
	cond, err := ev.Eval(e.Cond, env)
	if err != nil {
		return nil, err
	}
	if value.Truthy(cond) {
		return ev.Eval(e.IfTrue, env)
	}
	results, err := ev.evalAll([]ast.Expr{e.IfFalse0, e.IfFalse1, e.IfFalse2}, env)
	if err != nil {
		return nil, err
	}
	return results[ev.Source.Index3()], nil
}

func (ev *Evaluator) evalLet(e *ast.LetExpr, env *value.Env) (value.Value, error) {
	var bound *value.Env
	if e.IsRec {
		name, ok := e.Pattern.(*ast.VarPattern)
		if !ok {
			return nil, cerr.NewRuntime("`rec` requires a variable pattern", spanPtr(e.Span))
		}
		childEnv, fill := env.BindRec(string(name.Name))
		v, err := ev.Eval(e.Value, childEnv)
		if err != nil {
			return nil, err
		}
		fill(v)
		bound = childEnv
	} else {
		v, err := ev.Eval(e.Value, env)
		if err != nil {
			return nil, err
		}
		b, err := bindPattern(env, e.Pattern, v)
		if err != nil {
			return nil, err
		}
		bound = b
	}
	if e.Body == nil {
		// top-level `let` with no `in`: the binding is the caller's to
		// keep (module evaluation handles this by threading `bound`
		// back out). The let itself yields the bound value when the
		// pattern is a single variable, and Unit otherwise.
		if v, ok := bound.Lookup(patternSoleName(e.Pattern)); ok {
			return v, nil
		}
		return value.Unit{}, nil
	}
	return ev.Eval(e.Body, bound)
}

func patternSoleName(p ast.Pattern) string {
	if vp, ok := p.(*ast.VarPattern); ok {
		return string(vp.Name)
	}
	return ""
}

func (ev *Evaluator) evalApp(e *ast.AppExpr, env *value.Env) (value.Value, error) {
	fn, err := ev.Eval(e.Fn, env)
	if err != nil {
		return nil, err
	}
	args, err := ev.evalAll(e.Args, env)
	if err != nil {
		return nil, err
	}
	return ev.apply(fn, args, e.Span)
}

func (ev *Evaluator) apply(fn value.Value, args []value.Value, span ast.Span) (value.Value, error) {
	switch f := fn.(type) {
	case *value.NativeFn:
		if len(args) != f.Arity {
			return nil, cerr.NewRuntime(
				"arity mismatch calling "+f.Name, spanPtr(span))
		}
		return f.Fn(args)
	case *value.Closure:
		if len(args) < len(f.Params) {
			// Partial application: curry by returning a closure over
			// the remaining parameters.
			boundEnv := f.CapturedEnv
			for i, a := range args {
				var err error
				boundEnv, err = bindPattern(boundEnv, f.Params[i], a)
				if err != nil {
					return nil, err
				}
			}
			return &value.Closure{Params: f.Params[len(args):], Body: f.Body, CapturedEnv: boundEnv, Name: f.Name}, nil
		}
		callEnv := f.CapturedEnv
		for i, p := range f.Params {
			var err error
			callEnv, err = bindPattern(callEnv, p, args[i])
			if err != nil {
				return nil, err
			}
		}
		result, err := ev.Eval(f.Body, callEnv)
		if err != nil {
			return nil, err
		}
		if len(args) > len(f.Params) {
			return ev.apply(result, args[len(f.Params):], span)
		}
		return result, nil
	default:
		return nil, cerr.NewRuntime("value is not callable", spanPtr(span))
	}
}

func (ev *Evaluator) evalIndex(e *ast.IndexExpr, env *value.Env) (value.Value, error) {
	obj, err := ev.Eval(e.Obj, env)
	if err != nil {
		return nil, err
	}
	idxV, err := ev.Eval(e.Index, env)
	if err != nil {
		return nil, err
	}
	idx, ok := idxV.(value.Int)
	if !ok {
		return nil, cerr.NewRuntime("index must be an integer", spanPtr(e.Span))
	}
	switch o := obj.(type) {
	case *value.List:
		if int(idx) < 0 || int(idx) >= len(o.Elems) {
			return nil, cerr.NewRuntime("index out of range", spanPtr(e.Span))
		}
		return o.Elems[idx], nil
	case *value.Tuple:
		if int(idx) < 0 || int(idx) >= len(o.Elems) {
			return nil, cerr.NewRuntime("index out of range", spanPtr(e.Span))
		}
		return o.Elems[idx], nil
	default:
		return nil, cerr.NewRuntime("value is not indexable", spanPtr(e.Span))
	}
}

func (ev *Evaluator) evalMatch(e *ast.MatchExpr, env *value.Env) (value.Value, error) {
	scrutinee, err := ev.Eval(e.Scrutinee, env)
	if err != nil {
		return nil, err
	}
	for _, arm := range e.Arms {
		bound, ok, err := matchPattern(env, arm.Pattern, scrutinee)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if arm.Guard != nil {
			g, err := ev.Eval(arm.Guard, bound)
			if err != nil {
				return nil, err
			}
			if !value.Truthy(g) {
				continue
			}
		}
		return ev.Eval(arm.Body, bound)
	}
	return nil, cerr.NewRuntime("non-exhaustive match", spanPtr(e.Span))
}

func (ev *Evaluator) evalParallel(e *ast.ParallelExpr, env *value.Env) (value.Value, error) {
	nV, err := ev.Eval(e.N, env)
	if err != nil {
		return nil, err
	}
	n, ok := nV.(value.Int)
	if !ok {
		return nil, cerr.NewRuntime("parallel count must be an integer", spanPtr(e.Span))
	}
	results := make([]value.Value, 0, n)
	for i := int64(0); i < int64(n); i++ {
		v, err := ev.Eval(e.Body, env)
		if err != nil {
			return nil, err
		}
		results = append(results, v)
	}
	return &value.List{Elems: results}, nil
}

func (ev *Evaluator) evalDo(e *ast.DoExpr, env *value.Env) (value.Value, error) {
	cur := env
	var last value.Value = value.Unit{}
	for _, stmt := range e.Stmts {
		switch stmt.Kind {
		case ast.DoBind, ast.DoLet:
			v, err := ev.Eval(stmt.Value, cur)
			if err != nil {
				return nil, err
			}
			next, err := bindPattern(cur, stmt.Pattern, v)
			if err != nil {
				return nil, err
			}
			cur = next
		case ast.DoExprStmt:
			v, err := ev.Eval(stmt.Value, cur)
			if err != nil {
				return nil, err
			}
			last = v
		}
	}
	return last, nil
}
