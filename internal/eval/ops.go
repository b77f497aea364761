package eval

import (
	"fmt"
	"math"

	"github.com/hyperpolymath/betlang/internal/ast"
	"github.com/hyperpolymath/betlang/internal/cerr"
	"github.com/hyperpolymath/betlang/internal/value"
)

func asFloat(v value.Value) (float64, error) {
	switch x := v.(type) {
	case value.Int:
		return float64(x), nil
	case value.Float:
		return float64(x), nil
	default:
		return 0, fmt.Errorf("not numeric: %s", v.String())
	}
}

// evalBinOp implements §4.3's operator semantics: arithmetic
// polymorphic over Int x Int -> Int, Float x Float -> Float, and mixed
// Int x Float -> Float; comparisons return Bool; string/list ++ and ::.
func (ev *Evaluator) evalBinOp(e *ast.BinOpExpr, env *value.Env) (value.Value, error) {
	l, err := ev.Eval(e.L, env)
	if err != nil {
		return nil, err
	}

	// Short-circuit && and ||.
	switch e.Op {
	case ast.OpAnd:
		if !value.Truthy(l) {
			return value.Bool(false), nil
		}
		r, err := ev.Eval(e.R, env)
		if err != nil {
			return nil, err
		}
		return value.Bool(value.Truthy(r)), nil
	case ast.OpOr:
		if value.Truthy(l) {
			return value.Bool(true), nil
		}
		r, err := ev.Eval(e.R, env)
		if err != nil {
			return nil, err
		}
		return value.Bool(value.Truthy(r)), nil
	case ast.OpCompose:
		r, err := ev.Eval(e.R, env)
		if err != nil {
			return nil, err
		}
		return &value.NativeFn{Name: "<composed>", Arity: 1, Fn: func(args []value.Value) (value.Value, error) {
			mid, err := ev.apply(l, args, e.Span)
			if err != nil {
				return nil, err
			}
			return ev.apply(r, []value.Value{mid}, e.Span)
		}}, nil
	}

	r, err := ev.Eval(e.R, env)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpMod, ast.OpPow:
		return ev.evalArith(e.Op, l, r, e.Span)
	case ast.OpEq:
		return value.Bool(valuesEqual(l, r)), nil
	case ast.OpNeq:
		return value.Bool(!valuesEqual(l, r)), nil
	case ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
		return ev.evalCompare(e.Op, l, r, e.Span)
	case ast.OpXor:
		lt, lok := l.(value.Ternary)
		rt, rok := r.(value.Ternary)
		if lok && rok {
			return value.Ternary(ast.TernaryXor(ast.Ternary(lt), ast.Ternary(rt))), nil
		}
		return value.Bool(value.Truthy(l) != value.Truthy(r)), nil
	case ast.OpConcat, ast.OpAppend:
		return ev.evalConcat(l, r, e.Span)
	case ast.OpCons:
		lst, ok := r.(*value.List)
		if !ok {
			return nil, cerr.NewRuntime(":: requires a list right-hand side", spanPtr(e.Span))
		}
		elems := append([]value.Value{l}, lst.Elems...)
		return &value.List{Elems: elems}, nil
	default:
		return nil, cerr.NewRuntime("unsupported binary operator "+e.Op.String(), spanPtr(e.Span))
	}
}

func (ev *Evaluator) evalArith(op ast.BinOpKind, l, r value.Value, span ast.Span) (value.Value, error) {
	li, liok := l.(value.Int)
	ri, riok := r.(value.Int)
	if liok && riok {
		if op == ast.OpDiv || op == ast.OpMod {
			if ri == 0 {
				return nil, cerr.NewRuntime("Division by zero", spanPtr(span))
			}
		}
		switch op {
		case ast.OpAdd:
			return li + ri, nil
		case ast.OpSub:
			return li - ri, nil
		case ast.OpMul:
			return li * ri, nil
		case ast.OpDiv:
			return li / ri, nil
		case ast.OpMod:
			return li % ri, nil
		case ast.OpPow:
			return value.Int(intPow(int64(li), int64(ri))), nil
		}
	}
	lf, err := asFloat(l)
	if err != nil {
		return nil, cerr.NewRuntime("arithmetic on non-numeric value: "+err.Error(), spanPtr(span))
	}
	rf, err := asFloat(r)
	if err != nil {
		return nil, cerr.NewRuntime("arithmetic on non-numeric value: "+err.Error(), spanPtr(span))
	}
	switch op {
	case ast.OpAdd:
		return value.Float(lf + rf), nil
	case ast.OpSub:
		return value.Float(lf - rf), nil
	case ast.OpMul:
		return value.Float(lf * rf), nil
	case ast.OpDiv:
		return value.Float(lf / rf), nil // IEEE 754 semantics for float division.
	case ast.OpMod:
		return value.Float(mod(lf, rf)), nil
	case ast.OpPow:
		return value.Float(powFloat(lf, rf)), nil
	}
	return nil, cerr.NewRuntime("unreachable arithmetic operator", spanPtr(span))
}

func intPow(base, exp int64) int64 {
	result := int64(1)
	for ; exp > 0; exp-- {
		result *= base
	}
	return result
}

func mod(a, b float64) float64 {
	return math.Mod(a, b)
}

func powFloat(a, b float64) float64 {
	return math.Pow(a, b)
}

func (ev *Evaluator) evalCompare(op ast.BinOpKind, l, r value.Value, span ast.Span) (value.Value, error) {
	lf, lerr := asFloat(l)
	rf, rerr := asFloat(r)
	if lerr == nil && rerr == nil {
		switch op {
		case ast.OpLt:
			return value.Bool(lf < rf), nil
		case ast.OpLe:
			return value.Bool(lf <= rf), nil
		case ast.OpGt:
			return value.Bool(lf > rf), nil
		case ast.OpGe:
			return value.Bool(lf >= rf), nil
		}
	}
	ls, lok := l.(value.String)
	rs, rok := r.(value.String)
	if lok && rok {
		switch op {
		case ast.OpLt:
			return value.Bool(ls < rs), nil
		case ast.OpLe:
			return value.Bool(ls <= rs), nil
		case ast.OpGt:
			return value.Bool(ls > rs), nil
		case ast.OpGe:
			return value.Bool(ls >= rs), nil
		}
	}
	return nil, cerr.NewRuntime("incomparable values", spanPtr(span))
}

func valuesEqual(l, r value.Value) bool {
	lf, lerr := asFloat(l)
	rf, rerr := asFloat(r)
	if lerr == nil && rerr == nil {
		return lf == rf
	}
	switch lv := l.(type) {
	case value.Bool:
		rv, ok := r.(value.Bool)
		return ok && lv == rv
	case value.String:
		rv, ok := r.(value.String)
		return ok && lv == rv
	case value.Ternary:
		rv, ok := r.(value.Ternary)
		return ok && lv == rv
	case value.Unit:
		_, ok := r.(value.Unit)
		return ok
	case *value.Tuple:
		rv, ok := r.(*value.Tuple)
		if !ok || len(lv.Elems) != len(rv.Elems) {
			return false
		}
		for i := range lv.Elems {
			if !valuesEqual(lv.Elems[i], rv.Elems[i]) {
				return false
			}
		}
		return true
	case *value.List:
		rv, ok := r.(*value.List)
		if !ok || len(lv.Elems) != len(rv.Elems) {
			return false
		}
		for i := range lv.Elems {
			if !valuesEqual(lv.Elems[i], rv.Elems[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func (ev *Evaluator) evalConcat(l, r value.Value, span ast.Span) (value.Value, error) {
	ls, lok := l.(value.String)
	rs, rok := r.(value.String)
	if lok && rok {
		return ls + rs, nil
	}
	ll, lok := l.(*value.List)
	rl, rok := r.(*value.List)
	if lok && rok {
		elems := make([]value.Value, 0, len(ll.Elems)+len(rl.Elems))
		elems = append(elems, ll.Elems...)
		elems = append(elems, rl.Elems...)
		return &value.List{Elems: elems}, nil
	}
	return nil, cerr.NewRuntime("++ requires two strings or two lists", spanPtr(span))
}

func (ev *Evaluator) evalUnOp(e *ast.UnOpExpr, env *value.Env) (value.Value, error) {
	x, err := ev.Eval(e.X, env)
	if err != nil {
		return nil, err
	}
	switch e.Op {
	case ast.OpNeg:
		switch v := x.(type) {
		case value.Int:
			return -v, nil
		case value.Float:
			return -v, nil
		default:
			return nil, cerr.NewRuntime("negation requires a numeric value", spanPtr(e.Span))
		}
	case ast.OpNot:
		// §9 Open Question: the evaluator has a real Bool Value and is
		// precise here, unlike the JS backend which preserves the
		// documented `(-x)` conflation for lack of static types.
		switch v := x.(type) {
		case value.Bool:
			return !v, nil
		case value.Ternary:
			return value.Ternary(ast.Ternary(v).Not()), nil
		default:
			return value.Bool(!value.Truthy(x)), nil
		}
	case ast.OpSample:
		return ev.sampleValue(x, e.Span)
	default:
		return nil, cerr.NewRuntime("unsupported unary operator", spanPtr(e.Span))
	}
}

func (ev *Evaluator) evalSample(e *ast.SampleExpr, env *value.Env) (value.Value, error) {
	d, err := ev.Eval(e.Dist, env)
	if err != nil {
		return nil, err
	}
	return ev.sampleValue(d, e.Span)
}

// sampleValue implements §4.3: sampling a Distribution draws from its
// sampler; any other value is treated as a point mass and returned
// unchanged.
func (ev *Evaluator) sampleValue(v value.Value, span ast.Span) (value.Value, error) {
	if d, ok := v.(*value.Distribution); ok {
		return d.Sampler(), nil
	}
	return v, nil
}
