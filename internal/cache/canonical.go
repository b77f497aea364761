// Package cache implements the `.betc` debugging artifact: a compact,
// canonical CBOR serialization of a parsed Module, mirroring the
// teacher's core/planfmt canonical-CBOR plan format. This is a
// debugging/inspection artifact (`betlang parse --emit-ast`), not an
// incremental-compilation cache.
package cache

import (
	"fmt"

	"github.com/hyperpolymath/betlang/internal/ast"
)

// CanonicalSpan mirrors ast.Span in a CBOR-friendly flat shape.
type CanonicalSpan struct {
	Start int
	End   int
}

func toSpan(s ast.Span) CanonicalSpan    { return CanonicalSpan{Start: s.Start, End: s.End} }
func fromSpan(s CanonicalSpan) ast.Span  { return ast.Span{Start: s.Start, End: s.End} }

// CanonicalLiteral mirrors ast.Literal.
type CanonicalLiteral struct {
	Kind    int
	Bool    bool
	Ternary int
	Int     int64
	Float   float64
	Str     string
}

func toLiteral(l ast.Literal) CanonicalLiteral {
	return CanonicalLiteral{
		Kind: int(l.Kind), Bool: l.Bool, Ternary: int(l.Ternary),
		Int: l.Int, Float: l.Float, Str: l.Str,
	}
}

func fromLiteral(c CanonicalLiteral) ast.Literal {
	return ast.Literal{
		Kind: ast.LiteralKind(c.Kind), Bool: c.Bool, Ternary: ast.Ternary(c.Ternary),
		Int: c.Int, Float: c.Float, Str: c.Str,
	}
}

// CanonicalPattern is the flattened union for every ast.Pattern
// variant, following the teacher's CanonicalNode "Type string + every
// possible field" technique so CBOR never needs to encode a Go
// interface directly.
type CanonicalPattern struct {
	Kind   string // "wildcard", "var", "literal", "tuple", "list", "record"
	Name   string
	Lit    *CanonicalLiteral
	Elems  []CanonicalPattern
	Fields []CanonicalFieldPattern
	Span   CanonicalSpan
}

type CanonicalFieldPattern struct {
	Name string
	Pat  CanonicalPattern
}

func toPattern(p ast.Pattern) CanonicalPattern {
	switch pat := p.(type) {
	case *ast.WildcardPattern:
		return CanonicalPattern{Kind: "wildcard", Span: toSpan(pat.Span)}
	case *ast.VarPattern:
		return CanonicalPattern{Kind: "var", Name: string(pat.Name), Span: toSpan(pat.Span)}
	case *ast.LiteralPattern:
		lit := toLiteral(pat.Lit)
		return CanonicalPattern{Kind: "literal", Lit: &lit, Span: toSpan(pat.Span)}
	case *ast.TuplePattern:
		elems := make([]CanonicalPattern, len(pat.Elems))
		for i, e := range pat.Elems {
			elems[i] = toPattern(e)
		}
		return CanonicalPattern{Kind: "tuple", Elems: elems, Span: toSpan(pat.Span)}
	case *ast.ListPattern:
		elems := make([]CanonicalPattern, len(pat.Elems))
		for i, e := range pat.Elems {
			elems[i] = toPattern(e)
		}
		return CanonicalPattern{Kind: "list", Elems: elems, Span: toSpan(pat.Span)}
	case *ast.RecordPattern:
		fields := make([]CanonicalFieldPattern, len(pat.Fields))
		for i, f := range pat.Fields {
			fields[i] = CanonicalFieldPattern{Name: string(f.Name), Pat: toPattern(f.Pat)}
		}
		return CanonicalPattern{Kind: "record", Fields: fields, Span: toSpan(pat.Span)}
	default:
		return CanonicalPattern{Kind: "wildcard"}
	}
}

func fromPattern(c CanonicalPattern) ast.Pattern {
	switch c.Kind {
	case "var":
		return &ast.VarPattern{Name: ast.Symbol(c.Name), Span: fromSpan(c.Span)}
	case "literal":
		lit := ast.Literal{}
		if c.Lit != nil {
			lit = fromLiteral(*c.Lit)
		}
		return &ast.LiteralPattern{Lit: lit, Span: fromSpan(c.Span)}
	case "tuple":
		elems := make([]ast.Pattern, len(c.Elems))
		for i, e := range c.Elems {
			elems[i] = fromPattern(e)
		}
		return &ast.TuplePattern{Elems: elems, Span: fromSpan(c.Span)}
	case "list":
		elems := make([]ast.Pattern, len(c.Elems))
		for i, e := range c.Elems {
			elems[i] = fromPattern(e)
		}
		return &ast.ListPattern{Elems: elems, Span: fromSpan(c.Span)}
	case "record":
		fields := make([]ast.RecordFieldPattern, len(c.Fields))
		for i, f := range c.Fields {
			fields[i] = ast.RecordFieldPattern{Name: ast.Symbol(f.Name), Pat: fromPattern(f.Pat)}
		}
		return &ast.RecordPattern{Fields: fields, Span: fromSpan(c.Span)}
	default:
		return &ast.WildcardPattern{Span: fromSpan(c.Span)}
	}
}

// CanonicalExpr is the flattened union for every ast.Expr variant.
type CanonicalExpr struct {
	Kind string

	Lit *CanonicalLiteral // literal
	Name string           // var, field, hole(optional)

	A, B, C *CanonicalExpr // generic slots: bet alts / if / binop / unop / sample / observe

	Weights []CanonicalExpr // not written by ToExpr; weighted bets use WAlts/WWeights
	WAlts   []CanonicalExpr
	WWeights []CanonicalExpr

	Elems []CanonicalExpr // tuple/list elements, conditional-bet fallbacks

	Fields []CanonicalRecordField // record

	Arms []CanonicalMatchArm // match

	Pattern *CanonicalPattern // let/lambda single pattern, do-stmt pattern
	Params  []CanonicalPattern // lambda params
	IsRec   bool

	Fn   *CanonicalExpr // app
	Args []CanonicalExpr

	Op int // binop/unop kind

	Method int // infer method
	IParams []CanonicalInferParam

	Stmts []CanonicalDoStmt

	TypeAnn *CanonicalTypeAnn

	Message string // error sentinel

	Span CanonicalSpan
}

type CanonicalRecordField struct {
	Name  string
	Value CanonicalExpr
}

type CanonicalMatchArm struct {
	Pattern CanonicalPattern
	Guard   *CanonicalExpr
	Body    CanonicalExpr
}

type CanonicalInferParam struct {
	Name  string
	Value CanonicalExpr
}

type CanonicalDoStmt struct {
	Kind    int
	Pattern *CanonicalPattern
	Value   CanonicalExpr
}

type CanonicalTypeAnn struct {
	Name string
	Args []CanonicalTypeAnn
}

func toTypeAnn(t ast.TypeAnn) CanonicalTypeAnn {
	args := make([]CanonicalTypeAnn, len(t.Args))
	for i, a := range t.Args {
		args[i] = toTypeAnn(a)
	}
	return CanonicalTypeAnn{Name: string(t.Name), Args: args}
}

func fromTypeAnn(c CanonicalTypeAnn) ast.TypeAnn {
	args := make([]ast.TypeAnn, len(c.Args))
	for i, a := range c.Args {
		args[i] = fromTypeAnn(a)
	}
	return ast.TypeAnn{Name: ast.Symbol(c.Name), Args: args}
}

// ToExpr converts an ast.Expr into its flattened canonical form.
func ToExpr(expr ast.Expr) CanonicalExpr {
	if expr == nil {
		return CanonicalExpr{Kind: "nil"}
	}
	switch e := expr.(type) {
	case *ast.LiteralExpr:
		lit := toLiteral(e.Lit)
		return CanonicalExpr{Kind: "literal", Lit: &lit, Span: toSpan(e.Span)}

	case *ast.VarExpr:
		return CanonicalExpr{Kind: "var", Name: string(e.Name), Span: toSpan(e.Span)}

	case *ast.BetExpr:
		a, b, c := ToExpr(e.A0), ToExpr(e.A1), ToExpr(e.A2)
		return CanonicalExpr{Kind: "bet", A: &a, B: &b, C: &c, Span: toSpan(e.Span)}

	case *ast.WeightedBetExpr:
		vals := make([]CanonicalExpr, 3)
		weights := make([]CanonicalExpr, 3)
		for i, alt := range e.Alts {
			vals[i] = ToExpr(alt.Value)
			weights[i] = ToExpr(alt.Weight)
		}
		return CanonicalExpr{Kind: "weighted-bet", WAlts: vals, WWeights: weights, Span: toSpan(e.Span)}

	case *ast.ConditionalBetExpr:
		cond, ift := ToExpr(e.Cond), ToExpr(e.IfTrue)
		elems := []CanonicalExpr{ToExpr(e.IfFalse0), ToExpr(e.IfFalse1), ToExpr(e.IfFalse2)}
		return CanonicalExpr{Kind: "conditional-bet", A: &cond, B: &ift, Elems: elems, Span: toSpan(e.Span)}

	case *ast.IfExpr:
		cond, then, els := ToExpr(e.Cond), ToExpr(e.Then), ToExpr(e.Else)
		return CanonicalExpr{Kind: "if", A: &cond, B: &then, C: &els, Span: toSpan(e.Span)}

	case *ast.MatchExpr:
		scrutinee := ToExpr(e.Scrutinee)
		arms := make([]CanonicalMatchArm, len(e.Arms))
		for i, arm := range e.Arms {
			var guard *CanonicalExpr
			if arm.Guard != nil {
				g := ToExpr(arm.Guard)
				guard = &g
			}
			arms[i] = CanonicalMatchArm{Pattern: toPattern(arm.Pattern), Guard: guard, Body: ToExpr(arm.Body)}
		}
		return CanonicalExpr{Kind: "match", A: &scrutinee, Arms: arms, Span: toSpan(e.Span)}

	case *ast.LetExpr:
		val := ToExpr(e.Value)
		pat := toPattern(e.Pattern)
		ce := CanonicalExpr{Kind: "let", A: &val, Pattern: &pat, IsRec: e.IsRec, Span: toSpan(e.Span)}
		if e.Body != nil {
			body := ToExpr(e.Body)
			ce.B = &body
		}
		return ce

	case *ast.LambdaExpr:
		body := ToExpr(e.Body)
		params := make([]CanonicalPattern, len(e.Params))
		for i, p := range e.Params {
			params[i] = toPattern(p)
		}
		return CanonicalExpr{Kind: "lambda", Params: params, A: &body, Span: toSpan(e.Span)}

	case *ast.AppExpr:
		fn := ToExpr(e.Fn)
		args := make([]CanonicalExpr, len(e.Args))
		for i, a := range e.Args {
			args[i] = ToExpr(a)
		}
		return CanonicalExpr{Kind: "app", Fn: &fn, Args: args, Span: toSpan(e.Span)}

	case *ast.TupleExpr:
		return CanonicalExpr{Kind: "tuple", Elems: toExprSlice(e.Elems), Span: toSpan(e.Span)}

	case *ast.ListExpr:
		return CanonicalExpr{Kind: "list", Elems: toExprSlice(e.Elems), Span: toSpan(e.Span)}

	case *ast.RecordExpr:
		fields := make([]CanonicalRecordField, len(e.Fields))
		for i, f := range e.Fields {
			fields[i] = CanonicalRecordField{Name: string(f.Name), Value: ToExpr(f.Value)}
		}
		return CanonicalExpr{Kind: "record", Fields: fields, Span: toSpan(e.Span)}

	case *ast.FieldExpr:
		obj := ToExpr(e.Obj)
		return CanonicalExpr{Kind: "field", A: &obj, Name: string(e.Name), Span: toSpan(e.Span)}

	case *ast.IndexExpr:
		obj, idx := ToExpr(e.Obj), ToExpr(e.Index)
		return CanonicalExpr{Kind: "index", A: &obj, B: &idx, Span: toSpan(e.Span)}

	case *ast.BinOpExpr:
		l, r := ToExpr(e.L), ToExpr(e.R)
		return CanonicalExpr{Kind: "binop", Op: int(e.Op), A: &l, B: &r, Span: toSpan(e.Span)}

	case *ast.UnOpExpr:
		x := ToExpr(e.X)
		return CanonicalExpr{Kind: "unop", Op: int(e.Op), A: &x, Span: toSpan(e.Span)}

	case *ast.SampleExpr:
		d := ToExpr(e.Dist)
		return CanonicalExpr{Kind: "sample", A: &d, Span: toSpan(e.Span)}

	case *ast.ObserveExpr:
		d, v := ToExpr(e.Dist), ToExpr(e.Value)
		return CanonicalExpr{Kind: "observe", A: &d, B: &v, Span: toSpan(e.Span)}

	case *ast.InferExpr:
		model := ToExpr(e.Model)
		params := make([]CanonicalInferParam, len(e.Params))
		for i, p := range e.Params {
			params[i] = CanonicalInferParam{Name: string(p.Name), Value: ToExpr(p.Value)}
		}
		return CanonicalExpr{Kind: "infer", Method: int(e.Method), IParams: params, A: &model, Span: toSpan(e.Span)}

	case *ast.ParallelExpr:
		n, body := ToExpr(e.N), ToExpr(e.Body)
		return CanonicalExpr{Kind: "parallel", A: &n, B: &body, Span: toSpan(e.Span)}

	case *ast.DoExpr:
		stmts := make([]CanonicalDoStmt, len(e.Stmts))
		for i, s := range e.Stmts {
			var pat *CanonicalPattern
			if s.Pattern != nil {
				p := toPattern(s.Pattern)
				pat = &p
			}
			stmts[i] = CanonicalDoStmt{Kind: int(s.Kind), Pattern: pat, Value: ToExpr(s.Value)}
		}
		return CanonicalExpr{Kind: "do", Stmts: stmts, Span: toSpan(e.Span)}

	case *ast.AnnotateExpr:
		x := ToExpr(e.X)
		ta := toTypeAnn(e.Type)
		return CanonicalExpr{Kind: "annotate", A: &x, TypeAnn: &ta, Span: toSpan(e.Span)}

	case *ast.HoleExpr:
		name := ""
		if e.Name != nil {
			name = string(*e.Name)
		}
		return CanonicalExpr{Kind: "hole", Name: name, Span: toSpan(e.Span)}

	case *ast.ErrorExpr:
		return CanonicalExpr{Kind: "error", Message: e.Message, Span: toSpan(e.Span)}

	default:
		return CanonicalExpr{Kind: "error", Message: fmt.Sprintf("unsupported node %T", expr), Span: CanonicalSpan{Start: -1, End: -1}}
	}
}

func toExprSlice(exprs []ast.Expr) []CanonicalExpr {
	out := make([]CanonicalExpr, len(exprs))
	for i, e := range exprs {
		out[i] = ToExpr(e)
	}
	return out
}

// FromExpr reconstitutes an ast.Expr from its canonical form.
func FromExpr(c CanonicalExpr) ast.Expr {
	span := fromSpan(c.Span)
	switch c.Kind {
	case "nil":
		return nil
	case "literal":
		lit := ast.Literal{}
		if c.Lit != nil {
			lit = fromLiteral(*c.Lit)
		}
		return &ast.LiteralExpr{Lit: lit, Span: span}
	case "var":
		return &ast.VarExpr{Name: ast.Symbol(c.Name), Span: span}
	case "bet":
		return &ast.BetExpr{A0: FromExpr(*c.A), A1: FromExpr(*c.B), A2: FromExpr(*c.C), Span: span}
	case "weighted-bet":
		var alts [3]ast.WeightedAlt
		for i := 0; i < 3 && i < len(c.WAlts); i++ {
			alts[i] = ast.WeightedAlt{Value: FromExpr(c.WAlts[i]), Weight: FromExpr(c.WWeights[i])}
		}
		return &ast.WeightedBetExpr{Alts: alts, Span: span}
	case "conditional-bet":
		return &ast.ConditionalBetExpr{
			Cond: FromExpr(*c.A), IfTrue: FromExpr(*c.B),
			IfFalse0: FromExpr(c.Elems[0]), IfFalse1: FromExpr(c.Elems[1]), IfFalse2: FromExpr(c.Elems[2]),
			Span: span,
		}
	case "if":
		return &ast.IfExpr{Cond: FromExpr(*c.A), Then: FromExpr(*c.B), Else: FromExpr(*c.C), Span: span}
	case "match":
		arms := make([]ast.MatchArm, len(c.Arms))
		for i, a := range c.Arms {
			var guard ast.Expr
			if a.Guard != nil {
				guard = FromExpr(*a.Guard)
			}
			arms[i] = ast.MatchArm{Pattern: fromPattern(a.Pattern), Guard: guard, Body: FromExpr(a.Body)}
		}
		return &ast.MatchExpr{Scrutinee: FromExpr(*c.A), Arms: arms, Span: span}
	case "let":
		var pat ast.Pattern
		if c.Pattern != nil {
			pat = fromPattern(*c.Pattern)
		}
		var body ast.Expr
		if c.B != nil {
			body = FromExpr(*c.B)
		}
		return &ast.LetExpr{Pattern: pat, Value: FromExpr(*c.A), Body: body, IsRec: c.IsRec, Span: span}
	case "lambda":
		params := make([]ast.Pattern, len(c.Params))
		for i, p := range c.Params {
			params[i] = fromPattern(p)
		}
		return &ast.LambdaExpr{Params: params, Body: FromExpr(*c.A), Span: span}
	case "app":
		args := make([]ast.Expr, len(c.Args))
		for i, a := range c.Args {
			args[i] = FromExpr(a)
		}
		return &ast.AppExpr{Fn: FromExpr(*c.Fn), Args: args, Span: span}
	case "tuple":
		return &ast.TupleExpr{Elems: fromExprSlice(c.Elems), Span: span}
	case "list":
		return &ast.ListExpr{Elems: fromExprSlice(c.Elems), Span: span}
	case "record":
		fields := make([]ast.RecordField, len(c.Fields))
		for i, f := range c.Fields {
			fields[i] = ast.RecordField{Name: ast.Symbol(f.Name), Value: FromExpr(f.Value)}
		}
		return &ast.RecordExpr{Fields: fields, Span: span}
	case "field":
		return &ast.FieldExpr{Obj: FromExpr(*c.A), Name: ast.Symbol(c.Name), Span: span}
	case "index":
		return &ast.IndexExpr{Obj: FromExpr(*c.A), Index: FromExpr(*c.B), Span: span}
	case "binop":
		return &ast.BinOpExpr{Op: ast.BinOpKind(c.Op), L: FromExpr(*c.A), R: FromExpr(*c.B), Span: span}
	case "unop":
		return &ast.UnOpExpr{Op: ast.UnOpKind(c.Op), X: FromExpr(*c.A), Span: span}
	case "sample":
		return &ast.SampleExpr{Dist: FromExpr(*c.A), Span: span}
	case "observe":
		return &ast.ObserveExpr{Dist: FromExpr(*c.A), Value: FromExpr(*c.B), Span: span}
	case "infer":
		params := make([]ast.InferParam, len(c.IParams))
		for i, p := range c.IParams {
			params[i] = ast.InferParam{Name: ast.Symbol(p.Name), Value: FromExpr(p.Value)}
		}
		return &ast.InferExpr{Method: ast.InferMethod(c.Method), Params: params, Model: FromExpr(*c.A), Span: span}
	case "parallel":
		return &ast.ParallelExpr{N: FromExpr(*c.A), Body: FromExpr(*c.B), Span: span}
	case "do":
		stmts := make([]ast.DoStmt, len(c.Stmts))
		for i, s := range c.Stmts {
			var pat ast.Pattern
			if s.Pattern != nil {
				pat = fromPattern(*s.Pattern)
			}
			stmts[i] = ast.DoStmt{Kind: ast.DoStmtKind(s.Kind), Pattern: pat, Value: FromExpr(s.Value)}
		}
		return &ast.DoExpr{Stmts: stmts, Span: span}
	case "annotate":
		ta := ast.TypeAnn{}
		if c.TypeAnn != nil {
			ta = fromTypeAnn(*c.TypeAnn)
		}
		return &ast.AnnotateExpr{X: FromExpr(*c.A), Type: ta, Span: span}
	case "hole":
		var name *ast.Symbol
		if c.Name != "" {
			n := ast.Symbol(c.Name)
			name = &n
		}
		return &ast.HoleExpr{Name: name, Span: span}
	case "error":
		return &ast.ErrorExpr{Message: c.Message, Span: span}
	default:
		return &ast.ErrorExpr{Message: "unknown canonical node: " + c.Kind, Span: span}
	}
}

func fromExprSlice(exprs []CanonicalExpr) []ast.Expr {
	out := make([]ast.Expr, len(exprs))
	for i, e := range exprs {
		out[i] = FromExpr(e)
	}
	return out
}

// CanonicalItem mirrors ast.Item.
type CanonicalItem struct {
	Kind string // "let", "typedef", "import", "expr"

	LetName   string
	LetParams []CanonicalPattern
	LetBody   *CanonicalExpr
	LetRec    bool
	TypeAnn   *CanonicalTypeAnn

	TypeDefName string
	TypeDefDef  string

	ImportPath []string

	Expr *CanonicalExpr
}

func ToItem(item ast.Item) CanonicalItem {
	switch it := item.(type) {
	case ast.LetItem:
		params := make([]CanonicalPattern, len(it.Def.Params))
		for i, p := range it.Def.Params {
			params[i] = toPattern(p)
		}
		body := ToExpr(it.Def.Body)
		var ta *CanonicalTypeAnn
		if it.Def.TypeAnn != nil {
			t := toTypeAnn(*it.Def.TypeAnn)
			ta = &t
		}
		return CanonicalItem{Kind: "let", LetName: string(it.Def.Name), LetParams: params, LetBody: &body, LetRec: it.Def.IsRec, TypeAnn: ta}
	case ast.TypeDefItem:
		return CanonicalItem{Kind: "typedef", TypeDefName: string(it.Def.Name), TypeDefDef: it.Def.Definition}
	case ast.ImportItem:
		path := make([]string, len(it.Import.Path))
		for i, s := range it.Import.Path {
			path[i] = string(s)
		}
		return CanonicalItem{Kind: "import", ImportPath: path}
	case ast.ExprItem:
		e := ToExpr(it.Expr)
		return CanonicalItem{Kind: "expr", Expr: &e}
	default:
		return CanonicalItem{Kind: "expr", Expr: &CanonicalExpr{Kind: "error", Message: "unknown item"}}
	}
}

func FromItem(c CanonicalItem) ast.Item {
	switch c.Kind {
	case "let":
		params := make([]ast.Pattern, len(c.LetParams))
		for i, p := range c.LetParams {
			params[i] = fromPattern(p)
		}
		var body ast.Expr
		if c.LetBody != nil {
			body = FromExpr(*c.LetBody)
		}
		var ta *ast.TypeAnn
		if c.TypeAnn != nil {
			t := fromTypeAnn(*c.TypeAnn)
			ta = &t
		}
		return ast.LetItem{Def: ast.LetDef{Name: ast.Symbol(c.LetName), Params: params, TypeAnn: ta, Body: body, IsRec: c.LetRec}}
	case "typedef":
		return ast.TypeDefItem{Def: ast.TypeDef{Name: ast.Symbol(c.TypeDefName), Definition: c.TypeDefDef}}
	case "import":
		path := make([]ast.Symbol, len(c.ImportPath))
		for i, s := range c.ImportPath {
			path[i] = ast.Symbol(s)
		}
		return ast.ImportItem{Import: ast.Import{Path: path}}
	case "expr":
		var e ast.Expr
		if c.Expr != nil {
			e = FromExpr(*c.Expr)
		}
		return ast.ExprItem{Expr: e}
	default:
		return ast.ExprItem{Expr: &ast.ErrorExpr{Message: "unknown canonical item: " + c.Kind}}
	}
}

// CanonicalModule mirrors ast.Module.
type CanonicalModule struct {
	Name  string
	Items []CanonicalItem
	Span  CanonicalSpan
}

func ToModule(m *ast.Module) CanonicalModule {
	name := ""
	if m.Name != nil {
		name = string(*m.Name)
	}
	items := make([]CanonicalItem, len(m.Items))
	for i, it := range m.Items {
		items[i] = ToItem(it.Node)
	}
	return CanonicalModule{Name: name, Items: items, Span: toSpan(m.Span)}
}

func FromModule(c CanonicalModule) *ast.Module {
	var name *ast.Symbol
	if c.Name != "" {
		n := ast.Symbol(c.Name)
		name = &n
	}
	items := make([]ast.Spanned[ast.Item], len(c.Items))
	for i, it := range c.Items {
		items[i] = ast.Spanned[ast.Item]{Node: FromItem(it)}
	}
	return &ast.Module{Name: name, Items: items, Span: fromSpan(c.Span)}
}
