// Package ast defines betlang's canonical tree nodes: the common
// vocabulary shared by the parser, evaluator, and code generator.
//
// Expr and Pattern are closed sum types, represented the way go/ast
// represents Go syntax: an interface with an unexported marker method,
// implemented by one struct per variant. Adding a variant means adding
// a case to every switch that matters (parser, evaluator, codegen),
// which is the point — no open type hierarchy to silently ignore a
// new case.
package ast

import (
	"fmt"
	"strings"

	"github.com/hyperpolymath/betlang/internal/token"
)

// Span re-exports token.Span so downstream packages don't need to
// import token just to talk about node positions.
type Span = token.Span

// Symbol is an interned identifier: two symbols are equal iff their
// textual form is equal. Go string comparison already gives us that,
// so Symbol is a defined string type rather than a handle into an
// intern table — the "interning" guarantee is structural, not
// pointer-identity.
type Symbol string

func (s Symbol) String() string { return string(s) }

// Spanned pairs a node with its source span, used for Module items
// where the item's own Span() would otherwise require an extra
// interface method on variants that don't otherwise need one.
type Spanned[T any] struct {
	Node T
	Span Span
}

// Ternary is Kleene three-valued logic: False, Unknown, True.
type Ternary int

const (
	TFalse Ternary = iota
	TUnknown
	TTrue
)

func (t Ternary) String() string {
	switch t {
	case TFalse:
		return "false"
	case TTrue:
		return "true"
	default:
		return "unknown"
	}
}

// Not, And, Or, Xor implement Kleene's three-valued connectives.
// Numeric encoding False=0, Unknown=1, True=2 makes And/Or plain
// min/max; the JS backend emits True, Unknown and False as the
// numbers 1, 0 and -1.
func (t Ternary) Not() Ternary {
	switch t {
	case TTrue:
		return TFalse
	case TFalse:
		return TTrue
	default:
		return TUnknown
	}
}

func TernaryAnd(a, b Ternary) Ternary { return min(a, b) }
func TernaryOr(a, b Ternary) Ternary  { return max(a, b) }

func TernaryXor(a, b Ternary) Ternary {
	if a == TUnknown || b == TUnknown {
		return TUnknown
	}
	if a != b {
		return TTrue
	}
	return TFalse
}

// Majority implements the spec's three-way majority vote over the
// {False=0, Unknown=1, True=2} encoding: sum >= 4 is True, sum <= 2 is
// False (using a sum-of-halves comparable to the spec's 0/½/1 scale
// would require floats; instead we map to the spec's own thresholds
// by halving back to the 0/½/1 domain before comparing).
func Majority(a, b, c Ternary) Ternary {
	// Rescale from {0,1,2} to the spec's {0, 0.5, 1} by dividing by 2.
	sum := float64(a)/2 + float64(b)/2 + float64(c)/2
	switch {
	case sum >= 2:
		return TTrue
	case sum <= 1:
		return TFalse
	default:
		return TUnknown
	}
}

// LiteralKind tags the variant held by a Literal.
type LiteralKind int

const (
	LitUnit LiteralKind = iota
	LitBool
	LitTernary
	LitInt
	LitFloat
	LitString
)

// Literal is the tagged union `Unit | Bool | Ternary | Int | Float |
// String` from §3. Only the field matching Kind is meaningful.
type Literal struct {
	Kind    LiteralKind
	Bool    bool
	Ternary Ternary
	Int     int64
	Float   float64
	Str     string
}

func (l Literal) String() string {
	switch l.Kind {
	case LitUnit:
		return "()"
	case LitBool:
		return fmt.Sprintf("%t", l.Bool)
	case LitTernary:
		return l.Ternary.String()
	case LitInt:
		return fmt.Sprintf("%d", l.Int)
	case LitFloat:
		return fmt.Sprintf("%g", l.Float)
	case LitString:
		return fmt.Sprintf("%q", l.Str)
	default:
		return "<bad-literal>"
	}
}

// ---------------------------------------------------------------------------
// Patterns

// Pattern is the closed sum `Wildcard | Var | Literal | Tuple | ...`.
// Per §9, only Wildcard, Var, and Tuple currently bind in the
// evaluator; List patterns parse, Record patterns have no surface
// syntax, and neither is lowered.
type Pattern interface {
	patternNode()
	PatSpan() Span
}

type WildcardPattern struct{ Span Span }

func (*WildcardPattern) patternNode()        {}
func (p *WildcardPattern) PatSpan() Span     { return p.Span }
func (p *WildcardPattern) String() string    { return "_" }

type VarPattern struct {
	Name Symbol
	Span Span
}

func (*VarPattern) patternNode()     {}
func (p *VarPattern) PatSpan() Span  { return p.Span }
func (p *VarPattern) String() string { return string(p.Name) }

type LiteralPattern struct {
	Lit  Literal
	Span Span
}

func (*LiteralPattern) patternNode()     {}
func (p *LiteralPattern) PatSpan() Span  { return p.Span }
func (p *LiteralPattern) String() string { return p.Lit.String() }

type TuplePattern struct {
	Elems []Pattern
	Span  Span
}

func (*TuplePattern) patternNode()    {}
func (p *TuplePattern) PatSpan() Span { return p.Span }
func (p *TuplePattern) String() string {
	parts := make([]string, len(p.Elems))
	for i, e := range p.Elems {
		parts[i] = fmt.Sprint(e)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// ListPattern is accepted by the parser; RecordPattern is never built
// by it (only the .betc decoder produces one). Neither is lowered by
// the evaluator (§9 "Pattern binding" incompleteness,
// preserved on purpose rather than silently papered over).
type ListPattern struct {
	Elems []Pattern
	Span  Span
}

func (*ListPattern) patternNode()    {}
func (p *ListPattern) PatSpan() Span { return p.Span }

type RecordFieldPattern struct {
	Name Symbol
	Pat  Pattern
}

type RecordPattern struct {
	Fields []RecordFieldPattern
	Span   Span
}

func (*RecordPattern) patternNode()    {}
func (p *RecordPattern) PatSpan() Span { return p.Span }

// ---------------------------------------------------------------------------
// Expressions

// Expr is the central sum type from §3's table.
type Expr interface {
	exprNode()
	ExprSpan() Span
}

type LiteralExpr struct {
	Lit  Literal
	Span Span
}

func (*LiteralExpr) exprNode()        {}
func (e *LiteralExpr) ExprSpan() Span { return e.Span }

type VarExpr struct {
	Name Symbol
	Span Span
}

func (*VarExpr) exprNode()        {}
func (e *VarExpr) ExprSpan() Span { return e.Span }

// BetExpr is the uniform ternary bet: exactly three alternatives,
// enforced by the parser (§4.2) rather than by the Go type (a
// 3-tuple of fields, not a slice, makes "exactly three" a structural
// invariant instead of a runtime check).
type BetExpr struct {
	A0, A1, A2 Expr
	Span       Span
}

func (*BetExpr) exprNode()        {}
func (e *BetExpr) ExprSpan() Span { return e.Span }

type WeightedAlt struct {
	Value  Expr
	Weight Expr
}

type WeightedBetExpr struct {
	Alts [3]WeightedAlt
	Span Span
}

func (*WeightedBetExpr) exprNode()        {}
func (e *WeightedBetExpr) ExprSpan() Span { return e.Span }

type ConditionalBetExpr struct {
	Cond               Expr
	IfTrue             Expr
	IfFalse0, IfFalse1, IfFalse2 Expr
	Span               Span
}

func (*ConditionalBetExpr) exprNode()        {}
func (e *ConditionalBetExpr) ExprSpan() Span { return e.Span }

type IfExpr struct {
	Cond, Then, Else Expr
	Span             Span
}

func (*IfExpr) exprNode()        {}
func (e *IfExpr) ExprSpan() Span { return e.Span }

type MatchArm struct {
	Pattern Pattern
	Guard   Expr // nil if absent
	Body    Expr
}

type MatchExpr struct {
	Scrutinee Expr
	Arms      []MatchArm
	Span      Span
}

func (*MatchExpr) exprNode()        {}
func (e *MatchExpr) ExprSpan() Span { return e.Span }

type LetExpr struct {
	Pattern Pattern
	Value   Expr
	Body    Expr // nil for a top-level module-item let with no `in`
	IsRec   bool
	Span    Span
}

func (*LetExpr) exprNode()        {}
func (e *LetExpr) ExprSpan() Span { return e.Span }

type LambdaExpr struct {
	Params []Pattern
	Body   Expr
	Span   Span
}

func (*LambdaExpr) exprNode()        {}
func (e *LambdaExpr) ExprSpan() Span { return e.Span }

type AppExpr struct {
	Fn   Expr
	Args []Expr
	Span Span
}

func (*AppExpr) exprNode()        {}
func (e *AppExpr) ExprSpan() Span { return e.Span }

type TupleExpr struct {
	Elems []Expr
	Span  Span
}

func (*TupleExpr) exprNode()        {}
func (e *TupleExpr) ExprSpan() Span { return e.Span }

type ListExpr struct {
	Elems []Expr
	Span  Span
}

func (*ListExpr) exprNode()        {}
func (e *ListExpr) ExprSpan() Span { return e.Span }

type RecordField struct {
	Name  Symbol
	Value Expr
}

type RecordExpr struct {
	Fields []RecordField
	Span   Span
}

func (*RecordExpr) exprNode()        {}
func (e *RecordExpr) ExprSpan() Span { return e.Span }

type FieldExpr struct {
	Obj  Expr
	Name Symbol
	Span Span
}

func (*FieldExpr) exprNode()        {}
func (e *FieldExpr) ExprSpan() Span { return e.Span }

type IndexExpr struct {
	Obj   Expr
	Index Expr
	Span  Span
}

func (*IndexExpr) exprNode()        {}
func (e *IndexExpr) ExprSpan() Span { return e.Span }

// BinOpKind enumerates §3's operator alphabet for BinOp.
type BinOpKind int

const (
	OpAdd BinOpKind = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpPow
	OpEq
	OpNeq
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
	OpXor
	OpConcat // ++ on strings/lists
	OpCons   // ::
	OpAppend // list ++ is the same as OpConcat; kept distinct for clarity
	OpCompose // >>
)

var binOpNames = map[BinOpKind]string{
	OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/", OpMod: "%", OpPow: "^",
	OpEq: "==", OpNeq: "!=", OpLt: "<", OpLe: "<=", OpGt: ">", OpGe: ">=",
	OpAnd: "&&", OpOr: "||", OpXor: "xor", OpConcat: "++", OpCons: "::",
	OpAppend: "++", OpCompose: ">>",
}

func (k BinOpKind) String() string { return binOpNames[k] }

type BinOpExpr struct {
	Op   BinOpKind
	L, R Expr
	Span Span
}

func (*BinOpExpr) exprNode()        {}
func (e *BinOpExpr) ExprSpan() Span { return e.Span }

type UnOpKind int

const (
	OpNeg UnOpKind = iota
	OpNot
	OpSample
)

func (k UnOpKind) String() string {
	switch k {
	case OpNeg:
		return "-"
	case OpNot:
		return "not"
	case OpSample:
		return "sample"
	default:
		return "?"
	}
}

type UnOpExpr struct {
	Op   UnOpKind
	X    Expr
	Span Span
}

func (*UnOpExpr) exprNode()        {}
func (e *UnOpExpr) ExprSpan() Span { return e.Span }

type SampleExpr struct {
	Dist Expr
	Span Span
}

func (*SampleExpr) exprNode()        {}
func (e *SampleExpr) ExprSpan() Span { return e.Span }

type ObserveExpr struct {
	Dist  Expr
	Value Expr
	Span  Span
}

func (*ObserveExpr) exprNode()        {}
func (e *ObserveExpr) ExprSpan() Span { return e.Span }

// InferMethod enumerates §3's inference engines.
type InferMethod int

const (
	MethodMCMC InferMethod = iota
	MethodHMC
	MethodSMC
	MethodVI
	MethodRejection
	MethodImportance
)

var inferMethodNames = map[InferMethod]string{
	MethodMCMC: "mcmc", MethodHMC: "hmc", MethodSMC: "smc", MethodVI: "vi",
	MethodRejection: "rejection", MethodImportance: "importance",
}

func (m InferMethod) String() string { return inferMethodNames[m] }

// ParseInferMethod maps a surface-syntax token (MCMC, HMC, SMC, VI, or
// a bare lowercase identifier like `rejection`/`importance`) to an
// InferMethod. Any other spelling reports false, which the parser turns
// into an "unknown inference method" parse error.
func ParseInferMethod(s string) (InferMethod, bool) {
	switch strings.ToLower(s) {
	case "mcmc":
		return MethodMCMC, true
	case "hmc":
		return MethodHMC, true
	case "smc":
		return MethodSMC, true
	case "vi":
		return MethodVI, true
	case "rejection":
		return MethodRejection, true
	case "importance":
		return MethodImportance, true
	default:
		return 0, false
	}
}

type InferParam struct {
	Name  Symbol
	Value Expr
}

type InferExpr struct {
	Method InferMethod
	Params []InferParam
	Model  Expr
	Span   Span
}

func (*InferExpr) exprNode()        {}
func (e *InferExpr) ExprSpan() Span { return e.Span }

type ParallelExpr struct {
	N    Expr
	Body Expr
	Span Span
}

func (*ParallelExpr) exprNode()        {}
func (e *ParallelExpr) ExprSpan() Span { return e.Span }

// DoStmt is one statement in a Do block: Bind(p,e) | Let(p,e) | Expr(e).
type DoStmtKind int

const (
	DoBind DoStmtKind = iota
	DoLet
	DoExprStmt
)

type DoStmt struct {
	Kind    DoStmtKind
	Pattern Pattern // nil for DoExprStmt
	Value   Expr
}

// DoExpr is the monadic-sequencing block. Per §3's invariant, Stmts is
// non-empty and the final statement is DoExprStmt.
type DoExpr struct {
	Stmts []DoStmt
	Span  Span
}

func (*DoExpr) exprNode()        {}
func (e *DoExpr) ExprSpan() Span { return e.Span }

// TypeAnn is an uninterpreted type annotation: the stub checker (§9)
// only compares these structurally for the bet triple-equality rule,
// so a name plus optional type arguments is enough surface to carry.
type TypeAnn struct {
	Name Symbol
	Args []TypeAnn
	Span Span
}

func (t TypeAnn) String() string {
	if len(t.Args) == 0 {
		return string(t.Name)
	}
	parts := make([]string, len(t.Args))
	for i, a := range t.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s<%s>", t.Name, strings.Join(parts, ", "))
}

type AnnotateExpr struct {
	X    Expr
	Type TypeAnn
	Span Span
}

func (*AnnotateExpr) exprNode()        {}
func (e *AnnotateExpr) ExprSpan() Span { return e.Span }

// HoleExpr raises a runtime error if ever evaluated; Name is optional
// (an unnamed hole is written `?`).
type HoleExpr struct {
	Name *Symbol
	Span Span
}

func (*HoleExpr) exprNode()        {}
func (e *HoleExpr) ExprSpan() Span { return e.Span }

// ErrorExpr is the compilation-failure sentinel the parser emits in
// place of a node it could not recover, so that surrounding structure
// (a Module's other items, a Do block's later statements) can still be
// inspected by tooling that tolerates partial ASTs.
type ErrorExpr struct {
	Message string
	Span    Span
}

func (*ErrorExpr) exprNode()        {}
func (e *ErrorExpr) ExprSpan() Span { return e.Span }

// ---------------------------------------------------------------------------
// Modules

type LetDef struct {
	Name    Symbol
	Params  []Pattern
	TypeAnn *TypeAnn
	Body    Expr
	IsRec   bool
}

// IsFunction reports whether this let defines a function (has
// parameters) as opposed to a plain value binding.
func (d LetDef) IsFunction() bool { return len(d.Params) > 0 }

type TypeDef struct {
	Name Symbol
	// Definition is left uninterpreted text for the stub checker era;
	// a full type-definition grammar is an open extension point (§9).
	Definition string
}

type Import struct {
	Path []Symbol
}

// Item is a module-level declaration: Let | TypeDef | Import | Expr.
type Item interface {
	itemNode()
}

type LetItem struct{ Def LetDef }
type TypeDefItem struct{ Def TypeDef }
type ImportItem struct{ Import Import }
type ExprItem struct{ Expr Expr }

func (LetItem) itemNode()     {}
func (TypeDefItem) itemNode() {}
func (ImportItem) itemNode()  {}
func (ExprItem) itemNode()    {}

type Module struct {
	Name  *Symbol
	Items []Spanned[Item]
	Span  Span
}
