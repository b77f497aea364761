// Package parser turns a betlang token stream into an AST: a Module
// for whole-program input, or a bare Expr for REPL-style input.
//
// The grammar is a standard precedence-climbing recursive descent
// parser; §4.2's precedence table (lowest to highest: pipe/compose,
// ||, &&, equality, relational, cons/append, additive, multiplicative,
// power, unary, application, postfix selection) maps directly onto one
// parse function per level, grounded in the teacher's
// runtime/parser/parser.go layering (one method per syntactic rung,
// plus a bracketTracker stack of open parentheses).
package parser

import (
	"strconv"

	"github.com/hyperpolymath/betlang/internal/ast"
	"github.com/hyperpolymath/betlang/internal/lexer"
	"github.com/hyperpolymath/betlang/internal/token"
)

type Parser struct {
	src      string
	toks     []token.Token
	pos      int
	brackets bracketTracker
}

// Parse parses whole-program source into a Module.
func Parse(src string) (*ast.Module, *Error) {
	p, err := newParser(src)
	if err != nil {
		return nil, err
	}
	return p.parseModule()
}

// ParseExpr parses a single expression (REPL-style input).
func ParseExpr(src string) (ast.Expr, *Error) {
	p, err := newParser(src)
	if err != nil {
		return nil, err
	}
	e, perr := p.parseExpr()
	if perr != nil {
		return nil, perr
	}
	if !p.check(token.EOF) {
		return nil, errUnexpectedToken(p.cur(), token.EOF)
	}
	return e, nil
}

func newParser(src string) (*Parser, *Error) {
	toks, err := lexer.LexAll(src, nil)
	if err != nil {
		if lexErr, ok := err.(*lexer.Error); ok {
			return nil, errFromLex(lexErr)
		}
		return nil, errParse(token.DummySpan, "%v", err)
	}
	return &Parser{src: src, toks: toks}, nil
}

// ---------------------------------------------------------------------------
// Token stream helpers

func (p *Parser) cur() token.Token {
	if p.pos >= len(p.toks) {
		return p.toks[len(p.toks)-1] // EOF
	}
	return p.toks[p.pos]
}

func (p *Parser) check(t token.Type) bool { return p.cur().Type == t }

func (p *Parser) checkAny(ts ...token.Type) bool {
	for _, t := range ts {
		if p.check(t) {
			return true
		}
	}
	return false
}

func (p *Parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) expect(t token.Type) (token.Token, *Error) {
	if !p.check(t) {
		if p.check(token.EOF) {
			return token.Token{}, errUnexpectedEof(p.cur().Span)
		}
		return token.Token{}, errUnexpectedToken(p.cur(), t)
	}
	return p.advance(), nil
}

func span(start, end ast.Span) ast.Span { return ast.Span{Start: start.Start, End: end.End} }

// ---------------------------------------------------------------------------
// Module

func (p *Parser) parseModule() (*ast.Module, *Error) {
	start := p.cur().Span
	var name *ast.Symbol

	if p.check(token.MODULE) {
		p.advance()
		nameTok, err := p.expect(token.IDENT)
		if err != nil {
			return nil, err
		}
		sym := ast.Symbol(nameTok.Value)
		name = &sym
		if p.check(token.SEMI) {
			p.advance()
		}
	}

	var items []ast.Spanned[ast.Item]
	for !p.check(token.EOF) {
		item, itemSpan, err := p.parseItem()
		if err != nil {
			return nil, err
		}
		items = append(items, ast.Spanned[ast.Item]{Node: item, Span: itemSpan})
		for p.check(token.SEMI) {
			p.advance()
		}
	}

	end := p.cur().Span
	return &ast.Module{Name: name, Items: items, Span: span(start, end)}, nil
}

func (p *Parser) parseItem() (ast.Item, ast.Span, *Error) {
	start := p.cur().Span
	switch {
	case p.check(token.IMPORT):
		return p.parseImport(start)
	case p.check(token.TYPE):
		return p.parseTypeDef(start)
	case p.check(token.LET):
		return p.parseTopLevelLet(start)
	default:
		e, err := p.parseExpr()
		if err != nil {
			return nil, ast.Span{}, err
		}
		return ast.ExprItem{Expr: e}, span(start, e.ExprSpan()), nil
	}
}

func (p *Parser) parseImport(start ast.Span) (ast.Item, ast.Span, *Error) {
	p.advance() // import
	var path []ast.Symbol
	first, err := p.expect(token.IDENT)
	if err != nil {
		return nil, ast.Span{}, err
	}
	path = append(path, ast.Symbol(first.Value))
	end := first.Span
	for p.check(token.DOT) {
		p.advance()
		seg, err := p.expect(token.IDENT)
		if err != nil {
			return nil, ast.Span{}, err
		}
		path = append(path, ast.Symbol(seg.Value))
		end = seg.Span
	}
	return ast.ImportItem{Import: ast.Import{Path: path}}, span(start, end), nil
}

func (p *Parser) parseTypeDef(start ast.Span) (ast.Item, ast.Span, *Error) {
	p.advance() // type
	nameTok, err := p.expect(token.IDENT)
	if err != nil {
		return nil, ast.Span{}, err
	}
	if _, err := p.expect(token.ASSIGN); err != nil {
		return nil, ast.Span{}, err
	}
	defStart := p.cur().Span.Start
	for !p.checkAny(token.SEMI, token.EOF) {
		p.advance()
	}
	defEnd := p.cur().Span.Start
	raw := ""
	if defStart <= len(p.src) && defEnd <= len(p.src) && defStart <= defEnd {
		raw = p.src[defStart:defEnd]
	}
	return ast.TypeDefItem{Def: ast.TypeDef{Name: ast.Symbol(nameTok.Value), Definition: raw}},
		ast.Span{Start: start.Start, End: defEnd}, nil
}

func (p *Parser) parseTopLevelLet(start ast.Span) (ast.Item, ast.Span, *Error) {
	p.advance() // let
	isRec := false
	if p.check(token.REC) {
		isRec = true
		p.advance()
	}
	nameTok, err := p.expect(token.IDENT)
	if err != nil {
		return nil, ast.Span{}, err
	}
	var params []ast.Pattern
	for p.canStartPattern() {
		pat, err := p.parsePattern()
		if err != nil {
			return nil, ast.Span{}, err
		}
		params = append(params, pat)
	}
	var typeAnn *ast.TypeAnn
	if p.check(token.COLON) {
		p.advance()
		ta, err := p.parseTypeAnn()
		if err != nil {
			return nil, ast.Span{}, err
		}
		typeAnn = &ta
	}
	if _, err := p.expect(token.ASSIGN); err != nil {
		return nil, ast.Span{}, err
	}
	body, err := p.parseExpr()
	if err != nil {
		return nil, ast.Span{}, err
	}
	if p.check(token.IN) {
		p.advance()
		rest, err := p.parseExpr()
		if err != nil {
			return nil, ast.Span{}, err
		}
		letExpr := &ast.LetExpr{
			Pattern: &ast.VarPattern{Name: ast.Symbol(nameTok.Value), Span: nameTok.Span},
			Value:   wrapParams(params, body),
			Body:    rest,
			IsRec:   isRec,
			Span:    span(start, rest.ExprSpan()),
		}
		return ast.ExprItem{Expr: letExpr}, letExpr.Span, nil
	}
	def := ast.LetDef{Name: ast.Symbol(nameTok.Value), Params: params, TypeAnn: typeAnn, Body: body, IsRec: isRec}
	return ast.LetItem{Def: def}, span(start, body.ExprSpan()), nil
}

// wrapParams turns `let f p1 p2 = body` into the value `fun p1 p2 -> body`
// so that a top-level function def and a `let f = fun ... -> ...` share
// one evaluator/codegen path.
func wrapParams(params []ast.Pattern, body ast.Expr) ast.Expr {
	if len(params) == 0 {
		return body
	}
	return &ast.LambdaExpr{Params: params, Body: body, Span: body.ExprSpan()}
}

func (p *Parser) parseTypeAnn() (ast.TypeAnn, *Error) {
	nameTok, err := p.expect(token.IDENT)
	if err != nil {
		return ast.TypeAnn{}, err
	}
	ta := ast.TypeAnn{Name: ast.Symbol(nameTok.Value), Span: nameTok.Span}
	if p.check(token.LT) {
		p.advance()
		for {
			arg, err := p.parseTypeAnn()
			if err != nil {
				return ast.TypeAnn{}, err
			}
			ta.Args = append(ta.Args, arg)
			if p.check(token.COMMA) {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(token.GT); err != nil {
			return ast.TypeAnn{}, err
		}
	}
	return ta, nil
}

// ---------------------------------------------------------------------------
// Expressions: precedence climbing

func (p *Parser) parseExpr() (ast.Expr, *Error) { return p.parsePipeCompose() }

func (p *Parser) parsePipeCompose() (ast.Expr, *Error) {
	left, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	for p.checkAny(token.PIPE_GT, token.RSHIFT) {
		op := p.advance()
		right, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if op.Type == token.PIPE_GT {
			left = &ast.AppExpr{Fn: right, Args: []ast.Expr{left}, Span: span(left.ExprSpan(), right.ExprSpan())}
		} else {
			left = &ast.BinOpExpr{Op: ast.OpCompose, L: left, R: right, Span: span(left.ExprSpan(), right.ExprSpan())}
		}
	}
	return left, nil
}

func (p *Parser) parseOr() (ast.Expr, *Error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.check(token.OROR) {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &ast.BinOpExpr{Op: ast.OpOr, L: left, R: right, Span: span(left.ExprSpan(), right.ExprSpan())}
	}
	return left, nil
}

func (p *Parser) parseAnd() (ast.Expr, *Error) {
	left, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.check(token.ANDAND) {
		p.advance()
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		left = &ast.BinOpExpr{Op: ast.OpAnd, L: left, R: right, Span: span(left.ExprSpan(), right.ExprSpan())}
	}
	return left, nil
}

var equalityOps = map[token.Type]ast.BinOpKind{token.EQ: ast.OpEq, token.NEQ: ast.OpNeq}
var relationalOps = map[token.Type]ast.BinOpKind{
	token.LT: ast.OpLt, token.LE: ast.OpLe, token.GT: ast.OpGt, token.GE: ast.OpGe,
}

// Comparisons are non-associative (§4.2): at most one operator at this
// level, no chaining like `a == b == c`.
func (p *Parser) parseEquality() (ast.Expr, *Error) {
	left, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	if op, ok := equalityOps[p.cur().Type]; ok {
		p.advance()
		right, err := p.parseRelational()
		if err != nil {
			return nil, err
		}
		return &ast.BinOpExpr{Op: op, L: left, R: right, Span: span(left.ExprSpan(), right.ExprSpan())}, nil
	}
	return left, nil
}

func (p *Parser) parseRelational() (ast.Expr, *Error) {
	left, err := p.parseConsAppend()
	if err != nil {
		return nil, err
	}
	if op, ok := relationalOps[p.cur().Type]; ok {
		p.advance()
		right, err := p.parseConsAppend()
		if err != nil {
			return nil, err
		}
		return &ast.BinOpExpr{Op: op, L: left, R: right, Span: span(left.ExprSpan(), right.ExprSpan())}, nil
	}
	return left, nil
}

// parseConsAppend handles :: and ++ at one precedence level. Both are
// folded right-to-left: natural for :: (cons must right-associate so
// `a :: b :: c` builds a proper list) and harmless for ++ (list/string
// append is associative either way).
func (p *Parser) parseConsAppend() (ast.Expr, *Error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if !p.checkAny(token.COLONCOLON, token.PLUSPLUS) {
		return left, nil
	}
	var operands []ast.Expr
	var ops []ast.BinOpKind
	operands = append(operands, left)
	for p.checkAny(token.COLONCOLON, token.PLUSPLUS) {
		t := p.advance()
		if t.Type == token.COLONCOLON {
			ops = append(ops, ast.OpCons)
		} else {
			ops = append(ops, ast.OpConcat)
		}
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		operands = append(operands, right)
	}
	result := operands[len(operands)-1]
	for i := len(ops) - 1; i >= 0; i-- {
		l := operands[i]
		result = &ast.BinOpExpr{Op: ops[i], L: l, R: result, Span: span(l.ExprSpan(), result.ExprSpan())}
	}
	return result, nil
}

var additiveOps = map[token.Type]ast.BinOpKind{token.PLUS: ast.OpAdd, token.MINUS: ast.OpSub}

func (p *Parser) parseAdditive() (ast.Expr, *Error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := additiveOps[p.cur().Type]
		if !ok {
			return left, nil
		}
		p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &ast.BinOpExpr{Op: op, L: left, R: right, Span: span(left.ExprSpan(), right.ExprSpan())}
	}
}

var multiplicativeOps = map[token.Type]ast.BinOpKind{
	token.STAR: ast.OpMul, token.SLASH: ast.OpDiv, token.PERCENT: ast.OpMod,
}

func (p *Parser) parseMultiplicative() (ast.Expr, *Error) {
	left, err := p.parsePower()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := multiplicativeOps[p.cur().Type]
		if !ok {
			return left, nil
		}
		p.advance()
		right, err := p.parsePower()
		if err != nil {
			return nil, err
		}
		left = &ast.BinOpExpr{Op: op, L: left, R: right, Span: span(left.ExprSpan(), right.ExprSpan())}
	}
}

// parsePower is right-associative: a ^ b ^ c == a ^ (b ^ c).
func (p *Parser) parsePower() (ast.Expr, *Error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if p.check(token.CARET) {
		p.advance()
		right, err := p.parsePower()
		if err != nil {
			return nil, err
		}
		return &ast.BinOpExpr{Op: ast.OpPow, L: left, R: right, Span: span(left.ExprSpan(), right.ExprSpan())}, nil
	}
	return left, nil
}

func (p *Parser) parseUnary() (ast.Expr, *Error) {
	switch p.cur().Type {
	case token.MINUS:
		start := p.advance().Span
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnOpExpr{Op: ast.OpNeg, X: x, Span: span(start, x.ExprSpan())}, nil
	case token.NOT:
		start := p.advance().Span
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnOpExpr{Op: ast.OpNot, X: x, Span: span(start, x.ExprSpan())}, nil
	case token.SAMPLE:
		start := p.advance().Span
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.SampleExpr{Dist: x, Span: span(start, x.ExprSpan())}, nil
	default:
		return p.parseApp()
	}
}

// parseApp implements juxtaposition application: `f a b` parses as
// App(f, [a, b]) by greedily consuming postfix-level operands as long
// as the next token can start one.
func (p *Parser) parseApp() (ast.Expr, *Error) {
	fn, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	var args []ast.Expr
	for p.canStartAppArg() {
		arg, err := p.parsePostfix()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	if len(args) == 0 {
		return fn, nil
	}
	return &ast.AppExpr{Fn: fn, Args: args, Span: span(fn.ExprSpan(), args[len(args)-1].ExprSpan())}, nil
}

// canStartAppArg excludes `{`, which opens the block of `match e { ... }`
// and `parallel n { ... }`, and any token that starts a new line at
// column 1, which begins the next top-level item.
func (p *Parser) canStartAppArg() bool {
	if cur := p.cur(); p.pos > 0 && cur.Col == 1 && cur.Line > p.toks[p.pos-1].Line {
		return false
	}
	switch p.cur().Type {
	case token.IDENT, token.INT, token.FLOAT, token.STRING, token.TRUE, token.FALSE,
		token.UNKNOWN, token.LPAREN, token.LBRACK, token.BACKSLASH:
		return true
	default:
		return false
	}
}

func (p *Parser) parsePostfix() (ast.Expr, *Error) {
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.cur().Type {
		case token.DOT:
			p.advance()
			nameTok, err := p.expect(token.IDENT)
			if err != nil {
				return nil, err
			}
			e = &ast.FieldExpr{Obj: e, Name: ast.Symbol(nameTok.Value), Span: span(e.ExprSpan(), nameTok.Span)}
		case token.LBRACK:
			p.advance()
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			end, err := p.expect(token.RBRACK)
			if err != nil {
				return nil, err
			}
			e = &ast.IndexExpr{Obj: e, Index: idx, Span: span(e.ExprSpan(), end.Span)}
		default:
			return e, nil
		}
	}
}

func (p *Parser) parsePrimary() (ast.Expr, *Error) {
	tok := p.cur()
	switch tok.Type {
	case token.INT:
		p.advance()
		n, convErr := strconv.ParseInt(tok.Value, 10, 64)
		if convErr != nil {
			return nil, errParse(tok.Span, "invalid integer literal %q", tok.Value)
		}
		return &ast.LiteralExpr{Lit: ast.Literal{Kind: ast.LitInt, Int: n}, Span: tok.Span}, nil
	case token.FLOAT:
		p.advance()
		f, convErr := strconv.ParseFloat(tok.Value, 64)
		if convErr != nil {
			return nil, errParse(tok.Span, "invalid float literal %q", tok.Value)
		}
		return &ast.LiteralExpr{Lit: ast.Literal{Kind: ast.LitFloat, Float: f}, Span: tok.Span}, nil
	case token.STRING:
		p.advance()
		return &ast.LiteralExpr{Lit: ast.Literal{Kind: ast.LitString, Str: tok.Value}, Span: tok.Span}, nil
	case token.TRUE:
		p.advance()
		return &ast.LiteralExpr{Lit: ast.Literal{Kind: ast.LitBool, Bool: true}, Span: tok.Span}, nil
	case token.FALSE:
		p.advance()
		return &ast.LiteralExpr{Lit: ast.Literal{Kind: ast.LitBool, Bool: false}, Span: tok.Span}, nil
	case token.UNKNOWN:
		p.advance()
		return &ast.LiteralExpr{Lit: ast.Literal{Kind: ast.LitTernary, Ternary: ast.TUnknown}, Span: tok.Span}, nil
	case token.IDENT:
		p.advance()
		return &ast.VarExpr{Name: ast.Symbol(tok.Value), Span: tok.Span}, nil
	case token.QUESTION:
		p.advance()
		return &ast.HoleExpr{Span: tok.Span}, nil
	case token.LPAREN:
		return p.parseParenOrTuple()
	case token.LBRACK:
		return p.parseList()
	case token.LBRACE:
		return p.parseRecord()
	case token.BACKSLASH:
		return p.parseLambdaBackslash()
	case token.FUN:
		return p.parseLambdaFun()
	case token.LET:
		return p.parseLet()
	case token.IF:
		return p.parseIf()
	case token.MATCH:
		return p.parseMatch()
	case token.DO:
		return p.parseDo()
	case token.BET:
		return p.parseBet()
	case token.PARALLEL:
		return p.parseParallel()
	case token.OBSERVE:
		return p.parseObserve()
	case token.INFER:
		return p.parseInfer()
	default:
		if p.check(token.EOF) {
			return nil, errUnexpectedEof(tok.Span)
		}
		return nil, errUnexpectedToken(tok)
	}
}

func (p *Parser) parseParenOrTuple() (ast.Expr, *Error) {
	start := p.advance().Span // (
	p.brackets.push(token.LPAREN, token.Token{Span: start}, "parenthesized expression")
	if p.check(token.RPAREN) {
		end := p.advance().Span
		p.brackets.pop()
		return &ast.LiteralExpr{Lit: ast.Literal{Kind: ast.LitUnit}, Span: span(start, end)}, nil
	}
	first, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.check(token.COMMA) {
		elems := []ast.Expr{first}
		for p.check(token.COMMA) {
			p.advance()
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
		}
		end, err := p.expect(token.RPAREN)
		if err != nil {
			return nil, err
		}
		p.brackets.pop()
		return &ast.TupleExpr{Elems: elems, Span: span(start, end.Span)}, nil
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	p.brackets.pop()
	return first, nil
}

func (p *Parser) parseList() (ast.Expr, *Error) {
	start := p.advance().Span // [
	var elems []ast.Expr
	if !p.check(token.RBRACK) {
		for {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
			if p.check(token.COMMA) {
				p.advance()
				continue
			}
			break
		}
	}
	end, err := p.expect(token.RBRACK)
	if err != nil {
		return nil, err
	}
	return &ast.ListExpr{Elems: elems, Span: span(start, end.Span)}, nil
}

func (p *Parser) parseRecord() (ast.Expr, *Error) {
	start := p.advance().Span // {
	var fields []ast.RecordField
	if !p.check(token.RBRACE) {
		for {
			nameTok, err := p.expect(token.IDENT)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.ASSIGN); err != nil {
				return nil, err
			}
			val, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			fields = append(fields, ast.RecordField{Name: ast.Symbol(nameTok.Value), Value: val})
			if p.check(token.COMMA) {
				p.advance()
				continue
			}
			break
		}
	}
	end, err := p.expect(token.RBRACE)
	if err != nil {
		return nil, err
	}
	return &ast.RecordExpr{Fields: fields, Span: span(start, end.Span)}, nil
}

func (p *Parser) parseLambdaBackslash() (ast.Expr, *Error) {
	start := p.advance().Span // backslash
	var params []ast.Pattern
	for p.canStartPattern() {
		pat, err := p.parsePattern()
		if err != nil {
			return nil, err
		}
		params = append(params, pat)
	}
	if _, err := p.expect(token.RARROW); err != nil {
		return nil, err
	}
	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.LambdaExpr{Params: params, Body: body, Span: span(start, body.ExprSpan())}, nil
}

func (p *Parser) parseLambdaFun() (ast.Expr, *Error) {
	start := p.advance().Span // fun
	var params []ast.Pattern
	for p.canStartPattern() {
		pat, err := p.parsePattern()
		if err != nil {
			return nil, err
		}
		params = append(params, pat)
	}
	if _, err := p.expect(token.RARROW); err != nil {
		return nil, err
	}
	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.LambdaExpr{Params: params, Body: body, Span: span(start, body.ExprSpan())}, nil
}

func (p *Parser) parseLet() (ast.Expr, *Error) {
	start := p.advance().Span // let
	isRec := false
	if p.check(token.REC) {
		isRec = true
		p.advance()
	}
	pat, err := p.parsePattern()
	if err != nil {
		return nil, err
	}
	if p.check(token.COLON) {
		p.advance()
		if _, err := p.parseTypeAnn(); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.ASSIGN); err != nil {
		return nil, err
	}
	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	var body ast.Expr
	end := value.ExprSpan()
	if p.check(token.IN) {
		p.advance()
		body, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
		end = body.ExprSpan()
	}
	return &ast.LetExpr{Pattern: pat, Value: value, Body: body, IsRec: isRec, Span: span(start, end)}, nil
}

func (p *Parser) parseIf() (ast.Expr, *Error) {
	start := p.advance().Span // if
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.THEN); err != nil {
		return nil, err
	}
	then, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.ELSE); err != nil {
		return nil, err
	}
	els, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	end := els.ExprSpan()
	if p.check(token.END) {
		end = p.advance().Span
	}
	return &ast.IfExpr{Cond: cond, Then: then, Else: els, Span: span(start, end)}, nil
}

func (p *Parser) parseMatch() (ast.Expr, *Error) {
	start := p.advance().Span // match
	scrutinee, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	useBrace := p.check(token.LBRACE)
	if useBrace {
		p.advance()
	}
	var arms []ast.MatchArm
	for {
		pat, err := p.parsePattern()
		if err != nil {
			return nil, err
		}
		var guard ast.Expr
		if p.check(token.IF) {
			p.advance()
			guard, err = p.parseExpr()
			if err != nil {
				return nil, err
			}
		}
		if _, err := p.expect(token.RARROW); err != nil {
			return nil, err
		}
		body, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		arms = append(arms, ast.MatchArm{Pattern: pat, Guard: guard, Body: body})
		if p.check(token.SEMI) {
			p.advance()
			if useBrace && p.check(token.RBRACE) {
				break
			}
			if !useBrace && p.check(token.END) {
				break
			}
			continue
		}
		break
	}
	end := p.cur().Span
	if useBrace {
		endTok, err := p.expect(token.RBRACE)
		if err != nil {
			return nil, err
		}
		end = endTok.Span
	} else if p.check(token.END) {
		end = p.advance().Span
	}
	return &ast.MatchExpr{Scrutinee: scrutinee, Arms: arms, Span: span(start, end)}, nil
}

func (p *Parser) parseDo() (ast.Expr, *Error) {
	start := p.advance().Span // do
	useBrace := p.check(token.LBRACE)
	if useBrace {
		p.advance()
	}
	var stmts []ast.DoStmt
	for {
		stmt, err := p.parseDoStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
		if p.check(token.SEMI) {
			p.advance()
			if useBrace && p.check(token.RBRACE) {
				break
			}
			if !useBrace && p.check(token.END) {
				break
			}
			continue
		}
		break
	}
	if len(stmts) == 0 || stmts[len(stmts)-1].Kind != ast.DoExprStmt {
		return nil, errParse(start, "do block must end with a bare expression statement")
	}
	end := p.cur().Span
	if useBrace {
		endTok, err := p.expect(token.RBRACE)
		if err != nil {
			return nil, err
		}
		end = endTok.Span
	} else if p.check(token.END) {
		end = p.advance().Span
	}
	return &ast.DoExpr{Stmts: stmts, Span: span(start, end)}, nil
}

func (p *Parser) parseDoStmt() (ast.DoStmt, *Error) {
	if p.check(token.LET) {
		p.advance()
		pat, err := p.parsePattern()
		if err != nil {
			return ast.DoStmt{}, err
		}
		if _, err := p.expect(token.ASSIGN); err != nil {
			return ast.DoStmt{}, err
		}
		val, err := p.parseExpr()
		if err != nil {
			return ast.DoStmt{}, err
		}
		return ast.DoStmt{Kind: ast.DoLet, Pattern: pat, Value: val}, nil
	}
	// Try `pattern <- expr`; fall back to a bare expression statement.
	save := p.pos
	if pat, perr := p.tryParseBindPattern(); perr == nil {
		if p.check(token.LARROW) {
			p.advance()
			val, err := p.parseExpr()
			if err != nil {
				return ast.DoStmt{}, err
			}
			return ast.DoStmt{Kind: ast.DoBind, Pattern: pat, Value: val}, nil
		}
	}
	p.pos = save
	e, err := p.parseExpr()
	if err != nil {
		return ast.DoStmt{}, err
	}
	return ast.DoStmt{Kind: ast.DoExprStmt, Value: e}, nil
}

// tryParseBindPattern parses a pattern without committing to it being
// a Bind statement; the caller rewinds if `<-` doesn't follow.
func (p *Parser) tryParseBindPattern() (ast.Pattern, *Error) {
	if !p.canStartPattern() {
		return nil, errUnexpectedToken(p.cur())
	}
	return p.parsePattern()
}

func (p *Parser) parseBet() (ast.Expr, *Error) {
	start := p.advance().Span // bet
	if p.check(token.IF) {
		return p.parseConditionalBet(start)
	}
	useBrace := p.check(token.LBRACE)
	if useBrace {
		p.advance()
	}
	first, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.check(token.AT) {
		return p.parseWeightedBetRest(start, useBrace, first)
	}
	if _, err := p.expect(token.COMMA); err != nil {
		return nil, err
	}
	second, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.COMMA); err != nil {
		return nil, err
	}
	third, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	end := third.ExprSpan()
	if useBrace {
		endTok, err := p.expect(token.RBRACE)
		if err != nil {
			return nil, err
		}
		end = endTok.Span
	} else if p.check(token.END) {
		end = p.advance().Span
	} else {
		return nil, errParse(third.ExprSpan(), "bet must have exactly three alternatives")
	}
	if p.check(token.COMMA) {
		return nil, errParse(p.cur().Span, "bet must have exactly three alternatives")
	}
	return &ast.BetExpr{A0: first, A1: second, A2: third, Span: span(start, end)}, nil
}

func (p *Parser) parseWeightedBetRest(start ast.Span, useBrace bool, first ast.Expr) (ast.Expr, *Error) {
	p.advance() // @
	w0, err := p.parseWeight()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.COMMA); err != nil {
		return nil, err
	}
	second, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.AT); err != nil {
		return nil, err
	}
	w1, err := p.parseWeight()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.COMMA); err != nil {
		return nil, err
	}
	third, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.AT); err != nil {
		return nil, err
	}
	w2, err := p.parseWeight()
	if err != nil {
		return nil, err
	}
	end := w2.ExprSpan()
	if useBrace {
		endTok, err := p.expect(token.RBRACE)
		if err != nil {
			return nil, err
		}
		end = endTok.Span
	} else if p.check(token.END) {
		end = p.advance().Span
	}
	alts := [3]ast.WeightedAlt{{first, w0}, {second, w1}, {third, w2}}
	return &ast.WeightedBetExpr{Alts: alts, Span: span(start, end)}, nil
}

func (p *Parser) parseWeight() (ast.Expr, *Error) { return p.parseAdditive() }

func (p *Parser) parseConditionalBet(start ast.Span) (ast.Expr, *Error) {
	p.advance() // if
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.THEN); err != nil {
		return nil, err
	}
	ifTrue, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.ELSE); err != nil {
		return nil, err
	}
	f0, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.COMMA); err != nil {
		return nil, err
	}
	f1, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.COMMA); err != nil {
		return nil, err
	}
	f2, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.ConditionalBetExpr{
		Cond: cond, IfTrue: ifTrue, IfFalse0: f0, IfFalse1: f1, IfFalse2: f2,
		Span: span(start, f2.ExprSpan()),
	}, nil
}

func (p *Parser) parseParallel() (ast.Expr, *Error) {
	start := p.advance().Span // parallel
	n, err := p.parseApp()
	if err != nil {
		return nil, err
	}
	useBrace := p.check(token.LBRACE)
	if useBrace {
		p.advance()
	} else if _, err := p.expect(token.DO); err != nil {
		return nil, err
	}
	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	var end ast.Span
	if useBrace {
		endTok, err := p.expect(token.RBRACE)
		if err != nil {
			return nil, err
		}
		end = endTok.Span
	} else {
		endTok, err := p.expect(token.END)
		if err != nil {
			return nil, err
		}
		end = endTok.Span
	}
	return &ast.ParallelExpr{N: n, Body: body, Span: span(start, end)}, nil
}

func (p *Parser) parseObserve() (ast.Expr, *Error) {
	start := p.advance().Span // observe
	dist, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.TILDE); err != nil {
		return nil, err
	}
	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.ObserveExpr{Dist: dist, Value: value, Span: span(start, value.ExprSpan())}, nil
}

func (p *Parser) parseInfer() (ast.Expr, *Error) {
	start := p.advance().Span // infer
	methodTok := p.cur()
	var method ast.InferMethod
	switch methodTok.Type {
	case token.MCMC:
		method = ast.MethodMCMC
	case token.HMC:
		method = ast.MethodHMC
	case token.SMC:
		method = ast.MethodSMC
	case token.VI:
		method = ast.MethodVI
	case token.IDENT:
		if m, ok := ast.ParseInferMethod(methodTok.Value); ok {
			method = m
		} else {
			return nil, errParse(methodTok.Span, "unknown inference method %q", methodTok.Value)
		}
	default:
		return nil, errUnexpectedToken(methodTok, token.MCMC, token.HMC, token.SMC, token.VI)
	}
	p.advance()

	var params []ast.InferParam
	if p.check(token.LBRACE) {
		p.advance()
		if !p.check(token.RBRACE) {
			for {
				nameTok, err := p.expect(token.IDENT)
				if err != nil {
					return nil, err
				}
				if _, err := p.expect(token.ASSIGN); err != nil {
					return nil, err
				}
				val, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				params = append(params, ast.InferParam{Name: ast.Symbol(nameTok.Value), Value: val})
				if p.check(token.COMMA) {
					p.advance()
					continue
				}
				break
			}
		}
		if _, err := p.expect(token.RBRACE); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.IN); err != nil {
		return nil, err
	}
	model, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.InferExpr{Method: method, Params: params, Model: model, Span: span(start, model.ExprSpan())}, nil
}

// ---------------------------------------------------------------------------
// Patterns

func (p *Parser) canStartPattern() bool {
	switch p.cur().Type {
	case token.IDENT, token.UNDERSCORE, token.LPAREN, token.INT, token.FLOAT,
		token.STRING, token.TRUE, token.FALSE, token.UNKNOWN:
		return true
	default:
		return false
	}
}

func (p *Parser) parsePattern() (ast.Pattern, *Error) {
	tok := p.cur()
	switch tok.Type {
	case token.UNDERSCORE:
		p.advance()
		return &ast.WildcardPattern{Span: tok.Span}, nil
	case token.IDENT:
		p.advance()
		return &ast.VarPattern{Name: ast.Symbol(tok.Value), Span: tok.Span}, nil
	case token.INT:
		p.advance()
		n, _ := strconv.ParseInt(tok.Value, 10, 64)
		return &ast.LiteralPattern{Lit: ast.Literal{Kind: ast.LitInt, Int: n}, Span: tok.Span}, nil
	case token.FLOAT:
		p.advance()
		f, _ := strconv.ParseFloat(tok.Value, 64)
		return &ast.LiteralPattern{Lit: ast.Literal{Kind: ast.LitFloat, Float: f}, Span: tok.Span}, nil
	case token.STRING:
		p.advance()
		return &ast.LiteralPattern{Lit: ast.Literal{Kind: ast.LitString, Str: tok.Value}, Span: tok.Span}, nil
	case token.TRUE:
		p.advance()
		return &ast.LiteralPattern{Lit: ast.Literal{Kind: ast.LitBool, Bool: true}, Span: tok.Span}, nil
	case token.FALSE:
		p.advance()
		return &ast.LiteralPattern{Lit: ast.Literal{Kind: ast.LitBool, Bool: false}, Span: tok.Span}, nil
	case token.UNKNOWN:
		p.advance()
		return &ast.LiteralPattern{Lit: ast.Literal{Kind: ast.LitTernary, Ternary: ast.TUnknown}, Span: tok.Span}, nil
	case token.LPAREN:
		return p.parseTuplePattern()
	case token.LBRACK:
		return p.parseListPattern()
	default:
		return nil, errUnexpectedToken(tok)
	}
}

func (p *Parser) parseTuplePattern() (ast.Pattern, *Error) {
	start := p.advance().Span // (
	if p.check(token.RPAREN) {
		end := p.advance().Span
		return &ast.TuplePattern{Span: span(start, end)}, nil
	}
	first, err := p.parsePattern()
	if err != nil {
		return nil, err
	}
	elems := []ast.Pattern{first}
	for p.check(token.COMMA) {
		p.advance()
		e, err := p.parsePattern()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
	}
	end, err := p.expect(token.RPAREN)
	if err != nil {
		return nil, err
	}
	if len(elems) == 1 {
		return elems[0], nil
	}
	return &ast.TuplePattern{Elems: elems, Span: span(start, end.Span)}, nil
}

func (p *Parser) parseListPattern() (ast.Pattern, *Error) {
	start := p.advance().Span // [
	var elems []ast.Pattern
	if !p.check(token.RBRACK) {
		for {
			e, err := p.parsePattern()
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
			if p.check(token.COMMA) {
				p.advance()
				continue
			}
			break
		}
	}
	end, err := p.expect(token.RBRACK)
	if err != nil {
		return nil, err
	}
	return &ast.ListPattern{Elems: elems, Span: span(start, end.Span)}, nil
}
