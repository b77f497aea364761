package parser

import (
	"fmt"

	"github.com/hyperpolymath/betlang/internal/ast"
	"github.com/hyperpolymath/betlang/internal/lexer"
	"github.com/hyperpolymath/betlang/internal/token"
)

// Error is the parser's error family from §4.2/§7:
// Lexer(LexError) | Parse{location,message} | UnexpectedEof | UnexpectedToken{found,expected}.
type Error struct {
	Kind       ErrorKind
	Location   ast.Span
	Message    string
	Found      token.Token
	Expected   []token.Type
	WrappedLex *lexer.Error
}

type ErrorKind int

const (
	ErrLexer ErrorKind = iota
	ErrParse
	ErrUnexpectedEof
	ErrUnexpectedToken
)

func (e *Error) Error() string {
	switch e.Kind {
	case ErrLexer:
		return fmt.Sprintf("lex error: %v", e.WrappedLex)
	case ErrUnexpectedEof:
		return "unexpected end of input"
	case ErrUnexpectedToken:
		return fmt.Sprintf("unexpected token %s at %s, expected one of %v", e.Found.Type, e.Found.Span, e.Expected)
	default:
		return fmt.Sprintf("parse error at %s: %s", e.Location, e.Message)
	}
}

func (e *Error) Unwrap() error {
	if e.WrappedLex != nil {
		return e.WrappedLex
	}
	return nil
}

func errFromLex(err *lexer.Error) *Error {
	return &Error{Kind: ErrLexer, WrappedLex: err, Location: ast.Span{Start: err.Offset, End: err.Offset}}
}

func errUnexpectedEof(at ast.Span) *Error {
	return &Error{Kind: ErrUnexpectedEof, Location: at}
}

func errUnexpectedToken(found token.Token, expected ...token.Type) *Error {
	return &Error{Kind: ErrUnexpectedToken, Found: found, Expected: expected, Location: found.Span}
}

func errParse(at ast.Span, format string, args ...any) *Error {
	return &Error{Kind: ErrParse, Location: at, Message: fmt.Sprintf(format, args...)}
}

// bracketTracker keeps a stack of the parentheses open while a
// parenthesized expression is parsed. Error messages do not include
// the opener's position.
// Grounded in the teacher's runtime/parser/errors.go BracketTracker.
type bracketTracker struct {
	stack []openBracket
}

type openBracket struct {
	typ     token.Type
	tok     token.Token
	context string
}

func (bt *bracketTracker) push(typ token.Type, tok token.Token, context string) {
	bt.stack = append(bt.stack, openBracket{typ, tok, context})
}

func (bt *bracketTracker) pop() (openBracket, bool) {
	if len(bt.stack) == 0 {
		return openBracket{}, false
	}
	top := bt.stack[len(bt.stack)-1]
	bt.stack = bt.stack[:len(bt.stack)-1]
	return top, true
}
