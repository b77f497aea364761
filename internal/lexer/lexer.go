// Package lexer turns betlang source text into a stream of spanned
// tokens. Grounded in the teacher's runtime/lexer package: an ASCII
// classification table built once in init, a single-pass rune reader
// over the whole input, and an optional debug slog.Logger gated by an
// environment variable.
package lexer

import (
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/hyperpolymath/betlang/internal/token"
)

var (
	isDigit     [128]bool
	isIdentStart [128]bool
	isIdentPart  [128]bool
	isSpace      [128]bool
)

func init() {
	for i := 0; i < 128; i++ {
		ch := byte(i)
		isDigit[i] = ch >= '0' && ch <= '9'
		isIdentStart[i] = (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
		isIdentPart[i] = isIdentStart[i] || isDigit[i]
		isSpace[i] = ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n'
	}
}

// Error reports an unrecognizable rune at a byte offset, per §4.1's
// LexError::InvalidToken(offset).
type Error struct {
	Offset int
	Rune   rune
}

func (e *Error) Error() string {
	return "lex error: invalid token at offset " + itoa(e.Offset)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Lexer holds the full input and a cursor over it; it is restartable
// via Next and exposes LexAll for one-shot consumers like the parser
// generator's token feed.
type Lexer struct {
	input  string
	pos    int // byte offset of ch
	readPos int
	ch     rune
	chSize int
	line   int
	col    int

	logger *slog.Logger
}

// New constructs a Lexer over src. A nil logger is replaced by a text
// logger on stderr at Info level, or Debug level when BETLANG_DEBUG is
// set, so hot-path lexing isn't paying for log formatting in normal
// operation.
func New(src string, logger *slog.Logger) *Lexer {
	if logger == nil {
		level := slog.LevelInfo
		if os.Getenv("BETLANG_DEBUG") != "" {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	}
	l := &Lexer{input: src, line: 1, col: 1, logger: logger}
	l.advance()
	return l
}

func (l *Lexer) advance() {
	if l.ch == '\n' {
		l.line++
		l.col = 1
	} else if l.chSize > 0 {
		l.col++
	}
	if l.readPos >= len(l.input) {
		l.ch = 0
		l.chSize = 0
		l.pos = l.readPos
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.readPos:])
	l.pos = l.readPos
	l.ch = r
	l.chSize = size
	l.readPos += size
}

func (l *Lexer) peek() rune {
	if l.readPos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPos:])
	return r
}

func (l *Lexer) peekAt(off int) rune {
	p := l.readPos
	for i := 0; i < off && p < len(l.input); i++ {
		_, sz := utf8.DecodeRuneInString(l.input[p:])
		p += sz
	}
	if p >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[p:])
	return r
}

// Next scans and returns the next token. At end of input it returns an
// EOF token forever (callers should stop on seeing it).
func (l *Lexer) Next() (token.Token, error) {
	l.skipWhitespaceAndComments()

	startPos, startLine, startCol := l.pos, l.line, l.col

	if l.ch == 0 {
		return l.tok(token.EOF, "", startPos, startLine, startCol), nil
	}

	switch {
	case l.ch < 128 && isIdentStart[l.ch]:
		return l.lexIdentOrKeyword(startPos, startLine, startCol), nil
	case l.ch < 128 && isDigit[l.ch]:
		return l.lexNumber(startPos, startLine, startCol)
	case l.ch == '\'':
		return l.lexTyVar(startPos, startLine, startCol)
	case l.ch == '"':
		return l.lexString(startPos, startLine, startCol)
	default:
		return l.lexOperatorOrPunct(startPos, startLine, startCol)
	}
}

func (l *Lexer) tok(t token.Type, val string, start, line, col int) token.Token {
	return token.Token{Type: t, Value: val, Span: token.Span{Start: start, End: l.pos}, Line: line, Col: col}
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		if l.ch < 128 && isSpace[l.ch] {
			l.advance()
			continue
		}
		if l.ch == '-' && l.peek() == '-' {
			for l.ch != '\n' && l.ch != 0 {
				l.advance()
			}
			continue
		}
		if l.ch == '{' && l.peek() == '-' {
			l.advance()
			l.advance()
			for !(l.ch == '-' && l.peek() == '}') && l.ch != 0 {
				l.advance()
			}
			if l.ch != 0 {
				l.advance()
				l.advance()
			}
			continue
		}
		break
	}
}

func (l *Lexer) lexIdentOrKeyword(start, line, col int) token.Token {
	var sb strings.Builder
	for l.ch != 0 && l.ch < 128 && isIdentPart[l.ch] {
		sb.WriteRune(l.ch)
		l.advance()
	}
	text := sb.String()
	if kw, ok := token.Keywords[text]; ok {
		return l.tok(kw, text, start, line, col)
	}
	l.logger.Debug("lex ident", "text", text, "offset", start)
	return l.tok(token.IDENT, text, start, line, col)
}

func (l *Lexer) lexTyVar(start, line, col int) (token.Token, error) {
	l.advance() // consume '
	var sb strings.Builder
	for l.ch != 0 && l.ch < 128 && isIdentPart[l.ch] {
		sb.WriteRune(l.ch)
		l.advance()
	}
	return l.tok(token.TYVAR, "'"+sb.String(), start, line, col), nil
}

func (l *Lexer) lexNumber(start, line, col int) (token.Token, error) {
	var sb strings.Builder
	for l.ch != 0 && l.ch < 128 && isDigit[l.ch] {
		sb.WriteRune(l.ch)
		l.advance()
	}
	isFloat := false
	if l.ch == '.' && l.peek() < 128 && isDigit[l.peek()] {
		isFloat = true
		sb.WriteRune(l.ch)
		l.advance()
		for l.ch != 0 && l.ch < 128 && isDigit[l.ch] {
			sb.WriteRune(l.ch)
			l.advance()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		save := sb.String()
		var exp strings.Builder
		exp.WriteRune(l.ch)
		savedPos, savedCh, savedReadPos, savedLine, savedCol := l.pos, l.ch, l.readPos, l.line, l.col
		l.advance()
		if l.ch == '+' || l.ch == '-' {
			exp.WriteRune(l.ch)
			l.advance()
		}
		if l.ch != 0 && l.ch < 128 && isDigit[l.ch] {
			isFloat = true
			for l.ch != 0 && l.ch < 128 && isDigit[l.ch] {
				exp.WriteRune(l.ch)
				l.advance()
			}
			sb.WriteString(exp.String())
		} else {
			// not actually an exponent; rewind
			l.pos, l.ch, l.readPos, l.line, l.col = savedPos, savedCh, savedReadPos, savedLine, savedCol
			sb.Reset()
			sb.WriteString(save)
		}
	}
	if isFloat {
		return l.tok(token.FLOAT, sb.String(), start, line, col), nil
	}
	return l.tok(token.INT, sb.String(), start, line, col), nil
}

func (l *Lexer) lexString(start, line, col int) (token.Token, error) {
	l.advance() // opening quote
	var sb strings.Builder
	for l.ch != '"' {
		if l.ch == 0 {
			return token.Token{}, &Error{Offset: l.pos, Rune: 0}
		}
		if l.ch == '\\' {
			l.advance()
			switch l.ch {
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			case 'r':
				sb.WriteRune('\r')
			case '"':
				sb.WriteRune('"')
			case '\\':
				sb.WriteRune('\\')
			default:
				sb.WriteRune(l.ch)
			}
			l.advance()
			continue
		}
		sb.WriteRune(l.ch)
		l.advance()
	}
	l.advance() // closing quote
	return l.tok(token.STRING, sb.String(), start, line, col), nil
}

// two- and three-char operator table, tried longest-first.
var multiCharOps = []struct {
	text string
	typ  token.Type
}{
	{"::", token.COLONCOLON},
	{"++", token.PLUSPLUS},
	{"==", token.EQ},
	{"!=", token.NEQ},
	{"<=", token.LE},
	{">=", token.GE},
	{"&&", token.ANDAND},
	{"||", token.OROR},
	{">>", token.RSHIFT},
	{"|>", token.PIPE_GT},
	{"<-", token.LARROW},
	{"->", token.RARROW},
	{"=>", token.FATARROW},
}

var singleCharOps = map[rune]token.Type{
	'+': token.PLUS, '-': token.MINUS, '*': token.STAR, '/': token.SLASH,
	'%': token.PERCENT, '^': token.CARET, '<': token.LT, '>': token.GT,
	'(': token.LPAREN, ')': token.RPAREN, '[': token.LBRACK, ']': token.RBRACK,
	'{': token.LBRACE, '}': token.RBRACE, ',': token.COMMA, ';': token.SEMI,
	':': token.COLON, '.': token.DOT, '=': token.ASSIGN, '@': token.AT,
	'|': token.BAR, '_': token.UNDERSCORE, '?': token.QUESTION, '\\': token.BACKSLASH,
	'~': token.TILDE,
}

func (l *Lexer) lexOperatorOrPunct(start, line, col int) (token.Token, error) {
	rest := l.input[l.pos:]
	for _, op := range multiCharOps {
		if strings.HasPrefix(rest, op.text) {
			for range op.text {
				l.advance()
			}
			return l.tok(op.typ, op.text, start, line, col), nil
		}
	}
	ch := l.ch
	if t, ok := singleCharOps[ch]; ok {
		l.advance()
		return l.tok(t, string(ch), start, line, col), nil
	}
	offset := l.pos
	bad := l.ch
	l.advance()
	return token.Token{}, &Error{Offset: offset, Rune: bad}
}

// LexAll drains the lexer into a slice, stopping after (and including)
// the EOF token, or returns the first lex error encountered.
func LexAll(src string, logger *slog.Logger) ([]token.Token, error) {
	l := New(src, logger)
	var toks []token.Token
	for {
		t, err := l.Next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, t)
		if t.Type == token.EOF {
			return toks, nil
		}
	}
}
