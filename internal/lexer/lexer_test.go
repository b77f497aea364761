package lexer_test

import (
	"testing"

	"github.com/hyperpolymath/betlang/internal/lexer"
	"github.com/hyperpolymath/betlang/internal/token"
	"github.com/stretchr/testify/require"
)

func TestLexAllSkipsWhitespaceAndComments(t *testing.T) {
	toks, err := lexer.LexAll("let x = 1 -- a comment\nin x", nil)
	require.NoError(t, err)

	var types []token.Type
	for _, tk := range toks {
		types = append(types, tk.Type)
	}
	require.Equal(t, []token.Type{
		token.LET, token.IDENT, token.ASSIGN, token.INT,
		token.IN, token.IDENT, token.EOF,
	}, types)
}

func TestLexAllRecognizesKeywordsOverIdentifiers(t *testing.T) {
	toks, err := lexer.LexAll("bet let infer mcmc_thing", nil)
	require.NoError(t, err)
	require.Equal(t, token.BET, toks[0].Type)
	require.Equal(t, token.LET, toks[1].Type)
	require.Equal(t, token.INFER, toks[2].Type)
	require.Equal(t, token.IDENT, toks[3].Type) // mcmc_thing is not the MCMC keyword
}

func TestLexNumbers(t *testing.T) {
	toks, err := lexer.LexAll("42 3.14", nil)
	require.NoError(t, err)
	require.Equal(t, token.INT, toks[0].Type)
	require.Equal(t, "42", toks[0].Value)
	require.Equal(t, token.FLOAT, toks[1].Type)
	require.Equal(t, "3.14", toks[1].Value)
}

func TestLexStringEscapes(t *testing.T) {
	toks, err := lexer.LexAll(`"hello\nworld"`, nil)
	require.NoError(t, err)
	require.Equal(t, token.STRING, toks[0].Type)
	require.Equal(t, "hello\nworld", toks[0].Value)
}

func TestLexOperators(t *testing.T) {
	toks, err := lexer.LexAll(">> |> -> => <- :: ++ == != <= >=", nil)
	require.NoError(t, err)
	want := []token.Type{
		token.RSHIFT, token.PIPE_GT, token.RARROW, token.FATARROW, token.LARROW,
		token.COLONCOLON, token.PLUSPLUS, token.EQ, token.NEQ, token.LE, token.GE,
		token.EOF,
	}
	require.Len(t, toks, len(want))
	for i, w := range want {
		require.Equal(t, w, toks[i].Type, "token %d", i)
	}
}

func TestLexIllegalCharacterErrors(t *testing.T) {
	_, err := lexer.LexAll("let x = `", nil)
	require.Error(t, err)
}
