package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func kinds(toks []Token) []Kind {
	out := make([]Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

// significant drops whitespace tokens, keeping everything else (including
// newlines and comments) in order.
func significant(toks []Token) []Token {
	var out []Token
	for _, t := range toks {
		if t.Kind != Whitespace {
			out = append(out, t)
		}
	}
	return out
}

func TestTokenizeKeywords(t *testing.T) {
	toks := significant(Tokenize("nutrient ingredient formula import min max"))
	require.Equal(t, []Kind{Nutrient, Ingredient, Formula, Import, Min, Max, Eof}, kinds(toks))
}

func TestTokenizeNumbers(t *testing.T) {
	toks := significant(Tokenize("100 8.5 -20 0.005"))
	texts := make([]string, len(toks))
	for i, tok := range toks {
		texts[i] = tok.Text
	}
	require.Equal(t, []string{"100", "8.5", "-20", "0.005", ""}, texts)
}

func TestTokenizeString(t *testing.T) {
	toks := Tokenize(`"Hello World"`)
	require.Equal(t, String, toks[0].Kind)
	require.Equal(t, `"Hello World"`, toks[0].Text)
}

func TestTokenizeOperators(t *testing.T) {
	toks := significant(Tokenize("+ - * / % . : ,"))
	require.Equal(t, []Kind{Plus, Minus, Star, Slash, Percent, Dot, Colon, Comma, Eof}, kinds(toks))
}

func TestTokenizeComments(t *testing.T) {
	toks := significant(Tokenize("foo // comment\nbar"))
	require.Equal(t, []Kind{Ident, Comment, Newline, Ident, Eof}, kinds(toks))
}

func TestTokenizeFormulaSnippet(t *testing.T) {
	source := "nutrient protein {\n  name \"Crude Protein\"\n}"
	toks := Tokenize(source)
	var filtered []Kind
	for _, tok := range toks {
		if tok.Kind != Newline && tok.Kind != Whitespace {
			filtered = append(filtered, tok.Kind)
		}
	}
	require.Equal(t, []Kind{
		Nutrient, Ident, LBrace, Ident, String, RBrace, Eof,
	}, filtered)
}

func TestUnterminatedBlockComment(t *testing.T) {
	toks := Tokenize("/* unterminated")
	require.Equal(t, Comment, toks[0].Kind)
	require.Equal(t, Eof, toks[1].Kind)
}

// TestSpanCoverage checks the lexer contract that token spans tile the whole
// input: concatenating every span in order reconstructs the source bytes.
func TestSpanCoverage(t *testing.T) {
	source := "nutrient protein { cost 1.5 }\n"
	toks := Tokenize(source)
	var rebuilt []byte
	for _, tok := range toks {
		if tok.Kind == Eof {
			continue
		}
		rebuilt = append(rebuilt, source[tok.Span.Start:tok.Span.End]...)
	}
	require.Equal(t, source, string(rebuilt))
}

func TestSpansAreContiguous(t *testing.T) {
	source := "formula f {\n  batch 10 // target\n}\n"
	toks := Tokenize(source)
	pos := 0
	for _, tok := range toks {
		require.Equal(t, pos, tok.Span.Start)
		pos = tok.Span.End
	}
	require.Equal(t, len(source), pos)
}

func TestMinusNotAdjacentToDigitIsOperator(t *testing.T) {
	toks := significant(Tokenize("x - 5"))
	require.Equal(t, []Kind{Ident, Minus, Number, Eof}, kinds(toks))
}

func TestDotNotFollowedByDigitIsOperator(t *testing.T) {
	toks := Tokenize("corn.cost")
	require.Equal(t, []Kind{Ident, Dot, Ident, Eof}, kinds(toks))
}
