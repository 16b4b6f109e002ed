// Package hostapi is the language-neutral surface an embedding host (editor
// service, CLI, or other caller) drives: parse, tokenize, validate, solve,
// and editor-assist queries. Every exported function returns a structured
// result and never panics. Validate and the Solve family fold every failure
// into their result; Parse, ParseResilient and GetFormulas report parse
// failures as the parser's own *parser.Error values.
package hostapi

import (
	"github.com/rationlp/rationlp/internal/ast"
	"github.com/rationlp/rationlp/internal/diagnostics"
	"github.com/rationlp/rationlp/internal/parser"
	"github.com/rationlp/rationlp/internal/token"
)

// Parse runs the strict parser: fails at the first error.
func Parse(source string) (*ast.Program, error) {
	return parser.Parse(source)
}

// ParseResilient runs the error-recovering parser: always returns the best
// AST it could build, plus every error it recovered from.
func ParseResilient(source string) (*ast.Program, []*parser.Error) {
	return parser.ParseResilient(source)
}

// Tokenize returns every lexical token of source, including whitespace and
// comments, so span concatenation reconstructs the input bytes.
func Tokenize(source string) []token.Token {
	return token.Tokenize(source)
}

// Diagnostic is one finding surfaced to the host: either a parse error or a
// semantic-validator diagnostic, normalized to a single shape.
type Diagnostic struct {
	Span     ast.Span
	Severity string // "error" | "warning"
	Message  string
}

// Validate parses source resiliently and runs the semantic validator over
// whatever AST resulted, returning every diagnostic found. A source that
// fails to parse at all still yields its parse-error diagnostics.
func Validate(source string) []Diagnostic {
	prog, perrs := parser.ParseResilient(source)
	out := make([]Diagnostic, 0, len(perrs))
	for _, e := range perrs {
		out = append(out, Diagnostic{Span: e.Span, Severity: "error", Message: e.Error()})
	}
	if prog != nil {
		for _, d := range diagnostics.Validate(prog) {
			out = append(out, Diagnostic{Span: d.Span, Severity: d.Severity.String(), Message: d.Message})
		}
	}
	return out
}

// TokenClass is the semantic classification of one token for editor syntax
// highlighting.
type TokenClass string

const (
	ClassKeyword    TokenClass = "keyword"
	ClassVariable   TokenClass = "variable"
	ClassType       TokenClass = "type"
	ClassNumber     TokenClass = "number"
	ClassString     TokenClass = "string"
	ClassComment    TokenClass = "comment"
	ClassDelimiter  TokenClass = "delimiter"
	ClassOperator   TokenClass = "operator"
	ClassWhitespace TokenClass = "whitespace"
	ClassError      TokenClass = "error"
	ClassClassKind  TokenClass = "class" // identifiers immediately preceding a '.'
)

// SemanticToken pairs a source span with its highlighting class.
type SemanticToken struct {
	Span  ast.Span
	Class TokenClass
}

// GetSemanticTokens classifies every token of source for editor
// highlighting. An identifier immediately followed by `.` is classed
// "class"; an identifier immediately preceded by `as` is classed "type".
func GetSemanticTokens(source string) []SemanticToken {
	toks := token.Tokenize(source)
	out := make([]SemanticToken, 0, len(toks))
	for i, t := range toks {
		out = append(out, SemanticToken{Span: t.Span, Class: classify(toks, i)})
	}
	return out
}

func classify(toks []token.Token, i int) TokenClass {
	t := toks[i]
	switch t.Kind {
	case token.Nutrient, token.Ingredient, token.Formula, token.Import, token.Template, token.Min, token.Max, token.As:
		return ClassKeyword
	case token.Number:
		return ClassNumber
	case token.String:
		return ClassString
	case token.Comment:
		return ClassComment
	case token.Newline, token.Whitespace, token.Eof:
		return ClassWhitespace
	case token.Error:
		return ClassError
	case token.Plus, token.Minus, token.Star, token.Slash, token.Percent, token.Colon:
		return ClassOperator
	case token.Dot, token.Comma:
		return ClassOperator
	case token.LBrace, token.RBrace, token.LBracket, token.RBracket, token.LParen, token.RParen:
		return ClassDelimiter
	case token.Ident:
		if i > 0 && precedingNonTrivial(toks, i) == token.As {
			return ClassType
		}
		if j := followingNonTrivial(toks, i); j >= 0 && toks[j].Kind == token.Dot {
			return ClassClassKind
		}
		return ClassVariable
	default:
		return ClassVariable
	}
}

func precedingNonTrivial(toks []token.Token, i int) token.Kind {
	for j := i - 1; j >= 0; j-- {
		if isTrivia(toks[j].Kind) {
			continue
		}
		return toks[j].Kind
	}
	return token.Eof
}

func followingNonTrivial(toks []token.Token, i int) int {
	for j := i + 1; j < len(toks); j++ {
		if isTrivia(toks[j].Kind) {
			continue
		}
		return j
	}
	return -1
}

func isTrivia(k token.Kind) bool {
	return k == token.Newline || k == token.Whitespace || k == token.Comment
}
