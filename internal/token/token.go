// Package token defines the lexical tokens of the rationlp language and the
// lexer that produces them.
package token

import "fmt"

// Span is a half-open byte range [Start, End) into a source buffer.
type Span struct {
	Start int
	End   int
}

// Merge returns the smallest span covering both s and other.
func (s Span) Merge(other Span) Span {
	start := s.Start
	if other.Start < start {
		start = other.Start
	}
	end := s.End
	if other.End > end {
		end = other.End
	}
	return Span{Start: start, End: end}
}

func (s Span) String() string {
	return fmt.Sprintf("%d..%d", s.Start, s.End)
}

// Kind identifies the lexical class of a Token.
type Kind int

const (
	// Keywords
	Nutrient Kind = iota
	Ingredient
	Formula
	Import
	Template
	Min
	Max
	As

	// Literals
	Ident
	Number
	String

	// Operators
	Plus
	Minus
	Star
	Slash
	Percent
	Dot
	Colon
	Comma

	// Delimiters
	LBrace
	RBrace
	LBracket
	RBracket
	LParen
	RParen

	// Special
	Newline
	Whitespace
	Comment
	Eof
	Error
)

var kindNames = map[Kind]string{
	Nutrient:   "nutrient",
	Ingredient: "ingredient",
	Formula:    "formula",
	Import:     "import",
	Template:   "template",
	Min:        "min",
	Max:        "max",
	As:         "as",
	Ident:      "ident",
	Number:     "number",
	String:     "string",
	Plus:       "+",
	Minus:      "-",
	Star:       "*",
	Slash:      "/",
	Percent:    "%",
	Dot:        ".",
	Colon:      ":",
	Comma:      ",",
	LBrace:     "{",
	RBrace:     "}",
	LBracket:   "[",
	RBracket:   "]",
	LParen:     "(",
	RParen:     ")",
	Newline:    "newline",
	Whitespace: "whitespace",
	Comment:    "comment",
	Eof:        "eof",
	Error:      "error",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Token is a single lexical unit with its source span and literal text.
type Token struct {
	Kind Kind
	Span Span
	Text string
}

var keywords = map[string]Kind{
	"nutrient":   Nutrient,
	"ingredient": Ingredient,
	"formula":    Formula,
	"import":     Import,
	"template":   Template,
	"min":        Min,
	"max":        Max,
	"as":         As,
}
