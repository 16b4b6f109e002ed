package hostapi

import (
	"strings"

	"github.com/rationlp/rationlp/internal/ast"
	"github.com/rationlp/rationlp/internal/token"
)

// CompletionKind tags what a Completion suggests.
type CompletionKind string

const (
	CompletionKeyword CompletionKind = "keyword"
	CompletionBlock   CompletionKind = "block"
	CompletionItem    CompletionKind = "item"
	CompletionField   CompletionKind = "field"
)

// Completion is one candidate at a given cursor position.
type Completion struct {
	Label string
	Kind  CompletionKind
}

type blockFrame struct {
	kind string // "nutrient" | "ingredient" | "formula" | "nutrients" | "ingredients"
}

// GetCompletions resolves completion candidates at byteOffset: context is
// the innermost enclosing block (by brace nesting) and, on the current
// line, the dotted prefix preceding the cursor. Results are filtered by
// the user's typed prefix, case-insensitive.
func GetCompletions(source string, byteOffset int) []Completion {
	prog, _ := ParseResilient(source)
	toks := token.Tokenize(source)

	frames := enclosingFrames(toks, byteOffset)
	lineStart := strings.LastIndexByte(source[:clamp(byteOffset, len(source))], '\n') + 1
	linePrefix := source[lineStart:clamp(byteOffset, len(source))]

	dotted, typed := splitDottedPrefix(linePrefix)

	var candidates []Completion
	switch len(dotted) {
	case 0:
		candidates = topLevelCandidates(prog, frames)
	case 1:
		candidates = blockNameCandidates(prog, dotted[0])
	case 2:
		candidates = itemCandidates(prog, dotted[0], dotted[1])
	default:
		candidates = []Completion{{Label: "min", Kind: CompletionField}, {Label: "max", Kind: CompletionField}}
	}

	return filterByPrefix(candidates, typed)
}

func clamp(n, max int) int {
	if n < 0 {
		return 0
	}
	if n > max {
		return max
	}
	return n
}

// enclosingFrames walks tokens before byteOffset tracking brace depth and
// returns the stack of enclosing block frames, outermost first.
func enclosingFrames(toks []token.Token, byteOffset int) []blockFrame {
	var stack []blockFrame
	var pendingKind string
	for _, t := range toks {
		if t.Span.Start >= byteOffset {
			break
		}
		switch t.Kind {
		case token.Nutrient:
			pendingKind = "nutrient"
		case token.Ingredient:
			pendingKind = "ingredient"
		case token.Formula:
			pendingKind = "formula"
		case token.Ident:
			switch canonicalBlock(t.Text) {
			case "nutrients":
				pendingKind = "nutrients"
			case "ingredients":
				pendingKind = "ingredients"
			}
		case token.LBrace:
			stack = append(stack, blockFrame{kind: pendingKind})
			pendingKind = ""
		case token.RBrace:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}
	return stack
}

func canonicalBlock(s string) string {
	switch s {
	case "nuts":
		return "nutrients"
	case "ings":
		return "ingredients"
	default:
		return s
	}
}

// splitDottedPrefix splits the trailing identifier-dot-identifier run at
// the end of linePrefix into its dotted segments plus the partial (typed)
// final segment.
func splitDottedPrefix(linePrefix string) (dotted []string, typed string) {
	i := len(linePrefix)
	for i > 0 && isIdentOrDot(linePrefix[i-1]) {
		i--
	}
	run := linePrefix[i:]
	if run == "" {
		return nil, ""
	}
	parts := strings.Split(run, ".")
	if len(parts) == 0 {
		return nil, ""
	}
	typed = parts[len(parts)-1]
	dotted = parts[:len(parts)-1]
	return dotted, typed
}

func isIdentOrDot(b byte) bool {
	return b == '.' || b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func topLevelCandidates(prog *ast.Program, frames []blockFrame) []Completion {
	if len(frames) == 0 {
		return []Completion{
			{Label: "nutrient", Kind: CompletionKeyword},
			{Label: "ingredient", Kind: CompletionKeyword},
			{Label: "formula", Kind: CompletionKeyword},
			{Label: "template", Kind: CompletionKeyword},
			{Label: "import", Kind: CompletionKeyword},
		}
	}
	switch frames[len(frames)-1].kind {
	case "nutrients":
		var out []Completion
		for _, n := range collectNames(prog, nutrientNames) {
			out = append(out, Completion{Label: n, Kind: CompletionItem})
		}
		if enclosingIsFormula(frames) {
			for _, n := range collectNames(prog, formulaNames) {
				out = append(out, Completion{Label: n, Kind: CompletionItem})
			}
		} else {
			for _, n := range collectNames(prog, ingredientNames) {
				out = append(out, Completion{Label: n, Kind: CompletionItem})
			}
		}
		return out
	case "ingredients":
		var out []Completion
		for _, n := range collectNames(prog, ingredientNames) {
			out = append(out, Completion{Label: n, Kind: CompletionItem})
		}
		if enclosingIsFormula(frames) {
			for _, n := range collectNames(prog, formulaNames) {
				out = append(out, Completion{Label: n, Kind: CompletionItem})
			}
		}
		return out
	default:
		return []Completion{
			{Label: "cost", Kind: CompletionField},
			{Label: "batch_size", Kind: CompletionField},
			{Label: "description", Kind: CompletionField},
			{Label: "nutrients", Kind: CompletionBlock},
			{Label: "ingredients", Kind: CompletionBlock},
		}
	}
}

func enclosingIsFormula(frames []blockFrame) bool {
	for i := len(frames) - 2; i >= 0; i-- {
		if frames[i].kind == "formula" {
			return true
		}
	}
	return false
}

func blockNameCandidates(prog *ast.Program, name string) []Completion {
	if !isKnownName(prog, name) {
		return nil
	}
	return []Completion{
		{Label: "nutrients", Kind: CompletionBlock},
		{Label: "ingredients", Kind: CompletionBlock},
	}
}

func itemCandidates(prog *ast.Program, name, block string) []Completion {
	if !isKnownName(prog, name) {
		return nil
	}
	var out []Completion
	switch canonicalBlock(block) {
	case "nutrients":
		for _, n := range collectNames(prog, nutrientNames) {
			out = append(out, Completion{Label: n, Kind: CompletionItem})
		}
	case "ingredients":
		for _, n := range collectNames(prog, ingredientNames) {
			out = append(out, Completion{Label: n, Kind: CompletionItem})
		}
	}
	return out
}

func isKnownName(prog *ast.Program, name string) bool {
	for _, n := range collectNames(prog, ingredientNames) {
		if n == name {
			return true
		}
	}
	for _, n := range collectNames(prog, formulaNames) {
		if n == name {
			return true
		}
	}
	return false
}

func nutrientNames(prog *ast.Program) []string {
	var out []string
	for _, item := range prog.Items {
		if item.Nutrient != nil {
			out = append(out, item.Nutrient.Name)
		}
	}
	return out
}

func ingredientNames(prog *ast.Program) []string {
	var out []string
	for _, item := range prog.Items {
		if item.Ingredient != nil {
			out = append(out, item.Ingredient.Name)
		}
	}
	return out
}

func formulaNames(prog *ast.Program) []string {
	var out []string
	for _, item := range prog.Items {
		if item.Formula != nil {
			out = append(out, item.Formula.Name)
		}
	}
	return out
}

func collectNames(prog *ast.Program, f func(*ast.Program) []string) []string {
	if prog == nil {
		return nil
	}
	return f(prog)
}

func filterByPrefix(candidates []Completion, prefix string) []Completion {
	if prefix == "" {
		return candidates
	}
	lower := strings.ToLower(prefix)
	var out []Completion
	for _, c := range candidates {
		if strings.HasPrefix(strings.ToLower(c.Label), lower) {
			out = append(out, c)
		}
	}
	return out
}
