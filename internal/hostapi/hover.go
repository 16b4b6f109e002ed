package hostapi

import (
	"fmt"

	"github.com/rationlp/rationlp/internal/ast"
	"github.com/rationlp/rationlp/internal/token"
)

// Hover is the information shown for the identifier under the cursor.
type Hover struct {
	Span ast.Span
	Text string
}

// GetHover resolves a short description of the identifier at byteOffset:
// its declared kind plus, where known, its cost/batch_size/unit.
func GetHover(source string, byteOffset int) *Hover {
	prog, _ := ParseResilient(source)
	if prog == nil {
		return nil
	}
	toks := token.Tokenize(source)
	var ident *token.Token
	for i := range toks {
		t := toks[i]
		if t.Kind == token.Ident && t.Span.Start <= byteOffset && byteOffset < t.Span.End {
			ident = &toks[i]
			break
		}
	}
	if ident == nil {
		return nil
	}
	name := ident.Text

	for _, item := range prog.Items {
		switch {
		case item.Nutrient != nil && item.Nutrient.Name == name:
			return &Hover{Span: ident.Span, Text: describeNutrient(item.Nutrient)}
		case item.Ingredient != nil && item.Ingredient.Name == name:
			return &Hover{Span: ident.Span, Text: describeIngredient(item.Ingredient)}
		case item.Formula != nil && item.Formula.Name == name:
			return &Hover{Span: ident.Span, Text: describeFormula(item.Formula)}
		}
	}
	return nil
}

func describeNutrient(n *ast.Nutrient) string {
	return fmt.Sprintf("nutrient %s", n.Name)
}

func describeIngredient(ing *ast.Ingredient) string {
	kind := "ingredient"
	if ing.IsTemplate {
		kind = "template ingredient"
	}
	return fmt.Sprintf("%s %s", kind, ing.Name)
}

func describeFormula(f *ast.Formula) string {
	kind := "formula"
	if f.IsTemplate {
		kind = "template formula"
	}
	return fmt.Sprintf("%s %s", kind, f.Name)
}
