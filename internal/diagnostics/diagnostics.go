// Package diagnostics implements the semantic validator: a set of rules
// run over a parsed program that never abort, only accumulate
// {span, severity, message} records.
package diagnostics

import (
	"fmt"

	"github.com/rationlp/rationlp/internal/ast"
)

// Severity distinguishes a hard error from an advisory warning.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Diagnostic is one validator finding.
type Diagnostic struct {
	Span     ast.Span
	Severity Severity
	Message  string
}

var nutrientProps = map[string]bool{
	"display_name": true, "desc": true, "description": true, "code": true, "unit": true,
}

var ingredientProps = map[string]bool{
	"cost": true, "desc": true, "description": true,
}

var formulaProps = map[string]bool{
	"batch": true, "batch_size": true, "desc": true, "description": true,
}

type catalog struct {
	nutrients   map[string]bool
	ingredients map[string]bool
	formulas    map[string]bool
}

// Validate runs every rule over prog and returns every diagnostic it
// finds; unlike the compiler, the validator never stops at the first error.
func Validate(prog *ast.Program) []Diagnostic {
	var diags []Diagnostic
	cat := &catalog{nutrients: map[string]bool{}, ingredients: map[string]bool{}, formulas: map[string]bool{}}

	nutrientCount := map[string]int{}
	ingredientCount := map[string]int{}
	formulaCount := map[string]int{}

	for _, item := range prog.Items {
		switch {
		case item.Nutrient != nil:
			nutrientCount[item.Nutrient.Name]++
			cat.nutrients[item.Nutrient.Name] = true
		case item.Ingredient != nil:
			ingredientCount[item.Ingredient.Name]++
			cat.ingredients[item.Ingredient.Name] = true
		case item.Formula != nil:
			formulaCount[item.Formula.Name]++
			cat.formulas[item.Formula.Name] = true
		}
	}
	// A nutrient's identity is established by being assigned a direct value
	// somewhere just as much as by a `nutrient NAME {}` declaration (the
	// declaration only adds display metadata); fold those names in too so a
	// plain `protein 8` doesn't require a separate declaration.
	for _, item := range prog.Items {
		if item.Ingredient == nil {
			continue
		}
		for _, nv := range item.Ingredient.Nutrients {
			if nv.HasValue && len(nv.Nutrient.Parts) == 1 && nv.Nutrient.Parts[0].Kind == ast.PartIdent {
				name := nv.Nutrient.Parts[0].Ident
				if !cat.ingredients[name] {
					cat.nutrients[name] = true
				}
			}
		}
	}

	for _, item := range prog.Items {
		switch {
		case item.Nutrient != nil:
			n := item.Nutrient
			if nutrientCount[n.Name] > 1 {
				diags = append(diags, dup(n.Span, "nutrient", n.Name))
			}
			diags = append(diags, checkProps(n.Properties, nutrientProps, "nutrient")...)
		case item.Ingredient != nil:
			ing := item.Ingredient
			if ingredientCount[ing.Name] > 1 {
				diags = append(diags, dup(ing.Span, "ingredient", ing.Name))
			}
			diags = append(diags, checkProps(ing.Properties, ingredientProps, "ingredient")...)
			if !ing.IsTemplate && !hasProp(ing.Properties, "cost") {
				diags = append(diags, Diagnostic{Span: ing.Span, Severity: SeverityWarning,
					Message: fmt.Sprintf("ingredient %q has no cost", ing.Name)})
			}
			diags = append(diags, checkIngredientNutrients(ing, cat)...)
		case item.Formula != nil:
			f := item.Formula
			if formulaCount[f.Name] > 1 {
				diags = append(diags, dup(f.Span, "formula", f.Name))
			}
			diags = append(diags, checkProps(f.Properties, formulaProps, "formula")...)
			if !f.IsTemplate && !hasProp(f.Properties, "batch") && !hasProp(f.Properties, "batch_size") {
				diags = append(diags, Diagnostic{Span: f.Span, Severity: SeverityWarning,
					Message: fmt.Sprintf("formula %q has no batch_size", f.Name)})
			}
			diags = append(diags, checkFormulaNutrients(f, cat)...)
			diags = append(diags, checkFormulaIngredients(f, cat)...)
		}
	}
	return diags
}

func dup(span ast.Span, kind, name string) Diagnostic {
	return Diagnostic{Span: span, Severity: SeverityError, Message: fmt.Sprintf("duplicate %s %q", kind, name)}
}

func hasProp(props []ast.Property, canonical string) bool {
	for _, p := range props {
		if canonicalPropertyName(p.Name) == canonical {
			return true
		}
	}
	return false
}

func canonicalPropertyName(name string) string {
	switch name {
	case "batch":
		return "batch_size"
	case "desc":
		return "description"
	default:
		return name
	}
}

func checkProps(props []ast.Property, allowed map[string]bool, hostKind string) []Diagnostic {
	var diags []Diagnostic
	for _, p := range props {
		if !allowed[p.Name] {
			diags = append(diags, Diagnostic{Span: p.Span, Severity: SeverityError,
				Message: fmt.Sprintf("unknown %s property %q", hostKind, p.Name)})
		}
	}
	return diags
}

// checkIngredientNutrients validates an ingredient's nutrients block: each
// entry is either a direct nutrient value or a composition reference to
// another ingredient's nutrients.
func checkIngredientNutrients(ing *ast.Ingredient, cat *catalog) []Diagnostic {
	var diags []Diagnostic
	for _, nv := range ing.Nutrients {
		parts := nv.Nutrient.Parts
		if nv.HasValue {
			if len(parts) == 1 && parts[0].Kind == ast.PartIdent {
				name := parts[0].Ident
				if cat.ingredients[name] && !cat.nutrients[name] {
					diags = append(diags, Diagnostic{Span: nv.Span, Severity: SeverityError,
						Message: fmt.Sprintf("%q is an ingredient, not a nutrient; did you mean %s.nutrients?", name, name)})
					continue
				}
				if !cat.nutrients[name] {
					diags = append(diags, Diagnostic{Span: nv.Span, Severity: SeverityError,
						Message: fmt.Sprintf("unknown nutrient %q", name)})
				}
				continue
			}
			diags = append(diags, Diagnostic{Span: nv.Span, Severity: SeverityError,
				Message: "nutrient value must name a single nutrient"})
			continue
		}
		if len(parts) < 2 || parts[0].Kind != ast.PartIdent || parts[1].Kind != ast.PartIdent {
			diags = append(diags, Diagnostic{Span: nv.Span, Severity: SeverityError,
				Message: "expected an ingredient composition reference like other.nutrients"})
			continue
		}
		base := parts[0].Ident
		if !cat.ingredients[base] {
			diags = append(diags, Diagnostic{Span: nv.Span, Severity: SeverityError,
				Message: fmt.Sprintf("unknown ingredient %q", base)})
			continue
		}
		if canonicalBlockName(parts[1].Ident) != "nutrients" {
			diags = append(diags, Diagnostic{Span: nv.Span, Severity: SeverityError,
				Message: fmt.Sprintf("expected %s.nutrients, found %s.%s", base, base, parts[1].Ident)})
		}
	}
	return diags
}

// checkFormulaNutrients validates every reference reachable from a
// formula's nutrient constraint expressions.
func checkFormulaNutrients(f *ast.Formula, cat *catalog) []Diagnostic {
	var diags []Diagnostic
	for _, nc := range f.Nutrients {
		diags = append(diags, walkRefs(nc.Expr, func(r ast.Reference) *Diagnostic {
			return classifyRef(r, cat, "nutrients")
		})...)
	}
	return diags
}

// checkFormulaIngredients validates every reference reachable from a
// formula's ingredient constraint expressions.
func checkFormulaIngredients(f *ast.Formula, cat *catalog) []Diagnostic {
	var diags []Diagnostic
	for _, ic := range f.Ingredients {
		diags = append(diags, walkRefs(ic.Expr, func(r ast.Reference) *Diagnostic {
			return classifyRef(r, cat, "ingredients")
		})...)
	}
	return diags
}

// classifyRef checks a single reference found inside a formula constraint
// block: a bare identifier must name something of the block's own kind; a
// dotted reference must be a composition reference into the same block of
// another formula.
func classifyRef(r ast.Reference, cat *catalog, blockName string) *Diagnostic {
	ownCatalog, ownKind, ownArticled, otherArticled := cat.nutrients, "nutrient", "a nutrient", "an ingredient"
	if blockName == "ingredients" {
		ownCatalog, ownKind, ownArticled, otherArticled = cat.ingredients, "ingredient", "an ingredient", "a nutrient"
	}
	parts := r.Parts
	if len(parts) == 0 || parts[0].Kind != ast.PartIdent {
		return nil
	}
	if len(parts) == 1 {
		name := parts[0].Ident
		if ownCatalog[name] {
			return nil
		}
		if isOppositeKind(name, blockName, cat) {
			return &Diagnostic{Span: r.Span, Severity: SeverityError,
				Message: fmt.Sprintf("%q is %s, not %s, in the %s block", name, otherArticled, ownArticled, blockName)}
		}
		return &Diagnostic{Span: r.Span, Severity: SeverityError,
			Message: fmt.Sprintf("unknown %s %q", ownKind, name)}
	}
	base := parts[0].Ident
	if !cat.formulas[base] {
		return &Diagnostic{Span: r.Span, Severity: SeverityError,
			Message: fmt.Sprintf("unknown formula %q", base)}
	}
	if parts[1].Kind != ast.PartIdent || canonicalBlockName(parts[1].Ident) != blockName {
		return &Diagnostic{Span: r.Span, Severity: SeverityError,
			Message: fmt.Sprintf("expected %s.%s", base, blockName)}
	}
	return nil
}

func isOppositeKind(name, blockName string, cat *catalog) bool {
	if blockName == "nutrients" {
		return cat.ingredients[name]
	}
	return cat.nutrients[name]
}

func canonicalBlockName(s string) string {
	switch s {
	case "nuts":
		return "nutrients"
	case "ings":
		return "ingredients"
	default:
		return s
	}
}

// walkRefs visits every Reference leaf reachable from e and collects the
// non-nil diagnostics f returns for each.
func walkRefs(e ast.Expr, f func(ast.Reference) *Diagnostic) []Diagnostic {
	var diags []Diagnostic
	var walk func(ast.Expr)
	walk = func(e ast.Expr) {
		switch e.Kind {
		case ast.ExprReference:
			if d := f(*e.Ref); d != nil {
				diags = append(diags, *d)
			}
		case ast.ExprBinaryOp:
			walk(*e.Left)
			walk(*e.Right)
		case ast.ExprParen:
			walk(*e.Inner)
		}
	}
	walk(e)
	return diags
}
