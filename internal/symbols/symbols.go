// Package symbols builds the symbol table from a loaded AST: nutrient,
// ingredient, and formula catalogs, including resolution of ingredient cost
// and nutrient-composition inheritance.
package symbols

import (
	"fmt"

	"github.com/rationlp/rationlp/internal/ast"
	"github.com/rationlp/rationlp/internal/evalexpr"
)

// ErrorKind tags the category of a symbol-resolution failure.
type ErrorKind int

const (
	ErrUnknownNutrient ErrorKind = iota
	ErrUnknownIngredient
	ErrUnknownFormula
	ErrMissingBatchSize
	ErrMissingCost
	ErrCircularReference
	ErrInvalidPropertyReference
)

// Error is returned when a symbol cannot be resolved.
type Error struct {
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

// NutrientDef is the catalog entry recorded for a `nutrient` item.
type NutrientDef struct {
	Name        string
	DisplayName string
	Code        string
	Unit        string
}

// IngredientEntry is the catalog entry recorded for an `ingredient` item,
// lazily resolved to its cost and composed nutrient map.
type IngredientEntry struct {
	AST       *ast.Ingredient
	Cost      float64
	HasCost   bool
	Nutrients map[string]float64

	resolved  bool
	resolving bool
}

// FormulaEntry is the catalog entry recorded for a `formula` item; formulas
// are never eagerly compiled, only their batch size is lazily resolved here.
type FormulaEntry struct {
	AST *ast.Formula

	batch         float64
	batchResolved bool
	resolving     bool
}

// Table is the three-keyed symbol catalog: nutrient, ingredient, and formula
// names are unique within each kind.
type Table struct {
	Nutrients   map[string]*NutrientDef
	Ingredients map[string]*IngredientEntry
	Formulas    map[string]*FormulaEntry
}

// Build catalogs every item in prog and eagerly resolves the cost and
// nutrient composition of every non-template ingredient. Duplicate names
// within a kind keep the first-seen definition; duplicate detection itself
// is the semantic validator's job, not this builder's.
func Build(prog *ast.Program) (*Table, error) {
	t := &Table{
		Nutrients:   map[string]*NutrientDef{},
		Ingredients: map[string]*IngredientEntry{},
		Formulas:    map[string]*FormulaEntry{},
	}
	for _, item := range prog.Items {
		switch {
		case item.Nutrient != nil:
			n := item.Nutrient
			if _, exists := t.Nutrients[n.Name]; exists {
				continue
			}
			t.Nutrients[n.Name] = buildNutrientDef(n)
		case item.Ingredient != nil:
			ing := item.Ingredient
			if _, exists := t.Ingredients[ing.Name]; exists {
				continue
			}
			t.Ingredients[ing.Name] = &IngredientEntry{AST: ing}
		case item.Formula != nil:
			f := item.Formula
			if _, exists := t.Formulas[f.Name]; exists {
				continue
			}
			t.Formulas[f.Name] = &FormulaEntry{AST: f}
		}
	}
	for _, item := range prog.Items {
		if item.Ingredient == nil || item.Ingredient.IsTemplate {
			continue
		}
		if _, err := t.ResolveIngredient(item.Ingredient.Name); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func buildNutrientDef(n *ast.Nutrient) *NutrientDef {
	def := &NutrientDef{Name: n.Name}
	for _, p := range n.Properties {
		switch canonicalPropertyName(p.Name) {
		case "display_name":
			def.DisplayName = stringish(p.Value)
		case "code":
			def.Code = stringish(p.Value)
		case "unit":
			def.Unit = stringish(p.Value)
		}
	}
	return def
}

func stringish(v ast.PropertyValue) string {
	switch v.Kind {
	case ast.PropString:
		return v.Str
	case ast.PropIdent:
		return v.IdentV
	default:
		return ""
	}
}

// canonicalPropertyName resolves the language's property-name aliases:
// batch ≡ batch_size, desc ≡ description, nuts ≡ nutrients, ings ≡ ingredients.
func canonicalPropertyName(name string) string {
	switch name {
	case "batch":
		return "batch_size"
	case "desc":
		return "description"
	case "nuts":
		return "nutrients"
	case "ings":
		return "ingredients"
	default:
		return name
	}
}

// ResolveIngredient resolves (and caches) the cost and composed nutrient map
// of the named ingredient, recursing through composition references with a
// visited-set cycle guard.
func (t *Table) ResolveIngredient(name string) (*IngredientEntry, error) {
	entry, ok := t.Ingredients[name]
	if !ok {
		return nil, &Error{Kind: ErrUnknownIngredient, Msg: fmt.Sprintf("unknown ingredient %q", name)}
	}
	if entry.resolved {
		return entry, nil
	}
	if entry.resolving {
		return nil, &Error{Kind: ErrCircularReference, Msg: fmt.Sprintf("circular ingredient composition involving %q", name)}
	}
	entry.resolving = true
	defer func() { entry.resolving = false }()

	cost := 0.0
	hasCost := false
	for _, prop := range entry.AST.Properties {
		if canonicalPropertyName(prop.Name) != "cost" {
			continue
		}
		v, err := t.evalPropertyValue(prop.Value)
		if err != nil {
			return nil, err
		}
		cost = v
		hasCost = true
	}
	if !hasCost && !entry.AST.IsTemplate {
		return nil, &Error{Kind: ErrMissingCost, Msg: fmt.Sprintf("ingredient %q has no cost", name)}
	}

	nutrients := map[string]float64{}
	for _, nv := range entry.AST.Nutrients {
		parts := nv.Nutrient.Parts
		if nv.HasValue {
			if len(parts) != 1 || parts[0].Kind != ast.PartIdent {
				continue
			}
			nutrients[parts[0].Ident] = nv.Value
			continue
		}
		if len(parts) < 2 || parts[0].Kind != ast.PartIdent || parts[1].Kind != ast.PartIdent {
			continue
		}
		if canonicalPropertyName(parts[1].Ident) != "nutrients" {
			continue
		}
		other, err := t.ResolveIngredient(parts[0].Ident)
		if err != nil {
			return nil, err
		}
		if len(parts) >= 3 && parts[2].Kind == ast.PartIdent {
			if v, ok := other.Nutrients[parts[2].Ident]; ok {
				nutrients[parts[2].Ident] = v
			}
			continue
		}
		for k, v := range other.Nutrients {
			nutrients[k] = v
		}
	}

	entry.Cost = cost
	entry.HasCost = hasCost
	entry.Nutrients = nutrients
	entry.resolved = true
	return entry, nil
}

// ResolveFormulaBatchSize resolves (and caches) the named formula's
// batch_size property.
func (t *Table) ResolveFormulaBatchSize(name string) (float64, error) {
	f, ok := t.Formulas[name]
	if !ok {
		return 0, &Error{Kind: ErrUnknownFormula, Msg: fmt.Sprintf("unknown formula %q", name)}
	}
	if f.batchResolved {
		return f.batch, nil
	}
	if f.resolving {
		return 0, &Error{Kind: ErrCircularReference, Msg: fmt.Sprintf("circular batch_size reference involving %q", name)}
	}
	f.resolving = true
	defer func() { f.resolving = false }()

	for _, prop := range f.AST.Properties {
		if canonicalPropertyName(prop.Name) != "batch_size" {
			continue
		}
		v, err := t.evalPropertyValue(prop.Value)
		if err != nil {
			return 0, err
		}
		f.batch = v
		f.batchResolved = true
		return v, nil
	}
	return 0, &Error{Kind: ErrMissingBatchSize, Msg: fmt.Sprintf("formula %q has no batch_size", name)}
}

func (t *Table) evalPropertyValue(v ast.PropertyValue) (float64, error) {
	switch v.Kind {
	case ast.PropNumber:
		return v.Num, nil
	case ast.PropExpr:
		return evalexpr.Eval(v.ExprVal, t)
	default:
		return 0, &Error{Kind: ErrInvalidPropertyReference, Msg: "expected a numeric property value"}
	}
}

// IngredientCost implements evalexpr.Resolver.
func (t *Table) IngredientCost(name string) (float64, bool) {
	e, err := t.ResolveIngredient(name)
	if err != nil {
		return 0, false
	}
	return e.Cost, true
}

// FormulaBatchSize implements evalexpr.Resolver.
func (t *Table) FormulaBatchSize(name string) (float64, bool) {
	v, err := t.ResolveFormulaBatchSize(name)
	if err != nil {
		return 0, false
	}
	return v, true
}
