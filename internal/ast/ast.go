// Package ast defines the abstract syntax tree produced by the parser.
package ast

import "github.com/rationlp/rationlp/internal/token"

// Span is re-exported for convenience so callers don't need to import token
// just to read a node's source range.
type Span = token.Span

// Program is an ordered sequence of top-level items.
type Program struct {
	Items []Item
}

// Item is a tagged union of the four top-level declaration kinds.
// Exactly one of the fields below is non-nil.
type Item struct {
	Import     *Import
	Nutrient   *Nutrient
	Ingredient *Ingredient
	Formula    *Formula
}

// ImportSelectionKind distinguishes `{ * }` from `{ name, name, ... }`.
type ImportSelectionKind int

const (
	SelectAll ImportSelectionKind = iota
	SelectNamed
)

// ImportSelections restricts which names an import brings into scope.
type ImportSelections struct {
	Kind  ImportSelectionKind
	Names []string // only meaningful when Kind == SelectNamed
}

// Import is an `import PATH [as NAME]? [{ ... }]?` item.
type Import struct {
	Span        Span
	Path        string
	Alias       string // "" if absent
	Selections  *ImportSelections
}

// Nutrient is a `nutrient NAME { property* }` item.
type Nutrient struct {
	Span       Span
	Name       string
	Properties []Property
}

// Ingredient is an `[template]? ingredient NAME { ... }` item.
type Ingredient struct {
	Span       Span
	Name       string
	IsTemplate bool
	Properties []Property
	Nutrients  []NutrientValue
}

// NutrientValue is one entry of an ingredient's nutrients block: either a
// direct value (Reference to a nutrient plus a Value) or a composition
// reference (HasValue is false; Reference names the source to copy from).
type NutrientValue struct {
	Span     Span
	Nutrient Reference
	Value    float64
	HasValue bool
}

// Formula is a `[template]? formula NAME { ... }` item.
type Formula struct {
	Span        Span
	Name        string
	IsTemplate  bool
	Properties  []Property
	Nutrients   []NutrientConstraint
	Ingredients []IngredientConstraint
}

// Property is a `name value` pair found in a nutrient/ingredient/formula body.
type Property struct {
	Span  Span
	Name  string
	Value PropertyValue
}

// PropertyValueKind tags the variant held by a PropertyValue.
type PropertyValueKind int

const (
	PropString PropertyValueKind = iota
	PropNumber
	PropIdent
	PropExpr
)

// PropertyValue is a tagged union: String | Number | Ident | Expr.
// An Expr is used for anything beyond a bare literal or identifier, e.g.
// `corn.cost` or `corn.cost * 2`.
type PropertyValue struct {
	Kind    PropertyValueKind
	Str     string
	Num     float64
	IdentV  string
	ExprVal Expr
}

// NutrientConstraint is one entry of a formula's nutrients block.
type NutrientConstraint struct {
	Span   Span
	Expr   Expr
	Bounds Bounds
	Alias  string // "" if no `as IDENT` clause
}

// IngredientConstraint is one entry of a formula's ingredients block.
type IngredientConstraint struct {
	Span   Span
	Expr   Expr
	Bounds Bounds
	Alias  string // "" if no `as IDENT` clause
}

// Bounds holds an optional min and/or max BoundValue.
type Bounds struct {
	Min *BoundValue
	Max *BoundValue
}

// BoundsNone returns a Bounds with neither bound set.
func BoundsNone() Bounds { return Bounds{} }

// BoundsMin returns a Bounds with only Min set.
func BoundsMin(v BoundValue) Bounds { return Bounds{Min: &v} }

// BoundsMax returns a Bounds with only Max set.
func BoundsMax(v BoundValue) Bounds { return Bounds{Max: &v} }

// BoundsRange returns a Bounds with both Min and Max set.
func BoundsRange(min, max BoundValue) Bounds { return Bounds{Min: &min, Max: &max} }

// BoundValue is a numeric bound, optionally expressed as a percent.
type BoundValue struct {
	Value     float64
	IsPercent bool
}

// Absolute constructs a non-percent BoundValue.
func Absolute(v float64) BoundValue { return BoundValue{Value: v} }

// Percent constructs a percent BoundValue.
func Percent(v float64) BoundValue { return BoundValue{Value: v, IsPercent: true} }

// ExprKind tags the variant held by an Expr.
type ExprKind int

const (
	ExprNumber ExprKind = iota
	ExprReference
	ExprBinaryOp
	ExprParen
)

// Expr is Number | Reference | BinaryOp{Left, Op, Right} | Paren(Inner).
type Expr struct {
	Kind ExprKind

	NumberVal float64
	Ref       *Reference

	Left  *Expr
	Op    BinaryOp
	Right *Expr

	Inner *Expr
}

// NewNumber builds a numeric leaf Expr.
func NewNumber(v float64) Expr { return Expr{Kind: ExprNumber, NumberVal: v} }

// NewReference builds a reference leaf Expr.
func NewReference(r Reference) Expr { return Expr{Kind: ExprReference, Ref: &r} }

// NewBinaryOp builds a binary-operator Expr.
func NewBinaryOp(left Expr, op BinaryOp, right Expr) Expr {
	return Expr{Kind: ExprBinaryOp, Left: &left, Op: op, Right: &right}
}

// NewParen builds a parenthesized Expr.
func NewParen(inner Expr) Expr { return Expr{Kind: ExprParen, Inner: &inner} }

// Reference is a dotted path, e.g. `corn.nutrients.protein` or `base.nutrients[protein, energy]`.
type Reference struct {
	Span  Span
	Parts []ReferencePart
}

// SimpleReference builds a single-identifier Reference.
func SimpleReference(span Span, name string) Reference {
	return Reference{Span: span, Parts: []ReferencePart{{Kind: PartIdent, Ident: name}}}
}

// ReferencePartKind tags the variant held by a ReferencePart.
type ReferencePartKind int

const (
	PartIdent ReferencePartKind = iota
	PartSelection
	PartMin
	PartMax
)

// ReferencePart is one dotted segment of a Reference.
type ReferencePart struct {
	Kind      ReferencePartKind
	Ident     string   // PartIdent
	Selection []string // PartSelection, e.g. `[protein, energy]`
}

// BinaryOp is the operator of a BinaryOp Expr.
type BinaryOp int

const (
	Add BinaryOp = iota
	Sub
	Mul
	Div
)

// String renders the operator's source character, used both for display and
// for canonical constraint-key computation.
func (op BinaryOp) String() string {
	switch op {
	case Add:
		return "+"
	case Sub:
		return "-"
	case Mul:
		return "*"
	case Div:
		return "/"
	default:
		return "?"
	}
}
