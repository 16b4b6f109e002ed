// Package parser implements the recursive-descent parser for the rationlp
// language, in both strict (fail-fast) and resilient (error-recovering)
// modes.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rationlp/rationlp/internal/ast"
	"github.com/rationlp/rationlp/internal/token"
)

// ErrorKind tags the category of a parse Error.
type ErrorKind int

const (
	ErrUnexpectedToken ErrorKind = iota
	ErrUnexpectedEOF
	ErrInvalidNumber
)

// Error is a structured parse diagnostic carrying enough context for a
// caller to render a useful message or a semantic-token squiggle.
type Error struct {
	Kind     ErrorKind
	Expected string
	Found    token.Token
	Span     token.Span
}

func (e *Error) Error() string {
	switch e.Kind {
	case ErrUnexpectedEOF:
		return fmt.Sprintf("unexpected end of file, expected %s", e.Expected)
	case ErrInvalidNumber:
		return fmt.Sprintf("invalid number literal %q at %s", e.Found.Text, e.Span)
	default:
		return fmt.Sprintf("unexpected token %q (%s) at %s, expected %s", e.Found.Text, e.Found.Kind, e.Span, e.Expected)
	}
}

// pstate is the parser's mutable cursor over a filtered, newline/comment-free
// token stream.
type pstate struct {
	toks []token.Token
	pos  int
}

func newPState(source string) *pstate {
	all := token.Tokenize(source)
	filtered := make([]token.Token, 0, len(all))
	for _, t := range all {
		if t.Kind == token.Newline || t.Kind == token.Whitespace || t.Kind == token.Comment {
			continue
		}
		filtered = append(filtered, t)
	}
	return &pstate{toks: filtered}
}

func (p *pstate) cur() token.Token      { return p.toks[p.pos] }
func (p *pstate) at(k token.Kind) bool  { return p.cur().Kind == k }
func (p *pstate) atEnd() bool           { return p.at(token.Eof) }
func (p *pstate) peekKind(n int) token.Kind {
	idx := p.pos + n
	if idx >= len(p.toks) {
		return token.Eof
	}
	return p.toks[idx].Kind
}

func (p *pstate) advance() token.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *pstate) expect(k token.Kind, desc string) (token.Token, error) {
	if p.at(k) {
		return p.advance(), nil
	}
	if p.atEnd() {
		return token.Token{}, &Error{Kind: ErrUnexpectedEOF, Expected: desc, Found: p.cur(), Span: p.cur().Span}
	}
	return token.Token{}, &Error{Kind: ErrUnexpectedToken, Expected: desc, Found: p.cur(), Span: p.cur().Span}
}

func unterminatedEOF(desc string, p *pstate) error {
	return &Error{Kind: ErrUnexpectedEOF, Expected: desc, Found: p.cur(), Span: p.cur().Span}
}

// Parse runs the strict parser: it fails at the first malformed item.
func Parse(source string) (*ast.Program, error) {
	p := newPState(source)
	prog := &ast.Program{}
	for !p.atEnd() {
		item, err := p.parseItem()
		if err != nil {
			return nil, err
		}
		prog.Items = append(prog.Items, item)
	}
	return prog, nil
}

// ParseResilient runs the error-recovering parser: on a malformed item it
// records the diagnostic, skips to the next item boundary, and keeps going,
// returning every well-formed item it could find plus the accumulated errors.
func ParseResilient(source string) (*ast.Program, []*Error) {
	p := newPState(source)
	prog := &ast.Program{}
	var errs []*Error
	for !p.atEnd() {
		startPos := p.pos
		item, err := p.parseItem()
		if err != nil {
			pe, ok := err.(*Error)
			if !ok {
				pe = &Error{Kind: ErrUnexpectedToken, Found: p.cur(), Span: p.cur().Span}
			}
			errs = append(errs, pe)
			p.recoverToNextItem()
			if p.pos == startPos && !p.atEnd() {
				p.advance() // guarantee forward progress
			}
			continue
		}
		prog.Items = append(prog.Items, item)
	}
	return prog, errs
}

// recoverToNextItem scans forward tracking brace depth, stopping at EOF, at
// a top-level keyword seen at depth 0, or when a closing brace returns
// depth to 0.
func (p *pstate) recoverToNextItem() {
	depth := 0
	for !p.atEnd() {
		k := p.cur().Kind
		if depth == 0 && isTopLevelKeyword(k) {
			return
		}
		if k == token.LBrace {
			depth++
			p.advance()
			continue
		}
		if k == token.RBrace {
			depth--
			p.advance()
			if depth <= 0 {
				return
			}
			continue
		}
		p.advance()
	}
}

func isTopLevelKeyword(k token.Kind) bool {
	switch k {
	case token.Nutrient, token.Ingredient, token.Formula, token.Template, token.Import:
		return true
	}
	return false
}

func (p *pstate) parseItem() (ast.Item, error) {
	switch p.cur().Kind {
	case token.Import:
		imp, err := p.parseImport()
		if err != nil {
			return ast.Item{}, err
		}
		return ast.Item{Import: imp}, nil
	case token.Nutrient:
		n, err := p.parseNutrient()
		if err != nil {
			return ast.Item{}, err
		}
		return ast.Item{Nutrient: n}, nil
	case token.Ingredient:
		ing, err := p.parseIngredient(false)
		if err != nil {
			return ast.Item{}, err
		}
		return ast.Item{Ingredient: ing}, nil
	case token.Formula:
		f, err := p.parseFormula(false)
		if err != nil {
			return ast.Item{}, err
		}
		return ast.Item{Formula: f}, nil
	case token.Template:
		p.advance()
		switch p.cur().Kind {
		case token.Ingredient:
			ing, err := p.parseIngredient(true)
			if err != nil {
				return ast.Item{}, err
			}
			return ast.Item{Ingredient: ing}, nil
		case token.Formula:
			f, err := p.parseFormula(true)
			if err != nil {
				return ast.Item{}, err
			}
			return ast.Item{Formula: f}, nil
		default:
			if p.atEnd() {
				return ast.Item{}, unterminatedEOF("ingredient or formula", p)
			}
			return ast.Item{}, &Error{Kind: ErrUnexpectedToken, Expected: "ingredient or formula", Found: p.cur(), Span: p.cur().Span}
		}
	default:
		if p.atEnd() {
			return ast.Item{}, unterminatedEOF("a top-level item", p)
		}
		return ast.Item{}, &Error{Kind: ErrUnexpectedToken, Expected: "nutrient, ingredient, formula, template, or import", Found: p.cur(), Span: p.cur().Span}
	}
}

func (p *pstate) parseImport() (*ast.Import, error) {
	kw, err := p.expect(token.Import, "import")
	if err != nil {
		return nil, err
	}
	path, pathSpan, err := p.parseImportPath()
	if err != nil {
		return nil, err
	}
	imp := &ast.Import{Span: kw.Span.Merge(pathSpan), Path: path}
	if p.at(token.As) {
		p.advance()
		name, err := p.expect(token.Ident, "identifier")
		if err != nil {
			return nil, err
		}
		imp.Alias = name.Text
		imp.Span = imp.Span.Merge(name.Span)
	}
	if p.at(token.LBrace) {
		p.advance()
		sel := &ast.ImportSelections{}
		if p.at(token.Star) {
			p.advance()
			sel.Kind = ast.SelectAll
		} else {
			sel.Kind = ast.SelectNamed
			for {
				name, err := p.expect(token.Ident, "identifier")
				if err != nil {
					return nil, err
				}
				sel.Names = append(sel.Names, name.Text)
				if p.at(token.Comma) {
					p.advance()
					continue
				}
				break
			}
		}
		closeBrace, err := p.expect(token.RBrace, "}")
		if err != nil {
			return nil, err
		}
		imp.Selections = sel
		imp.Span = imp.Span.Merge(closeBrace.Span)
	}
	return imp, nil
}

func (p *pstate) parseImportPath() (string, token.Span, error) {
	if !(p.at(token.Ident) || p.at(token.Dot) || p.at(token.Slash)) {
		if p.atEnd() {
			return "", token.Span{}, unterminatedEOF("import path", p)
		}
		return "", token.Span{}, &Error{Kind: ErrUnexpectedToken, Expected: "import path", Found: p.cur(), Span: p.cur().Span}
	}
	var sb strings.Builder
	span := p.cur().Span
	for p.at(token.Ident) || p.at(token.Dot) || p.at(token.Slash) {
		t := p.advance()
		sb.WriteString(t.Text)
		span = span.Merge(t.Span)
	}
	return sb.String(), span, nil
}

func (p *pstate) parseNutrient() (*ast.Nutrient, error) {
	kw, err := p.expect(token.Nutrient, "nutrient")
	if err != nil {
		return nil, err
	}
	name, err := p.expect(token.Ident, "identifier")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LBrace, "{"); err != nil {
		return nil, err
	}
	var props []ast.Property
	for !p.at(token.RBrace) {
		if p.atEnd() {
			return nil, unterminatedEOF("}", p)
		}
		prop, err := p.parseProperty()
		if err != nil {
			return nil, err
		}
		props = append(props, prop)
	}
	closeBrace, _ := p.expect(token.RBrace, "}")
	return &ast.Nutrient{Span: kw.Span.Merge(closeBrace.Span), Name: name.Text, Properties: props}, nil
}

func (p *pstate) parseIngredient(isTemplate bool) (*ast.Ingredient, error) {
	kw, err := p.expect(token.Ingredient, "ingredient")
	if err != nil {
		return nil, err
	}
	name, err := p.expect(token.Ident, "identifier")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LBrace, "{"); err != nil {
		return nil, err
	}
	ing := &ast.Ingredient{Name: name.Text, IsTemplate: isTemplate}
	for !p.at(token.RBrace) {
		if p.atEnd() {
			return nil, unterminatedEOF("}", p)
		}
		if p.isBlockKeyword("nutrients", "nuts") {
			nvs, err := p.parseNutrientsValueBlock()
			if err != nil {
				return nil, err
			}
			ing.Nutrients = append(ing.Nutrients, nvs...)
			continue
		}
		prop, err := p.parseProperty()
		if err != nil {
			return nil, err
		}
		ing.Properties = append(ing.Properties, prop)
	}
	closeBrace, _ := p.expect(token.RBrace, "}")
	ing.Span = kw.Span.Merge(closeBrace.Span)
	return ing, nil
}

func (p *pstate) isBlockKeyword(names ...string) bool {
	if !p.at(token.Ident) {
		return false
	}
	txt := p.cur().Text
	for _, n := range names {
		if txt == n {
			return p.peekKind(1) == token.LBrace
		}
	}
	return false
}

func (p *pstate) parseNutrientsValueBlock() ([]ast.NutrientValue, error) {
	p.advance() // nutrients | nuts
	if _, err := p.expect(token.LBrace, "{"); err != nil {
		return nil, err
	}
	var out []ast.NutrientValue
	for !p.at(token.RBrace) {
		if p.atEnd() {
			return nil, unterminatedEOF("}", p)
		}
		nv, err := p.parseNutrientValue()
		if err != nil {
			return nil, err
		}
		out = append(out, nv)
	}
	if _, err := p.expect(token.RBrace, "}"); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *pstate) parseNutrientValue() (ast.NutrientValue, error) {
	ref, err := p.parseReference()
	if err != nil {
		return ast.NutrientValue{}, err
	}
	nv := ast.NutrientValue{Span: ref.Span, Nutrient: ref}
	if p.at(token.Number) {
		t := p.advance()
		v, perr := strconv.ParseFloat(t.Text, 64)
		if perr != nil {
			return ast.NutrientValue{}, &Error{Kind: ErrInvalidNumber, Found: t, Span: t.Span}
		}
		nv.Value = v
		nv.HasValue = true
		nv.Span = nv.Span.Merge(t.Span)
	}
	return nv, nil
}

func (p *pstate) parseFormula(isTemplate bool) (*ast.Formula, error) {
	kw, err := p.expect(token.Formula, "formula")
	if err != nil {
		return nil, err
	}
	name, err := p.expect(token.Ident, "identifier")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LBrace, "{"); err != nil {
		return nil, err
	}
	f := &ast.Formula{Name: name.Text, IsTemplate: isTemplate}
	for !p.at(token.RBrace) {
		if p.atEnd() {
			return nil, unterminatedEOF("}", p)
		}
		switch {
		case p.isBlockKeyword("nutrients", "nuts"):
			ncs, err := p.parseNutrientConstraintsBlock()
			if err != nil {
				return nil, err
			}
			f.Nutrients = append(f.Nutrients, ncs...)
		case p.isBlockKeyword("ingredients", "ings"):
			ics, err := p.parseIngredientConstraintsBlock()
			if err != nil {
				return nil, err
			}
			f.Ingredients = append(f.Ingredients, ics...)
		default:
			prop, err := p.parseProperty()
			if err != nil {
				return nil, err
			}
			f.Properties = append(f.Properties, prop)
		}
	}
	closeBrace, _ := p.expect(token.RBrace, "}")
	f.Span = kw.Span.Merge(closeBrace.Span)
	return f, nil
}

func (p *pstate) parseNutrientConstraintsBlock() ([]ast.NutrientConstraint, error) {
	p.advance()
	if _, err := p.expect(token.LBrace, "{"); err != nil {
		return nil, err
	}
	var out []ast.NutrientConstraint
	for !p.at(token.RBrace) {
		if p.atEnd() {
			return nil, unterminatedEOF("}", p)
		}
		c, err := p.parseConstraint()
		if err != nil {
			return nil, err
		}
		out = append(out, ast.NutrientConstraint{Span: c.span, Expr: c.expr, Bounds: c.bounds, Alias: c.alias})
	}
	if _, err := p.expect(token.RBrace, "}"); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *pstate) parseIngredientConstraintsBlock() ([]ast.IngredientConstraint, error) {
	p.advance()
	if _, err := p.expect(token.LBrace, "{"); err != nil {
		return nil, err
	}
	var out []ast.IngredientConstraint
	for !p.at(token.RBrace) {
		if p.atEnd() {
			return nil, unterminatedEOF("}", p)
		}
		c, err := p.parseConstraint()
		if err != nil {
			return nil, err
		}
		out = append(out, ast.IngredientConstraint{Span: c.span, Expr: c.expr, Bounds: c.bounds, Alias: c.alias})
	}
	if _, err := p.expect(token.RBrace, "}"); err != nil {
		return nil, err
	}
	return out, nil
}

type parsedConstraint struct {
	span   token.Span
	expr   ast.Expr
	bounds ast.Bounds
	alias  string
}

// parseConstraint parses `expr [min NUMBER[%]]? [max NUMBER[%]]? [as IDENT]?`.
// Percent legality (nutrient vs. ingredient constraints) is a semantic
// concern, not a grammar one; see internal/lp for PercentInNutrientConstraint.
func (p *pstate) parseConstraint() (parsedConstraint, error) {
	expr, span, err := p.parseExpr()
	if err != nil {
		return parsedConstraint{}, err
	}
	var minB, maxB *ast.BoundValue
	for {
		if p.at(token.Min) {
			p.advance()
			v, vspan, err := p.parseBoundNumber()
			if err != nil {
				return parsedConstraint{}, err
			}
			minB = &v
			span = span.Merge(vspan)
			continue
		}
		if p.at(token.Max) {
			p.advance()
			v, vspan, err := p.parseBoundNumber()
			if err != nil {
				return parsedConstraint{}, err
			}
			maxB = &v
			span = span.Merge(vspan)
			continue
		}
		break
	}
	alias := ""
	if p.at(token.As) {
		p.advance()
		id, err := p.expect(token.Ident, "identifier")
		if err != nil {
			return parsedConstraint{}, err
		}
		alias = id.Text
		span = span.Merge(id.Span)
	}
	return parsedConstraint{span: span, expr: expr, bounds: ast.Bounds{Min: minB, Max: maxB}, alias: alias}, nil
}

func (p *pstate) parseBoundNumber() (ast.BoundValue, token.Span, error) {
	t, err := p.expect(token.Number, "number")
	if err != nil {
		return ast.BoundValue{}, token.Span{}, err
	}
	v, perr := strconv.ParseFloat(t.Text, 64)
	if perr != nil {
		return ast.BoundValue{}, token.Span{}, &Error{Kind: ErrInvalidNumber, Found: t, Span: t.Span}
	}
	span := t.Span
	isPercent := false
	if p.at(token.Percent) {
		pt := p.advance()
		isPercent = true
		span = span.Merge(pt.Span)
	}
	return ast.BoundValue{Value: v, IsPercent: isPercent}, span, nil
}

// parseProperty parses `NAME value`; the value follows the name directly,
// with no separator.
func (p *pstate) parseProperty() (ast.Property, error) {
	name, err := p.expect(token.Ident, "property name")
	if err != nil {
		return ast.Property{}, err
	}
	val, span, err := p.parsePropertyValue()
	if err != nil {
		return ast.Property{}, err
	}
	return ast.Property{Span: name.Span.Merge(span), Name: name.Text, Value: val}, nil
}

func (p *pstate) parsePropertyValue() (ast.PropertyValue, token.Span, error) {
	if p.at(token.String) {
		t := p.advance()
		return ast.PropertyValue{Kind: ast.PropString, Str: unquoteString(t.Text)}, t.Span, nil
	}
	expr, span, err := p.parseExpr()
	if err != nil {
		return ast.PropertyValue{}, token.Span{}, err
	}
	return classifyPropertyValue(expr), span, nil
}

func classifyPropertyValue(expr ast.Expr) ast.PropertyValue {
	switch expr.Kind {
	case ast.ExprNumber:
		return ast.PropertyValue{Kind: ast.PropNumber, Num: expr.NumberVal}
	case ast.ExprReference:
		if len(expr.Ref.Parts) == 1 && expr.Ref.Parts[0].Kind == ast.PartIdent {
			return ast.PropertyValue{Kind: ast.PropIdent, IdentV: expr.Ref.Parts[0].Ident}
		}
		return ast.PropertyValue{Kind: ast.PropExpr, ExprVal: expr}
	default:
		return ast.PropertyValue{Kind: ast.PropExpr, ExprVal: expr}
	}
}

func unquoteString(raw string) string {
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		return raw[1 : len(raw)-1]
	}
	if len(raw) >= 1 && raw[0] == '"' {
		return raw[1:]
	}
	return raw
}

// parseExpr is the additive layer: additive over multiplicative over primary.
func (p *pstate) parseExpr() (ast.Expr, token.Span, error) {
	return p.parseAdditive()
}

func (p *pstate) parseAdditive() (ast.Expr, token.Span, error) {
	left, span, err := p.parseMultiplicative()
	if err != nil {
		return ast.Expr{}, token.Span{}, err
	}
	for p.at(token.Plus) || p.at(token.Minus) {
		opTok := p.advance()
		op := ast.Add
		if opTok.Kind == token.Minus {
			op = ast.Sub
		}
		right, rspan, err := p.parseMultiplicative()
		if err != nil {
			return ast.Expr{}, token.Span{}, err
		}
		left = ast.NewBinaryOp(left, op, right)
		span = span.Merge(rspan)
	}
	return left, span, nil
}

func (p *pstate) parseMultiplicative() (ast.Expr, token.Span, error) {
	left, span, err := p.parsePrimary()
	if err != nil {
		return ast.Expr{}, token.Span{}, err
	}
	for p.at(token.Star) || p.at(token.Slash) {
		opTok := p.advance()
		op := ast.Mul
		if opTok.Kind == token.Slash {
			op = ast.Div
		}
		right, rspan, err := p.parsePrimary()
		if err != nil {
			return ast.Expr{}, token.Span{}, err
		}
		left = ast.NewBinaryOp(left, op, right)
		span = span.Merge(rspan)
	}
	return left, span, nil
}

func (p *pstate) parsePrimary() (ast.Expr, token.Span, error) {
	switch {
	case p.at(token.Number):
		t := p.advance()
		v, err := strconv.ParseFloat(t.Text, 64)
		if err != nil {
			return ast.Expr{}, token.Span{}, &Error{Kind: ErrInvalidNumber, Found: t, Span: t.Span}
		}
		return ast.NewNumber(v), t.Span, nil
	case p.at(token.LParen):
		open := p.advance()
		inner, _, err := p.parseExpr()
		if err != nil {
			return ast.Expr{}, token.Span{}, err
		}
		closeParen, err := p.expect(token.RParen, ")")
		if err != nil {
			return ast.Expr{}, token.Span{}, err
		}
		return ast.NewParen(inner), open.Span.Merge(closeParen.Span), nil
	case p.at(token.Ident):
		ref, err := p.parseReference()
		if err != nil {
			return ast.Expr{}, token.Span{}, err
		}
		return ast.NewReference(ref), ref.Span, nil
	default:
		if p.atEnd() {
			return ast.Expr{}, token.Span{}, unterminatedEOF("expression", p)
		}
		return ast.Expr{}, token.Span{}, &Error{Kind: ErrUnexpectedToken, Expected: "expression", Found: p.cur(), Span: p.cur().Span}
	}
}

// parseReference parses a dotted path: IDENT (.IDENT | .min | .max | [a,b,...])*.
func (p *pstate) parseReference() (ast.Reference, error) {
	first, err := p.expect(token.Ident, "identifier")
	if err != nil {
		return ast.Reference{}, err
	}
	ref := ast.Reference{Span: first.Span, Parts: []ast.ReferencePart{{Kind: ast.PartIdent, Ident: first.Text}}}
	for {
		if p.at(token.Dot) {
			p.advance()
			switch {
			case p.at(token.Ident):
				t := p.advance()
				ref.Parts = append(ref.Parts, ast.ReferencePart{Kind: ast.PartIdent, Ident: t.Text})
				ref.Span = ref.Span.Merge(t.Span)
			case p.at(token.Min):
				t := p.advance()
				ref.Parts = append(ref.Parts, ast.ReferencePart{Kind: ast.PartMin})
				ref.Span = ref.Span.Merge(t.Span)
			case p.at(token.Max):
				t := p.advance()
				ref.Parts = append(ref.Parts, ast.ReferencePart{Kind: ast.PartMax})
				ref.Span = ref.Span.Merge(t.Span)
			default:
				if p.atEnd() {
					return ast.Reference{}, unterminatedEOF("identifier, min, or max", p)
				}
				return ast.Reference{}, &Error{Kind: ErrUnexpectedToken, Expected: "identifier, min, or max", Found: p.cur(), Span: p.cur().Span}
			}
			continue
		}
		if p.at(token.LBracket) {
			open := p.advance()
			var names []string
			for {
				id, err := p.expect(token.Ident, "identifier")
				if err != nil {
					return ast.Reference{}, err
				}
				names = append(names, id.Text)
				if p.at(token.Comma) {
					p.advance()
					continue
				}
				break
			}
			closeBracket, err := p.expect(token.RBracket, "]")
			if err != nil {
				return ast.Reference{}, err
			}
			ref.Parts = append(ref.Parts, ast.ReferencePart{Kind: ast.PartSelection, Selection: names})
			ref.Span = ref.Span.Merge(open.Span).Merge(closeBracket.Span)
			continue
		}
		break
	}
	return ref, nil
}
