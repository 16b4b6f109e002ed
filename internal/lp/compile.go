package lp

import (
	"strconv"
	"strings"

	"github.com/rationlp/rationlp/internal/ast"
	"github.com/rationlp/rationlp/internal/symbols"
)

// rawConstraint is the common shape shared by ast.NutrientConstraint and
// ast.IngredientConstraint, letting composition resolution be written once
// and reused for both blocks.
type rawConstraint struct {
	Expr   ast.Expr
	Bounds ast.Bounds
	Alias  string
}

// resolved is a rawConstraint plus its canonical override key.
type resolved struct {
	Expr   ast.Expr
	Bounds ast.Bounds
	Alias  string
	Key    string
}

func toRawNutrient(cs []ast.NutrientConstraint) []rawConstraint {
	out := make([]rawConstraint, len(cs))
	for i, c := range cs {
		out[i] = rawConstraint{Expr: c.Expr, Bounds: c.Bounds, Alias: c.Alias}
	}
	return out
}

func toRawIngredient(cs []ast.IngredientConstraint) []rawConstraint {
	out := make([]rawConstraint, len(cs))
	for i, c := range cs {
		out[i] = rawConstraint{Expr: c.Expr, Bounds: c.Bounds, Alias: c.Alias}
	}
	return out
}

// CompileFormula lowers the named formula into a normal-form LpProblem.
func CompileFormula(table *symbols.Table, name string) (*CompiledFormula, error) {
	fe, ok := table.Formulas[name]
	if !ok {
		return nil, errorf(ErrUnknownFormula, "unknown formula %q", name)
	}
	if fe.AST.IsTemplate {
		return nil, errorf(ErrCannotSolveTemplate, "formula %q is a template and cannot be solved", name)
	}
	batch, err := table.ResolveFormulaBatchSize(name)
	if err != nil {
		return nil, wrapSymbolsErr(err)
	}

	nutrientResolved, err := resolveConstraints(table, toRawNutrient(fe.AST.Nutrients), "nutrients", map[string]bool{name: true})
	if err != nil {
		return nil, err
	}
	ingredientResolved, err := resolveConstraints(table, toRawIngredient(fe.AST.Ingredients), "ingredients", map[string]bool{name: true})
	if err != nil {
		return nil, err
	}

	variables, err := collectVariables(table, ingredientResolved)
	if err != nil {
		return nil, err
	}
	varIndex := make(map[string]int, len(variables))
	for i, v := range variables {
		varIndex[v] = i
	}

	cost := make([]float64, len(variables))
	for i, v := range variables {
		ie, err := table.ResolveIngredient(v)
		if err != nil {
			return nil, wrapSymbolsErr(err)
		}
		cost[i] = ie.Cost
	}

	nutrientVectors := map[string][]float64{}
	var nutrientNames []string
	getNutrientVector := func(nutName string) []float64 {
		if v, ok := nutrientVectors[nutName]; ok {
			return v
		}
		v := make([]float64, len(variables))
		for i, varName := range variables {
			ie, _ := table.ResolveIngredient(varName)
			if ie != nil {
				v[i] = ie.Nutrients[nutName]
			}
		}
		nutrientVectors[nutName] = v
		nutrientNames = append(nutrientNames, nutName)
		return v
	}

	var constraints []Constraint

	for _, nc := range nutrientResolved {
		if hasPercent(nc.Bounds) {
			return nil, errorf(ErrPercentInNutrientConstraint, "percent bound not allowed in nutrient constraint %q", nc.Key)
		}
		expr := unwrapParen(nc.Expr)
		if isRatio(expr) {
			numName := unwrapParen(*expr.Left).Ref.Parts[0].Ident
			denName := unwrapParen(*expr.Right).Ref.Parts[0].Ident
			numVec := getNutrientVector(numName)
			denVec := getNutrientVector(denName)
			rowName := nc.Alias
			if rowName == "" {
				rowName = numName + "/" + denName
			}
			if nc.Bounds.Min != nil {
				row := make([]float64, len(variables))
				for i := range row {
					row[i] = numVec[i] - nc.Bounds.Min.Value*denVec[i]
				}
				constraints = append(constraints, Constraint{Name: rowName + "_min", Coeffs: row, Op: GE, RHS: 0})
			}
			if nc.Bounds.Max != nil {
				row := make([]float64, len(variables))
				for i := range row {
					row[i] = numVec[i] - nc.Bounds.Max.Value*denVec[i]
				}
				constraints = append(constraints, Constraint{Name: rowName + "_max", Coeffs: row, Op: LE, RHS: 0})
			}
			continue
		}
		nutName := exprHeadIdent(expr)
		if nutName == "" {
			return nil, errorf(ErrInvalidReference, "malformed nutrient constraint expression")
		}
		vec := getNutrientVector(nutName)
		rowName := nc.Alias
		if rowName == "" {
			rowName = nutName
		}
		if nc.Bounds.Min != nil {
			constraints = append(constraints, Constraint{Name: rowName + "_min", Coeffs: cloneVec(vec), Op: GE, RHS: nc.Bounds.Min.Value * batch})
		}
		if nc.Bounds.Max != nil {
			constraints = append(constraints, Constraint{Name: rowName + "_max", Coeffs: cloneVec(vec), Op: LE, RHS: nc.Bounds.Max.Value * batch})
		}
	}

	for _, ic := range ingredientResolved {
		coeffs, err := ingredientExprCoeffs(ic.Expr, varIndex)
		if err != nil {
			return nil, err
		}
		rowName := ic.Alias
		if rowName == "" {
			rowName = ic.Key
		}
		if ic.Bounds.Min != nil {
			rhs := ic.Bounds.Min.Value
			if ic.Bounds.Min.IsPercent {
				rhs = ic.Bounds.Min.Value * batch / 100
			}
			constraints = append(constraints, Constraint{Name: rowName + "_min", Coeffs: cloneVec(coeffs), Op: GE, RHS: rhs})
		}
		if ic.Bounds.Max != nil {
			rhs := ic.Bounds.Max.Value
			if ic.Bounds.Max.IsPercent {
				rhs = ic.Bounds.Max.Value * batch / 100
			}
			constraints = append(constraints, Constraint{Name: rowName + "_max", Coeffs: cloneVec(coeffs), Op: LE, RHS: rhs})
		}
	}

	batchRow := make([]float64, len(variables))
	for i := range batchRow {
		batchRow[i] = 1
	}
	constraints = append(constraints, Constraint{Name: "batch_size", Coeffs: batchRow, Op: EQ, RHS: batch})

	for i, v := range variables {
		row := make([]float64, len(variables))
		row[i] = 1
		constraints = append(constraints, Constraint{Name: v + "_nonneg", Coeffs: row, Op: GE, RHS: 0})
	}

	problem := &Problem{
		Variables:   append([]string(nil), variables...),
		Objective:   Objective{Coeffs: cost, Minimize: true},
		Constraints: constraints,
	}
	return &CompiledFormula{
		Name:          name,
		Batch:         batch,
		Variables:     variables,
		Cost:          cost,
		Nutrients:     nutrientVectors,
		NutrientNames: nutrientNames,
		Problem:       problem,
	}, nil
}

func hasPercent(b ast.Bounds) bool {
	return (b.Min != nil && b.Min.IsPercent) || (b.Max != nil && b.Max.IsPercent)
}

func cloneVec(v []float64) []float64 {
	return append([]float64(nil), v...)
}

// resolveConstraints expands composition references (with item/min/max-drop
// filtering) into a per-key baseline, then overlays direct entries on top
// field-by-field: a direct entry's min/max/alias replaces the baseline's
// only where it specifies one, so `A.nutrients` followed by `N min v`
// keeps A's max for N untouched while replacing only the min. Direct
// entries always win over composition for the fields they set, regardless
// of source order; the last direct entry for a given field wins among
// multiple direct entries. Every key produces exactly one row, in
// first-seen order.
func resolveConstraints(table *symbols.Table, raw []rawConstraint, blockKind string, visiting map[string]bool) ([]resolved, error) {
	var order []string
	seen := map[string]bool{}
	compState := map[string]resolved{}
	directState := map[string]resolved{}
	directSeen := map[string]bool{}

	note := func(key string) {
		if !seen[key] {
			seen[key] = true
			order = append(order, key)
		}
	}

	for _, c := range raw {
		if baseName, isComp := compositionBase(c.Expr, blockKind); isComp {
			baseFormula, ok := table.Formulas[baseName]
			if !ok {
				return nil, errorf(ErrUnknownFormula, "unknown formula %q referenced in composition", baseName)
			}
			if visiting[baseName] {
				return nil, errorf(ErrCircularReference, "circular composition involving formula %q", baseName)
			}
			visiting[baseName] = true
			var baseRaw []rawConstraint
			if blockKind == "nutrients" {
				baseRaw = toRawNutrient(baseFormula.AST.Nutrients)
			} else {
				baseRaw = toRawIngredient(baseFormula.AST.Ingredients)
			}
			baseResolved, err := resolveConstraints(table, baseRaw, blockKind, visiting)
			delete(visiting, baseName)
			if err != nil {
				return nil, err
			}

			ref := unwrapParen(c.Expr).Ref
			item, minOnly, maxOnly := parseCompositionSuffix(ref.Parts[2:])
			for _, bc := range baseResolved {
				if item != "" && exprHeadIdent(bc.Expr) != item {
					continue
				}
				bounds := bc.Bounds
				if minOnly {
					bounds.Max = nil
				}
				if maxOnly {
					bounds.Min = nil
				}
				if bounds.Min == nil && bounds.Max == nil {
					continue
				}
				note(bc.Key)
				compState[bc.Key] = resolved{Expr: bc.Expr, Bounds: bounds, Alias: bc.Alias, Key: bc.Key}
			}
			continue
		}

		key := canonicalKey(c.Expr)
		note(key)
		base := directState[key]
		if !directSeen[key] {
			base = resolved{Expr: c.Expr, Key: key}
		}
		if c.Bounds.Min != nil {
			base.Bounds.Min = c.Bounds.Min
		}
		if c.Bounds.Max != nil {
			base.Bounds.Max = c.Bounds.Max
		}
		if c.Alias != "" {
			base.Alias = c.Alias
		}
		base.Expr = c.Expr
		directState[key] = base
		directSeen[key] = true
	}

	out := make([]resolved, 0, len(order))
	for _, key := range order {
		final, hasComp := compState[key]
		if dv, ok := directState[key]; ok {
			if !hasComp {
				final = dv
			} else {
				if dv.Bounds.Min != nil {
					final.Bounds.Min = dv.Bounds.Min
				}
				if dv.Bounds.Max != nil {
					final.Bounds.Max = dv.Bounds.Max
				}
				if dv.Alias != "" {
					final.Alias = dv.Alias
				}
				final.Expr = dv.Expr
			}
		}
		out = append(out, final)
	}
	return out, nil
}

// compositionBase reports whether expr is a composition reference for the
// given block ("nutrients" or "ingredients"): a dotted path whose second
// segment names that block (aliases nuts/ings allowed).
func compositionBase(e ast.Expr, blockKind string) (string, bool) {
	e = unwrapParen(e)
	if e.Kind != ast.ExprReference {
		return "", false
	}
	parts := e.Ref.Parts
	if len(parts) < 2 || parts[0].Kind != ast.PartIdent || parts[1].Kind != ast.PartIdent {
		return "", false
	}
	if canonicalBlockName(parts[1].Ident) != blockKind {
		return "", false
	}
	return parts[0].Ident, true
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

// parseCompositionSuffix reads the optional `.item` and `.min`/`.max`
// segments following `base.nutrients`/`base.ingredients`.
func parseCompositionSuffix(rest []ast.ReferencePart) (item string, minOnly, maxOnly bool) {
	if len(rest) == 0 {
		return "", false, false
	}
	if rest[0].Kind == ast.PartIdent {
		item = rest[0].Ident
		rest = rest[1:]
	}
	if len(rest) > 0 {
		switch rest[0].Kind {
		case ast.PartMin:
			minOnly = true
		case ast.PartMax:
			maxOnly = true
		}
	}
	return item, minOnly, maxOnly
}

func unwrapParen(e ast.Expr) ast.Expr {
	for e.Kind == ast.ExprParen {
		e = *e.Inner
	}
	return e
}

func isNutrientRef(e ast.Expr) bool {
	e = unwrapParen(e)
	return e.Kind == ast.ExprReference && len(e.Ref.Parts) == 1 && e.Ref.Parts[0].Kind == ast.PartIdent
}

func isRatio(e ast.Expr) bool {
	e = unwrapParen(e)
	return e.Kind == ast.ExprBinaryOp && e.Op == ast.Div && isNutrientRef(*e.Left) && isNutrientRef(*e.Right)
}

func exprHeadIdent(e ast.Expr) string {
	e = unwrapParen(e)
	switch e.Kind {
	case ast.ExprReference:
		if len(e.Ref.Parts) > 0 && e.Ref.Parts[0].Kind == ast.PartIdent {
			return e.Ref.Parts[0].Ident
		}
	case ast.ExprBinaryOp:
		return exprHeadIdent(*e.Left)
	}
	return ""
}

// canonicalKey renders the canonical string form used to match a
// composition-inherited constraint against a direct override.
func canonicalKey(e ast.Expr) string {
	switch e.Kind {
	case ast.ExprNumber:
		return strconv.FormatFloat(e.NumberVal, 'g', -1, 64)
	case ast.ExprReference:
		return referenceKey(*e.Ref)
	case ast.ExprBinaryOp:
		return canonicalKey(*e.Left) + e.Op.String() + canonicalKey(*e.Right)
	case ast.ExprParen:
		return canonicalKey(*e.Inner)
	default:
		return ""
	}
}

func referenceKey(r ast.Reference) string {
	parts := make([]string, 0, len(r.Parts))
	for _, p := range r.Parts {
		switch p.Kind {
		case ast.PartIdent:
			parts = append(parts, p.Ident)
		case ast.PartMin:
			parts = append(parts, "min")
		case ast.PartMax:
			parts = append(parts, "max")
		case ast.PartSelection:
			parts = append(parts, "["+strings.Join(p.Selection, ",")+"]")
		}
	}
	return strings.Join(parts, ".")
}

// collectVariables walks the (resolved) ingredient constraint expressions
// for references naming a known ingredient, in first-seen order.
func collectVariables(table *symbols.Table, ingredientResolved []resolved) ([]string, error) {
	seen := map[string]bool{}
	var vars []string
	var walk func(e ast.Expr)
	walk = func(e ast.Expr) {
		e = unwrapParen(e)
		switch e.Kind {
		case ast.ExprReference:
			if len(e.Ref.Parts) == 0 || e.Ref.Parts[0].Kind != ast.PartIdent {
				return
			}
			head := e.Ref.Parts[0].Ident
			if _, ok := table.Ingredients[head]; ok && !seen[head] {
				seen[head] = true
				vars = append(vars, head)
			}
		case ast.ExprBinaryOp:
			walk(*e.Left)
			walk(*e.Right)
		}
	}
	for _, ic := range ingredientResolved {
		walk(ic.Expr)
	}
	return vars, nil
}

// ingredientExprCoeffs lowers an ingredient expression to a coefficient
// vector: + and - are componentwise, * and / require exactly
// one scalar operand (the divisor, for /), and a bare reference sets
// coefficient 1 for that variable.
func ingredientExprCoeffs(e ast.Expr, varIndex map[string]int) ([]float64, error) {
	e = unwrapParen(e)
	n := len(varIndex)
	switch e.Kind {
	case ast.ExprReference:
		if len(e.Ref.Parts) != 1 || e.Ref.Parts[0].Kind != ast.PartIdent {
			return nil, errorf(ErrInvalidReference, "ingredient expression reference must be a bare ingredient name")
		}
		idx, ok := varIndex[e.Ref.Parts[0].Ident]
		if !ok {
			return nil, errorf(ErrInvalidReference, "unknown ingredient %q in ingredient expression", e.Ref.Parts[0].Ident)
		}
		out := make([]float64, n)
		out[idx] = 1
		return out, nil
	case ast.ExprNumber:
		return nil, errorf(ErrInvalidReference, "a bare number is not a valid ingredient expression")
	case ast.ExprBinaryOp:
		switch e.Op {
		case ast.Add, ast.Sub:
			left, err := ingredientExprCoeffs(*e.Left, varIndex)
			if err != nil {
				return nil, err
			}
			right, err := ingredientExprCoeffs(*e.Right, varIndex)
			if err != nil {
				return nil, err
			}
			out := make([]float64, n)
			for i := range out {
				if e.Op == ast.Add {
					out[i] = left[i] + right[i]
				} else {
					out[i] = left[i] - right[i]
				}
			}
			return out, nil
		case ast.Mul:
			leftIsNum := unwrapParen(*e.Left).Kind == ast.ExprNumber
			rightIsNum := unwrapParen(*e.Right).Kind == ast.ExprNumber
			if leftIsNum == rightIsNum {
				return nil, errorf(ErrInvalidReference, "* requires exactly one numeric operand")
			}
			scalar, vecExpr := unwrapParen(*e.Right).NumberVal, e.Left
			if leftIsNum {
				scalar, vecExpr = unwrapParen(*e.Left).NumberVal, e.Right
			}
			vec, err := ingredientExprCoeffs(*vecExpr, varIndex)
			if err != nil {
				return nil, err
			}
			out := make([]float64, n)
			for i := range out {
				out[i] = vec[i] * scalar
			}
			return out, nil
		case ast.Div:
			if unwrapParen(*e.Right).Kind != ast.ExprNumber {
				return nil, errorf(ErrInvalidReference, "non-numeric divisor in ingredient expression")
			}
			scalar := unwrapParen(*e.Right).NumberVal
			if scalar == 0 {
				return nil, errorf(ErrDivisionByZero, "division by zero in ingredient expression")
			}
			vec, err := ingredientExprCoeffs(*e.Left, varIndex)
			if err != nil {
				return nil, err
			}
			out := make([]float64, n)
			for i := range out {
				out[i] = vec[i] / scalar
			}
			return out, nil
		}
	}
	return nil, errorf(ErrInvalidReference, "unsupported ingredient expression shape")
}

func wrapSymbolsErr(err error) error {
	se, ok := err.(*symbols.Error)
	if !ok {
		return err
	}
	switch se.Kind {
	case symbols.ErrMissingBatchSize:
		return errorf(ErrMissingBatchSize, "%s", se.Msg)
	case symbols.ErrUnknownFormula:
		return errorf(ErrUnknownFormula, "%s", se.Msg)
	case symbols.ErrUnknownIngredient:
		return errorf(ErrUnknownIngredient, "%s", se.Msg)
	case symbols.ErrMissingCost:
		return errorf(ErrInvalidReference, "%s", se.Msg)
	case symbols.ErrCircularReference:
		return errorf(ErrCircularReference, "%s", se.Msg)
	default:
		return errorf(ErrInvalidPropertyReference, "%s", se.Msg)
	}
}
