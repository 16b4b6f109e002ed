package evalexpr

import (
	"testing"

	"github.com/rationlp/rationlp/internal/ast"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	costs   map[string]float64
	batches map[string]float64
}

func (f fakeResolver) IngredientCost(name string) (float64, bool) {
	v, ok := f.costs[name]
	return v, ok
}

func (f fakeResolver) FormulaBatchSize(name string) (float64, bool) {
	v, ok := f.batches[name]
	return v, ok
}

func TestEvalNumber(t *testing.T) {
	v, err := Eval(ast.NewNumber(4.5), fakeResolver{})
	require.NoError(t, err)
	require.Equal(t, 4.5, v)
}

func TestEvalArithmetic(t *testing.T) {
	expr := ast.NewBinaryOp(ast.NewNumber(2), ast.Add, ast.NewBinaryOp(ast.NewNumber(3), ast.Mul, ast.NewNumber(4)))
	v, err := Eval(expr, fakeResolver{})
	require.NoError(t, err)
	require.Equal(t, 14.0, v)
}

func TestEvalIngredientCostReference(t *testing.T) {
	ref := ast.NewReference(ast.Reference{Parts: []ast.ReferencePart{
		{Kind: ast.PartIdent, Ident: "corn"},
		{Kind: ast.PartIdent, Ident: "cost"},
	}})
	expr := ast.NewBinaryOp(ref, ast.Mul, ast.NewNumber(2))
	v, err := Eval(expr, fakeResolver{costs: map[string]float64{"corn": 100}})
	require.NoError(t, err)
	require.Equal(t, 200.0, v)
}

func TestEvalBatchAlias(t *testing.T) {
	ref := ast.NewReference(ast.Reference{Parts: []ast.ReferencePart{
		{Kind: ast.PartIdent, Ident: "base"},
		{Kind: ast.PartIdent, Ident: "batch"},
	}})
	v, err := Eval(ref, fakeResolver{batches: map[string]float64{"base": 100}})
	require.NoError(t, err)
	require.Equal(t, 100.0, v)
}

func TestEvalDivisionByZero(t *testing.T) {
	expr := ast.NewBinaryOp(ast.NewNumber(1), ast.Div, ast.NewNumber(0))
	_, err := Eval(expr, fakeResolver{})
	require.Error(t, err)
	var ee *Error
	require.ErrorAs(t, err, &ee)
	require.Equal(t, ErrDivisionByZero, ee.Kind)
}

func TestEvalInvalidPropertyReference(t *testing.T) {
	ref := ast.NewReference(ast.Reference{Parts: []ast.ReferencePart{
		{Kind: ast.PartIdent, Ident: "corn"},
		{Kind: ast.PartIdent, Ident: "weight"},
	}})
	_, err := Eval(ref, fakeResolver{})
	require.Error(t, err)
	var ee *Error
	require.ErrorAs(t, err, &ee)
	require.Equal(t, ErrInvalidPropertyReference, ee.Kind)
}

func TestEvalThreePartReferenceRejected(t *testing.T) {
	ref := ast.NewReference(ast.Reference{Parts: []ast.ReferencePart{
		{Kind: ast.PartIdent, Ident: "a"},
		{Kind: ast.PartIdent, Ident: "b"},
		{Kind: ast.PartIdent, Ident: "c"},
	}})
	_, err := Eval(ref, fakeResolver{})
	require.Error(t, err)
}
