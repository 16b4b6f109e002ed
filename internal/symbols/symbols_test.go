package symbols

import (
	"testing"

	"github.com/rationlp/rationlp/internal/parser"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, src string) *Table {
	t.Helper()
	prog, err := parser.Parse(src)
	require.NoError(t, err)
	tab, err := Build(prog)
	require.NoError(t, err)
	return tab
}

func TestResolveSimpleIngredient(t *testing.T) {
	tab := mustParse(t, `
ingredient corn {
  cost 100
  nutrients { protein 8.5 }
}
`)
	e, err := tab.ResolveIngredient("corn")
	require.NoError(t, err)
	require.Equal(t, 100.0, e.Cost)
	require.Equal(t, 8.5, e.Nutrients["protein"])
}

func TestCompositionWholeMapAndOverride(t *testing.T) {
	tab := mustParse(t, `
ingredient corn {
  cost 100
  nutrients { protein 8.5 calcium 0.02 }
}
ingredient blend {
  cost 200
  nutrients {
    corn.nutrients
    protein 9.0
  }
}
`)
	e, err := tab.ResolveIngredient("blend")
	require.NoError(t, err)
	require.Equal(t, 9.0, e.Nutrients["protein"])
	require.Equal(t, 0.02, e.Nutrients["calcium"])
}

func TestCompositionSingleNutrient(t *testing.T) {
	tab := mustParse(t, `
ingredient corn {
  cost 100
  nutrients { protein 8.5 calcium 0.02 }
}
ingredient blend {
  cost 200
  nutrients {
    corn.nutrients.protein
  }
}
`)
	e, err := tab.ResolveIngredient("blend")
	require.NoError(t, err)
	require.Equal(t, 8.5, e.Nutrients["protein"])
	_, hasCalcium := e.Nutrients["calcium"]
	require.False(t, hasCalcium)
}

func TestMissingCostFailsForNonTemplate(t *testing.T) {
	prog, err := parser.Parse(`ingredient corn { nutrients { protein 8 } }`)
	require.NoError(t, err)
	_, err = Build(prog)
	require.Error(t, err)
	var se *Error
	require.ErrorAs(t, err, &se)
	require.Equal(t, ErrMissingCost, se.Kind)
}

func TestTemplateDefaultsCostToZero(t *testing.T) {
	tab := mustParse(t, `template ingredient base { nutrients { protein 8 } }`)
	e, err := tab.ResolveIngredient("base")
	require.NoError(t, err)
	require.Equal(t, 0.0, e.Cost)
}

func TestCostExpressionReferencesOtherIngredient(t *testing.T) {
	tab := mustParse(t, `
ingredient corn {
  cost 100
  nutrients { protein 8 }
}
ingredient doubled {
  cost corn.cost * 2
  nutrients { protein 8 }
}
`)
	e, err := tab.ResolveIngredient("doubled")
	require.NoError(t, err)
	require.Equal(t, 200.0, e.Cost)
}

func TestFormulaBatchSizeAlias(t *testing.T) {
	tab := mustParse(t, `formula f { batch 100 }`)
	v, err := tab.ResolveFormulaBatchSize("f")
	require.NoError(t, err)
	require.Equal(t, 100.0, v)
}

func TestMissingBatchSize(t *testing.T) {
	tab := mustParse(t, `formula f { }`)
	_, err := tab.ResolveFormulaBatchSize("f")
	require.Error(t, err)
	var se *Error
	require.ErrorAs(t, err, &se)
	require.Equal(t, ErrMissingBatchSize, se.Kind)
}
