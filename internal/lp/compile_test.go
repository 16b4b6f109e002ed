package lp

import (
	"testing"

	"github.com/rationlp/rationlp/internal/loader"
	"github.com/rationlp/rationlp/internal/symbols"
	"github.com/stretchr/testify/require"
)

func buildTable(t *testing.T, src string) *symbols.Table {
	t.Helper()
	imp := fakeImporter{"root.rlp": src}
	prog, err := loader.New(imp).Load("root.rlp")
	require.NoError(t, err)
	table, err := symbols.Build(prog)
	require.NoError(t, err)
	return table
}

type fakeImporter map[string]string

func (f fakeImporter) Read(p string) (string, error) { return f[p], nil }
func (f fakeImporter) Canonicalize(p string) (string, error) { return p, nil }
func (f fakeImporter) Resolve(_, importPath string) (string, error) { return importPath, nil }

func constraintNames(cs []Constraint) []string {
	var out []string
	for _, c := range cs {
		out = append(out, c.Name)
	}
	return out
}

func findConstraint(t *testing.T, cs []Constraint, name string) Constraint {
	t.Helper()
	for _, c := range cs {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("no constraint named %q among %v", name, constraintNames(cs))
	return Constraint{}
}

func TestCompileSimpleFeedMix(t *testing.T) {
	table := buildTable(t, `
ingredient corn { cost 100 nutrients { protein 8 } }
ingredient soy { cost 300 nutrients { protein 45 } }
formula test {
	batch_size 100
	nutrients { protein min 20 }
	ingredients { corn soy }
}
`)
	cf, err := CompileFormula(table, "test")
	require.NoError(t, err)
	require.Equal(t, 100.0, cf.Batch)
	require.ElementsMatch(t, []string{"corn", "soy"}, cf.Variables)

	proteinMin := findConstraint(t, cf.Problem.Constraints, "protein_min")
	require.Equal(t, GE, proteinMin.Op)
	require.Equal(t, 20.0*100, proteinMin.RHS)

	batchRow := findConstraint(t, cf.Problem.Constraints, "batch_size")
	require.Equal(t, EQ, batchRow.Op)
	require.Equal(t, 100.0, batchRow.RHS)
	for _, c := range batchRow.Coeffs {
		require.Equal(t, 1.0, c)
	}

	for _, v := range cf.Variables {
		nonneg := findConstraint(t, cf.Problem.Constraints, v+"_nonneg")
		require.Equal(t, GE, nonneg.Op)
		require.Equal(t, 0.0, nonneg.RHS)
	}
}

func TestCompileRatioConstraint(t *testing.T) {
	table := buildTable(t, `
ingredient limestone { cost 50 nutrients { calcium 38 phosphorus 0 } }
ingredient dcp { cost 400 nutrients { calcium 23 phosphorus 18 } }
formula test {
	batch_size 100
	nutrients { calcium/phosphorus min 1.5 max 2.0 as ca_p }
	ingredients { limestone dcp }
}
`)
	cf, err := CompileFormula(table, "test")
	require.NoError(t, err)

	min := findConstraint(t, cf.Problem.Constraints, "ca_p_min")
	require.Equal(t, GE, min.Op)
	require.Equal(t, 0.0, min.RHS)

	max := findConstraint(t, cf.Problem.Constraints, "ca_p_max")
	require.Equal(t, LE, max.Op)
	require.Equal(t, 0.0, max.RHS)
}

func TestCompileRejectsTemplate(t *testing.T) {
	table := buildTable(t, `
template formula base {
	batch_size 100
	nutrients { }
	ingredients { }
}
`)
	_, err := CompileFormula(table, "base")
	require.Error(t, err)
	var lerr *Error
	require.ErrorAs(t, err, &lerr)
	require.Equal(t, ErrCannotSolveTemplate, lerr.Kind)
}

func TestCompileCompositionOverride(t *testing.T) {
	// derived keeps base's protein_max untouched; only the explicitly
	// restated min is replaced.
	table := buildTable(t, `
ingredient corn { cost 100 nutrients { protein 8 } }
ingredient soy { cost 300 nutrients { protein 45 } }
formula base {
	batch_size 100
	nutrients { protein min 18 max 24 }
	ingredients { corn soy }
}
formula derived {
	batch_size 100
	nutrients {
		base.nutrients
		protein min 20
	}
	ingredients { corn soy }
}
`)
	cf, err := CompileFormula(table, "derived")
	require.NoError(t, err)
	require.Equal(t, 100.0, cf.Batch)

	min := findConstraint(t, cf.Problem.Constraints, "protein_min")
	require.Equal(t, 20.0*100, min.RHS)
	max := findConstraint(t, cf.Problem.Constraints, "protein_max")
	require.Equal(t, 24.0*100, max.RHS)

	names := constraintNames(cf.Problem.Constraints)
	require.Equal(t, 1, countOccurrences(names, "protein_min"))
	require.Equal(t, 1, countOccurrences(names, "protein_max"))
}

func countOccurrences(xs []string, target string) int {
	n := 0
	for _, x := range xs {
		if x == target {
			n++
		}
	}
	return n
}

func TestCompileRejectsPercentInNutrientConstraint(t *testing.T) {
	table := buildTable(t, `
ingredient corn { cost 100 nutrients { protein 8 } }
formula test {
	batch_size 100
	nutrients { protein min 20% }
	ingredients { corn }
}
`)
	_, err := CompileFormula(table, "test")
	require.Error(t, err)
	var lerr *Error
	require.ErrorAs(t, err, &lerr)
	require.Equal(t, ErrPercentInNutrientConstraint, lerr.Kind)
}

func TestCompileIngredientPercentBound(t *testing.T) {
	table := buildTable(t, `
ingredient corn { cost 100 nutrients { protein 8 } }
ingredient soy { cost 300 nutrients { protein 45 } }
formula test {
	batch_size 100
	nutrients { protein min 20 }
	ingredients { corn max 60% soy }
}
`)
	cf, err := CompileFormula(table, "test")
	require.NoError(t, err)
	cornMax := findConstraint(t, cf.Problem.Constraints, "corn_max")
	require.Equal(t, LE, cornMax.Op)
	require.Equal(t, 60.0, cornMax.RHS)
}

func TestCanonicalKeyMatchesAcrossEquivalentExpressions(t *testing.T) {
	table := buildTable(t, `
ingredient corn { cost 100 nutrients { protein 8 } }
ingredient soy { cost 300 nutrients { protein 45 } }
template formula base {
	batch_size 100
	nutrients { }
	ingredients { corn + soy min 90 }
}
formula derived {
	batch_size 100
	nutrients { }
	ingredients {
		base.ingredients
		corn + soy max 95
	}
}
`)
	cf, err := CompileFormula(table, "derived")
	require.NoError(t, err)
	names := constraintNames(cf.Problem.Constraints)
	// base's min (90) is inherited as the baseline and the direct entry
	// overlays only the max (95) it specifies; both rows survive, exactly
	// once each, under the same canonical key.
	require.Equal(t, 1, countOccurrences(names, "corn+soy_max"))
	require.Equal(t, 1, countOccurrences(names, "corn+soy_min"))
	min := findConstraint(t, cf.Problem.Constraints, "corn+soy_min")
	require.Equal(t, 90.0, min.RHS)
	max := findConstraint(t, cf.Problem.Constraints, "corn+soy_max")
	require.Equal(t, 95.0, max.RHS)
}
