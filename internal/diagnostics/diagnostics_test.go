package diagnostics

import (
	"testing"

	"github.com/rationlp/rationlp/internal/parser"
	"github.com/stretchr/testify/require"
)

func TestValidateDetectsDuplicateIngredient(t *testing.T) {
	prog, err := parser.Parse(`
ingredient corn { cost 100 }
ingredient corn { cost 200 }
`)
	require.NoError(t, err)
	diags := Validate(prog)
	require.Contains(t, messages(diags), `duplicate ingredient "corn"`)
}

func TestValidateFlagsUnknownProperty(t *testing.T) {
	prog, err := parser.Parse(`ingredient corn { cost 100 bogus 1 }`)
	require.NoError(t, err)
	diags := Validate(prog)
	require.Contains(t, messages(diags), `unknown ingredient property "bogus"`)
}

func TestValidateWarnsOnMissingCost(t *testing.T) {
	prog, err := parser.Parse(`ingredient corn { }`)
	require.NoError(t, err)
	diags := Validate(prog)
	require.Len(t, diags, 1)
	require.Equal(t, SeverityWarning, diags[0].Severity)
}

func TestValidateTemplateIngredientExemptFromMissingCost(t *testing.T) {
	prog, err := parser.Parse(`template ingredient base { }`)
	require.NoError(t, err)
	diags := Validate(prog)
	require.Empty(t, diags)
}

func TestValidateWarnsOnMissingBatchSize(t *testing.T) {
	prog, err := parser.Parse(`
formula test {
	nutrients { }
	ingredients { }
}
`)
	require.NoError(t, err)
	diags := Validate(prog)
	require.Contains(t, messages(diags), `formula "test" has no batch_size`)
}

func TestValidateFlagsIngredientBareAsNutrient(t *testing.T) {
	prog, err := parser.Parse(`
ingredient corn { cost 100 nutrients { protein 8 } }
ingredient soy { cost 200 nutrients { corn 5 } }
`)
	require.NoError(t, err)
	diags := Validate(prog)
	found := false
	for _, d := range diags {
		if d.Message == `"corn" is an ingredient, not a nutrient; did you mean corn.nutrients?` {
			found = true
		}
	}
	require.True(t, found)
}

func TestValidateAcceptsIngredientCompositionReference(t *testing.T) {
	prog, err := parser.Parse(`
ingredient corn { cost 100 nutrients { protein 8 } }
ingredient gluten { cost 150 nutrients { corn.nutrients } }
`)
	require.NoError(t, err)
	diags := Validate(prog)
	require.Empty(t, diags)
}

func TestValidateFlagsIngredientReferenceInFormulaNutrients(t *testing.T) {
	prog, err := parser.Parse(`
ingredient corn { cost 100 nutrients { protein 8 } }
formula test {
	batch_size 100
	nutrients { corn min 10 }
	ingredients { corn }
}
`)
	require.NoError(t, err)
	diags := Validate(prog)
	require.Contains(t, messages(diags), `"corn" is an ingredient, not a nutrient, in the nutrients block`)
}

func TestValidateFlagsNutrientReferenceInFormulaIngredients(t *testing.T) {
	prog, err := parser.Parse(`
ingredient corn { cost 100 nutrients { protein 8 } }
formula test {
	batch_size 100
	nutrients { protein min 10 }
	ingredients { protein }
}
`)
	require.NoError(t, err)
	diags := Validate(prog)
	require.Contains(t, messages(diags), `"protein" is a nutrient, not an ingredient, in the ingredients block`)
}

func messages(diags []Diagnostic) []string {
	var out []string
	for _, d := range diags {
		out = append(out, d.Message)
	}
	return out
}
