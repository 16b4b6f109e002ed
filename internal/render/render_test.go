package render

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rationlp/rationlp/internal/diagnostics"
	"github.com/rationlp/rationlp/internal/simplex"
	"github.com/rationlp/rationlp/internal/token"
)

func TestDiagnosticsNoIssues(t *testing.T) {
	var buf bytes.Buffer
	Diagnostics(&buf, nil, false)
	require.Contains(t, buf.String(), "no issues found")
}

func TestDiagnosticsListsErrorsBeforeWarnings(t *testing.T) {
	var buf bytes.Buffer
	diags := []diagnostics.Diagnostic{
		{Span: token.Span{Start: 5}, Severity: diagnostics.SeverityWarning, Message: "a warning"},
		{Span: token.Span{Start: 1}, Severity: diagnostics.SeverityError, Message: "an error"},
	}
	Diagnostics(&buf, diags, false)
	out := buf.String()
	require.Less(t, indexOf(out, "an error"), indexOf(out, "a warning"))
}

func TestSolutionRendersOptimal(t *testing.T) {
	var buf bytes.Buffer
	sol := simplex.Solution{
		Status:         simplex.Optimal,
		Values:         []float64{3, 1},
		ObjectiveValue: 11,
		Analysis: simplex.Analysis{
			ReducedCosts:       []simplex.ReducedCost{{Variable: "corn"}, {Variable: "soy"}},
			BindingConstraints: []string{"batch"},
		},
	}
	Solution(&buf, "feed_mix", sol, true, false)
	out := buf.String()
	require.Contains(t, out, "feed_mix")
	require.Contains(t, out, "corn")
	require.Contains(t, out, "batch")
}

func TestSolutionRendersInfeasible(t *testing.T) {
	var buf bytes.Buffer
	sol := simplex.Solution{
		Status:     simplex.Infeasible,
		Violations: []simplex.ConstraintViolation{{Description: "protein is below its minimum"}},
	}
	Solution(&buf, "feed_mix", sol, false, false)
	require.Contains(t, buf.String(), "protein is below its minimum")
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
