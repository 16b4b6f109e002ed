package simplex

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rationlp/rationlp/internal/lp"
)

// Maximize 3x + 2y subject to x + y <= 4, x <= 3, y <= 3.
// Optimal at x=3, y=1, objective=11.
func TestSolveMaximization(t *testing.T) {
	problem := &lp.Problem{
		Variables: []string{"x", "y"},
		Objective: lp.Objective{Coeffs: []float64{3, 2}, Minimize: false},
		Constraints: []lp.Constraint{
			{Name: "c1", Coeffs: []float64{1, 1}, Op: lp.LE, RHS: 4},
			{Name: "c2", Coeffs: []float64{1, 0}, Op: lp.LE, RHS: 3},
			{Name: "c3", Coeffs: []float64{0, 1}, Op: lp.LE, RHS: 3},
		},
	}

	sol := New().Solve(problem)
	require.Equal(t, Optimal, sol.Status)
	require.InDelta(t, 3, sol.Values[0], 1e-6)
	require.InDelta(t, 1, sol.Values[1], 1e-6)
	require.InDelta(t, 11, sol.ObjectiveValue, 1e-6)

	// x+y<=4 and x<=3 are tight at the optimum; y<=3 is slack. The shadow
	// prices are the negated objective-row entries in the slack columns.
	require.Len(t, sol.Analysis.ShadowPrices, 3)
	require.InDelta(t, 2, sol.Analysis.ShadowPrices[0].Value, 1e-6)
	require.InDelta(t, 1, sol.Analysis.ShadowPrices[1].Value, 1e-6)
	require.InDelta(t, 0, sol.Analysis.ShadowPrices[2].Value, 1e-6)
	require.Equal(t, []string{"c1", "c2"}, sol.Analysis.BindingConstraints)

	// Both variables are basic at the optimum, so their reduced costs are 0.
	require.Len(t, sol.Analysis.ReducedCosts, 2)
	for _, rc := range sol.Analysis.ReducedCosts {
		require.True(t, rc.IsBasic)
		require.InDelta(t, 0, rc.ReducedCost, 1e-6)
	}
}

// Minimize 2x + 3y subject to x + y >= 4, x <= 3, y >= 0. Optimal at x=3,
// y=1, objective=9.
func TestSolveMinimizationWithGE(t *testing.T) {
	problem := &lp.Problem{
		Variables: []string{"x", "y"},
		Objective: lp.Objective{Coeffs: []float64{2, 3}, Minimize: true},
		Constraints: []lp.Constraint{
			{Name: "c1", Coeffs: []float64{1, 1}, Op: lp.GE, RHS: 4},
			{Name: "c2", Coeffs: []float64{1, 0}, Op: lp.LE, RHS: 3},
		},
	}

	sol := New().Solve(problem)
	require.Equal(t, Optimal, sol.Status)
	require.InDelta(t, 3, sol.Values[0], 1e-6)
	require.InDelta(t, 1, sol.Values[1], 1e-6)
	require.InDelta(t, 9, sol.ObjectiveValue, 1e-6)

	// Both constraints bind; the surplus column of c1 carries -3 and the
	// slack column of c2 carries -1 in the final objective row, so the
	// negated entries read 3 and 1.
	require.Len(t, sol.Analysis.ShadowPrices, 2)
	require.InDelta(t, 3, sol.Analysis.ShadowPrices[0].Value, 1e-6)
	require.InDelta(t, 1, sol.Analysis.ShadowPrices[1].Value, 1e-6)
	require.Equal(t, []string{"c1", "c2"}, sol.Analysis.BindingConstraints)
	for _, rc := range sol.Analysis.ReducedCosts {
		require.True(t, rc.IsBasic)
		require.InDelta(t, 0, rc.ReducedCost, 1e-6)
	}
}

// Minimize 2x + 3y subject to x + y >= 4 alone: the optimum sits at x=4,
// y=0 with y non-basic, so y's reduced cost is read straight off the final
// objective row.
func TestReducedCostOfNonBasicVariable(t *testing.T) {
	problem := &lp.Problem{
		Variables: []string{"x", "y"},
		Objective: lp.Objective{Coeffs: []float64{2, 3}, Minimize: true},
		Constraints: []lp.Constraint{
			{Name: "c1", Coeffs: []float64{1, 1}, Op: lp.GE, RHS: 4},
		},
	}

	sol := New().Solve(problem)
	require.Equal(t, Optimal, sol.Status)
	require.InDelta(t, 4, sol.Values[0], 1e-6)
	require.InDelta(t, 0, sol.Values[1], 1e-6)
	require.InDelta(t, 8, sol.ObjectiveValue, 1e-6)

	require.Len(t, sol.Analysis.ReducedCosts, 2)
	x, y := sol.Analysis.ReducedCosts[0], sol.Analysis.ReducedCosts[1]
	require.True(t, x.IsBasic)
	require.InDelta(t, 0, x.ReducedCost, 1e-6)
	require.False(t, y.IsBasic)
	require.InDelta(t, -1, y.ReducedCost, 1e-6)

	require.InDelta(t, 2, sol.Analysis.ShadowPrices[0].Value, 1e-6)
	require.Equal(t, []string{"c1"}, sol.Analysis.BindingConstraints)
}

// x >= 5 and x <= 3 can never simultaneously hold.
func TestSolveInfeasible(t *testing.T) {
	problem := &lp.Problem{
		Variables: []string{"x"},
		Objective: lp.Objective{Coeffs: []float64{1}, Minimize: true},
		Constraints: []lp.Constraint{
			{Name: "x_min", Coeffs: []float64{1}, Op: lp.GE, RHS: 5},
			{Name: "x_max", Coeffs: []float64{1}, Op: lp.LE, RHS: 3},
		},
	}

	sol := New().Solve(problem)
	require.Equal(t, Infeasible, sol.Status)
	require.NotEmpty(t, sol.Violations)

	// Both sides of the conflict must be named.
	var mentionsMin, mentionsMax bool
	for _, v := range sol.Violations {
		if strings.Contains(v.Constraint, "x_min") {
			mentionsMin = true
		}
		if strings.Contains(v.Constraint, "x_max") {
			mentionsMax = true
		}
	}
	require.True(t, mentionsMin, "expected a violation naming x_min, got %+v", sol.Violations)
	require.True(t, mentionsMax, "expected a violation naming x_max, got %+v", sol.Violations)
}

// TestSolveIsOptimalAgainstAllConstraints checks that the reported optimum
// satisfies every constraint within tolerance.
func TestSolveIsOptimalAgainstAllConstraints(t *testing.T) {
	problem := &lp.Problem{
		Variables: []string{"a", "b"},
		Objective: lp.Objective{Coeffs: []float64{1, 1}, Minimize: true},
		Constraints: []lp.Constraint{
			{Name: "a_min", Coeffs: []float64{1, 0}, Op: lp.GE, RHS: 2},
			{Name: "b_min", Coeffs: []float64{0, 1}, Op: lp.GE, RHS: 3},
		},
	}

	sol := New().Solve(problem)
	require.Equal(t, Optimal, sol.Status)
	require.InDelta(t, 5, sol.ObjectiveValue, 1e-6)
	for _, c := range problem.Constraints {
		lhs := c.Coeffs[0]*sol.Values[0] + c.Coeffs[1]*sol.Values[1]
		require.GreaterOrEqual(t, lhs, c.RHS-1e-6)
	}
}

// TestSolveDeterministic checks that solving the same problem twice yields
// identical results, bit for bit.
func TestSolveDeterministic(t *testing.T) {
	problem := &lp.Problem{
		Variables: []string{"x", "y"},
		Objective: lp.Objective{Coeffs: []float64{3, 2}, Minimize: false},
		Constraints: []lp.Constraint{
			{Name: "c1", Coeffs: []float64{1, 1}, Op: lp.LE, RHS: 4},
			{Name: "c2", Coeffs: []float64{1, 3}, Op: lp.LE, RHS: 6},
		},
	}

	first := New().Solve(problem)
	second := New().Solve(problem)
	require.Equal(t, first.Status, second.Status)
	require.Equal(t, first.Values, second.Values)
	require.Equal(t, first.ObjectiveValue, second.ObjectiveValue)
}

// TestSolveInfeasibilityReportsRatherThanPanics checks that an infeasible
// problem never panics, always returns a structured Solution.
func TestSolveInfeasibilityReportsRatherThanPanics(t *testing.T) {
	problem := &lp.Problem{
		Variables: []string{"x", "y"},
		Objective: lp.Objective{Coeffs: []float64{1, 1}, Minimize: true},
		Constraints: []lp.Constraint{
			{Name: "x_min", Coeffs: []float64{1, 0}, Op: lp.GE, RHS: 10},
			{Name: "x_max", Coeffs: []float64{1, 0}, Op: lp.LE, RHS: 2},
			{Name: "y_min", Coeffs: []float64{0, 1}, Op: lp.GE, RHS: 1},
		},
	}

	require.NotPanics(t, func() {
		sol := New().Solve(problem)
		require.Equal(t, Infeasible, sol.Status)
		require.NotEmpty(t, sol.Violations)
	})
}

// TestWithToleranceAndMaxIterations checks the fluent configuration methods
// take effect.
func TestWithToleranceAndMaxIterations(t *testing.T) {
	s := New().WithTolerance(1e-6).WithMaxIterations(50)
	require.Equal(t, 1e-6, s.tolerance)
	require.Equal(t, 50, s.maxIterations)
}
