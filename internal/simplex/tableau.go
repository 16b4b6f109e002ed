package simplex

import (
	"fmt"
	"math"

	"github.com/rationlp/rationlp/internal/lp"
	"github.com/rationlp/rationlp/internal/rdebug"
)

// phaseResult is the outcome of running one phase of the simplex method.
type phaseResult int

const (
	resultContinue phaseResult = iota
	resultOptimal
	resultUnbounded
	resultInfeasible
)

// tableau is the simplex working array: nVars decision variables, nSlack
// slack/surplus columns (one per constraint), nArtificial artificial
// columns (one per ≥ or = row, counted after rows with a negative RHS are
// flipped), plus an RHS column and an
// objective row. basicVars[i] names which column is basic in row i.
type tableau struct {
	data          [][]float64
	basicVars     []int
	nVars         int
	nSlack        int
	nArtificial   int
	hasArtificial bool
	costRow       int // row index of the objective
}

func (t *tableau) numCols() int {
	return t.nVars + t.nSlack + t.nArtificial + 1
}

func (t *tableau) rhsCol() int {
	return t.numCols() - 1
}

// buildTableau lowers problem into a tableau: each constraint becomes one
// row, augmented with a slack (≤), surplus+artificial (≥), or artificial
// only (=) column, flipping rows with a negative RHS first so every row
// starts with a non-negative RHS. The objective row stores reduced costs:
// -c per decision column for minimization, +c for maximization, so the
// most-positive-entry pivot rule drives toward the optimum either way.
func (s *Solver) buildTableau(problem *lp.Problem) (*tableau, error) {
	n := len(problem.Variables)
	m := len(problem.Constraints)

	constraints := make([]lp.Constraint, m)
	copy(constraints, problem.Constraints)
	for i := range constraints {
		if constraints[i].RHS < 0 {
			flipped := make([]float64, n)
			for j, c := range constraints[i].Coeffs {
				flipped[j] = -c
			}
			op := constraints[i].Op
			switch op {
			case lp.LE:
				op = lp.GE
			case lp.GE:
				op = lp.LE
			}
			constraints[i] = lp.Constraint{Name: constraints[i].Name, Coeffs: flipped, Op: op, RHS: -constraints[i].RHS}
		}
	}

	nSlack := m
	nArtificial := 0
	for _, c := range constraints {
		if c.Op == lp.GE || c.Op == lp.EQ {
			nArtificial++
		}
	}

	t := &tableau{nVars: n, nSlack: nSlack, nArtificial: nArtificial, hasArtificial: nArtificial > 0}
	cols := t.numCols()
	t.data = make([][]float64, m+1)
	for i := range t.data {
		t.data[i] = make([]float64, cols)
	}
	t.basicVars = make([]int, m)

	artCol := n + nSlack
	for i, c := range constraints {
		row := t.data[i]
		copy(row, c.Coeffs)
		slackCol := n + i
		switch c.Op {
		case lp.LE:
			row[slackCol] = 1
			t.basicVars[i] = slackCol
		case lp.GE:
			row[slackCol] = -1
			row[artCol] = 1
			t.basicVars[i] = artCol
			artCol++
		case lp.EQ:
			row[artCol] = 1
			t.basicVars[i] = artCol
			artCol++
		}
		row[t.rhsCol()] = c.RHS
	}

	t.costRow = m
	obj := t.data[t.costRow]
	for j, c := range problem.Objective.Coeffs {
		if problem.Objective.Minimize {
			obj[j] = -c
		} else {
			obj[j] = c
		}
	}
	return t, nil
}

// phase1 maximizes -Σ artificials (minimizing their sum). Returns false if
// any artificial is still basic at a nonzero value afterwards, meaning the
// original problem is infeasible. On success the original objective row is
// restored and re-canonicalized against the current basis.
func (s *Solver) phase1(t *tableau) bool {
	m := len(t.basicVars)
	artStart := t.nVars + t.nSlack
	obj := t.data[t.costRow]

	orig := make([]float64, len(obj))
	copy(orig, obj)

	for j := range obj {
		obj[j] = 0
	}
	for j := artStart; j < artStart+t.nArtificial; j++ {
		obj[j] = -1
	}
	// Canonicalize: each basic artificial's row is added into the objective
	// so basic columns have zero reduced cost.
	for i := 0; i < m; i++ {
		if t.basicVars[i] >= artStart {
			subtractRow(obj, t.data[i], -1)
		}
	}

	for iter := 0; iter < s.maxIterations; iter++ {
		col, ok := s.findPivotColumn(t)
		if !ok {
			break
		}
		row, ok := s.findPivotRow(t, col)
		if !ok {
			return false // unbounded phase-1 objective means the original problem is infeasible
		}
		s.pivot(t, row, col)
		rdebug.Logf("phase1 pivot: row=%d col=%d\n", row, col)
	}

	for i := 0; i < m; i++ {
		if t.basicVars[i] >= artStart && math.Abs(t.data[i][t.rhsCol()]) > s.tolerance {
			return false
		}
	}

	copy(obj, orig)
	for i := 0; i < m; i++ {
		basic := t.basicVars[i]
		if math.Abs(obj[basic]) > s.tolerance {
			subtractRow(obj, t.data[i], obj[basic])
		}
	}
	return true
}

// phase2 runs the standard simplex optimization on the (restored)
// objective row, with artificial columns excluded from ever re-entering
// the basis.
func (s *Solver) phase2(t *tableau) phaseResult {
	excludeFrom := t.nVars + t.nSlack
	for iter := 0; iter < s.maxIterations; iter++ {
		col, ok := s.findPivotColumnExcluding(t, excludeFrom)
		if !ok {
			return resultOptimal
		}
		row, ok := s.findPivotRow(t, col)
		if !ok {
			return resultUnbounded
		}
		s.pivot(t, row, col)
		rdebug.Logf("phase2 pivot: row=%d col=%d\n", row, col)
	}
	return resultOptimal
}

// findPivotColumn picks the entering column among every real column.
func (s *Solver) findPivotColumn(t *tableau) (int, bool) {
	return s.findPivotColumnExcluding(t, 0)
}

// findPivotColumnExcluding picks the column with the largest positive
// reduced cost among columns [0, excludeFrom); excludeFrom 0 means every
// column but the RHS. Phase 2 passes nVars+nSlack so artificial columns
// can never re-enter the basis.
func (s *Solver) findPivotColumnExcluding(t *tableau, excludeFrom int) (int, bool) {
	obj := t.data[t.costRow]
	nCols := excludeFrom
	if nCols == 0 {
		nCols = t.rhsCol()
	}
	best := -1
	bestVal := s.tolerance
	for j := 0; j < nCols; j++ {
		if obj[j] > bestVal {
			bestVal = obj[j]
			best = j
		}
	}
	if best < 0 {
		return 0, false
	}
	return best, true
}

// findPivotRow applies the minimum-ratio test to choose the leaving
// variable for entering column col. Ties are broken by the smallest row
// index.
func (s *Solver) findPivotRow(t *tableau, col int) (int, bool) {
	m := len(t.basicVars)
	best := -1
	bestRatio := math.Inf(1)
	for i := 0; i < m; i++ {
		coef := t.data[i][col]
		if coef <= s.tolerance {
			continue
		}
		ratio := t.data[i][t.rhsCol()] / coef
		if ratio >= 0 && ratio < bestRatio {
			bestRatio = ratio
			best = i
		}
	}
	if best < 0 {
		return 0, false
	}
	return best, true
}

// pivot performs a Gauss-Jordan elimination step: scale row to make
// data[row][col] == 1, then eliminate col from every other row (including
// the objective row).
func (s *Solver) pivot(t *tableau, row, col int) {
	pivotVal := t.data[row][col]
	scaleRow(t.data[row], 1/pivotVal)
	for i := range t.data {
		if i == row {
			continue
		}
		factor := t.data[i][col]
		if math.Abs(factor) > s.tolerance {
			subtractRow(t.data[i], t.data[row], factor)
		}
	}
	t.basicVars[row] = col
}

func scaleRow(row []float64, factor float64) {
	for j := range row {
		row[j] *= factor
	}
}

// subtractRow computes dst -= factor*src, in place.
func subtractRow(dst, src []float64, factor float64) {
	for j := range dst {
		dst[j] -= factor * src[j]
	}
}

// extractSolution reads variable values off the final tableau and computes
// the sensitivity analysis. The objective value uses the problem's original
// coefficients, not the sign-adjusted objective row.
func (s *Solver) extractSolution(t *tableau, problem *lp.Problem) Solution {
	values := make([]float64, t.nVars)
	for i, bv := range t.basicVars {
		if bv < t.nVars {
			values[bv] = t.data[i][t.rhsCol()]
		}
	}

	objective := 0.0
	for j, v := range values {
		objective += problem.Objective.Coeffs[j] * v
	}

	return Solution{
		Status:         Optimal,
		Values:         values,
		ObjectiveValue: objective,
		Analysis:       s.analyze(t, problem, values),
	}
}

// analyze derives shadow prices (negated final objective-row entries in
// the slack/surplus columns), reduced costs (final objective-row entries
// in the decision columns, zero for basic variables), and the list of
// binding constraints. Full sensitivity ranging is not performed; ranges
// are reported as placeholders.
func (s *Solver) analyze(t *tableau, problem *lp.Problem, values []float64) Analysis {
	obj := t.data[t.costRow]
	var shadows []ShadowPrice
	var binding []string
	for i, c := range problem.Constraints {
		slackCol := t.nVars + i
		price := -obj[slackCol]
		var interp string
		switch {
		case math.Abs(price) < s.tolerance:
			interp = "Non-binding constraint"
		case price > 0:
			interp = fmt.Sprintf("Increasing RHS by 1 unit would decrease cost by %.4f", price)
		default:
			interp = fmt.Sprintf("Increasing RHS by 1 unit would increase cost by %.4f", -price)
		}
		if math.Abs(price) > s.tolerance {
			binding = append(binding, c.Name)
		}
		shadows = append(shadows, ShadowPrice{Constraint: c.Name, Value: price, Interpretation: interp})
	}

	var reduced []ReducedCost
	basic := make(map[int]bool, len(t.basicVars))
	for _, bv := range t.basicVars {
		basic[bv] = true
	}
	for j := 0; j < t.nVars; j++ {
		rc := 0.0
		if !basic[j] {
			rc = obj[j]
		}
		name := fmt.Sprintf("x%d", j)
		if j < len(problem.Variables) {
			name = problem.Variables[j]
		}
		reduced = append(reduced, ReducedCost{Variable: name, Value: values[j], ReducedCost: rc, IsBasic: basic[j]})
	}

	var objSens, rhsSens []SensitivityRange
	for j, name := range problem.Variables {
		objSens = append(objSens, SensitivityRange{Name: name, Current: problem.Objective.Coeffs[j], LowerBound: negInf, UpperBound: posInf})
	}
	for _, c := range problem.Constraints {
		rhsSens = append(rhsSens, SensitivityRange{Name: c.Name, Current: c.RHS, LowerBound: 0, UpperBound: posInf})
	}

	return Analysis{
		ShadowPrices:         shadows,
		ReducedCosts:         reduced,
		BindingConstraints:   binding,
		ObjectiveSensitivity: objSens,
		RHSSensitivity:       rhsSens,
	}
}
