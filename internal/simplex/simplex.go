package simplex

import (
	"math"
	"sort"

	"github.com/rationlp/rationlp/internal/lp"
)

const (
	defaultTolerance     = 1e-9
	defaultMaxIterations = 10000
)

var (
	posInf = math.Inf(1)
	negInf = math.Inf(-1)
)

// Solver is a two-phase tableau simplex solver. The zero value is not
// usable; construct with New.
type Solver struct {
	maxIterations int
	tolerance     float64
}

// New constructs a Solver with the default iteration cap (10000) and
// tolerance (1e-9).
func New() *Solver {
	return &Solver{maxIterations: defaultMaxIterations, tolerance: defaultTolerance}
}

// WithMaxIterations overrides the iteration cap.
func (s *Solver) WithMaxIterations(max int) *Solver {
	s.maxIterations = max
	return s
}

// WithTolerance overrides the numeric tolerance ε.
func (s *Solver) WithTolerance(tol float64) *Solver {
	s.tolerance = tol
	return s
}

// Solve runs the two-phase simplex method on problem, falling back to
// infeasibility recovery if the full problem cannot be solved.
func (s *Solver) Solve(problem *lp.Problem) Solution {
	tableau, err := s.buildTableau(problem)
	if err != nil {
		return s.solveWithRelaxation(problem)
	}

	if tableau.hasArtificial {
		if !s.phase1(tableau) {
			return s.solveWithRelaxation(problem)
		}
	}

	switch s.phase2(tableau) {
	case resultUnbounded:
		return unboundedSolution()
	case resultInfeasible:
		return s.solveWithRelaxation(problem)
	}

	sol := s.extractSolution(tableau, problem)
	sol.Violations = nil
	return sol
}

// solveWithRelaxation retries with only the ≤ and = constraints kept (the ≥
// lower bounds dropped), then reports which of the *original* constraints
// that relaxed point violates. If even the relaxed problem is infeasible,
// falls back to sign-pattern conflict bucketing.
func (s *Solver) solveWithRelaxation(problem *lp.Problem) Solution {
	relaxed := &lp.Problem{Variables: problem.Variables, Objective: problem.Objective}
	for _, c := range problem.Constraints {
		if c.Op != lp.GE {
			relaxed.Constraints = append(relaxed.Constraints, c)
		}
	}

	relaxedSol := s.solveRelaxed(relaxed)
	if relaxedSol.Status != Optimal {
		return s.analyzeConflicts(problem)
	}

	violations := s.findViolations(problem, relaxedSol.Values)
	if len(violations) == 0 {
		relaxedSol.Violations = nil
		return relaxedSol
	}
	// The relaxed point only reveals which constraints it happens to fail;
	// a dropped lower bound can directly conflict with an upper bound on
	// the same variables regardless of which feasible relaxed point the
	// solver lands on, so surface that conflict too rather than only the
	// one constraint the particular relaxed optimum violated.
	violations = mergeViolations(violations, s.directConflicts(problem))
	return infeasibleWithRelaxed(relaxedSol.Values, relaxedSol.ObjectiveValue, violations)
}

func mergeViolations(base, extra []ConstraintViolation) []ConstraintViolation {
	seen := make(map[string]bool, len(base))
	for _, v := range base {
		seen[v.Constraint] = true
	}
	for _, v := range extra {
		if !seen[v.Constraint] {
			seen[v.Constraint] = true
			base = append(base, v)
		}
	}
	return base
}

// solveRelaxed solves problem without a further relaxation fallback; used
// internally so the relaxed retry itself can't recurse.
func (s *Solver) solveRelaxed(problem *lp.Problem) Solution {
	tableau, err := s.buildTableau(problem)
	if err != nil {
		return infeasibleSolution()
	}
	if tableau.hasArtificial {
		if !s.phase1(tableau) {
			return infeasibleSolution()
		}
	}
	switch s.phase2(tableau) {
	case resultUnbounded:
		return unboundedSolution()
	case resultInfeasible:
		return infeasibleSolution()
	}
	sol := s.extractSolution(tableau, problem)
	sol.Violations = nil
	return sol
}

func (s *Solver) findViolations(problem *lp.Problem, values []float64) []ConstraintViolation {
	var violations []ConstraintViolation
	for _, c := range problem.Constraints {
		lhs := 0.0
		for j, coef := range c.Coeffs {
			if j < len(values) {
				lhs += coef * values[j]
			}
		}
		var violated bool
		var amount float64
		var desc string
		switch c.Op {
		case lp.LE:
			if lhs > c.RHS+s.tolerance {
				amount = lhs - c.RHS
				violated = true
				desc = c.Name + " exceeds its maximum"
			}
		case lp.GE:
			if lhs < c.RHS-s.tolerance {
				amount = c.RHS - lhs
				violated = true
				desc = c.Name + " is below its minimum"
			}
		case lp.EQ:
			diff := math.Abs(lhs - c.RHS)
			if diff > s.tolerance {
				amount = diff
				violated = true
				desc = c.Name + " does not hold exactly"
			}
		}
		if violated {
			violations = append(violations, ConstraintViolation{
				Constraint: c.Name, Required: c.RHS, Actual: lhs,
				ViolationAmount: amount, Description: desc,
			})
		}
	}
	sort.SliceStable(violations, func(i, j int) bool {
		return violations[i].ViolationAmount > violations[j].ViolationAmount
	})
	return violations
}

// analyzeConflicts is the last-resort infeasibility report when even the
// relaxed problem has no feasible point.
func (s *Solver) analyzeConflicts(problem *lp.Problem) Solution {
	return infeasibleWithViolations(s.directConflicts(problem))
}

// directConflicts buckets constraints by the sign pattern of their
// coefficient vectors and, within each bucket, reports a direct conflict
// when the tightest lower bound exceeds the loosest upper bound. Buckets
// are visited in first-seen order so the result is deterministic, unlike
// iterating a hash map.
func (s *Solver) directConflicts(problem *lp.Problem) []ConstraintViolation {
	var bucketOrder []string
	buckets := map[string][]lp.Constraint{}
	for _, c := range problem.Constraints {
		key := signPattern(c.Coeffs, s.tolerance)
		if _, ok := buckets[key]; !ok {
			bucketOrder = append(bucketOrder, key)
		}
		buckets[key] = append(buckets[key], c)
	}

	var violations []ConstraintViolation
	for _, key := range bucketOrder {
		var minVal, maxVal float64
		var minName, maxName string
		haveMin, haveMax := false, false
		for _, c := range buckets[key] {
			switch c.Op {
			case lp.GE:
				if !haveMin || c.RHS > minVal {
					minVal, minName, haveMin = c.RHS, c.Name, true
				}
			case lp.LE:
				if !haveMax || c.RHS < maxVal {
					maxVal, maxName, haveMax = c.RHS, c.Name, true
				}
			case lp.EQ:
				minVal, minName, haveMin = c.RHS, c.Name, true
				maxVal, maxName, haveMax = c.RHS, c.Name, true
			}
		}
		if haveMin && haveMax && minVal > maxVal+s.tolerance {
			violations = append(violations, ConstraintViolation{
				Constraint:      minName + " vs " + maxName,
				Required:        minVal,
				Actual:          maxVal,
				ViolationAmount: minVal - maxVal,
				Description:     "conflict: " + minName + " requires a value at least " + minName + "'s bound while " + maxName + " requires one at most " + maxName + "'s bound",
			})
		}
	}
	return violations
}

func signPattern(coeffs []float64, tol float64) string {
	buf := make([]byte, len(coeffs))
	for i, v := range coeffs {
		switch {
		case math.Abs(v) < tol:
			buf[i] = '0'
		case v > 0:
			buf[i] = '+'
		default:
			buf[i] = '-'
		}
	}
	return string(buf)
}
