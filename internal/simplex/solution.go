// Package simplex implements the two-phase tableau simplex method: solve
// an lp.Problem to a Solution, complete with shadow-price/reduced-cost
// analysis on success and constraint-relaxation-based infeasibility
// recovery on failure.
package simplex

// Status is the outcome of a solve call.
type Status int

const (
	Optimal Status = iota
	Infeasible
	Unbounded
	Error
)

func (s Status) String() string {
	switch s {
	case Optimal:
		return "optimal"
	case Infeasible:
		return "infeasible"
	case Unbounded:
		return "unbounded"
	default:
		return "error"
	}
}

// ShadowPrice is the dual value of one constraint at the optimum.
type ShadowPrice struct {
	Constraint     string
	Value          float64
	Interpretation string
}

// ReducedCost is the marginal cost of forcing a non-basic variable into the
// basis; zero for basic variables.
type ReducedCost struct {
	Variable    string
	Value       float64
	ReducedCost float64
	IsBasic     bool
}

// SensitivityRange names the current value of a variable or constraint RHS
// and the (currently unbounded) range over which the optimal basis would
// stay the same; a full ranging pass is not performed.
type SensitivityRange struct {
	Name       string
	Current    float64
	LowerBound float64
	UpperBound float64
}

// Analysis is the sensitivity report attached to an optimal Solution.
type Analysis struct {
	ShadowPrices         []ShadowPrice
	ReducedCosts         []ReducedCost
	BindingConstraints   []string
	ObjectiveSensitivity []SensitivityRange
	RHSSensitivity       []SensitivityRange
}

func emptyAnalysis() Analysis { return Analysis{} }

// ConstraintViolation describes how a constraint fails to hold at a given
// point, used for infeasibility reporting.
type ConstraintViolation struct {
	Constraint      string
	Required        float64
	Actual          float64
	ViolationAmount float64
	Description     string
}

// Solution is the result of solving an lp.Problem.
type Solution struct {
	Status         Status
	Values         []float64
	ObjectiveValue float64
	Analysis       Analysis
	Violations     []ConstraintViolation
}

func infeasibleSolution() Solution {
	return Solution{Status: Infeasible, ObjectiveValue: posInf, Analysis: emptyAnalysis()}
}

func infeasibleWithViolations(violations []ConstraintViolation) Solution {
	s := infeasibleSolution()
	s.Violations = violations
	return s
}

func infeasibleWithRelaxed(values []float64, objective float64, violations []ConstraintViolation) Solution {
	return Solution{Status: Infeasible, Values: values, ObjectiveValue: objective, Analysis: emptyAnalysis(), Violations: violations}
}

func unboundedSolution() Solution {
	return Solution{Status: Unbounded, ObjectiveValue: negInf, Analysis: emptyAnalysis()}
}
