package hostapi

import (
	"github.com/rationlp/rationlp/internal/ast"
	"github.com/rationlp/rationlp/internal/lp"
	"github.com/rationlp/rationlp/internal/simplex"
	"github.com/rationlp/rationlp/internal/symbols"
)

// IngredientAmount is one ingredient's share of a solved mix.
type IngredientAmount struct {
	Name       string
	Amount     float64
	Percentage float64
	UnitCost   float64
	CostShare  float64
}

// NutrientAchieved is the achieved total for one nutrient in a solved mix.
type NutrientAchieved struct {
	Name  string
	Value float64
	Unit  string
}

// SolveResult is the structured, never-throwing result of solving one
// formula.
type SolveResult struct {
	Status      string
	FormulaName string
	DisplayName string
	Code        string
	Description string
	BatchSize   float64
	TotalCost   float64
	Ingredients []IngredientAmount
	Nutrients   []NutrientAchieved
	Analysis    simplex.Analysis
	Violations  []simplex.ConstraintViolation
	Error       string // non-empty on IO/parse/compile failure; Status is "error" in that case
}

// Solve parses source, compiles formulaName to an LP, and solves it with
// the default solver tolerance/iteration cap. Every internal failure
// (parse, compile, or solver) is translated into a SolveResult with a
// non-optimal Status rather than returned as an error.
func Solve(source, formulaName string) SolveResult {
	return SolveWithSolver(source, formulaName, simplex.New())
}

// SolveWithSolver is Solve with a caller-supplied Solver, letting callers
// apply config-layered tolerance/iteration overrides (internal/rconfig)
// instead of the solver's built-in defaults.
func SolveWithSolver(source, formulaName string, solver *simplex.Solver) SolveResult {
	prog, err := Parse(source)
	if err != nil {
		return SolveResult{Status: "error", FormulaName: formulaName, Error: err.Error()}
	}
	return SolveProgram(prog, formulaName, solver)
}

// SolveProgram solves formulaName against an already-parsed (and possibly
// import-merged) program, for callers that resolved imports through
// internal/loader first.
func SolveProgram(prog *ast.Program, formulaName string, solver *simplex.Solver) SolveResult {
	table, err := symbols.Build(prog)
	if err != nil {
		return SolveResult{Status: "error", FormulaName: formulaName, Error: err.Error()}
	}

	compiled, err := lp.CompileFormula(table, formulaName)
	if err != nil {
		return SolveResult{Status: "error", FormulaName: formulaName, Error: err.Error()}
	}

	sol := solver.Solve(compiled.Problem)

	result := SolveResult{
		Status:      sol.Status.String(),
		FormulaName: formulaName,
		BatchSize:   compiled.Batch,
		TotalCost:   sol.ObjectiveValue,
		Analysis:    sol.Analysis,
		Violations:  sol.Violations,
	}

	for _, item := range prog.Items {
		if item.Formula != nil && item.Formula.Name == formulaName {
			for _, p := range item.Formula.Properties {
				switch canonicalPropName(p.Name) {
				case "display_name":
					result.DisplayName = stringishValue(p.Value)
				case "code":
					result.Code = stringishValue(p.Value)
				case "description":
					result.Description = stringishValue(p.Value)
				}
			}
		}
	}

	if sol.Status != simplex.Optimal {
		return result
	}

	for i, name := range compiled.Variables {
		amount := sol.Values[i]
		unitCost := compiled.Cost[i]
		ia := IngredientAmount{
			Name:      name,
			Amount:    amount,
			UnitCost:  unitCost,
			CostShare: amount * unitCost,
		}
		if compiled.Batch != 0 {
			ia.Percentage = 100 * amount / compiled.Batch
		}
		result.Ingredients = append(result.Ingredients, ia)
	}

	for _, nutName := range compiled.NutrientNames {
		coeffs := compiled.Nutrients[nutName]
		total := 0.0
		for i, c := range coeffs {
			if i < len(sol.Values) {
				total += c * sol.Values[i]
			}
		}
		achieved := NutrientAchieved{Name: nutName, Value: total}
		if def, ok := table.Nutrients[nutName]; ok {
			achieved.Unit = def.Unit
		}
		result.Nutrients = append(result.Nutrients, achieved)
	}

	return result
}
