// Package render formats parse/check/solve results for the CLI, styled
// with lipgloss and gated by termenv's color-profile detection so
// piped/non-TTY output degrades to plain text instead of raw escape codes.
package render

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/rationlp/rationlp/internal/diagnostics"
	"github.com/rationlp/rationlp/internal/hostapi"
	"github.com/rationlp/rationlp/internal/simplex"
)

var (
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#f07171", Dark: "#f07178"})
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#f2ae49", Dark: "#ffb454"})
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#86b300", Dark: "#c2d94c"})
	headerStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#828c99", Dark: "#6c7680"})
)

// ColorEnabled reports whether the current process output is a
// color-capable terminal, per termenv's environment/TTY detection. Piped
// or redirected output (as in `rationc solve ... | tee out.txt`) resolves
// to termenv.Ascii and styling is skipped.
func ColorEnabled() bool {
	return termenv.ColorProfile() != termenv.Ascii
}

func styleOrPlain(enabled bool, style lipgloss.Style, s string) string {
	if !enabled {
		return s
	}
	return style.Render(s)
}

// Diagnostics renders a diagnostic list as one line per finding, grouped
// error-then-warning, styled if color is enabled.
func Diagnostics(w io.Writer, diags []diagnostics.Diagnostic, color bool) {
	if len(diags) == 0 {
		fmt.Fprintln(w, styleOrPlain(color, okStyle, "no issues found"))
		return
	}
	sorted := make([]diagnostics.Diagnostic, len(diags))
	copy(sorted, diags)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Severity < sorted[j].Severity })

	for _, d := range sorted {
		label := fmt.Sprintf("%s@%d", d.Severity, d.Span.Start)
		style := warnStyle
		if d.Severity == diagnostics.SeverityError {
			style = errorStyle
		}
		fmt.Fprintf(w, "%s %s\n", styleOrPlain(color, style, label), d.Message)
	}
}

// Solution renders a solved formula's variable mix and, if requested, the
// sensitivity analysis, as a lipgloss-bordered table.
func Solution(w io.Writer, formulaName string, sol simplex.Solution, showAnalysis bool, color bool) {
	fmt.Fprintf(w, "%s %s\n", styleOrPlain(color, headerStyle, "formula:"), formulaName)
	fmt.Fprintf(w, "%s %s\n", styleOrPlain(color, headerStyle, "status:"), sol.Status)

	if sol.Status != simplex.Optimal {
		for _, v := range sol.Violations {
			fmt.Fprintf(w, "  %s %s\n", styleOrPlain(color, errorStyle, "violation:"), v.Description)
		}
		return
	}

	fmt.Fprintf(w, "%s %.4f\n\n", styleOrPlain(color, headerStyle, "objective:"), sol.ObjectiveValue)

	var rows []string
	for i, name := range variableOrder(sol) {
		rows = append(rows, fmt.Sprintf("%-24s %10.4f", name, sol.Values[i]))
	}
	table := lipgloss.JoinVertical(lipgloss.Left, rows...)
	if color {
		table = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(0, 1).Render(table)
	}
	fmt.Fprintln(w, table)

	if !showAnalysis {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, styleOrPlain(color, headerStyle, "binding constraints:"))
	if len(sol.Analysis.BindingConstraints) == 0 {
		fmt.Fprintln(w, styleOrPlain(color, mutedStyle, "  (none)"))
	}
	for _, name := range sol.Analysis.BindingConstraints {
		fmt.Fprintf(w, "  %s\n", name)
	}
	fmt.Fprintln(w, styleOrPlain(color, headerStyle, "shadow prices:"))
	for _, sp := range sol.Analysis.ShadowPrices {
		fmt.Fprintf(w, "  %-24s %10.4f  %s\n", sp.Constraint, sp.Value, sp.Interpretation)
	}
}

// Formula renders a hostapi.Solve result directly: ingredient shares, cost,
// achieved nutrients, and (if requested) the sensitivity analysis. Unlike
// Solution, which takes a bare simplex.Solution, this carries the display
// metadata (display name, code, batch size) hostapi attaches after solving.
func Formula(w io.Writer, result hostapi.SolveResult, showAnalysis bool, color bool) {
	fmt.Fprintf(w, "%s %s\n", styleOrPlain(color, headerStyle, "formula:"), result.FormulaName)
	if result.DisplayName != "" {
		fmt.Fprintf(w, "%s %s\n", styleOrPlain(color, mutedStyle, "name:"), result.DisplayName)
	}
	fmt.Fprintf(w, "%s %s\n", styleOrPlain(color, headerStyle, "status:"), result.Status)

	if result.Error != "" {
		fmt.Fprintf(w, "  %s %s\n", styleOrPlain(color, errorStyle, "error:"), result.Error)
		return
	}
	if result.Status != simplex.Optimal.String() {
		for _, v := range result.Violations {
			fmt.Fprintf(w, "  %s %s\n", styleOrPlain(color, errorStyle, "violation:"), v.Description)
		}
		return
	}

	fmt.Fprintf(w, "%s %.4f  (batch %.4f)\n\n", styleOrPlain(color, headerStyle, "total cost:"), result.TotalCost, result.BatchSize)

	var rows []string
	for _, ia := range result.Ingredients {
		rows = append(rows, fmt.Sprintf("%-24s %10.4f  %6.2f%%  cost %10.4f", ia.Name, ia.Amount, ia.Percentage, ia.CostShare))
	}
	table := lipgloss.JoinVertical(lipgloss.Left, rows...)
	if color {
		table = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(0, 1).Render(table)
	}
	fmt.Fprintln(w, table)

	if len(result.Nutrients) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, styleOrPlain(color, headerStyle, "nutrients achieved:"))
		for _, n := range result.Nutrients {
			if n.Unit != "" {
				fmt.Fprintf(w, "  %-24s %10.4f %s\n", n.Name, n.Value, n.Unit)
			} else {
				fmt.Fprintf(w, "  %-24s %10.4f\n", n.Name, n.Value)
			}
		}
	}

	if !showAnalysis {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, styleOrPlain(color, headerStyle, "binding constraints:"))
	if len(result.Analysis.BindingConstraints) == 0 {
		fmt.Fprintln(w, styleOrPlain(color, mutedStyle, "  (none)"))
	}
	for _, name := range result.Analysis.BindingConstraints {
		fmt.Fprintf(w, "  %s\n", name)
	}
	fmt.Fprintln(w, styleOrPlain(color, headerStyle, "shadow prices:"))
	for _, sp := range result.Analysis.ShadowPrices {
		fmt.Fprintf(w, "  %-24s %10.4f  %s\n", sp.Constraint, sp.Value, sp.Interpretation)
	}
}

func variableOrder(sol simplex.Solution) []string {
	names := make([]string, len(sol.Values))
	for i, rc := range sol.Analysis.ReducedCosts {
		if i < len(names) {
			names[i] = rc.Variable
		}
	}
	for i := range names {
		if names[i] == "" {
			names[i] = fmt.Sprintf("x%d", i)
		}
	}
	return names
}

// CompactList joins names with ", " for one-line summaries.
func CompactList(names []string) string {
	return strings.Join(names, ", ")
}
