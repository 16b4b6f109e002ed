package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rationlp/rationlp/internal/hostapi"
	"github.com/rationlp/rationlp/internal/loader"
	"github.com/rationlp/rationlp/internal/rdebug"
	"github.com/rationlp/rationlp/internal/render"
	"github.com/rationlp/rationlp/internal/rtrace"
	"github.com/rationlp/rationlp/internal/simplex"
)

var showAnalysis bool

func init() {
	solveCmd.Flags().BoolVar(&showAnalysis, "analysis", false, "include sensitivity analysis (shadow prices, binding constraints)")
}

var solveCmd = &cobra.Command{
	Use:   "solve FILE FORMULA",
	Short: "compile a formula to an LP and solve it",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rdebug.SetVerbose(verboseFlag)
		prog, err := loader.New(loader.FileImporter{}).Load(args[0])
		if err != nil {
			cmd.SilenceUsage = true
			return err
		}
		formulaName := args[1]

		var provider *rtrace.Provider
		if traceFlag {
			provider, err = rtrace.NewStdoutProvider(os.Stdout)
			if err != nil {
				return fmt.Errorf("starting tracer: %w", err)
			}
			defer provider.Shutdown(context.Background())
		}

		cfg := resolveSolverConfig()
		solver := simplex.New().WithTolerance(cfg.Tolerance).WithMaxIterations(cfg.MaxIterations)

		var result hostapi.SolveResult
		spanErr := rtrace.Solve(context.Background(), formulaName, func(ctx context.Context) (string, int, error) {
			result = hostapi.SolveProgram(prog, formulaName, solver)
			if result.Error != "" {
				return result.Status, 0, fmt.Errorf("%s", result.Error)
			}
			return result.Status, 0, nil
		})
		_ = spanErr

		format := resolveFormat()
		if format == "json" {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				return err
			}
		} else {
			render.Formula(os.Stdout, result, showAnalysis, render.ColorEnabled())
		}

		if result.Error != "" || result.Status != "optimal" {
			os.Exit(1)
		}
		return nil
	},
}
