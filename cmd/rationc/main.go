// Command rationc is the CLI front end for the rationlp toolchain: parse,
// check, and solve least-cost feed-formulation sources.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	formatFlag  string
	verboseFlag bool
	traceFlag   bool
)

var rootCmd = &cobra.Command{
	Use:   "rationc",
	Short: "rationc - least-cost feed-formulation compiler and solver",
	Long: `rationc parses, validates, and solves declarative feed-formulation
sources: ingredients, nutrients, and formulas compiled to a linear program
and solved by a two-phase simplex method.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&formatFlag, "format", "", "output format: pretty|json (default: pretty, or config)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable debug logging (RLP_DEBUG)")
	rootCmd.PersistentFlags().BoolVar(&traceFlag, "trace", false, "emit otel spans for compile/solve to stdout")

	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(solveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
