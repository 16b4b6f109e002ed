package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rationlp/rationlp/internal/hostapi"
	"github.com/rationlp/rationlp/internal/rdebug"
)

var parseCmd = &cobra.Command{
	Use:   "parse FILE",
	Short: "parse a source file and print its AST shape, or report parse errors",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rdebug.SetVerbose(verboseFlag)
		source, err := os.ReadFile(args[0])
		if err != nil {
			cmd.SilenceUsage = true
			return fmt.Errorf("reading %s: %w", args[0], err)
		}

		prog, perr := hostapi.Parse(string(source))
		format := resolveFormat()

		if perr != nil {
			if format == "json" {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				_ = enc.Encode(map[string]any{"ok": false, "error": perr.Error()})
			} else {
				fmt.Println("parse error:", perr.Error())
			}
			os.Exit(1)
		}

		if format == "json" {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{"ok": true, "items": len(prog.Items)})
		}
		fmt.Printf("parsed %d top-level item(s)\n", len(prog.Items))
		return nil
	},
}
