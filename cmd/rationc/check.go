package main

import (
	"fmt"
	"os"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/rationlp/rationlp/internal/diagnostics"
	"github.com/rationlp/rationlp/internal/hostapi"
	"github.com/rationlp/rationlp/internal/loader"
	"github.com/rationlp/rationlp/internal/rdebug"
	"github.com/rationlp/rationlp/internal/render"
)

var watchFlag bool

func init() {
	checkCmd.Flags().BoolVar(&watchFlag, "watch", false, "re-run check on every save (dev convenience, non-core)")
}

var checkCmd = &cobra.Command{
	Use:   "check FILE",
	Short: "run the semantic validator over a source file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rdebug.SetVerbose(verboseFlag)
		if watchFlag {
			return watchAndCheck(args[0])
		}
		return runCheck(args[0])
	},
}

func runCheck(path string) error {
	// Validate the import-merged program when the whole graph parses; fall
	// back to single-file resilient validation otherwise so every parse
	// error is still reported rather than just the first.
	prog, lerr := loader.New(loader.FileImporter{}).Load(path)
	if lerr != nil {
		source, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		fmt.Fprintln(os.Stderr, lerr)
		diags := hostapi.Validate(string(source))
		render.Diagnostics(os.Stdout, toInternalDiagnostics(diags), render.ColorEnabled())
		os.Exit(1)
	}

	diags := diagnostics.Validate(prog)
	render.Diagnostics(os.Stdout, diags, render.ColorEnabled())
	for _, d := range diags {
		if d.Severity == diagnostics.SeverityError {
			os.Exit(1)
		}
	}
	return nil
}

// watchAndCheck runs check once immediately, then again on every write to
// path, using fsnotify the way an editor-integration dev loop would. It
// only layers on top of the check pipeline, never changes its semantics.
func watchAndCheck(path string) error {
	if err := runCheck(path); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				fmt.Println("--- re-checking", path, "---")
				if err := runCheck(path); err != nil {
					fmt.Fprintln(os.Stderr, "Error:", err)
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintln(os.Stderr, "watch error:", err)
		}
	}
}

func toInternalDiagnostics(diags []hostapi.Diagnostic) []diagnostics.Diagnostic {
	out := make([]diagnostics.Diagnostic, 0, len(diags))
	for _, d := range diags {
		sev := diagnostics.SeverityWarning
		if d.Severity == "error" {
			sev = diagnostics.SeverityError
		}
		out = append(out, diagnostics.Diagnostic{Span: d.Span, Severity: sev, Message: d.Message})
	}
	return out
}
