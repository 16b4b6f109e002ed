// Package rdebug is a package-level, env-var-gated debug logging surface:
// no structured logger, just conditional fmt.Fprintf to stderr. Used by
// the simplex solver (pivot tracing) and the CLI's -v flag.
package rdebug

import (
	"fmt"
	"os"
)

var (
	enabled     = os.Getenv("RLP_DEBUG") != ""
	verboseMode = false
)

// Enabled reports whether debug output is currently on, via RLP_DEBUG or SetVerbose.
func Enabled() bool {
	return enabled || verboseMode
}

// SetVerbose turns debug output on or off for the remainder of the process,
// independent of RLP_DEBUG (wired to the CLI's -v flag).
func SetVerbose(verbose bool) {
	verboseMode = verbose
}

// Logf writes a formatted line to stderr if debug output is enabled.
func Logf(format string, args ...interface{}) {
	if Enabled() {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}
