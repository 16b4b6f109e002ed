package main

import (
	"os"

	"github.com/rationlp/rationlp/internal/rconfig"
)

// resolveFormat layers --format over RLP_FORMAT over .rationlp/config.yaml
// over the built-in default, via internal/rconfig.
func resolveFormat() string {
	cwd, _ := os.Getwd()
	cfg, err := rconfig.Load(cwd, formatFlag, 0, 0)
	if err != nil || !rconfig.IsValidFormat(cfg.Format) {
		return "pretty"
	}
	return cfg.Format
}

func resolveSolverConfig() rconfig.Config {
	cwd, _ := os.Getwd()
	cfg, err := rconfig.Load(cwd, formatFlag, 0, 0)
	if err != nil {
		return rconfig.Default()
	}
	return cfg
}
