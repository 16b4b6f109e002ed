package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rationlp/rationlp/internal/rconfig"
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "inspect or scaffold .rationlp/config.yaml",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "write a .rationlp/config.yaml seeded with the built-in defaults",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		if err := rconfig.WriteDefault(cwd, rconfig.Default()); err != nil {
			return err
		}
		fmt.Println("wrote .rationlp/config.yaml")
		return nil
	},
}
