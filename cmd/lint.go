package cmd

import (
	"fmt"
	"os"

	"github.com/CJiaLin/heat/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(lintCmd)
}

var lintCmd = &cobra.Command{
	Use:   "lint [file]",
	Short: "Validate the syntax and structure of a heat.yml file",
	Long: `Lint checks a heat.yml file for correctness according to Heat's schema and rules.
It validates required fields, the five sweep axes, axis value formats, known
experiment kinds, stage name uniqueness, and the stage dependency graph
without executing any part of the sweep.

All validation errors are reported at once, not just the first one found.

Use this command to check your configuration file before running 'plan', 'run',
or 'submit'.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		lintFile := cfgFile
		if len(args) > 0 {
			lintFile = args[0]
		}

		fmt.Printf("Linting file: %s\n", lintFile)

		registry := GetDependencies().Registry

		cfg, _, err := config.LoadSweepConfig(lintFile)
		if err == nil {
			err = config.ValidateSweepConfig(cfg, registry)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "✖ Validation failed: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("✓ %s is valid!\n", lintFile)
	},
}
