package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Verbose bool
var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "heat",
	Short: "Heat drives hyperbolic embedding sweeps, locally or on SLURM",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Heat CLI: hyperparameter sweeps without the bash.")
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&Verbose, "verbose", "v", false, "Enable verbose logs to stderr")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "heat.yml", "Path to the sweep configuration file")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
