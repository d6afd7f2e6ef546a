package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/CJiaLin/heat/internal/batch"
	"github.com/CJiaLin/heat/internal/config"
	"github.com/CJiaLin/heat/internal/log"
	"github.com/CJiaLin/heat/types"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(batchCmd)
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Render sbatch array scripts without submitting them",
	Long: `Batch renders one sbatch job array script per stage into '.heat/batch/'.
Each script declares the stage's SLURM directives and an array range covering
every task index; array element N runs 'heat exec --stage <name>' with index N
taken from SLURM_ARRAY_TASK_ID.

Nothing is submitted. Use 'heat submit' to render and submit in one step, or
inspect and sbatch the rendered scripts yourself.`,
	Run: func(cmd *cobra.Command, args []string) {
		outputStyle := types.StyleHuman
		if Verbose {
			outputStyle = types.StyleHumanVerbose
		}
		logger := log.NewLogger(outputStyle)

		registry := GetDependencies().Registry

		cfg, _, err := config.LoadSweepConfig(cfgFile)
		if err != nil {
			cobra.CheckErr(fmt.Errorf("failed to load %q: %w", cfgFile, err))
		}
		if err := config.ValidateSweepConfig(cfg, registry); err != nil {
			cobra.CheckErr(fmt.Errorf("failed to validate %q: %w", cfgFile, err))
		}
		logger.Info("✓ Configuration %q loaded and validated.", cfgFile)

		absConfigPath, err := filepath.Abs(cfgFile)
		cobra.CheckErr(err)

		heatCmd, err := os.Executable()
		if err != nil {
			heatCmd = "heat"
		}

		outDir := filepath.Join(".heat", "batch")
		logDir, err := filepath.Abs(filepath.Join(outDir, "logs"))
		cobra.CheckErr(err)

		scripts, err := batch.WriteStageScripts(cfg, absConfigPath, outDir, logDir, heatCmd)
		cobra.CheckErr(err)

		for _, stage := range cfg.Stages {
			logger.Info("✓ Rendered %s", scripts[stage.Name])
		}
		logger.Info("Submit with 'heat submit', or sbatch the scripts in dependency order.")
	},
}
