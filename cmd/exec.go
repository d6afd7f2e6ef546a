package cmd

import (
	gocontext "context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/CJiaLin/heat/internal/config"
	"github.com/CJiaLin/heat/internal/context"
	"github.com/CJiaLin/heat/internal/models"
	"github.com/CJiaLin/heat/internal/runner"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var execStage string
var execIndex int

func init() {
	rootCmd.AddCommand(execCmd)

	execCmd.Flags().StringVar(&execStage, "stage", "", "Stage to execute a task from (required)")
	execCmd.Flags().IntVar(&execIndex, "index", -1, "Task index to execute (defaults to SLURM_ARRAY_TASK_ID)")
	_ = execCmd.MarkFlagRequired("stage")
}

var execCmd = &cobra.Command{
	Use:   "exec",
	Short: "Execute exactly one task of a stage",
	Long: `Exec runs a single task: decode the task index into its parameter tuple,
derive the input and output paths, skip if the output artifact already
exists, otherwise dispatch the external training or evaluation program.

When --index is not given, the index is read from SLURM_ARRAY_TASK_ID. This
is the command every generated sbatch array element invokes; heat's exit code
is the external program's exit code.`,
	Run: func(cmd *cobra.Command, args []string) {
		registry := GetDependencies().Registry

		index := execIndex
		if index < 0 {
			raw, ok := os.LookupEnv("SLURM_ARRAY_TASK_ID")
			if !ok {
				cobra.CheckErr(fmt.Errorf("no --index given and SLURM_ARRAY_TASK_ID is not set"))
			}
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				cobra.CheckErr(fmt.Errorf("invalid SLURM_ARRAY_TASK_ID %q: %w", raw, err))
			}
			index = parsed
		}

		cfg, configDir, err := config.LoadSweepConfig(cfgFile)
		if err != nil {
			cobra.CheckErr(fmt.Errorf("failed to load %q: %w", cfgFile, err))
		}
		if err := config.ValidateSweepConfig(cfg, registry); err != nil {
			cobra.CheckErr(fmt.Errorf("failed to validate %q: %w", cfgFile, err))
		}

		stage := findStage(cfg, execStage)
		if stage == nil {
			cobra.CheckErr(fmt.Errorf("stage %q not found in %s", execStage, cfgFile))
		}

		absConfigPath, err := filepath.Abs(cfgFile)
		cobra.CheckErr(err)

		runCtx := &context.RunContext{
			RunId:      uuid.New(),
			Config:     cfg,
			ConfigPath: absConfigPath,
			ConfigDir:  configDir,
			HeatCmd:    "exec",
		}

		taskRunner := runner.NewTaskRunner(runCtx, registry)
		taskLogger := log.With().Str("stage", stage.Name).Int("task_index", index).Logger()

		record, err := taskRunner.RunTask(gocontext.Background(), stage, index, taskLogger)
		if err != nil {
			cobra.CheckErr(err)
		}

		switch record.Status {
		case models.StatusSkipped:
			taskLogger.Info().Str("artifact", record.SkipArtifact).Msg("Output artifact exists, task skipped")
		case models.StatusCompleted:
			taskLogger.Info().Msg("Task completed")
		case models.StatusFailed:
			taskLogger.Error().Int("exit_code", record.ExitCode).Msg("Task failed")
			os.Exit(record.ExitCode)
		}
	},
}
