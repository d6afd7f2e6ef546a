package cmd

import (
	gocontext "context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/CJiaLin/heat/internal/config"
	"github.com/CJiaLin/heat/internal/context"
	"github.com/CJiaLin/heat/internal/executor"
	"github.com/CJiaLin/heat/internal/experiment"
	"github.com/CJiaLin/heat/internal/logging"
	"github.com/CJiaLin/heat/internal/models"
	"github.com/CJiaLin/heat/internal/runner"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var runOnly []string
var runDetach bool

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringSliceVar(&runOnly, "only", nil, "Run only specified stage(s)")
	runCmd.Flags().BoolVar(&runDetach, "detach", false, "Run the sweep in a detached background process")
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute the sweep locally and wait for completion",
	Long: `Run executes the whole sweep on the local machine, without SLURM.

Stages run in dependency order; tasks within a stage run through a
bounded-concurrency pool sized by the 'concurrency' config key. Tasks whose
output artifact already exists are skipped, so an interrupted sweep picks up
where it left off. Logs and per-task records are written to a timestamped
directory under '.heat/logs/'.

With --detach, heat launches a background process that performs the identical
run and returns immediately; check the run directory for progress.`,
	Run: func(cmd *cobra.Command, args []string) {
		registry := GetDependencies().Registry

		// --- Load and validate heat.yml ---

		cfg, configDir, err := config.LoadSweepConfig(cfgFile)
		if err != nil {
			cobra.CheckErr(fmt.Errorf("failed to load %q: %w", cfgFile, err))
		}
		if err := config.ValidateSweepConfig(cfg, registry); err != nil {
			cobra.CheckErr(fmt.Errorf("failed to validate %q: %w", cfgFile, err))
		}

		log.Info().Msgf("✓ Configuration %q loaded and validated.", cfgFile)

		// --- Initialize run identity and logging ---

		runId := uuid.New()
		runStartTime := time.Now()

		logDir, err := logging.CreateRunDir(runId, runStartTime, "run")
		if err != nil {
			cobra.CheckErr(fmt.Errorf("failed to create run directory for %s: %w", runId.String(), err))
		}

		absConfigPath, err := filepath.Abs(cfgFile)
		cobra.CheckErr(err)

		if runDetach {
			launchDetachedRun(runId, absConfigPath, logDir)
			return
		}

		logFilePath := filepath.Join(logDir, "sweep.log")
		err = logging.ConfigureGlobalLogger(Verbose, logFilePath)
		if err != nil {
			cobra.CheckErr(fmt.Errorf("failed to initialize logging: %w", err))
		}

		logCtx := log.With().Str("run_id", runId.String()).Logger()
		logCtx.Info().Msgf("Logs will be stored in: %s", logDir)

		// --- Set up run context ---

		runCtx := &context.RunContext{
			RunId:      runId,
			Config:     cfg,
			ConfigPath: absConfigPath,
			ConfigDir:  configDir,
			LogDir:     logDir,
			OnlyStages: runOnly,
			HeatCmd:    "run",
		}

		// --- Execute stages in dependency order ---

		logCtx.Info().Msg("Starting sweep run...")

		results, execErr := executeSweep(runCtx, registry)
		if execErr != nil {
			logCtx.Error().Err(execErr).Msg("Sweep execution failed")
		}

		// --- Construct and write run summary ---

		logCtx.Debug().Msg("Generating run summary...")

		summary := generateRunSummary(results, runId, runStartTime, cfg, "run", logDir, runOnly)

		if err = writeSummary(summary, logDir); err != nil {
			logCtx.Error().Err(err).Msg("Failed to write summary.json")
		}

		fmt.Println() // Visual spacing
		if execErr != nil {
			cobra.CheckErr(execErr)
		}
		logCtx.Info().Msgf("✓ Sweep complete (%d completed, %d skipped, %d failed), logs saved to: %s",
			summary.TasksCompleted, summary.TasksSkipped, summary.TasksFailed, logDir)
		if summary.TasksFailed > 0 {
			os.Exit(1)
		}
	},
}

// executeSweep runs every selected stage in dependency order and collects the
// per-stage task records. Execution stops after a stage with failed tasks:
// its dependents would only fail louder.
func executeSweep(runCtx *context.RunContext, registry *experiment.Registry) ([]stageResult, error) {
	graph, err := config.BuildStageGraph(runCtx.Config)
	if err != nil {
		return nil, err
	}
	ordered, err := config.TopoSort(runCtx.Config, graph)
	if err != nil {
		return nil, err
	}

	taskRunner := runner.NewTaskRunner(runCtx, registry)

	var results []stageResult
	for _, stage := range ordered {
		if skipStage(stage, runCtx.OnlyStages) {
			log.Debug().Str("stage", stage.Name).Msg("Stage not selected, skipping")
			continue
		}

		stageExecutor := executor.NewExecutor(runCtx, taskRunner, runCtx.Config.Concurrency)
		records, err := stageExecutor.ExecuteStage(gocontext.Background(), stage)
		if err != nil {
			return results, fmt.Errorf("stage %q: %w", stage.Name, err)
		}

		results = append(results, stageResult{Stage: stage, Records: records})

		failed := 0
		for _, record := range records {
			if record.Status == models.StatusFailed {
				failed++
			}
		}
		if failed > 0 {
			return results, fmt.Errorf("stage %q finished with %d failed task(s)", stage.Name, failed)
		}
	}

	return results, nil
}

// launchDetachedRun re-executes the current binary with the internal-run
// protocol flags and detaches it from the terminal.
func launchDetachedRun(runId uuid.UUID, absConfigPath, logDir string) {
	executablePath, err := os.Executable()
	if err != nil {
		cobra.CheckErr(fmt.Errorf("failed to determine heat executable path: %w", err))
	}

	bgArgs := []string{
		"--internal-run",
		"--run-id", runId.String(),
		"--cfg-path", absConfigPath,
		"--log-dir", logDir,
	}
	for _, stageName := range runOnly {
		bgArgs = append(bgArgs, "--only", stageName)
	}
	if Verbose {
		bgArgs = append(bgArgs, "--verbose")
	}

	bgCmd := exec.Command(executablePath, bgArgs...)

	// Prevent inheriting std streams, this is crucial for detachment
	bgCmd.Stdin = nil
	bgCmd.Stdout = nil
	bgCmd.Stderr = nil

	// Creates a new session and detaches from the controlling terminal
	bgCmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true,
	}

	if err := bgCmd.Start(); err != nil {
		cobra.CheckErr(fmt.Errorf("failed to start background heat process: %w", err))
	}

	fmt.Printf("✓ Sweep %s running in the background.\n", runId.String())
	fmt.Printf("  Logs will be written to: %s\n", logDir)
	fmt.Printf("  Use 'heat status' to check artifact progress.\n")
}
