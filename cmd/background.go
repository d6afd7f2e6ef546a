package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/CJiaLin/heat/internal/config"
	"github.com/CJiaLin/heat/internal/context"
	"github.com/CJiaLin/heat/internal/experiment"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// RunBackgroundSweep is executed when 'heat' is launched with internal flags.
// It runs the full sweep execution logic and logs to files.
func RunBackgroundSweep(runIdStr, configPath, logDir string, onlyFilter []string, registry *experiment.Registry) {
	bgLogger := log.With().Str("run_id", runIdStr).Logger()

	runId, err := uuid.Parse(runIdStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Background Error: Invalid run ID %q: %v\n", runIdStr, err)
		os.Exit(1)
	}

	if logDir == "" {
		fmt.Fprintf(os.Stderr, "Background Error: Log directory path not provided.\n")
		os.Exit(1)
	}

	if _, err := os.Stat(logDir); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Background Error: Unable to resolve log directory %s", logDir)
	}

	bgLogger.Info().Msg("Starting execution.")
	bgLogger.Info().Msgf("Using config: %s", configPath)
	bgLogger.Info().Msgf("Using log directory: %s", logDir)

	// --- Load and validate heat.yml ---

	cfg, configDir, err := config.LoadSweepConfig(configPath)
	if err == nil {
		err = config.ValidateSweepConfig(cfg, registry)
	}
	if err != nil {
		bgLogger.Error().Msgf("Failed to load configuration: %v", err)
		os.Exit(1)
	}

	// --- Create context ---

	runCtx := &context.RunContext{
		RunId:      runId,
		Config:     cfg,
		ConfigPath: configPath,
		ConfigDir:  configDir,
		LogDir:     logDir,
		OnlyStages: onlyFilter,
		HeatCmd:    "run-bg",
	}

	// --- Execute stages in dependency order ---

	bgLogger.Debug().Msg("Invoking stage executor...")
	startTimeForSummary := time.Now()
	results, execErr := executeSweep(runCtx, registry)

	// --- Process results & write summary ---

	if execErr != nil {
		bgLogger.Error().Err(execErr).Msg("Sweep execution failed")
	} else {
		bgLogger.Info().Msg("Sweep execution finished. Processing results...")
	}

	// Generate summary regardless of execErr, using potentially partial records
	summary := generateRunSummary(results, runId, startTimeForSummary, cfg, "run-bg", logDir, onlyFilter)

	err = writeSummary(summary, logDir)
	if err != nil {
		bgLogger.Error().Err(err).Msgf("Failed to write summary")
	} else {
		bgLogger.Info().Msgf("Run summary written to %s", filepath.Join(logDir, "summary.json"))
	}

	bgLogger.Info().Msg("Execution finished.")

	if execErr != nil {
		os.Exit(1)
	}

	os.Exit(0)
}
