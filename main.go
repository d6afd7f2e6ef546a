package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/CJiaLin/heat/cmd"
	"github.com/CJiaLin/heat/internal/experiment"
	"github.com/CJiaLin/heat/internal/logging"
	"github.com/rs/zerolog/log"
)

func main() {
	// Check if launched in internal background mode before executing normal commands
	isInternalRun := false
	targetRunId := ""
	targetCfgPath := ""
	targetOnlyFilter := []string{}
	targetLogDir := ""
	isVerbose := false

	for i, arg := range os.Args {
		if arg == "--internal-run" {
			isInternalRun = true
		}
		if arg == "--run-id" && i+1 < len(os.Args) {
			targetRunId = os.Args[i+1]
		}
		if arg == "--cfg-path" && i+1 < len(os.Args) {
			targetCfgPath = os.Args[i+1]
		}
		// Collect all --only arguments
		if arg == "--only" && i+1 < len(os.Args) {
			targetOnlyFilter = append(targetOnlyFilter, os.Args[i+1])
		}
		if arg == "--log-dir" && i+1 < len(os.Args) {
			targetLogDir = os.Args[i+1]
		}
		if arg == "--verbose" || arg == "-v" {
			isVerbose = true
		}
	}

	logFilePath := "" // Default to terminal logging

	if isInternalRun {
		if targetLogDir == "" {
			fmt.Fprintln(os.Stderr, "Background Error: Log directory must be provided via --log-dir for internal run.")
			os.Exit(1)
		}

		logFilePath = filepath.Join(targetLogDir, "sweep.log")
	}

	err := logging.ConfigureGlobalLogger(isVerbose, logFilePath)
	if err != nil {
		// Fallback to basic stderr if logger setup fails
		fmt.Fprintf(os.Stderr, "FATAL: Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}

	registry := experiment.DefaultRegistry()
	cmd.SetDependencies(&cmd.AppDependencies{Registry: registry})

	// --- Execute command ---

	if isInternalRun {
		log.Info().Msgf("[Background Startup] Running background sweep %s", targetRunId)
		cmd.RunBackgroundSweep(targetRunId, targetCfgPath, targetLogDir, targetOnlyFilter, registry)
	} else {
		log.Debug().Msg("Starting Heat CLI command execution")
		cmd.Execute()
	}
}
