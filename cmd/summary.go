package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/CJiaLin/heat/internal/logging"
	"github.com/CJiaLin/heat/internal/models"
	"github.com/CJiaLin/heat/types"
	"github.com/google/uuid"
)

// stageResult pairs a stage with the task records its execution produced.
type stageResult struct {
	Stage   *types.Stage
	Records []models.TaskExecutionRecord
}

// generateRunSummary calculates the summary based on task records and context.
// Takes the onlyFilter used during the run to accurately distinguish "not
// attempted" from "failed" when deciding the overall status, and the actual
// run log directory so task log paths point where the records were written.
func generateRunSummary(
	results []stageResult,
	runId uuid.UUID,
	startTime time.Time,
	cfg *types.SweepConfig,
	cmdName string,
	logDir string,
	onlyFilter []string,
) models.RunSummary {
	host, _ := os.Hostname()

	logDirBaseName := filepath.Base(logDir)

	stageSummaries := make([]models.StageSummary, 0, len(results))
	tasksCompleted := 0
	tasksSkipped := 0
	tasksFailed := 0
	var firstFailure *models.TaskSummary

	for _, result := range results {
		stageSummary := models.StageSummary{
			Stage:    result.Stage.Name,
			Kind:     result.Stage.Kind,
			GridSize: len(result.Records),
		}

		for _, record := range result.Records {
			taskSummary := models.TaskSummary{
				Stage:      record.Stage,
				TaskIndex:  record.TaskIndex,
				Status:     record.Status,
				ExitCode:   record.ExitCode,
				StartTime:  record.StartTime,
				FinishTime: record.FinishTime,
				DurationMs: record.DurationMs,
				LogFile:    filepath.Join(logDirBaseName, logging.TaskRecordFileName(record.Stage, record.TaskIndex)),
			}
			stageSummary.Tasks = append(stageSummary.Tasks, taskSummary)

			switch record.Status {
			case models.StatusCompleted:
				tasksCompleted++
				stageSummary.Completed++
			case models.StatusSkipped:
				tasksSkipped++
				stageSummary.Skipped++
			case models.StatusFailed:
				tasksFailed++
				stageSummary.Failed++
				if firstFailure == nil {
					failed := taskSummary
					firstFailure = &failed
				}
			}
		}

		stageSummaries = append(stageSummaries, stageSummary)
	}

	stagesAttempted := 0
	for _, stage := range cfg.Stages {
		if len(onlyFilter) == 0 || slices.Contains(onlyFilter, stage.Name) {
			stagesAttempted++
		}
	}

	overallStatus := "Success"
	if tasksFailed > 0 {
		overallStatus = "Failed"
	} else if len(results) < stagesAttempted {
		// A prerequisite stage failed outright or execution was cut short.
		overallStatus = "Partial"
	}

	initiatorType := "user"
	if cmdName == "run-bg" {
		initiatorType = "heat-runner"
	}

	return models.RunSummary{
		RunId:        runId,
		RunStartTime: startTime.Format(time.RFC3339),
		HeatCmd:      cmdName,
		Project:      cfg.Project,
		Initiator: types.Initiator{
			Type:   initiatorType,
			Id:     os.Getenv("USER"),
			Tenant: host,
		},
		Stages:         stageSummaries,
		OverallStatus:  overallStatus,
		TotalDuration:  time.Since(startTime).Milliseconds(),
		TasksCompleted: tasksCompleted,
		TasksSkipped:   tasksSkipped,
		TasksFailed:    tasksFailed,
		FirstFailure:   firstFailure,
	}
}

// writeSummary writes the run summary to summary.json in the log directory.
// Returns an error if file operations fail.
func writeSummary(summary models.RunSummary, logDir string) error {
	formatted, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		// This is an internal error, should be logged by caller
		return fmt.Errorf("failed to marshal run summary: %w", err)
	}

	summaryPath := filepath.Join(logDir, "summary.json")
	if err := os.WriteFile(summaryPath, formatted, 0644); err != nil {
		return fmt.Errorf("failed to write summary file %s: %w", summaryPath, err)
	}

	return nil
}
