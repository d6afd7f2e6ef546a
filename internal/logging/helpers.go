package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/CJiaLin/heat/internal/models"
	"github.com/google/uuid"
)

// CreateRunDir returns a full path like
// ".heat/logs/20260830T213245_run_3c43e9f4-9026-4d04-ba06-054e8903e80a"
func CreateRunDir(runId uuid.UUID, runStartTime time.Time, heatCmd string) (string, error) {
	timestampStr := runStartTime.Format("20060102T150405")

	dirName := fmt.Sprintf("%s_%s_%s", timestampStr, heatCmd, runId)
	fullPath := filepath.Join(".heat", "logs", dirName)

	err := os.MkdirAll(fullPath, os.ModePerm)
	if err != nil {
		return "", fmt.Errorf("failed to create log directory '%s': %w", fullPath, err)
	}
	return fullPath, nil
}

// TaskRecordFileName names the per-task record file so records sort by
// stage, then index: e.g. "train_000041.json".
func TaskRecordFileName(stage string, taskIndex int) string {
	return fmt.Sprintf("%s_%06d.json", stage, taskIndex)
}

// SaveTaskExecutionRecord stores the detailed record for a single task.
func SaveTaskExecutionRecord(logDir string, record models.TaskExecutionRecord) error {
	filePath := filepath.Join(logDir, TaskRecordFileName(record.Stage, record.TaskIndex))

	f, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create task record file %s: %w", filePath, err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(record); err != nil {
		return fmt.Errorf("failed to encode task record to %s: %w", filePath, err)
	}
	return nil
}

// SaveSubmissionRecord stores the record of one `heat submit` as
// submission.json in the run directory.
func SaveSubmissionRecord(logDir string, record models.SubmissionRecord) error {
	filePath := filepath.Join(logDir, "submission.json")

	f, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create submission record %s: %w", filePath, err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(record); err != nil {
		return fmt.Errorf("failed to encode submission record to %s: %w", filePath, err)
	}
	return nil
}
