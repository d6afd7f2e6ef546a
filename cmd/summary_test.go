package cmd

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/CJiaLin/heat/internal/logging"
	"github.com/CJiaLin/heat/internal/models"
	"github.com/CJiaLin/heat/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func summaryConfig() *types.SweepConfig {
	return &types.SweepConfig{
		Project: "cora-sweep",
		Stages: []*types.Stage{
			{Name: "train", Kind: "train"},
			{Name: "eval-nc", Kind: "evaluate-nc", Needs: []string{"train"}},
		},
	}
}

func summaryResults() []stageResult {
	return []stageResult{
		{
			Stage: &types.Stage{Name: "train", Kind: "train"},
			Records: []models.TaskExecutionRecord{
				{Stage: "train", TaskIndex: 0, Status: models.StatusCompleted},
				{Stage: "train", TaskIndex: 1, Status: models.StatusSkipped},
			},
		},
		{
			Stage: &types.Stage{Name: "eval-nc", Kind: "evaluate-nc"},
			Records: []models.TaskExecutionRecord{
				{Stage: "eval-nc", TaskIndex: 0, Status: models.StatusFailed, ExitCode: 2},
			},
		},
	}
}

// The per-task LogFile entries must point into the directory the run
// actually wrote, whose name the parent process chose before forking; the
// child's own clock and command name say nothing about it.
func TestGenerateRunSummaryLogFilesUseActualLogDir(t *testing.T) {
	logDir := "/var/heat/logs/20260830T101500_run_deadbeef"
	startTime := time.Now() // later than the directory timestamp on purpose

	summary := generateRunSummary(summaryResults(), uuid.New(), startTime, summaryConfig(), "run-bg", logDir, nil)

	for _, stage := range summary.Stages {
		for _, task := range stage.Tasks {
			assert.Equal(t,
				filepath.Join("20260830T101500_run_deadbeef", logging.TaskRecordFileName(task.Stage, task.TaskIndex)),
				task.LogFile)
		}
	}
}

func TestGenerateRunSummaryCounts(t *testing.T) {
	summary := generateRunSummary(summaryResults(), uuid.New(), time.Now(), summaryConfig(), "run", "logs/x", nil)

	assert.Equal(t, 1, summary.TasksCompleted)
	assert.Equal(t, 1, summary.TasksSkipped)
	assert.Equal(t, 1, summary.TasksFailed)
	assert.Equal(t, "Failed", summary.OverallStatus)
	assert.NotNil(t, summary.FirstFailure)
	assert.Equal(t, "eval-nc", summary.FirstFailure.Stage)
	assert.Equal(t, 2, summary.FirstFailure.ExitCode)
}

func TestGenerateRunSummaryPartialWhenStagesCutShort(t *testing.T) {
	results := summaryResults()[:1] // eval-nc never ran

	summary := generateRunSummary(results, uuid.New(), time.Now(), summaryConfig(), "run", "logs/x", nil)
	assert.Equal(t, "Partial", summary.OverallStatus)

	// With --only train the eval stage was never attempted, so its absence
	// is not a shortfall.
	filtered := generateRunSummary(results, uuid.New(), time.Now(), summaryConfig(), "run", "logs/x", []string{"train"})
	assert.Equal(t, "Success", filtered.OverallStatus)
}
