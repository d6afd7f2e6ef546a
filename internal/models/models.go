package models

import (
	"github.com/CJiaLin/heat/internal/paths"
	"github.com/CJiaLin/heat/types"
	"github.com/google/uuid"
)

// Terminal task statuses recorded in execution records and summaries.
const (
	StatusCompleted = "COMPLETED"
	StatusSkipped   = "SKIPPED"
	StatusFailed    = "FAILED"
)

// RunSummary holds the overall results of one sweep run (local execution or
// a SLURM submission). Written as summary.json in the run's log directory.
type RunSummary struct {
	RunId          uuid.UUID       `json:"run_id"`
	RunStartTime   string          `json:"run_start_time"`
	HeatCmd        string          `json:"heat_cmd"`
	Project        string          `json:"project"`
	Initiator      types.Initiator `json:"initiator"`
	Stages         []StageSummary  `json:"stages"`
	OverallStatus  string          `json:"overall_status"` // "Success", "Failed", "Partial"
	TotalDuration  int64           `json:"total_duration_ms"`
	TasksCompleted int             `json:"tasks_completed"`
	TasksSkipped   int             `json:"tasks_skipped"`
	TasksFailed    int             `json:"tasks_failed"`
	FirstFailure   *TaskSummary    `json:"first_failure,omitempty"`
}

// StageSummary condenses one stage's task outcomes.
type StageSummary struct {
	Stage     string        `json:"stage"`
	Kind      string        `json:"kind"`
	GridSize  int           `json:"grid_size"`
	Completed int           `json:"completed"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
	Tasks     []TaskSummary `json:"tasks,omitempty"`
}

// TaskSummary is the concise per-task view kept in the run summary.
type TaskSummary struct {
	Stage      string `json:"stage"`
	TaskIndex  int    `json:"task_index"`
	Status     string `json:"status"`
	ExitCode   int    `json:"exit_code"`
	StartTime  string `json:"start_time"` // RFC3339
	FinishTime string `json:"finish_time"`
	DurationMs int64  `json:"duration_ms"`
	LogFile    string `json:"log_file"` // relative path to the detailed record
}

// TaskExecutionRecord contains everything about a single task's execution.
// Saved as an individual JSON file, one per task, in the run's log dir - a
// failure is always attributable to a reproducible parameter combination.
type TaskExecutionRecord struct {
	RunId     uuid.UUID       `json:"run_id"`
	HeatCmd   string          `json:"heat_cmd"`
	Project   string          `json:"project"`
	Initiator types.Initiator `json:"initiator"`

	Stage     string `json:"stage"`
	Kind      string `json:"kind"`
	TaskIndex int    `json:"task_index"`

	Params paths.Binding   `json:"params"`
	Paths  paths.TaskPaths `json:"paths"`

	// Command is the full external command line, empty for skipped tasks.
	Command []string `json:"command,omitempty"`

	Status       string `json:"status"`
	ExitCode     int    `json:"exit_code"`
	SkipArtifact string `json:"skip_artifact,omitempty"`
	Error        string `json:"error,omitempty"`

	StartTime  string `json:"start_time"`
	FinishTime string `json:"finish_time"`
	DurationMs int64  `json:"duration_ms"`
}

// SubmissionRecord captures one `heat submit` against the cluster: which
// stage went in as which SLURM job, and the dependency chain used.
type SubmissionRecord struct {
	RunId        uuid.UUID         `json:"run_id"`
	SubmitTime   string            `json:"submit_time"`
	Project      string            `json:"project"`
	Initiator    types.Initiator   `json:"initiator"`
	Submissions  []StageSubmission `json:"submissions"`
	ConfigPath   string            `json:"config_path"`
	ScriptsDir   string            `json:"scripts_dir"`
	TotalTasks   int               `json:"total_tasks"`
	TotalStages  int               `json:"total_stages"`
	SlurmAccount string            `json:"slurm_account,omitempty"`
}

// StageSubmission records one sbatch call.
type StageSubmission struct {
	Stage        string `json:"stage"`
	Kind         string `json:"kind"`
	JobId        int    `json:"job_id"`
	ArraySize    int    `json:"array_size"`
	Script       string `json:"script"`
	Dependencies []int  `json:"dependencies,omitempty"`
}
