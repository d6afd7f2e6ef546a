// Package runner executes a single sweep task: it decodes the task index,
// derives the paths, consults the skip check, and dispatches the external
// program. This is the flow each SLURM array element runs exactly once, and
// the local executor runs many times over.
package runner

import (
	gocontext "context"
	"fmt"
	"os"
	"time"

	"github.com/CJiaLin/heat/internal/config"
	"github.com/CJiaLin/heat/internal/context"
	"github.com/CJiaLin/heat/internal/experiment"
	"github.com/CJiaLin/heat/internal/models"
	"github.com/CJiaLin/heat/internal/paths"
	"github.com/CJiaLin/heat/internal/python"
	"github.com/CJiaLin/heat/types"
	"github.com/rs/zerolog"
)

// TaskRunner runs individual tasks of one sweep.
type TaskRunner struct {
	ctx        *context.RunContext
	registry   *experiment.Registry
	layout     *paths.Layout
	dispatcher *python.Dispatcher

	// artifactExists is the skip check, injectable for tests. Best-effort
	// and non-atomic: two racing tasks can both see "absent" and both run.
	// The original sweep accepted that, and so do we.
	artifactExists func(path string) bool
}

func NewTaskRunner(ctx *context.RunContext, registry *experiment.Registry) *TaskRunner {
	return &TaskRunner{
		ctx:            ctx,
		registry:       registry,
		layout:         paths.NewLayout(ctx.Config),
		dispatcher:     python.NewDispatcher(ctx.ConfigDir),
		artifactExists: artifactExists,
	}
}

// Dispatcher exposes the underlying dispatcher so tests can intercept the
// process launch.
func (r *TaskRunner) Dispatcher() *python.Dispatcher {
	return r.dispatcher
}

func artifactExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// RunTask executes one (stage, index) cell: Decode -> Bind -> ResolvePaths ->
// CheckSkip -> {Skip | Dispatch}. The returned record always carries the
// decoded tuple and derived paths so failures are reproducible; the error is
// non-nil only for dispatch-level failures (the external exit code is in the
// record, not the error).
func (r *TaskRunner) RunTask(goCtx gocontext.Context, stage *types.Stage, index int, logger zerolog.Logger) (*models.TaskExecutionRecord, error) {
	startTime := time.Now()
	record := r.newRecord(stage, index, startTime)

	finish := func() {
		record.FinishTime = time.Now().Format(time.RFC3339)
		record.DurationMs = time.Since(startTime).Milliseconds()
	}

	// --- Decode ---

	g, err := config.StageGrid(stage)
	if err != nil {
		finish()
		record.Status = models.StatusFailed
		record.Error = err.Error()
		return record, err
	}

	point, err := g.Decode(index)
	if err != nil {
		finish()
		record.Status = models.StatusFailed
		record.Error = err.Error()
		return record, err
	}

	binding, err := paths.Bind(point)
	if err != nil {
		finish()
		record.Status = models.StatusFailed
		record.Error = err.Error()
		return record, err
	}
	record.Params = binding

	// --- Resolve paths ---

	record.Paths = r.layout.Resolve(binding)

	taskLogger := logger.With().
		Int("task_index", index).
		Str("dataset", binding.Dataset).
		Str("experiment", binding.Experiment).
		Str("alpha", paths.FormatAlpha(binding.Alpha)).
		Int("seed", binding.Seed).
		Int("dim", binding.Dim).
		Logger()

	// --- Check skip ---

	handler := r.registry.MustGet(stage.Kind)
	if artifact := handler.SkipArtifact(r.layout, binding); artifact != "" {
		// Layout paths are config-dir relative; the stat must be too, no
		// matter where heat itself was launched from.
		artifact = paths.Anchor(r.ctx.ConfigDir, artifact)
		record.SkipArtifact = artifact
		if r.artifactExists(artifact) {
			finish()
			record.Status = models.StatusSkipped
			taskLogger.Info().Str("artifact", artifact).Msg("Output artifact already exists, skipping task")
			return record, nil
		}
	}

	// --- Dispatch ---

	inv := handler.BuildInvocation(r.ctx.Config, stage, binding, record.Paths)
	record.Command = inv.Command()

	taskLogger.Info().
		Str("script", inv.Script).
		Str("embedding_dir", record.Paths.EmbeddingDir).
		Msg("Dispatching external program")

	exitCode, err := r.dispatcher.Dispatch(goCtx, inv, taskLogger)
	finish()
	record.ExitCode = exitCode

	if err != nil {
		record.Status = models.StatusFailed
		record.Error = err.Error()
		taskLogger.Error().Err(err).Msg("Failed to launch external program")
		return record, err
	}

	if exitCode != 0 {
		record.Status = models.StatusFailed
		record.Error = fmt.Sprintf("external program exited with code %d", exitCode)
		taskLogger.Error().Int("exit_code", exitCode).Msg("External program failed")
		return record, nil
	}

	record.Status = models.StatusCompleted
	taskLogger.Info().Int64("duration_ms", record.DurationMs).Msg("Task completed")
	return record, nil
}

func (r *TaskRunner) newRecord(stage *types.Stage, index int, startTime time.Time) *models.TaskExecutionRecord {
	host, _ := os.Hostname()

	initiatorType := "user"
	if r.ctx.HeatCmd == "run-bg" {
		initiatorType = "heat-runner"
	} else if os.Getenv("SLURM_ARRAY_TASK_ID") != "" {
		initiatorType = "slurm"
	}

	return &models.TaskExecutionRecord{
		RunId:   r.ctx.RunId,
		HeatCmd: r.ctx.HeatCmd,
		Project: r.ctx.Config.Project,
		Initiator: types.Initiator{
			Type:   initiatorType,
			Id:     os.Getenv("USER"),
			Tenant: host,
		},
		Stage:     stage.Name,
		Kind:      stage.Kind,
		TaskIndex: index,
		StartTime: startTime.Format(time.RFC3339),
	}
}
