package runner

import (
	gocontext "context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/CJiaLin/heat/internal/context"
	"github.com/CJiaLin/heat/internal/experiment"
	"github.com/CJiaLin/heat/internal/grid"
	"github.com/CJiaLin/heat/internal/models"
	"github.com/CJiaLin/heat/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func testStage() *types.Stage {
	return &types.Stage{
		Name: "train",
		Kind: "train",
		Axes: []types.AxisSpec{
			{Name: "dataset", Values: []string{"cora_ml", "citeseer"}},
			{Name: "experiment", Values: []string{"nc_experiment"}},
			{Name: "alpha", Values: []string{"0", "100"}},
			{Name: "seed", Values: []string{"0", "1"}},
			{Name: "dim", Values: []string{"10"}},
		},
	}
}

func testRunner(t *testing.T, outputDir string) *TaskRunner {
	cfg := &types.SweepConfig{
		Project:   "test-sweep",
		Python:    "python3",
		OutputDir: outputDir,
	}
	ctx := &context.RunContext{
		RunId:   uuid.New(),
		Config:  cfg,
		HeatCmd: "exec",
	}
	return NewTaskRunner(ctx, experiment.DefaultRegistry())
}

// interceptDispatch replaces the process launch with a recorder returning
// the given exit code.
func interceptDispatch(r *TaskRunner, exitCode int, launched *[][]string) {
	r.dispatcher.Run = func(ctx gocontext.Context, dir string, command []string, logger zerolog.Logger) (int, error) {
		if launched != nil {
			*launched = append(*launched, command)
		}
		return exitCode, nil
	}
}

func TestRunTaskDispatches(t *testing.T) {
	r := testRunner(t, t.TempDir())

	var launched [][]string
	interceptDispatch(r, 0, &launched)

	record, err := r.RunTask(gocontext.Background(), testStage(), 3, zerolog.Nop())

	assert.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, record.Status)
	assert.Equal(t, 0, record.ExitCode)
	assert.Len(t, launched, 1)
	assert.Equal(t, launched[0], record.Command)

	// index 3 in a 2x1x2x2x1 grid: dataset=cora_ml, alpha=100, seed=1
	assert.Equal(t, "cora_ml", record.Params.Dataset)
	assert.Equal(t, 100, record.Params.Alpha)
	assert.Equal(t, 1, record.Params.Seed)
	assert.NotEmpty(t, record.Paths.EmbeddingDir)
	assert.NotEmpty(t, record.StartTime)
	assert.NotEmpty(t, record.FinishTime)
}

func TestRunTaskSkipsWhenArtifactExists(t *testing.T) {
	outputDir := t.TempDir()
	r := testRunner(t, outputDir)

	var launched [][]string
	interceptDispatch(r, 0, &launched)

	stage := testStage()

	// First run produces the artifact (simulated here by touching the
	// file the training script would have written).
	record, err := r.RunTask(gocontext.Background(), stage, 0, zerolog.Nop())
	assert.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, record.Status)
	assert.Len(t, launched, 1)

	assert.NoError(t, os.MkdirAll(filepath.Dir(record.SkipArtifact), 0755))
	assert.NoError(t, os.WriteFile(record.SkipArtifact, []byte("embedding"), 0644))

	// Second run with the same index must skip without dispatching.
	record2, err := r.RunTask(gocontext.Background(), stage, 0, zerolog.Nop())
	assert.NoError(t, err)
	assert.Equal(t, models.StatusSkipped, record2.Status)
	assert.Empty(t, record2.Command)
	assert.Len(t, launched, 1, "skip must not dispatch")
}

func TestRunTaskSkipCheckAnchoredToConfigDir(t *testing.T) {
	// Layout paths are relative to the config directory, which is rarely
	// the process working directory. The skip stat must look there.
	configDir := t.TempDir()
	cfg := &types.SweepConfig{
		Project:   "test-sweep",
		Python:    "python3",
		OutputDir: ".",
	}
	ctx := &context.RunContext{
		RunId:     uuid.New(),
		Config:    cfg,
		ConfigDir: configDir,
		HeatCmd:   "exec",
	}
	r := NewTaskRunner(ctx, experiment.DefaultRegistry())

	var launched [][]string
	interceptDispatch(r, 0, &launched)

	record, err := r.RunTask(gocontext.Background(), testStage(), 0, zerolog.Nop())
	assert.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, record.Status)
	assert.True(t, filepath.IsAbs(record.SkipArtifact))
	assert.True(t, strings.HasPrefix(record.SkipArtifact, configDir))

	assert.NoError(t, os.MkdirAll(filepath.Dir(record.SkipArtifact), 0755))
	assert.NoError(t, os.WriteFile(record.SkipArtifact, []byte("embedding"), 0644))

	record2, err := r.RunTask(gocontext.Background(), testStage(), 0, zerolog.Nop())
	assert.NoError(t, err)
	assert.Equal(t, models.StatusSkipped, record2.Status)
	assert.Len(t, launched, 1, "skip must not dispatch")
}

func TestRunTaskIndexOutOfRange(t *testing.T) {
	r := testRunner(t, t.TempDir())

	var launched [][]string
	interceptDispatch(r, 0, &launched)

	stage := testStage() // grid size 8
	_, err := r.RunTask(gocontext.Background(), stage, 8, zerolog.Nop())
	assert.Error(t, err)
	assert.True(t, errors.Is(err, grid.ErrIndexOutOfRange))
	assert.Empty(t, launched)
}

func TestRunTaskNonZeroExit(t *testing.T) {
	r := testRunner(t, t.TempDir())
	interceptDispatch(r, 3, nil)

	record, err := r.RunTask(gocontext.Background(), testStage(), 0, zerolog.Nop())

	// Non-zero exit is a task failure but not a launch error.
	assert.NoError(t, err)
	assert.Equal(t, models.StatusFailed, record.Status)
	assert.Equal(t, 3, record.ExitCode)
	assert.Contains(t, record.Error, "exited with code 3")
}

func TestRunTaskEvaluationNeverSkips(t *testing.T) {
	r := testRunner(t, t.TempDir())

	var launched [][]string
	interceptDispatch(r, 0, &launched)

	stage := testStage()
	stage.Name = "eval-nc"
	stage.Kind = "evaluate-nc"
	stage.Needs = []string{"train"}

	for i := 0; i < 2; i++ {
		record, err := r.RunTask(gocontext.Background(), stage, 0, zerolog.Nop())
		assert.NoError(t, err)
		assert.Equal(t, models.StatusCompleted, record.Status)
		assert.Empty(t, record.SkipArtifact)
	}
	assert.Len(t, launched, 2, "evaluation tasks run every time")
}
