package executor

import (
	gocontext "context"
	"sync"

	"github.com/CJiaLin/heat/internal/config"
	"github.com/CJiaLin/heat/internal/context"
	"github.com/CJiaLin/heat/internal/logging"
	"github.com/CJiaLin/heat/internal/models"
	"github.com/CJiaLin/heat/internal/runner"
	"github.com/CJiaLin/heat/types"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type TaskState string

const (
	// Initial state, not yet picked up by a worker.
	StatePending TaskState = "PENDING"

	StateRunning TaskState = "RUNNING"

	// Terminal state: external program exited 0.
	StateCompleted TaskState = "COMPLETED"

	// Terminal state: the output artifact already existed.
	StateSkipped TaskState = "SKIPPED"

	// Terminal state: launch error or non-zero exit.
	StateFailed TaskState = "FAILED"
)

const DefaultConcurrency = 4

// Executor runs all tasks of one stage through a bounded worker pool. Tasks
// within a stage are independent by construction, so there is no ordering
// beyond the concurrency limit; stage-to-stage ordering is the caller's job.
type Executor struct {
	ctx             *context.RunContext
	taskRunner      *runner.TaskRunner
	taskStates      map[int]TaskState
	stateMutex      sync.RWMutex
	results         map[int]*models.TaskExecutionRecord
	resultsMutex    sync.RWMutex
	wg              sync.WaitGroup
	maxConcurrency  int
	concurrencyChan chan struct{} // Semaphore to limit concurrency
	logger          zerolog.Logger
}

func NewExecutor(ctx *context.RunContext, taskRunner *runner.TaskRunner, concurrency int) *Executor {
	instanceLogger := log.With().
		Str("component", "executor").
		Str("run_id", ctx.RunId.String()).
		Logger()

	if concurrency <= 0 {
		concurrency = DefaultConcurrency
		instanceLogger.Debug().Msgf("Using default concurrency: %d", concurrency)
	}

	return &Executor{
		ctx:             ctx,
		taskRunner:      taskRunner,
		taskStates:      make(map[int]TaskState),
		results:         make(map[int]*models.TaskExecutionRecord),
		maxConcurrency:  concurrency,
		concurrencyChan: make(chan struct{}, concurrency), // Buffered channel acts as a semaphore
		logger:          instanceLogger,
	}
}

// ExecuteStage runs every task index of the stage and blocks until all have
// reached a terminal state. The records come back ordered by task index.
// A failed task does not stop its siblings - SLURM array semantics.
func (e *Executor) ExecuteStage(goCtx gocontext.Context, stage *types.Stage) ([]models.TaskExecutionRecord, error) {
	g, err := config.StageGrid(stage)
	if err != nil {
		return nil, err
	}
	size := g.Size()

	stageLogger := e.logger.With().Str("stage", stage.Name).Logger()
	stageLogger.Info().Int("tasks", size).Int("concurrency", e.maxConcurrency).Msg("Starting stage execution")

	e.stateMutex.Lock()
	for i := 0; i < size; i++ {
		e.taskStates[i] = StatePending
	}
	e.stateMutex.Unlock()

	for i := 0; i < size; i++ {
		select {
		case <-goCtx.Done():
			stageLogger.Warn().Msg("Stage execution canceled, waiting for in-flight tasks")
			e.wg.Wait()
			return e.collectResults(size), goCtx.Err()
		case e.concurrencyChan <- struct{}{}: // Acquire slot (blocks if full)
		}

		e.setTaskState(i, StateRunning)
		e.wg.Add(1)
		go e.executeTask(goCtx, stage, i, stageLogger)
	}

	e.wg.Wait()
	stageLogger.Debug().Msg("All task goroutines completed.")

	results := e.collectResults(size)
	completed, skipped, failed := 0, 0, 0
	for _, r := range results {
		switch r.Status {
		case models.StatusCompleted:
			completed++
		case models.StatusSkipped:
			skipped++
		default:
			failed++
		}
	}
	stageLogger.Info().
		Int("completed", completed).
		Int("skipped", skipped).
		Int("failed", failed).
		Msg("Stage execution finished")

	return results, nil
}

// executeTask is the goroutine function handling one task's lifecycle.
func (e *Executor) executeTask(goCtx gocontext.Context, stage *types.Stage, index int, stageLogger zerolog.Logger) {
	defer e.wg.Done()
	defer func() { <-e.concurrencyChan }() // Release semaphore when the goroutine finishes

	taskLogger := stageLogger.With().Int("task_index", index).Logger()

	record, err := e.taskRunner.RunTask(goCtx, stage, index, taskLogger)

	switch {
	case err != nil:
		e.setTaskState(index, StateFailed)
	case record.Status == models.StatusSkipped:
		e.setTaskState(index, StateSkipped)
	case record.Status == models.StatusCompleted:
		e.setTaskState(index, StateCompleted)
	default:
		e.setTaskState(index, StateFailed)
	}

	e.addResult(index, record)

	if e.ctx.LogDir != "" {
		if saveErr := logging.SaveTaskExecutionRecord(e.ctx.LogDir, *record); saveErr != nil {
			taskLogger.Error().Err(saveErr).Str("log_dir", e.ctx.LogDir).Msg("Failed to save task execution record")
		}
	}
}

// Helper to set task state safely
func (e *Executor) setTaskState(index int, state TaskState) {
	e.stateMutex.Lock()
	defer e.stateMutex.Unlock()

	e.taskStates[index] = state
}

// Helper to add result safely
func (e *Executor) addResult(index int, record *models.TaskExecutionRecord) {
	e.resultsMutex.Lock()
	defer e.resultsMutex.Unlock()

	e.results[index] = record
}

// collectResults returns the final records in task index order.
func (e *Executor) collectResults(size int) []models.TaskExecutionRecord {
	e.resultsMutex.RLock()
	defer e.resultsMutex.RUnlock()

	finalResults := make([]models.TaskExecutionRecord, 0, size)
	for i := 0; i < size; i++ {
		if record := e.results[i]; record != nil {
			finalResults = append(finalResults, *record)
		}
	}
	return finalResults
}
