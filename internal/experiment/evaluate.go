package experiment

import (
	"fmt"
	"path/filepath"

	"github.com/CJiaLin/heat/internal/paths"
	"github.com/CJiaLin/heat/internal/python"
	"github.com/CJiaLin/heat/internal/resolver"
	"github.com/CJiaLin/heat/types"
)

// The evaluation kinds never skip: each run appends one per-seed row to a
// shared test_results.csv in the results dir, serialized by the Python
// side's lock file. There is no per-task artifact to check.

// evaluationBase carries what the three evaluation handlers share.
type evaluationBase struct{}

func (evaluationBase) SkipArtifact(layout *paths.Layout, b paths.Binding) string {
	return ""
}

func (evaluationBase) validateCommon(stage *types.Stage, cfg *types.SweepConfig, kind string) []string {
	var errs []string
	stageCtx := fmt.Sprintf("stage[%s] (kind: %s)", stage.Name, kind)

	if len(stage.Needs) == 0 {
		errs = append(errs, fmt.Sprintf("%s: evaluation stages must declare 'needs' on the stage that trains their embeddings", stageCtx))
	}

	if stage.Overrides != nil {
		o := stage.Overrides
		if o.NumWalks != nil || o.WalkLength != nil || o.ContextSize != nil ||
			o.NumNegativeSamples != nil || o.Epochs != nil || o.UseGenerator != nil {
			errs = append(errs, fmt.Sprintf("%s: walk/training overrides do not apply to evaluation stages", stageCtx))
		}
	}

	return errs
}

// baseInvocation fills the flags every evaluation script declares. The
// embedding artifact is derived from the tuple's embedding dir, so an
// evaluation stage finds exactly what the matching train stage produced.
// Alpha and dimension are not passed: the scripts recover them from the
// results directory layout, and their argparse rejects unknown flags.
func (evaluationBase) baseInvocation(cfg *types.SweepConfig, stage *types.Stage, b paths.Binding, tp paths.TaskPaths) *python.Invocation {
	return &python.Invocation{
		Python:     cfg.Python,
		ScriptsDir: cfg.ScriptsDir,

		Edgelist: tp.Edgelist,

		Embedding:  filepath.Join(tp.EmbeddingDir, paths.EmbeddingArtifactName),
		ResultsDir: tp.ResultsDir,

		Seed:     b.Seed,
		Directed: resolver.ResolveDirected(stage, cfg),
	}
}

// EvaluateNCHandler drives evaluate_nc.py: node classification on the Klein
// projection of a trained embedding.
type EvaluateNCHandler struct {
	evaluationBase
}

func (h *EvaluateNCHandler) Kind() string {
	return "evaluate-nc"
}

func (h *EvaluateNCHandler) Validate(stage *types.Stage, cfg *types.SweepConfig) []string {
	errs := h.validateCommon(stage, cfg, h.Kind())
	if stage.Overrides != nil && stage.Overrides.DistanceFunction != nil {
		errs = append(errs, fmt.Sprintf("stage[%s] (kind: %s): 'distance_function' does not apply to node classification", stage.Name, h.Kind()))
	}
	return errs
}

func (h *EvaluateNCHandler) BuildInvocation(cfg *types.SweepConfig, stage *types.Stage, b paths.Binding, tp paths.TaskPaths) *python.Invocation {
	inv := h.baseInvocation(cfg, stage, b, tp)
	inv.Script = python.ScriptEvaluateNC
	inv.Features = tp.Features
	inv.Labels = tp.Labels
	return inv
}

// EvaluateLPHandler drives evaluate_lp.py: link prediction against the edges
// held out before training.
type EvaluateLPHandler struct {
	evaluationBase
}

func (h *EvaluateLPHandler) Kind() string {
	return "evaluate-lp"
}

func (h *EvaluateLPHandler) Validate(stage *types.Stage, cfg *types.SweepConfig) []string {
	errs := h.validateCommon(stage, cfg, h.Kind())
	if resolver.ResolveDistanceFunction(stage, cfg) == "" {
		errs = append(errs, fmt.Sprintf("stage[%s] (kind: %s): a 'distance_function' is required", stage.Name, h.Kind()))
	}
	return errs
}

func (h *EvaluateLPHandler) BuildInvocation(cfg *types.SweepConfig, stage *types.Stage, b paths.Binding, tp paths.TaskPaths) *python.Invocation {
	inv := h.baseInvocation(cfg, stage, b, tp)
	inv.Script = python.ScriptEvaluateLP
	inv.RemovedEdgesDir = tp.RemovedEdgesDir
	inv.DistanceFunction = resolver.ResolveDistanceFunction(stage, cfg)
	return inv
}

// EvaluateReconstructionHandler drives evaluate_reconstruction.py: how well
// the embedding reproduces the full training graph.
type EvaluateReconstructionHandler struct {
	evaluationBase
}

func (h *EvaluateReconstructionHandler) Kind() string {
	return "evaluate-reconstruction"
}

func (h *EvaluateReconstructionHandler) Validate(stage *types.Stage, cfg *types.SweepConfig) []string {
	errs := h.validateCommon(stage, cfg, h.Kind())
	if resolver.ResolveDistanceFunction(stage, cfg) == "" {
		errs = append(errs, fmt.Sprintf("stage[%s] (kind: %s): a 'distance_function' is required", stage.Name, h.Kind()))
	}
	return errs
}

func (h *EvaluateReconstructionHandler) BuildInvocation(cfg *types.SweepConfig, stage *types.Stage, b paths.Binding, tp paths.TaskPaths) *python.Invocation {
	inv := h.baseInvocation(cfg, stage, b, tp)
	inv.Script = python.ScriptEvaluateReconstruction
	inv.DistanceFunction = resolver.ResolveDistanceFunction(stage, cfg)
	return inv
}
