package experiment

import (
	"fmt"

	"github.com/CJiaLin/heat/internal/paths"
	"github.com/CJiaLin/heat/internal/python"
	"github.com/CJiaLin/heat/internal/resolver"
	"github.com/CJiaLin/heat/types"
)

// TrainHandler drives main.py: learns one hyperboloid embedding per
// parameter tuple.
type TrainHandler struct{}

func (h *TrainHandler) Kind() string {
	return "train"
}

func (h *TrainHandler) Validate(stage *types.Stage, cfg *types.SweepConfig) []string {
	var errs []string
	stageCtx := fmt.Sprintf("stage[%s] (kind: %s)", stage.Name, h.Kind())

	if resolver.ResolveNumWalks(stage, cfg) <= 0 {
		errs = append(errs, fmt.Sprintf("%s: 'num_walks' must be positive", stageCtx))
	}
	if resolver.ResolveWalkLength(stage, cfg) <= 0 {
		errs = append(errs, fmt.Sprintf("%s: 'walk_length' must be positive", stageCtx))
	}
	if resolver.ResolveContextSize(stage, cfg) <= 0 {
		errs = append(errs, fmt.Sprintf("%s: 'context_size' must be positive", stageCtx))
	}
	if resolver.ResolveNumNegativeSamples(stage, cfg) <= 0 {
		errs = append(errs, fmt.Sprintf("%s: 'num_negative_samples' must be positive", stageCtx))
	}
	if resolver.ResolveEpochs(stage, cfg) <= 0 {
		errs = append(errs, fmt.Sprintf("%s: 'epochs' must be positive", stageCtx))
	}
	if resolver.ResolveWorkers(stage, cfg) <= 0 {
		errs = append(errs, fmt.Sprintf("%s: 'workers' must be positive", stageCtx))
	}
	if stage.Overrides != nil && stage.Overrides.DistanceFunction != nil {
		errs = append(errs, fmt.Sprintf("%s: 'distance_function' only applies to evaluation stages", stageCtx))
	}

	return errs
}

// SkipArtifact: training is done once the final embedding has been written.
func (h *TrainHandler) SkipArtifact(layout *paths.Layout, b paths.Binding) string {
	return layout.EmbeddingArtifact(b)
}

func (h *TrainHandler) BuildInvocation(cfg *types.SweepConfig, stage *types.Stage, b paths.Binding, tp paths.TaskPaths) *python.Invocation {
	return &python.Invocation{
		Python:     cfg.Python,
		ScriptsDir: cfg.ScriptsDir,
		Script:     python.ScriptTrain,

		Edgelist: tp.Edgelist,
		Features: tp.Features,
		Labels:   tp.Labels,

		Embedding: tp.EmbeddingDir,
		WalksDir:  tp.WalksDir,

		NumWalks:           resolver.ResolveNumWalks(stage, cfg),
		WalkLength:         resolver.ResolveWalkLength(stage, cfg),
		ContextSize:        resolver.ResolveContextSize(stage, cfg),
		NumNegativeSamples: resolver.ResolveNumNegativeSamples(stage, cfg),
		Epochs:             resolver.ResolveEpochs(stage, cfg),
		Workers:            resolver.ResolveWorkers(stage, cfg),

		Seed:  b.Seed,
		Dim:   b.Dim,
		Alpha: paths.FormatAlpha(b.Alpha),

		UseGenerator: resolver.ResolveUseGenerator(stage, cfg),
		Directed:     resolver.ResolveDirected(stage, cfg),
	}
}
