package experiment

import (
	"strings"
	"testing"

	"github.com/CJiaLin/heat/internal/paths"
	"github.com/CJiaLin/heat/internal/python"
	"github.com/CJiaLin/heat/types"
	"github.com/stretchr/testify/assert"
)

func testConfig() *types.SweepConfig {
	return &types.SweepConfig{
		Project:    "cora-sweep",
		Python:     "python3",
		ScriptsDir: "/opt/heat",
		DataDir:    "datasets",
		OutputDir:  ".",
	}
}

func testBinding() paths.Binding {
	return paths.Binding{
		Dataset:    "cora_ml",
		Experiment: "nc_experiment",
		Alpha:      5,
		Seed:       7,
		Dim:        10,
	}
}

func resolvePaths(cfg *types.SweepConfig, b paths.Binding) paths.TaskPaths {
	return paths.NewLayout(cfg).Resolve(b)
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.Equal(t, []string{"evaluate-lp", "evaluate-nc", "evaluate-reconstruction", "train"}, r.RegisteredKinds())

	for _, kind := range r.RegisteredKinds() {
		h, ok := r.Get(kind)
		assert.True(t, ok)
		assert.Equal(t, kind, h.Kind())
	}

	_, ok := r.Get("nonsense")
	assert.False(t, ok)
	assert.False(t, r.IsKnownKind("nonsense"))
}

func TestRegisterDuplicatePanics(t *testing.T) {
	r := NewRegistry()
	r.Register(&TrainHandler{})
	assert.Panics(t, func() { r.Register(&TrainHandler{}) })
}

func TestTrainSkipArtifact(t *testing.T) {
	cfg := testConfig()
	b := testBinding()
	layout := paths.NewLayout(cfg)

	h := &TrainHandler{}
	assert.Equal(t, layout.EmbeddingArtifact(b), h.SkipArtifact(layout, b))
}

func TestEvaluationKindsNeverSkip(t *testing.T) {
	cfg := testConfig()
	b := testBinding()
	layout := paths.NewLayout(cfg)

	for _, h := range []Handler{&EvaluateNCHandler{}, &EvaluateLPHandler{}, &EvaluateReconstructionHandler{}} {
		assert.Equal(t, "", h.SkipArtifact(layout, b), "kind %s", h.Kind())
	}
}

func TestTrainBuildInvocation(t *testing.T) {
	cfg := testConfig()
	b := testBinding()
	stage := &types.Stage{Name: "train", Kind: "train"}

	h := &TrainHandler{}
	inv := h.BuildInvocation(cfg, stage, b, resolvePaths(cfg, b))

	assert.Equal(t, python.ScriptTrain, inv.Script)
	assert.Equal(t, "0.05", inv.Alpha)
	assert.Equal(t, 7, inv.Seed)
	assert.Equal(t, 10, inv.Dim)
	assert.Equal(t, resolvePaths(cfg, b).EmbeddingDir, inv.Embedding)
	assert.NotEmpty(t, inv.WalksDir)
	assert.Empty(t, inv.ResultsDir)

	// argparse defaults kick in when heat.yml is silent
	assert.Equal(t, 10, inv.NumWalks)
	assert.Equal(t, 80, inv.WalkLength)
	assert.Equal(t, 5, inv.Epochs)
}

func TestTrainOverrides(t *testing.T) {
	cfg := testConfig()
	cfg.Defaults.NumWalks = 20

	numWalks := 30
	stage := &types.Stage{
		Name:      "train",
		Kind:      "train",
		Overrides: &types.TrainingOverrides{NumWalks: &numWalks},
	}

	h := &TrainHandler{}
	inv := h.BuildInvocation(cfg, stage, testBinding(), resolvePaths(cfg, testBinding()))
	assert.Equal(t, 30, inv.NumWalks)
}

func TestEvaluateNCBuildInvocation(t *testing.T) {
	cfg := testConfig()
	b := testBinding()
	stage := &types.Stage{Name: "eval-nc", Kind: "evaluate-nc", Needs: []string{"train"}}

	h := &EvaluateNCHandler{}
	inv := h.BuildInvocation(cfg, stage, b, resolvePaths(cfg, b))

	assert.Equal(t, python.ScriptEvaluateNC, inv.Script)
	assert.NotEmpty(t, inv.Labels)
	assert.NotEmpty(t, inv.Features)
	assert.NotEmpty(t, inv.ResultsDir)
	assert.Equal(t, paths.NewLayout(cfg).EmbeddingArtifact(b), inv.Embedding)
	assert.Empty(t, inv.DistanceFunction)
	assert.Empty(t, inv.Dim)
	assert.Empty(t, inv.Alpha)
}

// evaluate_nc.py rejects flags its argparse does not declare, so the
// node-classification argv must stay inside that set exactly.
func TestEvaluateNCArgvMatchesScriptInterface(t *testing.T) {
	cfg := testConfig()
	b := testBinding()
	stage := &types.Stage{Name: "eval-nc", Kind: "evaluate-nc", Needs: []string{"train"}}

	h := &EvaluateNCHandler{}
	inv := h.BuildInvocation(cfg, stage, b, resolvePaths(cfg, b))
	args := inv.Args()

	declared := map[string]bool{
		"--edgelist":         true,
		"--features":         true,
		"--labels":           true,
		"--directed":         true,
		"--embedding":        true,
		"--test-results-dir": true,
		"--seed":             true,
	}
	for _, a := range args[1:] {
		if strings.HasPrefix(a, "-") {
			assert.True(t, declared[a], "flag %s is not declared by evaluate_nc.py", a)
		}
	}

	flags := map[string]string{}
	for i := 1; i < len(args)-1; i++ {
		if strings.HasPrefix(args[i], "--") && !strings.HasPrefix(args[i+1], "--") {
			flags[args[i]] = args[i+1]
		}
	}
	assert.Equal(t, paths.NewLayout(cfg).EmbeddingArtifact(b), flags["--embedding"])
	assert.Equal(t, "7", flags["--seed"])
	assert.NotEmpty(t, flags["--edgelist"])
	assert.NotEmpty(t, flags["--features"])
	assert.NotEmpty(t, flags["--labels"])
	assert.NotEmpty(t, flags["--test-results-dir"])
}

func TestEvaluateLPBuildInvocation(t *testing.T) {
	cfg := testConfig()
	b := testBinding()
	stage := &types.Stage{Name: "eval-lp", Kind: "evaluate-lp", Needs: []string{"train"}}

	h := &EvaluateLPHandler{}
	inv := h.BuildInvocation(cfg, stage, b, resolvePaths(cfg, b))

	assert.Equal(t, python.ScriptEvaluateLP, inv.Script)
	assert.NotEmpty(t, inv.RemovedEdgesDir)
	assert.Equal(t, "hyperboloid", inv.DistanceFunction)
}

func TestEvaluateReconstructionBuildInvocation(t *testing.T) {
	cfg := testConfig()
	cfg.Defaults.DistanceFunction = "poincare"
	b := testBinding()
	stage := &types.Stage{Name: "eval-recon", Kind: "evaluate-reconstruction", Needs: []string{"train"}}

	h := &EvaluateReconstructionHandler{}
	inv := h.BuildInvocation(cfg, stage, b, resolvePaths(cfg, b))

	assert.Equal(t, python.ScriptEvaluateReconstruction, inv.Script)
	assert.Equal(t, "poincare", inv.DistanceFunction)
	assert.Empty(t, inv.RemovedEdgesDir)
}

func TestValidate(t *testing.T) {
	negWalks := -1
	distFn := "hyperboloid"

	tests := []struct {
		name        string
		handler     Handler
		stage       *types.Stage
		errContains string
	}{
		{
			name:    "Valid train stage",
			handler: &TrainHandler{},
			stage:   &types.Stage{Name: "train", Kind: "train"},
		},
		{
			name:        "Train with negative walks",
			handler:     &TrainHandler{},
			stage:       &types.Stage{Name: "train", Kind: "train", Overrides: &types.TrainingOverrides{NumWalks: &negWalks}},
			errContains: "'num_walks' must be positive",
		},
		{
			name:        "Train with distance function",
			handler:     &TrainHandler{},
			stage:       &types.Stage{Name: "train", Kind: "train", Overrides: &types.TrainingOverrides{DistanceFunction: &distFn}},
			errContains: "only applies to evaluation stages",
		},
		{
			name:        "Evaluation without needs",
			handler:     &EvaluateNCHandler{},
			stage:       &types.Stage{Name: "eval-nc", Kind: "evaluate-nc"},
			errContains: "must declare 'needs'",
		},
		{
			name:        "Evaluation with walk overrides",
			handler:     &EvaluateLPHandler{},
			stage:       &types.Stage{Name: "eval-lp", Kind: "evaluate-lp", Needs: []string{"train"}, Overrides: &types.TrainingOverrides{NumWalks: &negWalks}},
			errContains: "do not apply to evaluation stages",
		},
		{
			name:        "NC with distance function",
			handler:     &EvaluateNCHandler{},
			stage:       &types.Stage{Name: "eval-nc", Kind: "evaluate-nc", Needs: []string{"train"}, Overrides: &types.TrainingOverrides{DistanceFunction: &distFn}},
			errContains: "does not apply to node classification",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			errs := tc.handler.Validate(tc.stage, testConfig())
			if tc.errContains == "" {
				assert.Empty(t, errs)
			} else {
				found := false
				for _, e := range errs {
					if strings.Contains(e, tc.errContains) {
						found = true
					}
				}
				assert.True(t, found, "expected an error containing %q, got %v", tc.errContains, errs)
			}
		})
	}
}
