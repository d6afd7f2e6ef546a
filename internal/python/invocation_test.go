package python

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestArgsTrain(t *testing.T) {
	inv := &Invocation{
		Python:             "python3",
		ScriptsDir:         "/opt/heat",
		Script:             ScriptTrain,
		Edgelist:           "datasets/cora_ml/edgelist.tsv.gz",
		Features:           "datasets/cora_ml/feats.csv",
		Labels:             "datasets/cora_ml/labels.csv",
		Embedding:          "embeddings/cora_ml/nc_experiment/alpha=0.05/seed=007/dim=10",
		WalksDir:           "walks/cora_ml/nc_experiment/seed=007",
		NumWalks:           10,
		WalkLength:         80,
		ContextSize:        10,
		NumNegativeSamples: 10,
		Epochs:             5,
		Workers:            2,
		Seed:               7,
		Dim:                10,
		Alpha:              "0.05",
		UseGenerator:       true,
	}

	args := inv.Args()

	assert.Equal(t, "/opt/heat/main.py", args[0])
	assertFlag(t, args, "--edgelist", "datasets/cora_ml/edgelist.tsv.gz")
	assertFlag(t, args, "--features", "datasets/cora_ml/feats.csv")
	assertFlag(t, args, "--labels", "datasets/cora_ml/labels.csv")
	assertFlag(t, args, "--embedding", "embeddings/cora_ml/nc_experiment/alpha=0.05/seed=007/dim=10")
	assertFlag(t, args, "--walks", "walks/cora_ml/nc_experiment/seed=007")
	assertFlag(t, args, "--num-walks", "10")
	assertFlag(t, args, "--walk-length", "80")
	assertFlag(t, args, "--context-size", "10")
	assertFlag(t, args, "--nneg", "10")
	assertFlag(t, args, "-e", "5")
	assertFlag(t, args, "--workers", "2")
	assertFlag(t, args, "--seed", "7")
	assertFlag(t, args, "--dim", "10")
	assertFlag(t, args, "--alpha", "0.05")
	assert.Contains(t, args, "--use-generator")
	assert.NotContains(t, args, "--directed")
	assert.NotContains(t, args, "--dist_fn")
}

func TestArgsSeedZeroIsStillPassed(t *testing.T) {
	inv := &Invocation{Script: ScriptTrain, ScriptsDir: ".", Seed: 0}
	assertFlag(t, inv.Args(), "--seed", "0")
}

func TestArgsDeterministic(t *testing.T) {
	inv := &Invocation{
		Script:     ScriptEvaluateLP,
		ScriptsDir: ".",
		Edgelist:   "datasets/cora_ml/edgelist.tsv",

		RemovedEdgesDir:  "removed_edges/cora_ml/seed=000",
		ResultsDir:       "test_results/cora_ml/lp_experiment/alpha=0.00/dim=10",
		DistanceFunction: "hyperboloid",
		Seed:             0,
		Dim:              10,
	}

	first := inv.Args()
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, inv.Args())
	}
}

func TestCommandDefaultsInterpreter(t *testing.T) {
	inv := &Invocation{Script: ScriptTrain, ScriptsDir: "."}
	assert.Equal(t, "python3", inv.Command()[0])

	inv.Python = "/usr/bin/python3.11"
	assert.Equal(t, "/usr/bin/python3.11", inv.Command()[0])
}

func TestDispatchUsesInjectedRunner(t *testing.T) {
	var gotDir string
	var gotCommand []string

	d := NewDispatcher("/work")
	d.Run = func(ctx context.Context, dir string, command []string, logger zerolog.Logger) (int, error) {
		gotDir = dir
		gotCommand = command
		return 42, nil
	}

	inv := &Invocation{Python: "python3", ScriptsDir: ".", Script: ScriptTrain}
	code, err := d.Dispatch(context.Background(), inv, zerolog.Nop())

	assert.NoError(t, err)
	assert.Equal(t, 42, code)
	assert.Equal(t, "/work", gotDir)
	assert.Equal(t, inv.Command(), gotCommand)
}

// assertFlag checks that flag appears in args immediately followed by value.
func assertFlag(t *testing.T, args []string, flag, value string) {
	t.Helper()
	for i, a := range args {
		if a == flag {
			if assert.Less(t, i+1, len(args), "flag %s has no value", flag) {
				assert.Equal(t, value, args[i+1], "flag %s", flag)
			}
			return
		}
	}
	t.Errorf("flag %s not found in args %v", flag, args)
}
