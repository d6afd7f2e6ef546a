// Package python builds and dispatches invocations of the external HEAT
// pipeline scripts. Flag names here are a foreign ABI owned by the Python
// side; treat them as stable and do not "fix" them.
package python

import (
	"path/filepath"
	"strconv"
)

// Script names within the pipeline checkout.
const (
	ScriptTrain                  = "main.py"
	ScriptEvaluateNC             = "evaluate_nc.py"
	ScriptEvaluateLP             = "evaluate_lp.py"
	ScriptEvaluateReconstruction = "evaluate_reconstruction.py"
)

// Invocation enumerates every recognized option of the HEAT scripts as a
// typed structure. Zero values mean "flag not passed", matching the argparse
// defaults on the Python side.
type Invocation struct {
	Python     string // interpreter, e.g. "python3"
	ScriptsDir string
	Script     string // one of the Script* constants

	Edgelist string
	Features string
	Labels   string

	// Embedding is the --embedding argument. The training script takes its
	// output directory here; the evaluation scripts take the path of the
	// trained artifact file.
	Embedding string

	WalksDir        string
	RemovedEdgesDir string
	ResultsDir      string

	NumWalks           int
	WalkLength         int
	ContextSize        int
	NumNegativeSamples int
	Epochs             int
	Workers            int

	Seed  int
	Dim   int
	Alpha string // pre-formatted decimal, e.g. "0.05"

	DistanceFunction string

	UseGenerator bool
	Directed     bool
}

// Args renders the argv for the invocation (excluding the interpreter) in a
// fixed flag order, so the same tuple always produces the same command line.
func (inv *Invocation) Args() []string {
	args := []string{filepath.Join(inv.ScriptsDir, inv.Script)}

	appendFlag := func(flag, value string) {
		if value != "" {
			args = append(args, flag, value)
		}
	}
	appendIntFlag := func(flag string, value int) {
		if value != 0 {
			args = append(args, flag, strconv.Itoa(value))
		}
	}

	appendFlag("--edgelist", inv.Edgelist)
	appendFlag("--features", inv.Features)
	appendFlag("--labels", inv.Labels)

	appendFlag("--embedding", inv.Embedding)
	appendFlag("--walks", inv.WalksDir)
	appendFlag("--removed_edges_dir", inv.RemovedEdgesDir)
	appendFlag("--test-results-dir", inv.ResultsDir)

	appendIntFlag("--num-walks", inv.NumWalks)
	appendIntFlag("--walk-length", inv.WalkLength)
	appendIntFlag("--context-size", inv.ContextSize)
	appendIntFlag("--nneg", inv.NumNegativeSamples)
	appendIntFlag("-e", inv.Epochs)
	appendIntFlag("--workers", inv.Workers)

	// Seed is passed even when 0; 0 is a legitimate (and common) seed.
	args = append(args, "--seed", strconv.Itoa(inv.Seed))
	appendIntFlag("--dim", inv.Dim)
	appendFlag("--alpha", inv.Alpha)

	appendFlag("--dist_fn", inv.DistanceFunction)

	if inv.UseGenerator {
		args = append(args, "--use-generator")
	}
	if inv.Directed {
		args = append(args, "--directed")
	}

	return args
}

// Command returns the full command line including the interpreter.
func (inv *Invocation) Command() []string {
	python := inv.Python
	if python == "" {
		python = "python3"
	}
	return append([]string{python}, inv.Args()...)
}
