package types

type OutputStyle int

const (
	StyleHuman OutputStyle = iota
	StyleHumanVerbose
	StyleMachineJSON
)

// SweepConfig is the in-memory form of a heat.yml file. It describes the
// parameter sweep (stages and their axes), the directory layout shared with
// the Python pipeline, and how tasks reach SLURM or the local executor.
type SweepConfig struct {
	Project string `yaml:"project"`

	// Interpreter and location of the HEAT python scripts (main.py,
	// evaluate_nc.py, ...). Python defaults to "python3", ScriptsDir to ".".
	Python     string `yaml:"python,omitempty"`
	ScriptsDir string `yaml:"scripts_dir,omitempty"`

	// DataDir holds one subdirectory per dataset (edgelist, features,
	// labels). OutputDir is the root under which embeddings/, walks/,
	// removed_edges/ and test_results/ are created.
	DataDir   string `yaml:"data_dir,omitempty"`
	OutputDir string `yaml:"output_dir,omitempty"`

	// CompressedEdgelists selects edgelist.tsv.gz over edgelist.tsv.
	CompressedEdgelists bool `yaml:"compressed_edgelists,omitempty"`

	Concurrency int `yaml:"concurrency,omitempty"`

	Padding  Padding          `yaml:"padding,omitempty"`
	Defaults TrainingDefaults `yaml:"defaults,omitempty"`
	Slurm    SlurmConfig      `yaml:"slurm,omitempty"`

	Stages []*Stage `yaml:"stages"`
}

// Padding fixes the zero-padded widths used when seeds and dimensions become
// path components. Producer and consumer share this single definition so the
// on-disk layout cannot drift between training and evaluation.
type Padding struct {
	Seed int `yaml:"seed,omitempty"` // default 3
	Dim  int `yaml:"dim,omitempty"`  // default 2
}

// TrainingDefaults are the walk/training parameters handed to the Python
// pipeline when a stage does not override them.
type TrainingDefaults struct {
	NumWalks           int    `yaml:"num_walks,omitempty"`
	WalkLength         int    `yaml:"walk_length,omitempty"`
	ContextSize        int    `yaml:"context_size,omitempty"`
	NumNegativeSamples int    `yaml:"num_negative_samples,omitempty"`
	Epochs             int    `yaml:"epochs,omitempty"`
	DistanceFunction   string `yaml:"distance_function,omitempty"`
	UseGenerator       bool   `yaml:"use_generator,omitempty"`
	Workers            int    `yaml:"workers,omitempty"`
	Directed           bool   `yaml:"directed,omitempty"`
}

// TrainingOverrides mirrors TrainingDefaults with pointer fields so a stage
// can override a single knob without clobbering the rest.
type TrainingOverrides struct {
	NumWalks           *int    `yaml:"num_walks,omitempty"`
	WalkLength         *int    `yaml:"walk_length,omitempty"`
	ContextSize        *int    `yaml:"context_size,omitempty"`
	NumNegativeSamples *int    `yaml:"num_negative_samples,omitempty"`
	Epochs             *int    `yaml:"epochs,omitempty"`
	DistanceFunction   *string `yaml:"distance_function,omitempty"`
	UseGenerator       *bool   `yaml:"use_generator,omitempty"`
	Workers            *int    `yaml:"workers,omitempty"`
	Directed           *bool   `yaml:"directed,omitempty"`
}

// SlurmConfig carries cluster-wide submission settings. The tool paths are
// configurable so heat can run against wrapper scripts or non-standard
// installs.
type SlurmConfig struct {
	SbatchPath  string `yaml:"sbatch_path,omitempty"`
	SqueuePath  string `yaml:"squeue_path,omitempty"`
	ScancelPath string `yaml:"scancel_path,omitempty"`

	Account   string `yaml:"account,omitempty"`
	Partition string `yaml:"partition,omitempty"`

	Time   string `yaml:"time,omitempty"` // e.g. "1:00:00"
	Mem    string `yaml:"mem,omitempty"`  // e.g. "5G"
	NTasks int    `yaml:"ntasks,omitempty"`

	// Extra raw #SBATCH directives appended verbatim to every script.
	Extra []string `yaml:"extra,omitempty"`
}

// SlurmOverrides is the per-stage variant of SlurmConfig.
type SlurmOverrides struct {
	Time      *string  `yaml:"time,omitempty"`
	Mem       *string  `yaml:"mem,omitempty"`
	NTasks    *int     `yaml:"ntasks,omitempty"`
	Account   *string  `yaml:"account,omitempty"`
	Partition *string  `yaml:"partition,omitempty"`
	Extra     []string `yaml:"extra,omitempty"`
}

// Stage is one sbatch array (or one local task pool): a named grid of axes
// executed by a single experiment kind.
type Stage struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`

	// Needs lists stages that must finish first. Under SLURM this becomes
	// a --dependency=afterok chain; locally it orders execution.
	Needs []string `yaml:"needs,omitempty"`

	Axes []AxisSpec `yaml:"axes"`

	Overrides *TrainingOverrides `yaml:"overrides,omitempty"`
	Slurm     *SlurmOverrides    `yaml:"slurm,omitempty"`
}

// AxisSpec declares one sweep dimension. Exactly one of Values or Range is
// set; Range is shorthand for a run of integers ("0..29", inclusive). The
// declared order of values is part of the reproducibility contract: task
// indices decode against it.
type AxisSpec struct {
	Name   string   `yaml:"name"`
	Values []string `yaml:"values,omitempty"`
	Range  string   `yaml:"range,omitempty"`
}
