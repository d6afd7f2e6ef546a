package paths

import (
	"fmt"
	"path/filepath"

	"github.com/CJiaLin/heat/types"
)

const (
	DefaultSeedWidth = 3
	DefaultDimWidth  = 2

	// EmbeddingArtifactName is the file the training script writes last.
	// Its presence marks a (dataset, experiment, alpha, seed, dim) cell done.
	EmbeddingArtifactName = "final_embedding.csv.gz"

	// The evaluation scripts own these two files inside each results dir.
	// heat never writes or skip-checks them: the CSV accumulates one row per
	// seed under the Python side's fcntl lock.
	ResultsFileName     = "test_results.csv"
	ResultsLockFileName = "test_results.lock"
)

// FormatAlpha renders an integer alpha in [0, 100] the way the sweep's paths
// and the Python pipeline expect: 100 becomes "1.00", everything else
// "0.NN" with two digits. Values outside the range are rejected during
// config validation, so this stays a pure formatter.
func FormatAlpha(alpha int) string {
	if alpha == 100 {
		return "1.00"
	}
	return fmt.Sprintf("0.%02d", alpha)
}

// Layout derives every path a task touches from its parameter tuple. All
// methods are pure string construction; nothing here reads the filesystem.
type Layout struct {
	DataDir    string
	OutputDir  string
	SeedWidth  int
	DimWidth   int
	Compressed bool
}

// NewLayout builds a Layout from the sweep config, applying the default
// padding widths where the config leaves them zero.
func NewLayout(cfg *types.SweepConfig) *Layout {
	l := &Layout{
		DataDir:    cfg.DataDir,
		OutputDir:  cfg.OutputDir,
		SeedWidth:  cfg.Padding.Seed,
		DimWidth:   cfg.Padding.Dim,
		Compressed: cfg.CompressedEdgelists,
	}
	if l.DataDir == "" {
		l.DataDir = "datasets"
	}
	if l.OutputDir == "" {
		l.OutputDir = "."
	}
	if l.SeedWidth <= 0 {
		l.SeedWidth = DefaultSeedWidth
	}
	if l.DimWidth <= 0 {
		l.DimWidth = DefaultDimWidth
	}
	return l
}

func (l *Layout) FormatSeed(seed int) string {
	return fmt.Sprintf("%0*d", l.SeedWidth, seed)
}

func (l *Layout) FormatDim(dim int) string {
	return fmt.Sprintf("%0*d", l.DimWidth, dim)
}

func (l *Layout) EdgelistPath(dataset string) string {
	name := "edgelist.tsv"
	if l.Compressed {
		name += ".gz"
	}
	return filepath.Join(l.DataDir, dataset, name)
}

func (l *Layout) FeaturesPath(dataset string) string {
	return filepath.Join(l.DataDir, dataset, "feats.csv")
}

func (l *Layout) LabelsPath(dataset string) string {
	return filepath.Join(l.DataDir, dataset, "labels.csv")
}

// EmbeddingDir places one directory per full parameter tuple, so no two
// tuples can overwrite each other's embedding.
func (l *Layout) EmbeddingDir(b Binding) string {
	return filepath.Join(l.OutputDir, "embeddings", b.Dataset, b.Experiment,
		"alpha="+FormatAlpha(b.Alpha),
		"seed="+l.FormatSeed(b.Seed),
		"dim="+l.FormatDim(b.Dim))
}

// EmbeddingArtifact is the skip-check target for training tasks.
func (l *Layout) EmbeddingArtifact(b Binding) string {
	return filepath.Join(l.EmbeddingDir(b), EmbeddingArtifactName)
}

// WalksDir is deliberately dim-independent: random walks depend only on the
// graph and the seed, so every dimension of the sweep shares them.
func (l *Layout) WalksDir(b Binding) string {
	return filepath.Join(l.OutputDir, "walks", b.Dataset, b.Experiment,
		"seed="+l.FormatSeed(b.Seed))
}

// RemovedEdgesDir holds the edges held out for link prediction. It is keyed
// by dataset and seed only: the same split is reused across alpha and dim.
func (l *Layout) RemovedEdgesDir(b Binding) string {
	return filepath.Join(l.OutputDir, "removed_edges", b.Dataset,
		"seed="+l.FormatSeed(b.Seed))
}

// ResultsDir intentionally omits the seed: the evaluator appends one row per
// seed to a shared CSV inside it, guarded by its own lock file.
func (l *Layout) ResultsDir(b Binding) string {
	return filepath.Join(l.OutputDir, "test_results", b.Dataset, b.Experiment,
		"alpha="+FormatAlpha(b.Alpha),
		"dim="+l.FormatDim(b.Dim))
}

// TaskPaths bundles every location one task can touch.
type TaskPaths struct {
	Edgelist        string `json:"edgelist"`
	Features        string `json:"features"`
	Labels          string `json:"labels"`
	EmbeddingDir    string `json:"embedding_dir"`
	WalksDir        string `json:"walks_dir"`
	RemovedEdgesDir string `json:"removed_edges_dir"`
	ResultsDir      string `json:"results_dir"`
}

// Anchor joins a layout-relative path onto base. Layout paths are relative
// to the config directory, where dispatched scripts run; any filesystem
// check done from another working directory must anchor first.
func Anchor(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// Resolve derives the full path set for one parameter tuple.
func (l *Layout) Resolve(b Binding) TaskPaths {
	return TaskPaths{
		Edgelist:        l.EdgelistPath(b.Dataset),
		Features:        l.FeaturesPath(b.Dataset),
		Labels:          l.LabelsPath(b.Dataset),
		EmbeddingDir:    l.EmbeddingDir(b),
		WalksDir:        l.WalksDir(b),
		RemovedEdgesDir: l.RemovedEdgesDir(b),
		ResultsDir:      l.ResultsDir(b),
	}
}
