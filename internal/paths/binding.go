package paths

import (
	"fmt"
	"strconv"

	"github.com/CJiaLin/heat/internal/grid"
)

// Canonical axis names. Every stage sweeps exactly these five dimensions;
// validation enforces it, so Bind can rely on their presence.
const (
	AxisDataset    = "dataset"
	AxisExperiment = "experiment"
	AxisAlpha      = "alpha"
	AxisSeed       = "seed"
	AxisDim        = "dim"
)

// AxisNames lists the required axes in their conventional order.
var AxisNames = []string{AxisDataset, AxisExperiment, AxisAlpha, AxisSeed, AxisDim}

// Binding is the typed form of one decoded parameter tuple.
type Binding struct {
	Dataset    string `json:"dataset"`
	Experiment string `json:"experiment"`
	Alpha      int    `json:"alpha"` // integer percent, 0..100
	Seed       int    `json:"seed"`
	Dim        int    `json:"dim"`
}

// Bind converts a decoded grid point into a typed Binding, parsing the
// numeric axes. Config validation checks the same constraints up front, so
// errors here indicate a sweep definition that changed under us.
func Bind(p grid.Point) (Binding, error) {
	var b Binding
	var err error

	for _, name := range AxisNames {
		if !p.Has(name) {
			return Binding{}, fmt.Errorf("decoded point is missing axis %q", name)
		}
	}

	b.Dataset = p.Value(AxisDataset)
	b.Experiment = p.Value(AxisExperiment)

	if b.Alpha, err = strconv.Atoi(p.Value(AxisAlpha)); err != nil {
		return Binding{}, fmt.Errorf("axis %q: value %q is not an integer", AxisAlpha, p.Value(AxisAlpha))
	}
	if b.Alpha < 0 || b.Alpha > 100 {
		return Binding{}, fmt.Errorf("axis %q: value %d outside [0, 100]", AxisAlpha, b.Alpha)
	}

	if b.Seed, err = strconv.Atoi(p.Value(AxisSeed)); err != nil {
		return Binding{}, fmt.Errorf("axis %q: value %q is not an integer", AxisSeed, p.Value(AxisSeed))
	}
	if b.Seed < 0 {
		return Binding{}, fmt.Errorf("axis %q: value %d is negative", AxisSeed, b.Seed)
	}

	if b.Dim, err = strconv.Atoi(p.Value(AxisDim)); err != nil {
		return Binding{}, fmt.Errorf("axis %q: value %q is not an integer", AxisDim, p.Value(AxisDim))
	}
	if b.Dim <= 0 {
		return Binding{}, fmt.Errorf("axis %q: value %d must be positive", AxisDim, b.Dim)
	}

	return b, nil
}
