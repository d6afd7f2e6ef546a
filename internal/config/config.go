package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/CJiaLin/heat/internal/experiment"
	"github.com/CJiaLin/heat/internal/grid"
	"github.com/CJiaLin/heat/internal/paths"
	"github.com/CJiaLin/heat/types"
	"gopkg.in/yaml.v3"
)

// Stage names end up as sbatch job names and script file names.
var stageNameRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// Axis range shorthand, e.g. "0..29" (inclusive).
var rangeRegex = regexp.MustCompile(`^(-?\d+)\.\.(-?\d+)$`)

// LoadSweepConfig reads and parses a heat.yml file, applies defaults, and
// returns the config together with the directory containing it. Validation
// is a separate step so callers can decide which registry to validate
// against.
func LoadSweepConfig(filename string) (*types.SweepConfig, string, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	var cfg types.SweepConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse YAML in %s: %w", filename, err)
	}

	applyDefaults(&cfg)

	absPath, err := filepath.Abs(filename)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve absolute path for %s: %w", filename, err)
	}

	return &cfg, filepath.Dir(absPath), nil
}

func applyDefaults(cfg *types.SweepConfig) {
	if cfg.Python == "" {
		cfg.Python = "python3"
	}
	if cfg.ScriptsDir == "" {
		cfg.ScriptsDir = "."
	}
	if cfg.Slurm.SbatchPath == "" {
		cfg.Slurm.SbatchPath = "sbatch"
	}
	if cfg.Slurm.SqueuePath == "" {
		cfg.Slurm.SqueuePath = "squeue"
	}
	if cfg.Slurm.ScancelPath == "" {
		cfg.Slurm.ScancelPath = "scancel"
	}
}

// ValidateSweepConfig checks the whole sweep definition and reports every
// problem at once rather than stopping at the first.
func ValidateSweepConfig(cfg *types.SweepConfig, registry *experiment.Registry) error {
	errs := validateSyntax(cfg, registry)
	if len(errs) != 0 {
		return errors.New("heat configuration validation failed:\n- " + strings.Join(errs, "\n- "))
	}

	// Dependency structure is only worth checking once the stages
	// themselves are well-formed.
	graph, depErrs := buildAndValidateGraph(cfg)

	var cycleErrs []string
	if len(depErrs) == 0 {
		if cyclePath := detectCycle(graph); cyclePath != nil {
			cycleErrs = append(cycleErrs, fmt.Sprintf("stage dependency cycle detected: %s", strings.Join(cyclePath, " -> ")))
		}
	}

	allErrs := append(depErrs, cycleErrs...)
	if len(allErrs) > 0 {
		return errors.New("heat configuration validation failed:\n- " + strings.Join(allErrs, "\n- "))
	}

	return nil
}

func validateSyntax(cfg *types.SweepConfig, registry *experiment.Registry) []string {
	var errs []string

	if cfg.Project == "" {
		errs = append(errs, "field 'project' is required")
	}

	if cfg.Concurrency < 0 {
		errs = append(errs, "field 'concurrency' cannot be negative")
	}
	if cfg.Padding.Seed < 0 {
		errs = append(errs, "field 'padding.seed' cannot be negative")
	}
	if cfg.Padding.Dim < 0 {
		errs = append(errs, "field 'padding.dim' cannot be negative")
	}

	if len(cfg.Stages) == 0 {
		errs = append(errs, "at least one stage must be defined under the 'stages' list")
	}

	stageNames := make(map[string]bool)

	for i, stage := range cfg.Stages {
		stageCtx := fmt.Sprintf("stage[%d]", i)
		if stage.Name != "" {
			stageCtx = fmt.Sprintf("stage[%d] (name: %q)", i, stage.Name)
		}

		if stage.Name == "" {
			errs = append(errs, fmt.Sprintf("stage[%d]: field 'name' is required", i))
		} else {
			if !stageNameRegex.MatchString(stage.Name) {
				errs = append(errs, fmt.Sprintf("%s: invalid name (lowercase letters, digits, '-' and '_' only)", stageCtx))
			}
			if stageNames[stage.Name] {
				errs = append(errs, fmt.Sprintf("%s: duplicate stage name found", stageCtx))
			}
			stageNames[stage.Name] = true
		}

		if stage.Kind == "" {
			errs = append(errs, fmt.Sprintf("%s: field 'kind' is required", stageCtx))
		} else if !registry.IsKnownKind(stage.Kind) {
			errs = append(errs, fmt.Sprintf("%s: unknown kind %q; known kinds are: %v", stageCtx, stage.Kind, registry.RegisteredKinds()))
		}

		errs = append(errs, validateAxes(stage, stageCtx)...)

		if stage.Kind != "" && registry.IsKnownKind(stage.Kind) {
			handler := registry.MustGet(stage.Kind)
			errs = append(errs, handler.Validate(stage, cfg)...)
		}
	}

	return errs
}

func validateAxes(stage *types.Stage, stageCtx string) []string {
	var errs []string

	if len(stage.Axes) == 0 {
		errs = append(errs, fmt.Sprintf("%s: at least one axis must be defined", stageCtx))
		return errs
	}

	declared := make(map[string][]string, len(stage.Axes))

	for j, spec := range stage.Axes {
		axisCtx := fmt.Sprintf("%s axis[%d]", stageCtx, j)
		if spec.Name != "" {
			axisCtx = fmt.Sprintf("%s axis[%d] (name: %q)", stageCtx, j, spec.Name)
		}

		if spec.Name == "" {
			errs = append(errs, fmt.Sprintf("%s: field 'name' is required", axisCtx))
			continue
		}
		if _, dup := declared[spec.Name]; dup {
			errs = append(errs, fmt.Sprintf("%s: duplicate axis name", axisCtx))
			continue
		}

		values, err := ExpandAxis(spec)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", axisCtx, err))
			continue
		}
		if len(values) == 0 {
			errs = append(errs, fmt.Sprintf("%s: axis has no values", axisCtx))
			continue
		}
		declared[spec.Name] = values

		switch spec.Name {
		case paths.AxisAlpha:
			for _, v := range values {
				n, convErr := strconv.Atoi(v)
				if convErr != nil || n < 0 || n > 100 {
					errs = append(errs, fmt.Sprintf("%s: value %q must be an integer in [0, 100]", axisCtx, v))
				}
			}
		case paths.AxisSeed:
			for _, v := range values {
				n, convErr := strconv.Atoi(v)
				if convErr != nil || n < 0 {
					errs = append(errs, fmt.Sprintf("%s: value %q must be a non-negative integer", axisCtx, v))
				}
			}
		case paths.AxisDim:
			for _, v := range values {
				n, convErr := strconv.Atoi(v)
				if convErr != nil || n <= 0 {
					errs = append(errs, fmt.Sprintf("%s: value %q must be a positive integer", axisCtx, v))
				}
			}
		}
	}

	// Each stage sweeps exactly the five canonical axes; the path layout
	// depends on all of them being present.
	for _, required := range paths.AxisNames {
		if _, ok := declared[required]; !ok {
			errs = append(errs, fmt.Sprintf("%s: required axis %q is not declared", stageCtx, required))
		}
	}
	for name := range declared {
		known := false
		for _, required := range paths.AxisNames {
			if name == required {
				known = true
				break
			}
		}
		if !known {
			errs = append(errs, fmt.Sprintf("%s: unknown axis %q (allowed: %v)", stageCtx, name, paths.AxisNames))
		}
	}

	return errs
}

// ExpandAxis resolves an AxisSpec to its concrete value list. Exactly one of
// 'values' and 'range' must be set; 'range' expands "a..b" to the inclusive
// run of integers.
func ExpandAxis(spec types.AxisSpec) ([]string, error) {
	hasValues := len(spec.Values) > 0
	hasRange := spec.Range != ""

	if hasValues && hasRange {
		return nil, errors.New("'values' and 'range' cannot both be set")
	}
	if !hasValues && !hasRange {
		return nil, errors.New("either 'values' or 'range' must be set")
	}

	if hasValues {
		return spec.Values, nil
	}

	m := rangeRegex.FindStringSubmatch(spec.Range)
	if m == nil {
		return nil, fmt.Errorf("invalid range %q (expected \"lo..hi\")", spec.Range)
	}
	lo, _ := strconv.Atoi(m[1])
	hi, _ := strconv.Atoi(m[2])
	if lo > hi {
		return nil, fmt.Errorf("invalid range %q: lower bound exceeds upper bound", spec.Range)
	}

	values := make([]string, 0, hi-lo+1)
	for v := lo; v <= hi; v++ {
		values = append(values, strconv.Itoa(v))
	}
	return values, nil
}

// StageGrid builds the decoding grid for one stage, preserving axis
// declaration order exactly. Call only after validation.
func StageGrid(stage *types.Stage) (*grid.Grid, error) {
	axes := make([]grid.Axis, 0, len(stage.Axes))
	for _, spec := range stage.Axes {
		values, err := ExpandAxis(spec)
		if err != nil {
			return nil, fmt.Errorf("stage %q axis %q: %w", stage.Name, spec.Name, err)
		}
		axes = append(axes, grid.Axis{Name: spec.Name, Values: values})
	}
	g, err := grid.New(axes)
	if err != nil {
		return nil, fmt.Errorf("stage %q: %w", stage.Name, err)
	}
	return g, nil
}
