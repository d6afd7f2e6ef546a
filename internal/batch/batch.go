// Package batch renders the per-stage sbatch array scripts that hand a sweep
// off to SLURM. Each stage becomes one job array; array index N is the same
// task index that `heat exec` decodes locally.
package batch

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/CJiaLin/heat/internal/config"
	"github.com/CJiaLin/heat/internal/resolver"
	"github.com/CJiaLin/heat/internal/templates"
	"github.com/CJiaLin/heat/types"
)

const sbatchTemplate = "files/sbatch.sh.tmpl"

// ScriptData is the fill-in for the sbatch template.
type ScriptData struct {
	JobName    string
	LogDir     string
	MaxIndex   int
	Time       string
	Mem        string
	NTasks     int
	Account    string
	Partition  string
	Extra      []string
	HeatCmd    string
	ConfigPath string
	Stage      string
}

// ScriptFileName names a stage's rendered script.
func ScriptFileName(stage *types.Stage) string {
	return stage.Name + ".sbatch"
}

// BuildScriptData resolves a stage's SLURM directives and command line.
// configPath and logDir should be absolute: the script runs wherever the
// scheduler places it, not in the submitter's working directory.
func BuildScriptData(cfg *types.SweepConfig, stage *types.Stage, configPath, logDir, heatCmd string) (*ScriptData, error) {
	g, err := config.StageGrid(stage)
	if err != nil {
		return nil, fmt.Errorf("stage %q: %w", stage.Name, err)
	}
	if heatCmd == "" {
		heatCmd = "heat"
	}

	return &ScriptData{
		JobName:    fmt.Sprintf("%s-%s", cfg.Project, stage.Name),
		LogDir:     logDir,
		MaxIndex:   g.Size() - 1,
		Time:       resolver.ResolveSlurmTime(stage, cfg),
		Mem:        resolver.ResolveSlurmMem(stage, cfg),
		NTasks:     resolver.ResolveSlurmNTasks(stage, cfg),
		Account:    resolver.ResolveSlurmAccount(stage, cfg),
		Partition:  resolver.ResolveSlurmPartition(stage, cfg),
		Extra:      resolver.ResolveSlurmExtra(stage, cfg),
		HeatCmd:    heatCmd,
		ConfigPath: configPath,
		Stage:      stage.Name,
	}, nil
}

// RenderStageScript renders the sbatch script for one stage.
func RenderStageScript(cfg *types.SweepConfig, stage *types.Stage, configPath, logDir, heatCmd string) ([]byte, error) {
	data, err := BuildScriptData(cfg, stage, configPath, logDir, heatCmd)
	if err != nil {
		return nil, err
	}
	return templates.RenderTpl(sbatchTemplate, data)
}

// WriteStageScripts renders every stage's script into outDir and returns the
// script path per stage name. logDir receives the scheduler's stdout/stderr
// files (%A_%a patterns).
func WriteStageScripts(cfg *types.SweepConfig, configPath, outDir, logDir, heatCmd string) (map[string]string, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create batch dir %s: %w", outDir, err)
	}
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create batch log dir %s: %w", logDir, err)
	}

	scripts := make(map[string]string, len(cfg.Stages))
	for _, stage := range cfg.Stages {
		rendered, err := RenderStageScript(cfg, stage, configPath, logDir, heatCmd)
		if err != nil {
			return nil, err
		}

		outPath := filepath.Join(outDir, ScriptFileName(stage))
		if err := os.WriteFile(outPath, rendered, 0755); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", outPath, err)
		}
		scripts[stage.Name] = outPath
	}
	return scripts, nil
}
