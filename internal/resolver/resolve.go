package resolver

import (
	"github.com/CJiaLin/heat/types"
)

// Hardcoded fallbacks matching the HEAT pipeline's own argparse defaults, so
// a minimal heat.yml dispatches the same runs the scripts would.
const (
	DefaultNumWalks           = 10
	DefaultWalkLength         = 80
	DefaultContextSize        = 10
	DefaultNumNegativeSamples = 10
	DefaultEpochs             = 5
	DefaultWorkers            = 2
	DefaultDistanceFunction   = "hyperboloid"
)

// Helper functions to dereference override pointers or return the fallback.

func resolveInt(override *int, fallback int) int {
	if override != nil {
		return *override
	}
	return fallback
}

func resolveString(override *string, fallback string) string {
	if override != nil {
		return *override
	}
	return fallback
}

func resolveBool(override *bool, fallback bool) bool {
	if override != nil {
		return *override
	}
	return fallback
}

func overrides(stage *types.Stage) *types.TrainingOverrides {
	if stage.Overrides != nil {
		return stage.Overrides
	}
	return &types.TrainingOverrides{}
}

// --- Training parameter resolvers ---

func ResolveNumWalks(stage *types.Stage, cfg *types.SweepConfig) int {
	defaultVal := cfg.Defaults.NumWalks
	if defaultVal == 0 {
		defaultVal = DefaultNumWalks
	}
	return resolveInt(overrides(stage).NumWalks, defaultVal)
}

func ResolveWalkLength(stage *types.Stage, cfg *types.SweepConfig) int {
	defaultVal := cfg.Defaults.WalkLength
	if defaultVal == 0 {
		defaultVal = DefaultWalkLength
	}
	return resolveInt(overrides(stage).WalkLength, defaultVal)
}

func ResolveContextSize(stage *types.Stage, cfg *types.SweepConfig) int {
	defaultVal := cfg.Defaults.ContextSize
	if defaultVal == 0 {
		defaultVal = DefaultContextSize
	}
	return resolveInt(overrides(stage).ContextSize, defaultVal)
}

func ResolveNumNegativeSamples(stage *types.Stage, cfg *types.SweepConfig) int {
	defaultVal := cfg.Defaults.NumNegativeSamples
	if defaultVal == 0 {
		defaultVal = DefaultNumNegativeSamples
	}
	return resolveInt(overrides(stage).NumNegativeSamples, defaultVal)
}

func ResolveEpochs(stage *types.Stage, cfg *types.SweepConfig) int {
	defaultVal := cfg.Defaults.Epochs
	if defaultVal == 0 {
		defaultVal = DefaultEpochs
	}
	return resolveInt(overrides(stage).Epochs, defaultVal)
}

func ResolveWorkers(stage *types.Stage, cfg *types.SweepConfig) int {
	defaultVal := cfg.Defaults.Workers
	if defaultVal == 0 {
		defaultVal = DefaultWorkers
	}
	return resolveInt(overrides(stage).Workers, defaultVal)
}

func ResolveDistanceFunction(stage *types.Stage, cfg *types.SweepConfig) string {
	defaultVal := cfg.Defaults.DistanceFunction
	if defaultVal == "" {
		defaultVal = DefaultDistanceFunction
	}
	return resolveString(overrides(stage).DistanceFunction, defaultVal)
}

func ResolveUseGenerator(stage *types.Stage, cfg *types.SweepConfig) bool {
	return resolveBool(overrides(stage).UseGenerator, cfg.Defaults.UseGenerator)
}

func ResolveDirected(stage *types.Stage, cfg *types.SweepConfig) bool {
	return resolveBool(overrides(stage).Directed, cfg.Defaults.Directed)
}

// --- SLURM setting resolvers ---

func slurmOverrides(stage *types.Stage) *types.SlurmOverrides {
	if stage.Slurm != nil {
		return stage.Slurm
	}
	return &types.SlurmOverrides{}
}

func ResolveSlurmTime(stage *types.Stage, cfg *types.SweepConfig) string {
	defaultVal := cfg.Slurm.Time
	if defaultVal == "" {
		defaultVal = "1:00:00"
	}
	return resolveString(slurmOverrides(stage).Time, defaultVal)
}

func ResolveSlurmMem(stage *types.Stage, cfg *types.SweepConfig) string {
	defaultVal := cfg.Slurm.Mem
	if defaultVal == "" {
		defaultVal = "5G"
	}
	return resolveString(slurmOverrides(stage).Mem, defaultVal)
}

func ResolveSlurmNTasks(stage *types.Stage, cfg *types.SweepConfig) int {
	defaultVal := cfg.Slurm.NTasks
	if defaultVal == 0 {
		defaultVal = 1
	}
	return resolveInt(slurmOverrides(stage).NTasks, defaultVal)
}

func ResolveSlurmAccount(stage *types.Stage, cfg *types.SweepConfig) string {
	return resolveString(slurmOverrides(stage).Account, cfg.Slurm.Account)
}

func ResolveSlurmPartition(stage *types.Stage, cfg *types.SweepConfig) string {
	return resolveString(slurmOverrides(stage).Partition, cfg.Slurm.Partition)
}

func ResolveSlurmExtra(stage *types.Stage, cfg *types.SweepConfig) []string {
	extra := append([]string{}, cfg.Slurm.Extra...)
	return append(extra, slurmOverrides(stage).Extra...)
}
