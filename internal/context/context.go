package context

import (
	"github.com/CJiaLin/heat/types"
	"github.com/google/uuid"
)

// RunContext carries everything a command invocation needs to execute or
// submit a sweep: identity, config, and where records go.
type RunContext struct {
	RunId      uuid.UUID
	Config     *types.SweepConfig
	ConfigPath string // absolute path to heat.yml
	ConfigDir  string // directory that holds heat.yml
	LogDir     string
	OnlyStages []string // selective stage runs
	HeatCmd    string   // "run", "submit", "exec"
}
