package types

// Initiator records who (or what) started a run - a user at a terminal, the
// detached background runner, or a SLURM array element.
type Initiator struct {
	Type   string `json:"type"` // "user", "heat-runner", "slurm"
	Id     string `json:"id"`
	Tenant string `json:"tenant"` // hostname
}
