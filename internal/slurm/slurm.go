// Package slurm wraps the SLURM command-line tools. The scheduler itself is
// an external collaborator: heat hands it scripts and array ranges and reads
// back job ids, nothing more.
package slurm

import (
	"bytes"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/CJiaLin/heat/types"
	"github.com/rs/zerolog/log"
)

// sbatch prints "Submitted batch job 123456" on success.
var submittedRegex = regexp.MustCompile(`Submitted batch job (\d+)`)

// Client shells out to sbatch/squeue/scancel. The tool paths are
// configurable so wrapper scripts and non-standard installs work; the run
// function is a variable so tests can intercept without a cluster.
type Client struct {
	SbatchPath  string
	SqueuePath  string
	ScancelPath string

	run func(name string, args ...string) ([]byte, error)
}

func NewClient(cfg types.SlurmConfig) *Client {
	c := &Client{
		SbatchPath:  cfg.SbatchPath,
		SqueuePath:  cfg.SqueuePath,
		ScancelPath: cfg.ScancelPath,
		run:         runCommand,
	}
	if c.SbatchPath == "" {
		c.SbatchPath = "sbatch"
	}
	if c.SqueuePath == "" {
		c.SqueuePath = "squeue"
	}
	if c.ScancelPath == "" {
		c.ScancelPath = "scancel"
	}
	return c
}

// runCommand invokes the tool and returns stdout bytes (for parsing) or an
// error carrying both output streams.
func runCommand(name string, args ...string) ([]byte, error) {
	cmd := exec.Command(name, args...)

	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	log.Debug().Str("tool", name).Strs("args", args).Msg("Running SLURM command")

	err := cmd.Run()
	if err != nil {
		return outBuf.Bytes(), fmt.Errorf("%s %v failed: %w\n%s\n%s", name, args, err, errBuf.String(), outBuf.String())
	}
	return outBuf.Bytes(), nil
}

// Submit submits a batch script and returns the assigned job id.
// dependencies, when non-empty, become an afterok chain: the array starts
// only once every listed job finished successfully.
func (c *Client) Submit(scriptPath string, dependencies []int) (int, error) {
	args := []string{}
	if len(dependencies) > 0 {
		args = append(args, "--dependency="+DependencyAfterOK(dependencies))
	}
	args = append(args, scriptPath)

	out, err := c.run(c.SbatchPath, args...)
	if err != nil {
		return 0, err
	}

	return ParseSubmitOutput(string(out))
}

// ParseSubmitOutput extracts the job id from sbatch's confirmation line.
func ParseSubmitOutput(out string) (int, error) {
	m := submittedRegex.FindStringSubmatch(out)
	if m == nil {
		return 0, fmt.Errorf("could not find job id in sbatch output: %q", strings.TrimSpace(out))
	}
	id, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("invalid job id %q in sbatch output", m[1])
	}
	return id, nil
}

// DependencyAfterOK renders the afterok dependency expression for a set of
// job ids, e.g. "afterok:12:13".
func DependencyAfterOK(jobIds []int) string {
	parts := make([]string, 0, len(jobIds)+1)
	parts = append(parts, "afterok")
	for _, id := range jobIds {
		parts = append(parts, strconv.Itoa(id))
	}
	return strings.Join(parts, ":")
}

// QueueEntry is one row of squeue output for the current user.
type QueueEntry struct {
	JobId     string `json:"job_id"` // array elements look like "123456_7"
	Name      string `json:"name"`
	State     string `json:"state"`
	Reason    string `json:"reason"`
	TimeUsed  string `json:"time_used"`
	Partition string `json:"partition"`
}

// Queue lists the caller's pending and running jobs.
func (c *Client) Queue() ([]QueueEntry, error) {
	// %i jobid, %j name, %T state, %r reason, %M time, %P partition
	out, err := c.run(c.SqueuePath, "--me", "--noheader", "--format=%i|%j|%T|%r|%M|%P")
	if err != nil {
		return nil, err
	}
	return ParseQueueOutput(string(out)), nil
}

// ParseQueueOutput parses the pipe-separated squeue listing.
func ParseQueueOutput(out string) []QueueEntry {
	var entries []QueueEntry
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Split(line, "|")
		if len(fields) < 6 {
			log.Warn().Str("line", line).Msg("Skipping malformed squeue line")
			continue
		}
		entries = append(entries, QueueEntry{
			JobId:     fields[0],
			Name:      fields[1],
			State:     fields[2],
			Reason:    fields[3],
			TimeUsed:  fields[4],
			Partition: fields[5],
		})
	}
	return entries
}

// Cancel asks the scheduler to kill the given jobs. Cancellation is
// entirely the scheduler's business; heat has no in-task cancellation points.
func (c *Client) Cancel(jobIds []int) error {
	args := make([]string, 0, len(jobIds))
	for _, id := range jobIds {
		args = append(args, strconv.Itoa(id))
	}

	_, err := c.run(c.ScancelPath, args...)
	return err
}
