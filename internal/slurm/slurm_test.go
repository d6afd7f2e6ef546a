package slurm

import (
	"fmt"
	"testing"

	"github.com/CJiaLin/heat/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(types.SlurmConfig{})
	assert.Equal(t, "sbatch", c.SbatchPath)
	assert.Equal(t, "squeue", c.SqueuePath)
	assert.Equal(t, "scancel", c.ScancelPath)

	c = NewClient(types.SlurmConfig{
		SbatchPath:  "/opt/slurm/bin/sbatch",
		SqueuePath:  "/opt/slurm/bin/squeue",
		ScancelPath: "/opt/slurm/bin/scancel",
	})
	assert.Equal(t, "/opt/slurm/bin/sbatch", c.SbatchPath)
	assert.Equal(t, "/opt/slurm/bin/squeue", c.SqueuePath)
	assert.Equal(t, "/opt/slurm/bin/scancel", c.ScancelPath)
}

func TestParseSubmitOutput(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		want    int
		wantErr bool
	}{
		{
			name: "plain confirmation",
			out:  "Submitted batch job 123456\n",
			want: 123456,
		},
		{
			name: "confirmation with cluster noise",
			out:  "sbatch: lua plugin loaded\nSubmitted batch job 42\n",
			want: 42,
		},
		{
			name:    "no confirmation line",
			out:     "sbatch: error: invalid partition\n",
			wantErr: true,
		},
		{
			name:    "empty output",
			out:     "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSubmitOutput(tt.out)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSubmitPassesDependencies(t *testing.T) {
	var gotName string
	var gotArgs []string

	c := NewClient(types.SlurmConfig{})
	c.run = func(name string, args ...string) ([]byte, error) {
		gotName = name
		gotArgs = args
		return []byte("Submitted batch job 77\n"), nil
	}

	id, err := c.Submit("/tmp/sweep/train.sbatch", []int{12, 13})
	require.NoError(t, err)
	assert.Equal(t, 77, id)
	assert.Equal(t, "sbatch", gotName)
	assert.Equal(t, []string{"--dependency=afterok:12:13", "/tmp/sweep/train.sbatch"}, gotArgs)
}

func TestSubmitWithoutDependencies(t *testing.T) {
	c := NewClient(types.SlurmConfig{})
	c.run = func(name string, args ...string) ([]byte, error) {
		return []byte("Submitted batch job 9\n"), nil
	}

	id, err := c.Submit("train.sbatch", nil)
	require.NoError(t, err)
	assert.Equal(t, 9, id)
}

func TestSubmitSurfacesToolFailure(t *testing.T) {
	c := NewClient(types.SlurmConfig{})
	c.run = func(name string, args ...string) ([]byte, error) {
		return nil, fmt.Errorf("sbatch: error: Batch job submission failed")
	}

	_, err := c.Submit("train.sbatch", nil)
	require.Error(t, err)
}

func TestDependencyAfterOK(t *testing.T) {
	assert.Equal(t, "afterok:5", DependencyAfterOK([]int{5}))
	assert.Equal(t, "afterok:5:8:13", DependencyAfterOK([]int{5, 8, 13}))
}

func TestParseQueueOutput(t *testing.T) {
	out := "123456_0|heat-train|RUNNING|None|1:23|gpu\n" +
		"123456_1|heat-train|PENDING|Resources|0:00|gpu\n" +
		"garbage-line\n" +
		"\n"

	entries := ParseQueueOutput(out)
	require.Len(t, entries, 2)

	assert.Equal(t, "123456_0", entries[0].JobId)
	assert.Equal(t, "heat-train", entries[0].Name)
	assert.Equal(t, "RUNNING", entries[0].State)
	assert.Equal(t, "gpu", entries[0].Partition)

	assert.Equal(t, "123456_1", entries[1].JobId)
	assert.Equal(t, "PENDING", entries[1].State)
	assert.Equal(t, "Resources", entries[1].Reason)
}

func TestCancel(t *testing.T) {
	var gotName string
	var gotArgs []string

	c := NewClient(types.SlurmConfig{})
	c.run = func(name string, args ...string) ([]byte, error) {
		gotName = name
		gotArgs = args
		return nil, nil
	}

	require.NoError(t, c.Cancel([]int{100, 200}))
	assert.Equal(t, "scancel", gotName)
	assert.Equal(t, []string{"100", "200"}, gotArgs)
}
