package cmd

import (
	"fmt"
	"strconv"

	"github.com/CJiaLin/heat/internal/config"
	"github.com/CJiaLin/heat/internal/log"
	"github.com/CJiaLin/heat/internal/slurm"
	"github.com/CJiaLin/heat/types"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(cancelCmd)
}

var cancelCmd = &cobra.Command{
	Use:   "cancel <job-id>...",
	Short: "Cancel submitted SLURM jobs",
	Long: `Cancel asks the scheduler to kill the given SLURM job ids via scancel.
Job ids are printed by 'heat submit' and recorded in the submission.json of
the run directory. Cancelling a job cancels all of its array elements.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		outputStyle := types.StyleHuman
		if Verbose {
			outputStyle = types.StyleHumanVerbose
		}
		logger := log.NewLogger(outputStyle)

		jobIds := make([]int, 0, len(args))
		for _, arg := range args {
			id, err := strconv.Atoi(arg)
			if err != nil {
				cobra.CheckErr(fmt.Errorf("invalid job id %q", arg))
			}
			jobIds = append(jobIds, id)
		}

		// The config is only needed for the scancel path; a missing heat.yml
		// still allows cancelling with the default tool.
		slurmCfg := types.SlurmConfig{}
		if cfg, _, err := config.LoadSweepConfig(cfgFile); err == nil {
			slurmCfg = cfg.Slurm
		}

		client := slurm.NewClient(slurmCfg)
		if err := client.Cancel(jobIds); err != nil {
			cobra.CheckErr(fmt.Errorf("failed to cancel jobs: %w", err))
		}

		logger.Info("✓ Cancel request sent for %d job(s).", len(jobIds))
	},
}
