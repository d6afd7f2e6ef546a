package cmd

import (
	"fmt"

	"github.com/CJiaLin/heat/internal/config"
	"github.com/CJiaLin/heat/internal/log"
	"github.com/CJiaLin/heat/internal/paths"
	"github.com/CJiaLin/heat/internal/slurm"
	"github.com/CJiaLin/heat/internal/utils"
	"github.com/CJiaLin/heat/types"
	"github.com/spf13/cobra"
)

var statusQueue bool
var statusJSON bool

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVar(&statusQueue, "queue", false, "Also show the live SLURM queue for the current user")
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Return structured JSON output")
}

type stageStatusView struct {
	Stage   string `json:"stage"`
	Kind    string `json:"kind"`
	Tasks   int    `json:"tasks"`
	Done    int    `json:"done"`
	Pending int    `json:"pending"`
	// Tracked is false for kinds without a per-task output artifact.
	Tracked bool `json:"tracked"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report sweep progress from output artifacts",
	Long: `Status walks every (stage, task index) combination, resolves the output
artifact that task would produce, and counts how many already exist on disk.
This works for any run mode: local, detached, or SLURM, because progress is
read from the filesystem rather than from a job tracker.

Evaluation stages append to a shared results file instead of producing
per-task artifacts, so their per-task progress is not tracked here.

With --queue, status additionally asks squeue for the current user's pending
and running jobs.`,
	Run: func(cmd *cobra.Command, args []string) {
		outputStyle := types.StyleHuman
		if Verbose {
			outputStyle = types.StyleHumanVerbose
		}
		if statusJSON {
			outputStyle = types.StyleMachineJSON
		}
		logger := log.NewLogger(outputStyle)

		registry := GetDependencies().Registry

		cfg, configDir, err := config.LoadSweepConfig(cfgFile)
		if err != nil {
			cobra.CheckErr(fmt.Errorf("failed to load %q: %w", cfgFile, err))
		}
		if err := config.ValidateSweepConfig(cfg, registry); err != nil {
			cobra.CheckErr(fmt.Errorf("failed to validate %q: %w", cfgFile, err))
		}

		layout := paths.NewLayout(cfg)

		var views []stageStatusView
		for _, stage := range cfg.Stages {
			handler := registry.MustGet(stage.Kind)

			g, err := config.StageGrid(stage)
			cobra.CheckErr(err)

			view := stageStatusView{
				Stage: stage.Name,
				Kind:  stage.Kind,
				Tasks: g.Size(),
			}

			for index := 0; index < g.Size(); index++ {
				point, err := g.Decode(index)
				cobra.CheckErr(err)

				binding, err := paths.Bind(point)
				cobra.CheckErr(err)

				artifact := handler.SkipArtifact(layout, binding)
				if artifact == "" {
					continue
				}

				view.Tracked = true
				if utils.FileExists(paths.Anchor(configDir, artifact)) {
					view.Done++
				} else {
					view.Pending++
				}
			}

			views = append(views, view)
		}

		var queue []slurm.QueueEntry
		if statusQueue {
			client := slurm.NewClient(cfg.Slurm)
			queue, err = client.Queue()
			if err != nil {
				cobra.CheckErr(fmt.Errorf("failed to query squeue: %w", err))
			}
		}

		if statusJSON {
			out := map[string]any{
				"project": cfg.Project,
				"stages":  views,
			}
			if statusQueue {
				out["queue"] = queue
			}
			logger.Json(out)
			return
		}

		logger.Info("Sweep status for project %q:", cfg.Project)
		for _, view := range views {
			if view.Tracked {
				logger.Info("  %s [%s]: %d/%d done, %d pending", view.Stage, view.Kind, view.Done, view.Tasks, view.Pending)
			} else {
				logger.Info("  %s [%s]: %d tasks (progress not tracked, results accumulate in a shared file)", view.Stage, view.Kind, view.Tasks)
			}
		}

		if statusQueue {
			if len(queue) == 0 {
				logger.Info("Queue: no jobs for the current user.")
				return
			}
			logger.Info("Queue:")
			for _, entry := range queue {
				logger.Info("  %-14s %-24s %-10s %-8s %s", entry.JobId, entry.Name, entry.State, entry.TimeUsed, entry.Partition)
			}
		}
	},
}
