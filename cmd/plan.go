package cmd

import (
	"fmt"
	"strings"

	"github.com/CJiaLin/heat/internal/config"
	"github.com/CJiaLin/heat/internal/log"
	"github.com/CJiaLin/heat/internal/paths"
	"github.com/CJiaLin/heat/types"
	"github.com/spf13/cobra"
)

var planStage string
var planIndex int
var planJSON bool

func init() {
	rootCmd.AddCommand(planCmd)

	planCmd.Flags().StringVar(&planStage, "stage", "", "Show the plan for a single stage")
	planCmd.Flags().IntVar(&planIndex, "index", -1, "Decode a single task index (requires --stage)")
	planCmd.Flags().BoolVar(&planJSON, "json", false, "Return structured JSON output")
}

type planStageView struct {
	Stage string         `json:"stage"`
	Kind  string         `json:"kind"`
	Needs []string       `json:"needs,omitempty"`
	Axes  []planAxisView `json:"axes"`
	Tasks int            `json:"tasks"`
}

type planAxisView struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

type planTaskView struct {
	Stage     string          `json:"stage"`
	Kind      string          `json:"kind"`
	TaskIndex int             `json:"task_index"`
	Params    paths.Binding   `json:"params"`
	Paths     paths.TaskPaths `json:"paths"`
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Print the resolved sweep without executing anything",
	Long: `Plan resolves the heat.yml sweep into concrete numbers: each stage's axes,
grid size, and the total task count across all stages.

With --stage and --index, plan decodes one task index into its full parameter
tuple and the paths that task would read and write. This is the same decoding
a SLURM array element performs, so plan answers "what will array index N do?"
before anything is submitted.`,
	Run: func(cmd *cobra.Command, args []string) {
		outputStyle := types.StyleHuman
		if Verbose {
			outputStyle = types.StyleHumanVerbose
		}
		if planJSON {
			outputStyle = types.StyleMachineJSON
		}
		logger := log.NewLogger(outputStyle)

		registry := GetDependencies().Registry

		cfg, _, err := config.LoadSweepConfig(cfgFile)
		if err != nil {
			cobra.CheckErr(fmt.Errorf("failed to load %q: %w", cfgFile, err))
		}
		if err := config.ValidateSweepConfig(cfg, registry); err != nil {
			cobra.CheckErr(fmt.Errorf("failed to validate %q: %w", cfgFile, err))
		}

		if planIndex >= 0 && planStage == "" {
			cobra.CheckErr(fmt.Errorf("--index requires --stage"))
		}

		// Single-task decode mode
		if planStage != "" && planIndex >= 0 {
			stage := findStage(cfg, planStage)
			if stage == nil {
				cobra.CheckErr(fmt.Errorf("stage %q not found in %s", planStage, cfgFile))
			}

			g, err := config.StageGrid(stage)
			cobra.CheckErr(err)

			point, err := g.Decode(planIndex)
			if err != nil {
				cobra.CheckErr(fmt.Errorf("stage %q: %w", stage.Name, err))
			}

			binding, err := paths.Bind(point)
			cobra.CheckErr(err)

			layout := paths.NewLayout(cfg)
			view := planTaskView{
				Stage:     stage.Name,
				Kind:      stage.Kind,
				TaskIndex: planIndex,
				Params:    binding,
				Paths:     layout.Resolve(binding),
			}

			if planJSON {
				logger.Json(view)
				return
			}

			logger.Info("Stage %q task %d of %d (%s):", stage.Name, planIndex, g.Size(), stage.Kind)
			logger.Info("  dataset=%s experiment=%s alpha=%s seed=%d dim=%d",
				binding.Dataset, binding.Experiment, paths.FormatAlpha(binding.Alpha), binding.Seed, binding.Dim)
			logger.Info("  edgelist:      %s", view.Paths.Edgelist)
			logger.Info("  embedding dir: %s", view.Paths.EmbeddingDir)
			logger.Info("  walks dir:     %s", view.Paths.WalksDir)
			logger.Info("  results dir:   %s", view.Paths.ResultsDir)
			return
		}

		// Whole-sweep overview
		var views []planStageView
		total := 0
		for _, stage := range cfg.Stages {
			if planStage != "" && stage.Name != planStage {
				continue
			}

			g, err := config.StageGrid(stage)
			cobra.CheckErr(err)

			view := planStageView{
				Stage: stage.Name,
				Kind:  stage.Kind,
				Needs: stage.Needs,
				Tasks: g.Size(),
			}
			for _, axis := range g.Axes() {
				view.Axes = append(view.Axes, planAxisView{Name: axis.Name, Values: axis.Values})
			}
			views = append(views, view)
			total += g.Size()
		}

		if planStage != "" && len(views) == 0 {
			cobra.CheckErr(fmt.Errorf("stage %q not found in %s", planStage, cfgFile))
		}

		if planJSON {
			logger.Json(map[string]any{
				"project":     cfg.Project,
				"stages":      views,
				"total_tasks": total,
			})
			return
		}

		logger.Info("Sweep plan for project %q:", cfg.Project)
		for _, view := range views {
			needs := ""
			if len(view.Needs) > 0 {
				needs = " (needs: " + strings.Join(view.Needs, ", ") + ")"
			}
			logger.Info("  %s [%s]%s: %d tasks", view.Stage, view.Kind, needs, view.Tasks)
			for _, axis := range view.Axes {
				logger.Verbose("    %s: %d values", axis.Name, len(axis.Values))
			}
		}
		logger.Info("Total: %d tasks across %d stage(s)", total, len(views))
	},
}

func findStage(cfg *types.SweepConfig, name string) *types.Stage {
	for _, stage := range cfg.Stages {
		if stage.Name == name {
			return stage
		}
	}
	return nil
}
