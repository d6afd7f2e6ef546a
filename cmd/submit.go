package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/CJiaLin/heat/internal/batch"
	"github.com/CJiaLin/heat/internal/config"
	"github.com/CJiaLin/heat/internal/log"
	"github.com/CJiaLin/heat/internal/logging"
	"github.com/CJiaLin/heat/internal/models"
	"github.com/CJiaLin/heat/internal/resolver"
	"github.com/CJiaLin/heat/internal/slurm"
	"github.com/CJiaLin/heat/types"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var submitOnly []string
var submitJSON bool

func init() {
	rootCmd.AddCommand(submitCmd)

	submitCmd.Flags().StringSliceVar(&submitOnly, "only", nil, "Submit only specified stage(s)")
	submitCmd.Flags().BoolVar(&submitJSON, "json", false, "Return structured JSON data about the submission")
}

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Render sbatch scripts and submit the sweep to SLURM",
	Long: `Submit hands the whole sweep to SLURM: one job array per stage, chained so
that a stage's array only starts after every stage it needs finished
successfully (sbatch --dependency=afterok).

Scripts are rendered into a timestamped run directory under '.heat/logs/'
along with a submission.json recording each stage's SLURM job id. SLURM owns
execution from here; use 'heat status --queue' to watch progress and
'heat cancel' to withdraw jobs.`,
	Run: func(cmd *cobra.Command, args []string) {
		outputStyle := types.StyleHuman
		if Verbose {
			outputStyle = types.StyleHumanVerbose
		}
		if submitJSON {
			outputStyle = types.StyleMachineJSON
		}
		logger := log.NewLogger(outputStyle)

		registry := GetDependencies().Registry

		// --- Load and validate heat.yml ---

		cfg, _, err := config.LoadSweepConfig(cfgFile)
		if err != nil {
			cobra.CheckErr(fmt.Errorf("failed to load %q: %w", cfgFile, err))
		}
		if err := config.ValidateSweepConfig(cfg, registry); err != nil {
			cobra.CheckErr(fmt.Errorf("failed to validate %q: %w", cfgFile, err))
		}
		logger.Info("✓ Configuration %q loaded and validated.", cfgFile)

		graph, err := config.BuildStageGraph(cfg)
		cobra.CheckErr(err)
		ordered, err := config.TopoSort(cfg, graph)
		cobra.CheckErr(err)

		// --- Prepare the run directory ---

		runId := uuid.New()
		startTime := time.Now()

		logDir, err := logging.CreateRunDir(runId, startTime, "submit")
		if err != nil {
			cobra.CheckErr(fmt.Errorf("failed to create run directory for %s: %w", runId.String(), err))
		}
		absLogDir, err := filepath.Abs(logDir)
		cobra.CheckErr(err)

		absConfigPath, err := filepath.Abs(cfgFile)
		cobra.CheckErr(err)

		heatCmd, err := os.Executable()
		if err != nil {
			heatCmd = "heat"
		}

		// --- Render per-stage scripts into the run directory ---

		scriptsDir := filepath.Join(absLogDir, "scripts")
		slurmLogDir := filepath.Join(absLogDir, "slurm")

		scripts, err := batch.WriteStageScripts(cfg, absConfigPath, scriptsDir, slurmLogDir, heatCmd)
		cobra.CheckErr(err)
		logger.Verbose("Rendered %d stage script(s) into %s", len(scripts), scriptsDir)

		// --- Submit in dependency order, chaining afterok ---

		client := slurm.NewClient(cfg.Slurm)
		jobIds := map[string]int{}
		totalTasks := 0

		record := models.SubmissionRecord{
			RunId:        runId,
			SubmitTime:   startTime.Format(time.RFC3339),
			Project:      cfg.Project,
			Initiator:    submitInitiator(),
			ConfigPath:   absConfigPath,
			ScriptsDir:   scriptsDir,
			TotalStages:  0,
			SlurmAccount: cfg.Slurm.Account,
		}

		for _, stage := range ordered {
			if skipStage(stage, submitOnly) {
				logger.Verbose("Skipping stage %q (not in --only)", stage.Name)
				continue
			}

			g, err := config.StageGrid(stage)
			cobra.CheckErr(err)

			var deps []int
			for _, need := range stage.Needs {
				if id, ok := jobIds[need]; ok {
					deps = append(deps, id)
				}
			}

			logger.StartSpinner(fmt.Sprintf("Submitting stage %q (%d tasks) ...", stage.Name, g.Size()))
			jobId, err := client.Submit(scripts[stage.Name], deps)
			logger.StopSpinner()
			if err != nil {
				cobra.CheckErr(fmt.Errorf("failed to submit stage %q: %w", stage.Name, err))
			}

			jobIds[stage.Name] = jobId
			totalTasks += g.Size()
			record.Submissions = append(record.Submissions, models.StageSubmission{
				Stage:        stage.Name,
				Kind:         stage.Kind,
				JobId:        jobId,
				ArraySize:    g.Size(),
				Script:       scripts[stage.Name],
				Dependencies: deps,
			})

			if len(deps) > 0 {
				logger.Info("✓ Stage %q submitted as job %d (afterok %v)", stage.Name, jobId, deps)
			} else {
				logger.Info("✓ Stage %q submitted as job %d", stage.Name, jobId)
			}
			logger.Verbose("  time=%s mem=%s ntasks=%d",
				resolver.ResolveSlurmTime(stage, cfg),
				resolver.ResolveSlurmMem(stage, cfg),
				resolver.ResolveSlurmNTasks(stage, cfg))
		}

		record.TotalTasks = totalTasks
		record.TotalStages = len(record.Submissions)

		if err := logging.SaveSubmissionRecord(logDir, record); err != nil {
			logger.Error("Failed to write submission record: %v", err)
		}

		if submitJSON {
			logger.Json(record)
			return
		}

		logger.Info("✓ Sweep submitted: %d stage(s), %d task(s).", record.TotalStages, record.TotalTasks)
		logger.Info("  Submission record: %s", filepath.Join(logDir, "submission.json"))
		logger.Info("  Use 'heat status --queue' to check progress.")
	},
}

func submitInitiator() types.Initiator {
	host, _ := os.Hostname()
	return types.Initiator{
		Type:   "user",
		Id:     os.Getenv("USER"),
		Tenant: host,
	}
}

func skipStage(stage *types.Stage, only []string) bool {
	if len(only) == 0 {
		return false
	}
	for _, name := range only {
		if name == stage.Name {
			return false
		}
	}
	return true
}
