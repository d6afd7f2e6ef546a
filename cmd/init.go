package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/CJiaLin/heat/internal/templates"
	"github.com/CJiaLin/heat/internal/utils"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(initCmd)
}

// TODO
// --no-tui for headless scripting

var initCmd = &cobra.Command{
	Use:   "init [workspace-name]",
	Args:  cobra.MaximumNArgs(1),
	Short: "Scaffold a new Heat sweep workspace",
	Long: `Initialize a new Heat workspace by scaffolding the required structure:
  - A starter heat.yml sweep configuration file
  - A datasets/ directory for edgelists, features, and labels
  - A scripts/ directory for the training and evaluation programs
  - A .heat/ directory for logs and rendered batch scripts

This command can be used non-interactively with an optional [workspace-name],
or it will launch an interactive prompt to collect your project name, python
interpreter, and data directory.

Use init to start a sweep from a clean layout, then edit heat.yml to declare
your stages and axes.`,
	Run: func(cmd *cobra.Command, args []string) {
		var project, python, dataDir, workspaceName string
		var canceled bool

		if len(args) > 0 {
			project, python, dataDir, workspaceName, canceled = RunInitTUI(args[0])
		} else {
			project, python, dataDir, workspaceName, canceled = RunInitTUI("")
		}

		if canceled {
			fmt.Println("✖ Heat init canceled.")
			return
		}

		targetDir := workspaceName

		// If current directory (default) selected, use cwd name as project fallback
		if project == "" {
			if targetDir == "." {
				cwd, _ := os.Getwd()
				project = filepath.Base(cwd)
			} else {
				project = workspaceName
			}
		}

		// If we are making a new subdirectory, ensure it doesn't already exist
		if targetDir != "." {
			utils.MustNotExist(targetDir)
			err := os.MkdirAll(targetDir, 0755)
			cobra.CheckErr(err)
		}

		fmt.Printf("↪ scaffolding new workspace %q ...\n", project)

		// Ensure .heat or data directories do not exist
		utils.MustNotExist(filepath.Join(targetDir, ".heat"))
		utils.MustNotExist(filepath.Join(targetDir, "heat.yml"))

		// Create directory structure
		utils.MkDir(targetDir, dataDir)
		utils.MkDir(targetDir, "scripts")
		utils.MkDir(targetDir, "output")
		utils.MkDir(targetDir, ".heat")
		utils.MkDir(targetDir, ".heat", "batch")
		utils.MkDir(targetDir, ".heat", "logs")

		// Copy each template to destination with template data
		data := map[string]string{
			"Project": project,
			"Python":  python,
			"DataDir": dataDir,
		}

		files := map[string]string{
			"files/heat.yml.tmpl": "heat.yml",
		}

		for tplPath, outName := range files {
			outPath := filepath.Join(targetDir, outName)
			err := templates.WriteTpl(tplPath, outPath, data)
			cobra.CheckErr(err)
		}

		fmt.Printf("✓ workspace %q initialized!\n", project)
	},
}
