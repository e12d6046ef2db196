package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lorenzo-villa-hub/sbatcher/internal/config"
	"github.com/lorenzo-villa-hub/sbatcher/internal/jobscript"
	"github.com/lorenzo-villa-hub/sbatcher/internal/scheduler"
	"github.com/lorenzo-villa-hub/sbatcher/internal/utils"
)

var submitScript string

var submitCmd = &cobra.Command{
	Use:   "submit <job-file>",
	Short: "Render a job script and hand it to sbatch",
	Long: `Render a SLURM batch script from a YAML job definition and submit it.

With --local (or submit_job: false in the config) the script is written but
not submitted. An existing script can be submitted directly with --script.`,
	Example: `  sbatcher submit relax.yaml            # Render and submit
  sbatcher submit relax.yaml --local   # Render only
  sbatcher submit --script job.sh      # Submit an existing script`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSubmit,
}

func init() {
	submitCmd.Flags().StringVar(&submitScript, "script", "", "Submit an existing script instead of rendering")
	rootCmd.AddCommand(submitCmd)
}

func runSubmit(cmd *cobra.Command, args []string) error {
	scriptPath := submitScript
	hasArray := false

	if scriptPath == "" {
		if len(args) != 1 {
			return fmt.Errorf("a job file is required unless --script is given")
		}
		script, jobName, err := renderFromJobFile(args[0])
		if err != nil {
			return err
		}
		scriptPath = jobName + ".sh"
		if err := utils.WriteExecutable(scriptPath, script); err != nil {
			return fmt.Errorf("failed to write script: %w", err)
		}
		utils.PrintMessage("Rendered job script: %s", utils.StylePath(scriptPath))
		hasArray = strings.Contains(script, "#SBATCH --array=")
	} else if spec, err := jobscript.ParseFile(scriptPath); err == nil {
		hasArray = spec.Array != nil
	}

	if !config.Global.SubmitJob {
		utils.PrintMessage("Job submission disabled; script left at %s", utils.StylePath(scriptPath))
		return nil
	}

	sched := scheduler.ActiveScheduler()
	if sched == nil {
		if scheduler.IsInsideJob() {
			return scheduler.ErrAlreadyInJob
		}
		return scheduler.ErrSchedulerNotAvailable
	}

	if hasArray && !sched.SupportsArrays() {
		return scheduler.ErrArraysUnsupported
	}

	jobID, err := sched.Submit(scriptPath)
	if err != nil {
		return err
	}

	utils.PrintSuccess("Submitted batch job %s", utils.StyleNumber(jobID))
	return nil
}
