package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lorenzo-villa-hub/sbatcher/internal/config"
	"github.com/lorenzo-villa-hub/sbatcher/internal/jobscript"
	"github.com/lorenzo-villa-hub/sbatcher/internal/utils"
)

var renderOutput string

var renderCmd = &cobra.Command{
	Use:   "render <job-file>",
	Short: "Render a batch job script from a job definition",
	Long: `Render a SLURM batch script from a YAML job definition.

Unset fields fall back to the site defaults from the sbatcher config file.
The rendered script is written next to the job file unless -o is given;
use "-o -" to print to stdout.`,
	Example: `  sbatcher render relax.yaml              # Write relax.sh
  sbatcher render relax.yaml -o job.sh   # Explicit output path
  sbatcher render relax.yaml -o -        # Print to stdout`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "Output script path ('-' for stdout)")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	script, jobName, err := renderFromJobFile(args[0])
	if err != nil {
		return err
	}

	if renderOutput == "-" {
		fmt.Print(script)
		return nil
	}

	path := renderOutput
	if path == "" {
		path = jobName + ".sh"
	}
	if err := utils.WriteExecutable(path, script); err != nil {
		return fmt.Errorf("failed to write script: %w", err)
	}
	utils.PrintSuccess("Rendered job script: %s", utils.StylePath(path))
	return nil
}

// renderFromJobFile loads a job definition, merges site defaults and renders
// the script. Returns the script text and the job name for naming output.
func renderFromJobFile(jobFilePath string) (script string, jobName string, err error) {
	jf, err := config.LoadJobFile(jobFilePath)
	if err != nil {
		return "", "", err
	}

	spec, err := jf.ToSpec(config.Global.Defaults)
	if err != nil {
		return "", "", err
	}

	script, err = spec.Render()
	if err != nil {
		if jobscript.IsConfigurationError(err) {
			utils.PrintHint("Set the missing field in %s or in the site config", jobFilePath)
		}
		return "", "", err
	}
	return script, spec.JobName, nil
}
