package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lorenzo-villa-hub/sbatcher/internal/jobscript"
	"github.com/lorenzo-villa-hub/sbatcher/internal/utils"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <script>",
	Short: "Show the settings recovered from an existing job script",
	Long: `Parse an existing batch script and display its directives, modules,
staging rules and convergence gate as sbatcher understands them.`,
	Example: `  sbatcher inspect job_vasp.sh`,
	Args:    cobra.ExactArgs(1),
	RunE:    runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	spec, err := jobscript.ParseFile(args[0])
	if err != nil {
		return err
	}

	row := func(label, value string) {
		if value != "" {
			fmt.Printf("  %-16s %s\n", label+":", value)
		}
	}

	fmt.Println(utils.StyleTitle("Job settings"))
	row("Account", spec.Account)
	row("Job name", utils.StyleName(spec.JobName))
	if spec.Array != nil {
		row("Array", spec.Array.String())
	}
	row("Mail user", spec.MailUser)
	row("Mail events", strings.Join(spec.MailEvents, ","))
	row("Nodes", fmt.Sprintf("%d", spec.Nodes))
	row("Tasks/node", fmt.Sprintf("%d", spec.TasksPerNode))
	row("CPUs/task", fmt.Sprintf("%d", spec.CpusPerTask))
	row("Output", spec.Output)
	row("Error", spec.Error)
	row("Time", spec.Walltime)
	if spec.Exclusive {
		row("Exclusive", "yes")
	}
	if spec.MemPerCpuMB > 0 {
		row("Mem/CPU", fmt.Sprintf("%d MB", spec.MemPerCpuMB))
	}
	row("Launcher", spec.Launcher)
	row("Executable", utils.StylePath(spec.Executable))

	if len(spec.Modules) > 0 {
		fmt.Println(utils.StyleTitle("Modules"))
		for _, m := range spec.Modules {
			fmt.Printf("  %s\n", m)
		}
	}

	if len(spec.Staging) > 0 {
		fmt.Println(utils.StyleTitle("Staging"))
		for _, r := range spec.Staging {
			fmt.Printf("  %-22s %s -> %s\n", string(r.Kind), r.Source, r.Target)
		}
	}

	if spec.Gate != nil {
		fmt.Println(utils.StyleTitle("Convergence gate"))
		row("Report", spec.Gate.ReportFile)
		row("Automation", utils.StyleCommand(spec.Gate.AutomationCmd))
		if spec.Gate.CancelSiblings {
			row("On success", "cancel sibling array tasks")
		}
	}

	if len(spec.ExtraDirectives) > 0 {
		fmt.Println(utils.StyleTitle("Passthrough directives"))
		for _, d := range spec.ExtraDirectives {
			fmt.Printf("  #SBATCH %s\n", d)
		}
	}

	return nil
}
