package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lorenzo-villa-hub/sbatcher/internal/config"
	"github.com/lorenzo-villa-hub/sbatcher/internal/scheduler"
	"github.com/lorenzo-villa-hub/sbatcher/internal/utils"
)

var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Display scheduler information",
	Long: `Display information about the detected job scheduler.

Shows the sbatch binary path, version, job-array support and availability.`,
	Example: `  sbatcher scheduler`,
	Run:     runScheduler,
}

func init() {
	rootCmd.AddCommand(schedulerCmd)
}

func runScheduler(cmd *cobra.Command, args []string) {
	sched, err := scheduler.NewSlurmSchedulerWithBinary(config.Global.SchedulerBin)
	if err != nil {
		// If we're inside a scheduled job, show a concise message and exit
		if scheduler.IsInsideJob() {
			utils.PrintMessage("Scheduler Status: %s", utils.StyleWarning("Unavailable (inside job)"))
			utils.PrintMessage("")
			utils.PrintMessage("You are currently inside a scheduled job; job submission is disabled to prevent nested submissions.")
			return
		}

		// No scheduler found
		utils.PrintMessage("Scheduler Status: %s", utils.StyleError("Not Found"))
		utils.PrintMessage("")
		utils.PrintMessage("No job scheduler detected on this system.")
		utils.PrintMessage("Supported schedulers: SLURM")
		return
	}

	info := sched.GetInfo()

	// Display scheduler information (no [SBT] prefix for structured output)
	fmt.Println("Scheduler Information:")
	fmt.Printf("  Type:      %s\n", utils.StyleInfo(info.Type))
	fmt.Printf("  Binary:    %s\n", utils.StylePath(info.Binary))

	if info.Version != "" {
		fmt.Printf("  Version:   %s\n", utils.StyleNumber(info.Version))
	}
	if sched.SupportsArrays() {
		fmt.Printf("  Arrays:    %s\n", utils.StyleSuccess("supported"))
	} else {
		fmt.Printf("  Arrays:    %s\n", utils.StyleWarning("unsupported"))
	}

	if info.InJob {
		fmt.Printf("  Status:    %s (inside job)\n", utils.StyleError("Unavailable"))
		fmt.Println()
		fmt.Println("You are currently inside a scheduled job (detected via environment).")
		fmt.Println("Job submission is disabled to prevent nested job submissions.")
		return
	}
	if info.Available {
		fmt.Printf("  Status:    %s\n", utils.StyleSuccess("Available"))
	}
}
