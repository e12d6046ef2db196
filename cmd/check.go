package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lorenzo-villa-hub/sbatcher/internal/convergence"
	"github.com/lorenzo-villa-hub/sbatcher/internal/scheduler"
	"github.com/lorenzo-villa-hub/sbatcher/internal/utils"
)

var checkCancel bool

var checkCmd = &cobra.Command{
	Use:   "check [report-file]",
	Short: "Evaluate a convergence report",
	Long: `Scan a convergence report for the electronic and ionic markers.

Exits 0 when both markers are present, 1 otherwise. This is the same predicate a
rendered script greps at run time. With --cancel-array and both markers
present, the sibling tasks of the current array job are cancelled.`,
	Example: `  sbatcher check                      # Read convergence.txt
  sbatcher check run3/report.txt     # Explicit report path
  sbatcher check --cancel-array      # Cancel siblings on convergence`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&checkCancel, "cancel-array", false, "Cancel sibling array tasks when converged")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	reportPath := convergence.DefaultReportFile
	if len(args) == 1 {
		reportPath = args[0]
	}

	status, err := convergence.ReadReport(reportPath)
	if err != nil {
		return fmt.Errorf("cannot read report %s: %w", reportPath, err)
	}

	printMarker := func(label string, ok bool) {
		if ok {
			fmt.Printf("  %-12s %s\n", label+":", utils.StyleSuccess("converged"))
		} else {
			fmt.Printf("  %-12s %s\n", label+":", utils.StyleWarning("not converged"))
		}
	}

	fmt.Printf("Report: %s\n", utils.StylePath(reportPath))
	printMarker("Electronic", status.Electronic)
	printMarker("Ionic", status.Ionic)

	if !status.Converged() {
		os.Exit(1)
	}
	utils.PrintSuccess("Both markers present")

	if checkCancel {
		return cancelSiblings()
	}
	return nil
}

// cancelSiblings cancels the remaining tasks of the surrounding array job.
// Only meaningful inside an array element; a plain shell gets an error.
func cancelSiblings() error {
	arrayID := scheduler.ArrayJobID()
	if arrayID == "" {
		return fmt.Errorf("not inside an array job (SLURM_ARRAY_JOB_ID unset)")
	}

	sched, err := scheduler.NewSlurmScheduler()
	if err != nil {
		return err
	}
	if err := sched.CancelArraySiblings(arrayID); err != nil {
		return err
	}
	utils.PrintMessage("Cancelled remaining tasks of array job %s", utils.StyleNumber(arrayID))
	return nil
}
