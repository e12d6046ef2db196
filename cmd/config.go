package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lorenzo-villa-hub/sbatcher/internal/config"
	"github.com/lorenzo-villa-hub/sbatcher/internal/utils"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or initialize the sbatcher configuration",
	Example: `  sbatcher config           # Show effective configuration
  sbatcher config init     # Write the config file with current values`,
	Run: runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the effective configuration to the user config file",
	RunE:  runConfigInit,
}

func init() {
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) {
	d := config.Global.Defaults

	fmt.Println(utils.StyleTitle("sbatcher configuration"))
	if path, err := config.GetUserConfigPath(); err == nil {
		fmt.Printf("  %-18s %s\n", "Config file:", utils.StylePath(path))
	}
	fmt.Printf("  %-18s %v\n", "Submit jobs:", config.Global.SubmitJob)
	if config.Global.SchedulerBin != "" {
		fmt.Printf("  %-18s %s\n", "Scheduler:", utils.StylePath(config.Global.SchedulerBin))
	}

	fmt.Println(utils.StyleTitle("Job defaults"))
	row := func(label, value string) {
		if value != "" {
			fmt.Printf("  %-18s %s\n", label+":", value)
		}
	}
	row("Account", d.Account)
	row("Mail user", d.MailUser)
	row("Mail events", strings.Join(d.MailEvents, ","))
	row("Nodes", fmt.Sprintf("%d", d.Nodes))
	row("Tasks/node", fmt.Sprintf("%d", d.TasksPerNode))
	row("CPUs/task", fmt.Sprintf("%d", d.CpusPerTask))
	row("Time", d.Walltime)
	if d.MemPerCpuMB > 0 {
		row("Mem/CPU", fmt.Sprintf("%d MB", d.MemPerCpuMB))
	}
	row("Output", d.Output)
	row("Error", d.Error)
	row("Launcher", d.Launcher)
	row("Executable", d.Executable)
	row("Automation", d.AutomationCmd)
	row("Report file", d.ReportFile)
	if len(d.Modules) > 0 {
		row("Modules", strings.Join(d.Modules, ", "))
	}
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	if err := config.SaveConfig(); err != nil {
		return err
	}
	configPath, err := config.GetUserConfigPath()
	if err != nil {
		return err
	}
	utils.PrintSuccess("Wrote configuration to %s", utils.StylePath(configPath))
	if viper.GetString("scheduler_bin") == "" {
		utils.PrintHint("No scheduler binary detected; set scheduler_bin manually if sbatch lives outside PATH")
	}
	return nil
}
