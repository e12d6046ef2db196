package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lorenzo-villa-hub/sbatcher/internal/config"
	"github.com/lorenzo-villa-hub/sbatcher/internal/scheduler"
	"github.com/lorenzo-villa-hub/sbatcher/internal/utils"
)

var (
	debugMode bool
	localMode bool
)

var rootCmd = &cobra.Command{
	Use:           "sbatcher",
	Short:         "sbatcher: render, inspect and submit SLURM job scripts for restart-aware simulation workflows.",
	Version:       config.VERSION,
	SilenceErrors: true,

	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Step 1: Load built-in defaults
		config.LoadDefaults()

		// Step 2: Initialize Viper (read config file, env vars)
		if err := config.InitViper(); err != nil {
			utils.PrintDebug("Error reading config file: %v", err)
		}

		// Step 3: Auto-detect scheduler binary if needed and save to config
		updated, err := config.AutoDetectAndSave()
		if err != nil {
			utils.PrintDebug("Failed to save config: %v", err)
		} else if updated {
			if configPath, err := config.GetUserConfigPath(); err == nil {
				utils.PrintDebug("Auto-detected scheduler saved to: %s", configPath)
			}
		}

		// Step 4: Load detected values from Viper into Global config
		config.LoadFromViper()

		// Step 5: Apply command-line flags (highest priority)
		if debugMode {
			utils.DebugMode = true
			config.Global.Debug = true
			utils.PrintDebug("Debug mode enabled")
			utils.PrintDebug("sbatcher Version: %s", utils.StyleInfo(config.VERSION))
			if config.Global.SchedulerBin != "" {
				utils.PrintDebug("Scheduler Binary: %s", config.Global.SchedulerBin)
			}
		}

		if localMode {
			config.Global.SubmitJob = false
			utils.PrintDebug("Local mode enabled (job submission disabled)")
		}

		// Step 6: Initialize scheduler if job submission is enabled
		if config.Global.SubmitJob && config.Global.SchedulerBin != "" {
			sched, err := scheduler.NewSlurmSchedulerWithBinary(config.Global.SchedulerBin)
			if err == nil && sched.IsAvailable() {
				scheduler.SetActiveScheduler(sched)
				utils.PrintDebug("Scheduler initialized and available")
			} else {
				if err != nil {
					utils.PrintDebug("Scheduler not available: %v", err)
				} else {
					utils.PrintDebug("Scheduler not available (already in a job)")
				}
			}
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Subcommands are attached to rootCmd in their respective init() functions
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug mode with verbose output")
	rootCmd.PersistentFlags().BoolVar(&localMode, "local", false, "Disable job submission (render only)")
}
