package config

import (
	"github.com/spf13/viper"
)

const VERSION = "0.3.1"

// JobDefaults holds site-wide defaults merged under every job file.
// Explicit job-file values always win.
type JobDefaults struct {
	Account       string
	MailUser      string
	MailEvents    []string
	Nodes         int
	TasksPerNode  int
	CpusPerTask   int
	Walltime      string
	MemPerCpuMB   int
	Output        string
	Error         string
	Exclusive     bool
	Modules       []string
	Launcher      string
	Executable    string
	AutomationCmd string
	ReportFile    string
}

// Config holds global application settings
type Config struct {
	Debug        bool
	SubmitJob    bool
	Version      string
	SchedulerBin string
	Defaults     JobDefaults
}

// Global holds the singleton configuration instance
var Global Config

// LoadDefaults resets Global to built-in values. Viper and command-line
// flags layer on top afterwards.
func LoadDefaults() {
	Global = Config{
		Debug:     false,
		SubmitJob: true,
		Version:   VERSION,
		Defaults: JobDefaults{
			MailEvents:   []string{"ALL"},
			Nodes:        1,
			TasksPerNode: 1,
			CpusPerTask:  1,
			Walltime:     "24:00:00",
			Output:       "out.%j",
			Error:        "err.%j",
			Launcher:     "srun",
			ReportFile:   "convergence.txt",
		},
	}
}

// LoadFromViper copies the effective Viper configuration into Global.
// Call after InitViper so file and environment values are visible.
func LoadFromViper() {
	Global.SchedulerBin = viper.GetString("scheduler_bin")
	Global.SubmitJob = viper.GetBool("submit_job")

	d := &Global.Defaults
	d.Account = viper.GetString("defaults.account")
	d.MailUser = viper.GetString("defaults.mail_user")
	if viper.IsSet("defaults.mail_type") {
		d.MailEvents = viper.GetStringSlice("defaults.mail_type")
	}
	d.Nodes = viper.GetInt("defaults.nodes")
	d.TasksPerNode = viper.GetInt("defaults.ntasks_per_node")
	d.CpusPerTask = viper.GetInt("defaults.cpus_per_task")
	d.Walltime = viper.GetString("defaults.time")
	d.MemPerCpuMB = viper.GetInt("defaults.mem_per_cpu")
	d.Output = viper.GetString("defaults.output")
	d.Error = viper.GetString("defaults.error")
	d.Exclusive = viper.GetBool("defaults.exclusive")
	if viper.IsSet("defaults.modules") {
		d.Modules = viper.GetStringSlice("defaults.modules")
	}
	d.Launcher = viper.GetString("defaults.launcher")
	d.Executable = viper.GetString("defaults.executable")
	d.AutomationCmd = viper.GetString("defaults.automation_cmd")
	d.ReportFile = viper.GetString("defaults.report_file")
}
