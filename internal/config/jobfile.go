package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/lorenzo-villa-hub/sbatcher/internal/jobscript"
)

// JobFile is the on-disk job definition (YAML). Zero-valued fields fall back
// to the site defaults when the spec is built.
type JobFile struct {
	Name          string   `mapstructure:"name"`
	Account       string   `mapstructure:"account"`
	Array         string   `mapstructure:"array"`
	MailUser      string   `mapstructure:"mail_user"`
	MailType      []string `mapstructure:"mail_type"`
	Nodes         int      `mapstructure:"nodes"`
	NtasksPerNode int      `mapstructure:"ntasks_per_node"`
	CpusPerTask   int      `mapstructure:"cpus_per_task"`
	Output        string   `mapstructure:"output"`
	Error         string   `mapstructure:"error"`
	Time          string   `mapstructure:"time"`
	Exclusive     bool     `mapstructure:"exclusive"`
	MemPerCpu     int      `mapstructure:"mem_per_cpu"`
	Modules       []string `mapstructure:"modules"`
	Launcher      string   `mapstructure:"launcher"`
	Executable    string   `mapstructure:"executable"`

	// Restart enables the canonical restart staging pair for Input/Backup/
	// RestartFile (defaults: POSCAR, POSCAR_initial, CONTCAR).
	Restart     bool   `mapstructure:"restart"`
	Input       string `mapstructure:"input"`
	Backup      string `mapstructure:"backup"`
	RestartFile string `mapstructure:"restart_file"`

	// Staging lists explicit rules; when set it replaces the Restart pair.
	Staging []StagingEntry `mapstructure:"staging"`

	Automation *AutomationEntry `mapstructure:"automation"`
}

// StagingEntry is one conditional copy rule in a job file.
type StagingEntry struct {
	Kind   string `mapstructure:"kind"`
	Source string `mapstructure:"source"`
	Target string `mapstructure:"target"`
}

// AutomationEntry configures the convergence-gated follow-up block.
type AutomationEntry struct {
	Command   string `mapstructure:"command"`
	Report    string `mapstructure:"report"`
	StopArray bool   `mapstructure:"stop_array"`
}

// LoadJobFile reads a job definition from path.
func LoadJobFile(path string) (*JobFile, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read job file %s: %w", path, err)
	}

	var jf JobFile
	if err := v.Unmarshal(&jf); err != nil {
		return nil, fmt.Errorf("invalid job file %s: %w", path, err)
	}
	return &jf, nil
}

// ToSpec builds a renderable JobSpec from the job file, filling unset fields
// from the site defaults. Validation is the renderer's responsibility; this
// only assembles values.
func (jf *JobFile) ToSpec(defaults JobDefaults) (*jobscript.JobSpec, error) {
	spec := &jobscript.JobSpec{
		Account:      fallback(jf.Account, defaults.Account),
		JobName:      jf.Name,
		MailUser:     fallback(jf.MailUser, defaults.MailUser),
		MailEvents:   fallbackSlice(jf.MailType, defaults.MailEvents),
		Nodes:        fallbackInt(jf.Nodes, defaults.Nodes),
		TasksPerNode: fallbackInt(jf.NtasksPerNode, defaults.TasksPerNode),
		CpusPerTask:  fallbackInt(jf.CpusPerTask, defaults.CpusPerTask),
		Output:       fallback(jf.Output, defaults.Output),
		Error:        fallback(jf.Error, defaults.Error),
		Walltime:     fallback(jf.Time, defaults.Walltime),
		Exclusive:    jf.Exclusive || defaults.Exclusive,
		MemPerCpuMB:  fallbackInt(jf.MemPerCpu, defaults.MemPerCpuMB),
		Modules:      fallbackSlice(jf.Modules, defaults.Modules),
		Launcher:     fallback(jf.Launcher, defaults.Launcher),
		Executable:   fallback(jf.Executable, defaults.Executable),
	}

	if jf.Array != "" {
		array, err := jobscript.ParseArrayRange(jf.Array)
		if err != nil {
			return nil, err
		}
		spec.Array = array
	}

	spec.Staging = jf.stagingRules()

	if jf.Automation != nil {
		spec.Gate = &jobscript.ConvergenceGate{
			ReportFile:     fallback(jf.Automation.Report, defaults.ReportFile),
			AutomationCmd:  fallback(jf.Automation.Command, defaults.AutomationCmd),
			CancelSiblings: jf.Automation.StopArray,
		}
	}

	return spec, nil
}

// stagingRules resolves explicit staging entries, or the restart pair when
// only the restart toggle is set.
func (jf *JobFile) stagingRules() []jobscript.StagingRule {
	if len(jf.Staging) > 0 {
		rules := make([]jobscript.StagingRule, len(jf.Staging))
		for i, e := range jf.Staging {
			rules[i] = jobscript.StagingRule{
				Kind:   jobscript.StagingKind(e.Kind),
				Source: e.Source,
				Target: e.Target,
			}
		}
		return rules
	}

	if jf.Restart {
		primary := fallback(jf.Input, "POSCAR")
		backup := fallback(jf.Backup, "POSCAR_initial")
		restart := fallback(jf.RestartFile, "CONTCAR")
		return jobscript.RestartStaging(primary, backup, restart)
	}

	return nil
}

func fallback(value, def string) string {
	if value != "" {
		return value
	}
	return def
}

func fallbackInt(value, def int) int {
	if value != 0 {
		return value
	}
	return def
}

func fallbackSlice(value, def []string) []string {
	if len(value) > 0 {
		return value
	}
	return def
}
