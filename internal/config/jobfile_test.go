package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lorenzo-villa-hub/sbatcher/internal/jobscript"
)

func writeJobFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "job.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write job file: %v", err)
	}
	return path
}

func TestLoadJobFile(t *testing.T) {
	path := writeJobFile(t, `
name: Si-vacancy
account: project0123
array: 1-2%1
mail_user: user@example.com
mail_type:
  - ALL
nodes: 4
ntasks_per_node: 96
cpus_per_task: 1
time: "24:00:00"
exclusive: true
mem_per_cpu: 3500
modules:
  - intel/2020.2
  - intelmpi/2020.2
executable: /opt/vasp/bin/vasp_std
restart: true
automation:
  command: automation_vasp.py
  stop_array: true
`)

	jf, err := LoadJobFile(path)
	if err != nil {
		t.Fatalf("LoadJobFile failed: %v", err)
	}

	if jf.Name != "Si-vacancy" {
		t.Errorf("Name = %q; want %q", jf.Name, "Si-vacancy")
	}
	if jf.Account != "project0123" {
		t.Errorf("Account = %q; want %q", jf.Account, "project0123")
	}
	if jf.Array != "1-2%1" {
		t.Errorf("Array = %q; want %q", jf.Array, "1-2%1")
	}
	if jf.Nodes != 4 || jf.NtasksPerNode != 96 || jf.CpusPerTask != 1 {
		t.Errorf("layout = %d/%d/%d; want 4/96/1", jf.Nodes, jf.NtasksPerNode, jf.CpusPerTask)
	}
	if !jf.Exclusive {
		t.Error("Exclusive not read")
	}
	if jf.MemPerCpu != 3500 {
		t.Errorf("MemPerCpu = %d; want 3500", jf.MemPerCpu)
	}
	if len(jf.Modules) != 2 || jf.Modules[0] != "intel/2020.2" {
		t.Errorf("Modules = %v; want [intel/2020.2 intelmpi/2020.2]", jf.Modules)
	}
	if !jf.Restart {
		t.Error("Restart not read")
	}
	if jf.Automation == nil {
		t.Fatal("Automation not read")
	}
	if jf.Automation.Command != "automation_vasp.py" || !jf.Automation.StopArray {
		t.Errorf("Automation = %+v; want command automation_vasp.py, stop_array true", jf.Automation)
	}
}

func TestLoadJobFileMissing(t *testing.T) {
	if _, err := LoadJobFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing job file")
	}
}

func TestToSpecDefaultsMerging(t *testing.T) {
	defaults := JobDefaults{
		Account:      "site-account",
		MailEvents:   []string{"ALL"},
		Nodes:        1,
		TasksPerNode: 1,
		CpusPerTask:  1,
		Walltime:     "24:00:00",
		Output:       "out.%j",
		Error:        "err.%j",
		Launcher:     "srun",
		ReportFile:   "convergence.txt",
	}

	jf := &JobFile{
		Name:       "relax",
		Nodes:      4,
		Executable: "/opt/vasp/bin/vasp_std",
	}

	spec, err := jf.ToSpec(defaults)
	if err != nil {
		t.Fatalf("ToSpec failed: %v", err)
	}

	if spec.Account != "site-account" {
		t.Errorf("Account = %q; want site default", spec.Account)
	}
	if spec.Nodes != 4 {
		t.Errorf("Nodes = %d; job file should override default", spec.Nodes)
	}
	if spec.TasksPerNode != 1 || spec.CpusPerTask != 1 {
		t.Errorf("layout defaults not applied: %d/%d", spec.TasksPerNode, spec.CpusPerTask)
	}
	if spec.Walltime != "24:00:00" {
		t.Errorf("Walltime = %q; want default", spec.Walltime)
	}
	if spec.Output != "out.%j" || spec.Error != "err.%j" {
		t.Errorf("streams = %q/%q; want defaults", spec.Output, spec.Error)
	}
	if spec.Launcher != "srun" {
		t.Errorf("Launcher = %q; want srun", spec.Launcher)
	}
	if spec.Array != nil {
		t.Error("Array should be nil when unset")
	}
	if spec.Gate != nil {
		t.Error("Gate should be nil without automation section")
	}
}

func TestToSpecArrayParsing(t *testing.T) {
	jf := &JobFile{Name: "relax", Executable: "x", Array: "1-2%1"}
	spec, err := jf.ToSpec(JobDefaults{})
	if err != nil {
		t.Fatalf("ToSpec failed: %v", err)
	}
	if spec.Array == nil || spec.Array.String() != "1-2%1" {
		t.Errorf("Array = %v; want 1-2%%1", spec.Array)
	}

	jf.Array = "2-1"
	if _, err := jf.ToSpec(JobDefaults{}); err == nil {
		t.Error("expected error for inverted array range")
	}
}

func TestToSpecRestartStaging(t *testing.T) {
	jf := &JobFile{Name: "relax", Executable: "x", Restart: true}
	spec, err := jf.ToSpec(JobDefaults{})
	if err != nil {
		t.Fatalf("ToSpec failed: %v", err)
	}

	if len(spec.Staging) != 2 {
		t.Fatalf("Staging rules = %d; want 2", len(spec.Staging))
	}
	first, second := spec.Staging[0], spec.Staging[1]
	if first.Kind != jobscript.StageInitIfAbsent || first.Source != "POSCAR" || first.Target != "POSCAR_initial" {
		t.Errorf("first rule = %+v; want backup of POSCAR", first)
	}
	if second.Kind != jobscript.StageOverwriteIfPresent || second.Source != "CONTCAR" || second.Target != "POSCAR" {
		t.Errorf("second rule = %+v; want CONTCAR promotion", second)
	}
}

func TestToSpecRestartStagingOverrides(t *testing.T) {
	jf := &JobFile{
		Name:        "relax",
		Executable:  "x",
		Restart:     true,
		Input:       "INCAR",
		Backup:      "INCAR_orig",
		RestartFile: "INCAR_next",
	}
	spec, err := jf.ToSpec(JobDefaults{})
	if err != nil {
		t.Fatalf("ToSpec failed: %v", err)
	}
	if spec.Staging[0].Source != "INCAR" || spec.Staging[0].Target != "INCAR_orig" {
		t.Errorf("backup rule = %+v; overrides not applied", spec.Staging[0])
	}
	if spec.Staging[1].Source != "INCAR_next" || spec.Staging[1].Target != "INCAR" {
		t.Errorf("promotion rule = %+v; overrides not applied", spec.Staging[1])
	}
}

func TestToSpecExplicitStagingWins(t *testing.T) {
	jf := &JobFile{
		Name:       "relax",
		Executable: "x",
		Restart:    true,
		Staging: []StagingEntry{
			{Kind: "overwrite-if-present", Source: "WAVECAR.prev", Target: "WAVECAR"},
		},
	}
	spec, err := jf.ToSpec(JobDefaults{})
	if err != nil {
		t.Fatalf("ToSpec failed: %v", err)
	}
	if len(spec.Staging) != 1 {
		t.Fatalf("Staging rules = %d; explicit list should replace restart pair", len(spec.Staging))
	}
	if spec.Staging[0].Source != "WAVECAR.prev" {
		t.Errorf("Source = %q; want WAVECAR.prev", spec.Staging[0].Source)
	}
}

func TestToSpecGateDefaults(t *testing.T) {
	defaults := JobDefaults{ReportFile: "convergence.txt", AutomationCmd: "automation_vasp.py"}
	jf := &JobFile{
		Name:       "relax",
		Executable: "x",
		Automation: &AutomationEntry{StopArray: false},
	}
	spec, err := jf.ToSpec(defaults)
	if err != nil {
		t.Fatalf("ToSpec failed: %v", err)
	}
	if spec.Gate == nil {
		t.Fatal("Gate not built from automation section")
	}
	if spec.Gate.ReportFile != "convergence.txt" {
		t.Errorf("ReportFile = %q; want site default", spec.Gate.ReportFile)
	}
	if spec.Gate.AutomationCmd != "automation_vasp.py" {
		t.Errorf("AutomationCmd = %q; want site default", spec.Gate.AutomationCmd)
	}
}

func TestToSpecRendersEndToEnd(t *testing.T) {
	path := writeJobFile(t, `
name: relax
nodes: 2
ntasks_per_node: 48
cpus_per_task: 1
time: "12:00:00"
executable: /opt/vasp/bin/vasp_std
`)
	jf, err := LoadJobFile(path)
	if err != nil {
		t.Fatalf("LoadJobFile failed: %v", err)
	}
	spec, err := jf.ToSpec(JobDefaults{Launcher: "srun"})
	if err != nil {
		t.Fatalf("ToSpec failed: %v", err)
	}
	script, err := spec.Render()
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(script, "#SBATCH --job-name=relax") {
		t.Errorf("rendered script missing job name directive:\n%s", script)
	}
	if !strings.Contains(script, "srun /opt/vasp/bin/vasp_std") {
		t.Errorf("rendered script missing launch line:\n%s", script)
	}
}
