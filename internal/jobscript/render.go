package jobscript

import (
	"fmt"
	"strings"

	"github.com/lorenzo-villa-hub/sbatcher/internal/convergence"
)

// Render produces the full batch script text for the spec.
//
// Rendering is a pure transform: it performs no I/O and never partially
// emits. Either the complete script is returned, or a *ConfigurationError
// before anything is produced. The same spec always yields byte-identical
// output.
func (s *JobSpec) Render() (string, error) {
	if err := s.Validate(); err != nil {
		return "", err
	}

	var b strings.Builder

	b.WriteString(DefaultShebang + "\n")
	s.writeDirectives(&b)

	b.WriteString("\n")
	for _, effect := range s.EnvEffects() {
		b.WriteString(effect.Script() + "\n")
	}

	if len(s.Staging) > 0 {
		b.WriteString("\n")
		for _, rule := range s.Staging {
			b.WriteString(rule.Script() + "\n")
		}
	}

	b.WriteString("\n")
	launcher := s.Launcher
	if launcher == "" {
		launcher = DefaultLauncher
	}
	fmt.Fprintf(&b, "%s %s\n", launcher, s.Executable)

	if s.Gate != nil {
		b.WriteString("\n")
		s.writeGate(&b)
	}

	return b.String(), nil
}

// writeDirectives emits the directive block in its fixed, stable order:
// account, job-name, array, mail-user, mail-type, nodes, ntasks-per-node,
// cpus-per-task, output, error, time, exclusive, mem-per-cpu.
// Optional fields are skipped without disturbing the order of the rest.
func (s *JobSpec) writeDirectives(b *strings.Builder) {
	directive := func(key, value string) {
		fmt.Fprintf(b, "#SBATCH --%s=%s\n", key, value)
	}

	if s.Account != "" {
		directive("account", s.Account)
	}
	directive("job-name", s.JobName)
	if s.Array != nil {
		directive("array", s.Array.String())
	}
	if s.MailUser != "" {
		directive("mail-user", s.MailUser)
	}
	if len(s.MailEvents) > 0 {
		events := make([]string, len(s.MailEvents))
		for i, ev := range s.MailEvents {
			events[i] = strings.ToUpper(strings.TrimSpace(ev))
		}
		directive("mail-type", strings.Join(events, ","))
	}
	directive("nodes", fmt.Sprintf("%d", s.Nodes))
	directive("ntasks-per-node", fmt.Sprintf("%d", s.TasksPerNode))
	directive("cpus-per-task", fmt.Sprintf("%d", s.CpusPerTask))
	if s.Output != "" {
		directive("output", s.Output)
	}
	if s.Error != "" {
		directive("error", s.Error)
	}
	directive("time", s.Walltime)
	if s.Exclusive {
		// Flag directive: no value
		b.WriteString("#SBATCH --exclusive\n")
	}
	if s.MemPerCpuMB > 0 {
		directive("mem-per-cpu", fmt.Sprintf("%d", s.MemPerCpuMB))
	}
	for _, extra := range s.ExtraDirectives {
		fmt.Fprintf(b, "#SBATCH %s\n", extra)
	}
}

// writeGate emits the convergence-gated follow-up block. Both markers must
// independently match at run time for the body to execute; on success the
// automation command runs and, for array jobs, the sibling tasks are
// cancelled so remaining elements do not redo finished work.
func (s *JobSpec) writeGate(b *strings.Builder) {
	gate := *s.Gate
	if gate.ReportFile == "" {
		gate.ReportFile = convergence.DefaultReportFile
	}
	if gate.ElectronicMarker == "" {
		gate.ElectronicMarker = convergence.ElectronicMarker
	}
	if gate.IonicMarker == "" {
		gate.IonicMarker = convergence.IonicMarker
	}

	fmt.Fprintf(b, "if grep -q \"%s\" %s && grep -q \"%s\" %s ; then\n",
		gate.ElectronicMarker, gate.ReportFile, gate.IonicMarker, gate.ReportFile)
	if gate.AutomationCmd != "" {
		fmt.Fprintf(b, "    %s\n", gate.AutomationCmd)
	}
	if gate.CancelSiblings {
		b.WriteString("    scancel ${SLURM_ARRAY_JOB_ID}_*\n")
	}
	b.WriteString("fi\n")
}
