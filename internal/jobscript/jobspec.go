// Package jobscript renders and parses SLURM-style batch job scripts.
package jobscript

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lorenzo-villa-hub/sbatcher/internal/utils"
)

// DefaultShebang is the interpreter line emitted at the top of every script.
const DefaultShebang = "#!/bin/sh"

// DefaultLauncher is the parallel launch command used when none is configured.
const DefaultLauncher = "srun"

// ArrayRange describes a job-array directive value: "start-end%limit".
// Limit 0 means no concurrency cap (the %limit suffix is omitted).
type ArrayRange struct {
	Start int // First array index (>= 1)
	End   int // Last array index (>= Start)
	Limit int // Max concurrently running elements (0 = uncapped)
}

func (a ArrayRange) String() string {
	if a.Limit > 0 {
		return fmt.Sprintf("%d-%d%%%d", a.Start, a.End, a.Limit)
	}
	return fmt.Sprintf("%d-%d", a.Start, a.End)
}

// ParseArrayRange parses "start-end%limit" or "start-end" strings.
func ParseArrayRange(s string) (*ArrayRange, error) {
	s = strings.TrimSpace(s)
	rangePart := s
	limit := 0

	if idx := strings.Index(s, "%"); idx >= 0 {
		rangePart = s[:idx]
		l, err := strconv.Atoi(s[idx+1:])
		if err != nil || l <= 0 {
			return nil, fmt.Errorf("invalid array concurrency limit in %q", s)
		}
		limit = l
	}

	start, end, found := strings.Cut(rangePart, "-")
	if !found {
		return nil, fmt.Errorf("invalid array range %q (expected start-end%%limit)", s)
	}
	startN, err := strconv.Atoi(start)
	if err != nil {
		return nil, fmt.Errorf("invalid array start in %q", s)
	}
	endN, err := strconv.Atoi(end)
	if err != nil {
		return nil, fmt.Errorf("invalid array end in %q", s)
	}

	ar := &ArrayRange{Start: startN, End: endN, Limit: limit}
	if err := ar.validate(); err != nil {
		return nil, err
	}
	return ar, nil
}

func (a ArrayRange) validate() error {
	if a.Start < 1 {
		return fmt.Errorf("array start must be >= 1, got %d", a.Start)
	}
	if a.End < a.Start {
		return fmt.Errorf("array end %d precedes start %d", a.End, a.Start)
	}
	if a.Limit < 0 {
		return fmt.Errorf("array concurrency limit must be >= 0, got %d", a.Limit)
	}
	return nil
}

// StagingKind selects the conditional semantics of a StagingRule.
type StagingKind string

const (
	// StageInitIfAbsent copies Source to Target only when Target does not exist.
	// Used to preserve the pristine input of the first array element.
	StageInitIfAbsent StagingKind = "init-if-absent"

	// StageOverwriteIfPresent copies Source to Target only when Source exists.
	// Used so a resumed element picks up the latest restart state.
	StageOverwriteIfPresent StagingKind = "overwrite-if-present"
)

// StagingRule is an idempotent conditional file copy executed before the
// job's main command. Rules run in the order they are listed; the canonical
// restart pair places the init rule before the overwrite rule.
type StagingRule struct {
	Kind   StagingKind
	Source string
	Target string
}

// Script renders the rule as a shell conditional block.
func (r StagingRule) Script() string {
	switch r.Kind {
	case StageInitIfAbsent:
		return fmt.Sprintf("if [ ! -f %s ] ; then\n    cp %s %s\nfi", r.Target, r.Source, r.Target)
	case StageOverwriteIfPresent:
		return fmt.Sprintf("if [ -f %s ] ; then\n    cp %s %s\nfi", r.Source, r.Source, r.Target)
	}
	return ""
}

// RestartStaging returns the canonical restart staging pair: back up the
// primary input once, then overwrite it from the restart file when one exists.
func RestartStaging(primary, backup, restart string) []StagingRule {
	return []StagingRule{
		{Kind: StageInitIfAbsent, Source: primary, Target: backup},
		{Kind: StageOverwriteIfPresent, Source: restart, Target: primary},
	}
}

// EnvOp is the operation carried by an EnvEffect.
type EnvOp string

const (
	EnvPurge EnvOp = "purge" // unload every module
	EnvLoad  EnvOp = "load"  // load one module
)

// EnvEffect is an environment mutation descriptor. The renderer never touches
// shell state itself; it serializes these for the shell to execute.
type EnvEffect struct {
	Op     EnvOp
	Module string // empty for EnvPurge
}

// Script renders the effect as a shell line.
func (e EnvEffect) Script() string {
	switch e.Op {
	case EnvPurge:
		return "module purge"
	case EnvLoad:
		return "ml " + e.Module
	}
	return ""
}

// ConvergenceGate describes the post-run predicate: scan ReportFile for both
// markers, and only when both are present run the automation command and
// optionally cancel the remaining array elements.
type ConvergenceGate struct {
	ReportFile       string // report scanned by the rendered script
	ElectronicMarker string // line marking electronic convergence
	IonicMarker      string // line marking ionic convergence
	AutomationCmd    string // follow-up command, run once on success
	CancelSiblings   bool   // scancel the sibling array tasks on success
}

// Mail event values accepted in JobSpec.MailEvents.
var knownMailEvents = map[string]bool{
	"ALL":            true,
	"NONE":           true,
	"BEGIN":          true,
	"END":            true,
	"FAIL":           true,
	"REQUEUE":        true,
	"INVALID_DEPEND": true,
	"TIME_LIMIT":     true,
}

// JobSpec holds everything needed to render one batch job script.
// A JobSpec is constructed once, rendered once, and never mutated afterwards.
type JobSpec struct {
	Account      string   // billing/allocation id
	JobName      string   // human-readable label (required)
	Array        *ArrayRange
	MailUser     string   // notification address
	MailEvents   []string // notification event set (e.g. ALL, END, FAIL)
	Nodes        int      // node count (required, > 0)
	TasksPerNode int      // tasks per node (required, > 0)
	CpusPerTask  int      // cpus per task (required, > 0)
	Output       string   // stdout path template, %j = job id
	Error        string   // stderr path template, %j = job id
	Walltime     string   // wall-clock limit, [D-]HH:MM:SS (required)
	Exclusive    bool     // request whole nodes
	MemPerCpuMB  int      // memory per logical core in MB (0 = omit)

	Modules    []string // environment modules, loaded in order after a purge
	Launcher   string   // parallel launcher (default "srun")
	Executable string   // target binary (required)

	Staging []StagingRule
	Gate    *ConvergenceGate

	// ExtraDirectives are scheduler directives carried through verbatim,
	// rendered after the fixed directive block in input order.
	ExtraDirectives []string
}

// EnvEffects returns the environment mutations the rendered script performs:
// one purge followed by one load per configured module, in order.
func (s *JobSpec) EnvEffects() []EnvEffect {
	effects := []EnvEffect{{Op: EnvPurge}}
	for _, m := range s.Modules {
		effects = append(effects, EnvEffect{Op: EnvLoad, Module: m})
	}
	return effects
}

// Validate checks every invariant Render relies on. It reports the first
// violation as a *ConfigurationError and touches no output.
func (s *JobSpec) Validate() error {
	if s.JobName == "" {
		return newConfigErr("job-name", "required field is missing")
	}
	if s.Executable == "" {
		return newConfigErr("executable", "required field is missing")
	}
	if s.Nodes <= 0 {
		return newConfigErr("nodes", "must be a positive integer, got %d", s.Nodes)
	}
	if s.TasksPerNode <= 0 {
		return newConfigErr("ntasks-per-node", "must be a positive integer, got %d", s.TasksPerNode)
	}
	if s.CpusPerTask <= 0 {
		return newConfigErr("cpus-per-task", "must be a positive integer, got %d", s.CpusPerTask)
	}
	if s.MemPerCpuMB < 0 {
		return newConfigErr("mem-per-cpu", "must be a positive integer, got %d", s.MemPerCpuMB)
	}
	if s.Walltime == "" {
		return newConfigErr("time", "required field is missing")
	}
	if d, err := utils.ParseDuration(s.Walltime); err != nil || d <= 0 {
		return newConfigErr("time", "invalid wall-clock limit %q", s.Walltime)
	}
	if s.Array != nil {
		if err := s.Array.validate(); err != nil {
			return newConfigErr("array", "%v", err)
		}
	}
	for _, ev := range s.MailEvents {
		if !knownMailEvents[strings.ToUpper(strings.TrimSpace(ev))] {
			return newConfigErr("mail-type", "unknown event %q", ev)
		}
	}
	for _, m := range s.Modules {
		if strings.TrimSpace(m) == "" {
			return newConfigErr("modules", "empty module name")
		}
	}
	if err := s.validateStaging(); err != nil {
		return err
	}
	return s.validateGate()
}

// validateStaging checks rule fields and the restart ordering invariant: for
// any shared target, the init-if-absent rule must precede the
// overwrite-if-present rule, so a resumed job backs up the pristine input
// before replacing it with restart state.
func (s *JobSpec) validateStaging() error {
	overwriteSeen := map[string]bool{}
	for _, r := range s.Staging {
		switch r.Kind {
		case StageInitIfAbsent, StageOverwriteIfPresent:
		default:
			return newConfigErr("staging", "unknown rule kind %q", r.Kind)
		}
		if r.Source == "" || r.Target == "" {
			return newConfigErr("staging", "rule %s requires source and target", r.Kind)
		}
		if r.Kind == StageOverwriteIfPresent {
			overwriteSeen[r.Target] = true
		}
		if r.Kind == StageInitIfAbsent && overwriteSeen[r.Source] {
			return newConfigErr("staging",
				"init rule for %s must precede the overwrite rule", r.Source)
		}
	}
	return nil
}

func (s *JobSpec) validateGate() error {
	if s.Gate == nil {
		return nil
	}
	if s.Gate.AutomationCmd == "" && !s.Gate.CancelSiblings {
		return newConfigErr("automation", "convergence gate has no follow-up action")
	}
	if s.Gate.CancelSiblings && s.Array == nil {
		return newConfigErr("automation", "cancelling sibling tasks requires an array range")
	}
	return nil
}
