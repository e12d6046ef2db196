package jobscript

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/lorenzo-villa-hub/sbatcher/internal/utils"
)

var (
	directiveRe = regexp.MustCompile(`^\s*#SBATCH\s+(.+)$`)
	gateRe      = regexp.MustCompile(`^if\s+grep -q "([^"]+)" (\S+)\s+&&\s+grep -q "([^"]+)" (\S+)\s*;?\s*(then)?\s*$`)
	ifAbsentRe  = regexp.MustCompile(`^if\s+\[\s+!\s+-f\s+(\S+)\s+\]\s*;?\s*(then)?\s*$`)
	ifPresentRe = regexp.MustCompile(`^if\s+\[\s+-f\s+(\S+)\s+\]\s*;?\s*(then)?\s*$`)
	copyRe      = regexp.MustCompile(`^cp\s+(\S+)\s+(\S+)$`)
)

// ParseFile reads a job script from disk and recovers its JobSpec.
func ParseFile(path string) (*JobSpec, error) {
	lines, err := utils.ReadFileLines(path)
	if err != nil {
		return nil, err
	}
	return Parse(lines)
}

// Parse recovers a JobSpec from rendered script lines. It is the best-effort
// inverse of Render: directives, module loads, staging blocks, the launch
// line and the convergence gate are consumed; unrecognized directives land in
// ExtraDirectives, and unrecognized body lines are skipped.
//
// Returns ErrNoDirectives when the script carries no #SBATCH directives.
func Parse(lines []string) (*JobSpec, error) {
	spec := &JobSpec{}

	directives := extractDirectives(lines)
	if len(directives) == 0 {
		return nil, ErrNoDirectives
	}
	if err := spec.consumeDirectives(directives); err != nil {
		return nil, err
	}
	if err := spec.consumeBody(lines); err != nil {
		return nil, err
	}
	return spec, nil
}

// extractDirectives extracts raw directive strings from script lines
// (strips the #SBATCH prefix).
func extractDirectives(lines []string) []string {
	var out []string
	for _, line := range lines {
		if m := directiveRe.FindStringSubmatch(line); m != nil {
			out = append(out, utils.StripInlineComment(m[1]))
		}
	}
	return out
}

// consumeDirectives maps each directive onto a JobSpec field. Directives this
// tool does not model are carried through as ExtraDirectives so a parsed
// script re-renders without losing them.
func (s *JobSpec) consumeDirectives(directives []string) error {
	for _, flag := range directives {
		consumed := true
		var parseErr error

		switch {
		case strings.HasPrefix(flag, "--account="):
			s.Account = strings.TrimPrefix(flag, "--account=")
		case strings.HasPrefix(flag, "--job-name="):
			s.JobName = strings.TrimPrefix(flag, "--job-name=")
		case strings.HasPrefix(flag, "--array="):
			s.Array, parseErr = ParseArrayRange(strings.TrimPrefix(flag, "--array="))
		case strings.HasPrefix(flag, "--mail-user="):
			s.MailUser = strings.TrimPrefix(flag, "--mail-user=")
		case strings.HasPrefix(flag, "--mail-type="):
			for _, ev := range strings.Split(strings.TrimPrefix(flag, "--mail-type="), ",") {
				s.MailEvents = append(s.MailEvents, strings.ToUpper(strings.TrimSpace(ev)))
			}
		case strings.HasPrefix(flag, "--nodes="):
			s.Nodes, parseErr = strconv.Atoi(strings.TrimPrefix(flag, "--nodes="))
		case strings.HasPrefix(flag, "--ntasks-per-node="):
			s.TasksPerNode, parseErr = strconv.Atoi(strings.TrimPrefix(flag, "--ntasks-per-node="))
		case strings.HasPrefix(flag, "--cpus-per-task="):
			s.CpusPerTask, parseErr = strconv.Atoi(strings.TrimPrefix(flag, "--cpus-per-task="))
		case strings.HasPrefix(flag, "--output="):
			s.Output = strings.TrimPrefix(flag, "--output=")
		case strings.HasPrefix(flag, "--error="):
			s.Error = strings.TrimPrefix(flag, "--error=")
		case strings.HasPrefix(flag, "--time="):
			s.Walltime = strings.TrimPrefix(flag, "--time=")
		case flag == "--exclusive":
			s.Exclusive = true
		case strings.HasPrefix(flag, "--mem-per-cpu="):
			s.MemPerCpuMB, parseErr = utils.ParseSizeToMB(strings.TrimPrefix(flag, "--mem-per-cpu="))
		default:
			consumed = false
		}

		if parseErr != nil {
			return fmt.Errorf("invalid directive %q: %w", flag, parseErr)
		}
		if !consumed {
			s.ExtraDirectives = append(s.ExtraDirectives, flag)
		}
	}
	return nil
}

// consumeBody walks the non-directive lines: module loads, staging blocks,
// the launch line and the convergence gate. Conditional blocks are consumed
// up to their closing "fi".
func (s *JobSpec) consumeBody(lines []string) error {
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])

		switch {
		case line == "" || strings.HasPrefix(line, "#"):
			// blank, shebang, directive or comment

		case line == "module purge" || line == "ml purge":
			// implicit in EnvEffects

		case strings.HasPrefix(line, "module load "):
			s.Modules = append(s.Modules, strings.Fields(line)[2:]...)

		case strings.HasPrefix(line, "ml "):
			s.Modules = append(s.Modules, strings.Fields(line)[1:]...)

		case gateRe.MatchString(line):
			m := gateRe.FindStringSubmatch(line)
			gate := &ConvergenceGate{
				ElectronicMarker: m[1],
				ReportFile:       m[2],
				IonicMarker:      m[3],
			}
			body, next := blockBody(lines, i)
			for _, bl := range body {
				if strings.HasPrefix(bl, "scancel ") {
					gate.CancelSiblings = true
				} else if gate.AutomationCmd == "" {
					gate.AutomationCmd = bl
				}
			}
			s.Gate = gate
			i = next

		case ifAbsentRe.MatchString(line):
			body, next := blockBody(lines, i)
			for _, bl := range body {
				if m := copyRe.FindStringSubmatch(bl); m != nil {
					s.Staging = append(s.Staging, StagingRule{
						Kind:   StageInitIfAbsent,
						Source: m[1],
						Target: m[2],
					})
				}
			}
			i = next

		case ifPresentRe.MatchString(line):
			body, next := blockBody(lines, i)
			for _, bl := range body {
				if m := copyRe.FindStringSubmatch(bl); m != nil {
					s.Staging = append(s.Staging, StagingRule{
						Kind:   StageOverwriteIfPresent,
						Source: m[1],
						Target: m[2],
					})
				}
			}
			i = next

		default:
			// First plain command line is the launch line
			if s.Executable == "" {
				fields := strings.Fields(line)
				if len(fields) >= 2 {
					s.Launcher = fields[0]
					s.Executable = strings.Join(fields[1:], " ")
				} else {
					s.Executable = line
				}
			}
		}
	}
	return nil
}

// blockBody collects the trimmed body lines of the shell conditional starting
// at lines[start] and returns them with the index of the closing "fi".
// "then" continuation lines are skipped.
func blockBody(lines []string, start int) ([]string, int) {
	var body []string
	for i := start + 1; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "fi" {
			return body, i
		}
		if line == "" || line == "then" {
			continue
		}
		body = append(body, line)
	}
	return body, len(lines) - 1
}
