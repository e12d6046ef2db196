// Package scheduler wraps the external SLURM job scheduler: script
// submission, sibling-array cancellation and availability checks. Nothing
// here implements scheduling; the cluster's own tools are only invoked.
package scheduler

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/mod/semver"
)

// minArrayVersion is the first SLURM release with job-array support.
const minArrayVersion = "2.6.0"

// SchedulerInfo holds information about the detected scheduler
type SchedulerInfo struct {
	Type      string // Scheduler type (always "SLURM")
	Binary    string // Path to scheduler binary (e.g., "/usr/bin/sbatch")
	Version   string // Scheduler version (if available)
	InJob     bool   // Whether we're currently inside a scheduled job
	Available bool   // Whether scheduler is available for job submission
}

// SlurmScheduler submits scripts via sbatch and cancels tasks via scancel
type SlurmScheduler struct {
	sbatchBin  string
	scancelBin string
	jobIDRe    *regexp.Regexp
	version    string // cached; filled on first GetInfo/SupportsArrays call
}

// NewSlurmScheduler creates a SLURM scheduler instance using sbatch from PATH
func NewSlurmScheduler() (*SlurmScheduler, error) {
	return newSlurmSchedulerWithBinary("")
}

// NewSlurmSchedulerWithBinary creates a SLURM scheduler using an explicit sbatch path
func NewSlurmSchedulerWithBinary(sbatchBin string) (*SlurmScheduler, error) {
	return newSlurmSchedulerWithBinary(sbatchBin)
}

func newSlurmSchedulerWithBinary(sbatchBin string) (*SlurmScheduler, error) {
	binPath := sbatchBin
	if binPath == "" {
		var err error
		binPath, err = exec.LookPath("sbatch")
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSchedulerNotFound, err)
		}
	} else {
		if absPath, err := filepath.Abs(binPath); err == nil {
			binPath = absPath
		}
		info, err := os.Stat(binPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSchedulerNotFound, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%w: %s is a directory", ErrSchedulerNotFound, binPath)
		}
	}

	scancelBin, _ := exec.LookPath("scancel")

	return &SlurmScheduler{
		sbatchBin:  binPath,
		scancelBin: scancelBin,
		jobIDRe:    regexp.MustCompile(`Submitted batch job (\d+)`),
	}, nil
}

// IsAvailable checks if SLURM is available and we're not inside a SLURM job
func (s *SlurmScheduler) IsAvailable() bool {
	if s.sbatchBin == "" {
		return false
	}
	return !IsInsideJob()
}

// IsInsideJob checks if we're currently running inside a scheduler job.
// This is useful to avoid nested job submission.
func IsInsideJob() bool {
	_, ok := os.LookupEnv("SLURM_JOB_ID")
	return ok
}

// ArrayJobID returns the parent array job id of the current environment,
// or empty when not running inside an array element.
func ArrayJobID() string {
	return os.Getenv("SLURM_ARRAY_JOB_ID")
}

// GetInfo returns information about the SLURM scheduler
func (s *SlurmScheduler) GetInfo() *SchedulerInfo {
	info := &SchedulerInfo{
		Type:      "SLURM",
		Binary:    s.sbatchBin,
		InJob:     IsInsideJob(),
		Available: s.IsAvailable(),
	}

	if version, err := s.getVersion(); err == nil {
		info.Version = version
	}

	return info
}

// getVersion queries and caches the SLURM version
func (s *SlurmScheduler) getVersion() (string, error) {
	if s.version != "" {
		return s.version, nil
	}

	cmd := exec.Command(s.sbatchBin, "--version")
	output, err := cmd.Output()
	if err != nil {
		return "", err
	}

	// Parse version from output like "slurm 23.02.6"
	versionStr := strings.TrimSpace(string(output))
	parts := strings.Fields(versionStr)
	if len(parts) >= 2 {
		s.version = parts[1]
	} else {
		s.version = versionStr
	}
	return s.version, nil
}

// SupportsArrays reports whether the installed SLURM accepts --array
// directives. Unknown versions are assumed modern enough.
func (s *SlurmScheduler) SupportsArrays() bool {
	version, err := s.getVersion()
	if err != nil {
		return true
	}
	return versionAtLeast(version, minArrayVersion)
}

// versionAtLeast compares two version strings under semver rules. SLURM
// versions use zero-padded minors ("23.02.6"), which canonical semver
// rejects, so components are normalized first. Unparseable versions
// compare as new enough.
func versionAtLeast(version, minimum string) bool {
	v1 := semver.Canonical("v" + normalizeVersion(version))
	v2 := semver.Canonical("v" + normalizeVersion(minimum))
	if v1 == "" || v2 == "" {
		return true
	}
	return semver.Compare(v1, v2) >= 0
}

// normalizeVersion strips leading zeros from each numeric component
// ("23.02.6" -> "23.2.6").
func normalizeVersion(version string) string {
	parts := strings.Split(version, ".")
	for i, p := range parts {
		trimmed := strings.TrimLeft(p, "0")
		if trimmed == "" && p != "" {
			trimmed = "0"
		}
		parts[i] = trimmed
	}
	return strings.Join(parts, ".")
}

// Submit hands a rendered script to sbatch and returns the assigned job ID
func (s *SlurmScheduler) Submit(scriptPath string) (string, error) {
	if _, err := os.Stat(scriptPath); err != nil {
		return "", fmt.Errorf("%w: %s", ErrScriptNotFound, scriptPath)
	}

	cmd := exec.Command(s.sbatchBin, scriptPath)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", NewSubmissionError("SLURM", filepath.Base(scriptPath), string(output), err)
	}

	return s.parseJobID(string(output))
}

// parseJobID extracts the job ID from sbatch output
func (s *SlurmScheduler) parseJobID(output string) (string, error) {
	matches := s.jobIDRe.FindStringSubmatch(output)
	if len(matches) < 2 {
		return "", fmt.Errorf("%w: %s", ErrJobIDParseFailed, output)
	}
	return matches[1], nil
}

// CancelArraySiblings cancels every task of the array job. This mirrors the
// fire-and-forget scancel the rendered script issues on convergence; no
// acknowledgement is expected from the scheduler.
func (s *SlurmScheduler) CancelArraySiblings(arrayJobID string) error {
	if s.scancelBin == "" {
		return fmt.Errorf("%w: scancel", ErrSchedulerNotFound)
	}
	if arrayJobID == "" {
		return fmt.Errorf("empty array job id")
	}

	cmd := exec.Command(s.scancelBin, cancelTarget(arrayJobID))
	output, err := cmd.CombinedOutput()
	if err != nil {
		return NewCancelError("SLURM", arrayJobID, string(output), err)
	}
	return nil
}

// cancelTarget builds the scancel argument selecting all tasks of an array job
func cancelTarget(arrayJobID string) string {
	return arrayJobID + "_*"
}
