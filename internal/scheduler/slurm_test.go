package scheduler

import (
	"errors"
	"regexp"
	"testing"
)

// newTestSlurmScheduler creates a SLURM scheduler instance for testing
// without requiring sbatch to be installed
func newTestSlurmScheduler() *SlurmScheduler {
	return &SlurmScheduler{
		sbatchBin:  "/usr/bin/sbatch",  // fake path for testing
		scancelBin: "/usr/bin/scancel", // fake path for testing
		jobIDRe:    regexp.MustCompile(`Submitted batch job (\d+)`),
	}
}

func TestParseJobID(t *testing.T) {
	sched := newTestSlurmScheduler()

	tests := []struct {
		name    string
		output  string
		want    string
		wantErr bool
	}{
		{"plain", "Submitted batch job 123456\n", "123456", false},
		{"with noise", "sbatch: notice\nSubmitted batch job 98\n", "98", false},
		{"no job line", "sbatch: error: invalid partition\n", "", true},
		{"empty output", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sched.parseJobID(tt.output)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if !errors.Is(err, ErrJobIDParseFailed) {
					t.Errorf("err = %v; want ErrJobIDParseFailed", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseJobID failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("jobID = %q; want %q", got, tt.want)
			}
		})
	}
}

func TestCancelTarget(t *testing.T) {
	if got := cancelTarget("424242"); got != "424242_*" {
		t.Errorf("cancelTarget = %q; want %q", got, "424242_*")
	}
}

func TestNormalizeVersion(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"23.02.6", "23.2.6"},
		{"2.6.0", "2.6.0"},
		{"20.11.0", "20.11.0"},
		{"0.0.1", "0.0.1"},
	}

	for _, tt := range tests {
		if got := normalizeVersion(tt.input); got != tt.want {
			t.Errorf("normalizeVersion(%q) = %q; want %q", tt.input, got, tt.want)
		}
	}
}

func TestVersionAtLeast(t *testing.T) {
	tests := []struct {
		version string
		minimum string
		want    bool
	}{
		{"23.02.6", "2.6.0", true},
		{"2.6.0", "2.6.0", true},
		{"2.5.7", "2.6.0", false},
		{"20.11.0", "2.6.0", true},
		{"gibberish", "2.6.0", true}, // unparseable assumed modern
	}

	for _, tt := range tests {
		if got := versionAtLeast(tt.version, tt.minimum); got != tt.want {
			t.Errorf("versionAtLeast(%q, %q) = %t; want %t", tt.version, tt.minimum, got, tt.want)
		}
	}
}

func TestSupportsArraysWithCachedVersion(t *testing.T) {
	sched := newTestSlurmScheduler()

	sched.version = "23.02.6"
	if !sched.SupportsArrays() {
		t.Error("modern SLURM should support arrays")
	}

	sched.version = "2.5.7"
	if sched.SupportsArrays() {
		t.Error("pre-2.6 SLURM should not support arrays")
	}
}

func TestCancelEmptyJobID(t *testing.T) {
	sched := newTestSlurmScheduler()
	if err := sched.CancelArraySiblings(""); err == nil {
		t.Error("expected error for empty array job id")
	}
}

func TestActiveSchedulerRegistry(t *testing.T) {
	defer ClearActiveScheduler()

	if ActiveScheduler() != nil {
		t.Fatal("registry should start empty")
	}

	sched := newTestSlurmScheduler()
	SetActiveScheduler(sched)
	if ActiveScheduler() != sched {
		t.Error("ActiveScheduler did not return the configured instance")
	}

	ClearActiveScheduler()
	if ActiveScheduler() != nil {
		t.Error("ClearActiveScheduler did not reset the registry")
	}
}
