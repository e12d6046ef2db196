// Package convergence evaluates simulation convergence reports.
//
// A rendered job script greps the report at run time; this package mirrors
// the same predicate in-process so tooling can inspect a report without a
// cluster.
package convergence

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Marker lines written by the automation tooling into the report file.
const (
	ElectronicMarker = "Electronic convergence: True"
	IonicMarker      = "Ionic convergence: True"
)

// DefaultReportFile is the report filename used when none is configured.
const DefaultReportFile = "convergence.txt"

// Status holds the two independent convergence markers of a report.
// An absent marker reads as false, never as an error.
type Status struct {
	Electronic bool
	Ionic      bool
}

// Converged reports whether both markers are present: only then may the
// follow-up action fire.
func (s Status) Converged() bool {
	return s.Electronic && s.Ionic
}

func (s Status) String() string {
	return fmt.Sprintf("electronic=%t ionic=%t", s.Electronic, s.Ionic)
}

// Scan reads a report and returns the marker status. Matching is
// line-oriented: a marker counts when any line contains it.
func Scan(r io.Reader) (Status, error) {
	var status Status
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.Contains(line, ElectronicMarker) {
			status.Electronic = true
		}
		if strings.Contains(line, IonicMarker) {
			status.Ionic = true
		}
	}
	if err := scanner.Err(); err != nil {
		return Status{}, fmt.Errorf("error reading report: %w", err)
	}
	return status, nil
}

// ReadReport scans the report file at path.
func ReadReport(path string) (Status, error) {
	file, err := os.Open(path)
	if err != nil {
		return Status{}, err
	}
	defer file.Close()
	return Scan(file)
}
