package scheduler

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// ErrSchedulerNotAvailable indicates the scheduler is not available
	ErrSchedulerNotAvailable = errors.New("scheduler is not available")

	// ErrSchedulerNotFound indicates the scheduler binary was not found
	ErrSchedulerNotFound = errors.New("scheduler binary not found in PATH")

	// ErrAlreadyInJob indicates we're already inside a scheduler job
	ErrAlreadyInJob = errors.New("already inside a scheduler job")

	// ErrScriptNotFound indicates the script file was not found
	ErrScriptNotFound = errors.New("script file not found")

	// ErrJobIDParseFailed indicates parsing job ID from output failed
	ErrJobIDParseFailed = errors.New("failed to parse job ID from scheduler output")

	// ErrArraysUnsupported indicates the scheduler version predates job arrays
	ErrArraysUnsupported = errors.New("scheduler version does not support job arrays")
)

// SubmissionError represents an error during job submission
type SubmissionError struct {
	Scheduler string // Scheduler name
	Script    string // Script filename
	Output    string // Scheduler output
	Err       error  // Underlying error
}

func (e *SubmissionError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("%s submission failed for %s: %v\nOutput: %s",
			e.Scheduler, e.Script, e.Err, e.Output)
	}
	return fmt.Sprintf("%s submission failed for %s: %v",
		e.Scheduler, e.Script, e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// CancelError represents an error cancelling array tasks
type CancelError struct {
	Scheduler string // Scheduler name
	JobID     string // Array job ID
	Output    string // Scheduler output
	Err       error  // Underlying error
}

func (e *CancelError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("%s cancel failed for job %s: %v\nOutput: %s",
			e.Scheduler, e.JobID, e.Err, e.Output)
	}
	return fmt.Sprintf("%s cancel failed for job %s: %v", e.Scheduler, e.JobID, e.Err)
}

func (e *CancelError) Unwrap() error {
	return e.Err
}

// NewSubmissionError creates a new SubmissionError
func NewSubmissionError(scheduler string, script string, output string, err error) *SubmissionError {
	return &SubmissionError{
		Scheduler: scheduler,
		Script:    script,
		Output:    output,
		Err:       err,
	}
}

// NewCancelError creates a new CancelError
func NewCancelError(scheduler string, jobID string, output string, err error) *CancelError {
	return &CancelError{
		Scheduler: scheduler,
		JobID:     jobID,
		Output:    output,
		Err:       err,
	}
}

// IsSubmissionError checks if an error is a SubmissionError
func IsSubmissionError(err error) bool {
	var se *SubmissionError
	return errors.As(err, &se)
}
