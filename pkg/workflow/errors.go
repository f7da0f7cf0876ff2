package workflow

import (
	"fmt"
	"time"

	"github.com/readmeforge/readmeforge/pkg/logger"
)

var workflowErrorsLog = logger.New("workflow:errors")

// StageTimeoutError reports that a pipeline stage exceeded its timeout.
type StageTimeoutError struct {
	Stage   State
	Timeout time.Duration
}

// Error implements the error interface
func (e *StageTimeoutError) Error() string {
	return fmt.Sprintf("stage %s timed out after %s", e.Stage, e.Timeout)
}

// NewStageTimeoutError creates a timeout error for the given stage
func NewStageTimeoutError(stage State, timeout time.Duration) *StageTimeoutError {
	workflowErrorsLog.Printf("Creating stage timeout error: stage=%s, timeout=%s", stage, timeout)
	return &StageTimeoutError{Stage: stage, Timeout: timeout}
}

// StageExecutionError wraps an underlying fault raised while executing a
// pipeline stage, optionally attributed to one analyzer dependency.
type StageExecutionError struct {
	Stage      State
	Dependency string // Analyzer name when the fault came from a plugin
	Cause      error
}

// Error implements the error interface
func (e *StageExecutionError) Error() string {
	if e.Dependency != "" {
		return fmt.Sprintf("stage %s failed in analyzer '%s': %v", e.Stage, e.Dependency, e.Cause)
	}
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Cause)
}

// Unwrap returns the underlying error
func (e *StageExecutionError) Unwrap() error {
	return e.Cause
}

// NewStageExecutionError creates an execution error wrapping the cause
func NewStageExecutionError(stage State, dependency string, cause error) *StageExecutionError {
	workflowErrorsLog.Printf("Creating stage execution error: stage=%s, dependency=%s, cause=%v",
		stage, dependency, cause)
	return &StageExecutionError{Stage: stage, Dependency: dependency, Cause: cause}
}

// CancelledError reports a run that was cancelled at a stage boundary.
type CancelledError struct {
	Stage State // The stage that would have run next
}

// Error implements the error interface
func (e *CancelledError) Error() string {
	return fmt.Sprintf("run cancelled before stage %s", e.Stage)
}

// NewCancelledError creates a cancellation error for the given boundary
func NewCancelledError(stage State) *CancelledError {
	workflowErrorsLog.Printf("Creating cancelled error: stage=%s", stage)
	return &CancelledError{Stage: stage}
}
