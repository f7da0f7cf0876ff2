package analyzer

import (
	"fmt"
	"strings"
	"time"

	"github.com/readmeforge/readmeforge/pkg/logger"
)

var errorsLog = logger.New("analyzer:errors")

// InterfaceValidationError reports a plugin that does not satisfy the
// required capability contract.
type InterfaceValidationError struct {
	Name           string
	MissingMethods []string
	Timestamp      time.Time
}

// Error implements the error interface
func (e *InterfaceValidationError) Error() string {
	return fmt.Sprintf("analyzer '%s' does not satisfy the capability contract: missing %s",
		e.Name, strings.Join(e.MissingMethods, ", "))
}

// NewInterfaceValidationError creates a validation error naming the missing methods
func NewInterfaceValidationError(name string, missing []string) *InterfaceValidationError {
	errorsLog.Printf("Creating interface validation error: name=%s, missing=%v", name, missing)
	return &InterfaceValidationError{
		Name:           name,
		MissingMethods: missing,
		Timestamp:      time.Now(),
	}
}

// RegistrationStateError reports a dependency-resolution failure: a cyclic
// dependency chain or a dependency on an unknown analyzer.
type RegistrationStateError struct {
	Name      string
	Cycle     []string // Ordered node list when a cycle was detected
	Missing   string   // Name of an unmet dependency
	Timestamp time.Time
}

// Error implements the error interface
func (e *RegistrationStateError) Error() string {
	if len(e.Cycle) > 0 {
		return fmt.Sprintf("analyzer '%s' has a cyclic dependency: %s",
			e.Name, strings.Join(e.Cycle, " -> "))
	}
	return fmt.Sprintf("analyzer '%s' depends on unknown analyzer '%s'", e.Name, e.Missing)
}

// NewCycleError creates a registration state error carrying the exact cycle
func NewCycleError(name string, cycle []string) *RegistrationStateError {
	errorsLog.Printf("Creating cycle error: name=%s, cycle=%v", name, cycle)
	return &RegistrationStateError{Name: name, Cycle: cycle, Timestamp: time.Now()}
}

// NewUnmetDependencyError creates a registration state error for a missing dependency
func NewUnmetDependencyError(name, missing string) *RegistrationStateError {
	errorsLog.Printf("Creating unmet dependency error: name=%s, missing=%s", name, missing)
	return &RegistrationStateError{Name: name, Missing: missing, Timestamp: time.Now()}
}

// AnalyzerRegistrationError wraps any other failure that occurred while
// registering a plugin.
type AnalyzerRegistrationError struct {
	Name      string
	Cause     error
	Timestamp time.Time
}

// Error implements the error interface
func (e *AnalyzerRegistrationError) Error() string {
	return fmt.Sprintf("failed to register analyzer '%s': %v", e.Name, e.Cause)
}

// Unwrap returns the underlying error
func (e *AnalyzerRegistrationError) Unwrap() error {
	return e.Cause
}

// NewRegistrationError creates a registration error wrapping the cause
func NewRegistrationError(name string, cause error) *AnalyzerRegistrationError {
	errorsLog.Printf("Creating registration error: name=%s, cause=%v", name, cause)
	return &AnalyzerRegistrationError{Name: name, Cause: cause, Timestamp: time.Now()}
}
