package analyzer

import (
	"fmt"
	"sync"
	"time"

	"github.com/readmeforge/readmeforge/pkg/logger"
)

var registryLog = logger.New("analyzer:registry")

// RegistrationResult is the outcome of a single registration attempt.
type RegistrationResult struct {
	Name           string
	Success        bool
	MissingMethods []string
	Err            error
}

// RegistrationRecord is an immutable audit entry for one registration
// attempt. Records are appended to the registry's registration state and
// never modified.
type RegistrationRecord struct {
	Name      string
	Success   bool
	Detail    string
	Timestamp time.Time
	Retries   int
}

// ComplianceEntry is the re-validation outcome for one registered analyzer.
type ComplianceEntry struct {
	Name           string
	Valid          bool
	MissingMethods []string
	Detail         string
}

// ComplianceReport aggregates re-validation of all registered analyzers.
type ComplianceReport struct {
	Score   float64 // Fraction of registered analyzers passing validation
	Entries []ComplianceEntry
}

// Registry stores analyzer plugins keyed by name, preserving registration
// order. All methods are safe for concurrent use; mutation takes the write
// lock so concurrent readers never observe a partially updated set.
type Registry struct {
	mu       sync.RWMutex
	entries  map[string]*AnalyzerDescriptor
	order    []string
	records  []RegistrationRecord
	failures []RegistrationRecord
}

// NewRegistry creates an empty analyzer registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*AnalyzerDescriptor),
	}
}

// Register validates the plugin against the capability contract and stores
// it under name. A plugin failing validation is reported in the result and
// not added; previously registered analyzers are unaffected.
func (r *Registry) Register(plugin any, name string) RegistrationResult {
	registryLog.Printf("Registering analyzer: name=%s", name)

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registerLocked(plugin, name)
}

func (r *Registry) registerLocked(plugin any, name string) RegistrationResult {
	record := RegistrationRecord{Name: name, Timestamp: time.Now()}

	if name == "" {
		err := NewRegistrationError(name, fmt.Errorf("analyzer name must not be empty"))
		record.Detail = err.Error()
		r.failures = append(r.failures, record)
		r.records = append(r.records, record)
		return RegistrationResult{Name: name, Err: err}
	}

	if _, exists := r.entries[name]; exists {
		err := NewRegistrationError(name, fmt.Errorf("analyzer '%s' is already registered", name))
		record.Detail = err.Error()
		r.failures = append(r.failures, record)
		r.records = append(r.records, record)
		registryLog.Printf("Registration rejected, duplicate name: %s", name)
		return RegistrationResult{Name: name, Err: err}
	}

	if missing := MissingMethods(plugin); len(missing) > 0 {
		err := NewInterfaceValidationError(name, missing)
		record.Detail = err.Error()
		r.failures = append(r.failures, record)
		r.records = append(r.records, record)
		registryLog.Printf("Registration failed validation: name=%s, missing=%v", name, missing)
		return RegistrationResult{Name: name, MissingMethods: missing, Err: err}
	}

	a := plugin.(Analyzer)
	if err := a.ValidateInterface(); err != nil {
		wrapped := NewRegistrationError(name, err)
		record.Detail = wrapped.Error()
		r.failures = append(r.failures, record)
		r.records = append(r.records, record)
		registryLog.Printf("Analyzer self-validation failed: name=%s, err=%v", name, err)
		return RegistrationResult{Name: name, Err: wrapped}
	}

	r.entries[name] = &AnalyzerDescriptor{Name: name, Analyzer: a, Valid: true}
	r.order = append(r.order, name)
	record.Success = true
	r.records = append(r.records, record)

	registryLog.Printf("Analyzer registered: name=%s, total=%d", name, len(r.order))
	return RegistrationResult{Name: name, Success: true}
}

// PluginConfig pairs a plugin with its registration name.
type PluginConfig struct {
	Name   string
	Plugin any
}

// RegisterMultiple registers each config in input order. One entry's
// failure never blocks or rolls back the others.
func (r *Registry) RegisterMultiple(configs []PluginConfig) []RegistrationResult {
	registryLog.Printf("Registering %d analyzers", len(configs))

	r.mu.Lock()
	defer r.mu.Unlock()

	results := make([]RegistrationResult, 0, len(configs))
	for _, cfg := range configs {
		results = append(results, r.registerLocked(cfg.Plugin, cfg.Name))
	}
	return results
}

// Unregister removes the named analyzer. Removing an unknown name is a
// no-op returning false.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[name]; !exists {
		return false
	}
	delete(r.entries, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	registryLog.Printf("Analyzer unregistered: name=%s", name)
	return true
}

// RegisteredAnalyzers returns analyzer names in registration order. The
// returned slice is a copy.
func (r *Registry) RegisteredAnalyzers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]string(nil), r.order...)
}

// Analyzer returns the named analyzer, or false when not registered.
func (r *Registry) Analyzer(name string) (Analyzer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	desc, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	return desc.Analyzer, true
}

// Records returns a copy of all registration records, oldest first.
func (r *Registry) Records() []RegistrationRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]RegistrationRecord(nil), r.records...)
}

// Failures returns a copy of the failed registration records.
func (r *Registry) Failures() []RegistrationRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]RegistrationRecord(nil), r.failures...)
}

// ValidateRegistration re-validates every registered analyzer and returns
// an aggregate compliance score with per-entry detail. An empty registry
// scores 1.0.
func (r *Registry) ValidateRegistration() ComplianceReport {
	r.mu.RLock()
	defer r.mu.RUnlock()

	report := ComplianceReport{Score: 1.0}
	if len(r.order) == 0 {
		return report
	}

	valid := 0
	for _, name := range r.order {
		desc := r.entries[name]
		entry := ComplianceEntry{Name: name}

		if missing := MissingMethods(desc.Analyzer); len(missing) > 0 {
			entry.MissingMethods = missing
			entry.Detail = NewInterfaceValidationError(name, missing).Error()
		} else if err := desc.Analyzer.ValidateInterface(); err != nil {
			entry.Detail = err.Error()
		} else {
			entry.Valid = true
			valid++
		}
		report.Entries = append(report.Entries, entry)
	}

	report.Score = float64(valid) / float64(len(r.order))
	registryLog.Printf("Registration validated: score=%.2f, entries=%d", report.Score, len(report.Entries))
	return report
}
