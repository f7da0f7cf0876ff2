// Package analyzer provides the plugin contract and registry for README
// detection analyzers.
//
// Analyzers are opaque plugins. The registry only requires that each plugin
// satisfies the three-operation capability contract: analyze content,
// report capabilities, and self-validate. Plugins are registered as `any`
// and checked against per-capability interfaces so that a partially
// implemented plugin can be rejected with the exact list of missing
// methods.
package analyzer

import (
	"context"

	"github.com/readmeforge/readmeforge/pkg/parser"
)

// DetectionResult is the output of one analyzer over README content.
type DetectionResult struct {
	Analyzer   string         `json:"analyzer" yaml:"analyzer"`
	Language   string         `json:"language,omitempty" yaml:"language,omitempty"`
	Framework  string         `json:"framework,omitempty" yaml:"framework,omitempty"`
	BuildTool  string         `json:"build_tool,omitempty" yaml:"build_tool,omitempty"`
	Confidence float64        `json:"confidence" yaml:"confidence"`
	Commands   []string       `json:"commands,omitempty" yaml:"commands,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Capabilities describes what an analyzer can detect.
type Capabilities struct {
	Languages  []string
	Frameworks []string
	BuildTools []string
}

// ContentAnalyzer is the analyze capability.
type ContentAnalyzer interface {
	Analyze(ctx context.Context, content *parser.ReadmeContent) (*DetectionResult, error)
}

// CapabilityReporter is the capability-introspection capability.
type CapabilityReporter interface {
	Capabilities() Capabilities
}

// InterfaceValidator is the self-validation capability.
type InterfaceValidator interface {
	ValidateInterface() error
}

// Analyzer is the full contract a registered plugin satisfies. The registry
// accepts plugins as `any` and promotes them to this interface only after
// validation.
type Analyzer interface {
	ContentAnalyzer
	CapabilityReporter
	InterfaceValidator
}

// requiredMethods maps each capability operation to the interface that
// witnesses it. Used by the validator to name exactly what is missing.
var requiredMethods = []struct {
	name  string
	check func(plugin any) bool
}{
	{"Analyze", func(p any) bool { _, ok := p.(ContentAnalyzer); return ok }},
	{"Capabilities", func(p any) bool { _, ok := p.(CapabilityReporter); return ok }},
	{"ValidateInterface", func(p any) bool { _, ok := p.(InterfaceValidator); return ok }},
}

// MissingMethods returns the capability operations the plugin does not
// implement, in contract order. An empty result means the plugin satisfies
// the structural contract.
func MissingMethods(plugin any) []string {
	var missing []string
	for _, m := range requiredMethods {
		if plugin == nil || !m.check(plugin) {
			missing = append(missing, m.name)
		}
	}
	return missing
}

// AnalyzerDescriptor records a validated plugin held by the registry.
type AnalyzerDescriptor struct {
	Name     string
	Analyzer Analyzer
	Valid    bool
}
