// Package workflow contains the orchestration core: the component factory,
// the run engine, and the generators that turn detection results and
// environment configuration into an ordered workflow model.
//
// The package produces a step/job model only. Turning that model into YAML
// text is the serializer's concern (see pkg/cli).
package workflow

import (
	"context"
	"time"

	"github.com/readmeforge/readmeforge/pkg/analyzer"
	"github.com/readmeforge/readmeforge/pkg/parser"
)

// WorkflowStep is one unit of generated automation: a command or an action
// reference, optionally gated by a conditional guard expression.
type WorkflowStep struct {
	ID   string            `yaml:"id,omitempty" json:"id,omitempty"`
	Name string            `yaml:"name" json:"name"`
	If   string            `yaml:"if,omitempty" json:"if,omitempty"`
	Uses string            `yaml:"uses,omitempty" json:"uses,omitempty"`
	Run  string            `yaml:"run,omitempty" json:"run,omitempty"`
	With map[string]string `yaml:"with,omitempty" json:"with,omitempty"`
	Env  map[string]string `yaml:"env,omitempty" json:"env,omitempty"`
}

// WorkflowJob groups ordered steps under a runner.
type WorkflowJob struct {
	ID          string         `yaml:"id" json:"id"`
	Name        string         `yaml:"name" json:"name"`
	RunsOn      string         `yaml:"runs-on" json:"runs-on"`
	Environment string         `yaml:"environment,omitempty" json:"environment,omitempty"`
	Needs       []string       `yaml:"needs,omitempty" json:"needs,omitempty"`
	Steps       []WorkflowStep `yaml:"steps" json:"steps"`
}

// WorkflowModel is the complete generated workflow: the engine's output.
type WorkflowModel struct {
	Name       string                     `yaml:"name" json:"name"`
	Jobs       []WorkflowJob              `yaml:"jobs" json:"jobs"`
	Detections []analyzer.DetectionResult `yaml:"detections,omitempty" json:"detections,omitempty"`
}

// DeploymentStrategy selects the command template for deployment steps.
type DeploymentStrategy string

const (
	StrategyStatic      DeploymentStrategy = "static"
	StrategyContainer   DeploymentStrategy = "container"
	StrategyServerless  DeploymentStrategy = "serverless"
	StrategyTraditional DeploymentStrategy = "traditional"
)

// ValidStrategy reports whether s names a supported deployment strategy.
func ValidStrategy(s DeploymentStrategy) bool {
	switch s {
	case StrategyStatic, StrategyContainer, StrategyServerless, StrategyTraditional:
		return true
	}
	return false
}

// GenerateOptions controls which optional environment steps are emitted.
type GenerateOptions struct {
	ValidateSecrets         bool
	IncludeOIDC             bool
	IncludeConfigGeneration bool
	DeploymentStrategy      DeploymentStrategy
}

// RunOptions configures a single engine run.
type RunOptions struct {
	Environments []EnvironmentConfig
	Generate     GenerateOptions

	// StageTimeout overrides the per-stage timeout when positive.
	StageTimeout time.Duration
}

// ReadmeParser is the external tokenizer collaborator the Parsing stage
// calls. The default implementation wraps pkg/parser.
type ReadmeParser interface {
	Parse(ctx context.Context, content string) (*parser.ReadmeContent, error)
}

// ReadmeParserFunc adapts a function to the ReadmeParser interface.
type ReadmeParserFunc func(ctx context.Context, content string) (*parser.ReadmeContent, error)

// Parse implements ReadmeParser
func (f ReadmeParserFunc) Parse(ctx context.Context, content string) (*parser.ReadmeContent, error) {
	return f(ctx, content)
}
