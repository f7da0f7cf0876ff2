package workflow

import (
	"fmt"
	"sort"
	"strings"

	"github.com/readmeforge/readmeforge/pkg/analyzer"
	"github.com/readmeforge/readmeforge/pkg/logger"
	"github.com/readmeforge/readmeforge/pkg/parser"
)

var generatorLog = logger.New("workflow:generator")

// Generator assembles the workflow model from detection results and
// environment configuration. Deployment jobs are produced through the
// environment step generator.
type Generator struct {
	envSteps *EnvironmentStepGenerator
}

// NewGenerator creates a generator backed by the given environment
// manager.
func NewGenerator(manager *EnvironmentManager) *Generator {
	return &Generator{envSteps: NewEnvironmentStepGenerator(manager)}
}

// EnvironmentSteps exposes the underlying environment step generator.
func (g *Generator) EnvironmentSteps() *EnvironmentStepGenerator {
	return g.envSteps
}

// Generate builds the complete workflow model. Detections drive the build
// job; environments drive the deploy job. An empty detection set still
// yields a valid model with a checkout-only build job.
func (g *Generator) Generate(content *parser.ReadmeContent, detections []analyzer.DetectionResult, options RunOptions) (*WorkflowModel, error) {
	name := "CI"
	if content != nil && content.Title != "" {
		name = content.Title
	}

	generatorLog.Printf("Generating workflow model: name=%q, detections=%d, environments=%d",
		name, len(detections), len(options.Environments))

	model := &WorkflowModel{
		Name:       name,
		Detections: detections,
	}

	buildJob := WorkflowJob{
		ID:     "build",
		Name:   "Build and test",
		RunsOn: "ubuntu-latest",
		Steps:  g.buildSteps(detections),
	}
	model.Jobs = append(model.Jobs, buildJob)

	if len(options.Environments) > 0 {
		deployJob, err := g.deployJob(options)
		if err != nil {
			return nil, err
		}
		model.Jobs = append(model.Jobs, deployJob)
	}

	generatorLog.Printf("Workflow model generated: jobs=%d", len(model.Jobs))
	return model, nil
}

// buildSteps turns detection commands into build steps, strongest
// detection first. Zero-confidence detections contribute nothing.
func (g *Generator) buildSteps(detections []analyzer.DetectionResult) []WorkflowStep {
	steps := []WorkflowStep{{
		ID:   "checkout",
		Name: "Checkout repository",
		Uses: "actions/checkout@v5",
	}}

	ranked := append([]analyzer.DetectionResult(nil), detections...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Confidence > ranked[j].Confidence
	})

	for _, detection := range ranked {
		if detection.Confidence <= 0 || len(detection.Commands) == 0 {
			continue
		}
		steps = append(steps, WorkflowStep{
			ID:   fmt.Sprintf("run-%s", detection.Analyzer),
			Name: fmt.Sprintf("Run %s commands", detection.Analyzer),
			Run:  strings.Join(detection.Commands, "\n") + "\n",
		})
	}

	return steps
}

// deployJob composes environment setup steps and deployment steps into a
// single deploy job, honoring approval requirements via the job
// environment field.
func (g *Generator) deployJob(options RunOptions) (WorkflowJob, error) {
	strategy := options.Generate.DeploymentStrategy
	if strategy == "" {
		strategy = StrategyContainer
	}
	if !ValidStrategy(strategy) {
		return WorkflowJob{}, fmt.Errorf("unknown deployment strategy '%s'", strategy)
	}

	steps := g.envSteps.GenerateEnvironmentSetupSteps(options.Environments, options.Generate)
	deploySteps, err := g.envSteps.GenerateDeploymentSteps(options.Environments, strategy)
	if err != nil {
		return WorkflowJob{}, err
	}
	steps = append(steps, deploySteps...)

	job := WorkflowJob{
		ID:     "deploy",
		Name:   "Deploy",
		RunsOn: "ubuntu-latest",
		Needs:  []string{"build"},
		Steps:  steps,
	}

	// Approval gating applies at the job level through the highest
	// precedence environment requiring it.
	for _, env := range byPrecedence(options.Environments) {
		if env.ApprovalRequired {
			job.Environment = env.Name
			break
		}
	}

	return job, nil
}
