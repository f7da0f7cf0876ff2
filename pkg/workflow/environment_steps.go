package workflow

import (
	"fmt"
	"sort"
	"strings"

	"github.com/readmeforge/readmeforge/pkg/logger"
)

var envStepsLog = logger.New("workflow:environment_steps")

// detectionStepID is the step id every environment-scoped conditional
// guard refers back to.
const detectionStepID = "detect-environment"

// tierBranches maps an environment tier to the branch that activates it.
var tierBranches = map[EnvironmentTier]string{
	TierProduction:  "refs/heads/main",
	TierStaging:     "refs/heads/staging",
	TierDevelopment: "refs/heads/develop",
}

// EnvironmentStepGenerator emits ordered, conditionally gated workflow
// steps from environment declarations and the environment manager's
// secret/variable/OIDC/template stores.
type EnvironmentStepGenerator struct {
	manager *EnvironmentManager
}

// NewEnvironmentStepGenerator creates a generator reading from manager.
func NewEnvironmentStepGenerator(manager *EnvironmentManager) *EnvironmentStepGenerator {
	return &EnvironmentStepGenerator{manager: manager}
}

// environmentCondition is the guard expression convention shared by every
// environment-scoped step.
func environmentCondition(name string) string {
	return fmt.Sprintf("steps.%s.outputs.environment == '%s'", detectionStepID, name)
}

// byPrecedence returns environments ordered production > staging >
// development, stable within a tier.
func byPrecedence(environments []EnvironmentConfig) []EnvironmentConfig {
	ordered := append([]EnvironmentConfig(nil), environments...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return tierPrecedence(ordered[i].Tier) > tierPrecedence(ordered[j].Tier)
	})
	return ordered
}

// GenerateEnvironmentSetupSteps produces the setup steps for the given
// environments. The detection step is always emitted and always first;
// every other step is emitted only when the environment has applicable
// configuration and the corresponding option is enabled. There are no
// empty no-op steps.
func (g *EnvironmentStepGenerator) GenerateEnvironmentSetupSteps(environments []EnvironmentConfig, options GenerateOptions) []WorkflowStep {
	envStepsLog.Printf("Generating environment setup steps: environments=%d, validate_secrets=%v, include_oidc=%v",
		len(environments), options.ValidateSecrets, options.IncludeOIDC)

	ordered := byPrecedence(environments)
	steps := []WorkflowStep{g.detectionStep(ordered)}

	for _, env := range ordered {
		if options.ValidateSecrets {
			if step, ok := g.secretValidationStep(env); ok {
				steps = append(steps, step)
			}
		}
		if options.IncludeOIDC {
			if step, ok := g.oidcStep(env); ok {
				steps = append(steps, step)
			}
		}
		if step, ok := g.environmentFileStep(env); ok {
			steps = append(steps, step)
		}
		if options.IncludeConfigGeneration {
			if step, ok := g.configTemplateStep(env); ok {
				steps = append(steps, step)
			}
		}
	}

	envStepsLog.Printf("Environment setup steps generated: count=%d", len(steps))
	return steps
}

// detectionStep resolves the active environment name from the branch ref,
// checking environments in fixed precedence order so production wins over
// staging, and staging over development.
func (g *EnvironmentStepGenerator) detectionStep(ordered []EnvironmentConfig) WorkflowStep {
	var script strings.Builder
	script.WriteString("case \"$GITHUB_REF\" in\n")
	seen := make(map[string]bool)
	fallback := ""
	for _, env := range ordered {
		branch, ok := tierBranches[env.Tier]
		if !ok || seen[branch] {
			continue
		}
		seen[branch] = true
		fmt.Fprintf(&script, "  %s)\n    echo \"environment=%s\" >> \"$GITHUB_OUTPUT\"\n    ;;\n", branch, env.Name)
		fallback = env.Name // Lowest-precedence environment is the default
	}
	fmt.Fprintf(&script, "  *)\n    echo \"environment=%s\" >> \"$GITHUB_OUTPUT\"\n    ;;\nesac\n", fallback)

	return WorkflowStep{
		ID:   detectionStepID,
		Name: "Determine deployment environment",
		Run:  script.String(),
	}
}

// secretValidationStep is emitted only when the environment declares at
// least one required secret. Secret values are bound from the secret
// store, never inlined.
func (g *EnvironmentStepGenerator) secretValidationStep(env EnvironmentConfig) (WorkflowStep, bool) {
	names := g.requiredSecrets(env)
	if len(names) == 0 {
		return WorkflowStep{}, false
	}

	var script strings.Builder
	envMap := make(map[string]string, len(names))
	for _, name := range names {
		envMap[name] = fmt.Sprintf("${{ secrets.%s }}", name)
		fmt.Fprintf(&script, "if [ -z \"$%s\" ]; then\n  echo \"::error::Secret %s is not set for %s\"\n  exit 1\nfi\n",
			name, name, env.Name)
	}

	return WorkflowStep{
		ID:   fmt.Sprintf("validate-secrets-%s", env.Name),
		Name: fmt.Sprintf("Validate %s secrets", env.Name),
		If:   environmentCondition(env.Name),
		Run:  script.String(),
		Env:  envMap,
	}, true
}

// requiredSecrets unions the environment's own secret list with manager
// secrets declared required for it, deduplicated, in stable order.
func (g *EnvironmentStepGenerator) requiredSecrets(env EnvironmentConfig) []string {
	seen := make(map[string]bool)
	var names []string
	for _, name := range env.Secrets {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	managed := g.manager.SecretsFor(env.Name)
	sort.Slice(managed, func(i, j int) bool { return managed[i].Name < managed[j].Name })
	for _, secret := range managed {
		if secret.Required && !seen[secret.Name] {
			seen[secret.Name] = true
			names = append(names, secret.Name)
		}
	}
	return names
}

// oidcStep emits the provider-specific authentication step when an OIDC
// configuration is registered for the environment.
func (g *EnvironmentStepGenerator) oidcStep(env EnvironmentConfig) (WorkflowStep, bool) {
	config, ok := g.manager.OIDCFor(env.Name)
	if !ok {
		return WorkflowStep{}, false
	}

	step := WorkflowStep{
		ID: fmt.Sprintf("oidc-auth-%s", env.Name),
		If: environmentCondition(env.Name),
	}

	switch config.Provider {
	case OIDCProviderAWS:
		step.Name = fmt.Sprintf("Configure AWS credentials for %s", env.Name)
		step.Uses = "aws-actions/configure-aws-credentials@v4"
		step.With = map[string]string{
			"role-to-assume": config.RoleArn,
			"aws-region":     config.Region,
		}
		if config.Audience != "" {
			step.With["audience"] = config.Audience
		}
	case OIDCProviderAzure:
		step.Name = fmt.Sprintf("Azure login for %s", env.Name)
		step.Uses = "azure/login@v2"
		step.With = map[string]string{
			"client-id":       "${{ secrets.AZURE_CLIENT_ID }}",
			"tenant-id":       "${{ secrets.AZURE_TENANT_ID }}",
			"subscription-id": config.SubscriptionID,
		}
	case OIDCProviderGCP:
		step.Name = fmt.Sprintf("Authenticate to Google Cloud for %s", env.Name)
		step.Uses = "google-github-actions/auth@v2"
		step.With = map[string]string{
			"workload_identity_provider": config.WorkloadIdentityProvider,
			"service_account":            config.ServiceAccount,
		}
	default:
		envStepsLog.Printf("Skipping OIDC step, unknown provider: environment=%s, provider=%s",
			env.Name, config.Provider)
		return WorkflowStep{}, false
	}

	return step, true
}

// environmentFileStep materializes a .env file from the environment's
// declared variables and secrets. Variables resolve as override-source ||
// fallback-source; secrets resolve strictly from the secret store.
func (g *EnvironmentStepGenerator) environmentFileStep(env EnvironmentConfig) (WorkflowStep, bool) {
	envMap := make(map[string]string)

	varNames := make([]string, 0, len(env.Variables))
	for name := range env.Variables {
		varNames = append(varNames, name)
	}
	sort.Strings(varNames)
	for _, name := range varNames {
		envMap[name] = fmt.Sprintf("${{ vars.%s || '%s' }}", name, env.Variables[name])
	}

	managed := g.manager.VariablesFor(env.Name)
	sort.Slice(managed, func(i, j int) bool { return managed[i].Name < managed[j].Name })
	for _, variable := range managed {
		if _, declared := envMap[variable.Name]; !declared {
			envMap[variable.Name] = fmt.Sprintf("${{ vars.%s || '%s' }}", variable.Name, variable.Value)
			varNames = append(varNames, variable.Name)
		}
	}

	secretNames := g.requiredSecrets(env)
	for _, name := range secretNames {
		envMap[name] = fmt.Sprintf("${{ secrets.%s }}", name)
	}

	if len(envMap) == 0 {
		return WorkflowStep{}, false
	}

	keys := make([]string, 0, len(envMap))
	written := make(map[string]bool)
	for _, name := range append(append([]string(nil), varNames...), secretNames...) {
		if !written[name] {
			written[name] = true
			keys = append(keys, name)
		}
	}
	var script strings.Builder
	script.WriteString("{\n")
	for _, name := range keys {
		fmt.Fprintf(&script, "  echo \"%s=${%s}\"\n", name, name)
	}
	fmt.Fprintf(&script, "} > .env.%s\n", env.Name)

	return WorkflowStep{
		ID:   fmt.Sprintf("env-file-%s", env.Name),
		Name: fmt.Sprintf("Create %s environment file", env.Name),
		If:   environmentCondition(env.Name),
		Run:  script.String(),
		Env:  envMap,
	}, true
}

// configTemplateStep renders registered config templates by substituting
// their declared placeholder tokens.
func (g *EnvironmentStepGenerator) configTemplateStep(env EnvironmentConfig) (WorkflowStep, bool) {
	templates := g.manager.TemplatesFor(env.Name)
	if len(templates) == 0 {
		return WorkflowStep{}, false
	}

	var script strings.Builder
	for _, tmpl := range templates {
		fmt.Fprintf(&script, "cp \"%s\" \"%s.rendered\"\n", tmpl.Path, tmpl.Path)
		tokens := make([]string, 0, len(tmpl.Placeholders))
		for token := range tmpl.Placeholders {
			tokens = append(tokens, token)
		}
		sort.Strings(tokens)
		for _, token := range tokens {
			fmt.Fprintf(&script, "sed -i \"s|{{%s}}|%s|g\" \"%s.rendered\"\n",
				token, tmpl.Placeholders[token], tmpl.Path)
		}
	}

	return WorkflowStep{
		ID:   fmt.Sprintf("render-config-%s", env.Name),
		Name: fmt.Sprintf("Render %s configuration templates", env.Name),
		If:   environmentCondition(env.Name),
		Run:  script.String(),
	}, true
}

// deploymentCommands maps each strategy to its command template. The
// template receives the environment name.
var deploymentCommands = map[DeploymentStrategy]func(env EnvironmentConfig) string{
	StrategyStatic: func(env EnvironmentConfig) string {
		return strings.Join([]string{
			"npm run build --if-present",
			fmt.Sprintf("aws s3 sync ./dist \"s3://${DEPLOY_BUCKET_%s}\" --delete", strings.ToUpper(env.Name)),
		}, "\n") + "\n"
	},
	StrategyContainer: func(env EnvironmentConfig) string {
		return strings.Join([]string{
			fmt.Sprintf("docker build -t \"$IMAGE_REGISTRY/$IMAGE_NAME:%s-$GITHUB_SHA\" .", env.Name),
			fmt.Sprintf("docker push \"$IMAGE_REGISTRY/$IMAGE_NAME:%s-$GITHUB_SHA\"", env.Name),
		}, "\n") + "\n"
	},
	StrategyServerless: func(env EnvironmentConfig) string {
		return fmt.Sprintf("npx serverless deploy --stage %s\n", env.Name)
	},
	StrategyTraditional: func(env EnvironmentConfig) string {
		return strings.Join([]string{
			fmt.Sprintf("rsync -az --delete ./ \"$DEPLOY_HOST_%s:$DEPLOY_PATH\"", strings.ToUpper(env.Name)),
			fmt.Sprintf("ssh \"$DEPLOY_HOST_%s\" 'sudo systemctl restart app'", strings.ToUpper(env.Name)),
		}, "\n") + "\n"
	},
}

// GenerateDeploymentSteps emits one deployment step per environment for
// the requested strategy, each gated by the same environment-detection
// condition convention the setup steps use.
func (g *EnvironmentStepGenerator) GenerateDeploymentSteps(environments []EnvironmentConfig, strategy DeploymentStrategy) ([]WorkflowStep, error) {
	command, ok := deploymentCommands[strategy]
	if !ok {
		return nil, fmt.Errorf("unknown deployment strategy '%s'", strategy)
	}

	envStepsLog.Printf("Generating deployment steps: environments=%d, strategy=%s", len(environments), strategy)

	var steps []WorkflowStep
	for _, env := range byPrecedence(environments) {
		steps = append(steps, WorkflowStep{
			ID:   fmt.Sprintf("deploy-%s", env.Name),
			Name: fmt.Sprintf("Deploy to %s (%s)", env.Name, strategy),
			If:   environmentCondition(env.Name),
			Run:  command(env),
		})
	}
	return steps, nil
}
