//go:build !integration

package workflow

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEnvironments() []EnvironmentConfig {
	return []EnvironmentConfig{
		{Name: "development", Tier: TierDevelopment},
		{Name: "production", Tier: TierProduction, Secrets: []string{"DATABASE_URL"}, ApprovalRequired: true},
		{Name: "staging", Tier: TierStaging, Secrets: []string{"STAGING_TOKEN"}},
	}
}

func TestSetupStepsAlwaysStartWithExactlyOneDetectionStep(t *testing.T) {
	generator := NewEnvironmentStepGenerator(NewEnvironmentManager())

	for _, options := range []GenerateOptions{
		{},
		{ValidateSecrets: true},
		{ValidateSecrets: true, IncludeOIDC: true, IncludeConfigGeneration: true},
	} {
		steps := generator.GenerateEnvironmentSetupSteps(testEnvironments(), options)

		require.NotEmpty(t, steps)
		assert.Equal(t, detectionStepID, steps[0].ID, "detection step must be first")

		detections := 0
		for _, step := range steps {
			if step.ID == detectionStepID {
				detections++
			}
		}
		assert.Equal(t, 1, detections, "exactly one detection step")
	}
}

func TestDetectionStepChecksEnvironmentsByPrecedence(t *testing.T) {
	generator := NewEnvironmentStepGenerator(NewEnvironmentManager())

	steps := generator.GenerateEnvironmentSetupSteps(testEnvironments(), GenerateOptions{})
	script := steps[0].Run

	prodIdx := strings.Index(script, "environment=production")
	stagingIdx := strings.Index(script, "environment=staging")
	devIdx := strings.Index(script, "environment=development")
	require.True(t, prodIdx >= 0 && stagingIdx >= 0 && devIdx >= 0, "all environments present in script:\n%s", script)
	assert.Less(t, prodIdx, stagingIdx, "production resolves before staging")
	assert.Less(t, stagingIdx, devIdx, "staging resolves before development")
}

func TestSecretValidationStepEmittedOnlyWhenApplicable(t *testing.T) {
	generator := NewEnvironmentStepGenerator(NewEnvironmentManager())

	tests := []struct {
		name            string
		environments    []EnvironmentConfig
		validateSecrets bool
		wantStep        bool
	}{
		{
			name:            "required secret and validation enabled",
			environments:    []EnvironmentConfig{{Name: "production", Tier: TierProduction, Secrets: []string{"DATABASE_URL"}}},
			validateSecrets: true,
			wantStep:        true,
		},
		{
			name:            "required secret but validation disabled",
			environments:    []EnvironmentConfig{{Name: "production", Tier: TierProduction, Secrets: []string{"DATABASE_URL"}}},
			validateSecrets: false,
			wantStep:        false,
		},
		{
			name:            "validation enabled but no secrets",
			environments:    []EnvironmentConfig{{Name: "production", Tier: TierProduction}},
			validateSecrets: true,
			wantStep:        false,
		},
		{
			name:            "neither secrets nor validation",
			environments:    []EnvironmentConfig{{Name: "production", Tier: TierProduction}},
			validateSecrets: false,
			wantStep:        false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			steps := generator.GenerateEnvironmentSetupSteps(tt.environments, GenerateOptions{ValidateSecrets: tt.validateSecrets})

			found := false
			for _, step := range steps {
				if strings.HasPrefix(step.ID, "validate-secrets-") {
					found = true
				}
			}
			assert.Equal(t, tt.wantStep, found)
		})
	}
}

// The production secret-validation scenario: the step mentions the
// environment by name, is guarded by the production detection condition,
// and binds the secret from the secret store rather than inlining it.
func TestProductionSecretValidationScenario(t *testing.T) {
	generator := NewEnvironmentStepGenerator(NewEnvironmentManager())

	environments := []EnvironmentConfig{{
		Name:             "production",
		Tier:             TierProduction,
		Secrets:          []string{"DATABASE_URL"},
		ApprovalRequired: true,
	}}
	steps := generator.GenerateEnvironmentSetupSteps(environments, GenerateOptions{ValidateSecrets: true})

	var step *WorkflowStep
	for i := range steps {
		if steps[i].ID == "validate-secrets-production" {
			step = &steps[i]
		}
	}
	require.NotNil(t, step, "expected a production secret-validation step")

	assert.Contains(t, step.Name, "Validate production secrets")
	assert.Equal(t, environmentCondition("production"), step.If)
	assert.Equal(t, "${{ secrets.DATABASE_URL }}", step.Env["DATABASE_URL"])
	assert.NotContains(t, step.Run, "${{ secrets.", "secret values must be bound via env, not inlined in the script")
}

func TestOIDCStepFieldMapping(t *testing.T) {
	tests := []struct {
		name   string
		config OIDCConfig
		uses   string
		with   map[string]string
	}{
		{
			name: "aws",
			config: OIDCConfig{
				Provider: OIDCProviderAWS,
				RoleArn:  "arn:aws:iam::123456789012:role/deploy",
				Audience: "sts.amazonaws.com",
				Region:   "us-east-1",
			},
			uses: "aws-actions/configure-aws-credentials@v4",
			with: map[string]string{
				"role-to-assume": "arn:aws:iam::123456789012:role/deploy",
				"aws-region":     "us-east-1",
				"audience":       "sts.amazonaws.com",
			},
		},
		{
			name: "azure",
			config: OIDCConfig{
				Provider:       OIDCProviderAzure,
				SubscriptionID: "00000000-0000-0000-0000-000000000000",
			},
			uses: "azure/login@v2",
			with: map[string]string{
				"client-id":       "${{ secrets.AZURE_CLIENT_ID }}",
				"tenant-id":       "${{ secrets.AZURE_TENANT_ID }}",
				"subscription-id": "00000000-0000-0000-0000-000000000000",
			},
		},
		{
			name: "gcp",
			config: OIDCConfig{
				Provider:                 OIDCProviderGCP,
				WorkloadIdentityProvider: "projects/1/locations/global/workloadIdentityPools/p/providers/gh",
				ServiceAccount:           "deployer@project.iam.gserviceaccount.com",
			},
			uses: "google-github-actions/auth@v2",
			with: map[string]string{
				"workload_identity_provider": "projects/1/locations/global/workloadIdentityPools/p/providers/gh",
				"service_account":            "deployer@project.iam.gserviceaccount.com",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager := NewEnvironmentManager()
			manager.RegisterOIDC("production", tt.config)
			generator := NewEnvironmentStepGenerator(manager)

			environments := []EnvironmentConfig{{Name: "production", Tier: TierProduction}}
			steps := generator.GenerateEnvironmentSetupSteps(environments, GenerateOptions{IncludeOIDC: true})

			var step *WorkflowStep
			for i := range steps {
				if steps[i].ID == "oidc-auth-production" {
					step = &steps[i]
				}
			}
			require.NotNil(t, step, "expected an OIDC step")
			assert.Equal(t, tt.uses, step.Uses)
			assert.Equal(t, tt.with, step.With)
			assert.Equal(t, environmentCondition("production"), step.If)
		})
	}
}

func TestOIDCStepOmittedWithoutConfigOrOption(t *testing.T) {
	manager := NewEnvironmentManager()
	manager.RegisterOIDC("production", OIDCConfig{Provider: OIDCProviderAWS, RoleArn: "arn:role"})
	generator := NewEnvironmentStepGenerator(manager)
	environments := []EnvironmentConfig{{Name: "production", Tier: TierProduction}}

	// Option disabled: no step even though config exists
	steps := generator.GenerateEnvironmentSetupSteps(environments, GenerateOptions{})
	for _, step := range steps {
		assert.NotContains(t, step.ID, "oidc-auth")
	}

	// Option enabled but no config for this environment
	steps = NewEnvironmentStepGenerator(NewEnvironmentManager()).
		GenerateEnvironmentSetupSteps(environments, GenerateOptions{IncludeOIDC: true})
	for _, step := range steps {
		assert.NotContains(t, step.ID, "oidc-auth")
	}
}

func TestEnvironmentFileStepResolution(t *testing.T) {
	manager := NewEnvironmentManager()
	manager.RegisterVariable(VariableConfig{
		Name:         "LOG_LEVEL",
		Value:        "info",
		Environments: []string{"production"},
	})
	generator := NewEnvironmentStepGenerator(manager)

	environments := []EnvironmentConfig{{
		Name:      "production",
		Tier:      TierProduction,
		Secrets:   []string{"DATABASE_URL"},
		Variables: map[string]string{"API_URL": "https://api.example.com"},
	}}
	steps := generator.GenerateEnvironmentSetupSteps(environments, GenerateOptions{})

	var step *WorkflowStep
	for i := range steps {
		if steps[i].ID == "env-file-production" {
			step = &steps[i]
		}
	}
	require.NotNil(t, step)

	// Variables resolve as override || fallback
	assert.Equal(t, "${{ vars.API_URL || 'https://api.example.com' }}", step.Env["API_URL"])
	assert.Equal(t, "${{ vars.LOG_LEVEL || 'info' }}", step.Env["LOG_LEVEL"])
	// Secrets resolve strictly from the secret store
	assert.Equal(t, "${{ secrets.DATABASE_URL }}", step.Env["DATABASE_URL"])
	assert.Contains(t, step.Run, "> .env.production")
}

func TestEnvironmentFileStepOmittedWhenEmpty(t *testing.T) {
	generator := NewEnvironmentStepGenerator(NewEnvironmentManager())

	steps := generator.GenerateEnvironmentSetupSteps(
		[]EnvironmentConfig{{Name: "development", Tier: TierDevelopment}}, GenerateOptions{})
	for _, step := range steps {
		assert.NotContains(t, step.ID, "env-file")
	}
}

func TestSecretScopingNeverWidens(t *testing.T) {
	manager := NewEnvironmentManager()
	manager.RegisterSecret(SecretConfig{
		Name:         "PROD_ONLY_KEY",
		Required:     true,
		Environments: []string{"production"},
		Type:         "token",
	})
	generator := NewEnvironmentStepGenerator(manager)

	environments := []EnvironmentConfig{
		{Name: "production", Tier: TierProduction},
		{Name: "staging", Tier: TierStaging},
	}
	steps := generator.GenerateEnvironmentSetupSteps(environments, GenerateOptions{ValidateSecrets: true})

	for _, step := range steps {
		if step.ID == "validate-secrets-staging" || step.ID == "env-file-staging" {
			_, bound := step.Env["PROD_ONLY_KEY"]
			assert.False(t, bound, "production secret must not reach staging step %s", step.ID)
		}
	}
}

func TestConfigTemplateStep(t *testing.T) {
	manager := NewEnvironmentManager()
	manager.RegisterConfigTemplate("production", ConfigTemplate{
		Name:         "appconfig",
		Path:         "config/app.yml",
		Placeholders: map[string]string{"REGION": "us-east-1"},
	})
	generator := NewEnvironmentStepGenerator(manager)
	environments := []EnvironmentConfig{{Name: "production", Tier: TierProduction}}

	// Disabled: omitted
	steps := generator.GenerateEnvironmentSetupSteps(environments, GenerateOptions{})
	for _, step := range steps {
		assert.NotContains(t, step.ID, "render-config")
	}

	// Enabled: emitted with placeholder substitution
	steps = generator.GenerateEnvironmentSetupSteps(environments, GenerateOptions{IncludeConfigGeneration: true})
	var step *WorkflowStep
	for i := range steps {
		if steps[i].ID == "render-config-production" {
			step = &steps[i]
		}
	}
	require.NotNil(t, step)
	assert.Contains(t, step.Run, "config/app.yml")
	assert.Contains(t, step.Run, "{{REGION}}")
	assert.Equal(t, environmentCondition("production"), step.If)
}

func TestGenerateDeploymentSteps(t *testing.T) {
	generator := NewEnvironmentStepGenerator(NewEnvironmentManager())
	environments := testEnvironments()

	for _, strategy := range []DeploymentStrategy{StrategyStatic, StrategyContainer, StrategyServerless, StrategyTraditional} {
		steps, err := generator.GenerateDeploymentSteps(environments, strategy)
		require.NoError(t, err)
		require.Len(t, steps, len(environments))

		// Precedence order, one step per environment, all guarded
		assert.Equal(t, "deploy-production", steps[0].ID)
		assert.Equal(t, "deploy-staging", steps[1].ID)
		assert.Equal(t, "deploy-development", steps[2].ID)
		for _, step := range steps {
			assert.NotEmpty(t, step.If)
			assert.NotEmpty(t, step.Run)
		}
	}
}

func TestGenerateDeploymentStepsRejectsUnknownStrategy(t *testing.T) {
	generator := NewEnvironmentStepGenerator(NewEnvironmentManager())

	_, err := generator.GenerateDeploymentSteps(testEnvironments(), DeploymentStrategy("blue-green"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "blue-green")
}
