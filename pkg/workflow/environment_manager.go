package workflow

import (
	"fmt"
	"sync"

	"github.com/readmeforge/readmeforge/pkg/logger"
)

var envManagerLog = logger.New("workflow:environment_manager")

// EnvironmentTier orders environments; precedence is fixed as
// production > staging > development.
type EnvironmentTier string

const (
	TierDevelopment EnvironmentTier = "development"
	TierStaging     EnvironmentTier = "staging"
	TierProduction  EnvironmentTier = "production"
)

// tierPrecedence returns the conditional fallthrough rank; higher wins.
func tierPrecedence(tier EnvironmentTier) int {
	switch tier {
	case TierProduction:
		return 3
	case TierStaging:
		return 2
	case TierDevelopment:
		return 1
	}
	return 0
}

// EnvironmentConfig is the caller-supplied declaration of one deployment
// environment. Read-only to this package.
type EnvironmentConfig struct {
	Name               string             `yaml:"name" json:"name"`
	Tier               EnvironmentTier    `yaml:"tier" json:"tier"`
	ApprovalRequired   bool               `yaml:"approval_required" json:"approval_required"`
	Secrets            []string           `yaml:"secrets,omitempty" json:"secrets,omitempty"`
	Variables          map[string]string  `yaml:"variables,omitempty" json:"variables,omitempty"`
	DeploymentStrategy DeploymentStrategy `yaml:"deployment_strategy,omitempty" json:"deployment_strategy,omitempty"`
	RollbackEnabled    bool               `yaml:"rollback_enabled" json:"rollback_enabled"`
}

// SecretConfig declares a secret, scoped strictly to the environments it
// names. A secret never becomes visible to steps of other environments.
type SecretConfig struct {
	Name         string   `yaml:"name" json:"name"`
	Required     bool     `yaml:"required" json:"required"`
	Environments []string `yaml:"environments,omitempty" json:"environments,omitempty"`
	Type         string   `yaml:"type,omitempty" json:"type,omitempty"` // Semantic tag: token, connection_string, ...
}

// VariableConfig declares a non-secret variable with a fallback value.
type VariableConfig struct {
	Name         string   `yaml:"name" json:"name"`
	Value        string   `yaml:"value,omitempty" json:"value,omitempty"`
	Required     bool     `yaml:"required" json:"required"`
	Environments []string `yaml:"environments,omitempty" json:"environments,omitempty"`
	Type         string   `yaml:"type,omitempty" json:"type,omitempty"`
}

// OIDCProvider names a supported workload-identity provider.
type OIDCProvider string

const (
	OIDCProviderAWS   OIDCProvider = "aws"
	OIDCProviderAzure OIDCProvider = "azure"
	OIDCProviderGCP   OIDCProvider = "gcp"
)

// OIDCConfig carries provider-specific workload-identity federation
// settings for one environment.
type OIDCConfig struct {
	Provider OIDCProvider `yaml:"provider" json:"provider"`

	// aws
	RoleArn  string `yaml:"role_arn,omitempty" json:"role_arn,omitempty"`
	Audience string `yaml:"audience,omitempty" json:"audience,omitempty"`
	Region   string `yaml:"region,omitempty" json:"region,omitempty"`

	// azure
	SubscriptionID string `yaml:"subscription_id,omitempty" json:"subscription_id,omitempty"`

	// gcp
	WorkloadIdentityProvider string `yaml:"workload_identity_provider,omitempty" json:"workload_identity_provider,omitempty"`
	ServiceAccount           string `yaml:"service_account,omitempty" json:"service_account,omitempty"`
}

// ConfigTemplate declares a file rendered from a template by substituting
// placeholder tokens.
type ConfigTemplate struct {
	Name         string            `yaml:"name" json:"name"`
	Path         string            `yaml:"path" json:"path"`
	Placeholders map[string]string `yaml:"placeholders,omitempty" json:"placeholders,omitempty"`
}

// EnvironmentManager is a registration and query store for per-environment
// secret, variable, OIDC, and config-template declarations. Re-registering
// a name within the same scope overwrites the previous entry and records a
// warning; it is never an error.
type EnvironmentManager struct {
	mu        sync.RWMutex
	secrets   map[string]SecretConfig
	variables map[string]VariableConfig
	oidc      map[string]OIDCConfig        // keyed by environment name
	templates map[string][]ConfigTemplate  // keyed by environment name
	warnings  []string
}

// NewEnvironmentManager creates an empty environment manager.
func NewEnvironmentManager() *EnvironmentManager {
	return &EnvironmentManager{
		secrets:   make(map[string]SecretConfig),
		variables: make(map[string]VariableConfig),
		oidc:      make(map[string]OIDCConfig),
		templates: make(map[string][]ConfigTemplate),
	}
}

// RegisterSecret stores a secret declaration. Last write wins.
func (m *EnvironmentManager) RegisterSecret(config SecretConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.secrets[config.Name]; exists {
		m.warnings = append(m.warnings,
			fmt.Sprintf("secret '%s' re-registered, previous declaration overwritten", config.Name))
		envManagerLog.Printf("Overwriting secret declaration: name=%s", config.Name)
	}
	m.secrets[config.Name] = config
}

// RegisterVariable stores a variable declaration. Last write wins.
func (m *EnvironmentManager) RegisterVariable(config VariableConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.variables[config.Name]; exists {
		m.warnings = append(m.warnings,
			fmt.Sprintf("variable '%s' re-registered, previous declaration overwritten", config.Name))
		envManagerLog.Printf("Overwriting variable declaration: name=%s", config.Name)
	}
	m.variables[config.Name] = config
}

// RegisterOIDC stores the OIDC configuration for an environment. Last
// write wins.
func (m *EnvironmentManager) RegisterOIDC(environment string, config OIDCConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.oidc[environment]; exists {
		m.warnings = append(m.warnings,
			fmt.Sprintf("OIDC configuration for environment '%s' re-registered, previous declaration overwritten", environment))
		envManagerLog.Printf("Overwriting OIDC configuration: environment=%s", environment)
	}
	m.oidc[environment] = config
}

// RegisterConfigTemplate stores a config template for an environment.
// Re-registering the same template name overwrites it in place.
func (m *EnvironmentManager) RegisterConfigTemplate(environment string, template ConfigTemplate) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, existing := range m.templates[environment] {
		if existing.Name == template.Name {
			m.warnings = append(m.warnings,
				fmt.Sprintf("config template '%s' for environment '%s' re-registered, previous declaration overwritten",
					template.Name, environment))
			envManagerLog.Printf("Overwriting config template: environment=%s, name=%s", environment, template.Name)
			m.templates[environment][i] = template
			return
		}
	}
	m.templates[environment] = append(m.templates[environment], template)
}

// SecretsFor returns the secret declarations scoped to the named
// environment, in no particular order. Scoping is strict: a secret with no
// declared environments applies to none.
func (m *EnvironmentManager) SecretsFor(environment string) []SecretConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []SecretConfig
	for _, secret := range m.secrets {
		for _, env := range secret.Environments {
			if env == environment {
				out = append(out, secret)
				break
			}
		}
	}
	return out
}

// VariablesFor returns the variable declarations scoped to the named
// environment.
func (m *EnvironmentManager) VariablesFor(environment string) []VariableConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []VariableConfig
	for _, variable := range m.variables {
		for _, env := range variable.Environments {
			if env == environment {
				out = append(out, variable)
				break
			}
		}
	}
	return out
}

// OIDCFor returns the OIDC configuration for the environment, if any.
func (m *EnvironmentManager) OIDCFor(environment string) (OIDCConfig, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	config, ok := m.oidc[environment]
	return config, ok
}

// TemplatesFor returns a copy of the config templates registered for the
// environment.
func (m *EnvironmentManager) TemplatesFor(environment string) []ConfigTemplate {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]ConfigTemplate(nil), m.templates[environment]...)
}

// Warnings returns a copy of the recorded overwrite warnings.
func (m *EnvironmentManager) Warnings() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]string(nil), m.warnings...)
}
