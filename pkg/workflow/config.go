package workflow

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/readmeforge/readmeforge/pkg/logger"
)

var configLog = logger.New("workflow:config")

//go:embed schemas/config_schema.json
var configSchemaJSON []byte

// ProjectConfig is the declarative project configuration loaded from
// readmeforge.yml: environments, secret and variable declarations, OIDC
// settings, config templates, and default generation options.
type ProjectConfig struct {
	Environments []EnvironmentConfig         `yaml:"environments"`
	Secrets      []SecretConfig              `yaml:"secrets"`
	Variables    []VariableConfig            `yaml:"variables"`
	OIDC         map[string]OIDCConfig       `yaml:"oidc"`
	Templates    map[string][]ConfigTemplate `yaml:"templates"`
	Options      ConfigOptions               `yaml:"options"`
}

// ConfigOptions mirrors GenerateOptions in file form.
type ConfigOptions struct {
	ValidateSecrets         bool               `yaml:"validate_secrets"`
	IncludeOIDC             bool               `yaml:"include_oidc"`
	IncludeConfigGeneration bool               `yaml:"include_config_generation"`
	DeploymentStrategy      DeploymentStrategy `yaml:"deployment_strategy"`
}

// GenerateOptions converts file options to engine options.
func (o ConfigOptions) GenerateOptions() GenerateOptions {
	return GenerateOptions{
		ValidateSecrets:         o.ValidateSecrets,
		IncludeOIDC:             o.IncludeOIDC,
		IncludeConfigGeneration: o.IncludeConfigGeneration,
		DeploymentStrategy:      o.DeploymentStrategy,
	}
}

// compileConfigSchema compiles the embedded configuration schema.
func compileConfigSchema() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(configSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded config schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("readmeforge-config.json", doc); err != nil {
		return nil, fmt.Errorf("failed to add config schema resource: %w", err)
	}
	return compiler.Compile("readmeforge-config.json")
}

// ParseConfig validates raw YAML against the configuration schema and
// decodes it. Schema violations are returned before any value reaches the
// environment manager.
func ParseConfig(data []byte) (*ProjectConfig, error) {
	var document any
	if err := yaml.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("invalid YAML in project configuration: %w", err)
	}

	if document != nil {
		schema, err := compileConfigSchema()
		if err != nil {
			return nil, err
		}
		if err := schema.Validate(document); err != nil {
			return nil, fmt.Errorf("project configuration failed schema validation: %w", err)
		}
	}

	var config ProjectConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to decode project configuration: %w", err)
	}

	configLog.Printf("Parsed project configuration: environments=%d, secrets=%d, variables=%d",
		len(config.Environments), len(config.Secrets), len(config.Variables))
	return &config, nil
}

// LoadConfig reads and parses a project configuration file.
func LoadConfig(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project configuration %s: %w", path, err)
	}
	config, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return config, nil
}

// Apply registers the configuration's secret, variable, OIDC, and
// template declarations with the environment manager.
func (c *ProjectConfig) Apply(manager *EnvironmentManager) {
	for _, secret := range c.Secrets {
		manager.RegisterSecret(secret)
	}
	for _, variable := range c.Variables {
		manager.RegisterVariable(variable)
	}
	for environment, oidc := range c.OIDC {
		manager.RegisterOIDC(environment, oidc)
	}
	for environment, templates := range c.Templates {
		for _, template := range templates {
			manager.RegisterConfigTemplate(environment, template)
		}
	}
	configLog.Printf("Applied project configuration to environment manager: warnings=%d",
		len(manager.Warnings()))
}
