//go:build !integration

package workflow

import (
	"strings"
	"testing"
)

func TestRegisterSecretLastWriteWins(t *testing.T) {
	manager := NewEnvironmentManager()

	manager.RegisterSecret(SecretConfig{Name: "API_KEY", Required: false, Environments: []string{"staging"}})
	manager.RegisterSecret(SecretConfig{Name: "API_KEY", Required: true, Environments: []string{"production"}})

	secrets := manager.SecretsFor("production")
	if len(secrets) != 1 || !secrets[0].Required {
		t.Errorf("Expected the later declaration to win, got %+v", secrets)
	}
	if got := manager.SecretsFor("staging"); len(got) != 0 {
		t.Errorf("Overwritten scope must no longer apply, got %+v", got)
	}

	warnings := manager.Warnings()
	if len(warnings) != 1 || !strings.Contains(warnings[0], "API_KEY") {
		t.Errorf("Expected one overwrite warning naming API_KEY, got %v", warnings)
	}
}

func TestRegisterVariableLastWriteWins(t *testing.T) {
	manager := NewEnvironmentManager()

	manager.RegisterVariable(VariableConfig{Name: "LOG_LEVEL", Value: "debug", Environments: []string{"development"}})
	manager.RegisterVariable(VariableConfig{Name: "LOG_LEVEL", Value: "info", Environments: []string{"development"}})

	variables := manager.VariablesFor("development")
	if len(variables) != 1 || variables[0].Value != "info" {
		t.Errorf("Expected last write to win, got %+v", variables)
	}
	if len(manager.Warnings()) != 1 {
		t.Errorf("Expected one warning, got %v", manager.Warnings())
	}
}

func TestRegisterOIDCOverwrite(t *testing.T) {
	manager := NewEnvironmentManager()

	manager.RegisterOIDC("production", OIDCConfig{Provider: OIDCProviderAWS, RoleArn: "arn:old"})
	manager.RegisterOIDC("production", OIDCConfig{Provider: OIDCProviderAWS, RoleArn: "arn:new"})

	config, ok := manager.OIDCFor("production")
	if !ok || config.RoleArn != "arn:new" {
		t.Errorf("Expected the later OIDC config, got %+v", config)
	}
	if len(manager.Warnings()) != 1 {
		t.Errorf("Expected one warning, got %v", manager.Warnings())
	}
}

func TestRegisterConfigTemplateOverwriteInPlace(t *testing.T) {
	manager := NewEnvironmentManager()

	manager.RegisterConfigTemplate("production", ConfigTemplate{Name: "app", Path: "config/a.yml"})
	manager.RegisterConfigTemplate("production", ConfigTemplate{Name: "db", Path: "config/db.yml"})
	manager.RegisterConfigTemplate("production", ConfigTemplate{Name: "app", Path: "config/b.yml"})

	templates := manager.TemplatesFor("production")
	if len(templates) != 2 {
		t.Fatalf("Expected 2 templates, got %d", len(templates))
	}
	if templates[0].Name != "app" || templates[0].Path != "config/b.yml" {
		t.Errorf("Expected in-place overwrite preserving position, got %+v", templates)
	}
}

func TestScopedQueriesAreStrict(t *testing.T) {
	manager := NewEnvironmentManager()

	// A secret with no declared environments applies to none
	manager.RegisterSecret(SecretConfig{Name: "UNSCOPED", Required: true})

	for _, env := range []string{"development", "staging", "production"} {
		if got := manager.SecretsFor(env); len(got) != 0 {
			t.Errorf("Unscoped secret must not apply to %s, got %+v", env, got)
		}
	}
}
