//go:build !integration

package analyzer

import (
	"context"
	"testing"

	"github.com/readmeforge/readmeforge/pkg/parser"
)

const nodeReadme = "# Web App\n" +
	"\n" +
	"Install dependencies from package.json:\n" +
	"\n" +
	"```bash\n" +
	"npm install\n" +
	"npm test\n" +
	"```\n"

func TestNodeJSAnalyzerDetectsProject(t *testing.T) {
	content := parser.Parse(nodeReadme)

	result, err := NewNodeJSAnalyzer().Analyze(context.Background(), content)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if result.Language != "javascript" {
		t.Errorf("Expected language javascript, got %s", result.Language)
	}
	if result.Confidence < 0.9 {
		t.Errorf("Expected high confidence with manifest and commands, got %f", result.Confidence)
	}
	if len(result.Commands) != 2 {
		t.Errorf("Expected 2 commands, got %v", result.Commands)
	}
}

func TestAnalyzersIgnoreUnrelatedContent(t *testing.T) {
	content := parser.Parse("# Essay\n\nNo code here at all.\n")

	for _, cfg := range BuiltinConfigs() {
		a := cfg.Plugin.(Analyzer)
		result, err := a.Analyze(context.Background(), content)
		if err != nil {
			t.Fatalf("Analyze failed for %s: %v", cfg.Name, err)
		}
		if result.Confidence != 0 {
			t.Errorf("Analyzer %s should report zero confidence, got %f", cfg.Name, result.Confidence)
		}
		if len(result.Commands) != 0 {
			t.Errorf("Zero-confidence result must carry no commands, got %v", result.Commands)
		}
	}
}

func TestGoAnalyzerDetectsCommands(t *testing.T) {
	content := parser.Parse("# Tool\n\n```sh\ngo build ./...\ngo test ./...\n```\n")

	result, err := NewGoAnalyzer().Analyze(context.Background(), content)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if result.Confidence == 0 {
		t.Error("Expected non-zero confidence for go commands")
	}
	if len(result.Commands) != 2 {
		t.Errorf("Expected 2 commands, got %v", result.Commands)
	}
}

func TestBuiltinAnalyzersSatisfyContract(t *testing.T) {
	for _, cfg := range BuiltinConfigs() {
		if missing := MissingMethods(cfg.Plugin); len(missing) != 0 {
			t.Errorf("Builtin analyzer %s is missing methods: %v", cfg.Name, missing)
		}
		if err := cfg.Plugin.(Analyzer).ValidateInterface(); err != nil {
			t.Errorf("Builtin analyzer %s failed self-validation: %v", cfg.Name, err)
		}
	}
}

func TestAnalyzeRejectsNilContent(t *testing.T) {
	if _, err := NewPythonAnalyzer().Analyze(context.Background(), nil); err == nil {
		t.Error("Expected an error for nil content")
	}
}
