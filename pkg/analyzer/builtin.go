package analyzer

import (
	"context"
	"fmt"
	"strings"

	"github.com/readmeforge/readmeforge/pkg/logger"
	"github.com/readmeforge/readmeforge/pkg/parser"
)

var builtinLog = logger.New("analyzer:builtin")

// builtinAnalyzer detects one ecosystem from README content by scanning
// fenced shell commands and manifest file mentions.
type builtinAnalyzer struct {
	name         string
	language     string
	buildTool    string
	manifests    []string // File names whose mention strongly signals the ecosystem
	commandHints []string // Command prefixes collected from shell blocks
	capabilities Capabilities
}

// Analyze scans content for manifest mentions and matching shell commands.
// Confidence scales with the number of distinct signals found; a result
// with zero confidence carries no commands.
func (b *builtinAnalyzer) Analyze(_ context.Context, content *parser.ReadmeContent) (*DetectionResult, error) {
	if content == nil {
		return nil, fmt.Errorf("analyzer '%s': content must not be nil", b.name)
	}

	result := &DetectionResult{
		Analyzer:  b.name,
		Language:  b.language,
		BuildTool: b.buildTool,
		Metadata:  map[string]any{},
	}

	signals := 0
	lowerRaw := strings.ToLower(content.Raw)
	for _, manifest := range b.manifests {
		if strings.Contains(lowerRaw, strings.ToLower(manifest)) {
			signals++
			result.Metadata["manifest"] = manifest
			break
		}
	}

	for _, block := range content.CodeBlocksForLanguages("sh", "bash", "shell", "console", "") {
		for _, line := range strings.Split(block.Content, "\n") {
			line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "$"))
			for _, hint := range b.commandHints {
				if strings.HasPrefix(line, hint) {
					result.Commands = append(result.Commands, strings.TrimSpace(line))
					signals++
				}
			}
		}
	}

	switch {
	case signals == 0:
		result.Confidence = 0
		result.Commands = nil
	case signals == 1:
		result.Confidence = 0.5
	default:
		result.Confidence = 0.9
	}

	builtinLog.Printf("Analysis completed: analyzer=%s, signals=%d, confidence=%.1f",
		b.name, signals, result.Confidence)
	return result, nil
}

// Capabilities reports what this analyzer detects.
func (b *builtinAnalyzer) Capabilities() Capabilities {
	return b.capabilities
}

// ValidateInterface confirms the analyzer is correctly configured.
func (b *builtinAnalyzer) ValidateInterface() error {
	if b.name == "" || b.language == "" {
		return fmt.Errorf("builtin analyzer is missing a name or language")
	}
	return nil
}

// NewNodeJSAnalyzer detects Node.js projects.
func NewNodeJSAnalyzer() Analyzer {
	return &builtinAnalyzer{
		name:         "nodejs",
		language:     "javascript",
		buildTool:    "npm",
		manifests:    []string{"package.json"},
		commandHints: []string{"npm ", "npx ", "yarn ", "pnpm "},
		capabilities: Capabilities{
			Languages:  []string{"javascript", "typescript"},
			Frameworks: []string{"express", "react", "next"},
			BuildTools: []string{"npm", "yarn", "pnpm"},
		},
	}
}

// NewGoAnalyzer detects Go projects.
func NewGoAnalyzer() Analyzer {
	return &builtinAnalyzer{
		name:         "golang",
		language:     "go",
		buildTool:    "go",
		manifests:    []string{"go.mod"},
		commandHints: []string{"go build", "go test", "go run", "go install"},
		capabilities: Capabilities{
			Languages:  []string{"go"},
			BuildTools: []string{"go"},
		},
	}
}

// NewPythonAnalyzer detects Python projects.
func NewPythonAnalyzer() Analyzer {
	return &builtinAnalyzer{
		name:         "python",
		language:     "python",
		buildTool:    "pip",
		manifests:    []string{"requirements.txt", "pyproject.toml", "setup.py"},
		commandHints: []string{"pip ", "pip3 ", "python ", "python3 ", "poetry ", "uv "},
		capabilities: Capabilities{
			Languages:  []string{"python"},
			Frameworks: []string{"django", "flask", "fastapi"},
			BuildTools: []string{"pip", "poetry", "uv"},
		},
	}
}

// NewDockerAnalyzer detects containerized projects.
func NewDockerAnalyzer() Analyzer {
	return &builtinAnalyzer{
		name:         "docker",
		language:     "docker",
		buildTool:    "docker",
		manifests:    []string{"dockerfile", "docker-compose"},
		commandHints: []string{"docker build", "docker run", "docker compose", "docker-compose"},
		capabilities: Capabilities{
			Languages:  []string{"docker"},
			BuildTools: []string{"docker"},
		},
	}
}

// BuiltinConfigs returns registration configs for all built-in analyzers
// in their conventional order.
func BuiltinConfigs() []PluginConfig {
	return []PluginConfig{
		{Name: "nodejs", Plugin: NewNodeJSAnalyzer()},
		{Name: "golang", Plugin: NewGoAnalyzer()},
		{Name: "python", Plugin: NewPythonAnalyzer()},
		{Name: "docker", Plugin: NewDockerAnalyzer()},
	}
}
