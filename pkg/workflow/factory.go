package workflow

import (
	"context"

	"github.com/readmeforge/readmeforge/pkg/analyzer"
	"github.com/readmeforge/readmeforge/pkg/logger"
	"github.com/readmeforge/readmeforge/pkg/parser"
)

var factoryLog = logger.New("workflow:factory")

// DefaultReadmeParser adapts pkg/parser to the engine's ReadmeParser
// collaborator interface.
func DefaultReadmeParser() ReadmeParser {
	return ReadmeParserFunc(func(ctx context.Context, content string) (*parser.ReadmeContent, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return parser.Parse(content), nil
	})
}

// ComponentFactory assembles the parsing/detection/generation pipeline.
// It owns the analyzer registry and environment manager explicitly; there
// is no global registry — callers pass the factory (or the engine it
// creates) to whoever needs the pipeline.
type ComponentFactory struct {
	registry *analyzer.Registry
	manager  *EnvironmentManager
}

// NewComponentFactory creates a factory with an empty registry and
// environment manager.
func NewComponentFactory() *ComponentFactory {
	return &ComponentFactory{
		registry: analyzer.NewRegistry(),
		manager:  NewEnvironmentManager(),
	}
}

// Registry exposes the factory's analyzer registry.
func (f *ComponentFactory) Registry() *analyzer.Registry {
	return f.registry
}

// EnvironmentManager exposes the factory's environment manager.
func (f *ComponentFactory) EnvironmentManager() *EnvironmentManager {
	return f.manager
}

// RegisterBuiltinAnalyzers registers the stock analyzers shipped with
// this module.
func (f *ComponentFactory) RegisterBuiltinAnalyzers() []analyzer.RegistrationResult {
	return f.registry.RegisterMultiple(analyzer.BuiltinConfigs())
}

// RegisterCustomAnalyzers resolves the declared dependency graph and
// registers analyzers in topological order. Analyzers with unmet or
// cyclic dependencies fail with a RegistrationStateError naming the
// problem; independent analyzers still register. Results come back in
// input order.
func (f *ComponentFactory) RegisterCustomAnalyzers(configs []analyzer.CustomAnalyzerConfig) []analyzer.RegistrationResult {
	factoryLog.Printf("Registering custom analyzers: count=%d", len(configs))

	ordered, failed := analyzer.ResolveOrder(configs, f.registry.RegisteredAnalyzers())

	byName := make(map[string]analyzer.RegistrationResult, len(configs))
	for _, failure := range failed {
		byName[failure.Name] = failure
	}

	plugins := make([]analyzer.PluginConfig, 0, len(ordered))
	for _, cfg := range ordered {
		plugins = append(plugins, analyzer.PluginConfig{Name: cfg.Name, Plugin: cfg.Plugin})
	}
	for _, result := range f.registry.RegisterMultiple(plugins) {
		byName[result.Name] = result
	}

	results := make([]analyzer.RegistrationResult, 0, len(configs))
	for _, cfg := range configs {
		results = append(results, byName[cfg.Name])
	}
	return results
}

// CreateReadmeParser composes the README parser with the currently
// registered analyzers and the environment-aware generator into an
// orchestration engine ready to run.
func (f *ComponentFactory) CreateReadmeParser(config EngineConfig) *Engine {
	factoryLog.Printf("Creating pipeline: analyzers=%d", len(f.registry.RegisteredAnalyzers()))
	return NewEngine(DefaultReadmeParser(), f.registry, NewGenerator(f.manager), config)
}
