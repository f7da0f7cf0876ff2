package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/readmeforge/readmeforge/pkg/console"
	"github.com/readmeforge/readmeforge/pkg/logger"
	"github.com/readmeforge/readmeforge/pkg/workflow"
)

var compileLog = logger.New("cli:compile")

type compileFlags struct {
	configPath      string
	outputPath      string
	watch           bool
	strict          bool
	validateSecrets bool
	includeOIDC     bool
	includeConfig   bool
	strategy        string
}

// NewCompileCommand creates the compile command.
func NewCompileCommand() *cobra.Command {
	flags := &compileFlags{}

	cmd := &cobra.Command{
		Use:   "compile [readme]",
		Short: "Compile a README into a CI/CD workflow",
		Long: `Compile parses the README, runs all registered analyzers, and writes the
generated workflow as YAML.

Environment configuration (environments, secrets, variables, OIDC, config
templates) is read from --config when given. Flags override the options
section of the configuration file.

Examples:
  readmeforge compile README.md
  readmeforge compile README.md -o .github/workflows/ci.yml
  readmeforge compile README.md --config readmeforge.yml --validate-secrets --include-oidc
  readmeforge compile README.md --watch`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			readmePath := "README.md"
			if len(args) == 1 {
				readmePath = args[0]
			}
			if flags.watch {
				return watchAndCompile(cmd.Context(), readmePath, flags)
			}
			return compileOnce(cmd.Context(), readmePath, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.configPath, "config", "c", "", "Path to the readmeforge.yml project configuration")
	cmd.Flags().StringVarP(&flags.outputPath, "output", "o", "", "Write the workflow YAML to this file instead of stdout")
	cmd.Flags().BoolVarP(&flags.watch, "watch", "w", false, "Recompile when the README or configuration changes")
	cmd.Flags().BoolVar(&flags.strict, "strict", false, "Treat analyzer registration failures and configuration warnings as errors")
	cmd.Flags().BoolVar(&flags.validateSecrets, "validate-secrets", false, "Emit secret-validation steps")
	cmd.Flags().BoolVar(&flags.includeOIDC, "include-oidc", false, "Emit OIDC authentication steps")
	cmd.Flags().BoolVar(&flags.includeConfig, "include-config-generation", false, "Emit config-template rendering steps")
	cmd.Flags().StringVar(&flags.strategy, "strategy", "", "Deployment strategy: static, container, serverless, or traditional")

	return cmd
}

// buildRun assembles the pipeline and run options from flags and the
// optional project configuration.
func buildRun(flags *compileFlags) (*workflow.Engine, workflow.RunOptions, error) {
	factory := workflow.NewComponentFactory()
	for _, result := range factory.RegisterBuiltinAnalyzers() {
		if !result.Success {
			if flags.strict {
				return nil, workflow.RunOptions{}, fmt.Errorf("built-in analyzer '%s' failed to register: %w", result.Name, result.Err)
			}
			fmt.Fprintln(os.Stderr, console.FormatWarningMessage(
				fmt.Sprintf("built-in analyzer '%s' failed to register: %v", result.Name, result.Err)))
		}
	}

	options := workflow.RunOptions{}
	if flags.configPath != "" {
		config, err := workflow.LoadConfig(flags.configPath)
		if err != nil {
			return nil, options, err
		}
		config.Apply(factory.EnvironmentManager())
		for _, warning := range factory.EnvironmentManager().Warnings() {
			if flags.strict {
				return nil, options, fmt.Errorf("configuration warning: %s", warning)
			}
			fmt.Fprintln(os.Stderr, console.FormatWarningMessage(warning))
		}
		options.Environments = config.Environments
		options.Generate = config.Options.GenerateOptions()
	}

	if flags.validateSecrets {
		options.Generate.ValidateSecrets = true
	}
	if flags.includeOIDC {
		options.Generate.IncludeOIDC = true
	}
	if flags.includeConfig {
		options.Generate.IncludeConfigGeneration = true
	}
	if flags.strategy != "" {
		strategy := workflow.DeploymentStrategy(flags.strategy)
		if !workflow.ValidStrategy(strategy) {
			return nil, options, fmt.Errorf("unknown deployment strategy '%s'", flags.strategy)
		}
		options.Generate.DeploymentStrategy = strategy
	}

	return factory.CreateReadmeParser(workflow.EngineConfig{}), options, nil
}

func compileOnce(ctx context.Context, readmePath string, flags *compileFlags) error {
	compileLog.Printf("Compiling: readme=%s, config=%s", readmePath, flags.configPath)

	content, err := os.ReadFile(readmePath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", readmePath, err)
	}

	engine, options, err := buildRun(flags)
	if err != nil {
		return err
	}

	model, err := engine.Run(ctx, string(content), options)
	if err != nil {
		return err
	}

	out, err := yaml.Marshal(model)
	if err != nil {
		return fmt.Errorf("failed to serialize workflow model: %w", err)
	}

	if flags.outputPath == "" {
		fmt.Print(string(out))
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(flags.outputPath), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(flags.outputPath, out, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", flags.outputPath, err)
	}

	fmt.Fprintln(os.Stderr, console.FormatSuccessMessage(
		fmt.Sprintf("Compiled %s -> %s (%d jobs)", readmePath, flags.outputPath, len(model.Jobs))))
	return nil
}

// watchAndCompile recompiles whenever the README or the configuration
// file changes, until the context is cancelled.
func watchAndCompile(ctx context.Context, readmePath string, flags *compileFlags) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	// Watch directories rather than files so editor save-by-rename still
	// delivers events.
	watched := map[string]bool{}
	for _, path := range []string{readmePath, flags.configPath} {
		if path == "" {
			continue
		}
		dir := filepath.Dir(path)
		if !watched[dir] {
			watched[dir] = true
			if err := watcher.Add(dir); err != nil {
				return fmt.Errorf("failed to watch %s: %w", dir, err)
			}
		}
	}

	fmt.Fprintln(os.Stderr, console.FormatInfoMessage(
		fmt.Sprintf("Watching %s for changes (Ctrl-C to stop)", readmePath)))

	if err := compileOnce(ctx, readmePath, flags); err != nil {
		fmt.Fprintln(os.Stderr, console.FormatErrorMessage(err.Error()))
	}

	interesting := map[string]bool{
		filepath.Clean(readmePath): true,
	}
	if flags.configPath != "" {
		interesting[filepath.Clean(flags.configPath)] = true
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !interesting[filepath.Clean(event.Name)] {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			compileLog.Printf("Change detected: %s (%s)", event.Name, event.Op)
			if err := compileOnce(ctx, readmePath, flags); err != nil {
				fmt.Fprintln(os.Stderr, console.FormatErrorMessage(err.Error()))
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintln(os.Stderr, console.FormatWarningMessage(fmt.Sprintf("watch error: %v", err)))
		}
	}
}
