// Package cli implements the readmeforge command surface. The CLI is also
// the serializer collaborator: it turns the workflow model emitted by the
// orchestration core into YAML text.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is stamped at build time.
var Version = "dev"

// NewRootCommand creates the readmeforge root command.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "readmeforge",
		Short: "Generate CI/CD workflows from README content",
		Long: `readmeforge reads a project README, runs registered analyzers to detect
languages, build tools, and commands, and generates a CI/CD workflow with
environment-aware deployment steps.

Examples:
  # Compile README.md into a workflow
  readmeforge compile README.md -o .github/workflows/ci.yml

  # Compile with environment configuration and secret validation
  readmeforge compile README.md --config readmeforge.yml --validate-secrets

  # Recompile automatically when the README changes
  readmeforge compile README.md --watch

  # Inspect registered analyzers and their compliance
  readmeforge analyzers`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(NewCompileCommand())
	cmd.AddCommand(NewAnalyzersCommand())
	cmd.AddCommand(newVersionCommand())

	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the readmeforge version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), Version)
		},
	}
}
