package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/readmeforge/readmeforge/pkg/console"
	"github.com/readmeforge/readmeforge/pkg/logger"
	"github.com/readmeforge/readmeforge/pkg/workflow"
)

var analyzersLog = logger.New("cli:analyzers")

// NewAnalyzersCommand creates the analyzers command, which lists the
// registered analyzers and their registration compliance.
func NewAnalyzersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "analyzers",
		Short: "List registered analyzers and their compliance",
		RunE: func(cmd *cobra.Command, args []string) error {
			factory := workflow.NewComponentFactory()
			results := factory.RegisterBuiltinAnalyzers()
			for _, result := range results {
				if !result.Success {
					fmt.Fprintln(cmd.ErrOrStderr(), console.FormatWarningMessage(
						fmt.Sprintf("analyzer '%s' failed to register: %v", result.Name, result.Err)))
				}
			}

			report := factory.Registry().ValidateRegistration()
			analyzersLog.Printf("Compliance report: score=%.2f, entries=%d", report.Score, len(report.Entries))

			rows := make([][]string, 0, len(report.Entries))
			for _, entry := range report.Entries {
				status := "valid"
				detail := ""
				if !entry.Valid {
					status = "invalid"
					detail = entry.Detail
					if len(entry.MissingMethods) > 0 {
						detail = "missing " + strings.Join(entry.MissingMethods, ", ")
					}
				}
				rows = append(rows, []string{entry.Name, status, detail})
			}

			fmt.Fprint(cmd.OutOrStdout(), console.RenderTable(console.TableConfig{
				Title:   fmt.Sprintf("Registered analyzers (compliance %.0f%%)", report.Score*100),
				Headers: []string{"Name", "Status", "Detail"},
				Rows:    rows,
			}))
			return nil
		},
	}
}
