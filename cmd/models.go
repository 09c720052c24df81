package cmd

import (
	"fmt"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/spf13/cobra"

	"github.com/abhisek/hallugen/internal/llm"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models each provider accepts",
	RunE: func(cmd *cobra.Command, args []string) error {
		rows := make([][]string, 0, len(llm.Models()))
		for _, m := range llm.Models() {
			rows = append(rows, []string{m.Provider, m.Name, m.ID})
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Provider", "Name", "Model ID"}, rows))
		fmt.Fprintln(cmd.OutOrStdout(), "openrouter accepts any upstream model ID.")
		return nil
	},
}

var (
	tableHeaderStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	tableCellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// renderTable draws a bordered table for terminal output.
func renderTable(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			return tableCellStyle
		})
	return t.String()
}
