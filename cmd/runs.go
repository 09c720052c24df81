package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/abhisek/hallugen/internal/dataset"
	"github.com/abhisek/hallugen/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect stored generation runs",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		runs, err := s.RunRepo().ListRuns(cmd.Context(), store.QueryOpts{Limit: limit})
		if err != nil {
			return fmt.Errorf("list runs: %w", err)
		}
		if len(runs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No runs found.")
			return nil
		}

		rows := make([][]string, 0, len(runs))
		for _, r := range runs {
			rows = append(rows, []string{
				r.ID,
				r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				r.Style,
				strconv.Itoa(r.Target) + "%",
				fmt.Sprintf("%d/%d", r.RecordCount-r.FailedCount, r.RecordCount),
				r.Model,
				r.Status,
			})
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderTable(
			[]string{"ID", "Created", "Style", "Target", "OK", "Model", "Status"}, rows))
		return nil
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a run and its records",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		run, rows, err := loadRun(cmd, s, args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "ID:        %s\n", run.ID)
		fmt.Fprintf(out, "Created:   %s\n", run.CreatedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Fprintf(out, "Status:    %s\n", run.Status)
		if run.Error != "" {
			fmt.Fprintf(out, "Error:     %s\n", run.Error)
		}
		fmt.Fprintf(out, "Model:     %s (%s)\n", run.Model, run.Provider)
		fmt.Fprintf(out, "Style:     %s\n", run.Style)
		fmt.Fprintf(out, "Target:    %d%%\n", run.Target)
		fmt.Fprintf(out, "Records:   %d (%d failed)\n", run.RecordCount, run.FailedCount)
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Context:")
		fmt.Fprintln(out, truncate(run.Context, 400))

		for _, row := range rows {
			fmt.Fprintln(out)
			fmt.Fprintf(out, "[%d] %s\n", row.Position+1, row.Prompt)
			switch {
			case row.Failed():
				fmt.Fprintf(out, "    error: %s\n", row.ErrorMessage)
				if row.RawOutput != "" {
					fmt.Fprintf(out, "    raw:   %s\n", truncate(row.RawOutput, 200))
				}
			default:
				fmt.Fprintf(out, "    %s\n", row.Response)
				if row.Measured != nil {
					fmt.Fprintf(out, "    measured hallucination: %.1f%%\n", *row.Measured)
				}
			}
		}
		return nil
	},
}

var runsExportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Export the records of a run as JSON or CSV",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		formatName, _ := cmd.Flags().GetString("format")
		out, _ := cmd.Flags().GetString("out")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		_, rows, err := loadRun(cmd, s, args[0])
		if err != nil {
			return err
		}
		records := dataset.FromRows(rows)

		if out == "" {
			if formatName == "" {
				formatName = string(dataset.FormatJSON)
			}
			f, err := dataset.ParseFormat(formatName)
			if err != nil {
				return err
			}
			return dataset.Write(cmd.OutOrStdout(), records, f)
		}

		targets, err := outputTargets(out, formatName)
		if err != nil {
			return err
		}
		for _, t := range targets {
			if err := dataset.WriteFile(t.path, records, t.format); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", t.path)
		}
		return nil
	},
}

var runsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete all but the newest runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		keep, _ := cmd.Flags().GetInt("keep")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		n, err := s.RunRepo().Prune(cmd.Context(), keep)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d run(s).\n", n)
		return nil
	},
}

func loadRun(cmd *cobra.Command, s *store.Store, id string) (*store.Run, []store.RecordRow, error) {
	run, err := s.RunRepo().GetRun(cmd.Context(), id)
	if err != nil {
		return nil, nil, fmt.Errorf("get run: %w", err)
	}
	if run == nil {
		return nil, nil, fmt.Errorf("run %s not found", id)
	}
	rows, err := s.RunRepo().Records(cmd.Context(), id)
	if err != nil {
		return nil, nil, fmt.Errorf("get records: %w", err)
	}
	return run, rows, nil
}

func init() {
	runsListCmd.Flags().IntP("limit", "n", 20, "Number of runs to show")
	runsExportCmd.Flags().StringP("format", "f", "", "json, csv or both (default: from --out, else json)")
	runsExportCmd.Flags().StringP("out", "o", "", "Output file (default: standard output)")
	runsPruneCmd.Flags().Int("keep", 50, "Number of newest runs to keep")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsExportCmd)
	runsCmd.AddCommand(runsPruneCmd)
}
