package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/hallugen/internal/dataset"
	"github.com/abhisek/hallugen/internal/llm"
	"github.com/abhisek/hallugen/internal/pipeline"
	"github.com/abhisek/hallugen/internal/promptgen"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a dataset without the interactive UI",
	Long: "Generate reads the source text from --text, --file or standard input, runs one batch\n" +
		"and writes the records to --out.",
	Example: `  hallugen generate --file article.txt --style analytical --count 10 --hallucination 30
  cat notes.txt | hallugen generate --out data.csv
  hallugen generate --text "..." --format both --out out/dataset`,
	RunE: runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.String("file", "", "Read the source text from a file")
	f.String("text", "", "Source text")
	f.StringP("out", "o", dataset.FileName(dataset.FormatJSON), "Output file")
	f.String("format", "", "json, csv or both (default: from the --out extension, else json)")
	f.StringP("style", "s", string(promptgen.StyleAnalytical), "Prompt style: "+styleList())
	f.IntP("count", "n", pipeline.DefaultCount, "Number of prompts (1-50)")
	f.Int("hallucination", pipeline.DefaultTarget, "Requested hallucination percentage (0-100)")
	f.Bool("score", false, "Measure hallucination of every response")
	f.Int("workers", 4, "Concurrent response requests")
}

func styleList() string {
	names := make([]string, 0, len(promptgen.Styles()))
	for _, s := range promptgen.Styles() {
		names = append(names, string(s))
	}
	return strings.Join(names, ", ")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	source, err := readSource(cmd)
	if err != nil {
		return err
	}
	styleName, _ := cmd.Flags().GetString("style")
	style, err := promptgen.ParseStyle(styleName)
	if err != nil {
		return err
	}
	count, _ := cmd.Flags().GetInt("count")
	target, _ := cmd.Flags().GetInt("hallucination")

	out, _ := cmd.Flags().GetString("out")
	formatName, _ := cmd.Flags().GetString("format")
	targets, err := outputTargets(out, formatName)
	if err != nil {
		return err
	}

	pcfg, err := pipelineConfig(cmd)
	if err != nil {
		return err
	}
	in := pipeline.Input{Context: source, Style: style, Count: count, Target: target, Score: pcfg.Score}
	if err := in.Validate(); err != nil {
		return err
	}

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	p, _, err := buildPipeline(cmd, st, pcfg)
	if err != nil {
		return err
	}

	stderr := cmd.ErrOrStderr()
	res, err := p.Run(cmd.Context(), in, progressPrinter(stderr))
	if err != nil {
		if errors.Is(err, pipeline.ErrBatchFailed) && llm.IsMalformed(err) {
			data, _ := json.MarshalIndent(llm.AsEnvelope(err), "", "    ")
			fmt.Fprintln(stderr, string(data))
		}
		return err
	}

	for _, t := range targets {
		if err := dataset.WriteFile(t.path, res.Records, t.format); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", t.path)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Run %s: %d records, %d failed\n", res.RunID, len(res.Records), res.Failed())
	return nil
}

// readSource takes --text, then --file, then standard input when it is
// not a terminal.
func readSource(cmd *cobra.Command) (string, error) {
	if text, _ := cmd.Flags().GetString("text"); text != "" {
		return text, nil
	}
	if path, _ := cmd.Flags().GetString("file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read source file: %w", err)
		}
		return string(data), nil
	}

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok {
		if info, err := f.Stat(); err == nil && info.Mode()&os.ModeCharDevice != 0 {
			return "", errors.New("no source text: use --text, --file or pipe it on stdin")
		}
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

type outputTarget struct {
	path   string
	format dataset.Format
}

// outputTargets resolves --out and --format into the files to write.
// "both" writes <out without extension>.json and .csv.
func outputTargets(out, formatName string) ([]outputTarget, error) {
	switch strings.ToLower(formatName) {
	case "both":
		base := strings.TrimSuffix(out, filepath.Ext(out))
		return []outputTarget{
			{base + ".json", dataset.FormatJSON},
			{base + ".csv", dataset.FormatCSV},
		}, nil
	case "":
		if f, ok := dataset.FormatFromPath(out); ok {
			return []outputTarget{{out, f}}, nil
		}
		return []outputTarget{{out, dataset.FormatJSON}}, nil
	}
	f, err := dataset.ParseFormat(formatName)
	if err != nil {
		return nil, err
	}
	return []outputTarget{{out, f}}, nil
}

// progressPrinter writes one status line per stage and updates the
// response count in place.
func progressPrinter(w io.Writer) pipeline.ProgressFunc {
	return func(p pipeline.Progress) {
		switch {
		case p.Stage == pipeline.StagePrompts:
			fmt.Fprintln(w, "Generating prompts...")
		case p.Done < p.Total:
			fmt.Fprintf(w, "\rResponses %d/%d", p.Done, p.Total)
		default:
			fmt.Fprintf(w, "\rResponses %d/%d\n", p.Done, p.Total)
		}
	}
}
