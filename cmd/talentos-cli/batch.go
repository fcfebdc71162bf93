package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yashubustudio/talentos/internal/store"
	"yashubustudio/talentos/profiler"
)

type batchOptions struct {
	inputPath  string
	outputPath string
	outputDir  string
	inputOpts  profiler.InputParseOptions
}

func newBatchCmd(root *rootOptions) *cobra.Command {
	opts := &batchOptions{}
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Analyse every résumé of a CSV/TSV/text file and write the results as CSV",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBatch(cmd, root, opts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.inputPath, "input", "i", "", "CSV/TSV/text file with one résumé per row or line")
	f.StringVarP(&opts.outputPath, "output", "o", "", "CSV file to write results (default: stdout, or --output-dir/result_*.csv)")
	f.StringVar(&opts.outputDir, "output-dir", "", "directory where result CSVs are written when --output is omitted")
	f.StringVar(&opts.inputOpts.IndexColumn, "index-column", "", "column name or #index for the record index")
	f.StringVar(&opts.inputOpts.NameColumn, "name-column", "", "column name or #index for the candidate name")
	f.StringVar(&opts.inputOpts.TextColumn, "text-column", "", "column name or #index for the résumé text")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func runBatch(cmd *cobra.Command, root *rootOptions, opts *batchOptions) error {
	ctx := cmd.Context()
	a, lg, cleanup, err := startApp(ctx, cmd, root)
	if err != nil {
		return err
	}
	defer cleanup()

	inputPath := strings.TrimSpace(opts.inputPath)
	meta, err := profiler.ReadInputFileMetadata(inputPath)
	if err != nil {
		return fmt.Errorf("read input header: %w", err)
	}
	if len(meta.Columns) > 0 {
		lg.Info("input columns",
			zap.Strings("columns", meta.Columns),
			zap.String("index", meta.Suggested.IndexColumn),
			zap.String("name", meta.Suggested.NameColumn),
			zap.String("text", meta.Suggested.TextColumn),
		)
	}
	records, err := profiler.ParseInputRecordsWithOptions(inputPath, opts.inputOpts)
	if err != nil {
		return fmt.Errorf("read input records: %w", err)
	}
	if len(records) == 0 {
		return errors.New("input file does not contain any résumés")
	}

	texts := make([]string, len(records))
	for i, rec := range records {
		texts[i] = rec.Text
	}
	start := time.Now()
	results, err := a.Service.AnalyzeAll(ctx, texts)
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}
	lg.Info("batch analyzed", zap.Int("records", len(records)), zap.Duration("elapsed", time.Since(start)))

	if a.Store != nil {
		for i, res := range results {
			if _, err := a.Store.Save(ctx, store.NewCandidate(records[i].Text, res)); err != nil {
				return fmt.Errorf("save record %d: %w", i+1, err)
			}
		}
		lg.Info("candidates saved", zap.Int("count", len(results)))
	}

	outputPath, err := resolveOutputPath(opts.outputPath, opts.outputDir)
	if err != nil {
		return err
	}
	if outputPath == "" {
		return profiler.WriteResultsCSV(cmd.OutOrStdout(), records, results)
	}
	if err := writeResultFile(outputPath, records, results); err != nil {
		return err
	}
	lg.Info("results written", zap.String("path", outputPath))
	return nil
}

// resolveOutputPath returns "" for stdout, the explicit path, or a
// timestamped file inside dir.
func resolveOutputPath(path, dir string) (string, error) {
	path = strings.TrimSpace(path)
	dir = strings.TrimSpace(dir)
	if path == "-" || (path == "" && dir == "") {
		return "", nil
	}
	if path != "" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("resolve output path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
			return "", fmt.Errorf("create output directory: %w", err)
		}
		return absPath, nil
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve output dir: %w", err)
	}
	if err := os.MkdirAll(absDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	filename := fmt.Sprintf("result_%s.csv", time.Now().Format("20060102150405"))
	return filepath.Join(absDir, filename), nil
}

func writeResultFile(path string, records []profiler.InputRecord, results []*profiler.ExtractionResult) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create result file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if err := profiler.WriteResultsCSV(f, records, results); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return nil
}
