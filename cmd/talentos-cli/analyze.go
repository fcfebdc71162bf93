package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yashubustudio/talentos/internal/extract"
	"yashubustudio/talentos/internal/store"
)

func newAnalyzeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze FILE|-",
		Short: "Analyse one résumé (.txt, .pdf or .docx, or - for stdin) and print the result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			text, err := readResume(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			a, lg, cleanup, err := startApp(ctx, cmd, opts)
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := a.Service.Analyze(ctx, text)
			if err != nil {
				return fmt.Errorf("analyze %s: %w", args[0], err)
			}
			if a.Store != nil {
				id, err := a.Store.Save(ctx, store.NewCandidate(text, res))
				if err != nil {
					return err
				}
				lg.Info("candidate saved", zap.Int64("id", id))
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
}

// readResume returns the text of path, or of in when path is "-".
func readResume(in io.Reader, path string) (string, error) {
	if strings.TrimSpace(path) == "-" {
		data, err := io.ReadAll(in)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	text, err := extract.Text(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return text, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
