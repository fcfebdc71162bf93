package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yashubustudio/talentos/internal/app"
	"yashubustudio/talentos/internal/config"
	"yashubustudio/talentos/internal/logger"
)

const appName = "talentos-cli"

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:          appName,
		Short:        "talentos-cli extracts skills and contacts from résumés and classifies them by technology profile",
		SilenceUsage: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "a config file (default is talentos.yaml in current directory)")
	pf.BoolP("debug", "d", false, "verbose/debug output")
	pf.BoolP("json", "j", false, "json format for logging")
	pf.String("vocabulary", "", "vocabulary file overlaying the built-in categories")
	pf.String("backend", "", "embedder backend: onnx, vectors or none")
	pf.String("vectors", "", "word vector file for the vectors backend")
	pf.Float64("threshold", 0, "similarity threshold for semantic matches")
	pf.String("policy", "", "scoring policy: coverage or weighted")
	pf.String("store-driver", "", "persist results to sqlite or postgres")
	pf.String("store-dsn", "", "candidate store connection string")

	cmd.AddCommand(
		newAnalyzeCmd(opts),
		newBatchCmd(opts),
		newInitCmd(),
		newVocabCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// loadSettings reads the configuration with the root persistent flags applied.
func loadSettings(cmd *cobra.Command, opts *rootOptions) (*config.Settings, error) {
	return config.Load(opts.configPath, cmd.Root().PersistentFlags())
}

// startApp loads settings, builds the logger and the application. The
// returned cleanup closes both.
func startApp(ctx context.Context, cmd *cobra.Command, opts *rootOptions) (*app.App, *zap.Logger, func(), error) {
	settings, err := loadSettings(cmd, opts)
	if err != nil {
		return nil, nil, nil, err
	}
	lg, err := logger.New(settings.Log.JSON, settings.Log.Debug)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("creating a logger: %w", err)
	}
	a, err := app.New(ctx, settings, lg)
	if err != nil {
		_ = lg.Sync()
		return nil, nil, nil, err
	}
	cleanup := func() {
		if err := a.Close(); err != nil {
			lg.Warn("closing resources", zap.Error(err))
		}
		_ = lg.Sync()
	}
	return a, lg, cleanup, nil
}
