// Package app wires settings into a running profiler service and its optional
// candidate store.
package app

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"yashubustudio/talentos/internal/config"
	"yashubustudio/talentos/internal/logger"
	"yashubustudio/talentos/internal/store"
	"yashubustudio/talentos/profiler"
)

// App holds the long-lived components built from Settings.
type App struct {
	Settings *config.Settings
	Service  *profiler.Service
	Store    *store.Store
}

// New prepares the working files, builds the embedder, vocabulary and
// service, and opens the candidate store when a driver is configured.
func New(ctx context.Context, settings *config.Settings, log *zap.Logger) (*App, error) {
	if settings == nil {
		return nil, fmt.Errorf("app: settings are required")
	}
	log = logger.WithFields(log)
	cfg := settings.Config.Clone()
	profiler.SetColumnCandidates(settings.Columns)

	ensureDirs(log, cfg.Embedder.CacheDir)
	if wrote, err := profiler.EnsureVocabularyFile(cfg.VocabularyPath, profiler.DefaultCategories()); err != nil {
		return nil, err
	} else if wrote {
		log.Info("wrote default vocabulary", zap.String("path", cfg.VocabularyPath))
	}

	categories, err := config.LoadVocabulary(cfg.VocabularyPath)
	if err != nil {
		return nil, err
	}
	vocab := profiler.NewVocabulary(categories)

	embedder, err := newEmbedder(cfg.Embedder, log)
	if err != nil {
		return nil, err
	}

	svc, err := profiler.NewService(ctx, nil, embedder, vocab, cfg, log)
	if err != nil {
		embedder.Close()
		return nil, err
	}

	a := &App{Settings: settings, Service: svc}
	if driver := strings.TrimSpace(settings.Store.Driver); driver != "" {
		st, err := store.Open(ctx, driver, settings.Store.DSN)
		if err != nil {
			svc.Close()
			return nil, err
		}
		log.Info("candidate store opened", zap.String("driver", driver))
		a.Store = st
	}
	return a, nil
}

// Close releases the service and the store.
func (a *App) Close() error {
	var firstErr error
	if a.Service != nil {
		if err := a.Service.Close(); err != nil {
			firstErr = err
		}
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// newEmbedder builds the configured backend. An ONNX backend without a model
// degrades to exact matching only.
func newEmbedder(cfg profiler.EmbedderConfig, log *zap.Logger) (profiler.Embedder, error) {
	if cfg.Backend == profiler.BackendONNX && strings.TrimSpace(cfg.ModelPath) == "" {
		log.Warn("no embedding model configured, semantic matching disabled")
		return profiler.NopEmbedder{}, nil
	}
	e, err := profiler.NewEmbedder(cfg)
	if err != nil {
		return nil, fmt.Errorf("init embedder: %w", err)
	}
	log.Info("embedder ready", zap.String(logger.FieldModel, e.ModelID()))
	return e, nil
}

func ensureDirs(log *zap.Logger, paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.MkdirAll(p, 0o755); err != nil {
			log.Warn("create directory", zap.String("path", p), zap.Error(err))
		}
	}
}
