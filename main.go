// Command talentos serves the résumé analysis API.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"yashubustudio/talentos/internal/app"
	"yashubustudio/talentos/internal/config"
	"yashubustudio/talentos/internal/logger"
	"yashubustudio/talentos/internal/server"
)

func main() {
	flags := pflag.NewFlagSet("talentos", pflag.ExitOnError)
	configPath := flags.StringP("config", "c", "", "config file (default is ./talentos.yaml when present)")
	flags.String("addr", ":8000", "listen address")
	flags.BoolP("debug", "d", false, "verbose/debug output")
	flags.BoolP("json", "j", false, "json format for logging")
	flags.String("vocabulary", "", "vocabulary file overlaying the built-in categories")
	flags.String("backend", "", "embedder backend: onnx, vectors or none")
	flags.String("vectors", "", "word vector file for the vectors backend")
	flags.String("store-driver", "", "candidate store driver: sqlite or postgres (empty disables it)")
	flags.String("store-dsn", "", "candidate store connection string")
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		flags.PrintDefaults()
	}
	_ = flags.Parse(os.Args[1:])

	settings, err := config.Load(*configPath, flags)
	if err != nil {
		log.Fatalf("talentos: %v", err)
	}
	lg, err := logger.New(settings.Log.JSON, settings.Log.Debug)
	if err != nil {
		log.Fatalf("talentos: creating a logger: %v", err)
	}
	defer lg.Sync()

	if err := run(settings, lg); err != nil {
		lg.Fatal("service stopped", zap.Error(err))
	}
}

func run(settings *config.Settings, lg *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, settings, lg)
	if err != nil {
		return err
	}
	defer a.Close()

	var candidates server.CandidateStore
	if a.Store != nil {
		candidates = a.Store
	}
	h := server.NewHandler(a.Service, candidates, lg, settings.Server.MaxBodyBytes)

	lg.Info("starting the service", zap.String("service", server.ServiceName))
	return server.Serve(ctx, h.Routes(), server.Options{
		Addr:         settings.Server.Addr,
		ReadTimeout:  settings.Server.ReadTimeout,
		WriteTimeout: settings.Server.WriteTimeout,
	}, lg)
}
