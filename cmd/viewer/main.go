package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"query-log-analyzer/pkg/controller"
	"query-log-analyzer/pkg/store"
	"query-log-analyzer/pkg/template"

	"github.com/kelseyhightower/envconfig"
	"github.com/lmittmann/tint"
)

type Config struct {
	Addr         string `envconfig:"QLA_ADDR" default:":9000"`
	DBPath       string `envconfig:"QLA_DB_PATH" default:"query-analysis.db"`
	KeywordsFile string `envconfig:"QLA_KEYWORDS_FILE"`
	Debug        bool   `envconfig:"QLA_DEBUG"`
}

func main() {
	var config Config
	if err := envconfig.Process("qla", &config); err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	if config.Debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	db, err := store.NewStore(config.DBPath)
	if err != nil {
		slog.Error("failed to open database", "path", config.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	templaterOpts := []template.Option{}
	if config.KeywordsFile != "" {
		keywords, err := template.LoadKeywords(config.KeywordsFile)
		if err != nil {
			slog.Error("failed to load keywords", "file", config.KeywordsFile, "error", err)
			os.Exit(1)
		}
		templaterOpts = append(templaterOpts, template.WithKeywords(keywords))
	}

	c := controller.New(db, template.New(templaterOpts...))

	server := &http.Server{
		Addr:    config.Addr,
		Handler: c.Router(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server starting", "addr", config.Addr, "db", config.DBPath)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown failed", "error", err)
	}
}
