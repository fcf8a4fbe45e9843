package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/AngelCh415/jobkpi/internal/config"
	"github.com/AngelCh415/jobkpi/internal/httpx"
	"github.com/AngelCh415/jobkpi/internal/ingest"
	"github.com/AngelCh415/jobkpi/internal/metrics"
	"github.com/AngelCh415/jobkpi/internal/store"
)

func main() {
	cfg := config.FromEnv()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	schemas := ingest.DefaultSchemas()
	if cfg.SchemaFile != "" {
		s, err := ingest.LoadSchemas(cfg.SchemaFile)
		if err != nil {
			logger.Error("schema file", slog.String("path", cfg.SchemaFile), slog.String("err", err.Error()))
			os.Exit(1)
		}
		schemas = s
	}

	cl := ingest.NewHTTPClient(cfg.HTTPTimeout)
	st := store.NewSessionStore()
	etl := ingest.NewETL(cl, st, logger, cfg, schemas)
	mSvc := metrics.NewService(st)

	if cfg.OpportunitiesURL != "" && cfg.LineItemsURL != "" {
		go func() {
			if err := etl.Run(context.Background()); err != nil {
				logger.Warn("initial ingest", slog.String("err", err.Error()))
			}
		}()
	}

	r := httpx.NewRouter(logger, etl, mSvc, cfg.MaxUploadBytes)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("starting server", slog.String("port", cfg.Port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", slog.String("err", err.Error()))
		os.Exit(1)
	}
}
