package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"math-templater/api/internal/app"
	"math-templater/api/internal/config"
	"math-templater/api/internal/handle"
	"math-templater/api/internal/httpserver"
	"math-templater/api/internal/store"
)

func main() {
	cfg := config.Load()
	if err := cfg.RequireDatabase(); err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Postgres ---
	db, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	repo := store.NewTemplateRepo(db)
	// The service starts degraded when the store is unreachable; saves fail
	// until it comes back.
	{
		pctx, cancel := context.WithTimeout(ctx, cfg.DBTimeout)
		if err := store.Ping(pctx, db); err != nil {
			log.Printf("db ping failed (%s): %v", store.SafeDSNSummary(cfg.DatabaseURL), err)
		} else if err := repo.EnsureSchema(pctx); err != nil {
			log.Printf("db schema: %v", err)
		} else {
			log.Printf("db connected: %s", store.SafeDSNSummary(cfg.DatabaseURL))
		}
		cancel()
	}

	p, err := app.Build(cfg)
	if err != nil {
		log.Fatalf("pipeline: %v", err)
	}

	h := handle.New(p.Source, p.Templater, repo, handle.Timeouts{
		OCR:      cfg.OCRTimeout,
		Template: cfg.TemplateTimeout,
		DB:       cfg.DBTimeout,
	})
	handler := httpserver.WithCORS(cfg.CORSAllowOrigins, httpserver.NewMux(h))

	if err := httpserver.Run(ctx, "0.0.0.0:"+cfg.Port, handler); err != nil {
		log.Printf("http server: %v", err)
	}
}
