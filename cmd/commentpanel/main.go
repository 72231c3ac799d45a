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

	"github.com/joho/godotenv"
	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/lmeunier/commentpanel/internal/adapter/driven/commentapi"
	httphandler "github.com/lmeunier/commentpanel/internal/adapter/driving/http"
	"github.com/lmeunier/commentpanel/internal/application"
	"github.com/lmeunier/commentpanel/internal/config"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration; a missing .env file is fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"api_base_url", cfg.APIBaseURL,
		"page_url", cfg.PageURL,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Create the comment API client.
	client, err := commentapi.NewClient(cfg.APIBaseURL)
	if err != nil {
		return err
	}

	// 4. Create the panel. A page URL without a product comments route is
	// fatal here, before anything is served.
	panel, err := application.NewPanel(client, cfg.PageURL, slog.Default())
	if err != nil {
		return err
	}
	slog.Info("panel created", "product", panel.ProductID())

	// 5. Initial comment fetch. A failure leaves the list unpopulated and
	// is reported through the panel's error message, not as a startup error.
	panel.Load(ctx)

	// 6. Wire the HTTP handler.
	handler := httphandler.NewHandler(panel, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           httphandler.NewServeMux(handler, slog.Default()),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	slog.Info("commentpanel started", "product", panel.ProductID(), "listen_addr", cfg.ListenAddr)

	// 7. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
