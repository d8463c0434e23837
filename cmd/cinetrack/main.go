package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cinetrack/internal/app/lists"
	"cinetrack/internal/app/shortfilms"
	"cinetrack/internal/catalog"
	"cinetrack/internal/config"
	"cinetrack/internal/httpapi"
	"cinetrack/internal/logging"
	"cinetrack/internal/youtube"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	})
	defer logger.Close()
	logging.SetGlobalLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, closeBackend, err := openBackend(ctx, cfg.Storage, logger.Component("storage"))
	if err != nil {
		return err
	}
	defer closeBackend()

	catalogClient, err := catalog.New(catalog.Config{
		APIKey:       cfg.Catalog.APIKey,
		ReadToken:    cfg.Catalog.ReadToken,
		BaseURL:      cfg.Catalog.BaseURL,
		ImageBaseURL: cfg.Catalog.ImageBaseURL,
		Language:     cfg.Catalog.Language,
		RateLimit:    cfg.Catalog.RateLimit,
		Timeout:      cfg.Catalog.Timeout,
	})
	if err != nil {
		return fmt.Errorf("create catalog client: %w", err)
	}

	listStore := lists.Open(ctx, backend, logger.Component("lists"))

	var filmOpts []shortfilms.Option
	if !cfg.ShortFilms.Seed {
		filmOpts = append(filmOpts, shortfilms.WithoutSamples())
	}
	filmStore := shortfilms.Open(ctx, backend, logger.Component("shortfilms"), filmOpts...)

	api := httpapi.New(catalogClient, listStore, filmStore, logger.Component("http"),
		httpapi.WithThumbnailChecker(youtube.NewProber(nil)),
	)

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           newHandler(cfg.CORS.AllowedOrigins, logger.Logger, api.Routes()),
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", server.Addr).
			Str("storage", cfg.Storage.Backend).
			Msg("cinetrack api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	logger.Info().Msg("server exited")
	return nil
}
