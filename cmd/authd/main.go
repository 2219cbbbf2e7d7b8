// Command authd serves the authkit HTTP API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/authkit/pkg/attemptlog"
	"github.com/dmitrymomot/authkit/pkg/authhttp"
	"github.com/dmitrymomot/authkit/pkg/config"
	"github.com/dmitrymomot/authkit/pkg/httpserver"
	"github.com/dmitrymomot/authkit/pkg/i18n"
	"github.com/dmitrymomot/authkit/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "authd:", err)
		os.Exit(1)
	}
}

func run() error {
	var cfg Config
	if err := config.Load(&cfg, config.WithEnvFiles(".env")); err != nil {
		return err
	}

	logOpts := []logger.Option{
		logger.WithEnvironment(cfg.Environment, cfg.AppName),
		logger.WithContextExtractors(authhttp.RequestIDExtractor),
	}
	if cfg.LogLevel != "" {
		level, err := logger.ParseLevel(cfg.LogLevel)
		if err != nil {
			return err
		}
		logOpts = append(logOpts, logger.WithLevel(level))
	}
	log := logger.New(logOpts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	attempts := attemptlog.NewAsyncWriter(st.attempts, attemptlog.AsyncOptions{
		BufferSize:   cfg.AttemptBuffer,
		BatchSize:    cfg.AttemptBatch,
		BatchTimeout: cfg.AttemptInterval,
	})
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := attempts.Close(closeCtx); err != nil {
			log.Error("failed to flush login attempts", logger.Error(err))
		}
	}()

	stream, err := openAttemptStream(ctx, cfg, st)
	if err != nil {
		return err
	}

	registry, err := buildRegistry(cfg, log, attemptlog.Multi(attempts, stream))
	if err != nil {
		return err
	}
	registry.SetStore(st.store)

	tr, err := i18n.New(i18n.WithDefaultLanguage(cfg.DefaultLanguage), i18n.WithLogger(log))
	if err != nil {
		return err
	}

	opts := []authhttp.Option{
		authhttp.WithTranslator(tr),
		authhttp.WithLogger(log),
		authhttp.WithSessionTokenAlias(cfg.SessionTokenScheme),
	}
	if cfg.SignupEnabled {
		opts = append(opts, authhttp.WithSignup(st.users))
	}
	h := authhttp.NewHandler(registry, opts...)

	r := chi.NewRouter()
	r.Get("/healthz", httpserver.HealthHandler(st.checks, log))
	r.Mount("/auth", h.Routes())

	log.Info("starting authd",
		"storage", cfg.StorageDriver,
		"schemes", registry.Aliases(),
	)
	return httpserver.Run(ctx, cfg.HTTP, r, log)
}
