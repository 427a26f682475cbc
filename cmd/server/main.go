package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/anonto42/inkwell/backend/internal/router"
	"github.com/anonto42/inkwell/backend/pkg/config"
	"github.com/anonto42/inkwell/backend/pkg/firebase"
	"github.com/anonto42/inkwell/backend/pkg/logger"
	"github.com/anonto42/inkwell/backend/validators"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "development")
		bootLog.Fatal().Err(err).Msg("invalid configuration")
	}
	log := logger.New(cfg.LogLevel, cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := config.InitDB(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize databases")
	}
	defer db.CloseDB()

	if err := router.Migrate(db.Postgres); err != nil {
		log.Fatal().Err(err).Msg("failed to auto migrate models")
	}

	deps, err := router.NewDependencies(ctx, db.Postgres, db.MongoDB)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to prepare repositories")
	}
	deps.JWTSecret = cfg.JWTSecret
	deps.JWTTTL = cfg.JWTTTL
	deps.CommentRefetchOnMiss = cfg.CommentRefetchOnMiss
	deps.Log = log
	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		deps.Metrics = reg
	}

	if cfg.FirebaseEnabled() {
		app, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize Firebase")
		}
		deps.Firebase = app.AuthClient
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validators.NewValidator()
	router.SetupMiddleware(e, log)
	router.SetupRoutes(e, deps)

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
