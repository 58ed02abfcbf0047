package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pet-vaccine-tracker/internal/adapters/auth/jwtauth"
	pg "pet-vaccine-tracker/internal/adapters/storage/postgres"
	"pet-vaccine-tracker/internal/platform/config"
	"pet-vaccine-tracker/internal/platform/logger"
	"pet-vaccine-tracker/internal/platform/metrics"
	"pet-vaccine-tracker/internal/router"
)

// @title Pet Vaccine Tracker API
// @version 1.0
// @description Mascotas, vacunas y dashboard de refuerzos por usuario.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := config.LoadDotEnv(); err != nil {
		logger.NewFromEnv().Error("dotenv", map[string]any{"err": err})
		os.Exit(1)
	}
	log := logger.NewFromEnv()

	cfg, err := config.LoadAPI()
	if err != nil {
		log.Error("config", map[string]any{"err": err})
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := router.Options{
		JWT: jwtauth.New(jwtauth.Config{
			SigningKey: cfg.JWTSigningKey,
			TTL:        cfg.JWTTTL,
		}),
		DebugUsers:  cfg.DebugUsers,
		Logger:      log,
		Metrics:     metrics.New(),
		CORSOrigins: cfg.CORSOrigins,
	}

	if cfg.DSN != "" {
		if cfg.Migrate {
			if err := pg.Migrate(cfg.DSN); err != nil {
				log.Error("migrate", map[string]any{"err": err})
				os.Exit(1)
			}
		}
		pool, err := pg.Open(ctx, cfg.DSN)
		if err != nil {
			log.Error("postgres", map[string]any{"err": err})
			os.Exit(1)
		}
		defer pool.Close()
		opts.DB = pool
		log.Info("using postgres storage", nil)
	} else {
		log.Warn("DB_DSN not set, using in-memory storage", nil)
	}
	if !opts.JWT.IsConfigured() {
		log.Warn("JWT_SIGNING_KEY not set, login will not issue tokens", nil)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router.NewRouter(opts),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("starting server", map[string]any{"addr": srv.Addr, "debug_users": cfg.DebugUsers})
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server error", map[string]any{"err": err})
		os.Exit(1)
	}
	log.Info("server stopped", nil)
}
