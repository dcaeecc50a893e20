package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"protegeya-backend/bootstrap"
	"protegeya-backend/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load")
	}
	setupLogging(cfg.Env)

	app, err := bootstrap.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("app create")
	}

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := app.Ping(pingCtx); err != nil {
		cancel()
		log.Fatal().Err(err).Msg("dependency check failed")
	}
	cancel()
	log.Info().Bool("redis", app.Redis != nil).Msg("database connected")

	if cfg.SchedulerEnabled {
		app.Scheduler.Start()
		log.Info().Int("jobs", app.Scheduler.Entries()).Str("tz", cfg.Location.String()).Msg("scheduler started")
	}

	go func() {
		log.Info().Msgf("Server running at http://localhost:%s", cfg.Port)
		log.Info().Msgf("Health check: http://localhost:%s/health/json", cfg.Port)
		if err := app.Fiber.Listen(":" + cfg.Port); err != nil {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info().Msg("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := app.Fiber.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	app.Close(shutdownCtx)
}

func setupLogging(env string) {
	zerolog.TimeFieldFormat = time.RFC3339
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
}
