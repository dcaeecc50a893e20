package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"protegeya-backend/internal/config"
	"protegeya-backend/internal/infrastructure/database"
	"protegeya-backend/internal/infrastructure/lock"
	"protegeya-backend/internal/infrastructure/scheduler"
	"protegeya-backend/internal/interfaces/router"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// App is the wired service: HTTP app, clients and the ledger scheduler.
type App struct {
	Config    *config.Config
	Fiber     *fiber.App
	DB        *gorm.DB
	Redis     *redis.Client
	Services  *router.Services
	Scheduler *scheduler.Scheduler
}

// New opens the database (migrating it), connects Redis when REDIS_URL is set and
// registers routes and scheduled jobs. The scheduler is not started.
func New(cfg *config.Config) (*App, error) {
	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is not configured")
	}
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		rdb = redis.NewClient(opts)
	} else {
		log.Warn().Msg("REDIS_URL not set: request stats disabled, job locks are in-process")
	}

	locker := lock.New(rdb)
	svc := router.NewServices(cfg, db)
	app := router.CreateApp(router.Deps{Config: cfg, DB: db, Redis: rdb, Locker: locker}, svc)

	sched := scheduler.New(cfg.Location, locker)
	for _, job := range scheduler.LedgerJobs(cfg, svc.Accounts, svc.Brokers) {
		if err := sched.Add(job); err != nil {
			return nil, err
		}
	}

	return &App{Config: cfg, Fiber: app, DB: db, Redis: rdb, Services: svc, Scheduler: sched}, nil
}

// Ping checks the database and, when configured, Redis.
func (a *App) Ping(ctx context.Context) error {
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if a.Redis != nil {
		if err := a.Redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

// Close stops the scheduler and releases the clients.
func (a *App) Close(ctx context.Context) {
	a.Scheduler.Stop(ctx)
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
