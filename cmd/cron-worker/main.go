package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/medovik-lab/honeybot-backend/internal/catalog"
	"github.com/medovik-lab/honeybot-backend/internal/cron"
	"github.com/medovik-lab/honeybot-backend/internal/orders"
	"github.com/medovik-lab/honeybot-backend/internal/sessions"
	"github.com/medovik-lab/honeybot-backend/pkg/config"
	"github.com/medovik-lab/honeybot-backend/pkg/db"
	"github.com/medovik-lab/honeybot-backend/pkg/logger"
	"github.com/medovik-lab/honeybot-backend/pkg/metrics"
	"github.com/medovik-lab/honeybot-backend/pkg/migrate"
	"github.com/medovik-lab/honeybot-backend/pkg/redis"
	"github.com/medovik-lab/honeybot-backend/pkg/telegram"
)

const lockKeyFormat = "honeybot:cron-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	sqlDB, err := dbClient.SQLDB()
	if err != nil {
		logg.Error(context.Background(), "failed to access sql handle", err)
		os.Exit(1)
	}
	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, sqlDB); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	tgClient, err := telegram.NewClient(cfg.Telegram)
	if err != nil {
		logg.Error(context.Background(), "failed to authorize bot", err)
		os.Exit(1)
	}

	ordersRepo := orders.NewRepository(dbClient.DB())
	coordinator := orders.NewService(orders.Deps{
		Tx:            dbClient,
		Orders:        ordersRepo,
		Sessions:      sessions.NewRepository(dbClient.DB()),
		Catalog:       catalog.NewRepository(dbClient.DB()),
		Gateway:       tgClient,
		Logger:        logg,
		AdminChatID:   cfg.Telegram.AdminChatID,
		PickupAddress: cfg.Telegram.PickupAddress,
	})

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	sweep, err := cron.NewExpireDraftsJob(cron.ExpireDraftsJobParams{
		Logger:  logg,
		Drafts:  ordersRepo,
		Expirer: coordinator,
		Metrics: metricsCollector,
		TTL:     cfg.Cron.DraftTTL,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create draft sweep job", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(sweep),
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
