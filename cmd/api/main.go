package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/medovik-lab/honeybot-backend/api/routes"
	"github.com/medovik-lab/honeybot-backend/internal/catalog"
	"github.com/medovik-lab/honeybot-backend/pkg/config"
	"github.com/medovik-lab/honeybot-backend/pkg/db"
	"github.com/medovik-lab/honeybot-backend/pkg/logger"
	"github.com/medovik-lab/honeybot-backend/pkg/maps"
	"github.com/medovik-lab/honeybot-backend/pkg/migrate"
	"github.com/medovik-lab/honeybot-backend/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = "api"

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	var mapsClient *maps.Client
	if cfg.Mapbox.Token != "" {
		mapsClient, err = maps.NewClient(cfg.Mapbox.Token,
			maps.WithHTTPClient(&http.Client{Timeout: cfg.Mapbox.Timeout}))
		if err != nil {
			logg.Error(context.Background(), "failed to create maps client", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "mapbox token not set; geocoding endpoints disabled")
	}

	catalogRepo := catalog.NewRepository(dbClient.DB())
	sizeCache := catalog.NewSizeCache(redisClient, catalogRepo,
		func(name string) string { return redis.Key("size", name) },
		func(err error) bool { return errors.Is(err, redis.Nil) })

	handler := routes.NewRouter(cfg, logg, dbClient, redisClient, mapsClient,
		catalogRepo, sizeCache)

	server := &http.Server{
		Addr:    ":" + cfg.App.Port,
		Handler: handler,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"port":        cfg.App.Port,
	})

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "server shutdown failed", err)
			os.Exit(1)
		}
		logg.Info(ctx, "api server shut down gracefully")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	}
}
