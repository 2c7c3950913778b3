package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/medovik-lab/honeybot-backend/internal/bot"
	"github.com/medovik-lab/honeybot-backend/internal/catalog"
	"github.com/medovik-lab/honeybot-backend/internal/orders"
	"github.com/medovik-lab/honeybot-backend/internal/sessions"
	"github.com/medovik-lab/honeybot-backend/internal/stats"
	"github.com/medovik-lab/honeybot-backend/pkg/config"
	"github.com/medovik-lab/honeybot-backend/pkg/db"
	"github.com/medovik-lab/honeybot-backend/pkg/logger"
	"github.com/medovik-lab/honeybot-backend/pkg/migrate"
	"github.com/medovik-lab/honeybot-backend/pkg/telegram"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "bot"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = "bot"

	logg = logger.New(logger.Options{
		ServiceName: "bot",
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

	tgClient, err := telegram.NewClient(cfg.Telegram)
	if err != nil {
		logg.Error(context.Background(), "failed to authorize bot", err)
		os.Exit(1)
	}

	ordersRepo := orders.NewRepository(dbClient.DB())
	sessionsRepo := sessions.NewRepository(dbClient.DB())
	catalogRepo := catalog.NewRepository(dbClient.DB())

	coordinator := orders.NewService(orders.Deps{
		Tx:            dbClient,
		Orders:        ordersRepo,
		Sessions:      sessionsRepo,
		Catalog:       catalogRepo,
		Gateway:       tgClient,
		Logger:        logg,
		AdminChatID:   cfg.Telegram.AdminChatID,
		PickupAddress: cfg.Telegram.PickupAddress,
	})

	statsService := stats.NewService(stats.NewRepository(dbClient.DB()), logg, cfg.Telegram.OwnerID)
	pager := stats.NewCardPager(ordersRepo, cfg.Telegram.OwnerID)

	handler := bot.NewHandler(bot.HandlerParams{
		API:         tgClient.BotAPI(),
		Gateway:     tgClient,
		Coordinator: coordinator,
		Catalog:     catalogRepo,
		Sessions:    sessionsRepo,
		Stats:       statsService,
		Pager:       pager,
		Logger:      logg,
		OwnerID:     cfg.Telegram.OwnerID,
	})
	poller := bot.NewPoller(tgClient.BotAPI(), handler, logg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting bot")

	if err := poller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "bot stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "bot shutting down gracefully")
}
