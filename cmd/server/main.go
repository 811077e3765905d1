package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"

	docs "backtest_server/docs"
	"backtest_server/internal/chart"
	"backtest_server/internal/config"
	"backtest_server/internal/infra/db"
	"backtest_server/internal/infra/httpclient"
	applogger "backtest_server/internal/infra/logger"
	"backtest_server/internal/infra/repository"
	httptransport "backtest_server/internal/transport/http"
	"backtest_server/internal/usecase"
)

// @title Backtest Server API
// @version 1.0
// @description Candle playback, simulated trade execution, and trade analytics for manual backtesting.
// @BasePath /api/v1

func main() {
	rootCtx := context.Background()

	applogger.Init("info")
	logger := applogger.Logger

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	applogger.Init(cfg.Logging.Level)
	logger = applogger.Logger
	logger.Info().Str("level", cfg.Logging.Level).Msg("logger initialized")

	docs.SwaggerInfo.Title = "Backtest Server API"
	docs.SwaggerInfo.Version = "1.0"
	docs.SwaggerInfo.Description = "Candle playback, simulated trade execution, and trade analytics for manual backtesting."
	docs.SwaggerInfo.BasePath = "/api/v1"

	logger.Info().Str("dsn", maskDSN(cfg.Database.DSN)).Msg("connecting to database")
	gormDB, err := db.Connect(rootCtx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Fatal().Err(err).Msg("underlying sql db")
	}
	defer sqlDB.Close()

	if err := db.ApplyMigrations(rootCtx, gormDB); err != nil {
		logger.Fatal().Err(err).Msg("apply migrations")
	}
	logger.Info().Msg("migrations applied")

	feed, err := httpclient.NewCandleFeed(cfg.Feed.URL, cfg.Feed.RequestsPerSecond)
	if err != nil {
		logger.Fatal().Err(err).Msg("init candle feed")
	}

	candleCache, err := repository.NewGormCandleCache(gormDB)
	if err != nil {
		logger.Fatal().Err(err).Msg("init candle cache")
	}
	sessionStore, err := repository.NewGormSessionStore(gormDB)
	if err != nil {
		logger.Fatal().Err(err).Msg("init session store")
	}

	candleService, err := usecase.NewCandleService(feed, candleCache, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("init candle service")
	}
	sessionService := usecase.NewSessionService(sessionStore, logger)

	drawingEngine := chart.NewEngine()

	logger.Info().Msg("all services initialized")

	router := httptransport.New(candleService, sessionService, drawingEngine, sessionStore)

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		logger.Fatal().Err(err).Msg("init scheduler")
	}
	defer func() {
		if err := scheduler.Shutdown(); err != nil {
			logger.Error().Err(err).Msg("scheduler shutdown error")
		}
	}()

	_, err = scheduler.NewJob(
		gocron.DurationJob(cfg.Scheduler.Interval),
		gocron.NewTask(func(ctx context.Context) {
			to := time.Now().UTC()
			from := to.Add(-cfg.Session.Lookback)
			count, err := candleService.Sync(ctx, cfg.Session.Instrument, cfg.Session.Interval, from, to)
			if err != nil {
				logger.Error().Err(err).Msg("candle sync error")
				return
			}
			logger.Info().Int("count", count).Msg("candle cache refreshed")
		}),
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("schedule candle sync")
	}
	scheduler.Start()
	logger.Info().Dur("interval", cfg.Scheduler.Interval).Msg("scheduler started")

	serverErr := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Server.Port
		logger.Info().Str("addr", addr).Msg("server listening")
		serverErr <- router.App().Listen(addr)
	}()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Fatal().Err(err).Msg("fiber server error")
		}
	case sig := <-signalCh:
		logger.Info().Str("signal", sig.String()).Msg("received signal, shutting down")
		sessionService.Pause()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := router.App().ShutdownWithContext(ctx); err != nil {
			logger.Error().Err(err).Msg("server shutdown error")
		}
		logger.Info().Msg("server shutdown complete")
	}
}

func maskDSN(dsn string) string {
	if len(dsn) > 20 {
		return dsn[:10] + "***" + dsn[len(dsn)-10:]
	}
	return "***"
}
