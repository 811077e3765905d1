package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	DSN string
}

type FeedConfig struct {
	URL               string
	RequestsPerSecond float64
}

type SessionConfig struct {
	Instrument string
	Interval   string
	Lookback   time.Duration
}

type SchedulerConfig struct {
	Interval time.Duration
}

type LoggingConfig struct {
	Level string
}

type AppConfig struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Feed      FeedConfig
	Session   SessionConfig
	Scheduler SchedulerConfig
	Logging   LoggingConfig
}

func Load() (*AppConfig, error) {
	_ = godotenv.Load()

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "3000")
	viper.SetDefault("DATABASE_DSN", "data/backtest.db")
	viper.SetDefault("CANDLE_FEED_URL", "http://localhost:8080/api/candles")
	viper.SetDefault("CANDLE_FEED_RPS", 2.0)
	viper.SetDefault("SESSION_INSTRUMENT", "NIFTY")
	viper.SetDefault("SESSION_INTERVAL", "5m")
	viper.SetDefault("SESSION_LOOKBACK", "720h")
	viper.SetDefault("SYNC_INTERVAL", "6h")
	viper.SetDefault("LOG_LEVEL", "info")

	syncInterval, err := time.ParseDuration(viper.GetString("SYNC_INTERVAL"))
	if err != nil {
		return nil, fmt.Errorf("invalid sync interval: %w", err)
	}

	lookback, err := time.ParseDuration(viper.GetString("SESSION_LOOKBACK"))
	if err != nil {
		return nil, fmt.Errorf("invalid session lookback: %w", err)
	}

	cfg := &AppConfig{
		Server: ServerConfig{
			Port: viper.GetString("SERVER_PORT"),
		},
		Database: DatabaseConfig{
			DSN: viper.GetString("DATABASE_DSN"),
		},
		Feed: FeedConfig{
			URL:               viper.GetString("CANDLE_FEED_URL"),
			RequestsPerSecond: viper.GetFloat64("CANDLE_FEED_RPS"),
		},
		Session: SessionConfig{
			Instrument: viper.GetString("SESSION_INSTRUMENT"),
			Interval:   viper.GetString("SESSION_INTERVAL"),
			Lookback:   lookback,
		},
		Scheduler: SchedulerConfig{
			Interval: syncInterval,
		},
		Logging: LoggingConfig{
			Level: viper.GetString("LOG_LEVEL"),
		},
	}

	if cfg.Database.DSN == "" {
		return nil, fmt.Errorf("DATABASE_DSN is required")
	}

	return cfg, nil
}
