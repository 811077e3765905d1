package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	applogger "backtest_server/internal/infra/logger"
)

// Connect opens the session database. Postgres DSNs (postgres:// or
// key=value form) get the postgres driver; anything else is treated as a
// SQLite file path, the default for local single-user use.
func Connect(ctx context.Context, dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database dsn required")
	}

	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return connectPostgres(ctx, dsn)
	}
	return connectSQLite(ctx, dsn)
}

// zerologWriter adapts zerolog to gorm's logger.Writer.
type zerologWriter struct {
	logger zerolog.Logger
}

func (w *zerologWriter) Printf(format string, v ...interface{}) {
	w.logger.Warn().Msg(fmt.Sprintf(format, v...))
}

func gormLogger() logger.Interface {
	writer := &zerologWriter{
		logger: applogger.Logger.With().Str("component", "gorm").Logger(),
	}
	return logger.New(writer, logger.Config{
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}
