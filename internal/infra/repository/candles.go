package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"backtest_server/internal/domain"
)

type GormCandleCache struct {
	db *gorm.DB
}

func NewGormCandleCache(db *gorm.DB) (*GormCandleCache, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	return &GormCandleCache{db: db}, nil
}

func (r *GormCandleCache) SaveCandles(ctx context.Context, instrument, interval string, candles []domain.Candle) error {
	if len(candles) == 0 {
		return nil
	}

	models := make([]CandleModel, len(candles))
	for i, c := range candles {
		models[i] = toCandleModel(instrument, interval, c)
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "instrument"}, {Name: "bar_interval"}, {Name: "bar_time"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"open", "high", "low", "close", "volume"}),
		}).
		CreateInBatches(models, 500).Error
}

func (r *GormCandleCache) LoadCandles(ctx context.Context, instrument, interval string, from, to time.Time) ([]domain.Candle, error) {
	var models []CandleModel
	err := r.db.WithContext(ctx).
		Where("instrument = ? AND bar_interval = ? AND bar_time >= ? AND bar_time <= ?",
			instrument, interval, from.Unix(), to.Unix()).
		Order("bar_time ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	candles := make([]domain.Candle, len(models))
	for i, m := range models {
		candles[i] = m.toDomain()
	}
	return candles, nil
}
