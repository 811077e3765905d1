package repository

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"backtest_server/internal/domain"
)

type CandleModel struct {
	ID         int64   `gorm:"column:id"`
	Instrument string  `gorm:"column:instrument;not null;uniqueIndex:idx_candle_bar,priority:1"`
	Interval   string  `gorm:"column:bar_interval;not null;uniqueIndex:idx_candle_bar,priority:2"`
	Timestamp  int64   `gorm:"column:bar_time;not null;uniqueIndex:idx_candle_bar,priority:3"`
	Open       float64 `gorm:"column:open"`
	High       float64 `gorm:"column:high"`
	Low        float64 `gorm:"column:low"`
	Close      float64 `gorm:"column:close"`
	Volume     int64   `gorm:"column:volume"`
}

func (CandleModel) TableName() string {
	return "candles"
}

func toCandleModel(instrument, interval string, c domain.Candle) CandleModel {
	return CandleModel{
		Instrument: instrument,
		Interval:   interval,
		Timestamp:  c.Timestamp,
		Open:       c.Open,
		High:       c.High,
		Low:        c.Low,
		Close:      c.Close,
		Volume:     c.Volume,
	}
}

func (m CandleModel) toDomain() domain.Candle {
	return domain.Candle{
		Timestamp: m.Timestamp,
		Open:      m.Open,
		High:      m.High,
		Low:       m.Low,
		Close:     m.Close,
		Volume:    m.Volume,
	}
}

type SessionModel struct {
	ID           int64          `gorm:"column:id"`
	SessionID    string         `gorm:"column:session_id;not null;uniqueIndex"`
	Instrument   string         `gorm:"column:instrument;not null"`
	Interval     string         `gorm:"column:bar_interval;not null"`
	CurrentIndex int            `gorm:"column:current_index"`
	Speed        float64        `gorm:"column:speed"`
	Trades       datatypes.JSON `gorm:"column:trades"`
	Position     datatypes.JSON `gorm:"column:position"`
	Drawings     datatypes.JSON `gorm:"column:drawings"`
	SavedAt      time.Time      `gorm:"column:saved_at"`
	CreatedAt    time.Time      `gorm:"column:created_at"`
	UpdatedAt    time.Time      `gorm:"column:updated_at"`
}

func (SessionModel) TableName() string {
	return "sessions"
}

func toSessionModel(snap domain.SessionSnapshot) (SessionModel, error) {
	trades, err := json.Marshal(snap.Trades)
	if err != nil {
		return SessionModel{}, err
	}

	var position []byte
	if snap.Position != nil {
		position, err = json.Marshal(snap.Position)
		if err != nil {
			return SessionModel{}, err
		}
	}

	return SessionModel{
		SessionID:    snap.ID,
		Instrument:   snap.Instrument,
		Interval:     snap.Interval,
		CurrentIndex: snap.CurrentIndex,
		Speed:        snap.Speed,
		Trades:       datatypes.JSON(trades),
		Position:     datatypes.JSON(position),
		Drawings:     datatypes.JSON(append([]byte(nil), snap.Drawings...)),
		SavedAt:      snap.SavedAt,
	}, nil
}

func (m SessionModel) toDomain() (domain.SessionSnapshot, error) {
	snap := domain.SessionSnapshot{
		ID:           m.SessionID,
		Instrument:   m.Instrument,
		Interval:     m.Interval,
		CurrentIndex: m.CurrentIndex,
		Speed:        m.Speed,
		Drawings:     append([]byte(nil), m.Drawings...),
		SavedAt:      m.SavedAt,
	}

	if len(m.Trades) > 0 {
		if err := json.Unmarshal(m.Trades, &snap.Trades); err != nil {
			return domain.SessionSnapshot{}, err
		}
	}
	if len(m.Position) > 0 {
		var pos domain.Position
		if err := json.Unmarshal(m.Position, &pos); err != nil {
			return domain.SessionSnapshot{}, err
		}
		snap.Position = &pos
	}

	return snap, nil
}
