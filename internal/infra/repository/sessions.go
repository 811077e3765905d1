package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"backtest_server/internal/domain"
)

type GormSessionStore struct {
	db *gorm.DB
}

func NewGormSessionStore(db *gorm.DB) (*GormSessionStore, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	return &GormSessionStore{db: db}, nil
}

func (r *GormSessionStore) SaveSnapshot(ctx context.Context, snapshot domain.SessionSnapshot) error {
	model, err := toSessionModel(snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "session_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"instrument", "bar_interval", "current_index", "speed",
				"trades", "position", "drawings", "saved_at", "updated_at",
			}),
		}).
		Create(&model).Error
}

func (r *GormSessionStore) LoadSnapshot(ctx context.Context, id string) (domain.SessionSnapshot, error) {
	var model SessionModel
	err := r.db.WithContext(ctx).
		Where("session_id = ?", id).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.SessionSnapshot{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.SessionSnapshot{}, err
	}

	return model.toDomain()
}

func (r *GormSessionStore) ListSnapshots(ctx context.Context, limit int) ([]domain.SessionSnapshot, error) {
	var models []SessionModel
	query := r.db.WithContext(ctx).Order("saved_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	snaps := make([]domain.SessionSnapshot, 0, len(models))
	for _, m := range models {
		snap, err := m.toDomain()
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	return snaps, nil
}
