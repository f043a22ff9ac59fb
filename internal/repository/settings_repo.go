package repository

import (
	"context"

	"gorm.io/gorm"

	"shiftboard/internal/model"
)

// SettingsRepository per-scope settings rows
type SettingsRepository interface {
	Get(ctx context.Context, scopeID string) (*model.Settings, error)
	Save(ctx context.Context, s *model.Settings) error
	// SetRegistrationOpen writes only the flag, leaving concurrent edits of other columns intact
	SetRegistrationOpen(ctx context.Context, scopeID string, open bool) error
}

type settingsRepo struct {
	db *gorm.DB
}

// NewSettingsRepo creates a SettingsRepository
func NewSettingsRepo(db *gorm.DB) SettingsRepository {
	return &settingsRepo{db: db}
}

func (r *settingsRepo) Get(ctx context.Context, scopeID string) (*model.Settings, error) {
	var s model.Settings
	err := r.db.WithContext(ctx).
		Where("scope_id = ?", scopeID).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *settingsRepo) Save(ctx context.Context, s *model.Settings) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *settingsRepo) SetRegistrationOpen(ctx context.Context, scopeID string, open bool) error {
	return r.db.WithContext(ctx).
		Model(&model.Settings{}).
		Where("scope_id = ?", scopeID).
		Updates(map[string]interface{}{
			"registration_open": open,
			"updated_at":        gorm.Expr("CURRENT_TIMESTAMP"),
		}).Error
}
