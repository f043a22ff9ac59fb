package repository

import (
	"context"

	"gorm.io/gorm"

	"shiftboard/internal/model"
)

// RegistrationRepository weekly availability registrations
type RegistrationRepository interface {
	Get(ctx context.Context, userID, weekStart string) (*model.WeeklyRegistration, error)
	Save(ctx context.Context, reg *model.WeeklyRegistration) error
	Delete(ctx context.Context, userID, weekStart string) error
	// ListByWeek lists one week; an empty storeID lists every store
	ListByWeek(ctx context.Context, weekStart, storeID string) ([]model.WeeklyRegistration, error)
}

type registrationRepo struct {
	db *gorm.DB
}

// NewRegistrationRepo creates a RegistrationRepository
func NewRegistrationRepo(db *gorm.DB) RegistrationRepository {
	return &registrationRepo{db: db}
}

func (r *registrationRepo) Get(ctx context.Context, userID, weekStart string) (*model.WeeklyRegistration, error) {
	var reg model.WeeklyRegistration
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND week_start_date = ?", userID, weekStart).
		First(&reg).Error
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *registrationRepo) Save(ctx context.Context, reg *model.WeeklyRegistration) error {
	return r.db.WithContext(ctx).Save(reg).Error
}

func (r *registrationRepo) Delete(ctx context.Context, userID, weekStart string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND week_start_date = ?", userID, weekStart).
		Delete(&model.WeeklyRegistration{}).Error
}

func (r *registrationRepo) ListByWeek(ctx context.Context, weekStart, storeID string) ([]model.WeeklyRegistration, error) {
	var regs []model.WeeklyRegistration
	db := r.db.WithContext(ctx).Where("week_start_date = ?", weekStart)
	if storeID != "" {
		db = db.Where("store_id = ?", storeID)
	}
	err := db.Order("user_id").Find(&regs).Error
	return regs, err
}
