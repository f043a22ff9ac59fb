package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"shiftboard/internal/model"
)

// AssignmentUnitRepository published assignment units
type AssignmentUnitRepository interface {
	GetByKey(ctx context.Context, unitID string) (*model.AssignmentUnit, error)
	GetByKeys(ctx context.Context, unitIDs []string) ([]model.AssignmentUnit, error)
	// ReplaceBatch fully replaces every unit in one transaction: all or none
	ReplaceBatch(ctx context.Context, units []model.AssignmentUnit) error
	ListByStoreDates(ctx context.Context, storeID, fromDate, toDate string) ([]model.AssignmentUnit, error)
	ListByEmployee(ctx context.Context, userID, fromDate, toDate string) ([]model.AssignmentUnit, error)
}

type assignmentUnitRepo struct {
	db *gorm.DB
}

// NewAssignmentUnitRepo creates an AssignmentUnitRepository
func NewAssignmentUnitRepo(db *gorm.DB) AssignmentUnitRepository {
	return &assignmentUnitRepo{db: db}
}

func (r *assignmentUnitRepo) GetByKey(ctx context.Context, unitID string) (*model.AssignmentUnit, error) {
	var unit model.AssignmentUnit
	err := r.db.WithContext(ctx).
		Where("unit_id = ?", unitID).
		First(&unit).Error
	if err != nil {
		return nil, err
	}
	return &unit, nil
}

func (r *assignmentUnitRepo) GetByKeys(ctx context.Context, unitIDs []string) ([]model.AssignmentUnit, error) {
	var units []model.AssignmentUnit
	if len(unitIDs) == 0 {
		return units, nil
	}
	err := r.db.WithContext(ctx).
		Where("unit_id IN ?", unitIDs).
		Find(&units).Error
	return units, err
}

func (r *assignmentUnitRepo) ReplaceBatch(ctx context.Context, units []model.AssignmentUnit) error {
	if len(units) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "unit_id"}},
			UpdateAll: true,
		}).Create(&units).Error
	})
}

func (r *assignmentUnitRepo) ListByStoreDates(ctx context.Context, storeID, fromDate, toDate string) ([]model.AssignmentUnit, error) {
	var units []model.AssignmentUnit
	err := r.db.WithContext(ctx).
		Where("store_id = ? AND date BETWEEN ? AND ?", storeID, fromDate, toDate).
		Order("date, shift_id, counter_id").
		Find(&units).Error
	return units, err
}

func (r *assignmentUnitRepo) ListByEmployee(ctx context.Context, userID, fromDate, toDate string) ([]model.AssignmentUnit, error) {
	var units []model.AssignmentUnit
	err := r.db.WithContext(ctx).
		Where("? = ANY(employee_ids) AND date BETWEEN ? AND ?", userID, fromDate, toDate).
		Order("date, shift_id").
		Find(&units).Error
	return units, err
}
