package repository

import (
	"context"

	"gorm.io/gorm"

	"shiftboard/internal/model"
)

// TemplateRepository notification templates
type TemplateRepository interface {
	Create(ctx context.Context, t *model.NotificationTemplate) error
	GetByID(ctx context.Context, id string) (*model.NotificationTemplate, error)
	List(ctx context.Context) ([]model.NotificationTemplate, error)
	Update(ctx context.Context, t *model.NotificationTemplate) error
	Delete(ctx context.Context, id string) error
}

type templateRepo struct {
	db *gorm.DB
}

// NewTemplateRepo creates a TemplateRepository
func NewTemplateRepo(db *gorm.DB) TemplateRepository {
	return &templateRepo{db: db}
}

func (r *templateRepo) Create(ctx context.Context, t *model.NotificationTemplate) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *templateRepo) GetByID(ctx context.Context, id string) (*model.NotificationTemplate, error) {
	var t model.NotificationTemplate
	err := r.db.WithContext(ctx).
		Where("template_id = ?", id).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *templateRepo) List(ctx context.Context) ([]model.NotificationTemplate, error) {
	var list []model.NotificationTemplate
	err := r.db.WithContext(ctx).Order("name").Find(&list).Error
	return list, err
}

func (r *templateRepo) Update(ctx context.Context, t *model.NotificationTemplate) error {
	return r.db.WithContext(ctx).Save(t).Error
}

func (r *templateRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Where("template_id = ?", id).
		Delete(&model.NotificationTemplate{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
