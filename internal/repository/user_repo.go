package repository

import (
	"context"

	"gorm.io/gorm"

	"shiftboard/internal/model"
)

// UserRepository read access to accounts plus push token maintenance
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]model.User, error)
	ListActiveByStore(ctx context.Context, storeID string) ([]model.User, error)
	ListActiveByRole(ctx context.Context, role string) ([]model.User, error)
	SetPushToken(ctx context.Context, userID string, token *string) error
	// ClearPushToken drops token from userID only if it is still the current one
	ClearPushToken(ctx context.Context, userID, token string) error
}

type userRepo struct {
	db *gorm.DB
}

// NewUserRepo creates a UserRepository
func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("user_id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByIDs(ctx context.Context, ids []string) ([]model.User, error) {
	var users []model.User
	if len(ids) == 0 {
		return users, nil
	}
	err := r.db.WithContext(ctx).
		Where("user_id IN ?", ids).
		Find(&users).Error
	return users, err
}

func (r *userRepo) ListActiveByStore(ctx context.Context, storeID string) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Where("store_id = ? AND is_active = ?", storeID, true).
		Order("user_id").
		Find(&users).Error
	return users, err
}

func (r *userRepo) ListActiveByRole(ctx context.Context, role string) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Where("role = ? AND is_active = ?", role, true).
		Order("user_id").
		Find(&users).Error
	return users, err
}

func (r *userRepo) SetPushToken(ctx context.Context, userID string, token *string) error {
	result := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"push_token": token,
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userRepo) ClearPushToken(ctx context.Context, userID, token string) error {
	return r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("user_id = ? AND push_token = ?", userID, token).
		Update("push_token", nil).Error
}
