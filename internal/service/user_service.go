package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"shiftboard/internal/dto"
	"shiftboard/internal/model"
	"shiftboard/internal/repository"
)

// UserService the caller's own account record
type UserService interface {
	GetMe(ctx context.Context, userID string) (*dto.UserResponse, error)
	// UpdatePushToken registers the device token; an empty token clears it
	UpdatePushToken(ctx context.Context, userID string, req *dto.UpdatePushTokenRequest) error
}

type userService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUserService creates a UserService
func NewUserService(repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger}
}

func (s *userService) GetMe(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("load user failed", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return toUserResponse(user), nil
}

func (s *userService) UpdatePushToken(ctx context.Context, userID string, req *dto.UpdatePushTokenRequest) error {
	var token *string
	if t := strings.TrimSpace(req.Token); t != "" {
		token = &t
	}

	if err := s.repo.User.SetPushToken(ctx, userID, token); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		s.logger.Error("update push token failed", zap.String("user_id", userID), zap.Error(err))
		return err
	}

	s.logger.Info("push token updated", zap.String("user_id", userID), zap.Bool("cleared", token == nil))
	return nil
}

func toUserResponse(u *model.User) *dto.UserResponse {
	return &dto.UserResponse{
		ID:           u.UserID,
		Name:         u.Name,
		Email:        u.Email,
		Role:         u.Role,
		StoreID:      u.StoreID,
		HasPushToken: u.HasPushToken(),
	}
}
