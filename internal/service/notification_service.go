package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"shiftboard/internal/dto"
	"shiftboard/internal/model"
	"shiftboard/internal/repository"
	apperrors "shiftboard/pkg/errors"
	"shiftboard/pkg/push"
)

// DispatchInput one notification for one user. Empty optional fields are absent.
type DispatchInput struct {
	UserID     string
	Title      string
	Body       string
	Type       string
	ActionLink string
	StoreID    string
}

// DispatchResult Success mirrors persistence; push delivery never affects it
type DispatchResult struct {
	Success        bool
	NotificationID string
}

// NotificationService persists in-app notifications and attempts delivery
type NotificationService interface {
	// Dispatch stores one notification and attempts one push. Only a
	// storage failure is reported.
	Dispatch(ctx context.Context, in *DispatchInput) (*DispatchResult, error)
	ListMine(ctx context.Context, userID string, req *dto.NotificationListRequest) ([]dto.NotificationResponse, int64, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
}

type notificationService struct {
	repo   *repository.Repository
	sender push.Sender
	logger *zap.Logger
	now    func() time.Time
}

// NewNotificationService creates a NotificationService
func NewNotificationService(repo *repository.Repository, sender push.Sender, logger *zap.Logger) NotificationService {
	return &notificationService{repo: repo, sender: sender, logger: logger, now: time.Now}
}

// ════════════════════════════════════════════════════════════
// Dispatch
// ════════════════════════════════════════════════════════════

func (s *notificationService) Dispatch(ctx context.Context, in *DispatchInput) (*DispatchResult, error) {
	if in.Type == "" {
		in.Type = model.NotificationTypeSystem
	}
	if in.UserID == "" || in.Title == "" || !model.ValidNotificationType(in.Type) {
		return &DispatchResult{}, ErrInvalidNotification
	}

	n := newNotification(in, s.now())
	if err := s.repo.Notification.Create(ctx, &n); err != nil {
		s.logger.Error("store notification failed", zap.String("user_id", in.UserID), zap.Error(err))
		return &DispatchResult{}, apperrors.Wrap(ErrNotificationPersist, err)
	}

	s.deliver(ctx, &n)

	return &DispatchResult{Success: true, NotificationID: n.NotificationID}, nil
}

// deliver is best-effort: every failure ends here
func (s *notificationService) deliver(ctx context.Context, n *model.Notification) {
	user, err := s.repo.User.GetByID(ctx, n.UserID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("lookup push destination failed", zap.String("user_id", n.UserID), zap.Error(err))
		}
		return
	}
	if !user.HasPushToken() {
		return
	}

	token := *user.PushToken
	err = s.sender.SendOne(ctx, pushMessage(token, n))
	switch {
	case err == nil:
	case errors.Is(err, push.ErrTokenExpired):
		s.logger.Info("push token expired, clearing", zap.String("user_id", user.UserID))
		if err := s.repo.User.ClearPushToken(ctx, user.UserID, token); err != nil {
			s.logger.Warn("clear push token failed", zap.String("user_id", user.UserID), zap.Error(err))
		}
	default:
		s.logger.Warn("push delivery failed",
			zap.String("user_id", user.UserID),
			zap.String("notification_id", n.NotificationID),
			zap.Error(err),
		)
	}
}

// ════════════════════════════════════════════════════════════
// Inbox
// ════════════════════════════════════════════════════════════

func (s *notificationService) ListMine(ctx context.Context, userID string, req *dto.NotificationListRequest) ([]dto.NotificationResponse, int64, error) {
	list, total, err := s.repo.Notification.ListByUser(ctx, userID, req.UnreadOnly, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("list notifications failed", zap.String("user_id", userID), zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.NotificationResponse, 0, len(list))
	for i := range list {
		result = append(result, toNotificationResponse(&list[i]))
	}
	return result, total, nil
}

func (s *notificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	if _, err := uuid.Parse(notificationID); err != nil {
		return ErrNotificationNotFound
	}
	ok, err := s.repo.Notification.MarkRead(ctx, userID, notificationID)
	if err != nil {
		s.logger.Error("mark notification read failed", zap.String("notification_id", notificationID), zap.Error(err))
		return err
	}
	if !ok {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	n, err := s.repo.Notification.MarkAllRead(ctx, userID)
	if err != nil {
		s.logger.Error("mark all read failed", zap.String("user_id", userID), zap.Error(err))
		return 0, err
	}
	return n, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	n, err := s.repo.Notification.CountUnread(ctx, userID)
	if err != nil {
		s.logger.Error("count unread failed", zap.String("user_id", userID), zap.Error(err))
		return 0, err
	}
	return n, nil
}

// ── helpers ──

func newNotification(in *DispatchInput, now time.Time) model.Notification {
	n := model.Notification{
		NotificationID: uuid.New().String(),
		UserID:         in.UserID,
		Title:          in.Title,
		Body:           in.Body,
		Type:           in.Type,
		IsRead:         false,
		CreatedAt:      now,
	}
	if in.ActionLink != "" {
		link := in.ActionLink
		n.ActionLink = &link
	}
	if in.StoreID != "" {
		store := in.StoreID
		n.StoreID = &store
	}
	return n
}

func pushMessage(token string, n *model.Notification) push.Message {
	msg := push.Message{
		Token: token,
		Title: n.Title,
		Body:  n.Body,
		Data: map[string]string{
			"notificationId": n.NotificationID,
			"type":           n.Type,
		},
	}
	if n.ActionLink != nil {
		msg.Link = *n.ActionLink
	}
	return msg
}

func toNotificationResponse(n *model.Notification) dto.NotificationResponse {
	return dto.NotificationResponse{
		ID:         n.NotificationID,
		Title:      n.Title,
		Body:       n.Body,
		Type:       n.Type,
		IsRead:     n.IsRead,
		ActionLink: n.ActionLink,
		StoreID:    n.StoreID,
		CreatedAt:  n.CreatedAt.Format(time.RFC3339),
	}
}
