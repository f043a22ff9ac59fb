package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"shiftboard/internal/dto"
	"shiftboard/internal/model"
	"shiftboard/internal/regwindow"
	"shiftboard/internal/repository"
	apperrors "shiftboard/pkg/errors"
	"shiftboard/pkg/fanout"
	"shiftboard/pkg/placeholder"
	"shiftboard/pkg/push"
)

// dueBatchLimit caps the tasks handled by one RunDue pass
const dueBatchLimit = 50

// BroadcastOptions batch ceilings and claim lifetime
type BroadcastOptions struct {
	StorageBatch int
	PushBatch    int
	ClaimTTL     time.Duration
}

// BroadcastService one-shot scheduled broadcasts
type BroadcastService interface {
	Create(ctx context.Context, req *dto.CreateBroadcastTaskRequest, caller Caller) (*dto.BroadcastTaskResponse, error)
	List(ctx context.Context, req *dto.BroadcastTaskListRequest) ([]dto.BroadcastTaskResponse, int64, error)
	// RunDue processes every active pending task scheduled at or before now.
	// Each task ends in exactly one of EXECUTED, SKIPPED or FAILED.
	RunDue(ctx context.Context, now time.Time) (*dto.RunDueResponse, error)
}

type broadcastService struct {
	repo    *repository.Repository
	sender  push.Sender
	claimer TaskClaimer
	opts    BroadcastOptions
	owner   string
	logger  *zap.Logger
}

// NewBroadcastService creates a BroadcastService. claimer may be nil on a
// single replica.
func NewBroadcastService(repo *repository.Repository, sender push.Sender, claimer TaskClaimer,
	opts BroadcastOptions, logger *zap.Logger) BroadcastService {
	if opts.StorageBatch <= 0 {
		opts.StorageBatch = fanout.DefaultBatchSize
	}
	if opts.PushBatch <= 0 || opts.PushBatch > push.MaxBatch {
		opts.PushBatch = push.MaxBatch
	}
	if opts.ClaimTTL <= 0 {
		opts.ClaimTTL = 10 * time.Minute
	}
	host, _ := os.Hostname()
	return &broadcastService{
		repo:    repo,
		sender:  sender,
		claimer: claimer,
		opts:    opts,
		owner:   fmt.Sprintf("%s-%s", host, uuid.NewString()[:8]),
		logger:  logger,
	}
}

// ════════════════════════════════════════════════════════════
// Create / List
// ════════════════════════════════════════════════════════════

func (s *broadcastService) Create(ctx context.Context, req *dto.CreateBroadcastTaskRequest, caller Caller) (*dto.BroadcastTaskResponse, error) {
	if !caller.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}
	switch req.TargetType {
	case model.TargetStore:
	case model.TargetRole:
		if req.TargetValue != model.RoleAdmin && req.TargetValue != model.RoleStoreManager && req.TargetValue != model.RoleEmployee {
			return nil, ErrTaskInvalidTarget
		}
	default:
		return nil, ErrTaskInvalidTarget
	}
	if req.TargetValue == "" || req.ScheduledAt.IsZero() {
		return nil, ErrTaskInvalidTarget
	}

	if _, err := s.repo.Template.GetByID(ctx, req.TemplateID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTemplateNotFound
		}
		s.logger.Error("load template failed", zap.String("template_id", req.TemplateID), zap.Error(err))
		return nil, err
	}

	createdBy := caller.UserID
	task := &model.BroadcastTask{
		TaskID:      uuid.New().String(),
		TargetType:  req.TargetType,
		TargetValue: req.TargetValue,
		TemplateID:  req.TemplateID,
		ScheduledAt: req.ScheduledAt,
		IsActive:    true,
		Status:      model.TaskPending,
		CreatedAt:   time.Now(),
		CreatedBy:   &createdBy,
	}
	if err := s.repo.BroadcastTask.Create(ctx, task); err != nil {
		s.logger.Error("create broadcast task failed", zap.Error(err))
		return nil, err
	}

	resp := toTaskResponse(task)
	return &resp, nil
}

func (s *broadcastService) List(ctx context.Context, req *dto.BroadcastTaskListRequest) ([]dto.BroadcastTaskResponse, int64, error) {
	list, total, err := s.repo.BroadcastTask.List(ctx, req.Status, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("list broadcast tasks failed", zap.Error(err))
		return nil, 0, err
	}
	result := make([]dto.BroadcastTaskResponse, 0, len(list))
	for i := range list {
		result = append(result, toTaskResponse(&list[i]))
	}
	return result, total, nil
}

// ════════════════════════════════════════════════════════════
// RunDue: PENDING → EXECUTED | SKIPPED | FAILED
// ════════════════════════════════════════════════════════════

func (s *broadcastService) RunDue(ctx context.Context, now time.Time) (*dto.RunDueResponse, error) {
	tasks, err := s.repo.BroadcastTask.ListDue(ctx, now, dueBatchLimit)
	if err != nil {
		s.logger.Error("list due tasks failed", zap.Error(err))
		return nil, err
	}

	// a started task runs to its terminal state; cancellation only stops picking up the next one
	work := context.WithoutCancel(ctx)

	summary := &dto.RunDueResponse{}
	for i := range tasks {
		if ctx.Err() != nil {
			s.logger.Info("run due interrupted", zap.Int("remaining", len(tasks)-i))
			break
		}
		task := &tasks[i]
		if !task.IsActive || task.Status != model.TaskPending || task.ScheduledAt.After(now) {
			continue
		}
		summary.Considered++

		release, ok := s.claim(work, task.TaskID)
		if !ok {
			summary.Contended++
			continue
		}

		outcome := s.process(work, task, now)
		finished, err := s.repo.BroadcastTask.Finish(work, task.TaskID, outcome)
		release()

		if err != nil {
			s.logger.Error("record task outcome failed", zap.String("task_id", task.TaskID), zap.Error(err))
			continue
		}
		if !finished {
			s.logger.Warn("task already finished elsewhere", zap.String("task_id", task.TaskID))
			summary.Contended++
			continue
		}

		switch outcome.Status {
		case model.TaskExecuted:
			summary.Executed++
		case model.TaskSkipped:
			summary.Skipped++
		default:
			summary.Failed++
		}
		s.logger.Info("broadcast task finished",
			zap.String("task_id", task.TaskID),
			zap.String("status", outcome.Status),
			zap.Int("targets", outcome.TargetsHit),
			zap.Int("push_succeeded", outcome.PushSucceeded),
			zap.Int("push_failed", outcome.PushFailed),
			zap.String("reason", outcome.Reason),
		)
	}
	return summary, nil
}

// claim takes the cross-replica claim when a claimer is configured. A claimer
// error is logged and processing continues: Finish is conditional anyway.
func (s *broadcastService) claim(ctx context.Context, taskID string) (func(), bool) {
	noop := func() {}
	if s.claimer == nil {
		return noop, true
	}
	key := "broadcast:" + taskID
	ok, err := s.claimer.Claim(ctx, key, s.owner, s.opts.ClaimTTL)
	if err != nil {
		s.logger.Warn("claim task failed, continuing unclaimed", zap.String("task_id", taskID), zap.Error(err))
		return noop, true
	}
	if !ok {
		return noop, false
	}
	return func() {
		if err := s.claimer.Release(context.WithoutCancel(ctx), key, s.owner); err != nil {
			s.logger.Warn("release task claim failed", zap.String("task_id", taskID), zap.Error(err))
		}
	}, true
}

// process never returns a PENDING outcome; panics become FAILED
func (s *broadcastService) process(ctx context.Context, task *model.BroadcastTask, now time.Time) (outcome model.TaskOutcome) {
	defer func() {
		if p := recover(); p != nil {
			s.logger.Error("broadcast task panicked", zap.String("task_id", task.TaskID), zap.Any("panic", p))
			outcome = model.TaskOutcome{Status: model.TaskFailed, Error: fmt.Sprint(p)}
		}
	}()

	users, err := s.audience(ctx, task)
	if err != nil {
		return model.TaskOutcome{Status: model.TaskFailed, Error: err.Error()}
	}

	tpl, err := s.repo.Template.GetByID(ctx, task.TemplateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.TaskOutcome{Status: model.TaskSkipped, Reason: "template not found"}
		}
		return model.TaskOutcome{Status: model.TaskFailed, Error: err.Error()}
	}
	if len(users) == 0 {
		return model.TaskOutcome{Status: model.TaskSkipped, Reason: "no matching active users"}
	}

	// 1. one record per user
	records := make([]model.Notification, 0, len(users))
	var messages []push.Message
	owners := make(map[string]string)
	for i := range users {
		u := &users[i]
		data := map[string]any{
			"name":    u.Name,
			"userId":  u.UserID,
			"storeId": u.StoreID,
			"role":    u.Role,
			"date":    now.In(regwindow.Zone).Format(model.DateLayout),
		}
		n := newNotification(&DispatchInput{
			UserID:  u.UserID,
			Title:   placeholder.Render(tpl.TitleTemplate, data),
			Body:    placeholder.Render(tpl.BodyTemplate, data),
			Type:    model.NotificationTypeGeneral,
			StoreID: u.StoreID,
		}, now)
		records = append(records, n)

		if u.HasPushToken() {
			messages = append(messages, pushMessage(*u.PushToken, &n))
			if _, seen := owners[*u.PushToken]; !seen {
				owners[*u.PushToken] = u.UserID
			}
		}
	}

	stored := fanout.RunChunked(ctx, fanout.Chunk(records, s.opts.StorageBatch),
		func(ctx context.Context, chunk []model.Notification) (int, error) {
			if err := s.repo.Notification.BatchCreate(ctx, chunk); err != nil {
				return 0, err
			}
			return len(chunk), nil
		},
		fanout.OnError(func(ce fanout.ChunkError) {
			s.logger.Error("store broadcast chunk failed",
				zap.String("task_id", task.TaskID),
				zap.Int("chunk", ce.Index),
				zap.Int("records", ce.Size),
				zap.Error(ce.Err),
			)
		}),
	)
	if stored.Succeeded == 0 {
		return model.TaskOutcome{Status: model.TaskFailed, Error: "no notification could be stored"}
	}

	// 2. one push per physical destination
	unique := fanout.DedupeBy(messages, func(m push.Message) string { return m.Token })
	sent := fanout.RunChunked(ctx, fanout.Chunk(unique, s.opts.PushBatch),
		func(ctx context.Context, chunk []push.Message) (int, error) {
			res, err := s.sender.SendMany(ctx, chunk)
			if err != nil {
				return 0, err
			}
			s.pruneExpired(ctx, res, owners)
			return res.SuccessCount, nil
		},
		fanout.OnError(func(ce fanout.ChunkError) {
			s.logger.Warn("push chunk failed",
				zap.String("task_id", task.TaskID),
				zap.Int("chunk", ce.Index),
				zap.Int("messages", ce.Size),
				zap.Error(ce.Err),
			)
		}),
	)

	return model.TaskOutcome{
		Status:        model.TaskExecuted,
		ExecutedAt:    now,
		TargetsHit:    len(users),
		PushSucceeded: sent.Succeeded,
		PushFailed:    sent.Failed,
	}
}

func (s *broadcastService) audience(ctx context.Context, task *model.BroadcastTask) ([]model.User, error) {
	switch task.TargetType {
	case model.TargetStore:
		return s.repo.User.ListActiveByStore(ctx, task.TargetValue)
	case model.TargetRole:
		return s.repo.User.ListActiveByRole(ctx, task.TargetValue)
	default:
		return nil, fmt.Errorf("unknown target type %q", task.TargetType)
	}
}

func (s *broadcastService) pruneExpired(ctx context.Context, res *push.BatchResult, owners map[string]string) {
	for _, item := range res.Items {
		if item.Success || !errors.Is(item.Err, push.ErrTokenExpired) {
			continue
		}
		if uid, ok := owners[item.Token]; ok {
			if err := s.repo.User.ClearPushToken(ctx, uid, item.Token); err != nil {
				s.logger.Warn("clear push token failed", zap.String("user_id", uid), zap.Error(err))
			}
		}
	}
}

func toTaskResponse(t *model.BroadcastTask) dto.BroadcastTaskResponse {
	resp := dto.BroadcastTaskResponse{
		ID:            t.TaskID,
		TargetType:    t.TargetType,
		TargetValue:   t.TargetValue,
		TemplateID:    t.TemplateID,
		ScheduledAt:   t.ScheduledAt.Format(time.RFC3339),
		IsActive:      t.IsActive,
		Status:        t.Status,
		TargetsHit:    t.TargetsHit,
		PushSucceeded: t.PushSucceeded,
		PushFailed:    t.PushFailed,
		Error:         t.Error,
		Reason:        t.Reason,
	}
	if t.ExecutedAt != nil {
		at := t.ExecutedAt.Format(time.RFC3339)
		resp.ExecutedAt = &at
	}
	return resp
}
