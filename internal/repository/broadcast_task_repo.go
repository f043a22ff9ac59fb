package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"shiftboard/internal/model"
)

// BroadcastTaskRepository scheduled broadcast tasks
type BroadcastTaskRepository interface {
	Create(ctx context.Context, t *model.BroadcastTask) error
	GetByID(ctx context.Context, id string) (*model.BroadcastTask, error)
	List(ctx context.Context, status string, offset, limit int) ([]model.BroadcastTask, int64, error)
	// ListDue returns active pending tasks scheduled at or before now, oldest first
	ListDue(ctx context.Context, now time.Time, limit int) ([]model.BroadcastTask, error)
	// Finish moves a pending task to its terminal state. It reports false when
	// the task was no longer pending.
	Finish(ctx context.Context, taskID string, outcome model.TaskOutcome) (bool, error)
}

type broadcastTaskRepo struct {
	db *gorm.DB
}

// NewBroadcastTaskRepo creates a BroadcastTaskRepository
func NewBroadcastTaskRepo(db *gorm.DB) BroadcastTaskRepository {
	return &broadcastTaskRepo{db: db}
}

func (r *broadcastTaskRepo) Create(ctx context.Context, t *model.BroadcastTask) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *broadcastTaskRepo) GetByID(ctx context.Context, id string) (*model.BroadcastTask, error) {
	var t model.BroadcastTask
	err := r.db.WithContext(ctx).
		Where("task_id = ?", id).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *broadcastTaskRepo) List(ctx context.Context, status string, offset, limit int) ([]model.BroadcastTask, int64, error) {
	var list []model.BroadcastTask
	var total int64

	db := r.db.WithContext(ctx).Model(&model.BroadcastTask{})
	if status != "" {
		db = db.Where("status = ?", status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Order("scheduled_at DESC").
		Offset(offset).Limit(limit).
		Find(&list).Error; err != nil {
		return nil, 0, err
	}

	return list, total, nil
}

func (r *broadcastTaskRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]model.BroadcastTask, error) {
	var list []model.BroadcastTask
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND status = ? AND scheduled_at <= ?", true, model.TaskPending, now).
		Order("scheduled_at").
		Limit(limit).
		Find(&list).Error
	return list, err
}

func (r *broadcastTaskRepo) Finish(ctx context.Context, taskID string, outcome model.TaskOutcome) (bool, error) {
	updates := map[string]interface{}{
		"status":    outcome.Status,
		"is_active": false,
	}
	switch outcome.Status {
	case model.TaskExecuted:
		updates["executed_at"] = outcome.ExecutedAt
		updates["targets_hit"] = outcome.TargetsHit
		updates["push_succeeded"] = outcome.PushSucceeded
		updates["push_failed"] = outcome.PushFailed
	case model.TaskSkipped:
		updates["reason"] = outcome.Reason
	case model.TaskFailed:
		updates["error"] = outcome.Error
	}

	result := r.db.WithContext(ctx).
		Model(&model.BroadcastTask{}).
		Where("task_id = ? AND status = ?", taskID, model.TaskPending).
		Updates(updates)
	return result.RowsAffected > 0, result.Error
}
