package model

import "time"

// Broadcast audiences
const (
	TargetStore = "STORE"
	TargetRole  = "ROLE"
)

// Broadcast task states; everything but PENDING is terminal
const (
	TaskPending  = "PENDING"
	TaskExecuted = "EXECUTED"
	TaskSkipped  = "SKIPPED"
	TaskFailed   = "FAILED"
)

// BroadcastTask one-shot scheduled notification to a store or a role, table broadcast_tasks
type BroadcastTask struct {
	TaskID        string     `gorm:"type:uuid;primaryKey"                    json:"task_id"`
	TargetType    string     `gorm:"type:varchar(10);not null"               json:"target_type"`
	TargetValue   string     `gorm:"type:varchar(64);not null"               json:"target_value"`
	TemplateID    string     `gorm:"type:varchar(64);not null"               json:"template_id"`
	ScheduledAt   time.Time  `gorm:"not null"                                json:"scheduled_at"`
	IsActive      bool       `gorm:"not null;default:true"                   json:"is_active"`
	Status        string     `gorm:"type:varchar(10);not null;default:PENDING" json:"status"`
	ExecutedAt    *time.Time `json:"executed_at,omitempty"`
	TargetsHit    *int       `json:"targets_hit,omitempty"`
	PushSucceeded *int       `json:"push_succeeded,omitempty"`
	PushFailed    *int       `json:"push_failed,omitempty"`
	Error         *string    `gorm:"type:text"                               json:"error,omitempty"`
	Reason        *string    `gorm:"type:text"                               json:"reason,omitempty"`
	CreatedAt     time.Time  `gorm:"not null"                                json:"created_at"`
	CreatedBy     *string    `gorm:"type:varchar(64)"                        json:"created_by,omitempty"`
}

// TableName table name
func (BroadcastTask) TableName() string { return "broadcast_tasks" }

// TaskOutcome terminal transition of a broadcast task
type TaskOutcome struct {
	Status        string
	ExecutedAt    time.Time
	TargetsHit    int
	PushSucceeded int
	PushFailed    int
	Error         string
	Reason        string
}
