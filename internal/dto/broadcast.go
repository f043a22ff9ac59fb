package dto

import "time"

// ── scheduled broadcasts ──

// CreateBroadcastTaskRequest one-shot broadcast
type CreateBroadcastTaskRequest struct {
	TargetType  string    `json:"target_type"  binding:"required,oneof=STORE ROLE"`
	TargetValue string    `json:"target_value" binding:"required,max=64"`
	TemplateID  string    `json:"template_id"  binding:"required,max=64"`
	ScheduledAt time.Time `json:"scheduled_at" binding:"required"`
}

// BroadcastTaskListRequest task listing
type BroadcastTaskListRequest struct {
	PaginationRequest
	Status string `form:"status" binding:"omitempty,oneof=PENDING EXECUTED SKIPPED FAILED"`
}

// BroadcastTaskResponse task with its outcome once terminal
type BroadcastTaskResponse struct {
	ID            string  `json:"id"`
	TargetType    string  `json:"target_type"`
	TargetValue   string  `json:"target_value"`
	TemplateID    string  `json:"template_id"`
	ScheduledAt   string  `json:"scheduled_at"`
	IsActive      bool    `json:"is_active"`
	Status        string  `json:"status"`
	ExecutedAt    *string `json:"executed_at,omitempty"`
	TargetsHit    *int    `json:"targets_hit,omitempty"`
	PushSucceeded *int    `json:"push_succeeded,omitempty"`
	PushFailed    *int    `json:"push_failed,omitempty"`
	Error         *string `json:"error,omitempty"`
	Reason        *string `json:"reason,omitempty"`
}

// RunDueResponse summary of one runner pass
type RunDueResponse struct {
	Considered int `json:"considered"`
	Executed   int `json:"executed"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
	Contended  int `json:"contended"`
}
