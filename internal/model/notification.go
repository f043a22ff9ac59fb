package model

import "time"

// Notification types
const (
	NotificationTypeSystem      = "SYSTEM"
	NotificationTypeSwapRequest = "SWAP_REQUEST"
	NotificationTypeApproval    = "APPROVAL"
	NotificationTypeGeneral     = "GENERAL"
)

// ValidNotificationType reports whether t is a known type
func ValidNotificationType(t string) bool {
	switch t {
	case NotificationTypeSystem, NotificationTypeSwapRequest, NotificationTypeApproval, NotificationTypeGeneral:
		return true
	}
	return false
}

// Notification in-app inbox entry, table notifications.
// Only IsRead changes after creation.
type Notification struct {
	NotificationID string    `gorm:"type:uuid;primaryKey"       json:"notification_id"`
	UserID         string    `gorm:"type:varchar(64);not null"  json:"user_id"`
	Title          string    `gorm:"type:varchar(255);not null" json:"title"`
	Body           string    `gorm:"type:text;not null"         json:"body"`
	Type           string    `gorm:"type:varchar(20);not null"  json:"type"`
	IsRead         bool      `gorm:"not null;default:false"     json:"is_read"`
	ActionLink     *string   `gorm:"type:text"                  json:"action_link,omitempty"`
	StoreID        *string   `gorm:"type:varchar(64)"           json:"store_id,omitempty"`
	CreatedAt      time.Time `gorm:"not null"                   json:"created_at"`
}

// TableName table name
func (Notification) TableName() string { return "notifications" }

// NotificationTemplate title/body with {key} placeholders, table notification_templates
type NotificationTemplate struct {
	TemplateID    string `gorm:"type:varchar(64);primaryKey"  json:"template_id"`
	Name          string `gorm:"type:varchar(100);not null"   json:"name"`
	TitleTemplate string `gorm:"type:text;not null"           json:"title_template"`
	BodyTemplate  string `gorm:"type:text;not null"           json:"body_template"`
	Timestamps
}

// TableName table name
func (NotificationTemplate) TableName() string { return "notification_templates" }
