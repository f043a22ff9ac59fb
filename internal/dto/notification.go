package dto

// ── notifications ──

// NotificationListRequest inbox query
type NotificationListRequest struct {
	PaginationRequest
	UnreadOnly bool `form:"unread_only"`
}

// NotificationResponse one inbox entry
type NotificationResponse struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Body       string  `json:"body"`
	Type       string  `json:"type"`
	IsRead     bool    `json:"is_read"`
	ActionLink *string `json:"action_link,omitempty"`
	StoreID    *string `json:"store_id,omitempty"`
	CreatedAt  string  `json:"created_at"`
}

// UnreadCountResponse unread counter
type UnreadCountResponse struct {
	Unread int64 `json:"unread"`
}

// MarkAllReadResponse rows flipped
type MarkAllReadResponse struct {
	Updated int64 `json:"updated"`
}

// ── templates ──

// TemplateRequest create or update a template
type TemplateRequest struct {
	TemplateID    string `json:"template_id"    binding:"omitempty,max=64"`
	Name          string `json:"name"           binding:"required,max=100"`
	TitleTemplate string `json:"title_template" binding:"required,max=255"`
	BodyTemplate  string `json:"body_template"  binding:"required,max=4000"`
}

// TemplateResponse template plus the placeholders it uses
type TemplateResponse struct {
	TemplateID    string   `json:"template_id"`
	Name          string   `json:"name"`
	TitleTemplate string   `json:"title_template"`
	BodyTemplate  string   `json:"body_template"`
	Variables     []string `json:"variables"`
	UpdatedAt     string   `json:"updated_at"`
}

// ── push destination ──

// UpdatePushTokenRequest registers the caller's device; empty clears it
type UpdatePushTokenRequest struct {
	Token string `json:"token" binding:"max=4096"`
}
