package dto

import "shiftboard/internal/regwindow"

// ── settings ──

// SettingsQuery scope selector; empty means global
type SettingsQuery struct {
	StoreID string `form:"store_id" binding:"omitempty,max=64"`
}

// UpdateSettingsRequest partial update of one scope.
// RegistrationOpen is honoured only while the window schedule is disabled.
type UpdateSettingsRequest struct {
	RegistrationOpen *bool               `json:"registration_open"`
	Window           *regwindow.Schedule `json:"window"`
}

// UpdateEventMappingsRequest replaces the eventName → templateId table
type UpdateEventMappingsRequest struct {
	Mappings map[string]string `json:"mappings" binding:"required"`
}

// SettingsResponse effective settings of a scope
type SettingsResponse struct {
	ScopeID          string             `json:"scope_id"`
	RegistrationOpen bool               `json:"registration_open"`
	Window           regwindow.Schedule `json:"window"`
	NextTransition   *string            `json:"next_transition,omitempty"`
	EventMappings    map[string]string  `json:"event_mappings,omitempty"`
	UpdatedAt        string             `json:"updated_at"`
}
