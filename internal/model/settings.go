package model

import (
	"gorm.io/datatypes"

	"shiftboard/internal/regwindow"
)

// GlobalScope is the settings row shared by every store
const GlobalScope = "global"

// Settings one row per scope, table settings.
// The registration window columns are embedded; EventMappings is only
// meaningful on the global row.
type Settings struct {
	ScopeID          string                                `gorm:"type:varchar(64);primaryKey" json:"scope_id"`
	RegistrationOpen bool                                  `gorm:"not null;default:false"      json:"registration_open"`
	WindowEnabled    bool                                  `gorm:"not null;default:false"      json:"window_enabled"`
	OpenDay          int                                   `gorm:"not null;default:0"          json:"open_day"`
	OpenHour         int                                   `gorm:"not null;default:0"          json:"open_hour"`
	OpenMinute       int                                   `gorm:"not null;default:0"          json:"open_minute"`
	CloseDay         int                                   `gorm:"not null;default:0"          json:"close_day"`
	CloseHour        int                                   `gorm:"not null;default:0"          json:"close_hour"`
	CloseMinute      int                                   `gorm:"not null;default:0"          json:"close_minute"`
	EventMappings    datatypes.JSONType[map[string]string] `gorm:"type:jsonb;not null"         json:"event_mappings"`
	UpdatedBy        *string                               `gorm:"type:varchar(64)"            json:"updated_by,omitempty"`
	Timestamps
}

// TableName table name
func (Settings) TableName() string { return "settings" }

// Window returns the registration window schedule stored on the row
func (s *Settings) Window() regwindow.Schedule {
	return regwindow.Schedule{
		Enabled:     s.WindowEnabled,
		OpenDay:     s.OpenDay,
		OpenHour:    s.OpenHour,
		OpenMinute:  s.OpenMinute,
		CloseDay:    s.CloseDay,
		CloseHour:   s.CloseHour,
		CloseMinute: s.CloseMinute,
	}
}

// SetWindow overwrites the window columns
func (s *Settings) SetWindow(w regwindow.Schedule) {
	s.WindowEnabled = w.Enabled
	s.OpenDay, s.OpenHour, s.OpenMinute = w.OpenDay, w.OpenHour, w.OpenMinute
	s.CloseDay, s.CloseHour, s.CloseMinute = w.CloseDay, w.CloseHour, w.CloseMinute
}

// Mappings returns eventName → templateId; never nil
func (s *Settings) Mappings() map[string]string {
	m := s.EventMappings.Data()
	if m == nil {
		return map[string]string{}
	}
	return m
}
