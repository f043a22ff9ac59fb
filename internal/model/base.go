package model

import "time"

// DateLayout is the civil date format used by unit keys and registrations
const DateLayout = "2006-01-02"

// Timestamps audit columns shared by mutable records
type Timestamps struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}
