package model

import (
	"time"

	"gorm.io/datatypes"
)

// ShiftRef one (date, shift) an employee is available for
type ShiftRef struct {
	Date    string `json:"date"`
	ShiftID string `json:"shiftId"`
}

// WeeklyRegistration availability of one user for one week, table weekly_registrations.
// A registration with no shifts is deleted, never stored empty.
type WeeklyRegistration struct {
	UserID              string                        `gorm:"type:varchar(64);primaryKey"  json:"user_id"`
	WeekStartDate       string                        `gorm:"type:varchar(10);primaryKey"  json:"week_start_date"`
	StoreID             string                        `gorm:"type:varchar(64);not null"    json:"store_id"`
	Shifts              datatypes.JSONSlice[ShiftRef] `gorm:"type:jsonb;not null"          json:"shifts"`
	SubmittedAt         time.Time                     `gorm:"not null"                     json:"submitted_at"`
	IsAssignedByManager bool                          `gorm:"not null;default:false"       json:"is_assigned_by_manager"`
}

// TableName table name
func (WeeklyRegistration) TableName() string { return "weekly_registrations" }

// HasShift reports whether ref is already in the list
func (r *WeeklyRegistration) HasShift(ref ShiftRef) bool {
	for _, s := range r.Shifts {
		if s == ref {
			return true
		}
	}
	return false
}

// RemoveShift filters ref out and reports whether it was present
func (r *WeeklyRegistration) RemoveShift(ref ShiftRef) bool {
	kept := r.Shifts[:0]
	found := false
	for _, s := range r.Shifts {
		if s == ref {
			found = true
			continue
		}
		kept = append(kept, s)
	}
	r.Shifts = kept
	return found
}

// WeekStart returns the Monday of the week containing date (DateLayout)
func WeekStart(date string) (string, error) {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return "", err
	}
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset).Format(DateLayout), nil
}
