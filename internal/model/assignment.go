package model

import (
	"strings"
	"time"

	"github.com/lib/pq"
)

// AssignmentUnit published staffing of one counter for one shift on one day, table assignment_units.
// Replaced as a whole on every publish; AssignedByManagerUIDs ⊆ EmployeeIDs.
type AssignmentUnit struct {
	UnitID                string         `gorm:"column:unit_id;type:varchar(255);primaryKey"              json:"unit_id"`
	StoreID               string         `gorm:"column:store_id;type:varchar(64);not null"                json:"store_id"`
	Date                  string         `gorm:"column:date;type:varchar(10);not null"                    json:"date"`
	ShiftID               string         `gorm:"column:shift_id;type:varchar(64);not null"                json:"shift_id"`
	CounterID             string         `gorm:"column:counter_id;type:varchar(64);not null"              json:"counter_id"`
	EmployeeIDs           pq.StringArray `gorm:"column:employee_ids;type:text[];not null"                 json:"employee_ids"`
	AssignedByManagerUIDs pq.StringArray `gorm:"column:assigned_by_manager_uids;type:text[];not null"     json:"assigned_by_manager_uids"`
	PublishedAt           time.Time      `gorm:"column:published_at;not null"                             json:"published_at"`
	PublishedBy           string         `gorm:"column:published_by;type:varchar(64);not null"            json:"published_by"`
}

// TableName table name
func (AssignmentUnit) TableName() string { return "assignment_units" }

// UnitKey composes the unit identity from its parts
func UnitKey(storeID, date, shiftID, counterID string) string {
	return strings.Join([]string{storeID, date, shiftID, counterID}, "_")
}
