package dto

// ── weekly registration ──

// ShiftRef one (date, shift) pair
type ShiftRef struct {
	Date    string `json:"date"     binding:"required,datetime=2006-01-02"`
	ShiftID string `json:"shift_id" binding:"required,max=64"`
}

// SubmitRegistrationRequest the caller's availability for one week.
// An empty shift list withdraws the registration.
type SubmitRegistrationRequest struct {
	WeekStartDate string     `json:"week_start_date" binding:"required,datetime=2006-01-02"`
	Shifts        []ShiftRef `json:"shifts"          binding:"max=100,dive"`
}

// RegistrationQuery selects a week
type RegistrationQuery struct {
	WeekStart string `form:"week_start" binding:"required,datetime=2006-01-02"`
	StoreID   string `form:"store_id"   binding:"omitempty,max=64"`
}

// RegistrationResponse one weekly registration
type RegistrationResponse struct {
	UserID              string     `json:"user_id"`
	WeekStartDate       string     `json:"week_start_date"`
	StoreID             string     `json:"store_id"`
	Shifts              []ShiftRef `json:"shifts"`
	SubmittedAt         string     `json:"submitted_at"`
	IsAssignedByManager bool       `json:"is_assigned_by_manager"`
}
