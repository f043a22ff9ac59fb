package dto

// ── export ──

// ExportRosterRequest one store-week roster
type ExportRosterRequest struct {
	StoreID   string `form:"store_id"   binding:"required,max=64"`
	WeekStart string `form:"week_start" binding:"required,datetime=2006-01-02"`
}

// MyShiftsRequest calendar range; defaults to the current and next four weeks
type MyShiftsRequest struct {
	From string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To   string `form:"to"   binding:"omitempty,datetime=2006-01-02"`
}
