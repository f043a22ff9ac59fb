package dto

// ── schedule publish ──

// PublishUnitRequest full staffing of one unit
type PublishUnitRequest struct {
	Date                  string   `json:"date"                     binding:"required,datetime=2006-01-02"`
	ShiftID               string   `json:"shift_id"                 binding:"required,max=64"`
	CounterID             string   `json:"counter_id"               binding:"required,max=64"`
	EmployeeIDs           []string `json:"employee_ids"             binding:"dive,required,max=64"`
	AssignedByManagerUIDs []string `json:"assigned_by_manager_uids" binding:"dive,required,max=64"`
}

// PublishScheduleRequest a multi-unit publish for one store
type PublishScheduleRequest struct {
	StoreID string               `json:"store_id" binding:"required,max=64"`
	Units   []PublishUnitRequest `json:"units"    binding:"required,min=1,dive"`
}

// PublishScheduleResponse outcome of the writes; notification happens afterwards
type PublishScheduleResponse struct {
	AffectedUsers  []string `json:"affected_users"`
	CommittedUnits int      `json:"committed_units"`
	FailedUnits    int      `json:"failed_units"`
}

// ListUnitsRequest published units of a store in a date range
type ListUnitsRequest struct {
	StoreID string `form:"store_id" binding:"required,max=64"`
	From    string `form:"from"     binding:"required,datetime=2006-01-02"`
	To      string `form:"to"       binding:"required,datetime=2006-01-02"`
}

// AssignmentUnitResponse one published unit
type AssignmentUnitResponse struct {
	UnitID                string   `json:"unit_id"`
	StoreID               string   `json:"store_id"`
	Date                  string   `json:"date"`
	ShiftID               string   `json:"shift_id"`
	CounterID             string   `json:"counter_id"`
	EmployeeIDs           []string `json:"employee_ids"`
	AssignedByManagerUIDs []string `json:"assigned_by_manager_uids"`
	PublishedAt           string   `json:"published_at"`
	PublishedBy           string   `json:"published_by"`
}

// ── force assignment ──

// ForceAssignmentRequest one (user, date, shift) tuple
type ForceAssignmentRequest struct {
	UserID  string `json:"user_id"  binding:"required,max=64"`
	Date    string `json:"date"     binding:"required,datetime=2006-01-02"`
	ShiftID string `json:"shift_id" binding:"required,max=64"`
}

// ForceAssignmentResponse registration after the change; nil when it was deleted
type ForceAssignmentResponse struct {
	Registration *RegistrationResponse `json:"registration"`
	Deleted      bool                  `json:"deleted"`
}
