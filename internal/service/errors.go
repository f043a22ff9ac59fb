package service

import apperrors "shiftboard/pkg/errors"

// ── settings 17xxx ──

var (
	ErrSettingsNotFound = apperrors.New(apperrors.KindNotFound, 17001, "settings not initialised")
	ErrInvalidWindow    = apperrors.New(apperrors.KindValidation, 17002, "invalid registration window")
	ErrUnknownTemplate  = apperrors.New(apperrors.KindValidation, 17003, "event mapping references an unknown template")
)

// ── registration 18xxx ──

var (
	ErrRegistrationClosed   = apperrors.New(apperrors.KindForbidden, 18001, "registration window is closed")
	ErrRegistrationNotFound = apperrors.New(apperrors.KindNotFound, 18002, "registration not found")
	ErrInvalidWeek          = apperrors.New(apperrors.KindValidation, 18003, "week_start_date must be a Monday and shifts must fall inside that week")
	ErrRegistrationManaged  = apperrors.New(apperrors.KindConflict, 18004, "registration was adjusted by a manager")
)

// ── schedule 19xxx ──

var (
	ErrDuplicateUnit        = apperrors.New(apperrors.KindValidation, 19001, "unit listed more than once in one publish")
	ErrManagerNotEmployee   = apperrors.New(apperrors.KindValidation, 19002, "assigned_by_manager_uids must be a subset of employee_ids")
	ErrPublishFailed        = apperrors.New(apperrors.KindInternal, 19003, "no unit could be written")
	ErrShiftAlreadyAssigned = apperrors.New(apperrors.KindConflict, 19004, "shift already assigned to this user")
	ErrShiftNotAssigned     = apperrors.New(apperrors.KindNotFound, 19005, "shift not assigned to this user")
	ErrInvalidDateRange     = apperrors.New(apperrors.KindValidation, 19006, "invalid date range")
)

// ── notification 20xxx ──

var (
	ErrNotificationNotFound = apperrors.New(apperrors.KindNotFound, 20001, "notification not found")
	ErrNotificationPersist  = apperrors.New(apperrors.KindInternal, 20002, "notification could not be stored")
	ErrUserNotFound         = apperrors.New(apperrors.KindNotFound, 20003, "user not found")
	ErrInvalidNotification  = apperrors.New(apperrors.KindValidation, 20004, "user_id, title and a known type are required")
)

// ── template 21xxx ──

var (
	ErrTemplateNotFound = apperrors.New(apperrors.KindNotFound, 21001, "template not found")
	ErrTemplateExists   = apperrors.New(apperrors.KindConflict, 21002, "template id already exists")
)

// ── broadcast 22xxx ──

var (
	ErrTaskInvalidTarget = apperrors.New(apperrors.KindValidation, 22001, "invalid broadcast target")
)

// ── export 23xxx ──

var (
	ErrExportNoUnits  = apperrors.New(apperrors.KindNotFound, 23001, "nothing published for this week")
	ErrExportGenerate = apperrors.New(apperrors.KindInternal, 23002, "export could not be generated")
)
