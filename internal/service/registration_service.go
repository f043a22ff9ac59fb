package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"shiftboard/internal/dto"
	"shiftboard/internal/model"
	"shiftboard/internal/repository"
	apperrors "shiftboard/pkg/errors"
)

// RegistrationService employees' weekly availability
type RegistrationService interface {
	// Submit replaces the caller's availability for one week while the window
	// is open. An empty shift list withdraws the registration and returns nil.
	// A week a manager has force-assigned is no longer the employee's to change.
	Submit(ctx context.Context, req *dto.SubmitRegistrationRequest, caller Caller) (*dto.RegistrationResponse, error)
	GetMine(ctx context.Context, userID, weekStart string) (*dto.RegistrationResponse, error)
	ListWeek(ctx context.Context, req *dto.RegistrationQuery, caller Caller) ([]dto.RegistrationResponse, error)
}

type registrationService struct {
	repo     *repository.Repository
	settings SettingsService
	logger   *zap.Logger
	now      func() time.Time
}

// NewRegistrationService creates a RegistrationService
func NewRegistrationService(repo *repository.Repository, settings SettingsService, logger *zap.Logger) RegistrationService {
	return &registrationService{repo: repo, settings: settings, logger: logger, now: time.Now}
}

// ════════════════════════════════════════════════════════════
// Submit
// ════════════════════════════════════════════════════════════

func (s *registrationService) Submit(ctx context.Context, req *dto.SubmitRegistrationRequest, caller Caller) (*dto.RegistrationResponse, error) {
	shifts, err := validateWeek(req.WeekStartDate, req.Shifts)
	if err != nil {
		return nil, err
	}

	open, err := s.settings.RegistrationOpen(ctx, caller.StoreID)
	if err != nil {
		return nil, err
	}
	if !open {
		return nil, ErrRegistrationClosed
	}

	existing, err := s.repo.Registration.Get(ctx, caller.UserID, req.WeekStartDate)
	switch {
	case err == nil && existing.IsAssignedByManager:
		return nil, ErrRegistrationManaged
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		s.logger.Error("load registration failed", zap.String("user_id", caller.UserID), zap.Error(err))
		return nil, err
	}

	if len(shifts) == 0 {
		if err := s.repo.Registration.Delete(ctx, caller.UserID, req.WeekStartDate); err != nil {
			s.logger.Error("withdraw registration failed", zap.String("user_id", caller.UserID), zap.Error(err))
			return nil, err
		}
		return nil, nil
	}

	reg := &model.WeeklyRegistration{
		UserID:              caller.UserID,
		WeekStartDate:       req.WeekStartDate,
		StoreID:             caller.StoreID,
		Shifts:              datatypes.JSONSlice[model.ShiftRef](shifts),
		SubmittedAt:         s.now(),
	}
	if err := s.repo.Registration.Save(ctx, reg); err != nil {
		s.logger.Error("save registration failed", zap.String("user_id", caller.UserID), zap.Error(err))
		return nil, err
	}

	return toRegistrationResponse(reg), nil
}

// ════════════════════════════════════════════════════════════
// Reads
// ════════════════════════════════════════════════════════════

func (s *registrationService) GetMine(ctx context.Context, userID, weekStart string) (*dto.RegistrationResponse, error) {
	reg, err := s.repo.Registration.Get(ctx, userID, weekStart)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRegistrationNotFound
		}
		s.logger.Error("load registration failed", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return toRegistrationResponse(reg), nil
}

func (s *registrationService) ListWeek(ctx context.Context, req *dto.RegistrationQuery, caller Caller) ([]dto.RegistrationResponse, error) {
	storeID := req.StoreID
	if !caller.IsAdmin() {
		if storeID == "" {
			storeID = caller.StoreID
		}
		if !caller.CanManageStore(storeID, PermSchedulePublish) {
			return nil, apperrors.ErrForbidden
		}
	}

	regs, err := s.repo.Registration.ListByWeek(ctx, req.WeekStart, storeID)
	if err != nil {
		s.logger.Error("list registrations failed", zap.String("week_start", req.WeekStart), zap.Error(err))
		return nil, err
	}

	result := make([]dto.RegistrationResponse, 0, len(regs))
	for i := range regs {
		result = append(result, *toRegistrationResponse(&regs[i]))
	}
	return result, nil
}

// ── helpers ──

// validateWeek checks that weekStart is a Monday and that every shift falls in
// that week; duplicate tuples are collapsed.
func validateWeek(weekStart string, in []dto.ShiftRef) ([]model.ShiftRef, error) {
	start, err := time.Parse(model.DateLayout, weekStart)
	if err != nil || start.Weekday() != time.Monday {
		return nil, ErrInvalidWeek
	}
	end := start.AddDate(0, 0, 7)

	out := make([]model.ShiftRef, 0, len(in))
	seen := make(map[model.ShiftRef]struct{}, len(in))
	for _, sr := range in {
		d, err := time.Parse(model.DateLayout, sr.Date)
		if err != nil || d.Before(start) || !d.Before(end) || sr.ShiftID == "" {
			return nil, ErrInvalidWeek
		}
		ref := model.ShiftRef{Date: sr.Date, ShiftID: sr.ShiftID}
		if _, dup := seen[ref]; dup {
			continue
		}
		seen[ref] = struct{}{}
		out = append(out, ref)
	}
	return out, nil
}

func toRegistrationResponse(reg *model.WeeklyRegistration) *dto.RegistrationResponse {
	shifts := make([]dto.ShiftRef, 0, len(reg.Shifts))
	for _, s := range reg.Shifts {
		shifts = append(shifts, dto.ShiftRef{Date: s.Date, ShiftID: s.ShiftID})
	}
	return &dto.RegistrationResponse{
		UserID:              reg.UserID,
		WeekStartDate:       reg.WeekStartDate,
		StoreID:             reg.StoreID,
		Shifts:              shifts,
		SubmittedAt:         reg.SubmittedAt.Format(time.RFC3339),
		IsAssignedByManager: reg.IsAssignedByManager,
	}
}
