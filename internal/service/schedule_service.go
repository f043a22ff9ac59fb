package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"shiftboard/internal/dto"
	"shiftboard/internal/model"
	"shiftboard/internal/repository"
	apperrors "shiftboard/pkg/errors"
	"shiftboard/pkg/fanout"
)

// maxUnitRangeDays bounds ListUnits queries
const maxUnitRangeDays = 62

// ScheduleService publishes assignment units and force-assigns single shifts
type ScheduleService interface {
	// Publish replaces every listed unit and notifies each affected user once.
	// It returns when the writes finish; notifications follow in the background.
	Publish(ctx context.Context, req *dto.PublishScheduleRequest, caller Caller) (*dto.PublishScheduleResponse, error)
	ListUnits(ctx context.Context, req *dto.ListUnitsRequest, caller Caller) ([]dto.AssignmentUnitResponse, error)
	ForceAssign(ctx context.Context, req *dto.ForceAssignmentRequest, caller Caller) (*dto.ForceAssignmentResponse, error)
	ForceRemove(ctx context.Context, req *dto.ForceAssignmentRequest, caller Caller) (*dto.ForceAssignmentResponse, error)
}

type scheduleService struct {
	repo      *repository.Repository
	resolver  EventResolver
	dispatch  NotificationService
	runner    BackgroundRunner
	batchSize int
	logger    *zap.Logger
	now       func() time.Time
}

// NewScheduleService creates a ScheduleService. batchSize is the storage
// atomic-batch ceiling.
func NewScheduleService(repo *repository.Repository, resolver EventResolver, dispatch NotificationService,
	runner BackgroundRunner, batchSize int, logger *zap.Logger) ScheduleService {
	return &scheduleService{
		repo:      repo,
		resolver:  resolver,
		dispatch:  dispatch,
		runner:    runner,
		batchSize: batchSize,
		logger:    logger,
		now:       time.Now,
	}
}

// pendingUnit an incoming unit and the users whose membership it changes
type pendingUnit struct {
	record   model.AssignmentUnit
	affected []string
}

// ════════════════════════════════════════════════════════════
// Publish: diff, chunked replace, background fan-out
// ════════════════════════════════════════════════════════════

func (s *scheduleService) Publish(ctx context.Context, req *dto.PublishScheduleRequest, caller Caller) (*dto.PublishScheduleResponse, error) {
	if !caller.CanManageStore(req.StoreID, PermSchedulePublish) {
		return nil, apperrors.ErrForbidden
	}

	pending, err := buildPendingUnits(req)
	if err != nil {
		return nil, err
	}

	// 1. existing state; a never-published unit counts as empty
	keys := make([]string, len(pending))
	for i := range pending {
		keys[i] = pending[i].record.UnitID
	}
	existing, err := s.repo.AssignmentUnit.GetByKeys(ctx, keys)
	if err != nil {
		s.logger.Error("load existing units failed", zap.String("store_id", req.StoreID), zap.Error(err))
		return nil, apperrors.Wrap(apperrors.ErrInternal, err)
	}
	previous := make(map[string][]string, len(existing))
	for _, u := range existing {
		previous[u.UnitID] = u.EmployeeIDs
	}

	// 2. per-unit diff
	now := s.now()
	for i := range pending {
		p := &pending[i]
		p.affected = diffMembers(previous[p.record.UnitID], p.record.EmployeeIDs)
		p.record.PublishedAt = now
		p.record.PublishedBy = caller.UserID
	}

	// 3. full replace, one transaction per chunk, chunks in order;
	// a started publish is not cut short by the caller going away
	work := context.WithoutCancel(ctx)
	var committed []pendingUnit
	result := fanout.RunChunked(work, fanout.Chunk(pending, s.batchSize),
		func(ctx context.Context, chunk []pendingUnit) (int, error) {
			records := make([]model.AssignmentUnit, len(chunk))
			for i := range chunk {
				records[i] = chunk[i].record
			}
			if err := s.repo.AssignmentUnit.ReplaceBatch(ctx, records); err != nil {
				return 0, err
			}
			committed = append(committed, chunk...)
			return len(chunk), nil
		},
		fanout.OnError(func(ce fanout.ChunkError) {
			s.logger.Error("publish chunk failed",
				zap.String("store_id", req.StoreID),
				zap.Int("chunk", ce.Index),
				zap.Int("units", ce.Size),
				zap.Error(ce.Err),
			)
		}),
	)
	if result.Succeeded == 0 {
		return nil, ErrPublishFailed
	}

	// 4. one notification per affected user across all committed units
	affected := unionAffected(committed)
	if len(affected) > 0 {
		from, to := dateSpan(committed)
		storeID := req.StoreID
		s.runner.Go(work, "schedule.publish.notify", func(ctx context.Context) error {
			return s.notifyPublished(ctx, affected, storeID, from, to)
		})
	}

	s.logger.Info("schedule published",
		zap.String("store_id", req.StoreID),
		zap.String("by", caller.UserID),
		zap.Int("committed_units", result.Succeeded),
		zap.Int("failed_units", result.Failed),
		zap.Int("affected_users", len(affected)),
	)

	return &dto.PublishScheduleResponse{
		AffectedUsers:  affected,
		CommittedUnits: result.Succeeded,
		FailedUnits:    result.Failed,
	}, nil
}

func (s *scheduleService) notifyPublished(ctx context.Context, users []string, storeID, from, to string) error {
	snap, err := s.resolver.LoadSnapshot(ctx)
	if err != nil {
		s.logger.Warn("load event mappings failed, using fallback messages", zap.Error(err))
		snap = nil
	}
	names := s.userNames(ctx, users)
	link := fmt.Sprintf("/schedule?store=%s&from=%s", storeID, from)

	for _, uid := range users {
		notifyUser(ctx, s.resolver, s.dispatch, snap,
			&TriggerInput{
				EventName: EventSchedulePublished,
				UserID:    uid,
				Data: map[string]any{
					"name":     names[uid],
					"storeId":  storeID,
					"fromDate": from,
					"toDate":   to,
				},
				ActionLink: link,
				StoreID:    storeID,
			},
			&DispatchInput{
				UserID:     uid,
				Title:      "Schedule updated",
				Body:       fmt.Sprintf("Your shifts between %s and %s have changed. Open the schedule to review.", from, to),
				ActionLink: link,
				StoreID:    storeID,
			},
			s.logger,
		)
	}
	return nil
}

// ════════════════════════════════════════════════════════════
// ListUnits
// ════════════════════════════════════════════════════════════

func (s *scheduleService) ListUnits(ctx context.Context, req *dto.ListUnitsRequest, caller Caller) ([]dto.AssignmentUnitResponse, error) {
	if !caller.IsAdmin() && caller.StoreID != req.StoreID {
		return nil, apperrors.ErrForbidden
	}
	from, err1 := time.Parse(model.DateLayout, req.From)
	to, err2 := time.Parse(model.DateLayout, req.To)
	if err1 != nil || err2 != nil || to.Before(from) || to.Sub(from) > maxUnitRangeDays*24*time.Hour {
		return nil, ErrInvalidDateRange
	}

	units, err := s.repo.AssignmentUnit.ListByStoreDates(ctx, req.StoreID, req.From, req.To)
	if err != nil {
		s.logger.Error("list units failed", zap.String("store_id", req.StoreID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.AssignmentUnitResponse, 0, len(units))
	for i := range units {
		u := &units[i]
		result = append(result, dto.AssignmentUnitResponse{
			UnitID:                u.UnitID,
			StoreID:               u.StoreID,
			Date:                  u.Date,
			ShiftID:               u.ShiftID,
			CounterID:             u.CounterID,
			EmployeeIDs:           nonNil(u.EmployeeIDs),
			AssignedByManagerUIDs: nonNil(u.AssignedByManagerUIDs),
			PublishedAt:           u.PublishedAt.Format(time.RFC3339),
			PublishedBy:           u.PublishedBy,
		})
	}
	return result, nil
}

// ════════════════════════════════════════════════════════════
// Force assignment: one tuple against the weekly registration
// ════════════════════════════════════════════════════════════

func (s *scheduleService) ForceAssign(ctx context.Context, req *dto.ForceAssignmentRequest, caller Caller) (*dto.ForceAssignmentResponse, error) {
	user, weekStart, err := s.forceTarget(ctx, req, caller)
	if err != nil {
		return nil, err
	}

	reg, err := s.repo.Registration.Get(ctx, req.UserID, weekStart)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		reg = &model.WeeklyRegistration{
			UserID:        req.UserID,
			WeekStartDate: weekStart,
			StoreID:       user.StoreID,
			SubmittedAt:   s.now(),
		}
	case err != nil:
		s.logger.Error("load registration failed", zap.String("user_id", req.UserID), zap.Error(err))
		return nil, err
	}

	ref := model.ShiftRef{Date: req.Date, ShiftID: req.ShiftID}
	if reg.HasShift(ref) {
		return nil, ErrShiftAlreadyAssigned
	}
	reg.Shifts = append(reg.Shifts, ref)
	reg.IsAssignedByManager = true

	if err := s.repo.Registration.Save(ctx, reg); err != nil {
		s.logger.Error("save registration failed", zap.String("user_id", req.UserID), zap.Error(err))
		return nil, err
	}

	s.notifyForce(ctx, EventShiftForceAssigned, user, req, caller,
		"Shift assigned", fmt.Sprintf("You were assigned to shift %s on %s.", req.ShiftID, req.Date))

	return &dto.ForceAssignmentResponse{Registration: toRegistrationResponse(reg)}, nil
}

func (s *scheduleService) ForceRemove(ctx context.Context, req *dto.ForceAssignmentRequest, caller Caller) (*dto.ForceAssignmentResponse, error) {
	user, weekStart, err := s.forceTarget(ctx, req, caller)
	if err != nil {
		return nil, err
	}

	reg, err := s.repo.Registration.Get(ctx, req.UserID, weekStart)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRegistrationNotFound
		}
		s.logger.Error("load registration failed", zap.String("user_id", req.UserID), zap.Error(err))
		return nil, err
	}

	if !reg.RemoveShift(model.ShiftRef{Date: req.Date, ShiftID: req.ShiftID}) {
		return nil, ErrShiftNotAssigned
	}

	resp := &dto.ForceAssignmentResponse{}
	if len(reg.Shifts) == 0 {
		if err := s.repo.Registration.Delete(ctx, req.UserID, weekStart); err != nil {
			s.logger.Error("delete registration failed", zap.String("user_id", req.UserID), zap.Error(err))
			return nil, err
		}
		resp.Deleted = true
	} else {
		if err := s.repo.Registration.Save(ctx, reg); err != nil {
			s.logger.Error("save registration failed", zap.String("user_id", req.UserID), zap.Error(err))
			return nil, err
		}
		resp.Registration = toRegistrationResponse(reg)
	}

	s.notifyForce(ctx, EventShiftForceRemoved, user, req, caller,
		"Shift removed", fmt.Sprintf("You were removed from shift %s on %s.", req.ShiftID, req.Date))

	return resp, nil
}

// forceTarget validates the tuple and authorizes the caller for the target's store
func (s *scheduleService) forceTarget(ctx context.Context, req *dto.ForceAssignmentRequest, caller Caller) (*model.User, string, error) {
	weekStart, err := model.WeekStart(req.Date)
	if err != nil {
		return nil, "", apperrors.Validation("date must be YYYY-MM-DD")
	}

	user, err := s.repo.User.GetByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrUserNotFound
		}
		s.logger.Error("load user failed", zap.String("user_id", req.UserID), zap.Error(err))
		return nil, "", err
	}

	if !caller.CanManageStore(user.StoreID, PermSchedulePublish) {
		return nil, "", apperrors.ErrForbidden
	}
	return user, weekStart, nil
}

// notifyForce notifies the single affected user synchronously; never fails the call
func (s *scheduleService) notifyForce(ctx context.Context, event string, user *model.User, req *dto.ForceAssignmentRequest,
	caller Caller, title, body string) {

	// the change is already saved; the notice goes out even if the request is gone
	ctx = context.WithoutCancel(ctx)
	snap, err := s.resolver.LoadSnapshot(ctx)
	if err != nil {
		s.logger.Warn("load event mappings failed, using fallback message", zap.Error(err))
		snap = nil
	}
	link := fmt.Sprintf("/schedule?date=%s", req.Date)

	notifyUser(ctx, s.resolver, s.dispatch, snap,
		&TriggerInput{
			EventName: event,
			UserID:    user.UserID,
			Data: map[string]any{
				"name":      user.Name,
				"date":      req.Date,
				"shiftId":   req.ShiftID,
				"managerId": caller.UserID,
			},
			ActionLink: link,
			StoreID:    user.StoreID,
		},
		&DispatchInput{
			UserID:     user.UserID,
			Title:      title,
			Body:       body,
			ActionLink: link,
			StoreID:    user.StoreID,
		},
		s.logger,
	)
}

// ── helpers ──

// buildPendingUnits validates a publish before anything is read or written
func buildPendingUnits(req *dto.PublishScheduleRequest) ([]pendingUnit, error) {
	if len(req.Units) == 0 {
		return nil, apperrors.Validation("units must not be empty")
	}

	seen := make(map[string]struct{}, len(req.Units))
	pending := make([]pendingUnit, 0, len(req.Units))
	for _, u := range req.Units {
		if u.ShiftID == "" || u.CounterID == "" {
			return nil, apperrors.Validation("shift_id and counter_id are required")
		}
		if _, err := time.Parse(model.DateLayout, u.Date); err != nil {
			return nil, apperrors.Validation("date must be YYYY-MM-DD")
		}

		key := model.UnitKey(req.StoreID, u.Date, u.ShiftID, u.CounterID)
		if _, dup := seen[key]; dup {
			return nil, ErrDuplicateUnit
		}
		seen[key] = struct{}{}

		employees := uniqueStrings(u.EmployeeIDs)
		managers := uniqueStrings(u.AssignedByManagerUIDs)
		for _, m := range managers {
			if !slices.Contains(employees, m) {
				return nil, ErrManagerNotEmployee
			}
		}

		pending = append(pending, pendingUnit{record: model.AssignmentUnit{
			UnitID:                key,
			StoreID:               req.StoreID,
			Date:                  u.Date,
			ShiftID:               u.ShiftID,
			CounterID:             u.CounterID,
			EmployeeIDs:           pq.StringArray(employees),
			AssignedByManagerUIDs: pq.StringArray(managers),
		}})
	}
	return pending, nil
}

// diffMembers returns (next − prev) ∪ (prev − next)
func diffMembers(prev, next []string) []string {
	inPrev := make(map[string]struct{}, len(prev))
	for _, id := range prev {
		inPrev[id] = struct{}{}
	}
	inNext := make(map[string]struct{}, len(next))
	for _, id := range next {
		inNext[id] = struct{}{}
	}

	var changed []string
	for _, id := range next {
		if _, ok := inPrev[id]; !ok {
			changed = append(changed, id)
		}
	}
	for _, id := range prev {
		if _, ok := inNext[id]; !ok {
			changed = append(changed, id)
		}
	}
	return changed
}

// unionAffected merges per-unit changes into one sorted set
func unionAffected(units []pendingUnit) []string {
	set := make(map[string]struct{})
	for _, u := range units {
		for _, id := range u.affected {
			set[id] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

func dateSpan(units []pendingUnit) (string, string) {
	var from, to string
	for _, u := range units {
		d := u.record.Date
		if from == "" || d < from {
			from = d
		}
		if d > to {
			to = d
		}
	}
	return from, to
}

func uniqueStrings(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

func (s *scheduleService) userNames(ctx context.Context, ids []string) map[string]string {
	names := make(map[string]string, len(ids))
	users, err := s.repo.User.GetByIDs(ctx, ids)
	if err != nil {
		s.logger.Warn("load user names failed", zap.Error(err))
		return names
	}
	for _, u := range users {
		names[u.UserID] = u.Name
	}
	return names
}
