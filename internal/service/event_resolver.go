package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"shiftboard/internal/model"
	"shiftboard/internal/repository"
	"shiftboard/pkg/placeholder"
)

// Well-known events
const (
	EventSchedulePublished  = "schedule_published"
	EventShiftForceAssigned = "shift_force_assigned"
	EventShiftForceRemoved  = "shift_force_removed"
)

// Outcome of Trigger. Only OutcomeSuccess means a notification was stored;
// OutcomeUnmapped is not an error, the caller sends its own fallback.
type Outcome string

const (
	OutcomeUnmapped        Outcome = "unmapped"
	OutcomeTemplateMissing Outcome = "template_missing"
	OutcomeSuccess         Outcome = "success"
	OutcomeDeliveryError   Outcome = "delivery_error"
)

// TriggerInput one event for one user
type TriggerInput struct {
	EventName  string
	UserID     string
	Data       map[string]any
	ActionLink string
	StoreID    string
	Type       string // defaults to SYSTEM
}

// TriggerResult outcome plus the stored notification id on success
type TriggerResult struct {
	Outcome        Outcome
	NotificationID string
}

// EventSnapshot event mappings read once per invocation, with templates
// memoized for the same invocation. Not safe for concurrent use.
type EventSnapshot struct {
	mappings  map[string]string
	templates map[string]*model.NotificationTemplate
	repo      repository.TemplateRepository
}

// TemplateID returns the template mapped to event
func (s *EventSnapshot) TemplateID(event string) (string, bool) {
	id, ok := s.mappings[event]
	return id, ok && id != ""
}

// template returns nil, nil when the template does not exist
func (s *EventSnapshot) template(ctx context.Context, id string) (*model.NotificationTemplate, error) {
	if t, ok := s.templates[id]; ok {
		return t, nil
	}
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		t = nil
	}
	s.templates[id] = t
	return t, nil
}

// EventResolver turns named events into personalized notifications
type EventResolver interface {
	LoadSnapshot(ctx context.Context) (*EventSnapshot, error)
	Trigger(ctx context.Context, snap *EventSnapshot, in *TriggerInput) (*TriggerResult, error)
}

type eventResolver struct {
	repo     *repository.Repository
	dispatch NotificationService
	logger   *zap.Logger
}

// NewEventResolver creates an EventResolver
func NewEventResolver(repo *repository.Repository, dispatch NotificationService, logger *zap.Logger) EventResolver {
	return &eventResolver{repo: repo, dispatch: dispatch, logger: logger}
}

func (r *eventResolver) LoadSnapshot(ctx context.Context) (*EventSnapshot, error) {
	snap := &EventSnapshot{
		mappings:  map[string]string{},
		templates: map[string]*model.NotificationTemplate{},
		repo:      r.repo.Template,
	}

	settings, err := r.repo.Settings.Get(ctx, model.GlobalScope)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return snap, nil
		}
		return nil, err
	}
	for k, v := range settings.Mappings() {
		snap.mappings[k] = v
	}
	return snap, nil
}

// Trigger returns an error only when the template lookup itself failed
func (r *eventResolver) Trigger(ctx context.Context, snap *EventSnapshot, in *TriggerInput) (*TriggerResult, error) {
	templateID, ok := snap.TemplateID(in.EventName)
	if !ok {
		return &TriggerResult{Outcome: OutcomeUnmapped}, nil
	}

	tpl, err := snap.template(ctx, templateID)
	if err != nil {
		r.logger.Error("load template failed", zap.String("template_id", templateID), zap.Error(err))
		return nil, err
	}
	if tpl == nil {
		return &TriggerResult{Outcome: OutcomeTemplateMissing}, nil
	}

	res, err := r.dispatch.Dispatch(ctx, &DispatchInput{
		UserID:     in.UserID,
		Title:      placeholder.Render(tpl.TitleTemplate, in.Data),
		Body:       placeholder.Render(tpl.BodyTemplate, in.Data),
		Type:       in.Type,
		ActionLink: in.ActionLink,
		StoreID:    in.StoreID,
	})
	if err != nil || !res.Success {
		r.logger.Warn("event dispatch failed",
			zap.String("event", in.EventName),
			zap.String("user_id", in.UserID),
			zap.Error(err),
		)
		return &TriggerResult{Outcome: OutcomeDeliveryError}, nil
	}

	return &TriggerResult{Outcome: OutcomeSuccess, NotificationID: res.NotificationID}, nil
}

// ── notify with fallback ──

// notifyUser triggers event for one user and falls back to a fixed message
// when no usable template is configured. Failures are logged only.
func notifyUser(ctx context.Context, resolver EventResolver, dispatch NotificationService, snap *EventSnapshot,
	in *TriggerInput, fallback *DispatchInput, logger *zap.Logger) {

	outcome := OutcomeUnmapped
	if snap != nil {
		res, err := resolver.Trigger(ctx, snap, in)
		if err != nil {
			outcome = OutcomeTemplateMissing
		} else {
			outcome = res.Outcome
		}
	}

	switch outcome {
	case OutcomeSuccess:
		return
	case OutcomeDeliveryError:
		logger.Warn("notification not stored", zap.String("event", in.EventName), zap.String("user_id", in.UserID))
		return
	case OutcomeTemplateMissing:
		logger.Warn("event template missing, using fallback message", zap.String("event", in.EventName))
	case OutcomeUnmapped:
		logger.Debug("event unmapped, using fallback message", zap.String("event", in.EventName))
	}

	if _, err := dispatch.Dispatch(ctx, fallback); err != nil {
		logger.Warn("fallback notification failed",
			zap.String("event", in.EventName),
			zap.String("user_id", fallback.UserID),
			zap.Error(err),
		)
	}
}
