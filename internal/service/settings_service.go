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
	"shiftboard/internal/regwindow"
	"shiftboard/internal/repository"
	apperrors "shiftboard/pkg/errors"
)

// SettingsService per-scope settings with the registration window evaluated on read
type SettingsService interface {
	// Get returns the effective settings of scopeID (a store id, or empty for
	// global). A store without its own row inherits the global one.
	Get(ctx context.Context, scopeID string) (*dto.SettingsResponse, error)
	Update(ctx context.Context, scopeID string, req *dto.UpdateSettingsRequest, caller Caller) (*dto.SettingsResponse, error)
	UpdateEventMappings(ctx context.Context, req *dto.UpdateEventMappingsRequest, caller Caller) (map[string]string, error)
	// RegistrationOpen is the freshly evaluated flag for scopeID
	RegistrationOpen(ctx context.Context, scopeID string) (bool, error)
}

type settingsService struct {
	repo   *repository.Repository
	runner BackgroundRunner
	logger *zap.Logger
	now    func() time.Time
}

// NewSettingsService creates a SettingsService
func NewSettingsService(repo *repository.Repository, runner BackgroundRunner, logger *zap.Logger) SettingsService {
	return &settingsService{repo: repo, runner: runner, logger: logger, now: time.Now}
}

// ────────────────────── Get ──────────────────────

func (s *settingsService) Get(ctx context.Context, scopeID string) (*dto.SettingsResponse, error) {
	row, err := s.load(ctx, scopeID)
	if err != nil {
		return nil, err
	}
	open := s.reconcile(ctx, row)
	return s.toResponse(row, open), nil
}

func (s *settingsService) RegistrationOpen(ctx context.Context, scopeID string) (bool, error) {
	row, err := s.load(ctx, scopeID)
	if err != nil {
		return false, err
	}
	return s.reconcile(ctx, row), nil
}

// load falls back from a store row to the global row
func (s *settingsService) load(ctx context.Context, scopeID string) (*model.Settings, error) {
	if scopeID == "" {
		scopeID = model.GlobalScope
	}
	row, err := s.repo.Settings.Get(ctx, scopeID)
	if errors.Is(err, gorm.ErrRecordNotFound) && scopeID != model.GlobalScope {
		row, err = s.repo.Settings.Get(ctx, model.GlobalScope)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSettingsNotFound
		}
		s.logger.Error("load settings failed", zap.String("scope_id", scopeID), zap.Error(err))
		return nil, err
	}
	return row, nil
}

// reconcile evaluates the window and, when the stored flag is stale, hands a
// corrective write to the background runner. The fresh value is returned
// without waiting for that write.
func (s *settingsService) reconcile(ctx context.Context, row *model.Settings) bool {
	window := row.Window()
	if !window.Enabled {
		return row.RegistrationOpen
	}

	open := regwindow.IsOpen(window, s.now())
	if open != row.RegistrationOpen {
		scopeID := row.ScopeID
		s.runner.Go(ctx, "settings.reconcile", func(ctx context.Context) error {
			return s.repo.Settings.SetRegistrationOpen(ctx, scopeID, open)
		})
	}
	return open
}

// ────────────────────── Update ──────────────────────

func (s *settingsService) Update(ctx context.Context, scopeID string, req *dto.UpdateSettingsRequest, caller Caller) (*dto.SettingsResponse, error) {
	if scopeID == "" {
		scopeID = model.GlobalScope
	}
	if !canEditScope(caller, scopeID) {
		return nil, apperrors.ErrForbidden
	}
	if req.Window != nil {
		if err := req.Window.Validate(); err != nil {
			return nil, apperrors.Wrap(ErrInvalidWindow, err)
		}
	}

	row, err := s.repo.Settings.Get(ctx, scopeID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound) && scopeID != model.GlobalScope:
		// first override for this store starts from the global values
		global, gerr := s.load(ctx, model.GlobalScope)
		if gerr != nil {
			return nil, gerr
		}
		row = &model.Settings{
			ScopeID:          scopeID,
			RegistrationOpen: global.RegistrationOpen,
			EventMappings:    datatypes.NewJSONType(map[string]string{}),
		}
		row.SetWindow(global.Window())
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, ErrSettingsNotFound
	case err != nil:
		s.logger.Error("load settings failed", zap.String("scope_id", scopeID), zap.Error(err))
		return nil, err
	}

	if req.Window != nil {
		row.SetWindow(*req.Window)
	}
	if row.WindowEnabled {
		row.RegistrationOpen = regwindow.IsOpen(row.Window(), s.now())
	} else if req.RegistrationOpen != nil {
		row.RegistrationOpen = *req.RegistrationOpen
	}
	callerID := caller.UserID
	row.UpdatedBy = &callerID

	if err := s.repo.Settings.Save(ctx, row); err != nil {
		s.logger.Error("save settings failed", zap.String("scope_id", scopeID), zap.Error(err))
		return nil, err
	}

	return s.toResponse(row, row.RegistrationOpen), nil
}

func (s *settingsService) UpdateEventMappings(ctx context.Context, req *dto.UpdateEventMappingsRequest, caller Caller) (map[string]string, error) {
	if !caller.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}

	for event, templateID := range req.Mappings {
		if event == "" || templateID == "" {
			return nil, apperrors.Validation("event and template id must not be empty")
		}
		if _, err := s.repo.Template.GetByID(ctx, templateID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrUnknownTemplate
			}
			s.logger.Error("load template failed", zap.String("template_id", templateID), zap.Error(err))
			return nil, err
		}
	}

	row, err := s.load(ctx, model.GlobalScope)
	if err != nil {
		return nil, err
	}
	row.EventMappings = datatypes.NewJSONType(req.Mappings)
	callerID := caller.UserID
	row.UpdatedBy = &callerID

	if err := s.repo.Settings.Save(ctx, row); err != nil {
		s.logger.Error("save event mappings failed", zap.Error(err))
		return nil, err
	}
	return row.Mappings(), nil
}

// ── helpers ──

func canEditScope(caller Caller, scopeID string) bool {
	if caller.IsAdmin() {
		return true
	}
	if scopeID == model.GlobalScope {
		return false
	}
	return caller.CanManageStore(scopeID, PermSettingsManage)
}

func (s *settingsService) toResponse(row *model.Settings, open bool) *dto.SettingsResponse {
	resp := &dto.SettingsResponse{
		ScopeID:          row.ScopeID,
		RegistrationOpen: open,
		Window:           row.Window(),
		UpdatedAt:        row.UpdatedAt.Format(time.RFC3339),
	}
	if resp.Window.Enabled {
		if next := regwindow.NextTransition(resp.Window, s.now()); !next.IsZero() {
			formatted := next.Format(time.RFC3339)
			resp.NextTransition = &formatted
		}
	}
	if row.ScopeID == model.GlobalScope {
		resp.EventMappings = row.Mappings()
	}
	return resp
}
