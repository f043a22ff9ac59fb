package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"shiftboard/internal/dto"
	"shiftboard/internal/model"
	"shiftboard/internal/repository"
	"shiftboard/pkg/placeholder"
)

// TemplateService notification template administration
type TemplateService interface {
	List(ctx context.Context) ([]dto.TemplateResponse, error)
	Get(ctx context.Context, id string) (*dto.TemplateResponse, error)
	Create(ctx context.Context, req *dto.TemplateRequest) (*dto.TemplateResponse, error)
	Update(ctx context.Context, id string, req *dto.TemplateRequest) (*dto.TemplateResponse, error)
	Delete(ctx context.Context, id string) error
}

type templateService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewTemplateService creates a TemplateService
func NewTemplateService(repo *repository.Repository, logger *zap.Logger) TemplateService {
	return &templateService{repo: repo, logger: logger}
}

func (s *templateService) List(ctx context.Context) ([]dto.TemplateResponse, error) {
	list, err := s.repo.Template.List(ctx)
	if err != nil {
		s.logger.Error("list templates failed", zap.Error(err))
		return nil, err
	}
	result := make([]dto.TemplateResponse, 0, len(list))
	for i := range list {
		result = append(result, toTemplateResponse(&list[i]))
	}
	return result, nil
}

func (s *templateService) Get(ctx context.Context, id string) (*dto.TemplateResponse, error) {
	t, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toTemplateResponse(t)
	return &resp, nil
}

func (s *templateService) Create(ctx context.Context, req *dto.TemplateRequest) (*dto.TemplateResponse, error) {
	id := req.TemplateID
	if id == "" {
		id = uuid.New().String()
	} else if _, err := s.repo.Template.GetByID(ctx, id); err == nil {
		return nil, ErrTemplateExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("load template failed", zap.String("template_id", id), zap.Error(err))
		return nil, err
	}

	t := &model.NotificationTemplate{
		TemplateID:    id,
		Name:          req.Name,
		TitleTemplate: req.TitleTemplate,
		BodyTemplate:  req.BodyTemplate,
	}
	if err := s.repo.Template.Create(ctx, t); err != nil {
		s.logger.Error("create template failed", zap.String("template_id", id), zap.Error(err))
		return nil, err
	}

	resp := toTemplateResponse(t)
	return &resp, nil
}

func (s *templateService) Update(ctx context.Context, id string, req *dto.TemplateRequest) (*dto.TemplateResponse, error) {
	t, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	t.Name = req.Name
	t.TitleTemplate = req.TitleTemplate
	t.BodyTemplate = req.BodyTemplate
	if err := s.repo.Template.Update(ctx, t); err != nil {
		s.logger.Error("update template failed", zap.String("template_id", id), zap.Error(err))
		return nil, err
	}

	resp := toTemplateResponse(t)
	return &resp, nil
}

// Delete does not touch event mappings: a dangling mapping resolves as
// template_missing and callers fall back to their fixed message.
func (s *templateService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Template.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTemplateNotFound
		}
		s.logger.Error("delete template failed", zap.String("template_id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *templateService) find(ctx context.Context, id string) (*model.NotificationTemplate, error) {
	t, err := s.repo.Template.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTemplateNotFound
		}
		s.logger.Error("load template failed", zap.String("template_id", id), zap.Error(err))
		return nil, err
	}
	return t, nil
}

func toTemplateResponse(t *model.NotificationTemplate) dto.TemplateResponse {
	vars := placeholder.Keys(t.TitleTemplate + "\n" + t.BodyTemplate)
	if vars == nil {
		vars = []string{}
	}
	return dto.TemplateResponse{
		TemplateID:    t.TemplateID,
		Name:          t.Name,
		TitleTemplate: t.TitleTemplate,
		BodyTemplate:  t.BodyTemplate,
		Variables:     vars,
		UpdatedAt:     t.UpdatedAt.Format(time.RFC3339),
	}
}
