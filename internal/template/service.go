package template

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/separation-management/internal"
	"github.com/frahmantamala/separation-management/internal/auth"
	templateDatamodel "github.com/frahmantamala/separation-management/internal/core/datamodel/template"
)

type RepositoryAPI interface {
	GetAll(ctx context.Context, filter Filter) ([]*templateDatamodel.ChecklistTemplate, error)
	GetByID(ctx context.Context, id int64) (*templateDatamodel.ChecklistTemplate, error)
	// FindApplicable returns the lowest-id active template for the department
	// (nil = global templates only), or nil when none exists.
	FindApplicable(ctx context.Context, departmentID *int64) (*templateDatamodel.ChecklistTemplate, error)
	DepartmentExists(ctx context.Context, id int64) (bool, error)
	Create(ctx context.Context, t *templateDatamodel.ChecklistTemplate) error
	Update(ctx context.Context, t *templateDatamodel.ChecklistTemplate, replaceItems bool) error
	Deactivate(ctx context.Context, id int64) error
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) List(ctx context.Context, filter Filter) ([]*Template, error) {
	rows, err := s.repo.GetAll(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list templates", "error", err)
		return nil, internal.NewInternalError("failed to list templates", err)
	}
	templates := make([]*Template, 0, len(rows))
	for _, row := range rows {
		templates = append(templates, FromDataModel(row))
	}
	return templates, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*Template, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to load template", err)
	}
	if row == nil {
		return nil, internal.ErrTemplateNotFound
	}
	return FromDataModel(row), nil
}

// Resolve picks the template that seeds a new case: an active template scoped
// to the department wins over an active global one. Returns nil when neither exists.
func (s *Service) Resolve(ctx context.Context, departmentID *int64) (*Template, error) {
	if departmentID != nil {
		row, err := s.repo.FindApplicable(ctx, departmentID)
		if err != nil {
			return nil, internal.NewInternalError("failed to resolve template", err)
		}
		if row != nil {
			return FromDataModel(row), nil
		}
	}

	row, err := s.repo.FindApplicable(ctx, nil)
	if err != nil {
		return nil, internal.NewInternalError("failed to resolve template", err)
	}
	if row == nil {
		return nil, nil
	}
	return FromDataModel(row), nil
}

func (s *Service) Create(ctx context.Context, actor *auth.Actor, dto CreateTemplateDTO) (*Template, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if err := auth.Authorize(actor, auth.ActionDirectoryManage, auth.Resource{}); err != nil {
		return nil, err
	}
	if err := s.checkDepartment(ctx, dto.DepartmentID); err != nil {
		return nil, err
	}

	createdBy := actor.ID
	t := &Template{
		Name:         dto.Name,
		Description:  dto.Description,
		DepartmentID: dto.DepartmentID,
		IsActive:     true,
		CreatedBy:    &createdBy,
		Items:        toItems(dto.Items),
	}
	row := ToDataModel(t)
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.Error("failed to create template", "error", err)
		return nil, internal.NewInternalError("failed to create template", err)
	}

	s.logger.Info("template created", "template_id", row.ID, "items", len(row.Items), "actor_id", actor.ID)
	return FromDataModel(row), nil
}

func (s *Service) Update(ctx context.Context, actor *auth.Actor, id int64, dto UpdateTemplateDTO) (*Template, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	t, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(actor, auth.ActionDirectoryManage, auth.Resource{}); err != nil {
		return nil, err
	}
	if err := s.checkDepartment(ctx, dto.DepartmentID); err != nil {
		return nil, err
	}

	if dto.Name != nil {
		t.Name = *dto.Name
	}
	if dto.Description != nil {
		t.Description = *dto.Description
	}
	if dto.DepartmentID != nil {
		t.DepartmentID = dto.DepartmentID
	}
	if dto.IsActive != nil {
		t.IsActive = *dto.IsActive
	}
	replaceItems := dto.Items != nil
	if replaceItems {
		t.Items = toItems(*dto.Items)
	}

	row := ToDataModel(t)
	if err := s.repo.Update(ctx, row, replaceItems); err != nil {
		s.logger.Error("failed to update template", "error", err, "template_id", id)
		return nil, internal.NewInternalError("failed to update template", err)
	}
	return s.GetByID(ctx, id)
}

// Delete deactivates the template. Cases already seeded from it keep their items.
func (s *Service) Delete(ctx context.Context, actor *auth.Actor, id int64) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if err := auth.Authorize(actor, auth.ActionDirectoryManage, auth.Resource{}); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return internal.NewInternalError("failed to deactivate template", err)
	}
	s.logger.Info("template deactivated", "template_id", id, "actor_id", actor.ID)
	return nil
}

func (s *Service) checkDepartment(ctx context.Context, departmentID *int64) error {
	if departmentID == nil {
		return nil
	}
	ok, err := s.repo.DepartmentExists(ctx, *departmentID)
	if err != nil {
		return internal.NewInternalError("failed to check department", err)
	}
	if !ok {
		return internal.NewValidationFieldError("department_id", "department does not exist", internal.ErrCodeInvalidValue)
	}
	return nil
}
