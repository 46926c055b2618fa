package department

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/separation-management/internal"
	"github.com/frahmantamala/separation-management/internal/auth"
	departmentDatamodel "github.com/frahmantamala/separation-management/internal/core/datamodel/department"
)

type RepositoryAPI interface {
	GetAll(ctx context.Context) ([]*departmentDatamodel.Department, error)
	GetByID(ctx context.Context, id int64) (*departmentDatamodel.Department, error)
	ExistsByNameOrCode(ctx context.Context, name, code string, excludeID int64) (bool, error)
	Create(ctx context.Context, dept *departmentDatamodel.Department) error
	Update(ctx context.Context, dept *departmentDatamodel.Department) error
	Usage(ctx context.Context, id int64) (Usage, error)
	Delete(ctx context.Context, id int64) error
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

func (s *Service) List(ctx context.Context) ([]*Department, error) {
	rows, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.Error("failed to list departments", "error", err)
		return nil, internal.NewInternalError("failed to list departments", err)
	}

	departments := make([]*Department, 0, len(rows))
	for _, row := range rows {
		departments = append(departments, FromDataModel(row))
	}
	return departments, nil
}

// GetByID returns ErrDepartmentNotFound for unknown ids.
func (s *Service) GetByID(ctx context.Context, id int64) (*Department, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to load department", err)
	}
	if row == nil {
		return nil, internal.ErrDepartmentNotFound
	}
	return FromDataModel(row), nil
}

func (s *Service) Create(ctx context.Context, actor *auth.Actor, dto CreateDepartmentDTO) (*Department, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if err := auth.Authorize(actor, auth.ActionDirectoryManage, auth.Resource{}); err != nil {
		return nil, err
	}

	dept := &Department{
		Name:        dto.Name,
		Code:        NormalizeCode(dto.Code),
		Description: dto.Description,
		ParentID:    dto.ParentID,
	}
	if err := s.checkWritable(ctx, dept, 0); err != nil {
		return nil, err
	}

	row := ToDataModel(dept)
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.Error("failed to create department", "error", err, "code", dept.Code)
		return nil, internal.NewInternalError("failed to create department", err)
	}

	s.logger.Info("department created", "department_id", row.ID, "code", row.Code, "actor_id", actor.ID)
	return FromDataModel(row), nil
}

func (s *Service) Update(ctx context.Context, actor *auth.Actor, id int64, dto UpdateDepartmentDTO) (*Department, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	dept, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(actor, auth.ActionDirectoryManage, auth.Resource{}); err != nil {
		return nil, err
	}

	if dto.Name != nil {
		dept.Name = *dto.Name
	}
	if dto.Code != nil {
		dept.Code = NormalizeCode(*dto.Code)
	}
	if dto.Description != nil {
		dept.Description = *dto.Description
	}
	if dto.ParentID != nil {
		if *dto.ParentID == id {
			return nil, internal.NewValidationFieldError("parent_id", "a department cannot be its own parent", internal.ErrCodeInvalidValue)
		}
		dept.ParentID = dto.ParentID
	}
	if err := s.checkWritable(ctx, dept, id); err != nil {
		return nil, err
	}

	row := ToDataModel(dept)
	if err := s.repo.Update(ctx, row); err != nil {
		s.logger.Error("failed to update department", "error", err, "department_id", id)
		return nil, internal.NewInternalError("failed to update department", err)
	}
	return FromDataModel(row), nil
}

// Delete refuses to remove a department that users, sign-offs, child departments or templates still reference.
func (s *Service) Delete(ctx context.Context, actor *auth.Actor, id int64) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if err := auth.Authorize(actor, auth.ActionDirectoryManage, auth.Resource{}); err != nil {
		return err
	}

	usage, err := s.repo.Usage(ctx, id)
	if err != nil {
		return internal.NewInternalError("failed to check department usage", err)
	}
	if usage.InUse() {
		s.logger.Warn("department delete refused",
			"department_id", id,
			"users", usage.Users,
			"signoffs", usage.SignOffs,
			"children", usage.Children,
			"templates", usage.Templates)
		return internal.NewConflictError("department is still referenced and cannot be deleted", internal.ErrCodeDepartmentInUse).
			WithDetails(map[string]int64{
				"users":     usage.Users,
				"signoffs":  usage.SignOffs,
				"children":  usage.Children,
				"templates": usage.Templates,
			})
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return internal.NewInternalError("failed to delete department", err)
	}
	s.logger.Info("department deleted", "department_id", id, "actor_id", actor.ID)
	return nil
}

func (s *Service) checkWritable(ctx context.Context, dept *Department, excludeID int64) error {
	exists, err := s.repo.ExistsByNameOrCode(ctx, dept.Name, dept.Code, excludeID)
	if err != nil {
		return internal.NewInternalError("failed to check department uniqueness", err)
	}
	if exists {
		return internal.NewConflictError("a department with this name or code already exists", internal.ErrCodeDuplicateDepartment)
	}
	if dept.ParentID != nil {
		parent, err := s.repo.GetByID(ctx, *dept.ParentID)
		if err != nil {
			return internal.NewInternalError("failed to load parent department", err)
		}
		if parent == nil {
			return internal.NewValidationFieldError("parent_id", "parent department does not exist", internal.ErrCodeInvalidValue)
		}
	}
	return nil
}
