package user

import (
	"context"
	"log/slog"
	"strings"

	"github.com/frahmantamala/separation-management/internal"
	"github.com/frahmantamala/separation-management/internal/auth"
	"github.com/frahmantamala/separation-management/internal/core/common/pagination"
	userDatamodel "github.com/frahmantamala/separation-management/internal/core/datamodel/user"
)

type RepositoryAPI interface {
	List(ctx context.Context, filter Filter, page pagination.Params) ([]*userDatamodel.User, int64, error)
	ListActive(ctx context.Context) ([]*userDatamodel.User, error)
	GetByID(ctx context.Context, id int64) (*userDatamodel.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	DepartmentExists(ctx context.Context, id int64) (bool, error)
	Create(ctx context.Context, u *userDatamodel.User) error
	Update(ctx context.Context, u *userDatamodel.User) error
}

type Service struct {
	repo       RepositoryAPI
	bcryptCost int
	logger     *slog.Logger
}

func NewService(repo RepositoryAPI, bcryptCost int, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

func (s *Service) List(ctx context.Context, filter Filter, page pagination.Params) (pagination.Page[*User], error) {
	rows, total, err := s.repo.List(ctx, filter, page)
	if err != nil {
		s.logger.Error("failed to list users", "error", err)
		return pagination.Page[*User]{}, internal.NewInternalError("failed to list users", err)
	}

	users := make([]*User, 0, len(rows))
	for _, row := range rows {
		users = append(users, FromDataModel(row))
	}
	return pagination.NewPage(users, total, page), nil
}

// GetByID returns ErrUserNotFound for unknown ids, active or not.
func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to load user", err)
	}
	if row == nil {
		return nil, internal.ErrUserNotFound
	}
	return FromDataModel(row), nil
}

func (s *Service) Create(ctx context.Context, actor *auth.Actor, dto CreateUserDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if err := auth.Authorize(actor, auth.ActionDirectoryManage, auth.Resource{}); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(dto.Email))
	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return nil, internal.NewInternalError("failed to check email", err)
	}
	if exists {
		return nil, internal.NewConflictError("a user with this email already exists", internal.ErrCodeDuplicateEmail)
	}
	if err := s.checkReferences(ctx, 0, dto.DepartmentID, dto.ManagerID); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(dto.Password, s.bcryptCost)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	u := &User{
		Email:          email,
		Name:           dto.Name,
		PasswordHash:   hash,
		Role:           auth.Role(dto.Role),
		DepartmentID:   dto.DepartmentID,
		ManagerID:      dto.ManagerID,
		Position:       dto.Position,
		EmployeeNumber: dto.EmployeeNumber,
		IsActive:       true,
	}
	row := ToDataModel(u)
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.Error("failed to create user", "error", err, "email", email)
		return nil, internal.NewInternalError("failed to create user", err)
	}

	s.logger.Info("user created", "user_id", row.ID, "role", row.Role, "actor_id", actor.ID)
	return FromDataModel(row), nil
}

func (s *Service) Update(ctx context.Context, actor *auth.Actor, id int64, dto UpdateUserDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(actor, auth.ActionDirectoryManage, auth.Resource{}); err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, id, dto.DepartmentID, dto.ManagerID); err != nil {
		return nil, err
	}

	if dto.Name != nil {
		u.Name = *dto.Name
	}
	if dto.Role != nil {
		u.Role = auth.Role(*dto.Role)
	}
	if dto.DepartmentID != nil {
		u.DepartmentID = dto.DepartmentID
	}
	if dto.ManagerID != nil {
		u.ManagerID = dto.ManagerID
	}
	if dto.Position != nil {
		u.Position = *dto.Position
	}
	if dto.EmployeeNumber != nil {
		u.EmployeeNumber = *dto.EmployeeNumber
	}
	if dto.IsActive != nil {
		u.IsActive = *dto.IsActive
	}
	if dto.Password != nil {
		hash, err := auth.HashPassword(*dto.Password, s.bcryptCost)
		if err != nil {
			return nil, internal.NewInternalError("failed to hash password", err)
		}
		u.PasswordHash = hash
	}

	row := ToDataModel(u)
	if err := s.repo.Update(ctx, row); err != nil {
		s.logger.Error("failed to update user", "error", err, "user_id", id)
		return nil, internal.NewInternalError("failed to update user", err)
	}
	return FromDataModel(row), nil
}

// Deactivate is the delete operation: users are never removed.
func (s *Service) Deactivate(ctx context.Context, actor *auth.Actor, id int64) error {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := auth.Authorize(actor, auth.ActionDirectoryManage, auth.Resource{}); err != nil {
		return err
	}
	if u.ID == actor.ID {
		return internal.NewValidationError("you cannot deactivate your own account", internal.ErrCodeInvalidValue)
	}

	u.Deactivate()
	if err := s.repo.Update(ctx, ToDataModel(u)); err != nil {
		return internal.NewInternalError("failed to deactivate user", err)
	}
	s.logger.Info("user deactivated", "user_id", id, "actor_id", actor.ID)
	return nil
}

func (s *Service) OrgChart(ctx context.Context) ([]*OrgNode, error) {
	rows, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, internal.NewInternalError("failed to load users", err)
	}
	users := make([]*User, 0, len(rows))
	for _, row := range rows {
		users = append(users, FromDataModel(row))
	}
	return BuildOrgChart(users), nil
}

func (s *Service) checkReferences(ctx context.Context, selfID int64, departmentID, managerID *int64) error {
	if departmentID != nil {
		ok, err := s.repo.DepartmentExists(ctx, *departmentID)
		if err != nil {
			return internal.NewInternalError("failed to check department", err)
		}
		if !ok {
			return internal.NewValidationFieldError("department_id", "department does not exist", internal.ErrCodeInvalidValue)
		}
	}
	if managerID != nil {
		if *managerID == selfID {
			return internal.NewValidationFieldError("manager_id", "a user cannot manage themselves", internal.ErrCodeInvalidValue)
		}
		manager, err := s.repo.GetByID(ctx, *managerID)
		if err != nil {
			return internal.NewInternalError("failed to check manager", err)
		}
		if manager == nil || !manager.IsActive {
			return internal.NewValidationFieldError("manager_id", "manager must be an active user", internal.ErrCodeInvalidValue)
		}
	}
	return nil
}
