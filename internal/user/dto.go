package user

import (
	"github.com/frahmantamala/separation-management/internal/auth"
	"github.com/frahmantamala/separation-management/internal/core/common/validation"
)

type CreateUserDTO struct {
	Email          string `json:"email"`
	Name           string `json:"name"`
	Password       string `json:"password"`
	Role           string `json:"role"`
	DepartmentID   *int64 `json:"department_id"`
	ManagerID      *int64 `json:"manager_id"`
	Position       string `json:"position"`
	EmployeeNumber string `json:"employee_number"`
}

func (d CreateUserDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("email", d.Email).Required().Email().MaxLength(255)
	v.Field("name", d.Name).Required().MaxLength(255)
	v.Field("password", d.Password).Required().MinLength(8)
	v.Field("role", d.Role).Required().OneOf(auth.RoleNames()...)
	v.Field("department_id", d.DepartmentID).Positive()
	v.Field("manager_id", d.ManagerID).Positive()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type UpdateUserDTO struct {
	Name           *string `json:"name"`
	Role           *string `json:"role"`
	DepartmentID   *int64  `json:"department_id"`
	ManagerID      *int64  `json:"manager_id"`
	Position       *string `json:"position"`
	EmployeeNumber *string `json:"employee_number"`
	IsActive       *bool   `json:"is_active"`
	Password       *string `json:"password"`
}

func (d UpdateUserDTO) Validate() error {
	v := validation.NewValidator()
	if d.Name != nil {
		v.Field("name", *d.Name).Required().MaxLength(255)
	}
	if d.Role != nil {
		v.Field("role", *d.Role).Required().OneOf(auth.RoleNames()...)
	}
	if d.Password != nil {
		v.Field("password", *d.Password).Required().MinLength(8)
	}
	v.Field("department_id", d.DepartmentID).Positive()
	v.Field("manager_id", d.ManagerID).Positive()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}
