package department

import (
	"github.com/frahmantamala/separation-management/internal/core/common/validation"
)

type CreateDepartmentDTO struct {
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description"`
	ParentID    *int64 `json:"parent_id"`
}

func (d CreateDepartmentDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(100)
	v.Field("code", d.Code).Required().MaxLength(20)
	v.Field("parent_id", d.ParentID).Positive()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// UpdateDepartmentDTO only touches the fields that are set.
type UpdateDepartmentDTO struct {
	Name        *string `json:"name"`
	Code        *string `json:"code"`
	Description *string `json:"description"`
	ParentID    *int64  `json:"parent_id"`
}

func (d UpdateDepartmentDTO) Validate() error {
	v := validation.NewValidator()
	if d.Name != nil {
		v.Field("name", *d.Name).Required().MaxLength(100)
	}
	if d.Code != nil {
		v.Field("code", *d.Code).Required().MaxLength(20)
	}
	v.Field("parent_id", d.ParentID).Positive()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}
