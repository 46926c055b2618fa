package separation

import (
	"github.com/frahmantamala/separation-management/internal"
	"github.com/frahmantamala/separation-management/internal/core/common/datetime"
	"github.com/frahmantamala/separation-management/internal/core/common/validation"
)

type CreateCaseDTO struct {
	// EmployeeID defaults to the caller.
	EmployeeID          *int64        `json:"employee_id"`
	DirectManagerID     *int64        `json:"direct_manager_id"`
	SeparationManagerID *int64        `json:"separation_manager_id"`
	ResignationDate     datetime.Date `json:"resignation_date"`
	LastWorkingDay      datetime.Date `json:"last_working_day"`
	Reason              string        `json:"reason"`
	Notes               string        `json:"notes"`
}

func (d CreateCaseDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("employee_id", d.EmployeeID).Positive()
	v.Field("direct_manager_id", d.DirectManagerID).Positive()
	v.Field("separation_manager_id", d.SeparationManagerID).Positive()
	v.Field("resignation_date", d.ResignationDate.Time).Required()
	v.Field("last_working_day", d.LastWorkingDay.Time).Required().NotBefore(d.ResignationDate.Time, "resignation_date")
	v.Field("reason", d.Reason).MaxLength(2000)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// UpdateCaseDTO changes case details. Manager references need the assign_managers capability.
type UpdateCaseDTO struct {
	DirectManagerID     *int64         `json:"direct_manager_id"`
	SeparationManagerID *int64         `json:"separation_manager_id"`
	ResignationDate     *datetime.Date `json:"resignation_date"`
	LastWorkingDay      *datetime.Date `json:"last_working_day"`
	Reason              *string        `json:"reason"`
	Notes               *string        `json:"notes"`
}

func (d UpdateCaseDTO) TouchesManagers() bool {
	return d.DirectManagerID != nil || d.SeparationManagerID != nil
}

func (d UpdateCaseDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("direct_manager_id", d.DirectManagerID).Positive()
	v.Field("separation_manager_id", d.SeparationManagerID).Positive()
	if d.ResignationDate != nil {
		v.Field("resignation_date", d.ResignationDate.Time).Required()
	}
	if d.LastWorkingDay != nil {
		v.Field("last_working_day", d.LastWorkingDay.Time).Required()
	}
	if d.Reason != nil {
		v.Field("reason", *d.Reason).MaxLength(2000)
	}
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type ToggleChecklistItemDTO struct {
	IsCompleted *bool   `json:"is_completed"`
	Notes       *string `json:"notes"`
}

func (d ToggleChecklistItemDTO) Validate() error {
	if d.IsCompleted == nil {
		return internal.NewValidationFieldError("is_completed", "is_completed is required", internal.ErrCodeValidationFailed)
	}
	return nil
}

type AnnotateChecklistItemDTO struct {
	Notes string `json:"notes"`
}

func (d AnnotateChecklistItemDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("notes", d.Notes).MaxLength(4000)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type AssignSignOffDTO struct {
	DepartmentID int64 `json:"department_id"`
	ManagerID    int64 `json:"manager_id"`
}

func (d AssignSignOffDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("department_id", d.DepartmentID).Required().Positive()
	v.Field("manager_id", d.ManagerID).Required().Positive()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type ResolveSignOffDTO struct {
	Decision SignOffStatus `json:"decision"`
	Comments *string       `json:"comments"`
}

func (d ResolveSignOffDTO) Validate() error {
	if !d.Decision.IsResolved() {
		return internal.NewValidationFieldError("decision", "decision must be approved or rejected", internal.ErrCodeInvalidDecision)
	}
	if d.Comments != nil {
		v := validation.NewValidator()
		v.Field("comments", *d.Comments).MaxLength(4000)
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

type AmendCommentsDTO struct {
	Comments string `json:"comments"`
}

func (d AmendCommentsDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("comments", d.Comments).MaxLength(4000)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type CancelCaseDTO struct {
	Reason string `json:"reason"`
}

func (d CancelCaseDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("reason", d.Reason).Required().MaxLength(2000)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type CompleteCaseDTO struct {
	ResolutionNote string `json:"resolution_note"`
}

func (d CompleteCaseDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("resolution_note", d.ResolutionNote).Required().MaxLength(2000)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// ListFilter narrows a case listing. VisibleTo restricts results to cases the
// user owns, manages or signs off.
type ListFilter struct {
	Status     *Status
	EmployeeID *int64
	VisibleTo  *int64
}
