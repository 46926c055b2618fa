package separation

import (
	"time"

	"github.com/frahmantamala/separation-management/internal/auth"
	"github.com/frahmantamala/separation-management/internal/core/common/datetime"
	separationDatamodel "github.com/frahmantamala/separation-management/internal/core/datamodel/separation"
)

type Status string

const (
	StatusInitiated          Status = "initiated"
	StatusChecklistPending   Status = "checklist_pending"
	StatusChecklistSubmitted Status = "checklist_submitted"
	StatusSignOffPending     Status = "signoff_pending"
	StatusCompleted          Status = "completed"
	StatusCancelled          Status = "cancelled"
)

var Statuses = []Status{
	StatusInitiated,
	StatusChecklistPending,
	StatusChecklistSubmitted,
	StatusSignOffPending,
	StatusCompleted,
	StatusCancelled,
}

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

func StatusNames() []string {
	names := make([]string, len(Statuses))
	for i, s := range Statuses {
		names[i] = string(s)
	}
	return names
}

type SignOffStatus string

const (
	SignOffPending  SignOffStatus = "pending"
	SignOffApproved SignOffStatus = "approved"
	SignOffRejected SignOffStatus = "rejected"
)

func (s SignOffStatus) IsResolved() bool {
	return s == SignOffApproved || s == SignOffRejected
}

type Case struct {
	ID                   int64            `json:"id"`
	CaseNumber           string           `json:"case_number"`
	EmployeeID           int64            `json:"employee_id"`
	DirectManagerID      *int64           `json:"direct_manager_id"`
	SeparationManagerID  *int64           `json:"separation_manager_id"`
	ResignationDate      datetime.Date    `json:"resignation_date"`
	LastWorkingDay       datetime.Date    `json:"last_working_day"`
	Reason               string           `json:"reason"`
	Notes                string           `json:"notes"`
	Status               Status           `json:"status"`
	Progress             int              `json:"progress"`
	SignOffProgress      int              `json:"signoff_progress"`
	ChecklistSubmittedAt *time.Time       `json:"checklist_submitted_at,omitempty"`
	CompletedAt          *time.Time       `json:"completed_at,omitempty"`
	CancelledAt          *time.Time       `json:"cancelled_at,omitempty"`
	CancellationReason   string           `json:"cancellation_reason,omitempty"`
	ResolutionNote       string           `json:"resolution_note,omitempty"`
	CreatedBy            int64            `json:"created_by"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
	ChecklistItems       []*ChecklistItem `json:"checklist_items,omitempty"`
	SignOffs             []*SignOff       `json:"signoffs,omitempty"`
}

type ChecklistItem struct {
	ID          int64      `json:"id"`
	CaseID      int64      `json:"case_id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	IsMandatory bool       `json:"is_mandatory"`
	IsCompleted bool       `json:"is_completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CompletedBy *int64     `json:"completed_by,omitempty"`
	Notes       string     `json:"notes"`
	Order       int        `json:"order"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type SignOff struct {
	ID           int64         `json:"id"`
	CaseID       int64         `json:"case_id"`
	DepartmentID int64         `json:"department_id"`
	ManagerID    int64         `json:"manager_id"`
	Status       SignOffStatus `json:"status"`
	Comments     string        `json:"comments"`
	AssignedBy   int64         `json:"assigned_by"`
	AssignedAt   time.Time     `json:"assigned_at"`
	CompletedAt  *time.Time    `json:"completed_at,omitempty"`
	// Superseded marks a record replaced by a later assignment for the same department.
	Superseded bool `json:"superseded"`
}

// PendingSignOff is a sign-off awaiting a decision, with enough case context for an inbox.
type PendingSignOff struct {
	*SignOff
	CaseNumber     string        `json:"case_number"`
	EmployeeID     int64         `json:"employee_id"`
	LastWorkingDay datetime.Date `json:"last_working_day"`
}

// Resource describes the case for the capability check.
func (c *Case) Resource(signOffs []*SignOff) auth.Resource {
	participants := make([]int64, 0, len(signOffs))
	for _, s := range signOffs {
		participants = append(participants, s.ManagerID)
	}
	return auth.Resource{
		OwnerID:             c.EmployeeID,
		DirectManagerID:     c.DirectManagerID,
		SeparationManagerID: c.SeparationManagerID,
		ParticipantIDs:      participants,
	}
}

// SignOffResource describes one sign-off on the case for the capability check.
func (c *Case) SignOffResource(s *SignOff) auth.Resource {
	assignee := s.ManagerID
	return auth.Resource{
		OwnerID:             c.EmployeeID,
		DirectManagerID:     c.DirectManagerID,
		SeparationManagerID: c.SeparationManagerID,
		AssigneeID:          &assignee,
	}
}

// WithLedgers attaches the ledgers and derives both progress figures from them.
func (c *Case) WithLedgers(items []*ChecklistItem, signOffs []*SignOff) *Case {
	c.Progress = ChecklistProgress(items)
	c.SignOffProgress = SignOffProgress(signOffs)
	MarkSuperseded(signOffs)
	c.ChecklistItems = items
	c.SignOffs = signOffs
	return c
}

func CaseToDataModel(c *Case) *separationDatamodel.Case {
	return &separationDatamodel.Case{
		ID:                   c.ID,
		CaseNumber:           c.CaseNumber,
		EmployeeID:           c.EmployeeID,
		DirectManagerID:      c.DirectManagerID,
		SeparationManagerID:  c.SeparationManagerID,
		ResignationDate:      c.ResignationDate.Time,
		LastWorkingDay:       c.LastWorkingDay.Time,
		Reason:               c.Reason,
		Notes:                c.Notes,
		Status:               string(c.Status),
		ChecklistSubmittedAt: c.ChecklistSubmittedAt,
		CompletedAt:          c.CompletedAt,
		CancelledAt:          c.CancelledAt,
		CancellationReason:   c.CancellationReason,
		ResolutionNote:       c.ResolutionNote,
		CreatedBy:            c.CreatedBy,
		CreatedAt:            c.CreatedAt,
		UpdatedAt:            c.UpdatedAt,
	}
}

func CaseFromDataModel(c *separationDatamodel.Case) *Case {
	return &Case{
		ID:                   c.ID,
		CaseNumber:           c.CaseNumber,
		EmployeeID:           c.EmployeeID,
		DirectManagerID:      c.DirectManagerID,
		SeparationManagerID:  c.SeparationManagerID,
		ResignationDate:      datetime.NewDate(c.ResignationDate),
		LastWorkingDay:       datetime.NewDate(c.LastWorkingDay),
		Reason:               c.Reason,
		Notes:                c.Notes,
		Status:               Status(c.Status),
		ChecklistSubmittedAt: c.ChecklistSubmittedAt,
		CompletedAt:          c.CompletedAt,
		CancelledAt:          c.CancelledAt,
		CancellationReason:   c.CancellationReason,
		ResolutionNote:       c.ResolutionNote,
		CreatedBy:            c.CreatedBy,
		CreatedAt:            c.CreatedAt,
		UpdatedAt:            c.UpdatedAt,
	}
}

func ItemToDataModel(i *ChecklistItem) *separationDatamodel.ChecklistItem {
	return &separationDatamodel.ChecklistItem{
		ID:          i.ID,
		CaseID:      i.CaseID,
		Name:        i.Name,
		Description: i.Description,
		Category:    i.Category,
		IsMandatory: i.IsMandatory,
		IsCompleted: i.IsCompleted,
		CompletedAt: i.CompletedAt,
		CompletedBy: i.CompletedBy,
		Notes:       i.Notes,
		SortOrder:   i.Order,
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
	}
}

func ItemFromDataModel(i *separationDatamodel.ChecklistItem) *ChecklistItem {
	return &ChecklistItem{
		ID:          i.ID,
		CaseID:      i.CaseID,
		Name:        i.Name,
		Description: i.Description,
		Category:    i.Category,
		IsMandatory: i.IsMandatory,
		IsCompleted: i.IsCompleted,
		CompletedAt: i.CompletedAt,
		CompletedBy: i.CompletedBy,
		Notes:       i.Notes,
		Order:       i.SortOrder,
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
	}
}

func SignOffToDataModel(s *SignOff) *separationDatamodel.SignOff {
	return &separationDatamodel.SignOff{
		ID:           s.ID,
		CaseID:       s.CaseID,
		DepartmentID: s.DepartmentID,
		ManagerID:    s.ManagerID,
		Status:       string(s.Status),
		Comments:     s.Comments,
		AssignedBy:   s.AssignedBy,
		AssignedAt:   s.AssignedAt,
		CompletedAt:  s.CompletedAt,
	}
}

func SignOffFromDataModel(s *separationDatamodel.SignOff) *SignOff {
	return &SignOff{
		ID:           s.ID,
		CaseID:       s.CaseID,
		DepartmentID: s.DepartmentID,
		ManagerID:    s.ManagerID,
		Status:       SignOffStatus(s.Status),
		Comments:     s.Comments,
		AssignedBy:   s.AssignedBy,
		AssignedAt:   s.AssignedAt,
		CompletedAt:  s.CompletedAt,
	}
}

func itemsFromDataModel(rows []*separationDatamodel.ChecklistItem) []*ChecklistItem {
	items := make([]*ChecklistItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, ItemFromDataModel(row))
	}
	return items
}

func signOffsFromDataModel(rows []*separationDatamodel.SignOff) []*SignOff {
	signOffs := make([]*SignOff, 0, len(rows))
	for _, row := range rows {
		signOffs = append(signOffs, SignOffFromDataModel(row))
	}
	return signOffs
}
