package report

import (
	"time"

	"github.com/frahmantamala/separation-management/internal/separation"
)

const recentCaseLimit = 5

// CaseSummary is a case row as shown on the dashboard.
type CaseSummary struct {
	ID             int64     `db:"id" json:"id"`
	CaseNumber     string    `db:"case_number" json:"case_number"`
	EmployeeID     int64     `db:"employee_id" json:"employee_id"`
	EmployeeName   string    `db:"employee_name" json:"employee_name"`
	Status         string    `db:"status" json:"status"`
	LastWorkingDay time.Time `db:"last_working_day" json:"last_working_day"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	TotalItems     int       `db:"total_items" json:"total_items"`
	CompletedItems int       `db:"completed_items" json:"completed_items"`
	Progress       int       `db:"-" json:"progress"`
}

func (c *CaseSummary) computeProgress() {
	c.Progress = separation.Percent(c.CompletedItems, c.TotalItems)
}

type StatusTotal struct {
	Status string `db:"status" json:"status"`
	Count  int    `db:"count" json:"count"`
}

type PendingSignOff struct {
	SignOffID      int64     `db:"signoff_id" json:"signoff_id"`
	CaseID         int64     `db:"case_id" json:"case_id"`
	CaseNumber     string    `db:"case_number" json:"case_number"`
	EmployeeName   string    `db:"employee_name" json:"employee_name"`
	DepartmentName string    `db:"department_name" json:"department_name"`
	ManagerID      int64     `db:"manager_id" json:"manager_id"`
	AssignedAt     time.Time `db:"assigned_at" json:"assigned_at"`
}

// Dashboard is role dependent: employees get their active case, managers get the aggregate views.
type Dashboard struct {
	Role            string            `json:"role"`
	ActiveCase      *CaseSummary      `json:"active_case"`
	Totals          map[string]int    `json:"totals,omitempty"`
	TotalCases      int               `json:"total_cases,omitempty"`
	PendingSignOffs []*PendingSignOff `json:"pending_signoffs,omitempty"`
	RecentCases     []*CaseSummary    `json:"recent_cases,omitempty"`
}
