package separation

import "time"

type Case struct {
	ID                   int64      `gorm:"primaryKey"`
	CaseNumber           string     `gorm:"column:case_number;uniqueIndex;not null"`
	EmployeeID           int64      `gorm:"column:employee_id;not null;index"`
	DirectManagerID      *int64     `gorm:"column:direct_manager_id;index"`
	SeparationManagerID  *int64     `gorm:"column:separation_manager_id;index"`
	ResignationDate      time.Time  `gorm:"column:resignation_date;type:date;not null"`
	LastWorkingDay       time.Time  `gorm:"column:last_working_day;type:date;not null"`
	Reason               string     `gorm:"column:reason"`
	Notes                string     `gorm:"column:notes"`
	Status               string     `gorm:"column:status;not null;index"`
	ChecklistSubmittedAt *time.Time `gorm:"column:checklist_submitted_at"`
	CompletedAt          *time.Time `gorm:"column:completed_at"`
	CancelledAt          *time.Time `gorm:"column:cancelled_at"`
	CancellationReason   string     `gorm:"column:cancellation_reason"`
	ResolutionNote       string     `gorm:"column:resolution_note"`
	CreatedBy            int64      `gorm:"column:created_by;not null"`
	CreatedAt            time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Case) TableName() string {
	return "separation_cases"
}

type ChecklistItem struct {
	ID          int64      `gorm:"primaryKey"`
	CaseID      int64      `gorm:"column:case_id;not null;index"`
	Name        string     `gorm:"column:name;not null"`
	Description string     `gorm:"column:description"`
	Category    string     `gorm:"column:category"`
	IsMandatory bool       `gorm:"column:is_mandatory;not null"`
	IsCompleted bool       `gorm:"column:is_completed;not null"`
	CompletedAt *time.Time `gorm:"column:completed_at"`
	CompletedBy *int64     `gorm:"column:completed_by"`
	Notes       string     `gorm:"column:notes"`
	SortOrder   int        `gorm:"column:sort_order;not null"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (ChecklistItem) TableName() string {
	return "checklist_items"
}

type SignOff struct {
	ID           int64      `gorm:"primaryKey"`
	CaseID       int64      `gorm:"column:case_id;not null;index"`
	DepartmentID int64      `gorm:"column:department_id;not null;index"`
	ManagerID    int64      `gorm:"column:manager_id;not null;index"`
	Status       string     `gorm:"column:status;not null;index"`
	Comments     string     `gorm:"column:comments"`
	AssignedBy   int64      `gorm:"column:assigned_by;not null"`
	AssignedAt   time.Time  `gorm:"column:assigned_at;not null"`
	CompletedAt  *time.Time `gorm:"column:completed_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (SignOff) TableName() string {
	return "signoffs"
}
