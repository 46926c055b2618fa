package template

import "time"

type ChecklistTemplate struct {
	ID           int64                   `gorm:"primaryKey"`
	Name         string                  `gorm:"column:name;not null"`
	Description  string                  `gorm:"column:description"`
	DepartmentID *int64                  `gorm:"column:department_id;index"`
	IsActive     bool                    `gorm:"column:is_active;not null"`
	CreatedBy    *int64                  `gorm:"column:created_by"`
	Items        []ChecklistTemplateItem `gorm:"foreignKey:TemplateID"`
	CreatedAt    time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

func (ChecklistTemplate) TableName() string {
	return "checklist_templates"
}

type ChecklistTemplateItem struct {
	ID          int64  `gorm:"primaryKey"`
	TemplateID  int64  `gorm:"column:template_id;not null;index"`
	Name        string `gorm:"column:name;not null"`
	Description string `gorm:"column:description"`
	Category    string `gorm:"column:category"`
	IsMandatory bool   `gorm:"column:is_mandatory;not null"`
	SortOrder   int    `gorm:"column:sort_order;not null"`
}

func (ChecklistTemplateItem) TableName() string {
	return "checklist_template_items"
}
