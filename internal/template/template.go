package template

import (
	"time"

	templateDatamodel "github.com/frahmantamala/separation-management/internal/core/datamodel/template"
)

type Template struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	DepartmentID *int64    `json:"department_id"`
	IsActive     bool      `json:"is_active"`
	CreatedBy    *int64    `json:"created_by,omitempty"`
	Items        []Item    `json:"items"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Item struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	IsMandatory bool   `json:"is_mandatory"`
	Order       int    `json:"order"`
}

// IsGlobal reports whether the template applies to every department.
func (t *Template) IsGlobal() bool {
	return t.DepartmentID == nil
}

func (t *Template) MandatoryCount() int {
	n := 0
	for _, item := range t.Items {
		if item.IsMandatory {
			n++
		}
	}
	return n
}

type Filter struct {
	DepartmentID    *int64
	IncludeInactive bool
}

func ToDataModel(t *Template) *templateDatamodel.ChecklistTemplate {
	items := make([]templateDatamodel.ChecklistTemplateItem, 0, len(t.Items))
	for i, item := range t.Items {
		order := item.Order
		if order == 0 {
			order = i + 1
		}
		items = append(items, templateDatamodel.ChecklistTemplateItem{
			ID:          item.ID,
			TemplateID:  t.ID,
			Name:        item.Name,
			Description: item.Description,
			Category:    item.Category,
			IsMandatory: item.IsMandatory,
			SortOrder:   order,
		})
	}
	return &templateDatamodel.ChecklistTemplate{
		ID:           t.ID,
		Name:         t.Name,
		Description:  t.Description,
		DepartmentID: t.DepartmentID,
		IsActive:     t.IsActive,
		CreatedBy:    t.CreatedBy,
		Items:        items,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

func FromDataModel(t *templateDatamodel.ChecklistTemplate) *Template {
	items := make([]Item, 0, len(t.Items))
	for _, item := range t.Items {
		items = append(items, Item{
			ID:          item.ID,
			Name:        item.Name,
			Description: item.Description,
			Category:    item.Category,
			IsMandatory: item.IsMandatory,
			Order:       item.SortOrder,
		})
	}
	return &Template{
		ID:           t.ID,
		Name:         t.Name,
		Description:  t.Description,
		DepartmentID: t.DepartmentID,
		IsActive:     t.IsActive,
		CreatedBy:    t.CreatedBy,
		Items:        items,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}
