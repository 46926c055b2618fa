package template

import (
	"fmt"

	"github.com/frahmantamala/separation-management/internal/core/common/validation"
)

type ItemDTO struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	IsMandatory bool   `json:"is_mandatory"`
	Order       int    `json:"order"`
}

type CreateTemplateDTO struct {
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	DepartmentID *int64    `json:"department_id"`
	Items        []ItemDTO `json:"items"`
}

func (d CreateTemplateDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(200)
	v.Field("department_id", d.DepartmentID).Positive()
	validateItems(v, d.Items)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// UpdateTemplateDTO replaces the item list when Items is non-nil.
type UpdateTemplateDTO struct {
	Name         *string    `json:"name"`
	Description  *string    `json:"description"`
	DepartmentID *int64     `json:"department_id"`
	IsActive     *bool      `json:"is_active"`
	Items        *[]ItemDTO `json:"items"`
}

func (d UpdateTemplateDTO) Validate() error {
	v := validation.NewValidator()
	if d.Name != nil {
		v.Field("name", *d.Name).Required().MaxLength(200)
	}
	v.Field("department_id", d.DepartmentID).Positive()
	if d.Items != nil {
		validateItems(v, *d.Items)
	}
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

func validateItems(v *validation.ValidationBuilder, items []ItemDTO) {
	for i, item := range items {
		v.Field(fmt.Sprintf("items[%d].name", i), item.Name).Required().MaxLength(200)
	}
}

func toItems(dtos []ItemDTO) []Item {
	items := make([]Item, 0, len(dtos))
	for i, d := range dtos {
		order := d.Order
		if order <= 0 {
			order = i + 1
		}
		items = append(items, Item{
			Name:        d.Name,
			Description: d.Description,
			Category:    d.Category,
			IsMandatory: d.IsMandatory,
			Order:       order,
		})
	}
	return items
}
