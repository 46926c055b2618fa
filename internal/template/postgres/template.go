package postgres

import (
	"context"
	"errors"

	departmentDatamodel "github.com/frahmantamala/separation-management/internal/core/datamodel/department"
	templateDatamodel "github.com/frahmantamala/separation-management/internal/core/datamodel/template"
	"github.com/frahmantamala/separation-management/internal/template"
	"gorm.io/gorm"
)

type TemplateRepository struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) template.RepositoryAPI {
	return &TemplateRepository{db: db}
}

func withOrderedItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("sort_order ASC").Order("id ASC")
	})
}

func (r *TemplateRepository) GetAll(ctx context.Context, filter template.Filter) ([]*templateDatamodel.ChecklistTemplate, error) {
	query := withOrderedItems(r.db.WithContext(ctx))
	if !filter.IncludeInactive {
		query = query.Where("is_active = ?", true)
	}
	if filter.DepartmentID != nil {
		query = query.Where("department_id = ?", *filter.DepartmentID)
	}

	var templates []*templateDatamodel.ChecklistTemplate
	err := query.Order("id ASC").Find(&templates).Error
	return templates, err
}

// GetByID returns nil, nil when no row matches.
func (r *TemplateRepository) GetByID(ctx context.Context, id int64) (*templateDatamodel.ChecklistTemplate, error) {
	var t templateDatamodel.ChecklistTemplate
	err := withOrderedItems(r.db.WithContext(ctx)).Where("id = ?", id).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *TemplateRepository) FindApplicable(ctx context.Context, departmentID *int64) (*templateDatamodel.ChecklistTemplate, error) {
	query := withOrderedItems(r.db.WithContext(ctx)).Where("is_active = ?", true)
	if departmentID != nil {
		query = query.Where("department_id = ?", *departmentID)
	} else {
		query = query.Where("department_id IS NULL")
	}

	var t templateDatamodel.ChecklistTemplate
	err := query.Order("id ASC").First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *TemplateRepository) DepartmentExists(ctx context.Context, id int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&departmentDatamodel.Department{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *TemplateRepository) Create(ctx context.Context, t *templateDatamodel.ChecklistTemplate) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *TemplateRepository) Update(ctx context.Context, t *templateDatamodel.ChecklistTemplate, replaceItems bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Save(t).Error; err != nil {
			return err
		}
		if !replaceItems {
			return nil
		}

		if err := tx.Where("template_id = ?", t.ID).Delete(&templateDatamodel.ChecklistTemplateItem{}).Error; err != nil {
			return err
		}
		if len(t.Items) == 0 {
			return nil
		}
		for i := range t.Items {
			t.Items[i].ID = 0
			t.Items[i].TemplateID = t.ID
		}
		return tx.Create(&t.Items).Error
	})
}

func (r *TemplateRepository) Deactivate(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).
		Model(&templateDatamodel.ChecklistTemplate{}).
		Where("id = ?", id).
		Update("is_active", false).Error
}
