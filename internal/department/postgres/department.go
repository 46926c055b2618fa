package postgres

import (
	"context"
	"errors"

	departmentDatamodel "github.com/frahmantamala/separation-management/internal/core/datamodel/department"
	"github.com/frahmantamala/separation-management/internal/department"
	"gorm.io/gorm"
)

type DepartmentRepository struct {
	db *gorm.DB
}

func NewDepartmentRepository(db *gorm.DB) department.RepositoryAPI {
	return &DepartmentRepository{db: db}
}

func (r *DepartmentRepository) GetAll(ctx context.Context) ([]*departmentDatamodel.Department, error) {
	var departments []*departmentDatamodel.Department
	err := r.db.WithContext(ctx).Order("name ASC").Find(&departments).Error
	return departments, err
}

// GetByID returns nil, nil when no row matches.
func (r *DepartmentRepository) GetByID(ctx context.Context, id int64) (*departmentDatamodel.Department, error) {
	var dept departmentDatamodel.Department
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&dept).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &dept, nil
}

func (r *DepartmentRepository) ExistsByNameOrCode(ctx context.Context, name, code string, excludeID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&departmentDatamodel.Department{}).
		Where("(LOWER(name) = LOWER(?) OR code = ?) AND id <> ?", name, code, excludeID).
		Count(&count).Error
	return count > 0, err
}

func (r *DepartmentRepository) Create(ctx context.Context, dept *departmentDatamodel.Department) error {
	return r.db.WithContext(ctx).Create(dept).Error
}

func (r *DepartmentRepository) Update(ctx context.Context, dept *departmentDatamodel.Department) error {
	return r.db.WithContext(ctx).Save(dept).Error
}

func (r *DepartmentRepository) Usage(ctx context.Context, id int64) (department.Usage, error) {
	var usage department.Usage
	db := r.db.WithContext(ctx)

	counts := []struct {
		table  string
		column string
		dst    *int64
	}{
		{"users", "department_id", &usage.Users},
		{"signoffs", "department_id", &usage.SignOffs},
		{"departments", "parent_id", &usage.Children},
		{"checklist_templates", "department_id", &usage.Templates},
	}
	for _, c := range counts {
		if err := db.Table(c.table).Where(c.column+" = ?", id).Count(c.dst).Error; err != nil {
			return department.Usage{}, err
		}
	}
	return usage, nil
}

func (r *DepartmentRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&departmentDatamodel.Department{}, id).Error
}
