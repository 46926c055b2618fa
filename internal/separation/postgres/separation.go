package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/separation-management/internal"
	"github.com/frahmantamala/separation-management/internal/core/common/pagination"
	separationDatamodel "github.com/frahmantamala/separation-management/internal/core/datamodel/separation"
	"github.com/frahmantamala/separation-management/internal/separation"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SeparationRepository struct {
	db *gorm.DB
}

func NewSeparationRepository(db *gorm.DB) separation.RepositoryAPI {
	return &SeparationRepository{db: db}
}

func (r *SeparationRepository) WithTx(ctx context.Context, fn func(tx separation.RepositoryAPI) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&SeparationRepository{db: tx})
	})
}

// WithCaseLock takes SELECT ... FOR UPDATE on the case row for the life of fn.
func (r *SeparationRepository) WithCaseLock(ctx context.Context, caseID int64, fn func(tx separation.RepositoryAPI, c *separationDatamodel.Case) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c separationDatamodel.Case
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", caseID).First(&c).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return internal.ErrCaseNotFound
			}
			return err
		}
		return fn(&SeparationRepository{db: tx}, &c)
	})
}

// GetCase returns nil, nil when no row matches.
func (r *SeparationRepository) GetCase(ctx context.Context, id int64) (*separationDatamodel.Case, error) {
	var c separationDatamodel.Case
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *SeparationRepository) GetCasesByIDs(ctx context.Context, ids []int64) ([]*separationDatamodel.Case, error) {
	var cases []*separationDatamodel.Case
	if len(ids) == 0 {
		return cases, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&cases).Error
	return cases, err
}

func (r *SeparationRepository) ListCases(ctx context.Context, filter separation.ListFilter, page pagination.Params) ([]*separationDatamodel.Case, int64, error) {
	query := r.db.WithContext(ctx).Model(&separationDatamodel.Case{})
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if filter.EmployeeID != nil {
		query = query.Where("employee_id = ?", *filter.EmployeeID)
	}
	if filter.VisibleTo != nil {
		id := *filter.VisibleTo
		query = query.Where(
			"(employee_id = ? OR direct_manager_id = ? OR separation_manager_id = ? OR id IN (SELECT case_id FROM signoffs WHERE manager_id = ?))",
			id, id, id, id,
		)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var cases []*separationDatamodel.Case
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Offset(page.Offset()).
		Limit(page.Limit()).
		Find(&cases).Error
	return cases, total, err
}

func (r *SeparationRepository) HasActiveCase(ctx context.Context, employeeID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&separationDatamodel.Case{}).
		Where("employee_id = ? AND status NOT IN ?", employeeID, closedStatuses()).
		Count(&count).Error
	return count > 0, err
}

func (r *SeparationRepository) CountCaseNumbers(ctx context.Context, prefix string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&separationDatamodel.Case{}).
		Where("case_number LIKE ?", prefix+"%").
		Count(&count).Error
	return count, err
}

func (r *SeparationRepository) CreateCase(ctx context.Context, c *separationDatamodel.Case) error {
	err := r.db.WithContext(ctx).Create(c).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return separation.ErrDuplicateCaseNumber
	}
	return err
}

func (r *SeparationRepository) SaveCase(ctx context.Context, c *separationDatamodel.Case) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *SeparationRepository) CountChecklistItems(ctx context.Context, caseID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&separationDatamodel.ChecklistItem{}).
		Where("case_id = ?", caseID).
		Count(&count).Error
	return count, err
}

func (r *SeparationRepository) CreateChecklistItems(ctx context.Context, items []*separationDatamodel.ChecklistItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *SeparationRepository) ListChecklistItems(ctx context.Context, caseID int64) ([]*separationDatamodel.ChecklistItem, error) {
	var items []*separationDatamodel.ChecklistItem
	err := r.db.WithContext(ctx).
		Where("case_id = ?", caseID).
		Order("sort_order ASC").
		Order("id ASC").
		Find(&items).Error
	return items, err
}

func (r *SeparationRepository) ListChecklistItemsForCases(ctx context.Context, caseIDs []int64) ([]*separationDatamodel.ChecklistItem, error) {
	var items []*separationDatamodel.ChecklistItem
	if len(caseIDs) == 0 {
		return items, nil
	}
	err := r.db.WithContext(ctx).
		Where("case_id IN ?", caseIDs).
		Order("case_id ASC").
		Order("sort_order ASC").
		Find(&items).Error
	return items, err
}

// GetChecklistItem returns nil, nil when no row matches.
func (r *SeparationRepository) GetChecklistItem(ctx context.Context, id int64) (*separationDatamodel.ChecklistItem, error) {
	var item separationDatamodel.ChecklistItem
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *SeparationRepository) SaveChecklistItem(ctx context.Context, item *separationDatamodel.ChecklistItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *SeparationRepository) CreateSignOff(ctx context.Context, s *separationDatamodel.SignOff) error {
	return r.db.WithContext(ctx).Create(s).Error
}

// GetSignOff returns nil, nil when no row matches.
func (r *SeparationRepository) GetSignOff(ctx context.Context, id int64) (*separationDatamodel.SignOff, error) {
	var s separationDatamodel.SignOff
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *SeparationRepository) SaveSignOff(ctx context.Context, s *separationDatamodel.SignOff) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *SeparationRepository) ListSignOffs(ctx context.Context, caseID int64) ([]*separationDatamodel.SignOff, error) {
	var signOffs []*separationDatamodel.SignOff
	err := r.db.WithContext(ctx).
		Where("case_id = ?", caseID).
		Order("id ASC").
		Find(&signOffs).Error
	return signOffs, err
}

func (r *SeparationRepository) ListSignOffsForCases(ctx context.Context, caseIDs []int64) ([]*separationDatamodel.SignOff, error) {
	var signOffs []*separationDatamodel.SignOff
	if len(caseIDs) == 0 {
		return signOffs, nil
	}
	err := r.db.WithContext(ctx).
		Where("case_id IN ?", caseIDs).
		Order("id ASC").
		Find(&signOffs).Error
	return signOffs, err
}

func (r *SeparationRepository) ListPendingSignOffs(ctx context.Context, managerID *int64) ([]*separationDatamodel.SignOff, error) {
	query := r.db.WithContext(ctx).
		Where("status = ?", string(separation.SignOffPending)).
		Where("case_id IN (SELECT id FROM separation_cases WHERE status NOT IN ?)", closedStatuses())
	if managerID != nil {
		query = query.Where("manager_id = ?", *managerID)
	}

	var signOffs []*separationDatamodel.SignOff
	err := query.Order("assigned_at ASC").Order("id ASC").Find(&signOffs).Error
	return signOffs, err
}

func closedStatuses() []string {
	return []string{string(separation.StatusCompleted), string(separation.StatusCancelled)}
}
