package postgres

import (
	"context"
	"errors"

	handoverDatamodel "github.com/frahmantamala/separation-management/internal/core/datamodel/handover"
	"github.com/frahmantamala/separation-management/internal/handover"
	"gorm.io/gorm"
)

type HandoverRepository struct {
	db *gorm.DB
}

func NewHandoverRepository(db *gorm.DB) handover.RepositoryAPI {
	return &HandoverRepository{db: db}
}

func (r *HandoverRepository) ListByCase(ctx context.Context, caseID int64) ([]*handoverDatamodel.HandoverSchedule, error) {
	var schedules []*handoverDatamodel.HandoverSchedule
	err := r.db.WithContext(ctx).
		Where("case_id = ?", caseID).
		Order("scheduled_date ASC").
		Order("start_time ASC").
		Order("id ASC").
		Find(&schedules).Error
	return schedules, err
}

// GetByID returns nil, nil when no row matches.
func (r *HandoverRepository) GetByID(ctx context.Context, id int64) (*handoverDatamodel.HandoverSchedule, error) {
	var s handoverDatamodel.HandoverSchedule
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *HandoverRepository) Create(ctx context.Context, s *handoverDatamodel.HandoverSchedule) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *HandoverRepository) Update(ctx context.Context, s *handoverDatamodel.HandoverSchedule) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *HandoverRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&handoverDatamodel.HandoverSchedule{}, id).Error
}
