package postgres

import (
	"context"
	"errors"
	"time"

	notificationDatamodel "github.com/frahmantamala/separation-management/internal/core/datamodel/notification"
	separationDatamodel "github.com/frahmantamala/separation-management/internal/core/datamodel/separation"
	userDatamodel "github.com/frahmantamala/separation-management/internal/core/datamodel/user"
	"github.com/frahmantamala/separation-management/internal/notification"
	"gorm.io/gorm"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) notification.RepositoryAPI {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) CaseParticipants(ctx context.Context, caseID int64) (*notification.Participants, error) {
	var c separationDatamodel.Case
	err := r.db.WithContext(ctx).
		Select("employee_id", "direct_manager_id").
		Where("id = ?", caseID).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &notification.Participants{EmployeeID: c.EmployeeID, DirectManagerID: c.DirectManagerID}, nil
}

func (r *NotificationRepository) Recipients(ctx context.Context, ids []int64) ([]notification.Recipient, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []*userDatamodel.User
	err := r.db.WithContext(ctx).
		Select("id", "email", "name").
		Where("id IN ? AND is_active = ?", ids, true).
		Order("id ASC").
		Find(&users).Error
	if err != nil {
		return nil, err
	}

	recipients := make([]notification.Recipient, 0, len(users))
	for _, u := range users {
		recipients = append(recipients, notification.Recipient{ID: u.ID, Email: u.Email, Name: u.Name})
	}
	return recipients, nil
}

func (r *NotificationRepository) Create(ctx context.Context, n *notificationDatamodel.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

// GetByID returns nil, nil when no row matches.
func (r *NotificationRepository) GetByID(ctx context.Context, id int64) (*notificationDatamodel.Notification, error) {
	var n notificationDatamodel.Notification
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&n).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &n, nil
}

func (r *NotificationRepository) Update(ctx context.Context, n *notificationDatamodel.Notification) error {
	return r.db.WithContext(ctx).Save(n).Error
}

func (r *NotificationRepository) ListByCase(ctx context.Context, caseID int64) ([]*notificationDatamodel.Notification, error) {
	var rows []*notificationDatamodel.Notification
	err := r.db.WithContext(ctx).
		Where("case_id = ?", caseID).
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *NotificationRepository) ListRetryable(ctx context.Context, maxAttempts int, staleBefore time.Time, limit int) ([]*notificationDatamodel.Notification, error) {
	var rows []*notificationDatamodel.Notification
	err := r.db.WithContext(ctx).
		Where("(status = ? AND attempts < ?) OR (status = ? AND created_at < ?)",
			string(notification.StatusFailed), maxAttempts,
			string(notification.StatusPending), staleBefore).
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
