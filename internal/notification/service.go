package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/separation-management/internal"
	notificationDatamodel "github.com/frahmantamala/separation-management/internal/core/datamodel/notification"
	"github.com/frahmantamala/separation-management/internal/core/events"
)

type RepositoryAPI interface {
	// CaseParticipants returns nil, nil for unknown cases.
	CaseParticipants(ctx context.Context, caseID int64) (*Participants, error)
	// Recipients resolves active users, skipping unknown ids.
	Recipients(ctx context.Context, ids []int64) ([]Recipient, error)
	Create(ctx context.Context, n *notificationDatamodel.Notification) error
	GetByID(ctx context.Context, id int64) (*notificationDatamodel.Notification, error)
	Update(ctx context.Context, n *notificationDatamodel.Notification) error
	ListByCase(ctx context.Context, caseID int64) ([]*notificationDatamodel.Notification, error)
	// ListRetryable returns failed rows under maxAttempts and pending rows created before staleBefore.
	ListRetryable(ctx context.Context, maxAttempts int, staleBefore time.Time, limit int) ([]*notificationDatamodel.Notification, error)
}

type Enqueuer interface {
	Enqueue(notificationID int64) error
}

type Service struct {
	repo    RepositoryAPI
	queue   Enqueuer
	sender  Sender
	timeout time.Duration
	logger  *slog.Logger
}

func NewService(repo RepositoryAPI, queue Enqueuer, sender Sender, timeout time.Duration, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		queue:   queue,
		sender:  sender,
		timeout: timeout,
		logger:  logger,
	}
}

// Notify records one pending notification per recipient of the event and queues them for delivery.
func (s *Service) Notify(ctx context.Context, event events.Event) ([]*Notification, error) {
	msg, caseID, assigneeID, ok := compose(event)
	if !ok {
		return nil, nil
	}

	ids, err := s.recipientIDs(ctx, msg.audience, caseID, assigneeID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		s.logger.Debug("no recipients for event", "event_type", event.EventType(), "case_id", caseID)
		return nil, nil
	}

	recipients, err := s.repo.Recipients(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve recipients: %w", err)
	}

	created := make([]*Notification, 0, len(recipients))
	for _, r := range recipients {
		row := ToDataModel(&Notification{
			CaseID:         caseID,
			EventType:      event.EventType(),
			RecipientID:    r.ID,
			RecipientEmail: r.Email,
			Subject:        msg.subject,
			Body:           fmt.Sprintf("Hello %s,\n\n%s", r.Name, msg.body),
			Status:         StatusPending,
		})
		if err := s.repo.Create(ctx, row); err != nil {
			return created, fmt.Errorf("failed to record notification: %w", err)
		}
		n := FromDataModel(row)
		created = append(created, n)

		if err := s.queue.Enqueue(n.ID); err != nil {
			// stays pending; the retry sweep picks it up
			s.logger.Warn("notification not queued", "notification_id", n.ID, "error", err)
		}
	}

	s.logger.Info("notifications recorded",
		"event_type", event.EventType(),
		"case_id", caseID,
		"count", len(created))
	return created, nil
}

func (s *Service) recipientIDs(ctx context.Context, aud audience, caseID, assigneeID int64) ([]int64, error) {
	var ids []int64
	if aud&(toEmployee|toDirectManager) != 0 {
		p, err := s.repo.CaseParticipants(ctx, caseID)
		if err != nil {
			return nil, fmt.Errorf("failed to load case participants: %w", err)
		}
		if p == nil {
			return nil, internal.ErrCaseNotFound
		}
		if aud&toEmployee != 0 {
			ids = append(ids, p.EmployeeID)
		}
		if aud&toDirectManager != 0 && p.DirectManagerID != nil {
			ids = append(ids, *p.DirectManagerID)
		}
	}
	if aud&toAssignee != 0 && assigneeID != 0 {
		ids = append(ids, assigneeID)
	}
	return dedupe(ids), nil
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// Deliver sends one notification and records the outcome. It is the worker pool's job handler.
func (s *Service) Deliver(ctx context.Context, job Job) {
	row, err := s.repo.GetByID(ctx, job.NotificationID)
	if err != nil {
		s.logger.Error("failed to load notification", "notification_id", job.NotificationID, "error", err)
		return
	}
	if row == nil {
		s.logger.Warn("notification vanished before delivery", "notification_id", job.NotificationID)
		return
	}

	n := FromDataModel(row)
	if n.Status == StatusSent {
		return
	}

	sendCtx, cancel := internal.WithTimeout(ctx, s.timeout)
	defer cancel()

	n.Attempts++
	if err := s.sender.Send(sendCtx, n); err != nil {
		n.MarkFailed(err)
		s.logger.Warn("notification delivery failed",
			"notification_id", n.ID,
			"attempts", n.Attempts,
			"error", err)
	} else {
		n.MarkSent(time.Now())
	}

	if err := s.repo.Update(ctx, ToDataModel(n)); err != nil {
		s.logger.Error("failed to record delivery outcome", "notification_id", n.ID, "error", err)
	}
}

// RetryFailed re-queues failed notifications that have attempts left and pending ones that were
// never picked up. It returns how many were queued.
func (s *Service) RetryFailed(ctx context.Context, maxAttempts int, staleAfter time.Duration, limit int) (int, error) {
	rows, err := s.repo.ListRetryable(ctx, maxAttempts, time.Now().Add(-staleAfter), limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list retryable notifications: %w", err)
	}

	queued := 0
	for _, row := range rows {
		if n := FromDataModel(row); n.Status == StatusFailed && !n.CanRetry(maxAttempts) {
			continue
		}
		if err := s.queue.Enqueue(row.ID); err != nil {
			s.logger.Warn("retry sweep stopped, queue full", "queued", queued, "remaining", len(rows)-queued)
			break
		}
		queued++
	}
	if queued > 0 {
		s.logger.Info("notifications re-queued", "count", queued)
	}
	return queued, nil
}

func (s *Service) ListByCase(ctx context.Context, caseID int64) ([]*Notification, error) {
	rows, err := s.repo.ListByCase(ctx, caseID)
	if err != nil {
		return nil, internal.NewInternalError("failed to list notifications", err)
	}
	out := make([]*Notification, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromDataModel(row))
	}
	return out, nil
}
