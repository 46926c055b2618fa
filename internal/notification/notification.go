package notification

import (
	"time"

	notificationDatamodel "github.com/frahmantamala/separation-management/internal/core/datamodel/notification"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

// Notification is one message to one person about one lifecycle event.
type Notification struct {
	ID             int64      `json:"id"`
	CaseID         int64      `json:"case_id"`
	EventType      string     `json:"event_type"`
	RecipientID    int64      `json:"recipient_id"`
	RecipientEmail string     `json:"recipient_email"`
	Subject        string     `json:"subject"`
	Body           string     `json:"body"`
	Status         Status     `json:"status"`
	Error          string     `json:"error,omitempty"`
	Attempts       int        `json:"attempts"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (n *Notification) CanRetry(maxAttempts int) bool {
	return n.Status == StatusFailed && n.Attempts < maxAttempts
}

func (n *Notification) MarkSent(at time.Time) {
	n.Status = StatusSent
	n.SentAt = &at
	n.Error = ""
}

func (n *Notification) MarkFailed(err error) {
	n.Status = StatusFailed
	n.Error = err.Error()
}

// Recipient is the contact data needed to address a notification.
type Recipient struct {
	ID    int64
	Email string
	Name  string
}

// Participants are the people on a case that notifications can be addressed to.
type Participants struct {
	EmployeeID      int64
	DirectManagerID *int64
}

func ToDataModel(n *Notification) *notificationDatamodel.Notification {
	return &notificationDatamodel.Notification{
		ID:             n.ID,
		CaseID:         n.CaseID,
		EventType:      n.EventType,
		RecipientID:    n.RecipientID,
		RecipientEmail: n.RecipientEmail,
		Subject:        n.Subject,
		Body:           n.Body,
		Status:         string(n.Status),
		Error:          n.Error,
		Attempts:       n.Attempts,
		SentAt:         n.SentAt,
		CreatedAt:      n.CreatedAt,
		UpdatedAt:      n.UpdatedAt,
	}
}

func FromDataModel(n *notificationDatamodel.Notification) *Notification {
	return &Notification{
		ID:             n.ID,
		CaseID:         n.CaseID,
		EventType:      n.EventType,
		RecipientID:    n.RecipientID,
		RecipientEmail: n.RecipientEmail,
		Subject:        n.Subject,
		Body:           n.Body,
		Status:         Status(n.Status),
		Error:          n.Error,
		Attempts:       n.Attempts,
		SentAt:         n.SentAt,
		CreatedAt:      n.CreatedAt,
		UpdatedAt:      n.UpdatedAt,
	}
}
