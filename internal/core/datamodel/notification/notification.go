package notification

import "time"

type Notification struct {
	ID             int64      `gorm:"primaryKey"`
	CaseID         int64      `gorm:"column:case_id;not null;index"`
	EventType      string     `gorm:"column:event_type;not null"`
	RecipientID    int64      `gorm:"column:recipient_id;not null"`
	RecipientEmail string     `gorm:"column:recipient_email;not null"`
	Subject        string     `gorm:"column:subject;not null"`
	Body           string     `gorm:"column:body"`
	Status         string     `gorm:"column:status;not null;index"`
	Error          string     `gorm:"column:error"`
	Attempts       int        `gorm:"column:attempts;not null"`
	SentAt         *time.Time `gorm:"column:sent_at"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Notification) TableName() string {
	return "notifications"
}
