package handover

import (
	"time"

	"gorm.io/datatypes"
)

type HandoverSchedule struct {
	ID              int64                      `gorm:"primaryKey"`
	CaseID          int64                      `gorm:"column:case_id;not null;index"`
	Title           string                     `gorm:"column:title;not null"`
	Description     string                     `gorm:"column:description"`
	ScheduledDate   time.Time                  `gorm:"column:scheduled_date;type:date;not null"`
	StartTime       string                     `gorm:"column:start_time;not null"`
	EndTime         string                     `gorm:"column:end_time;not null"`
	Location        string                     `gorm:"column:location"`
	MeetingLink     string                     `gorm:"column:meeting_link"`
	OrganizerID     int64                      `gorm:"column:organizer_id;not null"`
	Attendees       datatypes.JSONSlice[int64] `gorm:"column:attendees"`
	CalendarEventID string                     `gorm:"column:calendar_event_id"`
	IsCompleted     bool                       `gorm:"column:is_completed;not null"`
	Notes           string                     `gorm:"column:notes"`
	CreatedAt       time.Time                  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time                  `gorm:"column:updated_at;autoUpdateTime"`
}

func (HandoverSchedule) TableName() string {
	return "handover_schedules"
}
