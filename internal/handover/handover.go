package handover

import (
	"time"

	"github.com/frahmantamala/separation-management/internal/core/common/datetime"
	handoverDatamodel "github.com/frahmantamala/separation-management/internal/core/datamodel/handover"
	"gorm.io/datatypes"
)

// Schedule is a knowledge-transfer meeting attached to a case. It never gates the lifecycle.
type Schedule struct {
	ID              int64         `json:"id"`
	CaseID          int64         `json:"case_id"`
	Title           string        `json:"title"`
	Description     string        `json:"description"`
	ScheduledDate   datetime.Date `json:"scheduled_date"`
	StartTime       string        `json:"start_time"`
	EndTime         string        `json:"end_time"`
	Location        string        `json:"location"`
	MeetingLink     string        `json:"meeting_link"`
	OrganizerID     int64         `json:"organizer_id"`
	Attendees       []int64       `json:"attendees"`
	CalendarEventID string        `json:"calendar_event_id"`
	IsCompleted     bool          `json:"is_completed"`
	Notes           string        `json:"notes"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

func ToDataModel(s *Schedule) *handoverDatamodel.HandoverSchedule {
	attendees := s.Attendees
	if attendees == nil {
		attendees = []int64{}
	}
	return &handoverDatamodel.HandoverSchedule{
		ID:              s.ID,
		CaseID:          s.CaseID,
		Title:           s.Title,
		Description:     s.Description,
		ScheduledDate:   s.ScheduledDate.Time,
		StartTime:       s.StartTime,
		EndTime:         s.EndTime,
		Location:        s.Location,
		MeetingLink:     s.MeetingLink,
		OrganizerID:     s.OrganizerID,
		Attendees:       datatypes.NewJSONSlice(attendees),
		CalendarEventID: s.CalendarEventID,
		IsCompleted:     s.IsCompleted,
		Notes:           s.Notes,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

func FromDataModel(s *handoverDatamodel.HandoverSchedule) *Schedule {
	attendees := []int64(s.Attendees)
	if attendees == nil {
		attendees = []int64{}
	}
	return &Schedule{
		ID:              s.ID,
		CaseID:          s.CaseID,
		Title:           s.Title,
		Description:     s.Description,
		ScheduledDate:   datetime.NewDate(s.ScheduledDate),
		StartTime:       s.StartTime,
		EndTime:         s.EndTime,
		Location:        s.Location,
		MeetingLink:     s.MeetingLink,
		OrganizerID:     s.OrganizerID,
		Attendees:       attendees,
		CalendarEventID: s.CalendarEventID,
		IsCompleted:     s.IsCompleted,
		Notes:           s.Notes,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}
