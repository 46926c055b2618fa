package handover

import (
	"fmt"

	"github.com/frahmantamala/separation-management/internal/core/common/datetime"
	"github.com/frahmantamala/separation-management/internal/core/common/validation"
)

type CreateScheduleDTO struct {
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	ScheduledDate datetime.Date `json:"scheduled_date"`
	StartTime     string        `json:"start_time"`
	EndTime       string        `json:"end_time"`
	Location      string        `json:"location"`
	MeetingLink   string        `json:"meeting_link"`
	Attendees     []int64       `json:"attendees"`
	Notes         string        `json:"notes"`
}

func (d CreateScheduleDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("title", d.Title).Required().MaxLength(200)
	v.Field("scheduled_date", d.ScheduledDate.Time).Required()
	v.Field("start_time", d.StartTime).Required().TimeOfDay()
	v.Field("end_time", d.EndTime).Required().TimeOfDay()
	v.Field("meeting_link", d.MeetingLink).MaxLength(500)
	validateAttendees(v, d.Attendees)
	if err := v.Validate(); err != nil {
		return err
	}
	if err := validation.ValidateTimeRange(d.StartTime, d.EndTime); err != nil {
		return err
	}
	return nil
}

// UpdateScheduleDTO patches a schedule. Nil fields are left alone.
type UpdateScheduleDTO struct {
	Title         *string        `json:"title"`
	Description   *string        `json:"description"`
	ScheduledDate *datetime.Date `json:"scheduled_date"`
	StartTime     *string        `json:"start_time"`
	EndTime       *string        `json:"end_time"`
	Location      *string        `json:"location"`
	MeetingLink   *string        `json:"meeting_link"`
	Attendees     *[]int64       `json:"attendees"`
	IsCompleted   *bool          `json:"is_completed"`
	Notes         *string        `json:"notes"`
}

func (d UpdateScheduleDTO) Validate() error {
	v := validation.NewValidator()
	if d.Title != nil {
		v.Field("title", *d.Title).Required().MaxLength(200)
	}
	if d.ScheduledDate != nil {
		v.Field("scheduled_date", d.ScheduledDate.Time).Required()
	}
	v.Field("start_time", d.StartTime).TimeOfDay()
	v.Field("end_time", d.EndTime).TimeOfDay()
	v.Field("meeting_link", d.MeetingLink).MaxLength(500)
	if d.Attendees != nil {
		validateAttendees(v, *d.Attendees)
	}
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

func validateAttendees(v *validation.ValidationBuilder, attendees []int64) {
	for i, id := range attendees {
		v.Field(fmt.Sprintf("attendees[%d]", i), id).Positive()
	}
}

// apply copies the set fields onto s and re-checks the time window.
func (d UpdateScheduleDTO) apply(s *Schedule) error {
	if d.Title != nil {
		s.Title = *d.Title
	}
	if d.Description != nil {
		s.Description = *d.Description
	}
	if d.ScheduledDate != nil {
		s.ScheduledDate = *d.ScheduledDate
	}
	if d.StartTime != nil {
		s.StartTime = *d.StartTime
	}
	if d.EndTime != nil {
		s.EndTime = *d.EndTime
	}
	if d.Location != nil {
		s.Location = *d.Location
	}
	if d.MeetingLink != nil {
		s.MeetingLink = *d.MeetingLink
	}
	if d.Attendees != nil {
		s.Attendees = *d.Attendees
	}
	if d.IsCompleted != nil {
		s.IsCompleted = *d.IsCompleted
	}
	if d.Notes != nil {
		s.Notes = *d.Notes
	}
	if err := validation.ValidateTimeRange(s.StartTime, s.EndTime); err != nil {
		return err
	}
	return nil
}
