package handover

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// CalendarScheduler books and releases calendar events for handover meetings.
type CalendarScheduler interface {
	Schedule(ctx context.Context, s *Schedule) (string, error)
	Cancel(ctx context.Context, eventID string) error
}

// LocalCalendar issues event ids without talking to an external calendar.
type LocalCalendar struct {
	logger *slog.Logger
}

func NewLocalCalendar(logger *slog.Logger) *LocalCalendar {
	return &LocalCalendar{logger: logger}
}

func (c *LocalCalendar) Schedule(_ context.Context, s *Schedule) (string, error) {
	eventID := "evt_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	c.logger.Info("calendar event booked",
		"event_id", eventID,
		"case_id", s.CaseID,
		"date", s.ScheduledDate.Format("2006-01-02"),
		"start", s.StartTime,
		"attendees", len(s.Attendees))
	return eventID, nil
}

func (c *LocalCalendar) Cancel(_ context.Context, eventID string) error {
	c.logger.Info("calendar event released", "event_id", eventID)
	return nil
}
