package handover

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/separation-management/internal"
	"github.com/frahmantamala/separation-management/internal/auth"
	handoverDatamodel "github.com/frahmantamala/separation-management/internal/core/datamodel/handover"
	"github.com/frahmantamala/separation-management/internal/separation"
)

type RepositoryAPI interface {
	ListByCase(ctx context.Context, caseID int64) ([]*handoverDatamodel.HandoverSchedule, error)
	GetByID(ctx context.Context, id int64) (*handoverDatamodel.HandoverSchedule, error)
	Create(ctx context.Context, s *handoverDatamodel.HandoverSchedule) error
	Update(ctx context.Context, s *handoverDatamodel.HandoverSchedule) error
	Delete(ctx context.Context, id int64) error
}

// CaseReader loads a case with its sign-offs, enforcing read access for the actor.
type CaseReader interface {
	GetCase(ctx context.Context, actor *auth.Actor, id int64) (*separation.Case, error)
}

type Service struct {
	repo     RepositoryAPI
	cases    CaseReader
	calendar CalendarScheduler
	logger   *slog.Logger
}

func NewService(repo RepositoryAPI, cases CaseReader, calendar CalendarScheduler, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		cases:    cases,
		calendar: calendar,
		logger:   logger,
	}
}

func (s *Service) ListByCase(ctx context.Context, actor *auth.Actor, caseID int64) ([]*Schedule, error) {
	if _, err := s.cases.GetCase(ctx, actor, caseID); err != nil {
		return nil, err
	}

	rows, err := s.repo.ListByCase(ctx, caseID)
	if err != nil {
		s.logger.Error("failed to list handover schedules", "case_id", caseID, "error", err)
		return nil, internal.NewInternalError("failed to list handover schedules", err)
	}

	schedules := make([]*Schedule, 0, len(rows))
	for _, row := range rows {
		schedules = append(schedules, FromDataModel(row))
	}
	return schedules, nil
}

func (s *Service) GetByID(ctx context.Context, actor *auth.Actor, id int64) (*Schedule, error) {
	schedule, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.cases.GetCase(ctx, actor, schedule.CaseID); err != nil {
		return nil, err
	}
	return schedule, nil
}

func (s *Service) Create(ctx context.Context, actor *auth.Actor, caseID int64, dto CreateScheduleDTO) (*Schedule, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.writableCase(ctx, actor, caseID); err != nil {
		return nil, err
	}

	schedule := &Schedule{
		CaseID:        caseID,
		Title:         dto.Title,
		Description:   dto.Description,
		ScheduledDate: dto.ScheduledDate,
		StartTime:     dto.StartTime,
		EndTime:       dto.EndTime,
		Location:      dto.Location,
		MeetingLink:   dto.MeetingLink,
		OrganizerID:   actor.ID,
		Attendees:     dto.Attendees,
		Notes:         dto.Notes,
	}

	eventID, err := s.calendar.Schedule(ctx, schedule)
	if err != nil {
		s.logger.Error("failed to book calendar event", "case_id", caseID, "error", err)
		return nil, internal.NewInternalError("failed to book calendar event", err)
	}
	schedule.CalendarEventID = eventID

	row := ToDataModel(schedule)
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.Error("failed to create handover schedule", "case_id", caseID, "error", err)
		if cancelErr := s.calendar.Cancel(ctx, eventID); cancelErr != nil {
			s.logger.Warn("failed to release calendar event", "event_id", eventID, "error", cancelErr)
		}
		return nil, internal.NewInternalError("failed to create handover schedule", err)
	}

	s.logger.Info("handover scheduled", "case_id", caseID, "schedule_id", row.ID, "actor_id", actor.ID)
	return FromDataModel(row), nil
}

func (s *Service) Update(ctx context.Context, actor *auth.Actor, id int64, dto UpdateScheduleDTO) (*Schedule, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	schedule, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.writableCase(ctx, actor, schedule.CaseID); err != nil {
		return nil, err
	}

	if err := dto.apply(schedule); err != nil {
		return nil, err
	}

	row := ToDataModel(schedule)
	if err := s.repo.Update(ctx, row); err != nil {
		s.logger.Error("failed to update handover schedule", "schedule_id", id, "error", err)
		return nil, internal.NewInternalError("failed to update handover schedule", err)
	}
	return FromDataModel(row), nil
}

// Delete removes the schedule and releases its calendar slot.
func (s *Service) Delete(ctx context.Context, actor *auth.Actor, id int64) error {
	schedule, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.writableCase(ctx, actor, schedule.CaseID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete handover schedule", "schedule_id", id, "error", err)
		return internal.NewInternalError("failed to delete handover schedule", err)
	}
	if schedule.CalendarEventID != "" {
		if err := s.calendar.Cancel(ctx, schedule.CalendarEventID); err != nil {
			s.logger.Warn("failed to release calendar event", "event_id", schedule.CalendarEventID, "error", err)
		}
	}

	s.logger.Info("handover schedule deleted", "schedule_id", id, "actor_id", actor.ID)
	return nil
}

func (s *Service) load(ctx context.Context, id int64) (*Schedule, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to load handover schedule", "schedule_id", id, "error", err)
		return nil, internal.NewInternalError("failed to load handover schedule", err)
	}
	if row == nil {
		return nil, internal.ErrHandoverNotFound
	}
	return FromDataModel(row), nil
}

// writableCase checks the manage capability and that the case is still open.
func (s *Service) writableCase(ctx context.Context, actor *auth.Actor, caseID int64) (*separation.Case, error) {
	c, err := s.cases.GetCase(ctx, actor, caseID)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(actor, auth.ActionHandoverManage, c.Resource(c.SignOffs)); err != nil {
		return nil, err
	}
	if c.Status.IsTerminal() {
		return nil, internal.ErrCaseTerminal
	}
	return c, nil
}
