package handover_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/frahmantamala/separation-management/internal"
	"github.com/frahmantamala/separation-management/internal/auth"
	"github.com/frahmantamala/separation-management/internal/core/common/datetime"
	"github.com/frahmantamala/separation-management/internal/core/common/testdb"
	"github.com/frahmantamala/separation-management/internal/handover"
	handoverPostgres "github.com/frahmantamala/separation-management/internal/handover/postgres"
	"github.com/frahmantamala/separation-management/internal/separation"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type stubCases struct {
	cases map[int64]*separation.Case
}

func (s *stubCases) GetCase(_ context.Context, actor *auth.Actor, id int64) (*separation.Case, error) {
	c, ok := s.cases[id]
	if !ok {
		return nil, internal.ErrCaseNotFound
	}
	if err := auth.Authorize(actor, auth.ActionCaseRead, c.Resource(c.SignOffs)); err != nil {
		return nil, err
	}
	return c, nil
}

type recordingCalendar struct {
	*handover.LocalCalendar
	cancelled []string
}

func (c *recordingCalendar) Cancel(ctx context.Context, eventID string) error {
	c.cancelled = append(c.cancelled, eventID)
	return c.LocalCalendar.Cancel(ctx, eventID)
}

var _ = Describe("Handover Service", func() {
	var (
		service  *handover.Service
		calendar *recordingCalendar
		cases    *stubCases
		ctx      context.Context

		managerID = int64(2)
		employee  = &auth.Actor{ID: 1, Role: auth.RoleEmployee}
		manager   = &auth.Actor{ID: managerID, Role: auth.RoleDirectManager}
		stranger  = &auth.Actor{ID: 3, Role: auth.RoleEmployee}
	)

	BeforeEach(func() {
		db, err := testdb.Open()
		Expect(err).NotTo(HaveOccurred())

		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		calendar = &recordingCalendar{LocalCalendar: handover.NewLocalCalendar(slogger)}
		cases = &stubCases{cases: map[int64]*separation.Case{
			10: {ID: 10, EmployeeID: employee.ID, DirectManagerID: &managerID, Status: separation.StatusChecklistPending},
			11: {ID: 11, EmployeeID: employee.ID, DirectManagerID: &managerID, Status: separation.StatusCompleted},
		}}
		service = handover.NewService(handoverPostgres.NewHandoverRepository(db), cases, calendar, slogger)
		ctx = context.Background()
	})

	validDTO := func() handover.CreateScheduleDTO {
		return handover.CreateScheduleDTO{
			Title:         "Payments service walkthrough",
			ScheduledDate: datetime.NewDate(time.Now().AddDate(0, 0, 7)),
			StartTime:     "09:30",
			EndTime:       "10:30",
			Attendees:     []int64{employee.ID, 7},
		}
	}

	Describe("Create", func() {
		It("books a calendar event and stores attendees", func() {
			s, err := service.Create(ctx, manager, 10, validDTO())
			Expect(err).NotTo(HaveOccurred())
			Expect(s.CalendarEventID).To(MatchRegexp(`^evt_[0-9a-f]{12}$`))
			Expect(s.OrganizerID).To(Equal(manager.ID))

			got, err := service.GetByID(ctx, employee, s.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Attendees).To(Equal([]int64{employee.ID, 7}))
			Expect(got.ScheduledDate.Format("2006-01-02")).To(Equal(s.ScheduledDate.Format("2006-01-02")))
		})

		DescribeTable("rejects bad time windows",
			func(start, end string) {
				dto := validDTO()
				dto.StartTime, dto.EndTime = start, end
				_, err := service.Create(ctx, manager, 10, dto)
				Expect(internal.IsType(err, internal.ErrorTypeValidation)).To(BeTrue())
			},
			Entry("end before start", "10:00", "09:00"),
			Entry("empty window", "10:00", "10:00"),
			Entry("not HH:MM", "9am", "10:00"),
			Entry("out of range", "24:30", "25:00"),
		)

		It("refuses closed cases with a conflict", func() {
			_, err := service.Create(ctx, manager, 11, validDTO())
			Expect(errors.Is(err, internal.ErrCaseTerminal)).To(BeTrue())
		})

		It("refuses actors outside the case", func() {
			_, err := service.Create(ctx, stranger, 10, validDTO())
			Expect(internal.IsType(err, internal.ErrorTypeAuthorization)).To(BeTrue())
		})

		It("reports unknown cases as not found", func() {
			_, err := service.Create(ctx, manager, 99, validDTO())
			Expect(errors.Is(err, internal.ErrCaseNotFound)).To(BeTrue())
		})
	})

	Describe("Update", func() {
		It("marks the meeting complete and re-checks the window", func() {
			s, err := service.Create(ctx, manager, 10, validDTO())
			Expect(err).NotTo(HaveOccurred())

			done := true
			updated, err := service.Update(ctx, employee, s.ID, handover.UpdateScheduleDTO{IsCompleted: &done})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.IsCompleted).To(BeTrue())

			early := "08:00"
			end := "07:00"
			_, err = service.Update(ctx, employee, s.ID, handover.UpdateScheduleDTO{StartTime: &early, EndTime: &end})
			Expect(internal.IsType(err, internal.ErrorTypeValidation)).To(BeTrue())
		})

		It("reports missing schedules as not found", func() {
			title := "x"
			_, err := service.Update(ctx, manager, 404, handover.UpdateScheduleDTO{Title: &title})
			Expect(errors.Is(err, internal.ErrHandoverNotFound)).To(BeTrue())
		})
	})

	Describe("Delete", func() {
		It("releases the calendar event", func() {
			s, err := service.Create(ctx, manager, 10, validDTO())
			Expect(err).NotTo(HaveOccurred())

			Expect(service.Delete(ctx, manager, s.ID)).To(Succeed())
			Expect(calendar.cancelled).To(ConsistOf(s.CalendarEventID))

			_, err = service.GetByID(ctx, manager, s.ID)
			Expect(errors.Is(err, internal.ErrHandoverNotFound)).To(BeTrue())
		})
	})

	Describe("ListByCase", func() {
		It("orders schedules by date and time", func() {
			later := validDTO()
			later.StartTime, later.EndTime = "14:00", "15:00"
			_, err := service.Create(ctx, manager, 10, later)
			Expect(err).NotTo(HaveOccurred())
			_, err = service.Create(ctx, manager, 10, validDTO())
			Expect(err).NotTo(HaveOccurred())

			schedules, err := service.ListByCase(ctx, employee, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(schedules).To(HaveLen(2))
			Expect(schedules[0].StartTime).To(Equal("09:30"))

			_, err = service.ListByCase(ctx, stranger, 10)
			Expect(internal.IsType(err, internal.ErrorTypeAuthorization)).To(BeTrue())
		})
	})
})
