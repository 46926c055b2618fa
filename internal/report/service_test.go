package report_test

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	"github.com/frahmantamala/separation-management/internal/auth"
	"github.com/frahmantamala/separation-management/internal/core/common/testdb"
	departmentDatamodel "github.com/frahmantamala/separation-management/internal/core/datamodel/department"
	separationDatamodel "github.com/frahmantamala/separation-management/internal/core/datamodel/separation"
	userDatamodel "github.com/frahmantamala/separation-management/internal/core/datamodel/user"
	"github.com/frahmantamala/separation-management/internal/report"
	reportPostgres "github.com/frahmantamala/separation-management/internal/report/postgres"
	"github.com/frahmantamala/separation-management/internal/transport"
	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

var _ = Describe("Dashboard", func() {
	var (
		db      *gorm.DB
		service *report.Service
		ctx     context.Context

		hr, manager, finance, alice, bob, carol *userDatamodel.User
		fin                                     *departmentDatamodel.Department
		caseNo                                  int
	)

	addUser := func(name, role string, managerID *int64) *userDatamodel.User {
		u := &userDatamodel.User{
			Email:        name + "@example.com",
			Name:         name,
			PasswordHash: "x",
			Role:         role,
			ManagerID:    managerID,
			IsActive:     true,
		}
		Expect(db.Create(u).Error).To(Succeed())
		return u
	}

	addCase := func(employee *userDatamodel.User, status string, created time.Time) *separationDatamodel.Case {
		caseNo++
		c := &separationDatamodel.Case{
			CaseNumber:      fmt.Sprintf("SEP-2026-%04d", caseNo),
			EmployeeID:      employee.ID,
			DirectManagerID: employee.ManagerID,
			ResignationDate: created,
			LastWorkingDay:  created.AddDate(0, 0, 30),
			Status:          status,
			CreatedBy:       employee.ID,
			CreatedAt:       created,
		}
		Expect(db.Create(c).Error).To(Succeed())
		return c
	}

	addItems := func(c *separationDatamodel.Case, total, done int) {
		for i := 0; i < total; i++ {
			Expect(db.Create(&separationDatamodel.ChecklistItem{
				CaseID:      c.ID,
				Name:        fmt.Sprintf("item %d", i),
				IsMandatory: true,
				IsCompleted: i < done,
				SortOrder:   i,
			}).Error).To(Succeed())
		}
	}

	addSignOff := func(c *separationDatamodel.Case, assignee *userDatamodel.User, status string) {
		Expect(db.Create(&separationDatamodel.SignOff{
			CaseID:       c.ID,
			DepartmentID: fin.ID,
			ManagerID:    assignee.ID,
			Status:       status,
			AssignedBy:   hr.ID,
			AssignedAt:   time.Now(),
		}).Error).To(Succeed())
	}

	actorOf := func(u *userDatamodel.User) *auth.Actor {
		return &auth.Actor{ID: u.ID, Name: u.Name, Role: auth.Role(u.Role), IsActive: true}
	}

	BeforeEach(func() {
		var err error
		db, err = testdb.Open()
		Expect(err).NotTo(HaveOccurred())
		caseNo = 0

		fin = &departmentDatamodel.Department{Name: "Finance", Code: "FIN"}
		Expect(db.Create(fin).Error).To(Succeed())

		hr = addUser("hr", string(auth.RoleSeparationManager), nil)
		manager = addUser("manager", string(auth.RoleDirectManager), nil)
		finance = addUser("finance", string(auth.RoleDepartmentManager), nil)
		alice = addUser("alice", string(auth.RoleEmployee), &manager.ID)
		bob = addUser("bob", string(auth.RoleEmployee), &manager.ID)
		carol = addUser("carol", string(auth.RoleEmployee), nil)

		base := time.Now().Add(-72 * time.Hour)
		aliceOld := addCase(alice, "cancelled", base)
		aliceCase := addCase(alice, "signoff_pending", base.Add(time.Hour))
		addItems(aliceCase, 3, 2)
		addSignOff(aliceCase, finance, "pending")
		bobCase := addCase(bob, "checklist_pending", base.Add(2*time.Hour))
		addItems(bobCase, 4, 1)
		carolCase := addCase(carol, "completed", base.Add(3*time.Hour))
		addSignOff(carolCase, finance, "approved")
		addSignOff(aliceOld, finance, "pending")

		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = report.NewService(reportPostgres.NewReportRepository(sqlx.NewDb(sqlDB, "sqlite3")), slogger)
		ctx = context.Background()
	})

	It("shows an employee their open case with progress", func() {
		d, err := service.Dashboard(ctx, actorOf(alice))
		Expect(err).NotTo(HaveOccurred())
		Expect(d.ActiveCase).NotTo(BeNil())
		Expect(d.ActiveCase.CaseNumber).To(Equal("SEP-2026-0002"))
		Expect(d.ActiveCase.EmployeeName).To(Equal("alice"))
		Expect(d.ActiveCase.TotalItems).To(Equal(3))
		Expect(d.ActiveCase.CompletedItems).To(Equal(2))
		Expect(d.ActiveCase.Progress).To(Equal(67))
		Expect(d.Totals).To(BeNil())
		Expect(d.RecentCases).To(BeEmpty())
	})

	It("has no active case for employees whose cases are closed", func() {
		d, err := service.Dashboard(ctx, actorOf(carol))
		Expect(err).NotTo(HaveOccurred())
		Expect(d.ActiveCase).To(BeNil())
	})

	It("gives the separation manager organisation wide numbers", func() {
		d, err := service.Dashboard(ctx, actorOf(hr))
		Expect(err).NotTo(HaveOccurred())
		Expect(d.TotalCases).To(Equal(4))
		Expect(d.Totals).To(HaveKeyWithValue("signoff_pending", 1))
		Expect(d.Totals).To(HaveKeyWithValue("cancelled", 1))
		Expect(d.Totals).To(HaveKeyWithValue("initiated", 0))

		Expect(d.PendingSignOffs).To(HaveLen(1))
		Expect(d.PendingSignOffs[0].CaseNumber).To(Equal("SEP-2026-0002"))
		Expect(d.PendingSignOffs[0].DepartmentName).To(Equal("Finance"))

		Expect(d.RecentCases).To(HaveLen(4))
		Expect(d.RecentCases[0].CaseNumber).To(Equal("SEP-2026-0004"))
	})

	It("scopes a direct manager to their reports' cases", func() {
		d, err := service.Dashboard(ctx, actorOf(manager))
		Expect(err).NotTo(HaveOccurred())
		Expect(d.TotalCases).To(Equal(3))
		Expect(d.PendingSignOffs).To(BeEmpty())

		numbers := make([]string, 0, len(d.RecentCases))
		for _, c := range d.RecentCases {
			numbers = append(numbers, c.CaseNumber)
		}
		Expect(numbers).To(Equal([]string{"SEP-2026-0003", "SEP-2026-0002", "SEP-2026-0001"}))
		Expect(d.RecentCases[0].Progress).To(Equal(25))
	})

	It("shows a sign-off owner the cases they sign off on", func() {
		d, err := service.Dashboard(ctx, actorOf(finance))
		Expect(err).NotTo(HaveOccurred())
		Expect(d.TotalCases).To(Equal(3))
		Expect(d.PendingSignOffs).To(HaveLen(1))
		Expect(d.PendingSignOffs[0].ManagerID).To(Equal(finance.ID))
	})

	It("serves the dashboard over HTTP for the authenticated actor", func() {
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		handler := report.NewHandler(transport.NewBaseHandler(slogger), service)

		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		req = req.WithContext(auth.ContextWithActor(req.Context(), actorOf(bob)))
		rec := httptest.NewRecorder()
		handler.Dashboard(rec, req)

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring(`"progress":25`))

		rec = httptest.NewRecorder()
		handler.Dashboard(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
	})
})
