package department_test

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/frahmantamala/separation-management/internal"
	"github.com/frahmantamala/separation-management/internal/auth"
	"github.com/frahmantamala/separation-management/internal/core/common/testdb"
	separationDatamodel "github.com/frahmantamala/separation-management/internal/core/datamodel/separation"
	userDatamodel "github.com/frahmantamala/separation-management/internal/core/datamodel/user"
	"github.com/frahmantamala/separation-management/internal/department"
	departmentPostgres "github.com/frahmantamala/separation-management/internal/department/postgres"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

func strPtr(s string) *string { return &s }

var _ = Describe("Department Service", func() {
	var (
		db      *gorm.DB
		service *department.Service
		ctx     context.Context
		hr      = &auth.Actor{ID: 100, Role: auth.RoleSeparationManager}
		emp     = &auth.Actor{ID: 200, Role: auth.RoleEmployee}
	)

	BeforeEach(func() {
		var err error
		db, err = testdb.Open()
		Expect(err).NotTo(HaveOccurred())

		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = department.NewService(departmentPostgres.NewDepartmentRepository(db), slogger)
		ctx = context.Background()
	})

	Describe("Create", func() {
		It("creates a department with an upper-cased code", func() {
			dept, err := service.Create(ctx, hr, department.CreateDepartmentDTO{Name: "Engineering", Code: " eng "})
			Expect(err).NotTo(HaveOccurred())
			Expect(dept.ID).To(BeNumerically(">", 0))
			Expect(dept.Code).To(Equal("ENG"))
		})

		It("rejects duplicates by name or code", func() {
			_, err := service.Create(ctx, hr, department.CreateDepartmentDTO{Name: "Engineering", Code: "ENG"})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Create(ctx, hr, department.CreateDepartmentDTO{Name: "engineering", Code: "EN2"})
			Expect(internal.IsType(err, internal.ErrorTypeConflict)).To(BeTrue())

			_, err = service.Create(ctx, hr, department.CreateDepartmentDTO{Name: "Other", Code: "eng"})
			Expect(internal.IsType(err, internal.ErrorTypeConflict)).To(BeTrue())
		})

		It("only lets separation managers manage the directory", func() {
			_, err := service.Create(ctx, emp, department.CreateDepartmentDTO{Name: "Engineering", Code: "ENG"})
			Expect(internal.IsType(err, internal.ErrorTypeAuthorization)).To(BeTrue())
		})

		It("requires an existing parent", func() {
			missing := int64(999)
			_, err := service.Create(ctx, hr, department.CreateDepartmentDTO{Name: "Platform", Code: "PLT", ParentID: &missing})
			Expect(internal.IsType(err, internal.ErrorTypeValidation)).To(BeTrue())
		})
	})

	Describe("Update", func() {
		It("changes only the provided fields", func() {
			dept, err := service.Create(ctx, hr, department.CreateDepartmentDTO{Name: "Finance", Code: "FIN", Description: "money"})
			Expect(err).NotTo(HaveOccurred())

			updated, err := service.Update(ctx, hr, dept.ID, department.UpdateDepartmentDTO{Name: strPtr("Finance & Accounting")})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Name).To(Equal("Finance & Accounting"))
			Expect(updated.Code).To(Equal("FIN"))
			Expect(updated.Description).To(Equal("money"))
		})

		It("rejects a department as its own parent", func() {
			dept, err := service.Create(ctx, hr, department.CreateDepartmentDTO{Name: "Finance", Code: "FIN"})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Update(ctx, hr, dept.ID, department.UpdateDepartmentDTO{ParentID: &dept.ID})
			Expect(internal.IsType(err, internal.ErrorTypeValidation)).To(BeTrue())
		})

		It("returns not found for unknown ids", func() {
			_, err := service.Update(ctx, hr, 404, department.UpdateDepartmentDTO{Name: strPtr("x")})
			Expect(err).To(MatchError(internal.ErrDepartmentNotFound))
		})
	})

	Describe("Delete", func() {
		var dept *department.Department

		BeforeEach(func() {
			var err error
			dept, err = service.Create(ctx, hr, department.CreateDepartmentDTO{Name: "Engineering", Code: "ENG", Description: "builders"})
			Expect(err).NotTo(HaveOccurred())
		})

		It("deletes an unreferenced department", func() {
			Expect(service.Delete(ctx, hr, dept.ID)).To(Succeed())

			_, err := service.GetByID(ctx, dept.ID)
			Expect(err).To(MatchError(internal.ErrDepartmentNotFound))
		})

		It("refuses when a user references the department and leaves it unchanged", func() {
			Expect(db.Create(&userDatamodel.User{
				Email:        "dev@example.com",
				Name:         "Dev",
				PasswordHash: "x",
				Role:         string(auth.RoleEmployee),
				DepartmentID: &dept.ID,
				IsActive:     true,
			}).Error).To(Succeed())

			err := service.Delete(ctx, hr, dept.ID)
			Expect(internal.IsType(err, internal.ErrorTypeConflict)).To(BeTrue())
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.Code).To(Equal(internal.ErrCodeDepartmentInUse))

			unchanged, err := service.GetByID(ctx, dept.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(unchanged.Name).To(Equal("Engineering"))
			Expect(unchanged.Description).To(Equal("builders"))
		})

		It("refuses when a sign-off references the department", func() {
			Expect(db.Create(&separationDatamodel.SignOff{
				CaseID:       1,
				DepartmentID: dept.ID,
				ManagerID:    2,
				Status:       "pending",
				AssignedBy:   hr.ID,
				AssignedAt:   time.Now(),
			}).Error).To(Succeed())

			err := service.Delete(ctx, hr, dept.ID)
			Expect(internal.IsType(err, internal.ErrorTypeConflict)).To(BeTrue())
		})

		It("refuses when a child department exists", func() {
			_, err := service.Create(ctx, hr, department.CreateDepartmentDTO{Name: "Platform", Code: "PLT", ParentID: &dept.ID})
			Expect(err).NotTo(HaveOccurred())

			err = service.Delete(ctx, hr, dept.ID)
			Expect(internal.IsType(err, internal.ErrorTypeConflict)).To(BeTrue())
		})
	})
})
