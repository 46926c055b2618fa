package template_test

import (
	"context"
	"log/slog"
	"os"

	"github.com/frahmantamala/separation-management/internal"
	"github.com/frahmantamala/separation-management/internal/auth"
	"github.com/frahmantamala/separation-management/internal/core/common/testdb"
	departmentDatamodel "github.com/frahmantamala/separation-management/internal/core/datamodel/department"
	"github.com/frahmantamala/separation-management/internal/template"
	templatePostgres "github.com/frahmantamala/separation-management/internal/template/postgres"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Template Service", func() {
	var (
		service *template.Service
		ctx     context.Context
		hr      = &auth.Actor{ID: 1, Role: auth.RoleSeparationManager}
		eng     *departmentDatamodel.Department
		fin     *departmentDatamodel.Department
	)

	BeforeEach(func() {
		db, err := testdb.Open()
		Expect(err).NotTo(HaveOccurred())

		eng = &departmentDatamodel.Department{Name: "Engineering", Code: "ENG"}
		fin = &departmentDatamodel.Department{Name: "Finance", Code: "FIN"}
		Expect(db.Create(eng).Error).To(Succeed())
		Expect(db.Create(fin).Error).To(Succeed())

		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = template.NewService(templatePostgres.NewTemplateRepository(db), slogger)
		ctx = context.Background()
	})

	create := func(name string, departmentID *int64, items ...template.ItemDTO) *template.Template {
		t, err := service.Create(ctx, hr, template.CreateTemplateDTO{Name: name, DepartmentID: departmentID, Items: items})
		Expect(err).NotTo(HaveOccurred())
		return t
	}

	Describe("Create", func() {
		It("keeps items in order and numbers them", func() {
			t := create("Default", nil,
				template.ItemDTO{Name: "Return laptop", IsMandatory: true},
				template.ItemDTO{Name: "Exit interview"},
			)

			Expect(t.IsActive).To(BeTrue())
			Expect(t.IsGlobal()).To(BeTrue())
			Expect(t.Items).To(HaveLen(2))
			Expect(t.Items[0].Name).To(Equal("Return laptop"))
			Expect(t.Items[0].Order).To(Equal(1))
			Expect(t.Items[1].Order).To(Equal(2))
			Expect(t.MandatoryCount()).To(Equal(1))
		})

		It("rejects items without a name", func() {
			_, err := service.Create(ctx, hr, template.CreateTemplateDTO{Name: "Bad", Items: []template.ItemDTO{{Name: ""}}})
			Expect(internal.IsType(err, internal.ErrorTypeValidation)).To(BeTrue())
		})
	})

	Describe("Resolve", func() {
		It("prefers the department template over the global one", func() {
			create("Default", nil, template.ItemDTO{Name: "Global item"})
			engTemplate := create("Engineering", &eng.ID, template.ItemDTO{Name: "Revoke repo access"})

			resolved, err := service.Resolve(ctx, &eng.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(resolved.ID).To(Equal(engTemplate.ID))
		})

		It("falls back to the global template", func() {
			global := create("Default", nil, template.ItemDTO{Name: "Global item"})
			create("Engineering", &eng.ID)

			resolved, err := service.Resolve(ctx, &fin.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(resolved.ID).To(Equal(global.ID))

			resolved, err = service.Resolve(ctx, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(resolved.ID).To(Equal(global.ID))
		})

		It("picks the lowest id when several templates tie", func() {
			first := create("Engineering A", &eng.ID)
			create("Engineering B", &eng.ID)

			resolved, err := service.Resolve(ctx, &eng.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(resolved.ID).To(Equal(first.ID))
		})

		It("ignores deactivated templates", func() {
			engTemplate := create("Engineering", &eng.ID)
			global := create("Default", nil)
			Expect(service.Delete(ctx, hr, engTemplate.ID)).To(Succeed())

			resolved, err := service.Resolve(ctx, &eng.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(resolved.ID).To(Equal(global.ID))
		})

		It("returns nil when nothing applies", func() {
			resolved, err := service.Resolve(ctx, &eng.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(resolved).To(BeNil())
		})
	})

	Describe("Update", func() {
		It("replaces items only when they are provided", func() {
			t := create("Default", nil, template.ItemDTO{Name: "One"}, template.ItemDTO{Name: "Two"})

			name := "Renamed"
			updated, err := service.Update(ctx, hr, t.ID, template.UpdateTemplateDTO{Name: &name})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Name).To(Equal("Renamed"))
			Expect(updated.Items).To(HaveLen(2))

			items := []template.ItemDTO{{Name: "Only", IsMandatory: true}}
			updated, err = service.Update(ctx, hr, t.ID, template.UpdateTemplateDTO{Items: &items})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Items).To(HaveLen(1))
			Expect(updated.Items[0].Name).To(Equal("Only"))
			Expect(updated.Items[0].IsMandatory).To(BeTrue())
		})
	})

	Describe("Delete", func() {
		It("deactivates instead of removing", func() {
			t := create("Default", nil)
			Expect(service.Delete(ctx, hr, t.ID)).To(Succeed())

			reloaded, err := service.GetByID(ctx, t.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(reloaded.IsActive).To(BeFalse())

			active, err := service.List(ctx, template.Filter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(active).To(BeEmpty())

			all, err := service.List(ctx, template.Filter{IncludeInactive: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(1))
		})

		It("is reserved to separation managers", func() {
			t := create("Default", nil)
			err := service.Delete(ctx, &auth.Actor{ID: 2, Role: auth.RoleDepartmentManager}, t.ID)
			Expect(internal.IsType(err, internal.ErrorTypeAuthorization)).To(BeTrue())
		})
	})
})
