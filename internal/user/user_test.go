package user_test

import (
	"github.com/frahmantamala/separation-management/internal/auth"
	"github.com/frahmantamala/separation-management/internal/user"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func id(v int64) *int64 { return &v }

var _ = Describe("BuildOrgChart", func() {
	It("nests reports under their managers", func() {
		chart := user.BuildOrgChart([]*user.User{
			{ID: 1, Name: "Hana", Role: auth.RoleSeparationManager},
			{ID: 2, Name: "Dina", Role: auth.RoleDepartmentManager, ManagerID: id(1)},
			{ID: 3, Name: "Eko", Role: auth.RoleEmployee, ManagerID: id(2)},
			{ID: 4, Name: "Budi", Role: auth.RoleEmployee, ManagerID: id(2)},
		})

		Expect(chart).To(HaveLen(1))
		Expect(chart[0].ID).To(Equal(int64(1)))
		Expect(chart[0].Reports).To(HaveLen(1))

		dina := chart[0].Reports[0]
		Expect(dina.Reports).To(HaveLen(2))
		Expect(dina.Reports[0].Name).To(Equal("Budi"))
		Expect(dina.Reports[1].Name).To(Equal("Eko"))
	})

	It("treats users with an unknown or self manager as roots", func() {
		chart := user.BuildOrgChart([]*user.User{
			{ID: 1, Name: "Zed", ManagerID: id(99)},
			{ID: 2, Name: "Ana", ManagerID: id(2)},
		})

		Expect(chart).To(HaveLen(2))
		Expect(chart[0].Name).To(Equal("Ana"))
		Expect(chart[1].Name).To(Equal("Zed"))
	})

	It("returns an empty forest for no users", func() {
		Expect(user.BuildOrgChart(nil)).To(BeEmpty())
	})
})
