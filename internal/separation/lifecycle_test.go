package separation_test

import (
	"errors"

	"github.com/frahmantamala/separation-management/internal"
	"github.com/frahmantamala/separation-management/internal/separation"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Lifecycle", func() {
	DescribeTable("Percent",
		func(done, total, expected int) {
			Expect(separation.Percent(done, total)).To(Equal(expected))
		},
		Entry("empty set", 0, 0, 0),
		Entry("none done", 0, 3, 0),
		Entry("one third rounds down", 1, 3, 33),
		Entry("two thirds rounds up", 2, 3, 67),
		Entry("half", 1, 2, 50),
		Entry("all done", 4, 4, 100),
	)

	Describe("ChecklistProgress", func() {
		It("counts optional items too", func() {
			items := []*separation.ChecklistItem{
				{ID: 1, IsMandatory: true, IsCompleted: true},
				{ID: 2, IsMandatory: true, IsCompleted: true},
				{ID: 3},
			}
			Expect(separation.ChecklistProgress(items)).To(Equal(67))
			Expect(separation.ChecklistProgress(nil)).To(Equal(0))
		})
	})

	Describe("effective sign-offs", func() {
		var signOffs []*separation.SignOff

		BeforeEach(func() {
			signOffs = []*separation.SignOff{
				{ID: 1, DepartmentID: 20, Status: separation.SignOffRejected},
				{ID: 2, DepartmentID: 10, Status: separation.SignOffApproved},
				{ID: 3, DepartmentID: 20, Status: separation.SignOffApproved},
			}
		})

		It("keeps the latest record per department ordered by department", func() {
			effective := separation.EffectiveSignOffs(signOffs)
			Expect(effective).To(HaveLen(2))
			Expect(effective[0].ID).To(Equal(int64(2)))
			Expect(effective[1].ID).To(Equal(int64(3)))
		})

		It("ignores superseded rejections in progress and approval", func() {
			Expect(separation.SignOffProgress(signOffs)).To(Equal(100))
			Expect(separation.AllApproved(signOffs)).To(BeTrue())
		})

		It("flags superseded records", func() {
			separation.MarkSuperseded(signOffs)
			Expect(signOffs[0].Superseded).To(BeTrue())
			Expect(signOffs[1].Superseded).To(BeFalse())
			Expect(signOffs[2].Superseded).To(BeFalse())
		})

		It("keeps a rejection in the denominator", func() {
			signOffs = append(signOffs, &separation.SignOff{ID: 4, DepartmentID: 30, Status: separation.SignOffRejected})
			Expect(separation.SignOffProgress(signOffs)).To(Equal(67))
			Expect(separation.AllApproved(signOffs)).To(BeFalse())
			Expect(separation.HasPendingSignOff(signOffs)).To(BeFalse())
		})

		It("is never all approved when empty", func() {
			Expect(separation.AllApproved(nil)).To(BeFalse())
			Expect(separation.SignOffProgress(nil)).To(Equal(0))
		})
	})

	Describe("Transition", func() {
		It("allows cancellation from every open status", func() {
			for _, status := range []separation.Status{
				separation.StatusInitiated,
				separation.StatusChecklistPending,
				separation.StatusChecklistSubmitted,
				separation.StatusSignOffPending,
			} {
				c := &separation.Case{Status: status}
				Expect(c.Transition(separation.StatusCancelled)).To(Succeed())
			}
		})

		It("rejects skipping ahead as a validation error", func() {
			c := &separation.Case{Status: separation.StatusChecklistPending}
			err := c.Transition(separation.StatusCompleted)
			Expect(internal.IsType(err, internal.ErrorTypeValidation)).To(BeTrue())
			Expect(c.Status).To(Equal(separation.StatusChecklistPending))
		})

		It("rejects any move out of a terminal status as a conflict", func() {
			c := &separation.Case{Status: separation.StatusCompleted}
			err := c.Transition(separation.StatusCancelled)
			Expect(errors.Is(err, internal.ErrCaseTerminal)).To(BeTrue())
		})
	})

	Describe("Advance", func() {
		It("does nothing while the checklist is pending", func() {
			c := &separation.Case{Status: separation.StatusChecklistPending}
			changes := c.Advance([]*separation.SignOff{{ID: 1, DepartmentID: 1, Status: separation.SignOffApproved}})
			Expect(changes).To(BeEmpty())
			Expect(c.Status).To(Equal(separation.StatusChecklistPending))
		})

		It("waits in checklist_submitted until a sign-off exists", func() {
			c := &separation.Case{Status: separation.StatusChecklistSubmitted}
			Expect(c.Advance(nil)).To(BeEmpty())
		})

		It("chains through signoff_pending to completed", func() {
			c := &separation.Case{Status: separation.StatusChecklistSubmitted}
			changes := c.Advance([]*separation.SignOff{{ID: 1, DepartmentID: 1, Status: separation.SignOffApproved}})
			Expect(changes).To(Equal([]separation.Change{
				{From: separation.StatusChecklistSubmitted, To: separation.StatusSignOffPending},
				{From: separation.StatusSignOffPending, To: separation.StatusCompleted},
			}))
			Expect(c.Status).To(Equal(separation.StatusCompleted))
		})

		It("holds on a rejection", func() {
			c := &separation.Case{Status: separation.StatusSignOffPending}
			changes := c.Advance([]*separation.SignOff{
				{ID: 1, DepartmentID: 1, Status: separation.SignOffApproved},
				{ID: 2, DepartmentID: 2, Status: separation.SignOffRejected},
			})
			Expect(changes).To(BeEmpty())
		})
	})

	Describe("MandatoryItemsError", func() {
		It("names every outstanding item", func() {
			outstanding := separation.OutstandingMandatory([]*separation.ChecklistItem{
				{ID: 1, Name: "Return laptop", IsMandatory: true},
				{ID: 2, Name: "Exit interview"},
				{ID: 3, Name: "Revoke access", IsMandatory: true, IsCompleted: true},
			})
			Expect(outstanding).To(HaveLen(1))

			err := separation.MandatoryItemsError(outstanding)
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeMandatoryItemsIncomplete))
			Expect(appErr.Message).To(ContainSubstring("Return laptop"))
		})
	})
})
