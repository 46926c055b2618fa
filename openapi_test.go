package main_test

import (
	"context"

	"github.com/getkin/kin-openapi/openapi3"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("OpenAPI document", func() {
	var doc *openapi3.T

	BeforeEach(func() {
		var err error
		doc, err = openapi3.NewLoader().LoadFromFile("api/openapi.yml")
		Expect(err).NotTo(HaveOccurred())
	})

	It("is a valid document", func() {
		Expect(doc.Validate(context.Background())).To(Succeed())
	})

	DescribeTable("documents the lifecycle operations",
		func(path, method string) {
			item := doc.Paths.Find(path)
			Expect(item).NotTo(BeNil(), path)
			Expect(item.GetOperation(method)).NotTo(BeNil(), method+" "+path)
		},
		Entry("login", "/api/v1/auth/login", "POST"),
		Entry("current actor", "/api/v1/auth/me", "GET"),
		Entry("change password", "/api/v1/auth/change-password", "POST"),
		Entry("open case", "/api/v1/separations", "POST"),
		Entry("list cases", "/api/v1/separations", "GET"),
		Entry("submit checklist", "/api/v1/separations/{id}/submit", "POST"),
		Entry("cancel case", "/api/v1/separations/{id}/cancel", "POST"),
		Entry("complete case", "/api/v1/separations/{id}/complete", "POST"),
		Entry("toggle item", "/api/v1/checklist-items/{id}", "PATCH"),
		Entry("annotate item", "/api/v1/checklist-items/{id}/notes", "PATCH"),
		Entry("assign sign-off", "/api/v1/separations/{id}/signoffs", "POST"),
		Entry("resolve sign-off", "/api/v1/signoffs/{id}/resolve", "POST"),
		Entry("pending sign-offs", "/api/v1/signoffs/pending", "GET"),
		Entry("schedule handover", "/api/v1/separations/{id}/handovers", "POST"),
		Entry("case stream", "/api/v1/separations/{id}/stream", "GET"),
		Entry("dashboard", "/api/v1/dashboard", "GET"),
	)

	It("declares path ids as integers", func() {
		op := doc.Paths.Find("/api/v1/signoffs/{id}/resolve").Post
		Expect(op).NotTo(BeNil())
		param := doc.Paths.Find("/api/v1/signoffs/{id}/resolve").Parameters.GetByInAndName("path", "id")
		Expect(param).NotTo(BeNil())
		Expect(param.Schema.Value.Type.Is("integer")).To(BeTrue())
	})
})
