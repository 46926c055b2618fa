package rest_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/frahmantamala/separation-management/internal/auth"
	"github.com/frahmantamala/separation-management/internal/transport"
	"github.com/frahmantamala/separation-management/internal/transport/rest"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

var _ = Describe("Router", func() {
	var (
		router *chi.Mux
		db     *fakePinger
	)

	BeforeEach(func() {
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		base := transport.NewBaseHandler(slogger)
		db = &fakePinger{}

		router = chi.NewRouter()
		rest.RegisterAllRoutes(router, rest.Handlers{
			Health: rest.NewHealthHandler(base, map[string]rest.Pinger{"postgres": db}),
			Auth:   auth.NewHandler(nil),
			RBAC:   auth.NewRBACAuthorization(slogger),
		}, rest.Options{Logger: slogger})
	})

	serve := func(method, path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
		return rec
	}

	It("answers liveness without a token", func() {
		rec := serve(http.MethodGet, "/api/v1/ping")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Header().Get("X-Trace-ID")).NotTo(BeEmpty())
	})

	It("reports readiness from the database", func() {
		Expect(serve(http.MethodGet, "/api/v1/health").Code).To(Equal(http.StatusOK))

		db.err = errors.New("connection refused")
		rec := serve(http.MethodGet, "/api/v1/health")
		Expect(rec.Code).To(Equal(http.StatusServiceUnavailable))
		Expect(rec.Body.String()).To(ContainSubstring("connection refused"))
	})

	DescribeTable("protected routes require a bearer token",
		func(method, path string) {
			rec := serve(method, path)
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
			Expect(rec.Body.String()).To(ContainSubstring("MISSING_TOKEN"))
		},
		Entry("current actor", http.MethodGet, "/api/v1/auth/me"),
		Entry("profile update", http.MethodPut, "/api/v1/auth/profile"),
		Entry("password change", http.MethodPost, "/api/v1/auth/change-password"),
		Entry("dashboard", http.MethodGet, "/api/v1/dashboard"),
		Entry("case list", http.MethodGet, "/api/v1/separations"),
		Entry("pending sign-offs", http.MethodGet, "/api/v1/signoffs/pending"),
		Entry("checklist toggle", http.MethodPatch, "/api/v1/checklist-items/3"),
		Entry("handover", http.MethodDelete, "/api/v1/handovers/3"),
		Entry("case stream", http.MethodGet, "/api/v1/separations/3/stream"),
	)
})
