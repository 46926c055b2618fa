package middleware_test

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/frahmantamala/separation-management/internal"
	"github.com/frahmantamala/separation-management/internal/transport/middleware"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const testSpec = `
openapi: 3.0.3
info:
  title: test
  version: "1"
paths:
  /api/v1/separations/{id}/cancel:
    post:
      parameters:
        - name: id
          in: path
          required: true
          schema:
            type: integer
            minimum: 1
      requestBody:
        required: true
        content:
          application/json:
            schema:
              type: object
              required: [reason]
              properties:
                reason:
                  type: string
                  minLength: 1
      responses:
        "200":
          description: ok
`

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
})

var _ = Describe("Middleware", func() {
	var (
		buf     *bytes.Buffer
		slogger *slog.Logger
	)

	BeforeEach(func() {
		buf = &bytes.Buffer{}
		slogger = slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	})

	Describe("TraceID", func() {
		It("propagates an inbound trace id", func() {
			var seen string
			h := middleware.TraceID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = internal.TraceIDFromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(middleware.TraceIDHeader, "trace-123")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			Expect(seen).To(Equal("trace-123"))
			Expect(rec.Header().Get(middleware.TraceIDHeader)).To(Equal("trace-123"))
		})

		It("generates one when missing", func() {
			rec := httptest.NewRecorder()
			middleware.TraceID(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			Expect(rec.Header().Get(middleware.TraceIDHeader)).To(HaveLen(36))
		})
	})

	Describe("Recovery", func() {
		It("turns a panic into a 500 without leaking the panic value", func() {
			h := middleware.Recovery(slogger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
				panic("database password is hunter2")
			}))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			Expect(rec.Code).To(Equal(http.StatusInternalServerError))
			Expect(rec.Body.String()).To(ContainSubstring("internal server error"))
			Expect(rec.Body.String()).NotTo(ContainSubstring("hunter2"))
			Expect(buf.String()).To(ContainSubstring("panic recovered"))
		})
	})

	Describe("Logging", func() {
		It("redacts credentials from headers and bodies", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
				strings.NewReader(`{"email":"a@example.com","password":"hunter2","nested":{"refresh_token":"abc"}}`))
			req.Header.Set("Authorization", "Bearer secret-token")
			rec := httptest.NewRecorder()

			var body string
			middleware.Logging(slogger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				b := new(bytes.Buffer)
				_, _ = b.ReadFrom(r.Body)
				body = b.String()
				w.WriteHeader(http.StatusUnauthorized)
			})).ServeHTTP(rec, req)

			Expect(body).To(ContainSubstring("hunter2"))
			logged := buf.String()
			Expect(logged).NotTo(ContainSubstring("hunter2"))
			Expect(logged).NotTo(ContainSubstring("secret-token"))
			Expect(logged).NotTo(ContainSubstring(`"abc"`))
			Expect(logged).To(ContainSubstring("a@example.com"))
			Expect(logged).To(ContainSubstring(`"level":"WARN"`))
		})
	})

	Describe("CORS", func() {
		It("answers preflight requests for allowed origins", func() {
			h := middleware.CORS([]string{"https://hr.example.com"})(ok)
			req := httptest.NewRequest(http.MethodOptions, "/api/v1/separations", nil)
			req.Header.Set("Origin", "https://hr.example.com")
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusNoContent))
			Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(Equal("https://hr.example.com"))
		})

		It("does not grant unknown origins", func() {
			h := middleware.CORS([]string{"https://hr.example.com"})(ok)
			req := httptest.NewRequest(http.MethodGet, "/api/v1/separations", nil)
			req.Header.Set("Origin", "https://evil.example.com")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(BeEmpty())
		})
	})

	Describe("OpenAPIValidator", func() {
		var router *chi.Mux

		BeforeEach(func() {
			loader := openapi3.NewLoader()
			doc, err := loader.LoadFromData([]byte(testSpec))
			Expect(err).NotTo(HaveOccurred())
			Expect(doc.Validate(context.Background())).To(Succeed())

			validate, err := middleware.OpenAPIValidator(doc, slogger)
			Expect(err).NotTo(HaveOccurred())

			router = chi.NewRouter()
			router.Use(validate)
			router.Post("/api/v1/separations/{id}/cancel", ok)
			router.Get("/api/v1/ping", ok)
		})

		DescribeTable("request checking",
			func(path, body string, expected int) {
				req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
				req.Header.Set("Content-Type", "application/json")
				rec := httptest.NewRecorder()
				router.ServeHTTP(rec, req)
				Expect(rec.Code).To(Equal(expected))
			},
			Entry("valid request", "/api/v1/separations/4/cancel", `{"reason":"withdrawn"}`, http.StatusOK),
			Entry("missing required field", "/api/v1/separations/4/cancel", `{}`, http.StatusBadRequest),
			Entry("non numeric path id", "/api/v1/separations/abc/cancel", `{"reason":"x"}`, http.StatusBadRequest),
		)

		It("passes undocumented routes through", func() {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))
			Expect(rec.Code).To(Equal(http.StatusOK))
		})
	})
})
