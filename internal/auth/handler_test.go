package auth_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"time"

	"github.com/frahmantamala/separation-management/internal"
	"github.com/frahmantamala/separation-management/internal/auth"
	"github.com/frahmantamala/separation-management/internal/transport"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

var _ = Describe("Auth Handler", func() {
	var (
		service *auth.Service
		handler *auth.Handler
	)

	BeforeEach(func() {
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		tokenGen := auth.NewJWTTokenGenerator("access-secret-access-secret-0123", "refresh-secret-refresh-secret-01", time.Hour, 24*time.Hour)
		service = auth.NewService(newMockAuthRepository(), tokenGen, bcrypt.MinCost, slogger)
		handler = &auth.Handler{BaseHandler: transport.NewBaseHandler(slogger), Service: service}
	})

	login := func() auth.AuthTokens {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"emp@example.com","password":"password123"}`))
		w := httptest.NewRecorder()
		handler.Login(w, req)
		Expect(w.Code).To(Equal(http.StatusOK))
		var tokens auth.AuthTokens
		Expect(json.NewDecoder(w.Body).Decode(&tokens)).To(Succeed())
		return tokens
	}

	It("returns 401 with an error body for bad credentials", func() {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"emp@example.com","password":"wrong"}`))
		w := httptest.NewRecorder()

		handler.Login(w, req)

		Expect(w.Code).To(Equal(http.StatusUnauthorized))
		var body internal.Response
		Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
		Expect(body.Error).To(Equal("invalid email or password"))
	})

	Describe("AuthMiddleware", func() {
		var reached *auth.Actor

		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reached, _ = auth.ActorFromContext(r.Context())
			w.WriteHeader(http.StatusNoContent)
		})

		BeforeEach(func() { reached = nil })

		It("rejects requests without a token", func() {
			w := httptest.NewRecorder()
			handler.AuthMiddleware(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/separations", nil))
			Expect(w.Code).To(Equal(http.StatusUnauthorized))
			Expect(reached).To(BeNil())
		})

		It("puts the actor in the request context", func() {
			tokens := login()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/separations", nil)
			req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
			w := httptest.NewRecorder()

			handler.AuthMiddleware(next).ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusNoContent))
			Expect(reached).NotTo(BeNil())
			Expect(reached.ID).To(Equal(int64(1)))
		})

		It("accepts the query token only on websocket upgrades", func() {
			tokens := login()

			plain := httptest.NewRequest(http.MethodGet, "/api/v1/separations/1/stream?access_token="+tokens.AccessToken, nil)
			w := httptest.NewRecorder()
			handler.AuthMiddleware(next).ServeHTTP(w, plain)
			Expect(w.Code).To(Equal(http.StatusUnauthorized))

			upgrade := httptest.NewRequest(http.MethodGet, "/api/v1/separations/1/stream?access_token="+tokens.AccessToken, nil)
			upgrade.Header.Set("Upgrade", "websocket")
			w = httptest.NewRecorder()
			handler.AuthMiddleware(next).ServeHTTP(w, upgrade)
			Expect(w.Code).To(Equal(http.StatusNoContent))
		})
	})

	Describe("account", func() {
		var actor *auth.Actor

		withActor := func(req *http.Request) *http.Request {
			return req.WithContext(auth.ContextWithActor(req.Context(), actor))
		}

		BeforeEach(func() {
			actor = &auth.Actor{ID: 1, Email: "emp@example.com", Role: auth.RoleEmployee, IsActive: true}
		})

		It("returns the current actor from Me", func() {
			w := httptest.NewRecorder()
			handler.Me(w, withActor(httptest.NewRequest(http.MethodGet, "/auth/me", nil)))

			Expect(w.Code).To(Equal(http.StatusOK))
			var body auth.Actor
			Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
			Expect(body.ID).To(Equal(int64(1)))
			Expect(body.Email).To(Equal("emp@example.com"))
		})

		It("answers Me with 401 when no actor is present", func() {
			w := httptest.NewRecorder()
			handler.Me(w, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
			Expect(w.Code).To(Equal(http.StatusUnauthorized))
		})

		It("changes the password with 204", func() {
			req := httptest.NewRequest(http.MethodPost, "/auth/change-password", strings.NewReader(`{"current_password":"password123","new_password":"correct-horse"}`))
			w := httptest.NewRecorder()
			handler.ChangePassword(w, withActor(req))
			Expect(w.Code).To(Equal(http.StatusNoContent))

			req = httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"emp@example.com","password":"correct-horse"}`))
			w = httptest.NewRecorder()
			handler.Login(w, req)
			Expect(w.Code).To(Equal(http.StatusOK))
		})

		It("keeps the session on a wrong current password", func() {
			req := httptest.NewRequest(http.MethodPost, "/auth/change-password", strings.NewReader(`{"current_password":"guess","new_password":"correct-horse"}`))
			w := httptest.NewRecorder()
			handler.ChangePassword(w, withActor(req))
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("updates the profile name", func() {
			req := httptest.NewRequest(http.MethodPut, "/auth/profile", strings.NewReader(`{"name":"Emma Ployee"}`))
			w := httptest.NewRecorder()
			handler.UpdateProfile(w, withActor(req))

			Expect(w.Code).To(Equal(http.StatusOK))
			var body auth.Actor
			Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
			Expect(body.Name).To(Equal("Emma Ployee"))
		})

		It("rejects unknown profile fields", func() {
			req := httptest.NewRequest(http.MethodPut, "/auth/profile", strings.NewReader(`{"role":"separation_manager"}`))
			w := httptest.NewRecorder()
			handler.UpdateProfile(w, withActor(req))
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("RBACAuthorization", func() {
		It("returns 403 for actors without the capability", func() {
			rbac := auth.NewRBACAuthorization(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})))
			guarded := rbac.RequireSeparationManager()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodPost, "/api/v1/departments", nil)
			req = req.WithContext(auth.ContextWithActor(context.Background(), &auth.Actor{ID: 1, Role: auth.RoleEmployee}))
			w := httptest.NewRecorder()
			guarded.ServeHTTP(w, req)
			Expect(w.Code).To(Equal(http.StatusForbidden))

			req = req.WithContext(auth.ContextWithActor(context.Background(), &auth.Actor{ID: 5, Role: auth.RoleSeparationManager}))
			w = httptest.NewRecorder()
			guarded.ServeHTTP(w, req)
			Expect(w.Code).To(Equal(http.StatusOK))
		})
	})
})
