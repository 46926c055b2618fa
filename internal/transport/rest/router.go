package rest

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/separation-management/internal/auth"
	"github.com/frahmantamala/separation-management/internal/department"
	"github.com/frahmantamala/separation-management/internal/handover"
	"github.com/frahmantamala/separation-management/internal/realtime"
	"github.com/frahmantamala/separation-management/internal/report"
	"github.com/frahmantamala/separation-management/internal/separation"
	"github.com/frahmantamala/separation-management/internal/template"
	"github.com/frahmantamala/separation-management/internal/transport/middleware"
	"github.com/frahmantamala/separation-management/internal/transport/swagger"
	"github.com/frahmantamala/separation-management/internal/user"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

type Handlers struct {
	Health     *HealthHandler
	Auth       *auth.Handler
	RBAC       *auth.RBACAuthorization
	User       *user.Handler
	Department *department.Handler
	Template   *template.Handler
	Separation *separation.Handler
	Handover   *handover.Handler
	Report     *report.Handler
	Stream     *realtime.Handler
}

type Options struct {
	AllowedOrigins []string
	SpecPath       string
	// Validator, when set, checks /api/v1 requests against the OpenAPI document.
	Validator func(http.Handler) http.Handler
	Logger    *slog.Logger
}

func RegisterAllRoutes(router chi.Router, h Handlers, opts Options) {
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.TraceID)
	router.Use(middleware.Recovery(opts.Logger))
	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(middleware.Logging(opts.Logger))

	specPath := opts.SpecPath
	if specPath == "" {
		specPath = "./api/openapi.yml"
	}
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, specPath)
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		if opts.Validator != nil {
			r.Use(opts.Validator)
		}

		r.Get("/health", h.Health.Health)
		r.Get("/ping", h.Health.Ping)

		r.Route("/auth", func(ar chi.Router) {
			ar.Post("/login", h.Auth.Login)
			ar.Post("/refresh", h.Auth.RefreshToken)
			ar.Post("/logout", h.Auth.Logout)

			ar.Group(func(pr chi.Router) {
				pr.Use(h.Auth.AuthMiddleware)
				pr.Get("/me", h.Auth.Me)
				pr.Put("/profile", h.Auth.UpdateProfile)
				pr.Post("/change-password", h.Auth.ChangePassword)
			})
		})

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			pr.Route("/users", func(ur chi.Router) {
				ur.Get("/me", h.User.GetCurrentUser)
				ur.Get("/org-chart", h.User.OrgChart)
				ur.Get("/", h.User.List)
				ur.Get("/{id}", h.User.Get)

				ur.Group(func(mr chi.Router) {
					mr.Use(h.RBAC.RequireSeparationManager())
					mr.Post("/", h.User.Create)
					mr.Put("/{id}", h.User.Update)
					mr.Delete("/{id}", h.User.Deactivate)
				})
			})

			pr.Route("/departments", func(dr chi.Router) {
				dr.Get("/", h.Department.List)
				dr.Post("/", h.Department.Create)
				dr.Get("/{id}", h.Department.Get)
				dr.Put("/{id}", h.Department.Update)
				dr.Delete("/{id}", h.Department.Delete)
			})

			pr.Route("/templates", func(tr chi.Router) {
				tr.Get("/", h.Template.List)
				tr.Post("/", h.Template.Create)
				tr.Get("/{id}", h.Template.Get)
				tr.Put("/{id}", h.Template.Update)
				tr.Delete("/{id}", h.Template.Delete)
			})

			pr.Route("/separations", func(sr chi.Router) {
				sr.Post("/", h.Separation.CreateCase)
				sr.Get("/", h.Separation.ListCases)
				sr.Get("/{id}", h.Separation.GetCase)
				sr.Put("/{id}", h.Separation.UpdateCase)
				sr.Post("/{id}/submit", h.Separation.SubmitChecklist)
				sr.Post("/{id}/cancel", h.Separation.CancelCase)
				sr.Post("/{id}/complete", h.Separation.CompleteCase)
				sr.Get("/{id}/checklist", h.Separation.ListChecklist)
				sr.Post("/{id}/signoffs", h.Separation.AssignSignOff)
				sr.Get("/{id}/signoffs", h.Separation.ListSignOffs)
				sr.Post("/{id}/handovers", h.Handover.Create)
				sr.Get("/{id}/handovers", h.Handover.ListByCase)
				sr.Get("/{id}/stream", h.Stream.Stream)
			})

			pr.Route("/checklist-items/{id}", func(cr chi.Router) {
				cr.Patch("/", h.Separation.ToggleChecklistItem)
				cr.Patch("/notes", h.Separation.AnnotateChecklistItem)
			})

			pr.Route("/signoffs", func(sr chi.Router) {
				sr.With(h.RBAC.RequireManager()).Get("/pending", h.Separation.ListPendingSignOffs)
				sr.Post("/{id}/resolve", h.Separation.ResolveSignOff)
				sr.Patch("/{id}/comments", h.Separation.AmendSignOffComments)
			})

			pr.Route("/handovers/{id}", func(hr chi.Router) {
				hr.Get("/", h.Handover.Get)
				hr.Put("/", h.Handover.Update)
				hr.Delete("/", h.Handover.Delete)
			})

			pr.Get("/dashboard", h.Report.Dashboard)
		})
	})
}
