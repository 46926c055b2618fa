package auth

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/separation-management/internal"
	"github.com/frahmantamala/separation-management/internal/transport"
)

// RBACAuthorization guards routes whose access does not depend on a specific resource.
type RBACAuthorization struct {
	*transport.BaseHandler
}

func NewRBACAuthorization(logger *slog.Logger) *RBACAuthorization {
	return &RBACAuthorization{BaseHandler: transport.NewBaseHandler(logger)}
}

// Require checks action against an empty resource, which only role-based rules can satisfy.
func (ra *RBACAuthorization) Require(action Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFromContext(r.Context())
			if !ok {
				ra.Logger.Warn("authorization check failed: actor not found in context")
				ra.HandleServiceError(w, internal.ErrMissingToken)
				return
			}

			if err := Authorize(actor, action, Resource{}); err != nil {
				ra.Logger.WarnContext(r.Context(), "access denied",
					"actor_id", actor.ID,
					"role", actor.Role,
					"action", action)
				ra.HandleServiceError(w, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (ra *RBACAuthorization) RequireSeparationManager() func(http.Handler) http.Handler {
	return ra.Require(ActionDirectoryManage)
}

func (ra *RBACAuthorization) RequireManager() func(http.Handler) http.Handler {
	return ra.Require(ActionSignOffListPending)
}
