package user

import (
	"context"
	"net/http"
	"strings"

	"github.com/frahmantamala/separation-management/internal"
	"github.com/frahmantamala/separation-management/internal/auth"
	"github.com/frahmantamala/separation-management/internal/core/common/pagination"
	"github.com/frahmantamala/separation-management/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context, filter Filter, page pagination.Params) (pagination.Page[*User], error)
	GetByID(ctx context.Context, id int64) (*User, error)
	Create(ctx context.Context, actor *auth.Actor, dto CreateUserDTO) (*User, error)
	Update(ctx context.Context, actor *auth.Actor, id int64, dto UpdateUserDTO) (*User, error)
	Deactivate(ctx context.Context, actor *auth.Actor, id int64) error
	OrgChart(ctx context.Context) ([]*OrgNode, error)
}

type Handler struct {
	*transport.BaseHandler
	Service        ServiceAPI
	defaultPerPage int
	maxPerPage     int
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI, defaultPerPage, maxPerPage int) *Handler {
	return &Handler{
		BaseHandler:    baseHandler,
		Service:        service,
		defaultPerPage: defaultPerPage,
		maxPerPage:     maxPerPage,
	}
}

// GetCurrentUser handles GET /users/me
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.RequireActor(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	u, err := h.Service.GetByID(r.Context(), actor.ID)
	if err != nil {
		h.Logger.Error("GetCurrentUser: failed to load user", "user_id", actor.ID, "error", err)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := h.parseFilter(r)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	page, err := h.Service.List(r.Context(), filter, h.Pagination(r, h.defaultPerPage, h.maxPerPage))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	u, err := h.Service.GetByID(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) OrgChart(w http.ResponseWriter, r *http.Request) {
	chart, err := h.Service.OrgChart(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, chart)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.RequireActor(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto CreateUserDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	u, err := h.Service.Create(r.Context(), actor, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, u)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.RequireActor(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	id, err := h.PathID(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto UpdateUserDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	u, err := h.Service.Update(r.Context(), actor, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.RequireActor(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	id, err := h.PathID(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if err := h.Service.Deactivate(r.Context(), actor, id); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) parseFilter(r *http.Request) (Filter, error) {
	var filter Filter
	q := r.URL.Query()

	if raw := q.Get("role"); raw != "" {
		role := auth.Role(raw)
		if !role.Valid() {
			return filter, internal.NewValidationFieldError("role", "role must be one of: "+strings.Join(auth.RoleNames(), ", "), internal.ErrCodeInvalidValue)
		}
		filter.Role = &role
	}

	departmentID, err := h.QueryInt64(r, "department_id")
	if err != nil {
		return filter, err
	}
	filter.DepartmentID = departmentID

	active, err := h.QueryBool(r, "is_active")
	if err != nil {
		return filter, err
	}
	filter.IsActive = active
	filter.Search = strings.TrimSpace(q.Get("q"))
	return filter, nil
}
