package separation

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
	CreateCase(ctx context.Context, actor *auth.Actor, dto CreateCaseDTO) (*Case, error)
	GetCase(ctx context.Context, actor *auth.Actor, id int64) (*Case, error)
	ListCases(ctx context.Context, actor *auth.Actor, filter ListFilter, page pagination.Params) (pagination.Page[*Case], error)
	UpdateCase(ctx context.Context, actor *auth.Actor, id int64, dto UpdateCaseDTO) (*Case, error)
	SubmitChecklist(ctx context.Context, actor *auth.Actor, caseID int64) (*Case, error)
	CancelCase(ctx context.Context, actor *auth.Actor, caseID int64, dto CancelCaseDTO) (*Case, error)
	CompleteCase(ctx context.Context, actor *auth.Actor, caseID int64, dto CompleteCaseDTO) (*Case, error)

	ListChecklist(ctx context.Context, actor *auth.Actor, caseID int64) ([]*ChecklistItem, error)
	ToggleChecklistItem(ctx context.Context, actor *auth.Actor, itemID int64, dto ToggleChecklistItemDTO) (*ChecklistItem, error)
	AnnotateChecklistItem(ctx context.Context, actor *auth.Actor, itemID int64, dto AnnotateChecklistItemDTO) (*ChecklistItem, error)

	AssignSignOff(ctx context.Context, actor *auth.Actor, caseID int64, dto AssignSignOffDTO) (*SignOff, error)
	ListSignOffs(ctx context.Context, actor *auth.Actor, caseID int64) ([]*SignOff, error)
	ListPendingSignOffs(ctx context.Context, actor *auth.Actor) ([]*PendingSignOff, error)
	ResolveSignOff(ctx context.Context, actor *auth.Actor, signOffID int64, dto ResolveSignOffDTO) (*SignOff, error)
	AmendSignOffComments(ctx context.Context, actor *auth.Actor, signOffID int64, dto AmendCommentsDTO) (*SignOff, error)
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

// actorAndID resolves the caller and the numeric path parameter shared by most routes.
func (h *Handler) actorAndID(r *http.Request, param string) (*auth.Actor, int64, error) {
	actor, err := auth.RequireActor(r.Context())
	if err != nil {
		return nil, 0, err
	}
	id, err := h.PathID(r, param)
	if err != nil {
		return nil, 0, err
	}
	return actor, id, nil
}

// CreateCase handles POST /separations
func (h *Handler) CreateCase(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.RequireActor(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto CreateCaseDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	c, err := h.Service.CreateCase(r.Context(), actor, dto)
	if err != nil {
		h.Logger.Warn("CreateCase: failed", "actor_id", actor.ID, "error", err)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, c)
}

// ListCases handles GET /separations
func (h *Handler) ListCases(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.RequireActor(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	filter, err := h.parseFilter(r)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	page, err := h.Service.ListCases(r.Context(), actor, filter, h.Pagination(r, h.defaultPerPage, h.maxPerPage))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) GetCase(w http.ResponseWriter, r *http.Request) {
	actor, id, err := h.actorAndID(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	c, err := h.Service.GetCase(r.Context(), actor, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) UpdateCase(w http.ResponseWriter, r *http.Request) {
	actor, id, err := h.actorAndID(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto UpdateCaseDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	c, err := h.Service.UpdateCase(r.Context(), actor, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, c)
}

// SubmitChecklist handles POST /separations/{id}/submit
func (h *Handler) SubmitChecklist(w http.ResponseWriter, r *http.Request) {
	actor, id, err := h.actorAndID(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	c, err := h.Service.SubmitChecklist(r.Context(), actor, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) CancelCase(w http.ResponseWriter, r *http.Request) {
	actor, id, err := h.actorAndID(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto CancelCaseDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	c, err := h.Service.CancelCase(r.Context(), actor, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) CompleteCase(w http.ResponseWriter, r *http.Request) {
	actor, id, err := h.actorAndID(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto CompleteCaseDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	c, err := h.Service.CompleteCase(r.Context(), actor, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, c)
}

// ListChecklist handles GET /separations/{id}/checklist
func (h *Handler) ListChecklist(w http.ResponseWriter, r *http.Request) {
	actor, id, err := h.actorAndID(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	items, err := h.Service.ListChecklist(r.Context(), actor, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, items)
}

// ToggleChecklistItem handles PATCH /checklist-items/{id}
func (h *Handler) ToggleChecklistItem(w http.ResponseWriter, r *http.Request) {
	actor, id, err := h.actorAndID(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto ToggleChecklistItemDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	item, err := h.Service.ToggleChecklistItem(r.Context(), actor, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, item)
}

// AnnotateChecklistItem handles PATCH /checklist-items/{id}/notes
func (h *Handler) AnnotateChecklistItem(w http.ResponseWriter, r *http.Request) {
	actor, id, err := h.actorAndID(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto AnnotateChecklistItemDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	item, err := h.Service.AnnotateChecklistItem(r.Context(), actor, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, item)
}

// AssignSignOff handles POST /separations/{id}/signoffs
func (h *Handler) AssignSignOff(w http.ResponseWriter, r *http.Request) {
	actor, id, err := h.actorAndID(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto AssignSignOffDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	s, err := h.Service.AssignSignOff(r.Context(), actor, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, s)
}

func (h *Handler) ListSignOffs(w http.ResponseWriter, r *http.Request) {
	actor, id, err := h.actorAndID(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	signOffs, err := h.Service.ListSignOffs(r.Context(), actor, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, signOffs)
}

// ListPendingSignOffs handles GET /signoffs/pending
func (h *Handler) ListPendingSignOffs(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.RequireActor(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	pending, err := h.Service.ListPendingSignOffs(r.Context(), actor)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, pending)
}

// ResolveSignOff handles POST /signoffs/{id}/resolve
func (h *Handler) ResolveSignOff(w http.ResponseWriter, r *http.Request) {
	actor, id, err := h.actorAndID(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto ResolveSignOffDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	s, err := h.Service.ResolveSignOff(r.Context(), actor, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, s)
}

// AmendSignOffComments handles PATCH /signoffs/{id}/comments
func (h *Handler) AmendSignOffComments(w http.ResponseWriter, r *http.Request) {
	actor, id, err := h.actorAndID(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto AmendCommentsDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	s, err := h.Service.AmendSignOffComments(r.Context(), actor, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, s)
}

func (h *Handler) parseFilter(r *http.Request) (ListFilter, error) {
	var filter ListFilter

	if raw := r.URL.Query().Get("status"); raw != "" {
		status := Status(raw)
		if !status.Valid() {
			return filter, internal.NewValidationFieldError("status", "status must be one of: "+strings.Join(StatusNames(), ", "), internal.ErrCodeInvalidValue)
		}
		filter.Status = &status
	}

	employeeID, err := h.QueryInt64(r, "employee_id")
	if err != nil {
		return filter, err
	}
	filter.EmployeeID = employeeID
	return filter, nil
}
