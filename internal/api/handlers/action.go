package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mindfoldhq/mindfold/internal/api"
	"github.com/mindfoldhq/mindfold/internal/api/middleware"
	"github.com/mindfoldhq/mindfold/internal/domain"
	"github.com/mindfoldhq/mindfold/internal/service"
)

type ActionService interface {
	Queue(ctx context.Context, ownerID string, actionType domain.ActionType, payload json.RawMessage) (*domain.Action, error)
	Get(ctx context.Context, ownerID, actionID string) (*domain.Action, error)
	ExecutePending(ctx context.Context, ownerID string, limit int) (*service.ExecutionReport, error)
	Cancel(ctx context.Context, ownerID, actionID string) error
	History(ctx context.Context, ownerID string, filter service.ActionHistoryFilter) (*service.ActionHistoryOutput, error)
}

type ActionHandler struct {
	svc ActionService
}

func NewActionHandler(svc ActionService) *ActionHandler {
	return &ActionHandler{svc: svc}
}

type QueueActionRequest struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type ExecuteRequest struct {
	Limit int `json:"limit,omitempty"`
}

type ActionResponse struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Status      string          `json:"status"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
	ErrorLog    string          `json:"error_log,omitempty"`
	CreatedAt   string          `json:"created_at"`
	StartedAt   string          `json:"started_at,omitempty"`
	CompletedAt string          `json:"completed_at,omitempty"`
}

func actionToResponse(a *domain.Action) *ActionResponse {
	resp := &ActionResponse{
		ID:        a.ID,
		Type:      string(a.Type),
		Status:    string(a.Status),
		Payload:   a.Payload,
		Result:    a.Result,
		ErrorLog:  a.ErrorLog,
		CreatedAt: a.CreatedAt.Format(time.RFC3339),
	}
	if a.StartedAt != nil {
		resp.StartedAt = a.StartedAt.Format(time.RFC3339)
	}
	if a.CompletedAt != nil {
		resp.CompletedAt = a.CompletedAt.Format(time.RFC3339)
	}
	return resp
}

func (h *ActionHandler) Queue(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	if ownerID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req QueueActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Type == "" {
		api.Error(w, http.StatusBadRequest, "type is required")
		return
	}

	action, err := h.svc.Queue(r.Context(), ownerID, domain.ActionType(req.Type), req.Payload)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, actionToResponse(action))
}

func (h *ActionHandler) Get(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	action, err := h.svc.Get(r.Context(), ownerID, id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, actionToResponse(action))
}

// Execute drains the owner's pending queue. The body is optional; an
// absent or zero limit executes everything that is pending.
func (h *ActionHandler) Execute(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	if ownerID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req ExecuteRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.Error(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	report, err := h.svc.ExecutePending(r.Context(), ownerID, req.Limit)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*ActionResponse, 0, len(report.Actions))
	for _, a := range report.Actions {
		responses = append(responses, actionToResponse(a))
	}

	api.Success(w, http.StatusOK, map[string]interface{}{
		"executed":  report.Executed,
		"succeeded": report.Succeeded,
		"failed":    report.Failed,
		"actions":   responses,
	})
}

func (h *ActionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := h.svc.Cancel(r.Context(), ownerID, id); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, map[string]string{"id": id, "status": string(domain.ActionStatusCancelled)})
}

func (h *ActionHandler) History(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			api.Error(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	out, err := h.svc.History(r.Context(), ownerID, service.ActionHistoryFilter{
		Status: domain.ActionStatus(r.URL.Query().Get("status")),
		Type:   domain.ActionType(r.URL.Query().Get("type")),
		Cursor: r.URL.Query().Get("cursor"),
		Limit:  limit,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*ActionResponse, 0, len(out.Actions))
	for _, a := range out.Actions {
		responses = append(responses, actionToResponse(a))
	}

	api.Success(w, http.StatusOK, map[string]interface{}{
		"items":    responses,
		"cursor":   out.Cursor,
		"has_more": out.HasMore,
	})
}
