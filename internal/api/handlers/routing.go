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

type RouterService interface {
	RouteQuery(ctx context.Context, ownerID, queryText string) (*service.RouteResult, error)
	PreviewRelevantDomains(ctx context.Context, ownerID, queryText string, topN int) (*service.RouteResult, error)
	RateRouting(ctx context.Context, ownerID, logID string, rating int) error
	GetRoutingLog(ctx context.Context, ownerID, logID string) (*domain.RoutingLog, error)
	History(ctx context.Context, ownerID, cursor string, limit int) (*service.RouteHistoryOutput, error)
}

type RoutingHandler struct {
	svc RouterService
}

func NewRoutingHandler(svc RouterService) *RoutingHandler {
	return &RoutingHandler{svc: svc}
}

type RouteRequest struct {
	Query string `json:"query"`
	TopN  int    `json:"top_n,omitempty"`
}

type RateRequest struct {
	Rating int `json:"rating"`
}

type RouteResponse struct {
	RoutingLogID      string                  `json:"routing_log_id,omitempty"`
	SelectedDomains   []domain.SelectedDomain `json:"selected_domains"`
	DomainScores      map[string]float64      `json:"domain_scores"`
	RoutingConfidence float64                 `json:"routing_confidence"`
}

type RoutingLogResponse struct {
	ID                string                  `json:"id"`
	QueryText         string                  `json:"query_text"`
	DomainScores      map[string]float64      `json:"domain_scores"`
	SelectedDomains   []domain.SelectedDomain `json:"selected_domains"`
	RoutingConfidence float64                 `json:"routing_confidence"`
	UserRating        *int                    `json:"user_rating,omitempty"`
	CreatedAt         string                  `json:"created_at"`
}

func routeResultToResponse(r *service.RouteResult) *RouteResponse {
	selected := r.SelectedDomains
	if selected == nil {
		selected = []domain.SelectedDomain{}
	}
	return &RouteResponse{
		RoutingLogID:      r.RoutingLogID,
		SelectedDomains:   selected,
		DomainScores:      r.DomainScores,
		RoutingConfidence: r.RoutingConfidence,
	}
}

func routingLogToResponse(l *domain.RoutingLog) *RoutingLogResponse {
	selected := l.SelectedDomains
	if selected == nil {
		selected = []domain.SelectedDomain{}
	}
	return &RoutingLogResponse{
		ID:                l.ID,
		QueryText:         l.QueryText,
		DomainScores:      l.DomainScores,
		SelectedDomains:   selected,
		RoutingConfidence: l.RoutingConfidence,
		UserRating:        l.UserRating,
		CreatedAt:         l.CreatedAt.Format(time.RFC3339),
	}
}

// Route commits a routing decision and returns it with the log ID.
func (h *RoutingHandler) Route(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	if ownerID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req RouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Query == "" {
		api.Error(w, http.StatusBadRequest, "query is required")
		return
	}

	result, err := h.svc.RouteQuery(r.Context(), ownerID, req.Query)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, routeResultToResponse(result))
}

// Preview runs the ranking without writing a routing log.
func (h *RoutingHandler) Preview(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	if ownerID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req RouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Query == "" {
		api.Error(w, http.StatusBadRequest, "query is required")
		return
	}

	result, err := h.svc.PreviewRelevantDomains(r.Context(), ownerID, req.Query, req.TopN)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, routeResultToResponse(result))
}

func (h *RoutingHandler) Rate(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	var req RateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.svc.RateRouting(r.Context(), ownerID, id, req.Rating); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, map[string]interface{}{"id": id, "rating": req.Rating})
}

func (h *RoutingHandler) Get(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	log, err := h.svc.GetRoutingLog(r.Context(), ownerID, id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, routingLogToResponse(log))
}

func (h *RoutingHandler) History(w http.ResponseWriter, r *http.Request) {
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

	out, err := h.svc.History(r.Context(), ownerID, r.URL.Query().Get("cursor"), limit)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*RoutingLogResponse, 0, len(out.Logs))
	for _, l := range out.Logs {
		responses = append(responses, routingLogToResponse(l))
	}

	api.Success(w, http.StatusOK, map[string]interface{}{
		"items":    responses,
		"cursor":   out.Cursor,
		"has_more": out.HasMore,
	})
}
