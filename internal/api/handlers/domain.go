package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mindfoldhq/mindfold/internal/api"
	"github.com/mindfoldhq/mindfold/internal/api/middleware"
	"github.com/mindfoldhq/mindfold/internal/domain"
	"github.com/mindfoldhq/mindfold/internal/service"
)

type DomainService interface {
	CreateDomain(ctx context.Context, input service.CreateDomainInput) (*domain.BrainDomain, error)
	GetDomain(ctx context.Context, ownerID, domainID string) (*domain.BrainDomain, error)
	ListDomains(ctx context.Context, ownerID string) ([]*domain.BrainDomain, error)
	UpdateDomain(ctx context.Context, ownerID, domainID string, input service.UpdateDomainInput) (*domain.BrainDomain, error)
	DeleteDomain(ctx context.Context, ownerID, domainID string) error
}

type DomainHandler struct {
	svc DomainService
}

func NewDomainHandler(svc DomainService) *DomainHandler {
	return &DomainHandler{svc: svc}
}

type CreateDomainRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
}

type UpdateDomainRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
	Icon        *string `json:"icon"`
}

type DomainResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
	Icon        string `json:"icon,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func domainToResponse(d *domain.BrainDomain) *DomainResponse {
	return &DomainResponse{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Color:       d.Color,
		Icon:        d.Icon,
		CreatedAt:   d.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   d.UpdatedAt.Format(time.RFC3339),
	}
}

func (h *DomainHandler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	if ownerID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateDomainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		api.Error(w, http.StatusBadRequest, "name is required")
		return
	}

	d, err := h.svc.CreateDomain(r.Context(), service.CreateDomainInput{
		OwnerID:     ownerID,
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
		Icon:        req.Icon,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, domainToResponse(d))
}

func (h *DomainHandler) Get(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	d, err := h.svc.GetDomain(r.Context(), ownerID, id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, domainToResponse(d))
}

func (h *DomainHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())

	domains, err := h.svc.ListDomains(r.Context(), ownerID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*DomainResponse, 0, len(domains))
	for _, d := range domains {
		responses = append(responses, domainToResponse(d))
	}

	api.Success(w, http.StatusOK, responses)
}

func (h *DomainHandler) Update(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	var req UpdateDomainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	d, err := h.svc.UpdateDomain(r.Context(), ownerID, id, service.UpdateDomainInput{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
		Icon:        req.Icon,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, domainToResponse(d))
}

func (h *DomainHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := h.svc.DeleteDomain(r.Context(), ownerID, id); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}
