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
)

type AuthService interface {
	CreateOwner(ctx context.Context, name string) (*domain.Owner, error)
	ListOwners(ctx context.Context) ([]*domain.Owner, error)
	CreateAPIKey(ctx context.Context, ownerID, name string) (string, error)
	ListAPIKeys(ctx context.Context, ownerID string) ([]*domain.APIKey, error)
	RevokeAPIKey(ctx context.Context, keyID string) error
}

type AuthHandler struct {
	svc AuthService
}

func NewAuthHandler(svc AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

type CreateOwnerRequest struct {
	Name string `json:"name"`
}

type OwnerResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

type CreateAPIKeyRequest struct {
	Name string `json:"name"`
}

type APIKeyResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
	RevokedAt string `json:"revoked_at,omitempty"`
}

func ownerToResponse(o *domain.Owner) *OwnerResponse {
	return &OwnerResponse{
		ID:        o.ID,
		Name:      o.Name,
		CreatedAt: o.CreatedAt.Format(time.RFC3339),
	}
}

func apiKeyToResponse(k *domain.APIKey) *APIKeyResponse {
	resp := &APIKeyResponse{
		ID:        k.ID,
		Name:      k.Name,
		CreatedAt: k.CreatedAt.Format(time.RFC3339),
	}
	if k.RevokedAt != nil {
		resp.RevokedAt = k.RevokedAt.Format(time.RFC3339)
	}
	return resp
}

func (h *AuthHandler) CreateOwner(w http.ResponseWriter, r *http.Request) {
	var req CreateOwnerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	owner, err := h.svc.CreateOwner(r.Context(), req.Name)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, ownerToResponse(owner))
}

func (h *AuthHandler) ListOwners(w http.ResponseWriter, r *http.Request) {
	owners, err := h.svc.ListOwners(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*OwnerResponse, 0, len(owners))
	for _, o := range owners {
		responses = append(responses, ownerToResponse(o))
	}

	api.Success(w, http.StatusOK, responses)
}

// CreateAPIKey mints a key for the authenticated owner. The plaintext
// token appears only in this response.
func (h *AuthHandler) CreateAPIKey(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	if ownerID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateAPIKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := h.svc.CreateAPIKey(r.Context(), ownerID, req.Name)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, map[string]string{"token": token, "name": req.Name})
}

func (h *AuthHandler) ListAPIKeys(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	if ownerID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	keys, err := h.svc.ListAPIKeys(r.Context(), ownerID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*APIKeyResponse, 0, len(keys))
	for _, k := range keys {
		responses = append(responses, apiKeyToResponse(k))
	}

	api.Success(w, http.StatusOK, responses)
}

func (h *AuthHandler) RevokeAPIKey(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := h.svc.RevokeAPIKey(r.Context(), id); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, map[string]string{"id": id, "status": "revoked"})
}
