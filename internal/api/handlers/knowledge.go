package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mindfoldhq/mindfold/internal/api"
	"github.com/mindfoldhq/mindfold/internal/api/middleware"
	"github.com/mindfoldhq/mindfold/internal/domain"
	"github.com/mindfoldhq/mindfold/internal/service"
)

// maxAttachmentBytes caps a single source-file upload.
const maxAttachmentBytes = 32 << 20

type KnowledgeService interface {
	Ingest(ctx context.Context, input service.IngestInput) (*domain.KnowledgeItem, error)
	GetItem(ctx context.Context, ownerID, itemID string) (*domain.KnowledgeItem, error)
	ListByDomain(ctx context.Context, ownerID, domainID string) ([]*domain.KnowledgeItem, error)
	DeleteItem(ctx context.Context, ownerID, itemID string) error
	AttachSource(ctx context.Context, ownerID, itemID, filename, contentType string, body io.Reader) (string, error)
}

type KnowledgeHandler struct {
	svc KnowledgeService
}

func NewKnowledgeHandler(svc KnowledgeService) *KnowledgeHandler {
	return &KnowledgeHandler{svc: svc}
}

type IngestRequest struct {
	DomainID    string   `json:"domain_id"`
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	ContentType string   `json:"content_type"`
	Tags        []string `json:"tags"`
	SourceURL   string   `json:"source_url"`
}

type KnowledgeItemResponse struct {
	ID          string   `json:"id"`
	DomainID    string   `json:"domain_id"`
	Title       string   `json:"title,omitempty"`
	Content     string   `json:"content"`
	ContentType string   `json:"content_type"`
	Tags        []string `json:"tags,omitempty"`
	SourceURL   string   `json:"source_url,omitempty"`
	SourceFile  string   `json:"source_file,omitempty"`
	CreatedAt   string   `json:"created_at"`
}

func knowledgeItemToResponse(k *domain.KnowledgeItem) *KnowledgeItemResponse {
	return &KnowledgeItemResponse{
		ID:          k.ID,
		DomainID:    k.DomainID,
		Title:       k.Title,
		Content:     k.Content,
		ContentType: string(k.ContentType),
		Tags:        k.Tags,
		SourceURL:   k.SourceURL,
		SourceFile:  k.SourceFile,
		CreatedAt:   k.CreatedAt.Format(time.RFC3339),
	}
}

func (h *KnowledgeHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	if ownerID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.DomainID == "" {
		api.Error(w, http.StatusBadRequest, "domain_id is required")
		return
	}
	if req.Content == "" {
		api.Error(w, http.StatusBadRequest, "content is required")
		return
	}

	item, err := h.svc.Ingest(r.Context(), service.IngestInput{
		OwnerID:     ownerID,
		DomainID:    req.DomainID,
		Title:       req.Title,
		Content:     req.Content,
		ContentType: domain.ContentType(req.ContentType),
		Tags:        req.Tags,
		SourceURL:   req.SourceURL,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, knowledgeItemToResponse(item))
}

func (h *KnowledgeHandler) Get(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	item, err := h.svc.GetItem(r.Context(), ownerID, id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, knowledgeItemToResponse(item))
}

func (h *KnowledgeHandler) ListByDomain(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	domainID := r.URL.Query().Get("domain_id")
	if domainID == "" {
		api.Error(w, http.StatusBadRequest, "domain_id is required")
		return
	}

	items, err := h.svc.ListByDomain(r.Context(), ownerID, domainID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*KnowledgeItemResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, knowledgeItemToResponse(item))
	}

	api.Success(w, http.StatusOK, responses)
}

func (h *KnowledgeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := h.svc.DeleteItem(r.Context(), ownerID, id); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

// AttachSource accepts a multipart upload and stores it as the item's
// source file.
func (h *KnowledgeHandler) AttachSource(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := r.ParseMultipartForm(maxAttachmentBytes); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	key, err := h.svc.AttachSource(r.Context(), ownerID, id, header.Filename,
		header.Header.Get("Content-Type"), file)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, map[string]string{"id": id, "source_file": key})
}
