package actions

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mindfoldhq/mindfold/internal/domain"
	"github.com/mindfoldhq/mindfold/internal/service"
)

// KnowledgeWriter is the slice of KnowledgeService the knowledge-facing
// handlers need.
type KnowledgeWriter interface {
	Ingest(ctx context.Context, input service.IngestInput) (*domain.KnowledgeItem, error)
	ReplaceItem(ctx context.Context, ownerID, itemID, title, content string) (*domain.KnowledgeItem, error)
}

// AddNotePayload is the typed payload of an add_note action.
type AddNotePayload struct {
	DomainID string   `json:"domain_id"`
	Title    string   `json:"title,omitempty"`
	Content  string   `json:"content"`
	Tags     []string `json:"tags,omitempty"`
}

// AddNoteHandler ingests a note into a domain through the regular
// ingestion path, embedding included.
type AddNoteHandler struct {
	knowledge KnowledgeWriter
}

func NewAddNoteHandler(knowledge KnowledgeWriter) *AddNoteHandler {
	return &AddNoteHandler{knowledge: knowledge}
}

func (h *AddNoteHandler) Handle(ctx context.Context, ownerID string, payload json.RawMessage) (json.RawMessage, error) {
	var p AddNotePayload
	if err := decodePayload(payload, &p); err != nil {
		return nil, err
	}
	if p.DomainID == "" {
		return nil, fmt.Errorf("add_note: domain_id is required")
	}
	if strings.TrimSpace(p.Content) == "" {
		return nil, fmt.Errorf("add_note: content is required")
	}

	item, err := h.knowledge.Ingest(ctx, service.IngestInput{
		OwnerID:     ownerID,
		DomainID:    p.DomainID,
		Title:       p.Title,
		Content:     p.Content,
		ContentType: domain.ContentTypeNote,
		Tags:        p.Tags,
	})
	if err != nil {
		return nil, err
	}

	return json.Marshal(map[string]string{"knowledge_id": item.ID})
}

// UpdateKnowledgePayload is the typed payload of an update_knowledge action.
type UpdateKnowledgePayload struct {
	KnowledgeID string `json:"knowledge_id"`
	Title       string `json:"title,omitempty"`
	Content     string `json:"content"`
}

// UpdateKnowledgeHandler supersedes an item with re-embedded content.
type UpdateKnowledgeHandler struct {
	knowledge KnowledgeWriter
}

func NewUpdateKnowledgeHandler(knowledge KnowledgeWriter) *UpdateKnowledgeHandler {
	return &UpdateKnowledgeHandler{knowledge: knowledge}
}

func (h *UpdateKnowledgeHandler) Handle(ctx context.Context, ownerID string, payload json.RawMessage) (json.RawMessage, error) {
	var p UpdateKnowledgePayload
	if err := decodePayload(payload, &p); err != nil {
		return nil, err
	}
	if p.KnowledgeID == "" {
		return nil, fmt.Errorf("update_knowledge: knowledge_id is required")
	}
	if strings.TrimSpace(p.Content) == "" {
		return nil, fmt.Errorf("update_knowledge: content is required")
	}

	item, err := h.knowledge.ReplaceItem(ctx, ownerID, p.KnowledgeID, p.Title, p.Content)
	if err != nil {
		return nil, err
	}

	return json.Marshal(map[string]string{
		"knowledge_id": item.ID,
		"replaced_id":  p.KnowledgeID,
	})
}
