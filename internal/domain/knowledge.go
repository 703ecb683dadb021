package domain

import (
	"fmt"
	"strings"
	"time"
)

// EmbeddingDimensions is the system-wide embedding vector dimension.
// Any vector of a different length is rejected at write time, never
// truncated or padded.
const EmbeddingDimensions = 1536

// ContentType classifies an ingested piece of knowledge
type ContentType string

const (
	ContentTypeDocument     ContentType = "document"
	ContentTypeNote         ContentType = "note"
	ContentTypeConversation ContentType = "conversation"
	ContentTypeExternal     ContentType = "external"
	ContentTypeCode         ContentType = "code"
)

// KnowledgeItem represents one ingested piece of content plus its embedding.
// The embedding is immutable after creation; re-embedding requires a
// replacement item.
type KnowledgeItem struct {
	ID          string
	DomainID    string
	OwnerID     string
	Title       string
	Content     string
	ContentType ContentType
	Tags        []string
	SourceURL   string
	SourceFile  string // object key in attachment storage, if any
	Embedding   []float32
	CreatedAt   time.Time
}

// NewKnowledgeItem creates a new KnowledgeItem instance
func NewKnowledgeItem(
	id, domainID, ownerID, title, content string,
	contentType ContentType,
	tags []string,
	embedding []float32,
	createdAt time.Time,
) *KnowledgeItem {
	return &KnowledgeItem{
		ID:          id,
		DomainID:    domainID,
		OwnerID:     ownerID,
		Title:       title,
		Content:     content,
		ContentType: contentType,
		Tags:        tags,
		Embedding:   embedding,
		CreatedAt:   createdAt,
	}
}

// EmbeddingText builds the text a KnowledgeItem is embedded from.
func (k *KnowledgeItem) EmbeddingText() string {
	if k.Title == "" {
		return k.Content
	}
	return k.Title + "\n\n" + k.Content
}

// ValidateKnowledgeItem validates a KnowledgeItem instance
func ValidateKnowledgeItem(k *KnowledgeItem) error {
	if k == nil {
		return fmt.Errorf("knowledge item cannot be nil")
	}

	if k.ID == "" {
		return fmt.Errorf("knowledge item ID is required")
	}

	if k.DomainID == "" {
		return fmt.Errorf("knowledge item DomainID is required")
	}

	if k.OwnerID == "" {
		return fmt.Errorf("knowledge item OwnerID is required")
	}

	if strings.TrimSpace(k.Content) == "" {
		return ErrEmptyContent
	}

	if !isValidContentType(k.ContentType) {
		return fmt.Errorf("knowledge item ContentType is invalid: %s", k.ContentType)
	}

	if len(k.Embedding) != EmbeddingDimensions {
		return ErrWrongDimensions
	}

	return nil
}

// isValidContentType checks if a ContentType is valid
func isValidContentType(t ContentType) bool {
	switch t {
	case ContentTypeDocument, ContentTypeNote, ContentTypeConversation,
		ContentTypeExternal, ContentTypeCode:
		return true
	}
	return false
}
