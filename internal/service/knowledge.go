package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mindfoldhq/mindfold/internal/domain"
	"github.com/mindfoldhq/mindfold/internal/telemetry"
)

// DomainRepositoryInterface defines the repository interface for brain domain persistence
type DomainRepositoryInterface interface {
	Create(ctx context.Context, d *domain.BrainDomain) error
	GetByOwnerAndID(ctx context.Context, ownerID, id string) (*domain.BrainDomain, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.BrainDomain, error)
	Update(ctx context.Context, d *domain.BrainDomain) error
	Delete(ctx context.Context, ownerID, id string) error
}

// KnowledgeRepositoryInterface defines the repository interface for knowledge persistence
type KnowledgeRepositoryInterface interface {
	Create(ctx context.Context, k *domain.KnowledgeItem) error
	GetByOwnerAndID(ctx context.Context, ownerID, id string) (*domain.KnowledgeItem, error)
	ListByDomain(ctx context.Context, ownerID, domainID string) ([]*domain.KnowledgeItem, error)
	SimilaritiesByDomain(ctx context.Context, ownerID string, embedding []float32) ([]*DomainSimilarity, error)
	SetSourceFile(ctx context.Context, ownerID, id, objectKey string) error
	Delete(ctx context.Context, ownerID, id string) error
}

// KnowledgeWriteRepository is the subset of knowledge persistence
// available inside a transaction.
type KnowledgeWriteRepository interface {
	Create(ctx context.Context, k *domain.KnowledgeItem) error
	Delete(ctx context.Context, ownerID, id string) error
}

// TxRepositories exposes transaction-bound repositories to a WithTx callback.
type TxRepositories interface {
	Knowledge() KnowledgeWriteRepository
}

// TxRunnerInterface runs a function inside a single database transaction.
type TxRunnerInterface interface {
	WithTx(ctx context.Context, fn func(repos TxRepositories) error) error
}

// EmbeddingClient turns text into a fixed-dimension embedding vector.
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// AttachmentStore persists source files backing knowledge items.
type AttachmentStore interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) error
}

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}

// KnowledgeService handles business logic for brain domains and
// knowledge items. Embedding happens synchronously during ingestion;
// an item is only ever persisted together with its vector.
type KnowledgeService struct {
	domainRepo    DomainRepositoryInterface
	knowledgeRepo KnowledgeRepositoryInterface
	txRunner      TxRunnerInterface
	embedder      EmbeddingClient
	attachments   AttachmentStore
	uuidGen       UUIDGenerator
	embedTimeout  time.Duration
}

// NewKnowledgeService creates a new KnowledgeService instance
func NewKnowledgeService(
	domainRepo DomainRepositoryInterface,
	knowledgeRepo KnowledgeRepositoryInterface,
	txRunner TxRunnerInterface,
	embedder EmbeddingClient,
	embedTimeout time.Duration,
) *KnowledgeService {
	return &KnowledgeService{
		domainRepo:    domainRepo,
		knowledgeRepo: knowledgeRepo,
		txRunner:      txRunner,
		embedder:      embedder,
		uuidGen:       &DefaultUUIDGenerator{},
		embedTimeout:  embedTimeout,
	}
}

// NewKnowledgeServiceWithUUIDGen creates a new KnowledgeService with custom UUID generator (for testing)
func NewKnowledgeServiceWithUUIDGen(
	domainRepo DomainRepositoryInterface,
	knowledgeRepo KnowledgeRepositoryInterface,
	txRunner TxRunnerInterface,
	embedder EmbeddingClient,
	embedTimeout time.Duration,
	uuidGen UUIDGenerator,
) *KnowledgeService {
	s := NewKnowledgeService(domainRepo, knowledgeRepo, txRunner, embedder, embedTimeout)
	s.uuidGen = uuidGen
	return s
}

// WithAttachmentStore enables source-file uploads. Without a store,
// AttachSource returns INVALID_OPERATION.
func (s *KnowledgeService) WithAttachmentStore(store AttachmentStore) *KnowledgeService {
	s.attachments = store
	return s
}

// CreateDomainInput represents the input for creating a brain domain
type CreateDomainInput struct {
	OwnerID     string
	Name        string
	Description string
	Color       string
	Icon        string
}

// UpdateDomainInput represents the input for updating a brain domain.
// Nil fields are left unchanged.
type UpdateDomainInput struct {
	Name        *string
	Description *string
	Color       *string
	Icon        *string
}

// IngestInput represents the input for ingesting a knowledge item
type IngestInput struct {
	OwnerID     string
	DomainID    string
	Title       string
	Content     string
	ContentType domain.ContentType
	Tags        []string
	SourceURL   string
}

// CreateDomain creates a new brain domain for an owner.
func (s *KnowledgeService) CreateDomain(ctx context.Context, input CreateDomainInput) (*domain.BrainDomain, error) {
	ctx, span := telemetry.StartSpan(ctx, "KnowledgeService.CreateDomain", telemetry.SpanAttributes{
		OwnerID:   input.OwnerID,
		Operation: "create_domain",
	})
	defer span.End()

	if strings.TrimSpace(input.Name) == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "domain name is required")
	}

	d := domain.NewBrainDomain(s.uuidGen.NewString(), input.OwnerID, strings.TrimSpace(input.Name), input.Description, time.Now().UTC())
	d.Color = input.Color
	d.Icon = input.Icon

	if err := domain.ValidateBrainDomain(d); err != nil {
		return nil, err
	}

	if err := s.domainRepo.Create(ctx, d); err != nil {
		span.SetError(err)
		return nil, err
	}

	return d, nil
}

// GetDomain fetches an owner's domain by ID.
func (s *KnowledgeService) GetDomain(ctx context.Context, ownerID, domainID string) (*domain.BrainDomain, error) {
	return s.domainRepo.GetByOwnerAndID(ctx, ownerID, domainID)
}

// ListDomains lists an owner's domains in creation order.
func (s *KnowledgeService) ListDomains(ctx context.Context, ownerID string) ([]*domain.BrainDomain, error) {
	return s.domainRepo.ListByOwner(ctx, ownerID)
}

// UpdateDomain applies a partial update to a domain's metadata.
func (s *KnowledgeService) UpdateDomain(ctx context.Context, ownerID, domainID string, input UpdateDomainInput) (*domain.BrainDomain, error) {
	ctx, span := telemetry.StartSpan(ctx, "KnowledgeService.UpdateDomain", telemetry.SpanAttributes{
		OwnerID:   ownerID,
		DomainID:  domainID,
		Operation: "update_domain",
	})
	defer span.End()

	d, err := s.domainRepo.GetByOwnerAndID(ctx, ownerID, domainID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, domain.NewDomainError(domain.ErrCodeValidation, "domain name cannot be empty")
		}
		d.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		d.Description = *input.Description
	}
	if input.Color != nil {
		d.Color = *input.Color
	}
	if input.Icon != nil {
		d.Icon = *input.Icon
	}
	d.UpdatedAt = time.Now().UTC()

	if err := s.domainRepo.Update(ctx, d); err != nil {
		span.SetError(err)
		return nil, err
	}

	return d, nil
}

// DeleteDomain removes a domain and, through the schema's cascade, all
// knowledge items inside it.
func (s *KnowledgeService) DeleteDomain(ctx context.Context, ownerID, domainID string) error {
	ctx, span := telemetry.StartSpan(ctx, "KnowledgeService.DeleteDomain", telemetry.SpanAttributes{
		OwnerID:   ownerID,
		DomainID:  domainID,
		Operation: "delete_domain",
	})
	defer span.End()

	return s.domainRepo.Delete(ctx, ownerID, domainID)
}

// Ingest embeds a piece of content and stores it in the target domain.
// The item and its embedding are written together; an embedding failure
// means nothing is persisted.
func (s *KnowledgeService) Ingest(ctx context.Context, input IngestInput) (*domain.KnowledgeItem, error) {
	ctx, span := telemetry.StartSpan(ctx, "KnowledgeService.Ingest", telemetry.SpanAttributes{
		OwnerID:   input.OwnerID,
		DomainID:  input.DomainID,
		Operation: "ingest",
	})
	defer span.End()

	if strings.TrimSpace(input.Content) == "" {
		return nil, domain.ErrEmptyContent
	}

	// Confirm the domain exists and belongs to this owner before
	// spending an embedding call.
	if _, err := s.domainRepo.GetByOwnerAndID(ctx, input.OwnerID, input.DomainID); err != nil {
		return nil, err
	}

	item := domain.NewKnowledgeItem(
		s.uuidGen.NewString(),
		input.DomainID,
		input.OwnerID,
		input.Title,
		input.Content,
		input.ContentType,
		input.Tags,
		nil,
		time.Now().UTC(),
	)
	item.SourceURL = input.SourceURL
	if item.ContentType == "" {
		item.ContentType = domain.ContentTypeNote
	}

	embedding, err := s.embed(ctx, item.EmbeddingText())
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	item.Embedding = embedding

	if err := domain.ValidateKnowledgeItem(item); err != nil {
		return nil, err
	}

	if err := s.knowledgeRepo.Create(ctx, item); err != nil {
		span.SetError(err)
		return nil, err
	}

	return item, nil
}

// GetItem fetches an owner's knowledge item by ID.
func (s *KnowledgeService) GetItem(ctx context.Context, ownerID, itemID string) (*domain.KnowledgeItem, error) {
	return s.knowledgeRepo.GetByOwnerAndID(ctx, ownerID, itemID)
}

// ListByDomain lists the knowledge items inside one domain, newest first.
func (s *KnowledgeService) ListByDomain(ctx context.Context, ownerID, domainID string) ([]*domain.KnowledgeItem, error) {
	if _, err := s.domainRepo.GetByOwnerAndID(ctx, ownerID, domainID); err != nil {
		return nil, err
	}
	return s.knowledgeRepo.ListByDomain(ctx, ownerID, domainID)
}

// DeleteItem removes a knowledge item.
func (s *KnowledgeService) DeleteItem(ctx context.Context, ownerID, itemID string) error {
	return s.knowledgeRepo.Delete(ctx, ownerID, itemID)
}

// ReplaceItem supersedes an existing item with new content. Embeddings
// are immutable, so the update is a replacement: a fresh item with a
// fresh vector is created and the old one deleted in one transaction.
func (s *KnowledgeService) ReplaceItem(ctx context.Context, ownerID, itemID, title, content string) (*domain.KnowledgeItem, error) {
	ctx, span := telemetry.StartSpan(ctx, "KnowledgeService.ReplaceItem", telemetry.SpanAttributes{
		OwnerID:     ownerID,
		KnowledgeID: itemID,
		Operation:   "replace_item",
	})
	defer span.End()

	if strings.TrimSpace(content) == "" {
		return nil, domain.ErrEmptyContent
	}

	old, err := s.knowledgeRepo.GetByOwnerAndID(ctx, ownerID, itemID)
	if err != nil {
		return nil, err
	}

	replacement := domain.NewKnowledgeItem(
		s.uuidGen.NewString(),
		old.DomainID,
		old.OwnerID,
		title,
		content,
		old.ContentType,
		old.Tags,
		nil,
		time.Now().UTC(),
	)
	if replacement.Title == "" {
		replacement.Title = old.Title
	}
	replacement.SourceURL = old.SourceURL

	embedding, err := s.embed(ctx, replacement.EmbeddingText())
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	replacement.Embedding = embedding

	if err := domain.ValidateKnowledgeItem(replacement); err != nil {
		return nil, err
	}

	err = s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		if err := repos.Knowledge().Create(ctx, replacement); err != nil {
			return err
		}
		return repos.Knowledge().Delete(ctx, ownerID, old.ID)
	})
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	return replacement, nil
}

// AttachSource uploads a source file for an existing item and records
// its object key.
func (s *KnowledgeService) AttachSource(ctx context.Context, ownerID, itemID, filename, contentType string, body io.Reader) (string, error) {
	ctx, span := telemetry.StartSpan(ctx, "KnowledgeService.AttachSource", telemetry.SpanAttributes{
		OwnerID:     ownerID,
		KnowledgeID: itemID,
		Operation:   "attach_source",
	})
	defer span.End()

	if s.attachments == nil {
		return "", domain.NewDomainError(domain.ErrCodeInvalidOperation, "attachment storage is not configured")
	}

	item, err := s.knowledgeRepo.GetByOwnerAndID(ctx, ownerID, itemID)
	if err != nil {
		return "", err
	}

	key := ownerID + "/" + item.ID + "/" + filename
	if err := s.attachments.Upload(ctx, key, body, contentType); err != nil {
		span.SetError(err)
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeTransient, "attachment upload failed", err)
	}

	if err := s.knowledgeRepo.SetSourceFile(ctx, ownerID, item.ID, key); err != nil {
		return "", err
	}

	return key, nil
}

// embed calls the embedding backend under the configured timeout and
// maps failures to the transient error class so callers can retry.
func (s *KnowledgeService) embed(ctx context.Context, text string) ([]float32, error) {
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	if s.embedTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.embedTimeout)
		defer cancel()
	}

	embedding, err := s.embedder.GenerateEmbedding(ctx, text)
	if err != nil {
		var derr *domain.DomainError
		if errors.As(err, &derr) {
			return nil, err
		}
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeTransient, "embedding generation failed", err)
	}

	return embedding, nil
}
