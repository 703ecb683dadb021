package service

import (
	"context"
	"strings"
	"time"

	"github.com/mindfoldhq/mindfold/internal/domain"
	"github.com/mindfoldhq/mindfold/internal/pagination"
	"github.com/mindfoldhq/mindfold/internal/telemetry"
)

// RoutingLogRepositoryInterface defines the repository interface for routing log persistence
type RoutingLogRepositoryInterface interface {
	Create(ctx context.Context, l *domain.RoutingLog) error
	GetByOwnerAndID(ctx context.Context, ownerID, id string) (*domain.RoutingLog, error)
	SetRating(ctx context.Context, ownerID, id string, rating int) error
	ListByOwner(ctx context.Context, ownerID string, cursor *pagination.Cursor, limit int) ([]*domain.RoutingLog, error)
}

// RouteResult is the outcome of a routing decision. RoutingLogID is
// empty for previews, which leave no audit record.
type RouteResult struct {
	RoutingLogID      string
	SelectedDomains   []domain.SelectedDomain
	DomainScores      map[string]float64
	RoutingConfidence float64
}

// RouteHistoryOutput is one page of an owner's routing history.
type RouteHistoryOutput struct {
	Logs    []*domain.RoutingLog
	Cursor  string
	HasMore bool
}

// RouterService ranks an owner's domains against a query embedding and
// records committed decisions for later feedback.
type RouterService struct {
	knowledgeRepo  KnowledgeRepositoryInterface
	routingLogRepo RoutingLogRepositoryInterface
	embedder       EmbeddingClient
	uuidGen        UUIDGenerator
	ranking        RankingConfig
	embedTimeout   time.Duration
}

// NewRouterService creates a new RouterService instance
func NewRouterService(
	knowledgeRepo KnowledgeRepositoryInterface,
	routingLogRepo RoutingLogRepositoryInterface,
	embedder EmbeddingClient,
	embedTimeout time.Duration,
) *RouterService {
	return &RouterService{
		knowledgeRepo:  knowledgeRepo,
		routingLogRepo: routingLogRepo,
		embedder:       embedder,
		uuidGen:        &DefaultUUIDGenerator{},
		embedTimeout:   embedTimeout,
	}
}

// NewRouterServiceWithUUIDGen creates a new RouterService with custom UUID generator (for testing)
func NewRouterServiceWithUUIDGen(
	knowledgeRepo KnowledgeRepositoryInterface,
	routingLogRepo RoutingLogRepositoryInterface,
	embedder EmbeddingClient,
	embedTimeout time.Duration,
	uuidGen UUIDGenerator,
) *RouterService {
	s := NewRouterService(knowledgeRepo, routingLogRepo, embedder, embedTimeout)
	s.uuidGen = uuidGen
	return s
}

// RouteQuery embeds the query, ranks the owner's domains, persists the
// decision as a routing log and returns it. An owner with no embedded
// knowledge gets an empty selection at confidence zero, which is still
// logged.
func (s *RouterService) RouteQuery(ctx context.Context, ownerID, queryText string) (*RouteResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "RouterService.RouteQuery", telemetry.SpanAttributes{
		OwnerID:   ownerID,
		Operation: "route",
	})
	defer span.End()

	embedding, ranking, err := s.rank(ctx, ownerID, queryText)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	log := &domain.RoutingLog{
		ID:                s.uuidGen.NewString(),
		OwnerID:           ownerID,
		QueryText:         queryText,
		QueryEmbedding:    embedding,
		DomainScores:      ranking.Scores,
		SelectedDomains:   ranking.Selected,
		RoutingConfidence: ranking.Confidence,
		CreatedAt:         time.Now().UTC(),
	}

	if err := domain.ValidateRoutingLog(log); err != nil {
		return nil, err
	}

	if err := s.routingLogRepo.Create(ctx, log); err != nil {
		span.SetError(err)
		return nil, err
	}

	return &RouteResult{
		RoutingLogID:      log.ID,
		SelectedDomains:   ranking.Selected,
		DomainScores:      ranking.Scores,
		RoutingConfidence: ranking.Confidence,
	}, nil
}

// PreviewRelevantDomains runs the same ranking as RouteQuery but writes
// nothing. topN <= 0 falls back to the routing default.
func (s *RouterService) PreviewRelevantDomains(ctx context.Context, ownerID, queryText string, topN int) (*RouteResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "RouterService.PreviewRelevantDomains", telemetry.SpanAttributes{
		OwnerID:   ownerID,
		Operation: "preview",
	})
	defer span.End()

	cfg := s.ranking
	if topN > 0 {
		cfg.MaxSelected = topN
	}

	similarities, _, err := s.similarities(ctx, ownerID, queryText)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	ranking := RankDomains(similarities, cfg)

	return &RouteResult{
		SelectedDomains:   ranking.Selected,
		DomainScores:      ranking.Scores,
		RoutingConfidence: ranking.Confidence,
	}, nil
}

// RateRouting records user feedback (1-5) on a committed routing
// decision. Re-rating overwrites the previous value.
func (s *RouterService) RateRouting(ctx context.Context, ownerID, logID string, rating int) error {
	ctx, span := telemetry.StartSpan(ctx, "RouterService.RateRouting", telemetry.SpanAttributes{
		OwnerID:   ownerID,
		Operation: "rate",
	})
	defer span.End()

	if rating < 1 || rating > 5 {
		return domain.ErrInvalidRating
	}

	return s.routingLogRepo.SetRating(ctx, ownerID, logID, rating)
}

// GetRoutingLog fetches one routing log by ID.
func (s *RouterService) GetRoutingLog(ctx context.Context, ownerID, logID string) (*domain.RoutingLog, error) {
	return s.routingLogRepo.GetByOwnerAndID(ctx, ownerID, logID)
}

// History returns a page of the owner's routing logs, newest first.
func (s *RouterService) History(ctx context.Context, ownerID, cursorStr string, limit int) (*RouteHistoryOutput, error) {
	var cursor *pagination.Cursor
	if cursorStr != "" {
		c, err := pagination.Decode(cursorStr)
		if err != nil {
			return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid cursor", err)
		}
		cursor = c
	}

	limit = pagination.ClampLimit(limit)

	// Fetch one extra row to detect whether more pages remain.
	logs, err := s.routingLogRepo.ListByOwner(ctx, ownerID, cursor, limit+1)
	if err != nil {
		return nil, err
	}

	out := &RouteHistoryOutput{Logs: logs}
	if len(logs) > limit {
		out.Logs = logs[:limit]
		out.HasMore = true
		last := out.Logs[len(out.Logs)-1]
		out.Cursor = pagination.Encode(last.ID, last.CreatedAt)
	}

	return out, nil
}

func (s *RouterService) rank(ctx context.Context, ownerID, queryText string) ([]float32, Ranking, error) {
	similarities, embedding, err := s.similarities(ctx, ownerID, queryText)
	if err != nil {
		return nil, Ranking{}, err
	}
	return embedding, RankDomains(similarities, s.ranking), nil
}

func (s *RouterService) similarities(ctx context.Context, ownerID, queryText string) ([]*DomainSimilarity, []float32, error) {
	if strings.TrimSpace(queryText) == "" {
		return nil, nil, domain.NewDomainError(domain.ErrCodeValidation, "query text is required")
	}

	embedding, err := s.embed(ctx, queryText)
	if err != nil {
		return nil, nil, err
	}

	similarities, err := s.knowledgeRepo.SimilaritiesByDomain(ctx, ownerID, embedding)
	if err != nil {
		return nil, nil, err
	}

	return similarities, embedding, nil
}

func (s *RouterService) embed(ctx context.Context, text string) ([]float32, error) {
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
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeTransient, "embedding generation failed", err)
	}

	return embedding, nil
}
