package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mindfoldhq/mindfold/internal/domain"
	"github.com/mindfoldhq/mindfold/internal/pagination"
	"github.com/pgvector/pgvector-go"
)

// RoutingLogRepository persists committed routing decisions for the
// audit trail and the feedback loop.
type RoutingLogRepository struct {
	db dbtx
}

func NewRoutingLogRepository(pool *pgxpool.Pool) *RoutingLogRepository {
	return &RoutingLogRepository{db: pool}
}

func (r *RoutingLogRepository) Create(ctx context.Context, l *domain.RoutingLog) error {
	scoresJSON, err := json.Marshal(l.DomainScores)
	if err != nil {
		return err
	}
	selectedJSON, err := json.Marshal(l.SelectedDomains)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO routing_logs (id, owner_id, query_text, query_embedding, domain_scores, selected_domains, routing_confidence, user_rating, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		l.ID, l.OwnerID, l.QueryText, pgvector.NewVector(l.QueryEmbedding),
		scoresJSON, selectedJSON, l.RoutingConfidence, l.UserRating, l.CreatedAt,
	)
	return err
}

func (r *RoutingLogRepository) GetByOwnerAndID(ctx context.Context, ownerID, id string) (*domain.RoutingLog, error) {
	var l domain.RoutingLog
	var embedding pgvector.Vector
	var scoresJSON, selectedJSON []byte
	err := r.db.QueryRow(ctx,
		`SELECT id, owner_id, query_text, query_embedding, domain_scores, selected_domains, routing_confidence, user_rating, created_at
		 FROM routing_logs WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	).Scan(&l.ID, &l.OwnerID, &l.QueryText, &embedding, &scoresJSON, &selectedJSON, &l.RoutingConfidence, &l.UserRating, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRoutingLogNotFound
		}
		return nil, err
	}

	l.QueryEmbedding = embedding.Slice()
	if err := json.Unmarshal(scoresJSON, &l.DomainScores); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(selectedJSON, &l.SelectedDomains); err != nil {
		return nil, err
	}
	return &l, nil
}

// SetRating attaches a user rating to a committed routing decision.
// Only entries that were actually persisted can be rated; previews
// never reach this table.
func (r *RoutingLogRepository) SetRating(ctx context.Context, ownerID, id string, rating int) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE routing_logs SET user_rating = $1 WHERE id = $2 AND owner_id = $3`,
		rating, id, ownerID,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrRoutingLogNotFound
	}
	return nil
}

// ListByOwner returns routing history newest first, cursor-paginated.
func (r *RoutingLogRepository) ListByOwner(ctx context.Context, ownerID string, cursor *pagination.Cursor, limit int) ([]*domain.RoutingLog, error) {
	limit = pagination.ClampLimit(limit)

	var rows pgx.Rows
	var err error
	if cursor != nil {
		rows, err = r.db.Query(ctx,
			`SELECT id, owner_id, query_text, query_embedding, domain_scores, selected_domains, routing_confidence, user_rating, created_at
			 FROM routing_logs
			 WHERE owner_id = $1 AND (created_at, id) < ($2, $3)
			 ORDER BY created_at DESC, id DESC
			 LIMIT $4`,
			ownerID, cursor.Timestamp, cursor.LastID, limit,
		)
	} else {
		rows, err = r.db.Query(ctx,
			`SELECT id, owner_id, query_text, query_embedding, domain_scores, selected_domains, routing_confidence, user_rating, created_at
			 FROM routing_logs
			 WHERE owner_id = $1
			 ORDER BY created_at DESC, id DESC
			 LIMIT $2`,
			ownerID, limit,
		)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*domain.RoutingLog
	for rows.Next() {
		var l domain.RoutingLog
		var embedding pgvector.Vector
		var scoresJSON, selectedJSON []byte
		if err := rows.Scan(&l.ID, &l.OwnerID, &l.QueryText, &embedding, &scoresJSON, &selectedJSON, &l.RoutingConfidence, &l.UserRating, &l.CreatedAt); err != nil {
			return nil, err
		}
		l.QueryEmbedding = embedding.Slice()
		if err := json.Unmarshal(scoresJSON, &l.DomainScores); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(selectedJSON, &l.SelectedDomains); err != nil {
			return nil, err
		}
		logs = append(logs, &l)
	}
	return logs, rows.Err()
}

// CountByOwner reports how many committed routing decisions exist.
func (r *RoutingLogRepository) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM routing_logs WHERE owner_id = $1`,
		ownerID,
	).Scan(&count)
	return count, err
}
