package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mindfoldhq/mindfold/internal/domain"
	"github.com/mindfoldhq/mindfold/internal/service"
	"github.com/pgvector/pgvector-go"
)

type KnowledgeRepository struct {
	db dbtx
}

func NewKnowledgeRepository(pool *pgxpool.Pool) *KnowledgeRepository {
	return &KnowledgeRepository{db: pool}
}

func NewKnowledgeRepositoryWithTx(tx pgx.Tx) *KnowledgeRepository {
	return &KnowledgeRepository{db: tx}
}

func (r *KnowledgeRepository) Create(ctx context.Context, k *domain.KnowledgeItem) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO knowledge_items (id, domain_id, owner_id, title, content, content_type, tags, source_url, source_file, embedding, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		k.ID, k.DomainID, k.OwnerID, k.Title, k.Content, k.ContentType, k.Tags,
		nullableString(k.SourceURL), nullableString(k.SourceFile), pgvector.NewVector(k.Embedding), k.CreatedAt,
	)
	return err
}

func (r *KnowledgeRepository) GetByOwnerAndID(ctx context.Context, ownerID, id string) (*domain.KnowledgeItem, error) {
	var k domain.KnowledgeItem
	var sourceURL, sourceFile *string
	var embedding pgvector.Vector
	err := r.db.QueryRow(ctx,
		`SELECT id, domain_id, owner_id, title, content, content_type, tags, source_url, source_file, embedding, created_at
		 FROM knowledge_items WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	).Scan(&k.ID, &k.DomainID, &k.OwnerID, &k.Title, &k.Content, &k.ContentType, &k.Tags, &sourceURL, &sourceFile, &embedding, &k.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrKnowledgeNotFound
		}
		return nil, err
	}
	k.Embedding = embedding.Slice()
	if sourceURL != nil {
		k.SourceURL = *sourceURL
	}
	if sourceFile != nil {
		k.SourceFile = *sourceFile
	}
	return &k, nil
}

// ListByDomain returns a domain's items newest first.
func (r *KnowledgeRepository) ListByDomain(ctx context.Context, ownerID, domainID string) ([]*domain.KnowledgeItem, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, domain_id, owner_id, title, content, content_type, tags, source_url, source_file, embedding, created_at
		 FROM knowledge_items WHERE domain_id = $1 AND owner_id = $2
		 ORDER BY created_at DESC, id DESC`,
		domainID, ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanKnowledgeRows(rows)
}

// SimilaritiesByDomain computes, for every domain the owner has, the
// cosine similarity between the query embedding and each of the
// domain's item embeddings. Domains with zero items come back with an
// empty similarity slice so routing can still report them as score 0.
// Similarities are clamped to [0,1] in SQL.
func (r *KnowledgeRepository) SimilaritiesByDomain(ctx context.Context, ownerID string, embedding []float32) ([]*service.DomainSimilarity, error) {
	rows, err := r.db.Query(ctx,
		`SELECT d.id, d.name, d.created_at,
		        GREATEST(0.0, LEAST(1.0, 1.0 - (k.embedding <=> $2)))::float8
		 FROM brain_domains d
		 LEFT JOIN knowledge_items k ON k.domain_id = d.id
		 WHERE d.owner_id = $1
		 ORDER BY d.created_at ASC, d.id ASC`,
		ownerID, pgvector.NewVector(embedding),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[string]*service.DomainSimilarity)
	var out []*service.DomainSimilarity
	for rows.Next() {
		var (
			id, name  string
			createdAt time.Time
			score     *float64
		)
		if err := rows.Scan(&id, &name, &createdAt, &score); err != nil {
			return nil, err
		}

		entry, ok := byID[id]
		if !ok {
			entry = &service.DomainSimilarity{
				DomainID:  id,
				Name:      name,
				CreatedAt: createdAt,
			}
			byID[id] = entry
			out = append(out, entry)
		}
		if score != nil {
			entry.Similarities = append(entry.Similarities, *score)
		}
	}
	return out, rows.Err()
}

// SetSourceFile records the attachment object key for an item.
func (r *KnowledgeRepository) SetSourceFile(ctx context.Context, ownerID, id, objectKey string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE knowledge_items SET source_file = $1 WHERE id = $2 AND owner_id = $3`,
		objectKey, id, ownerID,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrKnowledgeNotFound
	}
	return nil
}

// Delete removes an item. Content updates also land here: embeddings
// are never mutated in place, so an update deletes the old item after
// inserting its replacement.
func (r *KnowledgeRepository) Delete(ctx context.Context, ownerID, id string) error {
	cmdTag, err := r.db.Exec(ctx,
		`DELETE FROM knowledge_items WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrKnowledgeNotFound
	}
	return nil
}

func scanKnowledgeRows(rows pgx.Rows) ([]*domain.KnowledgeItem, error) {
	var results []*domain.KnowledgeItem
	for rows.Next() {
		var k domain.KnowledgeItem
		var sourceURL, sourceFile *string
		var embedding pgvector.Vector
		if err := rows.Scan(&k.ID, &k.DomainID, &k.OwnerID, &k.Title, &k.Content, &k.ContentType, &k.Tags, &sourceURL, &sourceFile, &embedding, &k.CreatedAt); err != nil {
			return nil, err
		}
		k.Embedding = embedding.Slice()
		if sourceURL != nil {
			k.SourceURL = *sourceURL
		}
		if sourceFile != nil {
			k.SourceFile = *sourceFile
		}
		results = append(results, &k)
	}
	return results, rows.Err()
}
