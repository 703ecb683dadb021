package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mindfoldhq/mindfold/internal/domain"
)

type DomainRepository struct {
	db dbtx
}

func NewDomainRepository(pool *pgxpool.Pool) *DomainRepository {
	return &DomainRepository{db: pool}
}

func NewDomainRepositoryWithTx(tx pgx.Tx) *DomainRepository {
	return &DomainRepository{db: tx}
}

func (r *DomainRepository) Create(ctx context.Context, d *domain.BrainDomain) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO brain_domains (id, owner_id, name, description, color, icon, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		d.ID, d.OwnerID, d.Name, nullableString(d.Description), nullableString(d.Color), nullableString(d.Icon), d.CreatedAt, d.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return domain.ErrDomainAlreadyExists
	}
	return err
}

// GetByOwnerAndID resolves a domain only when it belongs to the caller.
func (r *DomainRepository) GetByOwnerAndID(ctx context.Context, ownerID, id string) (*domain.BrainDomain, error) {
	var d domain.BrainDomain
	var description, color, icon *string
	err := r.db.QueryRow(ctx,
		`SELECT id, owner_id, name, description, color, icon, created_at, updated_at
		 FROM brain_domains WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	).Scan(&d.ID, &d.OwnerID, &d.Name, &description, &color, &icon, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDomainNotFound
		}
		return nil, err
	}
	applyOptional(&d, description, color, icon)
	return &d, nil
}

func (r *DomainRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.BrainDomain, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, owner_id, name, description, color, icon, created_at, updated_at
		 FROM brain_domains WHERE owner_id = $1 ORDER BY created_at ASC`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*domain.BrainDomain
	for rows.Next() {
		var d domain.BrainDomain
		var description, color, icon *string
		if err := rows.Scan(&d.ID, &d.OwnerID, &d.Name, &description, &color, &icon, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		applyOptional(&d, description, color, icon)
		results = append(results, &d)
	}
	return results, rows.Err()
}

func (r *DomainRepository) Update(ctx context.Context, d *domain.BrainDomain) error {
	d.UpdatedAt = time.Now().UTC()
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE brain_domains SET name = $1, description = $2, color = $3, icon = $4, updated_at = $5
		 WHERE id = $6 AND owner_id = $7`,
		d.Name, nullableString(d.Description), nullableString(d.Color), nullableString(d.Icon), d.UpdatedAt, d.ID, d.OwnerID,
	)
	if isUniqueViolation(err) {
		return domain.ErrDomainAlreadyExists
	}
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrDomainNotFound
	}
	return nil
}

// Delete removes a domain; its knowledge items cascade via FK.
func (r *DomainRepository) Delete(ctx context.Context, ownerID, id string) error {
	cmdTag, err := r.db.Exec(ctx,
		`DELETE FROM brain_domains WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrDomainNotFound
	}
	return nil
}

func applyOptional(d *domain.BrainDomain, description, color, icon *string) {
	if description != nil {
		d.Description = *description
	}
	if color != nil {
		d.Color = *color
	}
	if icon != nil {
		d.Icon = *icon
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
