package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mindfoldhq/mindfold/internal/domain"
)

type OwnerRepository struct {
	pool *pgxpool.Pool
}

func NewOwnerRepository(pool *pgxpool.Pool) *OwnerRepository {
	return &OwnerRepository{pool: pool}
}

func (r *OwnerRepository) Create(ctx context.Context, o *domain.Owner) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO owners (id, name, created_at) VALUES ($1, $2, $3)`,
		o.ID, o.Name, o.CreatedAt,
	)
	if isUniqueViolation(err) {
		return domain.ErrOwnerAlreadyExists
	}
	return err
}

func (r *OwnerRepository) GetByID(ctx context.Context, id string) (*domain.Owner, error) {
	var o domain.Owner
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, created_at FROM owners WHERE id = $1`,
		id,
	).Scan(&o.ID, &o.Name, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOwnerNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *OwnerRepository) GetByName(ctx context.Context, name string) (*domain.Owner, error) {
	var o domain.Owner
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, created_at FROM owners WHERE name = $1`,
		name,
	).Scan(&o.ID, &o.Name, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOwnerNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *OwnerRepository) List(ctx context.Context) ([]*domain.Owner, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, created_at FROM owners ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var owners []*domain.Owner
	for rows.Next() {
		var o domain.Owner
		if err := rows.Scan(&o.ID, &o.Name, &o.CreatedAt); err != nil {
			return nil, err
		}
		owners = append(owners, &o)
	}
	return owners, rows.Err()
}
