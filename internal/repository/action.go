package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mindfoldhq/mindfold/internal/domain"
	"github.com/mindfoldhq/mindfold/internal/pagination"
)

type ActionRepository struct {
	db dbtx
}

func NewActionRepository(pool *pgxpool.Pool) *ActionRepository {
	return &ActionRepository{db: pool}
}

func NewActionRepositoryWithTx(tx pgx.Tx) *ActionRepository {
	return &ActionRepository{db: tx}
}

func (r *ActionRepository) Create(ctx context.Context, a *domain.Action) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO actions (id, owner_id, type, payload, status, result, error_log, created_at, started_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		a.ID, a.OwnerID, a.Type, a.Payload, a.Status, a.Result, nullableString(a.ErrorLog), a.CreatedAt, a.StartedAt, a.CompletedAt,
	)
	return err
}

func (r *ActionRepository) GetByOwnerAndID(ctx context.Context, ownerID, id string) (*domain.Action, error) {
	var a domain.Action
	var errorLog *string
	err := r.db.QueryRow(ctx,
		`SELECT id, owner_id, type, payload, status, result, error_log, created_at, started_at, completed_at
		 FROM actions WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	).Scan(&a.ID, &a.OwnerID, &a.Type, &a.Payload, &a.Status, &a.Result, &errorLog, &a.CreatedAt, &a.StartedAt, &a.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrActionNotFound
		}
		return nil, err
	}
	if errorLog != nil {
		a.ErrorLog = *errorLog
	}
	return &a, nil
}

// ClaimPending atomically moves up to limit pending actions to running,
// oldest first, and returns them. The FOR UPDATE SKIP LOCKED CTE is the
// compare-and-set that keeps two overlapping executor invocations from
// both claiming the same action: a row is only updated while its status
// is still pending, and a row locked by a concurrent claim is skipped
// rather than waited on. limit <= 0 claims every pending action; an
// empty ownerID claims across all owners (poll-trigger mode).
func (r *ActionRepository) ClaimPending(ctx context.Context, ownerID string, limit int) ([]*domain.Action, error) {
	cond := "status = $1"
	args := []any{domain.ActionStatusPending}
	if ownerID != "" {
		args = append(args, ownerID)
		cond += fmt.Sprintf(" AND owner_id = $%d", len(args))
	}

	limitClause := ""
	if limit > 0 {
		args = append(args, limit)
		limitClause = fmt.Sprintf("LIMIT $%d", len(args))
	}

	args = append(args, domain.ActionStatusRunning, time.Now().UTC())
	query := fmt.Sprintf(`WITH cte AS (
			 SELECT id
			 FROM actions
			 WHERE %s
			 ORDER BY created_at ASC
			 FOR UPDATE SKIP LOCKED
			 %s
		 )
		 UPDATE actions
		 SET status = $%d,
		     started_at = $%d
		 FROM cte
		 WHERE actions.id = cte.id
		 RETURNING actions.id, actions.owner_id, actions.type, actions.payload, actions.status,
		           actions.result, actions.error_log, actions.created_at, actions.started_at, actions.completed_at`,
		cond, limitClause, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var actions []*domain.Action
	for rows.Next() {
		var a domain.Action
		var errorLog *string
		if err := rows.Scan(&a.ID, &a.OwnerID, &a.Type, &a.Payload, &a.Status, &a.Result, &errorLog, &a.CreatedAt, &a.StartedAt, &a.CompletedAt); err != nil {
			return nil, err
		}
		if errorLog != nil {
			a.ErrorLog = *errorLog
		}
		actions = append(actions, &a)
	}
	return actions, rows.Err()
}

// MarkSucceeded transitions running -> success with the handler result.
func (r *ActionRepository) MarkSucceeded(ctx context.Context, id string, result json.RawMessage) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE actions SET status = $1, result = $2, completed_at = $3
		 WHERE id = $4 AND status = $5`,
		domain.ActionStatusSuccess, result, time.Now().UTC(), id, domain.ActionStatusRunning,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrActionNotPending
	}
	return nil
}

// MarkFailed transitions running -> failed, capturing the handler error
// verbatim. Failed actions are never auto-retried.
func (r *ActionRepository) MarkFailed(ctx context.Context, id string, errMsg string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE actions SET status = $1, error_log = $2, completed_at = $3
		 WHERE id = $4 AND status = $5`,
		domain.ActionStatusFailed, errMsg, time.Now().UTC(), id, domain.ActionStatusRunning,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrActionNotPending
	}
	return nil
}

// Cancel transitions pending -> cancelled. The status guard in the
// WHERE clause makes this a compare-and-set: an action that has already
// been claimed (or finished) is left untouched.
func (r *ActionRepository) Cancel(ctx context.Context, ownerID, id string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE actions SET status = $1, completed_at = $2
		 WHERE id = $3 AND owner_id = $4 AND status = $5`,
		domain.ActionStatusCancelled, time.Now().UTC(), id, ownerID, domain.ActionStatusPending,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		// Distinguish a missing action from one past pending.
		if _, getErr := r.GetByOwnerAndID(ctx, ownerID, id); getErr != nil {
			return getErr
		}
		return domain.ErrActionNotPending
	}
	return nil
}

// History lists actions newest first with optional status/type filters.
func (r *ActionRepository) History(ctx context.Context, ownerID string, status domain.ActionStatus, actionType domain.ActionType, cursor *pagination.Cursor, limit int) ([]*domain.Action, error) {
	limit = pagination.ClampLimit(limit)

	query := `SELECT id, owner_id, type, payload, status, result, error_log, created_at, started_at, completed_at
		 FROM actions WHERE owner_id = $1`
	args := []any{ownerID}

	if status != "" {
		args = append(args, status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if actionType != "" {
		args = append(args, actionType)
		query += fmt.Sprintf(" AND type = $%d", len(args))
	}
	if cursor != nil {
		args = append(args, cursor.Timestamp, cursor.LastID)
		query += fmt.Sprintf(" AND (created_at, id) < ($%d, $%d)", len(args)-1, len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var actions []*domain.Action
	for rows.Next() {
		var a domain.Action
		var errorLog *string
		if err := rows.Scan(&a.ID, &a.OwnerID, &a.Type, &a.Payload, &a.Status, &a.Result, &errorLog, &a.CreatedAt, &a.StartedAt, &a.CompletedAt); err != nil {
			return nil, err
		}
		if errorLog != nil {
			a.ErrorLog = *errorLog
		}
		actions = append(actions, &a)
	}
	return actions, rows.Err()
}
