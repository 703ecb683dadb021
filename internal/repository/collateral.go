package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mindfoldhq/mindfold/internal/domain"
)

// TaskRepository persists tasks created by the create_task handler.
type TaskRepository struct {
	db dbtx
}

func NewTaskRepository(pool *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{db: pool}
}

func (r *TaskRepository) Create(ctx context.Context, t *domain.Task) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO tasks (id, owner_id, title, description, due_date, completed, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		t.ID, t.OwnerID, t.Title, nullableString(t.Description), t.DueDate, t.Completed, t.CreatedAt,
	)
	return err
}

// NotificationRepository persists notifications created by the
// send_notification handler.
type NotificationRepository struct {
	db dbtx
}

func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{db: pool}
}

func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO notifications (id, owner_id, title, body, channel, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		n.ID, n.OwnerID, n.Title, n.Body, n.Channel, n.CreatedAt,
	)
	return err
}
