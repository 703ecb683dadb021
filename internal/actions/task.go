package actions

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mindfoldhq/mindfold/internal/domain"
	"github.com/mindfoldhq/mindfold/internal/service"
)

// TaskCreator persists tasks produced by create_task actions.
type TaskCreator interface {
	Create(ctx context.Context, t *domain.Task) error
}

// CreateTaskPayload is the typed payload of a create_task action.
type CreateTaskPayload struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

// CreateTaskHandler turns a create_task action into a task record.
type CreateTaskHandler struct {
	tasks   TaskCreator
	uuidGen service.UUIDGenerator
}

func NewCreateTaskHandler(tasks TaskCreator, uuidGen service.UUIDGenerator) *CreateTaskHandler {
	return &CreateTaskHandler{tasks: tasks, uuidGen: uuidGen}
}

func (h *CreateTaskHandler) Handle(ctx context.Context, ownerID string, payload json.RawMessage) (json.RawMessage, error) {
	var p CreateTaskPayload
	if err := decodePayload(payload, &p); err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.Title) == "" {
		return nil, fmt.Errorf("create_task: title is required")
	}

	task := &domain.Task{
		ID:          h.uuidGen.NewString(),
		OwnerID:     ownerID,
		Title:       strings.TrimSpace(p.Title),
		Description: p.Description,
		DueDate:     p.DueDate,
		CreatedAt:   time.Now().UTC(),
	}

	if err := h.tasks.Create(ctx, task); err != nil {
		return nil, err
	}

	return json.Marshal(map[string]string{"task_id": task.ID})
}
