// Package actions holds the closed set of executable action handlers.
// Dispatch is keyed on the action type constant; there is no reflection
// and no string-based lookup of arbitrary handler names.
package actions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/mindfoldhq/mindfold/internal/domain"
	"github.com/mindfoldhq/mindfold/internal/service"
)

// Handler executes one action kind against its typed payload and
// returns a JSON result for the action record.
type Handler interface {
	Handle(ctx context.Context, ownerID string, payload json.RawMessage) (json.RawMessage, error)
}

// Registry maps action types to their handlers.
type Registry struct {
	handlers map[domain.ActionType]Handler
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[domain.ActionType]Handler)}
}

// Register binds a handler to an action type. Only types from the
// domain allow-list are accepted.
func (r *Registry) Register(actionType domain.ActionType, h Handler) error {
	if !domain.IsValidActionType(actionType) {
		return domain.ErrUnknownActionType
	}
	if _, exists := r.handlers[actionType]; exists {
		return fmt.Errorf("handler already registered for %s", actionType)
	}
	r.handlers[actionType] = h
	return nil
}

// Invoke dispatches one action to its handler. Queueing already
// validated the type, so a missing handler here is a wiring mistake,
// not user input.
func (r *Registry) Invoke(ctx context.Context, action *domain.Action) (json.RawMessage, error) {
	h, ok := r.handlers[action.Type]
	if !ok {
		return nil, domain.NewDomainError(domain.ErrCodeInternalError,
			fmt.Sprintf("no handler registered for action type %s", action.Type))
	}
	return h.Handle(ctx, action.OwnerID, action.Payload)
}

// NewDefaultRegistry wires the full built-in handler set.
func NewDefaultRegistry(tasks TaskCreator, notifications NotificationCreator, knowledge KnowledgeWriter, uuidGen service.UUIDGenerator) (*Registry, error) {
	r := NewRegistry()
	if err := r.Register(domain.ActionTypeCreateTask, NewCreateTaskHandler(tasks, uuidGen)); err != nil {
		return nil, err
	}
	if err := r.Register(domain.ActionTypeSendNotification, NewSendNotificationHandler(notifications, uuidGen)); err != nil {
		return nil, err
	}
	if err := r.Register(domain.ActionTypeAddNote, NewAddNoteHandler(knowledge)); err != nil {
		return nil, err
	}
	if err := r.Register(domain.ActionTypeUpdateKnowledge, NewUpdateKnowledgeHandler(knowledge)); err != nil {
		return nil, err
	}
	return r, nil
}

// decodePayload unmarshals a payload strictly: unknown fields fail
// instead of being silently dropped.
func decodePayload(payload json.RawMessage, v any) error {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}
