package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// ActionType is the closed set of queueable action kinds. Dispatch is on
// this tagged set, never on a free-form string: unknown types are
// rejected before anything is persisted.
type ActionType string

const (
	ActionTypeCreateTask       ActionType = "create_task"
	ActionTypeSendNotification ActionType = "send_notification"
	ActionTypeAddNote          ActionType = "add_note"
	ActionTypeUpdateKnowledge  ActionType = "update_knowledge"
)

// ActionStatus represents the execution state of an action
type ActionStatus string

const (
	ActionStatusPending   ActionStatus = "pending"
	ActionStatusRunning   ActionStatus = "running"
	ActionStatusSuccess   ActionStatus = "success"
	ActionStatusFailed    ActionStatus = "failed"
	ActionStatusCancelled ActionStatus = "cancelled"
)

// Action represents a unit of deferred, queued work with a typed payload.
// Status transitions are one-directional:
//
//	pending -> running -> {success, failed}
//	pending -> cancelled
//
// Once terminal, the record is immutable and never deleted.
type Action struct {
	ID          string
	OwnerID     string
	Type        ActionType
	Payload     json.RawMessage
	Status      ActionStatus
	Result      json.RawMessage
	ErrorLog    string
	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// NewAction creates a new Action in pending state
func NewAction(id, ownerID string, actionType ActionType, payload json.RawMessage, createdAt time.Time) *Action {
	return &Action{
		ID:        id,
		OwnerID:   ownerID,
		Type:      actionType,
		Payload:   payload,
		Status:    ActionStatusPending,
		CreatedAt: createdAt,
	}
}

// IsTerminal reports whether the action has reached a terminal state
func (a *Action) IsTerminal() bool {
	switch a.Status {
	case ActionStatusSuccess, ActionStatusFailed, ActionStatusCancelled:
		return true
	}
	return false
}

// ValidateAction validates an Action instance
func ValidateAction(a *Action) error {
	if a == nil {
		return fmt.Errorf("action cannot be nil")
	}

	if a.ID == "" {
		return fmt.Errorf("action ID is required")
	}

	if a.OwnerID == "" {
		return fmt.Errorf("action OwnerID is required")
	}

	if !IsValidActionType(a.Type) {
		return ErrUnknownActionType
	}

	if !IsValidActionStatus(a.Status) {
		return fmt.Errorf("action Status is invalid: %s", a.Status)
	}

	return nil
}

// IsValidActionType checks if an ActionType belongs to the allow-list
func IsValidActionType(t ActionType) bool {
	switch t {
	case ActionTypeCreateTask, ActionTypeSendNotification,
		ActionTypeAddNote, ActionTypeUpdateKnowledge:
		return true
	}
	return false
}

// IsValidActionStatus checks if an ActionStatus is valid
func IsValidActionStatus(s ActionStatus) bool {
	switch s {
	case ActionStatusPending, ActionStatusRunning, ActionStatusSuccess,
		ActionStatusFailed, ActionStatusCancelled:
		return true
	}
	return false
}
