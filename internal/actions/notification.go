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

// NotificationCreator persists notifications produced by
// send_notification actions.
type NotificationCreator interface {
	Create(ctx context.Context, n *domain.Notification) error
}

// SendNotificationPayload is the typed payload of a send_notification action.
type SendNotificationPayload struct {
	Title   string `json:"title"`
	Body    string `json:"body,omitempty"`
	Channel string `json:"channel,omitempty"`
}

// SendNotificationHandler records a notification for later delivery.
type SendNotificationHandler struct {
	notifications NotificationCreator
	uuidGen       service.UUIDGenerator
}

func NewSendNotificationHandler(notifications NotificationCreator, uuidGen service.UUIDGenerator) *SendNotificationHandler {
	return &SendNotificationHandler{notifications: notifications, uuidGen: uuidGen}
}

func (h *SendNotificationHandler) Handle(ctx context.Context, ownerID string, payload json.RawMessage) (json.RawMessage, error) {
	var p SendNotificationPayload
	if err := decodePayload(payload, &p); err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.Title) == "" {
		return nil, fmt.Errorf("send_notification: title is required")
	}

	channel := p.Channel
	if channel == "" {
		channel = "inapp"
	}

	n := &domain.Notification{
		ID:        h.uuidGen.NewString(),
		OwnerID:   ownerID,
		Title:     strings.TrimSpace(p.Title),
		Body:      p.Body,
		Channel:   channel,
		CreatedAt: time.Now().UTC(),
	}

	if err := h.notifications.Create(ctx, n); err != nil {
		return nil, err
	}

	return json.Marshal(map[string]string{"notification_id": n.ID})
}
