package actions

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mindfoldhq/mindfold/internal/domain"
	"github.com/mindfoldhq/mindfold/internal/service"
)

type mockTaskCreator struct {
	mock.Mock
}

func (m *mockTaskCreator) Create(ctx context.Context, t *domain.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

type mockNotificationCreator struct {
	mock.Mock
}

func (m *mockNotificationCreator) Create(ctx context.Context, n *domain.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

type mockKnowledgeWriter struct {
	mock.Mock
}

func (m *mockKnowledgeWriter) Ingest(ctx context.Context, input service.IngestInput) (*domain.KnowledgeItem, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.KnowledgeItem), args.Error(1)
}

func (m *mockKnowledgeWriter) ReplaceItem(ctx context.Context, ownerID, itemID, title, content string) (*domain.KnowledgeItem, error) {
	args := m.Called(ctx, ownerID, itemID, title, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.KnowledgeItem), args.Error(1)
}

type fixedUUIDGen struct {
	id string
}

func (g fixedUUIDGen) NewString() string { return g.id }

func newTestRegistry(t *testing.T, tasks TaskCreator, notifications NotificationCreator, knowledge KnowledgeWriter) *Registry {
	t.Helper()
	r, err := NewDefaultRegistry(tasks, notifications, knowledge, fixedUUIDGen{id: "fixed-id"})
	require.NoError(t, err)
	return r
}

func TestRegistry_Register(t *testing.T) {
	t.Run("rejects types outside the allow-list", func(t *testing.T) {
		r := NewRegistry()
		err := r.Register("drop_tables", NewAddNoteHandler(new(mockKnowledgeWriter)))
		assert.ErrorIs(t, err, domain.ErrUnknownActionType)
	})

	t.Run("rejects double registration", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Register(domain.ActionTypeAddNote, NewAddNoteHandler(new(mockKnowledgeWriter))))
		assert.Error(t, r.Register(domain.ActionTypeAddNote, NewAddNoteHandler(new(mockKnowledgeWriter))))
	})
}

func TestRegistry_Invoke_MissingHandler(t *testing.T) {
	r := NewRegistry()
	action := domain.NewAction("a-1", "owner-1", domain.ActionTypeCreateTask, json.RawMessage(`{}`), time.Now().UTC())

	_, err := r.Invoke(context.Background(), action)

	var derr *domain.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domain.ErrCodeInternalError, derr.Code)
}

func TestCreateTaskHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("creates task and returns its id", func(t *testing.T) {
		tasks := new(mockTaskCreator)
		r := newTestRegistry(t, tasks, new(mockNotificationCreator), new(mockKnowledgeWriter))

		tasks.On("Create", mock.Anything, mock.MatchedBy(func(task *domain.Task) bool {
			return task.ID == "fixed-id" && task.OwnerID == "owner-1" && task.Title == "File taxes"
		})).Return(nil)

		action := domain.NewAction("a-1", "owner-1", domain.ActionTypeCreateTask,
			json.RawMessage(`{"title":"File taxes","description":"before the deadline"}`), time.Now().UTC())

		result, err := r.Invoke(ctx, action)

		require.NoError(t, err)
		assert.JSONEq(t, `{"task_id":"fixed-id"}`, string(result))
		tasks.AssertExpectations(t)
	})

	t.Run("missing title fails without persisting", func(t *testing.T) {
		tasks := new(mockTaskCreator)
		r := newTestRegistry(t, tasks, new(mockNotificationCreator), new(mockKnowledgeWriter))

		action := domain.NewAction("a-1", "owner-1", domain.ActionTypeCreateTask,
			json.RawMessage(`{"description":"no title"}`), time.Now().UTC())

		_, err := r.Invoke(ctx, action)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "title is required")
		tasks.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("unknown payload fields are rejected", func(t *testing.T) {
		tasks := new(mockTaskCreator)
		r := newTestRegistry(t, tasks, new(mockNotificationCreator), new(mockKnowledgeWriter))

		action := domain.NewAction("a-1", "owner-1", domain.ActionTypeCreateTask,
			json.RawMessage(`{"title":"ok","surprise":true}`), time.Now().UTC())

		_, err := r.Invoke(ctx, action)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid payload")
	})
}

func TestSendNotificationHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults channel to inapp", func(t *testing.T) {
		notifications := new(mockNotificationCreator)
		r := newTestRegistry(t, new(mockTaskCreator), notifications, new(mockKnowledgeWriter))

		notifications.On("Create", mock.Anything, mock.MatchedBy(func(n *domain.Notification) bool {
			return n.Channel == "inapp" && n.Title == "Budget ready"
		})).Return(nil)

		action := domain.NewAction("a-1", "owner-1", domain.ActionTypeSendNotification,
			json.RawMessage(`{"title":"Budget ready","body":"Q3 numbers are in"}`), time.Now().UTC())

		result, err := r.Invoke(ctx, action)

		require.NoError(t, err)
		assert.JSONEq(t, `{"notification_id":"fixed-id"}`, string(result))
	})

	t.Run("repository failure propagates", func(t *testing.T) {
		notifications := new(mockNotificationCreator)
		r := newTestRegistry(t, new(mockTaskCreator), notifications, new(mockKnowledgeWriter))

		notifications.On("Create", mock.Anything, mock.Anything).Return(errors.New("connection reset"))

		action := domain.NewAction("a-1", "owner-1", domain.ActionTypeSendNotification,
			json.RawMessage(`{"title":"x"}`), time.Now().UTC())

		_, err := r.Invoke(ctx, action)

		assert.Error(t, err)
	})
}

func TestAddNoteHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("ingests the note as knowledge", func(t *testing.T) {
		knowledge := new(mockKnowledgeWriter)
		r := newTestRegistry(t, new(mockTaskCreator), new(mockNotificationCreator), knowledge)

		item := &domain.KnowledgeItem{ID: "item-9"}
		knowledge.On("Ingest", mock.Anything, mock.MatchedBy(func(in service.IngestInput) bool {
			return in.OwnerID == "owner-1" &&
				in.DomainID == "domain-1" &&
				in.Content == "remember this" &&
				in.ContentType == domain.ContentTypeNote
		})).Return(item, nil)

		action := domain.NewAction("a-1", "owner-1", domain.ActionTypeAddNote,
			json.RawMessage(`{"domain_id":"domain-1","content":"remember this"}`), time.Now().UTC())

		result, err := r.Invoke(ctx, action)

		require.NoError(t, err)
		assert.JSONEq(t, `{"knowledge_id":"item-9"}`, string(result))
	})

	t.Run("missing domain_id", func(t *testing.T) {
		knowledge := new(mockKnowledgeWriter)
		r := newTestRegistry(t, new(mockTaskCreator), new(mockNotificationCreator), knowledge)

		action := domain.NewAction("a-1", "owner-1", domain.ActionTypeAddNote,
			json.RawMessage(`{"content":"orphan note"}`), time.Now().UTC())

		_, err := r.Invoke(ctx, action)

		require.Error(t, err)
		knowledge.AssertNotCalled(t, "Ingest", mock.Anything, mock.Anything)
	})
}

func TestUpdateKnowledgeHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces the item and reports both ids", func(t *testing.T) {
		knowledge := new(mockKnowledgeWriter)
		r := newTestRegistry(t, new(mockTaskCreator), new(mockNotificationCreator), knowledge)

		knowledge.On("ReplaceItem", mock.Anything, "owner-1", "item-1", "", "corrected text").
			Return(&domain.KnowledgeItem{ID: "item-2"}, nil)

		action := domain.NewAction("a-1", "owner-1", domain.ActionTypeUpdateKnowledge,
			json.RawMessage(`{"knowledge_id":"item-1","content":"corrected text"}`), time.Now().UTC())

		result, err := r.Invoke(ctx, action)

		require.NoError(t, err)
		assert.JSONEq(t, `{"knowledge_id":"item-2","replaced_id":"item-1"}`, string(result))
	})

	t.Run("unknown item propagates not found", func(t *testing.T) {
		knowledge := new(mockKnowledgeWriter)
		r := newTestRegistry(t, new(mockTaskCreator), new(mockNotificationCreator), knowledge)

		knowledge.On("ReplaceItem", mock.Anything, "owner-1", "ghost", "", "text").
			Return(nil, domain.ErrKnowledgeNotFound)

		action := domain.NewAction("a-1", "owner-1", domain.ActionTypeUpdateKnowledge,
			json.RawMessage(`{"knowledge_id":"ghost","content":"text"}`), time.Now().UTC())

		_, err := r.Invoke(ctx, action)

		assert.ErrorIs(t, err, domain.ErrKnowledgeNotFound)
	})
}
