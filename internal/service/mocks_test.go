package service

import (
	"context"
	"encoding/json"

	"github.com/stretchr/testify/mock"

	"github.com/mindfoldhq/mindfold/internal/domain"
	"github.com/mindfoldhq/mindfold/internal/pagination"
)

// MockDomainRepository is a mock implementation of DomainRepositoryInterface
type MockDomainRepository struct {
	mock.Mock
}

func (m *MockDomainRepository) Create(ctx context.Context, d *domain.BrainDomain) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDomainRepository) GetByOwnerAndID(ctx context.Context, ownerID, id string) (*domain.BrainDomain, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BrainDomain), args.Error(1)
}

func (m *MockDomainRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.BrainDomain, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.BrainDomain), args.Error(1)
}

func (m *MockDomainRepository) Update(ctx context.Context, d *domain.BrainDomain) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDomainRepository) Delete(ctx context.Context, ownerID, id string) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}

// MockKnowledgeRepository is a mock implementation of KnowledgeRepositoryInterface
type MockKnowledgeRepository struct {
	mock.Mock
}

func (m *MockKnowledgeRepository) Create(ctx context.Context, k *domain.KnowledgeItem) error {
	args := m.Called(ctx, k)
	return args.Error(0)
}

func (m *MockKnowledgeRepository) GetByOwnerAndID(ctx context.Context, ownerID, id string) (*domain.KnowledgeItem, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.KnowledgeItem), args.Error(1)
}

func (m *MockKnowledgeRepository) ListByDomain(ctx context.Context, ownerID, domainID string) ([]*domain.KnowledgeItem, error) {
	args := m.Called(ctx, ownerID, domainID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.KnowledgeItem), args.Error(1)
}

func (m *MockKnowledgeRepository) SimilaritiesByDomain(ctx context.Context, ownerID string, embedding []float32) ([]*DomainSimilarity, error) {
	args := m.Called(ctx, ownerID, embedding)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*DomainSimilarity), args.Error(1)
}

func (m *MockKnowledgeRepository) SetSourceFile(ctx context.Context, ownerID, id, objectKey string) error {
	args := m.Called(ctx, ownerID, id, objectKey)
	return args.Error(0)
}

func (m *MockKnowledgeRepository) Delete(ctx context.Context, ownerID, id string) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}

// MockRoutingLogRepository is a mock implementation of RoutingLogRepositoryInterface
type MockRoutingLogRepository struct {
	mock.Mock
}

func (m *MockRoutingLogRepository) Create(ctx context.Context, l *domain.RoutingLog) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}

func (m *MockRoutingLogRepository) GetByOwnerAndID(ctx context.Context, ownerID, id string) (*domain.RoutingLog, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RoutingLog), args.Error(1)
}

func (m *MockRoutingLogRepository) SetRating(ctx context.Context, ownerID, id string, rating int) error {
	args := m.Called(ctx, ownerID, id, rating)
	return args.Error(0)
}

func (m *MockRoutingLogRepository) ListByOwner(ctx context.Context, ownerID string, cursor *pagination.Cursor, limit int) ([]*domain.RoutingLog, error) {
	args := m.Called(ctx, ownerID, cursor, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.RoutingLog), args.Error(1)
}

// MockActionRepository is a mock implementation of ActionRepositoryInterface
type MockActionRepository struct {
	mock.Mock
}

func (m *MockActionRepository) Create(ctx context.Context, a *domain.Action) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockActionRepository) GetByOwnerAndID(ctx context.Context, ownerID, id string) (*domain.Action, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Action), args.Error(1)
}

func (m *MockActionRepository) ClaimPending(ctx context.Context, ownerID string, limit int) ([]*domain.Action, error) {
	args := m.Called(ctx, ownerID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Action), args.Error(1)
}

func (m *MockActionRepository) MarkSucceeded(ctx context.Context, id string, result json.RawMessage) error {
	args := m.Called(ctx, id, result)
	return args.Error(0)
}

func (m *MockActionRepository) MarkFailed(ctx context.Context, id string, errMsg string) error {
	args := m.Called(ctx, id, errMsg)
	return args.Error(0)
}

func (m *MockActionRepository) Cancel(ctx context.Context, ownerID, id string) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}

func (m *MockActionRepository) History(ctx context.Context, ownerID string, status domain.ActionStatus, actionType domain.ActionType, cursor *pagination.Cursor, limit int) ([]*domain.Action, error) {
	args := m.Called(ctx, ownerID, status, actionType, cursor, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Action), args.Error(1)
}

// MockEmbeddingClient is a mock implementation of EmbeddingClient
type MockEmbeddingClient struct {
	mock.Mock
}

func (m *MockEmbeddingClient) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

// MockActionInvoker is a mock implementation of ActionInvoker
type MockActionInvoker struct {
	mock.Mock
}

func (m *MockActionInvoker) Invoke(ctx context.Context, action *domain.Action) (json.RawMessage, error) {
	args := m.Called(ctx, action)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

// MockOwnerRepository is a mock implementation of OwnerRepository
type MockOwnerRepository struct {
	mock.Mock
}

func (m *MockOwnerRepository) Create(ctx context.Context, o *domain.Owner) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOwnerRepository) GetByID(ctx context.Context, id string) (*domain.Owner, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Owner), args.Error(1)
}

func (m *MockOwnerRepository) GetByName(ctx context.Context, name string) (*domain.Owner, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Owner), args.Error(1)
}

func (m *MockOwnerRepository) List(ctx context.Context) ([]*domain.Owner, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Owner), args.Error(1)
}

// MockAPIKeyRepository is a mock implementation of APIKeyRepositoryInterface
type MockAPIKeyRepository struct {
	mock.Mock
}

func (m *MockAPIKeyRepository) Create(ctx context.Context, key *domain.APIKey) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockAPIKeyRepository) GetByHash(ctx context.Context, hash string) (*domain.APIKey, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.APIKey), args.Error(1)
}

func (m *MockAPIKeyRepository) GetByOwnerID(ctx context.Context, ownerID string) ([]*domain.APIKey, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.APIKey), args.Error(1)
}

func (m *MockAPIKeyRepository) Revoke(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// fakeTxRunner runs the callback against in-memory write repositories
// without a real transaction.
type fakeTxRunner struct {
	knowledge KnowledgeWriteRepository
	err       error
}

func (f *fakeTxRunner) WithTx(ctx context.Context, fn func(repos TxRepositories) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(&fakeTxRepos{knowledge: f.knowledge})
}

type fakeTxRepos struct {
	knowledge KnowledgeWriteRepository
}

func (f *fakeTxRepos) Knowledge() KnowledgeWriteRepository {
	return f.knowledge
}

// MockUUIDGenerator returns a fixed sequence of IDs.
type MockUUIDGenerator struct {
	callCount int
	uuids     []string
}

func NewMockUUIDGenerator(uuids ...string) *MockUUIDGenerator {
	return &MockUUIDGenerator{uuids: uuids}
}

func (m *MockUUIDGenerator) NewString() string {
	if m.callCount < len(m.uuids) {
		id := m.uuids[m.callCount]
		m.callCount++
		return id
	}
	return "default-uuid"
}
