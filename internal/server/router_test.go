package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mindfoldhq/mindfold/internal/api/handlers"
	"github.com/mindfoldhq/mindfold/internal/domain"
	"github.com/mindfoldhq/mindfold/internal/service"
)

type MockAuthValidator struct {
	mock.Mock
}

func (m *MockAuthValidator) ValidateAPIKey(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}

type MockDomainService struct {
	mock.Mock
}

func (m *MockDomainService) CreateDomain(ctx context.Context, input service.CreateDomainInput) (*domain.BrainDomain, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BrainDomain), args.Error(1)
}

func (m *MockDomainService) GetDomain(ctx context.Context, ownerID, domainID string) (*domain.BrainDomain, error) {
	args := m.Called(ctx, ownerID, domainID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BrainDomain), args.Error(1)
}

func (m *MockDomainService) ListDomains(ctx context.Context, ownerID string) ([]*domain.BrainDomain, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.BrainDomain), args.Error(1)
}

func (m *MockDomainService) UpdateDomain(ctx context.Context, ownerID, domainID string, input service.UpdateDomainInput) (*domain.BrainDomain, error) {
	args := m.Called(ctx, ownerID, domainID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BrainDomain), args.Error(1)
}

func (m *MockDomainService) DeleteDomain(ctx context.Context, ownerID, domainID string) error {
	args := m.Called(ctx, ownerID, domainID)
	return args.Error(0)
}

type MockKnowledgeService struct {
	mock.Mock
}

func (m *MockKnowledgeService) Ingest(ctx context.Context, input service.IngestInput) (*domain.KnowledgeItem, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.KnowledgeItem), args.Error(1)
}

func (m *MockKnowledgeService) GetItem(ctx context.Context, ownerID, itemID string) (*domain.KnowledgeItem, error) {
	args := m.Called(ctx, ownerID, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.KnowledgeItem), args.Error(1)
}

func (m *MockKnowledgeService) ListByDomain(ctx context.Context, ownerID, domainID string) ([]*domain.KnowledgeItem, error) {
	args := m.Called(ctx, ownerID, domainID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.KnowledgeItem), args.Error(1)
}

func (m *MockKnowledgeService) DeleteItem(ctx context.Context, ownerID, itemID string) error {
	args := m.Called(ctx, ownerID, itemID)
	return args.Error(0)
}

func (m *MockKnowledgeService) AttachSource(ctx context.Context, ownerID, itemID, filename, contentType string, body io.Reader) (string, error) {
	args := m.Called(ctx, ownerID, itemID, filename, contentType, body)
	return args.String(0), args.Error(1)
}

type MockRouterService struct {
	mock.Mock
}

func (m *MockRouterService) RouteQuery(ctx context.Context, ownerID, queryText string) (*service.RouteResult, error) {
	args := m.Called(ctx, ownerID, queryText)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RouteResult), args.Error(1)
}

func (m *MockRouterService) PreviewRelevantDomains(ctx context.Context, ownerID, queryText string, topN int) (*service.RouteResult, error) {
	args := m.Called(ctx, ownerID, queryText, topN)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RouteResult), args.Error(1)
}

func (m *MockRouterService) RateRouting(ctx context.Context, ownerID, logID string, rating int) error {
	args := m.Called(ctx, ownerID, logID, rating)
	return args.Error(0)
}

func (m *MockRouterService) GetRoutingLog(ctx context.Context, ownerID, logID string) (*domain.RoutingLog, error) {
	args := m.Called(ctx, ownerID, logID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RoutingLog), args.Error(1)
}

func (m *MockRouterService) History(ctx context.Context, ownerID, cursor string, limit int) (*service.RouteHistoryOutput, error) {
	args := m.Called(ctx, ownerID, cursor, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RouteHistoryOutput), args.Error(1)
}

type MockActionService struct {
	mock.Mock
}

func (m *MockActionService) Queue(ctx context.Context, ownerID string, actionType domain.ActionType, payload json.RawMessage) (*domain.Action, error) {
	args := m.Called(ctx, ownerID, actionType, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Action), args.Error(1)
}

func (m *MockActionService) Get(ctx context.Context, ownerID, actionID string) (*domain.Action, error) {
	args := m.Called(ctx, ownerID, actionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Action), args.Error(1)
}

func (m *MockActionService) ExecutePending(ctx context.Context, ownerID string, limit int) (*service.ExecutionReport, error) {
	args := m.Called(ctx, ownerID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ExecutionReport), args.Error(1)
}

func (m *MockActionService) Cancel(ctx context.Context, ownerID, actionID string) error {
	args := m.Called(ctx, ownerID, actionID)
	return args.Error(0)
}

func (m *MockActionService) History(ctx context.Context, ownerID string, filter service.ActionHistoryFilter) (*service.ActionHistoryOutput, error) {
	args := m.Called(ctx, ownerID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ActionHistoryOutput), args.Error(1)
}

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) CreateOwner(ctx context.Context, name string) (*domain.Owner, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Owner), args.Error(1)
}

func (m *MockAuthService) ListOwners(ctx context.Context) ([]*domain.Owner, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Owner), args.Error(1)
}

func (m *MockAuthService) CreateAPIKey(ctx context.Context, ownerID, name string) (string, error) {
	args := m.Called(ctx, ownerID, name)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) ListAPIKeys(ctx context.Context, ownerID string) ([]*domain.APIKey, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.APIKey), args.Error(1)
}

func (m *MockAuthService) RevokeAPIKey(ctx context.Context, keyID string) error {
	args := m.Called(ctx, keyID)
	return args.Error(0)
}

func setupRouter() (http.Handler, *MockAuthValidator, *MockRouterService, *MockAuthService) {
	authValidator := new(MockAuthValidator)
	domainSvc := new(MockDomainService)
	knowledgeSvc := new(MockKnowledgeService)
	routerSvc := new(MockRouterService)
	actionSvc := new(MockActionService)
	authSvc := new(MockAuthService)

	cfg := RouterConfig{
		AuthValidator:    authValidator,
		DomainHandler:    handlers.NewDomainHandler(domainSvc),
		KnowledgeHandler: handlers.NewKnowledgeHandler(knowledgeSvc),
		RoutingHandler:   handlers.NewRoutingHandler(routerSvc),
		ActionHandler:    handlers.NewActionHandler(actionSvc),
		AuthHandler:      handlers.NewAuthHandler(authSvc),
	}

	router := NewRouter(cfg)
	return router, authValidator, routerSvc, authSvc
}

func TestRouter_HealthEndpoint(t *testing.T) {
	router, _, _, _ := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "ok", data["status"])
}

func TestRouter_AuthenticatedRoutes_RequireAuth(t *testing.T) {
	router, authValidator, _, _ := setupRouter()

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/domains"},
		{http.MethodGet, "/domains"},
		{http.MethodGet, "/domains/123"},
		{http.MethodPut, "/domains/123"},
		{http.MethodDelete, "/domains/123"},
		{http.MethodPost, "/knowledge"},
		{http.MethodGet, "/knowledge"},
		{http.MethodGet, "/knowledge/123"},
		{http.MethodDelete, "/knowledge/123"},
		{http.MethodPost, "/knowledge/123/attach"},
		{http.MethodPost, "/route"},
		{http.MethodPost, "/route/preview"},
		{http.MethodGet, "/route/history"},
		{http.MethodGet, "/route/123"},
		{http.MethodPost, "/route/123/rating"},
		{http.MethodPost, "/actions"},
		{http.MethodGet, "/actions"},
		{http.MethodPost, "/actions/execute"},
		{http.MethodGet, "/actions/123"},
		{http.MethodPost, "/actions/123/cancel"},
		{http.MethodPost, "/apikeys"},
		{http.MethodGet, "/apikeys"},
		{http.MethodDelete, "/apikeys/123"},
	}

	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			req := httptest.NewRequest(route.method, route.path, nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}

	authValidator.AssertExpectations(t)
}

func TestRouter_AuthenticatedRoutes_WithValidAuth(t *testing.T) {
	router, authValidator, routerSvc, _ := setupRouter()

	token := "mfd_0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
	authValidator.On("ValidateAPIKey", mock.Anything, token).Return("owner-789", nil)

	expectedLog := &domain.RoutingLog{
		ID:           "log-123",
		OwnerID:      "owner-789",
		QueryText:    "where did the travel budget go",
		DomainScores: map[string]float64{"dom-1": 0.82},
		SelectedDomains: []domain.SelectedDomain{
			{DomainID: "dom-1", DomainName: "Finance", Rank: 1, RelevanceScore: 0.82},
		},
		RoutingConfidence: 0.82,
		CreatedAt:         time.Now().UTC(),
	}
	routerSvc.On("GetRoutingLog", mock.Anything, "owner-789", "log-123").Return(expectedLog, nil)

	req := httptest.NewRequest(http.MethodGet, "/route/log-123", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	authValidator.AssertExpectations(t)
	routerSvc.AssertExpectations(t)
}

func TestRouter_OwnerBootstrap_NoAuthRequired(t *testing.T) {
	router, _, _, _ := setupRouter()

	// Missing body fails validation, not authentication.
	req := httptest.NewRequest(http.MethodPost, "/owners", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
