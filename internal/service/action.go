package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mindfoldhq/mindfold/internal/domain"
	"github.com/mindfoldhq/mindfold/internal/pagination"
	"github.com/mindfoldhq/mindfold/internal/telemetry"
)

// ActionRepositoryInterface defines the repository interface for action persistence
type ActionRepositoryInterface interface {
	Create(ctx context.Context, a *domain.Action) error
	GetByOwnerAndID(ctx context.Context, ownerID, id string) (*domain.Action, error)
	ClaimPending(ctx context.Context, ownerID string, limit int) ([]*domain.Action, error)
	MarkSucceeded(ctx context.Context, id string, result json.RawMessage) error
	MarkFailed(ctx context.Context, id string, errMsg string) error
	Cancel(ctx context.Context, ownerID, id string) error
	History(ctx context.Context, ownerID string, status domain.ActionStatus, actionType domain.ActionType, cursor *pagination.Cursor, limit int) ([]*domain.Action, error)
}

// ActionInvoker dispatches one claimed action to its registered handler.
type ActionInvoker interface {
	Invoke(ctx context.Context, action *domain.Action) (json.RawMessage, error)
}

// ExecutionReport summarizes one ExecutePending run.
type ExecutionReport struct {
	Executed  int
	Succeeded int
	Failed    int
	Actions   []*domain.Action
}

// ActionHistoryFilter narrows an action history listing. Empty fields
// match everything.
type ActionHistoryFilter struct {
	Status domain.ActionStatus
	Type   domain.ActionType
	Cursor string
	Limit  int
}

// ActionHistoryOutput is one page of an owner's action history.
type ActionHistoryOutput struct {
	Actions []*domain.Action
	Cursor  string
	HasMore bool
}

// ActionService queues typed actions and drains the pending queue on
// demand. Execution only ever happens inside ExecutePending; queueing
// never runs anything.
type ActionService struct {
	actionRepo ActionRepositoryInterface
	invoker    ActionInvoker
	uuidGen    UUIDGenerator
}

// NewActionService creates a new ActionService instance
func NewActionService(actionRepo ActionRepositoryInterface, invoker ActionInvoker) *ActionService {
	return &ActionService{
		actionRepo: actionRepo,
		invoker:    invoker,
		uuidGen:    &DefaultUUIDGenerator{},
	}
}

// NewActionServiceWithUUIDGen creates a new ActionService with custom UUID generator (for testing)
func NewActionServiceWithUUIDGen(actionRepo ActionRepositoryInterface, invoker ActionInvoker, uuidGen UUIDGenerator) *ActionService {
	s := NewActionService(actionRepo, invoker)
	s.uuidGen = uuidGen
	return s
}

// Queue validates the action type against the closed set and persists a
// pending action. Unknown types are rejected with UNKNOWN_ACTION_TYPE
// and nothing is written.
func (s *ActionService) Queue(ctx context.Context, ownerID string, actionType domain.ActionType, payload json.RawMessage) (*domain.Action, error) {
	ctx, span := telemetry.StartSpan(ctx, "ActionService.Queue", telemetry.SpanAttributes{
		OwnerID:   ownerID,
		Operation: "queue",
	})
	defer span.End()

	if !domain.IsValidActionType(actionType) {
		return nil, domain.ErrUnknownActionType
	}

	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}
	if !json.Valid(payload) {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "action payload is not valid JSON")
	}

	action := domain.NewAction(s.uuidGen.NewString(), ownerID, actionType, payload, time.Now().UTC())

	if err := domain.ValidateAction(action); err != nil {
		return nil, err
	}

	if err := s.actionRepo.Create(ctx, action); err != nil {
		span.SetError(err)
		return nil, err
	}

	return action, nil
}

// Get fetches one action by ID.
func (s *ActionService) Get(ctx context.Context, ownerID, actionID string) (*domain.Action, error) {
	return s.actionRepo.GetByOwnerAndID(ctx, ownerID, actionID)
}

// ExecutePending claims up to limit pending actions (all of them when
// limit <= 0) and executes them sequentially, oldest first. The claim
// flips each row to running atomically, so concurrent callers never
// execute the same action twice. Each action lands in success or
// failed; one failure does not stop the rest of the batch.
func (s *ActionService) ExecutePending(ctx context.Context, ownerID string, limit int) (*ExecutionReport, error) {
	ctx, span := telemetry.StartSpan(ctx, "ActionService.ExecutePending", telemetry.SpanAttributes{
		OwnerID:   ownerID,
		Operation: "execute_pending",
	})
	defer span.End()

	claimed, err := s.actionRepo.ClaimPending(ctx, ownerID, limit)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	report := &ExecutionReport{Actions: claimed}

	for _, action := range claimed {
		report.Executed++

		result, execErr := s.invoke(ctx, action)
		completedAt := time.Now().UTC()

		if execErr != nil {
			report.Failed++
			action.Status = domain.ActionStatusFailed
			action.ErrorLog = execErr.Error()
			action.CompletedAt = &completedAt
			if err := s.actionRepo.MarkFailed(ctx, action.ID, execErr.Error()); err != nil {
				span.SetError(err)
				return report, err
			}
			continue
		}

		report.Succeeded++
		action.Status = domain.ActionStatusSuccess
		action.Result = result
		action.CompletedAt = &completedAt
		if err := s.actionRepo.MarkSucceeded(ctx, action.ID, result); err != nil {
			span.SetError(err)
			return report, err
		}
	}

	return report, nil
}

// Cancel moves a pending action to cancelled. Actions that have already
// started, finished or been cancelled are left untouched and the call
// fails with INVALID_OPERATION.
func (s *ActionService) Cancel(ctx context.Context, ownerID, actionID string) error {
	ctx, span := telemetry.StartSpan(ctx, "ActionService.Cancel", telemetry.SpanAttributes{
		OwnerID:   ownerID,
		ActionID:  actionID,
		Operation: "cancel",
	})
	defer span.End()

	return s.actionRepo.Cancel(ctx, ownerID, actionID)
}

// History returns a filtered page of the owner's actions, newest first.
func (s *ActionService) History(ctx context.Context, ownerID string, filter ActionHistoryFilter) (*ActionHistoryOutput, error) {
	if filter.Status != "" && !domain.IsValidActionStatus(filter.Status) {
		return nil, domain.ErrInvalidActionStatus
	}
	if filter.Type != "" && !domain.IsValidActionType(filter.Type) {
		return nil, domain.ErrUnknownActionType
	}

	var cursor *pagination.Cursor
	if filter.Cursor != "" {
		c, err := pagination.Decode(filter.Cursor)
		if err != nil {
			return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid cursor", err)
		}
		cursor = c
	}

	limit := pagination.ClampLimit(filter.Limit)

	actions, err := s.actionRepo.History(ctx, ownerID, filter.Status, filter.Type, cursor, limit+1)
	if err != nil {
		return nil, err
	}

	out := &ActionHistoryOutput{Actions: actions}
	if len(actions) > limit {
		out.Actions = actions[:limit]
		out.HasMore = true
		last := out.Actions[len(out.Actions)-1]
		out.Cursor = pagination.Encode(last.ID, last.CreatedAt)
	}

	return out, nil
}

// invoke runs one handler and converts panics into ordinary failures so
// a misbehaving handler cannot take down the batch.
func (s *ActionService) invoke(ctx context.Context, action *domain.Action) (result json.RawMessage, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()

	if s.invoker == nil {
		return nil, domain.NewDomainError(domain.ErrCodeInternalError, "no action handlers registered")
	}

	return s.invoker.Invoke(ctx, action)
}
