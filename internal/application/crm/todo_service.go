package crm

import (
	"context"
	"time"

	"github.com/crm/backend/internal/domain/crm"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/i18n"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TodoService handles the planned actions of sales people
type TodoService struct {
	repo            crm.TodoRepository
	salesPersonRepo crm.SalesPersonRepository
	translator      *i18n.Translator
	eventPublisher  shared.EventPublisher
	logger          *zap.Logger
}

// NewTodoService creates a new TodoService
func NewTodoService(
	repo crm.TodoRepository,
	salesPersonRepo crm.SalesPersonRepository,
	translator *i18n.Translator,
	eventPublisher shared.EventPublisher,
	logger *zap.Logger,
) *TodoService {
	return &TodoService{
		repo:            repo,
		salesPersonRepo: salesPersonRepo,
		translator:      translator,
		eventPublisher:  eventPublisher,
		logger:          logger,
	}
}

// Create plans a new action
func (s *TodoService) Create(ctx context.Context, actor Actor, req TodoRequest) (*TodoResponse, error) {
	input, err := s.toInput(ctx, actor, req)
	if err != nil {
		return nil, err
	}
	todo, err := crm.NewTodo(actor.TenantID, input)
	if err != nil {
		return nil, err
	}
	todo.SetCreatedBy(actor.UserID)

	if err := s.repo.Create(ctx, todo); err != nil {
		s.logger.Error("Failed to create todo", zap.Error(err))
		return nil, err
	}
	resp := s.toResponse(todo, newLabeler(s.translator, actor.Lang), time.Now())
	return &resp, nil
}

// GetByID retrieves a todo by ID
func (s *TodoService) GetByID(ctx context.Context, actor Actor, id uuid.UUID) (*TodoResponse, error) {
	todo, err := s.find(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	resp := s.toResponse(todo, newLabeler(s.translator, actor.Lang), time.Now())
	return &resp, nil
}

// List retrieves a page of todos filtered by sales person, action, state and due range
func (s *TodoService) List(ctx context.Context, actor Actor, filter TodoListFilter) (*ListResult[TodoResponse], error) {
	f := filter.Filter.Normalize()
	if f.OrderBy == "" || f.OrderBy == "created_at" {
		f.OrderBy = "due_at"
		f.OrderDir = "asc"
	}
	query := crm.TodoFilter{
		Filter:        f,
		SalesPersonID: actor.scopeSalesPerson(filter.SalesPersonID),
		Done:          filter.Done,
		DueFrom:       filter.DueFrom,
		DueTo:         filter.DueTo,
	}
	if filter.Action != "" {
		action := crm.TodoAction(filter.Action)
		if !action.IsValid() {
			return nil, shared.NewFieldError("INVALID_ACTION", "action", "Unknown action: "+filter.Action)
		}
		query.Action = &action
	}

	todos, total, err := s.repo.FindAll(ctx, actor.TenantID, query)
	if err != nil {
		return nil, err
	}
	l := newLabeler(s.translator, actor.Lang)
	now := time.Now()
	items := make([]TodoResponse, len(todos))
	for i, t := range todos {
		items[i] = s.toResponse(t, l, now)
	}
	return newListResult(items, total, f, l.emptyText(total, "todos")), nil
}

// Update replaces the editable fields of a todo
func (s *TodoService) Update(ctx context.Context, actor Actor, id uuid.UUID, req TodoRequest) (*TodoResponse, error) {
	todo, err := s.find(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if req.SalesPersonID == uuid.Nil {
		req.SalesPersonID = todo.SalesPersonID
	}
	input, err := s.toInput(ctx, actor, req)
	if err != nil {
		return nil, err
	}
	if err := todo.Update(input); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, todo); err != nil {
		return nil, err
	}
	resp := s.toResponse(todo, newLabeler(s.translator, actor.Lang), time.Now())
	return &resp, nil
}

// Delete removes a todo
func (s *TodoService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	if _, err := s.find(ctx, actor, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, actor.TenantID, id)
}

// Complete marks a todo as done
func (s *TodoService) Complete(ctx context.Context, actor Actor, id uuid.UUID) (*TodoResponse, error) {
	todo, err := s.find(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := todo.Complete(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, todo); err != nil {
		return nil, err
	}
	publishEvents(ctx, s.eventPublisher, s.logger, todo)

	resp := s.toResponse(todo, newLabeler(s.translator, actor.Lang), time.Now())
	return &resp, nil
}

// Reopen marks a done todo as open again
func (s *TodoService) Reopen(ctx context.Context, actor Actor, id uuid.UUID) (*TodoResponse, error) {
	todo, err := s.find(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := todo.Reopen(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, todo); err != nil {
		return nil, err
	}
	resp := s.toResponse(todo, newLabeler(s.translator, actor.Lang), time.Now())
	return &resp, nil
}

func (s *TodoService) find(ctx context.Context, actor Actor, id uuid.UUID) (*crm.Todo, error) {
	todo, err := s.repo.FindByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(todo.SalesPersonID) {
		return nil, shared.ErrNotFound
	}
	return todo, nil
}

func (s *TodoService) toInput(ctx context.Context, actor Actor, req TodoRequest) (crm.TodoInput, error) {
	owner, err := actor.ownerFor(req.SalesPersonID)
	if err != nil {
		return crm.TodoInput{}, err
	}
	if err := ensureSalesPerson(ctx, s.salesPersonRepo, actor.TenantID, owner); err != nil {
		return crm.TodoInput{}, err
	}
	return crm.TodoInput{
		SalesPersonID:     owner,
		Action:            crm.TodoAction(req.Action),
		ActionDescription: req.ActionDescription,
		DueAt:             req.DueAt,
	}, nil
}

func (s *TodoService) toResponse(t *crm.Todo, l labeler, now time.Time) TodoResponse {
	return TodoResponse{
		ID:                t.ID,
		SalesPersonID:     t.SalesPersonID,
		Action:            choiceOf(l, t.Action),
		ActionDescription: t.ActionDescription,
		DueAt:             t.DueAt,
		Done:              t.Done,
		DoneAt:            t.DoneAt,
		RemindedAt:        t.RemindedAt,
		Overdue:           t.IsOverdue(now),
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
		Version:           t.Version,
	}
}
