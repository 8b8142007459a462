package crm

import (
	"strings"
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Todo is a planned action of a sales person
type Todo struct {
	shared.TenantAggregateRoot
	SalesPersonID     uuid.UUID
	Action            TodoAction
	ActionDescription string
	DueAt             time.Time
	Done              bool
	DoneAt            *time.Time
	RemindedAt        *time.Time
}

// TodoInput carries the editable fields of a todo
type TodoInput struct {
	SalesPersonID     uuid.UUID
	Action            TodoAction
	ActionDescription string
	DueAt             time.Time
}

// NewTodo creates an open todo
func NewTodo(tenantID uuid.UUID, in TodoInput) (*Todo, error) {
	t := &Todo{TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID)}
	if err := t.apply(in); err != nil {
		return nil, err
	}
	return t, nil
}

// Update replaces the editable fields. Moving the due time re-arms the reminder.
func (t *Todo) Update(in TodoInput) error {
	oldDue := t.DueAt
	if err := t.apply(in); err != nil {
		return err
	}
	if !oldDue.Equal(t.DueAt) {
		t.RemindedAt = nil
	}
	t.IncrementVersion()
	return nil
}

func (t *Todo) apply(in TodoInput) error {
	if in.SalesPersonID == uuid.Nil {
		return shared.NewFieldError("INVALID_SALES_PERSON", "sales_person_id", "Sales person is required")
	}
	if !in.Action.IsValid() {
		return shared.NewFieldError("INVALID_ACTION", "action", "Unknown action: "+string(in.Action))
	}
	description := strings.TrimSpace(in.ActionDescription)
	if description == "" {
		return shared.NewFieldError("INVALID_DESCRIPTION", "action_description", "Description cannot be empty")
	}
	if in.DueAt.IsZero() {
		return shared.NewFieldError("INVALID_DUE_AT", "due_at", "Date and time are required")
	}
	t.SalesPersonID = in.SalesPersonID
	t.Action = in.Action
	t.ActionDescription = description
	t.DueAt = in.DueAt.Truncate(time.Minute)
	return nil
}

// Complete marks the todo as done
func (t *Todo) Complete() error {
	if t.Done {
		return shared.NewDomainError("INVALID_STATE", "Todo is already done")
	}
	now := time.Now()
	t.Done = true
	t.DoneAt = &now
	t.IncrementVersion()
	t.AddDomainEvent(NewTodoCompletedEvent(t))
	return nil
}

// Reopen marks a done todo as open again
func (t *Todo) Reopen() error {
	if !t.Done {
		return shared.NewDomainError("INVALID_STATE", "Todo is not done")
	}
	t.Done = false
	t.DoneAt = nil
	t.IncrementVersion()
	return nil
}

// NeedsReminder reports whether a reminder should be sent at now. Only todos
// due within window on either side of now qualify, so a todo long overdue
// when it was created or when the scheduler was down is not reminded.
func (t *Todo) NeedsReminder(now time.Time, window time.Duration) bool {
	if t.Done || t.RemindedAt != nil {
		return false
	}
	return !t.DueAt.Before(now.Add(-window)) && !t.DueAt.After(now.Add(window))
}

// MarkReminded records that a reminder was sent
func (t *Todo) MarkReminded(at time.Time) {
	t.RemindedAt = &at
	t.IncrementVersion()
}

// IsOverdue reports whether the todo is open past its due time
func (t *Todo) IsOverdue(now time.Time) bool {
	return !t.Done && t.DueAt.Before(now)
}
