package identity

import (
	"github.com/crm/backend/internal/domain/shared"
)

// AggregateTypeUser is the aggregate type of user events
const AggregateTypeUser = "User"

const (
	EventTypeUserCreated         = "UserCreated"
	EventTypeUserActivated       = "UserActivated"
	EventTypeUserDeactivated     = "UserDeactivated"
	EventTypeUserDeleted         = "UserDeleted"
	EventTypeUserPasswordChanged = "UserPasswordChanged"
)

// UserCreatedEvent is published when a user registers or is created by an admin
type UserCreatedEvent struct {
	shared.BaseDomainEvent
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	Status        UserStatus `json:"status"`
	ActivationKey string     `json:"-"`
}

// NewUserCreatedEvent creates a UserCreatedEvent
func NewUserCreatedEvent(user *User) *UserCreatedEvent {
	return &UserCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserCreated, AggregateTypeUser, user.ID, user.TenantID),
		Username:        user.Username,
		Email:           user.Email,
		Status:          user.Status,
		ActivationKey:   user.ActivationKey,
	}
}

// UserActivatedEvent is published when a pending user confirms the e-mail
type UserActivatedEvent struct {
	shared.BaseDomainEvent
	Username string `json:"username"`
}

// NewUserActivatedEvent creates a UserActivatedEvent
func NewUserActivatedEvent(user *User) *UserActivatedEvent {
	return &UserActivatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserActivated, AggregateTypeUser, user.ID, user.TenantID),
		Username:        user.Username,
	}
}

// UserDeactivatedEvent is published when a user is deactivated
type UserDeactivatedEvent struct {
	shared.BaseDomainEvent
	Username string `json:"username"`
}

// NewUserDeactivatedEvent creates a UserDeactivatedEvent
func NewUserDeactivatedEvent(user *User) *UserDeactivatedEvent {
	return &UserDeactivatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserDeactivated, AggregateTypeUser, user.ID, user.TenantID),
		Username:        user.Username,
	}
}

// UserDeletedEvent is published after a user is removed
type UserDeletedEvent struct {
	shared.BaseDomainEvent
	Username  string `json:"username"`
	DeletedBy string `json:"deleted_by"`
}

// NewUserDeletedEvent creates a UserDeletedEvent
func NewUserDeletedEvent(user *User, deletedBy string) *UserDeletedEvent {
	return &UserDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserDeleted, AggregateTypeUser, user.ID, user.TenantID),
		Username:        user.Username,
		DeletedBy:       deletedBy,
	}
}

// UserPasswordChangedEvent is published when a user's password is changed
type UserPasswordChangedEvent struct {
	shared.BaseDomainEvent
	Username string `json:"username"`
}

// NewUserPasswordChangedEvent creates a UserPasswordChangedEvent
func NewUserPasswordChangedEvent(user *User) *UserPasswordChangedEvent {
	return &UserPasswordChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserPasswordChanged, AggregateTypeUser, user.ID, user.TenantID),
		Username:        user.Username,
	}
}
