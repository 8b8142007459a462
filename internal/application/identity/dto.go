package identity

import (
	"time"

	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// FormPage is a form rendered in the tenant language
type FormPage struct {
	Lang   string            `json:"lang"`
	Labels map[string]string `json:"labels"`
}

// LoginInput contains the input for user login
type LoginInput struct {
	TenantID uuid.UUID
	Username string
	Password string
	IP       string // Client IP for login tracking
}

// LoginResult contains the result of a successful login
type LoginResult struct {
	AccessToken           string
	RefreshToken          string
	AccessTokenExpiresAt  time.Time
	RefreshTokenExpiresAt time.Time
	TokenType             string
	User                  UserInfo
}

// UserInfo contains basic user information returned after login
type UserInfo struct {
	ID            uuid.UUID  `json:"id"`
	TenantID      uuid.UUID  `json:"tenant_id"`
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	FullName      string     `json:"full_name,omitempty"`
	IsAdmin       bool       `json:"is_admin"`
	SalesPersonID *uuid.UUID `json:"sales_person_id,omitempty"`
	Lang          string     `json:"lang"`
}

// RefreshTokenInput contains the input for token refresh
type RefreshTokenInput struct {
	RefreshToken string
}

// RefreshTokenResult contains the result of a token refresh
type RefreshTokenResult struct {
	AccessToken           string
	RefreshToken          string
	AccessTokenExpiresAt  time.Time
	RefreshTokenExpiresAt time.Time
	TokenType             string
}

// LogoutInput contains the input for user logout
type LogoutInput struct {
	UserID       uuid.UUID
	TenantID     uuid.UUID
	TokenJTI     string        // JTI of the access token in use
	TokenTTL     time.Duration // remaining lifetime of that token
	RefreshToken string        // optional, revoked as well when given
}

// MeInput identifies the caller of Me
type MeInput struct {
	TenantID uuid.UUID
	UserID   uuid.UUID
	Lang     string
}

// CardRow is one localized row of the sales person card
type CardRow struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// MeResult is the current user with the card of their sales person
type MeResult struct {
	User UserInfo  `json:"user"`
	Card []CardRow `json:"card,omitempty"`
}

// RegisterInput contains the registration form
type RegisterInput struct {
	TenantID  uuid.UUID
	Username  string
	Email     string
	Password1 string
	Password2 string
}

// RegisterResult describes the created pending user
type RegisterResult struct {
	UserID             uuid.UUID `json:"user_id"`
	Username           string    `json:"username"`
	Email              string    `json:"email"`
	Status             string    `json:"status"`
	ActivationMailSent bool      `json:"activation_mail_sent"`
}

// UserDTO represents a user of the tenant
type UserDTO struct {
	ID          uuid.UUID  `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name,omitempty"`
	LastName    string     `json:"last_name,omitempty"`
	IsAdmin     bool       `json:"is_admin"`
	Status      string     `json:"status"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ToUserDTO converts a domain user
func ToUserDTO(u *identity.User) UserDTO {
	return UserDTO{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		IsAdmin:     u.IsAdmin,
		Status:      string(u.Status),
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

// ListUsersInput is the user list query of an administrator
type ListUsersInput struct {
	TenantID     uuid.UUID
	ActorIsAdmin bool
	Lang         string
	Filter       shared.Filter
}

// UserListItem is a user row annotated with their sales person
type UserListItem struct {
	ID              uuid.UUID  `json:"id"`
	Username        string     `json:"username"`
	Email           string     `json:"email"`
	FullName        string     `json:"full_name,omitempty"`
	IsAdmin         bool       `json:"is_admin"`
	Status          string     `json:"status"`
	LastLoginAt     *time.Time `json:"last_login_at,omitempty"`
	SalesPersonID   *uuid.UUID `json:"sales_person_id,omitempty"`
	SalesPersonName string     `json:"sales_person_name"`
	Role            string     `json:"role"`
	RoleLabel       string     `json:"role_label"`
}

// UserListResult is a page of users. EmptyText is set when the page is empty.
type UserListResult struct {
	shared.Paginated[UserListItem]
	EmptyText string `json:"empty_text,omitempty"`
}

// DeleteUserInput contains the input for deleting a user
type DeleteUserInput struct {
	TenantID     uuid.UUID
	ActorID      uuid.UUID
	ActorIsAdmin bool
	UserID       uuid.UUID
}
