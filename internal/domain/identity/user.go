package identity

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/crypto/bcrypt"
)

// UserStatus represents the status of a user
type UserStatus string

const (
	UserStatusPending     UserStatus = "pending"     // Awaiting e-mail activation
	UserStatusActive      UserStatus = "active"      // Normal active status
	UserStatusLocked      UserStatus = "locked"      // Locked due to failed attempts
	UserStatusDeactivated UserStatus = "deactivated" // Manually deactivated
)

const (
	bcryptCost = bcrypt.DefaultCost

	usernameMaxLength = 30
	passwordMinLength = 8
	passwordMaxLength = 128

	activationKeyLength = 40
	activationKeyTTL    = 24 * time.Hour
)

var (
	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// User is an account that can log in to a tenant.
// A non-admin user needs a linked sales person to be allowed in.
type User struct {
	shared.TenantAggregateRoot
	Username       string
	Email          string
	FirstName      string
	LastName       string
	PasswordHash   string
	IsAdmin        bool
	IsStaff        bool
	Status         UserStatus
	ActivationKey  string
	ActivationExp  *time.Time
	LastLoginAt    *time.Time
	LastLoginIP    string
	FailedAttempts int
	LockedUntil    *time.Time
}

// NewUser creates a pending user that has to be activated with its activation key
func NewUser(tenantID uuid.UUID, username, email, password string) (*User, error) {
	username = strings.TrimSpace(username)
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	passwordHash, err := hashPassword(password)
	if err != nil {
		return nil, shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}
	key, err := gonanoid.New(activationKeyLength)
	if err != nil {
		return nil, shared.NewDomainError("ACTIVATION_KEY_ERROR", "Failed to generate activation key")
	}

	expires := time.Now().Add(activationKeyTTL)
	user := &User{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Username:            username,
		Email:               email,
		PasswordHash:        passwordHash,
		Status:              UserStatusPending,
		ActivationKey:       key,
		ActivationExp:       &expires,
	}

	user.AddDomainEvent(NewUserCreatedEvent(user))

	return user, nil
}

// NewActiveUser creates a user that can log in right away
func NewActiveUser(tenantID uuid.UUID, username, email, password string) (*User, error) {
	user, err := NewUser(tenantID, username, email, password)
	if err != nil {
		return nil, err
	}
	user.Status = UserStatusActive
	user.ActivationKey = ""
	user.ActivationExp = nil
	return user, nil
}

// NewTenantAdmin creates the active administrator a new tenant starts with
func NewTenantAdmin(tenantID uuid.UUID, username, email, password string) (*User, error) {
	user, err := NewActiveUser(tenantID, username, email, password)
	if err != nil {
		return nil, err
	}
	user.IsAdmin = true
	user.IsStaff = true
	return user, nil
}

// SetName sets first and last name
func (u *User) SetName(firstName, lastName string) error {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	if len([]rune(firstName)) > 150 || len([]rune(lastName)) > 150 {
		return shared.NewDomainError("INVALID_NAME", "Name cannot exceed 150 characters")
	}
	u.FirstName = firstName
	u.LastName = lastName
	u.IncrementVersion()
	return nil
}

// FullName returns "first last", or the username when both are empty
func (u *User) FullName() string {
	full := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if full == "" {
		return u.Username
	}
	return full
}

// SetEmail sets the user's email
func (u *User) SetEmail(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validateEmail(email); err != nil {
		return err
	}
	u.Email = email
	u.IncrementVersion()
	return nil
}

// GrantAdmin marks the user as tenant administrator
func (u *User) GrantAdmin() {
	u.IsAdmin = true
	u.IsStaff = true
	u.IncrementVersion()
}

// RevokeAdmin removes administrator rights
func (u *User) RevokeAdmin() {
	u.IsAdmin = false
	u.IncrementVersion()
}

// ChangePassword changes the user's password
func (u *User) ChangePassword(oldPassword, newPassword string) error {
	if !u.VerifyPassword(oldPassword) {
		return shared.NewDomainError("INVALID_PASSWORD", "Current password is incorrect")
	}
	return u.SetPassword(newPassword)
}

// SetPassword sets a new password without checking the old one
func (u *User) SetPassword(newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	passwordHash, err := hashPassword(newPassword)
	if err != nil {
		return shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}
	u.PasswordHash = passwordHash
	u.IncrementVersion()
	u.AddDomainEvent(NewUserPasswordChangedEvent(u))
	return nil
}

// VerifyPassword checks the password against the stored hash
func (u *User) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// Activate consumes the activation key and makes the user active
func (u *User) Activate(key string) error {
	if u.Status != UserStatusPending {
		return shared.NewDomainError("INVALID_STATE", "Only pending users can be activated")
	}
	if key == "" || key != u.ActivationKey {
		return shared.NewDomainError("INVALID_ACTIVATION_KEY", "Activation key is invalid")
	}
	if u.ActivationExp != nil && time.Now().After(*u.ActivationExp) {
		return shared.NewDomainError("ACTIVATION_KEY_EXPIRED", "Activation key has expired")
	}
	u.Status = UserStatusActive
	u.ActivationKey = ""
	u.ActivationExp = nil
	u.IncrementVersion()
	u.AddDomainEvent(NewUserActivatedEvent(u))
	return nil
}

// Deactivate disables the user
func (u *User) Deactivate() error {
	if u.Status == UserStatusDeactivated {
		return shared.NewDomainError("INVALID_STATE", "User is already deactivated")
	}
	u.Status = UserStatusDeactivated
	u.IncrementVersion()
	u.AddDomainEvent(NewUserDeactivatedEvent(u))
	return nil
}

// Reactivate brings a deactivated or locked user back
func (u *User) Reactivate() error {
	if u.Status == UserStatusActive || u.Status == UserStatusPending {
		return shared.NewDomainError("INVALID_STATE", "User is not deactivated or locked")
	}
	u.Status = UserStatusActive
	u.FailedAttempts = 0
	u.LockedUntil = nil
	u.IncrementVersion()
	return nil
}

// Lock locks the account for the given duration
func (u *User) Lock(duration time.Duration) {
	until := time.Now().Add(duration)
	u.Status = UserStatusLocked
	u.LockedUntil = &until
	u.IncrementVersion()
}

// RecordLoginSuccess records a successful login
func (u *User) RecordLoginSuccess(ip string) {
	now := time.Now()
	u.LastLoginAt = &now
	u.LastLoginIP = ip
	u.FailedAttempts = 0
	if u.Status == UserStatusLocked {
		u.Status = UserStatusActive
		u.LockedUntil = nil
	}
	u.IncrementVersion()
}

// RecordLoginFailure records a failed login and locks the account when the
// number of failures reaches maxAttempts. Returns true if the user got locked.
func (u *User) RecordLoginFailure(maxAttempts int, lockDuration time.Duration) bool {
	u.FailedAttempts++
	u.IncrementVersion()
	if maxAttempts > 0 && u.FailedAttempts >= maxAttempts {
		u.Lock(lockDuration)
		return true
	}
	return false
}

func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

func (u *User) IsPending() bool {
	return u.Status == UserStatusPending
}

func (u *User) IsDeactivated() bool {
	return u.Status == UserStatusDeactivated
}

// IsLocked returns true while a lock is in effect. An expired lock does not count.
func (u *User) IsLocked() bool {
	if u.Status != UserStatusLocked {
		return false
	}
	return u.LockedUntil == nil || time.Now().Before(*u.LockedUntil)
}

// CanLogin returns true if the account state allows a login
func (u *User) CanLogin() bool {
	switch u.Status {
	case UserStatusActive:
		return true
	case UserStatusLocked:
		return !u.IsLocked()
	default:
		return false
	}
}

func validateUsername(username string) error {
	if username == "" {
		return shared.NewFieldError("INVALID_USERNAME", "username", "Username cannot be empty")
	}
	if len([]rune(username)) > usernameMaxLength {
		return shared.NewFieldError("INVALID_USERNAME", "username", "Username cannot exceed 30 characters")
	}
	if !usernamePattern.MatchString(username) {
		return shared.NewFieldError("INVALID_USERNAME", "username",
			"Username can only contain letters, digits and @/./+/-/_")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < passwordMinLength {
		return shared.NewFieldError("INVALID_PASSWORD", "password", "Password must be at least 8 characters")
	}
	if len(password) > passwordMaxLength {
		return shared.NewFieldError("INVALID_PASSWORD", "password", "Password cannot exceed 128 characters")
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return shared.NewFieldError("INVALID_PASSWORD", "password", "Password must contain letters and digits")
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return shared.NewFieldError("INVALID_EMAIL", "email", "Email cannot be empty")
	}
	if len(email) > 254 {
		return shared.NewFieldError("INVALID_EMAIL", "email", "Email cannot exceed 254 characters")
	}
	if !emailPattern.MatchString(email) {
		return shared.NewFieldError("INVALID_EMAIL", "email", "Invalid email format")
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
