package identity

import (
	"context"
	"time"

	"github.com/crm/backend/internal/domain/crm"
	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/auth"
	"github.com/crm/backend/internal/infrastructure/i18n"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserService handles user management for tenant administrators
type UserService struct {
	userRepo       identity.UserRepository
	blacklist      auth.TokenBlacklist
	translator     *i18n.Translator
	eventPublisher shared.EventPublisher
	// revokeTTL covers the longest lived token of a deleted user
	revokeTTL time.Duration
	logger    *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(
	userRepo identity.UserRepository,
	blacklist auth.TokenBlacklist,
	translator *i18n.Translator,
	eventPublisher shared.EventPublisher,
	revokeTTL time.Duration,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		userRepo:       userRepo,
		blacklist:      blacklist,
		translator:     translator,
		eventPublisher: eventPublisher,
		revokeTTL:      revokeTTL,
		logger:         logger,
	}
}

// List returns a page of users with the first name and the localized role
// of their sales person. Users without one get empty values.
func (s *UserService) List(ctx context.Context, input ListUsersInput) (*UserListResult, error) {
	if !input.ActorIsAdmin {
		return nil, shared.ErrForbidden
	}
	filter := input.Filter.Normalize()
	lang := s.translator.Normalize(input.Lang)

	rows, total, err := s.userRepo.ListSummaries(ctx, input.TenantID, filter)
	if err != nil {
		s.logger.Error("Failed to list users", zap.Error(err))
		return nil, err
	}

	items := make([]UserListItem, 0, len(rows))
	for _, row := range rows {
		item := UserListItem{
			ID:              row.ID,
			Username:        row.Username,
			Email:           row.Email,
			FullName:        joinName(row.FirstName, row.LastName),
			IsAdmin:         row.IsAdmin,
			Status:          string(row.Status),
			LastLoginAt:     row.LastLoginAt,
			SalesPersonID:   row.SalesPersonID,
			SalesPersonName: row.SalesPersonName,
			Role:            row.SalesPersonRole,
		}
		if row.SalesPersonRole != "" {
			item.RoleLabel = s.translator.T(lang, crm.SalesRole(row.SalesPersonRole).LabelKey())
		}
		items = append(items, item)
	}

	result := &UserListResult{
		Paginated: shared.NewPaginated(items, total, filter.Page, filter.PageSize),
	}
	if len(items) == 0 {
		result.EmptyText = s.translator.T(lang, "empty.users")
	}
	return result, nil
}

// Get returns a user of the tenant
func (s *UserService) Get(ctx context.Context, tenantID, id uuid.UUID) (*UserDTO, error) {
	user, err := s.userRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	dto := ToUserDTO(user)
	return &dto, nil
}

// Delete removes a user together with the linked sales person and its
// records, and revokes every token of the user. Administrators only, and
// never their own account.
func (s *UserService) Delete(ctx context.Context, input DeleteUserInput) error {
	if !input.ActorIsAdmin {
		return shared.ErrForbidden
	}
	if input.ActorID == input.UserID {
		return shared.NewDomainError("CANNOT_DELETE_SELF", "You cannot delete your own account")
	}

	user, err := s.userRepo.FindByID(ctx, input.TenantID, input.UserID)
	if err != nil {
		return err
	}
	if err := s.userRepo.Delete(ctx, input.TenantID, input.UserID); err != nil {
		s.logger.Error("Failed to delete user",
			zap.String("user_id", input.UserID.String()),
			zap.Error(err))
		return err
	}

	if err := s.blacklist.AddUserTokensToBlacklist(ctx, user.ID.String(), s.revokeTTL); err != nil {
		s.logger.Error("Failed to revoke tokens of deleted user",
			zap.String("user_id", user.ID.String()),
			zap.Error(err))
	}

	s.logger.Info("User deleted",
		zap.String("tenant_id", input.TenantID.String()),
		zap.String("user_id", user.ID.String()),
		zap.String("deleted_by", input.ActorID.String()))

	if s.eventPublisher != nil {
		event := identity.NewUserDeletedEvent(user, input.ActorID.String())
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			s.logger.Warn("Failed to publish user deleted event", zap.Error(err))
		}
	}
	return nil
}

func joinName(first, last string) string {
	switch {
	case first == "":
		return last
	case last == "":
		return first
	}
	return first + " " + last
}
