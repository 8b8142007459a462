package crm

import (
	"context"

	identityapp "github.com/crm/backend/internal/application/identity"
	"github.com/crm/backend/internal/domain/crm"
	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/i18n"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SalesPersonService manages the sales team of a tenant
type SalesPersonService struct {
	repo           crm.SalesPersonRepository
	userRepo       identity.UserRepository
	avatars        *AvatarStore
	translator     *i18n.Translator
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewSalesPersonService creates a new sales person service
func NewSalesPersonService(
	repo crm.SalesPersonRepository,
	userRepo identity.UserRepository,
	avatars *AvatarStore,
	translator *i18n.Translator,
	eventPublisher shared.EventPublisher,
	logger *zap.Logger,
) *SalesPersonService {
	return &SalesPersonService{
		repo:           repo,
		userRepo:       userRepo,
		avatars:        avatars,
		translator:     translator,
		eventPublisher: eventPublisher,
		logger:         logger,
	}
}

// Create links an existing user of the tenant to a new sales person.
// A user can be linked to one sales person only.
func (s *SalesPersonService) Create(ctx context.Context, actor Actor, req CreateSalesPersonRequest) (*SalesPersonResponse, error) {
	if err := actor.requireAdmin(); err != nil {
		return nil, err
	}
	if _, err := s.userRepo.FindByID(ctx, actor.TenantID, req.UserID); err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.NewFieldError("INVALID_USER", "user_id", "User does not exist")
		}
		return nil, err
	}
	exists, err := s.repo.ExistsByUserID(ctx, actor.TenantID, req.UserID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewFieldError("SALESPERSON_EXISTS", "user_id", "The user is already linked to a sales person")
	}
	if err := s.checkLang(req.Lang); err != nil {
		return nil, err
	}

	sp, err := crm.NewSalesPerson(actor.TenantID, req.UserID, crm.SalesPersonInput{
		FirstName:    req.FirstName,
		SecondName:   req.SecondName,
		PhoneNumber:  req.PhoneNumber,
		MobileNumber: req.MobileNumber,
		Division:     req.Division,
		Role:         crm.SalesRole(req.Role),
		Lang:         req.Lang,
	})
	if err != nil {
		return nil, err
	}
	sp.SetCreatedBy(actor.UserID)

	if err := s.repo.Create(ctx, sp); err != nil {
		s.logger.Error("Failed to create sales person", zap.Error(err))
		return nil, err
	}
	s.logger.Info("Sales person created",
		zap.String("sales_person_id", sp.ID.String()),
		zap.String("user_id", sp.UserID.String()))

	publishEvents(ctx, s.eventPublisher, s.logger, sp)
	resp := s.toResponse(ctx, sp, newLabeler(s.translator, actor.Lang))
	return &resp, nil
}

// GetByID returns a sales person visible to the actor
func (s *SalesPersonService) GetByID(ctx context.Context, actor Actor, id uuid.UUID) (*SalesPersonResponse, error) {
	sp, err := s.find(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	resp := s.toResponse(ctx, sp, newLabeler(s.translator, actor.Lang))
	return &resp, nil
}

// List returns a page of sales people. Non-admins only see themselves.
func (s *SalesPersonService) List(ctx context.Context, actor Actor, filter SalesPersonListFilter) (*ListResult[SalesPersonResponse], error) {
	f := filter.Filter.Normalize()
	query := crm.SalesPersonFilter{Filter: f, Division: filter.Division}
	if filter.Role != "" {
		role := crm.SalesRole(filter.Role)
		if !role.IsValid() {
			return nil, shared.NewFieldError("INVALID_ROLE", "role", "Unknown sales role: "+filter.Role)
		}
		query.Role = &role
	}

	people, total, err := s.repo.FindAll(ctx, actor.TenantID, query)
	if err != nil {
		return nil, err
	}
	l := newLabeler(s.translator, actor.Lang)
	items := make([]SalesPersonResponse, 0, len(people))
	for _, sp := range people {
		if !actor.CanAccess(sp.ID) {
			continue
		}
		items = append(items, s.toResponse(ctx, sp, l))
	}
	if !actor.IsAdmin {
		total = int64(len(items))
	}
	return newListResult(items, total, f, l.emptyText(total, "sales_persons")), nil
}

// Update replaces the editable fields. A sales person may edit their own
// record but not their role.
func (s *SalesPersonService) Update(ctx context.Context, actor Actor, id uuid.UUID, req UpdateSalesPersonRequest) (*SalesPersonResponse, error) {
	sp, err := s.find(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkLang(req.Lang); err != nil {
		return nil, err
	}
	role := crm.SalesRole(req.Role)
	if !actor.IsAdmin || role == "" {
		role = sp.Role
	}
	if err := sp.Update(crm.SalesPersonInput{
		FirstName:    req.FirstName,
		SecondName:   req.SecondName,
		PhoneNumber:  req.PhoneNumber,
		MobileNumber: req.MobileNumber,
		Division:     req.Division,
		Role:         role,
		Lang:         req.Lang,
	}); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, sp); err != nil {
		return nil, err
	}
	resp := s.toResponse(ctx, sp, newLabeler(s.translator, actor.Lang))
	return &resp, nil
}

// Delete removes a sales person together with the records it owns
func (s *SalesPersonService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	if err := actor.requireAdmin(); err != nil {
		return err
	}
	sp, err := s.repo.FindByID(ctx, actor.TenantID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, actor.TenantID, id); err != nil {
		s.logger.Error("Failed to delete sales person",
			zap.String("sales_person_id", id.String()),
			zap.Error(err))
		return err
	}
	s.avatars.Remove(ctx, sp.Avatar)
	s.logger.Info("Sales person deleted", zap.String("sales_person_id", id.String()))
	return nil
}

// Card returns the labelled display fields of a sales person
func (s *SalesPersonService) Card(ctx context.Context, actor Actor, id uuid.UUID) (*SalesPersonCard, error) {
	sp, err := s.find(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	var email, username string
	user, err := s.userRepo.FindByID(ctx, actor.TenantID, sp.UserID)
	switch {
	case err == nil:
		email, username = user.Email, user.Username
	case !shared.IsNotFound(err):
		return nil, err
	}

	lang := s.translator.Normalize(actor.Lang)
	return &SalesPersonCard{
		ID:        sp.ID,
		FullName:  sp.FullName(),
		AvatarURL: s.avatars.URL(ctx, sp.Avatar),
		Fields:    identityapp.LocalizeCard(s.translator, lang, sp.Card(email, username)),
	}, nil
}

// UploadAvatar replaces the avatar of a sales person
func (s *SalesPersonService) UploadAvatar(ctx context.Context, actor Actor, id uuid.UUID, upload AvatarUpload) (*SalesPersonResponse, error) {
	sp, err := s.find(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	key, err := s.avatars.Put(ctx, actor.TenantID, sp.ID, upload)
	if err != nil {
		return nil, err
	}
	old := sp.Avatar
	if err := sp.SetAvatar(key); err != nil {
		s.avatars.Remove(ctx, key)
		return nil, err
	}
	if err := s.repo.Update(ctx, sp); err != nil {
		sp.Avatar = old
		s.avatars.Remove(ctx, key)
		return nil, err
	}
	s.avatars.Remove(ctx, old)

	resp := s.toResponse(ctx, sp, newLabeler(s.translator, actor.Lang))
	return &resp, nil
}

func (s *SalesPersonService) find(ctx context.Context, actor Actor, id uuid.UUID) (*crm.SalesPerson, error) {
	sp, err := s.repo.FindByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(sp.ID) {
		return nil, shared.ErrNotFound
	}
	return sp, nil
}

func (s *SalesPersonService) checkLang(lang string) error {
	if lang != "" && !s.translator.Supported(lang) {
		return shared.NewFieldError("INVALID_LANG", "lang", "Unsupported language: "+lang)
	}
	return nil
}

func (s *SalesPersonService) toResponse(ctx context.Context, sp *crm.SalesPerson, l labeler) SalesPersonResponse {
	return SalesPersonResponse{
		ID:           sp.ID,
		UserID:       sp.UserID,
		FirstName:    sp.FirstName,
		SecondName:   sp.SecondName,
		FullName:     sp.FullName(),
		PhoneNumber:  sp.PhoneNumber,
		MobileNumber: sp.MobileNumber,
		AvatarURL:    s.avatars.URL(ctx, sp.Avatar),
		Division:     sp.Division,
		Role:         choiceOf(l, sp.Role),
		Lang:         sp.Lang,
		CreatedAt:    sp.CreatedAt,
		UpdatedAt:    sp.UpdatedAt,
		Version:      sp.Version,
	}
}
