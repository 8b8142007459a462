package event

import (
	"context"
	"fmt"

	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/cache"
	"go.uber.org/zap"
)

// HandlerFunc adapts a function to shared.EventHandler
type HandlerFunc struct {
	fn    func(ctx context.Context, event shared.DomainEvent) error
	types []string
}

// NewHandlerFunc creates a handler for eventTypes, or for all events when none are given
func NewHandlerFunc(fn func(ctx context.Context, event shared.DomainEvent) error, eventTypes ...string) *HandlerFunc {
	return &HandlerFunc{fn: fn, types: eventTypes}
}

func (h *HandlerFunc) Handle(ctx context.Context, event shared.DomainEvent) error {
	return h.fn(ctx, event)
}

func (h *HandlerFunc) EventTypes() []string { return h.types }

// AuditLogHandler writes every domain event to the log
type AuditLogHandler struct {
	logger *zap.Logger
}

// NewAuditLogHandler creates an AuditLogHandler
func NewAuditLogHandler(logger *zap.Logger) *AuditLogHandler {
	return &AuditLogHandler{logger: logger.Named("audit")}
}

func (h *AuditLogHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.logger.Info(event.EventType(),
		zap.String("event_id", event.EventID().String()),
		zap.String("tenant_id", event.TenantID().String()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
	)
	return nil
}

func (h *AuditLogHandler) EventTypes() []string { return nil }

// TenantCacheInvalidator drops the cached tenant when its status or
// language changes, so the next request sees the new values.
type TenantCacheInvalidator struct {
	cache   cache.TenantCache
	tenants identity.TenantRepository
	logger  *zap.Logger
}

// NewTenantCacheInvalidator creates a TenantCacheInvalidator
func NewTenantCacheInvalidator(c cache.TenantCache, tenants identity.TenantRepository, logger *zap.Logger) *TenantCacheInvalidator {
	return &TenantCacheInvalidator{cache: c, tenants: tenants, logger: logger}
}

func (h *TenantCacheInvalidator) Handle(ctx context.Context, event shared.DomainEvent) error {
	tenant, err := h.tenants.FindByID(ctx, event.AggregateID())
	if err != nil {
		return fmt.Errorf("load tenant %s: %w", event.AggregateID(), err)
	}
	if err := h.cache.Invalidate(ctx, cache.TenantInfoFromDomain(tenant)); err != nil {
		return fmt.Errorf("invalidate tenant %s: %w", tenant.ID, err)
	}
	h.logger.Debug("Tenant cache invalidated",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("event_type", event.EventType()),
	)
	return nil
}

func (h *TenantCacheInvalidator) EventTypes() []string {
	return []string{
		identity.EventTypeTenantStatusChanged,
		identity.EventTypeTenantLanguageChanged,
	}
}
