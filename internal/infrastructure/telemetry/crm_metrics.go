package telemetry

import (
	"context"
	"errors"
	"fmt"

	"github.com/crm/backend/internal/domain/crm"
	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/shared"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when metrics are created without a meter
var ErrMeterNil = errors.New("telemetry: meter is nil")

// Login results recorded by RecordLogin
const (
	LoginSuccess        = "success"
	LoginFailed         = "failed"
	LoginNoSalesPerson  = "no_sales_person"
	LoginAccountBlocked = "blocked"
)

// CRMMetrics counts business activity. Most counters are fed from domain
// events, so CRMMetrics subscribes to the event bus as a handler.
type CRMMetrics struct {
	dealsCreated       metric.Int64Counter
	dealAmount         metric.Float64Histogram
	dealStatusChanges  metric.Int64Counter
	todosCompleted     metric.Int64Counter
	entitiesCreated    metric.Int64Counter
	usersRegistered    metric.Int64Counter
	usersActivated     metric.Int64Counter
	tenantsCreated     metric.Int64Counter
	logins             metric.Int64Counter
	remindersDelivered metric.Int64Counter
}

// NewCRMMetrics creates the instruments on meter
func NewCRMMetrics(meter metric.Meter) (*CRMMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	m := &CRMMetrics{}
	var err error
	counter := func(name, desc string) metric.Int64Counter {
		if err != nil {
			return nil
		}
		var c metric.Int64Counter
		c, err = meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit("{count}"))
		if err != nil {
			err = fmt.Errorf("create %s: %w", name, err)
		}
		return c
	}

	m.dealsCreated = counter("crm.deals.created", "Deals opened")
	m.dealStatusChanges = counter("crm.deals.status_changes", "Deal status transitions")
	m.todosCompleted = counter("crm.todos.completed", "Todos marked done")
	m.entitiesCreated = counter("crm.entities.created", "Customers and sales people created")
	m.usersRegistered = counter("crm.users.registered", "User registrations")
	m.usersActivated = counter("crm.users.activated", "Users that activated their account")
	m.tenantsCreated = counter("crm.tenants.created", "Tenants provisioned")
	m.logins = counter("crm.auth.logins", "Login attempts by result")
	m.remindersDelivered = counter("crm.reminders.delivered", "Todo reminders delivered by channel")
	if err != nil {
		return nil, err
	}

	m.dealAmount, err = meter.Float64Histogram("crm.deals.amount",
		metric.WithDescription("Price of opened deals"),
		metric.WithExplicitBucketBoundaries(100, 1000, 10000, 100000, 1000000),
	)
	if err != nil {
		return nil, fmt.Errorf("create crm.deals.amount: %w", err)
	}
	return m, nil
}

// RecordLogin counts a login attempt with its result
func (m *CRMMetrics) RecordLogin(ctx context.Context, result string) {
	m.logins.Add(ctx, 1, metric.WithAttributes(AttrResult.String(result)))
}

// RecordReminders counts delivered reminders per channel
func (m *CRMMetrics) RecordReminders(ctx context.Context, mails, sms int) {
	if mails > 0 {
		m.remindersDelivered.Add(ctx, int64(mails), metric.WithAttributes(attribute.String("channel", "mail")))
	}
	if sms > 0 {
		m.remindersDelivered.Add(ctx, int64(sms), metric.WithAttributes(attribute.String("channel", "sms")))
	}
}

// Handle updates the counters from a domain event
func (m *CRMMetrics) Handle(ctx context.Context, event shared.DomainEvent) error {
	tenant := TenantAttr(event.TenantID())

	switch e := event.(type) {
	case *crm.DealCreatedEvent:
		m.dealsCreated.Add(ctx, 1, metric.WithAttributes(tenant, attribute.String("status", string(e.Status))))
		m.dealAmount.Record(ctx, e.Price.InexactFloat64(), metric.WithAttributes(tenant))
	case *crm.DealStatusChangedEvent:
		m.dealStatusChanges.Add(ctx, 1, metric.WithAttributes(
			tenant,
			attribute.String("from", string(e.OldStatus)),
			attribute.String("to", string(e.NewStatus)),
		))
	case *crm.TodoCompletedEvent:
		m.todosCompleted.Add(ctx, 1, metric.WithAttributes(tenant, attribute.String("action", string(e.Action))))
	case *crm.CustomerCreatedEvent, *crm.SalesPersonCreatedEvent:
		m.entitiesCreated.Add(ctx, 1, metric.WithAttributes(tenant, AttrEntity.String(event.AggregateType())))
	case *identity.UserCreatedEvent:
		m.usersRegistered.Add(ctx, 1, metric.WithAttributes(tenant))
	case *identity.UserActivatedEvent:
		m.usersActivated.Add(ctx, 1, metric.WithAttributes(tenant))
	case *identity.TenantCreatedEvent:
		m.tenantsCreated.Add(ctx, 1, metric.WithAttributes(AttrLang.String(e.Lang)))
	}
	return nil
}

// EventTypes lists the events CRMMetrics counts
func (m *CRMMetrics) EventTypes() []string {
	return []string{
		crm.EventTypeDealCreated,
		crm.EventTypeDealStatusChanged,
		crm.EventTypeTodoCompleted,
		crm.EventTypeCustomerCreated,
		crm.EventTypeSalesPersonCreated,
		identity.EventTypeUserCreated,
		identity.EventTypeUserActivated,
		identity.EventTypeTenantCreated,
	}
}
