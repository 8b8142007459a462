package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/crm/backend/internal/domain/crm"
	"github.com/crm/backend/internal/domain/identity"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*CRMMetrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := NewCRMMetrics(provider.Meter("test"))
	require.NoError(t, err)
	return m, reader
}

// sumOf adds up every data point of the named int64 counter
func sumOf(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not an int64 sum", name)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func TestNewCRMMetrics_NilMeter(t *testing.T) {
	_, err := NewCRMMetrics(nil)
	assert.ErrorIs(t, err, ErrMeterNil)
}

func TestCRMMetrics_DealEvents(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()
	tenantID := uuid.New()

	deal, err := crm.NewDeal(tenantID, crm.DealInput{
		SalesPersonID: uuid.New(),
		Ident:         1001,
		Description:   "Annual license",
		Price:         decimal.NewFromInt(5000),
		DealDate:      time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	for _, e := range deal.GetDomainEvents() {
		require.NoError(t, m.Handle(ctx, e))
	}
	require.NoError(t, m.Handle(ctx, crm.NewDealStatusChangedEvent(deal, crm.DealStatusFirstContact)))

	assert.Equal(t, int64(1), sumOf(t, reader, "crm.deals.created"))
	assert.Equal(t, int64(1), sumOf(t, reader, "crm.deals.status_changes"))
}

func TestCRMMetrics_RecordLogin(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordLogin(ctx, LoginSuccess)
	m.RecordLogin(ctx, LoginFailed)
	m.RecordLogin(ctx, LoginNoSalesPerson)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	byResult := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, metric := range sm.Metrics {
			if metric.Name != "crm.auth.logins" {
				continue
			}
			for _, dp := range metric.Data.(metricdata.Sum[int64]).DataPoints {
				v, _ := dp.Attributes.Value(AttrResult)
				byResult[v.AsString()] += dp.Value
			}
		}
	}
	assert.Equal(t, map[string]int64{LoginSuccess: 1, LoginFailed: 1, LoginNoSalesPerson: 1}, byResult)
}

func TestCRMMetrics_IdentityEvents(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	tenant, err := identity.NewTenant("acme", "Acme", "crm.example.com", "")
	require.NoError(t, err)
	user, err := identity.NewUser(tenant.ID, "anna", "anna@example.com", "Secret123!")
	require.NoError(t, err)
	require.NoError(t, user.Activate(user.ActivationKey))

	events := append(tenant.GetDomainEvents(), user.GetDomainEvents()...)
	for _, e := range events {
		require.NoError(t, m.Handle(ctx, e))
	}

	assert.Equal(t, int64(1), sumOf(t, reader, "crm.tenants.created"))
	assert.Equal(t, int64(1), sumOf(t, reader, "crm.users.registered"))
	assert.Equal(t, int64(1), sumOf(t, reader, "crm.users.activated"))
}

func TestCRMMetrics_RecordReminders(t *testing.T) {
	m, reader := newTestMetrics(t)

	m.RecordReminders(context.Background(), 3, 1)
	m.RecordReminders(context.Background(), 0, 0)

	assert.Equal(t, int64(4), sumOf(t, reader, "crm.reminders.delivered"))
}

func TestCRMMetrics_EventTypes(t *testing.T) {
	m, _ := newTestMetrics(t)
	assert.Contains(t, m.EventTypes(), crm.EventTypeDealCreated)
	assert.Contains(t, m.EventTypes(), identity.EventTypeUserActivated)
	assert.Equal(t, "crm.tenant_id", string(TenantAttr(uuid.Nil).Key))
}
