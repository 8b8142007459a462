package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/crm/backend/internal/domain/crm"
	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupCRMTestDB opens an in-memory sqlite database with every CRM table.
// A single connection keeps the in-memory database shared by all queries.
func setupCRMTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}

func createTestTenant(t *testing.T, db *gorm.DB, schema string) *identity.Tenant {
	t.Helper()
	tn, err := identity.NewTenant(schema, "Tenant "+schema, "crm.example.com", identity.LangRussian)
	require.NoError(t, err)
	require.NoError(t, NewGormTenantRepository(db).Create(context.Background(), tn))
	return tn
}

func createTestUser(t *testing.T, db *gorm.DB, tenantID uuid.UUID, username string) *identity.User {
	t.Helper()
	u, err := identity.NewActiveUser(tenantID, username, username+"@example.com", "secret123")
	require.NoError(t, err)
	require.NoError(t, NewGormUserRepository(db).Create(context.Background(), u))
	return u
}

func createTestSalesPerson(t *testing.T, db *gorm.DB, tenantID, userID uuid.UUID, role crm.SalesRole) *crm.SalesPerson {
	t.Helper()
	sp, err := crm.NewSalesPerson(tenantID, userID, crm.SalesPersonInput{
		FirstName:  "Ivanov",
		SecondName: "Ivan",
		Division:   "North",
		Role:       role,
		Lang:       identity.LangRussian,
	})
	require.NoError(t, err)
	require.NoError(t, NewGormSalesPersonRepository(db).Create(context.Background(), sp))
	return sp
}

func createTestCustomer(t *testing.T, db *gorm.DB, tenantID, spID uuid.UUID, company string) *crm.Customer {
	t.Helper()
	c, err := crm.NewCustomer(tenantID, crm.CustomerInput{
		FirstName:     "Petrov",
		SecondName:    "Petr",
		SalesPersonID: spID,
		Company:       company,
		Status:        crm.CustomerStatusInterested,
	})
	require.NoError(t, err)
	require.NoError(t, NewGormCustomerRepository(db).Create(context.Background(), c))
	return c
}

func createTestProduct(t *testing.T, db *gorm.DB, tenantID uuid.UUID, sku int64, price string) *crm.Product {
	t.Helper()
	p, err := crm.NewProduct(tenantID, sku, "Product "+price, decimal.RequireFromString(price))
	require.NoError(t, err)
	require.NoError(t, NewGormProductRepository(db).Create(context.Background(), p))
	return p
}

func newTestDeal(t *testing.T, tenantID, spID uuid.UUID, customerID *uuid.UUID, ident int64) *crm.Deal {
	t.Helper()
	at, err := crm.NewTimeOfDay(10, 30)
	require.NoError(t, err)
	d, err := crm.NewDeal(tenantID, crm.DealInput{
		Ident:         ident,
		Price:         decimal.NewFromInt(100),
		Description:   "Deal",
		DealDate:      time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		DealTime:      &at,
		CustomerID:    customerID,
		SalesPersonID: spID,
	})
	require.NoError(t, err)
	return d
}
