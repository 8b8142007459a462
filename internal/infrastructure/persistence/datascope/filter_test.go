package datascope

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type testDeal struct {
	ID            uuid.UUID
	SalesPersonID uuid.UUID
}

func (testDeal) TableName() string { return "deals" }

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

func TestFromContext(t *testing.T) {
	t.Run("no scope set", func(t *testing.T) {
		_, ok := FromContext(context.Background())
		assert.False(t, ok)
	})

	t.Run("round trip", func(t *testing.T) {
		spID := uuid.New()
		ctx := WithScope(context.Background(), ForSalesPerson(spID))

		s, ok := FromContext(ctx)
		require.True(t, ok)
		assert.False(t, s.All)
		assert.Equal(t, spID, s.SalesPersonID)
	})
}

func TestFilter_Apply(t *testing.T) {
	t.Run("sales person scope adds ownership condition", func(t *testing.T) {
		db, mock, mockDB := setupMockDB(t)
		defer mockDB.Close()

		spID := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "deals" WHERE sales_person_id = \$1`).
			WithArgs(spID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "sales_person_id"}))

		var deals []testDeal
		err := NewFilter(ForSalesPerson(spID)).Apply(db, ResourceDeal).Find(&deals).Error
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("sales person resource filters on id", func(t *testing.T) {
		db, mock, mockDB := setupMockDB(t)
		defer mockDB.Close()

		spID := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "deals" WHERE id = \$1`).
			WithArgs(spID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "sales_person_id"}))

		var deals []testDeal
		err := db.Scopes(NewFilter(ForSalesPerson(spID)).ApplyToQuery(ResourceSalesPerson)).Find(&deals).Error
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("all rows scope leaves query untouched", func(t *testing.T) {
		db, mock, mockDB := setupMockDB(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "deals"$`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "sales_person_id"}))

		var deals []testDeal
		err := NewFilter(AllRows()).Apply(db, ResourceDeal).Find(&deals).Error
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing sales person sees nothing", func(t *testing.T) {
		db, mock, mockDB := setupMockDB(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "deals" WHERE 1 = 0`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "sales_person_id"}))

		var deals []testDeal
		err := NewFilter(Scope{}).Apply(db, ResourceDeal).Find(&deals).Error
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown resource is not restricted", func(t *testing.T) {
		db, mock, mockDB := setupMockDB(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "deals"$`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "sales_person_id"}))

		var deals []testDeal
		err := NewFilter(ForSalesPerson(uuid.New())).Apply(db, "product").Find(&deals).Error
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestFilter_Access(t *testing.T) {
	spID := uuid.New()

	t.Run("context without scope is unrestricted", func(t *testing.T) {
		f := NewFilterFromContext(context.Background())
		assert.True(t, f.CanAccessAll())
		assert.True(t, f.CanAccess(uuid.New()))
		assert.Nil(t, f.OwnSalesPersonID())
	})

	t.Run("sales person sees only own rows", func(t *testing.T) {
		f := NewFilterFromContext(WithScope(context.Background(), ForSalesPerson(spID)))
		assert.False(t, f.CanAccessAll())
		assert.True(t, f.CanAccess(spID))
		assert.False(t, f.CanAccess(uuid.New()))
		require.NotNil(t, f.OwnSalesPersonID())
		assert.Equal(t, spID, *f.OwnSalesPersonID())
	})

	t.Run("admin sees everything", func(t *testing.T) {
		f := NewFilter(AllRows())
		assert.True(t, f.CanAccess(uuid.New()))
	})
}
