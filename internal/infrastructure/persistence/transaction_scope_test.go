package persistence

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	appinv "github.com/shopcore/backend/internal/application/inventory"
)

func newMockTransactionScope(t *testing.T) (*GormTransactionScope, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormTransactionScope(gormDB), mock, mockDB
}

func TestGormTransactionScope_Execute(t *testing.T) {
	t.Run("commits when the function succeeds", func(t *testing.T) {
		scope, mock, mockDB := newMockTransactionScope(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectCommit()

		err := scope.Execute(context.Background(), func(repos appinv.TransactionalRepositories) error {
			assert.NotNil(t, repos.ProductRepo())
			assert.NotNil(t, repos.VariantRepo())
			assert.NotNil(t, repos.OrderRepo())
			assert.NotNil(t, repos.QueueRepo())
			return nil
		})

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when the function fails", func(t *testing.T) {
		scope, mock, mockDB := newMockTransactionScope(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectRollback()

		wantErr := errors.New("deduction failed")
		err := scope.Execute(context.Background(), func(repos appinv.TransactionalRepositories) error {
			return wantErr
		})

		assert.ErrorIs(t, err, wantErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
