package financialaccounts

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/bookkeeper/internal/common"
	"github.com/dmitrijs2005/bookkeeper/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

const insertQ = `(?s)^\s*INSERT\s+INTO\s+conti\s*\(owner_id,\s*name,\s*holder,\s*external_ref,\s*opening_balance,\s*active\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6\)\s*RETURNING\s+id\s*$`

func TestInsert_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	balance := decimal.RequireFromString("1500.25")
	mock.ExpectQuery(insertQ).
		WithArgs(int64(7), "Banca", "Mario Rossi", "IT60X0542811101000000123456", balance, true).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(101)))

	id, err := repo.Insert(context.Background(), 7, &models.FinancialAccount{
		ID: 10, Name: "Banca", Holder: "Mario Rossi", ExternalRef: "IT60X0542811101000000123456",
		OpeningBalance: balance, Active: true,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(101), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsert_Duplicate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: `duplicate key value violates unique constraint "conti_owner_id_name_key"`})

	_, err := repo.Insert(context.Background(), 7, &models.FinancialAccount{Name: "Banca"})
	assert.ErrorIs(t, err, common.ErrConstraintViolation)
	assert.ErrorContains(t, err, "insert conti")
}

func TestFetchAll(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)SELECT\s+id,\s*owner_id,.*FROM\s+conti\s+WHERE\s+owner_id\s*=\s*\$1\s+ORDER\s+BY\s+id`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "name", "holder", "external_ref", "opening_balance", "active"}).
			AddRow(int64(1), int64(7), "Cassa", "", "", "0", true).
			AddRow(int64(2), int64(7), "Banca", "Mario", "IT60", "1500.25", false))

	got, err := repo.FetchAll(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Cassa", got[0].Name)
	assert.Equal(t, "Banca", got[1].Name)
	assert.True(t, got[1].OpeningBalance.Equal(decimal.RequireFromString("1500.25")))
	assert.False(t, got[1].Active)
}

func TestFetchAll_Empty(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+conti`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "name", "holder", "external_ref", "opening_balance", "active"}))

	got, err := repo.FetchAll(context.Background(), 7)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFetchAll_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+conti`).WillReturnError(errors.New("db down"))

	_, err := repo.FetchAll(context.Background(), 7)
	assert.ErrorContains(t, err, "fetch conti: db down")
}

func TestDeleteAllAndCount(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`^SELECT COUNT\(\*\) FROM conti WHERE owner_id = \$1$`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(2)))
	mock.ExpectExec(`^DELETE FROM conti WHERE owner_id = \$1$`).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.Count(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	deleted, err := repo.DeleteAll(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
	require.NoError(t, mock.ExpectationsWereMet())
}
