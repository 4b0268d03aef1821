package owned

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/bookkeeper/internal/common"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestDeleteAll(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectExec(`^DELETE FROM conti WHERE owner_id = \$1$`).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := DeleteAll(context.Background(), db, "conti", 7)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteAll_ForeignKeyViolation(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectExec(`^DELETE FROM conti`).
		WithArgs(int64(7)).
		WillReturnError(&pgconn.PgError{Code: "23503", Message: "still referenced from table movimenti"})

	_, err := DeleteAll(context.Background(), db, "conti", 7)
	assert.ErrorIs(t, err, common.ErrConstraintViolation)
}

func TestCount(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectQuery(`^SELECT COUNT\(\*\) FROM movimenti WHERE owner_id = \$1$`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(12)))

	n, err := Count(context.Background(), db, "movimenti", 7)
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)
}

func TestCount_Error(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectQuery(`^SELECT COUNT`).WillReturnError(errors.New("db down"))

	_, err := Count(context.Background(), db, "alerts", 7)
	assert.ErrorContains(t, err, "count alerts: db down")
}

func TestNullID(t *testing.T) {
	assert.False(t, NullID(nil).Valid)

	v := int64(5)
	n := NullID(&v)
	assert.True(t, n.Valid)
	assert.Equal(t, int64(5), n.Int64)

	assert.Nil(t, IDPtr(sql.NullInt64{}))
	assert.Equal(t, int64(5), *IDPtr(n))
}
