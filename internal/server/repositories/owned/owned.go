// Package owned contains the contract shared by every per-account collection
// repository together with the SQL helpers their PostgreSQL implementations
// have in common.
package owned

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/bookkeeper/internal/dbx"
)

// Repository is the store contract for one collection of rows owned by an
// account. Every call is scoped to ownerID.
type Repository[T any] interface {
	// Insert stores row under ownerID and returns the identifier assigned by
	// the store. row.ID is ignored.
	Insert(ctx context.Context, ownerID int64, row *T) (int64, error)

	// FetchAll returns every row of the owner in creation order.
	FetchAll(ctx context.Context, ownerID int64) ([]*T, error)

	// DeleteAll removes every row of the owner and reports how many went.
	DeleteAll(ctx context.Context, ownerID int64) (int64, error)

	Count(ctx context.Context, ownerID int64) (int64, error)
}

// DeleteAll removes every row of table owned by ownerID.
func DeleteAll(ctx context.Context, db dbx.DBTX, table string, ownerID int64) (int64, error) {
	res, err := db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE owner_id = $1`, table), ownerID)
	if err != nil {
		return 0, dbx.Classify("delete "+table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", table, err)
	}
	return n, nil
}

// Count returns the number of rows of table owned by ownerID.
func Count(ctx context.Context, db dbx.DBTX, table string, ownerID int64) (int64, error) {
	var n int64
	err := db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE owner_id = $1`, table), ownerID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

// Insert runs an INSERT ... RETURNING id statement.
func Insert(ctx context.Context, db dbx.DBTX, table, query string, args ...any) (int64, error) {
	var id int64
	if err := db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, dbx.Classify("insert "+table, err)
	}
	return id, nil
}

// Collect runs query and scans every row with scan.
func Collect[T any](ctx context.Context, db dbx.DBTX, table, query string, scan func(*sql.Rows) (*T, error), args ...any) ([]*T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", table, err)
	}
	defer rows.Close()

	out := make([]*T, 0)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", table, err)
	}
	return out, nil
}

// NullID converts an optional reference into a value accepted by the driver.
func NullID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

// IDPtr is the inverse of NullID.
func IDPtr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}
