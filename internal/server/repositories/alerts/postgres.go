package alerts

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/bookkeeper/internal/dbx"
	"github.com/dmitrijs2005/bookkeeper/internal/server/models"
	"github.com/dmitrijs2005/bookkeeper/internal/server/repositories/owned"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, ownerID int64, a *models.Alert) (int64, error) {
	query := `
		INSERT INTO alerts (owner_id, title, message, kind, priority, read, created_at, read_at, action_link, action_label)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	var readAt sql.NullTime
	if a.ReadAt != nil {
		readAt = sql.NullTime{Time: *a.ReadAt, Valid: true}
	}
	return owned.Insert(ctx, r.db, Table, query,
		ownerID, a.Title, a.Message, a.Kind, a.Priority, a.Read, a.CreatedAt, readAt,
		a.ActionLink, a.ActionLabel)
}

func (r *PostgresRepository) FetchAll(ctx context.Context, ownerID int64) ([]*models.Alert, error) {
	query := `
		SELECT id, owner_id, title, message, kind, priority, read, created_at, read_at, action_link, action_label
		FROM alerts
		WHERE owner_id = $1
		ORDER BY id
	`
	return owned.Collect(ctx, r.db, Table, query, func(rows *sql.Rows) (*models.Alert, error) {
		a := &models.Alert{}
		var readAt sql.NullTime
		err := rows.Scan(&a.ID, &a.OwnerID, &a.Title, &a.Message, &a.Kind, &a.Priority, &a.Read,
			&a.CreatedAt, &readAt, &a.ActionLink, &a.ActionLabel)
		if readAt.Valid {
			t := readAt.Time
			a.ReadAt = &t
		}
		return a, err
	}, ownerID)
}

func (r *PostgresRepository) DeleteAll(ctx context.Context, ownerID int64) (int64, error) {
	return owned.DeleteAll(ctx, r.db, Table, ownerID)
}

func (r *PostgresRepository) Count(ctx context.Context, ownerID int64) (int64, error) {
	return owned.Count(ctx, r.db, Table, ownerID)
}
