package partytypes

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

func (r *PostgresRepository) Insert(ctx context.Context, ownerID int64, t *models.PartyType) (int64, error) {
	query := `
		INSERT INTO tipologie (owner_id, name, description, default_kind, color, icon, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	return owned.Insert(ctx, r.db, Table, query,
		ownerID, t.Name, t.Description, t.DefaultKind, t.Color, t.Icon, t.Active)
}

func (r *PostgresRepository) FetchAll(ctx context.Context, ownerID int64) ([]*models.PartyType, error) {
	query := `
		SELECT id, owner_id, name, description, default_kind, color, icon, active
		FROM tipologie
		WHERE owner_id = $1
		ORDER BY id
	`
	return owned.Collect(ctx, r.db, Table, query, func(rows *sql.Rows) (*models.PartyType, error) {
		t := &models.PartyType{}
		err := rows.Scan(&t.ID, &t.OwnerID, &t.Name, &t.Description, &t.DefaultKind, &t.Color, &t.Icon, &t.Active)
		return t, err
	}, ownerID)
}

func (r *PostgresRepository) DeleteAll(ctx context.Context, ownerID int64) (int64, error) {
	return owned.DeleteAll(ctx, r.db, Table, ownerID)
}

func (r *PostgresRepository) Count(ctx context.Context, ownerID int64) (int64, error) {
	return owned.Count(ctx, r.db, Table, ownerID)
}
