package movementcategories

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

func (r *PostgresRepository) Insert(ctx context.Context, ownerID int64, c *models.MovementCategory) (int64, error) {
	query := `
		INSERT INTO categorie_movimenti (owner_id, name, kind, description, color, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	return owned.Insert(ctx, r.db, Table, query, ownerID, c.Name, c.Kind, c.Description, c.Color, c.Active)
}

func (r *PostgresRepository) FetchAll(ctx context.Context, ownerID int64) ([]*models.MovementCategory, error) {
	query := `
		SELECT id, owner_id, name, kind, description, color, active
		FROM categorie_movimenti
		WHERE owner_id = $1
		ORDER BY id
	`
	return owned.Collect(ctx, r.db, Table, query, func(rows *sql.Rows) (*models.MovementCategory, error) {
		c := &models.MovementCategory{}
		err := rows.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Kind, &c.Description, &c.Color, &c.Active)
		return c, err
	}, ownerID)
}

func (r *PostgresRepository) DeleteAll(ctx context.Context, ownerID int64) (int64, error) {
	return owned.DeleteAll(ctx, r.db, Table, ownerID)
}

func (r *PostgresRepository) Count(ctx context.Context, ownerID int64) (int64, error) {
	return owned.Count(ctx, r.db, Table, ownerID)
}
