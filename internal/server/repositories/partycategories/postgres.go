package partycategories

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

func (r *PostgresRepository) Insert(ctx context.Context, ownerID int64, c *models.PartyCategory) (int64, error) {
	query := `
		INSERT INTO categorie_anagrafiche (owner_id, name, description, color, active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	return owned.Insert(ctx, r.db, Table, query, ownerID, c.Name, c.Description, c.Color, c.Active)
}

func (r *PostgresRepository) FetchAll(ctx context.Context, ownerID int64) ([]*models.PartyCategory, error) {
	query := `
		SELECT id, owner_id, name, description, color, active
		FROM categorie_anagrafiche
		WHERE owner_id = $1
		ORDER BY id
	`
	return owned.Collect(ctx, r.db, Table, query, func(rows *sql.Rows) (*models.PartyCategory, error) {
		c := &models.PartyCategory{}
		err := rows.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Description, &c.Color, &c.Active)
		return c, err
	}, ownerID)
}

func (r *PostgresRepository) DeleteAll(ctx context.Context, ownerID int64) (int64, error) {
	return owned.DeleteAll(ctx, r.db, Table, ownerID)
}

func (r *PostgresRepository) Count(ctx context.Context, ownerID int64) (int64, error) {
	return owned.Count(ctx, r.db, Table, ownerID)
}
