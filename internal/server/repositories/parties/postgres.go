package parties

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

func (r *PostgresRepository) Insert(ctx context.Context, ownerID int64, p *models.Party) (int64, error) {
	query := `
		INSERT INTO anagrafiche (owner_id, name, tipologia_id, preferred_kind, category, email, phone, tax_id, address, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	return owned.Insert(ctx, r.db, Table, query,
		ownerID, p.Name, owned.NullID(p.TypeID), p.PreferredKind, p.Category,
		p.Email, p.Phone, p.TaxID, p.Address, p.Active)
}

func (r *PostgresRepository) FetchAll(ctx context.Context, ownerID int64) ([]*models.Party, error) {
	query := `
		SELECT id, owner_id, name, tipologia_id, preferred_kind, category, email, phone, tax_id, address, active
		FROM anagrafiche
		WHERE owner_id = $1
		ORDER BY id
	`
	return owned.Collect(ctx, r.db, Table, query, func(rows *sql.Rows) (*models.Party, error) {
		p := &models.Party{}
		var typeID sql.NullInt64
		err := rows.Scan(&p.ID, &p.OwnerID, &p.Name, &typeID, &p.PreferredKind, &p.Category,
			&p.Email, &p.Phone, &p.TaxID, &p.Address, &p.Active)
		p.TypeID = owned.IDPtr(typeID)
		return p, err
	}, ownerID)
}

func (r *PostgresRepository) DeleteAll(ctx context.Context, ownerID int64) (int64, error) {
	return owned.DeleteAll(ctx, r.db, Table, ownerID)
}

func (r *PostgresRepository) Count(ctx context.Context, ownerID int64) (int64, error) {
	return owned.Count(ctx, r.db, Table, ownerID)
}
