package financialaccounts

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

func (r *PostgresRepository) Insert(ctx context.Context, ownerID int64, a *models.FinancialAccount) (int64, error) {
	query := `
		INSERT INTO conti (owner_id, name, holder, external_ref, opening_balance, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	return owned.Insert(ctx, r.db, Table, query,
		ownerID, a.Name, a.Holder, a.ExternalRef, a.OpeningBalance, a.Active)
}

func (r *PostgresRepository) FetchAll(ctx context.Context, ownerID int64) ([]*models.FinancialAccount, error) {
	query := `
		SELECT id, owner_id, name, holder, external_ref, opening_balance, active
		FROM conti
		WHERE owner_id = $1
		ORDER BY id
	`
	return owned.Collect(ctx, r.db, Table, query, func(rows *sql.Rows) (*models.FinancialAccount, error) {
		a := &models.FinancialAccount{}
		err := rows.Scan(&a.ID, &a.OwnerID, &a.Name, &a.Holder, &a.ExternalRef, &a.OpeningBalance, &a.Active)
		return a, err
	}, ownerID)
}

func (r *PostgresRepository) DeleteAll(ctx context.Context, ownerID int64) (int64, error) {
	return owned.DeleteAll(ctx, r.db, Table, ownerID)
}

func (r *PostgresRepository) Count(ctx context.Context, ownerID int64) (int64, error) {
	return owned.Count(ctx, r.db, Table, ownerID)
}
