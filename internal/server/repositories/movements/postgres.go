package movements

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

func (r *PostgresRepository) Insert(ctx context.Context, ownerID int64, m *models.Movement) (int64, error) {
	query := `
		INSERT INTO movimenti (owner_id, date, anagrafica_id, conto_id, description, category, amount, kind, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	return owned.Insert(ctx, r.db, Table, query,
		ownerID, m.Date, owned.NullID(m.PartyID), m.AccountID, m.Description,
		m.Category, m.Amount, m.Kind, m.Note)
}

// FetchAll orders by date first so re-imported movements keep their
// chronological sequence.
func (r *PostgresRepository) FetchAll(ctx context.Context, ownerID int64) ([]*models.Movement, error) {
	query := `
		SELECT id, owner_id, date, anagrafica_id, conto_id, description, category, amount, kind, note
		FROM movimenti
		WHERE owner_id = $1
		ORDER BY date, id
	`
	return owned.Collect(ctx, r.db, Table, query, func(rows *sql.Rows) (*models.Movement, error) {
		m := &models.Movement{}
		var partyID sql.NullInt64
		err := rows.Scan(&m.ID, &m.OwnerID, &m.Date, &partyID, &m.AccountID, &m.Description,
			&m.Category, &m.Amount, &m.Kind, &m.Note)
		m.PartyID = owned.IDPtr(partyID)
		return m, err
	}, ownerID)
}

func (r *PostgresRepository) DeleteAll(ctx context.Context, ownerID int64) (int64, error) {
	return owned.DeleteAll(ctx, r.db, Table, ownerID)
}

func (r *PostgresRepository) Count(ctx context.Context, ownerID int64) (int64, error) {
	return owned.Count(ctx, r.db, Table, ownerID)
}
