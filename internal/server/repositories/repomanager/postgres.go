// Package repomanager provides the RepositoryManager contract and its
// PostgreSQL implementation, which also runs the embedded goose migrations.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/bookkeeper/internal/dbx"
	"github.com/dmitrijs2005/bookkeeper/internal/server/migrations"
	"github.com/dmitrijs2005/bookkeeper/internal/server/repositories/alerts"
	"github.com/dmitrijs2005/bookkeeper/internal/server/repositories/financialaccounts"
	"github.com/dmitrijs2005/bookkeeper/internal/server/repositories/movementcategories"
	"github.com/dmitrijs2005/bookkeeper/internal/server/repositories/movements"
	"github.com/dmitrijs2005/bookkeeper/internal/server/repositories/parties"
	"github.com/dmitrijs2005/bookkeeper/internal/server/repositories/partycategories"
	"github.com/dmitrijs2005/bookkeeper/internal/server/repositories/partytypes"
	"github.com/dmitrijs2005/bookkeeper/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/bookkeeper/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repositories.
type PostgresRepositoryManager struct{}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository {
	return refreshtokens.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) FinancialAccounts(db dbx.DBTX) financialaccounts.Repository {
	return financialaccounts.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) PartyTypes(db dbx.DBTX) partytypes.Repository {
	return partytypes.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) PartyCategories(db dbx.DBTX) partycategories.Repository {
	return partycategories.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) MovementCategories(db dbx.DBTX) movementcategories.Repository {
	return movementcategories.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Parties(db dbx.DBTX) parties.Repository {
	return parties.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Movements(db dbx.DBTX) movements.Repository {
	return movements.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Alerts(db dbx.DBTX) alerts.Repository {
	return alerts.NewPostgresRepository(db)
}

// CascadeDeletes is true: every owned table references users(id) with
// ON DELETE CASCADE.
func (m *PostgresRepositoryManager) CascadeDeletes() bool { return true }

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded migrations.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}

func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}
