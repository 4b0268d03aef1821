package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/bookkeeper/internal/dbx"
	"github.com/dmitrijs2005/bookkeeper/internal/server/repositories/alerts"
	"github.com/dmitrijs2005/bookkeeper/internal/server/repositories/financialaccounts"
	"github.com/dmitrijs2005/bookkeeper/internal/server/repositories/movementcategories"
	"github.com/dmitrijs2005/bookkeeper/internal/server/repositories/movements"
	"github.com/dmitrijs2005/bookkeeper/internal/server/repositories/parties"
	"github.com/dmitrijs2005/bookkeeper/internal/server/repositories/partycategories"
	"github.com/dmitrijs2005/bookkeeper/internal/server/repositories/partytypes"
	"github.com/dmitrijs2005/bookkeeper/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/bookkeeper/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so the same code runs
// on a plain connection or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error

	// CascadeDeletes reports whether deleting a user row removes every row
	// owned by that user in the same statement.
	CascadeDeletes() bool

	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository

	FinancialAccounts(db dbx.DBTX) financialaccounts.Repository
	PartyTypes(db dbx.DBTX) partytypes.Repository
	PartyCategories(db dbx.DBTX) partycategories.Repository
	MovementCategories(db dbx.DBTX) movementcategories.Repository
	Parties(db dbx.DBTX) parties.Repository
	Movements(db dbx.DBTX) movements.Repository
	Alerts(db dbx.DBTX) alerts.Repository
}
