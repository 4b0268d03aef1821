// Package movements stores ledger movements (movimenti). Every movement
// references a financial account and optionally a party.
package movements

import (
	"github.com/dmitrijs2005/bookkeeper/internal/server/models"
	"github.com/dmitrijs2005/bookkeeper/internal/server/repositories/owned"
)

const Table = "movimenti"

type Repository = owned.Repository[models.Movement]
