// Package alerts stores user notifications. Alerts are history only; losing
// one never affects balances.
package alerts

import (
	"github.com/dmitrijs2005/bookkeeper/internal/server/models"
	"github.com/dmitrijs2005/bookkeeper/internal/server/repositories/owned"
)

const Table = "alerts"

type Repository = owned.Repository[models.Alert]
