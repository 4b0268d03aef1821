// Package financialaccounts stores the owner's financial accounts (conti).
package financialaccounts

import (
	"github.com/dmitrijs2005/bookkeeper/internal/server/models"
	"github.com/dmitrijs2005/bookkeeper/internal/server/repositories/owned"
)

const Table = "conti"

type Repository = owned.Repository[models.FinancialAccount]
