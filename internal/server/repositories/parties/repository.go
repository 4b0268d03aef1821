// Package parties stores the owner's counterparties (anagrafiche).
package parties

import (
	"github.com/dmitrijs2005/bookkeeper/internal/server/models"
	"github.com/dmitrijs2005/bookkeeper/internal/server/repositories/owned"
)

const Table = "anagrafiche"

type Repository = owned.Repository[models.Party]
