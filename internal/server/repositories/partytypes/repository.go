// Package partytypes stores the owner's party types (tipologie).
package partytypes

import (
	"github.com/dmitrijs2005/bookkeeper/internal/server/models"
	"github.com/dmitrijs2005/bookkeeper/internal/server/repositories/owned"
)

const Table = "tipologie"

type Repository = owned.Repository[models.PartyType]
