// Package partycategories stores the categories used to group parties.
package partycategories

import (
	"github.com/dmitrijs2005/bookkeeper/internal/server/models"
	"github.com/dmitrijs2005/bookkeeper/internal/server/repositories/owned"
)

const Table = "categorie_anagrafiche"

type Repository = owned.Repository[models.PartyCategory]
