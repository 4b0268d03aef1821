// Package movementcategories stores the categories used to classify
// movements.
package movementcategories

import (
	"github.com/dmitrijs2005/bookkeeper/internal/server/models"
	"github.com/dmitrijs2005/bookkeeper/internal/server/repositories/owned"
)

const Table = "categorie_movimenti"

type Repository = owned.Repository[models.MovementCategory]
