package users

import (
	"context"

	"github.com/dmitrijs2005/bookkeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	// Delete removes the user row. Owned rows go with it through the
	// schema's ON DELETE CASCADE.
	Delete(ctx context.Context, id int64) error
}
