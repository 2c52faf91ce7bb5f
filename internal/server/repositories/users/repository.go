// Package users stores accounts in PostgreSQL.
package users

import (
	"context"

	"github.com/dmitrijs2005/afterlight/internal/server/models"
)

type Repository interface {
	// Create inserts user and fills in ID and CreatedAt. A taken username
	// yields common.ErrConflict.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	// GetUserByLogin returns common.ErrorNotFound for unknown usernames.
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	// GetUserByID returns common.ErrorNotFound for unknown ids.
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}
