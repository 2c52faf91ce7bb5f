// Package vaults stores vault metadata in PostgreSQL. Rows carry the name,
// salt and hint only; nothing here is secret.
package vaults

import (
	"context"

	"github.com/dmitrijs2005/afterlight/internal/models"
)

type Repository interface {
	// Create inserts v and fills in ID and CreatedAt.
	Create(ctx context.Context, v *models.Vault) (*models.Vault, error)
	// ListByUser returns the user's vaults, newest first.
	ListByUser(ctx context.Context, userID string) ([]*models.Vault, error)
	// GetByID returns common.ErrorNotFound unless the vault exists and
	// belongs to userID.
	GetByID(ctx context.Context, userID, vaultID string) (*models.Vault, error)
}
