package vaults

import (
	"context"

	"github.com/dmitrijs2005/afterlight/internal/models"
)

// Repository caches vault metadata fetched from the server so the CLI can
// list and unlock vaults while offline.
type Repository interface {
	// Upsert stores v, replacing any cached copy with the same id.
	Upsert(ctx context.Context, v *models.Vault) error

	// List returns cached vaults newest first; never nil.
	List(ctx context.Context) ([]*models.Vault, error)

	// GetByID returns common.ErrorNotFound for an uncached vault.
	GetByID(ctx context.Context, id string) (*models.Vault, error)

	// Clear drops every cached vault and, by cascade, its artifacts.
	Clear(ctx context.Context) error
}
