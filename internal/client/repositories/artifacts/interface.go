package artifacts

import (
	"context"

	"github.com/dmitrijs2005/afterlight/internal/models"
)

// Repository caches sealed artifacts. Only ciphertext is ever stored.
type Repository interface {
	// ReplaceForVault swaps the cached artifacts of vaultID for items.
	ReplaceForVault(ctx context.Context, vaultID string, items []*models.Artifact) error

	// Upsert stores a single artifact.
	Upsert(ctx context.Context, a *models.Artifact) error

	// ListByVault returns cached artifacts newest first; never nil.
	ListByVault(ctx context.Context, vaultID string) ([]*models.Artifact, error)

	// GetByID returns common.ErrorNotFound for an uncached artifact.
	GetByID(ctx context.Context, vaultID, id string) (*models.Artifact, error)
}
