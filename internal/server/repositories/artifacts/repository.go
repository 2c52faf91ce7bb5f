// Package artifacts stores artifact ciphertext in PostgreSQL.
package artifacts

import (
	"context"

	"github.com/dmitrijs2005/afterlight/internal/models"
)

// IVConstraint is the unique constraint on (vault_id, iv).
const IVConstraint = "artifacts_vault_id_iv_key"

type Repository interface {
	// Create inserts a and fills in ID and CreatedAt. Reusing an iv within
	// the same vault yields common.ErrConflict.
	Create(ctx context.Context, a *models.Artifact) (*models.Artifact, error)
	// ListByVault returns the vault's artifacts, newest first.
	ListByVault(ctx context.Context, vaultID string) ([]*models.Artifact, error)
}
