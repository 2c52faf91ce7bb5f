// Package refreshtokens stores refresh token digests in PostgreSQL.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/afterlight/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, userID string, tokenHash string, expiresAt time.Time) error
	// Find returns common.ErrorNotFound for unknown digests.
	Find(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	// Delete is a no-op for unknown digests.
	Delete(ctx context.Context, tokenHash string) error
	// DeleteExpired removes every token that expired before now and returns
	// the number removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
