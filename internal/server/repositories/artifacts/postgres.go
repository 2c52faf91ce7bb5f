package artifacts

import (
	"context"

	"github.com/dmitrijs2005/afterlight/internal/dbx"
	"github.com/dmitrijs2005/afterlight/internal/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, a *models.Artifact) (*models.Artifact, error) {
	query := `
		INSERT INTO artifacts (vault_id, message_type, encrypted_blob, iv)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query, a.VaultID, string(a.MessageType), a.Blob, a.IV).
		Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return nil, dbx.MapError(err)
	}
	return a, nil
}

func (r *PostgresRepository) ListByVault(ctx context.Context, vaultID string) ([]*models.Artifact, error) {
	query := `
		SELECT id, vault_id, message_type, encrypted_blob, iv, created_at
		FROM artifacts
		WHERE vault_id = $1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, vaultID)
	if err != nil {
		return nil, dbx.MapError(err)
	}
	defer rows.Close()

	result := []*models.Artifact{}
	for rows.Next() {
		a := &models.Artifact{}
		var mt string
		if err := rows.Scan(&a.ID, &a.VaultID, &mt, &a.Blob, &a.IV, &a.CreatedAt); err != nil {
			return nil, dbx.MapError(err)
		}
		a.MessageType = models.MessageType(mt)
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.MapError(err)
	}
	return result, nil
}
