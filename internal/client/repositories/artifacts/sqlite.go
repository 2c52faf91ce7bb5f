// Package artifacts is the local cache of sealed artifacts.
package artifacts

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/afterlight/internal/dbx"
	"github.com/dmitrijs2005/afterlight/internal/models"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Upsert(ctx context.Context, a *models.Artifact) error {
	query := `INSERT INTO artifacts (id, vault_id, message_type, encrypted_blob, iv, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET vault_id = excluded.vault_id,
				message_type = excluded.message_type,
				encrypted_blob = excluded.encrypted_blob,
				iv = excluded.iv,
				created_at = excluded.created_at
	`
	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.VaultID, a.MessageType.String(), a.Blob, a.IV, a.CreatedAt.UnixMicro())
	if err != nil {
		return fmt.Errorf("failed to upsert artifact: %w", err)
	}
	return nil
}

// ReplaceForVault runs inside the caller's transaction when db is a *sql.Tx.
func (r *SQLiteRepository) ReplaceForVault(ctx context.Context, vaultID string, items []*models.Artifact) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM artifacts WHERE vault_id = ?`, vaultID); err != nil {
		return fmt.Errorf("failed to clear artifacts: %w", err)
	}
	for _, a := range items {
		if a.VaultID != vaultID {
			return fmt.Errorf("artifact %s belongs to vault %s, not %s", a.ID, a.VaultID, vaultID)
		}
		if err := r.Upsert(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanArtifact(s scanner) (*models.Artifact, error) {
	var (
		a       models.Artifact
		mt      string
		created int64
	)
	if err := s.Scan(&a.ID, &a.VaultID, &mt, &a.Blob, &a.IV, &created); err != nil {
		return nil, err
	}
	a.MessageType = models.MessageType(mt)
	a.CreatedAt = time.UnixMicro(created).UTC()
	return &a, nil
}

func (r *SQLiteRepository) ListByVault(ctx context.Context, vaultID string) ([]*models.Artifact, error) {
	query := `SELECT id, vault_id, message_type, encrypted_blob, iv, created_at
		FROM artifacts WHERE vault_id = ? ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, vaultID)
	if err != nil {
		return nil, fmt.Errorf("failed to select artifacts: %w", err)
	}
	defer rows.Close()

	result := []*models.Artifact{}
	for rows.Next() {
		a, err := scanArtifact(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, vaultID, id string) (*models.Artifact, error) {
	query := `SELECT id, vault_id, message_type, encrypted_blob, iv, created_at
		FROM artifacts WHERE vault_id = ? AND id = ?`
	a, err := scanArtifact(r.db.QueryRowContext(ctx, query, vaultID, id))
	if err != nil {
		return nil, dbx.MapError(err)
	}
	return a, nil
}
