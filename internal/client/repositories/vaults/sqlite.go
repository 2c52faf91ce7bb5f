// Package vaults is the local cache of vault metadata.
package vaults

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/afterlight/internal/cryptox"
	"github.com/dmitrijs2005/afterlight/internal/dbx"
	"github.com/dmitrijs2005/afterlight/internal/models"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Upsert(ctx context.Context, v *models.Vault) error {
	query := `INSERT INTO vaults (id, vault_name, kdf_salt, hint, created_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET vault_name = excluded.vault_name,
				kdf_salt = excluded.kdf_salt,
				hint = excluded.hint,
				created_at = excluded.created_at
	`
	_, err := r.db.ExecContext(ctx, query, v.ID, v.Name, v.Salt[:], v.Hint, v.CreatedAt.UnixMicro())
	if err != nil {
		return fmt.Errorf("failed to upsert vault: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanVault(s scanner) (*models.Vault, error) {
	var (
		v       models.Vault
		salt    []byte
		created int64
	)
	if err := s.Scan(&v.ID, &v.Name, &salt, &v.Hint, &created); err != nil {
		return nil, err
	}
	parsed, err := cryptox.SaltFromBytes(salt)
	if err != nil {
		return nil, fmt.Errorf("cached vault %s: %w", v.ID, err)
	}
	v.Salt = parsed
	v.CreatedAt = time.UnixMicro(created).UTC()
	return &v, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]*models.Vault, error) {
	query := `SELECT id, vault_name, kdf_salt, hint, created_at FROM vaults ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select vaults: %w", err)
	}
	defer rows.Close()

	result := []*models.Vault{}
	for rows.Next() {
		v, err := scanVault(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Vault, error) {
	query := `SELECT id, vault_name, kdf_salt, hint, created_at FROM vaults WHERE id = ?`
	v, err := scanVault(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, dbx.MapError(err)
	}
	return v, nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM vaults`); err != nil {
		return fmt.Errorf("failed to clear vaults: %w", err)
	}
	return nil
}
