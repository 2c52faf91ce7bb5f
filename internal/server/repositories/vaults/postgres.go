package vaults

import (
	"context"

	"github.com/dmitrijs2005/afterlight/internal/cryptox"
	"github.com/dmitrijs2005/afterlight/internal/dbx"
	"github.com/dmitrijs2005/afterlight/internal/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, v *models.Vault) (*models.Vault, error) {
	query := `
		INSERT INTO vaults (user_id, vault_name, kdf_salt, hint)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query, v.UserID, v.Name, v.Salt[:], v.Hint).
		Scan(&v.ID, &v.CreatedAt)
	if err != nil {
		return nil, dbx.MapError(err)
	}
	return v, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Vault, error) {
	query := `
		SELECT id, user_id, vault_name, kdf_salt, hint, created_at
		FROM vaults
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, dbx.MapError(err)
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
		return nil, dbx.MapError(err)
	}
	return result, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, userID, vaultID string) (*models.Vault, error) {
	query := `
		SELECT id, user_id, vault_name, kdf_salt, hint, created_at
		FROM vaults
		WHERE id = $1 AND user_id = $2
	`
	return scanVault(r.db.QueryRowContext(ctx, query, vaultID, userID))
}

type scanner interface {
	Scan(dest ...any) error
}

func scanVault(s scanner) (*models.Vault, error) {
	v := &models.Vault{}
	var salt []byte
	if err := s.Scan(&v.ID, &v.UserID, &v.Name, &salt, &v.Hint, &v.CreatedAt); err != nil {
		return nil, dbx.MapError(err)
	}
	parsed, err := cryptox.SaltFromBytes(salt)
	if err != nil {
		return nil, dbx.MapError(err)
	}
	v.Salt = parsed
	return v, nil
}
