package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/afterlight/internal/common"
	"github.com/dmitrijs2005/afterlight/internal/cryptox"
	"github.com/dmitrijs2005/afterlight/internal/models"
	"github.com/dmitrijs2005/afterlight/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// VaultService persists vault metadata on behalf of its owner.
type VaultService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewVaultService(db *sql.DB, m repomanager.RepositoryManager) *VaultService {
	return &VaultService{db: db, repomanager: m}
}

// CreateVault stores a new vault. The salt was generated by the client.
func (s *VaultService) CreateVault(ctx context.Context, userID, name string, salt cryptox.Salt, hint string) (*models.Vault, error) {
	name, err := models.NormalizeVaultName(name)
	if err != nil {
		return nil, err
	}
	if err := models.ValidateHint(hint); err != nil {
		return nil, err
	}

	v, err := s.repomanager.Vaults(s.db).Create(ctx, &models.Vault{
		UserID: userID,
		Name:   name,
		Salt:   salt,
		Hint:   hint,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating vault: %w", err)
	}
	return v, nil
}

// ListVaults returns the user's vaults, never nil.
func (s *VaultService) ListVaults(ctx context.Context, userID string) ([]*models.Vault, error) {
	vaults, err := s.repomanager.Vaults(s.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing vaults: %w", err)
	}
	if vaults == nil {
		vaults = []*models.Vault{}
	}
	return vaults, nil
}

// GetVault returns common.ErrorNotFound for malformed ids, unknown vaults
// and vaults owned by someone else alike.
func (s *VaultService) GetVault(ctx context.Context, userID, vaultID string) (*models.Vault, error) {
	if _, err := uuid.Parse(vaultID); err != nil {
		return nil, common.ErrorNotFound
	}
	v, err := s.repomanager.Vaults(s.db).GetByID(ctx, userID, vaultID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error loading vault: %w", err)
	}
	return v, nil
}
