package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/afterlight/internal/models"
	"github.com/dmitrijs2005/afterlight/internal/server/repositories/repomanager"
)

// ArtifactService persists artifact ciphertext. It checks structure only:
// the nonce length, the ciphertext bounds and the message type.
type ArtifactService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	vaults      *VaultService
}

func NewArtifactService(db *sql.DB, m repomanager.RepositoryManager, vaults *VaultService) *ArtifactService {
	return &ArtifactService{db: db, repomanager: m, vaults: vaults}
}

// CreateArtifact appends an artifact to a vault owned by userID. A nonce
// already used in the vault yields common.ErrConflict.
func (s *ArtifactService) CreateArtifact(ctx context.Context, userID, vaultID string, mt models.MessageType, blob, iv []byte) (*models.Artifact, error) {
	if _, err := models.ParseMessageType(string(mt)); err != nil {
		return nil, err
	}
	if err := models.ValidateSealed(blob, iv); err != nil {
		return nil, err
	}

	if _, err := s.vaults.GetVault(ctx, userID, vaultID); err != nil {
		return nil, err
	}

	a, err := s.repomanager.Artifacts(s.db).Create(ctx, &models.Artifact{
		VaultID:     vaultID,
		MessageType: mt,
		Blob:        blob,
		IV:          iv,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating artifact: %w", err)
	}
	return a, nil
}

// ListArtifacts returns the vault together with its artifacts, newest first.
func (s *ArtifactService) ListArtifacts(ctx context.Context, userID, vaultID string) (*models.Vault, []*models.Artifact, error) {
	vault, err := s.vaults.GetVault(ctx, userID, vaultID)
	if err != nil {
		return nil, nil, err
	}

	items, err := s.repomanager.Artifacts(s.db).ListByVault(ctx, vaultID)
	if err != nil {
		return nil, nil, fmt.Errorf("error listing artifacts: %w", err)
	}
	if items == nil {
		items = []*models.Artifact{}
	}
	return vault, items, nil
}
