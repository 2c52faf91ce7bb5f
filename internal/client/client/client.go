package client

import (
	"context"

	"github.com/dmitrijs2005/afterlight/internal/cryptox"
	"github.com/dmitrijs2005/afterlight/internal/models"
)

// Client is the server API used by the client services.
type Client interface {
	Register(ctx context.Context, username string, salt cryptox.Salt, verifier []byte) error
	GetSalt(ctx context.Context, username string) (cryptox.Salt, error)
	Login(ctx context.Context, username string, verifier []byte) (models.TokenPair, error)
	Logout(ctx context.Context) error
	SetTokens(tokens models.TokenPair)
	OnTokensRefreshed(fn func(models.TokenPair))

	CreateVault(ctx context.Context, name string, salt cryptox.Salt, hint string) (*models.Vault, error)
	ListVaults(ctx context.Context) ([]*models.Vault, error)
	CreateArtifact(ctx context.Context, vaultID string, mt models.MessageType, blob, iv []byte) (*models.Artifact, error)
	ListArtifacts(ctx context.Context, vaultID string) (*models.Vault, []*models.Artifact, error)

	PresignUpload(ctx context.Context, vaultID string) (models.UploadURLResponse, error)
	PresignDownload(ctx context.Context, vaultID, objectKey string) (models.DownloadURLResponse, error)
}

// Pinger reports whether the server is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}
