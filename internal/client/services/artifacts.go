package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/afterlight/internal/client/client"
	"github.com/dmitrijs2005/afterlight/internal/client/repositories/artifacts"
	"github.com/dmitrijs2005/afterlight/internal/client/session"
	"github.com/dmitrijs2005/afterlight/internal/common"
	"github.com/dmitrijs2005/afterlight/internal/cryptox"
	"github.com/dmitrijs2005/afterlight/internal/dbx"
	"github.com/dmitrijs2005/afterlight/internal/filex"
	"github.com/dmitrijs2005/afterlight/internal/logging"
	"github.com/dmitrijs2005/afterlight/internal/models"
	"github.com/dmitrijs2005/afterlight/internal/netx"
)

// MaxFileSize bounds a file attached with AddFile.
const MaxFileSize = 64 << 20

var (
	ErrFileTooLarge = errors.New("file too large")
	ErrNotAFile     = errors.New("artifact is not a file")
)

// ArtifactService seals and opens artifacts of unlocked vaults.
type ArtifactService interface {
	AddText(ctx context.Context, vaultID, text string) (*models.Artifact, error)
	AddFile(ctx context.Context, vaultID, path string) (*models.Artifact, error)
	List(ctx context.Context, vaultID string) (list []*models.Artifact, cached bool, err error)
	Reveal(ctx context.Context, vaultID, artifactID string) (models.Payload, error)
	Download(ctx context.Context, vaultID, artifactID, dir string) (string, error)
}

type artifactService struct {
	client client.Client
	db     *sql.DB
	ring   *session.KeyRing
	http   netx.Doer
	conn   Connectivity
	logger logging.Logger
}

// NewArtifactService wires an ArtifactService. h moves encrypted objects to
// and from presigned URLs.
func NewArtifactService(c client.Client, db *sql.DB, ring *session.KeyRing, h netx.Doer, conn Connectivity, l logging.Logger) ArtifactService {
	return &artifactService{client: c, db: db, ring: ring, http: h, conn: conn, logger: l}
}

func (s *artifactService) repo() artifacts.Repository {
	return artifacts.NewSQLiteRepository(s.db)
}

func (s *artifactService) AddText(ctx context.Context, vaultID, text string) (*models.Artifact, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: text is empty", common.ErrorValidation)
	}
	return s.add(ctx, vaultID, models.TextMessage{Text: text})
}

// AddFile encrypts the file under the vault key, uploads the ciphertext to
// object storage and stores a sealed link to it as the artifact.
func (s *artifactService) AddFile(ctx context.Context, vaultID, path string) (*models.Artifact, error) {
	key, err := s.ring.Key(vaultID)
	if err != nil {
		return nil, err
	}
	if !s.conn.Online() {
		return nil, client.ErrUnavailable
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a regular file", common.ErrorValidation, path)
	}
	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFileTooLarge, info.Size())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ct, nonce, err := cryptox.Encrypt(data, key)
	common.WipeByteArray(data)
	if err != nil {
		return nil, err
	}

	up, err := s.client.PresignUpload(ctx, vaultID)
	if err != nil {
		return nil, fmt.Errorf("presign upload: %w", err)
	}
	if err := netx.UploadToPresignedURL(ctx, s.http, up.UploadURL, ct); err != nil {
		return nil, fmt.Errorf("upload object: %w", err)
	}

	return s.add(ctx, vaultID, models.ObjectLink{
		ObjectKey: up.ObjectKey,
		FileName:  filepath.Base(path),
		Size:      info.Size(),
		Nonce:     nonce,
	})
}

// add seals p with a fresh nonce and stores it. A failed upload is never
// retried with the same nonce; the caller has to add the payload again.
func (s *artifactService) add(ctx context.Context, vaultID string, p models.Payload) (*models.Artifact, error) {
	key, err := s.ring.Key(vaultID)
	if err != nil {
		return nil, err
	}
	if !s.conn.Online() {
		return nil, client.ErrUnavailable
	}

	mt, pt, err := models.EncodePayload(p)
	if err != nil {
		return nil, err
	}
	blob, iv, err := cryptox.Encrypt(pt, key)
	common.WipeByteArray(pt)
	if err != nil {
		return nil, err
	}

	a, err := s.client.CreateArtifact(ctx, vaultID, mt, blob, iv)
	if err != nil {
		return nil, fmt.Errorf("create artifact: %w", err)
	}
	if err := s.repo().Upsert(ctx, a); err != nil {
		s.logger.Warn(ctx, "failed to cache artifact", "artifact_id", a.ID, "error", err)
	}
	return a, nil
}

// List fetches the sealed artifacts of a vault newest first and replaces
// the cached copy. Offline, the cache is returned instead.
func (s *artifactService) List(ctx context.Context, vaultID string) ([]*models.Artifact, bool, error) {
	if s.conn.Online() {
		_, list, err := s.client.ListArtifacts(ctx, vaultID)
		switch {
		case err == nil:
			err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
				return artifacts.NewSQLiteRepository(tx).ReplaceForVault(ctx, vaultID, list)
			})
			if err != nil {
				return nil, false, err
			}
			return list, false, nil
		case !errors.Is(err, client.ErrUnavailable):
			return nil, false, err
		}
		s.logger.Debug(ctx, "server unavailable, using cached artifacts", "vault_id", vaultID)
	}

	list, err := s.repo().ListByVault(ctx, vaultID)
	if err != nil {
		return nil, true, err
	}
	return list, true, nil
}

func (s *artifactService) find(ctx context.Context, vaultID, artifactID string) (*models.Artifact, error) {
	a, err := s.repo().GetByID(ctx, vaultID, artifactID)
	if !errors.Is(err, common.ErrorNotFound) {
		return a, err
	}
	if _, cached, lerr := s.List(ctx, vaultID); lerr != nil || cached {
		return nil, err
	}
	return s.repo().GetByID(ctx, vaultID, artifactID)
}

// Reveal decrypts one artifact. A wrong key or tampered data yields
// common.ErrAuthenticationFailed.
func (s *artifactService) Reveal(ctx context.Context, vaultID, artifactID string) (models.Payload, error) {
	key, err := s.ring.Key(vaultID)
	if err != nil {
		return nil, err
	}
	a, err := s.find(ctx, vaultID, artifactID)
	if err != nil {
		return nil, err
	}

	pt, err := cryptox.Decrypt(a.Blob, a.IV, key)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(pt)
	return models.DecodePayload(a.MessageType, pt)
}

// Download fetches and decrypts the object behind a file artifact and
// writes it to dir. Existing files are never overwritten.
func (s *artifactService) Download(ctx context.Context, vaultID, artifactID, dir string) (string, error) {
	p, err := s.Reveal(ctx, vaultID, artifactID)
	if err != nil {
		return "", err
	}
	link, ok := p.(models.ObjectLink)
	if !ok {
		return "", ErrNotAFile
	}
	if !s.conn.Online() {
		return "", client.ErrUnavailable
	}
	key, err := s.ring.Key(vaultID)
	if err != nil {
		return "", err
	}

	down, err := s.client.PresignDownload(ctx, vaultID, link.ObjectKey)
	if err != nil {
		return "", fmt.Errorf("presign download: %w", err)
	}
	ct, err := netx.DownloadFromPresignedURL(ctx, s.http, down.DownloadURL, link.Size+cryptox.TagSize)
	if err != nil {
		return "", fmt.Errorf("download object: %w", err)
	}

	data, err := cryptox.Decrypt(ct, link.Nonce, key)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(data)

	return filex.SaveNew(dir, filepath.Base(link.FileName), data)
}
