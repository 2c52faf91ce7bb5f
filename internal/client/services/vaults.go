package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/afterlight/internal/client/client"
	"github.com/dmitrijs2005/afterlight/internal/client/repositories/artifacts"
	"github.com/dmitrijs2005/afterlight/internal/client/repositories/vaults"
	"github.com/dmitrijs2005/afterlight/internal/client/session"
	"github.com/dmitrijs2005/afterlight/internal/common"
	"github.com/dmitrijs2005/afterlight/internal/cryptox"
	"github.com/dmitrijs2005/afterlight/internal/logging"
	"github.com/dmitrijs2005/afterlight/internal/models"
)

// ErrHintRevealsPassphrase is returned when a hint contains the passphrase.
var ErrHintRevealsPassphrase = errors.New("hint must not contain the passphrase")

// VaultService creates, lists and unlocks vaults.
type VaultService interface {
	Create(ctx context.Context, name string, passphrase []byte, hint string) (*models.Vault, error)
	List(ctx context.Context) (list []*models.Vault, cached bool, err error)
	Get(ctx context.Context, vaultID string) (*models.Vault, error)
	Unlock(ctx context.Context, vaultID string, passphrase []byte) error
	Lock(vaultID string)
	IsUnlocked(vaultID string) bool
}

type vaultService struct {
	client  client.Client
	db      *sql.DB
	ring    *session.KeyRing
	deriver *cryptox.Deriver
	conn    Connectivity
	logger  logging.Logger
}

func NewVaultService(c client.Client, db *sql.DB, ring *session.KeyRing, d *cryptox.Deriver, conn Connectivity, l logging.Logger) VaultService {
	return &vaultService{client: c, db: db, ring: ring, deriver: d, conn: conn, logger: l}
}

func (s *vaultService) vaultRepo() vaults.Repository {
	return vaults.NewSQLiteRepository(s.db)
}

// Create generates a fresh salt, registers the vault on the server and
// unlocks it with a key derived from passphrase.
func (s *vaultService) Create(ctx context.Context, name string, passphrase []byte, hint string) (*models.Vault, error) {
	name, err := models.NormalizeVaultName(name)
	if err != nil {
		return nil, err
	}
	if err := models.ValidateHint(hint); err != nil {
		return nil, err
	}
	if len(passphrase) == 0 {
		return nil, common.ErrEmptyPassphrase
	}
	if hint != "" && bytes.Contains([]byte(strings.ToLower(hint)), bytes.ToLower(passphrase)) {
		return nil, ErrHintRevealsPassphrase
	}
	if !s.conn.Online() {
		return nil, client.ErrUnavailable
	}

	salt, err := cryptox.NewSalt()
	if err != nil {
		return nil, err
	}

	v, err := s.client.CreateVault(ctx, name, salt, hint)
	if err != nil {
		return nil, fmt.Errorf("create vault: %w", err)
	}
	if err := s.vaultRepo().Upsert(ctx, v); err != nil {
		s.logger.Warn(ctx, "failed to cache vault", "vault_id", v.ID, "error", err)
	}

	key, err := s.derive(ctx, passphrase, v.Salt)
	if err != nil {
		return v, err
	}
	if err := s.ring.Unlock(v.ID, key); err != nil {
		key.Wipe()
		return v, err
	}
	return v, nil
}

// List returns the server's vaults and refreshes the cache. While offline,
// or when the server cannot be reached, the cached list is returned.
func (s *vaultService) List(ctx context.Context) ([]*models.Vault, bool, error) {
	if s.conn.Online() {
		list, err := s.client.ListVaults(ctx)
		switch {
		case err == nil:
			repo := s.vaultRepo()
			for _, v := range list {
				if err := repo.Upsert(ctx, v); err != nil {
					return nil, false, err
				}
			}
			return list, false, nil
		case !errors.Is(err, client.ErrUnavailable):
			return nil, false, err
		}
		s.logger.Debug(ctx, "server unavailable, using cached vaults")
	}

	list, err := s.vaultRepo().List(ctx)
	if err != nil {
		return nil, true, err
	}
	return list, true, nil
}

// Get looks the vault up in the cache, refreshing it from the server once
// when the vault is not cached yet.
func (s *vaultService) Get(ctx context.Context, vaultID string) (*models.Vault, error) {
	v, err := s.vaultRepo().GetByID(ctx, vaultID)
	if !errors.Is(err, common.ErrorNotFound) {
		return v, err
	}
	if _, cached, lerr := s.List(ctx); lerr != nil || cached {
		return nil, err
	}
	return s.vaultRepo().GetByID(ctx, vaultID)
}

// Unlock derives the vault key and stores it in the key ring. When a sealed
// artifact of the vault is cached, the key is checked against it first and
// a wrong passphrase yields common.ErrAuthenticationFailed.
func (s *vaultService) Unlock(ctx context.Context, vaultID string, passphrase []byte) error {
	if s.ring.Unlocked(vaultID) {
		return session.ErrAlreadyUnlocked
	}
	v, err := s.Get(ctx, vaultID)
	if err != nil {
		return err
	}

	key, err := s.derive(ctx, passphrase, v.Salt)
	if err != nil {
		return err
	}
	if err := s.checkKey(ctx, vaultID, key); err != nil {
		key.Wipe()
		return err
	}
	if err := s.ring.Unlock(vaultID, key); err != nil {
		key.Wipe()
		return err
	}
	s.logger.Debug(ctx, "vault unlocked", "vault_id", vaultID)
	return nil
}

func (s *vaultService) checkKey(ctx context.Context, vaultID string, key *cryptox.Key) error {
	list, err := artifacts.NewSQLiteRepository(s.db).ListByVault(ctx, vaultID)
	if err != nil || len(list) == 0 {
		return nil
	}
	pt, err := cryptox.Decrypt(list[0].Blob, list[0].IV, key)
	if err != nil {
		return err
	}
	common.WipeByteArray(pt)
	return nil
}

// derive waits for the key or for ctx. A key that arrives after ctx is done
// is wiped in the background.
func (s *vaultService) derive(ctx context.Context, passphrase []byte, salt cryptox.Salt) (*cryptox.Key, error) {
	ch := s.deriver.DeriveAsync(passphrase, salt)
	select {
	case r := <-ch:
		return r.Key, r.Err
	case <-ctx.Done():
		go func() {
			if r := <-ch; r.Key != nil {
				r.Key.Wipe()
			}
		}()
		return nil, ctx.Err()
	}
}

func (s *vaultService) Lock(vaultID string) {
	s.ring.Lock(vaultID)
}

func (s *vaultService) IsUnlocked(vaultID string) bool {
	return s.ring.Unlocked(vaultID)
}
