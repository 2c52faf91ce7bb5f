// Package services contains the application services of the Afterlight CLI.
// Every cryptographic operation of the system happens here: the server only
// ever receives salts, verifiers and sealed artifacts.
package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/afterlight/internal/client/client"
	"github.com/dmitrijs2005/afterlight/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/afterlight/internal/client/repositories/vaults"
	"github.com/dmitrijs2005/afterlight/internal/client/session"
	"github.com/dmitrijs2005/afterlight/internal/common"
	"github.com/dmitrijs2005/afterlight/internal/cryptox"
	"github.com/dmitrijs2005/afterlight/internal/dbx"
	"github.com/dmitrijs2005/afterlight/internal/logging"
	"github.com/dmitrijs2005/afterlight/internal/models"
)

// Connectivity reports whether the server is currently reachable.
type Connectivity interface {
	Online() bool
}

// AuthService manages the account session of the CLI.
//
// OnlineLogin authenticates against the server and caches what is needed
// for OfflineLogin: username, account salt, verifier and the token pair.
// Logout wipes every unlocked vault key and all locally cached data.
type AuthService interface {
	Register(ctx context.Context, username string, password []byte) error
	OnlineLogin(ctx context.Context, username string, password []byte) error
	OfflineLogin(ctx context.Context, username string, password []byte) error
	Logout(ctx context.Context) error
}

type authService struct {
	client  client.Client
	db      *sql.DB
	ring    *session.KeyRing
	deriver *cryptox.Deriver
	logger  logging.Logger
}

// NewAuthService wires an AuthService. Token pairs rotated by c are
// persisted to the local metadata store.
func NewAuthService(c client.Client, db *sql.DB, ring *session.KeyRing, d *cryptox.Deriver, l logging.Logger) AuthService {
	s := &authService{client: c, db: db, ring: ring, deriver: d, logger: l}
	c.OnTokensRefreshed(s.saveTokens)
	return s
}

func (s *authService) metadataRepo() metadata.Repository {
	return metadata.NewSQLiteRepository(s.db)
}

// verifierFor derives the account master key, turns it into a verifier and
// wipes the key.
func (s *authService) verifierFor(password []byte, salt cryptox.Salt) ([]byte, error) {
	key, err := s.deriver.Derive(password, salt)
	if err != nil {
		return nil, err
	}
	defer key.Wipe()
	return cryptox.MakeVerifier(key)
}

func (s *authService) Register(ctx context.Context, username string, password []byte) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("%w: username is required", common.ErrorValidation)
	}

	salt, err := cryptox.NewSalt()
	if err != nil {
		return err
	}
	verifier, err := s.verifierFor(password, salt)
	if err != nil {
		return err
	}

	if err := s.client.Register(ctx, username, salt, verifier); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	s.logger.Info(ctx, "account registered", "username", username)
	return nil
}

func (s *authService) OnlineLogin(ctx context.Context, username string, password []byte) error {
	salt, err := s.client.GetSalt(ctx, username)
	if err != nil {
		return fmt.Errorf("get salt: %w", err)
	}
	verifier, err := s.verifierFor(password, salt)
	if err != nil {
		return err
	}

	tokens, err := s.client.Login(ctx, username, verifier)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	if err := s.saveOfflineData(ctx, username, salt, verifier, tokens); err != nil {
		return fmt.Errorf("save offline data: %w", err)
	}
	return nil
}

// saveOfflineData stores the login material in one transaction. When a
// different account was cached before, its vaults and artifacts are dropped.
func (s *authService) saveOfflineData(ctx context.Context, username string, salt cryptox.Salt, verifier []byte, tokens models.TokenPair) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)

		prev, err := repo.Get(ctx, metadata.KeyUsername)
		switch {
		case errors.Is(err, common.ErrorNotFound):
		case err != nil:
			return err
		case string(prev) != username:
			if err := vaults.NewSQLiteRepository(tx).Clear(ctx); err != nil {
				return err
			}
		}

		values := map[string][]byte{
			metadata.KeyUsername:     []byte(username),
			metadata.KeySalt:         salt.Bytes(),
			metadata.KeyVerifier:     verifier,
			metadata.KeyAccessToken:  []byte(tokens.AccessToken),
			metadata.KeyRefreshToken: []byte(tokens.RefreshToken),
		}
		return repo.SetMany(ctx, values)
	})
}

func (s *authService) saveTokens(tokens models.TokenPair) {
	ctx := context.Background()
	err := s.metadataRepo().SetMany(ctx, map[string][]byte{
		metadata.KeyAccessToken:  []byte(tokens.AccessToken),
		metadata.KeyRefreshToken: []byte(tokens.RefreshToken),
	})
	if err != nil {
		s.logger.Warn(ctx, "failed to persist refreshed tokens", "error", err)
	}
}

// OfflineLogin checks password against the cached verifier. On success the
// cached token pair is handed to the client so the session can go online
// later without another login.
func (s *authService) OfflineLogin(ctx context.Context, username string, password []byte) error {
	values, err := s.metadataRepo().GetMany(ctx, metadata.OfflineKeys...)
	if err != nil {
		return err
	}

	savedUser, ok := values[metadata.KeyUsername]
	if !ok {
		return client.ErrLocalDataNotAvailable
	}
	if string(savedUser) != username {
		return common.ErrorUnauthorized
	}
	saltBytes, ok1 := values[metadata.KeySalt]
	savedVerifier, ok2 := values[metadata.KeyVerifier]
	if !ok1 || !ok2 {
		return client.ErrLocalDataNotAvailable
	}
	salt, err := cryptox.SaltFromBytes(saltBytes)
	if err != nil {
		return fmt.Errorf("cached salt: %w", err)
	}

	candidate, err := s.verifierFor(password, salt)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare(savedVerifier, candidate) == 0 {
		return common.ErrorUnauthorized
	}

	s.client.SetTokens(models.TokenPair{
		AccessToken:  string(values[metadata.KeyAccessToken]),
		RefreshToken: string(values[metadata.KeyRefreshToken]),
	})
	return nil
}

// Logout never fails on an unreachable server: the refresh token then simply
// expires on its own.
func (s *authService) Logout(ctx context.Context) error {
	s.ring.LockAll()

	if err := s.client.Logout(ctx); err != nil {
		if !errors.Is(err, client.ErrUnavailable) && !errors.Is(err, common.ErrorUnauthorized) {
			s.logger.Warn(ctx, "server logout failed", "error", err)
		}
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := vaults.NewSQLiteRepository(tx).Clear(ctx); err != nil {
			return err
		}
		return metadata.NewSQLiteRepository(tx).Clear(ctx)
	})
}
