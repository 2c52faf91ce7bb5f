// Package services contains the server-side business logic. Nothing here
// performs vault cryptography: the server only validates the structure of
// what clients send.
package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/alexedwards/argon2id"
	"github.com/dmitrijs2005/afterlight/internal/common"
	"github.com/dmitrijs2005/afterlight/internal/cryptox"
	"github.com/dmitrijs2005/afterlight/internal/dbx"
	"github.com/dmitrijs2005/afterlight/internal/server/auth"
	"github.com/dmitrijs2005/afterlight/internal/server/config"
	"github.com/dmitrijs2005/afterlight/internal/server/models"
	"github.com/dmitrijs2005/afterlight/internal/server/repositories/repomanager"
)

const (
	maxUsernameLen = 64
	verifierSize   = sha256.Size
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// verifierHashParams is the Argon2id cost used to store login verifiers.
// Tests lower it.
var verifierHashParams = argon2id.DefaultParams

// UserService registers accounts and issues tokens.
type UserService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	now                          func() time.Time
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:                           db,
		repomanager:                  m,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		now:                          time.Now,
	}
}

// NormalizeUsername trims and checks a username.
func NormalizeUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || utf8.RuneCountInString(username) > maxUsernameLen {
		return "", fmt.Errorf("%w: username must be 1..%d characters", common.ErrorValidation, maxUsernameLen)
	}
	return username, nil
}

// Register creates an account. The verifier is hashed with Argon2id before
// it is stored.
func (s *UserService) Register(ctx context.Context, username string, salt, verifier []byte) (*models.User, error) {
	username, err := NormalizeUsername(username)
	if err != nil {
		return nil, err
	}
	if len(salt) != cryptox.SaltSize {
		return nil, fmt.Errorf("%w: salt must be %d bytes", common.ErrorValidation, cryptox.SaltSize)
	}
	if len(verifier) != verifierSize {
		return nil, fmt.Errorf("%w: verifier must be %d bytes", common.ErrorValidation, verifierSize)
	}

	hash, err := argon2id.CreateHash(hex.EncodeToString(verifier), verifierHashParams)
	if err != nil {
		return nil, fmt.Errorf("hash verifier: %w", err)
	}

	user := &models.User{UserName: username, Salt: salt, VerifierHash: hash}
	u, err := s.repomanager.Users(s.db).Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u, nil
}

// GetSalt returns the account salt. Unknown usernames get a stable salt
// derived from the server secret so that the response does not reveal
// whether the account exists.
func (s *UserService) GetSalt(ctx context.Context, username string) ([]byte, error) {
	user, err := s.repomanager.Users(s.db).GetUserByLogin(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return s.decoySalt(username), nil
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return user.Salt, nil
}

// Login checks the verifier and issues a token pair.
func (s *UserService) Login(ctx context.Context, username string, verifier []byte) (*TokenPair, error) {
	user, err := s.repomanager.Users(s.db).GetUserByLogin(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	ok, err := argon2id.ComparePasswordAndHash(hex.EncodeToString(verifier), user.VerifierHash)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	if !ok {
		return nil, common.ErrorUnauthorized
	}

	return s.generateTokenPair(ctx, user.ID, s.db)
}

// GetUser returns the account behind an authenticated request. An account
// that no longer exists yields common.ErrorUnauthorized.
func (s *UserService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return user, nil
}

// RefreshToken rotates a refresh token inside a transaction and returns a
// new pair. Expired tokens yield common.ErrRefreshTokenExpired; unknown ones
// common.ErrorUnauthorized.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	digest := hashRefreshToken(refreshToken)

	token, err := s.repomanager.RefreshTokens(s.db).Find(ctx, digest)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}
	if token.Expires.Before(s.now()) {
		return nil, common.ErrRefreshTokenExpired
	}

	var pair *TokenPair
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.RefreshTokens(tx).Delete(ctx, digest); err != nil {
			return fmt.Errorf("error deleting refresh token: %w", err)
		}
		var genErr error
		pair, genErr = s.generateTokenPair(ctx, token.UserID, tx)
		return genErr
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

// Logout revokes a refresh token. Unknown tokens are ignored.
func (s *UserService) Logout(ctx context.Context, refreshToken string) error {
	return s.repomanager.RefreshTokens(s.db).Delete(ctx, hashRefreshToken(refreshToken))
}

// PurgeExpiredTokens deletes expired refresh tokens.
func (s *UserService) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	return s.repomanager.RefreshTokens(s.db).DeleteExpired(ctx, s.now())
}

// UserIDFromAccessToken validates an access token.
func (s *UserService) UserIDFromAccessToken(token string) (string, error) {
	return auth.GetUserIDFromToken(token, s.jwtSecret)
}

func (s *UserService) decoySalt(username string) []byte {
	mac := hmac.New(sha256.New, s.jwtSecret)
	mac.Write([]byte("salt:" + username))
	return mac.Sum(nil)[:cryptox.SaltSize]
}

func hashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (s *UserService) generateTokenPair(ctx context.Context, userID string, db dbx.DBTX) (*TokenPair, error) {
	access, err := auth.GenerateToken(userID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	refresh, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	expires := s.now().Add(s.refreshTokenValidityDuration)
	if err := s.repomanager.RefreshTokens(db).Create(ctx, userID, hashRefreshToken(refresh), expires); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
