package metadata

import (
	"context"
)

// Keys stored by the CLI.
const (
	KeyUsername     = "username"
	KeySalt         = "salt"
	KeyVerifier     = "verifier"
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
)

// OfflineKeys are the values OfflineLogin needs.
var OfflineKeys = []string{KeyUsername, KeySalt, KeyVerifier, KeyAccessToken, KeyRefreshToken}

// Repository is a small key-value store. Get returns common.ErrorNotFound
// for a missing key; GetMany leaves missing keys out of its result.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	GetMany(ctx context.Context, keys ...string) (map[string][]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetMany(ctx context.Context, values map[string][]byte) error
	Clear(ctx context.Context) error
}
