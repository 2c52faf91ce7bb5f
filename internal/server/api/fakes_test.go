package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/afterlight/internal/common"
	"github.com/dmitrijs2005/afterlight/internal/cryptox"
	"github.com/dmitrijs2005/afterlight/internal/logging"
	"github.com/dmitrijs2005/afterlight/internal/models"
	srvmodels "github.com/dmitrijs2005/afterlight/internal/server/models"
	"github.com/dmitrijs2005/afterlight/internal/server/services"
)

var fixedTime = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

type fakeAccounts struct {
	registerErr error
	loginErr    error
	refreshErr  error
	logoutErr   error
	gotSalt     []byte
	gotVerifier []byte
	salt        []byte
}

func (f *fakeAccounts) Register(ctx context.Context, username string, salt, verifier []byte) (*srvmodels.User, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	f.gotSalt, f.gotVerifier = salt, verifier
	return &srvmodels.User{ID: "user-1", UserName: username}, nil
}

func (f *fakeAccounts) GetSalt(ctx context.Context, username string) ([]byte, error) {
	return f.salt, nil
}

func (f *fakeAccounts) Login(ctx context.Context, username string, verifier []byte) (*services.TokenPair, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &services.TokenPair{AccessToken: "access", RefreshToken: "refresh"}, nil
}

func (f *fakeAccounts) RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error) {
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return &services.TokenPair{AccessToken: "access2", RefreshToken: "refresh2"}, nil
}

func (f *fakeAccounts) Logout(ctx context.Context, refreshToken string) error {
	return f.logoutErr
}

func (f *fakeAccounts) GetUser(ctx context.Context, userID string) (*srvmodels.User, error) {
	if userID != "u1" {
		return nil, common.ErrorUnauthorized
	}
	return &srvmodels.User{ID: "u1", UserName: "alice", CreatedAt: fixedTime}, nil
}

func (f *fakeAccounts) UserIDFromAccessToken(token string) (string, error) {
	switch token {
	case "good":
		return "u1", nil
	case "other":
		return "u2", nil
	case "expired":
		return "", common.ErrTokenExpired
	default:
		return "", common.ErrInvalidToken
	}
}

// fakeStore backs both VaultService and ArtifactService.
type fakeStore struct {
	vaults    map[string]*models.Vault
	artifacts map[string][]*models.Artifact
	err       error
	n         int
}

func newFakeStore() *fakeStore {
	return &fakeStore{vaults: map[string]*models.Vault{}, artifacts: map[string][]*models.Artifact{}}
}

func (f *fakeStore) CreateVault(ctx context.Context, userID, name string, salt cryptox.Salt, hint string) (*models.Vault, error) {
	if f.err != nil {
		return nil, f.err
	}
	name, err := models.NormalizeVaultName(name)
	if err != nil {
		return nil, err
	}
	f.n++
	v := &models.Vault{ID: fmt.Sprintf("v%d", f.n), UserID: userID, Name: name, Salt: salt, Hint: hint, CreatedAt: fixedTime}
	f.vaults[v.ID] = v
	return v, nil
}

func (f *fakeStore) ListVaults(ctx context.Context, userID string) ([]*models.Vault, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []*models.Vault{}
	for _, v := range f.vaults {
		if v.UserID == userID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeStore) get(userID, vaultID string) (*models.Vault, error) {
	v, ok := f.vaults[vaultID]
	if !ok || v.UserID != userID {
		return nil, common.ErrorNotFound
	}
	return v, nil
}

func (f *fakeStore) CreateArtifact(ctx context.Context, userID, vaultID string, mt models.MessageType, blob, iv []byte) (*models.Artifact, error) {
	if f.err != nil {
		return nil, f.err
	}
	if _, err := f.get(userID, vaultID); err != nil {
		return nil, err
	}
	for _, a := range f.artifacts[vaultID] {
		if string(a.IV) == string(iv) {
			return nil, common.ErrConflict
		}
	}
	a := &models.Artifact{ID: "a1", VaultID: vaultID, MessageType: mt, Blob: blob, IV: iv, CreatedAt: fixedTime}
	f.artifacts[vaultID] = append([]*models.Artifact{a}, f.artifacts[vaultID]...)
	return a, nil
}

func (f *fakeStore) ListArtifacts(ctx context.Context, userID, vaultID string) (*models.Vault, []*models.Artifact, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	v, err := f.get(userID, vaultID)
	if err != nil {
		return nil, nil, err
	}
	return v, f.artifacts[vaultID], nil
}

type fakeObjects struct {
	store *fakeStore
}

func (f *fakeObjects) PresignUpload(ctx context.Context, userID, vaultID string) (*services.ObjectURL, error) {
	if _, err := f.store.get(userID, vaultID); err != nil {
		return nil, err
	}
	key := "vaults/" + vaultID + "/2026/01/02/k"
	return &services.ObjectURL{Key: key, URL: "https://s3.local/" + key + "?put", ExpiresAt: fixedTime}, nil
}

func (f *fakeObjects) PresignDownload(ctx context.Context, userID, vaultID, key string) (*services.ObjectURL, error) {
	if _, err := f.store.get(userID, vaultID); err != nil {
		return nil, err
	}
	if !strings.HasPrefix(key, "vaults/"+vaultID+"/") {
		return nil, common.ErrorNotFound
	}
	return &services.ObjectURL{Key: key, URL: "https://s3.local/" + key + "?get", ExpiresAt: fixedTime}, nil
}

type fakePinger struct{ err error }

func (f fakePinger) PingContext(ctx context.Context) error { return f.err }

type testEnv struct {
	accounts *fakeAccounts
	store    *fakeStore
	pinger   *fakePinger
	handler  http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		accounts: &fakeAccounts{salt: make([]byte, cryptox.SaltSize)},
		store:    newFakeStore(),
		pinger:   &fakePinger{},
	}
	s := NewServer(logging.Discard(), env.pinger, env.accounts, env.store, env.store, &fakeObjects{store: env.store})
	env.handler = s.Router()
	return env
}

func (e *testEnv) do(method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

var errBoom = errors.New("boom")
