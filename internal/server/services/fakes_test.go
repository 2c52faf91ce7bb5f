package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alexedwards/argon2id"
	"github.com/dmitrijs2005/afterlight/internal/common"
	"github.com/dmitrijs2005/afterlight/internal/dbx"
	"github.com/dmitrijs2005/afterlight/internal/models"
	"github.com/dmitrijs2005/afterlight/internal/server/config"
	srvmodels "github.com/dmitrijs2005/afterlight/internal/server/models"
	"github.com/dmitrijs2005/afterlight/internal/server/repositories/artifacts"
	"github.com/dmitrijs2005/afterlight/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/afterlight/internal/server/repositories/users"
	"github.com/dmitrijs2005/afterlight/internal/server/repositories/vaults"
	"github.com/stretchr/testify/require"
)

func init() {
	verifierHashParams = &argon2id.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
}

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = "k"
	cfg.AccessTokenValidityDuration = time.Hour
	cfg.RefreshTokenValidityDuration = 2 * time.Hour
	return cfg
}

type fakeUsersRepo struct {
	mu     sync.Mutex
	byName map[string]*srvmodels.User
	getErr error
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byName: map[string]*srvmodels.User{}}
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *srvmodels.User) (*srvmodels.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byName[u.UserName]; ok {
		return nil, common.ErrConflict
	}
	u.ID = "user-" + u.UserName
	u.CreatedAt = time.Now()
	f.byName[u.UserName] = u
	return u, nil
}

func (f *fakeUsersRepo) GetUserByLogin(ctx context.Context, name string) (*srvmodels.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byName[name]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (f *fakeUsersRepo) GetUserByID(ctx context.Context, id string) (*srvmodels.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.byName {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

type fakeRefreshRepo struct {
	mu        sync.Mutex
	tokens    map[string]*srvmodels.RefreshToken
	createErr error
	deleteErr error
}

func newFakeRefreshRepo() *fakeRefreshRepo {
	return &fakeRefreshRepo{tokens: map[string]*srvmodels.RefreshToken{}}
}

func (f *fakeRefreshRepo) Create(ctx context.Context, userID, hash string, exp time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.tokens[hash] = &srvmodels.RefreshToken{UserID: userID, TokenHash: hash, Expires: exp}
	return nil
}

func (f *fakeRefreshRepo) Find(ctx context.Context, hash string) (*srvmodels.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rt, ok := f.tokens[hash]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return rt, nil
}

func (f *fakeRefreshRepo) Delete(ctx context.Context, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.tokens, hash)
	return nil
}

func (f *fakeRefreshRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for k, v := range f.tokens {
		if v.Expires.Before(now) {
			delete(f.tokens, k)
			n++
		}
	}
	return n, nil
}

type fakeVaultsRepo struct {
	mu     sync.Mutex
	items  []*models.Vault
	seq    int
	err    error
	nilOut bool
}

func (f *fakeVaultsRepo) Create(ctx context.Context, v *models.Vault) (*models.Vault, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.seq++
	v.ID = vaultUUID(f.seq)
	v.CreatedAt = time.Unix(int64(f.seq), 0)
	f.items = append(f.items, v)
	return v, nil
}

func (f *fakeVaultsRepo) ListByUser(ctx context.Context, userID string) ([]*models.Vault, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.nilOut {
		return nil, nil
	}
	out := []*models.Vault{}
	for i := len(f.items) - 1; i >= 0; i-- {
		if f.items[i].UserID == userID {
			out = append(out, f.items[i])
		}
	}
	return out, nil
}

func (f *fakeVaultsRepo) GetByID(ctx context.Context, userID, vaultID string) (*models.Vault, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, v := range f.items {
		if v.ID == vaultID && v.UserID == userID {
			return v, nil
		}
	}
	return nil, common.ErrorNotFound
}

type fakeArtifactsRepo struct {
	mu    sync.Mutex
	items []*models.Artifact
	err   error
}

func (f *fakeArtifactsRepo) Create(ctx context.Context, a *models.Artifact) (*models.Artifact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, x := range f.items {
		if x.VaultID == a.VaultID && string(x.IV) == string(a.IV) {
			return nil, common.ErrConflict
		}
	}
	a.ID = vaultUUID(1000 + len(f.items))
	a.CreatedAt = time.Unix(int64(len(f.items)), 0)
	f.items = append(f.items, a)
	return a, nil
}

func (f *fakeArtifactsRepo) ListByVault(ctx context.Context, vaultID string) ([]*models.Artifact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := []*models.Artifact{}
	for i := len(f.items) - 1; i >= 0; i-- {
		if f.items[i].VaultID == vaultID {
			out = append(out, f.items[i])
		}
	}
	return out, nil
}

func vaultUUID(n int) string {
	return "00000000-0000-4000-8000-" + pad12(n)
}

func pad12(n int) string {
	s := "000000000000"
	d := []byte(s)
	for i := len(d) - 1; i >= 0 && n > 0; i-- {
		d[i] = byte('0' + n%10)
		n /= 10
	}
	return string(d)
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	r *fakeRefreshRepo
	v *fakeVaultsRepo
	a *fakeArtifactsRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		u: newFakeUsersRepo(),
		r: newFakeRefreshRepo(),
		v: &fakeVaultsRepo{},
		a: &fakeArtifactsRepo{},
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error       { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository                 { return m.u }
func (m *fakeRepoManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository { return m.r }
func (m *fakeRepoManager) Vaults(db dbx.DBTX) vaults.Repository               { return m.v }
func (m *fakeRepoManager) Artifacts(db dbx.DBTX) artifacts.Repository         { return m.a }
