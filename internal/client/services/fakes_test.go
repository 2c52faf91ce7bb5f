package services

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/afterlight/internal/client/client"
	"github.com/dmitrijs2005/afterlight/internal/client/localdb"
	"github.com/dmitrijs2005/afterlight/internal/client/session"
	"github.com/dmitrijs2005/afterlight/internal/common"
	"github.com/dmitrijs2005/afterlight/internal/cryptox"
	"github.com/dmitrijs2005/afterlight/internal/logging"
	"github.com/dmitrijs2005/afterlight/internal/models"
	"github.com/stretchr/testify/require"
)

var fastParams = cryptox.Params{Time: 1, MemoryKiB: cryptox.MinMemoryKiB, Threads: 1, KeyLen: cryptox.KeySize}

type fakeConn struct {
	offline atomic.Bool
}

func (f *fakeConn) Online() bool { return !f.offline.Load() }

type fakeUser struct {
	salt     cryptox.Salt
	verifier []byte
}

// fakeClient is an in-memory server.
type fakeClient struct {
	mu          sync.Mutex
	unavailable bool
	seq         int
	users       map[string]fakeUser
	tokens      models.TokenPair
	onRefresh   func(models.TokenPair)
	vaults      []*models.Vault
	artifacts   map[string][]*models.Artifact
	objectsURL  string
	creates     int
	logouts     int
}

func newFakeClient() *fakeClient {
	return &fakeClient{users: map[string]fakeUser{}, artifacts: map[string][]*models.Artifact{}}
}

func (f *fakeClient) setUnavailable(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unavailable = v
}

func (f *fakeClient) check() error {
	if f.unavailable {
		return client.ErrUnavailable
	}
	return nil
}

func (f *fakeClient) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s%d", prefix, f.seq)
}

func (f *fakeClient) Register(ctx context.Context, username string, salt cryptox.Salt, verifier []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(); err != nil {
		return err
	}
	if _, ok := f.users[username]; ok {
		return common.ErrConflict
	}
	f.users[username] = fakeUser{salt: salt, verifier: verifier}
	return nil
}

func (f *fakeClient) GetSalt(ctx context.Context, username string) (cryptox.Salt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(); err != nil {
		return cryptox.Salt{}, err
	}
	return f.users[username].salt, nil
}

func (f *fakeClient) Login(ctx context.Context, username string, verifier []byte) (models.TokenPair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(); err != nil {
		return models.TokenPair{}, err
	}
	u, ok := f.users[username]
	if !ok || !bytes.Equal(u.verifier, verifier) {
		return models.TokenPair{}, common.ErrorUnauthorized
	}
	f.tokens = models.TokenPair{AccessToken: "access-" + username, RefreshToken: "refresh-" + username}
	return f.tokens, nil
}

func (f *fakeClient) Logout(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logouts++
	f.tokens = models.TokenPair{}
	return f.check()
}

func (f *fakeClient) SetTokens(tokens models.TokenPair) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = tokens
}

func (f *fakeClient) OnTokensRefreshed(fn func(models.TokenPair)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onRefresh = fn
}

func (f *fakeClient) currentTokens() models.TokenPair {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tokens
}

func (f *fakeClient) CreateVault(ctx context.Context, name string, salt cryptox.Salt, hint string) (*models.Vault, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(); err != nil {
		return nil, err
	}
	v := &models.Vault{
		ID:        f.nextID("v"),
		Name:      name,
		Salt:      salt,
		Hint:      hint,
		CreatedAt: time.Date(2026, 1, 1, 0, 0, f.seq, 0, time.UTC),
	}
	f.vaults = append([]*models.Vault{v}, f.vaults...)
	return v, nil
}

func (f *fakeClient) ListVaults(ctx context.Context) ([]*models.Vault, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(); err != nil {
		return nil, err
	}
	out := make([]*models.Vault, len(f.vaults))
	copy(out, f.vaults)
	return out, nil
}

func (f *fakeClient) vault(id string) *models.Vault {
	for _, v := range f.vaults {
		if v.ID == id {
			return v
		}
	}
	return nil
}

func (f *fakeClient) CreateArtifact(ctx context.Context, vaultID string, mt models.MessageType, blob, iv []byte) (*models.Artifact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if err := f.check(); err != nil {
		return nil, err
	}
	if f.vault(vaultID) == nil {
		return nil, common.ErrorNotFound
	}
	for _, a := range f.artifacts[vaultID] {
		if bytes.Equal(a.IV, iv) {
			return nil, common.ErrConflict
		}
	}
	a := &models.Artifact{
		ID:          f.nextID("a"),
		VaultID:     vaultID,
		MessageType: mt,
		Blob:        append([]byte(nil), blob...),
		IV:          append([]byte(nil), iv...),
		CreatedAt:   time.Date(2026, 1, 1, 0, 0, f.seq, 0, time.UTC),
	}
	f.artifacts[vaultID] = append([]*models.Artifact{a}, f.artifacts[vaultID]...)
	return a, nil
}

func (f *fakeClient) ListArtifacts(ctx context.Context, vaultID string) (*models.Vault, []*models.Artifact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(); err != nil {
		return nil, nil, err
	}
	v := f.vault(vaultID)
	if v == nil {
		return nil, nil, common.ErrorNotFound
	}
	out := make([]*models.Artifact, 0, len(f.artifacts[vaultID]))
	for _, a := range f.artifacts[vaultID] {
		c := *a
		c.Blob = append([]byte(nil), a.Blob...)
		out = append(out, &c)
	}
	return v, out, nil
}

func (f *fakeClient) tamper(vaultID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.artifacts[vaultID][0].Blob[0] ^= 0x01
}

func (f *fakeClient) PresignUpload(ctx context.Context, vaultID string) (models.UploadURLResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(); err != nil {
		return models.UploadURLResponse{}, err
	}
	key := "vaults/" + vaultID + "/" + f.nextID("o")
	return models.UploadURLResponse{ObjectKey: key, UploadURL: f.objectsURL + "/" + key}, nil
}

func (f *fakeClient) PresignDownload(ctx context.Context, vaultID, objectKey string) (models.DownloadURLResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(); err != nil {
		return models.DownloadURLResponse{}, err
	}
	if !strings.HasPrefix(objectKey, "vaults/"+vaultID+"/") {
		return models.DownloadURLResponse{}, common.ErrorNotFound
	}
	return models.DownloadURLResponse{ObjectKey: objectKey, DownloadURL: f.objectsURL + "/" + objectKey}, nil
}

// objectStore mimics presigned PUT and GET on an S3 bucket.
type objectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (o *objectStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	o.mu.Lock()
	defer o.mu.Unlock()
	key := strings.TrimPrefix(r.URL.Path, "/")
	switch r.Method {
	case http.MethodPut:
		b, _ := io.ReadAll(r.Body)
		o.objects[key] = b
	case http.MethodGet:
		b, ok := o.objects[key]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(b)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (o *objectStore) get(key string) []byte {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.objects[key]
}

type testEnv struct {
	db       *sql.DB
	client   *fakeClient
	conn     *fakeConn
	ring     *session.KeyRing
	deriver  *cryptox.Deriver
	store    *objectStore
	auth     AuthService
	vaults   VaultService
	artifact ArtifactService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := localdb.Open(context.Background(), localdb.Memory)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	d, err := cryptox.NewDeriver(fastParams)
	require.NoError(t, err)

	store := &objectStore{objects: map[string][]byte{}}
	srv := httptest.NewServer(store)
	t.Cleanup(srv.Close)

	c := newFakeClient()
	c.objectsURL = srv.URL

	ring := session.NewKeyRing(time.Hour)
	t.Cleanup(ring.Close)

	conn := &fakeConn{}
	l := logging.Discard()

	return &testEnv{
		db:       db,
		client:   c,
		conn:     conn,
		ring:     ring,
		deriver:  d,
		store:    store,
		auth:     NewAuthService(c, db, ring, d, l),
		vaults:   NewVaultService(c, db, ring, d, conn, l),
		artifact: NewArtifactService(c, db, ring, srv.Client(), conn, l),
	}
}
