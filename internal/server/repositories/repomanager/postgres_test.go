package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func withGoose(t *testing.T, fn func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error) {
	t.Helper()
	orig := gooseUpContext
	gooseUpContext = fn
	t.Cleanup(func() { gooseUpContext = orig })
}

func TestFactories_ReturnRepositories(t *testing.T) {
	db, _ := newDB(t)
	m := NewPostgresRepositoryManager()

	assert.NotNil(t, m.Users(db))
	assert.NotNil(t, m.RefreshTokens(db))
	assert.NotNil(t, m.Vaults(db))
	assert.NotNil(t, m.Artifacts(db))
}

func TestRunMigrations_Success(t *testing.T) {
	db, _ := newDB(t)

	var gotDir string
	withGoose(t, func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		gotDir = dir
		return nil
	})

	require.NoError(t, NewPostgresRepositoryManager().RunMigrations(context.Background(), db))
	assert.Equal(t, ".", gotDir)
}

func TestRunMigrations_Error(t *testing.T) {
	db, _ := newDB(t)

	withGoose(t, func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	})

	err := NewPostgresRepositoryManager().RunMigrations(context.Background(), db)
	assert.EqualError(t, err, "boom")
}

func TestOpen(t *testing.T) {
	db, mock := newDB(t)
	orig := openDB
	t.Cleanup(func() { openDB = orig })

	openDB = func(dsn string) (*sql.DB, error) { return db, nil }
	mock.ExpectPing()

	got, err := Open(context.Background(), "postgres://x")
	require.NoError(t, err)
	assert.Same(t, db, got)
}

func TestOpen_PingError(t *testing.T) {
	db, mock := newDB(t)
	orig := openDB
	t.Cleanup(func() { openDB = orig })

	openDB = func(dsn string) (*sql.DB, error) { return db, nil }
	mock.ExpectPing().WillReturnError(errors.New("refused"))

	_, err := Open(context.Background(), "postgres://x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping db")
}

func TestOpen_OpenError(t *testing.T) {
	orig := openDB
	t.Cleanup(func() { openDB = orig })
	openDB = func(dsn string) (*sql.DB, error) { return nil, errors.New("bad dsn") }

	_, err := Open(context.Background(), "::")
	assert.ErrorContains(t, err, "bad dsn")
}
