package metadata

import (
	"context"
	"database/sql"
	"testing"

	"github.com/dmitrijs2005/afterlight/internal/client/localdb"
	"github.com/dmitrijs2005/afterlight/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := localdb.Open(context.Background(), localdb.Memory)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSetAndGet_InsertThenGet(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, KeySalt, []byte{0x01, 0x02}))

	v, err := r.Get(ctx, KeySalt)
	require.NoError(t, err)
	require.Equal(t, []byte{0x01, 0x02}, v)
}

func TestGet_Missing_ReturnsNotFound(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	v, err := r.Get(context.Background(), "absent")
	require.ErrorIs(t, err, common.ErrorNotFound)
	require.Nil(t, v)
}

func TestSet_UpsertOverwritesValue(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "k", []byte("old")))
	require.NoError(t, r.Set(ctx, "k", []byte("new")))

	v, err := r.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("new"), v)
}

func TestSet_NilStoredAsEmpty(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "k", nil))

	v, err := r.Get(ctx, "k")
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestSetMany_ThenGetMany(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "a", []byte("old")))
	require.NoError(t, r.SetMany(ctx, map[string][]byte{
		"a": {0xAA},
		"b": {0xBB, 0xCC},
		"c": nil,
	}))

	m, err := r.GetMany(ctx, "a", "b", "c", "missing")
	require.NoError(t, err)
	assert.Len(t, m, 3)
	assert.Equal(t, []byte{0xAA}, m["a"])
	assert.Equal(t, []byte{0xBB, 0xCC}, m["b"])
	assert.Empty(t, m["c"])
	_, ok := m["missing"]
	assert.False(t, ok)
}

func TestSetMany_Empty(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	require.NoError(t, r.SetMany(context.Background(), nil))

	m, err := r.GetMany(context.Background())
	require.NoError(t, err)
	assert.Empty(t, m)
}

func TestClear_RemovesAllKeys(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "a", []byte{1}))
	require.NoError(t, r.Set(ctx, "b", []byte{2}))
	require.NoError(t, r.Clear(ctx))

	m, err := r.GetMany(ctx, "a", "b")
	require.NoError(t, err)
	assert.Empty(t, m)
}

func TestClosedDB_ErrorsWrapped(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()
	require.NoError(t, db.Close())

	_, err := r.Get(ctx, "k")
	assert.ErrorContains(t, err, "get metadata[k]")
	assert.NotErrorIs(t, err, common.ErrorNotFound)

	assert.ErrorContains(t, r.Set(ctx, "k", []byte("v")), "set metadata[k]")
	assert.ErrorContains(t, r.Clear(ctx), "clear metadata")

	_, err = r.GetMany(ctx, "k")
	assert.ErrorContains(t, err, "get metadata")
}
