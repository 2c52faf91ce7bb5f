package session

import (
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/afterlight/internal/common"
	"github.com/dmitrijs2005/afterlight/internal/cryptox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKey(t *testing.T) *cryptox.Key {
	t.Helper()
	k, err := cryptox.NewKey(make([]byte, cryptox.KeySize))
	require.NoError(t, err)
	return k
}

func TestUnlockIsWriteOnce(t *testing.T) {
	r := NewKeyRing(time.Hour)
	k1, k2 := newKey(t), newKey(t)

	require.NoError(t, r.Unlock("v", k1))
	assert.ErrorIs(t, r.Unlock("v", k2), ErrAlreadyUnlocked)
	assert.False(t, k2.Released(), "a rejected key stays with the caller")

	got, err := r.Key("v")
	require.NoError(t, err)
	assert.Same(t, k1, got)
}

func TestKey_Locked(t *testing.T) {
	r := NewKeyRing(time.Hour)

	_, err := r.Key("v")
	assert.ErrorIs(t, err, ErrLocked)
	assert.False(t, r.Unlocked("v"))
}

func TestLockWipes(t *testing.T) {
	r := NewKeyRing(time.Hour)
	k := newKey(t)
	require.NoError(t, r.Unlock("v", k))

	r.Lock("v")
	r.Lock("v")

	assert.True(t, k.Released())
	_, err := r.Key("v")
	assert.ErrorIs(t, err, ErrLocked)

	_, _, err = cryptox.Encrypt([]byte("x"), k)
	assert.ErrorIs(t, err, common.ErrKeyReleased)

	require.NoError(t, r.Unlock("v", newKey(t)), "a locked vault can be unlocked again")
}

func TestCloseWipesAll(t *testing.T) {
	r := NewKeyRing(time.Hour)
	k1, k2 := newKey(t), newKey(t)
	require.NoError(t, r.Unlock("a", k1))
	require.NoError(t, r.Unlock("b", k2))

	r.Close()

	assert.True(t, k1.Released())
	assert.True(t, k2.Released())
	assert.ErrorIs(t, r.Unlock("c", newKey(t)), ErrClosed)
	_, err := r.Key("a")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestIdleExpiry(t *testing.T) {
	r := NewKeyRing(30 * time.Millisecond)
	expired := make(chan string, 1)
	r.OnExpire(func(id string) { expired <- id })

	k := newKey(t)
	require.NoError(t, r.Unlock("v", k))

	select {
	case id := <-expired:
		assert.Equal(t, "v", id)
	case <-time.After(2 * time.Second):
		t.Fatal("key did not expire")
	}
	assert.True(t, k.Released())
	assert.False(t, r.Unlocked("v"))
}

func TestUseResetsIdleTimer(t *testing.T) {
	r := NewKeyRing(80 * time.Millisecond)
	require.NoError(t, r.Unlock("v", newKey(t)))

	for i := 0; i < 5; i++ {
		time.Sleep(30 * time.Millisecond)
		_, err := r.Key("v")
		require.NoError(t, err)
	}
	assert.True(t, r.Unlocked("v"))
}

func TestStaleTimerDoesNotWipeNewKey(t *testing.T) {
	r := NewKeyRing(time.Hour)
	old := newKey(t)
	require.NoError(t, r.Unlock("v", old))
	e := r.entries["v"]

	r.Lock("v")
	fresh := newKey(t)
	require.NoError(t, r.Unlock("v", fresh))

	r.expire("v", e)
	assert.False(t, fresh.Released())
}

func TestConcurrentUseAndLock(t *testing.T) {
	r := NewKeyRing(time.Hour)
	require.NoError(t, r.Unlock("v", newKey(t)))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			k, err := r.Key("v")
			if err != nil {
				return
			}
			_, _, err = cryptox.Encrypt([]byte("secret"), k)
			if err != nil {
				assert.ErrorIs(t, err, common.ErrKeyReleased)
			}
		}()
	}
	r.Lock("v")
	wg.Wait()
}

func TestLockAllKeepsRingUsable(t *testing.T) {
	r := NewKeyRing(time.Hour)
	k := newKey(t)
	require.NoError(t, r.Unlock("a", k))

	r.LockAll()

	assert.True(t, k.Released())
	assert.False(t, r.Unlocked("a"))
	assert.NoError(t, r.Unlock("a", newKey(t)))
}
