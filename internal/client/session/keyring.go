// Package session holds derived vault keys for the lifetime of a CLI session.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/afterlight/internal/cryptox"
)

var (
	ErrAlreadyUnlocked = errors.New("vault is already unlocked")
	ErrLocked          = errors.New("vault is locked")
	ErrClosed          = errors.New("session is closed")
)

type entry struct {
	key   *cryptox.Key
	timer *time.Timer
}

// KeyRing keeps at most one key per vault. A key is set once by Unlock and
// leaves the ring only through Lock, Close or idle expiry, each of which
// wipes it.
type KeyRing struct {
	mu      sync.Mutex
	idle    time.Duration
	entries map[string]*entry
	closed  bool
	onWipe  func(vaultID string)
}

// NewKeyRing returns a ring whose keys expire after idle without use.
func NewKeyRing(idle time.Duration) *KeyRing {
	return &KeyRing{idle: idle, entries: map[string]*entry{}}
}

// OnExpire registers fn to be called (outside the lock) after a key expires.
func (r *KeyRing) OnExpire(fn func(vaultID string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onWipe = fn
}

// Unlock stores key for vaultID. On error the caller still owns key.
func (r *KeyRing) Unlock(vaultID string, key *cryptox.Key) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	if _, ok := r.entries[vaultID]; ok {
		return ErrAlreadyUnlocked
	}

	e := &entry{key: key}
	e.timer = time.AfterFunc(r.idle, func() { r.expire(vaultID, e) })
	r.entries[vaultID] = e
	return nil
}

// Key returns the key for vaultID and restarts its idle timer.
func (r *KeyRing) Key(vaultID string) (*cryptox.Key, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrClosed
	}
	e, ok := r.entries[vaultID]
	if !ok {
		return nil, ErrLocked
	}
	e.timer.Reset(r.idle)
	return e.key, nil
}

// Unlocked reports whether vaultID currently has a key.
func (r *KeyRing) Unlocked(vaultID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[vaultID]
	return ok
}

// Lock wipes and forgets the key for vaultID. Locking a locked vault is a
// no-op.
func (r *KeyRing) Lock(vaultID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[vaultID]; ok {
		e.timer.Stop()
		e.key.Wipe()
		delete(r.entries, vaultID)
	}
}

// LockAll wipes every key and leaves the ring usable, as on logout.
func (r *KeyRing) LockAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lockAll()
}

// Close wipes every key. The ring cannot be used afterwards.
func (r *KeyRing) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lockAll()
	r.closed = true
}

func (r *KeyRing) lockAll() {
	for id, e := range r.entries {
		e.timer.Stop()
		e.key.Wipe()
		delete(r.entries, id)
	}
}

func (r *KeyRing) expire(vaultID string, e *entry) {
	r.mu.Lock()
	cur, ok := r.entries[vaultID]
	if !ok || cur != e {
		r.mu.Unlock()
		return
	}
	e.key.Wipe()
	delete(r.entries, vaultID)
	fn := r.onWipe
	r.mu.Unlock()

	if fn != nil {
		fn(vaultID)
	}
}
