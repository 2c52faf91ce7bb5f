// Package cryptox implements the client-side vault cryptography: per-vault
// salts, Argon2id key derivation and AES-256-GCM sealing of artifacts.
//
// Nothing in this package performs I/O besides reading the entropy source,
// and nothing here is ever executed on the server.
package cryptox

import (
	"crypto/sha256"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/afterlight/internal/common"
)

// KeySize is the length of a vault key in bytes (AES-256).
const KeySize = 32

// Key holds derived key material for the lifetime of a session.
//
// A Key is safe for concurrent use: any number of Encrypt/Decrypt calls may
// read it at once, and Wipe waits for them to finish before zeroing the bytes.
// After Wipe every use fails with common.ErrKeyReleased.
type Key struct {
	mu       sync.RWMutex
	b        []byte
	released bool
}

// NewKey wraps b as a Key. The Key takes ownership of b: the caller must not
// keep or modify the slice, and it is zeroed when the Key is wiped.
func NewKey(b []byte) (*Key, error) {
	if len(b) != KeySize {
		return nil, fmt.Errorf("key must be %d bytes, got %d", KeySize, len(b))
	}
	return &Key{b: b}, nil
}

// use runs fn with the raw key bytes under a read lock. fn must not retain b.
func (k *Key) use(fn func(b []byte) error) error {
	if k == nil {
		return common.ErrKeyReleased
	}
	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.released {
		return common.ErrKeyReleased
	}
	return fn(k.b)
}

// Wipe zeroes the key material. It is idempotent.
func (k *Key) Wipe() {
	if k == nil {
		return
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	common.WipeByteArray(k.b)
	k.b = nil
	k.released = true
}

// Released reports whether Wipe has been called.
func (k *Key) Released() bool {
	if k == nil {
		return true
	}
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.released
}

// String never prints key material.
func (k *Key) String() string {
	return "cryptox.Key(redacted)"
}

// MakeVerifier returns a one-way login verifier for an account master key.
// The server only ever stores a hash of this value.
func MakeVerifier(key *Key) ([]byte, error) {
	var out []byte
	err := key.use(func(b []byte) error {
		sum := sha256.Sum256(b)
		out = sum[:]
		return nil
	})
	return out, err
}
