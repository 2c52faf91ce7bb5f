package cryptox

import (
	"fmt"

	"github.com/dmitrijs2005/afterlight/internal/common"
	"golang.org/x/crypto/argon2"
)

// Supported Argon2id work factor ranges.
const (
	MinTime      = 1
	MaxTime      = 16
	MinMemoryKiB = 8 * 1024
	MaxMemoryKiB = 4 * 1024 * 1024
	MinThreads   = 1
	MaxThreads   = 64
)

// Params captures the Argon2id work factor. The same Params must be used for
// the whole lifetime of a vault, otherwise its key can no longer be derived.
type Params struct {
	Time      uint32
	MemoryKiB uint32
	Threads   uint8
	KeyLen    uint32
}

// DefaultParams returns the work factor used for vault keys: t=3, 64 MiB, p=4.
func DefaultParams() Params {
	return Params{
		Time:      3,
		MemoryKiB: 64 * 1024,
		Threads:   4,
		KeyLen:    KeySize,
	}
}

// Validate checks every parameter against the supported range and returns
// common.ErrDerivationParamsInvalid describing the first violation.
func (p Params) Validate() error {
	switch {
	case p.Time < MinTime || p.Time > MaxTime:
		return fmt.Errorf("%w: time %d not in [%d, %d]", common.ErrDerivationParamsInvalid, p.Time, MinTime, MaxTime)
	case p.Threads < MinThreads || p.Threads > MaxThreads:
		return fmt.Errorf("%w: threads %d not in [%d, %d]", common.ErrDerivationParamsInvalid, p.Threads, MinThreads, MaxThreads)
	case p.MemoryKiB < MinMemoryKiB || p.MemoryKiB > MaxMemoryKiB:
		return fmt.Errorf("%w: memory %d KiB not in [%d, %d]", common.ErrDerivationParamsInvalid, p.MemoryKiB, MinMemoryKiB, MaxMemoryKiB)
	case p.KeyLen != KeySize:
		return fmt.Errorf("%w: key length must be %d", common.ErrDerivationParamsInvalid, KeySize)
	}
	return nil
}

// Deriver turns a passphrase and a vault salt into a vault key.
type Deriver struct {
	params Params
}

// NewDeriver validates p and returns a Deriver bound to it.
func NewDeriver(p Params) (*Deriver, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Deriver{params: p}, nil
}

// Params returns the work factor of d.
func (d *Deriver) Params() Params {
	return d.params
}

// Derive runs Argon2id over passphrase and salt. Identical inputs always
// produce the identical key. The call is deliberately slow and cannot be
// interrupted once started; see DeriveAsync for interactive callers.
func (d *Deriver) Derive(passphrase []byte, salt Salt) (*Key, error) {
	if len(passphrase) == 0 {
		return nil, common.ErrEmptyPassphrase
	}
	b := argon2.IDKey(passphrase, salt[:], d.params.Time, d.params.MemoryKiB, d.params.Threads, d.params.KeyLen)
	return NewKey(b)
}

// DeriveResult is delivered by DeriveAsync.
type DeriveResult struct {
	Key *Key
	Err error
}

// DeriveAsync derives on a separate goroutine and delivers exactly one result
// on the returned channel. The passphrase is copied, so the caller may wipe
// its own buffer as soon as DeriveAsync returns.
func (d *Deriver) DeriveAsync(passphrase []byte, salt Salt) <-chan DeriveResult {
	pw := make([]byte, len(passphrase))
	copy(pw, passphrase)

	out := make(chan DeriveResult, 1)
	go func() {
		defer common.WipeByteArray(pw)
		key, err := d.Derive(pw, salt)
		out <- DeriveResult{Key: key, Err: err}
		close(out)
	}()
	return out
}
