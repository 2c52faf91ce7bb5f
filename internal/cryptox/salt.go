package cryptox

import (
	"fmt"

	"github.com/dmitrijs2005/afterlight/internal/common"
)

// SaltSize is the per-vault salt length in bytes (128 bits).
const SaltSize = 16

// Salt diversifies key derivation per vault. It is not secret.
type Salt [SaltSize]byte

// NewSalt draws a fresh salt from the secure random source. A failing source
// yields common.ErrEntropyUnavailable; the caller must abort, not retry with
// something weaker.
func NewSalt() (Salt, error) {
	var s Salt
	b, err := common.GenerateRandByteArray(SaltSize)
	if err != nil {
		return s, fmt.Errorf("generate salt: %w", err)
	}
	copy(s[:], b)
	return s, nil
}

// SaltFromBytes converts b to a Salt, rejecting any other length.
func SaltFromBytes(b []byte) (Salt, error) {
	var s Salt
	if len(b) != SaltSize {
		return s, fmt.Errorf("%w: salt must be %d bytes, got %d", common.ErrMalformedEncoding, SaltSize, len(b))
	}
	copy(s[:], b)
	return s, nil
}

// Bytes returns a copy of the salt as a slice.
func (s Salt) Bytes() []byte {
	b := make([]byte, SaltSize)
	copy(b, s[:])
	return b
}
