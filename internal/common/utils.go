package common

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
)

// RandReader is the entropy source used by every helper in this package.
// Tests replace it to simulate an unavailable source.
var RandReader io.Reader = rand.Reader

// GenerateRandByteArray returns size bytes read from RandReader.
// A short or failed read is reported as ErrEntropyUnavailable; there is no
// fallback to a weaker source.
func GenerateRandByteArray(size int) ([]byte, error) {
	b := make([]byte, size)
	if _, err := io.ReadFull(RandReader, b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEntropyUnavailable, err)
	}
	return b, nil
}

// MakeRandHexString generates size random bytes and returns them hex encoded,
// so the resulting string is twice as long as size.
func MakeRandHexString(size int) (string, error) {
	b, err := GenerateRandByteArray(size)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// WipeByteArray overwrites the contents of b with zeros. Nil is a no-op.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
