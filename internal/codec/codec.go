// Package codec defines the canonical wire encodings of vault and artifact
// fields: nonces and salts as lowercase hex, ciphertext as padded standard
// base64. Decoding is strict so that every accepted string maps back to
// exactly one byte sequence.
package codec

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/dmitrijs2005/afterlight/internal/common"
	"github.com/dmitrijs2005/afterlight/internal/cryptox"
)

var strictBase64 = base64.StdEncoding.Strict()

// EncodeNonce returns nonce as lowercase hex.
func EncodeNonce(nonce []byte) string {
	return hex.EncodeToString(nonce)
}

// DecodeNonce parses a lowercase hex nonce of exactly cryptox.NonceSize bytes.
func DecodeNonce(s string) ([]byte, error) {
	return decodeLowerHex(s, cryptox.NonceSize, "nonce")
}

// EncodeSalt returns salt as lowercase hex.
func EncodeSalt(salt cryptox.Salt) string {
	return hex.EncodeToString(salt[:])
}

// DecodeSalt parses a lowercase hex salt of exactly cryptox.SaltSize bytes.
func DecodeSalt(s string) (cryptox.Salt, error) {
	var salt cryptox.Salt
	b, err := decodeLowerHex(s, cryptox.SaltSize, "salt")
	if err != nil {
		return salt, err
	}
	copy(salt[:], b)
	return salt, nil
}

// EncodeBlob returns ciphertext as padded standard base64.
func EncodeBlob(ciphertext []byte) string {
	return base64.StdEncoding.EncodeToString(ciphertext)
}

// DecodeBlob parses padded standard base64. Unlike the stdlib default it
// rejects embedded CR/LF and non-zero trailing bits.
func DecodeBlob(s string) ([]byte, error) {
	for i := 0; i < len(s); i++ {
		if s[i] == '\r' || s[i] == '\n' {
			return nil, fmt.Errorf("%w: blob contains a line break", common.ErrMalformedEncoding)
		}
	}
	b, err := strictBase64.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: blob: %v", common.ErrMalformedEncoding, err)
	}
	return b, nil
}

// DecodeHex parses lowercase hex of any length. Used for verifiers.
func DecodeHex(s string) ([]byte, error) {
	return decodeLowerHex(s, -1, "hex value")
}

func decodeLowerHex(s string, size int, what string) ([]byte, error) {
	if size >= 0 && len(s) != size*2 {
		return nil, fmt.Errorf("%w: %s must be %d hex chars, got %d", common.ErrMalformedEncoding, what, size*2, len(s))
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return nil, fmt.Errorf("%w: %s has invalid character at %d", common.ErrMalformedEncoding, what, i)
		}
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", common.ErrMalformedEncoding, what, err)
	}
	return b, nil
}
