package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"github.com/dmitrijs2005/afterlight/internal/common"
)

const (
	// NonceSize is the AES-GCM nonce length (96 bits).
	NonceSize = 12
	// TagSize is the AES-GCM authentication tag length (128 bits).
	TagSize = 16
)

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return aead, nil
}

// Encrypt seals plaintext with AES-256-GCM under key.
//
// A fresh random 12-byte nonce is generated for every call and returned next
// to the ciphertext; callers cannot supply their own. The ciphertext carries
// the 16-byte tag, so len(ciphertext) == len(plaintext)+TagSize.
// If the random source fails, common.ErrEntropyUnavailable is returned and
// nothing is encrypted.
func Encrypt(plaintext []byte, key *Key) (ciphertext, nonce []byte, err error) {
	nonce, err = common.GenerateRandByteArray(NonceSize)
	if err != nil {
		return nil, nil, fmt.Errorf("generate nonce: %w", err)
	}

	err = key.use(func(k []byte) error {
		aead, err := newGCM(k)
		if err != nil {
			return err
		}
		ciphertext = aead.Seal(nil, nonce, plaintext, nil)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return ciphertext, nonce, nil
}

// Decrypt verifies and opens ciphertext. Every failure to authenticate,
// whatever its cause (wrong key, tampered ciphertext or nonce, truncated
// input), is reported as the same common.ErrAuthenticationFailed.
func Decrypt(ciphertext, nonce []byte, key *Key) ([]byte, error) {
	var plaintext []byte
	err := key.use(func(k []byte) error {
		if len(nonce) != NonceSize || len(ciphertext) < TagSize {
			return common.ErrAuthenticationFailed
		}
		aead, err := newGCM(k)
		if err != nil {
			return err
		}
		pt, err := aead.Open(nil, nonce, ciphertext, nil)
		if err != nil {
			return common.ErrAuthenticationFailed
		}
		plaintext = pt
		return nil
	})
	if err != nil {
		return nil, err
	}
	return plaintext, nil
}
