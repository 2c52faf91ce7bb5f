package cryptox

import (
	"testing"

	"github.com/dmitrijs2005/afterlight/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	k := testKey(t, 3)

	for _, pt := range [][]byte{{}, []byte("a"), []byte("my seed phrase"), make([]byte, 1<<16)} {
		ct, nonce, err := Encrypt(pt, k)
		require.NoError(t, err)
		assert.Len(t, nonce, NonceSize)
		assert.Len(t, ct, len(pt)+TagSize)

		got, err := Decrypt(ct, nonce, k)
		require.NoError(t, err)
		assert.Equal(t, len(pt), len(got))
		assert.Equal(t, string(pt), string(got))
	}
}

func TestDecrypt_TamperEveryBit(t *testing.T) {
	k := testKey(t, 4)
	ct, nonce, err := Encrypt([]byte("tamper me"), k)
	require.NoError(t, err)

	for i := 0; i < len(ct)*8; i++ {
		bad := append([]byte(nil), ct...)
		bad[i/8] ^= 1 << (i % 8)
		_, err := Decrypt(bad, nonce, k)
		require.ErrorIs(t, err, common.ErrAuthenticationFailed, "ciphertext bit %d", i)
	}

	for i := 0; i < len(nonce)*8; i++ {
		bad := append([]byte(nil), nonce...)
		bad[i/8] ^= 1 << (i % 8)
		_, err := Decrypt(ct, bad, k)
		require.ErrorIs(t, err, common.ErrAuthenticationFailed, "nonce bit %d", i)
	}
}

func TestDecrypt_WrongKey(t *testing.T) {
	ct, nonce, err := Encrypt([]byte("secret"), testKey(t, 5))
	require.NoError(t, err)

	_, err = Decrypt(ct, nonce, testKey(t, 6))
	assert.ErrorIs(t, err, common.ErrAuthenticationFailed)
}

func TestDecrypt_MalformedInputs(t *testing.T) {
	k := testKey(t, 5)
	ct, nonce, err := Encrypt([]byte("secret"), k)
	require.NoError(t, err)

	_, err = Decrypt(ct[:TagSize-1], nonce, k)
	assert.ErrorIs(t, err, common.ErrAuthenticationFailed)

	_, err = Decrypt(ct, nonce[:8], k)
	assert.ErrorIs(t, err, common.ErrAuthenticationFailed)

	_, err = Decrypt(nil, nil, k)
	assert.ErrorIs(t, err, common.ErrAuthenticationFailed)
}

func TestEncrypt_DistinctNonces(t *testing.T) {
	k := testKey(t, 8)
	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		_, nonce, err := Encrypt([]byte("same plaintext"), k)
		require.NoError(t, err)
		_, dup := seen[string(nonce)]
		require.False(t, dup, "nonce repeated after %d encryptions", i)
		seen[string(nonce)] = struct{}{}
	}
}

func TestEncrypt_EntropyUnavailable(t *testing.T) {
	k := testKey(t, 9)
	withBrokenEntropy(t)

	ct, nonce, err := Encrypt([]byte("x"), k)
	assert.ErrorIs(t, err, common.ErrEntropyUnavailable)
	assert.Nil(t, ct)
	assert.Nil(t, nonce)
}

func TestPassphraseScenario(t *testing.T) {
	d, err := NewDeriver(fastParams)
	require.NoError(t, err)
	salt, err := NewSalt()
	require.NoError(t, err)

	k, err := d.Derive([]byte("correct horse battery staple"), salt)
	require.NoError(t, err)
	ct, nonce, err := Encrypt([]byte("my seed phrase"), k)
	require.NoError(t, err)

	again, err := d.Derive([]byte("correct horse battery staple"), salt)
	require.NoError(t, err)
	pt, err := Decrypt(ct, nonce, again)
	require.NoError(t, err)
	assert.Equal(t, "my seed phrase", string(pt))

	wrong, err := d.Derive([]byte("wrong passphrase"), salt)
	require.NoError(t, err)
	_, err = Decrypt(ct, nonce, wrong)
	assert.ErrorIs(t, err, common.ErrAuthenticationFailed)
}
