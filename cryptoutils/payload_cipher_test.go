package cryptoutils

import (
	"bytes"
	"crypto/rand"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thresholdshare/escrow-backend/interfaces"
)

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	payloads := [][]byte{
		[]byte("hello"),
		{},
		bytes.Repeat([]byte{0xab}, 1<<16),
	}

	for _, payload := range payloads {
		key, ciphertext, err := Encrypt(payload)
		require.NoError(t, err, "Encrypt should succeed")
		require.Len(t, key, KeySize, "Key should be fixed length")

		plaintext, err := Decrypt(ciphertext, key)
		require.NoError(t, err, "Decrypt should succeed with the right key")
		assert.Equal(t, payload, plaintext, "Round trip should reproduce the payload byte-for-byte")
	}
}

func TestEncrypt_FreshKeyPerCall(t *testing.T) {
	payload := []byte("same payload twice")

	key1, ct1, err := Encrypt(payload)
	require.NoError(t, err)
	key2, ct2, err := Encrypt(payload)
	require.NoError(t, err)

	assert.NotEqual(t, key1, key2, "Each call should generate a fresh key")
	assert.NotEqual(t, ct1, ct2, "Ciphertexts should differ even for identical payloads")
}

func TestDecrypt_TamperedCiphertext(t *testing.T) {
	key, ciphertext, err := Encrypt([]byte("sensitive image data"))
	require.NoError(t, err)

	tampered := append([]byte(nil), ciphertext...)
	tampered[len(tampered)-1] ^= 0x01

	_, err = Decrypt(tampered, key)
	require.Error(t, err, "Tampered ciphertext must not decrypt")
	assert.True(t, errors.Is(err, interfaces.ErrIntegrity), "Tampering should surface as an integrity error")
}

func TestDecrypt_WrongKey(t *testing.T) {
	_, ciphertext, err := Encrypt([]byte("sensitive image data"))
	require.NoError(t, err)

	wrongKey := make([]byte, KeySize)
	_, err = rand.Read(wrongKey)
	require.NoError(t, err)

	_, err = Decrypt(ciphertext, wrongKey)
	require.Error(t, err, "Wrong key must not decrypt")
	assert.True(t, errors.Is(err, interfaces.ErrIntegrity), "Wrong key should surface as an integrity error")
}

func TestDecrypt_TruncatedCiphertext(t *testing.T) {
	key, _, err := Encrypt([]byte("payload"))
	require.NoError(t, err)

	_, err = Decrypt([]byte{0x01, 0x02}, key)
	require.Error(t, err)
	assert.True(t, errors.Is(err, interfaces.ErrIntegrity))
}
