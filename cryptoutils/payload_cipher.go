package cryptoutils

import (
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/thresholdshare/escrow-backend/interfaces"
)

// KeySize is the length in bytes of the symmetric keys produced by Encrypt.
// The key is a fixed-length byte string, convertible to and from hex, which
// is what the secret splitter operates on.
const KeySize = chacha20poly1305.KeySize

// Encrypt seals plaintext under a freshly generated random key using
// XChaCha20-Poly1305. It returns the key detached from the ciphertext;
// the caller owns the key's lifecycle, nothing is persisted here.
//
// Ciphertext layout: nonce || sealed data. The nonce is random per call, so
// encrypting the same payload twice yields different ciphertexts.
func Encrypt(plaintext []byte) (key, ciphertext []byte, err error) {
	key = make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, nil, fmt.Errorf("failed to generate key: %w", err)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := aead.Seal(nil, nonce, plaintext, nil)
	return key, append(nonce, sealed...), nil
}

// Decrypt is the exact inverse of Encrypt. It fails with
// interfaces.ErrIntegrity when the ciphertext was tampered with or the key
// is wrong (authentication tag mismatch).
func Decrypt(ciphertext, key []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	if len(ciphertext) < aead.NonceSize() {
		return nil, fmt.Errorf("%w: ciphertext shorter than nonce", interfaces.ErrIntegrity)
	}

	nonce := ciphertext[:aead.NonceSize()]
	sealed := ciphertext[aead.NonceSize():]

	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrIntegrity, err)
	}

	return plaintext, nil
}

// WipeBytes zeroes sensitive data in memory. Callers use it on reconstructed
// keys and handed-out shares once they are no longer needed.
func WipeBytes(data []byte) {
	for i := range data {
		data[i] = 0
	}
}
