// Package crypto ships the symmetric cipher used for remember-me tokens.
package crypto

import (
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// KeySize is the required secret key length in bytes.
const KeySize = chacha20poly1305.KeySize

// ErrDecrypt is returned for any undecryptable input. The cause is
// deliberately not distinguished; a tampered and a truncated token look the
// same to callers.
var ErrDecrypt = errors.New("decrypt failed")

// SecretBox is an XChaCha20-Poly1305 cipher with a random nonce prefixed to
// each ciphertext. The extended nonce makes random nonces safe without
// tracking any per-message state.
type SecretBox struct {
	key [KeySize]byte
}

func NewSecretBox(key []byte) (*SecretBox, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("secretbox key must be %d bytes, got %d", KeySize, len(key))
	}
	box := &SecretBox{}
	copy(box.key[:], key)
	return box, nil
}

func (b *SecretBox) Encrypt(plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(b.key[:])
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

func (b *SecretBox) Decrypt(ciphertext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(b.key[:])
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < aead.NonceSize() {
		return nil, ErrDecrypt
	}

	nonce, sealed := ciphertext[:aead.NonceSize()], ciphertext[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}
