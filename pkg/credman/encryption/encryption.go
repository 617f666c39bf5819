// Package encryption seals secrets with AES-256-GCM for the file store.
package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

// KeySize is the length of the master key.
const KeySize = 32

const gcmPrefix = "gcm1"

var (
	ErrInvalidKey = errors.New("encryption key must be 32 bytes")
	ErrMalformed  = errors.New("malformed ciphertext")
)

var randReader io.Reader = rand.Reader

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Seal encrypts plaintext as "gcm1" || nonce || ciphertext. target is bound
// as additional data so a record cannot be moved to another target.
func Seal(plaintext, target, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(randReader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	out := make([]byte, 0, len(gcmPrefix)+len(nonce)+len(plaintext)+gcm.Overhead())
	out = append(out, gcmPrefix...)
	out = append(out, nonce...)
	return gcm.Seal(out, nonce, plaintext, target), nil
}

// Open reverses Seal.
func Open(sealed, target, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(sealed) < len(gcmPrefix)+gcm.NonceSize() || string(sealed[:len(gcmPrefix)]) != gcmPrefix {
		return nil, ErrMalformed
	}
	nonce := sealed[len(gcmPrefix) : len(gcmPrefix)+gcm.NonceSize()]
	plaintext, err := gcm.Open(nil, nonce, sealed[len(gcmPrefix)+gcm.NonceSize():], target)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return plaintext, nil
}
