// Package keyring keeps the credential master key and, where the platform
// has one, the credentials themselves in the operating system keyring.
package keyring

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	// ServiceName is the keyring service every warpsched entry lives under.
	ServiceName = "warpsched"
	keyLen      = 32
)

// Keyring manages the master key sealing the file credential store.
type Keyring struct {
	AppName  string
	KeyField string
}

var (
	keyringSet    = keyring.Set
	keyringGet    = keyring.Get
	keyringDelete = keyring.Delete
	randRead      = rand.Read
)

func NewKeyring() *Keyring {
	return &Keyring{
		AppName:  ServiceName,
		KeyField: "master-key",
	}
}

func (k *Keyring) SetKey() ([]byte, error) {
	key := make([]byte, keyLen)
	if _, err := randRead(key); err != nil {
		return nil, err
	}
	if err := keyringSet(k.AppName, k.KeyField, hex.EncodeToString(key)); err != nil {
		return nil, err
	}
	return key, nil
}

func (k *Keyring) GetKey() ([]byte, error) {
	s, err := keyringGet(k.AppName, k.KeyField)
	if err != nil {
		return nil, err
	}
	key, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid key format: %w", err)
	}
	if len(key) != keyLen {
		return nil, fmt.Errorf("invalid key length: expected %d, got %d", keyLen, len(key))
	}
	return key, nil
}

func (k *Keyring) DeleteKey() error {
	return keyringDelete(k.AppName, k.KeyField)
}

// KeySource is implemented by Keyring and FileKeyStore.
type KeySource interface {
	GetKey() ([]byte, error)
	SetKey() ([]byte, error)
}

// LoadOrCreateKey returns the first existing key among sources, trying them
// in order. When none holds a key, a new one is created in the first source
// that accepts it.
func LoadOrCreateKey(sources ...KeySource) ([]byte, error) {
	var errs []error
	for _, s := range sources {
		key, err := s.GetKey()
		if err == nil {
			return key, nil
		}
		errs = append(errs, err)
	}
	for _, s := range sources {
		key, err := s.SetKey()
		if err == nil {
			return key, nil
		}
		errs = append(errs, err)
	}
	return nil, fmt.Errorf("no usable key store: %w", errors.Join(errs...))
}
