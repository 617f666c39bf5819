// Package credman stores run-as credentials keyed by target host.
package credman

import (
	"errors"

	"github.com/warpdl/warpsched/pkg/credman/types"
)

// ErrNotFound is returned by Get and Delete when no record exists for the
// target.
var ErrNotFound = errors.New("credential not found")

// Store is a credential backend. Put replaces any existing record for the
// same target.
type Store interface {
	Get(target string) (*types.Credential, error)
	Put(cred types.Credential) error
	Delete(target string) error
}

// Lister is implemented by backends that can enumerate their targets.
type Lister interface {
	Targets() ([]string, error)
}
