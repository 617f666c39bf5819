//go:build !windows

package wincred

import (
	"github.com/warpdl/warpsched/pkg/credman"
	"github.com/warpdl/warpsched/pkg/credman/types"
)

// Store is unusable outside Windows; NewStore always fails.
type Store struct{}

// NewStore returns ErrUnsupported.
func NewStore() (*Store, error) {
	return nil, ErrUnsupported
}

func (*Store) Get(string) (*types.Credential, error) { return nil, ErrUnsupported }
func (*Store) Put(types.Credential) error            { return ErrUnsupported }
func (*Store) Delete(string) error                   { return ErrUnsupported }
func (*Store) Targets() ([]string, error)            { return nil, ErrUnsupported }

var (
	_ credman.Store  = (*Store)(nil)
	_ credman.Lister = (*Store)(nil)
)
