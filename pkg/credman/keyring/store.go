package keyring

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/warpdl/warpsched/pkg/credman"
	"github.com/warpdl/warpsched/pkg/credman/types"
)

type entry struct {
	Target   string `json:"target"`
	UserName string `json:"user"`
	Secret   string `json:"secret"`
}

// Store keeps each credential as one JSON keyring entry, keyed by the
// normalized target under ServiceName.
type Store struct {
	service string
}

func NewStore() *Store {
	return &Store{service: ServiceName}
}

func (s *Store) Get(target string) (*types.Credential, error) {
	raw, err := keyringGet(s.service, types.NormalizeTarget(target))
	if err != nil {
		return nil, mapErr(target, err)
	}
	var e entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return nil, fmt.Errorf("decode keyring entry for %s: %w", target, err)
	}
	return &types.Credential{Target: e.Target, UserName: e.UserName, Secret: e.Secret}, nil
}

func (s *Store) Put(cred types.Credential) error {
	key := types.NormalizeTarget(cred.Target)
	if key == "" {
		return errors.New("credential target is empty")
	}
	raw, err := json.Marshal(entry{Target: cred.Target, UserName: cred.UserName, Secret: cred.Secret})
	if err != nil {
		return err
	}
	return keyringSet(s.service, key, string(raw))
}

func (s *Store) Delete(target string) error {
	return mapErr(target, keyringDelete(s.service, types.NormalizeTarget(target)))
}

func mapErr(target string, err error) error {
	if errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("%w: %s", credman.ErrNotFound, target)
	}
	return err
}

var _ credman.Store = (*Store)(nil)
