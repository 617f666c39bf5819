//go:build windows

package wincred

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/danieljoos/wincred"

	"github.com/warpdl/warpsched/pkg/credman"
	"github.com/warpdl/warpsched/pkg/credman/types"
)

// Store is a credman.Store backed by the Credential Manager.
type Store struct{}

// NewStore returns the Credential Manager store. It never fails on
// Windows.
func NewStore() (*Store, error) {
	return &Store{}, nil
}

func (*Store) Get(target string) (*types.Credential, error) {
	c, err := wincred.GetGenericCredential(targetName(target))
	if err != nil {
		return nil, mapErr(target, err)
	}
	return &types.Credential{
		Target:   target,
		UserName: c.UserName,
		Secret:   decodeBlob(c.CredentialBlob),
	}, nil
}

func (*Store) Put(cred types.Credential) error {
	if types.NormalizeTarget(cred.Target) == "" {
		return errors.New("credential target is empty")
	}
	blob, err := encodeBlob(cred.Secret)
	if err != nil {
		return err
	}
	c := wincred.NewGenericCredential(targetName(cred.Target))
	c.UserName = cred.UserName
	c.CredentialBlob = blob
	c.Persist = wincred.PersistLocalMachine
	if err := c.Write(); err != nil {
		return fmt.Errorf("error: cannot write credential for %s: %w", cred.Target, err)
	}
	return nil
}

func (*Store) Delete(target string) error {
	c, err := wincred.GetGenericCredential(targetName(target))
	if err != nil {
		return mapErr(target, err)
	}
	return c.Delete()
}

// Targets lists the targets this tool wrote, without their prefix.
func (*Store) Targets() ([]string, error) {
	creds, err := wincred.FilteredList(targetPrefix + "*")
	if err != nil {
		return nil, fmt.Errorf("error: cannot list credentials: %w", err)
	}
	out := make([]string, 0, len(creds))
	for _, c := range creds {
		out = append(out, strings.TrimPrefix(c.TargetName, targetPrefix))
	}
	sort.Strings(out)
	return out, nil
}

func mapErr(target string, err error) error {
	if errors.Is(err, wincred.ErrElementNotFound) {
		return fmt.Errorf("%w: %s", credman.ErrNotFound, target)
	}
	return err
}

var (
	_ credman.Store  = (*Store)(nil)
	_ credman.Lister = (*Store)(nil)
)
