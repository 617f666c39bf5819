package keyring

import (
	"bytes"
	"errors"
	"testing"

	"github.com/zalando/go-keyring"

	"github.com/warpdl/warpsched/pkg/credman"
	"github.com/warpdl/warpsched/pkg/credman/types"
)

func useMockKeyring(t *testing.T) {
	t.Helper()
	keyring.MockInit()
	origSet, origGet, origDelete := keyringSet, keyringGet, keyringDelete
	keyringSet, keyringGet, keyringDelete = keyring.Set, keyring.Get, keyring.Delete
	t.Cleanup(func() {
		keyringSet, keyringGet, keyringDelete = origSet, origGet, origDelete
	})
}

func TestKeyringSetGetKey(t *testing.T) {
	useMockKeyring(t)
	k := NewKeyring()

	if _, err := k.GetKey(); err == nil {
		t.Fatal("expected error before SetKey")
	}
	key, err := k.SetKey()
	if err != nil {
		t.Fatalf("SetKey: %v", err)
	}
	got, err := k.GetKey()
	if err != nil {
		t.Fatalf("GetKey: %v", err)
	}
	if !bytes.Equal(got, key) || len(got) != 32 {
		t.Errorf("GetKey() = %x, want %x", got, key)
	}
	if err := k.DeleteKey(); err != nil {
		t.Fatalf("DeleteKey: %v", err)
	}
	if _, err := k.GetKey(); err == nil {
		t.Error("expected error after DeleteKey")
	}
}

func TestKeyringGetKeyRejectsGarbage(t *testing.T) {
	useMockKeyring(t)
	k := NewKeyring()
	tests := []struct {
		name  string
		value string
	}{
		{"not hex", "zz"},
		{"short", "abcd"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_ = keyring.Set(k.AppName, k.KeyField, tt.value)
			if _, err := k.GetKey(); err == nil {
				t.Errorf("GetKey() accepted %q", tt.value)
			}
		})
	}
}

func TestSetKeyRandFailure(t *testing.T) {
	useMockKeyring(t)
	orig := randRead
	randRead = func([]byte) (int, error) { return 0, errors.New("no entropy") }
	defer func() { randRead = orig }()
	if _, err := NewKeyring().SetKey(); err == nil {
		t.Error("expected error")
	}
}

type fakeSource struct {
	key     []byte
	getErr  error
	setErr  error
	setCall int
}

func (f *fakeSource) GetKey() ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.key, nil
}

func (f *fakeSource) SetKey() ([]byte, error) {
	f.setCall++
	if f.setErr != nil {
		return nil, f.setErr
	}
	f.key = bytes.Repeat([]byte{1}, 32)
	return f.key, nil
}

func TestLoadOrCreateKey(t *testing.T) {
	missing := errors.New("missing")
	broken := errors.New("broken")

	t.Run("existing in second source", func(t *testing.T) {
		a := &fakeSource{getErr: missing}
		b := &fakeSource{key: []byte("b")}
		key, err := LoadOrCreateKey(a, b)
		if err != nil || string(key) != "b" || a.setCall != 0 {
			t.Errorf("key=%q err=%v setCalls=%d", key, err, a.setCall)
		}
	})
	t.Run("create in first accepting source", func(t *testing.T) {
		a := &fakeSource{getErr: missing, setErr: broken}
		b := &fakeSource{getErr: missing}
		key, err := LoadOrCreateKey(a, b)
		if err != nil || len(key) != 32 || b.setCall != 1 {
			t.Errorf("key=%x err=%v", key, err)
		}
	})
	t.Run("all fail", func(t *testing.T) {
		a := &fakeSource{getErr: missing, setErr: broken}
		_, err := LoadOrCreateKey(a)
		if !errors.Is(err, broken) || !errors.Is(err, missing) {
			t.Errorf("err = %v", err)
		}
	})
}

func TestStore(t *testing.T) {
	useMockKeyring(t)
	s := NewStore()

	if _, err := s.Get("fs01"); !errors.Is(err, credman.ErrNotFound) {
		t.Fatalf("Get() on empty keyring = %v", err)
	}
	if err := s.Put(types.Credential{Target: "FS01", UserName: `CORP\alice`, Secret: "pw"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := s.Get("fs01")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Target != "FS01" || got.UserName != `CORP\alice` || got.Secret != "pw" {
		t.Errorf("Get() = %#v", got)
	}
	if err := s.Delete("Fs01"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete("fs01"); !errors.Is(err, credman.ErrNotFound) {
		t.Errorf("second Delete() = %v", err)
	}
	if err := s.Put(types.Credential{Target: ""}); err == nil {
		t.Error("expected error for empty target")
	}
}
