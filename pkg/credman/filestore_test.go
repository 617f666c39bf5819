package credman

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/warpdl/warpsched/pkg/credman/types"
)

func newTestStore(t *testing.T) (*FileStore, string, []byte) {
	t.Helper()
	key := bytes.Repeat([]byte{7}, 32)
	path := filepath.Join(t.TempDir(), "creds", "credentials.dat")
	fs, err := NewFileStore(path, key)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return fs, path, key
}

func TestFileStoreRoundTrip(t *testing.T) {
	fs, path, key := newTestStore(t)

	if err := fs.Put(types.Credential{Target: "FS01", UserName: `CORP\alice`, Secret: "hunter2"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := fs.Get("fs01")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.UserName != `CORP\alice` || got.Secret != "hunter2" || got.Target != "FS01" {
		t.Errorf("Get() = %#v", got)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(data, []byte("hunter2")) {
		t.Error("secret stored in clear text")
	}

	reopened, err := NewFileStore(path, key)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err = reopened.Get("FS01")
	if err != nil || got.Secret != "hunter2" {
		t.Errorf("after reopen: %v, %v", got, err)
	}
}

func TestFileStoreOneRecordPerTarget(t *testing.T) {
	fs, _, _ := newTestStore(t)
	_ = fs.Put(types.Credential{Target: "fs01", UserName: "alice", Secret: "a"})
	_ = fs.Put(types.Credential{Target: "FS01", UserName: "bob", Secret: "b"})
	if targets, _ := fs.Targets(); len(targets) != 1 {
		t.Errorf("targets = %v", targets)
	}
	got, _ := fs.Get("fs01")
	if got.UserName != "bob" {
		t.Errorf("last write should win, got %s", got.UserName)
	}
}

func TestFileStoreNotFound(t *testing.T) {
	fs, _, _ := newTestStore(t)
	if _, err := fs.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v", err)
	}
	if err := fs.Delete("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() error = %v", err)
	}
}

func TestFileStoreDelete(t *testing.T) {
	fs, path, key := newTestStore(t)
	_ = fs.Put(types.Credential{Target: "fs01", UserName: "alice", Secret: "a"})
	if err := fs.Delete("FS01"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	reopened, _ := NewFileStore(path, key)
	if _, err := reopened.Get("fs01"); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted credential still present: %v", err)
	}
}

func TestFileStoreWrongKey(t *testing.T) {
	fs, path, _ := newTestStore(t)
	_ = fs.Put(types.Credential{Target: "fs01", UserName: "alice", Secret: "a"})
	other, err := NewFileStore(path, bytes.Repeat([]byte{9}, 32))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := other.Get("fs01"); err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("expected unseal failure, got %v", err)
	}
}

func TestNewFileStoreRejectsShortKey(t *testing.T) {
	if _, err := NewFileStore(filepath.Join(t.TempDir(), "x"), []byte("short")); err == nil {
		t.Error("expected error for short key")
	}
}

func TestFileStoreEmptyTarget(t *testing.T) {
	fs, _, _ := newTestStore(t)
	if err := fs.Put(types.Credential{Target: "  ", Secret: "x"}); err == nil {
		t.Error("expected error for empty target")
	}
}

func TestFileStoreTargetsSorted(t *testing.T) {
	fs, _, _ := newTestStore(t)
	for _, target := range []string{"fs02", "FS01", "backup"} {
		if err := fs.Put(types.Credential{Target: target, UserName: "u", Secret: "s"}); err != nil {
			t.Fatal(err)
		}
	}
	got, err := fs.Targets()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || got[0] != "FS01" || got[1] != "backup" || got[2] != "fs02" {
		t.Errorf("Targets() = %v", got)
	}
}

// breakDir replaces the store's directory with a regular file so the next
// save fails.
func breakDir(t *testing.T, path string) {
	t.Helper()
	dir := filepath.Dir(path)
	if err := os.RemoveAll(dir); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dir, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestFileStoreFailedSaveKeepsState(t *testing.T) {
	fs, path, _ := newTestStore(t)
	if err := fs.Put(types.Credential{Target: "fs01", UserName: "alice", Secret: "a"}); err != nil {
		t.Fatal(err)
	}
	breakDir(t, path)

	if err := fs.Put(types.Credential{Target: "fs01", UserName: "bob", Secret: "b"}); err == nil {
		t.Fatal("expected Put to fail")
	}
	if got, err := fs.Get("fs01"); err != nil || got.UserName != "alice" {
		t.Errorf("failed overwrite changed the record: %v, %v", got, err)
	}
	if err := fs.Put(types.Credential{Target: "fs02", UserName: "carol", Secret: "c"}); err == nil {
		t.Fatal("expected Put to fail")
	}
	if _, err := fs.Get("fs02"); !errors.Is(err, ErrNotFound) {
		t.Errorf("failed insert left a record: %v", err)
	}
	if err := fs.Delete("fs01"); err == nil {
		t.Fatal("expected Delete to fail")
	}
	if _, err := fs.Get("fs01"); err != nil {
		t.Errorf("failed delete removed the record: %v", err)
	}
}
