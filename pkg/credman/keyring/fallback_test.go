package keyring

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFileKeyStoreRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cfg")
	f := NewFileKeyStore(dir)

	if _, err := f.GetKey(); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("GetKey() before SetKey = %v", err)
	}
	key, err := f.SetKey()
	if err != nil {
		t.Fatalf("SetKey: %v", err)
	}
	got, err := f.GetKey()
	if err != nil || !bytes.Equal(got, key) {
		t.Fatalf("GetKey() = %x, %v", got, err)
	}
	info, err := os.Stat(filepath.Join(dir, keyFileName))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != keyFileMode && os.PathSeparator == '/' {
		t.Errorf("mode = %v", info.Mode().Perm())
	}
	if err := f.DeleteKey(); err != nil {
		t.Fatalf("DeleteKey: %v", err)
	}
}

func TestFileKeyStoreInvalidContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not hex", "xyz"},
		{"wrong length", "00ff"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, keyFileName), []byte(tt.content), 0o600); err != nil {
				t.Fatal(err)
			}
			if _, err := NewFileKeyStore(dir).GetKey(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestFileKeyStoreTrailingNewline(t *testing.T) {
	dir := t.TempDir()
	hexKey := bytes.Repeat([]byte("ab"), 32)
	if err := os.WriteFile(filepath.Join(dir, keyFileName), append(hexKey, '\n'), 0o600); err != nil {
		t.Fatal(err)
	}
	key, err := NewFileKeyStore(dir).GetKey()
	if err != nil || len(key) != 32 {
		t.Errorf("GetKey() = %x, %v", key, err)
	}
}

func TestFileKeyStoreRenameFailure(t *testing.T) {
	orig := fileRename
	fileRename = func(string, string) error { return errors.New("denied") }
	defer func() { fileRename = orig }()

	dir := t.TempDir()
	if _, err := NewFileKeyStore(dir).SetKey(); err == nil {
		t.Fatal("expected error")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("temp file left behind: %v", entries)
	}
}

func TestFileKeyStoreAsKeySource(t *testing.T) {
	dir := t.TempDir()
	key, err := LoadOrCreateKey(NewFileKeyStore(dir))
	if err != nil {
		t.Fatal(err)
	}
	again, err := LoadOrCreateKey(NewFileKeyStore(dir))
	if err != nil || !bytes.Equal(key, again) {
		t.Errorf("second load = %x, %v", again, err)
	}
}
