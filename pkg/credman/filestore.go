package credman

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/warpdl/warpsched/pkg/credman/encryption"
	"github.com/warpdl/warpsched/pkg/credman/types"
)

const fileStoreMode = 0o600

// record is the on-disk form; the secret is sealed with the master key.
type record struct {
	Target   string
	UserName string
	Sealed   []byte
}

// FileStore keeps credentials in a gob encoded file, each secret sealed
// with AES-GCM. It is the backend of last resort on machines without an
// OS keyring.
type FileStore struct {
	mu       sync.Mutex
	filePath string
	key      []byte
	records  map[string]record
}

// NewFileStore opens (or prepares to create) the store at filePath.
func NewFileStore(filePath string, key []byte) (*FileStore, error) {
	if len(key) != encryption.KeySize {
		return nil, encryption.ErrInvalidKey
	}
	fs := &FileStore{
		filePath: filePath,
		key:      key,
		records:  make(map[string]record),
	}
	if err := fs.load(); err != nil {
		return nil, err
	}
	return fs, nil
}

func (fs *FileStore) load() error {
	data, err := os.ReadFile(fs.filePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read credential file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&fs.records); err != nil {
		return fmt.Errorf("decode credential file: %w", err)
	}
	return nil
}

// save writes the whole map through a temp file and rename.
func (fs *FileStore) save() error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(fs.records); err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}
	dir := filepath.Dir(fs.filePath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create credential dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".credentials.tmp.*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write credentials: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, fileStoreMode); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, fs.filePath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename credential file: %w", err)
	}
	return nil
}

func (fs *FileStore) Get(target string) (*types.Credential, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	key := types.NormalizeTarget(target)
	r, ok := fs.records[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, target)
	}
	secret, err := encryption.Open(r.Sealed, []byte(key), fs.key)
	if err != nil {
		return nil, fmt.Errorf("unseal credential for %s: %w", target, err)
	}
	return &types.Credential{Target: r.Target, UserName: r.UserName, Secret: string(secret)}, nil
}

func (fs *FileStore) Put(cred types.Credential) error {
	key := types.NormalizeTarget(cred.Target)
	if key == "" {
		return errors.New("credential target is empty")
	}
	sealed, err := encryption.Seal([]byte(cred.Secret), []byte(key), fs.key)
	if err != nil {
		return err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	prev, had := fs.records[key]
	fs.records[key] = record{Target: cred.Target, UserName: cred.UserName, Sealed: sealed}
	if err := fs.save(); err != nil {
		if had {
			fs.records[key] = prev
		} else {
			delete(fs.records, key)
		}
		return err
	}
	return nil
}

func (fs *FileStore) Delete(target string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	key := types.NormalizeTarget(target)
	prev, ok := fs.records[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, target)
	}
	delete(fs.records, key)
	if err := fs.save(); err != nil {
		fs.records[key] = prev
		return err
	}
	return nil
}

// Targets lists the stored targets in sorted order.
func (fs *FileStore) Targets() ([]string, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	out := make([]string, 0, len(fs.records))
	for _, r := range fs.records {
		out = append(out, r.Target)
	}
	sort.Strings(out)
	return out, nil
}

var (
	_ Store  = (*FileStore)(nil)
	_ Lister = (*FileStore)(nil)
)
