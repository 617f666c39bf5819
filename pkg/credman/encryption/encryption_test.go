package encryption

import (
	"bytes"
	"errors"
	"testing"
)

func testKey() []byte {
	return bytes.Repeat([]byte{0x42}, KeySize)
}

func TestSealOpen(t *testing.T) {
	sealed, err := Seal([]byte("hunter2"), []byte("fs01"), testKey())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(sealed, []byte("gcm1")) {
		t.Errorf("missing prefix: %q", sealed[:4])
	}
	if bytes.Contains(sealed, []byte("hunter2")) {
		t.Error("plaintext visible in sealed data")
	}
	plain, err := Open(sealed, []byte("fs01"), testKey())
	if err != nil {
		t.Fatal(err)
	}
	if string(plain) != "hunter2" {
		t.Errorf("Open() = %q", plain)
	}
}

func TestOpenRejects(t *testing.T) {
	sealed, _ := Seal([]byte("hunter2"), []byte("fs01"), testKey())
	tests := []struct {
		name   string
		data   []byte
		target string
		key    []byte
		want   error
	}{
		{"other target", sealed, "fs02", testKey(), ErrMalformed},
		{"short", []byte("gcm1"), "fs01", testKey(), ErrMalformed},
		{"no prefix", append([]byte("xxxx"), sealed[4:]...), "fs01", testKey(), ErrMalformed},
		{"bad key", sealed, "fs01", []byte("short"), ErrInvalidKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Open(tt.data, []byte(tt.target), tt.key); !errors.Is(err, tt.want) {
				t.Errorf("Open() error = %v, want %v", err, tt.want)
			}
		})
	}
}
