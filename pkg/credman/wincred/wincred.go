// Package wincred stores credentials in the Windows Credential Manager as
// generic credentials named "warpsched:<target>".
package wincred

import (
	"errors"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"

	"github.com/warpdl/warpsched/pkg/credman/types"
)

const targetPrefix = "warpsched:"

// ErrUnsupported is returned on platforms without a Credential Manager.
var ErrUnsupported = errors.New("windows credential manager is not available on this platform")

func targetName(target string) string {
	return targetPrefix + types.NormalizeTarget(target)
}

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// encodeBlob stores secrets as UTF-16LE, the form cmdkey and the control
// panel write.
func encodeBlob(secret string) ([]byte, error) {
	return utf16le.NewEncoder().Bytes([]byte(secret))
}

// decodeBlob accepts UTF-16LE blobs and falls back to raw bytes for
// blobs written by tools that store UTF-8.
func decodeBlob(blob []byte) string {
	if len(blob)%2 == 0 {
		if s, err := utf16le.NewDecoder().Bytes(blob); err == nil && utf8.Valid(s) && !hasNUL(s) {
			return string(s)
		}
	}
	return string(blob)
}

func hasNUL(b []byte) bool {
	for _, c := range b {
		if c == 0 {
			return true
		}
	}
	return false
}
