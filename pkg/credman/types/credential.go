// Package types holds the records exchanged with credential stores.
package types

import (
	"fmt"
	"strings"
)

// Credential is the account stored for one target. A target is the host
// part of a UNC path, so there is at most one account per file server.
type Credential struct {
	Target   string
	UserName string
	Secret   string
}

// String never includes the secret.
func (c Credential) String() string {
	return fmt.Sprintf("%s (%s)", c.Target, c.UserName)
}

// GoString never includes the secret.
func (c Credential) GoString() string {
	return fmt.Sprintf("types.Credential{Target:%q, UserName:%q, Secret:\"[redacted]\"}", c.Target, c.UserName)
}

// NormalizeTarget is the lookup key for target: trimmed and lower-cased,
// since Windows host names are case-insensitive.
func NormalizeTarget(target string) string {
	return strings.ToLower(strings.TrimSpace(target))
}
