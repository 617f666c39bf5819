package credential

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/warpdl/warpsched/pkg/credman"
	"github.com/warpdl/warpsched/pkg/credman/types"
	"github.com/warpdl/warpsched/pkg/logger"
)

type memStore struct {
	creds map[string]types.Credential
	err   error
	gets  int
}

func (m *memStore) Get(target string) (*types.Credential, error) {
	m.gets++
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.creds[types.NormalizeTarget(target)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", credman.ErrNotFound, target)
	}
	return &c, nil
}

func (m *memStore) Put(c types.Credential) error {
	m.creds[types.NormalizeTarget(c.Target)] = c
	return nil
}

func (m *memStore) Delete(target string) error {
	delete(m.creds, types.NormalizeTarget(target))
	return nil
}

func withCurrentUser(t *testing.T, name string) {
	t.Helper()
	orig := currentUser
	currentUser = func() (string, error) { return name, nil }
	t.Cleanup(func() { currentUser = orig })
}

func TestTargetFromPath(t *testing.T) {
	tests := []struct {
		path string
		host string
		ok   bool
	}{
		{`\\FS1\jobs\a.ps1`, "FS1", true},
		{`//fs1/jobs/a.ps1`, "fs1", true},
		{`\\?\UNC\fs1\share\a.ps1`, "fs1", true},
		{`\\?\unc\fs1\share`, "fs1", true},
		{`file://fs1/share/a.ps1`, "fs1", true},
		{`file:///C:/jobs/a.ps1`, "", false},
		{`\\?\C:\jobs\a.ps1`, "", false},
		{`\\.\pipe\x`, "", false},
		{`\\fs1`, "", false},
		{`\\fs1\`, "", false},
		{`C:\jobs\a.ps1`, "", false},
		{`/home/a.sh`, "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			host, ok := TargetFromPath(tt.path)
			if host != tt.host || ok != tt.ok {
				t.Errorf("TargetFromPath(%q) = %q, %v; want %q, %v", tt.path, host, ok, tt.host, tt.ok)
			}
		})
	}
}

func TestFirstTargetPriority(t *testing.T) {
	host, ok := FirstTarget([]string{`C:\jobs\a.ps1`, `\\work\dir`, `\\wrappers\w`})
	if !ok || host != "work" {
		t.Errorf("FirstTarget() = %q, %v", host, ok)
	}
}

func TestSameAccount(t *testing.T) {
	tests := []struct {
		stored, principal string
		want              bool
	}{
		{"alice", `DOMAIN\alice`, true},
		{`DOMAIN\Alice`, `domain\alice`, true},
		{"alice", `DOMAIN\bob`, false},
		{`CORP\alice`, "alice", false},
		{`CORP\alice`, `.\alice`, false},
		{`CORP\alice`, `OTHER\alice`, false},
		{"alice@corp.example.com", `CORP\alice`, true},
		{"alice@corp.example.com", `OTHER\alice`, false},
		{`.\alice`, `HOST\alice`, true},
		{"", "alice", false},
	}
	for _, tt := range tests {
		t.Run(tt.stored+"|"+tt.principal, func(t *testing.T) {
			if got := SameAccount(tt.stored, tt.principal); got != tt.want {
				t.Errorf("SameAccount(%q, %q) = %v", tt.stored, tt.principal, got)
			}
		})
	}
}

func TestIsServiceAccount(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"SYSTEM", true},
		{`NT AUTHORITY\SYSTEM`, true},
		{"Local Service", true},
		{`nt authority\network service`, true},
		{"S-1-5-18", true},
		{"alice", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsServiceAccount(tt.name); got != tt.want {
				t.Errorf("IsServiceAccount(%q) = %v", tt.name, got)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	withCurrentUser(t, `HOST\operator`)
	store := &memStore{creds: map[string]types.Credential{
		"fs1": {Target: "FS1", UserName: "alice", Secret: "s3cret"},
	}}
	script := []string{`\\FS1\jobs\nightly.ps1`}

	tests := []struct {
		name      string
		principal string
		password  string
		paths     []string
		want      Outcome
		warn      error
		secret    string
	}{
		{"mismatch", `DOMAIN\bob`, "", script, CredentialMismatch, ErrCredentialMismatch, ""},
		{"bare current user", "operator", "", script, NoSecretNeeded, nil, ""},
		{"resolved", `DOMAIN\alice`, "", script, Resolved, nil, "s3cret"},
		{"service account", "SYSTEM", "", script, NoSecretNeeded, nil, ""},
		{"empty principal", "", "", script, NoSecretNeeded, nil, ""},
		{"current user", `host\OPERATOR`, "", script, NoSecretNeeded, nil, ""},
		{"explicit password", `DOMAIN\bob`, "pw", script, SecretProvided, nil, "pw"},
		{"local paths", `DOMAIN\alice`, "", []string{`C:\jobs\a.ps1`, `C:\logs`}, TargetUnknown, ErrTargetUnknown, ""},
		{"not stored", `DOMAIN\alice`, "", []string{`\\fs2\x\a.ps1`}, CredentialNotFound, ErrCredentialNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(store, nil).ResolveWith(tt.principal, tt.password, tt.paths)
			if r.Outcome != tt.want {
				t.Fatalf("Outcome = %v, want %v", r.Outcome, tt.want)
			}
			if tt.warn == nil && r.Warning() != nil {
				t.Errorf("unexpected warning %v", r.Warning())
			}
			if tt.warn != nil && !errors.Is(r.Warning(), tt.warn) {
				t.Errorf("Warning() = %v, want %v", r.Warning(), tt.warn)
			}
			if r.Secret.Reveal() != tt.secret {
				t.Errorf("secret = %q, want %q", r.Secret.Reveal(), tt.secret)
			}
			if r.Outcome.HasSecret() != (tt.secret != "") {
				t.Errorf("HasSecret() = %v", r.Outcome.HasSecret())
			}
		})
	}
}

func TestResolveExplicitPasswordSkipsStore(t *testing.T) {
	withCurrentUser(t, "operator")
	store := &memStore{creds: map[string]types.Credential{}}
	NewResolver(store, nil).ResolveWith("bob", "pw", []string{`\\fs1\x`})
	if store.gets != 0 {
		t.Errorf("store queried %d times", store.gets)
	}
}

func TestResolveStoreErrorIsNotFound(t *testing.T) {
	withCurrentUser(t, "operator")
	l := logger.NewMockLogger()
	store := &memStore{err: errors.New("keyring locked")}
	r := NewResolver(store, l).Resolve("alice", []string{`\\fs1\x`})
	if r.Outcome != CredentialNotFound || !errors.Is(r.Warning(), ErrCredentialNotFound) {
		t.Errorf("result = %v, %v", r.Outcome, r.Warning())
	}
	if len(l.WarningCalls) != 1 {
		t.Errorf("expected store failure to be logged, got %v", l.WarningCalls)
	}
}

func TestResolveNilStore(t *testing.T) {
	withCurrentUser(t, "operator")
	r := NewResolver(nil, nil).Resolve("alice", []string{`\\fs1\x`})
	if r.Outcome != CredentialNotFound || r.Target != "fs1" {
		t.Errorf("result = %+v", r)
	}
}

func TestMismatchWarningHasNoSecret(t *testing.T) {
	withCurrentUser(t, "operator")
	store := &memStore{creds: map[string]types.Credential{
		"fs1": {Target: "FS1", UserName: "alice", Secret: "s3cret"},
	}}
	r := NewResolver(store, nil).Resolve(`DOMAIN\bob`, []string{`\\fs1\x`})
	if r.Secret != "" {
		t.Error("mismatch must discard the secret")
	}
	if msg := fmt.Sprintf("%v %+v", r.Warning(), r); strings.Contains(msg, "s3cret") {
		t.Errorf("secret leaked: %s", msg)
	}
}
