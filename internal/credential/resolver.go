// Package credential finds the secret a scheduled task needs to run as a
// given account. Every failure is a warning: compilation continues without
// a secret and the operator may supply one out of band.
package credential

import (
	"errors"
	"fmt"

	"github.com/warpdl/warpsched/pkg/credman"
	"github.com/warpdl/warpsched/pkg/logger"
	"github.com/warpdl/warpsched/pkg/taskdef"
)

var (
	ErrTargetUnknown      = errors.New("no network path to derive a credential target from")
	ErrCredentialNotFound = errors.New("no stored credential for target")
	ErrCredentialMismatch = errors.New("stored credential belongs to another account")
)

// Outcome is how a resolution ended.
type Outcome int

const (
	// NoSecretNeeded: the task runs as the current user or a service account.
	NoSecretNeeded Outcome = iota
	// SecretProvided: the caller passed a secret directly.
	SecretProvided
	// Resolved: a stored credential for the target matched the principal.
	Resolved
	// TargetUnknown: no candidate path names a file server.
	TargetUnknown
	// CredentialNotFound: the store has nothing for the target.
	CredentialNotFound
	// CredentialMismatch: the stored credential is for another account.
	CredentialMismatch
)

func (o Outcome) String() string {
	switch o {
	case NoSecretNeeded:
		return "NoSecretNeeded"
	case SecretProvided:
		return "SecretProvided"
	case Resolved:
		return "Resolved"
	case TargetUnknown:
		return "TargetUnknown"
	case CredentialNotFound:
		return "CredentialNotFound"
	case CredentialMismatch:
		return "CredentialMismatch"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// HasSecret reports whether the outcome carries a usable secret.
func (o Outcome) HasSecret() bool {
	return o == SecretProvided || o == Resolved
}

// Result is the outcome of one resolution. Secret is set only for
// SecretProvided and Resolved.
type Result struct {
	Outcome    Outcome
	Principal  string
	Target     string
	StoredUser string
	Secret     taskdef.Secret
	cause      error
}

// Warning returns nil for the success outcomes, otherwise the sentinel for
// the outcome wrapped with its context.
func (r Result) Warning() error {
	switch r.Outcome {
	case TargetUnknown:
		return fmt.Errorf("%w (principal %s)", ErrTargetUnknown, r.Principal)
	case CredentialNotFound:
		if r.cause != nil {
			return fmt.Errorf("%w %s: %v", ErrCredentialNotFound, r.Target, r.cause)
		}
		return fmt.Errorf("%w %s", ErrCredentialNotFound, r.Target)
	case CredentialMismatch:
		return fmt.Errorf("%w: %s holds %s, task runs as %s", ErrCredentialMismatch, r.Target, r.StoredUser, r.Principal)
	default:
		return nil
	}
}

// Resolver looks secrets up in a credential store.
type Resolver struct {
	store credman.Store
	l     logger.Logger
}

// NewResolver returns a Resolver reading from store. A nil store makes
// every lookup a CredentialNotFound.
func NewResolver(store credman.Store, l logger.Logger) *Resolver {
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &Resolver{store: store, l: l}
}

// Resolve finds the secret for principal. candidatePaths are scanned in
// order for the first network path, whose host is the store target.
func (r *Resolver) Resolve(principal string, candidatePaths []string) Result {
	return r.ResolveWith(principal, "", candidatePaths)
}

// ResolveWith is Resolve with an explicit password. A non-empty password
// is used as-is without a store lookup, unless the principal is a service
// account.
func (r *Resolver) ResolveWith(principal, password string, candidatePaths []string) Result {
	res := Result{Principal: principal}
	if principal == "" || IsServiceAccount(principal) {
		return res
	}
	if password != "" {
		res.Outcome = SecretProvided
		res.Secret = taskdef.Secret(password)
		return res
	}
	if r.isCurrentUser(principal) {
		return res
	}

	target, ok := FirstTarget(candidatePaths)
	if !ok {
		res.Outcome = TargetUnknown
		return res
	}
	res.Target = target
	if r.store == nil {
		res.Outcome = CredentialNotFound
		return res
	}

	cred, err := r.store.Get(target)
	if err != nil {
		res.Outcome = CredentialNotFound
		if !errors.Is(err, credman.ErrNotFound) {
			r.l.Warning("credential store lookup for %s failed: %v", target, err)
			res.cause = err
		}
		return res
	}
	res.StoredUser = cred.UserName
	if !SameAccount(cred.UserName, principal) {
		res.Outcome = CredentialMismatch
		return res
	}
	res.Outcome = Resolved
	res.Secret = taskdef.Secret(cred.Secret)
	r.l.Info("using stored credential for %s (%s)", target, cred.UserName)
	return res
}

func (r *Resolver) isCurrentUser(principal string) bool {
	me, err := currentUser()
	if err != nil {
		r.l.Warning("cannot determine current user: %v", err)
		return false
	}
	return SameAccount(principal, me)
}
