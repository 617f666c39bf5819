package credential

import (
	"os/user"
	"strings"
)

var currentUser = func() (string, error) {
	u, err := user.Current()
	if err != nil {
		return "", err
	}
	return u.Username, nil
}

// CurrentUser returns the account name of the running process, as
// DOMAIN\user on Windows.
func CurrentUser() (string, error) {
	return currentUser()
}

var serviceAccounts = map[string]bool{
	"system":          true,
	"localsystem":     true,
	"local service":   true,
	"localservice":    true,
	"network service": true,
	"networkservice":  true,
}

// Well-known SIDs of the built-in service accounts.
var serviceSIDs = map[string]bool{
	"s-1-5-18": true,
	"s-1-5-19": true,
	"s-1-5-20": true,
}

// IsServiceAccount reports whether principal is one of the built-in
// service identities, which never need a password.
func IsServiceAccount(principal string) bool {
	p := strings.ToLower(strings.TrimSpace(principal))
	if p == "" {
		return false
	}
	if serviceSIDs[p] {
		return true
	}
	if i := strings.LastIndexByte(p, '\\'); i >= 0 {
		if dom := p[:i]; dom != "nt authority" && dom != "." {
			return lookupServiceSID(principal)
		}
		p = p[i+1:]
	}
	if serviceAccounts[p] {
		return true
	}
	return lookupServiceSID(principal)
}

// SameAccount reports whether a stored credential's user is the account
// principal names, case-insensitively. A bare stored name matches the
// account part of DOMAIN\user, but a stored DOMAIN\user never matches a
// bare principal. A UPN user@corp.example matches CORP\user.
func SameAccount(stored, principal string) bool {
	a, b := strings.ToLower(strings.TrimSpace(stored)), strings.ToLower(strings.TrimSpace(principal))
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	da, ua := splitAccount(a)
	db, ub := splitAccount(b)
	if ua != ub {
		return false
	}
	return da == "" || da == db
}

// splitAccount returns the domain and account parts of a lower-cased name.
// "." and an absent domain both yield "".
func splitAccount(name string) (domain, account string) {
	if i := strings.LastIndexByte(name, '\\'); i >= 0 {
		domain, account = name[:i], name[i+1:]
	} else if i := strings.IndexByte(name, '@'); i >= 0 {
		account, domain = name[:i], name[i+1:]
		if j := strings.IndexByte(domain, '.'); j >= 0 {
			domain = domain[:j]
		}
	} else {
		account = name
	}
	if domain == "." {
		domain = ""
	}
	return domain, account
}
