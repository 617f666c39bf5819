//go:build !windows

package credential

func lookupServiceSID(string) bool {
	return false
}
