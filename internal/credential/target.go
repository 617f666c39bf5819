package credential

import "strings"

// TargetFromPath extracts the host of a network path. It accepts
// \\host\share, //host/share, \\?\UNC\host\share and file://host/share,
// and reports false for local paths and device namespaces.
func TargetFromPath(p string) (string, bool) {
	p = strings.TrimSpace(p)
	lower := strings.ToLower(p)
	switch {
	case strings.HasPrefix(lower, "file://"):
		p = p[len("file://"):]
	case strings.HasPrefix(lower, `\\?\unc\`):
		p = p[len(`\\?\UNC\`):]
	case strings.HasPrefix(p, `\\?\`), strings.HasPrefix(p, `\\.\`):
		return "", false
	case strings.HasPrefix(p, `\\`), strings.HasPrefix(p, "//"):
		p = p[2:]
	default:
		return "", false
	}
	i := strings.IndexAny(p, `\/`)
	if i <= 0 {
		return "", false
	}
	host, rest := p[:i], strings.TrimLeft(p[i:], `\/`)
	if rest == "" || host == "." || host == "?" {
		return "", false
	}
	return host, true
}

// FirstTarget returns the host of the first network path in paths.
func FirstTarget(paths []string) (string, bool) {
	for _, p := range paths {
		if host, ok := TargetFromPath(p); ok {
			return host, true
		}
	}
	return "", false
}
