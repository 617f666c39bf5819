//go:build windows

package credential

import (
	"strings"

	"github.com/Microsoft/go-winio"
)

var lookupSidByName = winio.LookupSidByName

// lookupServiceSID resolves localized names of the service accounts, such
// as "NT-AUTORITÄT\SYSTEM", through their SID.
func lookupServiceSID(principal string) bool {
	sid, err := lookupSidByName(principal)
	if err != nil {
		return false
	}
	return serviceSIDs[strings.ToLower(sid)]
}
