package permissions

import (
	"sort"

	"go.uber.org/zap"

	"github.com/carenethq/carenet/internal/models"
	"github.com/carenethq/carenet/pkg/logger"
)

// Resolve returns the deduplicated permission set for a role merged with its
// optional overlay payload. The function is pure apart from the one warning
// logged when the overlay is malformed; it performs no I/O and is cheap enough
// to call on every authorization check.
func Resolve(role models.Role, overlayRaw []byte) map[string]struct{} {
	set := make(map[string]struct{})
	for _, perm := range baseTable[role] {
		set[perm] = struct{}{}
	}

	overlay := DecodeOverlay(overlayRaw)
	switch overlay.State {
	case OverlayPresent:
		for _, perm := range overlay.Permissions {
			set[perm] = struct{}{}
		}
	case OverlayMalformed:
		logger.WithModule("permissions").Warn("malformed permission overlay, using base set",
			zap.String("role", role.String()),
		)
	}

	return set
}

// ResolveList returns the resolved permission set as a sorted slice.
func ResolveList(role models.Role, overlayRaw []byte) []string {
	set := Resolve(role, overlayRaw)
	out := make([]string, 0, len(set))
	for perm := range set {
		out = append(out, perm)
	}
	sort.Strings(out)
	return out
}

// Has reports whether the role, merged with its overlay, grants the permission.
func Has(role models.Role, overlayRaw []byte, permission string) bool {
	_, ok := Resolve(role, overlayRaw)[permission]
	return ok
}
