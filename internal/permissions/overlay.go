package permissions

import (
	"encoding/json"
	"strings"
)

// OverlayState tags the outcome of decoding a raw permission overlay payload.
type OverlayState int

const (
	// OverlayAbsent means no overlay payload was supplied.
	OverlayAbsent OverlayState = iota
	// OverlayPresent means the payload decoded into a list of permission strings.
	OverlayPresent
	// OverlayMalformed means the payload could not be decoded. Callers degrade
	// to the base permission set; the failure never propagates.
	OverlayMalformed
)

// Overlay is the decoded form of a principal's custom permission payload.
type Overlay struct {
	State       OverlayState
	Permissions []string
}

// DecodeOverlay parses a raw overlay payload into its tagged form. Accepted
// shapes are a JSON array of strings or an object with a "permissions" array,
// matching what the admin management UI writes.
func DecodeOverlay(raw []byte) Overlay {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return Overlay{State: OverlayAbsent}
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return Overlay{State: OverlayPresent, Permissions: cleanPermissions(list)}
	}

	var wrapped struct {
		Permissions []string `json:"permissions"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Permissions != nil {
		return Overlay{State: OverlayPresent, Permissions: cleanPermissions(wrapped.Permissions)}
	}

	return Overlay{State: OverlayMalformed}
}

func cleanPermissions(list []string) []string {
	out := make([]string, 0, len(list))
	for _, perm := range list {
		perm = strings.TrimSpace(perm)
		if perm == "" {
			continue
		}
		out = append(out, perm)
	}
	return out
}
