package simpleblog

import "strings"

// CanonicalID returns the comparison form of an identity
func CanonicalID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// Authorize allows the action only when actorID and ownerID name the same
// identity. A denial is always ErrForbidden with no further detail.
func Authorize(actorID, ownerID string) error {
	actor := CanonicalID(actorID)
	if actor == "" || actor != CanonicalID(ownerID) {
		return ErrForbidden
	}
	return nil
}
