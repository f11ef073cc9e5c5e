package types

import (
	"time"

	"github.com/google/uuid"
)

// RevisionID identifies one state of the rule catalogue. Every mutation
// (upsert, remove, import) produces a fresh revision; the validation engine
// compares revisions to decide when its result cache is stale.
// UUIDv7 time-ordering makes revisions sortable in audit logs and storage.
type RevisionID string

// NewRevisionID generates a UUIDv7 revision identifier.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewRevisionID() RevisionID {
	return RevisionID(uuid.Must(uuid.NewV7()).String())
}

// ParseRevisionID validates and converts a string to RevisionID.
// Rejects malformed UUIDs so stored revisions stay well-formed.
func ParseRevisionID(s string) (RevisionID, error) {
	_, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return RevisionID(s), nil
}

// RevisionTime extracts the timestamp embedded in a UUIDv7 revision.
// Returns zero time for invalid UUIDs; caller should check IsZero().
func RevisionTime(id RevisionID) time.Time {
	u, err := uuid.Parse(string(id))
	if err != nil {
		return time.Time{}
	}
	sec, nsec := u.Time().UnixTime()
	return time.Unix(sec, nsec)
}
