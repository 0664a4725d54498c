package models

import (
	"strconv"
	"strings"
)

// CommitEvent is a single commit-authorship observation for a file, as
// reported by the upstream provider. Author fields may be empty when the
// commit is not linked to an account (deleted or anonymized users).
type CommitEvent struct {
	AuthorID         int64
	AuthorLogin      string
	AuthorAvatarURL  string
	AuthorProfileURL string
	// CommittedAt is the provider's ISO-8601 timestamp kept as a string;
	// the format is fixed-width, so string comparison orders correctly.
	CommittedAt string
}

// Attributable reports whether the event can be credited to an identity.
func (e CommitEvent) Attributable() bool {
	return e.AuthorID != 0 || e.AuthorLogin != ""
}

// IdentityKey is the dedup key for the event's author: the provider's
// numeric identity when assigned, otherwise the lower-cased login.
func (e CommitEvent) IdentityKey() string {
	if e.AuthorID != 0 {
		return "id:" + strconv.FormatInt(e.AuthorID, 10)
	}
	return "login:" + strings.ToLower(e.AuthorLogin)
}
