package analytics

import (
	"strconv"

	"github.com/repoinsight/repoinsight/internal/models"
)

// Identity key prefixes. Registered accounts and anonymous commit authors
// are independently keyed and must never collide.
const (
	registeredKeyPrefix = "user:"
	anonymousKeyPrefix  = "anon:"
)

// ResolveCommit determines the canonical identity key of a commit's author.
// Registered authors are keyed by account id; the login is used only when
// the id is absent, since logins can be renamed. Anonymous authors are
// keyed by the commit-metadata email, case-sensitive. A commit with
// neither a resolvable account nor a usable email is unattributable and
// returns ok=false; it still counts toward window totals.
func ResolveCommit(c models.Commit) (key string, ok bool) {
	if c.Author != nil {
		if key := registeredKey(c.Author); key != "" {
			return key, true
		}
	}
	if c.AuthorEmail != "" {
		return anonymousKeyPrefix + c.AuthorEmail, true
	}
	return "", false
}

// ResolveContributor keys a contributor record with the same scheme as
// ResolveCommit, using the record's own identity fields.
func ResolveContributor(rec models.ContributorRecord) (key string, ok bool) {
	if rec.Registered != nil {
		if key := registeredKey(rec.Registered); key != "" {
			return key, true
		}
	}
	if rec.Anonymous != nil && rec.Anonymous.Email != "" {
		return anonymousKeyPrefix + rec.Anonymous.Email, true
	}
	return "", false
}

func registeredKey(id *models.RegisteredIdentity) string {
	if id.ID != 0 {
		return registeredKeyPrefix + strconv.FormatInt(id.ID, 10)
	}
	if id.Login != "" {
		return registeredKeyPrefix + id.Login
	}
	return ""
}
