package models

// RegisteredIdentity is a commit author that the upstream source resolved
// to an account. Keyed by account ID (logins can be renamed).
type RegisteredIdentity struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
	HTMLURL   string `json:"html_url"`
}

// AnonymousIdentity is a commit author that could not be matched to an
// account. Keyed by the raw commit-metadata email, not a profile record.
type AnonymousIdentity struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// ContributorRecord is one row of a contributor listing. Exactly one of
// Registered and Anonymous is set. Contributions is a lifetime count,
// unrelated to the bounded commit window used for impact ranking.
type ContributorRecord struct {
	Registered    *RegisteredIdentity `json:"registered,omitempty"`
	Anonymous     *AnonymousIdentity  `json:"anonymous,omitempty"`
	Contributions int                 `json:"contributions"`
}
