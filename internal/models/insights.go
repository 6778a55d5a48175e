package models

import "time"

// ImpactEntry is one row of the recent-impact ranking derived from a
// bounded commit window. Recomputed from scratch on every fetch cycle.
type ImpactEntry struct {
	IdentityKey string  `json:"identity_key"`
	DisplayName string  `json:"display_name"`
	AvatarURL   string  `json:"avatar_url,omitempty"`
	ProfileURL  string  `json:"html_url,omitempty"`
	CommitCount int     `json:"commit_count"`
	Percentage  float64 `json:"percentage"`
	Anonymous   bool    `json:"anonymous"`
}

// TimelineBucket is the commit count for one UTC calendar day.
type TimelineBucket struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// LanguageShare is one language's slice of the repository's byte total.
type LanguageShare struct {
	Name       string  `json:"name"`
	Bytes      int64   `json:"bytes"`
	Percentage float64 `json:"percentage"`
	Size       string  `json:"size"`
}

// RepositoryInsights is the full derived document for one repository,
// computed from a single fetch cycle.
type RepositoryInsights struct {
	Repository   *Repository         `json:"repository"`
	Contributors []ContributorRecord `json:"contributors"`
	Impact       []ImpactEntry       `json:"impact"`
	Timeline     []TimelineBucket    `json:"timeline"`
	Languages    []LanguageShare     `json:"languages"`
	FetchedAt    time.Time           `json:"fetched_at"`
}
