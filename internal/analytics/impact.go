package analytics

import (
	"sort"
	"strings"

	"github.com/repoinsight/repoinsight/internal/models"
)

// AggregateImpact ranks the identities in a bounded commit window by
// commit count, descending. The sort is stable and ties keep first-seen
// order, which matters because the window arrives most-recent-first and
// rankings must not reshuffle across re-renders. Display fields are
// snapshotted at an identity's first sighting: for anonymous authors that
// is the commit's author name at the time, not a live profile lookup.
//
// Percentages use the full window length as denominator, unattributable
// commits included, so the percentages of a window containing them sum to
// slightly less than 100.
func AggregateImpact(commits []models.Commit) []models.ImpactEntry {
	if len(commits) == 0 {
		return []models.ImpactEntry{}
	}

	counts := make(map[string]int, len(commits))
	entries := make([]models.ImpactEntry, 0, len(commits))

	for _, c := range commits {
		key, ok := ResolveCommit(c)
		if !ok {
			continue
		}
		if _, seen := counts[key]; !seen {
			entries = append(entries, snapshotEntry(key, c))
		}
		counts[key]++
	}

	for i := range entries {
		entries[i].CommitCount = counts[entries[i].IdentityKey]
		entries[i].Percentage = float64(entries[i].CommitCount) / float64(len(commits)) * 100
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CommitCount > entries[j].CommitCount
	})

	return entries
}

func snapshotEntry(key string, c models.Commit) models.ImpactEntry {
	if c.Author != nil && strings.HasPrefix(key, registeredKeyPrefix) {
		display := c.Author.Login
		if display == "" {
			display = c.AuthorName
		}
		return models.ImpactEntry{
			IdentityKey: key,
			DisplayName: display,
			AvatarURL:   c.Author.AvatarURL,
			ProfileURL:  c.Author.HTMLURL,
		}
	}
	return models.ImpactEntry{
		IdentityKey: key,
		DisplayName: c.AuthorName,
		Anonymous:   true,
	}
}
