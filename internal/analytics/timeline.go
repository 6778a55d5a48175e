package analytics

import (
	"sort"

	"github.com/repoinsight/repoinsight/internal/models"
)

// dateKeyLayout is lexicographically sortable, so string order on bucket
// keys is chronological order.
const dateKeyLayout = "2006-01-02"

// BucketizeCommits buckets a commit window into a per-day commit-count
// series, sorted ascending by day. Buckets are keyed by the committer
// timestamp truncated to a UTC calendar day; the committer date reflects
// when a commit entered history, which is the activity signal we want.
func BucketizeCommits(commits []models.Commit) []models.TimelineBucket {
	counts := make(map[string]int, len(commits))
	for _, c := range commits {
		counts[c.CommittedAt.UTC().Format(dateKeyLayout)]++
	}

	buckets := make([]models.TimelineBucket, 0, len(counts))
	for date, count := range counts {
		buckets = append(buckets, models.TimelineBucket{Date: date, Count: count})
	}

	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Date < buckets[j].Date
	})

	return buckets
}
