package analytics

import (
	"context"
	"fmt"

	"github.com/repoinsight/repoinsight/internal/models"
)

// Defaults for the contributor pagination loop. The page ceiling bounds
// worst-case latency and memory against pathological upstream data; it is
// a deliberate truncation at 1000 records, not an error.
const (
	DefaultContributorPageSize = 100
	DefaultContributorMaxPages = 10
)

// ContributorPageFunc fetches one 1-based page of a contributor listing.
type ContributorPageFunc func(ctx context.Context, perPage, page int) ([]models.ContributorRecord, error)

// MergeContributors drives the contributor pagination loop and merges the
// pages into one de-duplicated collection. Pages are fetched strictly in
// increasing index order because termination depends on each page's size:
// the loop stops on an empty page, a short page, or at the page ceiling.
// Records keep arrival order across pages; duplicates (same identity key)
// keep their first occurrence. On a page error the records gathered so
// far are returned alongside the error; callers treat the merge as failed.
func MergeContributors(ctx context.Context, fetch ContributorPageFunc, pageSize, maxPages int) ([]models.ContributorRecord, error) {
	if pageSize <= 0 {
		pageSize = DefaultContributorPageSize
	}
	if maxPages <= 0 {
		maxPages = DefaultContributorMaxPages
	}

	merged := make([]models.ContributorRecord, 0, pageSize)
	seen := make(map[string]struct{}, pageSize)

	for page := 1; page <= maxPages; page++ {
		records, err := fetch(ctx, pageSize, page)
		if err != nil {
			return merged, fmt.Errorf("failed to fetch contributors page %d: %w", page, err)
		}

		for _, rec := range records {
			key, ok := ResolveContributor(rec)
			if !ok {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, rec)
		}

		if len(records) < pageSize {
			break
		}
	}

	return merged, nil
}
