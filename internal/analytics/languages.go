package analytics

import (
	"fmt"
	"math"
	"sort"

	"github.com/repoinsight/repoinsight/internal/models"
)

const bytesPerMB = 1048576

// NormalizeLanguages turns a language byte-count map into ranked
// percentage shares. Shares are sorted by raw byte count, not by the
// rounded percentage, so the ordering stays stable when two languages
// round to the same displayed value. A zero byte total yields an empty
// result rather than dividing by zero.
func NormalizeLanguages(byteCounts map[string]int64) []models.LanguageShare {
	var total int64
	for _, b := range byteCounts {
		total += b
	}
	if total == 0 {
		return []models.LanguageShare{}
	}

	shares := make([]models.LanguageShare, 0, len(byteCounts))
	for name, b := range byteCounts {
		pct := float64(b) / float64(total) * 100
		shares = append(shares, models.LanguageShare{
			Name:       name,
			Bytes:      b,
			Percentage: math.Round(pct*10) / 10,
			Size:       FormatByteSize(b),
		})
	}

	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Bytes != shares[j].Bytes {
			return shares[i].Bytes > shares[j].Bytes
		}
		return shares[i].Name < shares[j].Name
	})

	return shares
}

// FormatByteSize renders a byte count the way the language panel shows
// it: MB with 2 decimals from 1 MiB up, KB with 2 decimals below.
func FormatByteSize(bytes int64) string {
	if bytes >= bytesPerMB {
		return fmt.Sprintf("%.2f MB", float64(bytes)/bytesPerMB)
	}
	return fmt.Sprintf("%.2f KB", float64(bytes)/1024)
}
