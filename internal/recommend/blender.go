package recommend

import (
	"sort"

	"github.com/nkosimano/ChartedArt-sub001/internal/domain"
)

// Blend merges strategy outputs into one ranked, diversified list.
//
// Duplicates collapse to their highest-scoring occurrence; the first
// occurrence wins a tie. The deduplicated list is sorted by descending score
// (stable), then a diversity pass admits at most max(2, limit/4) items per
// category and max(1, limit/8) per artist. If the caps leave the list short,
// the remaining items backfill in sorted order.
func Blend(lists [][]domain.Recommendation, limit int) []domain.Recommendation {
	if limit <= 0 {
		return nil
	}

	var merged []domain.Recommendation
	best := make(map[string]int) // artwork ID -> index in merged
	for _, list := range lists {
		for _, rec := range list {
			i, seen := best[rec.Artwork.ID]
			if !seen {
				best[rec.Artwork.ID] = len(merged)
				merged = append(merged, rec)
				continue
			}
			if rec.Score > merged[i].Score {
				merged[i] = rec
			}
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})

	categoryCap := limit / 4
	if categoryCap < 2 {
		categoryCap = 2
	}
	artistCap := limit / 8
	if artistCap < 1 {
		artistCap = 1
	}

	admitted := make([]domain.Recommendation, 0, limit)
	skipped := make([]domain.Recommendation, 0)
	categoryCounts := make(map[string]int)
	artistCounts := make(map[string]int)

	for _, rec := range merged {
		if len(admitted) >= limit {
			break
		}
		if categoryCounts[rec.Artwork.Category] >= categoryCap ||
			artistCounts[rec.Artwork.ArtistID] >= artistCap {
			skipped = append(skipped, rec)
			continue
		}
		categoryCounts[rec.Artwork.Category]++
		artistCounts[rec.Artwork.ArtistID]++
		admitted = append(admitted, rec)
	}

	for _, rec := range skipped {
		if len(admitted) >= limit {
			break
		}
		admitted = append(admitted, rec)
	}

	return admitted
}
