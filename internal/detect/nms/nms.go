// Package nms implements non-maximum suppression over the cascaded
// matcher's output: sort by score, repeatedly pop the best remaining
// match and suppress every other match that overlaps it past a
// threshold.
//
// Grounded on the teacher's internal/lidar velocity-coherent merging pass
// (velocity_coherent_merging.go), which runs the same
// sort-then-greedily-absorb-overlapping-candidates shape over tracked
// clusters instead of detection boxes.
package nms

import (
	"sort"

	"github.com/cadmatch/detect/internal/detect/model"
)

// Suppress sorts matches by score descending and greedily keeps a match
// only if it doesn't overlap (by more than overlapFactor) any
// already-kept, higher-scoring match. The result preserves the
// descending-score order of the popped sequence.
func Suppress(matches []model.Match, overlapFactor float64) []model.Match {
	ordered := make([]model.Match, len(matches))
	copy(ordered, matches)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Score > ordered[j].Score })

	kept := make([]model.Match, 0, len(ordered))
	suppressed := make([]bool, len(ordered))

	for i := range ordered {
		if suppressed[i] {
			continue
		}
		winner := ordered[i]
		kept = append(kept, winner)
		for j := i + 1; j < len(ordered); j++ {
			if suppressed[j] {
				continue
			}
			if winner.Overlap(&ordered[j]) > overlapFactor {
				suppressed[j] = true
			}
		}
	}
	return kept
}
