package stats

import (
	"warzone-tracker/internal/domain"
)

// SharedMatchIDs returns the match IDs present in every one of the given
// histories. The result follows the first history's order (most recent
// first), which keeps it deterministic for a given input. A single history
// shares everything with itself; any empty history makes the intersection
// empty.
func SharedMatchIDs(histories []domain.PlayerHistory) []string {
	if len(histories) == 0 {
		return nil
	}

	sets := make([]map[string]struct{}, 0, len(histories)-1)
	for _, h := range histories[1:] {
		set := make(map[string]struct{}, len(h))
		for _, rec := range h {
			set[rec.MatchID] = struct{}{}
		}
		sets = append(sets, set)
	}

	shared := make([]string, 0, len(histories[0]))
	seen := make(map[string]struct{}, len(histories[0]))
	for _, rec := range histories[0] {
		if _, dup := seen[rec.MatchID]; dup {
			continue
		}
		seen[rec.MatchID] = struct{}{}

		inAll := true
		for _, set := range sets {
			if _, ok := set[rec.MatchID]; !ok {
				inAll = false
				break
			}
		}
		if inAll {
			shared = append(shared, rec.MatchID)
		}
	}
	return shared
}
