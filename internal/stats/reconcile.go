package stats

import (
	"fmt"
	"strings"
	"time"

	"warzone-tracker/internal/domain"
)

// HistoryCap bounds a profile's stored match list.
const HistoryCap = 100

// ReconcileResult carries the outcome of a squad reconciliation. When
// Updated is false nothing changed and the stored stats must be left alone;
// only the aggregate's lastUpdatedAt should be touched to record the
// attempt.
type ReconcileResult struct {
	Updated bool
	Players []domain.PlayerSharedStats
	Matches []domain.MatchSummary
}

// ReconcileSquad folds matches played since the last reconciliation into the
// stored aggregate. The full shared set is recomputed from the fresh
// histories (cheap next to the upstream fetches that produced them) and then
// compared against the stored most-recent match date: summaries are walked
// most-recent-first and the scan stops at the first match that is not
// strictly newer than the cutoff.
//
// The stored aggregate is never mutated; new player totals and the extended
// summary list are returned as copies so the caller can replace-on-success.
//
// The short-circuit scan assumes the upstream keeps histories monotonically
// ordered by date. An out-of-order entry would hide genuinely new matches
// behind it.
func (a *Aggregator) ReconcileSquad(stored *domain.SquadAggregate, histories []domain.PlayerHistory) (ReconcileResult, error) {
	fresh := a.BuildShared(histories)

	// A squad persisted with zero shared matches has no cutoff and no
	// per-player baseline; everything fresh is new.
	if len(stored.MatchSummaries) == 0 {
		if len(fresh.Matches) == 0 {
			return ReconcileResult{}, nil
		}
		return ReconcileResult{Updated: true, Players: fresh.Players, Matches: fresh.Matches}, nil
	}

	cutoff, err := ParseGameDate(stored.MatchSummaries[0].Date)
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("stored summary for match %s: %w", stored.MatchSummaries[0].MatchID, err)
	}

	newMatches, err := matchesAfter(fresh.Matches, cutoff)
	if err != nil {
		return ReconcileResult{}, err
	}
	if len(newMatches) == 0 {
		return ReconcileResult{}, nil
	}

	newIDs := make(map[string]struct{}, len(newMatches))
	for _, m := range newMatches {
		newIDs[m.MatchID] = struct{}{}
	}

	players := make([]domain.PlayerSharedStats, len(stored.PlayerStats))
	copy(players, stored.PlayerStats)

	// Per-member deltas, re-scanned from the fresh histories by match ID and
	// keyed by lowercase username.
	deltas := make(map[string]domain.PlayerSharedStats, len(histories))
	for _, h := range histories {
		if len(h) == 0 {
			continue
		}
		name := strings.ToLower(h[0].Username)
		delta := deltas[name]
		for _, rec := range h {
			if _, ok := newIDs[rec.MatchID]; !ok {
				continue
			}
			delta.Kills += rec.Kills
			delta.Deaths += rec.Deaths
			delta.Assists += rec.Assists
			delta.DamageDone += rec.DamageDone
		}
		deltas[name] = delta
	}

	for i := range players {
		player := &players[i]
		delta, ok := deltas[strings.ToLower(player.Username)]
		if !ok {
			continue
		}
		player.Kills += delta.Kills
		player.Deaths += delta.Deaths
		player.Assists += delta.Assists
		player.DamageDone += delta.DamageDone
		if player.Deaths != 0 {
			player.KDRatio = round2(float64(player.Kills) / float64(player.Deaths))
		}
	}

	matches := make([]domain.MatchSummary, 0, len(newMatches)+len(stored.MatchSummaries))
	matches = append(matches, newMatches...)
	matches = append(matches, stored.MatchSummaries...)

	return ReconcileResult{Updated: true, Players: players, Matches: matches}, nil
}

// ReconcileProfile merges a freshly fetched history into the stored one. The
// fast path compares only the two most-recent dates: if they are equal the
// player has not played, and the stored list is returned untouched with
// updated=false. Otherwise every fetched match strictly newer than the
// stored cutoff is prepended and the list is truncated to HistoryCap.
func (a *Aggregator) ReconcileProfile(stored, fresh domain.PlayerHistory) (domain.PlayerHistory, bool, error) {
	if len(fresh) == 0 {
		return stored, false, nil
	}
	if len(stored) == 0 {
		return truncate(fresh), true, nil
	}

	cutoff, err := ParseGameDate(stored[0].GameDate)
	if err != nil {
		return stored, false, err
	}
	freshest, err := ParseGameDate(fresh[0].GameDate)
	if err != nil {
		return stored, false, err
	}
	if freshest.Equal(cutoff) {
		return stored, false, nil
	}

	var newGames domain.PlayerHistory
	for _, rec := range fresh {
		t, err := ParseGameDate(rec.GameDate)
		if err != nil {
			return stored, false, err
		}
		if !t.After(cutoff) {
			break
		}
		newGames = append(newGames, rec)
	}
	if len(newGames) == 0 {
		return stored, false, nil
	}

	merged := make(domain.PlayerHistory, 0, len(newGames)+len(stored))
	merged = append(merged, newGames...)
	merged = append(merged, stored...)
	return truncate(merged), true, nil
}

func matchesAfter(summaries []domain.MatchSummary, cutoff time.Time) ([]domain.MatchSummary, error) {
	var out []domain.MatchSummary
	for _, m := range summaries {
		t, err := ParseGameDate(m.Date)
		if err != nil {
			return nil, err
		}
		if !t.After(cutoff) {
			break
		}
		out = append(out, m)
	}
	return out, nil
}

func truncate(h domain.PlayerHistory) domain.PlayerHistory {
	if len(h) > HistoryCap {
		return h[:HistoryCap]
	}
	return h
}
