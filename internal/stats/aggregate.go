package stats

import (
	"math"
	"strings"

	"github.com/rs/zerolog"

	"warzone-tracker/internal/domain"
)

// SharedStats is the output of a squad build: one cumulative entry per
// member plus one summary per shared match, most recent first.
type SharedStats struct {
	Players []domain.PlayerSharedStats
	Matches []domain.MatchSummary
}

// Aggregator holds the shared-match aggregation and reconciliation logic.
type Aggregator struct {
	logger zerolog.Logger
}

func NewAggregator(logger zerolog.Logger) *Aggregator {
	return &Aggregator{logger: logger}
}

// BuildShared computes the full shared-match statistics for the given member
// histories. This is the initial-build path, used when no squad aggregate
// exists yet. With zero shared matches both output lists are empty.
//
// Squad-level placement, mode and date for a match are taken from the first
// member processed; every member played the same match, so the copies should
// agree. When a member's copy of the placement diverges it is logged as an
// upstream data-quality signal, first-seen still wins.
func (a *Aggregator) BuildShared(histories []domain.PlayerHistory) SharedStats {
	result := SharedStats{
		Players: []domain.PlayerSharedStats{},
		Matches: []domain.MatchSummary{},
	}

	sharedIDs := SharedMatchIDs(histories)
	if len(sharedIDs) == 0 {
		return result
	}

	byID := make([]map[string]domain.MatchRecord, len(histories))
	for i, h := range histories {
		index := make(map[string]domain.MatchRecord, len(h))
		for _, rec := range h {
			index[rec.MatchID] = rec
		}
		byID[i] = index
	}

	for _, h := range histories {
		result.Players = append(result.Players, domain.PlayerSharedStats{
			Username: strings.ToLower(h[0].Username),
		})
	}

	for _, id := range sharedIDs {
		summary := domain.MatchSummary{MatchID: id}
		firstSeen := false
		var spmSum float64

		for i := range histories {
			rec, ok := byID[i][id]
			if !ok {
				// Cannot happen for a resolved shared ID.
				continue
			}

			if !firstSeen {
				firstSeen = true
				summary.Placement = rec.TeamPlacement
				summary.Mode = rec.Mode
				summary.Date = rec.GameDate
			} else if rec.TeamPlacement != summary.Placement {
				a.logger.Warn().
					Str("match_id", id).
					Str("username", rec.Username).
					Int("placement", rec.TeamPlacement).
					Int("first_seen_placement", summary.Placement).
					Msg("placement diverges between members of the same match")
			}

			summary.Kills += rec.Kills
			summary.Deaths += rec.Deaths
			spmSum += rec.ScorePerMinute

			player := &result.Players[i]
			player.Kills += rec.Kills
			player.Deaths += rec.Deaths
			player.Assists += rec.Assists
			player.DamageDone += rec.DamageDone
		}

		summary.AvgScorePerMinute = spmSum / float64(len(histories))
		result.Matches = append(result.Matches, summary)
	}

	for i := range result.Players {
		player := &result.Players[i]
		if player.Deaths != 0 {
			player.KDRatio = round2(float64(player.Kills) / float64(player.Deaths))
		}
	}

	return result
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
