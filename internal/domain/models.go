package domain

import (
	"time"
)

// MatchRecord is one player's performance in one match, already reduced from
// the upstream payload. Records are immutable once fetched: the upstream never
// rewrites a player's stats for a finished match.
type MatchRecord struct {
	MatchID        string  `bson:"matchID" json:"matchID"`
	TeamPlacement  int     `bson:"teamPlacement" json:"teamPlacement"`
	Mode           string  `bson:"mode" json:"mode"`
	Team           string  `bson:"team" json:"team"`
	Username       string  `bson:"username" json:"username"`
	GameDate       string  `bson:"gameDate" json:"gameDate"`
	Kills          int     `bson:"kills" json:"kills"`
	Deaths         int     `bson:"deaths" json:"deaths"`
	Assists        int     `bson:"assists" json:"assists"`
	DamageDone     int     `bson:"damageDone" json:"damageDone"`
	ScorePerMinute float64 `bson:"scorePerMinute" json:"scorePerMinute"`
	KDRatio        float64 `bson:"kdRatio" json:"kdRatio"`
}

// PlayerHistory is one player's recent matches, most recent first, with no
// duplicate match IDs within a single snapshot.
type PlayerHistory []MatchRecord

// MatchIDs returns the history's match IDs in order.
func (h PlayerHistory) MatchIDs() []string {
	ids := make([]string, len(h))
	for i, rec := range h {
		ids[i] = rec.MatchID
	}
	return ids
}

// GeneralStats is the lifetime + weekly summary blob fetched alongside the
// match history. The aggregation engine never looks inside it.
type GeneralStats map[string]interface{}

// PlayerProfile is the persisted per-(username, platform) aggregate.
type PlayerProfile struct {
	ID            string        `bson:"_id" json:"profileID"`
	Username      string        `bson:"username" json:"username"`
	Platform      string        `bson:"platform" json:"platform"`
	LastGames     PlayerHistory `bson:"lastGamesStats" json:"lastGamesStats"`
	GeneralStats  GeneralStats  `bson:"generalStats" json:"generalStats"`
	Partial       bool          `bson:"partial" json:"partial"`
	LastUpdatedAt time.Time     `bson:"lastUpdatedAt" json:"lastUpdatedAt"`
	CreatedAt     time.Time     `bson:"createdAt" json:"createdAt"`
}

// PlayerSharedStats is one squad member's cumulative totals across every
// shared match ever recorded for the squad.
type PlayerSharedStats struct {
	Username   string  `bson:"username" json:"username"`
	Kills      int     `bson:"kills" json:"kills"`
	Deaths     int     `bson:"deaths" json:"deaths"`
	Assists    int     `bson:"assists" json:"assists"`
	DamageDone int     `bson:"damageDone" json:"damageDone"`
	KDRatio    float64 `bson:"kdRatio" json:"kdRatio"`
}

// MatchSummary is the squad-level view of one shared match.
type MatchSummary struct {
	MatchID           string  `bson:"matchID" json:"matchID"`
	Kills             int     `bson:"kills" json:"kills"`
	Deaths            int     `bson:"deaths" json:"deaths"`
	Placement         int     `bson:"placement" json:"placement"`
	AvgScorePerMinute float64 `bson:"avgScorePerMinute" json:"avgScorePerMinute"`
	Mode              string  `bson:"mode" json:"mode"`
	Date              string  `bson:"date" json:"date"`
}

// SquadMember identifies one member of a squad.
type SquadMember struct {
	Username string `bson:"username" json:"username"`
	Platform string `bson:"platform" json:"platform"`
}

// SquadAggregate is the persisted squad entity. Its ID is the members'
// profile IDs sorted lexicographically and concatenated, so the same group of
// players always maps to the same document regardless of input order.
type SquadAggregate struct {
	ID               string              `bson:"_id" json:"squadID"`
	Members          []SquadMember       `bson:"members" json:"members"`
	MemberProfileIDs []string            `bson:"memberProfileIDs" json:"-"`
	PlayerStats      []PlayerSharedStats `bson:"playersSharedStats" json:"playersSharedGamesStats"`
	MatchSummaries   []MatchSummary      `bson:"matchSummaries" json:"sharedGamesGeneralStats"`
	LastUpdatedAt    time.Time           `bson:"lastUpdatedAt" json:"lastUpdatedAt"`
	CreatedAt        time.Time           `bson:"createdAt" json:"createdAt"`
}

// MatchTeamPlayer is one player's line in a cached full-match snapshot.
type MatchTeamPlayer struct {
	Username       string  `bson:"username" json:"username"`
	Team           string  `bson:"team" json:"team"`
	TeamPlacement  int     `bson:"teamPlacement" json:"teamPlacement"`
	Kills          int     `bson:"kills" json:"kills"`
	Deaths         int     `bson:"deaths" json:"deaths"`
	Assists        int     `bson:"assists" json:"assists"`
	DamageDone     int     `bson:"damageDone" json:"damageDone"`
	ScorePerMinute float64 `bson:"scorePerMinute" json:"scorePerMinute"`
	KDRatio        float64 `bson:"kdRatio" json:"kdRatio"`
}

// CachedMatch is a full-match snapshot kept around while someone is looking
// at it. Teams are ordered by placement, players within a team by kills.
// LastTouched drives the stale-match cleanup sweep.
type CachedMatch struct {
	ID          string              `bson:"_id" json:"matchID"`
	Teams       [][]MatchTeamPlayer `bson:"teams" json:"teams"`
	LastTouched time.Time           `bson:"lastTouched" json:"-"`
}
