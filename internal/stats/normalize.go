package stats

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"warzone-tracker/internal/domain"
)

// GameDateLayout is the canonical textual form of a match date. It is what
// gets stored, and chronological comparison re-parses it with the same
// layout, so it must never change without a data migration.
const GameDateLayout = "2 Jan, 2006 15:04:05"

// ErrUpstreamShape reports that the upstream payload no longer has the shape
// we expect, which means the Activision API contract drifted.
var ErrUpstreamShape = errors.New("unexpected upstream payload shape")

// RawPlayer is the nested player block of an upstream match payload.
type RawPlayer struct {
	Username string `json:"username"`
	Team     string `json:"team"`
}

// RawPlayerStats is the nested per-player stat block of an upstream match
// payload. Upstream numbers arrive as JSON floats even for counters.
type RawPlayerStats struct {
	Kills          float64 `json:"kills"`
	Deaths         float64 `json:"deaths"`
	Assists        float64 `json:"assists"`
	DamageDone     float64 `json:"damageDone"`
	ScorePerMinute float64 `json:"scorePerMinute"`
	KDRatio        float64 `json:"kdRatio"`
	TeamPlacement  float64 `json:"teamPlacement"`
}

// RawMatch is one player's slice of one match as the upstream returns it.
// The nested blocks are pointers so a missing object is distinguishable from
// an empty one.
type RawMatch struct {
	MatchID         string          `json:"matchID"`
	UTCStartSeconds int64           `json:"utcStartSeconds"`
	Mode            string          `json:"mode"`
	Player          *RawPlayer      `json:"player"`
	PlayerStats     *RawPlayerStats `json:"playerStats"`
}

// Normalize converts one raw upstream match payload into the canonical
// MatchRecord. It fails with ErrUpstreamShape when a required nested block is
// absent. Usernames are lowercased here once so every downstream comparison
// is case-insensitive for free.
func Normalize(raw RawMatch) (domain.MatchRecord, error) {
	if raw.MatchID == "" {
		return domain.MatchRecord{}, fmt.Errorf("normalize: missing matchID: %w", ErrUpstreamShape)
	}
	if raw.Player == nil || raw.Player.Username == "" {
		return domain.MatchRecord{}, fmt.Errorf("normalize: missing player block for match %s: %w", raw.MatchID, ErrUpstreamShape)
	}
	if raw.PlayerStats == nil {
		return domain.MatchRecord{}, fmt.Errorf("normalize: missing playerStats block for match %s: %w", raw.MatchID, ErrUpstreamShape)
	}

	return domain.MatchRecord{
		MatchID:        raw.MatchID,
		TeamPlacement:  int(raw.PlayerStats.TeamPlacement),
		Mode:           raw.Mode,
		Team:           raw.Player.Team,
		Username:       strings.ToLower(raw.Player.Username),
		GameDate:       FormatGameDate(raw.UTCStartSeconds),
		Kills:          int(raw.PlayerStats.Kills),
		Deaths:         int(raw.PlayerStats.Deaths),
		Assists:        int(raw.PlayerStats.Assists),
		DamageDone:     int(raw.PlayerStats.DamageDone),
		ScorePerMinute: raw.PlayerStats.ScorePerMinute,
		KDRatio:        raw.PlayerStats.KDRatio,
	}, nil
}

// FormatGameDate renders an epoch-seconds timestamp in the canonical layout.
// UTC keeps the stored form independent of the host timezone.
func FormatGameDate(epochSeconds int64) string {
	return time.Unix(epochSeconds, 0).UTC().Format(GameDateLayout)
}

// ParseGameDate is the inverse of FormatGameDate.
func ParseGameDate(s string) (time.Time, error) {
	t, err := time.Parse(GameDateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse game date %q: %w", s, err)
	}
	return t, nil
}
