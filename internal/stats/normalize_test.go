package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawMatchFixture() RawMatch {
	return RawMatch{
		MatchID:         "12814556179832000000",
		UTCStartSeconds: 1678197930, // 7 Mar 2023 14:05:30 UTC
		Mode:            "br_brquads",
		Player:          &RawPlayer{Username: "ShadowFiend", Team: "team_eleven"},
		PlayerStats: &RawPlayerStats{
			Kills:          5,
			Deaths:         2,
			Assists:        1,
			DamageDone:     1843,
			ScorePerMinute: 312.5,
			KDRatio:        2.5,
			TeamPlacement:  3,
		},
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	rec, err := Normalize(rawMatchFixture())
	require.NoError(t, err)

	assert.Equal(t, "12814556179832000000", rec.MatchID)
	assert.Equal(t, "shadowfiend", rec.Username, "usernames are lowercased at the boundary")
	assert.Equal(t, "team_eleven", rec.Team)
	assert.Equal(t, "br_brquads", rec.Mode)
	assert.Equal(t, 3, rec.TeamPlacement)
	assert.Equal(t, 5, rec.Kills)
	assert.Equal(t, 2, rec.Deaths)
	assert.Equal(t, 1, rec.Assists)
	assert.Equal(t, 1843, rec.DamageDone)
	assert.Equal(t, 312.5, rec.ScorePerMinute)
	assert.Equal(t, "7 Mar, 2023 14:05:30", rec.GameDate)
}

func TestNormalizeShapeErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*RawMatch)
	}{
		{"missing matchID", func(r *RawMatch) { r.MatchID = "" }},
		{"missing player block", func(r *RawMatch) { r.Player = nil }},
		{"empty username", func(r *RawMatch) { r.Player.Username = "" }},
		{"missing playerStats block", func(r *RawMatch) { r.PlayerStats = nil }},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			raw := rawMatchFixture()
			tt.mutate(&raw)

			_, err := Normalize(raw)
			assert.ErrorIs(t, err, ErrUpstreamShape)
		})
	}
}

func TestGameDateRoundTrip(t *testing.T) {
	t.Parallel()

	formatted := FormatGameDate(1678197930)
	assert.Equal(t, "7 Mar, 2023 14:05:30", formatted)

	parsed, err := ParseGameDate(formatted)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, time.March, 7, 14, 5, 30, 0, time.UTC), parsed)
}

func TestParseGameDateRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := ParseGameDate("2023-03-07T14:05:30Z")
	assert.Error(t, err)
}
