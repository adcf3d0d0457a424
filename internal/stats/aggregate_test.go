package stats

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warzone-tracker/internal/domain"
)

func record(id, username string, kills, deaths int, spm float64, placement int, date string) domain.MatchRecord {
	return domain.MatchRecord{
		MatchID:        id,
		Username:       username,
		Kills:          kills,
		Deaths:         deaths,
		Assists:        kills / 2,
		DamageDone:     kills * 300,
		ScorePerMinute: spm,
		TeamPlacement:  placement,
		Mode:           "br_brquads",
		GameDate:       date,
	}
}

func TestBuildShared(t *testing.T) {
	t.Parallel()

	agg := NewAggregator(zerolog.Nop())

	histories := []domain.PlayerHistory{
		{record("m1", "alpha", 5, 1, 300, 4, "7 Mar, 2023 14:05:30")},
		{record("m1", "bravo", 3, 1, 250, 4, "7 Mar, 2023 14:05:30")},
		{record("m1", "charlie", 2, 0, 200, 4, "7 Mar, 2023 14:05:30")},
	}

	got := agg.BuildShared(histories)

	require.Len(t, got.Matches, 1)
	summary := got.Matches[0]
	assert.Equal(t, "m1", summary.MatchID)
	assert.Equal(t, 10, summary.Kills)
	assert.Equal(t, 2, summary.Deaths)
	assert.Equal(t, 250.0, summary.AvgScorePerMinute)
	assert.Equal(t, 4, summary.Placement)
	assert.Equal(t, "br_brquads", summary.Mode)
	assert.Equal(t, "7 Mar, 2023 14:05:30", summary.Date)

	require.Len(t, got.Players, 3)
	assert.Equal(t, "alpha", got.Players[0].Username)
	assert.Equal(t, 5.0, got.Players[0].KDRatio)
	assert.Equal(t, 3.0, got.Players[1].KDRatio)
	assert.Equal(t, 2, got.Players[2].Kills)
	assert.Zero(t, got.Players[2].KDRatio, "zero deaths leaves the ratio unset")
}

func TestBuildSharedIsDeterministic(t *testing.T) {
	t.Parallel()

	agg := NewAggregator(zerolog.Nop())

	histories := []domain.PlayerHistory{
		{
			record("m2", "alpha", 7, 3, 280, 1, "8 Mar, 2023 20:00:00"),
			record("m1", "alpha", 5, 1, 300, 4, "7 Mar, 2023 14:05:30"),
		},
		{
			record("m2", "bravo", 2, 4, 150, 1, "8 Mar, 2023 20:00:00"),
			record("m1", "bravo", 3, 1, 250, 4, "7 Mar, 2023 14:05:30"),
		},
	}

	first := agg.BuildShared(histories)
	second := agg.BuildShared(histories)
	assert.Equal(t, first, second)
}

func TestBuildSharedAccumulatesAcrossMatches(t *testing.T) {
	t.Parallel()

	agg := NewAggregator(zerolog.Nop())

	histories := []domain.PlayerHistory{
		{
			record("m2", "alpha", 7, 3, 280, 1, "8 Mar, 2023 20:00:00"),
			record("m1", "alpha", 5, 1, 300, 4, "7 Mar, 2023 14:05:30"),
		},
		{
			record("m2", "bravo", 2, 4, 150, 1, "8 Mar, 2023 20:00:00"),
			record("m1", "bravo", 3, 1, 250, 4, "7 Mar, 2023 14:05:30"),
		},
	}

	got := agg.BuildShared(histories)

	require.Len(t, got.Matches, 2)
	assert.Equal(t, "m2", got.Matches[0].MatchID, "summaries keep the most recent first")

	alpha := got.Players[0]
	assert.Equal(t, 12, alpha.Kills)
	assert.Equal(t, 4, alpha.Deaths)
	assert.Equal(t, 3.0, alpha.KDRatio)
}

func TestBuildSharedNoSharedMatches(t *testing.T) {
	t.Parallel()

	agg := NewAggregator(zerolog.Nop())

	got := agg.BuildShared([]domain.PlayerHistory{
		{record("m1", "alpha", 5, 1, 300, 4, "7 Mar, 2023 14:05:30")},
		{record("m2", "bravo", 3, 1, 250, 1, "8 Mar, 2023 20:00:00")},
	})

	assert.NotNil(t, got.Players)
	assert.NotNil(t, got.Matches)
	assert.Empty(t, got.Players)
	assert.Empty(t, got.Matches)
}

func TestBuildSharedRoundsRatioToTwoDecimals(t *testing.T) {
	t.Parallel()

	agg := NewAggregator(zerolog.Nop())

	got := agg.BuildShared([]domain.PlayerHistory{
		{record("m1", "alpha", 2, 3, 100, 10, "7 Mar, 2023 14:05:30")},
	})

	require.Len(t, got.Players, 1)
	assert.Equal(t, 0.67, got.Players[0].KDRatio)
}
