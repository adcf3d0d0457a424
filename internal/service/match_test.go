package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warzone-tracker/internal/stats"
)

func rawMatchPlayer(username, team string, kills, placement float64) stats.RawMatch {
	return stats.RawMatch{
		MatchID:         "m1",
		UTCStartSeconds: 1678197930,
		Mode:            "br_brquads",
		Player:          &stats.RawPlayer{Username: username, Team: team},
		PlayerStats:     &stats.RawPlayerStats{Kills: kills, TeamPlacement: placement},
	}
}

func TestArrangeTeams(t *testing.T) {
	t.Parallel()

	teams, err := arrangeTeams([]stats.RawMatch{
		rawMatchPlayer("Delta", "team_two", 3, 2),
		rawMatchPlayer("Alpha", "team_one", 2, 1),
		rawMatchPlayer("Bravo", "team_one", 8, 1),
		rawMatchPlayer("Charlie", "team_two", 5, 2),
	})
	require.NoError(t, err)
	require.Len(t, teams, 2)

	// Teams ordered by placement, players within a team by kills.
	assert.Equal(t, 1, teams[0][0].TeamPlacement)
	assert.Equal(t, "bravo", teams[0][0].Username)
	assert.Equal(t, "alpha", teams[0][1].Username)

	assert.Equal(t, 2, teams[1][0].TeamPlacement)
	assert.Equal(t, "charlie", teams[1][0].Username)
	assert.Equal(t, "delta", teams[1][1].Username)
}

func TestArrangeTeamsShapeErrorAborts(t *testing.T) {
	t.Parallel()

	broken := rawMatchPlayer("Alpha", "team_one", 2, 1)
	broken.PlayerStats = nil

	_, err := arrangeTeams([]stats.RawMatch{broken})
	assert.ErrorIs(t, err, stats.ErrUpstreamShape)
}

func TestArrangeTeamsEmptyInput(t *testing.T) {
	t.Parallel()

	teams, err := arrangeTeams(nil)
	require.NoError(t, err)
	assert.Empty(t, teams)
}
