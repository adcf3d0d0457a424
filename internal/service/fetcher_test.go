package service

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warzone-tracker/internal/api"
	"warzone-tracker/internal/stats"
)

func TestArrangeGeneralStats(t *testing.T) {
	t.Parallel()

	data := &api.LifetimeData{
		Lifetime: json.RawMessage(`{"mode":{"br":{"properties":{"wins":12,"kills":3400}}}}`),
		Weekly:   json.RawMessage(`{"mode":{"br_all":{"properties":{"kills":50}}}}`),
	}

	general, err := arrangeGeneralStats(data)
	require.NoError(t, err)

	br, ok := general["br_lifetime_data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(12), br["wins"])

	_, ok = general["weeklyStats"]
	assert.True(t, ok)
}

func TestArrangeGeneralStatsMissingBRBlock(t *testing.T) {
	t.Parallel()

	data := &api.LifetimeData{
		Lifetime: json.RawMessage(`{"mode":{"dmz":{"properties":{}}}}`),
	}

	_, err := arrangeGeneralStats(data)
	assert.ErrorIs(t, err, stats.ErrUpstreamShape)
}

func TestArrangeGeneralStatsWeeklyIsOptional(t *testing.T) {
	t.Parallel()

	data := &api.LifetimeData{
		Lifetime: json.RawMessage(`{"mode":{"br":{"properties":{"wins":1}}}}`),
	}

	general, err := arrangeGeneralStats(data)
	require.NoError(t, err)

	_, ok := general["weeklyStats"]
	assert.False(t, ok)
}

func TestDig(t *testing.T) {
	t.Parallel()

	m := map[string]interface{}{
		"a": map[string]interface{}{
			"b": map[string]interface{}{"c": 42},
		},
	}

	assert.Equal(t, 42, dig(m, "a", "b", "c"))
	assert.Nil(t, dig(m, "a", "x"))
	assert.Nil(t, dig(m, "a", "b", "c", "d"), "descending past a leaf returns nil")
}
