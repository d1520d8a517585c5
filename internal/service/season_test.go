package service

import (
	"testing"
	"time"

	"fpl-tracker/internal/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeasonStarted_BeforeFirstDeadline(t *testing.T) {
	now := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	events := []api.Event{
		{ID: 1, DeadlineTime: now.Add(48 * time.Hour)},
		{ID: 2, DeadlineTime: now.Add(9 * 24 * time.Hour)},
	}

	started, gw := SeasonStarted(events, now)

	assert.False(t, started)
	assert.Equal(t, 0, gw)
}

func TestSeasonStarted_CurrentIsGW1AfterDeadline(t *testing.T) {
	now := time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC)
	events := []api.Event{
		{ID: 1, IsCurrent: true, DeadlineTime: now.Add(-24 * time.Hour)},
	}

	started, gw := SeasonStarted(events, now)

	assert.True(t, started)
	assert.Equal(t, 1, gw)
}

func TestSeasonStarted_MidSeason(t *testing.T) {
	now := time.Date(2025, 12, 1, 12, 0, 0, 0, time.UTC)
	events := []api.Event{
		{ID: 1, Finished: true, DeadlineTime: now.Add(-100 * 24 * time.Hour)},
		{ID: 13, IsCurrent: true, DeadlineTime: now.Add(-24 * time.Hour)},
	}

	started, gw := SeasonStarted(events, now)

	assert.True(t, started)
	assert.Equal(t, 13, gw)
}

func TestSeasonStarted_NoCurrentButDeadlinePassed(t *testing.T) {
	// The API briefly reports no current event between seasons; once the
	// first deadline has passed we treat GW1 as running.
	now := time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC)
	events := []api.Event{
		{ID: 1, DeadlineTime: now.Add(-24 * time.Hour)},
	}

	started, gw := SeasonStarted(events, now)

	assert.True(t, started)
	assert.Equal(t, 1, gw)
}

func TestMostRecentSeason(t *testing.T) {
	past := []api.HistorySeason{
		{SeasonName: "2023/24", TotalPoints: 2100, Rank: 150000},
		{SeasonName: "2024/25", TotalPoints: 2250, Rank: 90000},
		{SeasonName: "2022/23", TotalPoints: 1900, Rank: 410000},
	}

	recent := MostRecentSeason(past)

	require.NotNil(t, recent)
	assert.Equal(t, "2024/25", recent.Season)
	assert.Equal(t, 2250, recent.TotalPoints)
	assert.Equal(t, 90000, recent.Rank)
}

func TestMostRecentSeason_NoHistory(t *testing.T) {
	assert.Nil(t, MostRecentSeason(nil))
}
