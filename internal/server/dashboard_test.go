package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fpl-tracker/internal/api"
	"fpl-tracker/internal/cache"
	"fpl-tracker/internal/config"
	"fpl-tracker/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixtureAPI serves a two-manager league frozen mid-gameweek 3.
//
// Alice (101): captain on element 3 (8 pts doubled), starters 6+2+16+0,
// bench 3, three transfers this week (-4) => 23 live points.
// Bob (102): same squad uncaptained => 16+3 = 19 live points.
func fixtureAPI(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	serve := func(path, body string) {
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(body))
		})
	}

	serve("/bootstrap-static/", `{
		"events": [
			{"id": 1, "deadline_time": "2025-08-15T17:30:00Z", "finished": true},
			{"id": 2, "deadline_time": "2025-08-22T17:30:00Z", "finished": true},
			{"id": 3, "deadline_time": "2025-08-29T17:30:00Z", "is_current": true, "finished": false}
		],
		"elements": [
			{"id": 1, "web_name": "Keeper", "element_type": 1, "team": 1},
			{"id": 2, "web_name": "Back", "element_type": 2, "team": 1},
			{"id": 3, "web_name": "Mid", "element_type": 3, "team": 2},
			{"id": 4, "web_name": "Striker", "element_type": 4, "team": 2},
			{"id": 5, "web_name": "Sub", "element_type": 3, "team": 1}
		],
		"element_types": [
			{"id": 1, "singular_name": "Goalkeeper"},
			{"id": 2, "singular_name": "Defender"},
			{"id": 3, "singular_name": "Midfielder"},
			{"id": 4, "singular_name": "Forward"}
		],
		"teams": [{"id": 1, "name": "Club A"}, {"id": 2, "name": "Club B"}]
	}`)

	serve("/event/3/live/", `{"elements": [
		{"id": 1, "stats": {"minutes": 90, "total_points": 6}},
		{"id": 2, "stats": {"minutes": 90, "total_points": 2}},
		{"id": 3, "stats": {"minutes": 90, "total_points": 8}},
		{"id": 4, "stats": {"minutes": 0, "total_points": 0}},
		{"id": 5, "stats": {"minutes": 45, "total_points": 3}}
	]}`)

	serve("/leagues-classic/999/standings/", `{
		"league": {"id": 999, "name": "Office League"},
		"standings": {"results": [
			{"entry": 101, "player_name": "Alice", "entry_name": "Alpha FC", "rank": 1, "total": 153},
			{"entry": 102, "player_name": "Bob", "entry_name": "Beta United", "rank": 2, "total": 140}
		]},
		"new_entries": {"results": []}
	}`)

	serve("/entry/101/event/3/picks/", `{
		"active_chip": null,
		"entry_history": {"event": 3, "points": 23},
		"picks": [
			{"element": 1, "position": 1, "multiplier": 1},
			{"element": 2, "position": 2, "multiplier": 1},
			{"element": 3, "position": 3, "multiplier": 2, "is_captain": true},
			{"element": 4, "position": 4, "multiplier": 1},
			{"element": 5, "position": 12, "multiplier": 0}
		]
	}`)

	serve("/entry/102/event/3/picks/", `{
		"active_chip": null,
		"entry_history": {"event": 3, "points": 19},
		"picks": [
			{"element": 1, "position": 1, "multiplier": 1},
			{"element": 2, "position": 2, "multiplier": 1},
			{"element": 3, "position": 3, "multiplier": 1},
			{"element": 4, "position": 4, "multiplier": 1},
			{"element": 5, "position": 12, "multiplier": 0}
		]
	}`)

	serve("/entry/101/transfers/", `[
		{"entry": 101, "event": 3, "element_in": 3, "element_out": 9},
		{"entry": 101, "event": 3, "element_in": 2, "element_out": 8},
		{"entry": 101, "event": 3, "element_in": 1, "element_out": 7},
		{"entry": 101, "event": 2, "element_in": 4, "element_out": 6}
	]`)
	serve("/entry/102/transfers/", `[
		{"entry": 102, "event": 3, "element_in": 5, "element_out": 9}
	]`)

	serve("/entry/101/history/", `{
		"current": [
			{"event": 1, "points": 60, "total_points": 60},
			{"event": 2, "points": 70, "total_points": 130},
			{"event": 3, "points": 23, "total_points": 153}
		],
		"past": [{"season_name": "2024/25", "total_points": 2250, "rank": 90000}],
		"chips": []
	}`)
	serve("/entry/102/history/", `{
		"current": [
			{"event": 1, "points": 65, "total_points": 65},
			{"event": 2, "points": 56, "total_points": 121},
			{"event": 3, "points": 19, "total_points": 140}
		],
		"past": [],
		"chips": []
	}`)

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func newTestServer(t *testing.T, baseURL string) *DashboardServer {
	t.Helper()

	cfg := &config.Config{
		LeagueID:   999,
		FPLBaseURL: baseURL,
		CacheTTL:   time.Minute,
	}
	logger := zerolog.Nop()
	client := api.NewFPLClient(cfg)
	store := cache.NewStore(cfg, logger)

	return NewDashboardServer(
		service.NewLiveService(client, store, cfg, logger),
		service.NewStatsService(client, store, cfg, logger),
		service.NewSeasonService(client, store, cfg, logger),
		logger,
	)
}

func doGet(t *testing.T, srv *DashboardServer, path string, out any) {
	t.Helper()
	mux := http.NewServeMux()
	srv.Routes(mux)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func TestHandleStatus(t *testing.T) {
	srv := newTestServer(t, fixtureAPI(t).URL)

	var resp struct {
		Started  bool   `json:"started"`
		Gameweek int    `json:"gameweek"`
		Notice   string `json:"notice"`
	}
	doGet(t, srv, "/api/v1/status", &resp)

	assert.True(t, resp.Started)
	assert.Equal(t, 3, resp.Gameweek)
	assert.Empty(t, resp.Notice)
}

func TestHandleLive(t *testing.T) {
	srv := newTestServer(t, fixtureAPI(t).URL)

	var resp struct {
		Gameweek    int    `json:"gameweek"`
		LeagueName  string `json:"league_name"`
		Provisional bool   `json:"provisional"`
		Leader      *struct {
			Manager    string `json:"manager"`
			LivePoints int    `json:"live_points"`
		} `json:"leader"`
		Standings []struct {
			Manager          string         `json:"manager"`
			LivePoints       int            `json:"live_points"`
			BenchPoints      int            `json:"bench_points"`
			TransferCost     int            `json:"transfer_cost"`
			PlayedCount      int            `json:"played_count"`
			PointsByPosition map[string]int `json:"points_by_position"`
			Captain          *struct {
				Name   string `json:"name"`
				Points int    `json:"points"`
			} `json:"captain"`
			Picks []struct {
				Slot    int  `json:"slot"`
				OnBench bool `json:"on_bench"`
			} `json:"picks"`
		} `json:"standings"`
	}
	doGet(t, srv, "/api/v1/live", &resp)

	assert.Equal(t, 3, resp.Gameweek)
	assert.Equal(t, "Office League", resp.LeagueName)
	assert.True(t, resp.Provisional, "gameweek 3 is not finished")

	require.Len(t, resp.Standings, 2)
	alice := resp.Standings[0]
	bob := resp.Standings[1]

	assert.Equal(t, "Alice", alice.Manager)
	assert.Equal(t, 23, alice.LivePoints)
	assert.Equal(t, 3, alice.BenchPoints)
	assert.Equal(t, 4, alice.TransferCost)
	assert.Equal(t, 3, alice.PlayedCount)
	assert.Equal(t, 16, alice.PointsByPosition["Midfielder"])
	require.NotNil(t, alice.Captain)
	assert.Equal(t, "Mid", alice.Captain.Name)
	assert.Equal(t, 16, alice.Captain.Points)
	require.Len(t, alice.Picks, 5)
	assert.True(t, alice.Picks[4].OnBench)

	assert.Equal(t, "Bob", bob.Manager)
	assert.Equal(t, 19, bob.LivePoints)
	assert.Nil(t, bob.Captain)

	require.NotNil(t, resp.Leader)
	assert.Equal(t, "Alice", resp.Leader.Manager)
}

func TestHandleStats(t *testing.T) {
	srv := newTestServer(t, fixtureAPI(t).URL)

	var resp struct {
		Gameweek    int `json:"gameweek"`
		Leaderboard []struct {
			Manager     string  `json:"manager"`
			TotalPoints int     `json:"total_points"`
			Average     float64 `json:"average_points"`
			BestWeek    int     `json:"best_week"`
			WorstWeek   int     `json:"worst_week"`
		} `json:"leaderboard"`
		WeeklyWinners []struct {
			Gameweek int    `json:"gameweek"`
			Manager  string `json:"manager"`
		} `json:"weekly_winners"`
		WinCounts []struct {
			Manager string `json:"manager"`
			Wins    int    `json:"wins"`
		} `json:"win_counts"`
		Matrix struct {
			Managers  []string `json:"managers"`
			Gameweeks int      `json:"gameweeks"`
		} `json:"matrix"`
	}
	doGet(t, srv, "/api/v1/stats", &resp)

	assert.Equal(t, 3, resp.Gameweek)
	require.Len(t, resp.Leaderboard, 2)
	assert.Equal(t, "Alice", resp.Leaderboard[0].Manager)
	assert.Equal(t, 153, resp.Leaderboard[0].TotalPoints)
	assert.InDelta(t, 51.0, resp.Leaderboard[0].Average, 1e-9)
	assert.Equal(t, 70, resp.Leaderboard[0].BestWeek)
	assert.Equal(t, 23, resp.Leaderboard[0].WorstWeek)

	require.Len(t, resp.WeeklyWinners, 3)
	assert.Equal(t, "Bob", resp.WeeklyWinners[0].Manager)
	assert.Equal(t, "Alice", resp.WeeklyWinners[1].Manager)
	assert.Equal(t, "Alice", resp.WeeklyWinners[2].Manager)

	require.Len(t, resp.WinCounts, 2)
	assert.Equal(t, "Alice", resp.WinCounts[0].Manager)
	assert.Equal(t, 2, resp.WinCounts[0].Wins)

	assert.Equal(t, 3, resp.Matrix.Gameweeks)
	assert.Equal(t, []string{"Alice", "Bob"}, resp.Matrix.Managers)
}

func TestHandleManagers(t *testing.T) {
	srv := newTestServer(t, fixtureAPI(t).URL)

	var resp struct {
		LeagueName string `json:"league_name"`
		Managers   []struct {
			Manager    string `json:"manager"`
			LastSeason *struct {
				Season      string `json:"season"`
				TotalPoints int    `json:"total_points"`
			} `json:"last_season"`
		} `json:"managers"`
		Champion *struct {
			Manager string `json:"manager"`
		} `json:"champion"`
	}
	doGet(t, srv, "/api/v1/managers", &resp)

	assert.Equal(t, "Office League", resp.LeagueName)
	require.Len(t, resp.Managers, 2)
	assert.Equal(t, "Alice", resp.Managers[0].Manager, "roster is alphabetical")
	require.NotNil(t, resp.Managers[0].LastSeason)
	assert.Equal(t, "2024/25", resp.Managers[0].LastSeason.Season)
	assert.Nil(t, resp.Managers[1].LastSeason, "Bob has no past seasons")
	require.NotNil(t, resp.Champion)
	assert.Equal(t, "Alice", resp.Champion.Manager)
}

func TestUpstreamFailureYieldsNotice(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(down.Close)

	srv := newTestServer(t, down.URL)

	for _, path := range []string{"/api/v1/status", "/api/v1/live", "/api/v1/stats", "/api/v1/managers"} {
		var resp struct {
			Notice string `json:"notice"`
		}
		doGet(t, srv, path, &resp)
		assert.NotEmpty(t, resp.Notice, "path %s must carry a user-facing notice", path)
	}
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t, fixtureAPI(t).URL)

	var resp map[string]string
	doGet(t, srv, "/healthz", &resp)
	assert.Equal(t, "ok", resp["status"])
}
