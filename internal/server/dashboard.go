package server

import (
	"encoding/json"
	"net/http"

	"fpl-tracker/internal/domain"
	"fpl-tracker/internal/service"

	"github.com/rs/zerolog"
)

type DashboardServer struct {
	liveSvc   *service.LiveService
	statsSvc  *service.StatsService
	seasonSvc *service.SeasonService
	logger    zerolog.Logger
}

func NewDashboardServer(liveSvc *service.LiveService, statsSvc *service.StatsService, seasonSvc *service.SeasonService, logger zerolog.Logger) *DashboardServer {
	return &DashboardServer{liveSvc: liveSvc, statsSvc: statsSvc, seasonSvc: seasonSvc, logger: logger}
}

// Routes registers the dashboard endpoints on mux.
func (s *DashboardServer) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("GET /api/v1/live", s.handleLive)
	mux.HandleFunc("GET /api/v1/stats", s.handleStats)
	mux.HandleFunc("GET /api/v1/managers", s.handleManagers)
	mux.HandleFunc("GET /healthz", s.handleHealth)
}

// A failed upstream fetch yields an empty payload plus a notice, never
// an error status; the dashboard retries on its next poll.

func (s *DashboardServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	started, gw, err := s.seasonSvc.Status(r.Context())
	if err != nil {
		s.writeJSON(w, statusResponse{Notice: "Unable to connect to FPL API. Please try again later."})
		return
	}
	s.writeJSON(w, statusResponse{Started: started, Gameweek: gw})
}

func (s *DashboardServer) handleLive(w http.ResponseWriter, r *http.Request) {
	live, err := s.liveSvc.Gameweek(r.Context())
	if err != nil {
		s.writeJSON(w, liveResponse{Notice: "Unable to fetch live data or league standings."})
		return
	}

	resp := liveResponse{
		Gameweek:    live.Gameweek,
		LeagueName:  live.LeagueName,
		Provisional: live.Provisional,
	}
	for _, st := range live.Standings {
		resp.Standings = append(resp.Standings, toLiveStanding(st))
	}
	if len(resp.Standings) > 0 {
		resp.Leader = &resp.Standings[0]
	}
	s.writeJSON(w, resp)
}

func (s *DashboardServer) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.statsSvc.Season(r.Context())
	if err != nil {
		s.writeJSON(w, statsResponse{Notice: "Unable to fetch data. Please try again later."})
		return
	}

	resp := statsResponse{
		Gameweek:   stats.Gameweek,
		LeagueName: stats.LeagueName,
		Matrix: matrixDTO{
			Managers:  stats.Matrix.Managers,
			Gameweeks: stats.Matrix.Gameweeks,
			Points:    stats.Matrix.Points,
		},
	}
	if len(stats.Aggregates) == 0 {
		resp.Notice = "No historical data available yet."
	}
	for _, agg := range stats.Aggregates {
		resp.Leaderboard = append(resp.Leaderboard, aggregateDTO{
			Manager:       agg.Manager.Name,
			TeamName:      agg.Manager.TeamName,
			TotalPoints:   agg.TotalPoints,
			AveragePoints: agg.AveragePoints,
			StdDev:        agg.StdDev,
			BestWeek:      agg.BestWeek,
			WorstWeek:     agg.WorstWeek,
			Rank:          agg.Manager.Rank,
		})
	}
	for _, wnr := range stats.WeeklyWinners {
		resp.WeeklyWinners = append(resp.WeeklyWinners, winnerDTO{
			Gameweek: wnr.Gameweek,
			Manager:  wnr.Manager,
			Points:   wnr.Points,
		})
	}
	for _, wc := range stats.WinCounts {
		resp.WinCounts = append(resp.WinCounts, winCountDTO{Manager: wc.Manager, Wins: wc.Wins})
	}
	if stats.MostConsistent != nil {
		resp.MostConsistent = &notableDTO{Manager: stats.MostConsistent.Manager, Value: stats.MostConsistent.Value}
	}
	if stats.HighestWeek != nil {
		resp.HighestWeek = &notableDTO{Manager: stats.HighestWeek.Manager, Value: stats.HighestWeek.Value}
	}
	s.writeJSON(w, resp)
}

func (s *DashboardServer) handleManagers(w http.ResponseWriter, r *http.Request) {
	report, err := s.seasonSvc.Preseason(r.Context())
	if err != nil {
		s.writeJSON(w, managersResponse{Notice: "Unable to fetch manager data. Please try again later."})
		return
	}

	resp := managersResponse{
		LeagueName:    report.LeagueName,
		AveragePoints: report.AveragePoints,
	}
	for _, card := range report.Managers {
		resp.Managers = append(resp.Managers, toManagerCard(card))
	}
	if report.Champion != nil {
		champion := toManagerCard(*report.Champion)
		resp.Champion = &champion
	}
	s.writeJSON(w, resp)
}

func (s *DashboardServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"})
}

func (s *DashboardServer) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response")
	}
}

type statusResponse struct {
	Started  bool   `json:"started"`
	Gameweek int    `json:"gameweek"`
	Notice   string `json:"notice,omitempty"`
}

type liveResponse struct {
	Gameweek    int            `json:"gameweek"`
	LeagueName  string         `json:"league_name"`
	Provisional bool           `json:"provisional"`
	Leader      *liveStanding  `json:"leader,omitempty"`
	Standings   []liveStanding `json:"standings"`
	Notice      string         `json:"notice,omitempty"`
}

type liveStanding struct {
	Manager          string         `json:"manager"`
	TeamName         string         `json:"team_name"`
	EntryID          int            `json:"entry_id"`
	TeamLink         string         `json:"team_link"`
	LivePoints       int            `json:"live_points"`
	PointsByPosition map[string]int `json:"points_by_position"`
	BenchPoints      int            `json:"bench_points"`
	PlayedCount      int            `json:"played_count"`
	TransfersMade    int            `json:"transfers_made"`
	TransferCost     int            `json:"transfer_cost"`
	ActiveChip       string         `json:"active_chip,omitempty"`
	Captain          *captainDTO    `json:"captain,omitempty"`
	Picks            []pickDTO      `json:"picks"`
}

type captainDTO struct {
	Name   string `json:"name"`
	Team   string `json:"team"`
	Points int    `json:"points"`
	Played bool   `json:"played"`
}

type pickDTO struct {
	Name      string `json:"name"`
	Slot      int    `json:"slot"`
	Points    int    `json:"points"`
	IsCaptain bool   `json:"is_captain"`
	OnBench   bool   `json:"on_bench"`
	Played    bool   `json:"played"`
}

type statsResponse struct {
	Gameweek       int            `json:"gameweek"`
	LeagueName     string         `json:"league_name"`
	Leaderboard    []aggregateDTO `json:"leaderboard"`
	WeeklyWinners  []winnerDTO    `json:"weekly_winners"`
	WinCounts      []winCountDTO  `json:"win_counts"`
	Matrix         matrixDTO      `json:"matrix"`
	MostConsistent *notableDTO    `json:"most_consistent,omitempty"`
	HighestWeek    *notableDTO    `json:"highest_week,omitempty"`
	Notice         string         `json:"notice,omitempty"`
}

type aggregateDTO struct {
	Manager       string  `json:"manager"`
	TeamName      string  `json:"team_name"`
	TotalPoints   int     `json:"total_points"`
	AveragePoints float64 `json:"average_points"`
	StdDev        float64 `json:"std_dev"`
	BestWeek      int     `json:"best_week"`
	WorstWeek     int     `json:"worst_week"`
	Rank          int     `json:"rank"`
}

type winnerDTO struct {
	Gameweek int    `json:"gameweek"`
	Manager  string `json:"manager"`
	Points   int    `json:"points"`
}

type winCountDTO struct {
	Manager string `json:"manager"`
	Wins    int    `json:"wins"`
}

type matrixDTO struct {
	Managers  []string `json:"managers"`
	Gameweeks int      `json:"gameweeks"`
	Points    [][]*int `json:"points"`
}

type notableDTO struct {
	Manager string  `json:"manager"`
	Value   float64 `json:"value"`
}

type managersResponse struct {
	LeagueName    string        `json:"league_name"`
	Managers      []managerCard `json:"managers"`
	Champion      *managerCard  `json:"champion,omitempty"`
	AveragePoints float64       `json:"average_points"`
	Notice        string        `json:"notice,omitempty"`
}

type managerCard struct {
	Manager    string         `json:"manager"`
	TeamName   string         `json:"team_name"`
	EntryID    int            `json:"entry_id"`
	TeamLink   string         `json:"team_link"`
	LastSeason *pastSeasonDTO `json:"last_season,omitempty"`
}

type pastSeasonDTO struct {
	Season      string `json:"season"`
	TotalPoints int    `json:"total_points"`
	Rank        int    `json:"rank"`
}

func toLiveStanding(st domain.LiveStanding) liveStanding {
	out := liveStanding{
		Manager:          st.Manager.Name,
		TeamName:         st.Manager.TeamName,
		EntryID:          st.Manager.EntryID,
		TeamLink:         st.Manager.TeamLink,
		LivePoints:       st.Detail.LivePoints,
		PointsByPosition: st.Detail.PointsByPosition,
		BenchPoints:      st.Detail.BenchPoints,
		PlayedCount:      st.Detail.PlayedCount,
		TransfersMade:    st.Detail.TransfersMade,
		TransferCost:     st.Detail.TransferCost,
		ActiveChip:       st.Detail.ActiveChip,
	}
	if st.Detail.Captain != nil {
		out.Captain = &captainDTO{
			Name:   st.Detail.Captain.Name,
			Team:   st.Detail.Captain.Team,
			Points: st.Detail.Captain.Points,
			Played: st.Detail.Captain.Played,
		}
	}
	for _, p := range st.Detail.Picks {
		out.Picks = append(out.Picks, pickDTO{
			Name:      p.Name,
			Slot:      p.Slot,
			Points:    p.Points,
			IsCaptain: p.IsCaptain,
			OnBench:   p.OnBench,
			Played:    p.Played,
		})
	}
	return out
}

func toManagerCard(card domain.ManagerCard) managerCard {
	out := managerCard{
		Manager:  card.Manager.Name,
		TeamName: card.Manager.TeamName,
		EntryID:  card.Manager.EntryID,
		TeamLink: card.Manager.TeamLink,
	}
	if card.LastSeason != nil {
		out.LastSeason = &pastSeasonDTO{
			Season:      card.LastSeason.Season,
			TotalPoints: card.LastSeason.TotalPoints,
			Rank:        card.LastSeason.Rank,
		}
	}
	return out
}
