package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fpl-tracker/internal/config"
	"fpl-tracker/internal/metrics"

	"github.com/valyala/fasthttp"
)

const userAgent = "fpl-league-tracker/1.0"

type FPLClient struct {
	baseURL string
	client  *fasthttp.Client
}

func NewFPLClient(cfg *config.Config) *FPLClient {
	return &FPLClient{
		baseURL: cfg.FPLBaseURL,
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         10 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
		},
	}
}

func (c *FPLClient) GetBootstrap(ctx context.Context) (*BootstrapResponse, error) {
	url := fmt.Sprintf("%s/bootstrap-static/", c.baseURL)
	return doRequest[BootstrapResponse](ctx, c, url, "bootstrap")
}

func (c *FPLClient) GetLive(ctx context.Context, event int) (*LiveResponse, error) {
	url := fmt.Sprintf("%s/event/%d/live/", c.baseURL, event)
	return doRequest[LiveResponse](ctx, c, url, "live")
}

func (c *FPLClient) GetLeagueStandings(ctx context.Context, leagueID int) (*LeagueResponse, error) {
	url := fmt.Sprintf("%s/leagues-classic/%d/standings/", c.baseURL, leagueID)
	return doRequest[LeagueResponse](ctx, c, url, "standings")
}

func (c *FPLClient) GetEntryHistory(ctx context.Context, entryID int) (*HistoryResponse, error) {
	url := fmt.Sprintf("%s/entry/%d/history/", c.baseURL, entryID)
	return doRequest[HistoryResponse](ctx, c, url, "history")
}

func (c *FPLClient) GetEntryPicks(ctx context.Context, entryID, event int) (*PicksResponse, error) {
	url := fmt.Sprintf("%s/entry/%d/event/%d/picks/", c.baseURL, entryID, event)
	return doRequest[PicksResponse](ctx, c, url, "picks")
}

func (c *FPLClient) GetEntryTransfers(ctx context.Context, entryID int) ([]Transfer, error) {
	url := fmt.Sprintf("%s/entry/%d/transfers/", c.baseURL, entryID)
	transfers, err := doRequest[[]Transfer](ctx, c, url, "transfers")
	if err != nil {
		return nil, err
	}
	return *transfers, nil
}

func doRequest[T any](ctx context.Context, client *FPLClient, url, endpoint string) (*T, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	deadline, ok := ctx.Deadline()
	if ok {
		if err := client.client.DoDeadline(req, resp, deadline); err != nil {
			metrics.RecordUpstreamRequest(endpoint, "error")
			return nil, err
		}
	} else {
		if err := client.client.Do(req, resp); err != nil {
			metrics.RecordUpstreamRequest(endpoint, "error")
			return nil, err
		}
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		metrics.RecordUpstreamRequest(endpoint, fmt.Sprintf("%d", resp.StatusCode()))
		return nil, fmt.Errorf("FPL API error: %d", resp.StatusCode())
	}

	var result T
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		metrics.RecordUpstreamRequest(endpoint, "malformed")
		return nil, err
	}
	metrics.RecordUpstreamRequest(endpoint, "200")
	return &result, nil
}

type BootstrapResponse struct {
	Events       []Event       `json:"events"`
	Elements     []Element     `json:"elements"`
	ElementTypes []ElementType `json:"element_types"`
	Teams        []Team        `json:"teams"`
}

type Event struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	DeadlineTime time.Time `json:"deadline_time"`
	IsCurrent    bool      `json:"is_current"`
	IsNext       bool      `json:"is_next"`
	Finished     bool      `json:"finished"`
}

type Element struct {
	ID          int    `json:"id"`
	WebName     string `json:"web_name"`
	ElementType int    `json:"element_type"`
	Team        int    `json:"team"`
}

type ElementType struct {
	ID           int    `json:"id"`
	SingularName string `json:"singular_name"`
}

type Team struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type LiveResponse struct {
	Elements []LiveElement `json:"elements"`
}

type LiveElement struct {
	ID    int       `json:"id"`
	Stats LiveStats `json:"stats"`
}

type LiveStats struct {
	Minutes     int `json:"minutes"`
	TotalPoints int `json:"total_points"`
}

type LeagueResponse struct {
	League     LeagueInfo `json:"league"`
	Standings  Standings  `json:"standings"`
	NewEntries NewEntries `json:"new_entries"`
}

type LeagueInfo struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Standings struct {
	Results []StandingEntry `json:"results"`
}

type StandingEntry struct {
	Entry      int    `json:"entry"`
	PlayerName string `json:"player_name"`
	EntryName  string `json:"entry_name"`
	Rank       int    `json:"rank"`
	Total      int    `json:"total"`
	EventTotal int    `json:"event_total"`
}

type NewEntries struct {
	Results []NewEntry `json:"results"`
}

type NewEntry struct {
	Entry           int    `json:"entry"`
	PlayerFirstName string `json:"player_first_name"`
	PlayerLastName  string `json:"player_last_name"`
	EntryName       string `json:"entry_name"`
}

type HistoryResponse struct {
	Current []HistoryEvent  `json:"current"`
	Past    []HistorySeason `json:"past"`
	Chips   []ChipPlay      `json:"chips"`
}

type HistoryEvent struct {
	Event              int `json:"event"`
	Points             int `json:"points"`
	TotalPoints        int `json:"total_points"`
	Rank               int `json:"rank"`
	OverallRank        int `json:"overall_rank"`
	EventTransfers     int `json:"event_transfers"`
	EventTransfersCost int `json:"event_transfers_cost"`
	PointsOnBench      int `json:"points_on_bench"`
}

type HistorySeason struct {
	SeasonName  string `json:"season_name"`
	TotalPoints int    `json:"total_points"`
	Rank        int    `json:"rank"`
}

type ChipPlay struct {
	Name  string `json:"name"`
	Event int    `json:"event"`
}

type PicksResponse struct {
	ActiveChip   string       `json:"active_chip"`
	EntryHistory EntryHistory `json:"entry_history"`
	Picks        []PickSlot   `json:"picks"`
}

type EntryHistory struct {
	Event              int `json:"event"`
	Points             int `json:"points"`
	TotalPoints        int `json:"total_points"`
	EventTransfers     int `json:"event_transfers"`
	EventTransfersCost int `json:"event_transfers_cost"`
	PointsOnBench      int `json:"points_on_bench"`
}

type PickSlot struct {
	Element       int  `json:"element"`
	Position      int  `json:"position"`
	Multiplier    int  `json:"multiplier"`
	IsCaptain     bool `json:"is_captain"`
	IsViceCaptain bool `json:"is_vice_captain"`
}

type Transfer struct {
	Entry      int       `json:"entry"`
	Event      int       `json:"event"`
	ElementIn  int       `json:"element_in"`
	ElementOut int       `json:"element_out"`
	Time       time.Time `json:"time"`
}
